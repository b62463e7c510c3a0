package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Role is the closed set of platform roles. Comparison is exact and case-sensitive.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
	RoleRegistrar  Role = "registrar"
	RoleSysAdmin   Role = "sysAdmin"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleInstructor, RoleStudent, RoleRegistrar, RoleSysAdmin}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent, RoleRegistrar, RoleSysAdmin:
		return true
	default:
		return false
	}
}

// Home is the landing path for the role, e.g. "/student".
func (r Role) Home() string { return "/" + string(r) }

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("auth: unknown role %q", s)
	}
	return r, nil
}

// Identity is the unsigned subject data a token is minted from.
// Refresh tokens carry exactly this payload so an access token can be re-issued.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

// Claims are the only supported JWT claims shape for this service.
// A Claims value is only ever produced by Codec.Decode after the signature verified.
// Email is for display and audit; authorization decisions use Role only.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TokenType TokenType `json:"token_type"`
}

func (c Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email, Role: c.Role}
}

// TokenPair is the access/refresh token material held by one client session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
