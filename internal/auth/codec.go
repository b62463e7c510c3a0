package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrMalformed means the token could not be parsed into a Claims value.
	ErrMalformed = errors.New("auth: malformed token")
	// ErrInvalidSignature means the token parsed but was not signed by the configured key.
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	// ErrExpired means the token verified but exp <= now.
	ErrExpired = errors.New("auth: token expired")
	// ErrWrongTokenType means an access token was presented where a refresh token was expected, or the reverse.
	ErrWrongTokenType = errors.New("auth: unexpected token type")
)

// Codec signs and verifies one class of token with a single HS256 secret.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	secret   []byte
	issuer   string
	audience string
}

func NewCodec(secret, issuer, audience string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("auth: codec secret is required")
	}
	return &Codec{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
	}, nil
}

// Encode mints a signed token for id. Output depends only on the inputs, iat and a random jti.
func (c *Codec) Encode(id Identity, typ TokenType, now time.Time, ttl time.Duration) (string, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return "", errors.New("auth: user id is required")
	}
	if !id.Role.Valid() {
		return "", fmt.Errorf("auth: cannot issue token for role %q", id.Role)
	}
	if ttl <= 0 {
		return "", errors.New("auth: ttl must be greater than zero")
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  audienceOrNil(c.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		UserID:    id.UserID,
		Email:     id.Email,
		Role:      id.Role,
		TokenType: typ,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and structure of token. It does not check expiry.
// Failures are ErrMalformed or ErrInvalidSignature.
func (c *Codec) Decode(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	if c.issuer != "" && claims.Issuer != c.issuer {
		return Claims{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidSignature, claims.Issuer)
	}
	if c.audience != "" && !slices.Contains([]string(claims.Audience), c.audience) {
		return Claims{}, fmt.Errorf("%w: audience mismatch", ErrInvalidSignature)
	}
	if err := validateShape(claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}

// Verify decodes token and additionally enforces its type and expiry against now.
func (c *Codec) Verify(token string, expected TokenType, now time.Time) (Claims, error) {
	claims, err := c.Decode(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != expected {
		return Claims{}, ErrWrongTokenType
	}
	if !claims.ExpiresAt.Time.After(now) {
		return Claims{}, ErrExpired
	}
	return claims, nil
}

func validateShape(c Claims) error {
	if strings.TrimSpace(c.UserID) == "" {
		return errors.New("userId missing")
	}
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return errors.New("iat/exp missing")
	}
	if !c.ExpiresAt.Time.After(c.IssuedAt.Time) {
		return errors.New("exp must be after iat")
	}
	if c.TokenType == "" {
		return errors.New("token_type missing")
	}
	return nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
