package session

import (
	"time"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

// State is the outcome of resolving stored token material.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticated
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	default:
		return "anonymous"
	}
}

// Resolution is what Inspect learned about a pair. Err holds the absorbed
// decode error, if any; it is informational and never fatal.
type Resolution struct {
	State        State
	Claims       auth.Claims
	Err          error
	RefreshToken string
}

// CanRefresh reports whether a refresh attempt could restore the session:
// a refresh token is held and the access token is expired or gone.
func (r Resolution) CanRefresh() bool {
	if r.RefreshToken == "" {
		return false
	}
	return r.State == StateExpired || (r.State == StateAnonymous && r.Err == nil)
}

// Resolver turns stored token material into the current identity.
// It performs no I/O and is safe to call on every navigation.
type Resolver struct {
	codec *auth.Codec
	now   func() time.Time
}

func NewResolver(codec *auth.Codec, now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	return &Resolver{codec: codec, now: now}
}

// Resolve returns the identity for pair, or false when there is none.
// Missing, corrupt, forged and expired tokens all resolve to false.
func (r *Resolver) Resolve(pair *auth.TokenPair) (auth.Claims, bool) {
	res := r.Inspect(pair)
	if res.State != StateAuthenticated {
		return auth.Claims{}, false
	}
	return res.Claims, true
}

func (r *Resolver) Inspect(pair *auth.TokenPair) Resolution {
	if pair == nil {
		return Resolution{State: StateAnonymous}
	}
	res := Resolution{State: StateAnonymous, RefreshToken: pair.RefreshToken}
	if pair.AccessToken == "" {
		return res
	}

	claims, err := r.codec.Decode(pair.AccessToken)
	if err != nil {
		res.Err = err
		return res
	}
	if claims.TokenType != auth.TokenTypeAccess {
		res.Err = auth.ErrWrongTokenType
		return res
	}
	if !claims.ExpiresAt.Time.After(r.now()) {
		res.State = StateExpired
		res.Err = auth.ErrExpired
		return res
	}

	res.State = StateAuthenticated
	res.Claims = claims
	return res
}
