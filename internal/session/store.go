package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

// StorageKey is the key under which a client context persists its token pair.
const StorageKey = "session-token"

// ErrNoSession is returned by SetAccess when there is no pair to update,
// typically because a logout cleared the store first.
var ErrNoSession = errors.New("session: no stored token pair")

// Store persists the token pair for one client context.
//
// Get never fails: an unavailable medium or a corrupt value reads as absent,
// and callers treat absent as logged out.
type Store interface {
	Get(ctx context.Context) (auth.TokenPair, bool)
	// Set overwrites the whole pair.
	Set(ctx context.Context, pair auth.TokenPair) error
	// SetAccess replaces only the access half, leaving the refresh token untouched.
	SetAccess(ctx context.Context, accessToken string) error
	Clear(ctx context.Context) error
}

// EncodePair renders the persisted JSON form.
func EncodePair(pair auth.TokenPair) (string, error) {
	b, err := json.Marshal(pair)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodePair parses a persisted value defensively; anything unusable is absent.
func DecodePair(raw string) (auth.TokenPair, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return auth.TokenPair{}, false
	}
	var pair auth.TokenPair
	if err := json.Unmarshal([]byte(raw), &pair); err != nil {
		return auth.TokenPair{}, false
	}
	if !present(pair) {
		return auth.TokenPair{}, false
	}
	return pair, true
}

func present(p auth.TokenPair) bool {
	return p.AccessToken != "" || p.RefreshToken != ""
}
