package session

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

// CookieStore is a per-request view of the pair held in HTTP-only cookies.
// Writes are mirrored locally so later reads in the same request see them.
type CookieStore struct {
	c          *gin.Context
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration

	written bool
	pair    auth.TokenPair
}

func NewCookieStore(c *gin.Context, secure bool, accessTTL, refreshTTL time.Duration) *CookieStore {
	return &CookieStore{c: c, secure: secure, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *CookieStore) Get(ctx context.Context) (auth.TokenPair, bool) {
	if s.written {
		return s.pair, present(s.pair)
	}
	var pair auth.TokenPair
	if v, err := s.c.Cookie(auth.AccessCookieName); err == nil {
		pair.AccessToken = v
	}
	if v, err := s.c.Cookie(auth.RefreshCookieName); err == nil {
		pair.RefreshToken = v
	}
	return pair, present(pair)
}

func (s *CookieStore) Set(ctx context.Context, pair auth.TokenPair) error {
	s.setCookie(auth.AccessCookieName, pair.AccessToken, s.accessTTL)
	s.setCookie(auth.RefreshCookieName, pair.RefreshToken, s.refreshTTL)
	s.written, s.pair = true, pair
	return nil
}

func (s *CookieStore) SetAccess(ctx context.Context, accessToken string) error {
	pair, ok := s.Get(ctx)
	if !ok || pair.RefreshToken == "" {
		return ErrNoSession
	}
	s.setCookie(auth.AccessCookieName, accessToken, s.accessTTL)
	pair.AccessToken = accessToken
	s.written, s.pair = true, pair
	return nil
}

func (s *CookieStore) Clear(ctx context.Context) error {
	s.setCookie(auth.AccessCookieName, "", -1)
	s.setCookie(auth.RefreshCookieName, "", -1)
	s.written, s.pair = true, auth.TokenPair{}
	return nil
}

// setCookie writes an HttpOnly, SameSite=Lax cookie. A negative ttl expires it.
func (s *CookieStore) setCookie(name, value string, ttl time.Duration) {
	maxAge := -1
	if ttl > 0 {
		maxAge = int(ttl / time.Second)
	}
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(name, value, maxAge, "/", "", s.secure, true)
}
