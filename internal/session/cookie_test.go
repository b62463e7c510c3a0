package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCookieStore_SetWritesHardenedCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)

	s := NewCookieStore(c, true, 15*time.Minute, 24*time.Hour)
	if err := s.Set(context.Background(), auth.TokenPair{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("set: %v", err)
	}

	res := w.Result()
	access := cookieByName(res.Cookies(), auth.AccessCookieName)
	if access == nil {
		t.Fatalf("expected access cookie")
	}
	if !access.HttpOnly || !access.Secure || access.SameSite != http.SameSiteLaxMode || access.MaxAge != 900 {
		t.Fatalf("unexpected access cookie attributes: %+v", access)
	}
	refresh := cookieByName(res.Cookies(), auth.RefreshCookieName)
	if refresh == nil || refresh.Value != "r" || refresh.MaxAge != 86400 {
		t.Fatalf("unexpected refresh cookie: %+v", refresh)
	}

	got, ok := s.Get(context.Background())
	if !ok || got.AccessToken != "a" {
		t.Fatalf("expected write to be visible to later reads: %+v", got)
	}
}

func TestCookieStore_ReadsRequestCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/student", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: "r"})
	c.Request = req

	s := NewCookieStore(c, false, 15*time.Minute, time.Hour)
	got, ok := s.Get(context.Background())
	if !ok || got.RefreshToken != "r" || got.AccessToken != "" {
		t.Fatalf("unexpected pair: %+v %v", got, ok)
	}

	if err := s.SetAccess(context.Background(), "a2"); err != nil {
		t.Fatalf("set access: %v", err)
	}
	got, _ = s.Get(context.Background())
	if got.AccessToken != "a2" || got.RefreshToken != "r" {
		t.Fatalf("unexpected pair after SetAccess: %+v", got)
	}
}

func TestCookieStore_ClearExpiresCookies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessCookieName, Value: "a"})
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: "r"})
	c.Request = req

	s := NewCookieStore(c, false, 15*time.Minute, time.Hour)
	if err := s.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, name := range []string{auth.AccessCookieName, auth.RefreshCookieName} {
		ck := cookieByName(w.Result().Cookies(), name)
		if ck == nil || ck.MaxAge >= 0 {
			t.Fatalf("expected %s to be expired, got %+v", name, ck)
		}
	}
	if _, ok := s.Get(context.Background()); ok {
		t.Fatalf("expected cleared store to read as absent")
	}
	if err := s.SetAccess(context.Background(), "late"); err == nil {
		t.Fatalf("expected ErrNoSession after clear")
	}
}
