package navigation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ingatatech/e-learning-sub003/internal/audit"
	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/session"
	"github.com/ingatatech/e-learning-sub003/pkg/logger"
)

func newPageRouter(e *env) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	gate := PageGate(e.flow(), session.CookieFactory{AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour}, audit.NewService(e.repo))
	page := func(c *gin.Context) {
		role := ""
		if id, ok := auth.IdentityFrom(c.Request.Context()); ok {
			role = string(id.Role)
		}
		c.String(http.StatusOK, "page:"+role)
	}
	r.NoRoute(gate, page)
	return r
}

func pageRequest(path string, pair auth.TokenPair) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if pair.AccessToken != "" {
		req.AddCookie(&http.Cookie{Name: auth.AccessCookieName, Value: pair.AccessToken})
	}
	if pair.RefreshToken != "" {
		req.AddCookie(&http.Cookie{Name: auth.RefreshCookieName, Value: pair.RefreshToken})
	}
	return req
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestPageGate_AnonymousRedirectedToLogin(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	newPageRouter(e).ServeHTTP(rec, pageRequest("/student/courses", auth.TokenPair{}))

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPageGate_AllowsOwnRouteWithIdentity(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(time.Minute)
	rec := httptest.NewRecorder()
	newPageRouter(e).ServeHTTP(rec, pageRequest("/student/courses", e.pair(t, auth.RoleStudent)))

	if rec.Code != http.StatusOK || rec.Body.String() != "page:student" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestPageGate_CrossRoleRedirectsHome(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(time.Minute)
	rec := httptest.NewRecorder()
	newPageRouter(e).ServeHTTP(rec, pageRequest("/admin", e.pair(t, auth.RoleStudent)))

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/student" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestPageGate_RefreshesExpiredAccessCookie(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(20 * time.Minute)
	rec := httptest.NewRecorder()
	newPageRouter(e).ServeHTTP(rec, pageRequest("/student", e.pair(t, auth.RoleStudent)))

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	ck := cookieNamed(rec, auth.AccessCookieName)
	if ck == nil || ck.Value == "" || ck.MaxAge != 900 || !ck.HttpOnly {
		t.Fatalf("expected refreshed access cookie, got %+v", ck)
	}
	if cookieNamed(rec, auth.RefreshCookieName) != nil {
		t.Fatalf("refresh cookie must be left untouched")
	}
}

func TestPageGate_ExpiredRefreshClearsCookies(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(48 * time.Hour)
	rec := httptest.NewRecorder()
	newPageRouter(e).ServeHTTP(rec, pageRequest("/student", e.pair(t, auth.RoleStudent)))

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	for _, name := range []string{auth.AccessCookieName, auth.RefreshCookieName} {
		if ck := cookieNamed(rec, name); ck == nil || ck.MaxAge >= 0 {
			t.Fatalf("%s not expired: %+v", name, ck)
		}
	}
}

func TestPageGate_TamperedTokenAudited(t *testing.T) {
	e := newEnv(t)
	foreign, err := auth.NewCodec("someone-elses-secret", "e-learning", "")
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	forged, err := foreign.Encode(auth.Identity{UserID: "u-1", Email: "x@example.com", Role: auth.RoleAdmin}, auth.TokenTypeAccess, t0, 15*time.Minute)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	rec := httptest.NewRecorder()
	newPageRouter(e).ServeHTTP(rec, pageRequest("/admin", auth.TokenPair{AccessToken: forged}))

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if n := len(e.repo.OfType(audit.EventTypeTokenTampering)); n != 1 {
		t.Fatalf("expected one tampering event, got %d", n)
	}
}

func TestPageGate_SessionFieldsInRequestLog(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(time.Minute)

	var buf bytes.Buffer
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(logger.Middleware(logger.NewWithWriter("production", &buf)))
	gate := PageGate(e.flow(), session.CookieFactory{AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour}, audit.NewService(e.repo))
	r.NoRoute(gate, func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), pageRequest("/student/courses", e.pair(t, auth.RoleStudent)))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &rec); err != nil {
		t.Fatalf("log line: %v", err)
	}
	if rec["user_id"] != "u-student" || rec["role"] != "student" || rec["session_state"] != "authenticated" || rec["gate"] != "role_match" {
		t.Fatalf("summary line missing session fields: %v", rec)
	}
}
