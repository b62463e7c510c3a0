package navigation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ingatatech/e-learning-sub003/internal/access"
	"github.com/ingatatech/e-learning-sub003/internal/audit"
	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/config"
	"github.com/ingatatech/e-learning-sub003/internal/refresh"
	"github.com/ingatatech/e-learning-sub003/internal/session"
)

var t0 = time.Unix(1700000000, 0).UTC()

type env struct {
	manager *auth.Manager
	repo    *audit.MemoryRepo
	now     time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	m, err := auth.NewManager(config.AuthConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		Issuer:          "e-learning",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	return &env{manager: m, repo: audit.NewMemoryRepo(), now: t0}
}

func (e *env) clock() time.Time { return e.now }

func (e *env) resolver() *session.Resolver {
	return session.NewResolver(e.manager.AccessCodec(), e.clock)
}

func (e *env) coordinator() *refresh.Coordinator {
	return refresh.NewCoordinator(e.manager, audit.NewService(e.repo), refresh.WithClock(e.clock))
}

func (e *env) flow() *Flow { return NewFlow(e.resolver(), e.coordinator()) }

func (e *env) pair(t *testing.T, role auth.Role) auth.TokenPair {
	t.Helper()
	p, err := e.manager.IssuePair(t0, auth.Identity{UserID: "u-" + string(role), Email: string(role) + "@example.com", Role: role})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return p
}

func storeWith(t *testing.T, p auth.TokenPair) *session.MemoryStore {
	t.Helper()
	s := session.NewMemoryStore()
	if err := s.Set(context.Background(), p); err != nil {
		t.Fatalf("set: %v", err)
	}
	return s
}

type refresherFunc func(ctx context.Context, store session.Store, token string) (string, error)

func (f refresherFunc) Refresh(ctx context.Context, store session.Store, token string) (string, error) {
	return f(ctx, store, token)
}

func TestFlow_AuthenticatedOwnRoute(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(time.Minute)
	store := storeWith(t, e.pair(t, auth.RoleInstructor))

	out, err := e.flow().Run(context.Background(), store, "/instructor/courses")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.Decision.Allowed() || out.Identity == nil || out.Identity.Role != auth.RoleInstructor {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if out.Refreshed {
		t.Fatalf("valid access token must not trigger a refresh")
	}
}

func TestFlow_ExpiredAccessIsRefreshedBeforeDeciding(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(30 * time.Minute)
	p := e.pair(t, auth.RoleStudent)
	store := storeWith(t, p)

	out, err := e.flow().Run(context.Background(), store, "/student")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.Refreshed || out.State != session.StateAuthenticated {
		t.Fatalf("expected refreshed session, got %+v", out)
	}
	if out.Decision != access.Allow("role_match") {
		t.Fatalf("decision = %+v", out.Decision)
	}
	got, _ := store.Get(context.Background())
	if got.AccessToken == p.AccessToken || got.RefreshToken != p.RefreshToken {
		t.Fatalf("store after refresh = %+v", got)
	}
}

func TestFlow_MissingAccessWithRefreshIsRestored(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(time.Hour)
	p := e.pair(t, auth.RoleRegistrar)
	store := storeWith(t, auth.TokenPair{RefreshToken: p.RefreshToken})

	out, err := e.flow().Run(context.Background(), store, "/registrar")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.Refreshed || !out.Decision.Allowed() {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestFlow_ExpiredRefreshForcesLogout(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(48 * time.Hour)

	for path, want := range map[string]access.Decision{
		"/student": access.RedirectTo(access.LoginPath, "forced_logout"),
		"/":        access.RedirectTo(access.LoginPath, "forced_logout"),
		"/login":   access.Allow("forced_logout"),
	} {
		store := storeWith(t, e.pair(t, auth.RoleStudent))
		out, err := e.flow().Run(context.Background(), store, path)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if !out.ForcedLogout || out.Decision != want {
			t.Fatalf("%s: outcome %+v, want %+v", path, out, want)
		}
		if _, ok := store.Get(context.Background()); ok {
			t.Fatalf("%s: store must be cleared", path)
		}
	}
}

func TestFlow_ForgedAccessWithoutRefresh(t *testing.T) {
	e := newEnv(t)
	p := e.pair(t, auth.RoleAdmin)
	store := storeWith(t, auth.TokenPair{AccessToken: p.AccessToken + "x"})

	out, err := e.flow().Run(context.Background(), store, "/admin")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.Identity != nil || out.Decision != access.RedirectTo(access.LoginPath, "unauthenticated") {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if !errors.Is(out.Rejected, auth.ErrInvalidSignature) {
		t.Fatalf("rejected = %v", out.Rejected)
	}
}

func TestFlow_ForgedAccessIsNotRefreshed(t *testing.T) {
	e := newEnv(t)
	p := e.pair(t, auth.RoleAdmin)
	store := storeWith(t, auth.TokenPair{AccessToken: p.AccessToken + "x", RefreshToken: p.RefreshToken})

	called := false
	f := NewFlow(e.resolver(), refresherFunc(func(context.Context, session.Store, string) (string, error) {
		called = true
		return "", nil
	}))
	out, err := f.Run(context.Background(), store, "/admin")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if called || out.Decision.Allowed() {
		t.Fatalf("forged access token must not be refreshed: %+v", out)
	}
}

func TestFlow_TransientRefreshFailureKeepsSession(t *testing.T) {
	e := newEnv(t)
	e.now = t0.Add(time.Hour)
	store := storeWith(t, e.pair(t, auth.RoleStudent))

	f := NewFlow(e.resolver(), refresherFunc(func(context.Context, session.Store, string) (string, error) {
		return "", errors.New("connection refused")
	}))
	out, err := f.Run(context.Background(), store, "/student")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out.ForcedLogout || out.Decision != access.RedirectTo(access.LoginPath, "unauthenticated") {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if _, ok := store.Get(context.Background()); !ok {
		t.Fatalf("transient failure must not clear the store")
	}
}

func TestFlow_CancelledContext(t *testing.T) {
	e := newEnv(t)
	store := storeWith(t, e.pair(t, auth.RoleStudent))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.flow().Run(ctx, store, "/student"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
