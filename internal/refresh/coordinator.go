package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ingatatech/e-learning-sub003/internal/audit"
	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/obs"
	"github.com/ingatatech/e-learning-sub003/internal/session"
	"github.com/ingatatech/e-learning-sub003/pkg/logger"
)

// ErrInvalid means the refresh token is missing, forged or expired.
// It is terminal for the session: the store has been cleared and the caller
// must send the user to the login surface. It is never retried.
var ErrInvalid = errors.New("refresh: refresh token invalid")

// Path is the refresh endpoint served by the API.
const Path = "/api/auth/refresh"

// Coordinator exchanges a refresh token for a new access token.
// It holds only read-only configuration; concurrent refreshes for different
// clients share nothing.
type Coordinator struct {
	manager *auth.Manager
	audit   *audit.Service
	now     func() time.Time
}

type Option func(*Coordinator)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func NewCoordinator(m *auth.Manager, a *audit.Service, opts ...Option) *Coordinator {
	c := &Coordinator{manager: m, audit: a, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh verifies refreshToken with the refresh key, mints a 15 minute access
// token from its payload and writes it to store, leaving the refresh half untouched.
func (c *Coordinator) Refresh(ctx context.Context, store session.Store, refreshToken string) (string, error) {
	log := logger.From(ctx)
	now := c.now()

	claims, err := c.manager.VerifyRefresh(refreshToken, now)
	if err != nil {
		return "", c.reject(ctx, store, nil, err)
	}

	access, err := c.manager.IssueAccess(now, claims.Identity())
	if err != nil {
		return "", c.reject(ctx, store, &claims, err)
	}

	if err := store.SetAccess(ctx, access); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			// A logout cleared the store while we were minting; it wins.
			obs.RefreshOutcomes.WithLabelValues("superseded").Inc()
			return "", err
		}
		if errors.Is(err, context.Canceled) {
			// A later navigation cancelled us. The write may still have been
			// applied by the store; either way the caller has moved on.
			obs.RefreshOutcomes.WithLabelValues("superseded").Inc()
			log.Debug("refresh superseded before persist confirmed", "user_id", claims.UserID)
			return "", err
		}
		obs.RefreshOutcomes.WithLabelValues("error").Inc()
		log.Error("persist refreshed access token", "err", err, "user_id", claims.UserID)
		return "", fmt.Errorf("persist access token: %w", err)
	}

	obs.RefreshOutcomes.WithLabelValues("ok").Inc()
	c.audit.Record(ctx, audit.EventTypeRefresh, &claims, "access token refreshed")
	log.Debug("access token refreshed", "user_id", claims.UserID, "role", string(claims.Role))
	return access, nil
}

// reject forces logout: all token material is cleared before returning ErrInvalid.
func (c *Coordinator) reject(ctx context.Context, store session.Store, claims *auth.Claims, cause error) error {
	log := logger.From(ctx)
	if err := store.Clear(ctx); err != nil {
		log.Error("clear session after rejected refresh", "err", err)
	}

	obs.RefreshOutcomes.WithLabelValues("invalid").Inc()
	if errors.Is(cause, auth.ErrInvalidSignature) {
		log.Warn("refresh token failed signature check", "err", cause)
		c.audit.Record(ctx, audit.EventTypeTokenTampering, claims, "refresh token signature invalid")
	} else {
		log.Info("refresh token rejected", "err", cause)
		c.audit.Record(ctx, audit.EventTypeRefreshRejected, claims, cause.Error())
	}
	return fmt.Errorf("%w: %w", ErrInvalid, cause)
}
