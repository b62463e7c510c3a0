package navigation

import (
	"context"
	"errors"

	"github.com/ingatatech/e-learning-sub003/internal/access"
	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/refresh"
	"github.com/ingatatech/e-learning-sub003/internal/session"
	"github.com/ingatatech/e-learning-sub003/pkg/logger"
)

// Refresher exchanges a refresh token for a new access token and persists it in store.
// refresh.Coordinator implements it in-process and refresh.Client over HTTP.
type Refresher interface {
	Refresh(ctx context.Context, store session.Store, refreshToken string) (string, error)
}

// Outcome is one resolved navigation.
type Outcome struct {
	Decision access.Decision
	Category access.Category

	// Identity is nil when the navigation resolved to no identity.
	Identity *auth.Claims
	State    session.State

	// Rejected carries the absorbed access token error, if any.
	Rejected error

	Refreshed    bool
	ForcedLogout bool
}

// Flow is resolve, refresh when possible, then decide.
type Flow struct {
	resolver  *session.Resolver
	refresher Refresher
}

func NewFlow(resolver *session.Resolver, refresher Refresher) *Flow {
	return &Flow{resolver: resolver, refresher: refresher}
}

// Run gates target against the identity currently held in store.
// The store is read at call time; nothing is cached between calls.
// Only context cancellation is returned as an error; every token problem
// is folded into the decision.
func (f *Flow) Run(ctx context.Context, store session.Store, target string) (Outcome, error) {
	out := Outcome{Category: access.Classify(target)}

	pair, _ := store.Get(ctx)
	res := f.resolver.Inspect(&pair)
	out.State, out.Rejected = res.State, res.Err

	if res.State != session.StateAuthenticated && res.CanRefresh() && f.refresher != nil {
		if _, err := f.refresher.Refresh(ctx, store, res.RefreshToken); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Outcome{}, ctxErr
			}
			if errors.Is(err, refresh.ErrInvalid) || errors.Is(err, session.ErrNoSession) {
				out.ForcedLogout = true
				out.Decision = forcedLogout(out.Category)
				return out, nil
			}
			// Transient: keep the session, treat this navigation as anonymous.
			logger.From(ctx).Warn("refresh failed", "err", err)
		} else {
			out.Refreshed = true
			pair, _ = store.Get(ctx)
			res = f.resolver.Inspect(&pair)
			out.State = res.State
		}
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	if res.State == session.StateAuthenticated {
		claims := res.Claims
		out.Identity = &claims
	}
	out.Decision = access.Decide(target, out.Identity)
	return out, nil
}

func forcedLogout(category access.Category) access.Decision {
	if category == access.AuthOnly {
		return access.Allow("forced_logout")
	}
	return access.RedirectTo(access.LoginPath, "forced_logout")
}
