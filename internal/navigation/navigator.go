package navigation

import (
	"context"
	"errors"
	"sync"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/session"
)

// ErrSuperseded is returned for a navigation overtaken by a later one, or by
// a login or logout in the same client context. Its outcome must not be applied.
var ErrSuperseded = errors.New("navigation: superseded")

// Navigator drives one client context. At most one navigation result is live:
// starting a navigation cancels the previous one and discards its result.
type Navigator struct {
	flow  *Flow
	store session.Store

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

func NewNavigator(flow *Flow, store session.Store) *Navigator {
	return &Navigator{flow: flow, store: store}
}

func (n *Navigator) begin(ctx context.Context) (context.Context, uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
	}
	n.gen++
	ctx, n.cancel = context.WithCancel(ctx)
	return ctx, n.gen
}

// bump invalidates any in-flight navigation.
func (n *Navigator) bump() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.gen++
}

// Navigate resolves and gates target. If another navigation, login or logout
// started meanwhile, the result is dropped and ErrSuperseded returned.
func (n *Navigator) Navigate(ctx context.Context, target string) (Outcome, error) {
	runCtx, gen := n.begin(ctx)
	out, err := n.flow.Run(runCtx, n.store, target)

	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen {
		return Outcome{}, ErrSuperseded
	}
	n.cancel()
	n.cancel = nil
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// Login stores a freshly issued pair.
func (n *Navigator) Login(ctx context.Context, pair auth.TokenPair) error {
	n.bump()
	return n.store.Set(ctx, pair)
}

// Logout clears all token material. Pending navigations are discarded.
func (n *Navigator) Logout(ctx context.Context) error {
	n.bump()
	return n.store.Clear(ctx)
}
