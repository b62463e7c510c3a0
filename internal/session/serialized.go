package session

import (
	"context"
	"errors"
	"sync"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

// ErrClosed is returned after Close.
var ErrClosed = errors.New("session: store closed")

type storeOp struct {
	ctx context.Context
	run func(ctx context.Context) error
	res chan error
}

// Serialized funnels every operation on the wrapped store through one
// goroutine, in submission order. A Clear submitted after a Set always
// lands after it, and reads observe every write submitted before them.
type Serialized struct {
	inner Store
	ops   chan storeOp
	done  chan struct{}
	once  sync.Once
}

func NewSerialized(inner Store) *Serialized {
	s := &Serialized{
		inner: inner,
		ops:   make(chan storeOp),
		done:  make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Serialized) loop() {
	for {
		select {
		case op := <-s.ops:
			select {
			case <-s.done:
				op.res <- ErrClosed
				continue
			default:
			}
			op.res <- op.run(op.ctx)
		case <-s.done:
			return
		}
	}
}

// submit enqueues fn. Once enqueued it runs even if ctx is cancelled while waiting.
func (s *Serialized) submit(ctx context.Context, fn func(ctx context.Context) error) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	op := storeOp{ctx: context.WithoutCancel(ctx), run: fn, res: make(chan error, 1)}
	select {
	case s.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrClosed
	}
	select {
	case err := <-op.res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Serialized) Get(ctx context.Context) (auth.TokenPair, bool) {
	var (
		pair auth.TokenPair
		ok   bool
	)
	err := s.submit(ctx, func(ctx context.Context) error {
		pair, ok = s.inner.Get(ctx)
		return nil
	})
	if err != nil {
		return auth.TokenPair{}, false
	}
	return pair, ok
}

func (s *Serialized) Set(ctx context.Context, pair auth.TokenPair) error {
	return s.submit(ctx, func(ctx context.Context) error { return s.inner.Set(ctx, pair) })
}

func (s *Serialized) SetAccess(ctx context.Context, accessToken string) error {
	return s.submit(ctx, func(ctx context.Context) error { return s.inner.SetAccess(ctx, accessToken) })
}

func (s *Serialized) Clear(ctx context.Context) error {
	return s.submit(ctx, func(ctx context.Context) error { return s.inner.Clear(ctx) })
}

// Close stops the writer goroutine. Pending submissions fail with ErrClosed.
func (s *Serialized) Close() {
	s.once.Do(func() { close(s.done) })
}
