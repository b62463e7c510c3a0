package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

func TestSerialized_ClearAfterSetWins(t *testing.T) {
	ctx := context.Background()
	s := NewSerialized(NewMemoryStore())
	defer s.Close()

	_ = s.Set(ctx, auth.TokenPair{AccessToken: "a1", RefreshToken: "r1"})

	// A refresh persists its new access token, then the user logs out.
	if err := s.SetAccess(ctx, "a2"); err != nil {
		t.Fatalf("set access: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := s.Get(ctx); ok {
		t.Fatalf("logout submitted after refresh must win")
	}
}

func TestSerialized_ConcurrentWritersNeverInterleave(t *testing.T) {
	ctx := context.Background()
	s := NewSerialized(NewMemoryStore())
	defer s.Close()
	_ = s.Set(ctx, auth.TokenPair{AccessToken: "a0", RefreshToken: "r0"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetAccess(ctx, "a")
		}()
		go func() {
			defer wg.Done()
			_ = s.Set(ctx, auth.TokenPair{AccessToken: "b", RefreshToken: "rb"})
		}()
	}
	wg.Wait()

	got, ok := s.Get(ctx)
	if !ok {
		t.Fatalf("expected a pair")
	}
	if got.RefreshToken != "rb" || (got.AccessToken != "a" && got.AccessToken != "b") {
		t.Fatalf("observed a partial write: %+v", got)
	}
}

func TestSerialized_ClosedStore(t *testing.T) {
	s := NewSerialized(NewMemoryStore())
	s.Close()
	s.Close()

	if err := s.Set(context.Background(), auth.TokenPair{AccessToken: "a"}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, ok := s.Get(context.Background()); ok {
		t.Fatalf("expected closed store to read as absent")
	}
}

func TestSerialized_UsableAfterCancelledCaller(t *testing.T) {
	s := NewSerialized(NewMemoryStore())
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = s.Clear(ctx)

	if err := s.Set(context.Background(), auth.TokenPair{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, ok := s.Get(context.Background()); !ok || got.AccessToken != "a" {
		t.Fatalf("unexpected pair: %+v", got)
	}
}
