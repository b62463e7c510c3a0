package session

import (
	"context"
	"sync"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
)

// MemoryStore keeps the persisted value in process. It stores the same JSON
// string a browser would keep under StorageKey.
type MemoryStore struct {
	mu  sync.Mutex
	raw string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Get(ctx context.Context) (auth.TokenPair, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return DecodePair(s.raw)
}

func (s *MemoryStore) Set(ctx context.Context, pair auth.TokenPair) error {
	raw, err := EncodePair(pair)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	return nil
}

func (s *MemoryStore) SetAccess(ctx context.Context, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair, ok := DecodePair(s.raw)
	if !ok || pair.RefreshToken == "" {
		return ErrNoSession
	}
	pair.AccessToken = accessToken
	raw, err := EncodePair(pair)
	if err != nil {
		return err
	}
	s.raw = raw
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = ""
	return nil
}

// SetRaw overwrites the persisted string verbatim, e.g. to load client storage as-is.
func (s *MemoryStore) SetRaw(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
}
