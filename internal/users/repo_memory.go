package users

import (
	"context"
	"strings"
	"sync"
)

// MemoryRepo is an in-memory repository for tests and local development.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]User
	email map[string]string // lower(email) -> id
}

func NewMemoryRepo(users ...User) *MemoryRepo {
	r := &MemoryRepo{byID: map[string]User{}, email: map[string]string{}}
	for _, u := range users {
		r.Put(u)
	}
	return r
}

func (r *MemoryRepo) Put(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = u
	r.email[strings.ToLower(u.Email)] = u.ID
}

func (r *MemoryRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		delete(r.email, strings.ToLower(u.Email))
		delete(r.byID, id)
	}
}

func (r *MemoryRepo) FindByID(ctx context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) FindByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.email[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return User{}, ErrNotFound
	}
	return r.byID[id], nil
}
