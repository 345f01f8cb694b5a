package database

import (
	"context"
	"fmt"
	"sync"

	mod "github.com/mi-raf/comment-moderation/internal/models"
)

type (
	UserRepository interface {
		Add(ctx context.Context, u *mod.User) error
		Get(ctx context.Context, username string) (*mod.User, error)
	}

	InMemoryUserRepository struct {
		users map[string]*mod.User
		m     sync.RWMutex
	}
)

var _ UserRepository = (*InMemoryUserRepository)(nil)

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{users: make(map[string]*mod.User, STARTCAP)}
}

func (r *InMemoryUserRepository) Add(ctx context.Context, u *mod.User) error {
	r.m.Lock()
	defer r.m.Unlock()
	if _, ok := r.users[u.Username]; ok {
		return fmt.Errorf("user %s: %w", u.Username, mod.ErrUserExists)
	}
	cp := *u
	r.users[u.Username] = &cp
	return nil
}

func (r *InMemoryUserRepository) Get(ctx context.Context, username string) (*mod.User, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", username, mod.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}
