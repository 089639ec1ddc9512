package memory

import (
	"context"
	"sync"

	"github.com/mexicorn/podium/internal/domain/user"
)

// UserRepository is an in-memory user.Repository.
type UserRepository struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		items: make(map[string]user.User),
	}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[email]
	return item, ok, nil
}

func (r *UserRepository) Ensure(ctx context.Context, item user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.Email]; ok {
		return nil
	}
	r.items[item.Email] = item
	return nil
}
