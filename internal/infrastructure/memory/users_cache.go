package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/userdetails/internal/domain/user"
)

// UsersCache keeps the latest snapshot of each user in a map. No TTL, no eviction.
type UsersCache struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

var _ domain.Cache = (*UsersCache)(nil)

func NewUsersCache() *UsersCache {
	return &UsersCache{
		users: make(map[string]domain.User),
	}
}

func (c *UsersCache) Put(ctx context.Context, u domain.User) error {
	_ = ctx
	if u.IsZero() {
		return fmt.Errorf("users cache: %w", domain.ErrInvalidID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.users[u.ID()] = u
	return nil
}

func (c *UsersCache) Get(ctx context.Context, id string) (domain.User, error) {
	_ = ctx

	c.mu.RLock()
	defer c.mu.RUnlock()

	u, ok := c.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// List returns every cached user ordered by id.
func (c *UsersCache) List(ctx context.Context) []domain.User {
	_ = ctx

	c.mu.RLock()
	out := make([]domain.User, 0, len(c.users))
	for _, u := range c.users {
		out = append(out, u)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
