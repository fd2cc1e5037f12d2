package user

import "context"

// Cache stores the latest known snapshot of each user, keyed by id.
type Cache interface {
	Put(ctx context.Context, u User) error
	// Get returns ErrNotFound when no snapshot is stored for id.
	Get(ctx context.Context, id string) (User, error)
}
