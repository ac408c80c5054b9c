package user

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the storage contract. Implementations live in
// infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository defines CRUD operations for users.
type Repository interface {
	// Create stores a new user.
	// Returns ErrUserAlreadyExists if the email is taken.
	Create(ctx context.Context, u *User) error

	// GetByID returns a user by internal ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail returns a user by email.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists changes to a user.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, u *User) error

	// Delete removes a user and all owned data.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id string) error

	// GetAll returns users with pagination.
	GetAll(ctx context.Context, opts ListOptions) ([]*User, error)

	// GetIDs returns the IDs of all users, for maintenance sweeps.
	GetIDs(ctx context.Context) ([]string, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)

	// Exists checks whether a user exists by ID.
	Exists(ctx context.Context, id string) (bool, error)
}

// ListOptions holds pagination and ordering parameters.
type ListOptions struct {
	// Offset - pagination offset.
	Offset int

	// Limit - maximum number of records.
	Limit int

	// SortBy - column to order by.
	SortBy string

	// SortDesc - descending order.
	SortDesc bool
}

// DefaultListOptions returns sane list defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Offset:   0,
		Limit:    50,
		SortBy:   "created_at",
		SortDesc: false,
	}
}

// WithOffset sets the offset.
func (o ListOptions) WithOffset(offset int) ListOptions {
	o.Offset = offset
	return o
}

// WithLimit sets the limit.
func (o ListOptions) WithLimit(limit int) ListOptions {
	o.Limit = limit
	return o
}

// WithSort sets the ordering.
func (o ListOptions) WithSort(field string, desc bool) ListOptions {
	o.SortBy = field
	o.SortDesc = desc
	return o
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE INTERFACE
// ══════════════════════════════════════════════════════════════════════════════

// Cache defines caching operations for user data, usually backed by Redis.
type Cache interface {
	// Get fetches a user from the cache.
	Get(ctx context.Context, userID string) (*User, error)

	// Set stores a user in the cache.
	Set(ctx context.Context, u *User, ttl time.Duration) error

	// Invalidate drops all cached entries for a user.
	Invalidate(ctx context.Context, userID string) error
}
