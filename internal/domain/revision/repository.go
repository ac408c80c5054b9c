package revision

import (
	"context"
	"time"
)

// Repository defines the storage contract for revisions.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// CreateBatch stores a planned set of revisions in one transaction.
	CreateBatch(ctx context.Context, revisions []*Revision) error

	// GetByID returns a revision by ID.
	// Returns ErrRevisionNotFound if the revision does not exist.
	GetByID(ctx context.Context, id string) (*Revision, error)

	// GetOpenByUser returns a user's non-terminal revisions ordered by due date.
	GetOpenByUser(ctx context.Context, userID string) ([]*Revision, error)

	// GetByRecord returns the revisions planned from a study record.
	GetByRecord(ctx context.Context, recordID string) ([]*Revision, error)

	// GetDueBetween returns a user's open revisions due in a date range.
	GetDueBetween(ctx context.Context, userID string, from, to time.Time) ([]*Revision, error)

	// Update persists changes to a revision.
	// Returns ErrRevisionNotFound if the revision does not exist.
	Update(ctx context.Context, rev *Revision) error

	// CountOpenByDue returns how many open revisions a user has per due date,
	// used to honor the daily slot cap.
	CountOpenByDue(ctx context.Context, userID string, from, to time.Time) (map[time.Time]int, error)
}

// NotificationCache caches classified notification lists per user, usually
// backed by Redis. Any revision state change invalidates the user's entry.
type NotificationCache interface {
	// Get fetches the cached notifications for a user.
	// A cache miss returns a nil slice and no error.
	Get(ctx context.Context, userID string) ([]Notification, error)

	// Set stores a user's notifications.
	Set(ctx context.Context, userID string, notifications []Notification, ttl time.Duration) error

	// Invalidate drops the cached notifications for a user.
	Invalidate(ctx context.Context, userID string) error
}
