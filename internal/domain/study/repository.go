package study

import (
	"context"
	"time"
)

// Repository defines the storage contract for study records.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Create stores a new study record.
	Create(ctx context.Context, r *Record) error

	// GetByID returns a record by ID.
	// Returns ErrRecordNotFound if the record does not exist.
	GetByID(ctx context.Context, id string) (*Record, error)

	// GetByUser returns a user's records between two dates, newest first.
	GetByUser(ctx context.Context, userID string, from, to time.Time) ([]*Record, error)

	// GetByDate returns a user's records for a single calendar day.
	GetByDate(ctx context.Context, userID string, date time.Time) ([]*Record, error)

	// HasActivityOn reports whether the user logged anything on the given day.
	HasActivityOn(ctx context.Context, userID string, date time.Time) (bool, error)

	// TotalMinutes sums the dedicated minutes of a user's records in a range.
	TotalMinutes(ctx context.Context, userID string, from, to time.Time) (int, error)

	// Delete removes a study record.
	Delete(ctx context.Context, id string) error
}
