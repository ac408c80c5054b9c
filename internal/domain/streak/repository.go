package streak

import (
	"context"
	"errors"
)

// ErrStreakNotFound - no streak row exists for the user yet.
var ErrStreakNotFound = errors.New("streak not found")

// Repository defines the storage contract for streaks.
// Implementations live in infrastructure/persistence.
type Repository interface {
	// Save stores or updates a streak.
	Save(ctx context.Context, s *Streak) error

	// GetByUser returns the user's streak.
	// Returns ErrStreakNotFound if no streak exists yet.
	GetByUser(ctx context.Context, userID string) (*Streak, error)

	// GetTop returns the highest current streaks, for summaries.
	GetTop(ctx context.Context, limit int) ([]*Streak, error)
}
