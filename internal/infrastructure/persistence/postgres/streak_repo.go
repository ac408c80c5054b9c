package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements streak.Repository using PostgreSQL.
type StreakRepository struct {
	conn *Connection
}

// NewStreakRepository creates a new streak repository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{conn: conn}
}

const streakColumns = `
	user_id, current_streak, best_streak,
	freezes_total, freezes_used, last_active_date, updated_at
`

// Save stores or updates a streak. One row per user.
func (r *StreakRepository) Save(ctx context.Context, s *streak.Streak) error {
	query := `
		INSERT INTO streaks (` + streakColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			freezes_total = EXCLUDED.freezes_total,
			freezes_used = EXCLUDED.freezes_used,
			last_active_date = EXCLUDED.last_active_date,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		s.UserID, s.Current, s.Best,
		s.FreezesTotal, s.FreezesUsed, nullTime(s.LastActiveDate), s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}

	return nil
}

// GetByUser returns the user's streak.
func (r *StreakRepository) GetByUser(ctx context.Context, userID string) (*streak.Streak, error) {
	query := `SELECT ` + streakColumns + ` FROM streaks WHERE user_id = $1`
	return r.scanStreak(r.conn.QueryRow(ctx, query, userID))
}

// GetTop returns the highest current streaks, for summaries.
func (r *StreakRepository) GetTop(ctx context.Context, limit int) ([]*streak.Streak, error) {
	query := `
		SELECT ` + streakColumns + `
		FROM streaks
		WHERE current_streak > 0
		ORDER BY current_streak DESC, best_streak DESC
		LIMIT $1
	`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top streaks: %w", err)
	}
	defer rows.Close()

	var streaks []*streak.Streak
	for rows.Next() {
		s, err := r.scanStreak(rows)
		if err != nil {
			return nil, err
		}
		streaks = append(streaks, s)
	}

	return streaks, rows.Err()
}

func (r *StreakRepository) scanStreak(row rowScanner) (*streak.Streak, error) {
	var (
		s          streak.Streak
		lastActive *time.Time
	)

	err := row.Scan(
		&s.UserID, &s.Current, &s.Best,
		&s.FreezesTotal, &s.FreezesUsed, &lastActive, &s.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, streak.ErrStreakNotFound
		}
		return nil, fmt.Errorf("failed to scan streak: %w", err)
	}

	if lastActive != nil {
		s.LastActiveDate = *lastActive
	}
	return &s, nil
}
