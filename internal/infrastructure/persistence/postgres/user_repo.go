package postgres

import (
	"context"
	"fmt"

	"github.com/studyhelper/studyhelper-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements user.Repository using PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a new user repository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `
	id, email, display_name,
	week_starts_on, review_plan, max_slots_per_day,
	slot_late_tolerance_days, slot_late_max_days, review_expire_after_days,
	created_at, updated_at
`

// Create stores a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.conn.Exec(ctx, query,
		u.ID, u.Email, u.DisplayName,
		string(u.Preferences.WeekStartsOn), u.Preferences.ReviewPlan, u.Preferences.MaxSlotsPerDay,
		u.Preferences.SlotLateToleranceDays, u.Preferences.SlotLateMaxDays, u.Preferences.ReviewExpireAfterDays,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return user.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID returns a user by internal ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.conn.QueryRow(ctx, query, id))
}

// GetByEmail returns a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.conn.QueryRow(ctx, query, email))
}

// Update persists changes to a user.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			email = $2,
			display_name = $3,
			week_starts_on = $4,
			review_plan = $5,
			max_slots_per_day = $6,
			slot_late_tolerance_days = $7,
			slot_late_max_days = $8,
			review_expire_after_days = $9,
			updated_at = $10
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		u.ID, u.Email, u.DisplayName,
		string(u.Preferences.WeekStartsOn), u.Preferences.ReviewPlan, u.Preferences.MaxSlotsPerDay,
		u.Preferences.SlotLateToleranceDays, u.Preferences.SlotLateMaxDays, u.Preferences.ReviewExpireAfterDays,
		u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

// Delete removes a user. Owned records cascade at the schema level.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// GetAll returns users with pagination.
func (r *UserRepository) GetAll(ctx context.Context, opts user.ListOptions) ([]*user.User, error) {
	sortBy := opts.SortBy
	switch sortBy {
	case "email", "display_name", "created_at":
	default:
		sortBy = "created_at"
	}
	direction := "ASC"
	if opts.SortDesc {
		direction = "DESC"
	}

	query := fmt.Sprintf(
		`SELECT %s FROM users ORDER BY %s %s LIMIT $1 OFFSET $2`,
		userColumns, sortBy, direction,
	)

	rows, err := r.conn.Query(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// GetIDs returns the IDs of all users, for maintenance sweeps.
func (r *UserRepository) GetIDs(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Count returns the total number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Exists checks whether a user exists by ID.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// rowScanner matches both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *UserRepository) scanUser(row rowScanner) (*user.User, error) {
	var (
		u         user.User
		weekStart string
	)

	err := row.Scan(
		&u.ID, &u.Email, &u.DisplayName,
		&weekStart, &u.Preferences.ReviewPlan, &u.Preferences.MaxSlotsPerDay,
		&u.Preferences.SlotLateToleranceDays, &u.Preferences.SlotLateMaxDays, &u.Preferences.ReviewExpireAfterDays,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, user.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Preferences.WeekStartsOn = user.WeekStart(weekStart)
	return &u, nil
}
