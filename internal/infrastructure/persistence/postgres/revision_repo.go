package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVISION REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// RevisionRepository implements revision.Repository using PostgreSQL.
type RevisionRepository struct {
	conn *Connection
}

// NewRevisionRepository creates a new revision repository.
func NewRevisionRepository(conn *Connection) *RevisionRepository {
	return &RevisionRepository{conn: conn}
}

const revisionColumns = `
	id, user_id, record_id, due_date, status,
	completed_at, completed_by_record_id, created_at, updated_at
`

// CreateBatch stores a planned set of revisions in one transaction.
func (r *RevisionRepository) CreateBatch(ctx context.Context, revisions []*revision.Revision) error {
	if len(revisions) == 0 {
		return nil
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		query := `
			INSERT INTO revisions (` + revisionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		for _, rev := range revisions {
			batch.Queue(query,
				rev.ID, rev.UserID, rev.RecordID, rev.DueDate, string(rev.Status),
				nullTime(rev.CompletedAt), nullString(rev.CompletedByRecordID),
				rev.CreatedAt, rev.UpdatedAt,
			)
		}

		results := tx.SendBatch(ctx, batch)
		defer results.Close()

		for range revisions {
			if _, err := results.Exec(); err != nil {
				return fmt.Errorf("failed to insert revision: %w", err)
			}
		}
		return nil
	})
}

// GetByID returns a revision by ID.
func (r *RevisionRepository) GetByID(ctx context.Context, id string) (*revision.Revision, error) {
	query := `SELECT ` + revisionColumns + ` FROM revisions WHERE id = $1`
	return r.scanRevision(r.conn.QueryRow(ctx, query, id))
}

// GetOpenByUser returns a user's non-terminal revisions ordered by due date.
func (r *RevisionRepository) GetOpenByUser(ctx context.Context, userID string) ([]*revision.Revision, error) {
	query := `
		SELECT ` + revisionColumns + `
		FROM revisions
		WHERE user_id = $1 AND status IN ('Pendente', 'Atrasada', 'Adiada')
		ORDER BY due_date, created_at
	`
	return r.queryRevisions(ctx, query, userID)
}

// GetByRecord returns the revisions planned from a study record.
func (r *RevisionRepository) GetByRecord(ctx context.Context, recordID string) ([]*revision.Revision, error) {
	query := `
		SELECT ` + revisionColumns + `
		FROM revisions
		WHERE record_id = $1
		ORDER BY due_date
	`
	return r.queryRevisions(ctx, query, recordID)
}

// GetDueBetween returns a user's open revisions due in a date range.
func (r *RevisionRepository) GetDueBetween(ctx context.Context, userID string, from, to time.Time) ([]*revision.Revision, error) {
	query := `
		SELECT ` + revisionColumns + `
		FROM revisions
		WHERE user_id = $1
		  AND status IN ('Pendente', 'Atrasada', 'Adiada')
		  AND due_date BETWEEN $2 AND $3
		ORDER BY due_date, created_at
	`
	return r.queryRevisions(ctx, query, userID, from, to)
}

// Update persists changes to a revision.
func (r *RevisionRepository) Update(ctx context.Context, rev *revision.Revision) error {
	query := `
		UPDATE revisions SET
			due_date = $2,
			status = $3,
			completed_at = $4,
			completed_by_record_id = $5,
			updated_at = $6
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query,
		rev.ID, rev.DueDate, string(rev.Status),
		nullTime(rev.CompletedAt), nullString(rev.CompletedByRecordID),
		rev.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update revision: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return revision.ErrRevisionNotFound
	}

	return nil
}

// CountOpenByDue returns how many open revisions a user has per due date.
func (r *RevisionRepository) CountOpenByDue(ctx context.Context, userID string, from, to time.Time) (map[time.Time]int, error) {
	query := `
		SELECT due_date, COUNT(*)
		FROM revisions
		WHERE user_id = $1
		  AND status IN ('Pendente', 'Atrasada', 'Adiada')
		  AND due_date BETWEEN $2 AND $3
		GROUP BY due_date
	`

	rows, err := r.conn.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count revisions: %w", err)
	}
	defer rows.Close()

	counts := make(map[time.Time]int)
	for rows.Next() {
		var due time.Time
		var count int
		if err := rows.Scan(&due, &count); err != nil {
			return nil, fmt.Errorf("failed to scan revision count: %w", err)
		}
		counts[due] = count
	}

	return counts, rows.Err()
}

func (r *RevisionRepository) queryRevisions(ctx context.Context, query string, args ...interface{}) ([]*revision.Revision, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query revisions: %w", err)
	}
	defer rows.Close()

	var revisions []*revision.Revision
	for rows.Next() {
		rev, err := r.scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}

	return revisions, rows.Err()
}

func (r *RevisionRepository) scanRevision(row rowScanner) (*revision.Revision, error) {
	var (
		rev         revision.Revision
		status      string
		completedAt *time.Time
		completedBy *string
	)

	err := row.Scan(
		&rev.ID, &rev.UserID, &rev.RecordID, &rev.DueDate, &status,
		&completedAt, &completedBy, &rev.CreatedAt, &rev.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, revision.ErrRevisionNotFound
		}
		return nil, fmt.Errorf("failed to scan revision: %w", err)
	}

	rev.Status = revision.Status(status)
	if completedAt != nil {
		rev.CompletedAt = *completedAt
	}
	if completedBy != nil {
		rev.CompletedByRecordID = *completedBy
	}
	return &rev, nil
}

// nullTime maps the zero time to NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// nullString maps the empty string to NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
