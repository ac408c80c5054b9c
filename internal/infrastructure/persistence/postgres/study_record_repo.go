package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY RECORD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// StudyRecordRepository implements study.Repository using PostgreSQL.
type StudyRecordRepository struct {
	conn *Connection
}

// NewStudyRecordRepository creates a new study record repository.
func NewStudyRecordRepository(conn *Connection) *StudyRecordRepository {
	return &StudyRecordRepository{conn: conn}
}

const recordColumns = `
	id, user_id, record_type, subject, notes,
	study_date, minutes_dedicated, completes_revision_id, created_at
`

// Create stores a new study record.
func (r *StudyRecordRepository) Create(ctx context.Context, rec *study.Record) error {
	query := `
		INSERT INTO study_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		rec.ID, rec.UserID, string(rec.Type), rec.Subject, rec.Notes,
		rec.StudyDate, rec.MinutesDedicated, rec.CompletesRevisionID, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create study record: %w", err)
	}

	return nil
}

// GetByID returns a record by ID.
func (r *StudyRecordRepository) GetByID(ctx context.Context, id string) (*study.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM study_records WHERE id = $1`
	return r.scanRecord(r.conn.QueryRow(ctx, query, id))
}

// GetByUser returns a user's records between two dates, newest first.
func (r *StudyRecordRepository) GetByUser(ctx context.Context, userID string, from, to time.Time) ([]*study.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM study_records
		WHERE user_id = $1 AND study_date BETWEEN $2 AND $3
		ORDER BY study_date DESC, created_at DESC
	`

	rows, err := r.conn.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list study records: %w", err)
	}
	defer rows.Close()

	var records []*study.Record
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetByDate returns a user's records for a single calendar day.
func (r *StudyRecordRepository) GetByDate(ctx context.Context, userID string, date time.Time) ([]*study.Record, error) {
	return r.GetByUser(ctx, userID, date, date)
}

// HasActivityOn reports whether the user logged anything on the given day.
func (r *StudyRecordRepository) HasActivityOn(ctx context.Context, userID string, date time.Time) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM study_records WHERE user_id = $1 AND study_date = $2)`,
		userID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check activity: %w", err)
	}
	return exists, nil
}

// TotalMinutes sums the dedicated minutes of a user's records in a range.
func (r *StudyRecordRepository) TotalMinutes(ctx context.Context, userID string, from, to time.Time) (int, error) {
	var total int
	err := r.conn.QueryRow(ctx,
		`SELECT COALESCE(SUM(minutes_dedicated), 0)
		 FROM study_records
		 WHERE user_id = $1 AND study_date BETWEEN $2 AND $3`,
		userID, from, to,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum minutes: %w", err)
	}
	return total, nil
}

// Delete removes a study record.
func (r *StudyRecordRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.conn.Exec(ctx, `DELETE FROM study_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete study record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return study.ErrRecordNotFound
	}
	return nil
}

func (r *StudyRecordRepository) scanRecord(row rowScanner) (*study.Record, error) {
	var (
		rec        study.Record
		recordType string
	)

	err := row.Scan(
		&rec.ID, &rec.UserID, &recordType, &rec.Subject, &rec.Notes,
		&rec.StudyDate, &rec.MinutesDedicated, &rec.CompletesRevisionID, &rec.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, study.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to scan study record: %w", err)
	}

	rec.Type = study.RecordType(recordType)
	return &rec, nil
}
