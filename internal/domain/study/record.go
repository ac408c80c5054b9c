// Package study contains the study record entity: the log entry a user
// creates after a study or revision session. New study records seed the
// revision plan and advance the streak. No external dependencies.
package study

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// RecordType distinguishes fresh study sessions from revision sessions.
type RecordType string

const (
	// TypeStudy - a first-contact study session. Seeds a revision plan.
	TypeStudy RecordType = "Estudo"
	// TypeRevision - a session completing a previously scheduled revision.
	TypeRevision RecordType = "Revisao"
)

// IsValid checks that the record type is supported.
func (t RecordType) IsValid() bool {
	return t == TypeStudy || t == TypeRevision
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidType - the record type is not Estudo or Revisao.
	ErrInvalidType = errors.New("invalid record type: must be Estudo or Revisao")

	// ErrFutureStudyDate - the study date lies in the future.
	ErrFutureStudyDate = errors.New("study date cannot be in the future")

	// ErrNegativeMinutes - the dedicated minutes are negative.
	ErrNegativeMinutes = errors.New("dedicated minutes cannot be negative")

	// ErrMissingRevisionLink - a revision record lacks the revision it completes.
	ErrMissingRevisionLink = errors.New("revision record must reference the revision it completes")

	// ErrRecordNotFound - the study record does not exist.
	ErrRecordNotFound = errors.New("study record not found")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: RECORD
// ══════════════════════════════════════════════════════════════════════════════

// Record is a single study log entry.
type Record struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// UserID - owner of the record.
	UserID string

	// Type - study or revision session.
	Type RecordType

	// Subject - what was studied.
	Subject string

	// Notes - optional free-form notes.
	Notes string

	// StudyDate - the calendar day the session happened, midnight UTC.
	StudyDate time.Time

	// MinutesDedicated - session length in minutes.
	MinutesDedicated int

	// CompletesRevisionID - for revision records, the revision this session
	// completes. Nil for study records.
	CompletesRevisionID *string

	// CreatedAt - when the record was logged.
	CreatedAt time.Time
}

// NewRecordParams holds the parameters for logging a study session.
type NewRecordParams struct {
	ID                  string
	UserID              string
	Type                RecordType
	Subject             string
	Notes               string
	StudyDate           time.Time
	MinutesDedicated    int
	CompletesRevisionID *string
}

// NewRecord creates a study record with validated fields.
// today bounds the study date: sessions cannot be logged for future days.
func NewRecord(params NewRecordParams, today time.Time) (*Record, error) {
	if params.ID == "" {
		return nil, errors.New("record id is required")
	}
	if params.UserID == "" {
		return nil, errors.New("user id is required")
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidType
	}

	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		return nil, errors.New("subject is required")
	}

	if params.StudyDate.After(today) {
		return nil, ErrFutureStudyDate
	}
	if params.MinutesDedicated < 0 {
		return nil, ErrNegativeMinutes
	}
	if params.Type == TypeRevision && (params.CompletesRevisionID == nil || *params.CompletesRevisionID == "") {
		return nil, ErrMissingRevisionLink
	}

	return &Record{
		ID:                  params.ID,
		UserID:              params.UserID,
		Type:                params.Type,
		Subject:             subject,
		Notes:               strings.TrimSpace(params.Notes),
		StudyDate:           params.StudyDate,
		MinutesDedicated:    params.MinutesDedicated,
		CompletesRevisionID: params.CompletesRevisionID,
		CreatedAt:           time.Now().UTC(),
	}, nil
}

// SeedsRevisions reports whether this record should produce a revision plan.
// Only fresh study sessions do; revision sessions close existing revisions.
func (r *Record) SeedsRevisions() bool {
	return r.Type == TypeStudy
}

// String returns a loggable representation of the record.
func (r *Record) String() string {
	return fmt.Sprintf("Record{ID: %s, Type: %s, Subject: %s, Date: %s}",
		r.ID, r.Type, r.Subject, r.StudyDate.Format("2006-01-02"))
}
