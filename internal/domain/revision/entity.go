// Package revision contains the revision lifecycle: the scheduled
// spaced-repetition reviews planned from study records, the pure status
// engine that ages them, and the classifier that buckets them for
// notifications. No external dependencies.
package revision

import (
	"errors"
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS ENUM
// ══════════════════════════════════════════════════════════════════════════════

// Status is the lifecycle state of a revision. The wire values are the
// Portuguese labels persisted and exposed by the product.
type Status string

const (
	// StatusPending - scheduled and waiting to be done.
	StatusPending Status = "Pendente"
	// StatusLate - past due beyond the user's tolerance.
	StatusLate Status = "Atrasada"
	// StatusCompleted - done by the user. Terminal.
	StatusCompleted Status = "Concluida"
	// StatusPostponed - pushed to a later due date by the user.
	StatusPostponed Status = "Adiada"
	// StatusExpired - abandoned past the expiry window. Terminal.
	StatusExpired Status = "Expirada"
)

// IsValid checks that the status is one of the known values.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusLate, StatusCompleted, StatusPostponed, StatusExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status can never change again.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// IsOpen reports whether the revision still awaits user action.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusLate || s == StatusPostponed
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrRevisionNotFound - the revision does not exist.
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrInvalidStatus - the status value is unknown.
	ErrInvalidStatus = errors.New("invalid revision status")

	// ErrTerminalStatus - the revision is completed or expired.
	ErrTerminalStatus = errors.New("revision is in a terminal status")

	// ErrPostponeIntoPast - the new due date does not move the revision forward.
	ErrPostponeIntoPast = errors.New("postponed due date must be after the current due date")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: REVISION
// ══════════════════════════════════════════════════════════════════════════════

// Revision is one scheduled review of a previously studied subject.
type Revision struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// UserID - owner of the revision.
	UserID string

	// RecordID - the study record this revision was planned from.
	RecordID string

	// DueDate - the calendar day the review falls due, midnight UTC.
	DueDate time.Time

	// Status - current lifecycle state.
	Status Status

	// CompletedAt - when the user completed the revision. Zero until then.
	CompletedAt time.Time

	// CompletedByRecordID - the study record logged for the completion.
	CompletedByRecordID string

	// CreatedAt - when the revision was planned.
	CreatedAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// Complete marks the revision done, linking the study record that closed it.
// Returns ErrTerminalStatus if the revision is already completed or expired.
func (r *Revision) Complete(recordID string, at time.Time) error {
	if r.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	r.Status = StatusCompleted
	r.CompletedAt = at
	r.CompletedByRecordID = recordID
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Postpone moves the revision to a later due date.
// Returns ErrTerminalStatus for completed or expired revisions and
// ErrPostponeIntoPast when the new date does not move the revision forward.
func (r *Revision) Postpone(newDueDate time.Time) error {
	if r.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	if !newDueDate.After(r.DueDate) {
		return ErrPostponeIntoPast
	}
	r.DueDate = newDueDate
	r.Status = StatusPostponed
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a loggable representation of the revision.
func (r *Revision) String() string {
	return fmt.Sprintf("Revision{ID: %s, Due: %s, Status: %s}",
		r.ID, r.DueDate.Format("2006-01-02"), r.Status)
}

// Clone creates a copy of the revision.
func (r *Revision) Clone() *Revision {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
