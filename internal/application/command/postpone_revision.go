package command

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// POSTPONE REVISION COMMAND
// Moves an open revision to a later due date. Completed and expired
// revisions cannot be postponed.
// ══════════════════════════════════════════════════════════════════════════════

// PostponeRevisionCommand holds the parameters for postponing a revision.
type PostponeRevisionCommand struct {
	// UserID - owner of the revision, for an ownership check.
	UserID string

	// RevisionID - the revision to postpone.
	RevisionID string

	// NewDueDate - the day the revision should fall due instead.
	NewDueDate time.Time
}

// Validate checks command parameters.
func (c *PostponeRevisionCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("postpone_revision: user_id is required")
	}
	if c.RevisionID == "" {
		return errors.New("postpone_revision: revision_id is required")
	}
	if c.NewDueDate.IsZero() {
		return errors.New("postpone_revision: new_due_date is required")
	}
	return nil
}

// PostponeRevisionResult holds the outcome of the command.
type PostponeRevisionResult struct {
	// Revision - the revision after postponing.
	Revision *revision.Revision

	// OldDueDate - the due date before the move.
	OldDueDate time.Time

	// Events - domain events produced by the command.
	Events []shared.Event
}

// PostponeRevisionHandler handles revision postponing.
type PostponeRevisionHandler struct {
	revisionRepo   revision.Repository
	eventPublisher shared.EventPublisher
	logger         *slog.Logger
}

// NewPostponeRevisionHandler creates a new handler.
func NewPostponeRevisionHandler(
	revisionRepo revision.Repository,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *PostponeRevisionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostponeRevisionHandler{
		revisionRepo:   revisionRepo,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

// Handle executes the command.
func (h *PostponeRevisionHandler) Handle(ctx context.Context, cmd PostponeRevisionCommand) (*PostponeRevisionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("revision", "Postpone", shared.ErrValidation, "invalid command", err)
	}

	rev, err := h.revisionRepo.GetByID(ctx, cmd.RevisionID)
	if err != nil {
		return nil, shared.WrapError("revision", "Postpone", shared.ErrNotFound, "revision not found", err)
	}
	if rev.UserID != cmd.UserID {
		return nil, shared.NewDomainError("revision", "Postpone", shared.ErrInvalidInput,
			"revision belongs to another user")
	}

	oldDue := rev.DueDate
	newDue := dateutil.StartOfDay(cmd.NewDueDate)

	if err := rev.Postpone(newDue); err != nil {
		return nil, shared.WrapError("revision", "Postpone", shared.ErrStateTransition,
			"revision cannot be postponed", err)
	}

	if err := h.revisionRepo.Update(ctx, rev); err != nil {
		return nil, shared.WrapError("revision", "Postpone", shared.ErrServiceUnavailable,
			"failed to update revision", err)
	}

	event := shared.NewRevisionPostponedEvent(rev.UserID, rev.ID, oldDue, newDue)
	h.publish(event)

	h.logger.Info("revision postponed",
		"user_id", rev.UserID,
		"revision_id", rev.ID,
		"old_due_date", oldDue.Format("2006-01-02"),
		"new_due_date", newDue.Format("2006-01-02"),
	)

	return &PostponeRevisionResult{
		Revision:   rev,
		OldDueDate: oldDue,
		Events:     []shared.Event{event},
	}, nil
}

func (h *PostponeRevisionHandler) publish(event shared.Event) {
	if h.eventPublisher == nil {
		return
	}
	if err := h.eventPublisher.Publish(event); err != nil {
		h.logger.Warn("failed to publish event",
			"event_type", event.EventType(),
			"error", err,
		)
	}
}
