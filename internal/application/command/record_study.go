// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/internal/domain/streak"
	"github.com/studyhelper/studyhelper-hub/internal/domain/study"
	"github.com/studyhelper/studyhelper-hub/internal/domain/user"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD STUDY COMMAND
// Logs a study or revision session. Study sessions seed a revision plan from
// the user's review preferences; revision sessions complete the revision they
// reference. Either way the day counts toward the streak.
// ══════════════════════════════════════════════════════════════════════════════

// RecordStudyCommand holds the parameters for logging a session.
type RecordStudyCommand struct {
	// UserID - owner of the session.
	UserID string

	// Type - study or revision session.
	Type study.RecordType

	// Subject - what was studied.
	Subject string

	// Notes - optional free-form notes.
	Notes string

	// StudyDate - the day the session happened. Zero means today.
	StudyDate time.Time

	// MinutesDedicated - session length in minutes.
	MinutesDedicated int

	// CompletesRevisionID - for revision sessions, the revision being closed.
	CompletesRevisionID string
}

// Validate checks command parameters.
func (c *RecordStudyCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("record_study: user_id is required")
	}
	if !c.Type.IsValid() {
		return errors.New("record_study: type must be Estudo or Revisao")
	}
	if c.Subject == "" {
		return errors.New("record_study: subject is required")
	}
	if c.MinutesDedicated <= 0 {
		return errors.New("record_study: minutes_dedicated must be positive")
	}
	if c.Type == study.TypeRevision && c.CompletesRevisionID == "" {
		return errors.New("record_study: completes_revision_id is required for Revisao")
	}
	return nil
}

// RecordStudyResult holds the outcome of the command.
type RecordStudyResult struct {
	// Record - the stored study record.
	Record *study.Record

	// PlannedRevisions - revisions created from the review plan (study only).
	PlannedRevisions []*revision.Revision

	// CompletedRevision - the revision closed by this session (revision only).
	CompletedRevision *revision.Revision

	// StreakAfter - the streak state after registering the activity.
	StreakAfter *streak.Streak

	// Events - domain events produced by the command.
	Events []shared.Event
}

// RecordStudyHandler handles study session logging.
type RecordStudyHandler struct {
	userRepo       user.Repository
	studyRepo      study.Repository
	revisionRepo   revision.Repository
	streakRepo     streak.Repository
	scheduler      *revision.Scheduler
	streakEngine   *streak.Engine
	eventPublisher shared.EventPublisher
	clock          dateutil.Clock
	logger         *slog.Logger
}

// NewRecordStudyHandler creates a new handler.
func NewRecordStudyHandler(
	userRepo user.Repository,
	studyRepo study.Repository,
	revisionRepo revision.Repository,
	streakRepo streak.Repository,
	eventPublisher shared.EventPublisher,
	clock dateutil.Clock,
	logger *slog.Logger,
) *RecordStudyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = dateutil.NewSystemClock()
	}
	return &RecordStudyHandler{
		userRepo:       userRepo,
		studyRepo:      studyRepo,
		revisionRepo:   revisionRepo,
		streakRepo:     streakRepo,
		scheduler:      revision.NewScheduler(),
		streakEngine:   streak.NewEngine(),
		eventPublisher: eventPublisher,
		clock:          clock,
		logger:         logger,
	}
}

// Handle executes the command.
func (h *RecordStudyHandler) Handle(ctx context.Context, cmd RecordStudyCommand) (*RecordStudyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("study", "RecordStudy", shared.ErrValidation, "invalid command", err)
	}

	usr, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, shared.WrapError("study", "RecordStudy", shared.ErrNotFound, "user not found", err)
	}

	today := h.clock.Today()
	studyDate := today
	if !cmd.StudyDate.IsZero() {
		studyDate = dateutil.StartOfDay(cmd.StudyDate)
	}

	var completesID *string
	if cmd.CompletesRevisionID != "" {
		completesID = &cmd.CompletesRevisionID
	}

	record, err := study.NewRecord(study.NewRecordParams{
		ID:                  uuid.NewString(),
		UserID:              usr.ID,
		Type:                cmd.Type,
		Subject:             cmd.Subject,
		Notes:               cmd.Notes,
		StudyDate:           studyDate,
		MinutesDedicated:    cmd.MinutesDedicated,
		CompletesRevisionID: completesID,
	}, today)
	if err != nil {
		return nil, shared.WrapError("study", "RecordStudy", shared.ErrValidation, "invalid study record", err)
	}

	result := &RecordStudyResult{Record: record}

	// Revision sessions close their target revision before anything is
	// persisted, so a terminal target aborts the whole command.
	if cmd.Type == study.TypeRevision {
		completed, err := h.completeRevision(ctx, record)
		if err != nil {
			return nil, err
		}
		result.CompletedRevision = completed
		result.Events = append(result.Events, shared.NewRevisionCompletedEvent(
			usr.ID, completed.ID, completed.DueDate, completed.CompletedAt))
	}

	if err := h.studyRepo.Create(ctx, record); err != nil {
		return nil, shared.WrapError("study", "RecordStudy", shared.ErrServiceUnavailable, "failed to store record", err)
	}
	result.Events = append(result.Events, shared.NewStudyRecordedEvent(
		usr.ID, record.ID, string(record.Type), record.StudyDate, record.MinutesDedicated))

	// Study sessions seed the spaced-repetition plan.
	if record.SeedsRevisions() {
		planned, err := h.planRevisions(ctx, usr, record)
		if err != nil {
			return nil, err
		}
		result.PlannedRevisions = planned
		if len(planned) > 0 {
			dueDates := make([]time.Time, len(planned))
			for i, rev := range planned {
				dueDates[i] = rev.DueDate
			}
			result.Events = append(result.Events,
				shared.NewRevisionsScheduledEvent(usr.ID, record.ID, dueDates))
		}
	}

	// Streak bookkeeping failures are logged, not fatal: the session is
	// already stored and the daily maintenance run repairs streak state.
	if streakAfter, events := h.advanceStreak(ctx, usr.ID, record.StudyDate); streakAfter != nil {
		result.StreakAfter = streakAfter
		result.Events = append(result.Events, events...)
	}

	for _, event := range result.Events {
		h.publish(event)
	}

	h.logger.Info("study session recorded",
		"user_id", usr.ID,
		"record_id", record.ID,
		"type", record.Type,
		"study_date", record.StudyDate.Format("2006-01-02"),
		"planned_revisions", len(result.PlannedRevisions),
	)

	return result, nil
}

func (h *RecordStudyHandler) publish(event shared.Event) {
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

// completeRevision closes the revision referenced by a revision session.
func (h *RecordStudyHandler) completeRevision(ctx context.Context, record *study.Record) (*revision.Revision, error) {
	rev, err := h.revisionRepo.GetByID(ctx, *record.CompletesRevisionID)
	if err != nil {
		return nil, shared.WrapError("revision", "Complete", shared.ErrNotFound, "revision not found", err)
	}
	if rev.UserID != record.UserID {
		return nil, shared.NewDomainError("revision", "Complete", shared.ErrInvalidInput,
			"revision belongs to another user")
	}
	if err := rev.Complete(record.ID, record.StudyDate); err != nil {
		return nil, shared.WrapError("revision", "Complete", shared.ErrStateTransition,
			"revision cannot be completed", err)
	}
	if err := h.revisionRepo.Update(ctx, rev); err != nil {
		return nil, shared.WrapError("revision", "Complete", shared.ErrServiceUnavailable,
			"failed to update revision", err)
	}
	return rev, nil
}

// planRevisions creates and stores the revision plan for a study record.
func (h *RecordStudyHandler) planRevisions(ctx context.Context, usr *user.User, record *study.Record) ([]*revision.Revision, error) {
	// A nil plan means the user never customized it; an empty plan is an
	// explicit opt-out and schedules nothing.
	plan := usr.Preferences.ReviewPlan
	if plan == nil {
		plan = user.DefaultReviewPlan()
	}

	planned, err := h.scheduler.Plan(usr.ID, record.ID, record.StudyDate, plan)
	if err != nil {
		return nil, shared.WrapError("revision", "Plan", shared.ErrInvalidConfiguration,
			"failed to plan revisions", err)
	}
	if len(planned) == 0 {
		return nil, nil
	}
	if err := h.revisionRepo.CreateBatch(ctx, planned); err != nil {
		return nil, shared.WrapError("revision", "Plan", shared.ErrServiceUnavailable,
			"failed to store revision plan", err)
	}
	return planned, nil
}

// advanceStreak registers the activity day against the user's streak.
// Returns nil when the streak could not be updated.
func (h *RecordStudyHandler) advanceStreak(ctx context.Context, userID string, day time.Time) (*streak.Streak, []shared.Event) {
	s, err := h.streakRepo.GetByUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, streak.ErrStreakNotFound) {
			h.logger.Error("failed to load streak", "user_id", userID, "error", err)
			return nil, nil
		}
		s = streak.NewStreak(userID, user.DefaultFreezesTotal)
	}

	previous := s.Current
	result, err := h.streakEngine.Advance(s, day)
	if err != nil {
		h.logger.Error("failed to advance streak", "user_id", userID, "error", err)
		return nil, nil
	}

	var events []shared.Event
	if result.Decay.FreezesSpent > 0 {
		events = append(events, shared.NewStreakFrozenEvent(userID,
			result.Decay.FreezesSpent, s.FreezesLeft(), s.Current))
	}
	if result.Decay.Broken {
		events = append(events, shared.NewStreakBrokenEvent(userID,
			previous, result.Decay.GapDays, result.Decay.FreezesSpent))
	}
	if result.Registered {
		events = append(events, shared.NewStreakAdvancedEvent(userID, s.Current, day))
	}

	if result.Registered || result.Decay.Changed() {
		if err := h.streakRepo.Save(ctx, s); err != nil {
			h.logger.Error("failed to save streak", "user_id", userID, "error", err)
			return nil, nil
		}
	}

	return s, events
}
