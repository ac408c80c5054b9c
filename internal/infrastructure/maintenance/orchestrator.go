// Package maintenance contains the daily sweep that ages revisions and
// decays streaks for every user. The engines it drives are idempotent, so
// a repeated run for the same day changes nothing.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/internal/domain/streak"
	"github.com/studyhelper/studyhelper-hub/internal/domain/user"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ORCHESTRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Orchestrator runs the per-user maintenance pass: revision statuses first,
// then streak decay. A failing user is logged and skipped; the sweep never
// aborts on one user's data.
type Orchestrator struct {
	userRepo     user.Repository
	revisionRepo revision.Repository
	streakRepo   streak.Repository

	revisionEngine *revision.Engine
	streakEngine   *streak.Engine

	eventPublisher shared.EventPublisher
	logger         *slog.Logger
}

// NewOrchestrator creates a maintenance orchestrator.
func NewOrchestrator(
	userRepo user.Repository,
	revisionRepo revision.Repository,
	streakRepo streak.Repository,
	eventPublisher shared.EventPublisher,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		userRepo:       userRepo,
		revisionRepo:   revisionRepo,
		streakRepo:     streakRepo,
		revisionEngine: revision.NewEngine(),
		streakEngine:   streak.NewEngine(),
		eventPublisher: eventPublisher,
		logger:         logger.With("component", "maintenance"),
	}
}

// Stats summarizes one maintenance run.
type Stats struct {
	RunDate     time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration

	UsersProcessed int
	UsersFailed    int

	RevisionsEvaluated int
	RevisionsUpdated   int
	TransitionsByStatus map[revision.Status]int

	StreaksFrozen int
	StreaksBroken int
	FreezesSpent  int

	Errors []error
}

// RunDaily sweeps every user for the given day. The returned stats cover the
// whole run; per-user failures are collected, not returned.
func (o *Orchestrator) RunDaily(ctx context.Context, today time.Time) (*Stats, error) {
	day := dateutil.StartOfDay(today)
	stats := &Stats{
		RunDate:             day,
		StartedAt:           time.Now(),
		TransitionsByStatus: make(map[revision.Status]int),
	}

	userIDs, err := o.userRepo.GetIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users for maintenance: %w", err)
	}

	o.logger.Info("maintenance run started",
		"run_date", day.Format("2006-01-02"),
		"users", len(userIDs),
	)

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		if err := o.processUser(ctx, userID, day, stats); err != nil {
			stats.UsersFailed++
			stats.Errors = append(stats.Errors, err)
			o.logger.Error("maintenance failed for user",
				"user_id", userID,
				"error", err,
			)
			continue
		}
		stats.UsersProcessed++
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)

	o.publish(shared.NewMaintenanceCompletedEvent(
		day,
		stats.UsersProcessed,
		stats.RevisionsUpdated,
		stats.StreaksBroken,
		stats.FreezesSpent,
		stats.UsersFailed,
	))

	o.logger.Info("maintenance run completed",
		"run_date", day.Format("2006-01-02"),
		"duration", stats.Duration.String(),
		"users_processed", stats.UsersProcessed,
		"users_failed", stats.UsersFailed,
		"revisions_updated", stats.RevisionsUpdated,
		"streaks_frozen", stats.StreaksFrozen,
		"streaks_broken", stats.StreaksBroken,
	)

	return stats, nil
}

// processUser ages one user's open revisions, then decays their streak.
func (o *Orchestrator) processUser(ctx context.Context, userID string, day time.Time, stats *Stats) error {
	usr, err := o.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	if err := o.sweepRevisions(ctx, usr, day, stats); err != nil {
		return err
	}

	return o.decayStreak(ctx, userID, day, stats)
}

func (o *Orchestrator) sweepRevisions(ctx context.Context, usr *user.User, day time.Time, stats *Stats) error {
	cfg := revision.LatenessConfig{
		ToleranceDays:   usr.Preferences.SlotLateToleranceDays,
		MaxLateDays:     usr.Preferences.SlotLateMaxDays,
		ExpireAfterDays: usr.Preferences.ReviewExpireAfterDays,
	}

	open, err := o.revisionRepo.GetOpenByUser(ctx, usr.ID)
	if err != nil {
		return fmt.Errorf("failed to load open revisions for %s: %w", usr.ID, err)
	}

	for _, rev := range open {
		stats.RevisionsEvaluated++

		transition, err := o.revisionEngine.Evaluate(rev, day, cfg)
		if err != nil {
			return fmt.Errorf("failed to evaluate revision %s: %w", rev.ID, err)
		}
		if !transition.Changed {
			continue
		}

		transition.Apply(rev)
		if err := o.revisionRepo.Update(ctx, rev); err != nil {
			return fmt.Errorf("failed to update revision %s: %w", rev.ID, err)
		}

		stats.RevisionsUpdated++
		stats.TransitionsByStatus[transition.To]++

		o.publish(shared.NewRevisionStatusChangedEvent(
			transitionEventType(transition),
			usr.ID, rev.ID,
			string(transition.From), string(transition.To),
			rev.DueDate,
		))
	}

	return nil
}

func (o *Orchestrator) decayStreak(ctx context.Context, userID string, day time.Time, stats *Stats) error {
	s, err := o.streakRepo.GetByUser(ctx, userID)
	if err != nil {
		// No streak row means no activity yet and nothing to decay.
		if errors.Is(err, streak.ErrStreakNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load streak for %s: %w", userID, err)
	}

	previousStreak := s.Current

	result, err := o.streakEngine.Decay(s, day)
	if err != nil {
		return fmt.Errorf("failed to decay streak for %s: %w", userID, err)
	}
	if !result.Changed() {
		return nil
	}

	if err := o.streakRepo.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to save streak for %s: %w", userID, err)
	}

	stats.FreezesSpent += result.FreezesSpent

	if result.Broken {
		stats.StreaksBroken++
		o.publish(shared.NewStreakBrokenEvent(userID, previousStreak, result.GapDays, result.FreezesSpent))
	} else {
		stats.StreaksFrozen++
		o.publish(shared.NewStreakFrozenEvent(userID, result.FreezesSpent, s.FreezesLeft(), s.Current))
	}

	return nil
}

// transitionEventType maps the destination status onto the event type.
func transitionEventType(t revision.Transition) shared.EventType {
	switch t.To {
	case revision.StatusLate:
		return shared.EventRevisionLate
	case revision.StatusExpired:
		return shared.EventRevisionExpired
	default:
		// Late back to pending is the reschedule path.
		return shared.EventRevisionReset
	}
}

func (o *Orchestrator) publish(event shared.Event) {
	if o.eventPublisher == nil {
		return
	}
	if err := o.eventPublisher.Publish(event); err != nil {
		o.logger.Warn("failed to publish maintenance event",
			"event_type", event.EventType(),
			"error", err,
		)
	}
}
