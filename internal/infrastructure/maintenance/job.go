package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DAILY JOB
// ══════════════════════════════════════════════════════════════════════════════

// JobName is the scheduler registration name of the daily sweep.
const JobName = "daily_maintenance"

// RunGuard claims a named run for a calendar day, so a restarted worker does
// not sweep the same day twice. Backed by Redis SetNX in production.
type RunGuard interface {
	TryAcquire(ctx context.Context, name string, day time.Time) (bool, error)
	Release(ctx context.Context, name string, day time.Time) error
}

// DailyJobConfig contains configuration for the daily maintenance job.
type DailyJobConfig struct {
	// Timeout is the maximum duration for one run. Zero disables the limit.
	Timeout time.Duration
}

// DefaultDailyJobConfig returns sensible defaults.
func DefaultDailyJobConfig() DailyJobConfig {
	return DailyJobConfig{
		Timeout: 10 * time.Minute,
	}
}

// DailyJob wraps the orchestrator as a schedulable job. A nil guard disables
// the once-per-day claim, which is what tests and manual runs want.
type DailyJob struct {
	orchestrator *Orchestrator
	guard        RunGuard
	clock        dateutil.Clock
	logger       *slog.Logger
	config       DailyJobConfig

	lastRunStats atomic.Value // *Stats
}

// NewDailyJob creates the daily maintenance job.
func NewDailyJob(
	orchestrator *Orchestrator,
	guard RunGuard,
	clock dateutil.Clock,
	logger *slog.Logger,
	config DailyJobConfig,
) *DailyJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &DailyJob{
		orchestrator: orchestrator,
		guard:        guard,
		clock:        clock,
		logger:       logger.With("job", JobName),
		config:       config,
	}
}

// Name returns the job name.
func (j *DailyJob) Name() string {
	return JobName
}

// Description returns a human-readable description.
func (j *DailyJob) Description() string {
	return "Ages overdue revisions and decays streaks for all users"
}

// Run executes one maintenance sweep for today.
func (j *DailyJob) Run(ctx context.Context) error {
	today := j.clock.Today()

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	if j.guard != nil {
		acquired, err := j.guard.TryAcquire(ctx, JobName, today)
		if err != nil {
			return fmt.Errorf("failed to claim maintenance run: %w", err)
		}
		if !acquired {
			j.logger.Info("maintenance already ran today, skipping",
				"run_date", today.Format("2006-01-02"),
			)
			return nil
		}
	}

	stats, err := j.orchestrator.RunDaily(ctx, today)
	if err != nil {
		// Free the claim so a retry the same day can still run.
		if j.guard != nil {
			if relErr := j.guard.Release(ctx, JobName, today); relErr != nil {
				j.logger.Warn("failed to release maintenance claim", "error", relErr)
			}
		}
		return err
	}

	j.lastRunStats.Store(stats)
	return nil
}

// LastRunStats returns statistics from the most recent run, nil before the
// first one.
func (j *DailyJob) LastRunStats() *Stats {
	stats := j.lastRunStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*Stats)
}
