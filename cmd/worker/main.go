// Package main is the entry point for the StudyHelper background worker.
//
// The worker owns the daily maintenance sweep:
//   - Ages overdue revisions (pending -> late -> expired or rescheduled)
//   - Decays streaks, spending freezes for missed days
//   - Publishes domain events so caches and notifications stay fresh
//
// Everything user-facing lives elsewhere; this process only keeps the
// revision and streak state honest against the calendar.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyhelper/studyhelper-hub/config"
	"github.com/studyhelper/studyhelper-hub/internal/application/eventhandler"
	"github.com/studyhelper/studyhelper-hub/internal/infrastructure/maintenance"
	"github.com/studyhelper/studyhelper-hub/internal/infrastructure/messaging"
	"github.com/studyhelper/studyhelper-hub/internal/infrastructure/persistence/postgres"
	"github.com/studyhelper/studyhelper-hub/internal/infrastructure/persistence/redis"
	"github.com/studyhelper/studyhelper-hub/internal/infrastructure/scheduler"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
	"github.com/studyhelper/studyhelper-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting StudyHelper worker",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	dbConn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		return conn, nil
	}, startupRetryOptions(log, "postgres")...)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()
	log.Info("database connection established")

	if cfg.Database.MigrateOnStart {
		log.Info("checking database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional: caches and the daily run guard)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisCache        *redis.Cache
		notificationCache *redis.NotificationCache
		runGuard          *redis.RunGuard
	)

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...", "addr", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port))
		redisCfg := redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   3,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}

		redisCache, err = retry.DoWithData(ctx, func(ctx context.Context) (*redis.Cache, error) {
			c, err := redis.NewCache(redisCfg)
			if err != nil {
				return nil, retry.Retryable(err)
			}
			return c, nil
		}, startupRetryOptions(log, "redis")...)
		if err != nil {
			// The worker is still correct without Redis: the run guard is a
			// convenience against double-triggering, not a safety requirement.
			log.Warn("failed to connect to Redis, caches and run guard disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			runGuard = redis.NewRunGuard(redisCache)
			if cfg.Features.IsEnabled(config.FeatureNotificationCache, nil) {
				notificationCache = redis.NewNotificationCache(redisCache)
			}
			log.Info("Redis connection established")
		}
	} else {
		log.Info("Redis disabled by configuration")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	userRepo := postgres.NewUserRepository(dbConn)
	revisionRepo := postgres.NewRevisionRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. EVENT BUS AND HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultEventBusConfig()
	busConfig.Logger = log
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	if notificationCache != nil {
		handler := eventhandler.NewOnRevisionChangedHandler(notificationCache, log)
		for _, eventType := range handler.EventTypes() {
			if err := eventBus.Subscribe(eventType, handler.Handle); err != nil {
				return fmt.Errorf("failed to subscribe revision handler: %w", err)
			}
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. MAINTENANCE JOB AND SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	orchestrator := maintenance.NewOrchestrator(userRepo, revisionRepo, streakRepo, eventBus, log)

	jobConfig := maintenance.DefaultDailyJobConfig()
	jobConfig.Timeout = cfg.Maintenance.JobTimeout

	var guard maintenance.RunGuard
	if runGuard != nil {
		guard = runGuard
	}
	dailyJob := maintenance.NewDailyJob(orchestrator, guard, dateutil.NewSystemClock(), log, jobConfig)

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:        log,
		Timezone:      cfg.App.Location,
		EnableMetrics: true,
	})

	if cfg.Maintenance.Enabled {
		schedule, err := scheduler.ParseCronExpression(cfg.Maintenance.CronExpression)
		if err != nil {
			return fmt.Errorf("invalid maintenance cron expression: %w", err)
		}
		if err := sched.Register(dailyJob, schedule); err != nil {
			return fmt.Errorf("failed to register maintenance job: %w", err)
		}
		log.Info("maintenance job registered", "cron", cfg.Maintenance.CronExpression)
	} else {
		log.Warn("maintenance job disabled by configuration")
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	// Catch up after downtime: the run guard makes this a no-op when the
	// sweep already ran today.
	if cfg.Maintenance.Enabled && cfg.Maintenance.RunOnStart {
		log.Info("running maintenance sweep on startup")
		if _, err := sched.RunNow(ctx, maintenance.JobName); err != nil {
			log.Error("startup maintenance run failed", "error", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("StudyHelper worker is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	stopped := make(chan struct{})
	go func() {
		_ = sched.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		log.Info("scheduler stopped")
	case <-time.After(cfg.App.ShutdownTimeout):
		log.Warn("shutdown timeout exceeded, forcing exit")
	}

	log.Info("shutdown completed")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger builds the structured logger from observability settings.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

// startupRetryOptions configures backoff for connections at boot, where
// backends may still be coming up, and logs each retry.
func startupRetryOptions(log *slog.Logger, target string) []retry.Option {
	return []retry.Option{
		retry.WithMaxAttempts(5),
		retry.WithInitialDelay(500 * time.Millisecond),
		retry.WithMaxDelay(10 * time.Second),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("connection attempt failed, retrying",
				"target", target,
				"attempt", attempt,
				"delay", delay.String(),
				"error", err,
			)
		}),
	}
}
