// Package main is the StudyHelper admin CLI.
//
// It drives the application layer directly against the configured database,
// which makes it the operational escape hatch: creating accounts, logging
// sessions, postponing revisions, inspecting streaks and forcing a
// maintenance sweep all work without any other delivery surface running.
//
// Usage:
//
//	studyhelper user create -email ana@example.com -name "Ana"
//	studyhelper user prefs -user <id> -plan 1,7,14 -tolerance 1 -late-max 7
//	studyhelper study record -user <id> -subject "Direito Civil" -minutes 45
//	studyhelper study record -user <id> -type Revisao -revision <id> -subject "Direito Civil" -minutes 30
//	studyhelper revision postpone -user <id> -id <revision-id> -date 2026-09-05
//	studyhelper notifications -user <id>
//	studyhelper streak -user <id>
//	studyhelper history -user <id> -from 2026-08-01
//	studyhelper maintain
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studyhelper/studyhelper-hub/config"
	"github.com/studyhelper/studyhelper-hub/internal/application/command"
	"github.com/studyhelper/studyhelper-hub/internal/application/query"
	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/study"
	"github.com/studyhelper/studyhelper-hub/internal/domain/user"
	"github.com/studyhelper/studyhelper-hub/internal/infrastructure/maintenance"
	"github.com/studyhelper/studyhelper-hub/internal/infrastructure/messaging"
	"github.com/studyhelper/studyhelper-hub/internal/infrastructure/persistence/postgres"
	"github.com/studyhelper/studyhelper-hub/internal/infrastructure/persistence/redis"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: studyhelper <user|study|revision|notifications|streak|history|maintain> ...")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// The CLI is interactive; keep logs quiet unless something goes wrong.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	switch args[0] {
	case "user":
		return app.runUser(ctx, args[1:])
	case "study":
		return app.runStudy(ctx, args[1:])
	case "revision":
		return app.runRevision(ctx, args[1:])
	case "notifications":
		return app.runNotifications(ctx, args[1:])
	case "streak":
		return app.runStreak(ctx, args[1:])
	case "history":
		return app.runHistory(ctx, args[1:])
	case "maintain":
		return app.runMaintain(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WIRING
// ══════════════════════════════════════════════════════════════════════════════

// app bundles the repositories and handlers behind the CLI commands.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	db    *postgres.Connection
	cache *redis.Cache

	userRepo     user.Repository
	revisionRepo revision.Repository

	recordStudy       *command.RecordStudyHandler
	updatePreferences *command.UpdatePreferencesHandler
	postponeRevision  *command.PostponeRevisionHandler
	listNotifications *query.ListRevisionNotificationsHandler
	getStreakSummary  *query.GetStreakSummaryHandler
	getStudyHistory   *query.GetStudyHistoryHandler
	orchestrator      *maintenance.Orchestrator

	bus *messaging.InMemoryEventBus
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*app, error) {
	db, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{cfg: cfg, log: log, db: db}

	var userCache user.Cache
	if !cfg.Redis.Disabled {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("Redis unavailable, running without cache", "error", err)
		} else {
			a.cache = cache
			if cfg.Features.IsEnabled(config.FeatureUserCache, nil) {
				userCache = redis.NewUserCache(cache)
			}
		}
	}

	busConfig := messaging.DefaultEventBusConfig()
	busConfig.Logger = log
	busConfig.AsyncMode = false // one-shot process, publish inline
	a.bus = messaging.NewInMemoryEventBus(busConfig)

	a.userRepo = postgres.NewUserRepository(db)
	a.revisionRepo = postgres.NewRevisionRepository(db)
	studyRepo := postgres.NewStudyRecordRepository(db)
	streakRepo := postgres.NewStreakRepository(db)

	clock := dateutil.NewSystemClock()

	a.recordStudy = command.NewRecordStudyHandler(
		a.userRepo, studyRepo, a.revisionRepo, streakRepo, a.bus, clock, log)
	a.updatePreferences = command.NewUpdatePreferencesHandler(a.userRepo, userCache, log)
	a.postponeRevision = command.NewPostponeRevisionHandler(a.revisionRepo, a.bus, log)
	a.listNotifications = query.NewListRevisionNotificationsHandler(a.revisionRepo, clock)
	a.getStreakSummary = query.NewGetStreakSummaryHandler(streakRepo, clock)
	a.getStudyHistory = query.NewGetStudyHistoryHandler(studyRepo, clock)
	a.orchestrator = maintenance.NewOrchestrator(a.userRepo, a.revisionRepo, streakRepo, a.bus, log)

	return a, nil
}

func (a *app) close() {
	_ = a.bus.Close()
	if a.cache != nil {
		_ = a.cache.Close()
	}
	a.db.Close()
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func (a *app) runUser(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: studyhelper user <create|prefs|show> ...")
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("user create", flag.ExitOnError)
		email := fs.String("email", "", "email address (required)")
		name := fs.String("name", "", "display name (required)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		usr, err := user.NewUser(user.NewUserParams{
			ID:          uuid.NewString(),
			Email:       *email,
			DisplayName: *name,
		})
		if err != nil {
			return err
		}
		if err := a.userRepo.Create(ctx, usr); err != nil {
			return err
		}
		return printJSON(usr)

	case "prefs":
		fs := flag.NewFlagSet("user prefs", flag.ExitOnError)
		userID := fs.String("user", "", "user id (required)")
		plan := fs.String("plan", "", "review plan offsets, e.g. 1,7,14")
		tolerance := fs.Int("tolerance", -1, "grace days before a revision counts as late")
		lateMax := fs.Int("late-max", -1, "days a revision stays late before rescheduling")
		expireAfter := fs.Int("expire-after", -1, "days past due before a revision expires; 0 disables")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		usr, err := a.userRepo.GetByID(ctx, *userID)
		if err != nil {
			return err
		}

		prefs := usr.Preferences
		if *plan != "" {
			offsets, err := parsePlan(*plan)
			if err != nil {
				return err
			}
			prefs.ReviewPlan = offsets
		}
		if *tolerance >= 0 {
			prefs.SlotLateToleranceDays = *tolerance
		}
		if *lateMax >= 0 {
			prefs.SlotLateMaxDays = *lateMax
		}
		if *expireAfter >= 0 {
			if *expireAfter == 0 {
				prefs.ReviewExpireAfterDays = nil
			} else {
				prefs.ReviewExpireAfterDays = expireAfter
			}
		}

		result, err := a.updatePreferences.Handle(ctx, command.UpdatePreferencesCommand{
			UserID:      usr.ID,
			Preferences: prefs,
		})
		if err != nil {
			return err
		}
		return printJSON(result.User)

	case "show":
		fs := flag.NewFlagSet("user show", flag.ExitOnError)
		userID := fs.String("user", "", "user id (required)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		usr, err := a.userRepo.GetByID(ctx, *userID)
		if err != nil {
			return err
		}
		return printJSON(usr)

	default:
		return fmt.Errorf("unknown user command %q", args[0])
	}
}

func (a *app) runStudy(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "record" {
		return errors.New("usage: studyhelper study record -user <id> -subject <s> -minutes <n> [...]")
	}

	fs := flag.NewFlagSet("study record", flag.ExitOnError)
	userID := fs.String("user", "", "user id (required)")
	recordType := fs.String("type", string(study.TypeStudy), "Estudo or Revisao")
	subject := fs.String("subject", "", "subject studied (required)")
	notes := fs.String("notes", "", "free-form notes")
	minutes := fs.Int("minutes", 0, "session length in minutes (required)")
	date := fs.String("date", "", "session day as YYYY-MM-DD; empty means today")
	revisionID := fs.String("revision", "", "revision completed by this session (Revisao only)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	cmd := command.RecordStudyCommand{
		UserID:              *userID,
		Type:                study.RecordType(*recordType),
		Subject:             *subject,
		Notes:               *notes,
		MinutesDedicated:    *minutes,
		CompletesRevisionID: *revisionID,
	}
	if *date != "" {
		day, err := parseDay(*date)
		if err != nil {
			return err
		}
		cmd.StudyDate = day
	}

	result, err := a.recordStudy.Handle(ctx, cmd)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (a *app) runRevision(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "postpone" {
		return errors.New("usage: studyhelper revision postpone -user <id> -id <revision-id> -date YYYY-MM-DD")
	}

	fs := flag.NewFlagSet("revision postpone", flag.ExitOnError)
	userID := fs.String("user", "", "user id (required)")
	revisionID := fs.String("id", "", "revision id (required)")
	date := fs.String("date", "", "new due date as YYYY-MM-DD (required)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	day, err := parseDay(*date)
	if err != nil {
		return err
	}

	result, err := a.postponeRevision.Handle(ctx, command.PostponeRevisionCommand{
		UserID:     *userID,
		RevisionID: *revisionID,
		NewDueDate: day,
	})
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (a *app) runNotifications(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("notifications", flag.ExitOnError)
	userID := fs.String("user", "", "user id (required)")
	date := fs.String("date", "", "reference day as YYYY-MM-DD; empty means today")
	bucket := fs.String("bucket", "", "restrict to one bucket: hoje, em_breve, atrasada, expirada")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := query.ListRevisionNotificationsQuery{UserID: *userID}
	if *date != "" {
		day, err := parseDay(*date)
		if err != nil {
			return err
		}
		q.Date = day
	}
	if *bucket != "" {
		q.Buckets = []revision.Bucket{revision.Bucket(*bucket)}
	}

	result, err := a.listNotifications.Handle(ctx, q)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (a *app) runStreak(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("streak", flag.ExitOnError)
	userID := fs.String("user", "", "user id (required)")
	date := fs.String("date", "", "reference day as YYYY-MM-DD; empty means today")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := query.GetStreakSummaryQuery{UserID: *userID}
	if *date != "" {
		day, err := parseDay(*date)
		if err != nil {
			return err
		}
		q.Date = day
	}

	result, err := a.getStreakSummary.Handle(ctx, q)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (a *app) runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	userID := fs.String("user", "", "user id (required)")
	from := fs.String("from", "", "first day as YYYY-MM-DD (required)")
	to := fs.String("to", "", "last day as YYYY-MM-DD; empty means today")
	page := fs.Int("page", 1, "page number")
	pageSize := fs.Int("page-size", 20, "records per page")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fromDay, err := parseDay(*from)
	if err != nil {
		return err
	}

	q := query.GetStudyHistoryQuery{
		UserID:   *userID,
		From:     fromDay,
		Page:     *page,
		PageSize: *pageSize,
	}
	if *to != "" {
		toDay, err := parseDay(*to)
		if err != nil {
			return err
		}
		q.To = toDay
	}

	result, err := a.getStudyHistory.Handle(ctx, q)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func (a *app) runMaintain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("maintain", flag.ExitOnError)
	date := fs.String("date", "", "sweep day as YYYY-MM-DD; empty means today")
	if err := fs.Parse(args); err != nil {
		return err
	}

	day := dateutil.NewSystemClock().Today()
	if *date != "" {
		parsed, err := parseDay(*date)
		if err != nil {
			return err
		}
		day = parsed
	}

	// The CLI bypasses the Redis run guard on purpose: a manual sweep is an
	// operator decision.
	stats, err := a.orchestrator.RunDaily(ctx, day)
	if err != nil {
		return err
	}
	return printJSON(stats)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func parseDay(s string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return day, nil
}

func parsePlan(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	offsets := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid review plan offset %q", p)
		}
		offsets = append(offsets, n)
	}
	return offsets, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
