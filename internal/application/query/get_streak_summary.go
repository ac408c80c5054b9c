package query

import (
	"context"
	"errors"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/internal/domain/streak"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STREAK SUMMARY QUERY
// Read-side view of a user's streak. The stored streak may lag behind today
// when the maintenance run has not happened yet, so the summary simulates
// decay on a copy: the persisted state is never mutated by a read.
// ══════════════════════════════════════════════════════════════════════════════

// GetStreakSummaryQuery holds the query parameters.
type GetStreakSummaryQuery struct {
	// UserID - whose streak to summarize.
	UserID string

	// Date - the reference day. Zero means today.
	Date time.Time
}

// Validate checks query parameters.
func (q *GetStreakSummaryQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_streak_summary: user_id is required")
	}
	return nil
}

// GetStreakSummaryResult holds the streak view.
type GetStreakSummaryResult struct {
	// Current - consecutive active days as of the reference day.
	Current int `json:"current"`

	// Best - the longest streak ever reached.
	Best int `json:"best"`

	// FreezesLeft - unspent freeze tokens after simulated decay.
	FreezesLeft int `json:"freezes_left"`

	// FreezesTotal - freeze tokens granted to the user.
	FreezesTotal int `json:"freezes_total"`

	// LastActiveDate - the last day with real activity. Nil when never active.
	LastActiveDate *time.Time `json:"last_active_date,omitempty"`

	// ActiveToday - whether the reference day already has activity.
	ActiveToday bool `json:"active_today"`

	// AtRisk - the streak survives so far but today has no activity yet.
	AtRisk bool `json:"at_risk"`

	// GeneratedAt - time the result was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStreakSummaryHandler handles streak summary reads.
type GetStreakSummaryHandler struct {
	streakRepo streak.Repository
	engine     *streak.Engine
	clock      dateutil.Clock
}

// NewGetStreakSummaryHandler creates a new handler.
func NewGetStreakSummaryHandler(streakRepo streak.Repository, clock dateutil.Clock) *GetStreakSummaryHandler {
	if clock == nil {
		clock = dateutil.NewSystemClock()
	}
	return &GetStreakSummaryHandler{
		streakRepo: streakRepo,
		engine:     streak.NewEngine(),
		clock:      clock,
	}
}

// Handle executes the query.
func (h *GetStreakSummaryHandler) Handle(ctx context.Context, query GetStreakSummaryQuery) (*GetStreakSummaryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStreakSummary", shared.ErrValidation, "invalid query", err)
	}

	today := h.clock.Today()
	if !query.Date.IsZero() {
		today = dateutil.StartOfDay(query.Date)
	}

	s, err := h.streakRepo.GetByUser(ctx, query.UserID)
	if err != nil {
		if errors.Is(err, streak.ErrStreakNotFound) {
			return &GetStreakSummaryResult{GeneratedAt: time.Now().UTC()}, nil
		}
		return nil, shared.WrapError("query", "GetStreakSummary", shared.ErrServiceUnavailable,
			"failed to load streak", err)
	}

	// Decay a copy so a stale stored streak still reads correctly.
	view := s.Clone()
	if _, err := h.engine.Decay(view, today); err != nil {
		return nil, shared.WrapError("query", "GetStreakSummary", shared.ErrInvalidConfiguration,
			"streak state is corrupt", err)
	}

	result := &GetStreakSummaryResult{
		Current:      view.Current,
		Best:         view.Best,
		FreezesLeft:  view.FreezesLeft(),
		FreezesTotal: view.FreezesTotal,
		GeneratedAt:  time.Now().UTC(),
	}
	if view.HasEverBeenActive() {
		last := view.LastActiveDate
		result.LastActiveDate = &last
		result.ActiveToday = dateutil.SameDay(last, today)
		result.AtRisk = !result.ActiveToday && view.Current > 0
	}

	return result, nil
}
