package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper-hub/internal/domain/streak"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

func storedStreak(userID string, current, best, freezesTotal, freezesUsed int, lastActive time.Time) *streak.Streak {
	return &streak.Streak{
		UserID:         userID,
		Current:        current,
		Best:           best,
		FreezesTotal:   freezesTotal,
		FreezesUsed:    freezesUsed,
		LastActiveDate: lastActive,
	}
}

func TestStreakSummaryWithoutStreakRowIsEmpty(t *testing.T) {
	handler := NewGetStreakSummaryHandler(newFakeStreakRepo(), nil)

	result, err := handler.Handle(context.Background(), GetStreakSummaryQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.Zero(t, result.Current)
	assert.Zero(t, result.Best)
	assert.Nil(t, result.LastActiveDate)
	assert.False(t, result.ActiveToday)
	assert.False(t, result.AtRisk)
}

func TestStreakSummaryActiveToday(t *testing.T) {
	today := date(2026, time.January, 15)
	repo := newFakeStreakRepo(storedStreak("u1", 4, 9, 2, 0, today))

	handler := NewGetStreakSummaryHandler(repo, dateutil.NewFixedClock(today))

	result, err := handler.Handle(context.Background(), GetStreakSummaryQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Current)
	assert.Equal(t, 9, result.Best)
	assert.Equal(t, 2, result.FreezesLeft)
	assert.True(t, result.ActiveToday)
	assert.False(t, result.AtRisk)
}

func TestStreakSummaryActiveYesterdayIsAtRisk(t *testing.T) {
	today := date(2026, time.January, 15)
	repo := newFakeStreakRepo(storedStreak("u1", 4, 9, 2, 0, date(2026, time.January, 14)))

	handler := NewGetStreakSummaryHandler(repo, dateutil.NewFixedClock(today))

	result, err := handler.Handle(context.Background(), GetStreakSummaryQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Current)
	assert.Equal(t, 2, result.FreezesLeft)
	assert.False(t, result.ActiveToday)
	assert.True(t, result.AtRisk)
}

func TestStreakSummarySimulatesDecayWithoutPersisting(t *testing.T) {
	// Last activity three days ago: two missed days eat both freezes, but
	// the streak itself survives.
	today := date(2026, time.January, 15)
	repo := newFakeStreakRepo(storedStreak("u1", 4, 9, 2, 0, date(2026, time.January, 12)))

	handler := NewGetStreakSummaryHandler(repo, dateutil.NewFixedClock(today))

	result, err := handler.Handle(context.Background(), GetStreakSummaryQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Current)
	assert.Equal(t, 0, result.FreezesLeft)
	assert.True(t, result.AtRisk)

	// The stored streak is untouched; persisting decay is the job of the
	// maintenance sweep.
	stored, err := repo.GetByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.FreezesUsed)
	assert.Equal(t, 4, stored.Current)
}

func TestStreakSummaryShowsBrokenStreak(t *testing.T) {
	// A week of silence outruns the freeze allowance.
	today := date(2026, time.January, 15)
	repo := newFakeStreakRepo(storedStreak("u1", 6, 9, 2, 0, date(2026, time.January, 8)))

	handler := NewGetStreakSummaryHandler(repo, dateutil.NewFixedClock(today))

	result, err := handler.Handle(context.Background(), GetStreakSummaryQuery{UserID: "u1"})
	require.NoError(t, err)

	assert.Zero(t, result.Current)
	assert.Equal(t, 9, result.Best)
	assert.Equal(t, 0, result.FreezesLeft)
	assert.False(t, result.AtRisk)
}

func TestStreakSummaryHonorsReferenceDate(t *testing.T) {
	repo := newFakeStreakRepo(storedStreak("u1", 4, 9, 2, 0, date(2026, time.January, 14)))

	// Clock says the 20th, but the query asks about the 14th.
	handler := NewGetStreakSummaryHandler(repo, dateutil.NewFixedClock(date(2026, time.January, 20)))

	result, err := handler.Handle(context.Background(), GetStreakSummaryQuery{
		UserID: "u1",
		Date:   date(2026, time.January, 14),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Current)
	assert.Equal(t, 2, result.FreezesLeft)
	assert.True(t, result.ActiveToday)
}
