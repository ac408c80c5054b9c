package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─────────────────────────────────────────────────────────────────────────────
// Parsing
// ─────────────────────────────────────────────────────────────────────────────

func TestParseCronExpressionWildcard(t *testing.T) {
	ce, err := ParseCronExpression(EveryMinute)
	require.NoError(t, err)

	assert.Len(t, ce.minutes, 60)
	assert.Len(t, ce.hours, 24)
	assert.Len(t, ce.weekdays, 7)
}

func TestParseCronExpressionSteps(t *testing.T) {
	ce, err := ParseCronExpression(Every15Minutes)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 15, 30, 45}, ce.minutes)
}

func TestParseCronExpressionRangeAndList(t *testing.T) {
	ce, err := ParseCronExpression("0 9-11 * * 1,3,5")
	require.NoError(t, err)

	assert.Equal(t, []int{9, 10, 11}, ce.hours)
	assert.Equal(t, []int{1, 3, 5}, ce.weekdays)
}

func TestParseCronExpressionRejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"0 1 * *",         // four fields
		"0 1 * * * *",     // six fields
		"61 * * * *",      // minute out of range
		"* 25 * * *",      // hour out of range
		"every day at one",
	}

	for _, expr := range cases {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, "expression %q should not parse", expr)
	}
}

func TestMustParseCronExpressionPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustParseCronExpression("not a cron")
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Next
// ─────────────────────────────────────────────────────────────────────────────

func TestCronNextDailyRun(t *testing.T) {
	ce := MustParseCronExpression(EveryDay1AM)

	// Before 01:00 the run is still due the same day.
	next := ce.Next(time.Date(2026, time.March, 10, 0, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 10, 1, 0, 0, 0, time.UTC), next)

	// After 01:00 it slides to tomorrow.
	next = ce.Next(time.Date(2026, time.March, 10, 1, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 11, 1, 0, 0, 0, time.UTC), next)
}

func TestCronNextSkipsToMatchingWeekday(t *testing.T) {
	ce := MustParseCronExpression(EveryMonday)

	// 2026-03-10 is a Tuesday; the next Monday midnight is the 16th.
	next := ce.Next(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC), next)
}

func TestCronNextIsStrictlyAfter(t *testing.T) {
	ce := MustParseCronExpression(EveryHour)

	at := time.Date(2026, time.March, 10, 5, 0, 0, 0, time.UTC)
	next := ce.Next(at)
	assert.True(t, next.After(at))
	assert.Equal(t, time.Date(2026, time.March, 10, 6, 0, 0, 0, time.UTC), next)
}

func TestCronStringReturnsRawExpression(t *testing.T) {
	assert.Equal(t, "0 1 * * *", MustParseCronExpression("0 1 * * *").String())
}

// ─────────────────────────────────────────────────────────────────────────────
// Interval schedule
// ─────────────────────────────────────────────────────────────────────────────

func TestIntervalScheduleNext(t *testing.T) {
	s := NewIntervalSchedule(30 * time.Minute)

	at := time.Date(2026, time.March, 10, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, at.Add(30*time.Minute), s.Next(at))
	assert.Equal(t, "@every 30m0s", s.String())
}
