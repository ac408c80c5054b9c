package revision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func openRevision(status Status, due time.Time) *Revision {
	return &Revision{
		ID:      "9f2c8a4e-0000-4000-8000-000000000001",
		UserID:  "9f2c8a4e-0000-4000-8000-0000000000aa",
		DueDate: due,
		Status:  status,
	}
}

func intPtr(v int) *int {
	return &v
}

func TestEvaluatePendingTurnsLatePastTolerance(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusPending, date(2026, 1, 5))

	tr, err := engine.Evaluate(rev, date(2026, 1, 6), LatenessConfig{ToleranceDays: 0, MaxLateDays: 7})

	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, StatusPending, tr.From)
	assert.Equal(t, StatusLate, tr.To)
}

func TestEvaluatePendingStaysWithinTolerance(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusPending, date(2026, 1, 5))

	tr, err := engine.Evaluate(rev, date(2026, 1, 6), LatenessConfig{ToleranceDays: 2, MaxLateDays: 7})

	require.NoError(t, err)
	assert.False(t, tr.Changed)
	assert.Equal(t, StatusPending, tr.To)
}

func TestEvaluatePendingOnDueDateStaysPending(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusPending, date(2026, 1, 5))

	tr, err := engine.Evaluate(rev, date(2026, 1, 5), LatenessConfig{ToleranceDays: 0, MaxLateDays: 7})

	require.NoError(t, err)
	assert.False(t, tr.Changed)
}

func TestEvaluatePostponedAgesLikePending(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusPostponed, date(2026, 1, 5))

	tr, err := engine.Evaluate(rev, date(2026, 1, 8), LatenessConfig{ToleranceDays: 1, MaxLateDays: 7})

	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, StatusLate, tr.To)
}

func TestEvaluateLateExpiresPastExpiryWindow(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusLate, date(2026, 1, 1))

	cfg := LatenessConfig{ToleranceDays: 1, MaxLateDays: 7, ExpireAfterDays: intPtr(30)}
	tr, err := engine.Evaluate(rev, date(2026, 2, 2), cfg)

	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, StatusExpired, tr.To)
}

func TestEvaluateLateStaysWithinExpiryWindow(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusLate, date(2026, 1, 1))

	cfg := LatenessConfig{ToleranceDays: 1, MaxLateDays: 7, ExpireAfterDays: intPtr(30)}
	tr, err := engine.Evaluate(rev, date(2026, 1, 20), cfg)

	require.NoError(t, err)
	assert.False(t, tr.Changed)
	assert.Equal(t, StatusLate, tr.To)
}

func TestEvaluateLateReschedulesWhenExpiryDisabled(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusLate, date(2026, 1, 1))

	cfg := LatenessConfig{ToleranceDays: 1, MaxLateDays: 7}
	today := date(2026, 1, 10)
	tr, err := engine.Evaluate(rev, today, cfg)

	require.NoError(t, err)
	assert.True(t, tr.Changed)
	assert.Equal(t, StatusPending, tr.To)
	require.NotNil(t, tr.NewDueDate)
	assert.Equal(t, today, *tr.NewDueDate)

	// After applying the reschedule, the revision is stable again.
	tr.Apply(rev)
	tr2, err := engine.Evaluate(rev, today, cfg)
	require.NoError(t, err)
	assert.False(t, tr2.Changed)
}

func TestEvaluateLateWaitsOutMaxLateWindow(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusLate, date(2026, 1, 1))

	cfg := LatenessConfig{ToleranceDays: 1, MaxLateDays: 7}
	tr, err := engine.Evaluate(rev, date(2026, 1, 8), cfg)

	require.NoError(t, err)
	assert.False(t, tr.Changed)
	assert.Equal(t, StatusLate, tr.To)
}

func TestEvaluateTerminalStatusesNeverChange(t *testing.T) {
	engine := NewEngine()
	cfg := LatenessConfig{ToleranceDays: 0, MaxLateDays: 1, ExpireAfterDays: intPtr(1)}
	farFuture := date(2030, 12, 31)

	for _, status := range []Status{StatusCompleted, StatusExpired} {
		rev := openRevision(status, date(2026, 1, 1))
		tr, err := engine.Evaluate(rev, farFuture, cfg)

		require.NoError(t, err)
		assert.False(t, tr.Changed, "status %s must be terminal", status)
		assert.Equal(t, status, tr.To)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	engine := NewEngine()
	cfg := LatenessConfig{ToleranceDays: 1, MaxLateDays: 7, ExpireAfterDays: intPtr(30)}
	today := date(2026, 1, 10)
	rev := openRevision(StatusPending, date(2026, 1, 5))

	tr, err := engine.Evaluate(rev, today, cfg)
	require.NoError(t, err)
	require.True(t, tr.Changed)
	tr.Apply(rev)

	// A second pass with the same inputs proposes nothing.
	tr2, err := engine.Evaluate(rev, today, cfg)
	require.NoError(t, err)
	assert.False(t, tr2.Changed)
	assert.Equal(t, rev.Status, tr2.To)
}

func TestEvaluateRejectsNegativeTolerance(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusPending, date(2026, 1, 5))

	_, err := engine.Evaluate(rev, date(2026, 1, 6), LatenessConfig{ToleranceDays: -1, MaxLateDays: 7})

	require.Error(t, err)
	assert.True(t, shared.IsInvalidConfiguration(err))
}

func TestEvaluateRejectsNegativeMaxLate(t *testing.T) {
	engine := NewEngine()
	rev := openRevision(StatusPending, date(2026, 1, 5))

	_, err := engine.Evaluate(rev, date(2026, 1, 6), LatenessConfig{ToleranceDays: 0, MaxLateDays: -1})

	require.Error(t, err)
	assert.True(t, shared.IsInvalidConfiguration(err))
}

func TestEvaluateIgnoresTimeOfDay(t *testing.T) {
	engine := NewEngine()
	cfg := LatenessConfig{ToleranceDays: 0, MaxLateDays: 7}

	// Due late in the evening, evaluated early in the morning of the same day.
	rev := openRevision(StatusPending, time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC))
	tr, err := engine.Evaluate(rev, time.Date(2026, 1, 5, 1, 0, 0, 0, time.UTC), cfg)

	require.NoError(t, err)
	assert.False(t, tr.Changed)
}

func TestCompleteIsTerminal(t *testing.T) {
	rev := openRevision(StatusPending, date(2026, 1, 5))

	require.NoError(t, rev.Complete("rec-1", date(2026, 1, 5)))
	assert.Equal(t, StatusCompleted, rev.Status)

	err := rev.Complete("rec-2", date(2026, 1, 6))
	assert.ErrorIs(t, err, ErrTerminalStatus)
}

func TestPostponeMovesDueDateForward(t *testing.T) {
	rev := openRevision(StatusPending, date(2026, 1, 5))

	require.NoError(t, rev.Postpone(date(2026, 1, 8)))
	assert.Equal(t, StatusPostponed, rev.Status)
	assert.Equal(t, date(2026, 1, 8), rev.DueDate)

	assert.ErrorIs(t, rev.Postpone(date(2026, 1, 8)), ErrPostponeIntoPast)
	assert.ErrorIs(t, rev.Postpone(date(2026, 1, 2)), ErrPostponeIntoPast)
}

func TestPostponeRejectedOnTerminal(t *testing.T) {
	rev := openRevision(StatusExpired, date(2026, 1, 5))

	assert.ErrorIs(t, rev.Postpone(date(2026, 1, 10)), ErrTerminalStatus)
}
