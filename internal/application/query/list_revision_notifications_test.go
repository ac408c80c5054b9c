package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/streak"
	"github.com/studyhelper/studyhelper-hub/internal/domain/study"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeRevisionRepo struct {
	revisions map[string]*revision.Revision
}

func newFakeRevisionRepo(revs ...*revision.Revision) *fakeRevisionRepo {
	repo := &fakeRevisionRepo{revisions: make(map[string]*revision.Revision)}
	for _, r := range revs {
		repo.revisions[r.ID] = r
	}
	return repo
}

func (r *fakeRevisionRepo) CreateBatch(_ context.Context, revs []*revision.Revision) error {
	for _, rev := range revs {
		r.revisions[rev.ID] = rev
	}
	return nil
}

func (r *fakeRevisionRepo) GetByID(_ context.Context, id string) (*revision.Revision, error) {
	rev, ok := r.revisions[id]
	if !ok {
		return nil, revision.ErrRevisionNotFound
	}
	return rev, nil
}

func (r *fakeRevisionRepo) GetOpenByUser(_ context.Context, userID string) ([]*revision.Revision, error) {
	var out []*revision.Revision
	for _, rev := range r.revisions {
		if rev.UserID == userID && rev.Status.IsOpen() {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *fakeRevisionRepo) GetByRecord(_ context.Context, recordID string) ([]*revision.Revision, error) {
	var out []*revision.Revision
	for _, rev := range r.revisions {
		if rev.RecordID == recordID {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *fakeRevisionRepo) GetDueBetween(_ context.Context, userID string, from, to time.Time) ([]*revision.Revision, error) {
	var out []*revision.Revision
	for _, rev := range r.revisions {
		if rev.UserID == userID && rev.Status.IsOpen() &&
			!rev.DueDate.Before(from) && !rev.DueDate.After(to) {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *fakeRevisionRepo) Update(_ context.Context, rev *revision.Revision) error {
	if _, ok := r.revisions[rev.ID]; !ok {
		return revision.ErrRevisionNotFound
	}
	r.revisions[rev.ID] = rev
	return nil
}

func (r *fakeRevisionRepo) CountOpenByDue(_ context.Context, userID string, from, to time.Time) (map[time.Time]int, error) {
	counts := make(map[time.Time]int)
	for _, rev := range r.revisions {
		if rev.UserID == userID && rev.Status.IsOpen() &&
			!rev.DueDate.Before(from) && !rev.DueDate.After(to) {
			counts[rev.DueDate]++
		}
	}
	return counts, nil
}

type fakeStreakRepo struct {
	streaks map[string]*streak.Streak
}

func newFakeStreakRepo(streaks ...*streak.Streak) *fakeStreakRepo {
	repo := &fakeStreakRepo{streaks: make(map[string]*streak.Streak)}
	for _, s := range streaks {
		repo.streaks[s.UserID] = s.Clone()
	}
	return repo
}

func (r *fakeStreakRepo) Save(_ context.Context, s *streak.Streak) error {
	r.streaks[s.UserID] = s.Clone()
	return nil
}

func (r *fakeStreakRepo) GetByUser(_ context.Context, userID string) (*streak.Streak, error) {
	s, ok := r.streaks[userID]
	if !ok {
		return nil, streak.ErrStreakNotFound
	}
	return s.Clone(), nil
}

func (r *fakeStreakRepo) GetTop(_ context.Context, limit int) ([]*streak.Streak, error) {
	var out []*streak.Streak
	for _, s := range r.streaks {
		out = append(out, s.Clone())
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeStudyRepo struct {
	records []*study.Record
}

func (r *fakeStudyRepo) Create(_ context.Context, rec *study.Record) error {
	r.records = append(r.records, rec)
	return nil
}

func (r *fakeStudyRepo) GetByID(_ context.Context, id string) (*study.Record, error) {
	for _, rec := range r.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return nil, study.ErrRecordNotFound
}

func (r *fakeStudyRepo) GetByUser(_ context.Context, userID string, from, to time.Time) ([]*study.Record, error) {
	var out []*study.Record
	for _, rec := range r.records {
		if rec.UserID == userID && !rec.StudyDate.Before(from) && !rec.StudyDate.After(to) {
			out = append(out, rec)
		}
	}
	// Newest first, matching the repository contract.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].StudyDate.After(out[i].StudyDate) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) GetByDate(ctx context.Context, userID string, date time.Time) ([]*study.Record, error) {
	return r.GetByUser(ctx, userID, date, date)
}

func (r *fakeStudyRepo) HasActivityOn(ctx context.Context, userID string, date time.Time) (bool, error) {
	recs, err := r.GetByDate(ctx, userID, date)
	return len(recs) > 0, err
}

func (r *fakeStudyRepo) TotalMinutes(ctx context.Context, userID string, from, to time.Time) (int, error) {
	recs, err := r.GetByUser(ctx, userID, from, to)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, rec := range recs {
		total += rec.MinutesDedicated
	}
	return total, nil
}

func (r *fakeStudyRepo) Delete(_ context.Context, id string) error {
	for i, rec := range r.records {
		if rec.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return study.ErrRecordNotFound
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func openRevision(id, userID string, due time.Time, status revision.Status) *revision.Revision {
	return &revision.Revision{
		ID:       id,
		UserID:   userID,
		RecordID: "rec-" + id,
		DueDate:  due,
		Status:   status,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ListRevisionNotifications
// ─────────────────────────────────────────────────────────────────────────────

func TestListNotificationsBucketsByStatusAndDate(t *testing.T) {
	today := date(2026, time.January, 15)
	repo := newFakeRevisionRepo(
		openRevision("r1", "u1", today, revision.StatusPending),
		openRevision("r2", "u1", date(2026, time.January, 17), revision.StatusPending),
		openRevision("r3", "u1", date(2026, time.January, 10), revision.StatusLate),
		openRevision("r4", "u1", date(2026, time.January, 20), revision.StatusPending),
	)

	handler := NewListRevisionNotificationsHandler(repo, dateutil.NewFixedClock(today))

	result, err := handler.Handle(context.Background(), ListRevisionNotificationsQuery{UserID: "u1"})
	require.NoError(t, err)

	require.Len(t, result.Notifications, 3)
	assert.Equal(t, 1, result.CountByBucket[revision.BucketToday])
	assert.Equal(t, 1, result.CountByBucket[revision.BucketUpcoming])
	assert.Equal(t, 1, result.CountByBucket[revision.BucketLate])

	// r4 is due past the two-day horizon and stays silent.
	for _, n := range result.Notifications {
		assert.NotEqual(t, "r4", n.RevisionID)
	}
}

func TestListNotificationsOrdersByDueDate(t *testing.T) {
	today := date(2026, time.January, 15)
	repo := newFakeRevisionRepo(
		openRevision("r-b", "u1", today, revision.StatusPending),
		openRevision("r-a", "u1", today, revision.StatusPending),
		openRevision("r-late", "u1", date(2026, time.January, 5), revision.StatusLate),
	)

	handler := NewListRevisionNotificationsHandler(repo, dateutil.NewFixedClock(today))

	result, err := handler.Handle(context.Background(), ListRevisionNotificationsQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, result.Notifications, 3)

	assert.Equal(t, "r-late", result.Notifications[0].RevisionID)
	// Same due date ties break by revision ID.
	assert.Equal(t, "r-a", result.Notifications[1].RevisionID)
	assert.Equal(t, "r-b", result.Notifications[2].RevisionID)
}

func TestListNotificationsBucketFilter(t *testing.T) {
	today := date(2026, time.January, 15)
	repo := newFakeRevisionRepo(
		openRevision("r1", "u1", today, revision.StatusPending),
		openRevision("r2", "u1", date(2026, time.January, 8), revision.StatusLate),
	)

	handler := NewListRevisionNotificationsHandler(repo, dateutil.NewFixedClock(today))

	result, err := handler.Handle(context.Background(), ListRevisionNotificationsQuery{
		UserID:  "u1",
		Buckets: []revision.Bucket{revision.BucketLate},
	})
	require.NoError(t, err)

	require.Len(t, result.Notifications, 1)
	assert.Equal(t, "r2", result.Notifications[0].RevisionID)

	// Counts still cover every bucket so dashboards stay accurate.
	assert.Equal(t, 1, result.CountByBucket[revision.BucketToday])
	assert.Equal(t, 1, result.CountByBucket[revision.BucketLate])
}

func TestListNotificationsPostponedStaysSilentUntilDue(t *testing.T) {
	today := date(2026, time.January, 15)
	repo := newFakeRevisionRepo(
		openRevision("r1", "u1", date(2026, time.January, 16), revision.StatusPostponed),
	)

	handler := NewListRevisionNotificationsHandler(repo, dateutil.NewFixedClock(today))

	result, err := handler.Handle(context.Background(), ListRevisionNotificationsQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, result.Notifications)
}

func TestListNotificationsRequiresUserID(t *testing.T) {
	handler := NewListRevisionNotificationsHandler(newFakeRevisionRepo(), nil)

	_, err := handler.Handle(context.Background(), ListRevisionNotificationsQuery{})
	require.Error(t, err)
}
