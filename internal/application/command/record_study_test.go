package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/internal/domain/streak"
	"github.com/studyhelper/studyhelper-hub/internal/domain/study"
	"github.com/studyhelper/studyhelper-hub/internal/domain/user"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ─────────────────────────────────────────────────────────────────────────────
// In-memory fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	users map[string]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[string]*user.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	if _, ok := r.users[u.ID]; ok {
		return user.ErrUserAlreadyExists
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *user.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return user.ErrUserNotFound
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) GetAll(_ context.Context, _ user.ListOptions) ([]*user.User, error) {
	all := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	return all, nil
}

func (r *fakeUserRepo) GetIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) { return len(r.users), nil }

func (r *fakeUserRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.users[id]
	return ok, nil
}

type fakeStudyRepo struct {
	records map[string]*study.Record
}

func newFakeStudyRepo() *fakeStudyRepo {
	return &fakeStudyRepo{records: make(map[string]*study.Record)}
}

func (r *fakeStudyRepo) Create(_ context.Context, rec *study.Record) error {
	r.records[rec.ID] = rec
	return nil
}

func (r *fakeStudyRepo) GetByID(_ context.Context, id string) (*study.Record, error) {
	rec, ok := r.records[id]
	if !ok {
		return nil, study.ErrRecordNotFound
	}
	return rec, nil
}

func (r *fakeStudyRepo) GetByUser(_ context.Context, userID string, from, to time.Time) ([]*study.Record, error) {
	var out []*study.Record
	for _, rec := range r.records {
		if rec.UserID == userID && !rec.StudyDate.Before(from) && !rec.StudyDate.After(to) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) GetByDate(_ context.Context, userID string, date time.Time) ([]*study.Record, error) {
	var out []*study.Record
	for _, rec := range r.records {
		if rec.UserID == userID && dateutil.SameDay(rec.StudyDate, date) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeStudyRepo) HasActivityOn(_ context.Context, userID string, date time.Time) (bool, error) {
	recs, _ := r.GetByDate(context.Background(), userID, date)
	return len(recs) > 0, nil
}

func (r *fakeStudyRepo) TotalMinutes(_ context.Context, userID string, from, to time.Time) (int, error) {
	recs, _ := r.GetByUser(context.Background(), userID, from, to)
	total := 0
	for _, rec := range recs {
		total += rec.MinutesDedicated
	}
	return total, nil
}

func (r *fakeStudyRepo) Delete(_ context.Context, id string) error {
	delete(r.records, id)
	return nil
}

type fakeRevisionRepo struct {
	revisions map[string]*revision.Revision
}

func newFakeRevisionRepo(revisions ...*revision.Revision) *fakeRevisionRepo {
	repo := &fakeRevisionRepo{revisions: make(map[string]*revision.Revision)}
	for _, rev := range revisions {
		repo.revisions[rev.ID] = rev
	}
	return repo
}

func (r *fakeRevisionRepo) CreateBatch(_ context.Context, revisions []*revision.Revision) error {
	for _, rev := range revisions {
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
	revs, _ := r.GetDueBetween(context.Background(), userID, from, to)
	for _, rev := range revs {
		counts[rev.DueDate]++
	}
	return counts, nil
}

type fakeStreakRepo struct {
	streaks map[string]*streak.Streak
}

func newFakeStreakRepo(streaks ...*streak.Streak) *fakeStreakRepo {
	repo := &fakeStreakRepo{streaks: make(map[string]*streak.Streak)}
	for _, s := range streaks {
		repo.streaks[s.UserID] = s
	}
	return repo
}

func (r *fakeStreakRepo) Save(_ context.Context, s *streak.Streak) error {
	r.streaks[s.UserID] = s
	return nil
}

func (r *fakeStreakRepo) GetByUser(_ context.Context, userID string) (*streak.Streak, error) {
	s, ok := r.streaks[userID]
	if !ok {
		return nil, streak.ErrStreakNotFound
	}
	return s, nil
}

func (r *fakeStreakRepo) GetTop(_ context.Context, limit int) ([]*streak.Streak, error) {
	var out []*streak.Streak
	for _, s := range r.streaks {
		out = append(out, s)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakePublisher struct {
	published []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.published = append(p.published, event)
	return nil
}

func (p *fakePublisher) types() []shared.EventType {
	out := make([]shared.EventType, len(p.published))
	for i, e := range p.published {
		out[i] = e.EventType()
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture
// ─────────────────────────────────────────────────────────────────────────────

const cmdUserID = "7b1d4c2a-0000-4000-8000-0000000000bb"

type fixture struct {
	users     *fakeUserRepo
	studies   *fakeStudyRepo
	revisions *fakeRevisionRepo
	streaks   *fakeStreakRepo
	publisher *fakePublisher
	clock     *dateutil.FixedClock
	handler   *RecordStudyHandler
}

func newFixture(t *testing.T, today time.Time) *fixture {
	t.Helper()

	usr, err := user.NewUser(user.NewUserParams{
		ID:          cmdUserID,
		Email:       "ana@example.com",
		DisplayName: "Ana",
	})
	require.NoError(t, err)

	f := &fixture{
		users:     newFakeUserRepo(usr),
		studies:   newFakeStudyRepo(),
		revisions: newFakeRevisionRepo(),
		streaks:   newFakeStreakRepo(),
		publisher: &fakePublisher{},
		clock:     dateutil.NewFixedClock(today),
	}
	f.handler = NewRecordStudyHandler(
		f.users, f.studies, f.revisions, f.streaks,
		f.publisher, f.clock, nil,
	)
	return f
}

func cmdDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestRecordStudyPlansDefaultRevisions(t *testing.T) {
	today := cmdDate(2026, 1, 1)
	f := newFixture(t, today)

	result, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID:           cmdUserID,
		Type:             study.TypeStudy,
		Subject:          "Direito Constitucional",
		MinutesDedicated: 90,
	})

	require.NoError(t, err)
	require.Len(t, result.PlannedRevisions, 3)
	assert.Equal(t, cmdDate(2026, 1, 2), result.PlannedRevisions[0].DueDate)
	assert.Equal(t, cmdDate(2026, 1, 8), result.PlannedRevisions[1].DueDate)
	assert.Equal(t, cmdDate(2026, 1, 15), result.PlannedRevisions[2].DueDate)

	stored, err := f.revisions.GetOpenByUser(context.Background(), cmdUserID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestRecordStudyStartsStreak(t *testing.T) {
	today := cmdDate(2026, 1, 1)
	f := newFixture(t, today)

	result, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID:           cmdUserID,
		Type:             study.TypeStudy,
		Subject:          "Portugues",
		MinutesDedicated: 30,
	})

	require.NoError(t, err)
	require.NotNil(t, result.StreakAfter)
	assert.Equal(t, 1, result.StreakAfter.Current)
	assert.Equal(t, today, result.StreakAfter.LastActiveDate)

	assert.Contains(t, f.publisher.types(), shared.EventStreakAdvanced)
	assert.Contains(t, f.publisher.types(), shared.EventStudyRecorded)
	assert.Contains(t, f.publisher.types(), shared.EventRevisionsScheduled)
}

func TestRecordRevisionCompletesTarget(t *testing.T) {
	today := cmdDate(2026, 1, 8)
	f := newFixture(t, today)

	target := &revision.Revision{
		ID:       "rev-1",
		UserID:   cmdUserID,
		RecordID: "rec-1",
		DueDate:  today,
		Status:   revision.StatusPending,
	}
	require.NoError(t, f.revisions.CreateBatch(context.Background(), []*revision.Revision{target}))

	result, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID:              cmdUserID,
		Type:                study.TypeRevision,
		Subject:             "Direito Constitucional",
		MinutesDedicated:    25,
		CompletesRevisionID: "rev-1",
	})

	require.NoError(t, err)
	require.NotNil(t, result.CompletedRevision)
	assert.Equal(t, revision.StatusCompleted, result.CompletedRevision.Status)
	assert.Equal(t, result.Record.ID, result.CompletedRevision.CompletedByRecordID)

	// Revision sessions never seed a new plan.
	assert.Empty(t, result.PlannedRevisions)
	assert.Contains(t, f.publisher.types(), shared.EventRevisionCompleted)
}

func TestRecordRevisionOnTerminalTargetFails(t *testing.T) {
	today := cmdDate(2026, 1, 8)
	f := newFixture(t, today)

	done := &revision.Revision{
		ID:       "rev-1",
		UserID:   cmdUserID,
		RecordID: "rec-1",
		DueDate:  today,
		Status:   revision.StatusCompleted,
	}
	require.NoError(t, f.revisions.CreateBatch(context.Background(), []*revision.Revision{done}))

	_, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID:              cmdUserID,
		Type:                study.TypeRevision,
		Subject:             "Direito Constitucional",
		MinutesDedicated:    25,
		CompletesRevisionID: "rev-1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStateTransition)
	// Nothing persisted when the completion fails.
	assert.Empty(t, f.studies.records)
	assert.Empty(t, f.publisher.published)
}

func TestRecordRevisionOwnedByAnotherUserFails(t *testing.T) {
	today := cmdDate(2026, 1, 8)
	f := newFixture(t, today)

	foreign := &revision.Revision{
		ID:       "rev-1",
		UserID:   "someone-else",
		RecordID: "rec-1",
		DueDate:  today,
		Status:   revision.StatusPending,
	}
	require.NoError(t, f.revisions.CreateBatch(context.Background(), []*revision.Revision{foreign}))

	_, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID:              cmdUserID,
		Type:                study.TypeRevision,
		Subject:             "Direito Constitucional",
		MinutesDedicated:    25,
		CompletesRevisionID: "rev-1",
	})

	require.Error(t, err)
	assert.Equal(t, revision.StatusPending, foreign.Status)
}

func TestRecordStudyInFutureFails(t *testing.T) {
	today := cmdDate(2026, 1, 1)
	f := newFixture(t, today)

	_, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID:           cmdUserID,
		Type:             study.TypeStudy,
		Subject:          "Portugues",
		StudyDate:        cmdDate(2026, 1, 2),
		MinutesDedicated: 30,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestRecordStudyValidation(t *testing.T) {
	f := newFixture(t, cmdDate(2026, 1, 1))

	cases := []struct {
		name string
		cmd  RecordStudyCommand
	}{
		{"missing user", RecordStudyCommand{Type: study.TypeStudy, Subject: "x", MinutesDedicated: 10}},
		{"bad type", RecordStudyCommand{UserID: cmdUserID, Type: "Leitura", Subject: "x", MinutesDedicated: 10}},
		{"missing subject", RecordStudyCommand{UserID: cmdUserID, Type: study.TypeStudy, MinutesDedicated: 10}},
		{"zero minutes", RecordStudyCommand{UserID: cmdUserID, Type: study.TypeStudy, Subject: "x"}},
		{"revision without target", RecordStudyCommand{UserID: cmdUserID, Type: study.TypeRevision, Subject: "x", MinutesDedicated: 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.handler.Handle(context.Background(), tc.cmd)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestRecordStudyTwoDaysRunningGrowsStreak(t *testing.T) {
	f := newFixture(t, cmdDate(2026, 1, 1))

	_, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID: cmdUserID, Type: study.TypeStudy, Subject: "a", MinutesDedicated: 10,
	})
	require.NoError(t, err)

	f.clock.AdvanceDays(1)
	result, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID: cmdUserID, Type: study.TypeStudy, Subject: "b", MinutesDedicated: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.StreakAfter.Current)
}

func TestRecordStudyWithEmptiedReviewPlanSchedulesNothing(t *testing.T) {
	today := cmdDate(2026, 1, 1)
	f := newFixture(t, today)

	usr, err := f.users.GetByID(context.Background(), cmdUserID)
	require.NoError(t, err)
	usr.Preferences.ReviewPlan = []int{}

	result, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID:           cmdUserID,
		Type:             study.TypeStudy,
		Subject:          "Direito Constitucional",
		MinutesDedicated: 90,
	})

	require.NoError(t, err)
	assert.Empty(t, result.PlannedRevisions)

	stored, err := f.revisions.GetOpenByUser(context.Background(), cmdUserID)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.NotContains(t, f.publisher.types(), shared.EventRevisionsScheduled)
}

func TestRecordStudyWithUnsetReviewPlanUsesDefault(t *testing.T) {
	today := cmdDate(2026, 1, 1)
	f := newFixture(t, today)

	usr, err := f.users.GetByID(context.Background(), cmdUserID)
	require.NoError(t, err)
	usr.Preferences.ReviewPlan = nil

	result, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID:           cmdUserID,
		Type:             study.TypeStudy,
		Subject:          "Portugues",
		MinutesDedicated: 45,
	})

	require.NoError(t, err)
	assert.Len(t, result.PlannedRevisions, 3)
}

func TestRecordStudyWithoutPublisher(t *testing.T) {
	today := cmdDate(2026, 1, 1)
	f := newFixture(t, today)
	handler := NewRecordStudyHandler(
		f.users, f.studies, f.revisions, f.streaks,
		nil, f.clock, nil,
	)

	result, err := handler.Handle(context.Background(), RecordStudyCommand{
		UserID:           cmdUserID,
		Type:             study.TypeStudy,
		Subject:          "Direito Constitucional",
		MinutesDedicated: 90,
	})

	require.NoError(t, err)
	assert.Len(t, result.PlannedRevisions, 3)
	require.NotNil(t, result.StreakAfter)
	assert.Equal(t, 1, result.StreakAfter.Current)
}

func TestRecordStudyAfterFrozenGapSpendsToken(t *testing.T) {
	f := newFixture(t, cmdDate(2026, 1, 3))

	s := streak.NewStreak(cmdUserID, user.DefaultFreezesTotal)
	s.Current = 5
	s.Best = 5
	s.LastActiveDate = cmdDate(2026, 1, 1)
	require.NoError(t, f.streaks.Save(context.Background(), s))

	result, err := f.handler.Handle(context.Background(), RecordStudyCommand{
		UserID: cmdUserID, Type: study.TypeStudy, Subject: "a", MinutesDedicated: 10,
	})

	require.NoError(t, err)
	assert.Equal(t, 6, result.StreakAfter.Current)
	assert.Equal(t, 1, result.StreakAfter.FreezesUsed)
	assert.Contains(t, f.publisher.types(), shared.EventStreakFrozen)
}
