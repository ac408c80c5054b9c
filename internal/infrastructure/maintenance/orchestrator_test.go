package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/internal/domain/streak"
	"github.com/studyhelper/studyhelper-hub/internal/domain/user"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	users    map[string]*user.User
	failByID map[string]error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[string]*user.User),
		failByID: make(map[string]error),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	if err := r.failByID[id]; err != nil {
		return nil, err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *fakeUserRepo) Update(_ context.Context, u *user.User) error {
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
		all = append(all, u.Clone())
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

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	return len(r.users), nil
}

func (r *fakeUserRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.users[id]
	return ok, nil
}

type fakeRevisionRepo struct {
	revisions map[string]*revision.Revision
}

func newFakeRevisionRepo() *fakeRevisionRepo {
	return &fakeRevisionRepo{revisions: make(map[string]*revision.Revision)}
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
	var open []*revision.Revision
	for _, rev := range r.revisions {
		if rev.UserID == userID && rev.Status.IsOpen() {
			open = append(open, rev)
		}
	}
	return open, nil
}

func (r *fakeRevisionRepo) GetByRecord(_ context.Context, recordID string) ([]*revision.Revision, error) {
	var revs []*revision.Revision
	for _, rev := range r.revisions {
		if rev.RecordID == recordID {
			revs = append(revs, rev)
		}
	}
	return revs, nil
}

func (r *fakeRevisionRepo) GetDueBetween(_ context.Context, userID string, from, to time.Time) ([]*revision.Revision, error) {
	var revs []*revision.Revision
	for _, rev := range r.revisions {
		if rev.UserID == userID && rev.Status.IsOpen() && !rev.DueDate.Before(from) && !rev.DueDate.After(to) {
			revs = append(revs, rev)
		}
	}
	return revs, nil
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
		if rev.UserID == userID && rev.Status.IsOpen() && !rev.DueDate.Before(from) && !rev.DueDate.After(to) {
			counts[rev.DueDate]++
		}
	}
	return counts, nil
}

type fakeStreakRepo struct {
	streaks map[string]*streak.Streak
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{streaks: make(map[string]*streak.Streak)}
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

func (r *fakeStreakRepo) GetTop(_ context.Context, _ int) ([]*streak.Streak, error) {
	return nil, nil
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

type fakeGuard struct {
	claimed map[string]bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{claimed: make(map[string]bool)}
}

func (g *fakeGuard) key(name string, day time.Time) string {
	return name + ":" + day.Format("2006-01-02")
}

func (g *fakeGuard) TryAcquire(_ context.Context, name string, day time.Time) (bool, error) {
	k := g.key(name, day)
	if g.claimed[k] {
		return false, nil
	}
	g.claimed[k] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, name string, day time.Time) error {
	delete(g.claimed, g.key(name, day))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Fixture
// ─────────────────────────────────────────────────────────────────────────────

type fixture struct {
	users     *fakeUserRepo
	revisions *fakeRevisionRepo
	streaks   *fakeStreakRepo
	publisher *fakePublisher

	orchestrator *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:     newFakeUserRepo(),
		revisions: newFakeRevisionRepo(),
		streaks:   newFakeStreakRepo(),
		publisher: &fakePublisher{},
	}
	f.orchestrator = NewOrchestrator(f.users, f.revisions, f.streaks, f.publisher, testLogger())
	return f
}

func (f *fixture) addUser(t *testing.T, id string) *user.User {
	t.Helper()

	u, err := user.NewUser(user.NewUserParams{
		ID:          id,
		Email:       id + "@example.com",
		DisplayName: "User " + id,
	})
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) addRevision(id, userID string, due time.Time, status revision.Status) *revision.Revision {
	now := time.Now().UTC()
	rev := &revision.Revision{
		ID:        id,
		UserID:    userID,
		RecordID:  "rec-" + id,
		DueDate:   due,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.revisions.revisions[id] = rev
	return rev
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─────────────────────────────────────────────────────────────────────────────
// Revision sweep
// ─────────────────────────────────────────────────────────────────────────────

func TestRunDailyMarksOverdueRevisionLate(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	// Default tolerance is one day: due Jan 10, late from Jan 12.
	f.addRevision("r1", "u1", date(2026, time.January, 10), revision.StatusPending)

	stats, err := f.orchestrator.RunDaily(context.Background(), date(2026, time.January, 12))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.UsersProcessed)
	assert.Equal(t, 1, stats.RevisionsUpdated)
	assert.Equal(t, 1, stats.TransitionsByStatus[revision.StatusLate])
	assert.Equal(t, revision.StatusLate, f.revisions.revisions["r1"].Status)
	assert.Contains(t, f.publisher.types(), shared.EventRevisionLate)
}

func TestRunDailyLeavesRevisionInsideTolerance(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	f.addRevision("r1", "u1", date(2026, time.January, 10), revision.StatusPending)

	stats, err := f.orchestrator.RunDaily(context.Background(), date(2026, time.January, 11))
	require.NoError(t, err)

	assert.Zero(t, stats.RevisionsUpdated)
	assert.Equal(t, revision.StatusPending, f.revisions.revisions["r1"].Status)
}

func TestRunDailyReschedulesLongLateRevision(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	// Tolerance 1 + max late 7: due Jan 1 stays late through Jan 9, resets Jan 10.
	f.addRevision("r1", "u1", date(2026, time.January, 1), revision.StatusLate)

	today := date(2026, time.January, 10)
	stats, err := f.orchestrator.RunDaily(context.Background(), today)
	require.NoError(t, err)

	rev := f.revisions.revisions["r1"]
	assert.Equal(t, revision.StatusPending, rev.Status)
	assert.True(t, dateutil.SameDay(today, rev.DueDate), "due date should move to the reset day")
	assert.Equal(t, 1, stats.TransitionsByStatus[revision.StatusPending])
	assert.Contains(t, f.publisher.types(), shared.EventRevisionReset)
}

func TestRunDailyExpiresRevisionWhenExpiryEnabled(t *testing.T) {
	f := newFixture(t)
	u := f.addUser(t, "u1")

	expireAfter := 5
	prefs := u.Preferences
	prefs.ReviewExpireAfterDays = &expireAfter
	require.NoError(t, u.UpdatePreferences(prefs))
	require.NoError(t, f.users.Update(context.Background(), u))

	f.addRevision("r1", "u1", date(2026, time.January, 1), revision.StatusLate)

	stats, err := f.orchestrator.RunDaily(context.Background(), date(2026, time.January, 7))
	require.NoError(t, err)

	assert.Equal(t, revision.StatusExpired, f.revisions.revisions["r1"].Status)
	assert.Equal(t, 1, stats.TransitionsByStatus[revision.StatusExpired])
	assert.Contains(t, f.publisher.types(), shared.EventRevisionExpired)
}

// ─────────────────────────────────────────────────────────────────────────────
// Streak decay
// ─────────────────────────────────────────────────────────────────────────────

func TestRunDailySpendsFreezeOnOneDayGap(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	s := streak.NewStreak("u1", user.DefaultFreezesTotal)
	s.Current = 5
	s.Best = 5
	s.LastActiveDate = date(2026, time.January, 10)
	require.NoError(t, f.streaks.Save(context.Background(), s))

	// Jan 11 was missed; Jan 12 may still see activity.
	stats, err := f.orchestrator.RunDaily(context.Background(), date(2026, time.January, 12))
	require.NoError(t, err)

	saved := f.streaks.streaks["u1"]
	assert.Equal(t, 5, saved.Current, "a covered gap keeps the streak")
	assert.Equal(t, 1, saved.FreezesUsed)
	assert.Equal(t, 1, stats.StreaksFrozen)
	assert.Equal(t, 1, stats.FreezesSpent)
	assert.Contains(t, f.publisher.types(), shared.EventStreakFrozen)
}

func TestRunDailyBreaksStreakWhenFreezesRunOut(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	s := streak.NewStreak("u1", 2)
	s.Current = 9
	s.Best = 9
	s.LastActiveDate = date(2026, time.January, 10)
	require.NoError(t, f.streaks.Save(context.Background(), s))

	// Three-day gap against two freezes.
	stats, err := f.orchestrator.RunDaily(context.Background(), date(2026, time.January, 14))
	require.NoError(t, err)

	saved := f.streaks.streaks["u1"]
	assert.Zero(t, saved.Current)
	assert.Equal(t, 9, saved.Best, "best survives the break")
	assert.Equal(t, 2, saved.FreezesUsed)
	assert.Equal(t, 1, stats.StreaksBroken)
	assert.Contains(t, f.publisher.types(), shared.EventStreakBroken)
}

func TestRunDailySkipsUserWithoutStreak(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	stats, err := f.orchestrator.RunDaily(context.Background(), date(2026, time.January, 12))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.UsersProcessed)
	assert.Zero(t, stats.UsersFailed)
}

// ─────────────────────────────────────────────────────────────────────────────
// Run-level behavior
// ─────────────────────────────────────────────────────────────────────────────

func TestRunDailyRevisionSweepIsIdempotent(t *testing.T) {
	// Revision statuses settle after one pass; the same-day guarantee for
	// streak decay comes from the run guard, not from re-running the sweep.
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addRevision("r1", "u1", date(2026, time.January, 10), revision.StatusPending)

	today := date(2026, time.January, 12)

	first, err := f.orchestrator.RunDaily(context.Background(), today)
	require.NoError(t, err)
	require.Equal(t, 1, first.RevisionsUpdated)

	second, err := f.orchestrator.RunDaily(context.Background(), today)
	require.NoError(t, err)

	assert.Zero(t, second.RevisionsUpdated)
	assert.Equal(t, revision.StatusLate, f.revisions.revisions["r1"].Status)
}

func TestRunDailyIsolatesFailingUser(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addUser(t, "u2")
	f.users.failByID["u1"] = errors.New("connection reset")

	f.addRevision("r2", "u2", date(2026, time.January, 10), revision.StatusPending)

	stats, err := f.orchestrator.RunDaily(context.Background(), date(2026, time.January, 12))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.UsersProcessed)
	assert.Equal(t, 1, stats.UsersFailed)
	assert.Len(t, stats.Errors, 1)
	assert.Equal(t, revision.StatusLate, f.revisions.revisions["r2"].Status,
		"healthy users are still swept")
}

func TestRunDailyPublishesCompletionEvent(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	_, err := f.orchestrator.RunDaily(context.Background(), date(2026, time.January, 12))
	require.NoError(t, err)

	require.Contains(t, f.publisher.types(), shared.EventMaintenanceCompleted)
}

// ─────────────────────────────────────────────────────────────────────────────
// Daily job wrapper
// ─────────────────────────────────────────────────────────────────────────────

func TestDailyJobRunsOncePerDay(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")
	f.addRevision("r1", "u1", date(2026, time.January, 10), revision.StatusPending)

	clock := dateutil.NewFixedClock(date(2026, time.January, 12))
	job := NewDailyJob(f.orchestrator, newFakeGuard(), clock,
		testLogger(), DefaultDailyJobConfig())

	require.NoError(t, job.Run(context.Background()))
	require.NotNil(t, job.LastRunStats())
	firstStats := job.LastRunStats()

	// Second run the same day is claimed already and does not sweep.
	require.NoError(t, job.Run(context.Background()))
	assert.Same(t, firstStats, job.LastRunStats())

	// The next day runs again.
	clock.AdvanceDays(1)
	require.NoError(t, job.Run(context.Background()))
	assert.NotSame(t, firstStats, job.LastRunStats())
}

func TestDailyJobRunsWithoutGuard(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "u1")

	clock := dateutil.NewFixedClock(date(2026, time.January, 12))
	job := NewDailyJob(f.orchestrator, nil, clock,
		testLogger(), DailyJobConfig{})

	require.NoError(t, job.Run(context.Background()))
	assert.NotNil(t, job.LastRunStats())
}
