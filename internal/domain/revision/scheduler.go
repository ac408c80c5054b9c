package revision

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// Scheduler plans the revisions that follow a study session. It is pure
// planning: persistence belongs to the caller.
type Scheduler struct{}

// NewScheduler creates a revision scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Plan produces one pending revision per distinct positive offset, dated
// offset days after the study date. Offsets are deduplicated and sorted;
// an empty offset list yields an empty plan. Any offset <= 0 fails with
// an invalid-configuration error.
func (s *Scheduler) Plan(userID, recordID string, studyDate time.Time, offsets []int) ([]*Revision, error) {
	for _, offset := range offsets {
		if offset <= 0 {
			return nil, shared.NewDomainError("revision", "Plan",
				shared.ErrInvalidConfiguration, "revision offsets must be positive")
		}
	}

	seen := make(map[int]struct{}, len(offsets))
	plan := make([]int, 0, len(offsets))
	for _, offset := range offsets {
		if _, ok := seen[offset]; ok {
			continue
		}
		seen[offset] = struct{}{}
		plan = append(plan, offset)
	}
	sort.Ints(plan)

	base := dateutil.StartOfDay(studyDate)
	now := time.Now().UTC()

	revisions := make([]*Revision, 0, len(plan))
	for _, offset := range plan {
		revisions = append(revisions, &Revision{
			ID:        uuid.NewString(),
			UserID:    userID,
			RecordID:  recordID,
			DueDate:   base.AddDate(0, 0, offset),
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return revisions, nil
}
