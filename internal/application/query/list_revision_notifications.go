// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST REVISION NOTIFICATIONS QUERY
// Classifies a user's open revisions into notification buckets: expired,
// late, due today and due soon. Revisions outside those buckets stay silent.
// ══════════════════════════════════════════════════════════════════════════════

// ListRevisionNotificationsQuery holds the query parameters.
type ListRevisionNotificationsQuery struct {
	// UserID - whose revisions to classify.
	UserID string

	// Date - the reference day. Zero means today.
	Date time.Time

	// Buckets - restrict the result to these buckets. Empty means all.
	Buckets []revision.Bucket
}

// Validate checks query parameters.
func (q *ListRevisionNotificationsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("list_revision_notifications: user_id is required")
	}
	return nil
}

// ListRevisionNotificationsResult holds the classified notifications.
type ListRevisionNotificationsResult struct {
	// Notifications - one per noisy revision, ordered by due date.
	Notifications []revision.Notification `json:"notifications"`

	// CountByBucket - how many revisions landed in each bucket.
	CountByBucket map[revision.Bucket]int `json:"count_by_bucket"`

	// GeneratedAt - time the result was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// ListRevisionNotificationsHandler handles notification listing.
type ListRevisionNotificationsHandler struct {
	revisionRepo revision.Repository
	clock        dateutil.Clock
}

// NewListRevisionNotificationsHandler creates a new handler.
func NewListRevisionNotificationsHandler(revisionRepo revision.Repository, clock dateutil.Clock) *ListRevisionNotificationsHandler {
	if clock == nil {
		clock = dateutil.NewSystemClock()
	}
	return &ListRevisionNotificationsHandler{
		revisionRepo: revisionRepo,
		clock:        clock,
	}
}

// Handle executes the query.
func (h *ListRevisionNotificationsHandler) Handle(ctx context.Context, query ListRevisionNotificationsQuery) (*ListRevisionNotificationsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListRevisionNotifications", shared.ErrValidation, "invalid query", err)
	}

	today := h.clock.Today()
	if !query.Date.IsZero() {
		today = dateutil.StartOfDay(query.Date)
	}

	open, err := h.revisionRepo.GetOpenByUser(ctx, query.UserID)
	if err != nil {
		return nil, shared.WrapError("query", "ListRevisionNotifications", shared.ErrServiceUnavailable,
			"failed to load open revisions", err)
	}

	wanted := make(map[revision.Bucket]bool, len(query.Buckets))
	for _, b := range query.Buckets {
		wanted[b] = true
	}

	result := &ListRevisionNotificationsResult{
		CountByBucket: make(map[revision.Bucket]int),
		GeneratedAt:   time.Now().UTC(),
	}

	for _, rev := range open {
		notification, ok := revision.Classify(rev, today)
		if !ok {
			continue
		}
		result.CountByBucket[notification.Bucket]++
		if len(wanted) > 0 && !wanted[notification.Bucket] {
			continue
		}
		result.Notifications = append(result.Notifications, notification)
	}

	sort.Slice(result.Notifications, func(i, j int) bool {
		a, b := result.Notifications[i], result.Notifications[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.RevisionID < b.RevisionID
	})

	return result, nil
}
