package revision

import (
	"time"

	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// Bucket is the notification category a revision falls into on a given day.
// The wire values are the Portuguese tags exposed by the product.
type Bucket string

const (
	// BucketToday - pending and due today.
	BucketToday Bucket = "hoje"
	// BucketUpcoming - pending and due within the next two days.
	BucketUpcoming Bucket = "em_breve"
	// BucketLate - flagged late by the status engine.
	BucketLate Bucket = "atrasada"
	// BucketExpired - expired and gone for good.
	BucketExpired Bucket = "expirada"
)

// UpcomingHorizonDays is how far ahead the upcoming bucket looks.
const UpcomingHorizonDays = 2

// Notification is the classification of a single revision for the read path.
// Message text is a presentation concern and is not produced here.
type Notification struct {
	Bucket     Bucket
	RevisionID string
	UserID     string
	DueDate    time.Time
	Status     Status
}

// Classify buckets a revision for notification purposes. The second return
// is false when the revision warrants no notification: completed revisions,
// postponed ones not yet due, and pending ones outside the horizon.
// Status buckets win over date buckets: a late revision is "atrasada" even
// if its due date is within the horizon.
func Classify(rev *Revision, today time.Time) (Notification, bool) {
	day := dateutil.StartOfDay(today)
	due := dateutil.StartOfDay(rev.DueDate)

	note := Notification{
		RevisionID: rev.ID,
		UserID:     rev.UserID,
		DueDate:    due,
		Status:     rev.Status,
	}

	switch rev.Status {
	case StatusExpired:
		note.Bucket = BucketExpired
		return note, true
	case StatusLate:
		note.Bucket = BucketLate
		return note, true
	case StatusPending:
		if due.Equal(day) {
			note.Bucket = BucketToday
			return note, true
		}
		if due.After(day) && !due.After(dateutil.AddDays(day, UpcomingHorizonDays)) {
			note.Bucket = BucketUpcoming
			return note, true
		}
		return Notification{}, false
	default:
		return Notification{}, false
	}
}
