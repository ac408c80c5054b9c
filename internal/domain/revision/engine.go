package revision

import (
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// LatenessConfig carries the per-user settings the status engine needs.
type LatenessConfig struct {
	// ToleranceDays - grace days past due before a revision turns late.
	ToleranceDays int

	// MaxLateDays - days a revision stays late before it is rescheduled.
	// Only consulted when ExpireAfterDays is nil.
	MaxLateDays int

	// ExpireAfterDays - days past due after which a late revision expires.
	// Nil disables expiry and enables the max-late reschedule instead.
	ExpireAfterDays *int
}

// Validate checks the configuration for usable values.
func (c LatenessConfig) Validate() error {
	if c.ToleranceDays < 0 {
		return shared.NewDomainError("revision", "Evaluate",
			shared.ErrInvalidConfiguration, "lateness tolerance cannot be negative")
	}
	if c.MaxLateDays < 0 {
		return shared.NewDomainError("revision", "Evaluate",
			shared.ErrInvalidConfiguration, "max late days cannot be negative")
	}
	if c.ExpireAfterDays != nil && *c.ExpireAfterDays < 1 {
		return shared.NewDomainError("revision", "Evaluate",
			shared.ErrInvalidConfiguration, "expire after days must be at least 1")
	}
	return nil
}

// Transition is the status change the engine proposes for one revision.
// Changed is false when the current status is already correct for today.
type Transition struct {
	From    Status
	To      Status
	Changed bool

	// NewDueDate is set only on the late-to-pending reschedule: the due
	// date moves so the revision does not flip back to late on the very
	// next run.
	NewDueDate *time.Time
}

// Apply writes the transition onto the revision. A no-op when Changed is false.
func (t Transition) Apply(rev *Revision) {
	if !t.Changed {
		return
	}
	rev.Status = t.To
	if t.NewDueDate != nil {
		rev.DueDate = *t.NewDueDate
	}
	rev.UpdatedAt = time.Now().UTC()
}

// Engine ages revisions: pending turns late past tolerance, late either
// expires or is rescheduled back to pending. Pure and idempotent: the same
// inputs always propose the same transition, and a correct status proposes
// none.
type Engine struct{}

// NewEngine creates a revision status engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate proposes the status a revision should hold on the given day.
// All comparisons use whole calendar days. Terminal revisions never change.
// Postponed revisions age exactly like pending ones; their due date was
// already moved when the user postponed.
func (e *Engine) Evaluate(rev *Revision, today time.Time, cfg LatenessConfig) (Transition, error) {
	if err := cfg.Validate(); err != nil {
		return Transition{}, err
	}

	day := dateutil.StartOfDay(today)
	due := dateutil.StartOfDay(rev.DueDate)
	none := Transition{From: rev.Status, To: rev.Status, Changed: false}

	switch rev.Status {
	case StatusCompleted, StatusExpired:
		return none, nil

	case StatusPending, StatusPostponed:
		if day.After(dateutil.AddDays(due, cfg.ToleranceDays)) {
			return Transition{From: rev.Status, To: StatusLate, Changed: true}, nil
		}
		return none, nil

	case StatusLate:
		if cfg.ExpireAfterDays != nil {
			if day.After(dateutil.AddDays(due, *cfg.ExpireAfterDays)) {
				return Transition{From: StatusLate, To: StatusExpired, Changed: true}, nil
			}
			return none, nil
		}
		if day.After(dateutil.AddDays(due, cfg.ToleranceDays+cfg.MaxLateDays)) {
			newDue := day
			return Transition{From: StatusLate, To: StatusPending, Changed: true, NewDueDate: &newDue}, nil
		}
		return none, nil

	default:
		return Transition{}, shared.NewDomainError("revision", "Evaluate",
			shared.ErrInvalidInput, "unknown revision status "+string(rev.Status))
	}
}
