// Package streak contains the consecutive-activity streak ("ofensiva") and
// the engine that advances and decays it. Freeze tokens ("bloqueios") cover
// inactive days so a short lapse does not break the streak.
// No external dependencies.
package streak

import (
	"fmt"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STREAK
// ══════════════════════════════════════════════════════════════════════════════

// Streak tracks a user's consecutive active days.
type Streak struct {
	// UserID - owner of the streak.
	UserID string

	// Current - consecutive active days. Zero when broken or never started.
	Current int

	// Best - the longest streak ever reached.
	Best int

	// FreezesTotal - freeze tokens granted to the user.
	FreezesTotal int

	// FreezesUsed - freeze tokens already consumed.
	FreezesUsed int

	// LastActiveDate - the last day with real activity, midnight UTC.
	// Zero when the user has never been active. Freezes never advance it.
	LastActiveDate time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// NewStreak creates a zeroed streak with the default freeze allowance.
func NewStreak(userID string, freezesTotal int) *Streak {
	return &Streak{
		UserID:       userID,
		FreezesTotal: freezesTotal,
		UpdatedAt:    time.Now().UTC(),
	}
}

// FreezesLeft returns the unspent freeze tokens.
func (s *Streak) FreezesLeft() int {
	left := s.FreezesTotal - s.FreezesUsed
	if left < 0 {
		return 0
	}
	return left
}

// HasEverBeenActive reports whether any activity was ever registered.
func (s *Streak) HasEverBeenActive() bool {
	return !s.LastActiveDate.IsZero()
}

// String returns a loggable representation of the streak.
func (s *Streak) String() string {
	last := "never"
	if s.HasEverBeenActive() {
		last = s.LastActiveDate.Format("2006-01-02")
	}
	return fmt.Sprintf("Streak{User: %s, Current: %d, Freezes: %d/%d, LastActive: %s}",
		s.UserID, s.Current, s.FreezesUsed, s.FreezesTotal, last)
}

// Clone creates a copy of the streak.
func (s *Streak) Clone() *Streak {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// validate rejects corrupt token accounting before the engine touches state.
func (s *Streak) validate(op string) error {
	if s.FreezesUsed > s.FreezesTotal {
		return shared.NewDomainError("streak", op,
			shared.ErrInvalidConfiguration, "used freezes exceed total freezes")
	}
	if s.Current < 0 || s.FreezesUsed < 0 || s.FreezesTotal < 0 {
		return shared.NewDomainError("streak", op,
			shared.ErrInvalidConfiguration, "streak counters cannot be negative")
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// DecayResult summarizes one decay pass.
type DecayResult struct {
	// GapDays - fully inactive days between last activity and today,
	// excluding today itself.
	GapDays int

	// FreezesSpent - tokens consumed covering the gap.
	FreezesSpent int

	// Broken - whether the streak reset to zero.
	Broken bool
}

// Changed reports whether the decay pass mutated the streak.
func (r DecayResult) Changed() bool {
	return r.FreezesSpent > 0 || r.Broken
}

// Engine advances and decays streaks. Decay runs once per day from the
// maintenance job; RegisterActivity runs whenever the user logs a session.
type Engine struct{}

// NewEngine creates a streak engine.
func NewEngine() *Engine {
	return &Engine{}
}

// RegisterActivity counts a day of activity. The first activity ever and a
// day exactly one after the last both grow the streak; a repeat of the same
// day is a no-op. A day more than one after the last is a caller error: the
// gap must be resolved by Decay first, activity never jumps the streak.
// Returns whether the streak changed.
func (e *Engine) RegisterActivity(s *Streak, day time.Time) (bool, error) {
	if err := s.validate("RegisterActivity"); err != nil {
		return false, err
	}

	activeDay := dateutil.StartOfDay(day)

	if !s.HasEverBeenActive() {
		s.Current = 1
		s.LastActiveDate = activeDay
		s.touch()
		return true, nil
	}

	last := dateutil.StartOfDay(s.LastActiveDate)
	switch diff := dateutil.DaysBetween(last, activeDay); {
	case diff == 0:
		return false, nil
	case diff == 1:
		s.Current++
		s.LastActiveDate = activeDay
		s.touch()
		return true, nil
	case diff < 0:
		return false, shared.NewDomainError("streak", "RegisterActivity",
			shared.ErrInvalidState, "activity date precedes last active date")
	default:
		return false, shared.NewDomainError("streak", "RegisterActivity",
			shared.ErrInvalidState, "activity registered across an unevaluated gap")
	}
}

// Decay resolves the inactive days between the last activity and today.
// Each gap day consumes one freeze token; the first day that cannot be
// covered breaks the streak. Today itself is never part of the gap since
// it may still receive activity. A covered gap freezes the streak in place:
// Current and LastActiveDate stay untouched, so a gap that keeps growing
// keeps accruing from the true last-activity date.
func (e *Engine) Decay(s *Streak, today time.Time) (DecayResult, error) {
	if err := s.validate("Decay"); err != nil {
		return DecayResult{}, err
	}

	if !s.HasEverBeenActive() {
		return DecayResult{}, nil
	}

	day := dateutil.StartOfDay(today)
	last := dateutil.StartOfDay(s.LastActiveDate)

	gapDays := dateutil.DaysBetween(last, day) - 1
	if gapDays <= 0 {
		return DecayResult{}, nil
	}

	result := DecayResult{GapDays: gapDays}
	for i := 0; i < gapDays; i++ {
		if s.FreezesLeft() == 0 {
			result.Broken = true
			break
		}
		s.FreezesUsed++
		result.FreezesSpent++
	}

	if result.Broken {
		s.Current = 0
	}
	if result.Changed() {
		s.touch()
	}

	return result, nil
}

// AdvanceResult summarizes an Advance call: the decay that resolved any
// outstanding gap plus whether today's activity grew the streak.
type AdvanceResult struct {
	Decay      DecayResult
	Registered bool
}

// Advance is the entry point for real activity: it resolves any outstanding
// gap first, then counts the activity day. A gap fully covered by freezes
// lets the streak continue growing; a broken one restarts it at one.
func (e *Engine) Advance(s *Streak, day time.Time) (AdvanceResult, error) {
	activeDay := dateutil.StartOfDay(day)

	decay, err := e.Decay(s, activeDay)
	if err != nil {
		return AdvanceResult{}, err
	}
	result := AdvanceResult{Decay: decay}

	if !s.HasEverBeenActive() {
		registered, err := e.RegisterActivity(s, activeDay)
		if err != nil {
			return result, err
		}
		result.Registered = registered
		return result, nil
	}

	switch diff := dateutil.DaysBetween(dateutil.StartOfDay(s.LastActiveDate), activeDay); {
	case diff <= 1:
		registered, err := e.RegisterActivity(s, activeDay)
		if err != nil {
			return result, err
		}
		result.Registered = registered
	default:
		// The gap was just resolved by the decay above. A frozen streak
		// resumes; a broken one restarts.
		if decay.Broken {
			s.Current = 1
		} else {
			s.Current++
		}
		s.LastActiveDate = activeDay
		s.touch()
		result.Registered = true
	}

	return result, nil
}

func (s *Streak) touch() {
	if s.Current > s.Best {
		s.Best = s.Current
	}
	s.UpdatedAt = time.Now().UTC()
}
