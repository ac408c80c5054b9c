// Package user contains the user aggregate and the study preferences that
// drive revision planning and streak maintenance. No external dependencies.
package user

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// WeekStart defines which day a user's week begins on.
type WeekStart string

const (
	// WeekStartSunday - the week begins on Sunday.
	WeekStartSunday WeekStart = "Domingo"
	// WeekStartMonday - the week begins on Monday.
	WeekStartMonday WeekStart = "Segunda"
)

// IsValid checks that the week start is one of the supported values.
func (w WeekStart) IsValid() bool {
	return w == WeekStartSunday || w == WeekStartMonday
}

// Weekday maps the value onto time.Weekday numbering.
func (w WeekStart) Weekday() time.Weekday {
	if w == WeekStartMonday {
		return time.Monday
	}
	return time.Sunday
}

// ══════════════════════════════════════════════════════════════════════════════
// PREFERENCES
// ══════════════════════════════════════════════════════════════════════════════

// Default planning values applied when a user has no explicit preferences.
const (
	// DefaultLateToleranceDays is how many days past due a revision may sit
	// before it is flagged late.
	DefaultLateToleranceDays = 1

	// DefaultLateMaxDays is how long a revision stays flagged late before
	// its due date is rescheduled, when expiry is disabled.
	DefaultLateMaxDays = 7

	// DefaultFreezesTotal is the number of streak freezes a new user holds.
	DefaultFreezesTotal = 2
)

// DefaultReviewPlan returns the spaced-repetition offsets used when the user
// has not customized their plan: one, seven and fourteen days after studying.
func DefaultReviewPlan() []int {
	return []int{1, 7, 14}
}

// Preferences holds the per-user settings consumed by the revision planner
// and the maintenance engines.
type Preferences struct {
	// WeekStartsOn - which day the user's week begins on.
	WeekStartsOn WeekStart

	// ReviewPlan - day offsets after a study session when revisions fall due.
	ReviewPlan []int

	// MaxSlotsPerDay - soft cap of revisions per day; nil means unlimited.
	MaxSlotsPerDay *int

	// SlotLateToleranceDays - grace days past due before a revision is late.
	SlotLateToleranceDays int

	// SlotLateMaxDays - days a revision stays late before being rescheduled.
	// Only consulted when ReviewExpireAfterDays is nil.
	SlotLateMaxDays int

	// ReviewExpireAfterDays - days past due after which a late revision
	// expires permanently; nil disables expiry.
	ReviewExpireAfterDays *int
}

// DefaultPreferences returns the settings applied to new users.
func DefaultPreferences() Preferences {
	return Preferences{
		WeekStartsOn:          WeekStartMonday,
		ReviewPlan:            DefaultReviewPlan(),
		MaxSlotsPerDay:        nil,
		SlotLateToleranceDays: DefaultLateToleranceDays,
		SlotLateMaxDays:       DefaultLateMaxDays,
		ReviewExpireAfterDays: nil,
	}
}

// Validate checks the preferences for internally consistent values.
func (p Preferences) Validate() error {
	if !p.WeekStartsOn.IsValid() {
		return ErrInvalidWeekStart
	}
	for _, offset := range p.ReviewPlan {
		if offset <= 0 {
			return ErrInvalidReviewPlan
		}
	}
	if p.MaxSlotsPerDay != nil && *p.MaxSlotsPerDay <= 0 {
		return ErrInvalidMaxSlots
	}
	if p.SlotLateToleranceDays < 0 {
		return ErrInvalidTolerance
	}
	if p.SlotLateMaxDays < 1 {
		return ErrInvalidLateMax
	}
	if p.ReviewExpireAfterDays != nil && *p.ReviewExpireAfterDays < 1 {
		return ErrInvalidExpiry
	}
	return nil
}

// NormalizedPlan returns the review plan with duplicates removed and offsets
// sorted ascending. The stored plan is left untouched.
func (p Preferences) NormalizedPlan() []int {
	seen := make(map[int]struct{}, len(p.ReviewPlan))
	plan := make([]int, 0, len(p.ReviewPlan))
	for _, offset := range p.ReviewPlan {
		if _, ok := seen[offset]; ok {
			continue
		}
		seen[offset] = struct{}{}
		plan = append(plan, offset)
	}
	sort.Ints(plan)
	return plan
}

// ExpiryEnabled reports whether late revisions eventually expire.
func (p Preferences) ExpiryEnabled() bool {
	return p.ReviewExpireAfterDays != nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidWeekStart - the week start is not Sunday or Monday.
	ErrInvalidWeekStart = errors.New("invalid week start: must be Domingo or Segunda")

	// ErrInvalidReviewPlan - a review plan offset is zero or negative.
	ErrInvalidReviewPlan = errors.New("invalid review plan: offsets must be positive")

	// ErrInvalidMaxSlots - the daily slot cap is zero or negative.
	ErrInvalidMaxSlots = errors.New("invalid max slots per day: must be positive or unset")

	// ErrInvalidTolerance - the lateness tolerance is negative.
	ErrInvalidTolerance = errors.New("invalid late tolerance: must be non-negative")

	// ErrInvalidLateMax - the late window is below one day.
	ErrInvalidLateMax = errors.New("invalid late max days: must be at least 1")

	// ErrInvalidExpiry - the expiry window is below one day.
	ErrInvalidExpiry = errors.New("invalid expire after days: must be at least 1 or unset")

	// ErrInvalidDisplayName - the display name is empty or too long.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrUserNotFound - the user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists - the user already exists.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: USER
// ══════════════════════════════════════════════════════════════════════════════

// User is the aggregate root owning study records, revisions and a streak.
type User struct {
	// ID - internal unique identifier (UUID in string form).
	ID string

	// Email - sign-in identity, unique across the system.
	Email string

	// DisplayName - name shown in summaries and notifications.
	DisplayName string

	// Preferences - planning and maintenance settings.
	Preferences Preferences

	// CreatedAt - when the account was created.
	CreatedAt time.Time

	// UpdatedAt - last modification time.
	UpdatedAt time.Time
}

// NewUserParams holds the parameters for creating a user.
type NewUserParams struct {
	ID          string
	Email       string
	DisplayName string
}

// NewUser creates a user with validated fields and default preferences.
func NewUser(params NewUserParams) (*User, error) {
	if params.ID == "" {
		return nil, errors.New("user id is required")
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("invalid email")
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	now := time.Now().UTC()

	return &User{
		ID:          params.ID,
		Email:       email,
		DisplayName: displayName,
		Preferences: DefaultPreferences(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdatePreferences replaces the user's preferences after validating them.
func (u *User) UpdatePreferences(prefs Preferences) error {
	if err := prefs.Validate(); err != nil {
		return err
	}
	u.Preferences = prefs
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// String returns a loggable representation of the user.
func (u *User) String() string {
	return fmt.Sprintf("User{ID: %s, Email: %s}", u.ID, u.Email)
}

// Clone creates a copy of the user.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.Preferences.ReviewPlan != nil {
		clone.Preferences.ReviewPlan = append([]int(nil), u.Preferences.ReviewPlan...)
	}
	if u.Preferences.MaxSlotsPerDay != nil {
		v := *u.Preferences.MaxSlotsPerDay
		clone.Preferences.MaxSlotsPerDay = &v
	}
	if u.Preferences.ReviewExpireAfterDays != nil {
		v := *u.Preferences.ReviewExpireAfterDays
		clone.Preferences.ReviewExpireAfterDays = &v
	}
	return &clone
}
