package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FeatureFlags manages feature toggles with gradual rollout support.
// Flags gate the delivery surfaces around the core engines; the engines
// themselves are never flag-gated.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID string
}

// Predefined feature flag names.
const (
	// === Notification Features ===
	FeatureNotifyDueToday     = "notify.due_today"     // "hoje" bucket reminders
	FeatureNotifyUpcoming     = "notify.upcoming"      // "em_breve" bucket reminders
	FeatureNotifyLate         = "notify.late"          // "atrasada" bucket reminders
	FeatureNotifyExpired      = "notify.expired"       // "expirada" bucket reminders
	FeatureNotifyStreakEvents = "notify.streak_events" // frozen/broken streak messages

	// === Cache Features ===
	FeatureUserCache         = "cache.users"         // Redis user cache
	FeatureNotificationCache = "cache.notifications" // Redis notification cache

	// === Experimental Features ===
	FeatureExperimentalCalendarSync = "experimental.calendar_sync" // external calendar export
	FeatureExperimentalPDFReports   = "experimental.pdf_reports"   // printable progress reports
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	// Notification buckets - all on by default
	ff.features[FeatureNotifyDueToday] = &Feature{
		Name:           FeatureNotifyDueToday,
		Description:    "Remind about revisions due today",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyUpcoming] = &Feature{
		Name:           FeatureNotifyUpcoming,
		Description:    "Remind about revisions due within 48 hours",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyLate] = &Feature{
		Name:           FeatureNotifyLate,
		Description:    "Remind about late revisions",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyExpired] = &Feature{
		Name:           FeatureNotifyExpired,
		Description:    "Report revisions that expired",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotifyStreakEvents] = &Feature{
		Name:           FeatureNotifyStreakEvents,
		Description:    "Notify on frozen and broken streaks",
		Enabled:        true,
		RolloutPercent: 50, // tone still being tuned
	}

	// Cache features
	ff.features[FeatureUserCache] = &Feature{
		Name:           FeatureUserCache,
		Description:    "Serve users from Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureNotificationCache] = &Feature{
		Name:           FeatureNotificationCache,
		Description:    "Serve classified notifications from Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	// Experimental features - disabled by default
	ff.features[FeatureExperimentalCalendarSync] = &Feature{
		Name:           FeatureExperimentalCalendarSync,
		Description:    "Export revision dates to an external calendar",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureExperimentalPDFReports] = &Feature{
		Name:           FeatureExperimentalPDFReports,
		Description:    "Printable progress reports",
		Enabled:        false,
		RolloutPercent: 0,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_CACHE_NOTIFICATIONS=false
// Example: FEATURE_NOTIFY_STREAK_EVENTS=75 (75% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "cache.notifications" -> "FEATURE_CACHE_NOTIFICATIONS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
// A nil context evaluates the flag globally.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	// Check user overrides first
	if ctx != nil && ctx.UserID != "" {
		if userOverrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := userOverrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	if !feature.Enabled {
		return false
	}

	// Check time-based activation
	now := time.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	// Check rollout percentage
	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	hash := h.Sum32()

	// Map to 0-99 range
	bucket := int(hash % 100)

	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// NotificationsEnabled checks if any notification bucket is enabled.
func (ff *FeatureFlags) NotificationsEnabled(ctx *FeatureContext) bool {
	return ff.IsEnabled(FeatureNotifyDueToday, ctx) ||
		ff.IsEnabled(FeatureNotifyUpcoming, ctx) ||
		ff.IsEnabled(FeatureNotifyLate, ctx) ||
		ff.IsEnabled(FeatureNotifyExpired, ctx)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
