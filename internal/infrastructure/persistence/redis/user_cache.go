package redis

import (
	"context"
	"errors"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER CACHE
// Caches user profiles and preferences in front of Postgres. Preferences are
// read on every study command, so the cache absorbs the hot path.
// ══════════════════════════════════════════════════════════════════════════════

// cachedUser is the serialized cache representation of a user.
type cachedUser struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Preferences cachedPrefs `json:"preferences"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type cachedPrefs struct {
	WeekStartsOn          string `json:"week_starts_on"`
	ReviewPlan            []int  `json:"review_plan"`
	MaxSlotsPerDay        *int   `json:"max_slots_per_day,omitempty"`
	SlotLateToleranceDays int    `json:"slot_late_tolerance_days"`
	SlotLateMaxDays       int    `json:"slot_late_max_days"`
	ReviewExpireAfterDays *int   `json:"review_expire_after_days,omitempty"`
}

// UserCache implements user.Cache backed by Redis.
type UserCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewUserCache creates a user cache with the default TTL.
func NewUserCache(cache *Cache) *UserCache {
	return &UserCache{
		cache: cache,
		ttl:   TTLUserCache,
	}
}

// Get fetches a user from the cache.
// Returns ErrCacheMiss when the user is not cached.
func (c *UserCache) Get(ctx context.Context, userID string) (*user.User, error) {
	var cached cachedUser
	if err := c.cache.Get(ctx, UserKey(userID), &cached); err != nil {
		return nil, err
	}
	return fromCachedUser(cached), nil
}

// Set stores a user in the cache.
func (c *UserCache) Set(ctx context.Context, u *user.User, ttl time.Duration) error {
	if u == nil {
		return ErrCacheNilValue
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	return c.cache.Set(ctx, UserKey(u.ID), toCachedUser(u), ttl)
}

// Invalidate drops all cached entries for a user, including the
// notification list that depends on their preferences.
func (c *UserCache) Invalidate(ctx context.Context, userID string) error {
	return errors.Join(
		c.cache.Delete(ctx, UserKey(userID)),
		c.cache.Delete(ctx, NotificationsKey(userID)),
	)
}

func toCachedUser(u *user.User) cachedUser {
	return cachedUser{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Preferences: cachedPrefs{
			WeekStartsOn:          string(u.Preferences.WeekStartsOn),
			ReviewPlan:            u.Preferences.ReviewPlan,
			MaxSlotsPerDay:        u.Preferences.MaxSlotsPerDay,
			SlotLateToleranceDays: u.Preferences.SlotLateToleranceDays,
			SlotLateMaxDays:       u.Preferences.SlotLateMaxDays,
			ReviewExpireAfterDays: u.Preferences.ReviewExpireAfterDays,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func fromCachedUser(c cachedUser) *user.User {
	return &user.User{
		ID:          c.ID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Preferences: user.Preferences{
			WeekStartsOn:          user.WeekStart(c.Preferences.WeekStartsOn),
			ReviewPlan:            c.Preferences.ReviewPlan,
			MaxSlotsPerDay:        c.Preferences.MaxSlotsPerDay,
			SlotLateToleranceDays: c.Preferences.SlotLateToleranceDays,
			SlotLateMaxDays:       c.Preferences.SlotLateMaxDays,
			ReviewExpireAfterDays: c.Preferences.ReviewExpireAfterDays,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
