package redis

import (
	"context"
	"errors"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
)

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION CACHE
// Caches the classified notification list per user. Revision state changes
// invalidate the entry through the event handler; the TTL catches the
// midnight rollover, when classifications shift without any state change.
// ══════════════════════════════════════════════════════════════════════════════

// cachedNotification is the serialized cache representation of a notification.
type cachedNotification struct {
	Bucket     string    `json:"bucket"`
	RevisionID string    `json:"revision_id"`
	UserID     string    `json:"user_id"`
	DueDate    time.Time `json:"due_date"`
	Status     string    `json:"status"`
}

// NotificationCache implements revision.NotificationCache backed by Redis.
type NotificationCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewNotificationCache creates a notification cache with the default TTL.
func NewNotificationCache(cache *Cache) *NotificationCache {
	return &NotificationCache{
		cache: cache,
		ttl:   TTLNotificationCache,
	}
}

// Get fetches the cached notifications for a user.
// A cache miss returns a nil slice and no error.
func (c *NotificationCache) Get(ctx context.Context, userID string) ([]revision.Notification, error) {
	var cached []cachedNotification
	if err := c.cache.Get(ctx, NotificationsKey(userID), &cached); err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil, nil
		}
		return nil, err
	}

	notifications := make([]revision.Notification, len(cached))
	for i, n := range cached {
		notifications[i] = revision.Notification{
			Bucket:     revision.Bucket(n.Bucket),
			RevisionID: n.RevisionID,
			UserID:     n.UserID,
			DueDate:    n.DueDate,
			Status:     revision.Status(n.Status),
		}
	}
	return notifications, nil
}

// Set stores a user's notifications.
func (c *NotificationCache) Set(ctx context.Context, userID string, notifications []revision.Notification, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	cached := make([]cachedNotification, len(notifications))
	for i, n := range notifications {
		cached[i] = cachedNotification{
			Bucket:     string(n.Bucket),
			RevisionID: n.RevisionID,
			UserID:     n.UserID,
			DueDate:    n.DueDate,
			Status:     string(n.Status),
		}
	}
	return c.cache.Set(ctx, NotificationsKey(userID), cached, ttl)
}

// Invalidate drops the cached notifications for a user.
func (c *NotificationCache) Invalidate(ctx context.Context, userID string) error {
	return c.cache.Delete(ctx, NotificationsKey(userID))
}
