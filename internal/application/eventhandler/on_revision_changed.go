// Package eventhandler contains domain event handlers.
package eventhandler

import (
	"context"
	"log/slog"

	"github.com/studyhelper/studyhelper-hub/internal/domain/revision"
	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON REVISION CHANGED HANDLER
// Keeps the per-user notification cache honest: any event that changes a
// revision's state drops the user's cached notification list, so the next
// read reclassifies against fresh data.
// ═══════════════════════════════════════════════════════════════════════════

// OnRevisionChangedHandler invalidates cached notifications on revision events.
type OnRevisionChangedHandler struct {
	notificationCache revision.NotificationCache
	logger            *slog.Logger
}

// NewOnRevisionChangedHandler creates a new handler.
func NewOnRevisionChangedHandler(notificationCache revision.NotificationCache, logger *slog.Logger) *OnRevisionChangedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnRevisionChangedHandler{
		notificationCache: notificationCache,
		logger:            logger.With("handler", "on_revision_changed"),
	}
}

// EventTypes returns the event types this handler subscribes to.
func (h *OnRevisionChangedHandler) EventTypes() []shared.EventType {
	return []shared.EventType{
		shared.EventRevisionsScheduled,
		shared.EventRevisionCompleted,
		shared.EventRevisionPostponed,
		shared.EventRevisionLate,
		shared.EventRevisionExpired,
		shared.EventRevisionReset,
	}
}

// Handle implements shared.EventHandler.
func (h *OnRevisionChangedHandler) Handle(event shared.Event) error {
	userID := userIDOf(event)
	if userID == "" {
		h.logger.Warn("revision event without user id", "event_type", event.EventType())
		return nil
	}

	ctx := context.Background()
	if err := h.notificationCache.Invalidate(ctx, userID); err != nil {
		h.logger.Warn("failed to invalidate notification cache",
			"user_id", userID,
			"event_type", event.EventType(),
			"error", err,
		)
		return nil
	}

	h.logger.Debug("notification cache invalidated",
		"user_id", userID,
		"event_type", event.EventType(),
	)
	return nil
}

// userIDOf extracts the owning user from a revision event.
func userIDOf(event shared.Event) string {
	switch e := event.(type) {
	case shared.RevisionsScheduledEvent:
		return e.UserID
	case shared.RevisionCompletedEvent:
		return e.UserID
	case shared.RevisionPostponedEvent:
		return e.UserID
	case shared.RevisionStatusChangedEvent:
		return e.UserID
	default:
		return ""
	}
}
