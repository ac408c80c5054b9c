package command

import (
	"context"
	"errors"
	"log/slog"

	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/internal/domain/user"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PREFERENCES COMMAND
// Replaces a user's study preferences. New settings only affect revisions
// planned afterwards; already-planned revisions keep their due dates.
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePreferencesCommand holds the parameters for a preference update.
type UpdatePreferencesCommand struct {
	// UserID - the user whose preferences change.
	UserID string

	// Preferences - the full replacement preference set.
	Preferences user.Preferences
}

// Validate checks command parameters.
func (c *UpdatePreferencesCommand) Validate() error {
	if c.UserID == "" {
		return errors.New("update_preferences: user_id is required")
	}
	return c.Preferences.Validate()
}

// UpdatePreferencesResult holds the outcome of the command.
type UpdatePreferencesResult struct {
	// User - the user after the update.
	User *user.User
}

// UpdatePreferencesHandler handles preference updates.
type UpdatePreferencesHandler struct {
	userRepo  user.Repository
	userCache user.Cache
	logger    *slog.Logger
}

// NewUpdatePreferencesHandler creates a new handler.
// userCache may be nil when caching is disabled.
func NewUpdatePreferencesHandler(userRepo user.Repository, userCache user.Cache, logger *slog.Logger) *UpdatePreferencesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdatePreferencesHandler{
		userRepo:  userRepo,
		userCache: userCache,
		logger:    logger,
	}
}

// Handle executes the command.
func (h *UpdatePreferencesHandler) Handle(ctx context.Context, cmd UpdatePreferencesCommand) (*UpdatePreferencesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("user", "UpdatePreferences", shared.ErrValidation, "invalid command", err)
	}

	usr, err := h.userRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, shared.WrapError("user", "UpdatePreferences", shared.ErrNotFound, "user not found", err)
	}

	if err := usr.UpdatePreferences(cmd.Preferences); err != nil {
		return nil, shared.WrapError("user", "UpdatePreferences", shared.ErrInvalidConfiguration,
			"invalid preferences", err)
	}

	if err := h.userRepo.Update(ctx, usr); err != nil {
		return nil, shared.WrapError("user", "UpdatePreferences", shared.ErrServiceUnavailable,
			"failed to update user", err)
	}

	if h.userCache != nil {
		if err := h.userCache.Invalidate(ctx, usr.ID); err != nil {
			h.logger.Warn("failed to invalidate user cache", "user_id", usr.ID, "error", err)
		}
	}

	h.logger.Info("preferences updated", "user_id", usr.ID)

	return &UpdatePreferencesResult{User: usr}, nil
}
