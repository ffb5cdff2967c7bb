package engine

import (
	"context"
	"log/slog"

	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

// RefreshProfile pulls GitHub and LeetCode data for one user. NOT_FOUND with
// "No data to update" is returned when neither service had anything.
func (e *Engine) RefreshProfile(ctx context.Context, userID string) (_ *models.User, err error) {
	defer e.observe("refresh_profile", e.clock.Now(), &err)

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	update := e.fetchProfile(ctx, user)
	if update.IsEmpty() {
		return nil, utils.NewAppError(utils.ErrNotFound, "No data to update", nil)
	}
	return e.store.UpdateUserProfile(ctx, user.ID, update)
}

// RefreshAllProfiles refreshes every user and reports how many were updated.
// Individual failures are logged and skipped.
func (e *Engine) RefreshAllProfiles(ctx context.Context) (_ int, err error) {
	defer e.observe("refresh_all_profiles", e.clock.Now(), &err)

	users, err := e.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, utils.NewAppError(utils.ErrNotFound, "No users found to update.", nil)
	}

	updated := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		update := e.fetchProfile(ctx, user)
		if update.IsEmpty() {
			continue
		}
		if _, err := e.store.UpdateUserProfile(ctx, user.ID, update); err != nil {
			slog.Warn("profile update failed", "user_id", user.ID, "err", err)
			continue
		}
		updated++
	}
	slog.Info("profiles refreshed", "users", len(users), "updated", updated)
	return updated, nil
}

func (e *Engine) fetchProfile(ctx context.Context, user *models.User) models.ProfileUpdate {
	if e.profiles == nil || (user.Github == "" && user.Leetcode == "") {
		return models.ProfileUpdate{}
	}
	return e.profiles.Fetch(ctx, user.Github, user.Leetcode)
}
