// Package storagetest holds behaviour checks every storage.Backend must pass.
package storagetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage"
)

// Run exercises b. User ids and emails are random so shared remote
// databases can be reused between runs.
func Run(t *testing.T, b storage.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("accounts", func(t *testing.T) {
		email := uuid.NewString() + "@Example.com"
		id := uuid.NewString()

		require.NoError(t, b.CreateAccount(ctx, storage.Account{ID: id, Email: email, PasswordHash: "hash"}))
		err := b.CreateAccount(ctx, storage.Account{ID: uuid.NewString(), Email: email, PasswordHash: "x"})
		assert.ErrorIs(t, err, storage.ErrConflict)

		a, err := b.FindAccount(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, id, a.ID)
		assert.Equal(t, storage.NormalizeEmail(email), a.Email)

		_, err = b.FindAccount(ctx, uuid.NewString()+"@example.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("user state", func(t *testing.T) {
		user := uuid.NewString()

		state, err := b.LoadUserState(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, storage.DefaultUserState(), state)

		xp, level := 140, 2
		require.NoError(t, b.SaveUserState(ctx, user, storage.UserStatePatch{XP: &xp, Level: &level}))
		theme := "dark"
		require.NoError(t, b.SaveUserState(ctx, user, storage.UserStatePatch{Theme: &theme}))

		state, err = b.LoadUserState(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, storage.UserState{XP: 140, Level: 2, Theme: "dark"}, state)
	})

	t.Run("task buckets", func(t *testing.T) {
		user := uuid.NewString()
		bucket := []schedule.Task{
			{ID: "b", Title: "Late", StartTime: "15:00", EndTime: "16:00", Category: schedule.Work, Date: "2024-06-01"},
			{ID: "a", Title: "Early", StartTime: "08:00", EndTime: "09:00", Category: schedule.Health, Date: "2024-06-01", Completed: true},
		}
		require.NoError(t, b.SaveTasksForDate(ctx, user, "2024-06-01", bucket))
		require.NoError(t, b.SaveTasksForDate(ctx, user, "2024-06-02", bucket[:1]))

		loaded, err := b.LoadTasks(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, bucket, loaded["2024-06-01"])
		assert.Len(t, loaded["2024-06-02"], 1)

		require.NoError(t, b.SaveTasksForDate(ctx, user, "2024-06-01", nil))
		loaded, err = b.LoadTasks(ctx, user)
		require.NoError(t, err)
		assert.NotContains(t, loaded, "2024-06-01")
		assert.Contains(t, loaded, "2024-06-02")

		other, err := b.LoadTasks(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}
