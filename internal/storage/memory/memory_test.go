package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage"
	"github.com/pdxmph/scheduler-tui/internal/storage/storagetest"
)

func TestRegistered(t *testing.T) {
	assert.Contains(t, storage.List(), "memory")

	b, err := storage.Open("memory", storage.Options{})
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Name())
}

func TestUserStateDefaultsAndMerges(t *testing.T) {
	ctx := context.Background()
	b := New()

	state, err := b.LoadUserState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultUserState(), state)

	xp := 140
	require.NoError(t, b.SaveUserState(ctx, "u1", storage.UserStatePatch{XP: &xp}))
	theme := "dark"
	require.NoError(t, b.SaveUserState(ctx, "u1", storage.UserStatePatch{Theme: &theme}))

	state, err = b.LoadUserState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, storage.UserState{XP: 140, Level: 1, Theme: "dark"}, state)
}

func TestTaskBuckets(t *testing.T) {
	ctx := context.Background()
	b := New()
	bucket := []schedule.Task{{ID: "a", Title: "A", StartTime: "09:00", EndTime: "10:00", Date: "2024-06-01"}}

	require.NoError(t, b.SaveTasksForDate(ctx, "u1", "2024-06-01", bucket))
	bucket[0].Title = "mutated"

	loaded, err := b.LoadTasks(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, loaded["2024-06-01"], 1)
	assert.Equal(t, "A", loaded["2024-06-01"][0].Title, "saved bucket is copied")

	other, err := b.LoadTasks(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, b.SaveTasksForDate(ctx, "u1", "2024-06-01", nil))
	loaded, err = b.LoadTasks(ctx, "u1")
	require.NoError(t, err)
	assert.NotContains(t, loaded, "2024-06-01")
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	b := New()

	require.NoError(t, b.CreateAccount(ctx, storage.Account{ID: "u1", Email: "Ada@Example.com", PasswordHash: "h"}))
	err := b.CreateAccount(ctx, storage.Account{ID: "u2", Email: "ada@example.com"})
	assert.ErrorIs(t, err, storage.ErrConflict)

	a, err := b.FindAccount(ctx, " ADA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "u1", a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	_, err = b.FindAccount(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBackendBehaviour(t *testing.T) {
	storagetest.Run(t, New())
}
