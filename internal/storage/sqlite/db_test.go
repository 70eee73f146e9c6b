package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage"
	"github.com/pdxmph/scheduler-tui/internal/storage/storagetest"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scheduler.db")
	require.NoError(t, Initialize(path))

	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMissingDatabase(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler-tui init")
}

func TestInitializeRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.db")
	require.NoError(t, Initialize(path))
	assert.Error(t, Initialize(path))
}

func TestRegisteredFactory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.db")
	require.NoError(t, Initialize(path))

	b, err := storage.Open("sqlite", storage.Options{Path: path})
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "sqlite", b.Name())
}

func TestAccounts(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	require.NoError(t, db.CreateAccount(ctx, storage.Account{ID: "u1", Email: "Ada@Example.com", PasswordHash: "hash"}))
	err := db.CreateAccount(ctx, storage.Account{ID: "u2", Email: "ada@example.com", PasswordHash: "other"})
	assert.ErrorIs(t, err, storage.ErrConflict)

	a, err := db.FindAccount(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", a.ID)
	assert.Equal(t, "ada@example.com", a.Email)
	assert.Equal(t, "hash", a.PasswordHash)

	_, err = db.FindAccount(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUserStateMerge(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	state, err := db.LoadUserState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, storage.DefaultUserState(), state)

	xp, level := 140, 2
	require.NoError(t, db.SaveUserState(ctx, "u1", storage.UserStatePatch{XP: &xp, Level: &level}))
	theme := "dark"
	require.NoError(t, db.SaveUserState(ctx, "u1", storage.UserStatePatch{Theme: &theme}))

	state, err = db.LoadUserState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, storage.UserState{XP: 140, Level: 2, Theme: "dark"}, state)
}

func TestTaskBucketsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	bucket := []schedule.Task{
		{ID: "b", Title: "Late", StartTime: "15:00", EndTime: "16:00", Category: schedule.Work, Date: "2024-06-01"},
		{ID: "a", Title: "Early", StartTime: "08:00", EndTime: "09:00", Category: schedule.Health, Date: "2024-06-01", Completed: true},
	}
	require.NoError(t, db.SaveTasksForDate(ctx, "u1", "2024-06-01", bucket))

	loaded, err := db.LoadTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, bucket, loaded["2024-06-01"], "order and fields survive")

	bucket = bucket[:1]
	require.NoError(t, db.SaveTasksForDate(ctx, "u1", "2024-06-01", bucket))
	loaded, err = db.LoadTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, loaded["2024-06-01"], 1)

	require.NoError(t, db.SaveTasksForDate(ctx, "u1", "2024-06-01", nil))
	loaded, err = db.LoadTasks(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCorruptBucketsAreSkipped(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	good := []schedule.Task{{ID: "a", Title: "A", StartTime: "09:00", EndTime: "10:00", Date: "2024-06-02"}}
	require.NoError(t, db.SaveTasksForDate(ctx, "u1", "2024-06-02", good))

	_, err := db.conn.Exec(`INSERT INTO task_buckets (user_id, date, tasks) VALUES ('u1', '2024-06-01', '{not json')`)
	require.NoError(t, err)
	_, err = db.conn.Exec(`INSERT INTO task_buckets (user_id, date, tasks) VALUES ('u1', '2024-06-03', '[{"id":"x","startTime":"9am","endTime":"10am"}]')`)
	require.NoError(t, err)

	loaded, err := db.LoadTasks(ctx, "u1")
	var corrupt *storage.CorruptDataError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, []string{"2024-06-01", "2024-06-03"}, corrupt.Dates)
	assert.Equal(t, good, loaded["2024-06-02"])
	assert.Len(t, loaded, 1)
}

func TestMigrationAddsThemeColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	conn, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = conn.Exec(`
		CREATE TABLE accounts (id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL, created_at DATETIME);
		CREATE TABLE user_state (user_id TEXT PRIMARY KEY, xp INTEGER NOT NULL DEFAULT 0, level INTEGER NOT NULL DEFAULT 1);
		CREATE TABLE task_buckets (user_id TEXT NOT NULL, date TEXT NOT NULL, tasks TEXT NOT NULL, PRIMARY KEY (user_id, date));
		INSERT INTO user_state (user_id, xp, level) VALUES ('u1', 60, 1);
	`)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	theme := "light"
	require.NoError(t, db.SaveUserState(ctx, "u1", storage.UserStatePatch{Theme: &theme}))
	state, err := db.LoadUserState(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, storage.UserState{XP: 60, Level: 1, Theme: "light"}, state)

	// rerunning is a no-op
	assert.NoError(t, db.RunMigrations())
}

func TestFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.db")
	require.NoError(t, CreateFixturesDatabase(path))

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	a, err := db.FindAccount(ctx, FixtureEmail)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(FixturePassword)))

	buckets, err := db.LoadTasks(ctx, a.ID)
	require.NoError(t, err)
	today := schedule.DateKey(time.Now())
	assert.NotEmpty(t, buckets[today])

	state, err := db.LoadUserState(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, state.XP)
}

func TestBackendBehaviour(t *testing.T) {
	storagetest.Run(t, openTemp(t))
}
