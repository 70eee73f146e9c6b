// Package postgres stores task buckets as jsonb documents in a remote
// PostgreSQL database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/pdxmph/scheduler-tui/internal/logger"
	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage"
)

func init() {
	storage.Register("postgres", func(opts storage.Options) (storage.Backend, error) {
		return New(opts.DSN)
	})
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_state (
    user_id TEXT PRIMARY KEY,
    xp INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    theme TEXT,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS task_buckets (
    user_id TEXT NOT NULL,
    date TEXT NOT NULL,
    tasks JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, date)
);
`

const uniqueViolation = "23505"

// Repository is a postgres storage.Backend.
type Repository struct {
	db  *sql.DB
	log *logrus.Entry
}

// New connects to dsn and ensures the schema exists.
func New(dsn string) (*Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is not configured", storage.ErrUnavailable)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %v", storage.ErrUnavailable, err)
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Repository{db: db, log: logger.For("postgres")}, nil
}

func (r *Repository) Name() string { return "postgres" }

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) CreateAccount(ctx context.Context, a storage.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	query := `INSERT INTO accounts (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, a.ID, storage.NormalizeEmail(a.Email), a.PasswordHash, a.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (r *Repository) FindAccount(ctx context.Context, email string) (storage.Account, error) {
	query := `SELECT id, email, password_hash, created_at FROM accounts WHERE email = $1`
	var a storage.Account
	err := r.db.QueryRowContext(ctx, query, storage.NormalizeEmail(email)).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Account{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Account{}, fmt.Errorf("querying account: %w", err)
	}
	return a, nil
}

func (r *Repository) LoadUserState(ctx context.Context, userID string) (storage.UserState, error) {
	query := `SELECT xp, level, COALESCE(theme, '') FROM user_state WHERE user_id = $1`
	var s storage.UserState
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.XP, &s.Level, &s.Theme)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.DefaultUserState(), nil
	}
	if err != nil {
		return storage.UserState{}, fmt.Errorf("querying user state: %w", err)
	}
	return s, nil
}

// SaveUserState upserts in one statement; NULL parameters keep the stored
// column.
func (r *Repository) SaveUserState(ctx context.Context, userID string, patch storage.UserStatePatch) error {
	query := `
		INSERT INTO user_state (user_id, xp, level, theme, updated_at)
		VALUES ($1, COALESCE($2, 0), COALESCE($3, 1), $4, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
		    xp = COALESCE($2, user_state.xp),
		    level = COALESCE($3, user_state.level),
		    theme = COALESCE($4, user_state.theme),
		    updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, query, userID, nullInt(patch.XP), nullInt(patch.Level), nullText(patch.Theme))
	if err != nil {
		return fmt.Errorf("upserting user state: %w", err)
	}
	return nil
}

func (r *Repository) LoadTasks(ctx context.Context, userID string) (map[string][]schedule.Task, error) {
	query := `SELECT date, tasks FROM task_buckets WHERE user_id = $1 ORDER BY date`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying task buckets: %w", err)
	}
	defer rows.Close()

	buckets := make(map[string][]schedule.Task)
	var corrupt []string
	for rows.Next() {
		var (
			date string
			raw  []byte
		)
		if err := rows.Scan(&date, &raw); err != nil {
			return nil, fmt.Errorf("scanning task bucket: %w", err)
		}
		tasks, err := storage.DecodeBucket(date, raw)
		if err != nil {
			r.log.WithError(err).WithField("date", date).Warn("skipping corrupt bucket")
			corrupt = append(corrupt, date)
			continue
		}
		buckets[date] = tasks
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(corrupt) > 0 {
		sort.Strings(corrupt)
		return buckets, &storage.CorruptDataError{Dates: corrupt}
	}
	return buckets, nil
}

func (r *Repository) SaveTasksForDate(ctx context.Context, userID, date string, tasks []schedule.Task) error {
	if len(tasks) == 0 {
		_, err := r.db.ExecContext(ctx, `DELETE FROM task_buckets WHERE user_id = $1 AND date = $2`, userID, date)
		if err != nil {
			return fmt.Errorf("deleting task bucket: %w", err)
		}
		return nil
	}

	raw, err := storage.EncodeBucket(tasks)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO task_buckets (user_id, date, tasks, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (user_id, date) DO UPDATE SET tasks = EXCLUDED.tasks, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, userID, date, string(raw)); err != nil {
		return fmt.Errorf("upserting task bucket: %w", err)
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullText(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
