// Package sqlite stores accounts, user state and task buckets in a local
// SQLite file. It is the default backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/pdxmph/scheduler-tui/internal/logger"
	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage"
)

func init() {
	storage.Register("sqlite", func(opts storage.Options) (storage.Backend, error) {
		return Open(opts.Path)
	})
}

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	log  *logrus.Entry
}

// Open creates a new database connection
func Open(dbPath string) (*DB, error) {
	// Check if DB exists
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found at %s\nRun 'scheduler-tui init' to create it", dbPath)
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer; the debounced saver and the CLI never need more
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, log: logger.For("sqlite")}

	// Run any pending migrations
	if err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// Name implements storage.Backend
func (db *DB) Name() string { return "sqlite" }

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateAccount inserts a login row
func (db *DB) CreateAccount(ctx context.Context, a storage.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := db.conn.ExecContext(ctx, query, a.ID, storage.NormalizeEmail(a.Email), a.PasswordHash, a.CreatedAt)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// FindAccount retrieves a login row by email
func (db *DB) FindAccount(ctx context.Context, email string) (storage.Account, error) {
	query := `
		SELECT id, email, password_hash, created_at
		FROM accounts
		WHERE email = ?
	`
	var a storage.Account
	err := db.conn.QueryRowContext(ctx, query, storage.NormalizeEmail(email)).Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Account{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Account{}, fmt.Errorf("querying account: %w", err)
	}
	return a, nil
}

// LoadUserState returns the user's progression row or the defaults
func (db *DB) LoadUserState(ctx context.Context, userID string) (storage.UserState, error) {
	return loadState(ctx, db.conn, userID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadState(ctx context.Context, q queryRower, userID string) (storage.UserState, error) {
	query := `SELECT xp, level, theme FROM user_state WHERE user_id = ?`

	state := storage.DefaultUserState()
	var theme sql.NullString
	err := q.QueryRowContext(ctx, query, userID).Scan(&state.XP, &state.Level, &theme)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.DefaultUserState(), nil
	}
	if err != nil {
		return storage.UserState{}, fmt.Errorf("querying user state: %w", err)
	}
	state.Theme = theme.String
	return state, nil
}

// SaveUserState merges patch into the user's row
func (db *DB) SaveUserState(ctx context.Context, userID string, patch storage.UserStatePatch) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := loadState(ctx, tx, userID)
	if err != nil {
		return err
	}
	next := current.Apply(patch)

	query := `
		INSERT INTO user_state (user_id, xp, level, theme, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
		    xp = excluded.xp,
		    level = excluded.level,
		    theme = excluded.theme,
		    updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, query, userID, next.XP, next.Level, nullString(next.Theme)); err != nil {
		return fmt.Errorf("upserting user state: %w", err)
	}

	return tx.Commit()
}

// LoadTasks returns every bucket of the user. Buckets that fail to decode are
// reported through *storage.CorruptDataError and left out.
func (db *DB) LoadTasks(ctx context.Context, userID string) (map[string][]schedule.Task, error) {
	query := `
		SELECT date, tasks
		FROM task_buckets
		WHERE user_id = ?
		ORDER BY date
	`

	rows, err := db.conn.QueryContext(ctx, query, userID)
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
			db.log.WithError(err).WithField("date", date).Warn("skipping corrupt bucket")
			corrupt = append(corrupt, date)
			continue
		}
		buckets[date] = tasks
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading task buckets: %w", err)
	}

	if len(corrupt) > 0 {
		sort.Strings(corrupt)
		return buckets, &storage.CorruptDataError{Dates: corrupt}
	}
	return buckets, nil
}

// SaveTasksForDate replaces one bucket; an empty list deletes the row
func (db *DB) SaveTasksForDate(ctx context.Context, userID, date string, tasks []schedule.Task) error {
	if len(tasks) == 0 {
		_, err := db.conn.ExecContext(ctx, `DELETE FROM task_buckets WHERE user_id = ? AND date = ?`, userID, date)
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
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, date) DO UPDATE SET
		    tasks = excluded.tasks,
		    updated_at = CURRENT_TIMESTAMP
	`
	if _, err := db.conn.ExecContext(ctx, query, userID, date, string(raw)); err != nil {
		return fmt.Errorf("upserting task bucket: %w", err)
	}
	return nil
}

// nullString maps "" to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
