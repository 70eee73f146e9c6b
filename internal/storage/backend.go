package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdxmph/scheduler-tui/internal/schedule"
)

// Storage failures
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("already exists")
	ErrUnavailable = errors.New("storage unavailable")
)

// CorruptDataError reports task buckets that could not be decoded. Loads
// that return it still return every bucket that did decode.
type CorruptDataError struct {
	Dates []string
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt task data for %s", strings.Join(e.Dates, ", "))
}

// UserState is the per-user progression record.
type UserState struct {
	XP    int    `json:"xp" bson:"xp"`
	Level int    `json:"level" bson:"level"`
	Theme string `json:"theme,omitempty" bson:"theme,omitempty"`
}

// DefaultUserState is what a user without a stored record starts with.
func DefaultUserState() UserState {
	return UserState{XP: 0, Level: 1}
}

// UserStatePatch is a merge-style update; nil fields are left untouched.
type UserStatePatch struct {
	XP    *int
	Level *int
	Theme *string
}

// Apply merges p into s.
func (s UserState) Apply(p UserStatePatch) UserState {
	if p.XP != nil {
		s.XP = *p.XP
	}
	if p.Level != nil {
		s.Level = *p.Level
	}
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	return s
}

// Account is a stored login.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AccountStore keeps login records. Emails are compared case-insensitively.
type AccountStore interface {
	// CreateAccount stores a new account, returning ErrConflict when the
	// email is already registered.
	CreateAccount(ctx context.Context, a Account) error
	// FindAccount looks an account up by email, returning ErrNotFound when
	// there is none.
	FindAccount(ctx context.Context, email string) (Account, error)
}

// Backend defines the interface every persistence backend implements.
type Backend interface {
	AccountStore

	// Name returns the registry name of the backend (e.g. "sqlite").
	Name() string

	// LoadUserState returns the user's record, or DefaultUserState when none
	// is stored.
	LoadUserState(ctx context.Context, userID string) (UserState, error)

	// LoadTasks returns every task bucket of the user keyed by date. A
	// *CorruptDataError is returned alongside the buckets that decoded.
	LoadTasks(ctx context.Context, userID string) (map[string][]schedule.Task, error)

	// SaveUserState merges patch into the user's record, creating it if needed.
	SaveUserState(ctx context.Context, userID string, patch UserStatePatch) error

	// SaveTasksForDate replaces the bucket for date. An empty list deletes it.
	SaveTasksForDate(ctx context.Context, userID, date string, tasks []schedule.Task) error

	Close() error
}

// NormalizeEmail is the key accounts are stored under.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EncodeBucket serialises a task bucket to the JSON document layout shared
// by the sql backends.
func EncodeBucket(tasks []schedule.Task) ([]byte, error) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return nil, fmt.Errorf("encoding tasks: %w", err)
	}
	return data, nil
}

// DecodeBucket parses a bucket document and checks each task is usable.
func DecodeBucket(date string, data []byte) ([]schedule.Task, error) {
	var tasks []schedule.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("decoding tasks for %s: %w", date, err)
	}
	for i, t := range tasks {
		if err := CheckTask(t); err != nil {
			return nil, fmt.Errorf("task %d on %s: %w", i, date, err)
		}
	}
	return tasks, nil
}

// CheckTask rejects stored tasks that could not have been created through
// the store.
func CheckTask(t schedule.Task) error {
	if t.ID == "" {
		return errors.New("missing id")
	}
	if !schedule.ValidClock(t.StartTime) || !schedule.ValidClock(t.EndTime) {
		return fmt.Errorf("bad time range %q-%q", t.StartTime, t.EndTime)
	}
	return nil
}
