// Package memory keeps everything in process maps. It backs tests and
// throwaway demo sessions.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage"
)

func init() {
	storage.Register("memory", func(storage.Options) (storage.Backend, error) {
		return New(), nil
	})
}

// Backend is an in-memory storage.Backend.
type Backend struct {
	mu       sync.RWMutex
	accounts map[string]storage.Account
	states   map[string]storage.UserState
	tasks    map[string]map[string][]schedule.Task // userID -> date -> bucket
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		accounts: make(map[string]storage.Account),
		states:   make(map[string]storage.UserState),
		tasks:    make(map[string]map[string][]schedule.Task),
	}
}

func (b *Backend) Name() string { return "memory" }

func (b *Backend) CreateAccount(_ context.Context, a storage.Account) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := storage.NormalizeEmail(a.Email)
	if _, exists := b.accounts[key]; exists {
		return storage.ErrConflict
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.Email = key
	b.accounts[key] = a
	return nil
}

func (b *Backend) FindAccount(_ context.Context, email string) (storage.Account, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	a, ok := b.accounts[storage.NormalizeEmail(email)]
	if !ok {
		return storage.Account{}, storage.ErrNotFound
	}
	return a, nil
}

func (b *Backend) LoadUserState(_ context.Context, userID string) (storage.UserState, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	state, ok := b.states[userID]
	if !ok {
		return storage.DefaultUserState(), nil
	}
	return state, nil
}

func (b *Backend) LoadTasks(_ context.Context, userID string) (map[string][]schedule.Task, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string][]schedule.Task, len(b.tasks[userID]))
	for date, bucket := range b.tasks[userID] {
		out[date] = cloneTasks(bucket)
	}
	return out, nil
}

func (b *Backend) SaveUserState(_ context.Context, userID string, patch storage.UserStatePatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.states[userID]
	if !ok {
		state = storage.DefaultUserState()
	}
	b.states[userID] = state.Apply(patch)
	return nil
}

func (b *Backend) SaveTasksForDate(_ context.Context, userID, date string, tasks []schedule.Task) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(tasks) == 0 {
		delete(b.tasks[userID], date)
		return nil
	}
	if b.tasks[userID] == nil {
		b.tasks[userID] = make(map[string][]schedule.Task)
	}
	b.tasks[userID][date] = cloneTasks(tasks)
	return nil
}

func (b *Backend) Close() error { return nil }

func cloneTasks(tasks []schedule.Task) []schedule.Task {
	out := make([]schedule.Task, len(tasks))
	copy(out, tasks)
	return out
}
