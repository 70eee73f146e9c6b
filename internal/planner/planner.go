// Package planner is the signed-in session: it loads a user's progress and
// tasks when they sign in, applies task and XP changes, tracks level-ups and
// writes changes back in the background.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdxmph/scheduler-tui/internal/auth"
	"github.com/pdxmph/scheduler-tui/internal/logger"
	"github.com/pdxmph/scheduler-tui/internal/metrics"
	"github.com/pdxmph/scheduler-tui/internal/progression"
	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage"
)

// ErrNotReady is returned by mutations while nobody is signed in or the
// signed-in user's data is still loading.
var ErrNotReady = errors.New("planner is not ready")

// DefaultTheme is used until the user picks one.
const DefaultTheme = "dark"

const ioTimeout = 10 * time.Second

// Options tunes a Planner. Zero values pick defaults.
type Options struct {
	// Debounce is the quiet period before changes are written.
	Debounce time.Duration
	// SignalDuration is how long level-up and rank-up indicators show.
	SignalDuration time.Duration
	// Theme is the theme for users without a saved one.
	Theme string
	// Notify receives notices on a dedicated goroutine.
	Notify func(Notice)
}

// Snapshot is a consistent view of the session for rendering.
type Snapshot struct {
	User       *auth.User
	Loading    bool
	Ready      bool
	LoadFailed bool

	Progress progression.Info
	Tier     progression.Tier
	Theme    string

	LevelUp   bool
	LevelUpTo int
	RankUp    bool
	RankUpTo  progression.Tier

	Completed   int
	SavePending bool
}

// Planner owns the session state. All methods are safe for concurrent use.
type Planner struct {
	backend storage.Backend
	auth    auth.Service
	opts    Options

	saver    *Saver
	notifier *notifier
	log      *logrus.Entry

	mu          sync.Mutex
	user        *auth.User
	session     uint64
	loading     bool
	loaded      bool
	loadFailed  bool
	store       *schedule.Store
	xp          int
	level       int
	theme       string
	stateDirty  bool
	tracker     *progression.Tracker
	unsubscribe func()
}

// New creates a planner. Call Start to follow the auth service.
func New(backend storage.Backend, authSvc auth.Service, opts Options) *Planner {
	if opts.Debounce == 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.SignalDuration <= 0 {
		opts.SignalDuration = progression.DefaultSignalDuration
	}
	if opts.Theme == "" {
		opts.Theme = DefaultTheme
	}

	log := logger.For("planner")
	p := &Planner{
		backend:  backend,
		auth:     authSvc,
		opts:     opts,
		log:      log,
		notifier: newNotifier(opts.Notify, log),
		store:    schedule.NewStore(),
		level:    1,
		theme:    opts.Theme,
		tracker:  progression.NewTracker(opts.SignalDuration),
	}
	p.saver = NewSaver(opts.Debounce, p.flush)
	return p
}

// Start subscribes to the auth service. If a user is already signed in their
// data is loaded before Start returns.
func (p *Planner) Start() {
	unsubscribe := p.auth.Subscribe(p.onAuthChange)
	p.mu.Lock()
	p.unsubscribe = unsubscribe
	p.mu.Unlock()
}

// Close stops following auth, writes pending changes and stops delivering
// notices.
func (p *Planner) Close() error {
	p.mu.Lock()
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}

	err := p.saver.Flush()
	p.tracker.Reset()
	p.notifier.close()
	return err
}

// Reload retries loading the signed-in user's data after a failed load.
func (p *Planner) Reload() {
	p.mu.Lock()
	user := p.user
	p.mu.Unlock()
	if user != nil {
		p.load(user)
	}
}

func (p *Planner) onAuthChange(user *auth.User) {
	p.mu.Lock()
	current := p.user
	p.mu.Unlock()

	switch {
	case user == nil:
		if current != nil {
			p.signOut()
		}
	case current != nil && current.ID == user.ID:
		// already signed in as this user
	default:
		if current != nil {
			p.signOut()
		}
		p.load(user)
	}
}

// load fetches user state and tasks. Mutations are refused until it ends.
func (p *Planner) load(user *auth.User) {
	p.mu.Lock()
	p.session++
	session := p.session
	p.user = user
	p.loading = true
	p.loaded = false
	p.loadFailed = false
	p.mu.Unlock()

	log := p.log.WithField("user_id", user.ID)
	log.Info("loading session")

	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	state, err := p.backend.LoadUserState(ctx, user.ID)
	if err != nil {
		p.failLoad(session, log, err)
		return
	}

	buckets, err := p.backend.LoadTasks(ctx, user.ID)
	var corrupt *storage.CorruptDataError
	switch {
	case errors.As(err, &corrupt):
		log.WithField("dates", corrupt.Dates).Warn("skipped corrupt task buckets")
		p.notifier.send(Notice{
			Kind:  Warning,
			Title: "Some tasks could not be loaded",
			Body:  fmt.Sprintf("Unreadable data for %s was skipped.", strings.Join(corrupt.Dates, ", ")),
		})
	case err != nil:
		p.failLoad(session, log, err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != session {
		// signed out or switched user while loading
		return
	}

	p.store = schedule.NewStore()
	p.store.Replace(buckets)
	p.xp = progression.ApplyDelta(state.XP, 0)
	p.level = progression.LevelFromXP(p.xp)
	// a stored level that disagrees with XP is rewritten on the next save
	p.stateDirty = state.Level != p.level
	p.theme = state.Theme
	if p.theme == "" {
		p.theme = p.opts.Theme
	}

	p.tracker.Reset()
	p.tracker.Observe(p.level)

	p.loading = false
	p.loaded = true
	p.updateGaugesLocked()

	log.WithFields(logrus.Fields{
		"xp":    p.xp,
		"level": p.level,
		"tasks": p.store.Len(),
	}).Info("session loaded")
}

func (p *Planner) failLoad(session uint64, log *logrus.Entry, err error) {
	log.WithError(err).Error("loading session failed")

	p.mu.Lock()
	if p.session == session {
		p.loading = false
		p.loadFailed = true
	}
	p.mu.Unlock()

	p.notifier.send(Notice{
		Kind:  Error,
		Title: "Could not load your schedule",
		Body:  auth.Message(err),
	})
}

// signOut writes what the previous user left pending, then resets.
func (p *Planner) signOut() {
	if err := p.saver.Flush(); err != nil {
		p.log.WithError(err).Warn("final flush before sign-out failed")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.log.WithField("user_id", userID(p.user)).Info("session closed")
	p.session++
	p.user = nil
	p.loading = false
	p.loaded = false
	p.loadFailed = false
	p.store = schedule.NewStore()
	p.xp = 0
	p.level = 1
	p.theme = p.opts.Theme
	p.stateDirty = false
	p.tracker.Reset()
	p.updateGaugesLocked()
}

func (p *Planner) readyLocked() error {
	if p.user == nil || p.loading || !p.loaded {
		return ErrNotReady
	}
	return nil
}

// AddTask adds a task on date (or on d.Date when set).
func (p *Planner) AddTask(date string, d schedule.Draft) (schedule.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.readyLocked(); err != nil {
		return schedule.Task{}, err
	}
	task, err := p.store.Add(date, d)
	if err != nil {
		p.rejectLocked(err)
		return schedule.Task{}, err
	}

	metrics.TaskOps.WithLabelValues("add").Inc()
	p.log.WithFields(logrus.Fields{"task_id": task.ID, "date": task.Date}).Debug("task added")
	p.changedLocked()
	return task, nil
}

// UpdateTask replaces the editable fields of task id.
func (p *Planner) UpdateTask(id string, d schedule.Draft) (schedule.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.readyLocked(); err != nil {
		return schedule.Task{}, err
	}
	task, err := p.store.Update(id, d)
	if err != nil {
		p.rejectLocked(err)
		return schedule.Task{}, err
	}

	metrics.TaskOps.WithLabelValues("update").Inc()
	p.log.WithFields(logrus.Fields{"task_id": task.ID, "date": task.Date}).Debug("task updated")
	p.changedLocked()
	return task, nil
}

// DeleteTask removes task id. Unknown ids are ignored.
func (p *Planner) DeleteTask(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.readyLocked(); err != nil {
		return err
	}
	if !p.store.Delete(id) {
		return nil
	}

	metrics.TaskOps.WithLabelValues("delete").Inc()
	p.log.WithField("task_id", id).Debug("task deleted")
	p.changedLocked()
	return nil
}

// ToggleTask flips completion of task id and adjusts XP by the completion
// reward.
func (p *Planner) ToggleTask(id string) (schedule.Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.readyLocked(); err != nil {
		return schedule.Task{}, err
	}
	task, delta, err := p.store.Toggle(id)
	if err != nil {
		return schedule.Task{}, err
	}

	p.xp = progression.ApplyDelta(p.xp, delta)
	p.stateDirty = true

	metrics.TaskOps.WithLabelValues("toggle").Inc()
	p.log.WithFields(logrus.Fields{"task_id": id, "completed": task.Completed, "xp": p.xp}).Debug("task toggled")
	p.changedLocked()
	return task, nil
}

// AdjustXP adds delta to XP, flooring at zero. It backs the debug keys.
func (p *Planner) AdjustXP(delta int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.readyLocked(); err != nil {
		return err
	}
	p.xp = progression.ApplyDelta(p.xp, delta)
	p.stateDirty = true
	p.changedLocked()
	return nil
}

// ResetProgress sets XP back to zero and level to one without celebrating
// or mourning.
func (p *Planner) ResetProgress() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.readyLocked(); err != nil {
		return err
	}
	p.xp = 0
	p.level = 1
	p.stateDirty = true
	p.tracker.Reset()
	p.tracker.Observe(1)
	p.changedLocked()
	return nil
}

// SetTheme records the user's theme choice.
func (p *Planner) SetTheme(theme string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.readyLocked(); err != nil {
		return err
	}
	if theme == p.theme {
		return nil
	}
	p.theme = theme
	p.stateDirty = true
	p.saver.Schedule()
	return nil
}

// changedLocked recomputes the level, feeds the tracker and schedules a save.
func (p *Planner) changedLocked() {
	p.level = progression.LevelFromXP(p.xp)
	levelUp, rankUp := p.tracker.Observe(p.level)
	if levelUp {
		metrics.LevelUps.WithLabelValues("level").Inc()
		p.log.WithField("level", p.level).Info("level up")
	}
	if rankUp {
		metrics.LevelUps.WithLabelValues("rank").Inc()
		p.log.WithField("tier", progression.TierForLevel(p.level).Name).Info("rank up")
	}
	p.updateGaugesLocked()
	p.saver.Schedule()
}

func (p *Planner) rejectLocked(err error) {
	var verr *schedule.ValidationError
	if errors.As(err, &verr) {
		p.notifier.send(Notice{Kind: Warning, Title: verr.Title, Body: verr.Message})
		return
	}
	p.notifier.send(Notice{Kind: Error, Title: "Could not save task", Body: err.Error()})
}

func (p *Planner) updateGaugesLocked() {
	metrics.XP.Set(float64(p.xp))
	metrics.Level.Set(float64(p.level))
}

// Flush writes pending changes now.
func (p *Planner) Flush() error {
	return p.saver.Flush()
}

// flush writes dirty buckets and the user state. Failed writes are marked
// dirty again and retried by the next flush.
func (p *Planner) flush() error {
	p.mu.Lock()
	user := p.user
	if user == nil || !p.loaded {
		p.mu.Unlock()
		return nil
	}
	store := p.store
	dirty := store.TakeDirty()
	var patch *storage.UserStatePatch
	if p.stateDirty {
		xp, level, theme := p.xp, p.level, p.theme
		patch = &storage.UserStatePatch{XP: &xp, Level: &level, Theme: &theme}
		p.stateDirty = false
	}
	p.mu.Unlock()

	if len(dirty) == 0 && patch == nil {
		return nil
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
	defer cancel()

	dates := make([]string, 0, len(dirty))
	for date := range dirty {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	var (
		failed      []string
		stateFailed bool
		errs        []error
	)
	for _, date := range dates {
		if err := p.backend.SaveTasksForDate(ctx, user.ID, date, dirty[date]); err != nil {
			failed = append(failed, date)
			errs = append(errs, fmt.Errorf("saving %s: %w", date, err))
		}
	}
	if patch != nil {
		if err := p.backend.SaveUserState(ctx, user.ID, *patch); err != nil {
			stateFailed = true
			errs = append(errs, fmt.Errorf("saving progress: %w", err))
		}
	}
	metrics.FlushDuration.Observe(time.Since(start).Seconds())

	log := p.log.WithFields(logrus.Fields{"user_id": user.ID, "dates": len(dates), "state": patch != nil})
	if len(errs) == 0 {
		metrics.Flushes.WithLabelValues("ok").Inc()
		log.Debug("flushed")
		return nil
	}

	err := errors.Join(errs...)
	metrics.Flushes.WithLabelValues("error").Inc()
	log.WithError(err).Error("flush failed")

	p.mu.Lock()
	if p.store == store {
		store.MarkDirty(failed...)
		if stateFailed {
			p.stateDirty = true
		}
	}
	p.mu.Unlock()

	p.notifier.send(Notice{
		Kind:  Error,
		Title: "Changes not saved",
		Body:  "Saving failed; it will be retried on your next change.",
	})
	return err
}

// Snapshot returns the current session view.
func (p *Planner) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		User:        p.user,
		Loading:     p.loading,
		Ready:       p.readyLocked() == nil,
		LoadFailed:  p.loadFailed,
		Progress:    progression.Progress(p.xp, p.level),
		Tier:        progression.TierForLevel(p.level),
		Theme:       p.theme,
		Completed:   p.store.CompletedCount(),
		SavePending: p.saver.Pending(),
	}
	s.LevelUp, s.LevelUpTo = p.tracker.LevelUp()
	s.RankUp, s.RankUpTo = p.tracker.RankUp()
	return s
}

// TasksFor returns the tasks on date in insertion order.
func (p *Planner) TasksFor(date string) []schedule.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.TasksFor(date)
}

// TasksForSlot returns the tasks on date covering the hourly slot.
func (p *Planner) TasksForSlot(date, slot string) []schedule.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.TasksForSlot(date, slot)
}

// IncompleteCount counts the open tasks on date.
func (p *Planner) IncompleteCount(date string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.IncompleteCount(date)
}

// Task looks a task up by id.
func (p *Planner) Task(id string) (schedule.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Get(id)
}

// Dates lists the days that have tasks.
func (p *Planner) Dates() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Dates()
}

func userID(u *auth.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

// Mutator adapts the planner for schedule.Form submission.
func (p *Planner) Mutator() schedule.Mutator {
	return mutator{p}
}

type mutator struct{ p *Planner }

func (m mutator) Add(date string, d schedule.Draft) (schedule.Task, error) {
	return m.p.AddTask(date, d)
}

func (m mutator) Update(id string, d schedule.Draft) (schedule.Task, error) {
	return m.p.UpdateTask(id, d)
}
