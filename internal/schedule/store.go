package schedule

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pdxmph/scheduler-tui/internal/progression"
)

// Store maps calendar dates to the tasks scheduled on them, in insertion order.
// Every task under a date key carries that date. Store is not safe for
// concurrent use; callers serialise access.
type Store struct {
	buckets map[string][]Task
	dirty   map[string]struct{}
	newID   func() string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		buckets: make(map[string][]Task),
		dirty:   make(map[string]struct{}),
		newID:   uuid.NewString,
	}
}

// Add validates d and appends a new incomplete task to date's bucket.
// d.Date, when set, overrides date.
func (s *Store) Add(date string, d Draft) (Task, error) {
	if err := d.Validate(); err != nil {
		return Task{}, err
	}
	if d.Date != "" {
		date = d.Date
	}
	if _, err := ParseDate(date); err != nil {
		return Task{}, err
	}

	task := Task{
		ID:          s.newID(),
		Title:       d.Title,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Category:    ParseCategory(string(d.Category)),
		Description: d.Description,
		Date:        date,
		Completed:   false,
	}
	s.buckets[date] = append(s.buckets[date], task)
	s.markDirty(date)
	return task, nil
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (Task, bool) {
	date, i := s.locate(id)
	if i < 0 {
		return Task{}, false
	}
	return s.buckets[date][i], true
}

// Update replaces the editable fields of task id with d, keeping its id and
// completion state. When d.Date names another day the task moves to the end
// of that day's bucket.
func (s *Store) Update(id string, d Draft) (Task, error) {
	if err := d.Validate(); err != nil {
		return Task{}, err
	}
	date, i := s.locate(id)
	if i < 0 {
		return Task{}, ErrTaskNotFound
	}

	old := s.buckets[date][i]
	target := date
	if d.Date != "" {
		target = d.Date
	}

	updated := Task{
		ID:          old.ID,
		Title:       d.Title,
		StartTime:   d.StartTime,
		EndTime:     d.EndTime,
		Category:    ParseCategory(string(d.Category)),
		Description: d.Description,
		Date:        target,
		Completed:   old.Completed,
	}

	if target == date {
		s.buckets[date][i] = updated
		s.markDirty(date)
		return updated, nil
	}

	s.removeAt(date, i)
	s.buckets[target] = append(s.buckets[target], updated)
	s.markDirty(date, target)
	return updated, nil
}

// Delete removes task id. Deleting an unknown id is a no-op.
func (s *Store) Delete(id string) bool {
	date, i := s.locate(id)
	if i < 0 {
		return false
	}
	s.removeAt(date, i)
	s.markDirty(date)
	return true
}

// Toggle flips the completion flag of task id and returns the updated task
// together with the XP delta the change earns (+20 or -20).
func (s *Store) Toggle(id string) (Task, int, error) {
	date, i := s.locate(id)
	if i < 0 {
		return Task{}, 0, ErrTaskNotFound
	}

	task := s.buckets[date][i]
	task.Completed = !task.Completed
	s.buckets[date][i] = task
	s.markDirty(date)

	if task.Completed {
		return task, progression.XPPerCompletion, nil
	}
	return task, -progression.XPPerCompletion, nil
}

// TasksFor returns a copy of date's bucket.
func (s *Store) TasksFor(date string) []Task {
	bucket := s.buckets[date]
	out := make([]Task, len(bucket))
	copy(out, bucket)
	return out
}

// TasksForSlot returns the tasks on date whose hour range covers slot
// ("HH:00"). Only hours are compared and the end hour is exclusive: a
// 09:45-10:15 task occupies only 09:00, a 09:30-11:00 task 09:00 and 10:00.
func (s *Store) TasksForSlot(date, slot string) []Task {
	slotHour := Hour(slot)
	var out []Task
	for _, t := range s.buckets[date] {
		if slotHour >= Hour(t.StartTime) && slotHour < Hour(t.EndTime) {
			out = append(out, t)
		}
	}
	return out
}

// IncompleteCount counts the tasks on date that are not completed.
func (s *Store) IncompleteCount(date string) int {
	count := 0
	for _, t := range s.buckets[date] {
		if !t.Completed {
			count++
		}
	}
	return count
}

// CompletedCount counts completed tasks across every day.
func (s *Store) CompletedCount() int {
	count := 0
	for _, bucket := range s.buckets {
		for _, t := range bucket {
			if t.Completed {
				count++
			}
		}
	}
	return count
}

// Dates returns the non-empty date keys in ascending order.
func (s *Store) Dates() []string {
	dates := make([]string, 0, len(s.buckets))
	for date, bucket := range s.buckets {
		if len(bucket) > 0 {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

// Len returns the total number of tasks.
func (s *Store) Len() int {
	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}

// Replace swaps the whole store for buckets, typically after a load.
// Task dates are normalised to their bucket key and empty buckets dropped.
// Dirty tracking is cleared.
func (s *Store) Replace(buckets map[string][]Task) {
	s.buckets = make(map[string][]Task, len(buckets))
	for date, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		copied := make([]Task, len(bucket))
		for i, t := range bucket {
			t.Date = date
			copied[i] = t
		}
		s.buckets[date] = copied
	}
	s.dirty = make(map[string]struct{})
}

// TakeDirty returns the buckets changed since the last call, keyed by date.
// Buckets that became empty are returned as nil slices so the backend can
// delete them.
func (s *Store) TakeDirty() map[string][]Task {
	if len(s.dirty) == 0 {
		return nil
	}
	out := make(map[string][]Task, len(s.dirty))
	for date := range s.dirty {
		if len(s.buckets[date]) == 0 {
			out[date] = nil
			continue
		}
		out[date] = s.TasksFor(date)
	}
	s.dirty = make(map[string]struct{})
	return out
}

// MarkDirty flags dates for the next TakeDirty, e.g. after a failed write.
func (s *Store) MarkDirty(dates ...string) {
	s.markDirty(dates...)
}

func (s *Store) markDirty(dates ...string) {
	for _, d := range dates {
		s.dirty[d] = struct{}{}
	}
}

func (s *Store) locate(id string) (string, int) {
	for date, bucket := range s.buckets {
		for i, t := range bucket {
			if t.ID == id {
				return date, i
			}
		}
	}
	return "", -1
}

func (s *Store) removeAt(date string, i int) {
	bucket := s.buckets[date]
	bucket = append(bucket[:i:i], bucket[i+1:]...)
	if len(bucket) == 0 {
		delete(s.buckets, date)
		return
	}
	s.buckets[date] = bucket
}
