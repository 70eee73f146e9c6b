package schedule

// Form is the in-progress add/edit state: the draft being typed and, while
// editing, the id of the task the draft came from.
type Form struct {
	Draft     Draft
	EditingID string
	Adding    bool
}

// NewForm returns a closed form with a cleared draft.
func NewForm() *Form {
	return &Form{Draft: EmptyDraft()}
}

// Open reports whether an add or edit is in progress.
func (f *Form) Open() bool {
	return f.Adding || f.EditingID != ""
}

// BeginAdd opens the form for a new task.
func (f *Form) BeginAdd() {
	f.Draft = EmptyDraft()
	f.EditingID = ""
	f.Adding = true
}

// BeginEdit loads task into the draft and remembers its id. The store is not
// touched until Submit.
func (f *Form) BeginEdit(task Task) {
	f.Draft = DraftFrom(task)
	f.EditingID = task.ID
	f.Adding = false
}

// Cancel closes the form and clears the draft.
func (f *Form) Cancel() {
	f.Draft = EmptyDraft()
	f.EditingID = ""
	f.Adding = false
}

// Mutator is the subset of task operations a form submits through.
// *Store satisfies it directly; the planner wraps it with persistence.
type Mutator interface {
	Add(date string, d Draft) (Task, error)
	Update(id string, d Draft) (Task, error)
}

// Submit adds or updates through m depending on the form state. On success the
// form is closed and cleared; on error it stays open with the draft intact.
func (f *Form) Submit(m Mutator, date string) (Task, error) {
	var (
		task Task
		err  error
	)
	if f.EditingID != "" {
		task, err = m.Update(f.EditingID, f.Draft)
	} else {
		task, err = m.Add(date, f.Draft)
	}
	if err != nil {
		return Task{}, err
	}
	f.Cancel()
	return task, nil
}
