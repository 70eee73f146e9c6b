package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/scheduler-tui/internal/auth"
	"github.com/pdxmph/scheduler-tui/internal/planner"
	"github.com/pdxmph/scheduler-tui/internal/schedule"
)

const (
	authTimeout = 15 * time.Second
	noticeTTL   = 6 * time.Second
	debugXPStep = 10
)

// Auth field indices
const (
	AuthFieldEmail = iota
	AuthFieldPassword
	AuthFieldCount
)

// Form field indices
const (
	FormFieldTitle = iota
	FormFieldStart
	FormFieldEnd
	FormFieldCategory
	FormFieldDate
	FormFieldDescription
	FormFieldCount // Total number of fields
)

// NoticeMsg carries a planner notice into the program. Point
// planner.Options.Notify at program.Send.
type NoticeMsg planner.Notice

type tickMsg time.Time

type authResultMsg struct{ err error }

type loggedOutMsg struct{}

// Model represents the main application state
type Model struct {
	planner *planner.Planner
	auth    auth.Service
	width   int
	height  int
	now     time.Time

	// Auth screen
	authInputs []textinput.Model
	authField  int
	authBusy   bool
	authErr    string

	// Calendar position
	week    schedule.Week
	day     int // index into week.Days()
	slot    int // hour 0-23
	taskIdx int // task within the slot

	// Add/edit overlay
	form       schedule.Form
	formField  int
	formInputs []textinput.Model
	descInput  textarea.Model
	formErr    string

	// Delete confirmation mode
	deleteConfirmMode bool
	deleteTaskID      string

	// Reset confirmation mode
	resetConfirmMode bool

	notice   *planner.Notice
	noticeAt time.Time
	err      error
}

// New creates a new application model
func New(p *planner.Planner, svc auth.Service) *Model {
	now := time.Now()

	authInputs := make([]textinput.Model, AuthFieldCount)
	for i := range authInputs {
		authInputs[i] = textinput.New()
		authInputs[i].Width = 40
		authInputs[i].CharLimit = 120
		authInputs[i].Prompt = "> "
		authInputs[i].PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
		authInputs[i].PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	}
	authInputs[AuthFieldEmail].Placeholder = "you@example.com"
	authInputs[AuthFieldPassword].Placeholder = "password"
	authInputs[AuthFieldPassword].EchoMode = textinput.EchoPassword
	authInputs[AuthFieldPassword].EchoCharacter = '•'
	authInputs[AuthFieldEmail].Focus()

	formInputs := make([]textinput.Model, FormFieldCount)
	for i := range formInputs {
		formInputs[i] = textinput.New()
		formInputs[i].Width = 40
		formInputs[i].CharLimit = 200

		switch i {
		case FormFieldTitle:
			formInputs[i].Placeholder = "Title"
		case FormFieldStart:
			formInputs[i].Placeholder = "HH:MM"
			formInputs[i].CharLimit = 5
		case FormFieldEnd:
			formInputs[i].Placeholder = "HH:MM"
			formInputs[i].CharLimit = 5
		case FormFieldDate:
			formInputs[i].Placeholder = "YYYY-MM-DD"
			formInputs[i].CharLimit = 10
		}
	}

	ta := textarea.New()
	ta.Placeholder = "Description (optional)"
	ta.SetHeight(3)
	ta.SetWidth(50)
	ta.CharLimit = 500
	ta.ShowLineNumbers = false

	return &Model{
		planner:    p,
		auth:       svc,
		now:        now,
		authInputs: authInputs,
		week:       schedule.WeekFrom(now),
		slot:       now.Hour(),
		form:       *schedule.NewForm(),
		formInputs: formInputs,
		descInput:  ta,
	}
}

// Init starts the clock
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.now = time.Time(msg)
		if m.notice != nil && m.now.Sub(m.noticeAt) > noticeTTL {
			m.notice = nil
		}
		return m, tick()

	case NoticeMsg:
		n := planner.Notice(msg)
		m.notice = &n
		m.noticeAt = time.Now()
		return m, nil

	case authResultMsg:
		m.authBusy = false
		if msg.err != nil {
			m.authErr = auth.Message(msg.err)
			return m, nil
		}
		m.authErr = ""
		m.authInputs[AuthFieldPassword].SetValue("")
		for i := range m.authInputs {
			m.authInputs[i].Blur()
		}
		m.goToday()
		return m, nil

	case loggedOutMsg:
		m.closeOverlays()
		m.notice = nil
		m.err = nil
		return m, m.focusAuth(AuthFieldEmail)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		snap := m.planner.Snapshot()
		switch {
		case snap.User == nil:
			return m.updateAuth(msg)
		case m.form.Open():
			return m.updateForm(msg)
		case m.deleteConfirmMode:
			return m.updateDeleteConfirm(msg)
		case m.resetConfirmMode:
			return m.updateResetConfirm(msg)
		}
		return m.updateMain(msg, snap)
	}

	// Forward cursor blinks to whichever input has focus
	return m.updateInputs(msg)
}

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit

	case "tab", "down":
		return m, m.focusAuth((m.authField + 1) % AuthFieldCount)

	case "shift+tab", "up":
		return m, m.focusAuth((m.authField + AuthFieldCount - 1) % AuthFieldCount)

	case "enter":
		if m.authBusy {
			return m, nil
		}
		m.authBusy = true
		m.authErr = ""
		return m, m.authCmd(m.auth.LogIn)

	case "ctrl+s":
		if m.authBusy {
			return m, nil
		}
		m.authBusy = true
		m.authErr = ""
		return m, m.authCmd(m.auth.SignUp)
	}

	var cmd tea.Cmd
	m.authInputs[m.authField], cmd = m.authInputs[m.authField].Update(msg)
	return m, cmd
}

// authCmd runs a sign-in call off the update loop
func (m Model) authCmd(call func(ctx context.Context, email, password string) (*auth.User, error)) tea.Cmd {
	email := m.authInputs[AuthFieldEmail].Value()
	password := m.authInputs[AuthFieldPassword].Value()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()
		_, err := call(ctx, email, password)
		return authResultMsg{err: err}
	}
}

func (m *Model) focusAuth(field int) tea.Cmd {
	for i := range m.authInputs {
		m.authInputs[i].Blur()
	}
	m.authField = field
	return m.authInputs[field].Focus()
}

func (m Model) updateMain(msg tea.KeyMsg, snap planner.Snapshot) (tea.Model, tea.Cmd) {
	m.err = nil

	if !snap.Ready {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "ctrl+r":
			return m, m.reloadCmd()
		case "o":
			return m, m.logOutCmd()
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "h", "left":
		m.moveDay(-1)

	case "l", "right":
		m.moveDay(1)

	case "H":
		m.week = m.week.Prev()
		m.day = 0
		m.taskIdx = 0

	case "L":
		m.week = m.week.Next()
		m.day = 0
		m.taskIdx = 0

	case "t":
		m.goToday()

	case "j", "down":
		if m.slot < 23 {
			m.slot++
			m.taskIdx = 0
		}

	case "k", "up":
		if m.slot > 0 {
			m.slot--
			m.taskIdx = 0
		}

	case "tab":
		if tasks := m.slotTasks(); len(tasks) > 0 {
			m.taskIdx = (m.taskIdx + 1) % len(tasks)
		}

	case "a":
		return m, m.openAdd()

	case "e":
		if task, ok := m.selectedTask(); ok {
			return m, m.openEdit(task)
		}

	case "d":
		if task, ok := m.selectedTask(); ok {
			m.deleteConfirmMode = true
			m.deleteTaskID = task.ID
		}

	case " ", "space", "x":
		if task, ok := m.selectedTask(); ok {
			_, m.err = m.planner.ToggleTask(task.ID)
		}

	case "T":
		m.err = m.planner.SetTheme(nextTheme(snap.Theme))

	case "+", "=":
		m.err = m.planner.AdjustXP(debugXPStep)

	case "-":
		m.err = m.planner.AdjustXP(-debugXPStep)

	case "R":
		m.resetConfirmMode = true

	case "ctrl+r":
		return m, m.reloadCmd()

	case "o":
		return m, m.logOutCmd()
	}

	return m, nil
}

func (m Model) reloadCmd() tea.Cmd {
	p := m.planner
	return func() tea.Msg {
		p.Reload()
		return nil
	}
}

// logOutCmd signs out in the background; the planner flushes first
func (m Model) logOutCmd() tea.Cmd {
	svc := m.auth
	return func() tea.Msg {
		svc.LogOut()
		return loggedOutMsg{}
	}
}

func (m Model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.err = m.planner.DeleteTask(m.deleteTaskID)
		m.taskIdx = 0
	}
	// Any other key cancels
	m.deleteConfirmMode = false
	m.deleteTaskID = ""
	return m, nil
}

func (m Model) updateResetConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.err = m.planner.ResetProgress()
	}
	m.resetConfirmMode = false
	return m, nil
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeOverlays()
		return m, nil

	case "ctrl+s":
		return m.submitForm()

	case "enter":
		// Enter breaks lines in the description
		if m.formField != FormFieldDescription {
			return m.submitForm()
		}

	case "tab":
		return m, m.focusForm((m.formField + 1) % FormFieldCount)

	case "shift+tab":
		return m, m.focusForm((m.formField + FormFieldCount - 1) % FormFieldCount)

	case "down":
		if m.formField != FormFieldDescription {
			return m, m.focusForm((m.formField + 1) % FormFieldCount)
		}

	case "up":
		if m.formField != FormFieldDescription {
			return m, m.focusForm((m.formField + FormFieldCount - 1) % FormFieldCount)
		}

	case "left":
		if m.formField == FormFieldCategory {
			m.form.Draft.Category = m.form.Draft.Category.Prev()
			return m, nil
		}

	case "right":
		if m.formField == FormFieldCategory {
			m.form.Draft.Category = m.form.Draft.Category.Next()
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.formField {
	case FormFieldCategory:
	case FormFieldDescription:
		m.descInput, cmd = m.descInput.Update(msg)
	default:
		m.formInputs[m.formField], cmd = m.formInputs[m.formField].Update(msg)
	}
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	m.syncDraft()
	task, err := m.form.Submit(m.planner.Mutator(), m.selectedDate())
	if err != nil {
		m.formErr = err.Error()
		return m, nil
	}
	m.closeOverlays()
	m.jumpTo(task)
	return m, nil
}

// openAdd starts a new task in the selected slot
func (m *Model) openAdd() tea.Cmd {
	m.form.BeginAdd()
	slot := schedule.TimeSlots()[m.slot]
	m.form.Draft.StartTime = slot
	m.form.Draft.EndTime = schedule.SlotEnd(slot)
	m.form.Draft.Date = m.selectedDate()
	return m.loadForm()
}

func (m *Model) openEdit(task schedule.Task) tea.Cmd {
	m.form.BeginEdit(task)
	return m.loadForm()
}

func (m *Model) loadForm() tea.Cmd {
	d := m.form.Draft
	m.formInputs[FormFieldTitle].SetValue(d.Title)
	m.formInputs[FormFieldStart].SetValue(d.StartTime)
	m.formInputs[FormFieldEnd].SetValue(d.EndTime)
	m.formInputs[FormFieldDate].SetValue(d.Date)
	for i := range m.formInputs {
		m.formInputs[i].CursorEnd()
	}
	m.descInput.SetValue(d.Description)
	m.formErr = ""
	return m.focusForm(FormFieldTitle)
}

// syncDraft copies the inputs into the form draft
func (m *Model) syncDraft() {
	m.form.Draft.Title = m.formInputs[FormFieldTitle].Value()
	m.form.Draft.StartTime = m.formInputs[FormFieldStart].Value()
	m.form.Draft.EndTime = m.formInputs[FormFieldEnd].Value()
	m.form.Draft.Date = m.formInputs[FormFieldDate].Value()
	m.form.Draft.Description = m.descInput.Value()
}

func (m *Model) focusForm(field int) tea.Cmd {
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	m.descInput.Blur()
	m.formField = field

	switch field {
	case FormFieldCategory:
		return nil
	case FormFieldDescription:
		return m.descInput.Focus()
	default:
		return m.formInputs[field].Focus()
	}
}

func (m *Model) closeOverlays() {
	m.form.Cancel()
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	m.descInput.Blur()
	m.formErr = ""
	m.deleteConfirmMode = false
	m.deleteTaskID = ""
	m.resetConfirmMode = false
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.form.Open() && m.formField == FormFieldDescription:
		m.descInput, cmd = m.descInput.Update(msg)
	case m.form.Open() && m.formField != FormFieldCategory:
		m.formInputs[m.formField], cmd = m.formInputs[m.formField].Update(msg)
	case m.authInputs[m.authField].Focused():
		m.authInputs[m.authField], cmd = m.authInputs[m.authField].Update(msg)
	}
	return m, cmd
}

func (m *Model) moveDay(delta int) {
	m.day += delta
	switch {
	case m.day < 0:
		m.week = m.week.Prev()
		m.day = schedule.DaysPerWeek - 1
	case m.day >= schedule.DaysPerWeek:
		m.week = m.week.Next()
		m.day = 0
	}
	m.taskIdx = 0
}

func (m *Model) goToday() {
	m.week = schedule.WeekFrom(m.now)
	m.day = 0
	m.slot = m.now.Hour()
	m.taskIdx = 0
}

// jumpTo selects the day and slot a task landed in
func (m *Model) jumpTo(task schedule.Task) {
	t, err := schedule.ParseDate(task.Date)
	if err != nil {
		return
	}
	if !m.week.Contains(t) {
		m.week = schedule.WeekFrom(t)
	}
	for i, d := range m.week.Days() {
		if schedule.DateKey(d) == task.Date {
			m.day = i
		}
	}
	if h := schedule.Hour(task.StartTime); h >= 0 {
		m.slot = h
	}
	m.taskIdx = 0
	for i, t := range m.slotTasks() {
		if t.ID == task.ID {
			m.taskIdx = i
		}
	}
}

func (m Model) selectedDate() string {
	return schedule.DateKey(m.week.Days()[m.day])
}

func (m Model) slotTasks() []schedule.Task {
	return m.planner.TasksForSlot(m.selectedDate(), schedule.TimeSlots()[m.slot])
}

func (m Model) selectedTask() (schedule.Task, bool) {
	tasks := m.slotTasks()
	if len(tasks) == 0 {
		return schedule.Task{}, false
	}
	idx := m.taskIdx
	if idx >= len(tasks) {
		idx = 0
	}
	return tasks[idx], true
}
