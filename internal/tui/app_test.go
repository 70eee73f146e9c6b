package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pdxmph/scheduler-tui/internal/auth"
	"github.com/pdxmph/scheduler-tui/internal/planner"
	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage/memory"
)

func newTestModel(t *testing.T) (Model, *planner.Planner, *auth.Local) {
	t.Helper()
	backend := memory.New()
	svc := auth.NewLocal(backend).WithCost(bcrypt.MinCost)
	p := planner.New(backend, svc, planner.Options{Debounce: time.Hour})
	p.Start()
	t.Cleanup(func() { p.Close() })

	next, _ := New(p, svc).Update(tea.WindowSizeMsg{Width: 140, Height: 45})
	return next.(Model), p, svc
}

func signedIn(t *testing.T) (Model, *planner.Planner) {
	t.Helper()
	m, p, svc := newTestModel(t)
	_, err := svc.SignUp(context.Background(), "ada@example.com", "secret-pass")
	require.NoError(t, err)
	require.True(t, p.Snapshot().Ready)
	return m, p
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

// run executes cmd and feeds its message back, as the program would
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestAuthScreenLogsIn(t *testing.T) {
	m, p, svc := newTestModel(t)
	_, err := svc.SignUp(context.Background(), "ada@example.com", "secret-pass")
	require.NoError(t, err)
	svc.LogOut()

	assert.Contains(t, m.View(), "Sign in to plan your day")

	m, _ = press(m, "ada@example.com", "tab", "secret-pass")
	m, cmd := press(m, "enter")
	assert.True(t, m.authBusy)
	m = run(t, m, cmd)

	assert.False(t, m.authBusy)
	assert.Empty(t, m.authErr)
	assert.True(t, p.Snapshot().Ready)
	assert.Empty(t, m.authInputs[AuthFieldPassword].Value())

	view := m.View()
	assert.NotContains(t, view, "Sign in to plan your day")
	assert.Contains(t, view, "Level 1")
	assert.Contains(t, view, "Unranked")
}

func TestAuthErrorShown(t *testing.T) {
	m, p, _ := newTestModel(t)

	m, _ = press(m, "nobody@example.com", "tab", "wrong-pass")
	m, cmd := press(m, "enter")
	m = run(t, m, cmd)

	assert.Equal(t, "Invalid email or password", m.authErr)
	assert.Nil(t, p.Snapshot().User)
	assert.Contains(t, m.View(), "Invalid email or password")
}

func TestSignUpFromAuthScreen(t *testing.T) {
	m, p, _ := newTestModel(t)

	m, _ = press(m, "new@example.com", "tab", "abc")
	m, cmd := press(m, "ctrl+s")
	m = run(t, m, cmd)
	assert.Contains(t, m.authErr, "at least 6 characters")

	m, _ = press(m, "defghi")
	m, cmd = press(m, "ctrl+s")
	m = run(t, m, cmd)
	assert.Empty(t, m.authErr)
	require.NotNil(t, p.Snapshot().User)
	assert.Equal(t, "new@example.com", p.Snapshot().User.Email)
}

func TestAddTaskThroughForm(t *testing.T) {
	m, p := signedIn(t)
	m.slot = 9
	date := m.selectedDate()

	m, _ = press(m, "a")
	require.True(t, m.form.Open())
	assert.Equal(t, "09:00", m.formInputs[FormFieldStart].Value())
	assert.Equal(t, "10:00", m.formInputs[FormFieldEnd].Value())
	assert.Equal(t, date, m.formInputs[FormFieldDate].Value())
	assert.Contains(t, m.View(), "Add Task")

	m, _ = press(m, "Standup", "tab", "tab", "tab", "right")
	assert.Equal(t, schedule.Personal, m.form.Draft.Category)

	m, _ = press(m, "enter")
	assert.False(t, m.form.Open())

	tasks := p.TasksForSlot(date, "09:00")
	require.Len(t, tasks, 1)
	assert.Equal(t, "Standup", tasks[0].Title)
	assert.Equal(t, "10:00", tasks[0].EndTime)
	assert.Equal(t, schedule.Personal, tasks[0].Category)
	assert.Contains(t, m.View(), "Standup")
}

func TestFormKeepsDraftOnValidationError(t *testing.T) {
	m, p := signedIn(t)

	m, _ = press(m, "a", "enter")
	assert.True(t, m.form.Open())
	assert.NotEmpty(t, m.formErr)
	assert.Empty(t, p.Dates())

	m, _ = press(m, "esc")
	assert.False(t, m.form.Open())
	assert.Empty(t, m.formErr)
}

func TestEditTask(t *testing.T) {
	m, p := signedIn(t)
	m.slot = 14
	task, err := p.AddTask(m.selectedDate(), schedule.Draft{
		Title: "Gym", StartTime: "14:00", EndTime: "15:00", Category: schedule.Health,
	})
	require.NoError(t, err)

	m, _ = press(m, "e")
	require.True(t, m.form.Open())
	assert.Equal(t, task.ID, m.form.EditingID)
	assert.Equal(t, "Gym", m.formInputs[FormFieldTitle].Value())

	m, _ = press(m, "!", "enter")
	got, ok := p.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, "Gym!", got.Title)
}

func TestToggleAwardsXP(t *testing.T) {
	m, p := signedIn(t)
	m.slot = 8
	_, err := p.AddTask(m.selectedDate(), schedule.Draft{
		Title: "Read", StartTime: "08:00", EndTime: "08:30", Category: schedule.Learning,
	})
	require.NoError(t, err)

	m, _ = press(m, "x")
	assert.Equal(t, 20, progressionXP(p))

	press(m, " ")
	assert.Equal(t, 0, progressionXP(p))
}

func progressionXP(p *planner.Planner) int {
	return p.Snapshot().Progress.XP
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, p := signedIn(t)
	m.slot = 11
	task, err := p.AddTask(m.selectedDate(), schedule.Draft{
		Title: "Lunch", StartTime: "11:30", EndTime: "12:30", Category: schedule.Break,
	})
	require.NoError(t, err)

	m, _ = press(m, "d")
	assert.True(t, m.deleteConfirmMode)
	assert.Contains(t, m.View(), "Delete task?")

	m, _ = press(m, "n")
	assert.False(t, m.deleteConfirmMode)
	_, ok := p.Task(task.ID)
	assert.True(t, ok)

	press(m, "d", "y")
	_, ok = p.Task(task.ID)
	assert.False(t, ok)
}

func TestResetNeedsConfirmation(t *testing.T) {
	m, p := signedIn(t)
	require.NoError(t, p.AdjustXP(150))

	m, _ = press(m, "R", "n")
	assert.Equal(t, 150, progressionXP(p))

	press(m, "R", "y")
	assert.Equal(t, 0, progressionXP(p))
	assert.Equal(t, 1, p.Snapshot().Progress.Level)
}

func TestDebugXPAndTheme(t *testing.T) {
	m, p := signedIn(t)

	m, _ = press(m, "+", "+", "-")
	assert.Equal(t, debugXPStep, progressionXP(p))

	press(m, "T")
	assert.Equal(t, "light", p.Snapshot().Theme)
}

func TestDayNavigationCrossesWeeks(t *testing.T) {
	m, _ := signedIn(t)
	start := m.week.Start
	week := func(m Model) string { return schedule.DateKey(m.week.Start) }

	m.day = schedule.DaysPerWeek - 1
	m, _ = press(m, "l")
	assert.Equal(t, 0, m.day)
	assert.Equal(t, schedule.DateKey(start.AddDate(0, 0, 7)), week(m))

	m, _ = press(m, "h")
	assert.Equal(t, schedule.DaysPerWeek-1, m.day)
	assert.Equal(t, schedule.DateKey(start), week(m))

	m, _ = press(m, "L", "L", "H")
	assert.Equal(t, schedule.DateKey(start.AddDate(0, 0, 7)), week(m))

	m, _ = press(m, "t")
	assert.Equal(t, schedule.DateKey(m.now), week(m))
}

func TestSlotMovementStaysInDay(t *testing.T) {
	m, _ := signedIn(t)
	m.slot = 0
	m, _ = press(m, "k")
	assert.Equal(t, 0, m.slot)

	m.slot = 23
	m, _ = press(m, "j")
	assert.Equal(t, 23, m.slot)
}

func TestNoticeShownAndExpires(t *testing.T) {
	m, _ := signedIn(t)

	next, _ := m.Update(NoticeMsg{Kind: planner.Warning, Title: "Heads up", Body: "Something happened"})
	m = next.(Model)
	assert.Contains(t, m.View(), "Heads up: Something happened")

	next, _ = m.Update(tickMsg(time.Now().Add(noticeTTL + time.Second)))
	m = next.(Model)
	assert.Nil(t, m.notice)
}

func TestLogOutReturnsToAuthScreen(t *testing.T) {
	m, p := signedIn(t)

	m, cmd := press(m, "o")
	m = run(t, m, cmd)

	assert.Nil(t, p.Snapshot().User)
	assert.Contains(t, m.View(), "Sign in to plan your day")
}

func TestNextTheme(t *testing.T) {
	assert.Equal(t, "light", nextTheme("dark"))
	assert.Equal(t, "original", nextTheme("light"))
	assert.Equal(t, "dark", nextTheme("original"))
	assert.Equal(t, "dark", nextTheme("unknown"))
}
