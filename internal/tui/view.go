package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/scheduler-tui/internal/planner"
	"github.com/pdxmph/scheduler-tui/internal/schedule"
)

const xpBarWidth = 24

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	snap := m.planner.Snapshot()
	pal := paletteFor(snap.Theme)

	switch {
	case snap.User == nil:
		return m.center(m.renderAuth(pal))
	case snap.Loading:
		return m.center(pal.overlay().Render("Loading your schedule..."))
	case snap.LoadFailed:
		return m.center(m.renderLoadFailed(pal))
	case m.form.Open():
		return m.center(m.renderForm(pal))
	case m.deleteConfirmMode:
		return m.center(m.renderDeleteConfirmation(pal))
	case m.resetConfirmMode:
		return m.center(m.renderResetConfirmation(pal))
	}

	sections := []string{m.renderHeader(snap, pal)}
	if banners := m.renderBanners(snap); banners != "" {
		sections = append(sections, banners)
	}
	sections = append(sections, m.renderDays(pal))

	// Grid gets whatever height the other sections leave
	used := 0
	for _, s := range sections {
		used += lipgloss.Height(s)
	}
	rows := m.height - used - 4
	sections = append(sections,
		m.renderGrid(pal, rows),
		m.renderNotice(pal),
		m.renderHelp(snap),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) center(box string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(box)
}

func (m Model) renderAuth(pal palette) string {
	var content strings.Builder
	content.WriteString(pal.title().Render("Scheduler"))
	content.WriteString("\n")
	content.WriteString(pal.label().Render("Sign in to plan your day"))
	content.WriteString("\n\n")

	labels := []string{"Email", "Password"}
	for i, input := range m.authInputs {
		label := labels[i] + ":"
		if i == m.authField {
			label = pal.selected().Render(label)
		} else {
			label = pal.label().Render(label)
		}
		content.WriteString(label + "\n")
		content.WriteString(input.View() + "\n\n")
	}

	switch {
	case m.authBusy:
		content.WriteString(pal.label().Render("Working..."))
	case m.authErr != "":
		content.WriteString(errorStyle.Render(m.authErr))
	}
	content.WriteString("\n\n")
	content.WriteString(pal.label().Render("enter: log in • ctrl+s: sign up • tab: switch field • esc: quit"))

	return pal.overlay().Render(content.String())
}

func (m Model) renderLoadFailed(pal palette) string {
	var content strings.Builder
	content.WriteString(errorStyle.Bold(true).Render("Could not load your schedule"))
	content.WriteString("\n\n")
	if m.notice != nil && m.notice.Body != "" {
		content.WriteString(m.notice.Body + "\n\n")
	}
	content.WriteString(pal.label().Render("ctrl+r: retry • o: log out • q: quit"))
	return pal.overlay().Render(content.String())
}

func (m Model) renderHeader(snap planner.Snapshot, pal palette) string {
	title := pal.title().Render("Scheduler")
	clock := pal.label().Render(m.now.Format("Mon Jan 2 2006  15:04:05"))
	user := ""
	if snap.User != nil {
		user = pal.label().Render(snap.User.Email)
	}

	info := snap.Progress
	filled := int(info.Percent / 100 * xpBarWidth)
	bar := lipgloss.NewStyle().Foreground(pal.accent).Render(strings.Repeat("█", filled)) +
		pal.label().Render(strings.Repeat("░", xpBarWidth-filled))
	xp := fmt.Sprintf("Level %d  %s %3.0f%%  %d XP · %d to next",
		info.Level, bar, info.Percent, info.XP, info.XPToNextLevel)

	badge := pal.label().Render("Unranked")
	if !snap.Tier.IsZero() {
		badge = lipgloss.NewStyle().Bold(true).Foreground(snap.Tier.Color).
			Render(fmt.Sprintf("◆ %s · %s", snap.Tier.Name, snap.Tier.Title))
	}

	saving := ""
	if snap.SavePending {
		saving = pal.label().Render(" (saving)")
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", clock, "  ", user, saving)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, xp, "   ", badge)
	return pal.box().Width(m.width - 2).Render(top + "\n" + bottom)
}

func (m Model) renderBanners(snap planner.Snapshot) string {
	var lines []string
	if snap.LevelUp {
		lines = append(lines, celebrateStyle.Render(fmt.Sprintf("★ Level up! You reached level %d", snap.LevelUpTo)))
	}
	if snap.RankUp {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(snap.RankUpTo.Color).
			Render(fmt.Sprintf("◆ Rank up! You are now %s, %s", snap.RankUpTo.Name, snap.RankUpTo.Title)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDays(pal palette) string {
	today := schedule.DateKey(m.now)
	cells := make([]string, 0, schedule.DaysPerWeek)

	for i, day := range m.week.Days() {
		key := schedule.DateKey(day)
		label := day.Format("Mon 02")
		if n := m.planner.IncompleteCount(key); n > 0 {
			label += fmt.Sprintf(" (%d)", n)
		}

		style := lipgloss.NewStyle().Padding(0, 1)
		switch {
		case i == m.day:
			style = pal.selected().Padding(0, 1)
		case key == today:
			style = style.Foreground(pal.accent).Underline(true)
		default:
			style = style.Foreground(pal.text)
		}
		cells = append(cells, style.Render(label))
	}

	weekLabel := pal.label().Render(fmt.Sprintf("%s – %s",
		m.week.Start.Format("Jan 2"), m.week.Days()[schedule.DaysPerWeek-1].Format("Jan 2")))

	return lipgloss.JoinHorizontal(lipgloss.Top, cells...) + "  " + weekLabel
}

func (m Model) renderGrid(pal palette, rows int) string {
	slots := schedule.TimeSlots()
	if rows < 3 {
		rows = 3
	}
	if rows > len(slots) {
		rows = len(slots)
	}

	// Keep the selected slot in view
	start := m.slot - rows/2
	if start < 0 {
		start = 0
	}
	if start+rows > len(slots) {
		start = len(slots) - rows
	}

	date := m.selectedDate()
	var lines []string
	for i := start; i < start+rows; i++ {
		slot := slots[i]
		label := " " + slot + " "
		if i == m.slot {
			label = pal.selected().Render(label)
		} else {
			label = pal.label().Render(label)
		}

		tasks := m.planner.TasksForSlot(date, slot)
		parts := make([]string, 0, len(tasks))
		for j, task := range tasks {
			parts = append(parts, renderTask(task, pal, i == m.slot && j == m.taskIdx%len(tasks)))
		}
		lines = append(lines, label+pal.label().Render(" │ ")+strings.Join(parts, "  "))
	}

	return pal.box().Width(m.width - 2).Render(strings.Join(lines, "\n"))
}

func renderTask(task schedule.Task, pal palette, selected bool) string {
	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	text := fmt.Sprintf("%s %s-%s %s", check, task.StartTime, task.EndTime, task.Title)

	style := lipgloss.NewStyle().Foreground(task.Category.Color())
	if task.Completed {
		style = style.Strikethrough(true).Faint(true)
	}
	if selected {
		style = style.Background(pal.selectBg).Bold(true)
	}
	return style.Render(text)
}

func (m Model) renderNotice(pal palette) string {
	if m.err != nil {
		return errorStyle.Render(m.err.Error())
	}
	if m.notice == nil {
		return ""
	}

	text := m.notice.Title
	if m.notice.Body != "" {
		text += ": " + m.notice.Body
	}
	switch m.notice.Kind {
	case planner.Error:
		return errorStyle.Render(text)
	case planner.Warning:
		return warningStyle.Render(text)
	default:
		return lipgloss.NewStyle().Foreground(pal.accent).Render(text)
	}
}

func (m Model) renderHelp(snap planner.Snapshot) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if !snap.Ready {
		return style.Render("ctrl+r: retry • o: log out • q: quit")
	}
	return style.Render("h/l: day • H/L: week • t: today • j/k: slot • tab: next task • a: add • e: edit • d: delete • space: done • T: theme • +/-: XP • R: reset • o: log out • q: quit")
}

func (m Model) renderForm(pal palette) string {
	var content strings.Builder
	title := "Add Task"
	if m.form.EditingID != "" {
		title = "Edit Task"
	}
	content.WriteString(pal.title().Render(title))
	content.WriteString("\n\n")

	labels := []string{"Title", "Start", "End", "Category", "Date", "Description"}
	for i, label := range labels {
		label += ":"
		if i == m.formField {
			label = pal.selected().Render(label)
		} else {
			label = pal.label().Render(label)
		}
		content.WriteString(label + "\n")

		switch i {
		case FormFieldCategory:
			category := m.form.Draft.Category
			content.WriteString("< " + lipgloss.NewStyle().Foreground(category.Color()).Render(string(category)) + " >")
		case FormFieldDescription:
			content.WriteString(m.descInput.View())
		default:
			content.WriteString(m.formInputs[i].View())
		}
		content.WriteString("\n\n")
	}

	if m.formErr != "" {
		content.WriteString(errorStyle.Render(m.formErr) + "\n\n")
	}
	content.WriteString(pal.label().Render("tab: next field • ←/→: category • enter/ctrl+s: save • esc: cancel"))

	return pal.overlay().Render(content.String())
}

func (m Model) renderDeleteConfirmation(pal palette) string {
	task, ok := m.planner.Task(m.deleteTaskID)
	name := m.deleteTaskID
	if ok {
		name = task.Title
	}

	var content strings.Builder
	content.WriteString(warningStyle.Bold(true).Render("Delete task?"))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("Remove %q from %s?", name, task.Date))
	content.WriteString("\n\n")
	content.WriteString(pal.label().Render("y: delete • any other key: cancel"))
	return pal.overlay().Render(content.String())
}

func (m Model) renderResetConfirmation(pal palette) string {
	var content strings.Builder
	content.WriteString(warningStyle.Bold(true).Render("Reset progress?"))
	content.WriteString("\n\n")
	content.WriteString("XP goes back to 0 and level to 1. Tasks are kept.")
	content.WriteString("\n\n")
	content.WriteString(pal.label().Render("y: reset • any other key: cancel"))
	return pal.overlay().Render(content.String())
}
