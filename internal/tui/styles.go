package tui

import "github.com/charmbracelet/lipgloss"

// palette is the colour set behind one theme name
type palette struct {
	name      string
	text      lipgloss.Color
	muted     lipgloss.Color
	accent    lipgloss.Color
	border    lipgloss.Color
	selectBg  lipgloss.Color
	selectFg  lipgloss.Color
	overlayBg lipgloss.Color
}

// Themes in cycle order. Unknown names render with the first one.
var themes = []palette{
	{
		name:      "dark",
		text:      lipgloss.Color("252"),
		muted:     lipgloss.Color("241"),
		accent:    lipgloss.Color("86"),
		border:    lipgloss.Color("240"),
		selectBg:  lipgloss.Color("62"),
		selectFg:  lipgloss.Color("230"),
		overlayBg: lipgloss.Color("235"),
	},
	{
		name:      "light",
		text:      lipgloss.Color("235"),
		muted:     lipgloss.Color("245"),
		accent:    lipgloss.Color("25"),
		border:    lipgloss.Color("250"),
		selectBg:  lipgloss.Color("153"),
		selectFg:  lipgloss.Color("16"),
		overlayBg: lipgloss.Color("255"),
	},
	{
		name:      "original",
		text:      lipgloss.Color("255"),
		muted:     lipgloss.Color("244"),
		accent:    lipgloss.Color("122"),
		border:    lipgloss.Color("66"),
		selectBg:  lipgloss.Color("23"),
		selectFg:  lipgloss.Color("195"),
		overlayBg: lipgloss.Color("17"),
	},
}

func paletteFor(name string) palette {
	for _, p := range themes {
		if p.name == name {
			return p
		}
	}
	return themes[0]
}

// nextTheme returns the theme after name in cycle order
func nextTheme(name string) string {
	for i, p := range themes {
		if p.name == name {
			return themes[(i+1)%len(themes)].name
		}
	}
	return themes[0].name
}

// Styles that do not change with the theme
var (
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	celebrateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226"))
)

func (p palette) selected() lipgloss.Style {
	return lipgloss.NewStyle().Background(p.selectBg).Foreground(p.selectFg)
}

func (p palette) label() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.muted)
}

func (p palette) title() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(p.accent)
}

func (p palette) box() lipgloss.Style {
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(p.border)
}

func (p palette) overlay() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.accent).
		Background(p.overlayBg).
		Padding(1, 2).
		Width(60)
}
