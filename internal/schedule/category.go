package schedule

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Category groups tasks and picks their colour on the schedule grid.
type Category string

// Available categories
const (
	Work     Category = "Work"
	Personal Category = "Personal"
	Health   Category = "Health"
	Learning Category = "Learning"
	Social   Category = "Social"
	Break    Category = "Break"
)

// Categories lists every category in display order.
var Categories = []Category{Work, Personal, Health, Learning, Social, Break}

var categoryColors = map[Category]lipgloss.Color{
	Work:     lipgloss.Color("33"),  // blue
	Personal: lipgloss.Color("35"),  // green
	Health:   lipgloss.Color("160"), // red
	Learning: lipgloss.Color("99"),  // purple
	Social:   lipgloss.Color("178"), // yellow
	Break:    lipgloss.Color("244"), // gray
}

// LookupCategory finds the category named s, ignoring case.
func LookupCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// ParseCategory returns the category named s, falling back to Work.
func ParseCategory(s string) Category {
	if c, ok := LookupCategory(s); ok {
		return c
	}
	return Work
}

// Color returns the display colour for the category. Unknown categories use
// the Work colour.
func (c Category) Color() lipgloss.Color {
	if color, ok := categoryColors[c]; ok {
		return color
	}
	return categoryColors[Work]
}

// Next returns the category after c, wrapping around.
func (c Category) Next() Category {
	for i, cat := range Categories {
		if cat == c {
			return Categories[(i+1)%len(Categories)]
		}
	}
	return Work
}

// Prev returns the category before c, wrapping around.
func (c Category) Prev() Category {
	for i, cat := range Categories {
		if cat == c {
			return Categories[(i+len(Categories)-1)%len(Categories)]
		}
	}
	return Work
}
