package progression

import "github.com/charmbracelet/lipgloss"

// Tier is a named rank unlocked at a level threshold. The zero value is the
// untiered rank.
type Tier struct {
	Name      string
	Title     string
	Threshold int
	Color     lipgloss.Color
}

// Tiers lists the badge ranks in ascending threshold order.
var Tiers = []Tier{
	{Name: "Bronze", Title: "Rookie", Threshold: 5, Color: lipgloss.Color("130")},
	{Name: "Silver", Title: "Apprentice", Threshold: 15, Color: lipgloss.Color("250")},
	{Name: "Gold", Title: "Adept", Threshold: 30, Color: lipgloss.Color("220")},
	{Name: "Platinum", Title: "Time Strategist", Threshold: 50, Color: lipgloss.Color("153")},
	{Name: "Diamond", Title: "Task Legend", Threshold: 75, Color: lipgloss.Color("51")},
	{Name: "Scheduler Sage", Title: "Sage", Threshold: 100, Color: lipgloss.Color("141")},
}

// IsZero reports whether t is the untiered rank.
func (t Tier) IsZero() bool {
	return t.Name == ""
}

// TierForLevel returns the highest tier whose threshold is <= level, or the
// zero Tier when none qualifies.
func TierForLevel(level int) Tier {
	var tier Tier
	for _, t := range Tiers {
		if level >= t.Threshold {
			tier = t
		}
	}
	return tier
}

// TierRank returns the 1-based position of the tier for level in Tiers,
// 0 when untiered. Ranks compare the same way tiers do.
func TierRank(level int) int {
	rank := 0
	for i, t := range Tiers {
		if level >= t.Threshold {
			rank = i + 1
		}
	}
	return rank
}
