package progression

// XPPerCompletion is the XP awarded for completing a task and taken back
// when the task is marked incomplete again.
const XPPerCompletion = 20

const (
	baseLevelCost = 100
	levelCostStep = 20
)

// LevelCost returns the XP needed to advance from level n to level n+1
// (level 1 costs 100, level 2 costs 120, ...).
func LevelCost(n int) int {
	if n < 1 {
		n = 1
	}
	return baseLevelCost + (n-1)*levelCostStep
}

// TotalXPForLevel returns the cumulative XP required to reach level l.
// Level 1 requires 0.
func TotalXPForLevel(l int) int {
	if l <= 1 {
		return 0
	}
	steps := l - 1
	// sum of LevelCost(i) for i in [1, l-1]
	return baseLevelCost*steps + levelCostStep*steps*(steps-1)/2
}

// LevelFromXP returns the level l such that
// TotalXPForLevel(l) <= xp < TotalXPForLevel(l+1).
func LevelFromXP(xp int) int {
	level := 1
	remaining := xp
	for remaining >= LevelCost(level) {
		remaining -= LevelCost(level)
		level++
	}
	return level
}

// Info describes where an XP total sits inside a level.
type Info struct {
	XP               int
	Level            int
	XPToNextLevel    int
	CurrentXPInLevel int
	// Percent is always within [0, 100], even when Level was computed from
	// a different XP value than XP.
	Percent float64
}

// Progress computes the within-level progress for xp at the given level.
// The level is taken as-is so that callers observing a transient mismatch
// (xp already adjusted, level not yet recomputed) still get a valid percentage.
func Progress(xp, level int) Info {
	if level < 1 {
		level = 1
	}
	current := TotalXPForLevel(level)
	next := TotalXPForLevel(level + 1)

	pct := float64(xp-current) / float64(next-current) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	return Info{
		XP:               xp,
		Level:            level,
		XPToNextLevel:    next - xp,
		CurrentXPInLevel: xp - current,
		Percent:          pct,
	}
}

// ApplyDelta adds delta to xp, flooring the result at zero.
func ApplyDelta(xp, delta int) int {
	xp += delta
	if xp < 0 {
		return 0
	}
	return xp
}
