package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelCostGrowsByTwenty(t *testing.T) {
	for l := 1; l <= 200; l++ {
		assert.Equal(t, 100+(l-1)*20, TotalXPForLevel(l+1)-TotalXPForLevel(l), "level %d", l)
	}
}

func TestTotalXPForLevel(t *testing.T) {
	assert.Equal(t, 0, TotalXPForLevel(1))
	assert.Equal(t, 0, TotalXPForLevel(0))
	assert.Equal(t, 100, TotalXPForLevel(2))
	assert.Equal(t, 220, TotalXPForLevel(3))
	assert.Equal(t, 360, TotalXPForLevel(4))
}

func TestLevelFromXPIsUnique(t *testing.T) {
	for xp := 0; xp <= 20000; xp += 7 {
		l := LevelFromXP(xp)
		require.GreaterOrEqual(t, l, 1)
		assert.LessOrEqual(t, TotalXPForLevel(l), xp, "xp %d", xp)
		assert.Less(t, xp, TotalXPForLevel(l+1), "xp %d", xp)
	}
}

func TestLevelBoundaries(t *testing.T) {
	assert.Equal(t, 1, LevelFromXP(0))
	assert.Equal(t, 1, LevelFromXP(99))
	assert.Equal(t, 2, LevelFromXP(100))
	assert.Equal(t, 2, LevelFromXP(219))
	assert.Equal(t, 3, LevelFromXP(220))
	assert.Equal(t, 1, LevelFromXP(-50))
}

func TestProgress(t *testing.T) {
	info := Progress(160, 2)
	assert.Equal(t, 60, info.XPToNextLevel)
	assert.Equal(t, 60, info.CurrentXPInLevel)
	assert.InDelta(t, 50.0, info.Percent, 0.001)
}

func TestProgressClampsOnMismatch(t *testing.T) {
	// xp jumped past several levels before the level was recomputed
	assert.Equal(t, 100.0, Progress(5000, 1).Percent)
	// xp dropped below the level floor
	assert.Equal(t, 0.0, Progress(10, 5).Percent)

	for xp := 0; xp < 2000; xp += 37 {
		for level := 1; level < 15; level++ {
			p := Progress(xp, level).Percent
			assert.True(t, p >= 0 && p <= 100, "xp=%d level=%d pct=%f", xp, level, p)
		}
	}
}

func TestApplyDeltaFloorsAtZero(t *testing.T) {
	assert.Equal(t, 0, ApplyDelta(0, -XPPerCompletion))
	assert.Equal(t, 20, ApplyDelta(0, XPPerCompletion))
	assert.Equal(t, 0, ApplyDelta(20, -XPPerCompletion))
}

func TestCompletionScenario(t *testing.T) {
	xp := 0
	for i := 0; i < 5; i++ {
		xp = ApplyDelta(xp, XPPerCompletion)
	}
	assert.Equal(t, 100, xp)
	assert.Equal(t, 2, LevelFromXP(xp))

	xp = ApplyDelta(xp, -XPPerCompletion)
	assert.Equal(t, 80, xp)
	assert.Equal(t, 1, LevelFromXP(xp))
}

func TestTierForLevel(t *testing.T) {
	assert.True(t, TierForLevel(1).IsZero())
	assert.True(t, TierForLevel(4).IsZero())
	assert.Equal(t, "Bronze", TierForLevel(5).Name)
	assert.Equal(t, "Bronze", TierForLevel(14).Name)
	assert.Equal(t, "Silver", TierForLevel(15).Name)
	assert.Equal(t, "Scheduler Sage", TierForLevel(250).Name)
	assert.Equal(t, "Sage", TierForLevel(100).Title)

	assert.Equal(t, 0, TierRank(4))
	assert.Equal(t, 3, TierRank(30))
}

func TestSignalAutoClears(t *testing.T) {
	s := NewSignal(20 * time.Millisecond)
	s.Fire(3)

	active, v := s.Active()
	assert.True(t, active)
	assert.Equal(t, 3, v)

	assert.Eventually(t, func() bool {
		active, _ := s.Active()
		return !active
	}, time.Second, 5*time.Millisecond)
}

func TestSignalRefireReplacesPendingClear(t *testing.T) {
	s := NewSignal(80 * time.Millisecond)
	s.Fire(2)
	time.Sleep(50 * time.Millisecond)
	s.Fire(3)
	time.Sleep(50 * time.Millisecond)

	// the first timer would have cleared by now
	active, v := s.Active()
	assert.True(t, active)
	assert.Equal(t, 3, v)
}

func TestSignalStop(t *testing.T) {
	s := NewSignal(time.Hour)
	s.Fire(1)
	s.Stop()
	active, _ := s.Active()
	assert.False(t, active)
}

func TestDetectorBaselineIsSilent(t *testing.T) {
	d := NewDetector(time.Hour)

	assert.False(t, d.Observe(7), "first observation sets the baseline")
	active, _ := d.Signal().Active()
	assert.False(t, active)

	assert.False(t, d.Observe(7))
	assert.False(t, d.Observe(6))
	assert.True(t, d.Observe(8))

	active, v := d.Signal().Active()
	assert.True(t, active)
	assert.Equal(t, 8, v)
}

func TestDetectorResetRestoresBaseline(t *testing.T) {
	d := NewDetector(time.Hour)
	d.Observe(1)
	assert.True(t, d.Observe(2))

	d.Reset()
	active, _ := d.Signal().Active()
	assert.False(t, active)
	assert.False(t, d.Observe(10))
}

func TestTrackerRankUp(t *testing.T) {
	tr := NewTracker(time.Hour)
	levelUp, rankUp := tr.Observe(4)
	assert.False(t, levelUp)
	assert.False(t, rankUp)

	levelUp, rankUp = tr.Observe(5)
	assert.True(t, levelUp)
	assert.True(t, rankUp)

	ok, tier := tr.RankUp()
	assert.True(t, ok)
	assert.Equal(t, "Bronze", tier.Name)

	levelUp, rankUp = tr.Observe(6)
	assert.True(t, levelUp)
	assert.False(t, rankUp)
}
