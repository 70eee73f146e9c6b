package progression

import (
	"sync"
	"time"
)

// Detector fires its Signal when an observed value strictly increases.
// The first observation after construction or Reset only records a baseline,
// so restoring a session above level 1 does not celebrate.
type Detector struct {
	mu       sync.Mutex
	baseline bool
	last     int
	signal   *Signal
}

// NewDetector creates a detector whose signal lasts duration.
func NewDetector(duration time.Duration) *Detector {
	return &Detector{signal: NewSignal(duration)}
}

// Observe records value and reports whether the signal fired.
func (d *Detector) Observe(value int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.baseline {
		d.baseline = true
		d.last = value
		return false
	}

	fired := value > d.last
	d.last = value
	if fired {
		d.signal.Fire(value)
	}
	return fired
}

// Reset forgets the baseline and clears the signal.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.baseline = false
	d.last = 0
	d.signal.Stop()
}

// Signal returns the detector's transient signal.
func (d *Detector) Signal() *Signal {
	return d.signal
}

// Tracker watches level changes and the tier changes derived from them.
type Tracker struct {
	level *Detector
	tier  *Detector
}

// NewTracker creates a tracker with independent level-up and rank-up signals.
func NewTracker(duration time.Duration) *Tracker {
	return &Tracker{
		level: NewDetector(duration),
		tier:  NewDetector(duration),
	}
}

// Observe feeds a freshly computed level to both detectors.
func (t *Tracker) Observe(level int) (levelUp, rankUp bool) {
	levelUp = t.level.Observe(level)
	rankUp = t.tier.Observe(TierRank(level))
	return levelUp, rankUp
}

// Reset drops both baselines; the next Observe is silent.
func (t *Tracker) Reset() {
	t.level.Reset()
	t.tier.Reset()
}

// LevelUp reports whether the level-up indicator is showing and for which level.
func (t *Tracker) LevelUp() (bool, int) {
	return t.level.Signal().Active()
}

// RankUp reports whether the rank-up indicator is showing and for which tier.
func (t *Tracker) RankUp() (bool, Tier) {
	active, rank := t.tier.Signal().Active()
	if !active || rank < 1 || rank > len(Tiers) {
		return false, Tier{}
	}
	return true, Tiers[rank-1]
}
