// Package metrics collects rolling and lifetime statistics over
// simulation-gate evaluations, purely for diagnostics: nothing here
// feeds back into the core loop's decisions.
package metrics

import (
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

// Sample is a single recorded gate evaluation.
type Sample struct {
	Timestamp      time.Time
	Outcome        queenobs.GateOutcome
	Reason         queenobs.GateReason
	ExpectedReward float64
	NNConfidence   float64
	Components     map[string]float64
}

// Config tunes the metrics window and the deadlock-warning threshold.
type Config struct {
	WindowSize          int
	WaitStreakWarnAt    int
}

// DefaultConfig mirrors simulation/metrics.py's window_size=100, plus
// the wait_streak>=10 warning named in SPEC_FULL.md §4.11.
func DefaultConfig() Config {
	return Config{WindowSize: 100, WaitStreakWarnAt: 10}
}

// Collector accumulates gate evaluation samples.
type Collector struct {
	cfg     Config
	logger  *log.Logger
	now     func() time.Time
	samples []Sample

	totalEvaluations       int
	totalSends             int
	totalWaits             int
	totalInsufficientEnergy int

	startTime       time.Time
	lastActionTime  *time.Time

	cumulativeExpectedReward float64
	cumulativeActualReward   float64

	warnedStreak bool
}

// New builds a Collector. logger and now may be nil for defaults.
func New(cfg Config, logger *log.Logger, now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Collector{cfg: cfg, logger: logger, now: now, startTime: now()}
}

// RecordEvaluation appends a sample and updates lifetime counters.
func (c *Collector) RecordEvaluation(d queenobs.GateDecision) {
	now := c.now()
	sample := Sample{
		Timestamp:      now,
		Outcome:        d.Outcome,
		Reason:         d.Reason,
		ExpectedReward: d.ExpectedReward,
		NNConfidence:   d.NNConfidence,
		Components:     d.Components,
	}
	c.samples = append(c.samples, sample)
	if c.cfg.WindowSize > 0 && len(c.samples) > c.cfg.WindowSize {
		c.samples = c.samples[len(c.samples)-c.cfg.WindowSize:]
	}

	c.totalEvaluations++
	if d.Outcome == queenobs.Send {
		c.totalSends++
		t := now
		c.lastActionTime = &t
	} else {
		c.totalWaits++
		if d.Reason == queenobs.ReasonInsufficientEnergy {
			c.totalInsufficientEnergy++
		}
	}

	if !isNegInf(d.ExpectedReward) {
		c.cumulativeExpectedReward += d.ExpectedReward
	}

	c.checkDeadlockRisk()
}

// RecordActualReward accumulates a reward observed from the game.
func (c *Collector) RecordActualReward(reward float64) {
	c.cumulativeActualReward += reward
}

// PassRate returns SEND/total over the last window samples (0 for
// all buffered samples).
func (c *Collector) PassRate(window int) float64 {
	s := c.windowed(window)
	if len(s) == 0 {
		return 0
	}
	sends := 0
	for _, sample := range s {
		if sample.Outcome == queenobs.Send {
			sends++
		}
	}
	return float64(sends) / float64(len(s))
}

// LifetimePassRate returns sends/evaluations across the process
// lifetime.
func (c *Collector) LifetimePassRate() float64 {
	if c.totalEvaluations == 0 {
		return 0
	}
	return float64(c.totalSends) / float64(c.totalEvaluations)
}

// AverageExpectedReward averages expected reward over the last window
// samples, excluding capacity-blocked -Inf entries.
func (c *Collector) AverageExpectedReward(window int) float64 {
	s := c.windowed(window)
	sum, n := 0.0, 0
	for _, sample := range s {
		if !isNegInf(sample.ExpectedReward) {
			sum += sample.ExpectedReward
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// TimeSinceLastAction returns how long since the last SEND, or since
// collector start if there has never been one.
func (c *Collector) TimeSinceLastAction() time.Duration {
	if c.lastActionTime == nil {
		return c.now().Sub(c.startTime)
	}
	return c.now().Sub(*c.lastActionTime)
}

// WaitStreak counts consecutive WAIT decisions at the tail of the
// window.
func (c *Collector) WaitStreak() int {
	streak := 0
	for i := len(c.samples) - 1; i >= 0; i-- {
		if c.samples[i].Outcome == queenobs.Wait {
			streak++
		} else {
			break
		}
	}
	return streak
}

// AverageComponents averages each named cost-function component over
// the last window samples.
func (c *Collector) AverageComponents(window int) map[string]float64 {
	s := c.windowed(window)
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, sample := range s {
		for k, v := range sample.Components {
			sums[k] += v
			counts[k]++
		}
	}
	out := make(map[string]float64, len(sums))
	for k, sum := range sums {
		out[k] = sum / float64(counts[k])
	}
	return out
}

// Statistics is the full nested snapshot matching the original's
// get_statistics() shape.
type Statistics struct {
	Lifetime struct {
		TotalEvaluations        int
		TotalSends              int
		TotalWaits              int
		PassRate                float64
		InsufficientEnergyCount int
		CumulativeExpectedReward float64
		CumulativeActualReward   float64
		UptimeSeconds           float64
	}
	Rolling struct {
		WindowSize           int
		PassRate             float64
		AverageExpectedReward float64
		AverageComponents    map[string]float64
	}
	Recent struct {
		TimeSinceLastAction time.Duration
		WaitStreak          int
	}
}

// GetStatistics assembles the full snapshot.
func (c *Collector) GetStatistics() Statistics {
	var s Statistics
	s.Lifetime.TotalEvaluations = c.totalEvaluations
	s.Lifetime.TotalSends = c.totalSends
	s.Lifetime.TotalWaits = c.totalWaits
	s.Lifetime.PassRate = c.LifetimePassRate()
	s.Lifetime.InsufficientEnergyCount = c.totalInsufficientEnergy
	s.Lifetime.CumulativeExpectedReward = c.cumulativeExpectedReward
	s.Lifetime.CumulativeActualReward = c.cumulativeActualReward
	s.Lifetime.UptimeSeconds = c.now().Sub(c.startTime).Seconds()

	s.Rolling.WindowSize = len(c.samples)
	s.Rolling.PassRate = c.PassRate(0)
	s.Rolling.AverageExpectedReward = c.AverageExpectedReward(0)
	s.Rolling.AverageComponents = c.AverageComponents(0)

	s.Recent.TimeSinceLastAction = c.TimeSinceLastAction()
	s.Recent.WaitStreak = c.WaitStreak()
	return s
}

// Reset clears all counters and samples.
func (c *Collector) Reset() {
	c.samples = nil
	c.totalEvaluations = 0
	c.totalSends = 0
	c.totalWaits = 0
	c.totalInsufficientEnergy = 0
	c.startTime = c.now()
	c.lastActionTime = nil
	c.cumulativeExpectedReward = 0
	c.cumulativeActualReward = 0
	c.warnedStreak = false
}

func (c *Collector) windowed(window int) []Sample {
	if window <= 0 || window >= len(c.samples) {
		return c.samples
	}
	return c.samples[len(c.samples)-window:]
}

func (c *Collector) checkDeadlockRisk() {
	streak := c.WaitStreak()
	if streak >= c.cfg.WaitStreakWarnAt {
		if !c.warnedStreak {
			c.logger.Warn("DeadlockRisk", "wait_streak", streak)
			c.warnedStreak = true
		}
		return
	}
	c.warnedStreak = false
}

func isNegInf(v float64) bool {
	return math.IsInf(v, -1)
}
