package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

func newTestCollector(cfg Config) (*Collector, *time.Time) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	c := New(cfg, nil, func() time.Time { return now })
	return c, &now
}

func TestRecordEvaluationTracksLifetimeCounters(t *testing.T) {
	c, _ := newTestCollector(DefaultConfig())
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Send, ExpectedReward: 0.5})
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Wait, ExpectedReward: 0.1})

	assert.Equal(t, 2, c.GetStatistics().Lifetime.TotalEvaluations)
	assert.Equal(t, 1, c.GetStatistics().Lifetime.TotalSends)
	assert.Equal(t, 1, c.GetStatistics().Lifetime.TotalWaits)
	assert.InDelta(t, 0.5, c.LifetimePassRate(), 1e-9)
}

func TestRecordEvaluationSkipsNegInfFromAverage(t *testing.T) {
	c, _ := newTestCollector(DefaultConfig())
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Wait, ExpectedReward: math.Inf(-1)})
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Send, ExpectedReward: 1.0})

	assert.InDelta(t, 1.0, c.AverageExpectedReward(0), 1e-9)
}

func TestWaitStreak(t *testing.T) {
	c, _ := newTestCollector(DefaultConfig())
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Send})
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Wait})
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Wait})
	assert.Equal(t, 2, c.WaitStreak())
}

func TestInsufficientEnergyCounted(t *testing.T) {
	c, _ := newTestCollector(DefaultConfig())
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Wait, Reason: queenobs.ReasonInsufficientEnergy})
	assert.Equal(t, 1, c.GetStatistics().Lifetime.InsufficientEnergyCount)
}

func TestTimeSinceLastActionUsesStartWhenNeverSent(t *testing.T) {
	c, now := newTestCollector(DefaultConfig())
	*now = now.Add(time.Minute)
	assert.Equal(t, time.Minute, c.TimeSinceLastAction())
}

func TestTimeSinceLastActionTracksLastSend(t *testing.T) {
	c, now := newTestCollector(DefaultConfig())
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Send})
	*now = now.Add(30 * time.Second)
	assert.Equal(t, 30*time.Second, c.TimeSinceLastAction())
}

func TestWindowSizeTrimsOldSamples(t *testing.T) {
	cfg := Config{WindowSize: 2, WaitStreakWarnAt: 10}
	c, _ := newTestCollector(cfg)
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Wait})
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Wait})
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Send})

	assert.Equal(t, 2, c.GetStatistics().Rolling.WindowSize)
}

func TestAverageComponents(t *testing.T) {
	c, _ := newTestCollector(DefaultConfig())
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Send, Components: map[string]float64{"survival": 1.0}})
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Send, Components: map[string]float64{"survival": 0.0}})

	avg := c.AverageComponents(0)
	assert.InDelta(t, 0.5, avg["survival"], 1e-9)
}

func TestResetClearsState(t *testing.T) {
	c, _ := newTestCollector(DefaultConfig())
	c.RecordEvaluation(queenobs.GateDecision{Outcome: queenobs.Send})
	c.Reset()
	assert.Equal(t, 0, c.GetStatistics().Lifetime.TotalEvaluations)
}
