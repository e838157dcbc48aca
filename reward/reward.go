// Package reward turns a pair of consecutive observations and the
// action taken between them into a scalar training signal.
package reward

import (
	"gonum.org/v1/gonum/stat"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

// Config holds the weights and thresholds the original tuned by hand;
// see DESIGN.md for where each constant is grounded.
type Config struct {
	MiningDisruptionWeight float64
	ProtectorReductionWeight float64
	PlayerEnergyWeight       float64

	MiningClearedBonus   float64
	ProtectorKilledBonus float64

	NoImpactPenalty          float64
	NoImpactThreshold        float64
	WorkersPresentPenalty    float64
	ActiveMiningPenalty      float64
	RatePenaltyMultiplier    float64
	WastedSpawnPenalty       float64

	HiveProximityWeight     float64
	WorkerProximityWeight   float64

	MinReward, MaxReward float64

	TrendWindow int
}

// DefaultConfig mirrors original_source/server/ai_engine/reward_calculator.py.
func DefaultConfig() Config {
	return Config{
		MiningDisruptionWeight:   0.4,
		ProtectorReductionWeight: 0.3,
		PlayerEnergyWeight:       0.3,

		MiningClearedBonus:   0.2,
		ProtectorKilledBonus: 0.15,

		NoImpactPenalty:       -0.1,
		NoImpactThreshold:     0.05,
		WorkersPresentPenalty: -0.1,
		ActiveMiningPenalty:   -0.6,
		RatePenaltyMultiplier: -0.5,
		WastedSpawnPenalty:    -0.5,

		HiveProximityWeight:   0.3,
		WorkerProximityWeight: 0.4,

		MinReward: -1.0,
		MaxReward: 1.0,

		TrendWindow: 10,
	}
}

// Result is the scalar reward plus its component breakdown, useful for
// diagnostics and tests.
type Result struct {
	Reward     float64
	Components map[string]float64
}

// Trend summarizes whether recent rewards are improving, declining or
// stable, mirroring the original's get_reward_trend.
type Trend string

const (
	TrendImproving       Trend = "improving"
	TrendDeclining       Trend = "declining"
	TrendStable          Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// Calculator tracks recent reward history for trend reporting. The
// zero value is ready to use.
type Calculator struct {
	cfg     Config
	history []float64
}

// NewCalculator builds a Calculator with the given config.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Calculate computes the reward for the transition prev -> curr given
// the decision made at prev (nil if nothing was decided, e.g. the
// first observation for a territory).
func (c *Calculator) Calculate(prev, curr queenobs.Observation, decision *queenobs.SpawnDecision) Result {
	cfg := c.cfg
	components := make(map[string]float64)

	miningRate := -queenobs.Rate(float64(len(prev.MiningWorkers)), float64(len(curr.MiningWorkers)))
	protectorRate := -queenobs.Rate(float64(len(prev.Protectors)), float64(len(curr.Protectors)))
	energyRate := -queenobs.Rate(prev.PlayerEnergy.End, curr.PlayerEnergy.End)

	components["mining_disruption"] = miningRate
	components["protector_reduction"] = protectorRate
	components["player_energy_drain"] = energyRate

	total := cfg.MiningDisruptionWeight*miningRate +
		cfg.ProtectorReductionWeight*protectorRate +
		cfg.PlayerEnergyWeight*energyRate

	minersCleared := 0
	if len(prev.MiningWorkers) > 0 && len(curr.MiningWorkers) == 0 {
		minersCleared = 1
	}
	protectorsKilled := 0
	if d := len(prev.Protectors) - len(curr.Protectors); d > 0 {
		protectorsKilled = d
	}
	bonus := float64(minersCleared)*cfg.MiningClearedBonus + float64(protectorsKilled)*cfg.ProtectorKilledBonus
	components["bonus"] = bonus
	total += bonus

	if abs(miningRate) < cfg.NoImpactThreshold && abs(protectorRate) < cfg.NoImpactThreshold && abs(energyRate) < cfg.NoImpactThreshold {
		components["no_impact_penalty"] = cfg.NoImpactPenalty
		total += cfg.NoImpactPenalty
	}

	workersPresent := len(prev.WorkersPresent) > 0
	miningActive := len(prev.MiningWorkers) > 0
	mineralRate := -queenobs.Rate(prev.PlayerMinerals.End, curr.PlayerMinerals.End)

	wasSkipped := decision == nil || decision.NoSpawn()
	wasExecuted := decision != nil && !decision.NoSpawn()

	if wasSkipped {
		if workersPresent {
			components["workers_present_penalty"] = cfg.WorkersPresentPenalty
			total += cfg.WorkersPresentPenalty
		}
		if miningActive {
			components["active_mining_penalty"] = cfg.ActiveMiningPenalty
			total += cfg.ActiveMiningPenalty
		}
		if energyRate > 0 {
			p := energyRate * cfg.RatePenaltyMultiplier
			components["energy_rate_penalty"] = p
			total += p
		}
		if mineralRate > 0 {
			p := mineralRate * cfg.RatePenaltyMultiplier
			components["mineral_rate_penalty"] = p
			total += p
		}
	} else if wasExecuted && !workersPresent && !miningActive {
		components["wasted_spawn_penalty"] = cfg.WastedSpawnPenalty
		total += cfg.WastedSpawnPenalty
	}

	if wasExecuted {
		locationPenalty := c.spawnLocationReward(curr, *decision)
		components["spawn_location"] = locationPenalty
		total += locationPenalty
	}

	total = clamp(total, cfg.MinReward, cfg.MaxReward)
	c.record(total)

	return Result{Reward: total, Components: components}
}

func (c *Calculator) spawnLocationReward(curr queenobs.Observation, decision queenobs.SpawnDecision) float64 {
	cfg := c.cfg
	if len(curr.WorkersPresent) == 0 {
		d := queenobs.ChunkDistance(decision.SpawnChunk, curr.HiveChunk) / queenobs.MaxChunkDistance
		return -cfg.HiveProximityWeight * queenobs.Clip01(d)
	}

	minDist := queenobs.MaxChunkDistance
	for _, w := range curr.WorkersPresent {
		if d := queenobs.ChunkDistance(decision.SpawnChunk, w.ChunkID); d < minDist {
			minDist = d
		}
	}
	return -cfg.WorkerProximityWeight * queenobs.Clip01(minDist/queenobs.MaxChunkDistance)
}

func (c *Calculator) record(r float64) {
	c.history = append(c.history, r)
	if max := c.cfg.TrendWindow * 2; len(c.history) > max {
		c.history = c.history[len(c.history)-max:]
	}
}

// AverageReward returns the mean of the last window rewards (or all of
// them if window <= 0 or exceeds history length).
func (c *Calculator) AverageReward(window int) float64 {
	h := c.history
	if window > 0 && window < len(h) {
		h = h[len(h)-window:]
	}
	if len(h) == 0 {
		return 0
	}
	return stat.Mean(h, nil)
}

// RewardTrend compares the average of the most recent half-window
// against the older half, mirroring the original's threshold of 0.1.
func (c *Calculator) RewardTrend() Trend {
	w := c.cfg.TrendWindow
	if w <= 0 {
		w = 10
	}
	if len(c.history) < w {
		return TrendInsufficientData
	}
	recent := c.history[len(c.history)-w/2:]
	older := c.history[len(c.history)-w : len(c.history)-w/2]

	recentAvg := avg(recent)
	olderAvg := avg(older)
	diff := recentAvg - olderAvg

	switch {
	case diff > 0.1:
		return TrendImproving
	case diff < -0.1:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// Reset clears reward history.
func (c *Calculator) Reset() {
	c.history = nil
}

func avg(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	return stat.Mean(vs, nil)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
