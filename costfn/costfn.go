// Package costfn predicts the expected reward of a candidate spawn
// using closed-form game dynamics instead of running the game
// forward. It is the ground truth the simulation gate rules on.
package costfn

import (
	"math"

	"github.com/kaushikhazra/nexus-of-mind/queen/costfn/exploration"
	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

// Config holds the tunables for every sub-component, grounded on
// simulation/components/{disruption,location,capacity}.py and
// simulation/config.py.
type Config struct {
	KillRange      float64
	SafeRange      float64
	ThreatDecay    float64 // λ
	FleeRange      float64
	IgnoreRange    float64
	DisruptionDecay float64 // μ

	HiveProximityWeight   float64 // α
	WorkerProximityWeight float64 // β

	EnergyParasiteCost float64
	CombatParasiteCost float64

	SurvivalWeight   float64
	DisruptionWeight float64
	LocationWeight   float64

	Threshold float64
}

// DefaultConfig mirrors simulation/config.py, with the grid-dependent
// distance normalization resolved in favor of the 16x16/256-chunk
// grid (see DESIGN.md).
func DefaultConfig() Config {
	return Config{
		KillRange:       2.0,
		SafeRange:       8.0,
		ThreatDecay:     0.5,
		FleeRange:       3.0,
		IgnoreRange:     10.0,
		DisruptionDecay: 0.3,

		HiveProximityWeight:   0.3,
		WorkerProximityWeight: 0.4,

		EnergyParasiteCost: queenobs.EnergyParasiteCost,
		CombatParasiteCost: queenobs.CombatParasiteCost,

		SurvivalWeight:   queenobs.SurvivalWeight,
		DisruptionWeight: queenobs.DisruptionWeight,
		LocationWeight:   queenobs.LocationWeight,

		Threshold: queenobs.GateThreshold,
	}
}

// Summary is the slice of an observation the cost function needs: the
// positions of protectors, workers, the hive, and the Queen's energy.
// The orchestrator builds this once per tick from the full
// observation so the gate's candidate scan doesn't re-walk it.
type Summary struct {
	ProtectorChunks []int
	WorkerChunks    []int
	HiveChunk       int
	QueenEnergy     float64
}

// Result is the full component breakdown behind one expected-reward
// evaluation.
type Result struct {
	ExpectedReward float64
	Survival       float64
	Disruption     float64
	Location       float64
	Exploration    float64
	CapacityValid  bool
}

// Components renders the result as a plain map for gate metrics.
func (r Result) Components() map[string]float64 {
	return map[string]float64{
		"survival":   r.Survival,
		"disruption": r.Disruption,
		"location":   r.Location,
		"exploration": r.Exploration,
	}
}

// Evaluator combines a Config with an exploration tracker to produce
// expected-reward evaluations.
type Evaluator struct {
	cfg     Config
	tracker *exploration.Tracker
}

// NewEvaluator builds an Evaluator.
func NewEvaluator(cfg Config, tracker *exploration.Tracker) *Evaluator {
	return &Evaluator{cfg: cfg, tracker: tracker}
}

// ExpectedReward implements §4.5's R_base + exploration_bonus formula,
// returning -Inf when the Queen cannot afford spawnType.
func (e *Evaluator) ExpectedReward(obs Summary, spawnChunk int, spawnType queenobs.ParasiteType) Result {
	capacityValid := validateCapacity(obs.QueenEnergy, spawnType, e.cfg)
	if !capacityValid {
		return Result{ExpectedReward: math.Inf(-1), CapacityValid: false}
	}

	survival := survivalProbability(spawnChunk, obs.ProtectorChunks, e.cfg)
	disruption := workerDisruption(spawnChunk, obs.WorkerChunks, survival, e.cfg)
	location := locationPenalty(spawnChunk, obs.HiveChunk, obs.WorkerChunks, e.cfg)

	base := e.cfg.SurvivalWeight*survival + e.cfg.DisruptionWeight*disruption + e.cfg.LocationWeight*location

	bonus := 0.0
	if e.tracker != nil {
		bonus = e.tracker.Bonus(spawnChunk)
	}

	return Result{
		ExpectedReward: base + bonus,
		Survival:       survival,
		Disruption:     disruption,
		Location:       location,
		Exploration:    bonus,
		CapacityValid:  true,
	}
}

// RecordSpawn forwards to the exploration tracker.
func (e *Evaluator) RecordSpawn(chunkID int) {
	if e.tracker != nil {
		e.tracker.RecordSpawn(chunkID)
	}
}

func validateCapacity(queenEnergy float64, t queenobs.ParasiteType, cfg Config) bool {
	cost := cfg.EnergyParasiteCost
	if t == queenobs.Combat {
		cost = cfg.CombatParasiteCost
	}
	return queenEnergy >= cost
}

// survivalProbability treats protector threats as independent: the
// combined survival chance is the product of each protector's
// individual non-kill probability.
func survivalProbability(spawnChunk int, protectorChunks []int, cfg Config) float64 {
	if len(protectorChunks) == 0 {
		return 1.0
	}
	p := 1.0
	for _, pc := range protectorChunks {
		d := queenobs.ChunkDistance(spawnChunk, pc)
		p *= survivalAtDistance(d, cfg)
	}
	return p
}

func survivalAtDistance(d float64, cfg Config) float64 {
	switch {
	case d < cfg.KillRange:
		return 0
	case d >= cfg.SafeRange:
		return 1
	default:
		return math.Exp(-cfg.ThreatDecay * (d - cfg.KillRange))
	}
}

// workerDisruption sums each worker's disruption contribution, scales
// by survival probability, and normalizes by worker count.
func workerDisruption(spawnChunk int, workerChunks []int, survival float64, cfg Config) float64 {
	if spawnChunk < 0 || len(workerChunks) == 0 {
		return 0
	}
	total := 0.0
	for _, wc := range workerChunks {
		d := queenobs.ChunkDistance(spawnChunk, wc)
		total += disruptionAtDistance(d, cfg)
	}
	total *= survival
	return total / float64(len(workerChunks))
}

func disruptionAtDistance(d float64, cfg Config) float64 {
	switch {
	case d < cfg.FleeRange:
		return 1.0
	case d >= cfg.IgnoreRange:
		return 0
	default:
		return math.Exp(-cfg.DisruptionDecay * (d - cfg.FleeRange))
	}
}

// locationPenalty is IDLE-mode (no workers) proximity to the hive, or
// ACTIVE-mode proximity to the nearest worker, both penalized.
func locationPenalty(spawnChunk, hiveChunk int, workerChunks []int, cfg Config) float64 {
	if spawnChunk < 0 {
		return -1.0
	}
	if len(workerChunks) == 0 {
		if hiveChunk < 0 {
			return -1.0
		}
		d := queenobs.ChunkDistance(spawnChunk, hiveChunk) / queenobs.MaxChunkDistance
		return -cfg.HiveProximityWeight * queenobs.Clip01(d)
	}

	minDist := queenobs.MaxChunkDistance
	for _, wc := range workerChunks {
		if d := queenobs.ChunkDistance(spawnChunk, wc); d < minDist {
			minDist = d
		}
	}
	return -cfg.WorkerProximityWeight * queenobs.Clip01(minDist/queenobs.MaxChunkDistance)
}
