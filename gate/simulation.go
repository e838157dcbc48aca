package gate

import (
	"math"

	"github.com/kaushikhazra/nexus-of-mind/queen/costfn"
	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

// SimulationConfig tunes the gate itself, separate from the cost
// function's own Config.
type SimulationConfig struct {
	Enabled bool

	// Threshold mirrors costfn.Config.Threshold; kept here too so the
	// gate can be configured independently of the evaluator in tests.
	Threshold float64

	// SimulationModeSentinel: when Threshold is below this value the
	// gate becomes a pass-through (§4.6's diagnostic hook for a
	// training simulator).
	SimulationModeSentinel float64

	// MaxCandidates caps the no-spawn scan so it stays cheap even on a
	// crowded board.
	MaxCandidates int
}

// DefaultSimulationConfig mirrors simulation/gate.py.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Enabled:                true,
		Threshold:              queenobs.GateThreshold,
		SimulationModeSentinel: -1000,
		MaxCandidates:          20,
	}
}

func (c SimulationConfig) simulationMode() bool {
	return c.Threshold < c.SimulationModeSentinel
}

// Simulation is the cost-function-gated spawn/no-spawn authority (C6).
type Simulation struct {
	cfg       SimulationConfig
	evaluator *costfn.Evaluator
}

// NewSimulation builds a Simulation gate.
func NewSimulation(cfg SimulationConfig, evaluator *costfn.Evaluator) *Simulation {
	return &Simulation{cfg: cfg, evaluator: evaluator}
}

// Evaluate is the state machine described in §4.6.
func (s *Simulation) Evaluate(obs costfn.Summary, spawnChunk int, spawnType queenobs.ParasiteType, nnConfidence float64) queenobs.GateDecision {
	if s.cfg.simulationMode() {
		return queenobs.GateDecision{
			Outcome:       queenobs.Send,
			Reason:        queenobs.ReasonSimulationMode,
			ExpectedReward: 0,
			NNConfidence:  nnConfidence,
			Components:    map[string]float64{},
		}
	}

	if spawnChunk < 0 {
		return s.evaluateNoSpawn(obs, nnConfidence)
	}
	return s.evaluateSpawn(obs, spawnChunk, spawnType, nnConfidence)
}

func (s *Simulation) evaluateSpawn(obs costfn.Summary, spawnChunk int, spawnType queenobs.ParasiteType, nnConfidence float64) queenobs.GateDecision {
	if !s.cfg.Enabled {
		return queenobs.GateDecision{
			Outcome:       queenobs.Send,
			Reason:        queenobs.ReasonGateDisabled,
			ExpectedReward: 0,
			NNConfidence:  nnConfidence,
			Components:    map[string]float64{},
		}
	}

	result := s.evaluator.ExpectedReward(obs, spawnChunk, spawnType)
	decision := queenobs.GateDecision{
		ExpectedReward: result.ExpectedReward,
		NNConfidence:   nnConfidence,
		Components:     result.Components(),
	}

	switch {
	case !result.CapacityValid:
		decision.Outcome = queenobs.Wait
		decision.Reason = queenobs.ReasonInsufficientEnergy
	case result.ExpectedReward > s.cfg.Threshold:
		decision.Outcome = queenobs.Send
		decision.Reason = queenobs.ReasonPositiveReward
		s.evaluator.RecordSpawn(spawnChunk)
	default:
		decision.Outcome = queenobs.Wait
		decision.Reason = queenobs.ReasonNegativeReward
	}
	return decision
}

func (s *Simulation) evaluateNoSpawn(obs costfn.Summary, nnConfidence float64) queenobs.GateDecision {
	best := s.findBestSpawn(obs)

	if best.found && best.result.ExpectedReward > s.cfg.Threshold {
		return queenobs.GateDecision{
			Outcome:        queenobs.ShouldSpawn,
			Reason:         queenobs.ReasonMissedOpportunity,
			ExpectedReward: -math.Abs(best.result.ExpectedReward),
			NNConfidence:   nnConfidence,
			Components:     best.result.Components(),
		}
	}

	return queenobs.GateDecision{
		Outcome:        queenobs.CorrectWait,
		Reason:         queenobs.ReasonNoViableTargets,
		ExpectedReward: 0.2,
		NNConfidence:   nnConfidence,
		Components:     map[string]float64{},
	}
}

type bestCandidate struct {
	found  bool
	chunk  int
	result costfn.Result
}

// findBestSpawn scans candidate chunks near current activity (every
// worker chunk plus its 8 grid neighbors, capped at MaxCandidates)
// across both parasite types, and returns the highest-reward result.
func (s *Simulation) findBestSpawn(obs costfn.Summary) bestCandidate {
	candidates := candidateChunks(obs.WorkerChunks, s.cfg.MaxCandidates)

	var best bestCandidate
	for _, chunk := range candidates {
		for _, t := range []queenobs.ParasiteType{queenobs.Energy, queenobs.Combat} {
			r := s.evaluator.ExpectedReward(obs, chunk, t)
			if math.IsInf(r.ExpectedReward, -1) {
				continue
			}
			if !best.found || r.ExpectedReward > best.result.ExpectedReward {
				best = bestCandidate{found: true, chunk: chunk, result: r}
			}
		}
	}
	return best
}

// candidateChunks returns each worker chunk and its 8 grid neighbors,
// deduplicated, capped at max.
func candidateChunks(workerChunks []int, max int) []int {
	seen := make(map[int]bool)
	var out []int
	add := func(c int) bool {
		if c < 0 || c >= queenobs.TotalChunks || seen[c] {
			return len(out) < max
		}
		seen[c] = true
		out = append(out, c)
		return len(out) < max
	}

	for _, wc := range workerChunks {
		if !add(wc) {
			return out
		}
		row, col := queenobs.ChunkCoord(wc)
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				nr, ncol := row+dr, col+dc
				if nr < 0 || nr >= queenobs.ChunksPerAxis || ncol < 0 || ncol >= queenobs.ChunksPerAxis {
					continue
				}
				if !add(nr*queenobs.ChunksPerAxis + ncol) {
					return out
				}
			}
		}
	}
	return out
}
