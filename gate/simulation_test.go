package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaushikhazra/nexus-of-mind/queen/costfn"
	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

func TestEvaluateSimulationModePassesThrough(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.Threshold = -2000
	s := NewSimulation(cfg, costfn.NewEvaluator(costfn.DefaultConfig(), nil))

	decision := s.Evaluate(costfn.Summary{}, 10, queenobs.Energy, 0.9)
	assert.Equal(t, queenobs.Send, decision.Outcome)
	assert.Equal(t, queenobs.ReasonSimulationMode, decision.Reason)
}

func TestEvaluateGateDisabledAlwaysSends(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.Enabled = false
	s := NewSimulation(cfg, costfn.NewEvaluator(costfn.DefaultConfig(), nil))

	decision := s.Evaluate(costfn.Summary{QueenEnergy: 100}, 10, queenobs.Energy, 0.5)
	assert.Equal(t, queenobs.Send, decision.Outcome)
	assert.Equal(t, queenobs.ReasonGateDisabled, decision.Reason)
}

func TestEvaluateInsufficientEnergyWaits(t *testing.T) {
	s := NewSimulation(DefaultSimulationConfig(), costfn.NewEvaluator(costfn.DefaultConfig(), nil))
	decision := s.Evaluate(costfn.Summary{QueenEnergy: 0}, 10, queenobs.Energy, 0.5)
	assert.Equal(t, queenobs.Wait, decision.Outcome)
	assert.Equal(t, queenobs.ReasonInsufficientEnergy, decision.Reason)
}

func TestEvaluatePositiveRewardSends(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.Threshold = -10 // trivially below any achievable reward
	s := NewSimulation(cfg, costfn.NewEvaluator(costfn.DefaultConfig(), nil))

	decision := s.Evaluate(costfn.Summary{QueenEnergy: 100}, 10, queenobs.Energy, 0.5)
	assert.Equal(t, queenobs.Send, decision.Outcome)
	assert.Equal(t, queenobs.ReasonPositiveReward, decision.Reason)
}

func TestEvaluateNegativeRewardWaits(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.Threshold = 10 // unreachably high
	s := NewSimulation(cfg, costfn.NewEvaluator(costfn.DefaultConfig(), nil))

	decision := s.Evaluate(costfn.Summary{QueenEnergy: 100}, 10, queenobs.Energy, 0.5)
	assert.Equal(t, queenobs.Wait, decision.Outcome)
	assert.Equal(t, queenobs.ReasonNegativeReward, decision.Reason)
}

func TestEvaluateNoSpawnWithNoViableTargets(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.Threshold = 10 // unreachably high, so every scanned candidate fails
	s := NewSimulation(cfg, costfn.NewEvaluator(costfn.DefaultConfig(), nil))

	decision := s.Evaluate(costfn.Summary{QueenEnergy: 100}, -1, queenobs.Energy, 0.5)
	assert.Equal(t, queenobs.CorrectWait, decision.Outcome)
	assert.Equal(t, queenobs.ReasonNoViableTargets, decision.Reason)
}

func TestEvaluateNoSpawnMissedOpportunity(t *testing.T) {
	cfg := DefaultSimulationConfig()
	cfg.Threshold = -10
	s := NewSimulation(cfg, costfn.NewEvaluator(costfn.DefaultConfig(), nil))

	decision := s.Evaluate(costfn.Summary{QueenEnergy: 100, WorkerChunks: []int{40}}, -1, queenobs.Energy, 0.5)
	assert.Equal(t, queenobs.ShouldSpawn, decision.Outcome)
	assert.Equal(t, queenobs.ReasonMissedOpportunity, decision.Reason)
	assert.LessOrEqual(t, decision.ExpectedReward, 0.0)
}

func TestCandidateChunksDeduplicatesAndCaps(t *testing.T) {
	chunks := candidateChunks([]int{0, 1}, 3)
	assert.Len(t, chunks, 3)
	seen := map[int]bool{}
	for _, c := range chunks {
		assert.False(t, seen[c], "duplicate chunk %d", c)
		seen[c] = true
	}
}
