package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaushikhazra/nexus-of-mind/queen/orchestrator"
	qsolver "github.com/kaushikhazra/nexus-of-mind/queen/solver"
)

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
exploreRate: 0.25
cost:
  threshold: 0.5
trainer:
  batchSize: 64
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, f.ExploreRate)
	assert.Equal(t, 0.5, f.Cost.Threshold)
	assert.Equal(t, 64, f.Trainer.BatchSize)
}

func TestOrchestratorConfigOverlaysOnlyNonZero(t *testing.T) {
	f := File{}
	f.ExploreRate = 0.9
	cfg := f.OrchestratorConfig()

	defaults := orchestrator.DefaultConfig()
	assert.Equal(t, 0.9, cfg.ExploreRate)
	assert.Equal(t, defaults.Cost.KillRange, cfg.Cost.KillRange)
}

func TestOrchestratorConfigThresholdAppliesToBothCostAndSimulation(t *testing.T) {
	f := File{}
	f.Cost.Threshold = 0.77
	cfg := f.OrchestratorConfig()

	assert.Equal(t, 0.77, cfg.Cost.Threshold)
	assert.Equal(t, 0.77, cfg.Simulation.Threshold)
}

func TestNetworkHyperParamsDefaultWhenUnset(t *testing.T) {
	f := File{}
	hp := f.NetworkHyperParams()
	assert.Greater(t, hp.LearningRate, 0.0)
}

func TestNetworkHyperParamsOverlaysOptimizer(t *testing.T) {
	f := File{}
	f.Network.Optimizer = "RMSProp"
	hp := f.NetworkHyperParams()
	assert.Equal(t, qsolver.RMSProp, hp.Optimizer)
}

func TestTrainerConfigOverlaysDuration(t *testing.T) {
	f := File{}
	f.Trainer.IntervalSeconds = 15
	cfg := f.TrainerConfig()
	assert.Equal(t, 15*time.Second, cfg.Interval)
}
