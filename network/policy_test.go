package network

import (
	"encoding/json"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
	qsolver "github.com/kaushikhazra/nexus-of-mind/queen/solver"
)

func writeIncompatibleMeta(path string) error {
	meta := queenobs.ModelMetadata{ArchitectureVersion: queenobs.CurrentArchitectureVersion + 1, Framework: queenobs.FrameworkTag}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func sampleFeatures() queenobs.FeatureVector {
	var f queenobs.FeatureVector
	for i := range f {
		f[i] = 0.5
	}
	return f
}

func TestGetSpawnDecisionGreedyIsDeterministic(t *testing.T) {
	model, err := NewPolicyNetwork(DefaultHyperParams())
	require.NoError(t, err)

	top := queenobs.TopChunkIDs{1, 2, 3, 4, 5}
	first, err := model.GetSpawnDecision(sampleFeatures(), top, false, nil)
	require.NoError(t, err)
	second, err := model.GetSpawnDecision(sampleFeatures(), top, false, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNewPolicyNetworkWithRMSPropOptimizer(t *testing.T) {
	hp := DefaultHyperParams()
	hp.Optimizer = qsolver.RMSProp
	model, err := NewPolicyNetwork(hp)
	require.NoError(t, err)

	top := queenobs.TopChunkIDs{1, 2, 3, 4, 5}
	_, err = model.GetSpawnDecision(sampleFeatures(), top, false, nil)
	require.NoError(t, err)
}

func TestGetSpawnDecisionReturnsAPopulatedChunk(t *testing.T) {
	model, err := NewPolicyNetwork(DefaultHyperParams())
	require.NoError(t, err)

	top := queenobs.TopChunkIDs{7, -1, -1, -1, -1}
	decision, err := model.GetSpawnDecision(sampleFeatures(), top, false, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 7, decision.SpawnChunk)
}

func TestTrainStepReturnsLossPerHead(t *testing.T) {
	model, err := NewPolicyNetwork(DefaultHyperParams())
	require.NoError(t, err)

	exp := queenobs.Experience{
		Observation: sampleFeatures(),
		TopChunkIDs: queenobs.TopChunkIDs{1, 2, 3, 4, 5},
		SpawnChunk:  2,
		SpawnType:   queenobs.Energy,
		Quantity:    1,
	}
	losses, err := model.TrainStep(exp, 0.5)
	require.NoError(t, err)
	for _, head := range []string{"n1", "n3", "n4", "n5"} {
		assert.Containsf(t, losses, head, "missing loss for %s", head)
	}
	assert.NotContains(t, losses, "n2")
}

func TestTrainStepOnCombatUpdatesN2NotN1(t *testing.T) {
	model, err := NewPolicyNetwork(DefaultHyperParams())
	require.NoError(t, err)

	exp := queenobs.Experience{
		Observation: sampleFeatures(),
		TopChunkIDs: queenobs.TopChunkIDs{1, 2, 3, 4, 5},
		SpawnChunk:  2,
		SpawnType:   queenobs.Combat,
		Quantity:    1,
	}
	losses, err := model.TrainStep(exp, 0.5)
	require.NoError(t, err)
	assert.Contains(t, losses, "n2")
	assert.NotContains(t, losses, "n1")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	model, err := NewPolicyNetwork(DefaultHyperParams())
	require.NoError(t, err)

	meta := queenobs.ModelMetadata{Version: 3, BestLoss: 0.42}
	require.NoError(t, model.Save(dir, meta))

	restored, err := NewPolicyNetwork(DefaultHyperParams())
	require.NoError(t, err)
	result, err := restored.Load(dir)
	require.NoError(t, err)
	assert.True(t, result.Loaded)
	assert.Equal(t, 3, result.Meta.Version)
	assert.Equal(t, 0.42, result.Meta.BestLoss)
}

func TestLoadMissingDirIsNotAnError(t *testing.T) {
	model, err := NewPolicyNetwork(DefaultHyperParams())
	require.NoError(t, err)

	result, err := model.Load(t.TempDir() + "/does-not-exist")
	require.NoError(t, err)
	assert.False(t, result.Loaded)
}

func TestLoadIncompatibleArchitectureBacksUpAndStartsFresh(t *testing.T) {
	dir := t.TempDir()
	model, err := NewPolicyNetwork(DefaultHyperParams())
	require.NoError(t, err)
	require.NoError(t, model.Save(dir, queenobs.ModelMetadata{Version: 1}))

	// corrupt the on-disk architecture version by saving again through a
	// hand-rolled incompatible meta file
	metaPath := dir + "/" + metaFileName
	require.NoError(t, writeIncompatibleMeta(metaPath))

	result, err := model.Load(dir)
	require.NoError(t, err)
	assert.False(t, result.Loaded)
	assert.NotEmpty(t, result.Backedup)
}
