package trainer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaushikhazra/nexus-of-mind/queen/network"
	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
	"github.com/kaushikhazra/nexus-of-mind/queen/replay"
)

func testContext() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

func newTestModel(t *testing.T) *network.PolicyNetwork {
	t.Helper()
	model, err := network.NewPolicyNetwork(network.DefaultHyperParams())
	require.NoError(t, err)
	return model
}

func sampleExperience(territory string) queenobs.Experience {
	var f queenobs.FeatureVector
	for i := range f {
		f[i] = 0.5
	}
	return queenobs.Experience{
		Observation: f,
		TopChunkIDs: queenobs.TopChunkIDs{1, 2, 3, 4, 5},
		SpawnChunk:  2,
		SpawnType:   queenobs.Energy,
		Quantity:    1,
		GateSignal:  0.2,
		TerritoryID: territory,
	}
}

func TestStepBatchAdvancesVersionAndMetadata(t *testing.T) {
	model := newTestModel(t)
	buf := replay.New(replay.DefaultConfig(), nil)
	tr := New(Config{BatchSize: 2}, model, buf, queenobs.ModelMetadata{Version: 5}, nil)

	tr.StepBatch([]queenobs.Experience{sampleExperience("t1")})

	assert.Equal(t, 6, tr.CurrentVersion())
	assert.Equal(t, 1, tr.meta.TotalTrainingIterations)
	assert.Equal(t, 1, tr.meta.TotalSamplesEverProcessed)
}

func TestStepBatchEmptyBatchStillAdvancesVersion(t *testing.T) {
	model := newTestModel(t)
	buf := replay.New(replay.DefaultConfig(), nil)
	tr := New(Config{BatchSize: 2}, model, buf, queenobs.ModelMetadata{}, nil)

	avg := tr.StepBatch(nil)
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, 1, tr.CurrentVersion())
}

func TestBlendRewardUsesGateSignalAloneWithoutActualReward(t *testing.T) {
	exp := sampleExperience("t1")
	assert.Equal(t, exp.GateSignal, blendReward(exp))
}

func TestBlendRewardMixesGateAndActual(t *testing.T) {
	exp := sampleExperience("t1")
	r := 1.0
	exp.ActualReward = &r
	want := queenobs.TrainingGateWeight*exp.GateSignal + queenobs.TrainingActualWeight*r
	assert.InDelta(t, want, blendReward(exp), 1e-9)
}

func TestFlushNoSaveDirIsNoop(t *testing.T) {
	model := newTestModel(t)
	buf := replay.New(replay.DefaultConfig(), nil)
	tr := New(Config{}, model, buf, queenobs.ModelMetadata{}, nil)
	assert.NoError(t, tr.Flush())
}

func TestFlushWritesModelToSaveDir(t *testing.T) {
	dir := t.TempDir()
	model := newTestModel(t)
	buf := replay.New(replay.DefaultConfig(), nil)
	tr := New(Config{SaveDir: dir}, model, buf, queenobs.ModelMetadata{}, nil)

	require.NoError(t, tr.Flush())

	restored := newTestModel(t)
	result, err := restored.Load(dir)
	require.NoError(t, err)
	assert.True(t, result.Loaded)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	model := newTestModel(t)
	buf := replay.New(replay.DefaultConfig(), nil)
	tr := New(Config{Interval: time.Hour}, model, buf, queenobs.ModelMetadata{}, nil)

	done := make(chan struct{})
	ctx, cancel := testContext()
	go func() {
		tr.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
