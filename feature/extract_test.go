package feature

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

func TestExtractEmptyObservationStaysInRangeWithEmptySlots(t *testing.T) {
	obs := queenobs.Observation{}
	features, top := Extract(obs, DefaultConfig(), nil)

	for i, f := range features {
		assert.GreaterOrEqualf(t, f, 0.0, "feature %d below 0", i)
		assert.LessOrEqualf(t, f, 1.0, "feature %d above 1", i)
	}
	for _, c := range top {
		assert.Equal(t, -1, c)
	}
}

func TestExtractFillsTopWorkerChunks(t *testing.T) {
	obs := queenobs.Observation{
		WorkersPresent: []queenobs.EntityRef{
			{ChunkID: 10}, {ChunkID: 10}, {ChunkID: 20},
		},
	}
	// nil rng disables the shuffle, so slot 0 is deterministically the
	// highest-count chunk.
	features, top := Extract(obs, DefaultConfig(), nil)

	assert.Equal(t, 10, top[0])
	assert.Equal(t, 20, top[1])
	assert.Equal(t, -1, top[2])

	assert.InDelta(t, float64(10)/float64(queenobs.TotalChunks-1), features[0], 1e-9)
	assert.InDelta(t, 2.0/3.0, features[1], 1e-9)
}

func TestExtractClipsEveryFeatureTo01(t *testing.T) {
	obs := queenobs.Observation{
		QueenEnergy:    queenobs.EnergyState{Current: 1e9},
		PlayerEnergy:   queenobs.CountRange{Start: 0, End: 1000},
		PlayerMinerals: queenobs.CountRange{Start: 1000, End: 0},
	}
	features, _ := Extract(obs, DefaultConfig(), rand.New(rand.NewSource(1)))
	for i, f := range features {
		assert.GreaterOrEqualf(t, f, 0.0, "feature %d", i)
		assert.LessOrEqualf(t, f, 1.0, "feature %d", i)
	}
	// energy rising from zero maps to the top of the unit range; minerals
	// drained to zero map to the bottom
	assert.InDelta(t, 1.0, features[27], 1e-9)
	assert.InDelta(t, 0.0, features[28], 1e-9)
}

func TestSpawnCapacityFeatures(t *testing.T) {
	cfg := DefaultConfig()
	obs := queenobs.Observation{QueenEnergy: queenobs.EnergyState{Current: cfg.MaxEnergy}}
	features, _ := Extract(obs, cfg, nil)
	assert.InDelta(t, 1.0, features[25], 1e-9)
	assert.InDelta(t, 1.0, features[26], 1e-9)
}

func TestDecodeChunkExactSlot(t *testing.T) {
	top := queenobs.TopChunkIDs{5, 6, -1, -1, -1}
	got := DecodeChunk(top, 1, [queenobs.TopChunkSlots]float64{}, nil)
	assert.Equal(t, 6, got)
}

func TestDecodeChunkFallsBackToHighestProbPopulatedSlot(t *testing.T) {
	top := queenobs.TopChunkIDs{-1, 7, -1, 9, -1}
	probs := [queenobs.TopChunkSlots]float64{0.1, 0.2, 0.9, 0.8, 0.0}
	// relativeIndex 0 is empty; among populated slots (1, 3), slot 3 has
	// the higher probability (0.8 > 0.2).
	got := DecodeChunk(top, 0, probs, nil)
	assert.Equal(t, 9, got)
}

func TestDecodeChunkFallsBackToRandomWhenAllEmpty(t *testing.T) {
	top := queenobs.TopChunkIDs{-1, -1, -1, -1, -1}
	rng := rand.New(rand.NewSource(42))
	got := DecodeChunk(top, 0, [queenobs.TopChunkSlots]float64{}, rng)
	assert.GreaterOrEqual(t, got, 0)
	assert.Less(t, got, queenobs.TotalChunks)
}

func TestDecodeChunkFallsBackToZeroWithNoRNG(t *testing.T) {
	top := queenobs.TopChunkIDs{-1, -1, -1, -1, -1}
	got := DecodeChunk(top, 0, [queenobs.TopChunkSlots]float64{}, nil)
	assert.Equal(t, 0, got)
}
