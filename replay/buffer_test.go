package replay

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

func newTestBuffer(capacity int) *Buffer {
	return New(Config{Capacity: capacity, LockTimeout: time.Second}, nil)
}

func TestAddWaitGoesStraightIntoRing(t *testing.T) {
	b := newTestBuffer(10)
	b.Add(queenobs.Experience{TerritoryID: "t1", WasExecuted: false})
	assert.Equal(t, 1, b.Len())
}

func TestAddSendWithoutRewardIsPending(t *testing.T) {
	b := newTestBuffer(10)
	b.Add(queenobs.Experience{TerritoryID: "t1", WasExecuted: true})
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 1, b.Stats().PendingCount)
}

func TestUpdatePendingRewardMovesIntoRing(t *testing.T) {
	b := newTestBuffer(10)
	b.Add(queenobs.Experience{TerritoryID: "t1", WasExecuted: true})

	exp, ok := b.UpdatePendingReward("t1", 0.7)
	require.True(t, ok)
	assert.Equal(t, 0.7, *exp.ActualReward)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 0, b.Stats().PendingCount)
}

func TestUpdatePendingRewardUnknownTerritoryReturnsFalse(t *testing.T) {
	b := newTestBuffer(10)
	_, ok := b.UpdatePendingReward("missing", 0.1)
	assert.False(t, ok)
}

func TestUpdatePendingRewardIsConsumedOnce(t *testing.T) {
	b := newTestBuffer(10)
	b.Add(queenobs.Experience{TerritoryID: "t1", WasExecuted: true})
	_, ok := b.UpdatePendingReward("t1", 0.1)
	require.True(t, ok)

	_, ok = b.UpdatePendingReward("t1", 0.2)
	assert.False(t, ok)
}

func TestAddEvictsOldestAtCapacity(t *testing.T) {
	b := newTestBuffer(2)
	b.Add(queenobs.Experience{SpawnChunk: 1})
	b.Add(queenobs.Experience{SpawnChunk: 2})
	b.Add(queenobs.Experience{SpawnChunk: 3})

	assert.Equal(t, 2, b.Len())
	drained := b.Drain()
	chunks := []int{drained[0].SpawnChunk, drained[1].SpawnChunk}
	assert.ElementsMatch(t, []int{2, 3}, chunks)
}

func TestSampleWithoutReplacement(t *testing.T) {
	b := newTestBuffer(10)
	for i := 0; i < 5; i++ {
		b.Add(queenobs.Experience{SpawnChunk: i})
	}
	sample := b.Sample(3, rand.New(rand.NewSource(1)))
	assert.Len(t, sample, 3)
	seen := map[int]bool{}
	for _, e := range sample {
		assert.False(t, seen[e.SpawnChunk])
		seen[e.SpawnChunk] = true
	}
}

func TestSampleCapsAtRingSize(t *testing.T) {
	b := newTestBuffer(10)
	b.Add(queenobs.Experience{SpawnChunk: 1})
	sample := b.Sample(5, rand.New(rand.NewSource(1)))
	assert.Len(t, sample, 1)
}

func TestSampleEmptyRingReturnsNil(t *testing.T) {
	b := newTestBuffer(10)
	assert.Nil(t, b.Sample(5, rand.New(rand.NewSource(1))))
}

func TestDrainEmptiesRingButKeepsPending(t *testing.T) {
	b := newTestBuffer(10)
	b.Add(queenobs.Experience{SpawnChunk: 1})
	b.Add(queenobs.Experience{TerritoryID: "t1", WasExecuted: true})

	drained := b.Drain()
	assert.Len(t, drained, 1)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 1, b.Stats().PendingCount)
}

func TestClearResetsEverything(t *testing.T) {
	b := newTestBuffer(10)
	b.Add(queenobs.Experience{SpawnChunk: 1})
	b.Add(queenobs.Experience{TerritoryID: "t1", WasExecuted: true})
	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Stats().PendingCount)
}

func TestStatsUtilization(t *testing.T) {
	b := newTestBuffer(4)
	b.Add(queenobs.Experience{SpawnChunk: 1})
	b.Add(queenobs.Experience{SpawnChunk: 2})

	stats := b.Stats()
	assert.InDelta(t, 0.5, stats.Utilization, 1e-9)
	assert.Equal(t, 2, stats.RingSize)
}
