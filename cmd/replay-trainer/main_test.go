package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

func TestRecordToExperience(t *testing.T) {
	reward := 0.6
	r := record{
		SpawnChunk:   10,
		SpawnType:    1,
		Quantity:     2,
		GateSignal:   0.3,
		WasExecuted:  true,
		ActualReward: &reward,
		TerritoryID:  "t1",
		ModelVersion: 4,
	}
	exp := r.toExperience()
	assert.Equal(t, 10, exp.SpawnChunk)
	assert.Equal(t, queenobs.Combat, exp.SpawnType)
	assert.Equal(t, 2, exp.Quantity)
	assert.True(t, exp.WasExecuted)
	assert.Equal(t, 0.6, *exp.ActualReward)
	assert.Equal(t, "t1", exp.TerritoryID)
	assert.Equal(t, 4, exp.ModelVersion)
}

func TestReadAllSkipsBlankLines(t *testing.T) {
	input := "{\"spawnChunk\":1,\"territoryId\":\"a\"}\n\n{\"spawnChunk\":2,\"territoryId\":\"b\"}\n"
	experiences, err := readAll(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, experiences, 2)
	assert.Equal(t, 1, experiences[0].SpawnChunk)
	assert.Equal(t, 2, experiences[1].SpawnChunk)
}

func TestReadAllRejectsMalformedLine(t *testing.T) {
	_, err := readAll(strings.NewReader("not json\n"))
	assert.Error(t, err)
}
