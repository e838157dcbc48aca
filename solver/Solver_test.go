package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVanillaBuildsAUsableSolver(t *testing.T) {
	s, err := NewVanilla(0.01, 1, -1)
	require.NoError(t, err)
	assert.NotNil(t, s.Solver)
	assert.Equal(t, Vanilla, s.Type)
}

func TestNewVanillaWithClip(t *testing.T) {
	s, err := NewVanilla(0.01, 1, 0.5)
	require.NoError(t, err)
	assert.NotNil(t, s.Solver)
}

func TestNewAdamBuildsAUsableSolver(t *testing.T) {
	s, err := NewDefaultAdam(0.001, 1)
	require.NoError(t, err)
	assert.NotNil(t, s.Solver)
	assert.Equal(t, Adam, s.Type)
}

func TestNewSolverRejectsMismatchedConfig(t *testing.T) {
	_, err := newSolver(Adam, VanillaConfig{})
	assert.Error(t, err)
}
