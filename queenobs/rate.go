package queenobs

import (
	"math"

	"github.com/kaushikhazra/nexus-of-mind/queen/utils/floatutils"
)

// Rate computes the signed rate of change between two non-negative
// counts, in [-1, 1]. It is 0 when both are 0 (avoids a 0/0 NaN).
func Rate(start, end float64) float64 {
	if start == 0 && end == 0 {
		return 0
	}
	max := start
	if end > max {
		max = end
	}
	if max == 0 {
		return 0
	}
	return (end - start) / max
}

// UnitRemap maps a rate in [-1, 1] to [0, 1].
func UnitRemap(r float64) float64 {
	return (r + 1) / 2
}

// Clip01 clamps a value to [0, 1].
func Clip01(v float64) float64 {
	return floatutils.Clip(v, 0, 1)
}

// ClipSigned clamps a value to [-1, 1].
func ClipSigned(v float64) float64 {
	return floatutils.Clip(v, -1, 1)
}

// ChunkCoord decodes a chunk id into its (row, col) grid coordinates.
func ChunkCoord(chunkID int) (row, col int) {
	return chunkID / ChunksPerAxis, chunkID % ChunksPerAxis
}

// ChunkDistance returns the Euclidean distance between two chunks on
// the grid.
func ChunkDistance(a, b int) float64 {
	ar, ac := ChunkCoord(a)
	br, bc := ChunkCoord(b)
	dr := float64(ar - br)
	dc := float64(ac - bc)
	return math.Sqrt(dr*dr + dc*dc)
}

// MaxChunkDistance is the diagonal of the grid, used to normalize
// distances into [0, 1]. For a 16x16 grid this is sqrt(15^2+15^2),
// not the 19x19-grid value the original reference source used.
var MaxChunkDistance = math.Sqrt(float64((ChunksPerAxis - 1) * (ChunksPerAxis - 1) * 2))
