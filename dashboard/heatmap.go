// Package dashboard renders read-only diagnostic views of the Queen's
// state. It never reads global state: every renderer takes its
// snapshot as an explicit argument, per SPEC_FULL.md §9's rejection of
// a singleton dashboard.
package dashboard

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/kaushikhazra/nexus-of-mind/queen/costfn/exploration"
	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

// HeatmapConfig tunes the rendered image.
type HeatmapConfig struct {
	CellSize int
}

// DefaultHeatmapConfig renders each chunk as an 8x8 pixel cell, giving
// a 128x128 image for the 16x16 grid.
func DefaultHeatmapConfig() HeatmapConfig {
	return HeatmapConfig{CellSize: 8}
}

// RenderExplorationHeatmap draws one cell per chunk, shaded by how
// recently the Queen spawned into it: red means long untouched (high
// bonus, worth exploring), green means recently spawned.
func RenderExplorationHeatmap(tracker *exploration.Tracker, maxTime float64, cfg HeatmapConfig) *gg.Context {
	side := queenobs.ChunksPerAxis * cfg.CellSize
	dc := gg.NewContext(side, side)
	dc.SetColor(color.Black)
	dc.Clear()

	for chunkID := 0; chunkID < queenobs.TotalChunks; chunkID++ {
		row, col := queenobs.ChunkCoord(chunkID)
		age := tracker.TimeSinceSpawn(chunkID).Seconds()
		ratio := age / maxTime
		if ratio > 1 {
			ratio = 1
		}
		dc.SetColor(color.RGBA{
			R: uint8(40 + ratio*180),
			G: uint8(40 + (1-ratio)*120),
			B: 60,
			A: 255,
		})
		x := float64(col * cfg.CellSize)
		y := float64(row * cfg.CellSize)
		dc.DrawRectangle(x, y, float64(cfg.CellSize), float64(cfg.CellSize))
		dc.Fill()
	}

	return dc
}

// RenderGateOutcomes draws a simple horizontal bar showing a run of
// recent gate outcomes, one narrow bar per sample, colored by
// Send/Wait/CorrectWait/ShouldSpawn.
func RenderGateOutcomes(outcomes []queenobs.GateOutcome, cfg HeatmapConfig) *gg.Context {
	width := len(outcomes) * cfg.CellSize
	if width == 0 {
		width = cfg.CellSize
	}
	height := cfg.CellSize * 2
	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	for i, o := range outcomes {
		dc.SetColor(outcomeColor(o))
		x := float64(i * cfg.CellSize)
		dc.DrawRectangle(x, 0, float64(cfg.CellSize), float64(height))
		dc.Fill()
	}
	return dc
}

func outcomeColor(o queenobs.GateOutcome) color.Color {
	switch o {
	case queenobs.Send:
		return color.RGBA{R: 50, G: 180, B: 70, A: 255}
	case queenobs.ShouldSpawn:
		return color.RGBA{R: 220, G: 160, B: 40, A: 255}
	case queenobs.CorrectWait:
		return color.RGBA{R: 90, G: 120, B: 200, A: 255}
	default:
		return color.RGBA{R: 150, G: 150, B: 150, A: 255}
	}
}

// SavePNG writes dc to path, a thin wrapper so callers don't need to
// import fogleman/gg themselves just to save a result.
func SavePNG(dc *gg.Context, path string) error {
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("dashboard: save png: %v", err)
	}
	return nil
}
