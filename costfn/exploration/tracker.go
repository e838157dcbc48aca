// Package exploration tracks how recently the Queen has spawned into
// each chunk, feeding an exploration bonus into the cost function so
// long-idle chunks become more attractive targets over time.
package exploration

import (
	"sync"
	"time"
)

// Config tunes the bonus curve.
type Config struct {
	Coefficient float64       // ε
	MaxTime     time.Duration // T_max
}

// DefaultConfig mirrors simulation/components/exploration.py.
func DefaultConfig() Config {
	return Config{
		Coefficient: 0.35,
		MaxTime:     300 * time.Second,
	}
}

// Tracker records the last spawn time per chunk.
type Tracker struct {
	mu        sync.Mutex
	cfg       Config
	lastSpawn map[int]time.Time
	startedAt time.Time
	now       func() time.Time
}

// New builds a Tracker. now defaults to time.Now if nil; tests can
// inject a deterministic clock.
func New(cfg Config, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		cfg:       cfg,
		lastSpawn: make(map[int]time.Time),
		startedAt: now(),
		now:       now,
	}
}

// RecordSpawn marks chunkID as spawned-into right now.
func (t *Tracker) RecordSpawn(chunkID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSpawn[chunkID] = t.now()
}

// TimeSinceSpawn returns the elapsed time since the last recorded
// spawn into chunkID, or since tracker construction if it has never
// been spawned into.
func (t *Tracker) TimeSinceSpawn(chunkID int) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastSpawn[chunkID]
	if !ok {
		last = t.startedAt
	}
	return t.now().Sub(last)
}

// Bonus returns ε·min(1, dt/T_max) for the given chunk. Negative chunk
// ids (no-spawn sentinels) always return 0.
func (t *Tracker) Bonus(chunkID int) float64 {
	if chunkID < 0 {
		return 0
	}
	dt := t.TimeSinceSpawn(chunkID)
	ratio := dt.Seconds() / t.cfg.MaxTime.Seconds()
	if ratio > 1 {
		ratio = 1
	}
	return t.cfg.Coefficient * ratio
}

// Stats summarizes tracker coverage for diagnostics.
type Stats struct {
	TotalChunks     int
	ExploredChunks  int
	UnexploredChunks int
	ExplorationRate float64
	TrackerAge      time.Duration
}

// Statistics reports coverage against the given total chunk count.
func (t *Tracker) Statistics(totalChunks int) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	explored := len(t.lastSpawn)
	rate := 0.0
	if totalChunks > 0 {
		rate = float64(explored) / float64(totalChunks)
	}
	return Stats{
		TotalChunks:      totalChunks,
		ExploredChunks:   explored,
		UnexploredChunks: totalChunks - explored,
		ExplorationRate:  rate,
		TrackerAge:       t.now().Sub(t.startedAt),
	}
}

// Reset clears all recorded spawns.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSpawn = make(map[int]time.Time)
	t.startedAt = t.now()
}
