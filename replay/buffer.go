// Package replay implements the capacity-bounded experience buffer
// the background trainer samples from. Thread-safety follows the
// teacher's mutex-guarded expreplay cache, generalized to a timed
// acquire so a stalled holder degrades to a skipped operation instead
// of blocking inference indefinitely.
package replay

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
)

// Config tunes buffer capacity and lock behavior.
type Config struct {
	Capacity    int
	LockTimeout time.Duration
}

// DefaultConfig mirrors training/buffer.py's capacity=10000,
// lock_timeout=5.0.
func DefaultConfig() Config {
	return Config{Capacity: 10000, LockTimeout: 5 * time.Second}
}

// Buffer is a thread-safe, capacity-bounded FIFO of experiences with a
// per-territory pending-SEND map.
type Buffer struct {
	cfg    Config
	logger *log.Logger

	// mu is a binary semaphore (not sync.Mutex) so acquisition can be
	// bounded by a timeout, which sync.Mutex does not support natively.
	mu chan struct{}

	ring    []queenobs.Experience
	pending map[string]queenobs.Experience

	totalAdded int
	sendCount  int
	waitCount  int
}

// New builds an empty Buffer.
func New(cfg Config, logger *log.Logger) *Buffer {
	if logger == nil {
		logger = log.Default()
	}
	mu := make(chan struct{}, 1)
	mu <- struct{}{}
	return &Buffer{
		cfg:     cfg,
		logger:  logger,
		mu:      mu,
		pending: make(map[string]queenobs.Experience),
	}
}

func (b *Buffer) lock() bool {
	select {
	case <-b.mu:
		return true
	case <-time.After(b.cfg.LockTimeout):
		b.logger.Warn("replay buffer lock timeout")
		return false
	}
}

func (b *Buffer) unlock() {
	b.mu <- struct{}{}
}

// Add inserts an experience. A SEND with no actual reward yet goes
// into the per-territory pending map (a newer SEND overwrites any
// older pending entry for the same territory); everything else goes
// straight into the ring, evicting the oldest entry if at capacity.
func (b *Buffer) Add(e queenobs.Experience) {
	if !b.lock() {
		return
	}
	defer b.unlock()

	if e.IsSend() {
		b.sendCount++
		if !e.HasActualReward() {
			b.pending[e.TerritoryID] = e
			return
		}
	} else {
		b.waitCount++
	}

	b.append(e)
}

func (b *Buffer) append(e queenobs.Experience) {
	b.totalAdded++
	b.ring = append(b.ring, e)
	if b.cfg.Capacity > 0 && len(b.ring) > b.cfg.Capacity {
		b.ring = b.ring[len(b.ring)-b.cfg.Capacity:]
	}
}

// UpdatePendingReward moves a pending SEND for territoryID into the
// ring, stamping it with the observed actual reward. Returns the
// completed experience, or ok=false if territoryID had no pending
// SEND (including if it was already consumed by a prior call).
func (b *Buffer) UpdatePendingReward(territoryID string, reward float64) (queenobs.Experience, bool) {
	if !b.lock() {
		return queenobs.Experience{}, false
	}
	defer b.unlock()

	e, ok := b.pending[territoryID]
	if !ok {
		return queenobs.Experience{}, false
	}
	delete(b.pending, territoryID)

	r := reward
	e.ActualReward = &r
	b.append(e)
	return e, true
}

// Sample draws up to n experiences from the ring without replacement,
// in random order. Returns nil on a lock timeout or an empty ring.
func (b *Buffer) Sample(n int, rng interface{ Intn(int) int }) []queenobs.Experience {
	if !b.lock() {
		return nil
	}
	defer b.unlock()

	if len(b.ring) == 0 || n <= 0 {
		return nil
	}
	if n > len(b.ring) {
		n = len(b.ring)
	}

	idx := make([]int, len(b.ring))
	for i := range idx {
		idx[i] = i
	}
	for i := len(idx) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		idx[i], idx[j] = idx[j], idx[i]
	}

	out := make([]queenobs.Experience, n)
	for i := 0; i < n; i++ {
		out[i] = b.ring[idx[i]]
	}
	return out
}

// Drain atomically removes and returns every experience currently in
// the ring. Pending SENDs are untouched.
func (b *Buffer) Drain() []queenobs.Experience {
	if !b.lock() {
		return nil
	}
	defer b.unlock()

	out := b.ring
	b.ring = nil
	return out
}

// Stats summarizes buffer occupancy for diagnostics.
type Stats struct {
	RingSize        int
	PendingCount    int
	Capacity        int
	Utilization     float64
	SendCount       int
	SendWithReward  int
	WaitCount       int
	AverageGateSignal float64
}

// Stats reports current buffer occupancy and composition.
func (b *Buffer) Stats() Stats {
	if !b.lock() {
		return Stats{}
	}
	defer b.unlock()

	sendWithReward := 0
	sumSignal := 0.0
	for _, e := range b.ring {
		if e.IsSend() {
			sendWithReward++
		}
		sumSignal += e.GateSignal
	}
	util := 0.0
	if b.cfg.Capacity > 0 {
		util = float64(len(b.ring)) / float64(b.cfg.Capacity)
	}
	avg := 0.0
	if len(b.ring) > 0 {
		avg = sumSignal / float64(len(b.ring))
	}

	return Stats{
		RingSize:          len(b.ring),
		PendingCount:       len(b.pending),
		Capacity:           b.cfg.Capacity,
		Utilization:        util,
		SendCount:          b.sendCount,
		SendWithReward:     sendWithReward,
		WaitCount:          b.waitCount,
		AverageGateSignal:  avg,
	}
}

// Len reports the current ring size.
func (b *Buffer) Len() int {
	if !b.lock() {
		return 0
	}
	defer b.unlock()
	return len(b.ring)
}

// Clear empties the ring and the pending map.
func (b *Buffer) Clear() {
	if !b.lock() {
		return
	}
	defer b.unlock()
	b.ring = nil
	b.pending = make(map[string]queenobs.Experience)
}
