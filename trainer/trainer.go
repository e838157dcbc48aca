// Package trainer runs the background training loop (C8): a ticker
// driven goroutine that periodically samples a batch of experiences
// from the replay buffer and takes one gradient step per sample. The
// ticker/context shutdown idiom follows the teacher's
// agent/nonlinear/discrete/deepq.DeepQ.Learn loop, generalized from a
// single synchronous call to a long-lived goroutine.
package trainer

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kaushikhazra/nexus-of-mind/queen/network"
	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
	"github.com/kaushikhazra/nexus-of-mind/queen/replay"
)

// Config tunes the training cadence and checkpointing.
type Config struct {
	Interval       time.Duration
	BatchSize      int
	SaveDir        string
	SaveEveryNRuns int
}

// DefaultConfig mirrors training/background_trainer.py's interval=30s,
// batch_size=32, save every 50 training iterations.
func DefaultConfig() Config {
	return Config{
		Interval:       30 * time.Second,
		BatchSize:      32,
		SaveEveryNRuns: 50,
	}
}

// Trainer owns the model lock and drives periodic training against a
// shared PolicyNetwork and Buffer.
type Trainer struct {
	cfg    Config
	logger *log.Logger
	buffer *replay.Buffer
	rng    *rand.Rand

	mu      sync.Mutex // guards concurrent access to model during a training step
	model   *network.PolicyNetwork
	meta    queenobs.ModelMetadata
	version int
	runs    int
}

// New builds a Trainer around an already-constructed model and buffer.
func New(cfg Config, model *network.PolicyNetwork, buffer *replay.Buffer, meta queenobs.ModelMetadata, logger *log.Logger) *Trainer {
	if logger == nil {
		logger = log.Default()
	}
	return &Trainer{
		cfg:     cfg,
		logger:  logger,
		buffer:  buffer,
		rng:     rand.New(rand.NewSource(1)),
		model:   model,
		meta:    meta,
		version: meta.Version,
	}
}

// Run blocks, training on a fixed interval until ctx is cancelled. A
// final save is attempted on the way out so in-flight training
// progress survives shutdown.
func (t *Trainer) Run(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := t.Flush(); err != nil {
				t.logger.Error("final model save failed", "err", err)
			}
			return
		case <-ticker.C:
			t.trainOnce()
		}
	}
}

// trainOnce samples one batch and steps the model against it,
// blending each experience's reward signal per §4.8: completed SENDs
// mix the gate signal with the observed actual reward, pending SENDs
// and WAITs train on the gate signal alone.
func (t *Trainer) trainOnce() {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("recovered from panic in training step", "panic", r)
		}
	}()

	batch := t.buffer.Sample(t.cfg.BatchSize, t.rng)
	if len(batch) == 0 {
		return
	}
	t.StepBatch(batch)
}

// StepBatch trains on an already-assembled batch of experiences,
// updating version/metadata bookkeeping and checkpointing on the same
// schedule as the ticker-driven path. Exported so an offline replay
// driver can step the same trainer outside the Run loop.
func (t *Trainer) StepBatch(batch []queenobs.Experience) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	totalLoss := 0.0
	n := 0
	for _, exp := range batch {
		signal := blendReward(exp)
		losses, err := t.model.TrainStep(exp, signal)
		if err != nil {
			t.logger.Error("training step failed", "err", err)
			continue
		}
		for _, l := range losses {
			totalLoss += l
			n++
		}
	}

	t.version++
	t.meta.TotalTrainingIterations++
	t.meta.TotalSamplesEverProcessed += len(batch)
	t.meta.Version = t.version

	avg := 0.0
	if n > 0 {
		avg = totalLoss / float64(n)
		if t.meta.TotalTrainingIterations == 1 || avg < t.meta.BestLoss {
			t.meta.BestLoss = avg
		}
	}

	t.runs++
	if t.cfg.SaveDir != "" && t.cfg.SaveEveryNRuns > 0 && t.runs%t.cfg.SaveEveryNRuns == 0 {
		if err := t.model.Save(t.cfg.SaveDir, t.meta); err != nil {
			t.logger.Error("periodic model save failed", "err", err)
		}
	}
	return avg
}

// Flush performs a final synchronous save. Exported so an offline
// replay driver can checkpoint on completion without waiting for a
// context cancellation.
func (t *Trainer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cfg.SaveDir == "" {
		return nil
	}
	return t.model.Save(t.cfg.SaveDir, t.meta)
}

// blendReward implements §4.8's reward blend: 0.3*gate_signal +
// 0.7*actual_reward once the game's feedback has arrived, gate signal
// alone otherwise.
func blendReward(exp queenobs.Experience) float64 {
	if exp.HasActualReward() {
		return queenobs.TrainingGateWeight*exp.GateSignal + queenobs.TrainingActualWeight*(*exp.ActualReward)
	}
	return exp.GateSignal
}

// CurrentVersion reports the model's training version for inclusion
// in inference responses.
func (t *Trainer) CurrentVersion() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}
