// Package orchestrator wires the feature extractor, policy network,
// gates, cost function and replay buffer into the single per-tick
// inference pipeline described in SPEC_FULL.md §4.9. Composition here
// follows the teacher's experiment.Run loop: build every component
// once, thread state through repeated calls rather than through
// package-level globals.
package orchestrator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kaushikhazra/nexus-of-mind/queen/costfn"
	"github.com/kaushikhazra/nexus-of-mind/queen/costfn/exploration"
	"github.com/kaushikhazra/nexus-of-mind/queen/feature"
	"github.com/kaushikhazra/nexus-of-mind/queen/gate"
	"github.com/kaushikhazra/nexus-of-mind/queen/gate/metrics"
	"github.com/kaushikhazra/nexus-of-mind/queen/network"
	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
	"github.com/kaushikhazra/nexus-of-mind/queen/replay"
	"github.com/kaushikhazra/nexus-of-mind/queen/reward"
)

// Config bundles every sub-component's configuration plus exploration
// tuning.
type Config struct {
	Feature     feature.Config
	Reward      reward.Config
	Cost        costfn.Config
	Exploration exploration.Config
	Simulation  gate.SimulationConfig
	Buffer      replay.Config
	Metrics     metrics.Config
	ExploreRate float64 // probability of a stochastic (vs. greedy) decision
}

// DefaultConfig assembles every sub-component's defaults.
func DefaultConfig() Config {
	return Config{
		Feature:     feature.DefaultConfig(),
		Reward:      reward.DefaultConfig(),
		Cost:        costfn.DefaultConfig(),
		Exploration: exploration.DefaultConfig(),
		Simulation:  gate.DefaultSimulationConfig(),
		Buffer:      replay.DefaultConfig(),
		Metrics:     metrics.DefaultConfig(),
		ExploreRate: 0.1,
	}
}

// Response is what the orchestrator hands back per observation: the
// gate's final verdict plus, when it's a SEND, the chunk/type/quantity
// to execute.
type Response struct {
	Decision     queenobs.GateDecision
	Spawn        queenobs.SpawnDecision
	ModelVersion int
}

// territoryState is the previous tick's bookkeeping the orchestrator
// needs to compute this tick's reward and retroactively complete a
// pending SEND experience.
type territoryState struct {
	observation queenobs.Observation
	decision    *queenobs.SpawnDecision
	hasPrior    bool
}

// Orchestrator is the composition root for one running Queen instance.
type Orchestrator struct {
	cfg    Config
	logger *log.Logger
	rng    *rand.Rand

	rewardCalc   *reward.Calculator
	preprocess   func(queenobs.Observation) gate.PreprocessResult
	simulation   *gate.Simulation
	model        *network.PolicyNetwork
	buffer       *replay.Buffer
	collector    *metrics.Collector

	modelVersion func() int

	mu     sync.Mutex // guards per-territory state below
	states map[string]*territoryState
}

// New builds an Orchestrator from already-constructed sub-components.
// modelVersion reports the trainer's current version for stamping
// experiences; pass a func returning 0 if no trainer is wired yet.
func New(cfg Config, model *network.PolicyNetwork, buffer *replay.Buffer, logger *log.Logger, modelVersion func() int) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if modelVersion == nil {
		modelVersion = func() int { return 0 }
	}
	tracker := exploration.New(cfg.Exploration, nil)
	evaluator := costfn.NewEvaluator(cfg.Cost, tracker)

	return &Orchestrator{
		cfg:          cfg,
		logger:       logger,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		rewardCalc:   reward.NewCalculator(cfg.Reward),
		preprocess:   gate.Preprocess,
		simulation:   gate.NewSimulation(cfg.Simulation, evaluator),
		model:        model,
		buffer:       buffer,
		collector:    metrics.New(cfg.Metrics, logger, nil),
		modelVersion: modelVersion,
		states:       make(map[string]*territoryState),
	}
}

// Process runs the full C9 pipeline for one observation and returns
// the resulting gate decision, following §4.9's order of operations:
// preprocess, reward for the previous pair, extract, decide, gate,
// buffer, update previous-state.
func (o *Orchestrator) Process(obs queenobs.Observation) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("recovered from panic in inference pipeline", "panic", r, "territory", obs.TerritoryID)
			resp = Response{
				Decision: queenobs.GateDecision{Outcome: queenobs.Wait, Reason: queenobs.ReasonNoActivity},
				Spawn:    queenobs.SpawnDecision{SpawnChunk: -1},
			}
		}
	}()

	if pr := o.preprocess(obs); pr.ShouldSkip {
		return Response{
			Decision: queenobs.GateDecision{
				Outcome: queenobs.Wait,
				Reason:  pr.Reason,
			},
			Spawn: queenobs.SpawnDecision{SpawnChunk: -1},
		}
	}

	o.mu.Lock()
	state, ok := o.states[obs.TerritoryID]
	if !ok {
		state = &territoryState{}
		o.states[obs.TerritoryID] = state
	}
	o.mu.Unlock()

	if state.hasPrior {
		result := o.rewardCalc.Calculate(state.observation, obs, state.decision)
		if _, ok := o.buffer.UpdatePendingReward(obs.TerritoryID, result.Reward); ok {
			o.collector.RecordActualReward(result.Reward)
		}
	}

	features, top := feature.Extract(obs, o.cfg.Feature, o.rng)

	explore := o.rng.Float64() < o.cfg.ExploreRate
	spawn, err := o.model.GetSpawnDecision(features, top, explore, o.rng)
	if err != nil {
		o.logger.Error("policy inference failed", "err", err)
		spawn = queenobs.SpawnDecision{SpawnChunk: -1}
	}

	summary := costfn.Summary{
		ProtectorChunks: entityChunks(obs.Protectors),
		WorkerChunks:    entityChunks(obs.WorkersPresent),
		HiveChunk:       obs.HiveChunk,
		QueenEnergy:     obs.QueenEnergy.Current,
	}

	decision := o.simulation.Evaluate(summary, spawn.SpawnChunk, spawn.SpawnType, spawn.TypeConfidence)
	o.collector.RecordEvaluation(decision)

	wasExecuted := decision.Outcome == queenobs.Send
	exp := queenobs.Experience{
		Observation:    features,
		TopChunkIDs:    top,
		SpawnChunk:     spawn.SpawnChunk,
		SpawnType:      spawn.SpawnType,
		Quantity:       spawn.Quantity,
		NNConfidence:   spawn.TypeConfidence,
		GateSignal:     decision.GateSignal(),
		ExpectedReward: decision.ExpectedReward,
		WasExecuted:    wasExecuted,
		TerritoryID:    obs.TerritoryID,
		ModelVersion:   o.modelVersion(),
		Timestamp:      obs.Timestamp,
	}
	o.buffer.Add(exp)

	o.mu.Lock()
	state.observation = obs
	state.hasPrior = true
	if wasExecuted {
		d := spawn
		state.decision = &d
	} else {
		state.decision = nil
	}
	o.mu.Unlock()

	resp = Response{Decision: decision, ModelVersion: exp.ModelVersion}
	if wasExecuted {
		resp.Spawn = spawn
	} else {
		resp.Spawn = queenobs.SpawnDecision{SpawnChunk: -1}
	}
	return resp
}

// Metrics exposes the underlying gate metrics collector for dashboards
// and diagnostics.
func (o *Orchestrator) Metrics() *metrics.Collector {
	return o.collector
}

func entityChunks(refs []queenobs.EntityRef) []int {
	out := make([]int, len(refs))
	for i, r := range refs {
		out[i] = r.ChunkID
	}
	return out
}
