// Package queenobs holds the data types shared across the Queen's
// decision core: the raw observation the transport hands in, the
// feature vector C1 derives from it, the decisions C3/C6 produce, and
// the experiences C7/C8 train on.
package queenobs

import (
	"math"
	"time"
)

// Grid and economy constants that the wire format and every trained
// model depend on. Changing these invalidates saved weights.
const (
	ChunksPerAxis = 16
	TotalChunks   = ChunksPerAxis * ChunksPerAxis // 256

	EnergyParasiteCost = 15.0
	CombatParasiteCost = 25.0
	QueenMaxEnergy     = 100.0

	FeatureCount = 29
	TopChunkSlots = 5

	MaxQuantity = 4

	// GateThreshold (θ) is the expected-reward cutoff the simulation
	// gate compares against.
	GateThreshold = 0.35

	// GateRewardWeights combine survival, disruption and location into
	// the cost function's base reward.
	SurvivalWeight  = 0.3
	DisruptionWeight = 0.5
	LocationWeight   = 0.2

	// TrainingRewardBlend mixes the gate signal with the observed
	// actual reward for completed SEND experiences.
	TrainingGateWeight   = 0.3
	TrainingActualWeight = 0.7
)

// ParasiteType is one of the two units the Queen can spawn.
type ParasiteType int

const (
	Energy ParasiteType = iota
	Combat
)

func (p ParasiteType) String() string {
	switch p {
	case Energy:
		return "energy"
	case Combat:
		return "combat"
	default:
		return "unknown"
	}
}

// Cost returns the queen-energy price of spawning one parasite of this
// type.
func (p ParasiteType) Cost() float64 {
	if p == Combat {
		return CombatParasiteCost
	}
	return EnergyParasiteCost
}

// EntityRef locates a single enemy unit by the chunk it occupies.
type EntityRef struct {
	ChunkID int
}

// ParasiteRef locates a Queen-owned parasite by chunk and type.
type ParasiteRef struct {
	ChunkID int
	Type    ParasiteType
}

// CountRange is a start/end pair sampled at the edges of an
// observation window, used to derive rates of change.
type CountRange struct {
	Start, End float64
}

// EnergyState is the Queen's energy reservoir at observation time.
type EnergyState struct {
	Current float64
}

// Observation is one territory-tick snapshot of the playable map.
type Observation struct {
	WorkersPresent []EntityRef
	MiningWorkers  []EntityRef
	Protectors     []EntityRef

	ParasitesStart []ParasiteRef
	ParasitesEnd   []ParasiteRef

	QueenEnergy EnergyState

	PlayerEnergy   CountRange
	PlayerMinerals CountRange

	HiveChunk   int
	TerritoryID string
	Timestamp   time.Time
}

// FeatureVector is the 29-float normalized representation C1 produces
// from an Observation. Every entry is finite and in [0,1].
type FeatureVector [FeatureCount]float64

// TopChunkIDs aligns with the shuffled chunk slots of a FeatureVector;
// -1 marks an empty slot.
type TopChunkIDs [TopChunkSlots]int

// SpawnDecision is what the policy network proposes before the gate
// rules on it.
type SpawnDecision struct {
	SpawnChunk      int // -1 means "no spawn"
	SpawnType       ParasiteType
	Quantity        int
	ChunkConfidence float64
	TypeConfidence  float64
}

// NoSpawn reports whether the decision carries no target chunk.
func (d SpawnDecision) NoSpawn() bool {
	return d.SpawnChunk < 0
}

// GateOutcome is the simulation gate's verdict.
type GateOutcome int

const (
	Send GateOutcome = iota
	Wait
	CorrectWait
	ShouldSpawn
)

func (o GateOutcome) String() string {
	switch o {
	case Send:
		return "SEND"
	case Wait:
		return "WAIT"
	case CorrectWait:
		return "CORRECT_WAIT"
	case ShouldSpawn:
		return "SHOULD_SPAWN"
	default:
		return "UNKNOWN"
	}
}

// GateReason explains why the gate reached its outcome.
type GateReason string

const (
	ReasonPositiveReward    GateReason = "positive_reward"
	ReasonNegativeReward    GateReason = "negative_reward"
	ReasonInsufficientEnergy GateReason = "insufficient_energy"
	ReasonNoViableTargets   GateReason = "no_viable_targets"
	ReasonMissedOpportunity GateReason = "missed_opportunity"
	ReasonSimulationMode    GateReason = "simulation_mode"
	ReasonGateDisabled      GateReason = "gate_disabled"
	ReasonNoActivity        GateReason = "no_activity"
)

// GateDecision is the simulation gate's complete verdict, including the
// cost-function component breakdown for diagnostics.
type GateDecision struct {
	Outcome       GateOutcome
	Reason        GateReason
	ExpectedReward float64
	NNConfidence  float64
	Components    map[string]float64
}

// GateSignal returns expected_reward - θ, clamped the way the
// orchestrator clamps it for a -Inf (capacity-blocked) expected
// reward: a -1 sentinel rather than -Inf, so it can be averaged.
func (d GateDecision) GateSignal() float64 {
	if math.IsInf(d.ExpectedReward, -1) {
		return -1
	}
	return d.ExpectedReward - GateThreshold
}

// Experience is one inference's (observation, decision, outcome)
// tuple, queued for training.
type Experience struct {
	Observation    FeatureVector
	TopChunkIDs    TopChunkIDs
	SpawnChunk     int
	SpawnType      ParasiteType
	Quantity       int
	NNConfidence   float64
	GateSignal     float64
	ExpectedReward float64
	WasExecuted    bool
	ActualReward   *float64
	TerritoryID    string
	ModelVersion   int
	Timestamp      time.Time
}

// IsSend reports whether this experience records an executed spawn.
func (e Experience) IsSend() bool { return e.WasExecuted }

// IsWait reports the complement of IsSend.
func (e Experience) IsWait() bool { return !e.WasExecuted }

// HasActualReward reports whether the game's feedback has arrived yet.
func (e Experience) HasActualReward() bool { return e.ActualReward != nil }

// ModelMetadata is the persisted sidecar describing a saved weight
// file.
type ModelMetadata struct {
	Version                   int       `json:"version"`
	ArchitectureVersion       int       `json:"architectureVersion"`
	CreatedAt                 time.Time `json:"createdAt"`
	LastSavedAt               time.Time `json:"lastSavedAt"`
	TotalTrainingIterations   int       `json:"totalTrainingIterations"`
	TotalSamplesEverProcessed int       `json:"totalSamplesEverProcessed"`
	BestLoss                  float64   `json:"bestLoss"`
	Framework                 string    `json:"framework"`
}

// CurrentArchitectureVersion is bumped whenever the network topology
// changes in a way that invalidates saved weights.
const CurrentArchitectureVersion = 3

// FrameworkTag identifies the training backend in the metadata
// sidecar; a load with a mismatched tag is treated as incompatible.
const FrameworkTag = "gorgonia"
