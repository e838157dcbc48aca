// Package network implements the Queen's split-head policy network
// (C3): five small feed-forward heads arranged sequentially, trained
// by reward-weighted cross-entropy with entropy regularization. The
// sub-network shapes and wiring follow SPEC_FULL.md §4.3; the
// underlying fully-connected-layer and activation building blocks are
// adapted from the teacher repo's network package.
package network

import (
	"math/rand"
	"sync"

	"github.com/kaushikhazra/nexus-of-mind/queen/feature"
	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
	qsolver "github.com/kaushikhazra/nexus-of-mind/queen/solver"
)

// HyperParams holds the training settings shared by all five heads:
// one learning rate and one optimizer type apply to every head.
type HyperParams struct {
	LearningRate float64

	// Optimizer selects the Gorgonia solver every head trains with.
	// Defaults to Adam when left unset.
	Optimizer qsolver.Type
}

// DefaultHyperParams mirrors the original's learning_rate=0.001.
func DefaultHyperParams() HyperParams {
	return HyperParams{LearningRate: 0.001, Optimizer: qsolver.Adam}
}

// PolicyNetwork is the five-head sequential model described in
// SPEC_FULL.md §4.3.
type PolicyNetwork struct {
	// mu serializes every operation that touches the five subnets' tape
	// machines: each one mutates shared graph state (Let/RunAll/Reset),
	// so inference and training can never run on the same network
	// concurrently.
	mu sync.Mutex

	n1, n2, n3, n4, n5 *subnet
	hp                 HyperParams
}

// NewPolicyNetwork builds a freshly initialized policy network.
func NewPolicyNetwork(hp HyperParams) (*PolicyNetwork, error) {
	optimizer := hp.Optimizer
	if optimizer == "" {
		optimizer = qsolver.Adam
	}

	n1, err := newSubnet("N1_energy_suitability", scorerHead, 10, []int{8}, 5, hp.LearningRate, optimizer, 1)
	if err != nil {
		return nil, err
	}
	n2, err := newSubnet("N2_combat_suitability", scorerHead, 10, []int{8}, 5, hp.LearningRate, optimizer, 2)
	if err != nil {
		return nil, err
	}
	n3, err := newSubnet("N3_type_decision", classifierHead, 10, []int{8}, 2, hp.LearningRate, optimizer, 3)
	if err != nil {
		return nil, err
	}
	n4, err := newSubnet("N4_chunk_decision", classifierHead, 15, []int{12, 8}, 5, hp.LearningRate, optimizer, 4)
	if err != nil {
		return nil, err
	}
	n5, err := newSubnet("N5_quantity_decision", classifierHead, 7, []int{8}, 5, hp.LearningRate, optimizer, 5)
	if err != nil {
		return nil, err
	}

	return &PolicyNetwork{n1: n1, n2: n2, n3: n3, n4: n4, n5: n5, hp: hp}, nil
}

// headOutputs are the five sub-networks' raw outputs for one forward
// pass, kept around so TrainStep can reconstruct the exact inputs each
// head saw without redoing chunk/type selection.
type headOutputs struct {
	n1, n2, n3, n4, n5 []float64
	typeIdx            int
	chunkRel           int
	quantity           int
}

// GetSpawnDecision runs the full N1->N5 pipeline and decodes the
// result into a SpawnDecision. explore=true samples from each
// softmax/categorical distribution; explore=false takes the argmax.
func (p *PolicyNetwork) GetSpawnDecision(features queenobs.FeatureVector, top queenobs.TopChunkIDs, explore bool, rng *rand.Rand) (queenobs.SpawnDecision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	out, err := p.forward(features, explore, rng)
	if err != nil {
		return queenobs.SpawnDecision{}, err
	}

	var chunkProbs [queenobs.TopChunkSlots]float64
	copy(chunkProbs[:], out.n4)
	chunk := feature.DecodeChunk(top, out.chunkRel, chunkProbs, rng)

	spawnType := queenobs.Energy
	if out.typeIdx == 1 {
		spawnType = queenobs.Combat
	}

	return queenobs.SpawnDecision{
		SpawnChunk:      chunk,
		SpawnType:       spawnType,
		Quantity:        out.quantity,
		ChunkConfidence: out.n4[out.chunkRel],
		TypeConfidence:  out.n3[out.typeIdx],
	}, nil
}

func (p *PolicyNetwork) forward(features queenobs.FeatureVector, explore bool, rng *rand.Rand) (headOutputs, error) {
	n1in := buildSuitabilityInput(features, 3) // protector_density + energy_parasite_rate
	n1out, err := p.n1.Forward(n1in)
	if err != nil {
		return headOutputs{}, err
	}

	n2in := buildSuitabilityInput(features, 4) // protector_density + combat_parasite_rate
	n2out, err := p.n2.Forward(n2in)
	if err != nil {
		return headOutputs{}, err
	}

	n3in := append(append([]float64{}, n1out...), n2out...)
	n3out, err := p.n3.Forward(n3in)
	if err != nil {
		return headOutputs{}, err
	}
	typeIdx := choose(n3out, explore, rng)

	suitability := n1out
	saturationOffset := 3
	if typeIdx == 1 {
		suitability = n2out
		saturationOffset = 4
	}
	n4in := buildChunkDecisionInput(features, suitability, saturationOffset)
	n4out, err := p.n4.Forward(n4in)
	if err != nil {
		return headOutputs{}, err
	}
	chunkRel := choose(n4out, explore, rng)

	n5in := buildQuantityInput(features, suitability, saturationOffset, typeIdx, chunkRel)
	n5out, err := p.n5.Forward(n5in)
	if err != nil {
		return headOutputs{}, err
	}
	quantity := choose(n5out, explore, rng)

	return headOutputs{n1: n1out, n2: n2out, n3: n3out, n4: n4out, n5: n5out, typeIdx: typeIdx, chunkRel: chunkRel, quantity: quantity}, nil
}

// buildSuitabilityInput interleaves protector_density and a parasite
// rate (energy at offset 3, combat at offset 4) across the 5 chunk
// slots, matching N1/N2's "interleaved" input layout.
func buildSuitabilityInput(f queenobs.FeatureVector, rateOffset int) []float64 {
	out := make([]float64, 0, 10)
	for i := 0; i < queenobs.TopChunkSlots; i++ {
		base := i * 5
		out = append(out, f[base+2], f[base+rateOffset])
	}
	return out
}

// buildChunkDecisionInput assembles N4's 15-wide input: 5 worker
// densities, 5 suitabilities for the chosen type, 5 parasite
// saturations for the chosen type.
func buildChunkDecisionInput(f queenobs.FeatureVector, suitability []float64, saturationOffset int) []float64 {
	out := make([]float64, 0, 15)
	for i := 0; i < queenobs.TopChunkSlots; i++ {
		out = append(out, f[i*5+1])
	}
	out = append(out, suitability...)
	for i := 0; i < queenobs.TopChunkSlots; i++ {
		out = append(out, f[i*5+saturationOffset])
	}
	return out
}

// buildQuantityInput assembles N5's 7-wide input.
func buildQuantityInput(f queenobs.FeatureVector, suitability []float64, saturationOffset, typeIdx, chunkRel int) []float64 {
	saturation := f[chunkRel*5+saturationOffset]
	chosenSuitability := suitability[chunkRel]
	capacity := f[25]
	if typeIdx == 1 {
		capacity = f[26]
	}
	return []float64{
		saturation,
		chosenSuitability,
		capacity,
		f[27],
		f[28],
		float64(typeIdx),
		float64(chunkRel) / 4.0,
	}
}

// TrainStep retrains the network on one experience, reward-weighted by
// rewardSignal (the trainer's blend of gate signal and actual reward).
// Only the scorer head for the type actually spawned is updated; the
// other stays at its current output for this step, since the
// experience carries no signal about the type that wasn't chosen. The
// three classifier heads are always retrained against the decision
// that was actually taken, per SPEC_FULL.md §4.8.
func (p *PolicyNetwork) TrainStep(exp queenobs.Experience, rewardSignal float64) (map[string]float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	losses := make(map[string]float64, 5)

	relativeIdx := relativeChunkIndex(exp.TopChunkIDs, exp.SpawnChunk)
	typeIdx := 0
	if exp.SpawnType == queenobs.Combat {
		typeIdx = 1
	}

	n1in := buildSuitabilityInput(exp.Observation, 3)
	n1out, err := p.n1.Forward(n1in)
	if err != nil {
		return nil, err
	}
	n2in := buildSuitabilityInput(exp.Observation, 4)
	n2out, err := p.n2.Forward(n2in)
	if err != nil {
		return nil, err
	}

	scoreTarget := queenobs.Clip01(queenobs.UnitRemap(rewardSignal))
	suitability := n1out
	saturationOffset := 3
	if typeIdx == 0 {
		n1target := append([]float64{}, n1out...)
		n1target[relativeIdx] = scoreTarget
		loss, err := p.n1.TrainStep(n1in, n1target, rewardSignal)
		if err != nil {
			return nil, err
		}
		losses["n1"] = loss
	} else {
		suitability = n2out
		saturationOffset = 4
		n2target := append([]float64{}, n2out...)
		n2target[relativeIdx] = scoreTarget
		loss, err := p.n2.TrainStep(n2in, n2target, rewardSignal)
		if err != nil {
			return nil, err
		}
		losses["n2"] = loss
	}

	n3in := append(append([]float64{}, n1out...), n2out...)
	n3target := Smooth(2, typeIdx, labelSmoothing)
	n3loss, err := p.n3.TrainStep(n3in, n3target, rewardSignal)
	if err != nil {
		return nil, err
	}
	losses["n3"] = n3loss

	n4in := buildChunkDecisionInput(exp.Observation, suitability, saturationOffset)
	n4target := Smooth(queenobs.TopChunkSlots, relativeIdx, labelSmoothing)
	n4loss, err := p.n4.TrainStep(n4in, n4target, rewardSignal)
	if err != nil {
		return nil, err
	}
	losses["n4"] = n4loss

	n5in := buildQuantityInput(exp.Observation, suitability, saturationOffset, typeIdx, relativeIdx)
	n5target := Smooth(queenobs.MaxQuantity+1, exp.Quantity, labelSmoothing)
	n5loss, err := p.n5.TrainStep(n5in, n5target, rewardSignal)
	if err != nil {
		return nil, err
	}
	losses["n5"] = n5loss

	return losses, nil
}

// relativeChunkIndex finds exp's spawn chunk in its original top-5
// slots; if the game has since moved it out of the top-5 entirely, it
// falls back to a uniformly chosen valid slot so training always has a
// target index to work with.
func relativeChunkIndex(top queenobs.TopChunkIDs, spawnChunk int) int {
	for i, id := range top {
		if id == spawnChunk {
			return i
		}
	}
	valid := make([]int, 0, len(top))
	for i, id := range top {
		if id >= 0 {
			valid = append(valid, i)
		}
	}
	if len(valid) > 0 {
		return valid[rand.Intn(len(valid))]
	}
	return 0
}

// choose picks an index from a probability/score vector: a stochastic
// draw under explore, argmax otherwise.
func choose(probs []float64, explore bool, rng *rand.Rand) int {
	if !explore || rng == nil {
		return argmax(probs)
	}
	r := rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if r <= cum {
			return i
		}
	}
	return len(probs) - 1
}

func argmax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}
