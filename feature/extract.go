// Package feature extracts the fixed-size, normalized feature vector
// the policy network consumes from a raw observation.
package feature

import (
	"math/rand"
	"sort"

	"github.com/kaushikhazra/nexus-of-mind/queen/queenobs"
	"github.com/kaushikhazra/nexus-of-mind/queen/utils/intutils"
)

// Config carries the tunables the extractor needs beyond the fixed
// grid/cost constants in queenobs.
type Config struct {
	EnergyParasiteCost float64
	CombatParasiteCost float64
	MaxEnergy          float64
}

// DefaultConfig mirrors the constants table in queenobs.
func DefaultConfig() Config {
	return Config{
		EnergyParasiteCost: queenobs.EnergyParasiteCost,
		CombatParasiteCost: queenobs.CombatParasiteCost,
		MaxEnergy:          queenobs.QueenMaxEnergy,
	}
}

type chunkCount struct {
	chunkID int
	count   int
}

// Extract maps an observation to a 29-float feature vector plus the
// chunk ids behind its shuffled top-5 slots. It never fails: malformed
// or missing fields simply contribute zero.
func Extract(obs queenobs.Observation, cfg Config, rng *rand.Rand) (queenobs.FeatureVector, queenobs.TopChunkIDs) {
	var features queenobs.FeatureVector
	top := queenobs.TopChunkIDs{-1, -1, -1, -1, -1}

	workersByChunk := make(map[int]int)
	for _, w := range obs.WorkersPresent {
		if valid(w.ChunkID) {
			workersByChunk[w.ChunkID]++
		}
	}
	totalWorkers := len(obs.WorkersPresent)

	protectorsByChunk := make(map[int]int)
	totalProtectors := len(obs.Protectors)
	for _, p := range obs.Protectors {
		if valid(p.ChunkID) {
			protectorsByChunk[p.ChunkID]++
		}
	}

	energyStart, energyEnd := splitByType(obs.ParasitesStart, queenobs.Energy), splitByType(obs.ParasitesEnd, queenobs.Energy)
	combatStart, combatEnd := splitByType(obs.ParasitesStart, queenobs.Combat), splitByType(obs.ParasitesEnd, queenobs.Combat)

	sorted := topChunks(workersByChunk, queenobs.TopChunkSlots)
	shuffled := make([]chunkCount, len(sorted))
	copy(shuffled, sorted)
	if rng != nil {
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	}

	for i, cc := range shuffled {
		base := i * 5
		top[i] = cc.chunkID

		features[base+0] = queenobs.Clip01(float64(cc.chunkID) / float64(queenobs.TotalChunks-1))
		if totalWorkers > 0 {
			features[base+1] = queenobs.Clip01(float64(cc.count) / float64(totalWorkers))
		}
		if totalProtectors > 0 {
			features[base+2] = queenobs.Clip01(float64(protectorsByChunk[cc.chunkID]) / float64(totalProtectors))
		}

		energyRate := queenobs.Rate(float64(energyStart[cc.chunkID]), float64(energyEnd[cc.chunkID]))
		combatRate := queenobs.Rate(float64(combatStart[cc.chunkID]), float64(combatEnd[cc.chunkID]))
		features[base+3] = queenobs.Clip01(queenobs.UnitRemap(energyRate))
		features[base+4] = queenobs.Clip01(queenobs.UnitRemap(combatRate))
	}
	// Unused tail slots are already zero-valued.

	spawnEnergy, spawnCombat := spawnCapacity(obs.QueenEnergy.Current, cfg)
	features[25] = spawnEnergy
	features[26] = spawnCombat

	energyRate := queenobs.Rate(obs.PlayerEnergy.Start, obs.PlayerEnergy.End)
	mineralRate := queenobs.Rate(obs.PlayerMinerals.Start, obs.PlayerMinerals.End)
	features[27] = queenobs.Clip01(queenobs.UnitRemap(energyRate))
	features[28] = queenobs.Clip01(queenobs.UnitRemap(mineralRate))

	for i := range features {
		features[i] = queenobs.Clip01(features[i])
	}

	return features, top
}

func valid(chunkID int) bool {
	return chunkID >= 0 && chunkID < queenobs.TotalChunks
}

func splitByType(refs []queenobs.ParasiteRef, t queenobs.ParasiteType) map[int]int {
	m := make(map[int]int)
	for _, r := range refs {
		if r.Type == t && valid(r.ChunkID) {
			m[r.ChunkID]++
		}
	}
	return m
}

// topChunks ranks chunks by worker count descending and returns at
// most n of them. Ties break by chunk id for determinism before the
// caller shuffles the result.
func topChunks(counts map[int]int, n int) []chunkCount {
	list := make([]chunkCount, 0, len(counts))
	for id, c := range counts {
		list = append(list, chunkCount{chunkID: id, count: c})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].chunkID < list[j].chunkID
	})
	list = list[:intutils.Min(len(list), n)]
	return list
}

// spawnCapacity returns how many more units of each type the queen
// could afford, normalized against the maximum affordable count.
func spawnCapacity(currentEnergy float64, cfg Config) (energy, combat float64) {
	energy = affordRatio(currentEnergy, cfg.EnergyParasiteCost, cfg.MaxEnergy)
	combat = affordRatio(currentEnergy, cfg.CombatParasiteCost, cfg.MaxEnergy)
	return
}

func affordRatio(current, cost, max float64) float64 {
	if cost <= 0 || max <= 0 {
		return 0
	}
	maxAffordable := float64(int(max / cost))
	if maxAffordable <= 0 {
		return 0
	}
	affordable := float64(int(current / cost))
	ratio := affordable / maxAffordable
	return queenobs.Clip01(ratio)
}

// DecodeChunk resolves a relative top-5 slot index back to an absolute
// chunk id, following the fallback rules in §4.3: if the chosen slot
// is empty, walk the probability vector for the first populated slot;
// if all slots are empty, fall back to a uniformly random chunk.
func DecodeChunk(top queenobs.TopChunkIDs, relativeIndex int, chunkProbs [queenobs.TopChunkSlots]float64, rng *rand.Rand) int {
	if relativeIndex >= 0 && relativeIndex < len(top) && top[relativeIndex] >= 0 {
		return top[relativeIndex]
	}

	type scored struct {
		idx  int
		prob float64
	}
	order := make([]scored, len(top))
	for i := range top {
		order[i] = scored{idx: i, prob: chunkProbs[i]}
	}
	sort.Slice(order, func(i, j int) bool { return order[i].prob > order[j].prob })
	for _, s := range order {
		if top[s.idx] >= 0 {
			return top[s.idx]
		}
	}

	if rng != nil {
		return rng.Intn(queenobs.TotalChunks)
	}
	return 0
}
