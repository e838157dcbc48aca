// Package gate implements the two concrete gates of the Queen's
// decision core: the preprocess gate (C4), which short-circuits
// inference on an empty board, and the simulation gate (C6), which
// turns a cost-function evaluation into SEND/WAIT/CORRECT_WAIT/
// SHOULD_SPAWN. They are separate concrete types by design — see
// SPEC_FULL.md §9 on avoiding a gate-plugin abstraction.
package gate

import "github.com/kaushikhazra/nexus-of-mind/queen/queenobs"

// PreprocessResult is C4's verdict on whether an observation warrants
// running inference at all.
type PreprocessResult struct {
	ShouldSkip       bool
	Reason           queenobs.GateReason
	WorkersCount     int
	ProtectorsCount  int
}

// Preprocess evaluates an observation before any feature extraction
// or network inference happens.
func Preprocess(obs queenobs.Observation) PreprocessResult {
	workers := len(obs.WorkersPresent) + len(obs.MiningWorkers)
	protectors := len(obs.Protectors)

	result := PreprocessResult{WorkersCount: workers, ProtectorsCount: protectors}
	if workers == 0 && protectors == 0 {
		result.ShouldSkip = true
		result.Reason = queenobs.ReasonNoActivity
	}
	return result
}
