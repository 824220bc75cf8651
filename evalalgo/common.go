package evalalgo

import (
	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/datanode"
	"github.com/gitrdm/neads/evalstate"
	"github.com/gitrdm/neads/nerrors"
)

// driveToMemory ensures act's DataNode reaches MEMORY, recursing
// parent-first — the shared "ensure each parent is MEMORY (load() if DISK);
// call evaluate()" logic of spec.md §4.6, reused by every algorithm that
// doesn't do its own spill bookkeeping (topological and breadth-first).
func driveToMemory(s *evalstate.EvaluationState, act activation.Activation) error {
	switch s.Node(act).State() {
	case datanode.Memory:
		return nil
	case datanode.Disk:
		return s.Load(act)
	case datanode.Unknown:
		hit, err := s.TryLoad(act)
		if err != nil {
			return err
		}
		if hit {
			return nil
		}
	}

	for _, parent := range act.Parents() {
		if err := driveToMemory(s, parent); err != nil {
			return err
		}
	}
	return s.Evaluate(act)
}

// collectResults drives every terminal activation to MEMORY and builds the
// output map spec.md §4.6 returns, loading any that were spilled to disk.
func collectResults(s *evalstate.EvaluationState) (map[activation.Activation]any, error) {
	out := make(map[activation.Activation]any, len(s.Results()))
	for _, act := range s.Results() {
		if err := driveToMemory(s, act); err != nil {
			return nil, err
		}
		data, ok := s.Node(act).GetData(true)
		if !ok {
			return nil, nerrors.NewRuntimeRequirementError("result " + act.String() + " did not reach MEMORY")
		}
		out[act] = data
	}
	return out, nil
}

func reverseActs(in []activation.Activation) []activation.Activation {
	out := make([]activation.Activation, len(in))
	for i, a := range in {
		out[len(in)-1-i] = a
	}
	return out
}
