package evalalgo

import (
	"context"

	"go.uber.org/zap"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/datanode"
	"github.com/gitrdm/neads/evalstate"
	"github.com/gitrdm/neads/internal/tempfile"
)

// Complex is the reference, spill-aware evaluation algorithm of spec.md
// §4.6: it drives objectives (then results) to MEMORY one at a time,
// recursively ensuring each activation's parents are resident first, and
// spills the least-recently-useful MEMORY nodes to disk whenever resident
// memory crosses the configured budget.
type Complex struct {
	store  *tempfile.Store
	budget uint64
	log    *zap.Logger

	// swapOrder is the persistent candidate order store() draws from,
	// rebuilt by appendSwap after every top-level process() call.
	swapOrder []activation.Activation
}

// NewComplex builds a Complex algorithm bound to a spill store and a soft
// memory budget L, in bytes.
func NewComplex(store *tempfile.Store, budget uint64, log *zap.Logger) *Complex {
	if log == nil {
		log = zap.NewNop()
	}
	return &Complex{store: store, budget: budget, log: log}
}

// frame accumulates the activations a single top-level process() call
// touches: necessary (about to be bound as an argument) and visited (every
// node the recursion walked through, in post-order), per spec.md §4.6 step 2.
type frame struct {
	necessary []activation.Activation
	visited   []activation.Activation
}

// Run drives every objective to MEMORY, then every result, spilling along
// the way as needed, per spec.md §4.6 steps 1-4.
func (c *Complex) Run(ctx context.Context, s *evalstate.EvaluationState) (map[activation.Activation]any, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		objectives := s.Objectives()
		if len(objectives) == 0 {
			break
		}
		if err := c.processTarget(s, objectives[0]); err != nil {
			return nil, err
		}
	}

	processed := map[activation.Activation]struct{}{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var next activation.Activation
		found := false
		for _, act := range s.Results() {
			if _, done := processed[act]; !done {
				next, found = act, true
				break
			}
		}
		if !found {
			break
		}
		if err := c.processTarget(s, next); err != nil {
			return nil, err
		}
		processed[next] = struct{}{}
	}

	return collectResults(s)
}

// processTarget runs process() for one top-level pick, then unconditionally
// folds the resulting frame into swapOrder (spec.md §4.6 step 4 — harmless
// if already folded mid-process by a save_memory call, since appendSwap
// dedups by last occurrence).
func (c *Complex) processTarget(s *evalstate.EvaluationState, target activation.Activation) error {
	f := &frame{}
	if err := c.process(s, target, f); err != nil {
		return err
	}
	c.appendSwap(append(reverseActs(f.visited), f.necessary...))
	return nil
}

// process recursively ensures act reaches MEMORY, parent-first, recording
// act into necessary (it's about to be used) and visited (post-order,
// everything touched), triggering a save_memory pass whenever resident
// memory crosses budget (spec.md §4.6 step 2).
func (c *Complex) process(s *evalstate.EvaluationState, act activation.Activation, f *frame) error {
	node := s.Node(act)
	switch node.State() {
	case datanode.Memory:
		f.necessary = append(f.necessary, act)
		f.visited = append(f.visited, act)
		return nil
	case datanode.Disk:
		if err := s.Load(act); err != nil {
			return err
		}
		f.necessary = append(f.necessary, act)
		f.visited = append(f.visited, act)
		return c.maybeSaveMemory(s, f)
	case datanode.Unknown:
		hit, err := s.TryLoad(act)
		if err != nil {
			return err
		}
		if hit {
			f.necessary = append(f.necessary, act)
			f.visited = append(f.visited, act)
			return c.maybeSaveMemory(s, f)
		}
	}

	// NO_DATA (either originally, or just classified via a miss above): ensure
	// every parent is resident, then evaluate.
	for _, parent := range act.Parents() {
		if err := c.process(s, parent, f); err != nil {
			return err
		}
	}
	if err := s.Evaluate(act); err != nil {
		return err
	}
	f.necessary = append(f.necessary, act)
	f.visited = append(f.visited, act)
	return c.maybeSaveMemory(s, f)
}

// maybeSaveMemory folds the frame so far into swapOrder and spills MEMORY
// nodes, outside the nodes currently necessary, until resident memory is at
// or under budget (spec.md §4.6 step 3).
func (c *Complex) maybeSaveMemory(s *evalstate.EvaluationState, f *frame) error {
	if c.residentBytes(s) <= c.budget {
		return nil
	}

	c.appendSwap(append(reverseActs(f.visited), f.necessary...))

	keep := make(map[activation.Activation]struct{}, len(f.necessary))
	for _, act := range f.necessary {
		keep[act] = struct{}{}
	}
	return c.saveMemory(s, keep)
}

// saveMemory walks swapOrder from the head, spilling any MEMORY node not in
// keep, until resident memory drops at or under budget or the order is
// exhausted.
func (c *Complex) saveMemory(s *evalstate.EvaluationState, keep map[activation.Activation]struct{}) error {
	for _, act := range c.swapOrder {
		if c.residentBytes(s) <= c.budget {
			return nil
		}
		if _, protected := keep[act]; protected {
			continue
		}
		node := s.Node(act)
		if node.State() != datanode.Memory {
			continue
		}
		size, _ := node.DataSize()
		if err := s.Store(act); err != nil {
			return err
		}
		c.log.Debug("spilled activation to disk", spillFields(act, size, c.budget)...)
	}
	return nil
}

// appendSwap folds newly-touched activations into swapOrder, keeping only
// the last occurrence of each activation while preserving the relative
// order of survivors — spec.md §4.6 step 3's "reverse(visited) + necessary,
// folded into the persistent swap order".
func (c *Complex) appendSwap(touched []activation.Activation) {
	combined := append(append([]activation.Activation{}, c.swapOrder...), touched...)
	last := make(map[activation.Activation]int, len(combined))
	for i, act := range combined {
		last[act] = i
	}
	out := make([]activation.Activation, 0, len(last))
	for i, act := range combined {
		if last[act] == i {
			out = append(out, act)
		}
	}
	c.swapOrder = out
}

// residentBytes sums the recorded size of every node currently in MEMORY.
func (c *Complex) residentBytes(s *evalstate.EvaluationState) uint64 {
	var total uint64
	for _, act := range s.Bucket(datanode.Memory) {
		size, _ := s.Node(act).DataSize()
		total += size
	}
	return total
}
