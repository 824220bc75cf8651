// Package evalalgo implements the evaluation algorithm(s) spec.md §4.6
// describes: the reference spill-aware "complex" algorithm, a simpler
// non-spilling "topological" alternative, and a "breadth-first" variant
// recovered from the original implementation's bttb_algorithm.py. All three
// satisfy the same contract: drive an evalstate.EvaluationState's objectives
// and results to MEMORY and return their payloads.
package evalalgo

import (
	"context"

	"go.uber.org/zap"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/evalstate"
	"github.com/gitrdm/neads/internal/tempfile"
)

// defaultBudgetBytes is used when no WithBudget option is supplied; it is
// intentionally generous since exact memory-limit enforcement is a
// documented non-goal (spec.md §1/§13) — the budget only shapes *when*
// store() spills happen, never a hard ceiling.
const defaultBudgetBytes = 512 * 1024 * 1024

// Algorithm drives an EvaluationState's objectives and results to MEMORY
// and returns the materialized payload of every result activation
// (spec.md §4.6's `evaluate(evaluation_state) → map[Activation → payload]`
// contract).
type Algorithm interface {
	Run(ctx context.Context, s *evalstate.EvaluationState) (map[activation.Activation]any, error)
}

// Option configures which Algorithm New builds and how.
type Option func(*settings)

type settings struct {
	budget uint64
	log    *zap.Logger
	kind   string
}

// WithBudget sets the complex algorithm's soft memory budget L, in bytes
// of resident memory, above which it begins spilling MEMORY nodes to disk.
// Ignored by the topological and breadth-first algorithms, which never
// spill.
func WithBudget(bytes uint64) Option {
	return func(s *settings) { s.budget = bytes }
}

// WithLogger installs a structured logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *settings) { s.log = log }
}

// WithTopological selects the non-spilling topological-order algorithm
// instead of the default spill-aware "complex" one.
func WithTopological() Option {
	return func(s *settings) { s.kind = "topological" }
}

// WithBreadthFirst selects the non-spilling breadth-first ("bttb") algorithm
// recovered from the original implementation, instead of the default
// spill-aware "complex" one.
func WithBreadthFirst() Option {
	return func(s *settings) { s.kind = "breadthfirst" }
}

// New builds the Algorithm selected by opts, defaulting to the spill-aware
// complex algorithm with defaultBudgetBytes.
func New(store *tempfile.Store, opts ...Option) Algorithm {
	s := &settings{budget: defaultBudgetBytes, log: zap.NewNop(), kind: "complex"}
	for _, opt := range opts {
		opt(s)
	}
	switch s.kind {
	case "topological":
		return NewTopological(s.log)
	case "breadthfirst":
		return NewBreadthFirst(s.log)
	default:
		return NewComplex(store, s.budget, s.log)
	}
}
