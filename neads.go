// Package neads is the top-level entry point of a content-addressed
// computation-graph evaluator: build a SealedActivationGraph of plugin
// activations, then call Evaluate to drive it to its results, spilling to
// disk under memory pressure and persisting through a content-addressed
// database (spec.md §1, §4.6).
package neads

import (
	"context"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/database"
	"github.com/gitrdm/neads/evalalgo"
	"github.com/gitrdm/neads/evalstate"
	"github.com/gitrdm/neads/internal/tempfile"
)

// Evaluate builds an EvaluationState over graph and drives it to completion
// with the algorithm opts select (the spill-aware "complex" algorithm by
// default), returning the materialized payload of every result activation.
//
// db is consulted for already-computed activations and used to persist
// newly evaluated ones; it is the caller's responsibility to Open and Close
// it. A fresh, process-local spill store backs any activation the chosen
// algorithm decides to move out of memory during the run.
func Evaluate(ctx context.Context, graph *activation.SealedActivationGraph, db database.Database, opts ...evalalgo.Option) (map[activation.Activation]any, error) {
	store, err := tempfile.NewStore()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	s, err := evalstate.New(graph, db, store)
	if err != nil {
		return nil, err
	}

	return evalalgo.New(store, opts...).Run(ctx, s)
}
