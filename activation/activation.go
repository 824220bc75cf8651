package activation

import (
	"fmt"

	"github.com/gitrdm/neads/argset"
	"github.com/gitrdm/neads/plugin"
	"github.com/gitrdm/neads/symbolic"
)

// Activation is a lightweight handle into an ActivationGraph's arena: a
// graph pointer plus an index, never a pointer into the record itself, so
// copying an Activation is cheap and it remains comparable (usable as a map
// key) — see the package doc for the "Activation ↔ Graph back-reference"
// rationale.
type Activation struct {
	graph *ActivationGraph
	index int
}

// Graph returns the ActivationGraph this handle belongs to.
func (a Activation) Graph() *ActivationGraph { return a.graph }

// Index returns the handle's position in the graph's arena. Stable for the
// life of the graph (activations are append-only and never removed).
func (a Activation) Index() int { return a.index }

func (a Activation) String() string {
	return fmt.Sprintf("Activation(%s, %s)", a.graph.recordFor(a).plugin.ID, a.graph.recordFor(a).symbol)
}

// Plugin returns the plugin this activation invokes.
func (a Activation) Plugin() plugin.Plugin { return a.graph.recordFor(a).plugin }

// ArgSet returns the activation's bound argument set.
func (a Activation) ArgSet() *argset.SymbolicArgumentSet { return a.graph.recordFor(a).argSet }

// Symbol returns the Symbol that stands for this activation's result in
// descendant activations' argument sets.
func (a Activation) Symbol() *symbolic.Symbol { return a.graph.recordFor(a).symbol }

// Level is 0 if Parents is empty, else 1 + max(level(p) for p in Parents)
// (spec.md §4.2, spec.md §8).
func (a Activation) Level() int { return a.graph.recordFor(a).level }

// Parents returns the unique parent activations, in ascending index order.
func (a Activation) Parents() []Activation {
	rec := a.graph.recordFor(a)
	out := make([]Activation, len(rec.parents))
	copy(out, rec.parents)
	return out
}

// Children returns every activation that references this one as a parent,
// in the order they were added.
func (a Activation) Children() []Activation {
	rec := a.graph.recordFor(a)
	out := make([]Activation, len(rec.children))
	copy(out, rec.children)
	return out
}

// IsTerminal reports whether this activation has no children — the
// "childless node" spec.md §4.5/§8 enumerates into EvaluationState.results.
func (a Activation) IsTerminal() bool {
	return len(a.graph.recordFor(a).children) == 0
}

// ParentBySymbol maps each of this activation's free Symbols that resolves
// to a parent activation (as opposed to a graph input Symbol) to that
// parent, mirroring the lookup SealedActivationGraph.DataDefinition
// performs per-record — used by datanode
// to bind a parent's materialized data to the Symbol standing for it in
// this activation's argument set.
func (a Activation) ParentBySymbol() map[*symbolic.Symbol]Activation {
	g := a.graph
	rec := g.recordFor(a)
	out := make(map[*symbolic.Symbol]Activation, len(rec.parents))
	for sym := range rec.argSet.GetSymbols() {
		idx, ok := g.symbolIndex[sym]
		if !ok {
			continue
		}
		out[sym] = Activation{graph: g, index: idx}
	}
	return out
}

// UsedInputs returns the indices of the graph's input Symbols referenced
// directly by this activation's argument set.
func (a Activation) UsedInputs() []int {
	rec := a.graph.recordFor(a)
	out := make([]int, 0, len(rec.usedInputs))
	for i := range rec.usedInputs {
		out = append(out, i)
	}
	return out
}
