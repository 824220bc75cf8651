// Package activation implements the computation graph itself: an arena of
// activation records addressed by lightweight handles, per spec.md §4.2 and
// the design note "Activation ↔ Graph back-reference" (spec.md §9) —
// activations are indices into the graph's arena, not pointers, so the
// graph owns everything and there is no cyclic ownership to manage. This
// generalizes the teacher's pool-of-reusable-resources idiom
// (pkg/minikanren/pool.go's ConstraintStorePool) from an object pool to an
// append-only arena.
package activation

import (
	"fmt"
	"sort"

	"github.com/gitrdm/neads/argset"
	"github.com/gitrdm/neads/datadef"
	"github.com/gitrdm/neads/nerrors"
	"github.com/gitrdm/neads/plugin"
	"github.com/gitrdm/neads/symbolic"
)

// ResultTriggerFunc fires when an activation's data first reaches MEMORY.
// It receives the graph (so it may add activations) and the materialized
// result, and returns any activations it created, for the caller to
// incorporate (spec.md §4.5: "a trigger fire comprises ... invoke,
// incorporate returned activations").
type ResultTriggerFunc func(g *ActivationGraph, result any) ([]Activation, error)

// DescendantsTriggerFunc fires once none of an activation's descendants
// carries any trigger (spec.md §4.4).
type DescendantsTriggerFunc func(g *ActivationGraph) ([]Activation, error)

// GraphTriggerFunc is the graph-level trigger_method (spec.md §4.5): fired
// once no activation anywhere still carries a trigger.
type GraphTriggerFunc func(g *ActivationGraph) ([]Activation, error)

type dedupKey struct {
	pluginID plugin.ID
	argHash  uint64
}

// activationRecord is one arena slot. Fields are unexported; all outside
// access goes through the Activation handle's accessor methods, mirroring
// how the teacher keeps Term/Var internals private behind small accessor
// methods.
type activationRecord struct {
	plugin plugin.Plugin
	argSet *argset.SymbolicArgumentSet
	symbol *symbolic.Symbol

	parents  []Activation // unique, ascending index order
	children []Activation

	level      int
	usedInputs map[int]struct{}

	triggerOnResult      ResultTriggerFunc
	triggerOnDescendants DescendantsTriggerFunc
}

// ActivationGraph is the arena described above. A freshly constructed graph
// has inputsCount free input Symbols and no activations.
type ActivationGraph struct {
	inputsCount  int
	inputSymbols []*symbolic.Symbol
	inputIndex   map[*symbolic.Symbol]int

	records     []activationRecord
	symbolIndex map[*symbolic.Symbol]int // activation's own Symbol -> record index
	dedup       map[dedupKey][]int

	triggerMethod GraphTriggerFunc
}

// New builds an ActivationGraph with inputsCount free input Symbols
// (spec.md §4.2: "inputs_count ≥ 0 input symbols, fixed at construction").
func New(inputsCount int) *ActivationGraph {
	g := &ActivationGraph{
		inputsCount:  inputsCount,
		inputSymbols: make([]*symbolic.Symbol, inputsCount),
		inputIndex:   make(map[*symbolic.Symbol]int, inputsCount),
		symbolIndex:  make(map[*symbolic.Symbol]int),
		dedup:        make(map[dedupKey][]int),
	}
	for i := 0; i < inputsCount; i++ {
		sym := symbolic.NewSymbol(fmt.Sprintf("input_%d", i))
		g.inputSymbols[i] = sym
		g.inputIndex[sym] = i
	}
	return g
}

// InputsCount returns the number of free input Symbols fixed at
// construction.
func (g *ActivationGraph) InputsCount() int { return g.inputsCount }

// InputSymbol returns the i-th input Symbol.
func (g *ActivationGraph) InputSymbol(i int) *symbolic.Symbol { return g.inputSymbols[i] }

// InputSymbols returns all input Symbols, in order.
func (g *ActivationGraph) InputSymbols() []*symbolic.Symbol {
	out := make([]*symbolic.Symbol, len(g.inputSymbols))
	copy(out, g.inputSymbols)
	return out
}

// Activations returns a snapshot of every activation in the graph, in
// creation order. Per spec.md §4.2 ("undefined behavior if the graph is
// mutated during iteration... implementations must document and may
// snapshot"), this returns a fresh slice rather than a live view.
func (g *ActivationGraph) Activations() []Activation {
	out := make([]Activation, len(g.records))
	for i := range g.records {
		out[i] = Activation{graph: g, index: i}
	}
	return out
}

// AddActivation constructs a SymbolicArgumentSet from positional/keyword
// arguments, checks every free Symbol belongs to this graph, and dedups by
// (plugin id, arg set) — per spec.md §4.2 and the idempotence property in
// spec.md §8 ("add_activation is idempotent... including
// positional-vs-keyword equivalence").
func (g *ActivationGraph) AddActivation(p plugin.Plugin, positional []any, keyword map[string]any) (Activation, error) {
	set, err := argset.New(p.Signature, positional, keyword)
	if err != nil {
		return Activation{}, err
	}
	return g.addActivationWithSet(p, set)
}

// AddActivationFunc is the convenience entry point from
// original_source/neads/activation_model/activation_graph.py's
// add_activation overload that accepts a bare callable: it auto-wraps fn as
// a single-version plugin, for callers that have no plugin registry to
// consult.
func (g *ActivationGraph) AddActivationFunc(name string, sig plugin.Signature, fn plugin.PluginFunc, positional []any, keyword map[string]any) (Activation, error) {
	return g.AddActivation(plugin.Plugin{ID: plugin.ID{Name: name, Version: "v1"}, Signature: sig, Func: fn}, positional, keyword)
}

func (g *ActivationGraph) addActivationWithSet(p plugin.Plugin, set *argset.SymbolicArgumentSet) (Activation, error) {
	key := dedupKey{pluginID: p.ID, argHash: set.Hash()}
	for _, idx := range g.dedup[key] {
		if g.records[idx].argSet.Equal(set) {
			return Activation{graph: g, index: idx}, nil
		}
	}

	free := set.GetSymbols()
	usedInputs := make(map[int]struct{})
	parentSeen := make(map[int]struct{}, len(free))
	var parents []Activation
	for sym := range free {
		if idx, ok := g.inputIndex[sym]; ok {
			usedInputs[idx] = struct{}{}
			continue
		}
		idx, ok := g.symbolIndex[sym]
		if !ok {
			return Activation{}, nerrors.NewForeignSymbolError(sym.String())
		}
		if _, seen := parentSeen[idx]; !seen {
			parentSeen[idx] = struct{}{}
			parents = append(parents, Activation{graph: g, index: idx})
		}
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].index < parents[j].index })

	level := 0
	for _, parent := range parents {
		if l := g.records[parent.index].level + 1; l > level {
			level = l
		}
	}

	sym := symbolic.NewSymbol(p.ID.Name)
	idx := len(g.records)
	g.records = append(g.records, activationRecord{
		plugin:     p,
		argSet:     set,
		symbol:     sym,
		parents:    parents,
		level:      level,
		usedInputs: usedInputs,
	})
	act := Activation{graph: g, index: idx}

	for _, parent := range parents {
		g.records[parent.index].children = append(g.records[parent.index].children, act)
	}

	g.symbolIndex[sym] = idx
	g.dedup[key] = append(g.dedup[key], idx)

	return act, nil
}

// AttachGraph copies every activation of other into g, substituting other's
// input Symbols with realizations (spec.md §4.2: "attach_graph"). realizations
// must have exactly other.InputsCount() entries; non-symbolic.Object entries
// are auto-wrapped as Values; a Symbol realization must belong to g (the
// receiving graph), else ForeignSymbol. Returns a mapping from other's
// activations to the (possibly deduplicated) activations created in g.
func (g *ActivationGraph) AttachGraph(other *ActivationGraph, realizations []any) (map[Activation]Activation, error) {
	if len(realizations) != other.inputsCount {
		return nil, nerrors.NewArgumentError(fmt.Sprintf("activation: attach_graph expected %d realizations, got %d", other.inputsCount, len(realizations)))
	}

	subst := make(map[*symbolic.Symbol]symbolic.Object, len(realizations)+len(other.records))
	for i, r := range realizations {
		obj, ok := r.(symbolic.Object)
		if !ok {
			obj = symbolic.NewValue(r)
		}
		if sym, isSym := obj.(*symbolic.Symbol); isSym {
			_, isOwnInput := g.inputIndex[sym]
			_, isOwnActivation := g.symbolIndex[sym]
			if !isOwnInput && !isOwnActivation {
				return nil, nerrors.NewForeignSymbolError(sym.String())
			}
		}
		subst[other.inputSymbols[i]] = obj
	}

	mapping := make(map[Activation]Activation, len(other.records))
	for idx := range other.records {
		oldRec := &other.records[idx]
		oldAct := Activation{graph: other, index: idx}

		newSet := oldRec.argSet
		for oldSym := range newSet.GetSymbols() {
			repl, ok := subst[oldSym]
			if !ok {
				continue
			}
			substituted, err := newSet.Substitute(oldSym, repl)
			if err != nil {
				return nil, err
			}
			newSet = substituted
		}

		newAct, err := g.addActivationWithSet(oldRec.plugin, newSet)
		if err != nil {
			return nil, err
		}
		mapping[oldAct] = newAct
		subst[oldRec.symbol] = newAct.Symbol()
	}
	return mapping, nil
}

// Seal finalizes a zero-input graph, validating that it is sealable — the
// only kind of graph the evaluator accepts (spec.md §4.2:
// "SealedActivationGraph is the special case of zero inputs and is the only
// kind accepted by the evaluator"). DataDefinitions themselves are computed
// lazily and memoized (see DataDefinition) rather than all at once here,
// because a trigger_on_result or trigger_on_descendants fired after Seal
// may still append activations to the same underlying graph (spec.md
// §4.5); precomputing a fixed-size table at Seal time would leave those
// late arrivals with no DataDefinition.
func (g *ActivationGraph) Seal() (*SealedActivationGraph, error) {
	if g.inputsCount != 0 {
		return nil, nerrors.NewArgumentError("activation: only a zero-input graph can be sealed")
	}
	return &SealedActivationGraph{ActivationGraph: g, dataDefs: make(map[int]*datadef.DataDefinition)}, nil
}

// --- trigger slot mutators (spec.md §4.2) ---

// SetTriggerOnResult installs a's trigger_on_result. Fails
// TriggerAlreadyPresent if one is already set; the caller must Clear first.
func (g *ActivationGraph) SetTriggerOnResult(a Activation, fn ResultTriggerFunc) error {
	rec := g.recordFor(a)
	if rec.triggerOnResult != nil {
		return nerrors.NewTriggerAlreadyPresentError("trigger_on_result")
	}
	rec.triggerOnResult = fn
	return nil
}

// ClearTriggerOnResult removes a's trigger_on_result. Fails TriggerAbsent if
// none is set.
func (g *ActivationGraph) ClearTriggerOnResult(a Activation) error {
	rec := g.recordFor(a)
	if rec.triggerOnResult == nil {
		return nerrors.NewTriggerAbsentError("trigger_on_result")
	}
	rec.triggerOnResult = nil
	return nil
}

// HasTriggerOnResult reports whether a currently carries a
// trigger_on_result.
func (g *ActivationGraph) HasTriggerOnResult(a Activation) bool {
	return g.recordFor(a).triggerOnResult != nil
}

// TriggerOnResult returns a's current trigger_on_result, or nil.
func (g *ActivationGraph) TriggerOnResult(a Activation) ResultTriggerFunc {
	return g.recordFor(a).triggerOnResult
}

// SetTriggerOnDescendants installs a's trigger_on_descendants. Fails
// TriggerAlreadyPresent if one is already set.
func (g *ActivationGraph) SetTriggerOnDescendants(a Activation, fn DescendantsTriggerFunc) error {
	rec := g.recordFor(a)
	if rec.triggerOnDescendants != nil {
		return nerrors.NewTriggerAlreadyPresentError("trigger_on_descendants")
	}
	rec.triggerOnDescendants = fn
	return nil
}

// ClearTriggerOnDescendants removes a's trigger_on_descendants. Fails
// TriggerAbsent if none is set.
func (g *ActivationGraph) ClearTriggerOnDescendants(a Activation) error {
	rec := g.recordFor(a)
	if rec.triggerOnDescendants == nil {
		return nerrors.NewTriggerAbsentError("trigger_on_descendants")
	}
	rec.triggerOnDescendants = nil
	return nil
}

// HasTriggerOnDescendants reports whether a currently carries a
// trigger_on_descendants.
func (g *ActivationGraph) HasTriggerOnDescendants(a Activation) bool {
	return g.recordFor(a).triggerOnDescendants != nil
}

// TriggerOnDescendants returns a's current trigger_on_descendants, or nil.
func (g *ActivationGraph) TriggerOnDescendants(a Activation) DescendantsTriggerFunc {
	return g.recordFor(a).triggerOnDescendants
}

// SetTriggerMethod installs the graph-level trigger_method. Fails
// TriggerAlreadyPresent if one is already set.
func (g *ActivationGraph) SetTriggerMethod(fn GraphTriggerFunc) error {
	if g.triggerMethod != nil {
		return nerrors.NewTriggerAlreadyPresentError("trigger_method")
	}
	g.triggerMethod = fn
	return nil
}

// ClearTriggerMethod removes the graph-level trigger_method. Fails
// TriggerAbsent if none is set.
func (g *ActivationGraph) ClearTriggerMethod() error {
	if g.triggerMethod == nil {
		return nerrors.NewTriggerAbsentError("trigger_method")
	}
	g.triggerMethod = nil
	return nil
}

// HasTriggerMethod reports whether the graph currently carries a
// trigger_method.
func (g *ActivationGraph) HasTriggerMethod() bool { return g.triggerMethod != nil }

// TriggerMethod returns the graph's current trigger_method, or nil.
func (g *ActivationGraph) TriggerMethod() GraphTriggerFunc { return g.triggerMethod }

func (g *ActivationGraph) recordFor(a Activation) *activationRecord {
	return &g.records[a.index]
}

// SealedActivationGraph is an ActivationGraph with zero inputs where every
// activation additionally carries a DataDefinition (spec.md §3). It is the
// only graph kind evalstate.New accepts.
type SealedActivationGraph struct {
	*ActivationGraph
	dataDefs map[int]*datadef.DataDefinition
}

// DataDefinition returns a's content-addressed identity, computing and
// memoizing it on first request. Parents always precede children in index
// order (activations are append-only and acyclic), so recursing into
// parents before memoizing a's own entry always terminates.
func (sg *SealedActivationGraph) DataDefinition(a Activation) *datadef.DataDefinition {
	if dd, ok := sg.dataDefs[a.index]; ok {
		return dd
	}

	rec := sg.recordFor(a)
	parents := make(map[*symbolic.Symbol]*datadef.DataDefinition, len(rec.parents))
	for sym := range rec.argSet.GetSymbols() {
		parentIdx, ok := sg.symbolIndex[sym]
		if !ok {
			panic("activation: DataDefinition found a free Symbol with no owning activation: " + sym.String())
		}
		parents[sym] = sg.DataDefinition(Activation{graph: sg.ActivationGraph, index: parentIdx})
	}

	dd, err := datadef.New(rec.plugin.ID, rec.argSet, parents)
	if err != nil {
		panic("activation: DataDefinition could not intern a well-formed activation's definition: " + err.Error())
	}
	sg.dataDefs[a.index] = dd
	return dd
}
