// Package datadef provides DataDefinition, the content-addressed, interned
// identity of a concrete computation: spec.md §1 "Content-addressed,
// interned identity of a concrete computation (plugin id + fully-bound
// argument set)." It generalizes the teacher's tabling.go CallPattern,
// which likewise canonically encodes-then-hashes a call shape and interns
// the result in a table keyed by that hash — CallPattern uses sha256 since
// it is computed once per tabled subgoal; DataDefinition is computed far
// more often (every activation, every evaluation step), so it uses
// xxhash/v2 instead, accepting a smaller (but for this process's lifetime,
// practically negligible) collision probability.
package datadef

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/gitrdm/neads/argset"
	"github.com/gitrdm/neads/nerrors"
	"github.com/gitrdm/neads/plugin"
	"github.com/gitrdm/neads/symbolic"
)

// DataDefinition is the interned handle spec.md §1/§4.1 describes:
// (plugin id, fully-bound SymbolicArgumentSet, recursive map Symbol→parent
// DataDefinition). Two DataDefinitions built from the same logical identity
// are always the same *DataDefinition value — compare with ==.
type DataDefinition struct {
	key      uint64
	pluginID plugin.ID
	args     *argset.SymbolicArgumentSet
	parents  map[*symbolic.Symbol]*DataDefinition
}

// Key returns the content-addressed hash used both as the intern table key
// and as the database key (spec.md §6.2: "Keys are DataDefinition handles
// (content-addressed)").
func (d *DataDefinition) Key() uint64 { return d.key }

// PluginID returns the plugin this definition invokes.
func (d *DataDefinition) PluginID() plugin.ID { return d.pluginID }

// Args returns the fully-bound argument set (still carrying any Symbols
// that stand for parent computations — those are resolved via Parents, not
// substituted away, so that replaying the computation can reconstruct the
// actual bindings from the parents' own materialized data).
func (d *DataDefinition) Args() *argset.SymbolicArgumentSet { return d.args }

// Parents returns the Symbol→parent-DataDefinition map that accounts for
// every free symbol in Args.
func (d *DataDefinition) Parents() map[*symbolic.Symbol]*DataDefinition {
	out := make(map[*symbolic.Symbol]*DataDefinition, len(d.parents))
	for k, v := range d.parents {
		out[k] = v
	}
	return out
}

func (d *DataDefinition) String() string {
	return fmt.Sprintf("DataDefinition(%s, key=%x)", d.pluginID, d.key)
}

// placeholderParent is substituted in place of each parent Symbol before
// hashing, so the resulting canonical bytes depend on the parent's own
// content hash rather than on that Symbol's process-local pointer identity
// — this is what makes DataDefinition's hash reproducible across a
// deserialize-and-re-intern round trip (spec.md §1: "serializable such
// that deserialization re-interns to the same handle"), since the parent's
// hash is itself computed the same way, recursively bottoming out at
// parent-less (leaf) definitions whose Args contain no Symbols at all.
type placeholderParent struct {
	ParentKey uint64
}

// Table is a process-wide (or test-scoped) intern table mapping content
// hash to DataDefinition, generalizing the teacher's SubgoalTable
// (tabling.go) from (pattern hash → answer trie) to (content hash →
// interned identity).
type Table struct {
	mu      sync.Mutex
	entries map[uint64]*DataDefinition
}

// NewTable builds an empty, independent intern table. Most callers should
// use the package-level default table via New; NewTable exists for tests
// and for embedding a scoped table inside a larger evaluation run.
func NewTable() *Table {
	return &Table{entries: make(map[uint64]*DataDefinition)}
}

var defaultTable = NewTable()

// New interns a DataDefinition in the process-wide default table. See
// Table.Intern for the full contract.
func New(pluginID plugin.ID, args *argset.SymbolicArgumentSet, parents map[*symbolic.Symbol]*DataDefinition) (*DataDefinition, error) {
	return defaultTable.Intern(pluginID, args, parents)
}

// Intern builds (or returns the existing) DataDefinition for
// (pluginID, args, parents). Every free Symbol in args must have an entry
// in parents — spec.md §1: "No Symbol may remain unaccounted for" — else
// this returns an ArgumentError.
func (t *Table) Intern(pluginID plugin.ID, args *argset.SymbolicArgumentSet, parents map[*symbolic.Symbol]*DataDefinition) (*DataDefinition, error) {
	free := args.GetSymbols()
	for sym := range free {
		if _, ok := parents[sym]; !ok {
			return nil, nerrors.NewArgumentError(fmt.Sprintf("datadef: symbol %s has no parent definition", sym))
		}
	}

	canonicalArgs := args
	for sym, parent := range parents {
		if _, stillFree := free[sym]; !stillFree {
			continue
		}
		substituted, err := canonicalArgs.Substitute(sym, symbolic.NewValue(placeholderParent{ParentKey: parent.key}))
		if err != nil {
			return nil, err
		}
		canonicalArgs = substituted
	}

	h := xxhash.New()
	fmt.Fprintf(h, "plugin=%s;args=%x;", pluginID, canonicalArgs.Hash())
	key := h.Sum64()

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.entries[key]; ok {
		return existing, nil
	}

	kept := make(map[*symbolic.Symbol]*DataDefinition, len(free))
	for sym := range free {
		kept[sym] = parents[sym]
	}

	d := &DataDefinition{key: key, pluginID: pluginID, args: args, parents: kept}
	t.entries[key] = d
	return d, nil
}

// Lookup returns the interned DataDefinition for key, if any — used by the
// database layer and by deserialization to re-intern a handle from its
// stored key without recomputing the full canonical encoding.
func (t *Table) Lookup(key uint64) (*DataDefinition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.entries[key]
	return d, ok
}
