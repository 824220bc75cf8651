package symbolic

import (
	"fmt"
	"strings"

	"github.com/gitrdm/neads/nerrors"
)

// entry is a key/value pair in a Dict. Dict stores entries in a slice
// rather than a Go map because Object keys aren't necessarily comparable in
// the Go sense until they're materialized (spec.md §3: "Dict keys must
// ultimately materialize to hashable payloads"; the symbolic key itself may
// still contain free Symbols).
type entry struct {
	key   Object
	value Object
}

// Dict is a symbolic composite mapping SymbolicObject keys to SymbolicObject
// values. Order is not part of its equality or materialized semantics,
// matching spec.md §3 ("dicts preserve no order semantics").
type Dict struct {
	entries []entry
}

// NewDict builds a Dict from alternating key/value Objects, preserving the
// caller's given key set (no dedup at construction time — duplicate keys
// are only an error once materialized, since two symbolic keys might or
// might not collide once bound).
func NewDict(pairs ...[2]Object) *Dict {
	es := make([]entry, len(pairs))
	for i, p := range pairs {
		es[i] = entry{key: p[0], value: p[1]}
	}
	return &Dict{entries: es}
}

// Entries returns the dict's key/value pairs.
func (d *Dict) Entries() [][2]Object {
	out := make([][2]Object, len(d.entries))
	for i, e := range d.entries {
		out[i] = [2]Object{e.key, e.value}
	}
	return out
}

func (d *Dict) String() string {
	parts := make([]string, len(d.entries))
	for i, e := range d.entries {
		parts[i] = fmt.Sprintf("%s: %s", e.key, e.value)
	}
	return "{" + strings.Join(sortedSymbolStrings(parts), ", ") + "}"
}

func (d *Dict) Substitute(from *Symbol, to Object) (Object, error) {
	changed := false
	next := make([]entry, len(d.entries))
	for i, e := range d.entries {
		k, err := e.key.Substitute(from, to)
		if err != nil {
			return nil, err
		}
		v, err := e.value.Substitute(from, to)
		if err != nil {
			return nil, err
		}
		if k != e.key || v != e.value {
			changed = true
		}
		next[i] = entry{key: k, value: v}
	}
	if !changed {
		return d, nil
	}
	return &Dict{entries: next}, nil
}

func (d *Dict) Symbols() map[*Symbol]struct{} {
	out := map[*Symbol]struct{}{}
	for _, e := range d.entries {
		for s := range e.key.Symbols() {
			out[s] = struct{}{}
		}
		for s := range e.value.Symbols() {
			out[s] = struct{}{}
		}
	}
	return out
}

// Equal compares two dicts without regard to entry order: every entry in d
// must have a structurally-equal counterpart in other, and vice versa.
func (d *Dict) Equal(other Object) bool {
	o, ok := other.(*Dict)
	if !ok || len(o.entries) != len(d.entries) {
		return false
	}
	used := make([]bool, len(o.entries))
	for _, e := range d.entries {
		found := false
		for j, oe := range o.entries {
			if used[j] {
				continue
			}
			if e.key.Equal(oe.key) && e.value.Equal(oe.value) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (d *Dict) materialize(ctx *materializeCtx) (any, error) {
	out := make(map[any]any, len(d.entries))
	for _, e := range d.entries {
		k, err := e.key.materialize(ctx)
		if err != nil {
			return nil, err
		}
		if !isHashable(k) {
			return nil, nerrors.NewArgumentError(fmt.Sprintf("dict key materializes to non-hashable value: %v", k))
		}
		if _, dup := out[k]; dup {
			return nil, nerrors.NewArgumentError(fmt.Sprintf("duplicate materialized dict key: %v", k))
		}
		v, err := e.value.materialize(ctx)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}
