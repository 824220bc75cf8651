// Package argset binds raw plugin arguments to a plugin.Signature, producing
// the immutable, hashable SymbolicArgumentSet identity spec.md §4.1
// describes: "Binds symbolic arguments to a plugin signature; hashable
// identity."
package argset

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/gitrdm/neads/nerrors"
	"github.com/gitrdm/neads/plugin"
	"github.com/gitrdm/neads/symbolic"
)

// SymbolicArgumentSet is (signature, positional, keyword) bound and
// defaulted per spec.md §4.1. Two sets built from equal signatures and
// structurally equal bound arguments compare Equal and share a stable Hash,
// the same "canonical-encode-then-compare" shape datadef.DataDefinition
// later builds on.
type SymbolicArgumentSet struct {
	signature plugin.Signature
	names     []string
	bound     map[string]symbolic.Object
	hash      uint64
}

// New binds positional and keyword arguments against sig. Any argument that
// is not already a symbolic.Object is auto-wrapped as a symbolic.Value
// (spec.md §4.1: "any non-SymbolicObject argument is auto-wrapped as
// Value"). Missing parameters take their signature default. Arguments that
// materialize to non-hashable payloads at bind time (bare slices, maps,
// funcs wrapped as Values) are rejected immediately, since a
// SymbolicArgumentSet's own identity must be hashable.
func New(sig plugin.Signature, positional []any, keyword map[string]any) (*SymbolicArgumentSet, error) {
	wrappedPositional := make([]symbolic.Object, len(positional))
	for i, a := range positional {
		wrappedPositional[i] = wrap(a)
	}
	wrappedKeyword := make(map[string]symbolic.Object, len(keyword))
	for k, a := range keyword {
		wrappedKeyword[k] = wrap(a)
	}

	bound, err := sig.Bind(wrappedPositional, wrappedKeyword)
	if err != nil {
		return nil, err
	}

	for name, obj := range bound {
		if v, ok := obj.(*symbolic.Value); ok && !isHashable(v.Payload()) {
			return nil, nerrors.NewArgumentError(fmt.Sprintf("argset: parameter %q binds a non-hashable payload", name))
		}
	}

	return build(sig, sig.Names(), bound)
}

// wrap lifts a raw Go value into a symbolic.Object, passing existing
// symbolic.Objects through unchanged.
func wrap(a any) symbolic.Object {
	if obj, ok := a.(symbolic.Object); ok {
		return obj
	}
	return symbolic.NewValue(a)
}

func isHashable(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Map, reflect.Func:
		return false
	default:
		return true
	}
}

func build(sig plugin.Signature, names []string, bound map[string]symbolic.Object) (*SymbolicArgumentSet, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	h := xxhash.New()
	for _, name := range sorted {
		obj, ok := bound[name]
		if !ok {
			continue
		}
		fmt.Fprintf(h, "%s=%s;", name, obj.String())
	}

	return &SymbolicArgumentSet{
		signature: sig,
		names:     names,
		bound:     bound,
		hash:      h.Sum64(),
	}, nil
}

// Hash returns a stable hash over the bound arguments and parameter names,
// used as the fast-path equality pre-check and folded into
// datadef.DataDefinition's canonical encoding.
func (s *SymbolicArgumentSet) Hash() uint64 { return s.hash }

// Equal reports whether two argument sets bind the same parameter names to
// structurally equal arguments (spec.md §4.1: "equal iff the bound
// arguments are equal (including default-materialized parameters)").
func (s *SymbolicArgumentSet) Equal(other *SymbolicArgumentSet) bool {
	if other == nil || s.hash != other.hash || len(s.names) != len(other.names) {
		return false
	}
	for _, name := range s.names {
		a, ok := s.bound[name]
		b, ok2 := other.bound[name]
		if ok != ok2 {
			return false
		}
		if ok && !a.Equal(b) {
			return false
		}
	}
	return true
}

// Signature returns the signature this set was bound against.
func (s *SymbolicArgumentSet) Signature() plugin.Signature { return s.signature }

// BoundArguments returns the parameter-name → bound-Object map, primarily
// for datadef's canonical encoding.
func (s *SymbolicArgumentSet) BoundArguments() map[string]symbolic.Object {
	out := make(map[string]symbolic.Object, len(s.bound))
	for k, v := range s.bound {
		out[k] = v
	}
	return out
}

// GetSymbols returns the set of free symbols reachable from any bound
// argument.
func (s *SymbolicArgumentSet) GetSymbols() map[*symbolic.Symbol]struct{} {
	out := map[*symbolic.Symbol]struct{}{}
	for _, obj := range s.bound {
		for sym := range obj.Symbols() {
			out[sym] = struct{}{}
		}
	}
	return out
}

// Substitute replaces every occurrence of from with to across the bound
// arguments, returning a fresh SymbolicArgumentSet under the same signature.
func (s *SymbolicArgumentSet) Substitute(from *symbolic.Symbol, to symbolic.Object) (*SymbolicArgumentSet, error) {
	next := make(map[string]symbolic.Object, len(s.bound))
	for name, obj := range s.bound {
		sub, err := obj.Substitute(from, to)
		if err != nil {
			return nil, err
		}
		next[name] = sub
	}
	return build(s.signature, s.names, next)
}

// GetActualArguments materializes every bound argument against bindings,
// returning a plain map keyed by parameter name, ready to pass to a
// plugin.PluginFunc (spec.md §4.1/§6.1). All parameters are materialized in
// one pass, so a Symbol occurring in several parameters shares one copy.
func (s *SymbolicArgumentSet) GetActualArguments(bindings map[*symbolic.Symbol]any, copy bool) (map[string]any, error) {
	names := make([]string, 0, len(s.bound))
	objs := make([]symbolic.Object, 0, len(s.bound))
	for name, obj := range s.bound {
		names = append(names, name)
		objs = append(objs, obj)
	}
	v, err := symbolic.GetValue(symbolic.NewList(objs...), bindings, copy, true)
	if err != nil {
		return nil, err
	}
	items := v.([]any)
	out := make(map[string]any, len(items))
	for i, name := range names {
		out[name] = items[i]
	}
	return out, nil
}
