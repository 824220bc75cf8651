// Package symbolic provides the immutable tree of symbolic objects used to
// describe plugin arguments before they are bound to concrete data: Symbol,
// Value, List and Dict. Objects support substitution of free symbols and
// materialization into plain payload trees once every symbol is bound.
package symbolic

import (
	"fmt"
	"sort"

	"github.com/gitrdm/neads/nerrors"
)

// Object is the sum type {Symbol, Value, List, Dict}. All implementations are
// immutable after construction; every mutating-looking operation returns a
// fresh Object.
type Object interface {
	fmt.Stringer

	// Substitute replaces every occurrence of from with to, returning self
	// when from does not occur anywhere in the tree.
	Substitute(from *Symbol, to Object) (Object, error)

	// Symbols returns the set of free symbols reachable from this object.
	Symbols() map[*Symbol]struct{}

	// Equal reports structural equality; Symbols compare by identity, Values
	// by payload, List/Dict recursively.
	Equal(other Object) bool

	// materialize is the internal recursive half of GetValue; it threads a
	// shared context so that repeated occurrences of one symbol can share a
	// single copy within one materialization call.
	materialize(ctx *materializeCtx) (any, error)
}

// Binding pairs a Symbol with its replacement Object, for the "iterable of
// pairs" form of substitution.
type Binding struct {
	From *Symbol
	To   Object
}

// SubstituteAll applies a map of substitutions, equivalent to repeatedly
// calling Substitute for each entry. An empty map returns o unchanged;
// duplicate "from" symbols cannot occur in a Go map, so the ValueError case
// from spec.md §4.1 applies only to SubstitutePairs.
func SubstituteAll(o Object, subs map[*Symbol]Object) (Object, error) {
	cur := o
	for from, to := range subs {
		next, err := cur.Substitute(from, to)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// SubstitutePairs applies substitutions in order, rejecting a Symbol that
// appears as "from" more than once (spec.md §4.1: "Fails ValueError if a
// Symbol appears as 'from' more than once").
func SubstitutePairs(o Object, pairs []Binding) (Object, error) {
	seen := make(map[*Symbol]struct{}, len(pairs))
	for _, p := range pairs {
		if _, ok := seen[p.From]; ok {
			return nil, nerrors.NewArgumentError("substitute: symbol appears more than once as a substitution source")
		}
		seen[p.From] = struct{}{}
	}
	cur := o
	for _, p := range pairs {
		next, err := cur.Substitute(p.From, p.To)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// GetValue materializes o into a plain payload tree, requiring every free
// symbol to be bound in bindings. copy and share control how payloads bound
// to Symbols are handled, per spec.md §4.1:
//
//   - copy=true, share=true (default): each Symbol's replacement is deep
//     copied once; repeated occurrences of that Symbol share the one copy.
//   - copy=true, share=false: every occurrence gets its own deep copy.
//   - copy=false: the payload is passed through by reference.
func GetValue(o Object, bindings map[*Symbol]any, copy, share bool) (any, error) {
	ctx := &materializeCtx{
		bindings: bindings,
		copy:     copy,
		share:    share,
		cache:    make(map[*Symbol]any),
	}
	return o.materialize(ctx)
}

type materializeCtx struct {
	bindings map[*Symbol]any
	copy     bool
	share    bool
	cache    map[*Symbol]any
}

func (c *materializeCtx) resolve(s *Symbol) (any, error) {
	payload, ok := c.bindings[s]
	if !ok {
		return nil, nerrors.NewUnboundSymbolError(s.String())
	}

	if !c.copy {
		return payload, nil
	}

	if c.share {
		if v, ok := c.cache[s]; ok {
			return v, nil
		}
		v := deepCopy(payload)
		c.cache[s] = v
		return v, nil
	}

	return deepCopy(payload), nil
}

// sortedSymbolStrings is a small helper used by String() implementations
// below to produce deterministic output for Dict, whose iteration order is
// otherwise unspecified (spec.md §3: "dicts preserve no order semantics").
func sortedSymbolStrings(ss []string) []string {
	sort.Strings(ss)
	return ss
}
