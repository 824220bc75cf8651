package symbolic

import "strings"

// List is a symbolic composite analogous to the teacher's Pair-built lists,
// generalized from a cons cell to a flat slice of children — the original
// Python neads.symbolic_objects.concrete_composite_objects.list_object
// likewise stores a plain sequence rather than cons cells.
type List struct {
	items []Object
}

// NewList builds a List from the given items, copying the slice so later
// mutation of the caller's slice doesn't affect the List.
func NewList(items ...Object) *List {
	cp := make([]Object, len(items))
	copy(cp, items)
	return &List{items: cp}
}

// Items returns the list's children in order.
func (l *List) Items() []Object {
	out := make([]Object, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) String() string {
	parts := make([]string, len(l.items))
	for i, it := range l.items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) Substitute(from *Symbol, to Object) (Object, error) {
	changed := false
	next := make([]Object, len(l.items))
	for i, it := range l.items {
		sub, err := it.Substitute(from, to)
		if err != nil {
			return nil, err
		}
		if sub != it {
			changed = true
		}
		next[i] = sub
	}
	if !changed {
		return l, nil
	}
	return &List{items: next}, nil
}

func (l *List) Symbols() map[*Symbol]struct{} {
	out := map[*Symbol]struct{}{}
	for _, it := range l.items {
		for s := range it.Symbols() {
			out[s] = struct{}{}
		}
	}
	return out
}

func (l *List) Equal(other Object) bool {
	o, ok := other.(*List)
	if !ok || len(o.items) != len(l.items) {
		return false
	}
	for i, it := range l.items {
		if !it.Equal(o.items[i]) {
			return false
		}
	}
	return true
}

func (l *List) materialize(ctx *materializeCtx) (any, error) {
	out := make([]any, len(l.items))
	for i, it := range l.items {
		v, err := it.materialize(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
