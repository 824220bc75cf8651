package symbolic

import (
	"fmt"
	"sync/atomic"
)

var symbolCounter int64

// Symbol is an opaque free variable. Equality and hashing are by pointer
// identity, generalizing the teacher's Var (pkg/minikanren/core.go), whose
// equality likewise compares a unique id rather than structure. Unlike Var,
// a Symbol carries no internal mutable state, so no mutex is needed — the
// id and name are fixed at construction.
type Symbol struct {
	id   int64
	name string
}

// NewSymbol creates a fresh Symbol. name is optional and used only for
// debugging output; two symbols with the same name are still distinct.
func NewSymbol(name string) *Symbol {
	return &Symbol{id: atomic.AddInt64(&symbolCounter, 1), name: name}
}

func (s *Symbol) String() string {
	if s.name != "" {
		return fmt.Sprintf("#%s_%d", s.name, s.id)
	}
	return fmt.Sprintf("#sym_%d", s.id)
}

// ID returns the symbol's unique identifier, stable for the life of the
// process. It is exposed for use as a map key substitute in contexts that
// need a comparable, serializable handle (e.g. logging).
func (s *Symbol) ID() int64 { return s.id }

func (s *Symbol) Substitute(from *Symbol, to Object) (Object, error) {
	if s == from {
		return to, nil
	}
	return s, nil
}

func (s *Symbol) Symbols() map[*Symbol]struct{} {
	return map[*Symbol]struct{}{s: {}}
}

func (s *Symbol) Equal(other Object) bool {
	o, ok := other.(*Symbol)
	return ok && o == s
}

func (s *Symbol) materialize(ctx *materializeCtx) (any, error) {
	return ctx.resolve(s)
}
