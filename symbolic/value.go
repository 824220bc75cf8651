package symbolic

import (
	"fmt"
	"reflect"
)

// Value wraps an arbitrary plugin-domain payload. Equality is by payload
// value (reflect.DeepEqual, or the payload's own Equal method when it has
// one), the same role the teacher's Atom plays for non-variable terms.
type Value struct {
	payload any
}

// NewValue wraps payload as a symbolic Value. The payload is copied on
// ingress, per spec.md §3, so later mutation of the caller's original does
// not affect the Value.
func NewValue(payload any) *Value {
	return &Value{payload: deepCopy(payload)}
}

// Payload returns the wrapped value without copying. Callers that need
// isolation should use GetValue with copy=true instead.
func (v *Value) Payload() any { return v.payload }

func (v *Value) String() string {
	return fmt.Sprintf("%v", v.payload)
}

func (v *Value) Substitute(from *Symbol, to Object) (Object, error) {
	return v, nil
}

func (v *Value) Symbols() map[*Symbol]struct{} {
	return map[*Symbol]struct{}{}
}

func (v *Value) Equal(other Object) bool {
	o, ok := other.(*Value)
	if !ok {
		return false
	}
	if eq, ok := v.payload.(interface{ Equal(any) bool }); ok {
		return eq.Equal(o.payload)
	}
	return reflect.DeepEqual(v.payload, o.payload)
}

func (v *Value) materialize(ctx *materializeCtx) (any, error) {
	if ctx.copy {
		return deepCopy(v.payload), nil
	}
	return v.payload, nil
}
