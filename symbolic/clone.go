package symbolic

import "reflect"

// Cloner may be implemented by plugin-domain payload types that know how to
// deep-copy themselves more cheaply (or more correctly) than reflection
// allows. Payloads that don't implement it fall back to deepCopy.
type Cloner interface {
	Clone() any
}

// DeepCopy exposes deepCopy for callers outside this package that need the
// same best-effort isolation semantics over a materialized payload —
// datanode.DataNode.GetData(copy=true) in particular.
func DeepCopy(v any) any { return deepCopy(v) }

// deepCopy makes a best-effort deep copy of an arbitrary plugin payload, per
// spec.md §3 ("the payload is copied on ingress and on materialization to
// preserve immutability"). Scalars (numbers, strings, bools, nil) are
// returned as-is since they're already immutable in Go. Maps, slices and
// arrays are copied recursively. Anything else that doesn't implement
// Cloner is returned unchanged — best effort, matching the size-accounting
// contract elsewhere in this package ("referents shared with unrelated
// objects are still counted (best-effort)").
func deepCopy(v any) any {
	if v == nil {
		return nil
	}
	if c, ok := v.(Cloner); ok {
		return c.Clone()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(reflect.ValueOf(deepCopy(rv.Index(i).Interface())))
		}
		return out.Interface()
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(reflect.ValueOf(deepCopy(rv.Index(i).Interface())))
		}
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), reflect.ValueOf(deepCopy(iter.Value().Interface())))
		}
		return out.Interface()
	case reflect.Ptr:
		if rv.IsNil() {
			return v
		}
		out := reflect.New(rv.Type().Elem())
		out.Elem().Set(reflect.ValueOf(deepCopy(rv.Elem().Interface())))
		return out.Interface()
	default:
		return v
	}
}

// isHashable reports whether v can be used as a Go map key without panicking.
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
