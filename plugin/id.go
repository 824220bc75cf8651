// Package plugin specifies the plugin contract consumed by the evaluator:
// an opaque id, a signature describing how symbolic arguments bind to
// parameters, and a pure function. Per spec.md §1, the plugin registry and
// individual plugins are external collaborators — this package only
// specifies the interface the core evaluator invokes through.
package plugin

import "fmt"

// ID identifies a plugin by name and version, per spec.md §6.1.
type ID struct {
	Name    string
	Version string
}

func (id ID) String() string {
	return fmt.Sprintf("%s@%s", id.Name, id.Version)
}

// PluginFunc is the pure function a plugin invokes: materialized arguments
// in, a result or an error out. Invocation failures are wrapped by the
// caller as nerrors.PluginError (spec.md §6.1/§7).
type PluginFunc func(args map[string]any) (any, error)

// Plugin is the triple (id, signature, function) from spec.md §6.1.
type Plugin struct {
	ID        ID
	Signature Signature
	Func      PluginFunc
}
