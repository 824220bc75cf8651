// Package nerrors defines the error taxonomy shared across the neads
// evaluator, per spec.md §7. Every exported error type implements the
// standard error interface and wraps its cause (when it has one) with
// github.com/cockroachdb/errors so that errors.Is/errors.As keep working
// through the wrapping the evaluation algorithm does as it propagates
// failures from try_load/evaluate/store/load up to the caller.
package nerrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel markers usable with errors.Is against the concrete error types
// below; each concrete type's Error() embeds the marker's text so grep-style
// matching on the message keeps working too.
var (
	ErrWrongState           = errors.New("wrong state")
	ErrTriggerAlreadyPresent = errors.New("trigger already present")
	ErrTriggerAbsent        = errors.New("trigger absent")
	ErrForeignSymbol        = errors.New("foreign symbol")
	ErrDataNotFound         = errors.New("data not found")
	ErrDatabaseAccess       = errors.New("database access error")
)

// ArgumentError covers spec.md's "foreign Symbol, non-hashable payload, bad
// signature binding, invalid substitution pairs, incorrect number of inputs
// in attach_graph".
type ArgumentError struct {
	msg   string
	cause error
}

func NewArgumentError(msg string) *ArgumentError { return &ArgumentError{msg: msg} }

func WrapArgumentError(cause error, msg string) *ArgumentError {
	return &ArgumentError{msg: msg, cause: errors.Wrap(cause, msg)}
}

func (e *ArgumentError) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return "argument error: " + e.msg
}

func (e *ArgumentError) Unwrap() error { return e.cause }

// NewForeignSymbolError reports a Symbol referenced by an arg-set that does
// not belong to the graph it is being added to.
func NewForeignSymbolError(symbolName string) *ArgumentError {
	return &ArgumentError{msg: fmt.Sprintf("%v: %s", ErrForeignSymbol, symbolName), cause: ErrForeignSymbol}
}

// StateError covers DataNode WrongState and the activation/graph trigger
// slot guards (TriggerAlreadyPresent / TriggerAbsent).
type StateError struct {
	msg   string
	cause error
}

func (e *StateError) Error() string { return e.msg }
func (e *StateError) Unwrap() error  { return e.cause }

// NewWrongStateError reports an illegal DataNode transition.
func NewWrongStateError(op, state string) *StateError {
	return &StateError{
		msg:   fmt.Sprintf("%s: %s: current state %s", ErrWrongState, op, state),
		cause: ErrWrongState,
	}
}

// NewTriggerAlreadyPresentError reports an attempt to set a trigger slot
// that is already occupied without clearing it first.
func NewTriggerAlreadyPresentError(slot string) *StateError {
	return &StateError{
		msg:   fmt.Sprintf("%s: %s", ErrTriggerAlreadyPresent, slot),
		cause: ErrTriggerAlreadyPresent,
	}
}

// NewTriggerAbsentError reports an attempt to clear a trigger slot that is
// not set.
func NewTriggerAbsentError(slot string) *StateError {
	return &StateError{
		msg:   fmt.Sprintf("%s: %s", ErrTriggerAbsent, slot),
		cause: ErrTriggerAbsent,
	}
}

// RuntimeRequirementError covers "parent not in MEMORY when required" and
// "evaluation of a node whose DataDefinition cannot be materialized".
type RuntimeRequirementError struct {
	msg string
}

func NewRuntimeRequirementError(msg string) *RuntimeRequirementError {
	return &RuntimeRequirementError{msg: msg}
}

func (e *RuntimeRequirementError) Error() string { return "runtime requirement violated: " + e.msg }

// PluginError wraps a failure raised by a user plugin invocation, annotated
// with the plugin id and argument-set identity for diagnosis (spec.md §7).
type PluginError struct {
	PluginName    string
	PluginVersion string
	ArgSetHash    uint64
	cause         error
}

func NewPluginError(pluginName, pluginVersion string, argSetHash uint64, cause error) *PluginError {
	return &PluginError{
		PluginName:    pluginName,
		PluginVersion: pluginVersion,
		ArgSetHash:    argSetHash,
		cause:         errors.Wrapf(cause, "plugin %s@%s (args=%x) failed", pluginName, pluginVersion, argSetHash),
	}
}

func (e *PluginError) Error() string { return e.cause.Error() }
func (e *PluginError) Unwrap() error  { return e.cause }

// DatabaseAccessError wraps a failure at the database boundary that is not
// DataNotFound (e.g. opening an already-open database, I/O failure).
type DatabaseAccessError struct {
	cause error
}

func NewDatabaseAccessError(msg string) *DatabaseAccessError {
	return &DatabaseAccessError{cause: errors.Wrap(ErrDatabaseAccess, msg)}
}

func WrapDatabaseAccessError(cause error, msg string) *DatabaseAccessError {
	return &DatabaseAccessError{cause: errors.Wrapf(cause, "%s: %s", ErrDatabaseAccess, msg)}
}

func (e *DatabaseAccessError) Error() string { return e.cause.Error() }
func (e *DatabaseAccessError) Unwrap() error  { return e.cause }

// DataNotFoundError reports a missing key on Database.Load/Delete.
type DataNotFoundError struct {
	Key string
}

func NewDataNotFoundError(key string) *DataNotFoundError { return &DataNotFoundError{Key: key} }

func (e *DataNotFoundError) Error() string {
	return fmt.Sprintf("%s: key %s", ErrDataNotFound, e.Key)
}

func (e *DataNotFoundError) Unwrap() error { return ErrDataNotFound }

// UnboundSymbolError reports a materialization attempted while a Symbol in
// the object tree has no binding.
type UnboundSymbolError struct {
	Symbol string
}

func NewUnboundSymbolError(symbol string) *UnboundSymbolError {
	return &UnboundSymbolError{Symbol: symbol}
}

func (e *UnboundSymbolError) Error() string {
	return fmt.Sprintf("unbound symbol: %s", e.Symbol)
}
