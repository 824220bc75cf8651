// Package datanode implements the per-activation lifecycle record spec.md
// §4.3 describes: a four-state machine (UNKNOWN/NO_DATA/MEMORY/DISK) with
// exactly five legal transitions, each firing a synchronous callback slot
// installed by the owning evaluation state. This generalizes the teacher's
// ConstraintStore state handling (pkg/minikanren/core.go) from "bound or
// unbound" to the richer spill-aware lifecycle this evaluator needs.
package datanode

import (
	"errors"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/database"
	"github.com/gitrdm/neads/datadef"
	"github.com/gitrdm/neads/internal/objsize"
	"github.com/gitrdm/neads/internal/tempfile"
	"github.com/gitrdm/neads/nerrors"
	"github.com/gitrdm/neads/symbolic"
)

// State is one of the four DataNode lifecycle states.
type State int

const (
	Unknown State = iota
	NoData
	Memory
	Disk
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case NoData:
		return "NO_DATA"
	case Memory:
		return "MEMORY"
	case Disk:
		return "DISK"
	default:
		return "INVALID"
	}
}

// Callbacks groups the five synchronous post-transition hooks spec.md §4.3
// allows a caller to install, one per legal transition — an
// EvaluationState installs closures here that capture its own state by
// shared handle rather than registering with a global registry (spec.md
// §9's "callbacks on DataNode state transitions" design note).
type Callbacks struct {
	OnTryLoadHit  func(n *DataNode)
	OnTryLoadMiss func(n *DataNode)
	OnEvaluate    func(n *DataNode)
	OnStore       func(n *DataNode)
	OnLoad        func(n *DataNode)
}

func (c Callbacks) fire(fn func(n *DataNode), n *DataNode) {
	if fn != nil {
		fn(n)
	}
}

// DataNode is the per-activation evaluator record. It has no exported
// mutable fields; state changes only ever happen through the five
// transition methods below, each of which fails WrongState when called
// outside the one state it is legal in (spec.md §4.3).
type DataNode struct {
	act     activation.Activation
	def     *datadef.DataDefinition
	db      database.Database
	parents map[*symbolic.Symbol]*DataNode
	cb      Callbacks

	state State
	data  any

	sized bool
	size  uint64

	store *tempfile.Store
	spill *tempfile.File
}

// New builds a DataNode in the UNKNOWN state. parents maps the free Symbols
// occurring in act's argument set to the DataNode that produces each
// parent's data — the binding Evaluate needs to materialize arguments.
// store is the process-wide spill-file allocator shared by every node in
// one evaluation run.
func New(act activation.Activation, def *datadef.DataDefinition, db database.Database, store *tempfile.Store, parents map[*symbolic.Symbol]*DataNode, cb Callbacks) *DataNode {
	return &DataNode{
		act:     act,
		def:     def,
		db:      db,
		store:   store,
		parents: parents,
		cb:      cb,
		state:   Unknown,
	}
}

// Activation returns the activation this node tracks.
func (n *DataNode) Activation() activation.Activation { return n.act }

// DataDefinition returns the node's content-addressed identity.
func (n *DataNode) DataDefinition() *datadef.DataDefinition { return n.def }

// State returns the node's current lifecycle state.
func (n *DataNode) State() State { return n.state }

// TryLoad consults the database by the activation's DataDefinition,
// transitioning UNKNOWN → MEMORY on a hit or UNKNOWN → NO_DATA on a miss.
// Legal only in UNKNOWN; after it runs once, neither outcome leaves the
// node eligible for another TryLoad.
func (n *DataNode) TryLoad() (hit bool, err error) {
	if n.state != Unknown {
		return false, nerrors.NewWrongStateError("try_load", n.state.String())
	}

	data, loadErr := n.db.Load(n.def)
	var notFound *nerrors.DataNotFoundError
	switch {
	case loadErr == nil:
		n.data = data
		n.state = Memory
		n.recordSize()
		n.cb.fire(n.cb.OnTryLoadHit, n)
		return true, nil
	case errors.As(loadErr, &notFound):
		n.state = NoData
		n.cb.fire(n.cb.OnTryLoadMiss, n)
		return false, nil
	default:
		return false, loadErr
	}
}

// Evaluate invokes the activation's plugin with materialized arguments and
// persists the result, transitioning NO_DATA → MEMORY. Legal only in
// NO_DATA, and only once every parent is in MEMORY (else
// RuntimeRequirementError). Arguments materialize with the default
// share-a-deep-copy-per-Symbol policy spec.md §4.3 describes.
func (n *DataNode) Evaluate() error {
	if n.state != NoData {
		return nerrors.NewWrongStateError("evaluate", n.state.String())
	}

	bindings := make(map[*symbolic.Symbol]any, len(n.parents))
	for sym, parent := range n.parents {
		data, ok := parent.GetData(false)
		if !ok {
			return nerrors.NewRuntimeRequirementError("evaluate: parent " + parent.act.String() + " is not in MEMORY")
		}
		bindings[sym] = data
	}

	args, err := n.act.ArgSet().GetActualArguments(bindings, true)
	if err != nil {
		return err
	}

	result, err := n.act.Plugin().Func(args)
	if err != nil {
		return nerrors.NewPluginError(n.act.Plugin().ID.Name, n.act.Plugin().ID.Version, n.act.ArgSet().Hash(), err)
	}

	if err := n.db.Save(n.def, result); err != nil {
		return err
	}

	n.data = result
	n.state = Memory
	n.recordSize()
	n.cb.fire(n.cb.OnEvaluate, n)
	return nil
}

// Store serializes the in-memory payload to a process-scoped temp file,
// drops the in-memory reference, and transitions MEMORY → DISK. Legal only
// in MEMORY. The file is written on the node's first Store only; later
// Stores reuse it, since the payload does not change.
func (n *DataNode) Store() error {
	if n.state != Memory {
		return nerrors.NewWrongStateError("store", n.state.String())
	}

	if n.spill == nil {
		spill := n.store.New()
		if err := spill.Write(n.data); err != nil {
			return err
		}
		n.spill = spill
	}

	n.data = nil
	n.state = Disk
	n.cb.fire(n.cb.OnStore, n)
	return nil
}

// Load reloads the payload from the node's temp file, transitioning
// DISK → MEMORY. Legal only in DISK.
func (n *DataNode) Load() error {
	if n.state != Disk {
		return nerrors.NewWrongStateError("load", n.state.String())
	}

	data, err := n.spill.Read()
	if err != nil {
		return err
	}

	n.data = data
	n.state = Memory
	n.cb.fire(n.cb.OnLoad, n)
	return nil
}

// GetData returns the payload when in MEMORY, optionally deep-copying it
// first, and reports false in any other state — the Go-native rendering of
// spec.md §4.3's "returns a sentinel 'no data' in any other state".
func (n *DataNode) GetData(copy bool) (any, bool) {
	if n.state != Memory {
		return nil, false
	}
	if copy {
		return symbolic.DeepCopy(n.data), true
	}
	return n.data, true
}

// DataSize returns the node's best-effort payload size in bytes, known once
// the node has passed through MEMORY at least once (MEMORY or DISK); the
// second return is false before that.
func (n *DataNode) DataSize() (uint64, bool) {
	if !n.sized {
		return 0, false
	}
	return n.size, true
}

func (n *DataNode) recordSize() {
	n.size = objsize.Of(n.data)
	n.sized = true
}
