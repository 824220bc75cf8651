// Package evalstate implements EvaluationState, spec.md §4.5: the
// process-wide-like state for one evaluation run. It owns one DataNode per
// activation of a sealed graph, classifies them into state buckets,
// maintains the objectives/results/top_level sets, and runs the
// "as soon as possible" trigger cascade — fire, clear, invoke, incorporate,
// repeat — described there.
package evalstate

import (
	"go.uber.org/zap"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/database"
	"github.com/gitrdm/neads/datanode"
	"github.com/gitrdm/neads/eligibility"
	"github.com/gitrdm/neads/internal/tempfile"
	"github.com/gitrdm/neads/symbolic"
	"github.com/gitrdm/neads/sysmem"
)

// Option configures an EvaluationState at construction.
type Option func(*EvaluationState)

// WithLogger installs a structured logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *EvaluationState) { s.log = log }
}

// WithMemoryInfo overrides the process memory reader; the default is
// sysmem.NewGopsutilInfo(). Tests substitute sysmem.NewFixed.
func WithMemoryInfo(info sysmem.MemoryInfo) Option {
	return func(s *EvaluationState) { s.mem = info }
}

// EvaluationState is the per-run owner of every DataNode, per spec.md §4.5.
type EvaluationState struct {
	graph *activation.SealedActivationGraph
	db    database.Database
	store *tempfile.Store
	log   *zap.Logger
	mem   sysmem.MemoryInfo

	detector *eligibility.Detector

	nodes      map[activation.Activation]*datanode.DataNode
	order      []activation.Activation // insertion order, for deterministic iteration
	bucket     map[datanode.State]map[activation.Activation]struct{}
	objectives map[activation.Activation]struct{}
	topLevel   map[activation.Activation]struct{}
}

// New builds an EvaluationState over graph: creates a DataNode per existing
// activation, then eagerly runs the trigger cascade to fire whatever is
// already eligible (spec.md §2: "eagerly invokes any initially-eligible
// descendant/graph triggers").
func New(graph *activation.SealedActivationGraph, db database.Database, store *tempfile.Store, opts ...Option) (*EvaluationState, error) {
	s := &EvaluationState{
		graph: graph,
		db:    db,
		store: store,
		log:   zap.NewNop(),
		nodes: map[activation.Activation]*datanode.DataNode{},
		bucket: map[datanode.State]map[activation.Activation]struct{}{
			datanode.Unknown: {}, datanode.NoData: {}, datanode.Memory: {}, datanode.Disk: {},
		},
		objectives: map[activation.Activation]struct{}{},
		topLevel:   map[activation.Activation]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mem == nil {
		info, err := sysmem.NewGopsutilInfo()
		if err != nil {
			return nil, err
		}
		s.mem = info
	}
	s.detector = eligibility.New(graph.ActivationGraph)

	for _, act := range graph.Activations() {
		s.ensureNode(act)
	}
	if err := s.cascade(); err != nil {
		return nil, err
	}
	return s, nil
}

// Graph returns the sealed graph this state evaluates.
func (s *EvaluationState) Graph() *activation.SealedActivationGraph { return s.graph }

// Node returns the DataNode tracking act.
func (s *EvaluationState) Node(act activation.Activation) *datanode.DataNode { return s.nodes[act] }

// Bucket returns a snapshot of every activation currently in state st.
func (s *EvaluationState) Bucket(st datanode.State) []activation.Activation {
	out := make([]activation.Activation, 0, len(s.bucket[st]))
	for _, act := range s.order {
		if _, ok := s.bucket[st][act]; ok {
			out = append(out, act)
		}
	}
	return out
}

// Objectives returns every activation whose trigger_on_result is still
// pending, in insertion order.
func (s *EvaluationState) Objectives() []activation.Activation {
	out := make([]activation.Activation, 0, len(s.objectives))
	for _, act := range s.order {
		if _, ok := s.objectives[act]; ok {
			out = append(out, act)
		}
	}
	return out
}

// TopLevel returns every level-0 (parentless) activation.
func (s *EvaluationState) TopLevel() []activation.Activation {
	out := make([]activation.Activation, 0, len(s.topLevel))
	for _, act := range s.order {
		if _, ok := s.topLevel[act]; ok {
			out = append(out, act)
		}
	}
	return out
}

// Results returns every terminal (childless) activation currently known —
// meaningful once Stable reports true, per spec.md §4.5.
func (s *EvaluationState) Results() []activation.Activation {
	var out []activation.Activation
	for _, act := range s.order {
		if act.IsTerminal() {
			out = append(out, act)
		}
	}
	return out
}

// Stable reports whether no objective remains, no trigger_on_descendants is
// currently eligible, and the graph no longer carries a trigger_method —
// the stop condition of spec.md §4.6. The evalalgo algorithms do not call
// it; each stops when its own traversal finds no further work.
func (s *EvaluationState) Stable() bool {
	return len(s.objectives) == 0 && len(s.detector.EligibleActivations()) == 0 && !s.graph.HasTriggerMethod()
}

// MemoryInfo returns the process memory reader installed at construction.
func (s *EvaluationState) MemoryInfo() sysmem.MemoryInfo { return s.mem }

// TryLoad consults the database for act, firing act's trigger_on_result (and
// any cascade it unlocks) on a hit.
func (s *EvaluationState) TryLoad(act activation.Activation) (bool, error) {
	node := s.nodes[act]
	hit, err := node.TryLoad()
	if err != nil {
		return false, err
	}
	if hit {
		if err := s.onFirstMemory(act, node); err != nil {
			return hit, err
		}
	}
	return hit, nil
}

// Evaluate runs act's plugin, firing act's trigger_on_result (and any
// cascade it unlocks) on success.
func (s *EvaluationState) Evaluate(act activation.Activation) error {
	node := s.nodes[act]
	if err := node.Evaluate(); err != nil {
		return err
	}
	return s.onFirstMemory(act, node)
}

// Store spills act's payload to disk.
func (s *EvaluationState) Store(act activation.Activation) error {
	return s.nodes[act].Store()
}

// Load reloads act's payload from disk. Per spec.md §4.6's edge case, this
// never re-fires trigger_on_result: the transition did not cross the "first
// entry to MEMORY" boundary.
func (s *EvaluationState) Load(act activation.Activation) error {
	return s.nodes[act].Load()
}

// onFirstMemory fires act's trigger_on_result, if any, then runs the
// cascade — the "fire, read, clear, invoke, incorporate" sequence of
// spec.md §4.5.
func (s *EvaluationState) onFirstMemory(act activation.Activation, node *datanode.DataNode) error {
	if s.graph.HasTriggerOnResult(act) {
		fn := s.graph.TriggerOnResult(act)
		if err := s.graph.ClearTriggerOnResult(act); err != nil {
			return err
		}
		data, _ := node.GetData(false)
		created, err := fn(s.graph.ActivationGraph, data)
		if err != nil {
			return err
		}
		s.log.Debug("trigger_on_result fired", triggerFields("on_result", act, len(created))...)
		s.incorporate(created)
		delete(s.objectives, act)
		s.detector.Update(act, created)
	}
	return s.cascade()
}

// cascade repeatedly fires the next eligible trigger_on_descendants, then —
// once none remains — the graph-level trigger_method if no trigger remains
// anywhere, incorporating new activations after each fire, until nothing
// further is eligible (spec.md §4.5).
func (s *EvaluationState) cascade() error {
	for {
		eligible := s.detector.EligibleActivations()
		if len(eligible) > 0 {
			act := eligible[0]
			fn := s.graph.TriggerOnDescendants(act)
			if err := s.graph.ClearTriggerOnDescendants(act); err != nil {
				return err
			}
			created, err := fn(s.graph.ActivationGraph)
			if err != nil {
				return err
			}
			s.log.Debug("trigger_on_descendants fired", triggerFields("on_descendants", act, len(created))...)
			s.incorporate(created)
			s.detector.Update(act, created)
			continue
		}

		if len(s.objectives) == 0 && len(s.detector.TrackedActivations()) == 0 && s.graph.HasTriggerMethod() {
			fn := s.graph.TriggerMethod()
			if err := s.graph.ClearTriggerMethod(); err != nil {
				return err
			}
			created, err := fn(s.graph.ActivationGraph)
			if err != nil {
				return err
			}
			s.log.Debug("trigger_method fired", graphTriggerFields(len(created))...)
			s.incorporate(created)
			continue
		}

		return nil
	}
}

// incorporate registers a DataNode (in UNKNOWN) for every activation in
// acts not already tracked, recording parent DataNodes and updating the
// top_level/objectives/state buckets (spec.md §4.5's "incorporation of new
// activations").
func (s *EvaluationState) incorporate(acts []activation.Activation) {
	for _, act := range acts {
		s.ensureNode(act)
	}
}

func (s *EvaluationState) ensureNode(act activation.Activation) *datanode.DataNode {
	if n, ok := s.nodes[act]; ok {
		return n
	}

	parentSyms := act.ParentBySymbol()
	parents := make(map[*symbolic.Symbol]*datanode.DataNode, len(parentSyms))
	for sym, parentAct := range parentSyms {
		parents[sym] = s.ensureNode(parentAct)
	}

	node := datanode.New(act, s.graph.DataDefinition(act), s.db, s.store, parents, s.callbacksFor(act))
	s.nodes[act] = node
	s.order = append(s.order, act)
	s.bucket[datanode.Unknown][act] = struct{}{}
	if act.Level() == 0 {
		s.topLevel[act] = struct{}{}
	}
	if s.graph.HasTriggerOnResult(act) {
		s.objectives[act] = struct{}{}
	}
	return node
}

func (s *EvaluationState) callbacksFor(act activation.Activation) datanode.Callbacks {
	move := func(to datanode.State) {
		s.moveBucket(act, to)
	}
	return datanode.Callbacks{
		OnTryLoadHit:  func(*datanode.DataNode) { move(datanode.Memory) },
		OnTryLoadMiss: func(*datanode.DataNode) { move(datanode.NoData) },
		OnEvaluate:    func(*datanode.DataNode) { move(datanode.Memory) },
		OnStore:       func(*datanode.DataNode) { move(datanode.Disk) },
		OnLoad:        func(*datanode.DataNode) { move(datanode.Memory) },
	}
}

func (s *EvaluationState) moveBucket(act activation.Activation, to datanode.State) {
	var from datanode.State
	for st, set := range s.bucket {
		if _, ok := set[act]; ok {
			from = st
			delete(set, act)
			break
		}
	}
	s.bucket[to][act] = struct{}{}
	s.log.Debug("datanode transition", stateFields(act, from.String(), to.String())...)
}
