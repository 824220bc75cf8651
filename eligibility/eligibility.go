// Package eligibility tracks which activations' trigger_on_descendants are
// currently callable — spec.md §4.4: "a trigger_on_descendants is eligible
// when no descendant holds any trigger (of either kind)."
package eligibility

import "github.com/gitrdm/neads/activation"

// ActivationDetector watches a single activation's trigger_on_descendants.
// IsEligible reports:
//   - (false, false) when the activation carries no trigger_on_descendants
//     at all (spec.md: "None if no such trigger");
//   - (true/false, true) otherwise, true iff no descendant currently
//     carries any trigger.
type ActivationDetector struct {
	activation activation.Activation
	eligible   bool
}

// NewActivationDetector builds a detector for a and computes its initial
// eligibility by scanning descendants.
func NewActivationDetector(a activation.Activation) *ActivationDetector {
	d := &ActivationDetector{activation: a}
	d.recompute()
	return d
}

// IsEligible reports the detector's current verdict and whether a verdict
// applies at all (false, false when a carries no trigger_on_descendants).
func (d *ActivationDetector) IsEligible() (eligible, applicable bool) {
	g := d.activation.Graph()
	if !g.HasTriggerOnDescendants(d.activation) {
		return false, false
	}
	return d.eligible, true
}

// Update recomputes eligibility after some other trigger has fired
// elsewhere in the graph (spec.md §4.4: "Implementation may rescan
// descendants (correct but O(D)); callers are expected to call update on
// every trigger firing").
func (d *ActivationDetector) Update() {
	d.recompute()
}

func (d *ActivationDetector) recompute() {
	g := d.activation.Graph()
	if !g.HasTriggerOnDescendants(d.activation) {
		d.eligible = false
		return
	}
	d.eligible = !anyDescendantCarriesTrigger(d.activation)
}

func anyDescendantCarriesTrigger(a activation.Activation) bool {
	g := a.Graph()
	visited := map[activation.Activation]struct{}{}
	queue := a.Children()
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		if g.HasTriggerOnResult(cur) || g.HasTriggerOnDescendants(cur) {
			return true
		}
		queue = append(queue, cur.Children()...)
	}
	return false
}

// Detector maintains one ActivationDetector per activation that currently
// owns a trigger_on_descendants, per spec.md §4.4.
type Detector struct {
	graph *activation.ActivationGraph
	byAct map[activation.Activation]*ActivationDetector
	order []activation.Activation // insertion order, for deterministic iteration
}

// New builds a Detector for every activation in graph that currently
// carries a trigger_on_descendants.
func New(graph *activation.ActivationGraph) *Detector {
	d := &Detector{graph: graph, byAct: map[activation.Activation]*ActivationDetector{}}
	for _, a := range graph.Activations() {
		if graph.HasTriggerOnDescendants(a) {
			d.install(a)
		}
	}
	return d
}

func (d *Detector) install(a activation.Activation) {
	if _, ok := d.byAct[a]; ok {
		return
	}
	d.byAct[a] = NewActivationDetector(a)
	d.order = append(d.order, a)
}

// TrackedActivations returns every activation this detector currently
// watches, in the order each was first installed.
func (d *Detector) TrackedActivations() []activation.Activation {
	out := make([]activation.Activation, 0, len(d.order))
	for _, a := range d.order {
		if _, ok := d.byAct[a]; ok {
			out = append(out, a)
		}
	}
	return out
}

// EligibleActivations returns every tracked activation whose detector
// currently reports eligible, in insertion order — the order the
// evaluation state's cascade uses to break ties deterministically
// (spec.md §4.5: "ties broken deterministically, e.g., by insertion
// order").
func (d *Detector) EligibleActivations() []activation.Activation {
	var out []activation.Activation
	for _, a := range d.order {
		det, ok := d.byAct[a]
		if !ok {
			continue
		}
		if eligible, applicable := det.IsEligible(); applicable && eligible {
			out = append(out, a)
		}
	}
	return out
}

// Update implements spec.md §4.4's update contract: if invoked no longer
// carries a trigger_on_descendants its detector is dropped (otherwise it is
// kept, covering the re-set case); a detector is installed for every new
// activation that carries a trigger_on_descendants; then every remaining
// detector is recomputed.
func (d *Detector) Update(invoked activation.Activation, newActivations []activation.Activation) {
	if !d.graph.HasTriggerOnDescendants(invoked) {
		delete(d.byAct, invoked)
	} else if _, ok := d.byAct[invoked]; !ok {
		d.install(invoked)
	}

	for _, a := range newActivations {
		if d.graph.HasTriggerOnDescendants(a) {
			d.install(a)
		}
	}

	for _, det := range d.byAct {
		det.Update()
	}
}
