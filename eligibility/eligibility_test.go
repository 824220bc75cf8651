package eligibility

import (
	"testing"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/plugin"
)

func constPlugin(name string) plugin.Plugin {
	sig, err := plugin.NewSignature(plugin.Param{Name: "n", Kind: plugin.PositionalOrKeyword})
	if err != nil {
		panic(err)
	}
	return plugin.Plugin{
		ID:        plugin.ID{Name: name, Version: "1"},
		Signature: sig,
		Func:      func(args map[string]any) (any, error) { return args["n"], nil },
	}
}

func unarySignature() plugin.Signature {
	sig, err := plugin.NewSignature(plugin.Param{Name: "x", Kind: plugin.PositionalOrKeyword})
	if err != nil {
		panic(err)
	}
	return sig
}

func identityPlugin(name string) plugin.Plugin {
	return plugin.Plugin{
		ID:        plugin.ID{Name: name, Version: "1"},
		Signature: unarySignature(),
		Func:      func(args map[string]any) (any, error) { return args["x"], nil },
	}
}

func noopDescendants(g *activation.ActivationGraph) ([]activation.Activation, error) { return nil, nil }

func TestEligibleWhenNoDescendantCarriesTrigger(t *testing.T) {
	g := activation.New(0)
	root, err := g.AddActivation(constPlugin("const"), []any{1}, nil)
	if err != nil {
		t.Fatalf("AddActivation: %v", err)
	}
	if err := g.SetTriggerOnDescendants(root, noopDescendants); err != nil {
		t.Fatalf("SetTriggerOnDescendants: %v", err)
	}

	d := New(g)
	eligible, applicable := d.byAct[root].IsEligible()
	if !applicable || !eligible {
		t.Fatalf("expected root to be eligible with no descendants, got eligible=%v applicable=%v", eligible, applicable)
	}
}

func TestIneligibleWhenDescendantCarriesTrigger(t *testing.T) {
	g := activation.New(0)
	root, err := g.AddActivation(constPlugin("const"), []any{1}, nil)
	if err != nil {
		t.Fatalf("AddActivation root: %v", err)
	}
	child, err := g.AddActivation(identityPlugin("id"), []any{root.Symbol()}, nil)
	if err != nil {
		t.Fatalf("AddActivation child: %v", err)
	}
	if err := g.SetTriggerOnDescendants(root, noopDescendants); err != nil {
		t.Fatalf("SetTriggerOnDescendants: %v", err)
	}
	if err := g.SetTriggerOnDescendants(child, noopDescendants); err != nil {
		t.Fatalf("SetTriggerOnDescendants: %v", err)
	}

	d := New(g)
	eligible, applicable := d.byAct[root].IsEligible()
	if !applicable || eligible {
		t.Fatalf("expected root to be ineligible while child carries a trigger, got eligible=%v applicable=%v", eligible, applicable)
	}
}

func TestUpdateDropsDetectorWhenTriggerCleared(t *testing.T) {
	g := activation.New(0)
	root, err := g.AddActivation(constPlugin("const"), []any{1}, nil)
	if err != nil {
		t.Fatalf("AddActivation: %v", err)
	}
	if err := g.SetTriggerOnDescendants(root, noopDescendants); err != nil {
		t.Fatalf("SetTriggerOnDescendants: %v", err)
	}

	d := New(g)
	if len(d.TrackedActivations()) != 1 {
		t.Fatalf("expected one tracked activation")
	}

	if err := g.ClearTriggerOnDescendants(root); err != nil {
		t.Fatalf("ClearTriggerOnDescendants: %v", err)
	}
	d.Update(root, nil)
	if len(d.TrackedActivations()) != 0 {
		t.Fatalf("expected the detector to be dropped once the trigger is cleared")
	}
}

func TestUpdatePropagatesEligibilityAfterNewChild(t *testing.T) {
	g := activation.New(0)
	root, err := g.AddActivation(constPlugin("const"), []any{1}, nil)
	if err != nil {
		t.Fatalf("AddActivation: %v", err)
	}
	if err := g.SetTriggerOnDescendants(root, noopDescendants); err != nil {
		t.Fatalf("SetTriggerOnDescendants: %v", err)
	}

	d := New(g)
	if eligible, _ := d.byAct[root].IsEligible(); !eligible {
		t.Fatalf("expected root eligible before any children")
	}

	child, err := g.AddActivation(identityPlugin("id"), []any{root.Symbol()}, nil)
	if err != nil {
		t.Fatalf("AddActivation child: %v", err)
	}
	if err := g.SetTriggerOnDescendants(child, noopDescendants); err != nil {
		t.Fatalf("SetTriggerOnDescendants: %v", err)
	}

	d.Update(root, []activation.Activation{child})
	if eligible, _ := d.byAct[root].IsEligible(); eligible {
		t.Fatalf("expected root to become ineligible once its new child carries a trigger")
	}
	eligibleActs := d.EligibleActivations()
	if len(eligibleActs) != 1 || eligibleActs[0] != child {
		t.Fatalf("expected only child to be eligible, got %v", eligibleActs)
	}
}
