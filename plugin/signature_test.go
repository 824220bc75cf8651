package plugin

import (
	"testing"

	"github.com/gitrdm/neads/symbolic"
)

func TestBindPositionalAndKeyword(t *testing.T) {
	sig, err := NewSignature(
		Param{Name: "base", Kind: PositionalOrKeyword},
		Param{Name: "exponent", Kind: PositionalOrKeyword, Default: symbolic.NewValue(2)},
	)
	if err != nil {
		t.Fatalf("NewSignature: %v", err)
	}

	bound, err := sig.Bind([]symbolic.Object{symbolic.NewValue(3)}, nil)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	v, _ := symbolic.GetValue(bound["exponent"], nil, true, true)
	if v != 2 {
		t.Fatalf("expected default exponent 2, got %v", v)
	}

	bound, err = sig.Bind(nil, map[string]symbolic.Object{"base": symbolic.NewValue(5), "exponent": symbolic.NewValue(3)})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	v, _ = symbolic.GetValue(bound["base"], nil, true, true)
	if v != 5 {
		t.Fatalf("expected base 5, got %v", v)
	}
}

func TestBindMissingRequiredFails(t *testing.T) {
	sig, _ := NewSignature(Param{Name: "x", Kind: PositionalOrKeyword})
	if _, err := sig.Bind(nil, nil); err == nil {
		t.Fatalf("expected missing required argument error")
	}
}

func TestBindVarArgs(t *testing.T) {
	sig, err := NewSignature(
		Param{Name: "first", Kind: PositionalOrKeyword},
		Param{Name: "rest", Kind: VarPositional},
		Param{Name: "opts", Kind: VarKeyword},
	)
	if err != nil {
		t.Fatalf("NewSignature: %v", err)
	}

	bound, err := sig.Bind(
		[]symbolic.Object{symbolic.NewValue(1), symbolic.NewValue(2), symbolic.NewValue(3)},
		map[string]symbolic.Object{"flag": symbolic.NewValue(true)},
	)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	rest, err := symbolic.GetValue(bound["rest"], nil, true, true)
	if err != nil {
		t.Fatalf("GetValue rest: %v", err)
	}
	if items, ok := rest.([]any); !ok || len(items) != 2 {
		t.Fatalf("expected 2 items spilled into *args, got %#v", rest)
	}
}

func TestBindTooManyPositionalFails(t *testing.T) {
	sig, _ := NewSignature(Param{Name: "x", Kind: PositionalOrKeyword})
	_, err := sig.Bind([]symbolic.Object{symbolic.NewValue(1), symbolic.NewValue(2)}, nil)
	if err == nil {
		t.Fatalf("expected too many positional arguments error")
	}
}

func TestBindPositionalOnlyRejectsKeyword(t *testing.T) {
	sig, _ := NewSignature(Param{Name: "x", Kind: PositionalOnly})
	_, err := sig.Bind(nil, map[string]symbolic.Object{"x": symbolic.NewValue(1)})
	if err == nil {
		t.Fatalf("expected positional-only rejection of keyword argument")
	}
}
