package argset

import (
	"testing"

	"github.com/gitrdm/neads/plugin"
	"github.com/gitrdm/neads/symbolic"
)

func testSignature(t *testing.T) plugin.Signature {
	t.Helper()
	sig, err := plugin.NewSignature(
		plugin.Param{Name: "a", Kind: plugin.PositionalOrKeyword},
		plugin.Param{Name: "b", Kind: plugin.PositionalOrKeyword, Default: symbolic.NewValue(0)},
	)
	if err != nil {
		t.Fatalf("NewSignature: %v", err)
	}
	return sig
}

func TestNewAutoWrapsRawArguments(t *testing.T) {
	sig := testSignature(t)
	set, err := New(sig, []any{3}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := set.GetActualArguments(nil, true)
	if err != nil {
		t.Fatalf("GetActualArguments: %v", err)
	}
	if got["a"] != 3 || got["b"] != 0 {
		t.Fatalf("unexpected bound arguments: %#v", got)
	}
}

func TestEqualArgumentSetsHashEqual(t *testing.T) {
	sig := testSignature(t)
	s1, err := New(sig, []any{3}, map[string]any{"b": 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s2, err := New(sig, nil, map[string]any{"a": 3, "b": 7})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !s1.Equal(s2) {
		t.Fatalf("expected equal argument sets")
	}
	if s1.Hash() != s2.Hash() {
		t.Fatalf("expected equal argument sets to hash equal")
	}
}

func TestUnequalArgumentSetsDiffer(t *testing.T) {
	sig := testSignature(t)
	s1, _ := New(sig, []any{3}, nil)
	s2, _ := New(sig, []any{4}, nil)
	if s1.Equal(s2) {
		t.Fatalf("expected different bound values to compare unequal")
	}
}

func TestNewRejectsNonHashablePayload(t *testing.T) {
	sig := testSignature(t)
	_, err := New(sig, []any{[]int{1, 2, 3}}, nil)
	if err == nil {
		t.Fatalf("expected non-hashable payload to be rejected")
	}
}

func TestGetSymbolsAndSubstitute(t *testing.T) {
	sig := testSignature(t)
	sym := symbolic.NewSymbol("x")
	set, err := New(sig, []any{sym}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	symbols := set.GetSymbols()
	if _, ok := symbols[sym]; !ok {
		t.Fatalf("expected GetSymbols to surface the free symbol")
	}

	resolved, err := set.Substitute(sym, symbolic.NewValue(9))
	if err != nil {
		t.Fatalf("Substitute: %v", err)
	}
	if len(resolved.GetSymbols()) != 0 {
		t.Fatalf("expected no free symbols after substitution")
	}
	got, err := resolved.GetActualArguments(nil, true)
	if err != nil {
		t.Fatalf("GetActualArguments: %v", err)
	}
	if got["a"] != 9 {
		t.Fatalf("expected substituted value 9, got %v", got["a"])
	}
}
