package evalalgo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/database"
	"github.com/gitrdm/neads/datanode"
	"github.com/gitrdm/neads/evalstate"
	"github.com/gitrdm/neads/internal/tempfile"
	"github.com/gitrdm/neads/plugin"
)

func constSignature() plugin.Signature {
	sig, err := plugin.NewSignature(plugin.Param{Name: "n", Kind: plugin.PositionalOrKeyword})
	if err != nil {
		panic(err)
	}
	return sig
}

func constPlugin(name string) plugin.Plugin {
	return plugin.Plugin{
		ID:        plugin.ID{Name: name, Version: "1"},
		Signature: constSignature(),
		Func: func(args map[string]any) (any, error) {
			return args["n"], nil
		},
	}
}

func addSignature() plugin.Signature {
	sig, err := plugin.NewSignature(
		plugin.Param{Name: "a", Kind: plugin.PositionalOrKeyword},
		plugin.Param{Name: "b", Kind: plugin.PositionalOrKeyword},
	)
	if err != nil {
		panic(err)
	}
	return sig
}

func addPlugin() plugin.Plugin {
	return plugin.Plugin{
		ID:        plugin.ID{Name: "add", Version: "1"},
		Signature: addSignature(),
		Func: func(args map[string]any) (any, error) {
			return args["a"].(int64) + args["b"].(int64), nil
		},
	}
}

// diamond builds leaf1 = 3, leaf2 = 4, sum = leaf1 + leaf2, with a
// no-op trigger_on_result on each leaf so they register as objectives —
// exercising the objectives-before-results ordering every algorithm follows.
func diamond(t *testing.T) (*activation.SealedActivationGraph, activation.Activation, activation.Activation, activation.Activation) {
	t.Helper()
	g := activation.New(0)

	leaf1, err := g.AddActivation(constPlugin("leaf1"), []any{int64(3)}, nil)
	require.NoError(t, err)
	leaf2, err := g.AddActivation(constPlugin("leaf2"), []any{int64(4)}, nil)
	require.NoError(t, err)

	require.NoError(t, g.SetTriggerOnResult(leaf1, func(*activation.ActivationGraph, any) ([]activation.Activation, error) {
		return nil, nil
	}))
	require.NoError(t, g.SetTriggerOnResult(leaf2, func(*activation.ActivationGraph, any) ([]activation.Activation, error) {
		return nil, nil
	}))

	sum, err := g.AddActivation(addPlugin(), []any{leaf1.Symbol(), leaf2.Symbol()}, nil)
	require.NoError(t, err)

	sealed, err := g.Seal()
	require.NoError(t, err)
	return sealed, leaf1, leaf2, sum
}

func newHarness(t *testing.T) (database.Database, *tempfile.Store) {
	t.Helper()
	db, err := database.NewFileDatabase(t.TempDir(), 16)
	require.NoError(t, err)
	require.NoError(t, db.Open())
	t.Cleanup(func() { _ = db.Close() })

	store, err := tempfile.NewStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return db, store
}

func TestTopologicalComputesSum(t *testing.T) {
	sealed, _, _, sum := diamond(t)
	db, store := newHarness(t)
	s, err := evalstate.New(sealed, db, store)
	require.NoError(t, err)

	results, err := NewTopological(nil).Run(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, int64(7), results[sum])
}

func TestBreadthFirstComputesSum(t *testing.T) {
	sealed, _, _, sum := diamond(t)
	db, store := newHarness(t)
	s, err := evalstate.New(sealed, db, store)
	require.NoError(t, err)

	results, err := NewBreadthFirst(nil).Run(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, int64(7), results[sum])
}

func TestComplexComputesSumWithGenerousBudget(t *testing.T) {
	sealed, _, _, sum := diamond(t)
	db, store := newHarness(t)
	s, err := evalstate.New(sealed, db, store)
	require.NoError(t, err)

	results, err := NewComplex(store, defaultBudgetBytes, nil).Run(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, int64(7), results[sum])
}

func TestComplexSpillsAndReloadsUnderTinyBudget(t *testing.T) {
	sealed, leaf1, _, sum := diamond(t)
	db, store := newHarness(t)
	s, err := evalstate.New(sealed, db, store)
	require.NoError(t, err)

	results, err := NewComplex(store, 0, nil).Run(context.Background(), s)
	require.NoError(t, err)
	require.Equal(t, int64(7), results[sum])

	// Under a zero-byte budget, leaf1's node must have been spilled to disk
	// at least once before sum's evaluation pulled it back into memory.
	require.Equal(t, datanode.Memory, s.Node(leaf1).State())
}

func TestNewDispatchesOnOptions(t *testing.T) {
	_, store := newHarness(t)

	require.IsType(t, &Topological{}, New(store, WithTopological()))
	require.IsType(t, &BreadthFirst{}, New(store, WithBreadthFirst()))
	require.IsType(t, &Complex{}, New(store))
}
