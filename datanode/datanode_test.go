package datanode

import (
	"testing"

	"github.com/gitrdm/neads/activation"
	"github.com/gitrdm/neads/database"
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

func failingPlugin() plugin.Plugin {
	return plugin.Plugin{
		ID:        plugin.ID{Name: "boom", Version: "1"},
		Signature: constSignature(),
		Func: func(args map[string]any) (any, error) {
			return nil, errBoom
		},
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }

func newTestDB(t *testing.T) *database.FileDatabase {
	t.Helper()
	db, err := database.NewFileDatabase(t.TempDir(), 16)
	if err != nil {
		t.Fatalf("NewFileDatabase: %v", err)
	}
	if err := db.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestStore(t *testing.T) *tempfile.Store {
	t.Helper()
	store, err := tempfile.NewStore()
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// leaf builds a single-activation sealed graph and its DataNode, with no
// parents, ready for TryLoad/Evaluate exercises.
func leaf(t *testing.T, db database.Database, store *tempfile.Store, n int64, cb Callbacks) *DataNode {
	t.Helper()
	g := activation.New(0)
	act, err := g.AddActivation(constPlugin("const"), []any{n}, nil)
	if err != nil {
		t.Fatalf("AddActivation: %v", err)
	}
	sealed, err := g.Seal()
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	return New(act, sealed.DataDefinition(act), db, store, nil, cb)
}

func TestTryLoadMissThenEvaluateTransitionsToMemoryAndPersists(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t)

	var hitFired, missFired, evalFired bool
	cb := Callbacks{
		OnTryLoadHit:  func(*DataNode) { hitFired = true },
		OnTryLoadMiss: func(*DataNode) { missFired = true },
		OnEvaluate:    func(*DataNode) { evalFired = true },
	}
	n := leaf(t, db, store, 7, cb)

	hit, err := n.TryLoad()
	if err != nil {
		t.Fatalf("TryLoad: %v", err)
	}
	if hit || hitFired {
		t.Fatalf("expected a miss on an empty database")
	}
	if !missFired {
		t.Fatalf("expected OnTryLoadMiss to fire")
	}
	if n.State() != NoData {
		t.Fatalf("expected NO_DATA after a miss, got %s", n.State())
	}

	if err := n.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !evalFired {
		t.Fatalf("expected OnEvaluate to fire")
	}
	if n.State() != Memory {
		t.Fatalf("expected MEMORY after evaluate, got %s", n.State())
	}
	data, ok := n.GetData(false)
	if !ok || data.(int64) != 7 {
		t.Fatalf("expected evaluated payload 7, got %#v (ok=%v)", data, ok)
	}

	size, known := n.DataSize()
	if !known || size == 0 {
		t.Fatalf("expected a known nonzero size after evaluate")
	}

	// A second DataNode over the same DataDefinition must now observe a hit.
	n2 := leaf(t, db, store, 7, Callbacks{})
	hit2, err := n2.TryLoad()
	if err != nil {
		t.Fatalf("TryLoad (second node): %v", err)
	}
	if !hit2 {
		t.Fatalf("expected a hit once the first node's evaluate persisted to the database")
	}
	if n2.State() != Memory {
		t.Fatalf("expected MEMORY on a database hit, got %s", n2.State())
	}
}

func TestStoreThenLoadRoundTrips(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t)

	var storeFired, loadFired bool
	n := leaf(t, db, store, 42, Callbacks{
		OnStore: func(*DataNode) { storeFired = true },
		OnLoad:  func(*DataNode) { loadFired = true },
	})

	if _, err := n.TryLoad(); err != nil {
		t.Fatalf("TryLoad: %v", err)
	}
	if err := n.Evaluate(); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if err := n.Store(); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !storeFired {
		t.Fatalf("expected OnStore to fire")
	}
	if n.State() != Disk {
		t.Fatalf("expected DISK after store, got %s", n.State())
	}
	if _, ok := n.GetData(false); ok {
		t.Fatalf("expected GetData to report false once spilled to disk")
	}

	if err := n.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loadFired {
		t.Fatalf("expected OnLoad to fire")
	}
	if n.State() != Memory {
		t.Fatalf("expected MEMORY after load, got %s", n.State())
	}
	data, ok := n.GetData(true)
	if !ok || data.(int64) != 42 {
		t.Fatalf("expected reloaded payload 42, got %#v (ok=%v)", data, ok)
	}
}

func TestIllegalTransitionsFailWithWrongState(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t)
	n := leaf(t, db, store, 1, Callbacks{})

	if err := n.Evaluate(); err == nil {
		t.Fatalf("expected Evaluate to fail WrongState from UNKNOWN")
	}
	if err := n.Store(); err == nil {
		t.Fatalf("expected Store to fail WrongState from UNKNOWN")
	}
	if err := n.Load(); err == nil {
		t.Fatalf("expected Load to fail WrongState from UNKNOWN")
	}

	if _, err := n.TryLoad(); err != nil {
		t.Fatalf("TryLoad: %v", err)
	}
	if _, err := n.TryLoad(); err == nil {
		t.Fatalf("expected a second TryLoad to fail WrongState")
	}
}

func TestEvaluateRequiresAllParentsInMemory(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t)

	g := activation.New(0)
	parentAct, err := g.AddActivation(constPlugin("const"), []any{int64(3)}, nil)
	if err != nil {
		t.Fatalf("AddActivation parent: %v", err)
	}
	childAct, err := g.AddActivation(addPlugin(), []any{parentAct.Symbol(), int64(4)}, nil)
	if err != nil {
		t.Fatalf("AddActivation child: %v", err)
	}
	sealed, err := g.Seal()
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	parentNode := New(parentAct, sealed.DataDefinition(parentAct), db, store, nil, Callbacks{})
	childNode := New(childAct, sealed.DataDefinition(childAct), db, store, childAct.ParentBySymbol(), Callbacks{})

	if _, err := childNode.TryLoad(); err != nil {
		t.Fatalf("TryLoad child: %v", err)
	}
	if err := childNode.Evaluate(); err == nil {
		t.Fatalf("expected Evaluate to fail while the parent is not yet in MEMORY")
	}

	if _, err := parentNode.TryLoad(); err != nil {
		t.Fatalf("TryLoad parent: %v", err)
	}
	if err := parentNode.Evaluate(); err != nil {
		t.Fatalf("Evaluate parent: %v", err)
	}

	if err := childNode.Evaluate(); err != nil {
		t.Fatalf("Evaluate child: %v", err)
	}
	data, ok := childNode.GetData(false)
	if !ok || data.(int64) != 7 {
		t.Fatalf("expected 3+4=7, got %#v", data)
	}
}

func TestEvaluateWrapsPluginFailure(t *testing.T) {
	db := newTestDB(t)
	store := newTestStore(t)

	g := activation.New(0)
	act, err := g.AddActivation(failingPlugin(), []any{1}, nil)
	if err != nil {
		t.Fatalf("AddActivation: %v", err)
	}
	sealed, err := g.Seal()
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	n := New(act, sealed.DataDefinition(act), db, store, nil, Callbacks{})

	if _, err := n.TryLoad(); err != nil {
		t.Fatalf("TryLoad: %v", err)
	}
	if err := n.Evaluate(); err == nil {
		t.Fatalf("expected Evaluate to surface the plugin failure")
	}
	if n.State() != NoData {
		t.Fatalf("expected the node to remain NO_DATA after a failed evaluate, got %s", n.State())
	}
}
