package database_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/gitrdm/neads/argset"
	"github.com/gitrdm/neads/database"
	"github.com/gitrdm/neads/datadef"
	"github.com/gitrdm/neads/plugin"
)

// TestMain verifies the file database's cache eviction and flock-based
// locking leave no goroutines running once every test has closed its
// database handle.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func leafDataDef(t *testing.T, table *datadef.Table, n int) *datadef.DataDefinition {
	t.Helper()
	sig, err := plugin.NewSignature(plugin.Param{Name: "n", Kind: plugin.PositionalOrKeyword})
	require.NoError(t, err)
	set, err := argset.New(sig, []any{n}, nil)
	require.NoError(t, err)
	def, err := table.Intern(plugin.ID{Name: "const", Version: "1"}, set, nil)
	require.NoError(t, err)
	return def
}

func TestFileDatabaseSaveLoadDelete(t *testing.T) {
	dir := t.TempDir()
	db, err := database.NewFileDatabase(dir, 16)
	require.NoError(t, err)

	require.NoError(t, db.Open())
	defer db.Close()

	table := datadef.NewTable()
	def := leafDataDef(t, table, 7)

	require.NoError(t, db.Save(def, map[string]any{"value": int64(42)}))

	got, err := db.Load(def)
	require.NoError(t, err)
	m, ok := got.(map[string]any)
	require.True(t, ok)
	require.Equal(t, int64(42), m["value"])

	require.NoError(t, db.Delete(def))
	_, err = db.Load(def)
	require.Error(t, err)
}

func TestFileDatabaseSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	table := datadef.NewTable()
	def := leafDataDef(t, table, 3)

	db1, err := database.NewFileDatabase(dir, 16)
	require.NoError(t, err)
	require.NoError(t, db1.Open())
	require.NoError(t, db1.Save(def, "stored-value"))
	require.NoError(t, db1.Close())

	db2, err := database.NewFileDatabase(dir, 16)
	require.NoError(t, err)
	require.NoError(t, db2.Open())
	defer db2.Close()

	got, err := db2.Load(def)
	require.NoError(t, err)
	require.Equal(t, "stored-value", got)
}

func TestOpenTwiceFails(t *testing.T) {
	dir := t.TempDir()
	db, err := database.NewFileDatabase(dir, 16)
	require.NoError(t, err)
	require.NoError(t, db.Open())
	defer db.Close()

	require.Error(t, db.Open())
}

func TestScopeClosesOnSuccess(t *testing.T) {
	dir := t.TempDir()
	db, err := database.NewFileDatabase(dir, 16)
	require.NoError(t, err)

	require.NoError(t, database.Scope(db, func() error { return nil }))
	require.Error(t, db.Close(), "Scope should already have closed the database")
}

func TestScopeSurfacesFnErrorAndStillCloses(t *testing.T) {
	dir := t.TempDir()
	db, err := database.NewFileDatabase(dir, 16)
	require.NoError(t, err)

	boom := errors.New("boom")
	gotErr := database.Scope(db, func() error { return boom })
	require.ErrorIs(t, gotErr, boom)
	require.Error(t, db.Close(), "Scope should already have closed the database")
}

func TestScopeRecoversAndClosesOnPanic(t *testing.T) {
	dir := t.TempDir()
	db, err := database.NewFileDatabase(dir, 16)
	require.NoError(t, err)

	require.Panics(t, func() {
		_ = database.Scope(db, func() error { panic("kaboom") })
	})
	require.Error(t, db.Close(), "Scope should already have closed the database despite the panic")
}
