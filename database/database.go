// Package database specifies the content-addressed key/value store
// contract spec.md §6.2 describes, plus one reference file-backed
// implementation (FileDatabase, in filedb.go).
package database

import "github.com/gitrdm/neads/datadef"

// Database is the contract spec.md §6.2 lists: open/close guard state,
// save/load/delete are keyed by DataDefinition handles.
type Database interface {
	// Open transitions closed → open. Fails DatabaseAccessError if already
	// open.
	Open() error
	// Close transitions open → closed. Fails DatabaseAccessError if already
	// closed.
	Close() error
	// Save persists data under def's content-addressed key.
	Save(def *datadef.DataDefinition, data any) error
	// Load returns the data persisted under def's key. Fails
	// DataNotFoundError if absent.
	Load(def *datadef.DataDefinition) (any, error)
	// Delete removes the entry for def's key. Fails DataNotFoundError if
	// absent.
	Delete(def *datadef.DataDefinition) error
}

// Scope opens db, runs fn, and guarantees Close runs on every exit path —
// including a panic propagating out of fn — per spec.md §5: "scoped
// acquisition guarantees close on all exit paths, including panics." Errors
// from Close are surfaced only when fn itself succeeded; an error already
// in flight from fn takes priority, matching the design note in spec.md §9
// ("errors from close are surfaced unless an earlier error is already in
// flight").
func Scope(db Database, fn func() error) (err error) {
	if openErr := db.Open(); openErr != nil {
		return openErr
	}
	defer func() {
		r := recover()
		if cerr := db.Close(); err == nil {
			err = cerr
		}
		if r != nil {
			panic(r)
		}
	}()
	err = fn()
	return err
}
