package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gitrdm/neads/datadef"
	"github.com/gitrdm/neads/nerrors"
)

// FileDatabase is the reference implementation from spec.md §6.2:
// "directory with an index file (serialized map key→filename) and a data/
// directory (one serialized blob per key)... atomic index rewrite on
// mutation." An advisory file lock (github.com/gofrs/flock) guards
// concurrent processes from sharing one store directory at once, the way
// opentofu's backend-open/close pairing guards its state files; a
// golang-lru read cache avoids re-reading a value file on every Load after
// its first.
type FileDatabase struct {
	mu    sync.Mutex
	dir   string
	lock  *flock.Flock
	open  bool
	index map[uint64]string
	cache *lru.Cache[uint64, any]
}

// NewFileDatabase builds a FileDatabase rooted at dir (created on first
// Open if absent), caching up to cacheSize recently loaded values.
func NewFileDatabase(dir string, cacheSize int) (*FileDatabase, error) {
	cache, err := lru.New[uint64, any](cacheSize)
	if err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "database: build read cache")
	}
	return &FileDatabase{
		dir:   dir,
		lock:  flock.New(filepath.Join(dir, ".lock")),
		cache: cache,
	}, nil
}

func (db *FileDatabase) dataDir() string   { return filepath.Join(db.dir, "data") }
func (db *FileDatabase) indexPath() string { return filepath.Join(db.dir, "index") }

// Open acquires the store's advisory lock, creates its directory layout if
// needed, and loads the index.
func (db *FileDatabase) Open() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.open {
		return nerrors.NewDatabaseAccessError("database: already open")
	}

	if err := os.MkdirAll(db.dataDir(), 0o755); err != nil {
		return nerrors.WrapDatabaseAccessError(err, "database: create data directory")
	}
	locked, err := db.lock.TryLock()
	if err != nil {
		return nerrors.WrapDatabaseAccessError(err, "database: acquire store lock")
	}
	if !locked {
		return nerrors.NewDatabaseAccessError("database: store directory is locked by another process")
	}

	index, err := db.loadIndex()
	if err != nil {
		_ = db.lock.Unlock()
		return err
	}
	db.index = index
	db.open = true
	return nil
}

// Close releases the store's lock and drops the read cache.
func (db *FileDatabase) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.open {
		return nerrors.NewDatabaseAccessError("database: already closed")
	}
	db.open = false
	db.cache.Purge()
	if err := db.lock.Unlock(); err != nil {
		return nerrors.WrapDatabaseAccessError(err, "database: release store lock")
	}
	return nil
}

// Save persists data under def's content-addressed key, rewriting the
// index atomically.
func (db *FileDatabase) Save(def *datadef.DataDefinition, data any) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.open {
		return nerrors.NewDatabaseAccessError("database: not open")
	}

	key := def.Key()
	filename := fmt.Sprintf("%016x.bin", key)
	raw, err := msgpack.Marshal(data)
	if err != nil {
		return nerrors.WrapDatabaseAccessError(err, "database: encode value")
	}
	if err := os.WriteFile(filepath.Join(db.dataDir(), filename), raw, 0o644); err != nil {
		return nerrors.WrapDatabaseAccessError(err, "database: write value file")
	}

	db.index[key] = filename
	if err := db.writeIndexLocked(); err != nil {
		return err
	}
	db.cache.Add(key, data)
	return nil
}

// Load returns the value persisted under def's key, consulting the read
// cache first.
func (db *FileDatabase) Load(def *datadef.DataDefinition) (any, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.open {
		return nil, nerrors.NewDatabaseAccessError("database: not open")
	}

	key := def.Key()
	if v, ok := db.cache.Get(key); ok {
		return v, nil
	}
	filename, ok := db.index[key]
	if !ok {
		return nil, nerrors.NewDataNotFoundError(fmt.Sprintf("%016x", key))
	}
	raw, err := os.ReadFile(filepath.Join(db.dataDir(), filename))
	if err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "database: read value file")
	}
	var data any
	if err := msgpack.Unmarshal(raw, &data); err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "database: decode value")
	}
	db.cache.Add(key, data)
	return data, nil
}

// Delete removes the entry for def's key, rewriting the index atomically.
func (db *FileDatabase) Delete(def *datadef.DataDefinition) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.open {
		return nerrors.NewDatabaseAccessError("database: not open")
	}

	key := def.Key()
	filename, ok := db.index[key]
	if !ok {
		return nerrors.NewDataNotFoundError(fmt.Sprintf("%016x", key))
	}
	delete(db.index, key)
	db.cache.Remove(key)
	if err := db.writeIndexLocked(); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(db.dataDir(), filename)); err != nil && !os.IsNotExist(err) {
		return nerrors.WrapDatabaseAccessError(err, "database: remove value file")
	}
	return nil
}

func (db *FileDatabase) loadIndex() (map[uint64]string, error) {
	raw, err := os.ReadFile(db.indexPath())
	if os.IsNotExist(err) {
		return map[uint64]string{}, nil
	}
	if err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "database: read index")
	}
	var index map[uint64]string
	if err := msgpack.Unmarshal(raw, &index); err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "database: decode index")
	}
	if index == nil {
		index = map[uint64]string{}
	}
	return index, nil
}

// writeIndexLocked rewrites the index file via write-temp-then-rename, the
// same atomic-config-write idiom the teacher pack's infra repos use for
// their own index/state files.
func (db *FileDatabase) writeIndexLocked() error {
	raw, err := msgpack.Marshal(db.index)
	if err != nil {
		return nerrors.WrapDatabaseAccessError(err, "database: encode index")
	}
	tmp, err := os.CreateTemp(db.dir, "index-*.tmp")
	if err != nil {
		return nerrors.WrapDatabaseAccessError(err, "database: create temp index")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nerrors.WrapDatabaseAccessError(err, "database: write temp index")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nerrors.WrapDatabaseAccessError(err, "database: close temp index")
	}
	if err := os.Rename(tmpPath, db.indexPath()); err != nil {
		os.Remove(tmpPath)
		return nerrors.WrapDatabaseAccessError(err, "database: rename temp index")
	}
	return nil
}
