// Package tempfile provides process-scoped temporary file plumbing for
// spilled DataNode payloads, grounded on
// original_source/neads/utils/object_temp_file.py and generalizing the
// teacher's object-lifecycle conventions (pool.go's explicit
// acquire/release with a finalizer only as a backstop, never the primary
// cleanup path). Per spec.md §5: "Temp files: one per spilled node;
// lifetime tied to DataNode; each file is written exactly once (on first
// store) and may be read many times."
package tempfile

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gitrdm/neads/nerrors"
)

// Store is a single process-scoped directory that every spilled File of one
// evaluation run is created under; Close removes the whole directory,
// matching spec.md §5's "deleted ... on process exit" for the case where
// the evaluator shuts down cleanly.
type Store struct {
	dir string
}

// NewStore creates a fresh temp directory for spill files.
func NewStore() (*Store, error) {
	dir, err := os.MkdirTemp("", "neads-spill-*")
	if err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "tempfile: create spill directory")
	}
	return &Store{dir: dir}, nil
}

// Close removes the store's directory and every file still in it.
func (s *Store) Close() error {
	return os.RemoveAll(s.dir)
}

// New allocates a fresh, not-yet-written spill File, named with a random
// uuid so concurrent evaluations sharing a machine never collide.
func (s *Store) New() *File {
	return &File{path: filepath.Join(s.dir, uuid.NewString()+".spill")}
}

// File is one DataNode's spill slot: msgpack-encode, zstd-compress, write
// once; decompress-and-decode on every subsequent read.
type File struct {
	mu      sync.Mutex
	path    string
	written bool
}

// Write serializes and compresses payload to disk, replacing any earlier
// content of the file. DataNode.Store calls it once per File, on the node's
// first store(); later store() calls reuse the already-written File.
func (f *File) Write(payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := msgpack.Marshal(payload)
	if err != nil {
		return nerrors.WrapDatabaseAccessError(err, "tempfile: encode payload")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nerrors.WrapDatabaseAccessError(err, "tempfile: build zstd writer")
	}
	compressed := enc.EncodeAll(raw, nil)
	if cerr := enc.Close(); cerr != nil {
		return nerrors.WrapDatabaseAccessError(cerr, "tempfile: close zstd writer")
	}

	if err := os.WriteFile(f.path, compressed, 0o600); err != nil {
		return nerrors.WrapDatabaseAccessError(err, "tempfile: write spill file")
	}

	if !f.written {
		runtime.SetFinalizer(f, (*File).finalize)
	}
	f.written = true
	return nil
}

// Read decompresses and decodes the payload. May be called many times.
func (f *File) Read() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.written {
		return nil, nerrors.NewRuntimeRequirementError("tempfile: read before write")
	}

	compressed, err := os.ReadFile(f.path)
	if err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "tempfile: read spill file")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "tempfile: build zstd reader")
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "tempfile: decompress spill file")
	}

	var payload any
	if err := msgpack.Unmarshal(raw, &payload); err != nil {
		return nil, nerrors.WrapDatabaseAccessError(err, "tempfile: decode payload")
	}
	return payload, nil
}

// Remove deletes the backing file. Safe to call on a never-written File.
func (f *File) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	runtime.SetFinalizer(f, nil)
	if !f.written {
		return nil
	}
	err := os.Remove(f.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *File) finalize() {
	_ = f.Remove()
}
