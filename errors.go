package chunkfs

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNotFound is returned when a file name isn't in the registry, or
	// when a chunk key referenced by a FileMetadata isn't in any store.
	ErrNotFound = errors.New("chunkfs: not found")

	// ErrAlreadyExists is returned by CreateFile with createNew=true when
	// the name already has metadata registered.
	ErrAlreadyExists = errors.New("chunkfs: already exists")

	// ErrInvalidHandle is returned when a read operation is attempted on a
	// write handle, or a write operation on a read handle.
	ErrInvalidHandle = errors.New("chunkfs: invalid handle for this operation")

	// ErrWriteConflict is returned by CreateFile when a write handle is
	// already open on the name (invariant 5).
	ErrWriteConflict = errors.New("chunkfs: file already open for writing")

	// ErrScrubUnavailable is returned by Scrub when the FileSystem was
	// constructed without a target store and scrubber (CDC-only shape).
	ErrScrubUnavailable = errors.New("chunkfs: scrub unavailable on this FileSystem")

	// ErrScrubInvalid is returned when a MigrationPlan fails validation:
	// a dangling key reference, a malformed Replace instruction, or an
	// unknown instruction kind.
	ErrScrubInvalid = errors.New("chunkfs: scrub plan invalid")

	// ErrChunkerRejected is returned when a Chunker implementation signals
	// it cannot process the given input.
	ErrChunkerRejected = errors.New("chunkfs: chunker rejected input")
)

// BackendError wraps an opaque failure surfaced by a Database
// implementation, preserving the original error for errors.Is/errors.As.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("chunkfs: backend error during %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// wrapBackend wraps err from a Database call with the operation name that
// triggered it, or returns nil if err is nil.
func wrapBackend(op string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Err: err}
}

// fileErr builds an *os.PathError keyed by file name, mirroring the
// teacher's path-keyed error convention but over a flat string name
// instead of a hierarchical path type.
func fileErr(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &os.PathError{Op: op, Path: name, Err: err}
}
