package chunkfs

import "context"

// Database is a keyed chunk store: the base (and optional target) tier
// backing a ChunkStorage. Implementations are not required to be
// persistent. No iteration or range scan is required.
//
// Insert must be idempotent: reinserting an existing key must not corrupt
// the stored chunk. InsertMany is atomic per-pair; on partial failure it
// reports which keys were actually inserted via the returned slice so the
// caller can reconcile its accounting.
type Database interface {
	// Insert stores data under key, or is a no-op if key already exists.
	Insert(ctx context.Context, key ChunkKey, data []byte) error

	// InsertMany stores every (key, data) pair not already present.
	// inserted lists the keys that were newly written, in input order; it
	// is returned even on a non-nil error so the caller knows what landed.
	InsertMany(ctx context.Context, chunks []StoredChunk) (inserted []ChunkKey, err error)

	// Get retrieves the bytes for key, or ErrNotFound if absent.
	Get(ctx context.Context, key ChunkKey) ([]byte, error)

	// GetMany retrieves bytes for every key, in the same order as keys.
	// Any missing key is an error.
	GetMany(ctx context.Context, keys []ChunkKey) ([][]byte, error)

	// Contains reports whether key is present.
	Contains(ctx context.Context, key ChunkKey) (bool, error)
}
