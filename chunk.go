package chunkfs

// Chunk is an opaque, contiguous, immutable-once-produced byte sequence
// produced by a Chunker.
type Chunk struct {
	Data []byte
}

// Len returns the number of bytes in the chunk.
func (c Chunk) Len() int { return len(c.Data) }

// ChunkKey is a fixed-width, content-derived digest produced by a Hasher.
// It is comparable and total-ordered (lexicographic on the underlying
// bytes), so it can be used as a map key directly.
type ChunkKey string

// String returns the key's bytes rendered as a string; ChunkKey already is
// one, this exists for readability at call sites.
func (k ChunkKey) String() string { return string(k) }

// StoredChunk is a chunk residing in a Database, identified by its key.
// Backend-specific metadata (e.g. a similarity-cluster reference attached
// by a Scrub implementation) rides in Meta.
type StoredChunk struct {
	Key  ChunkKey
	Data []byte
	Meta any
}
