package chunkfs

// Chunker is a streaming byte-to-chunks splitter with a carry-over
// remainder. Chunking is deterministic per (chunker state, bytes): the
// same byte sequence fed through a fresh Chunker produces the same chunk
// boundaries.
//
// Tail convention (spec.md §9, resolved in SPEC_FULL.md §9.5): a Chunker
// owns its unsplittable tail internally between calls to ChunkData. The
// tail is only ever emitted as a chunk by an explicit call to Finish.
// Implementations must not also expose a Rest()-style accessor — mixing
// conventions silently truncates writes.
type Chunker interface {
	// ChunkData splits buf into a prefix of zero or more complete chunks,
	// retaining any unsplittable suffix internally as the tail. reuse, if
	// non-nil, is a hint: its contents are discarded and its backing array
	// may be reused to amortize allocations.
	ChunkData(buf []byte, reuse []Chunk) ([]Chunk, error)

	// Finish flushes the current tail as a final chunk and resets internal
	// state so the Chunker is ready to start a new stream. The final
	// chunk may be empty when the stream ended exactly on a boundary.
	Finish() (Chunk, error)

	// EstimateChunkCount returns a cheap upper-bound estimate of how many
	// chunks ChunkData(buf, ...) will produce, used to pre-size output
	// containers. Correctness of the bound, not exactness, is required.
	EstimateChunkCount(buf []byte) int
}
