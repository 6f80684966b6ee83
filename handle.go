package chunkfs

// HandleMode distinguishes a read handle from a write handle. Per
// spec.md §3, a FileHandle carries its mode as a field rather than being
// split into separate Go types, so mode-safety (testable property 5: read
// ops on a write handle and write ops on a read handle both fail with
// ErrInvalidHandle) is a runtime check callers can actually exercise.
type HandleMode int

const (
	ModeWrite HandleMode = iota
	ModeRead
)

// WriteBuffer accumulates bytes written to a file between chunking
// passes. The chunker consumes a prefix of the buffer on each call and
// retains its own unsplittable tail internally (SPEC_FULL.md §9.5), so
// WriteBuffer itself never needs to remember a tail — it is simply
// "everything written since the last ChunkData call" and is reset to
// empty after each pass.
type WriteBuffer struct {
	pending []byte
}

// Append adds p to the buffer.
func (wb *WriteBuffer) Append(p []byte) {
	wb.pending = append(wb.pending, p...)
}

// Drain returns the buffered bytes and empties the buffer.
func (wb *WriteBuffer) Drain() []byte {
	out := wb.pending
	wb.pending = nil
	return out
}

// Len reports how many bytes are currently buffered.
func (wb *WriteBuffer) Len() int { return len(wb.pending) }

// FileHandle is the transient, per-open state for a file. A Write handle
// owns a chunker instance and a WriteBuffer and accumulates the chunk
// keys produced so far; Close replaces the file's chunk key list
// wholesale with the collected sequence. A Read handle loads the full
// chunk-key list at open time into the same collected field.
type FileHandle struct {
	name    string
	mode    HandleMode
	chunker Chunker // nil for Read handles
	buf     WriteBuffer

	collected    []ChunkKey
	measurements Measurements
	closed       bool
}

// Name returns the file name this handle was opened against.
func (h *FileHandle) Name() string { return h.name }

// Mode returns whether this handle is open for reading or writing.
func (h *FileHandle) Mode() HandleMode { return h.mode }
