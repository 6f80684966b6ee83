package chunkfs

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Option configures a FileSystem at construction time.
type Option func(*FileSystem)

// WithLogger installs a logger for lifecycle-boundary messages
// (create/open/close/remove/scrub). The default is a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(fs *FileSystem) { fs.logger = logger }
}

// FileSystem is the public surface of chunkfs: it composes a
// ChunkStorage and a FileLayer behind create/open/write/read/close/
// remove/scrub operations, and reports a running dedup ratio.
//
// Three construction shapes are supported, per spec.md §4.9:
//   - NewCDCOnly: base store + hasher, no scrubber. Scrub is unavailable.
//   - NewWithScrubber: base + target store + scrubber + hasher.
//   - NewKeyed: like NewCDCOnly, plus an explicit zero ChunkKey that
//     keyFor returns for empty data (see keyFor below).
type FileSystem struct {
	storage *ChunkStorage
	files   *FileLayer
	hasher  Hasher
	logger  *slog.Logger

	zeroKey    ChunkKey
	hasZeroKey bool
}

// NewCDCOnly constructs a FileSystem with only a base store: no target
// store, no scrubber. Scrub returns ErrScrubUnavailable.
func NewCDCOnly(base Database, hasher Hasher, opts ...Option) *FileSystem {
	fs := &FileSystem{files: newFileLayer(), hasher: hasher}
	for _, opt := range opts {
		opt(fs)
	}
	fs.logger = defaultLogger(fs.logger)
	fs.storage = newChunkStorage(base, nil, nil, fs.logger)
	return fs
}

// NewWithScrubber constructs a FileSystem with a base store, a target
// store, and a Scrub implementation. Scrub runs the full protocol.
func NewWithScrubber(base, target Database, scrubber Scrub, hasher Hasher, opts ...Option) *FileSystem {
	fs := &FileSystem{files: newFileLayer(), hasher: hasher}
	for _, opt := range opts {
		opt(fs)
	}
	fs.logger = defaultLogger(fs.logger)
	fs.storage = newChunkStorage(base, target, scrubber, fs.logger)
	return fs
}

// NewKeyed constructs a CDC-only FileSystem whose keyFor returns zero for
// empty data instead of calling the installed Hasher on an empty byte
// slice. CloseFile does not key, store, or count an empty final chunk (a
// stream that ends exactly on a chunk boundary), so no stored chunk is
// keyed with zero.
func NewKeyed(base Database, hasher Hasher, zero ChunkKey, opts ...Option) *FileSystem {
	fs := NewCDCOnly(base, hasher, opts...)
	fs.zeroKey = zero
	fs.hasZeroKey = true
	return fs
}

// keyFor returns the ChunkKey for data, using the configured zero key for
// empty data on a Keyed FileSystem, or the installed Hasher otherwise.
func (fs *FileSystem) keyFor(data []byte) ChunkKey {
	if len(data) == 0 && fs.hasZeroKey {
		return fs.zeroKey
	}
	return fs.hasher.Hash(data)
}

// CreateFile registers name (truncating any existing metadata) and
// returns a write handle bound to chunker. If createNew is set and name
// already has metadata, CreateFile fails with ErrAlreadyExists.
func (fs *FileSystem) CreateFile(name string, chunker Chunker, createNew bool) (*FileHandle, error) {
	if _, err := fs.files.create(name, createNew); err != nil {
		return nil, fileErr("create", name, err)
	}

	fs.logger.Debug("file created", "name", name, "create_new", createNew)
	return &FileHandle{
		name:         name,
		mode:         ModeWrite,
		chunker:      chunker,
		measurements: newMeasurements(),
	}, nil
}

// OpenFile loads name's chunk-key list and returns a read handle. The
// chunker argument is accepted for symmetry with CreateFile and the
// spec's external interface but is unused by reads: concatenation order
// comes entirely from the stored chunk-key list.
func (fs *FileSystem) OpenFile(name string, chunker Chunker) (*FileHandle, error) {
	fm, err := fs.files.openForRead(name)
	if err != nil {
		return nil, fileErr("open", name, err)
	}

	fs.logger.Debug("file opened", "name", name, "chunks", len(fm.ChunkKeys))
	return &FileHandle{
		name:         name,
		mode:         ModeRead,
		collected:    fm.ChunkKeys,
		measurements: newMeasurements(),
	}, nil
}

// WriteToFile chunks and deduplicates p against h's file. A failed write
// leaves h's pending buffer intact and its collected keys unchanged —
// only successfully stored chunks are ever appended.
func (fs *FileSystem) WriteToFile(h *FileHandle, p []byte) (int, error) {
	if h.closed {
		return 0, fmt.Errorf("write to file: %w", ErrInvalidHandle)
	}
	if h.mode != ModeWrite {
		return 0, fmt.Errorf("write to file: %w", ErrInvalidHandle)
	}

	start := time.Now()
	h.buf.Append(p)
	data := h.buf.Drain()

	chunkerStart := time.Now()
	reuse := make([]Chunk, 0, h.chunker.EstimateChunkCount(data))
	chunks, err := h.chunker.ChunkData(data, reuse)
	chunkerDur := time.Since(chunkerStart)
	if err != nil {
		h.buf.pending = data // chunking failed: keep the bytes pending
		return 0, fmt.Errorf("%w: %v", ErrChunkerRejected, err)
	}

	hasherStart := time.Now()
	toInsert := make([]StoredChunk, len(chunks))
	keys := make([]ChunkKey, len(chunks))
	var bytesOut int64
	for i, c := range chunks {
		k := fs.hasher.Hash(c.Data)
		keys[i] = k
		toInsert[i] = StoredChunk{Key: k, Data: c.Data}
		bytesOut += int64(c.Len())
	}
	hasherDur := time.Since(hasherStart)

	dedupHits, err := fs.storage.write(context.Background(), toInsert)
	if err != nil {
		return 0, err
	}

	h.collected = append(h.collected, keys...)
	h.measurements.ChunkerTime += chunkerDur
	h.measurements.HasherTime += hasherDur
	h.measurements.BytesIn += int64(len(p))
	h.measurements.BytesOut += bytesOut
	h.measurements.ChunksProduced += int64(len(chunks))
	h.measurements.DedupHits += dedupHits
	h.measurements.TotalTime += time.Since(start)

	return len(p), nil
}

// ReadFromFile concatenates the chunks referenced by h's file, in order.
func (fs *FileSystem) ReadFromFile(h *FileHandle) ([]byte, error) {
	if h.closed {
		return nil, fmt.Errorf("read from file: %w", ErrInvalidHandle)
	}
	if h.mode != ModeRead {
		return nil, fmt.Errorf("read from file: %w", ErrInvalidHandle)
	}

	start := time.Now()
	parts, err := fs.storage.read(context.Background(), h.collected)
	if err != nil {
		return nil, err
	}

	var total int
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}

	h.measurements.BytesOut += int64(len(out))
	h.measurements.ChunksProduced += int64(len(h.collected))
	h.measurements.TotalTime += time.Since(start)
	return out, nil
}

// CloseFile finalizes h. For a write handle, it flushes the chunker's
// tail, inserts it as a final chunk unless it is empty, and atomically
// replaces the file's chunk key list with the collected sequence — a
// failed close leaves the prior FileMetadata untouched. For a read
// handle, it simply marks the handle closed.
func (fs *FileSystem) CloseFile(h *FileHandle) (Measurements, error) {
	if h.closed {
		return Measurements{}, fmt.Errorf("close file: %w", ErrInvalidHandle)
	}

	if h.mode == ModeRead {
		h.closed = true
		fs.logger.Debug("file closed", "name", h.name, "mode", "read")
		return h.measurements, nil
	}

	final, err := h.chunker.Finish()
	if err != nil {
		return h.measurements, fmt.Errorf("%w: %v", ErrChunkerRejected, err)
	}

	// A stream that ends exactly on a chunk boundary flushes an empty
	// final chunk: nothing to key, store, or count (spec.md §8 scenario 6).
	if len(final.Data) > 0 {
		key := fs.keyFor(final.Data)
		if _, err := fs.storage.write(context.Background(), []StoredChunk{{Key: key, Data: final.Data}}); err != nil {
			return h.measurements, err
		}
		h.collected = append(h.collected, key)
		h.measurements.ChunksProduced++
		h.measurements.BytesOut += int64(len(final.Data))
	}

	if err := fs.files.replaceChunkKeys(h.name, h.collected); err != nil {
		return h.measurements, fileErr("close", h.name, err)
	}

	h.closed = true
	fs.files.releaseWriter(h.name)
	fs.logger.Debug("file closed", "name", h.name, "mode", "write", "chunks", len(h.collected), "run_id", h.measurements.RunID)
	return h.measurements, nil
}

// RemoveFile deletes name's metadata. It does not touch stored chunk
// bytes — chunkfs never garbage-collects a store (spec.md §3 lifecycles).
func (fs *FileSystem) RemoveFile(name string) error {
	if err := fs.files.remove(name); err != nil {
		return fileErr("remove", name, err)
	}
	fs.logger.Debug("file removed", "name", name)
	return nil
}

// Scrub runs the installed Scrub implementation's protocol: plan, then
// validate, then apply. It returns ErrScrubUnavailable on a FileSystem
// built with NewCDCOnly/NewKeyed (no target store or scrubber installed).
func (fs *FileSystem) Scrub(ctx context.Context) (ScrubMeasurements, error) {
	return fs.storage.scrub(ctx, fs.files)
}

// DedupRatio returns total bytes written divided by unique bytes stored,
// 0 if nothing has been written yet.
func (fs *FileSystem) DedupRatio() float64 {
	return fs.storage.dedupRatio()
}
