package chunkfs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChunkStorage routes writes and reads across a base Database and an
// optional target Database, maintains dedup accounting, and drives the
// Scrub implementation when one is installed.
type ChunkStorage struct {
	base     Database
	target   Database // nil for CDC-only FileSystems
	scrubber Scrub     // nil for CDC-only FileSystems
	logger   *slog.Logger

	mu           sync.RWMutex
	seenKeys     map[ChunkKey]struct{}
	migrated     map[ChunkKey]struct{} // keys whose current owner is target
	bytesWritten int64
	uniqueBytes  int64
	dedupHits    int64
}

func newChunkStorage(base, target Database, scrubber Scrub, logger *slog.Logger) *ChunkStorage {
	return &ChunkStorage{
		base:     base,
		target:   target,
		scrubber: scrubber,
		logger:   defaultLogger(logger),
		seenKeys: make(map[ChunkKey]struct{}),
		migrated: make(map[ChunkKey]struct{}),
	}
}

// write stores each (key, chunk) pair not already seen, via the base
// store's InsertMany, and reports how many pairs were duplicates. The
// in-memory seenKeys set is consulted first for efficiency, but stays
// consistent with Database.Contains: a key is only ever added to seenKeys
// once its chunk has actually landed in the base store.
func (cs *ChunkStorage) write(ctx context.Context, chunks []StoredChunk) (dedupHits int64, err error) {
	cs.mu.Lock()
	fresh := make([]StoredChunk, 0, len(chunks))
	queued := make(map[ChunkKey]struct{}, len(chunks))
	var dupBytes int64
	for _, c := range chunks {
		_, seen := cs.seenKeys[c.Key]
		_, dup := queued[c.Key]
		if seen || dup {
			dedupHits++
			dupBytes += int64(len(c.Data))
			continue
		}
		queued[c.Key] = struct{}{}
		fresh = append(fresh, c)
	}
	cs.mu.Unlock()

	if len(fresh) == 0 {
		cs.mu.Lock()
		cs.dedupHits += dedupHits
		cs.bytesWritten += dupBytes
		cs.mu.Unlock()
		return dedupHits, nil
	}

	inserted, err := cs.base.InsertMany(ctx, fresh)
	insertedSet := make(map[ChunkKey]struct{}, len(fresh))
	for _, k := range inserted {
		insertedSet[k] = struct{}{}
	}
	if err == nil {
		// Keys the store already held were not newly inserted but have landed.
		for _, c := range fresh {
			insertedSet[c.Key] = struct{}{}
		}
	}

	cs.mu.Lock()
	for _, c := range fresh {
		if _, ok := insertedSet[c.Key]; !ok {
			continue
		}
		cs.seenKeys[c.Key] = struct{}{}
		cs.bytesWritten += int64(len(c.Data))
		cs.uniqueBytes += int64(len(c.Data))
	}
	cs.dedupHits += dedupHits
	cs.bytesWritten += dupBytes
	cs.mu.Unlock()

	if err != nil {
		return dedupHits, wrapBackend("insert many", err)
	}
	return dedupHits, nil
}

// read fetches chunks for an ordered key sequence, partitioning by
// current owner (base or target) and stitching results back into the
// original order with two backend calls total. If a key's migration is
// in flight and both stores happen to have it, the target copy wins.
func (cs *ChunkStorage) read(ctx context.Context, keys []ChunkKey) ([][]byte, error) {
	cs.mu.RLock()
	fromTarget := make([]ChunkKey, 0, len(keys))
	fromBase := make([]ChunkKey, 0, len(keys))
	owner := make([]bool, len(keys)) // true => target
	for i, k := range keys {
		if _, ok := cs.migrated[k]; ok && cs.target != nil {
			fromTarget = append(fromTarget, k)
			owner[i] = true
		} else {
			fromBase = append(fromBase, k)
		}
	}
	cs.mu.RUnlock()

	var baseData, targetData [][]byte
	var err error
	if len(fromBase) > 0 {
		baseData, err = cs.base.GetMany(ctx, fromBase)
		if err != nil {
			return nil, wrapBackend("get many (base)", err)
		}
	}
	if len(fromTarget) > 0 {
		targetData, err = cs.target.GetMany(ctx, fromTarget)
		if err != nil {
			return nil, wrapBackend("get many (target)", err)
		}
	}

	out := make([][]byte, len(keys))
	bi, ti := 0, 0
	for i := range keys {
		if owner[i] {
			out[i] = targetData[ti]
			ti++
		} else {
			out[i] = baseData[bi]
			bi++
		}
	}
	return out, nil
}

// dedupRatio returns total bytes written divided by unique bytes stored.
func (cs *ChunkStorage) dedupRatio() float64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.uniqueBytes == 0 {
		return 0
	}
	return float64(cs.bytesWritten) / float64(cs.uniqueBytes)
}

// scrub runs the installed Scrub implementation and applies its plan.
func (cs *ChunkStorage) scrub(ctx context.Context, layer *FileLayer) (ScrubMeasurements, error) {
	if cs.scrubber == nil || cs.target == nil {
		return ScrubMeasurements{}, ErrScrubUnavailable
	}

	start := time.Now()
	files := layer.snapshot()

	plan, measurements, err := cs.scrubber.Plan(ctx, cs.base, cs.target, files)
	if err != nil {
		return ScrubMeasurements{}, err
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if err := validatePlan(ctx, cs.base, cs.target, files, plan); err != nil {
		return ScrubMeasurements{}, err
	}

	var chunksMoved, chunksReplaced, clusters int64
	var bytesMoved int64

	for _, instr := range plan.Instructions {
		switch instr.Kind {
		case Move:
			data, err := cs.base.Get(ctx, instr.Key)
			if err != nil {
				return ScrubMeasurements{}, wrapBackend("scrub get (move)", err)
			}
			if err := cs.target.Insert(ctx, instr.Key, data); err != nil {
				return ScrubMeasurements{}, wrapBackend("scrub insert (move)", err)
			}
			cs.migrated[instr.Key] = struct{}{}
			bytesMoved += int64(len(data))
			chunksMoved++

		case Replace:
			replacement := make([]StoredChunk, len(instr.NewKeys))
			for i := range instr.NewKeys {
				replacement[i] = StoredChunk{Key: instr.NewKeys[i], Data: instr.NewChunks[i]}
			}
			if _, err := cs.target.InsertMany(ctx, replacement); err != nil {
				return ScrubMeasurements{}, wrapBackend("scrub insert many (replace)", err)
			}
			for _, k := range instr.NewKeys {
				cs.migrated[k] = struct{}{}
			}
			for _, name := range instr.Files {
				fm, err := layer.openForRead(name)
				if err != nil {
					return ScrubMeasurements{}, wrapBackend("scrub lookup file", err)
				}
				updated := replaceContiguous(fm.ChunkKeys, instr.OldKeys, instr.NewKeys)
				if err := layer.replaceChunkKeys(name, updated); err != nil {
					return ScrubMeasurements{}, wrapBackend("scrub rewrite file", err)
				}
			}
			chunksReplaced += int64(len(instr.OldKeys))

		case Cluster:
			clusters++
		}
	}

	measurements.RunID = uuid.New()
	measurements.RunTime = time.Since(start)
	if measurements.BytesMoved == 0 {
		measurements.BytesMoved = bytesMoved
	}
	measurements.ChunksMoved = chunksMoved
	measurements.ChunksReplaced = chunksReplaced
	measurements.Clusters = clusters

	cs.logger.Info("scrub complete",
		"run_id", measurements.RunID,
		"bytes_examined", measurements.BytesExamined,
		"bytes_moved", measurements.BytesMoved,
		"chunks_moved", measurements.ChunksMoved,
		"chunks_replaced", measurements.ChunksReplaced,
	)

	return measurements, nil
}
