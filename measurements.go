package chunkfs

import (
	"time"

	"github.com/google/uuid"
)

// Measurements captures per-operation timing and counters. Aggregation is
// additive across calls on the same handle until Close.
type Measurements struct {
	RunID uuid.UUID

	TotalTime   time.Duration
	ChunkerTime time.Duration
	HasherTime  time.Duration

	BytesIn  int64
	BytesOut int64

	ChunksProduced int64
	DedupHits      int64
}

// AverageChunkSize returns BytesOut / ChunksProduced, or 0 when no chunks
// have been produced yet.
func (m Measurements) AverageChunkSize() float64 {
	if m.ChunksProduced == 0 {
		return 0
	}
	return float64(m.BytesOut) / float64(m.ChunksProduced)
}

// newMeasurements starts a fresh Measurements with a new RunID.
func newMeasurements() Measurements {
	return Measurements{RunID: uuid.New()}
}

// ScrubMeasurements captures the outcome of a single Scrub pass.
type ScrubMeasurements struct {
	RunID uuid.UUID

	RunTime time.Duration

	BytesExamined    int64
	BytesMoved       int64
	ChunksEliminated int64
	ChunksMoved      int64
	ChunksReplaced   int64
	Clusters         int64
}
