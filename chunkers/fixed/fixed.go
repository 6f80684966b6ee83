// Package fixed implements a fixed-size chunker: every boundary falls
// exactly Size bytes apart, with no content dependence. It exists for
// scenarios that need deterministic, reproducible chunk boundaries
// independent of the bytes involved — a baseline to compare a
// content-defined chunker's dedup ratio against.
package fixed

import "github.com/Piletskii-Oleg/chunkfs"

// Chunker splits input into Size-byte pieces, carrying any remainder
// shorter than Size as its tail.
type Chunker struct {
	size uint
	tail []byte
}

// New returns a Chunker producing chunks of exactly size bytes (except
// possibly the final one, flushed by Finish).
func New(size uint) *Chunker {
	return &Chunker{size: size}
}

// ChunkData implements chunkfs.Chunker.
func (c *Chunker) ChunkData(buf []byte, reuse []chunkfs.Chunk) ([]chunkfs.Chunk, error) {
	combined := append(c.tail, buf...)
	c.tail = nil

	out := reuse[:0]
	size := int(c.size)
	i := 0
	for ; i+size <= len(combined); i += size {
		data := make([]byte, size)
		copy(data, combined[i:i+size])
		out = append(out, chunkfs.Chunk{Data: data})
	}

	if i < len(combined) {
		c.tail = append([]byte(nil), combined[i:]...)
	}
	return out, nil
}

// Finish implements chunkfs.Chunker.
func (c *Chunker) Finish() (chunkfs.Chunk, error) {
	final := chunkfs.Chunk{Data: c.tail}
	c.tail = nil
	return final, nil
}

// EstimateChunkCount implements chunkfs.Chunker.
func (c *Chunker) EstimateChunkCount(buf []byte) int {
	if c.size == 0 {
		return 1
	}
	return len(buf)/int(c.size) + 1
}
