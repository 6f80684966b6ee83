// Package cdc implements a content-defined chunker over a rolling
// Rabin fingerprint, using github.com/restic/chunker for the boundary
// detection. Chunk boundaries shift with the data instead of the byte
// offset, so an insertion near the start of a file only disturbs the
// chunks around the insertion point.
package cdc

import (
	"io"
	"sync"

	"github.com/restic/chunker"

	"github.com/Piletskii-Oleg/chunkfs"
)

// Default boundaries, matching the values the teacher's own chunker
// setup uses: a 256 KiB floor and a 1 MiB ceiling around the average.
const (
	DefaultMin = 256 * 1024
	DefaultMax = 1024 * 1024
)

// DefaultPol is the rolling-hash polynomial the teacher's own chunker
// setup hardcodes. It has no special properties beyond being a fixed,
// known-good irreducible polynomial for restic/chunker's Rabin
// fingerprinting; callers needing per-store polynomial diversity should
// generate their own with chunker.RandomPolynomial.
const DefaultPol = chunker.Pol(0x3DA3358B4DC173)

// Chunker splits a byte stream on content-defined boundaries. It keeps
// one restic/chunker instance alive for the whole stream, fed through a
// feedReader, instead of rebuilding a chunker over each call's buffer:
// a chunker rebuilt per call would see the end of that call's buffer as
// genuine end-of-stream and would be forced to cut a chunk there, so the
// same bytes split across two WriteToFile calls would hash differently
// than written in one call. feedReader lets the background goroutine
// driving the chunker block on "no bytes yet" instead of observing a
// false EOF, the same role the teacher's io.Pipe plays in
// simplefs/chunks.go, adapted so ChunkData returns the chunks the
// chunker has emitted by the time it blocks for more input. The chunker
// may have read pushed bytes it has not scanned yet, so a chunk ending
// in them arrives on a later ChunkData call or, after the stream is
// closed, as part of the single chunk Finish returns.
type Chunker struct {
	pol chunker.Pol
	min uint
	max uint

	started bool
	feed    *feedReader
	done    chan struct{}

	mu      sync.Mutex
	pending []chunkfs.Chunk
	tail    chunkfs.Chunk
	err     error
}

// New returns a Chunker using pol as its rolling-hash polynomial and the
// package's default min/max chunk boundaries. A fixed, well-known
// polynomial is fine for a single process; multi-writer dedup across
// processes should use the same pol everywhere to get comparable keys.
func New(pol chunker.Pol) *Chunker {
	return NewWithBoundaries(pol, DefaultMin, DefaultMax)
}

// NewWithBoundaries is New with explicit min/max chunk sizes in bytes.
func NewWithBoundaries(pol chunker.Pol, min, max uint) *Chunker {
	return &Chunker{pol: pol, min: min, max: max}
}

// start launches the background goroutine that drives a fresh
// restic/chunker instance over c.feed. Called lazily on the first
// ChunkData of a stream, and again after Finish resets the Chunker for
// the next one.
func (c *Chunker) start() {
	c.feed = newFeedReader()
	c.done = make(chan struct{})
	c.pending = nil
	c.tail = chunkfs.Chunk{}
	c.err = nil

	chnkr := chunker.NewWithBoundaries(c.feed, c.pol, c.min, c.max)
	done, max := c.done, c.max

	go func() {
		defer close(done)
		scratch := make([]byte, max)
		for {
			ch, err := chnkr.Next(scratch)
			if err == io.EOF {
				c.mu.Lock()
				if ch.Length > 0 {
					data := make([]byte, ch.Length)
					copy(data, ch.Data)
					c.tail = chunkfs.Chunk{Data: data}
				}
				c.mu.Unlock()
				return
			}
			if err != nil {
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
				return
			}

			data := make([]byte, ch.Length)
			copy(data, ch.Data)
			c.mu.Lock()
			c.pending = append(c.pending, chunkfs.Chunk{Data: data})
			c.mu.Unlock()
		}
	}()
	c.started = true
}

// ChunkData implements chunkfs.Chunker.
func (c *Chunker) ChunkData(buf []byte, reuse []chunkfs.Chunk) ([]chunkfs.Chunk, error) {
	if !c.started {
		c.start()
	}

	if len(buf) > 0 {
		c.feed.push(buf)
		c.feed.waitIdle()
	}

	c.mu.Lock()
	out := append(reuse[:0], c.pending...)
	c.pending = c.pending[:0]
	err := c.err
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return out, nil
}

// Finish implements chunkfs.Chunker.
func (c *Chunker) Finish() (chunkfs.Chunk, error) {
	if !c.started {
		return chunkfs.Chunk{}, nil
	}

	c.feed.closeStream()
	<-c.done

	c.mu.Lock()
	final, err := c.tail, c.err
	if len(c.pending) > 0 {
		// Chunks found after the last ChunkData, including the stream's
		// last one, are joined ahead of the tail into the final chunk.
		var data []byte
		for _, ch := range c.pending {
			data = append(data, ch.Data...)
		}
		final = chunkfs.Chunk{Data: append(data, final.Data...)}
		c.pending = nil
	}
	c.mu.Unlock()

	c.started = false
	if err != nil {
		return chunkfs.Chunk{}, err
	}
	return final, nil
}

// EstimateChunkCount implements chunkfs.Chunker. It divides len(buf) by
// the midpoint of the min and max chunk sizes and adds one. This is not
// an upper bound: ChunkData returns more chunks than this when chunks
// come out close to the minimum size, or when bytes carried from earlier
// calls complete further chunks.
func (c *Chunker) EstimateChunkCount(buf []byte) int {
	avg := (c.min + c.max) / 2
	if avg == 0 {
		return 1
	}
	return len(buf)/int(avg) + 1
}

// feedReader is an io.Reader fed incrementally via push, used in place
// of an io.Pipe so ChunkData can tell when the reader has consumed and
// fully processed everything pushed so far (waitIdle) rather than only
// when the raw bytes have been copied out. A plain io.Pipe guarantees
// the latter, not the former: Write returns once Read has taken the
// bytes, but the chunker goroutine's boundary bookkeeping for that data
// can still be running after Write returns, which is exactly the
// narrow race ChunkData cannot afford given Finish's one-Chunk return.
type feedReader struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buf     []byte
	waiting bool
	closed  bool
}

func newFeedReader() *feedReader {
	fr := &feedReader{}
	fr.cond = sync.NewCond(&fr.mu)
	return fr
}

// push appends p for Read to consume. It never blocks.
func (fr *feedReader) push(p []byte) {
	fr.mu.Lock()
	fr.buf = append(fr.buf, p...)
	fr.waiting = false
	fr.cond.Broadcast()
	fr.mu.Unlock()
}

// closeStream marks the stream finished. Once the buffer drains, Read
// starts returning io.EOF.
func (fr *feedReader) closeStream() {
	fr.mu.Lock()
	fr.closed = true
	fr.cond.Broadcast()
	fr.mu.Unlock()
}

// Read implements io.Reader. It blocks until data is available, until
// closeStream has been called and the buffer is empty, or forever if
// neither happens — callers only use it from the goroutine started by
// Chunker.start, which is always paired with a push or closeStream.
func (fr *feedReader) Read(p []byte) (int, error) {
	fr.mu.Lock()
	for len(fr.buf) == 0 && !fr.closed {
		fr.waiting = true
		fr.cond.Broadcast()
		fr.cond.Wait()
	}
	if len(fr.buf) == 0 {
		fr.mu.Unlock()
		return 0, io.EOF
	}
	fr.waiting = false
	n := copy(p, fr.buf)
	fr.buf = fr.buf[n:]
	fr.mu.Unlock()
	return n, nil
}

// waitIdle blocks until Read has drained buf and is parked waiting for
// more input. Chunker.start's goroutine only reaches Read again once the
// chunker has emitted every chunk it can cut from the bytes it has
// scanned; bytes it has read but not yet scanned can still hold a chunk
// boundary, which is delivered later (see Chunker).
func (fr *feedReader) waitIdle() {
	fr.mu.Lock()
	for len(fr.buf) > 0 || !fr.waiting {
		fr.cond.Wait()
	}
	fr.mu.Unlock()
}
