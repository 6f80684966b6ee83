package frequency

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/Piletskii-Oleg/chunkfs"
)

// CompressingStore wraps a chunkfs.Database and transparently
// zstd-compresses values on the way in and decompresses them on the
// way out, so callers of Get/GetMany always see the original bytes.
// This is the target store shape Scrubber expects: it lets the merge
// step in Plan work with plain concatenated bytes while the actual
// re-encoding happens at the storage boundary, keeping ChunkStorage's
// read path ignorant of any particular Scrub implementation's codec.
type CompressingStore struct {
	inner chunkfs.Database
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressingStore wraps inner with transparent zstd compression.
func NewCompressingStore(inner chunkfs.Database) (*CompressingStore, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("frequency: new zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("frequency: new zstd decoder: %w", err)
	}
	return &CompressingStore{inner: inner, enc: enc, dec: dec}, nil
}

// Insert implements chunkfs.Database.
func (c *CompressingStore) Insert(ctx context.Context, key chunkfs.ChunkKey, data []byte) error {
	return c.inner.Insert(ctx, key, c.enc.EncodeAll(data, nil))
}

// InsertMany implements chunkfs.Database.
func (c *CompressingStore) InsertMany(ctx context.Context, chunks []chunkfs.StoredChunk) ([]chunkfs.ChunkKey, error) {
	compressed := make([]chunkfs.StoredChunk, len(chunks))
	for i, ch := range chunks {
		compressed[i] = chunkfs.StoredChunk{Key: ch.Key, Data: c.enc.EncodeAll(ch.Data, nil), Meta: ch.Meta}
	}
	return c.inner.InsertMany(ctx, compressed)
}

// Get implements chunkfs.Database.
func (c *CompressingStore) Get(ctx context.Context, key chunkfs.ChunkKey) ([]byte, error) {
	raw, err := c.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return c.dec.DecodeAll(raw, nil)
}

// GetMany implements chunkfs.Database.
func (c *CompressingStore) GetMany(ctx context.Context, keys []chunkfs.ChunkKey) ([][]byte, error) {
	raw, err := c.inner.GetMany(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(raw))
	for i, r := range raw {
		out[i], err = c.dec.DecodeAll(r, nil)
		if err != nil {
			return nil, fmt.Errorf("frequency: decode chunk %d: %w", i, err)
		}
	}
	return out, nil
}

// Contains implements chunkfs.Database.
func (c *CompressingStore) Contains(ctx context.Context, key chunkfs.ChunkKey) (bool, error) {
	return c.inner.Contains(ctx, key)
}
