// Package bolt implements chunkfs.Database over a github.com/boltdb/bolt
// database: a B+tree, single-file, persistent key-value store. Each
// Store owns one bucket, keyed directly by ChunkKey bytes.
package bolt

import (
	"context"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/Piletskii-Oleg/chunkfs"
)

// Store is a chunkfs.Database backed by a single bolt bucket.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open opens (creating if necessary) a bolt database at path, with the
// named bucket used to hold chunks. Callers should Close the returned
// Store when finished.
func Open(path string, bucket string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	s := &Store{db: db, bucket: []byte(bucket)}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: create bucket %s: %w", bucket, err)
	}

	return s, nil
}

// Close releases the underlying bolt database file.
func (s *Store) Close() error { return s.db.Close() }

// Insert implements chunkfs.Database.
func (s *Store) Insert(_ context.Context, key chunkfs.ChunkKey, data []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b.Get([]byte(key)) != nil {
			return nil
		}
		return b.Put([]byte(key), data)
	})
}

// InsertMany implements chunkfs.Database.
func (s *Store) InsertMany(_ context.Context, chunks []chunkfs.StoredChunk) ([]chunkfs.ChunkKey, error) {
	inserted := make([]chunkfs.ChunkKey, 0, len(chunks))
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, c := range chunks {
			if b.Get([]byte(c.Key)) != nil {
				continue
			}
			if err := b.Put([]byte(c.Key), c.Data); err != nil {
				return err
			}
			inserted = append(inserted, c.Key)
		}
		return nil
	})
	if err != nil {
		// The failed transaction was rolled back: nothing landed.
		return nil, err
	}
	return inserted, nil
}

// Get implements chunkfs.Database.
func (s *Store) Get(_ context.Context, key chunkfs.ChunkKey) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return chunkfs.ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	return out, err
}

// GetMany implements chunkfs.Database.
func (s *Store) GetMany(_ context.Context, keys []chunkfs.ChunkKey) ([][]byte, error) {
	out := make([][]byte, len(keys))
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for i, k := range keys {
			v := b.Get([]byte(k))
			if v == nil {
				return chunkfs.ErrNotFound
			}
			out[i] = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Contains implements chunkfs.Database.
func (s *Store) Contains(_ context.Context, key chunkfs.ChunkKey) (bool, error) {
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok = tx.Bucket(s.bucket).Get([]byte(key)) != nil
		return nil
	})
	return ok, err
}
