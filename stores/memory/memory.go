// Package memory implements chunkfs.Database as a process-local map. It
// is the default base store for a FileSystem: no persistence, cheapest
// possible Insert/Get, appropriate for a dedup bench that never outlives
// the process running it.
package memory

import (
	"context"
	"sync"

	"github.com/Piletskii-Oleg/chunkfs"
)

// Store is a sync.RWMutex-guarded map[ChunkKey][]byte.
type Store struct {
	mu     sync.RWMutex
	chunks map[chunkfs.ChunkKey][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{chunks: make(map[chunkfs.ChunkKey][]byte)}
}

// Insert implements chunkfs.Database.
func (s *Store) Insert(_ context.Context, key chunkfs.ChunkKey, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.chunks[key]; exists {
		return nil
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.chunks[key] = stored
	return nil
}

// InsertMany implements chunkfs.Database.
func (s *Store) InsertMany(_ context.Context, chunks []chunkfs.StoredChunk) ([]chunkfs.ChunkKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := make([]chunkfs.ChunkKey, 0, len(chunks))
	for _, c := range chunks {
		if _, exists := s.chunks[c.Key]; exists {
			continue
		}
		stored := make([]byte, len(c.Data))
		copy(stored, c.Data)
		s.chunks[c.Key] = stored
		inserted = append(inserted, c.Key)
	}
	return inserted, nil
}

// Get implements chunkfs.Database.
func (s *Store) Get(_ context.Context, key chunkfs.ChunkKey) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.chunks[key]
	if !ok {
		return nil, chunkfs.ErrNotFound
	}
	return data, nil
}

// GetMany implements chunkfs.Database.
func (s *Store) GetMany(_ context.Context, keys []chunkfs.ChunkKey) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]byte, len(keys))
	for i, k := range keys {
		data, ok := s.chunks[k]
		if !ok {
			return nil, chunkfs.ErrNotFound
		}
		out[i] = data
	}
	return out, nil
}

// Contains implements chunkfs.Database.
func (s *Store) Contains(_ context.Context, key chunkfs.ChunkKey) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[key]
	return ok, nil
}

// Len reports how many distinct chunks are currently stored.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
