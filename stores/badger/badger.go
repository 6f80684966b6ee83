// Package badger implements chunkfs.Database over
// github.com/dgraph-io/badger/v4: an LSM-tree persistent store, well
// suited as a scrub target given its strength absorbing the
// random-key write pattern a migration pass produces.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/Piletskii-Oleg/chunkfs"
)

// Store is a chunkfs.Database backed by a badger.DB.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (creating if necessary) a badger database at dir. logger
// may be nil, in which case badger's own log output is discarded.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(slogAdapter{logger})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", dir, err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the underlying badger database.
func (s *Store) Close() error { return s.db.Close() }

// Insert implements chunkfs.Database.
func (s *Store) Insert(_ context.Context, key chunkfs.ChunkKey, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(key), data)
	})
}

// InsertMany implements chunkfs.Database.
func (s *Store) InsertMany(_ context.Context, chunks []chunkfs.StoredChunk) ([]chunkfs.ChunkKey, error) {
	inserted := make([]chunkfs.ChunkKey, 0, len(chunks))
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	err := s.db.View(func(txn *badger.Txn) error {
		for _, c := range chunks {
			if _, err := txn.Get([]byte(c.Key)); err == nil {
				continue
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := wb.Set([]byte(c.Key), c.Data); err != nil {
				return err
			}
			inserted = append(inserted, c.Key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := wb.Flush(); err != nil {
		return nil, err
	}
	return inserted, nil
}

// Get implements chunkfs.Database.
func (s *Store) Get(_ context.Context, key chunkfs.ChunkKey) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return chunkfs.ErrNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	return out, err
}

// GetMany implements chunkfs.Database.
func (s *Store) GetMany(_ context.Context, keys []chunkfs.ChunkKey) ([][]byte, error) {
	out := make([][]byte, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for i, k := range keys {
			item, err := txn.Get([]byte(k))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return chunkfs.ErrNotFound
			}
			if err != nil {
				return err
			}
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[i] = v
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
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, err
}

// slogAdapter routes badger's internal logging through the installed
// *slog.Logger, or discards it when none was supplied.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Errorf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Error(fmt.Sprintf(format, args...))
	}
}

func (a slogAdapter) Warningf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Warn(fmt.Sprintf(format, args...))
	}
}

func (a slogAdapter) Infof(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Info(fmt.Sprintf(format, args...))
	}
}

func (a slogAdapter) Debugf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(fmt.Sprintf(format, args...))
	}
}
