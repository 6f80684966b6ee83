package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Piletskii-Oleg/chunkfs"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chunks.db")
	s, err := Open(path, "chunks")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, "a", []byte("data")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "data" {
		t.Fatalf("Get = %q, want %q", got, "data")
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, chunkfs.ErrNotFound) {
		t.Fatalf("Get missing key: got %v, want ErrNotFound", err)
	}
}

func TestInsertManyAndGetMany(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	inserted, err := s.InsertMany(ctx, []chunkfs.StoredChunk{
		{Key: "a", Data: []byte("1")},
		{Key: "b", Data: []byte("2")},
	})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if len(inserted) != 2 {
		t.Fatalf("InsertMany inserted %d, want 2", len(inserted))
	}

	got, err := s.GetMany(ctx, []chunkfs.ChunkKey{"b", "a"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if string(got[0]) != "2" || string(got[1]) != "1" {
		t.Fatalf("GetMany order mismatch: %q", got)
	}
}
