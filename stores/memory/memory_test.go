package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/Piletskii-Oleg/chunkfs"
)

func TestInsertAndGet(t *testing.T) {
	s := New()
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
	s := New()
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, chunkfs.ErrNotFound) {
		t.Fatalf("Get missing key: got %v, want ErrNotFound", err)
	}
}

func TestInsertManyReportsOnlyNew(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Insert(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	inserted, err := s.InsertMany(ctx, []chunkfs.StoredChunk{
		{Key: "a", Data: []byte("1")},
		{Key: "b", Data: []byte("2")},
	})
	if err != nil {
		t.Fatalf("InsertMany: %v", err)
	}
	if len(inserted) != 1 || inserted[0] != "b" {
		t.Fatalf("InsertMany reported %v, want [b]", inserted)
	}
}

func TestContains(t *testing.T) {
	s := New()
	ctx := context.Background()

	if ok, _ := s.Contains(ctx, "a"); ok {
		t.Fatalf("Contains on empty store: got true")
	}
	if err := s.Insert(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if ok, _ := s.Contains(ctx, "a"); !ok {
		t.Fatalf("Contains after insert: got false")
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Insert(ctx, "a", []byte("first")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := s.Insert(ctx, "a", []byte("second")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "first" {
		t.Fatalf("Insert overwrote existing key: got %q, want %q", got, "first")
	}
}
