package chunkfs_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"testing"

	"github.com/Piletskii-Oleg/chunkfs"
	"github.com/Piletskii-Oleg/chunkfs/chunkers/cdc"
	"github.com/Piletskii-Oleg/chunkfs/chunkers/fixed"
	"github.com/Piletskii-Oleg/chunkfs/hashers/contenthash"
	"github.com/Piletskii-Oleg/chunkfs/stores/memory"
)

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return b
}

// writeWholeFile creates name, writes data in a single call, and closes
// the handle, returning the measurements from close.
func writeWholeFile(t *testing.T, fs *chunkfs.FileSystem, name string, data []byte) chunkfs.Measurements {
	t.Helper()
	h, err := fs.CreateFile(name, cdc.New(cdc.DefaultPol), true)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := fs.WriteToFile(h, data); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}
	m, err := fs.CloseFile(h)
	if err != nil {
		t.Fatalf("CloseFile: %v", err)
	}
	return m
}

func readWholeFile(t *testing.T, fs *chunkfs.FileSystem, name string) []byte {
	t.Helper()
	h, err := fs.OpenFile(name, nil)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	data, err := fs.ReadFromFile(h)
	if err != nil {
		t.Fatalf("ReadFromFile: %v", err)
	}
	if _, err := fs.CloseFile(h); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}
	return data
}

// TestRoundTrip covers scenario 1: write then read returns identical
// bytes for data much larger than one chunk.
func TestRoundTrip(t *testing.T) {
	fs := chunkfs.NewCDCOnly(memory.New(), contenthash.New())
	data := randomBytes(t, 5*1024*1024)

	writeWholeFile(t, fs, "a", data)
	got := readWholeFile(t, fs, "a")

	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
	}
}

// TestDeterministicChunking covers scenario 2: the same bytes fed
// through a fresh chunker of the same kind produce the same chunk keys.
func TestDeterministicChunking(t *testing.T) {
	store := memory.New()
	hasher := contenthash.New()
	data := randomBytes(t, 2*1024*1024)

	fs1 := chunkfs.NewCDCOnly(store, hasher)
	h1, err := fs1.CreateFile("x", cdc.New(cdc.DefaultPol), true)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := fs1.WriteToFile(h1, data); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}
	if _, err := fs1.CloseFile(h1); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}
	storedAfterFirst := store.Len()

	fs2 := chunkfs.NewCDCOnly(store, hasher)
	h2, err := fs2.CreateFile("y", cdc.New(cdc.DefaultPol), true)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := fs2.WriteToFile(h2, data); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}
	if _, err := fs2.CloseFile(h2); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}

	if got := store.Len(); got != storedAfterFirst {
		t.Fatalf("second write of identical bytes stored %d new chunks, want 0", got-storedAfterFirst)
	}
	if fs1.DedupRatio() == 0 || fs2.DedupRatio() == 0 {
		t.Fatalf("expected nonzero dedup ratio after writes")
	}
}

// TestDedupRatio covers scenario 3: writing the same content to two
// different files should not double the unique bytes stored.
func TestDedupRatio(t *testing.T) {
	fs := chunkfs.NewCDCOnly(memory.New(), contenthash.New())
	data := randomBytes(t, 1024*1024)

	writeWholeFile(t, fs, "a", data)
	writeWholeFile(t, fs, "b", data)

	ratio := fs.DedupRatio()
	if ratio < 1.9 {
		t.Fatalf("expected dedup ratio near 2.0 for a fully duplicated file, got %f", ratio)
	}
}

// TestModeSafety covers scenario 5 / testable property 5: read ops on a
// write handle and write ops on a read handle both fail.
func TestModeSafety(t *testing.T) {
	fs := chunkfs.NewCDCOnly(memory.New(), contenthash.New())
	writeWholeFile(t, fs, "a", []byte("hello world"))

	wh, err := fs.CreateFile("b", cdc.New(cdc.DefaultPol), true)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := fs.ReadFromFile(wh); !errors.Is(err, chunkfs.ErrInvalidHandle) {
		t.Fatalf("ReadFromFile on write handle: got %v, want ErrInvalidHandle", err)
	}
	if _, err := fs.CloseFile(wh); err != nil {
		t.Fatalf("CloseFile: %v", err)
	}

	rh, err := fs.OpenFile("a", nil)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := fs.WriteToFile(rh, []byte("x")); !errors.Is(err, chunkfs.ErrInvalidHandle) {
		t.Fatalf("WriteToFile on read handle: got %v, want ErrInvalidHandle", err)
	}
}

// TestCreateExclusive covers invariant: CreateFile with createNew=true
// on an existing name fails with ErrAlreadyExists.
func TestCreateExclusive(t *testing.T) {
	fs := chunkfs.NewCDCOnly(memory.New(), contenthash.New())
	writeWholeFile(t, fs, "a", []byte("data"))

	if _, err := fs.CreateFile("a", cdc.New(cdc.DefaultPol), true); !errors.Is(err, chunkfs.ErrAlreadyExists) {
		t.Fatalf("CreateFile createNew=true on existing name: got %v, want ErrAlreadyExists", err)
	}
}

// TestFixedChunkerCount covers scenario 6: a 4 KiB fixed chunker plus an
// identity-on-first-32-bytes hasher stores exactly ceil(N/4096) chunks
// and emits one ChunkKey per chunk, in order.
func TestFixedChunkerCount(t *testing.T) {
	const chunkSize = 4096
	const n = chunkSize*10 + 123 // not an exact multiple

	fs := chunkfs.NewCDCOnly(memory.New(), identityHasher{})
	data := randomBytes(t, n)

	h, err := fs.CreateFile("a", fixed.New(chunkSize), true)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := fs.WriteToFile(h, data); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}
	m, err := fs.CloseFile(h)
	if err != nil {
		t.Fatalf("CloseFile: %v", err)
	}

	wantChunks := int64((n + chunkSize - 1) / chunkSize)
	if m.ChunksProduced != wantChunks {
		t.Fatalf("ChunksProduced = %d, want %d", m.ChunksProduced, wantChunks)
	}
}

// TestFixedChunkerCountExactMultiple covers the other half of scenario 6: a
// write whose length is an exact multiple of the chunk size must still
// produce exactly N/chunkSize chunks, not N/chunkSize+1. Finish flushes an
// empty tail in this case (chunkers/fixed/fixed_test.go's
// TestChunkDataExactMultiple), and CloseFile must not count, key, or store it.
func TestFixedChunkerCountExactMultiple(t *testing.T) {
	const chunkSize = 4096
	const n = chunkSize * 10

	fs := chunkfs.NewCDCOnly(memory.New(), identityHasher{})
	data := randomBytes(t, n)

	h, err := fs.CreateFile("a", fixed.New(chunkSize), true)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if _, err := fs.WriteToFile(h, data); err != nil {
		t.Fatalf("WriteToFile: %v", err)
	}
	m, err := fs.CloseFile(h)
	if err != nil {
		t.Fatalf("CloseFile: %v", err)
	}

	const wantChunks = n / chunkSize
	if m.ChunksProduced != wantChunks {
		t.Fatalf("ChunksProduced = %d, want %d", m.ChunksProduced, wantChunks)
	}
}

// TestScrubUnavailable covers: Scrub on a CDC-only FileSystem reports
// ErrScrubUnavailable rather than silently no-op'ing.
func TestScrubUnavailable(t *testing.T) {
	fs := chunkfs.NewCDCOnly(memory.New(), contenthash.New())
	if _, err := fs.Scrub(context.Background()); !errors.Is(err, chunkfs.ErrScrubUnavailable) {
		t.Fatalf("Scrub on CDC-only FileSystem: got %v, want ErrScrubUnavailable", err)
	}
}

// TestRemoveFile covers the remove lifecycle: a removed file can no
// longer be opened.
func TestRemoveFile(t *testing.T) {
	fs := chunkfs.NewCDCOnly(memory.New(), contenthash.New())
	writeWholeFile(t, fs, "a", []byte("gone soon"))

	if err := fs.RemoveFile("a"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	if _, err := fs.OpenFile("a", nil); !errors.Is(err, chunkfs.ErrNotFound) {
		t.Fatalf("OpenFile after remove: got %v, want ErrNotFound", err)
	}
}

// identityHasher is a test-only Hasher whose key is the first 32 bytes
// of the chunk (zero-padded if shorter), matching spec.md §8 scenario 6.
type identityHasher struct{}

func (identityHasher) Hash(data []byte) chunkfs.ChunkKey {
	key := make([]byte, 32)
	copy(key, data)
	return chunkfs.ChunkKey(key)
}
