package frequency_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/Piletskii-Oleg/chunkfs"
	"github.com/Piletskii-Oleg/chunkfs/scrub/frequency"
	"github.com/Piletskii-Oleg/chunkfs/stores/memory"
)

func TestCompressingStoreRoundTrip(t *testing.T) {
	cs, err := frequency.NewCompressingStore(memory.New())
	if err != nil {
		t.Fatalf("NewCompressingStore: %v", err)
	}
	ctx := context.Background()

	data := bytes.Repeat([]byte("redundant-payload-"), 64)
	if err := cs.Insert(ctx, "a", data); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	got, err := cs.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip through CompressingStore corrupted data")
	}
}

func TestCompressingStoreGetMany(t *testing.T) {
	cs, err := frequency.NewCompressingStore(memory.New())
	if err != nil {
		t.Fatalf("NewCompressingStore: %v", err)
	}
	ctx := context.Background()

	if _, err := cs.InsertMany(ctx, []chunkfs.StoredChunk{
		{Key: "a", Data: []byte("one")},
		{Key: "b", Data: []byte("two")},
	}); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	out, err := cs.GetMany(ctx, []chunkfs.ChunkKey{"b", "a"})
	if err != nil {
		t.Fatalf("GetMany: %v", err)
	}
	if string(out[0]) != "two" || string(out[1]) != "one" {
		t.Fatalf("GetMany = %q, want [two one]", out)
	}
}
