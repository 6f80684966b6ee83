package fixed

import (
	"bytes"
	"testing"
)

func TestChunkDataExactMultiple(t *testing.T) {
	c := New(4)
	data := []byte("aaaabbbbcccc")

	chunks, err := c.ChunkData(data, nil)
	if err != nil {
		t.Fatalf("ChunkData: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("len(chunks) = %d, want 3", len(chunks))
	}

	final, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(final.Data) != 0 {
		t.Fatalf("Finish on exact multiple: got %d bytes, want 0", len(final.Data))
	}
}

func TestChunkDataWithRemainder(t *testing.T) {
	c := New(4)
	data := []byte("aaaabbbbc")

	chunks, err := c.ChunkData(data, nil)
	if err != nil {
		t.Fatalf("ChunkData: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("len(chunks) = %d, want 2", len(chunks))
	}

	final, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !bytes.Equal(final.Data, []byte("c")) {
		t.Fatalf("Finish tail = %q, want %q", final.Data, "c")
	}
}

func TestEstimateChunkCount(t *testing.T) {
	c := New(4096)
	if got := c.EstimateChunkCount(make([]byte, 10000)); got < 2 {
		t.Fatalf("EstimateChunkCount = %d, want at least 2", got)
	}
}
