// Package frequency implements a frequency-based chunk merging (FBC)
// Scrub: chunks referenced by more than one file are "hot". A hot
// singleton is moved to the target store unchanged; a run of two or
// more consecutive hot chunks shared verbatim across files is merged
// into a single replacement chunk. Merged chunks are re-encoded with
// zstd, transparently, by using a CompressingStore as the target —
// Plan itself only ever deals in plain bytes, so ChunkStorage's read
// path never needs to know a codec was involved.
package frequency

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/Piletskii-Oleg/chunkfs"
)

// MinRunLength is the shortest consecutive hot-chunk run eligible for
// merging into a single replacement chunk. Shorter hot runs are moved
// individually instead.
const MinRunLength = 2

// Scrubber is a chunkfs.Scrub implementation driven by cross-file
// reference counts. Use it with a CompressingStore as the target so
// the merged chunks it produces are actually compressed at rest.
type Scrubber struct{}

// New returns a ready-to-use Scrubber.
func New() (*Scrubber, error) {
	return &Scrubber{}, nil
}

type run struct {
	keys  []chunkfs.ChunkKey
	files map[string]struct{}
}

// Plan implements chunkfs.Scrub.
func (s *Scrubber) Plan(ctx context.Context, base, target chunkfs.Database, files []chunkfs.FileMetadata) (chunkfs.MigrationPlan, chunkfs.ScrubMeasurements, error) {
	refCount := make(map[chunkfs.ChunkKey]int)
	for _, fm := range files {
		seen := make(map[chunkfs.ChunkKey]struct{}, len(fm.ChunkKeys))
		for _, k := range fm.ChunkKeys {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			refCount[k]++
		}
	}

	hot := make(map[chunkfs.ChunkKey]struct{})
	for k, n := range refCount {
		if n > 1 {
			hot[k] = struct{}{}
		}
	}

	runsBySignature := make(map[string]*run)
	var signatureOrder []string
	inRun := make(map[chunkfs.ChunkKey]struct{})

	for _, fm := range files {
		i := 0
		for i < len(fm.ChunkKeys) {
			if _, ok := hot[fm.ChunkKeys[i]]; !ok {
				i++
				continue
			}
			j := i
			for j < len(fm.ChunkKeys) {
				if _, ok := hot[fm.ChunkKeys[j]]; !ok {
					break
				}
				j++
			}

			if j-i >= MinRunLength {
				seq := fm.ChunkKeys[i:j]
				sig := signature(seq)
				r, exists := runsBySignature[sig]
				if !exists {
					r = &run{keys: append([]chunkfs.ChunkKey(nil), seq...), files: make(map[string]struct{})}
					runsBySignature[sig] = r
					signatureOrder = append(signatureOrder, sig)
				}
				r.files[fm.Name] = struct{}{}
				for _, k := range seq {
					inRun[k] = struct{}{}
				}
			}
			i = j
		}
	}

	var (
		instructions     []chunkfs.Instruction
		bytesExamined    int64
		bytesMoved       int64
		chunksEliminated int64
	)

	for _, sig := range signatureOrder {
		r := runsBySignature[sig]
		if len(r.files) < 2 {
			continue // not shared across files: its keys are moved individually
		}
		for _, k := range r.keys {
			inRun[k] = struct{}{}
		}
		dataParts, err := base.GetMany(ctx, r.keys)
		if err != nil {
			return chunkfs.MigrationPlan{}, chunkfs.ScrubMeasurements{}, fmt.Errorf("frequency: fetch run: %w", err)
		}

		var combined []byte
		for _, d := range dataParts {
			bytesExamined += int64(len(d))
			combined = append(combined, d...)
		}
		newKey := mergedKey(combined)

		files := make([]string, 0, len(r.files))
		for name := range r.files {
			files = append(files, name)
		}

		instructions = append(instructions, chunkfs.Instruction{
			Kind:      chunkfs.Replace,
			Files:     files,
			OldKeys:   r.keys,
			NewKeys:   []chunkfs.ChunkKey{newKey},
			NewChunks: [][]byte{combined},
		})
		instructions = append(instructions, chunkfs.Instruction{
			Kind: chunkfs.Cluster,
			Keys: append([]chunkfs.ChunkKey(nil), r.keys...),
		})

		bytesMoved += int64(len(combined))
		chunksEliminated += int64(len(r.keys) - 1)
	}

	for k := range hot {
		if _, merged := inRun[k]; merged {
			continue
		}
		inTarget, err := targetContains(ctx, target, k)
		if err != nil {
			return chunkfs.MigrationPlan{}, chunkfs.ScrubMeasurements{}, err
		}
		if inTarget {
			continue
		}
		instructions = append(instructions, chunkfs.Instruction{Kind: chunkfs.Move, Key: k})
	}

	measurements := chunkfs.ScrubMeasurements{
		BytesExamined:    bytesExamined,
		BytesMoved:       bytesMoved,
		ChunksEliminated: chunksEliminated,
	}
	return chunkfs.MigrationPlan{Instructions: instructions}, measurements, nil
}

func targetContains(ctx context.Context, target chunkfs.Database, key chunkfs.ChunkKey) (bool, error) {
	if target == nil {
		return false, nil
	}
	return target.Contains(ctx, key)
}

// signature derives a stable grouping key for a run of chunk keys, so
// identical runs found in different files merge into one Replace
// instruction instead of one per occurrence.
func signature(keys []chunkfs.ChunkKey) string {
	var buf bytes.Buffer
	for _, k := range keys {
		buf.WriteString(string(k))
		buf.WriteByte(0)
	}
	return buf.String()
}

// mergedKey derives the replacement ChunkKey for a merged run of
// chunks. It is deliberately distinct from the FileSystem's installed
// Hasher: the merged key only needs to be unique within the target
// store, not comparable against base-store keys for dedup purposes.
func mergedKey(data []byte) chunkfs.ChunkKey {
	sum := sha256.Sum256(data)
	return chunkfs.ChunkKey(append([]byte("merged:"), sum[:]...))
}
