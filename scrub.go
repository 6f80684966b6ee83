package chunkfs

import "context"

// InstructionKind discriminates the three kinds of MigrationPlan step.
type InstructionKind int

const (
	// Move relocates a chunk from base to target store unchanged.
	Move InstructionKind = iota
	// Replace swaps a contiguous sub-sequence of keys in one or more
	// files for a new sequence, inserting the new chunks into the target
	// store.
	Replace
	// Cluster is informational only: a set of keys the Scrub
	// implementation considers one cluster, for metrics purposes. It has
	// no semantic effect on stores or FileMetadata.
	Cluster
)

// Instruction is one step of a MigrationPlan. Which fields are populated
// depends on Kind:
//
//   - Move:    Key.
//   - Replace: Files, OldKeys (the contiguous run being replaced in each
//     of Files), NewKeys and NewChunks (parallel, the replacement run and
//     its bytes).
//   - Cluster: Keys.
type Instruction struct {
	Kind InstructionKind

	Key ChunkKey // Move

	Files     []string // Replace
	OldKeys   []ChunkKey
	NewKeys   []ChunkKey
	NewChunks [][]byte

	Keys []ChunkKey // Cluster
}

// MigrationPlan is the output of a Scrub pass: a pure data structure
// describing how to re-home chunks from the base store into the target
// store. ChunkStorage validates a plan before mutating any store.
type MigrationPlan struct {
	Instructions []Instruction
}

// Scrub transforms a portion of the base store into the target store to
// reduce storage footprint (similarity clustering, frequency merging,
// delta encoding). Implementations must not mutate base or target
// directly — they return a MigrationPlan and let ChunkStorage apply it,
// so the apply phase can validate the plan before touching any store.
type Scrub interface {
	// Plan inspects base (and the existing target) together with every
	// file's chunk-key list and returns a migration plan plus the
	// implementation's own measurements (running time, bytes examined,
	// bytes moved, chunks eliminated — whatever it can observe during
	// planning that ChunkStorage cannot reconstruct from the plan alone).
	Plan(ctx context.Context, base, target Database, files []FileMetadata) (MigrationPlan, ScrubMeasurements, error)
}

// validatePlan checks a plan for dangling key references without
// touching any store: a Move key must be in base, a Replace's old run
// must occur contiguously in every file it names, and a Cluster key must
// be in base or target. No instruction kind removes a chunk from base,
// so the plan is not checked for destroyed keys.
func validatePlan(ctx context.Context, base, target Database, files []FileMetadata, plan MigrationPlan) error {
	fileByName := make(map[string]FileMetadata, len(files))
	for _, fm := range files {
		fileByName[fm.Name] = fm
	}

	for _, instr := range plan.Instructions {
		switch instr.Kind {
		case Move:
			ok, err := base.Contains(ctx, instr.Key)
			if err != nil {
				return wrapBackend("scrub validate contains", err)
			}
			if !ok {
				return ErrScrubInvalid
			}

		case Replace:
			if len(instr.NewKeys) != len(instr.NewChunks) {
				return ErrScrubInvalid
			}
			if len(instr.OldKeys) == 0 || len(instr.Files) == 0 {
				return ErrScrubInvalid
			}
			for _, name := range instr.Files {
				fm, exists := fileByName[name]
				if !exists {
					return ErrScrubInvalid
				}
				if !containsContiguous(fm.ChunkKeys, instr.OldKeys) {
					return ErrScrubInvalid
				}
			}

		case Cluster:
			for _, k := range instr.Keys {
				inBase, err := base.Contains(ctx, k)
				if err != nil {
					return wrapBackend("scrub validate contains", err)
				}
				inTarget := false
				if target != nil {
					inTarget, err = target.Contains(ctx, k)
					if err != nil {
						return wrapBackend("scrub validate contains", err)
					}
				}
				if !inBase && !inTarget {
					return ErrScrubInvalid
				}
			}

		default:
			return ErrScrubInvalid
		}
	}

	return nil
}

// containsContiguous reports whether sub appears as a contiguous
// run somewhere inside seq.
func containsContiguous(seq, sub []ChunkKey) bool {
	if len(sub) == 0 || len(sub) > len(seq) {
		return false
	}
	for start := 0; start+len(sub) <= len(seq); start++ {
		match := true
		for i, k := range sub {
			if seq[start+i] != k {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// replaceContiguous returns seq with the first occurrence of sub replaced
// by repl, or seq unchanged (by identity) if sub does not occur.
func replaceContiguous(seq, sub, repl []ChunkKey) []ChunkKey {
	for start := 0; start+len(sub) <= len(seq); start++ {
		match := true
		for i, k := range sub {
			if seq[start+i] != k {
				match = false
				break
			}
		}
		if !match {
			continue
		}

		out := make([]ChunkKey, 0, len(seq)-len(sub)+len(repl))
		out = append(out, seq[:start]...)
		out = append(out, repl...)
		out = append(out, seq[start+len(sub):]...)
		return out
	}
	return seq
}
