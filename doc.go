// Package chunkfs is an in-memory file system used as a laboratory bench
// for comparing data deduplication strategies.
//
// Bytes written through a file handle are split into variable-sized chunks
// by a pluggable Chunker, content-addressed by a pluggable Hasher, and
// deduplicated against a pluggable Database. An optional Scrub pass
// migrates chunks from the base store into a target store, re-encoding
// them with a similarity- or frequency-based optimization layer.
//
// chunkfs is not a general-purpose file system: there is no directory
// hierarchy, no permission model, and nothing survives process restart.
// It exists to make chunking/hashing/storage strategies swappable and
// measurable.
package chunkfs
