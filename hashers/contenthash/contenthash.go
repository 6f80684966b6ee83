// Package contenthash implements chunkfs.Hasher over crypto/sha256.
package contenthash

import (
	"crypto/sha256"

	"github.com/Piletskii-Oleg/chunkfs"
)

// Hasher produces a 32-byte SHA-256 digest as a ChunkKey.
type Hasher struct{}

// New returns a ready-to-use Hasher. It holds no state, so a single
// instance may be shared across every FileSystem in a process.
func New() Hasher { return Hasher{} }

// Hash implements chunkfs.Hasher.
func (Hasher) Hash(data []byte) chunkfs.ChunkKey {
	sum := sha256.Sum256(data)
	return chunkfs.ChunkKey(sum[:])
}
