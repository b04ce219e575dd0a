// Package merkle computes binary SHA-256 Merkle roots.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
)

// EmptyRoot is the root of a tree with no leaves: the digest of the empty
// byte sequence.
var EmptyRoot = hex.EncodeToString(digest(nil))

// Root returns the hex Merkle root of leaves. Each level pairs adjacent
// digests and hashes their concatenation; an odd last node is paired with
// itself.
func Root(leaves [][]byte) string {
	if len(leaves) == 0 {
		return EmptyRoot
	}

	level := make([][]byte, len(leaves))
	for i, l := range leaves {
		level[i] = digest(l)
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			pair := make([]byte, 0, 2*sha256.Size)
			pair = append(pair, level[i]...)
			pair = append(pair, level[i+1]...)
			next = append(next, digest(pair))
		}
		level = next
	}
	return hex.EncodeToString(level[0])
}

func digest(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}
