// Package hash provides the xxHash64-based hashing used to select
// cache-line sets for non-power-of-two way counts and to checksum
// persisted bitstreams.
package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Block hashes a block index for associative cache-line set selection. The
// index is encoded as a fixed 8-byte little-endian key so the hash is stable
// across platforms.
func Block(blockIndex int) uint64 {
	var key [8]byte
	binary.LittleEndian.PutUint64(key[:], uint64(blockIndex))

	return xxhash.Sum64(key[:])
}

// Buffer computes the xxHash64 checksum of a raw byte buffer, used by the
// snapshot package to detect corruption in a persisted bitstream.
func Buffer(data []byte) uint64 {
	return xxhash.Sum64(data)
}
