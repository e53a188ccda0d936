// Package rate computes per-block bit budgets from a user-chosen bits-per-
// scalar target, rounding up to satisfy the codec's header overhead and
// byte-alignment requirements.
package rate

import (
	"fmt"

	"github.com/koderoot/arraycache/internal/errs"
)

// HeaderBits is the fixed per-block header overhead the Quantized codec
// spends on the block minimum, maximum, and mantissa width (see
// codec.Quantized): two float64 bounds (64 bits each) plus one byte for the
// mantissa width.
const HeaderBits = 64 + 64 + 8

// MaxMantissaBits is the widest per-scalar mantissa the Quantized codec
// supports; beyond this a float64 mantissa carries no more information.
const MaxMantissaBits = 52

// BitsPerBlock computes the whole-byte-aligned bit budget for one block
// given the block volume (shape.Volume(numAxes)) and a target rate in bits
// per scalar. The codec quantizes every scalar in a block to the same
// mantissa width mbits, so the achievable rate is quantized to whole bits:
// mbits = ceil(r), clamped to [0, MaxMantissaBits]. The returned actual
// rate is >= r for 0 <= r <= MaxMantissaBits; a larger r is capped, so the
// actual rate is then MaxMantissaBits, below r.
//
// Requesting mbits == 0 is valid (every scalar in the block decodes to
// exactly the block minimum) and only errors if r is negative.
func BitsPerBlock(blockVolume int, r float64) (bits int, mbits int, actual float64, err error) {
	if blockVolume <= 0 {
		return 0, 0, 0, fmt.Errorf("rate: invalid block volume %d", blockVolume)
	}
	if r < 0 {
		return 0, 0, 0, fmt.Errorf("%w: negative rate %.4f", errs.ErrRateTooLow, r)
	}

	mbits = int(r)
	if float64(mbits) < r {
		mbits++
	}
	if mbits > MaxMantissaBits {
		mbits = MaxMantissaBits
	}

	total := HeaderBits + mbits*blockVolume
	if total%8 != 0 {
		total += 8 - (total % 8)
	}

	return total, mbits, float64(mbits), nil
}

// SlotBytes returns the whole-word-padded byte size of the bitstream buffer
// for blocksTotal blocks of bitsPerBlock bits each.
func SlotBytes(bitsPerBlock, blocksTotal int) int {
	totalBits := bitsPerBlock * blocksTotal
	totalBytes := (totalBits + 7) / 8

	const wordBytes = 8
	if totalBytes%wordBytes != 0 {
		totalBytes += wordBytes - (totalBytes % wordBytes)
	}

	return totalBytes
}
