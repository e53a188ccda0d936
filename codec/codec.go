// Package codec defines the block codec capability the store consumes: a
// stateless-per-block compressor/decompressor bound to a contiguous
// bitstream buffer and a target rate, and one conforming implementation,
// Quantized, a deterministic block-floating-point quantizer.
package codec

import "github.com/koderoot/arraycache/shape"

// BlockCodec is the capability the block store consumes to turn a block's
// scalars into a fixed-width bitstream slot and back. Implementations are
// stateless across blocks: all per-block state lives in the slot itself.
type BlockCodec interface {
	// Bind attaches the codec to buf, the store's full bitstream buffer, at
	// the given target rate (bits per scalar). Bind may be called again to
	// rebind after the store reallocates buf.
	Bind(buf []byte, numAxes int, rate float64) error

	// SetRate changes the target rate and returns the actual achieved rate
	// after alignment rounding. The caller must rebind (or the codec must
	// internally recompute its per-block bit budget) before further
	// Encode/Decode calls are valid.
	SetRate(r float64) (float64, error)

	// Rate returns the achieved rate computed by the last Bind or SetRate.
	Rate() float64

	// BitsPerBlock returns the fixed bit width of one block's slot under the
	// current binding.
	BitsPerBlock() int

	// EncodeBlock compresses src (length shape.Volume(numAxes)) into the
	// slot for blockIndex. Only lanes valid under shp are read.
	EncodeBlock(blockIndex int, src []float64, shp shape.BlockShape) error

	// DecodeBlock decompresses the slot for blockIndex into dst (length
	// shape.Volume(numAxes)). Invalid lanes under shp are left untouched.
	DecodeBlock(blockIndex int, dst []float64, shp shape.BlockShape) error
}
