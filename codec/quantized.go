package codec

import (
	"fmt"
	"math"

	"github.com/koderoot/arraycache/endian"
	"github.com/koderoot/arraycache/internal/bitpack"
	"github.com/koderoot/arraycache/internal/errs"
	"github.com/koderoot/arraycache/rate"
	"github.com/koderoot/arraycache/shape"
)

// headerBytes is the fixed per-block header: an 8-byte min, an 8-byte max,
// and a 1-byte mantissa width, laid out with rate.HeaderBits.
const headerBytes = rate.HeaderBits / 8

// Quantized is a deterministic block-floating-point codec: each block is
// reduced to its scalar min/max and every valid lane is quantized to a
// fixed-width mantissa on that [min, max] grid. It is the one conforming
// implementation of BlockCodec in this module, playing the role the spec
// calls an opaque, supplied codec capability.
//
// The quantization grid is stable under re-encoding: mantissa bucket 0
// decodes to exactly min and bucket (2^mbits - 1) decodes to exactly max,
// so encoding a block that was itself just decoded reproduces the same
// bitstream bit-for-bit (the round-trip idempotency the spec requires).
type Quantized struct {
	engine  endian.EndianEngine
	buf     []byte
	numAxes int
	volume  int
	rate    float64
	mbits   int
	slotBits int
	slotBytes int
}

var _ BlockCodec = (*Quantized)(nil)

// NewQuantized creates a Quantized codec using the little-endian engine.
func NewQuantized() *Quantized {
	return &Quantized{engine: endian.GetLittleEndianEngine()}
}

// Bind attaches the codec to buf at the given rate.
func (q *Quantized) Bind(buf []byte, numAxes int, r float64) error {
	if numAxes < 1 || numAxes > shape.MaxAxes {
		return fmt.Errorf("%w: %d", errs.ErrUnsupportedDims, numAxes)
	}

	q.numAxes = numAxes
	q.volume = shape.Volume(numAxes)
	q.buf = buf

	_, err := q.SetRate(r)

	return err
}

// SetRate recomputes the codec's per-block bit budget for the new rate.
func (q *Quantized) SetRate(r float64) (float64, error) {
	if q.volume == 0 {
		return 0, fmt.Errorf("%w: codec not bound to a dimensionality", errs.ErrCodecNotBound)
	}

	bits, mbits, actual, err := rate.BitsPerBlock(q.volume, r)
	if err != nil {
		return 0, err
	}

	q.slotBits = bits
	q.slotBytes = bits / 8
	q.mbits = mbits
	q.rate = actual

	return actual, nil
}

// Rate returns the last achieved rate.
func (q *Quantized) Rate() float64 {
	return q.rate
}

// BitsPerBlock returns the current per-block slot width in bits.
func (q *Quantized) BitsPerBlock() int {
	return q.slotBits
}

func (q *Quantized) slot(blockIndex int) ([]byte, error) {
	if q.buf == nil {
		return nil, fmt.Errorf("%w", errs.ErrCodecNotBound)
	}

	start := blockIndex * q.slotBytes
	end := start + q.slotBytes
	if end > len(q.buf) {
		return nil, fmt.Errorf("%w: block %d slot [%d:%d) exceeds buffer of %d bytes", errs.ErrBufferTooSmall, blockIndex, start, end, len(q.buf))
	}

	return q.buf[start:end], nil
}

// EncodeBlock quantizes src into the slot for blockIndex.
func (q *Quantized) EncodeBlock(blockIndex int, src []float64, shp shape.BlockShape) error {
	slot, err := q.slot(blockIndex)
	if err != nil {
		return err
	}

	min, max := blockMinMax(q.numAxes, src, shp, q.volume)

	q.engine.PutUint64(slot[0:8], math.Float64bits(min))
	q.engine.PutUint64(slot[8:16], math.Float64bits(max))
	slot[16] = byte(q.mbits)

	w := bitpack.NewWriter(slot[headerBytes:])
	rng := max - min
	maxMantissa := uint64(0)
	if q.mbits > 0 {
		maxMantissa = (uint64(1) << uint(q.mbits)) - 1
	}

	for li := 0; li < q.volume; li++ {
		var m uint64
		if q.mbits > 0 && rng > 0 && shape.IsValidLocal(q.numAxes, shp, li) {
			frac := (src[li] - min) / rng
			m = uint64(math.Round(frac * float64(maxMantissa)))
			if m > maxMantissa {
				m = maxMantissa
			}
		}
		w.WriteBits(m, q.mbits)
	}

	return nil
}

// DecodeBlock reconstructs dst from the slot for blockIndex.
func (q *Quantized) DecodeBlock(blockIndex int, dst []float64, shp shape.BlockShape) error {
	slot, err := q.slot(blockIndex)
	if err != nil {
		return err
	}

	min := math.Float64frombits(q.engine.Uint64(slot[0:8]))
	max := math.Float64frombits(q.engine.Uint64(slot[8:16]))
	mbits := int(slot[16])
	rng := max - min

	maxMantissa := uint64(0)
	if mbits > 0 {
		maxMantissa = (uint64(1) << uint(mbits)) - 1
	}

	r := bitpack.NewReader(slot[headerBytes:])
	for li := 0; li < q.volume; li++ {
		m := r.ReadBits(mbits)
		if !shape.IsValidLocal(q.numAxes, shp, li) {
			continue
		}

		if mbits == 0 || maxMantissa == 0 || rng == 0 {
			dst[li] = min
			continue
		}

		dst[li] = min + (float64(m)/float64(maxMantissa))*rng
	}

	return nil
}

func blockMinMax(numAxes int, src []float64, shp shape.BlockShape, volume int) (min, max float64) {
	first := true
	shape.ForEachValid(numAxes, shp, volume, func(li int) {
		v := src[li]
		if first {
			min, max = v, v
			first = false
			return
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	})

	if first {
		// No valid lanes at all (shouldn't normally happen): degenerate block.
		return 0, 0
	}

	return min, max
}
