// Package store owns the compressed bitstream buffer of a block-addressable
// array: translating between logical block coordinates and block indices,
// and providing block-granularity encode/decode against a bound codec.
package store

import (
	"fmt"

	"github.com/koderoot/arraycache/codec"
	"github.com/koderoot/arraycache/internal/errs"
	"github.com/koderoot/arraycache/internal/pool"
	"github.com/koderoot/arraycache/rate"
	"github.com/koderoot/arraycache/shape"
	"github.com/koderoot/arraycache/tile"
)

// Store owns the compressed bitstream buffer for an N-dimensional array of
// scalars (1-4 axes), and a codec bound to that buffer.
type Store struct {
	numAxes     int
	dims        shape.Coord
	blockDims   shape.Coord
	blocksTotal int
	volume      int
	rate        float64
	buf         []byte
	codec       codec.BlockCodec
}

// New constructs a Store for the given per-axis extents and target rate,
// using c as the codec. c is bound to the freshly allocated buffer before
// New returns.
func New(dims []int, r float64, c codec.BlockCodec) (*Store, error) {
	numAxes := len(dims)
	if numAxes < 1 || numAxes > shape.MaxAxes {
		return nil, fmt.Errorf("%w: %d", errs.ErrUnsupportedDims, numAxes)
	}

	s := &Store{numAxes: numAxes, codec: c}
	if err := s.setDims(dims); err != nil {
		return nil, err
	}

	if err := s.allocateAndBind(r, true); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) setDims(dims []int) error {
	var d, bd shape.Coord
	blocksTotal := 1
	for axis, n := range dims {
		if n <= 0 {
			return fmt.Errorf("%w: axis %d extent %d", errs.ErrUnsupportedDims, axis, n)
		}
		d[axis] = n
		nb := (n + shape.LaneWidth - 1) / shape.LaneWidth
		bd[axis] = nb
		blocksTotal *= nb
	}

	s.dims = d
	s.blockDims = bd
	s.blocksTotal = blocksTotal
	s.volume = shape.Volume(s.numAxes)

	return nil
}

func (s *Store) allocateAndBind(r float64, clear bool) error {
	bits, _, actual, err := rate.BitsPerBlock(s.volume, r)
	if err != nil {
		return err
	}

	size := rate.SlotBytes(bits, s.blocksTotal)
	if clear || s.buf == nil {
		s.buf = make([]byte, size)
	} else {
		resized := make([]byte, size)
		copy(resized, s.buf)
		s.buf = resized
	}

	if err := s.codec.Bind(s.buf, s.numAxes, r); err != nil {
		return err
	}
	s.rate = actual

	return nil
}

// NumAxes returns the number of dimensions.
func (s *Store) NumAxes() int {
	return s.numAxes
}

// Dims returns the per-axis scalar extents.
func (s *Store) Dims() shape.Coord {
	return s.dims
}

// BlocksTotal returns the total number of blocks.
func (s *Store) BlocksTotal() int {
	return s.blocksTotal
}

// Rate returns the current achieved rate.
func (s *Store) Rate() float64 {
	return s.rate
}

// Volume returns the number of scalars per block.
func (s *Store) Volume() int {
	return s.volume
}

// BlockIndex maps a coordinate tuple to its row-major block-grid index.
func (s *Store) BlockIndex(coord shape.Coord) int {
	idx := 0
	mult := 1
	for axis := 0; axis < s.numAxes; axis++ {
		bc := coord[axis] / shape.LaneWidth
		idx += bc * mult
		mult *= s.blockDims[axis]
	}

	return idx
}

// blockCoordOf decomposes a block index into per-axis block-grid
// coordinates (row-major, axis 0 fastest).
func (s *Store) blockCoordOf(b int) shape.Coord {
	var c shape.Coord
	for axis := 0; axis < s.numAxes; axis++ {
		c[axis] = b % s.blockDims[axis]
		b /= s.blockDims[axis]
	}

	return c
}

// BlockGridDims returns the per-axis count of blocks spanning the array.
func (s *Store) BlockGridDims() shape.Coord {
	return s.blockDims
}

// BlockShapeAt returns the block shape (valid-lane deficit) for block b.
func (s *Store) BlockShapeAt(b int) shape.BlockShape {
	return shape.Of(s.numAxes, s.dims, s.blockCoordOf(b))
}

// Encode compresses a strided external tile into slot b.
func (s *Store) Encode(b int, src []float64, offset int, strides shape.Coord) error {
	tmp, cleanup := pool.GetFloat64Slice(s.volume)
	defer cleanup()

	shp := s.BlockShapeAt(b)
	tile.Gather(s.numAxes, src, offset, strides, tmp, shp)

	return s.codec.EncodeBlock(b, tmp, shp)
}

// Decode decompresses slot b into a strided external tile.
func (s *Store) Decode(b int, dst []float64, offset int, strides shape.Coord) error {
	tmp, cleanup := pool.GetFloat64Slice(s.volume)
	defer cleanup()

	shp := s.BlockShapeAt(b)
	if err := s.codec.DecodeBlock(b, tmp, shp); err != nil {
		return err
	}

	tile.Scatter(s.numAxes, tmp, dst, offset, strides, shp)

	return nil
}

// EncodeContiguous compresses a contiguous cache-line payload (already in
// block-local row-major order) into slot b.
func (s *Store) EncodeContiguous(b int, src []float64) error {
	return s.codec.EncodeBlock(b, src, s.BlockShapeAt(b))
}

// DecodeContiguous decompresses slot b into a contiguous cache-line payload.
func (s *Store) DecodeContiguous(b int, dst []float64) error {
	return s.codec.DecodeBlock(b, dst, s.BlockShapeAt(b))
}

// Resize reallocates the buffer for new per-axis extents. If clear, the new
// buffer is zeroed (every block decodes to all zeros). Otherwise the policy
// is deterministic but unspecified by the caller's intent: bytes from the
// previous buffer are preserved up to the overlapping range and the
// remainder is zero-filled, so behavior is reproducible without claiming to
// preserve block semantics across a shape change.
func (s *Store) Resize(dims []int, clear bool) error {
	if len(dims) != s.numAxes {
		return fmt.Errorf("%w: resize changing axis count from %d to %d is unsupported", errs.ErrUnsupportedDims, s.numAxes, len(dims))
	}

	if err := s.setDims(dims); err != nil {
		return err
	}

	return s.allocateAndBind(s.rate, clear)
}

// SetRate reallocates the buffer for a new per-block slot size and returns
// the actual achieved rate. All prior cached contents become meaningless;
// the caller (the cache) must drop them before calling this.
func (s *Store) SetRate(r float64) (float64, error) {
	if err := s.allocateAndBind(r, true); err != nil {
		return 0, err
	}

	return s.rate, nil
}

// CompressedData exposes the raw bitstream buffer.
func (s *Store) CompressedData() []byte {
	return s.buf
}

// CompressedSize returns the byte length of the bitstream buffer.
func (s *Store) CompressedSize() int {
	return len(s.buf)
}

// DeepCopy duplicates dims, rate, and buffer bytes verbatim into a Store
// using newCodec (which must not yet be bound).
func (s *Store) DeepCopy(newCodec codec.BlockCodec) (*Store, error) {
	cp := &Store{
		numAxes:     s.numAxes,
		dims:        s.dims,
		blockDims:   s.blockDims,
		blocksTotal: s.blocksTotal,
		volume:      s.volume,
		rate:        s.rate,
		buf:         make([]byte, len(s.buf)),
		codec:       newCodec,
	}
	copy(cp.buf, s.buf)

	if err := newCodec.Bind(cp.buf, cp.numAxes, cp.rate); err != nil {
		return nil, err
	}

	return cp, nil
}

