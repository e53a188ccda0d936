// Package snapshot persists a store's already rate-compressed bitstream to
// an io.Writer and reconstructs a Store from it. It is additive,
// out-of-core-scope persistence: it wraps the already rate-compressed
// buffer for cold storage or transport, the same way the teacher's own
// blob serialization header wraps a compressed payload, and never changes
// the meaning of a single bit inside that buffer.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/koderoot/arraycache/codec"
	"github.com/koderoot/arraycache/envelope"
	"github.com/koderoot/arraycache/internal/errs"
	"github.com/koderoot/arraycache/internal/hash"
	"github.com/koderoot/arraycache/internal/pool"
	"github.com/koderoot/arraycache/shape"
	"github.com/koderoot/arraycache/store"
)

// magic identifies a snapshot stream.
const magic uint32 = 0x41435342 // "ACSB": ArrayCache Snapshot Bitstream

// headerLen is the fixed-size portion of a snapshot header, before the
// variable-length envelope-compressed body:
//
//	magic(4) version(1) numAxes(1) dims(4*4) rate(8) algorithm(1) checksum(8) bodyLen(8)
const headerLen = 4 + 1 + 1 + 4*4 + 8 + 1 + 8 + 8

const formatVersion = 1

// Write flushes-independent: the caller is responsible for flushing s's
// cache before calling Write, since snapshot only ever sees the store's
// current compressed_data(). It writes a header (magic, dims, rate,
// compression algorithm, xxhash64 checksum of the raw bitstream) followed
// by the bitstream, optionally wrapped by an envelope codec.
func Write(w io.Writer, s *store.Store, algo envelope.Algorithm) error {
	raw := s.CompressedData()
	checksum := hash.Buffer(raw)

	env, err := envelope.CreateCodec(algo)
	if err != nil {
		return err
	}

	compressed, err := env.Compress(raw)
	if err != nil {
		return fmt.Errorf("snapshot: envelope compression failed: %w", err)
	}

	body := pool.GetSnapshotBuffer()
	defer pool.PutSnapshotBuffer(body)
	body.MustWrite(compressed)

	header := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(header)
	header.ExtendOrGrow(headerLen)
	hb := header.Bytes()

	off := 0
	binary.LittleEndian.PutUint32(hb[off:], magic)
	off += 4
	hb[off] = formatVersion
	off++
	hb[off] = byte(s.NumAxes())
	off++

	dims := s.Dims()
	for axis := 0; axis < shape.MaxAxes; axis++ {
		binary.LittleEndian.PutUint32(hb[off:], uint32(dims[axis]))
		off += 4
	}

	binary.LittleEndian.PutUint64(hb[off:], uint64FromFloat(s.Rate()))
	off += 8
	hb[off] = byte(algo)
	off++
	binary.LittleEndian.PutUint64(hb[off:], checksum)
	off += 8
	binary.LittleEndian.PutUint64(hb[off:], uint64(body.Len()))
	off += 8

	if _, err := w.Write(hb); err != nil {
		return fmt.Errorf("snapshot: writing header: %w", err)
	}
	if _, err := body.WriteTo(w); err != nil {
		return fmt.Errorf("snapshot: writing body: %w", err)
	}

	return nil
}

// Read reconstructs a Store from a snapshot stream previously produced by
// Write, verifying the checksum before returning. c is the codec the new
// Store will bind; it must not yet be bound.
func Read(r io.Reader, c codec.BlockCodec) (*store.Store, error) {
	header := pool.GetScratchBuffer()
	defer pool.PutScratchBuffer(header)
	header.ExtendOrGrow(headerLen)
	hb := header.Bytes()

	if _, err := io.ReadFull(r, hb); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrTruncatedHeader, err)
	}

	off := 0
	gotMagic := binary.LittleEndian.Uint32(hb[off:])
	off += 4
	if gotMagic != magic {
		return nil, fmt.Errorf("snapshot: bad magic %x", gotMagic)
	}

	_ = hb[off] // version, currently unused beyond presence
	off++

	numAxes := int(hb[off])
	off++

	dims := make([]int, 0, shape.MaxAxes)
	for axis := 0; axis < shape.MaxAxes; axis++ {
		n := int(binary.LittleEndian.Uint32(hb[off:]))
		off += 4
		if axis < numAxes {
			dims = append(dims, n)
		}
	}

	r64 := floatFromUint64(binary.LittleEndian.Uint64(hb[off:]))
	off += 8

	algo := envelope.Algorithm(hb[off])
	off++

	wantChecksum := binary.LittleEndian.Uint64(hb[off:])
	off += 8

	bodyLen := int(binary.LittleEndian.Uint64(hb[off:]))

	body := pool.GetSnapshotBuffer()
	defer pool.PutSnapshotBuffer(body)
	body.ExtendOrGrow(bodyLen)

	if _, err := io.ReadFull(r, body.Bytes()); err != nil {
		return nil, fmt.Errorf("snapshot: reading body: %w", err)
	}

	env, err := envelope.CreateCodec(algo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrUnknownAlgorithm, err)
	}

	raw, err := env.Decompress(body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("snapshot: envelope decompression failed: %w", err)
	}

	if hash.Buffer(raw) != wantChecksum {
		return nil, errs.ErrChecksumMismatch
	}

	s, err := store.New(dims, r64, c)
	if err != nil {
		return nil, err
	}

	copy(s.CompressedData(), raw)

	return s, nil
}

func uint64FromFloat(f float64) uint64 {
	return math.Float64bits(f)
}

func floatFromUint64(u uint64) float64 {
	return math.Float64frombits(u)
}
