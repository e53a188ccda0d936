// Package errs holds the sentinel errors shared by the store, cache, codec,
// and snapshot packages. Call sites wrap these with fmt.Errorf("%w: ...", ...)
// to attach the offending value.
package errs

import "errors"

var (
	// ErrRateTooLow is returned when a requested rate is negative. A rate of
	// zero is accepted (zero mantissa bits per scalar).
	ErrRateTooLow = errors.New("errs: rate too low")

	// ErrUnsupportedDims is returned when the number of axes is outside 1..4.
	ErrUnsupportedDims = errors.New("errs: unsupported number of dimensions")

	// ErrBufferTooSmall is returned when a caller-supplied buffer cannot hold
	// the bitstream a store's current dims/rate requires.
	ErrBufferTooSmall = errors.New("errs: buffer too small")

	// ErrCodecNotBound is returned when an operation needs a codec bound to a
	// buffer region and none has been bound yet.
	ErrCodecNotBound = errors.New("errs: codec not bound")

	// ErrCacheClosed is returned when an operation is attempted on a cache
	// that has already been torn down.
	ErrCacheClosed = errors.New("errs: cache closed")

	// ErrCoordOutOfRange is returned when a coordinate falls outside the
	// array's current extent along some axis.
	ErrCoordOutOfRange = errors.New("errs: coordinate out of range")

	// ErrChecksumMismatch is returned by snapshot.Read when the stored
	// checksum does not match the recomputed one.
	ErrChecksumMismatch = errors.New("errs: checksum mismatch")

	// ErrUnknownAlgorithm is returned when a snapshot header names a
	// compression algorithm this build does not recognize.
	ErrUnknownAlgorithm = errors.New("errs: unknown compression algorithm")

	// ErrTruncatedHeader is returned when a snapshot stream ends before a
	// complete header has been read.
	ErrTruncatedHeader = errors.New("errs: truncated snapshot header")
)
