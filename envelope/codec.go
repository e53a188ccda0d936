package envelope

import "fmt"

// Algorithm identifies an envelope compression algorithm.
type Algorithm uint8

const (
	None Algorithm = iota
	Zstd
	S2
	LZ4
)

func (a Algorithm) String() string {
	switch a {
	case None:
		return "None"
	case Zstd:
		return "Zstd"
	case S2:
		return "S2"
	case LZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Compressor compresses a byte buffer.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a byte buffer produced by the matching Compressor.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec is a factory function that creates a Codec for the given algorithm.
func CreateCodec(algorithm Algorithm) (Codec, error) {
	switch algorithm {
	case None:
		return NewNoOpCodec(), nil
	case Zstd:
		return NewZstdCodec(), nil
	case S2:
		return NewS2Codec(), nil
	case LZ4:
		return NewLZ4Codec(), nil
	default:
		return nil, fmt.Errorf("envelope: unsupported compression algorithm: %d", algorithm)
	}
}
