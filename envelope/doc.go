// Package envelope provides general-purpose byte-stream compression codecs
// used to wrap an already rate-compressed bitstream for cold storage or
// transport.
//
// The block cache's own compressed_data() is already bit-packed at the
// user-chosen rate; envelope codecs squeeze further redundancy out of that
// buffer (repeated headers, zero runs after a clear, similar neighboring
// slots) when the caller persists or ships it, the way the snapshot package
// does. Compression here is optional and purely an outer wrapper: it never
// changes the meaning of a single bit inside the rate-compressed buffer.
//
// # Supported algorithms
//
//   - None: no compression, fastest
//   - Zstd: best ratio, moderate speed (github.com/klauspost/compress/zstd)
//   - S2: balanced ratio/speed (github.com/klauspost/compress/s2)
//   - LZ4: fastest decompression (github.com/pierrec/lz4/v4)
package envelope
