// Package compress provides the block codecs used by the packet recorder.
//
// A packet log groups packets into segments and compresses each segment as one
// block. Packets are mostly zero padding, so every general-purpose algorithm
// below shrinks them considerably:
//   - None: segments stored as-is
//   - Zstd: best ratio, pure-Go klauspost/compress encoder
//   - S2: fast, klauspost/compress Snappy successor
//   - LZ4: fastest decode, pierrec/lz4 block format
//   - Huffman: the telemetry entropy coder applied to whole segments
//
// All codecs are stateless values and safe for concurrent use. Encoders and
// decoders that carry warm-up state are pooled internally.
package compress
