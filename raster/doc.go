// Package raster holds the quantized raster type and its run-length codecs.
//
// Two interchangeable RLE layouts are provided:
//
//   - PairCodec: 2 levels, each run stored as [count][level] with count ≤ 255.
//   - PackedCodec: 4 levels, each run stored as one byte (count<<2)|level with count ≤ 63.
//
// Neither stream is self-describing; the encoder and decoder agree on the layout
// through a format.Strategy shared out of band.
//
// # Budget and truncation
//
// Encode takes a byte budget. When the next run does not fit, the encoder stops
// and reports Truncated=true; the cells it did not cover decode to level 0. This
// is how a raster that does not fit one packet is still transmitted.
//
// # Decoding
//
// Decode never produces more than width×height cells, regardless of how many runs
// remain in the stream, and never fewer: unfilled cells stay at level 0. Zero
// count runs, which is what packet zero padding decodes to, write nothing.
package raster
