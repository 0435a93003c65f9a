// Package entropy implements the optional second stage of the raster link: an
// adaptive Huffman coder over RLE stream bytes, with a raw bypass for short inputs.
//
// # Wire layout
//
// Raw bypass (input length ≤ bypass threshold, 200 by default):
//
//	[0xFF][rawLen:4BE][raw bytes]
//
// Huffman:
//
//	[tableSize:1]
//	[symbol:1][freq:4BE] × tableSize      (ascending symbol order)
//	[rawLen:4BE][packedLen:4BE][bitLen:4BE]
//	[packed bits, MSB-first, unused low bits of the final byte zero]
//
// The frequency table is embedded verbatim; the decoder rebuilds the tree from it
// instead of receiving codes or code lengths.
//
// # Determinism
//
// Both ends build the tree with the same rule: the two nodes with the lowest
// frequency are merged first; on equal frequency the node holding the smaller
// symbol wins, and the first node taken becomes the 0 branch. Because every node
// owns a distinct smallest symbol this is a total order, so the tree shape does not
// depend on the heap implementation.
//
// A single-symbol alphabet is wrapped under one synthetic parent so its symbol gets
// the one-bit code 0.
//
// A one-byte table size cannot describe 255 or more symbols without colliding with
// the bypass marker; such inputs, and inputs the tree would not shrink, are emitted
// in the raw form.
//
// # Malformed input
//
// Decompress returns an empty result for a truncated header, an inconsistent table,
// or lengths that point past the buffer. It never reads beyond len(data).
package entropy
