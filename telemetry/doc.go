// Package telemetry turns one detection result into one wire packet and back.
//
// The encode path is raster → RLE → optional Huffman → packet. When the
// compressed raster would not fit the packet payload, the RLE stage is cut
// short and the packet carries the truncated flag; the receiver then decodes a
// correct prefix of the raster with the remaining cells at level 0.
//
// The strategy is not carried on the wire. Both ends must be configured with
// the same format.Strategy.
package telemetry
