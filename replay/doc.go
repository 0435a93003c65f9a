// Package replay stores detection results as a CBOR item sequence and plays
// them back as a pipeline source.
//
// Each item is one Record. A record carries either quantized cells produced by
// an upstream detector or an 8-bit grayscale image at the target resolution
// that Detector quantizes on playback.
package replay
