// Package rmvision encodes the per-frame output of a circle detector into the
// fixed 300-byte packets carried over the link to the downstream controller.
//
// A frame is a quantized raster at the target resolution plus up to four
// detected circles. The raster is run-length encoded, optionally Huffman coded,
// and framed together with the scaled detections into one packet.
//
// # Core Features
//
//   - Byte-pair RLE for 2-level rasters, packed RLE for 4-level rasters
//   - Adaptive Huffman stage with a raw bypass for short streams
//   - Prefix truncation with a flag when the raster exceeds the payload budget
//   - Bounded single-producer single-consumer frame queue with cancellation
//   - Serial, packet log and websocket preview sinks
//
// # Basic Usage
//
// Encoding a detection result:
//
//	codec, _ := rmvision.NewDefaultCodec()
//	pkt, stats, err := codec.EncodeFrame(seq, telemetry.DetectionResult{
//	    Raster:       ras,
//	    Circles:      []telemetry.Circle{{X: 320, Y: 240, R: 18}},
//	    SourceWidth:  640,
//	    SourceHeight: 480,
//	})
//
// Decoding on the receiving side:
//
//	dec, err := rmvision.DecodePacket(data, format.StrategyPairRLE)
//
// # Package Structure
//
// This package holds convenience wrappers. The raster, entropy, packet, queue,
// pipeline and link packages expose the individual stages.
package rmvision

import (
	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/packet"
	"github.com/cjy7811/rm-vision/pipeline"
	"github.com/cjy7811/rm-vision/replay"
	"github.com/cjy7811/rm-vision/telemetry"
)

var defaultHuffmanOptions = []telemetry.Option{
	telemetry.WithStrategy(format.StrategyPackedRLEHuffman),
}

// NewCodec creates a telemetry codec with custom options.
//
// Parameters:
//   - opts: Optional configuration functions (see telemetry.Option)
//
// Returns:
//   - *telemetry.Codec: The created codec.
//   - error: An error if the configuration is invalid.
//
// Available options:
//   - telemetry.WithStrategy(format.StrategyPairRLE|StrategyPackedRLE|StrategyPackedRLEHuffman)
//   - telemetry.WithTargetSize(width, height)
//   - telemetry.WithBypassThreshold(n)
func NewCodec(opts ...telemetry.Option) (*telemetry.Codec, error) {
	return telemetry.NewCodec(opts...)
}

// NewDefaultCodec creates a codec for 2-level 120×80 rasters with byte-pair RLE.
func NewDefaultCodec() (*telemetry.Codec, error) {
	return telemetry.NewCodec()
}

// NewHuffmanCodec creates a codec for 4-level rasters with packed RLE followed
// by the Huffman stage. Additional options are applied after the strategy.
func NewHuffmanCodec(opts ...telemetry.Option) (*telemetry.Codec, error) {
	allOpts := append(append([]telemetry.Option(nil), defaultHuffmanOptions...), opts...)
	return telemetry.NewCodec(allOpts...)
}

// DecodePacket parses a 300-byte packet and decodes its raster with the given
// strategy at the resolution stored in the packet header.
//
// Returns:
//   - telemetry.Decoded: Header fields, detections and the decoded raster.
//   - error: ErrInvalidPacketSize, ErrPayloadUnavailable or ErrUnknownStrategy.
func DecodePacket(data []byte, strategy format.Strategy) (telemetry.Decoded, error) {
	p, err := packet.Parse(data)
	if err != nil {
		return telemetry.Decoded{}, err
	}

	codec, err := telemetry.NewCodec(telemetry.WithStrategy(strategy))
	if err != nil {
		return telemetry.Decoded{}, err
	}

	return codec.DecodePacket(&p)
}

// NewReplayPipeline wires a replay stream through codec into sink.
//
// Example:
//
//	src, _ := replay.Open("frames.cbor")
//	p, err := rmvision.NewReplayPipeline(codec, src, sink, pipeline.WithFrameInterval(33*time.Millisecond))
//	err = p.RunReplay(ctx)
func NewReplayPipeline(codec *telemetry.Codec, src pipeline.Source[replay.Record], sink pipeline.Sink, opts ...pipeline.Option) (*pipeline.Pipeline[replay.Record], error) {
	return pipeline.New[replay.Record](codec, src, replay.PassThrough(), sink, opts...)
}
