package pipeline

import (
	"context"

	"github.com/cjy7811/rm-vision/packet"
	"github.com/cjy7811/rm-vision/telemetry"
)

// Source yields frames in capture order. Next returns io.EOF when the stream ends.
type Source[F any] interface {
	Next(ctx context.Context) (F, error)
}

// Detector turns one frame into a quantized raster and candidate circles.
// Returning errs.ErrFrameSkipped drops the frame without counting a failure.
type Detector[F any] interface {
	Detect(frame F) (telemetry.DetectionResult, error)
}

// Sink consumes framed packets.
type Sink interface {
	Send(ctx context.Context, p packet.Packet) error
}

// SourceFunc adapts a function to Source.
type SourceFunc[F any] func(ctx context.Context) (F, error)

func (f SourceFunc[F]) Next(ctx context.Context) (F, error) { return f(ctx) }

// DetectorFunc adapts a function to Detector.
type DetectorFunc[F any] func(frame F) (telemetry.DetectionResult, error)

func (f DetectorFunc[F]) Detect(frame F) (telemetry.DetectionResult, error) { return f(frame) }

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, p packet.Packet) error

func (f SinkFunc) Send(ctx context.Context, p packet.Packet) error { return f(ctx, p) }
