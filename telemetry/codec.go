package telemetry

import (
	"fmt"

	"github.com/cjy7811/rm-vision/entropy"
	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/internal/options"
	"github.com/cjy7811/rm-vision/packet"
	"github.com/cjy7811/rm-vision/raster"
)

const (
	DefaultWidth  = 120
	DefaultHeight = 80
)

// Codec encodes detection results into packets for one configured strategy and
// target resolution. It holds no per-frame state and is safe for concurrent use.
type Codec struct {
	strategy format.Strategy
	width    int
	height   int
	bypass   int

	rle     raster.Codec
	entropy *entropy.Codec
}

// Option configures a Codec.
type Option = options.Option[*Codec]

// WithStrategy selects the raster encoding strategy.
func WithStrategy(s format.Strategy) Option {
	return options.NoError(func(c *Codec) {
		c.strategy = s
	})
}

// WithTargetSize sets the raster resolution the detector produces.
func WithTargetSize(width, height int) Option {
	return options.New(func(c *Codec) error {
		if width <= 0 || width > 0xFF || height <= 0 || height > 0xFF {
			return fmt.Errorf("%w: %dx%d", errs.ErrInvalidDimensions, width, height)
		}
		c.width, c.height = width, height

		return nil
	})
}

// WithBypassThreshold sets the entropy stage raw-bypass threshold.
func WithBypassThreshold(n int) Option {
	return options.New(func(c *Codec) error {
		if n < 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidBypassMin, n)
		}
		c.bypass = n

		return nil
	})
}

// NewCodec creates a Codec. The defaults are PairRLE at 120×80 with a 200-byte bypass.
//
// Returns:
//   - *Codec: Configured codec
//   - error: Option validation error or ErrUnknownStrategy
func NewCodec(opts ...Option) (*Codec, error) {
	c := &Codec{
		strategy: format.StrategyPairRLE,
		width:    DefaultWidth,
		height:   DefaultHeight,
		bypass:   entropy.DefaultBypassThreshold,
	}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	rle, err := raster.CreateCodec(c.strategy)
	if err != nil {
		return nil, err
	}
	c.rle = rle

	if c.strategy.Entropy() {
		ec, err := entropy.New(entropy.WithBypassThreshold(c.bypass))
		if err != nil {
			return nil, err
		}
		c.entropy = ec
	}

	return c, nil
}

// Strategy returns the configured strategy.
func (c *Codec) Strategy() format.Strategy { return c.strategy }

// TargetSize returns the configured raster resolution.
func (c *Codec) TargetSize() (int, int) { return c.width, c.height }

// Payload is an encoded raster ready for framing.
type Payload struct {
	Data []byte
	// RLEBytes is the length of the RLE stream before the entropy stage.
	RLEBytes int
	// Truncated is set when the RLE stream was cut to fit packet.PayloadSize.
	Truncated bool
}

// EncodeRaster compresses r into at most packet.PayloadSize bytes.
func (c *Codec) EncodeRaster(r *raster.Raster) (Payload, error) {
	if r == nil {
		return Payload{}, errs.ErrNilRaster
	}
	if r.Width != c.width || r.Height != c.height {
		return Payload{}, fmt.Errorf("%w: got %dx%d, codec expects %dx%d",
			errs.ErrInvalidRaster, r.Width, r.Height, c.width, c.height)
	}

	if c.entropy == nil {
		enc, err := c.rle.Encode(r, packet.PayloadSize)
		if err != nil {
			return Payload{}, err
		}

		return Payload{Data: enc.Data, RLEBytes: enc.Used, Truncated: enc.Truncated}, nil
	}

	enc, err := c.rle.Encode(r, 0)
	if err != nil {
		return Payload{}, err
	}

	return c.fitEntropy(enc.Data), nil
}

// fitEntropy returns the compressed form of the longest RLE prefix whose
// compressed size fits the payload. Packed records are one byte each, so every
// prefix is a valid stream. An empty prefix always fits.
func (c *Codec) fitEntropy(rle []byte) Payload {
	out := c.entropy.Compress(rle)
	if len(out) <= packet.PayloadSize {
		return Payload{Data: out, RLEBytes: len(rle)}
	}

	lo, hi := 0, len(rle)
	best := c.entropy.Compress(rle[:0])
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		candidate := c.entropy.Compress(rle[:mid])
		if len(candidate) <= packet.PayloadSize {
			lo, best = mid, candidate
		} else {
			hi = mid
		}
	}

	return Payload{Data: best, RLEBytes: lo, Truncated: true}
}

// DecodeRaster rebuilds a raster from a payload region. Trailing zero padding is tolerated.
func (c *Codec) DecodeRaster(payload []byte, width, height int) *raster.Raster {
	if c.entropy != nil {
		payload = entropy.Decompress(payload)
	}

	return c.rle.Decode(payload, width, height)
}

// EncodeStats describes the cost of one encoded frame.
type EncodeStats struct {
	Seq        uint32
	Used       int
	RLEBytes   int
	RawBytes   int
	Detections int
	Truncated  bool
}

// Ratio returns the payload size relative to one byte per raster cell.
func (s EncodeStats) Ratio() float64 {
	if s.RawBytes == 0 {
		return 0
	}

	return float64(s.Used) / float64(s.RawBytes)
}

// EncodeFrame converts one detection result into a packet.
//
// Parameters:
//   - seq: Frame sequence number, stored modulo 256
//   - res: Detector output at the configured target resolution
//
// Returns:
//   - packet.Packet: Framed packet
//   - EncodeStats: Payload accounting for the statistics reporter
//   - error: Raster precondition errors from the RLE stage
func (c *Codec) EncodeFrame(seq uint32, res DetectionResult) (packet.Packet, EncodeStats, error) {
	payload, err := c.EncodeRaster(res.Raster)
	if err != nil {
		return packet.Packet{}, EncodeStats{}, fmt.Errorf("encode frame %d: %w", seq, err)
	}

	dets := ScaleCircles(res.Circles, res.SourceWidth, res.SourceHeight, c.width, c.height)

	p, err := packet.Frame(seq, dets, payload.Data, c.width, c.height, payload.Truncated)
	if err != nil {
		return packet.Packet{}, EncodeStats{}, fmt.Errorf("frame %d: %w", seq, err)
	}

	stats := EncodeStats{
		Seq:        seq,
		Used:       len(payload.Data),
		RLEBytes:   payload.RLEBytes,
		RawBytes:   res.Raster.Size(),
		Detections: len(dets),
		Truncated:  payload.Truncated,
	}

	return p, stats, nil
}

// Decoded is the receiver-side view of one packet.
type Decoded struct {
	Seq        uint8
	Truncated  bool
	Detections []packet.Detection
	Raster     *raster.Raster
}

// DecodePacket unframes p and decodes its raster.
//
// Returns:
//   - Decoded: Header fields, non-empty detections and the decoded raster
//   - error: ErrPayloadUnavailable when the valid flag is clear
func (c *Codec) DecodePacket(p *packet.Packet) (Decoded, error) {
	f := p.Unframe()
	if !f.Flags.IsValid() {
		return Decoded{}, errs.ErrPayloadUnavailable
	}

	return Decoded{
		Seq:        f.Seq,
		Truncated:  f.Flags.IsTruncated(),
		Detections: append([]packet.Detection(nil), f.Detections[:f.DetectionCount()]...),
		Raster:     c.DecodeRaster(f.Payload, int(f.Width), int(f.Height)),
	}, nil
}
