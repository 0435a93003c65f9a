package packet

import (
	"fmt"

	"github.com/cjy7811/rm-vision/errs"
)

// Packet is one fixed-size telemetry record. Its size is part of the type, so a
// packet of any other length cannot be constructed.
//
// Layout:
//
//	byte 0        sequence number (wraps at 256)
//	byte 1        flags
//	byte 2        raster width
//	byte 3        raster height
//	bytes 4-15    4 × (x, y, r) detections, unused slots zero
//	bytes 16-290  compressed raster payload, zero-padded
//	bytes 291-299 reserved, zero
type Packet [TotalSize]byte

// Detection is one candidate circle in target-resolution pixel units.
type Detection struct {
	X uint8
	Y uint8
	R uint8
}

// IsZero reports whether d is an unused slot.
func (d Detection) IsZero() bool {
	return d == Detection{}
}

// Fields is the decoded view of a Packet.
type Fields struct {
	Seq        uint8
	Flags      Flag
	Width      uint8
	Height     uint8
	Detections [MaxDetections]Detection
	// Payload is the full payload region, including zero padding.
	Payload []byte
}

// DetectionCount returns the number of leading non-zero detection slots.
func (f Fields) DetectionCount() int {
	n := 0
	for _, d := range f.Detections {
		if d.IsZero() {
			break
		}
		n++
	}

	return n
}

// Frame assembles a packet.
//
// Parameters:
//   - seq: Frame sequence number; only the low 8 bits are stored
//   - detections: Candidate circles in priority order; only the first 4 are kept
//   - payload: Compressed raster, at most PayloadSize bytes
//   - width, height: Raster dimensions, each 0-255
//   - truncated: Whether the raster encoder hit the payload budget
//
// Returns:
//   - Packet: The assembled packet with the valid flag set
//   - error: ErrPayloadTooLarge or ErrInvalidDimensions
func Frame(seq uint32, detections []Detection, payload []byte, width, height int, truncated bool) (Packet, error) {
	var p Packet
	if len(payload) > PayloadSize {
		return p, fmt.Errorf("%w: %d > %d bytes", errs.ErrPayloadTooLarge, len(payload), PayloadSize)
	}
	if width < 0 || width > 0xFF || height < 0 || height > 0xFF {
		return p, fmt.Errorf("%w: %dx%d", errs.ErrInvalidDimensions, width, height)
	}

	p[SeqOffset] = uint8(seq)
	p[FlagsOffset] = uint8(Flag(0).WithValid().WithTruncated(truncated))
	p[WidthOffset] = uint8(width)
	p[HeightOffset] = uint8(height)

	for i, d := range detections {
		if i == MaxDetections {
			break
		}
		off := DetectionsOffset + i*DetectionSize
		p[off] = d.X
		p[off+1] = d.Y
		p[off+2] = d.R
	}

	copy(p[PayloadOffset:ReservedOffset], payload)

	return p, nil
}

// Unframe decodes the header fields and returns the payload region verbatim.
func (p *Packet) Unframe() Fields {
	f := Fields{
		Seq:    p[SeqOffset],
		Flags:  Flag(p[FlagsOffset]),
		Width:  p[WidthOffset],
		Height: p[HeightOffset],
	}
	for i := range f.Detections {
		off := DetectionsOffset + i*DetectionSize
		f.Detections[i] = Detection{X: p[off], Y: p[off+1], R: p[off+2]}
	}
	f.Payload = make([]byte, PayloadSize)
	copy(f.Payload, p[PayloadOffset:ReservedOffset])

	return f
}

// Bytes returns the packet as a byte slice backed by p.
func (p *Packet) Bytes() []byte {
	return p[:]
}

// Seq returns the stored sequence number.
func (p *Packet) Seq() uint8 {
	return p[SeqOffset]
}

// Flags returns the flags byte.
func (p *Packet) Flags() Flag {
	return Flag(p[FlagsOffset])
}

// Parse copies exactly TotalSize bytes read off the wire into a Packet.
//
// Returns:
//   - Packet: Parsed packet
//   - error: ErrInvalidPacketSize if data is not exactly TotalSize bytes
func Parse(data []byte) (Packet, error) {
	var p Packet
	if len(data) != TotalSize {
		return p, fmt.Errorf("%w: got %d bytes, want %d", errs.ErrInvalidPacketSize, len(data), TotalSize)
	}
	copy(p[:], data)

	return p, nil
}
