package telemetry

import (
	"math"

	"github.com/cjy7811/rm-vision/packet"
	"github.com/cjy7811/rm-vision/raster"
)

// Circle is a candidate detection in source-image pixels.
type Circle struct {
	X float64 `cbor:"1,keyasint" json:"x"`
	Y float64 `cbor:"2,keyasint" json:"y"`
	R float64 `cbor:"3,keyasint" json:"r"`
}

// DetectionResult is what a detector produces for one frame.
type DetectionResult struct {
	// Raster is already quantized at the target resolution.
	Raster *raster.Raster
	// Circles are ordered by the detector's priority; only the first
	// packet.MaxDetections reach the wire.
	Circles []Circle
	// SourceWidth and SourceHeight are the dimensions Circles are measured in.
	// Zero means the circles are already in target units.
	SourceWidth  int
	SourceHeight int
}

// ScaleCircles maps source-pixel circles into target-resolution detections.
//
// Coordinates are scaled per axis and rounded half away from zero; the radius
// follows the width ratio. Results outside 0..255 are clamped. At most
// packet.MaxDetections circles are converted.
func ScaleCircles(circles []Circle, srcW, srcH, dstW, dstH int) []packet.Detection {
	n := min(len(circles), packet.MaxDetections)
	out := make([]packet.Detection, n)

	sx, sy := ratio(dstW, srcW), ratio(dstH, srcH)
	for i, c := range circles[:n] {
		out[i] = packet.Detection{
			X: clampUint8(c.X * sx),
			Y: clampUint8(c.Y * sy),
			R: clampUint8(c.R * sx),
		}
	}

	return out
}

// UnscaleDetection maps a wire detection back into source pixels for preview overlays.
func UnscaleDetection(d packet.Detection, srcW, srcH, dstW, dstH int) Circle {
	sx, sy := ratio(srcW, dstW), ratio(srcH, dstH)

	return Circle{
		X: math.Round(float64(d.X) * sx),
		Y: math.Round(float64(d.Y) * sy),
		R: math.Round(float64(d.R) * sx),
	}
}

func ratio(num, den int) float64 {
	if num <= 0 || den <= 0 {
		return 1
	}

	return float64(num) / float64(den)
}

func clampUint8(v float64) uint8 {
	v = math.Round(v)
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint8:
		return math.MaxUint8
	default:
		return uint8(v)
	}
}
