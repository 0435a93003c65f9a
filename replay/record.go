package replay

import (
	"fmt"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/raster"
	"github.com/cjy7811/rm-vision/telemetry"
)

// Record is one frame of a replay stream.
type Record struct {
	Seq          uint64             `cbor:"1,keyasint"`
	Width        int                `cbor:"2,keyasint"`
	Height       int                `cbor:"3,keyasint"`
	Levels       int                `cbor:"4,keyasint"`
	Cells        []byte             `cbor:"5,keyasint,omitempty"`
	Gray         []byte             `cbor:"6,keyasint,omitempty"`
	Circles      []telemetry.Circle `cbor:"7,keyasint,omitempty"`
	SourceWidth  int                `cbor:"8,keyasint,omitempty"`
	SourceHeight int                `cbor:"9,keyasint,omitempty"`
}

// FromResult captures a detection result.
func FromResult(seq uint64, res telemetry.DetectionResult) (Record, error) {
	if res.Raster == nil {
		return Record{}, errs.ErrNilRaster
	}

	return Record{
		Seq:          seq,
		Width:        res.Raster.Width,
		Height:       res.Raster.Height,
		Levels:       res.Raster.Levels,
		Cells:        append([]byte(nil), res.Raster.Cells...),
		Circles:      append([]telemetry.Circle(nil), res.Circles...),
		SourceWidth:  res.SourceWidth,
		SourceHeight: res.SourceHeight,
	}, nil
}

// Result rebuilds the detection result. Grayscale records are quantized at
// cut when Levels is 2 and evenly otherwise.
func (r Record) Result(cut uint8) (telemetry.DetectionResult, error) {
	var (
		ras *raster.Raster
		err error
	)

	switch {
	case len(r.Cells) > 0:
		ras, err = raster.FromCells(r.Width, r.Height, r.Levels, append([]uint8(nil), r.Cells...))
	case len(r.Gray) > 0 && r.Levels == 2:
		ras, err = raster.Threshold(r.Gray, r.Width, r.Height, cut)
	case len(r.Gray) > 0:
		ras, err = raster.Quantize(r.Gray, r.Width, r.Height, r.Levels)
	default:
		ras, err = raster.New(r.Width, r.Height, r.Levels)
	}
	if err != nil {
		return telemetry.DetectionResult{}, fmt.Errorf("replay record %d: %w", r.Seq, err)
	}

	return telemetry.DetectionResult{
		Raster:       ras,
		Circles:      r.Circles,
		SourceWidth:  r.SourceWidth,
		SourceHeight: r.SourceHeight,
	}, nil
}
