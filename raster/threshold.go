package raster

import (
	"fmt"

	"github.com/cjy7811/rm-vision/errs"
)

// DefaultThreshold is the binarization cut applied to 8-bit intensities.
const DefaultThreshold = 128

// Threshold binarizes an 8-bit grayscale image into a 2-level raster:
// pixels strictly greater than cut become level 1.
func Threshold(gray []uint8, width, height int, cut uint8) (*Raster, error) {
	if width < 0 || height < 0 || len(gray) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d pixels", errs.ErrInvalidRaster, width, height, len(gray))
	}

	cells := make([]uint8, len(gray))
	for i, v := range gray {
		if v > cut {
			cells[i] = 1
		}
	}

	return &Raster{Width: width, Height: height, Levels: 2, Cells: cells}, nil
}

// Quantize maps 8-bit intensities onto levels evenly spaced bands.
func Quantize(gray []uint8, width, height, levels int) (*Raster, error) {
	if levels != 2 && levels != 4 {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidLevels, levels)
	}
	if width < 0 || height < 0 || len(gray) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d pixels", errs.ErrInvalidRaster, width, height, len(gray))
	}

	cells := make([]uint8, len(gray))
	for i, v := range gray {
		cells[i] = uint8(int(v) * levels / 256)
	}

	return &Raster{Width: width, Height: height, Levels: levels, Cells: cells}, nil
}
