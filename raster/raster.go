package raster

import (
	"fmt"

	"github.com/cjy7811/rm-vision/errs"
)

// Raster is a row-major W×H grid of quantized levels in [0, Levels-1].
//
// A Raster is produced once per frame by the detector and consumed once by a
// codec; it is not shared across goroutines while being encoded.
type Raster struct {
	Width  int
	Height int
	Levels int
	Cells  []uint8
}

// New creates a zeroed raster.
//
// Parameters:
//   - width, height: Raster dimensions (non-negative)
//   - levels: Number of quantization levels (2 or 4)
//
// Returns:
//   - *Raster: New raster with every cell at level 0
//   - error: ErrInvalidRaster or ErrInvalidLevels
func New(width, height, levels int) (*Raster, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", errs.ErrInvalidRaster, width, height)
	}
	if levels != 2 && levels != 4 {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidLevels, levels)
	}

	return &Raster{
		Width:  width,
		Height: height,
		Levels: levels,
		Cells:  make([]uint8, width*height),
	}, nil
}

// FromCells wraps an existing row-major cell slice after validating it.
func FromCells(width, height, levels int, cells []uint8) (*Raster, error) {
	r := &Raster{Width: width, Height: height, Levels: levels, Cells: cells}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// FromRows builds a raster from a slice of equally sized rows.
func FromRows(levels int, rows ...[]uint8) (*Raster, error) {
	height := len(rows)
	width := 0
	if height > 0 {
		width = len(rows[0])
	}

	cells := make([]uint8, 0, width*height)
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", errs.ErrInvalidRaster, i, len(row), width)
		}
		cells = append(cells, row...)
	}

	return FromCells(width, height, levels, cells)
}

// Validate checks dimensions, level count and every cell value.
func (r *Raster) Validate() error {
	if r == nil {
		return errs.ErrNilRaster
	}
	if r.Levels != 2 && r.Levels != 4 {
		return fmt.Errorf("%w: %d", errs.ErrInvalidLevels, r.Levels)
	}
	if r.Width < 0 || r.Height < 0 || len(r.Cells) != r.Width*r.Height {
		return fmt.Errorf("%w: %dx%d with %d cells", errs.ErrInvalidRaster, r.Width, r.Height, len(r.Cells))
	}
	for i, c := range r.Cells {
		if int(c) >= r.Levels {
			return fmt.Errorf("%w: cell %d has level %d", errs.ErrLevelOutOfRange, i, c)
		}
	}

	return nil
}

// Size returns the number of cells.
func (r *Raster) Size() int {
	return r.Width * r.Height
}

// At returns the level at column x, row y.
func (r *Raster) At(x, y int) uint8 {
	return r.Cells[y*r.Width+x]
}

// Set stores level at column x, row y.
func (r *Raster) Set(x, y int, level uint8) {
	r.Cells[y*r.Width+x] = level
}

// Equal reports whether two rasters have the same dimensions and cells.
// The level count is not compared because decoders report their own.
func (r *Raster) Equal(other *Raster) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Width != other.Width || r.Height != other.Height || len(r.Cells) != len(other.Cells) {
		return false
	}
	for i := range r.Cells {
		if r.Cells[i] != other.Cells[i] {
			return false
		}
	}

	return true
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	cells := make([]uint8, len(r.Cells))
	copy(cells, r.Cells)

	return &Raster{Width: r.Width, Height: r.Height, Levels: r.Levels, Cells: cells}
}

// Render expands levels to 8-bit intensities, level L-1 mapping to 255.
// This is the preview representation; the original threshold output used 0/255.
func (r *Raster) Render() []uint8 {
	out := make([]uint8, len(r.Cells))
	if r.Levels < 2 {
		return out
	}
	step := 255 / (r.Levels - 1)
	for i, c := range r.Cells {
		out[i] = uint8(int(c) * step)
	}

	return out
}
