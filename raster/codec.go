package raster

import (
	"fmt"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/internal/pool"
)

// Encoded is the result of encoding a raster under a byte budget.
type Encoded struct {
	// Data is the RLE stream, owned by the caller.
	Data []byte
	// Used is len(Data).
	Used int
	// Truncated is set when the budget stopped the encoder before every cell was covered.
	Truncated bool
}

// Codec encodes and decodes one RLE layout.
type Codec interface {
	// Encode run-length encodes r into at most maxBytes bytes; maxBytes <= 0 means unbounded.
	Encode(r *Raster, maxBytes int) (Encoded, error)
	// Decode rebuilds a width×height raster from an RLE stream.
	// Malformed input never fails; it only yields fewer non-zero cells.
	Decode(data []byte, width, height int) *Raster
	// Levels returns the level count the layout carries.
	Levels() int
	// MaxRun returns the longest run a single record can hold.
	MaxRun() int
	// Strategy returns the layout identifier.
	Strategy() format.Strategy
}

// CreateCodec returns the RLE stage of the given strategy.
//
// Parameters:
//   - strategy: Encoding strategy; PackedRLEHuffman maps to the packed layout
//
// Returns:
//   - Codec: RLE codec for the strategy
//   - error: ErrUnknownStrategy for unsupported values
func CreateCodec(strategy format.Strategy) (Codec, error) {
	switch strategy {
	case format.StrategyPairRLE:
		return NewPairCodec(), nil
	case format.StrategyPackedRLE, format.StrategyPackedRLEHuffman:
		return NewPackedCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownStrategy, strategy)
	}
}

// runEmitter appends one run record to buf.
type runEmitter func(buf *pool.ByteBuffer, count int, level uint8)

// encodeRuns scans r row-major, splits maximal runs at maxRun and hands each one to
// emit, stopping before the first record that would overflow maxBytes.
func encodeRuns(r *Raster, levels, maxRun, recordSize, maxBytes int, emit runEmitter) (Encoded, error) {
	if r == nil {
		return Encoded{}, errs.ErrNilRaster
	}
	if len(r.Cells) != r.Width*r.Height {
		return Encoded{}, fmt.Errorf("%w: %dx%d with %d cells", errs.ErrInvalidRaster, r.Width, r.Height, len(r.Cells))
	}

	buf := pool.GetStreamBuffer()
	defer pool.PutStreamBuffer(buf)

	cells := r.Cells
	total := len(cells)
	truncated := false

	for i := 0; i < total; {
		level := cells[i]
		if int(level) >= levels {
			return Encoded{}, fmt.Errorf("%w: cell %d has level %d, codec carries %d levels",
				errs.ErrLevelOutOfRange, i, level, levels)
		}

		count := 1
		for i+count < total && cells[i+count] == level && count < maxRun {
			count++
		}

		if maxBytes > 0 && buf.Len()+recordSize > maxBytes {
			truncated = true
			break
		}

		emit(buf, count, level)
		i += count
	}

	data := buf.Clone()

	return Encoded{Data: data, Used: len(data), Truncated: truncated}, nil
}

// fill writes count copies of level starting at pos, clamped to the raster end.
func fill(cells []uint8, pos, count int, level uint8) int {
	end := pos + count
	if end > len(cells) {
		end = len(cells)
	}
	for ; pos < end; pos++ {
		cells[pos] = level
	}

	return pos
}

func newDecodeTarget(width, height, levels int) *Raster {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	return &Raster{Width: width, Height: height, Levels: levels, Cells: make([]uint8, width*height)}
}
