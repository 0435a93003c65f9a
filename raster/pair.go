package raster

import (
	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/internal/pool"
)

const (
	pairLevels     = 2
	pairMaxRun     = 255
	pairRecordSize = 2
)

// PairCodec stores each run as two bytes: [count][level].
type PairCodec struct{}

var _ Codec = (*PairCodec)(nil)

// NewPairCodec creates the 2-level byte-pair codec.
func NewPairCodec() PairCodec {
	return PairCodec{}
}

// Encode emits [count][level] for every maximal run, count capped at 255.
//
// Example: the 4×1 raster [0,0,0,1] encodes to [3,0,1,1].
func (PairCodec) Encode(r *Raster, maxBytes int) (Encoded, error) {
	return encodeRuns(r, pairLevels, pairMaxRun, pairRecordSize, maxBytes,
		func(buf *pool.ByteBuffer, count int, level uint8) {
			buf.B = append(buf.B, uint8(count), level)
		})
}

// Decode reads complete pairs until the stream ends or width×height cells are filled.
// An odd trailing byte is ignored and levels above 1 are clamped to 1.
func (PairCodec) Decode(data []byte, width, height int) *Raster {
	out := newDecodeTarget(width, height, pairLevels)
	cells := out.Cells
	pos := 0

	for i := 0; i+1 < len(data) && pos < len(cells); i += pairRecordSize {
		level := data[i+1]
		if level >= pairLevels {
			level = pairLevels - 1
		}
		pos = fill(cells, pos, int(data[i]), level)
	}

	return out
}

func (PairCodec) Levels() int               { return pairLevels }
func (PairCodec) MaxRun() int               { return pairMaxRun }
func (PairCodec) Strategy() format.Strategy { return format.StrategyPairRLE }
