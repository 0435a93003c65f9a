package raster

import (
	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/internal/pool"
)

const (
	packedLevels     = 4
	packedMaxRun     = 63
	packedRecordSize = 1
	packedLevelMask  = 0x03
	packedCountShift = 2
)

// PackedCodec stores each run in one byte: 6-bit count, 2-bit level.
type PackedCodec struct{}

var _ Codec = (*PackedCodec)(nil)

// NewPackedCodec creates the 4-level packed codec.
func NewPackedCodec() PackedCodec {
	return PackedCodec{}
}

// Encode emits (count<<2)|level for every maximal run, count capped at 63.
//
// Example: the 4×1 raster [0,0,0,1] encodes to [0x0C, 0x05].
func (PackedCodec) Encode(r *Raster, maxBytes int) (Encoded, error) {
	return encodeRuns(r, packedLevels, packedMaxRun, packedRecordSize, maxBytes,
		func(buf *pool.ByteBuffer, count int, level uint8) {
			buf.B = append(buf.B, uint8(count)<<packedCountShift|level)
		})
}

// Decode unpacks run bytes until the stream ends or width×height cells are filled.
func (PackedCodec) Decode(data []byte, width, height int) *Raster {
	out := newDecodeTarget(width, height, packedLevels)
	cells := out.Cells
	pos := 0

	for _, b := range data {
		if pos >= len(cells) {
			break
		}
		pos = fill(cells, pos, int(b>>packedCountShift), b&packedLevelMask)
	}

	return out
}

func (PackedCodec) Levels() int               { return packedLevels }
func (PackedCodec) MaxRun() int               { return packedMaxRun }
func (PackedCodec) Strategy() format.Strategy { return format.StrategyPackedRLE }
