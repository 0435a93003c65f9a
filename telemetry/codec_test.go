package telemetry

import (
	"testing"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/packet"
	"github.com/cjy7811/rm-vision/raster"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func cyclicRaster(t *testing.T, width, height, levels int) *raster.Raster {
	t.Helper()

	r, err := raster.New(width, height, levels)
	require.NoError(t, err)
	for i := range r.Cells {
		r.Cells[i] = uint8(i % levels)
	}

	return r
}

func blobRaster(t *testing.T, width, height, levels int) *raster.Raster {
	t.Helper()

	r, err := raster.New(width, height, levels)
	require.NoError(t, err)
	for y := height / 3; y < height/2; y++ {
		for x := width / 4; x < width/2; x++ {
			r.Set(x, y, uint8(levels-1))
		}
	}

	return r
}

func TestNewCodec(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		c, err := NewCodec()
		require.NoError(t, err)
		require.Equal(t, format.StrategyPairRLE, c.Strategy())
		w, h := c.TargetSize()
		require.Equal(t, 120, w)
		require.Equal(t, 80, h)
	})

	t.Run("Invalid target size", func(t *testing.T) {
		_, err := NewCodec(WithTargetSize(256, 10))
		require.ErrorIs(t, err, errs.ErrInvalidDimensions)

		_, err = NewCodec(WithTargetSize(0, 10))
		require.ErrorIs(t, err, errs.ErrInvalidDimensions)
	})

	t.Run("Unknown strategy", func(t *testing.T) {
		_, err := NewCodec(WithStrategy(format.Strategy(0x40)))
		require.ErrorIs(t, err, errs.ErrUnknownStrategy)
	})

	t.Run("Negative bypass", func(t *testing.T) {
		_, err := NewCodec(WithStrategy(format.StrategyPackedRLEHuffman), WithBypassThreshold(-1))
		require.ErrorIs(t, err, errs.ErrInvalidBypassMin)
	})
}

func TestEncodeFrame_WorkedExample(t *testing.T) {
	r, err := raster.FromRows(2, []uint8{0, 0, 0, 1})
	require.NoError(t, err)

	for _, s := range []format.Strategy{format.StrategyPairRLE, format.StrategyPackedRLE, format.StrategyPackedRLEHuffman} {
		t.Run(s.String(), func(t *testing.T) {
			c, err := NewCodec(WithStrategy(s), WithTargetSize(4, 1))
			require.NoError(t, err)

			p, stats, err := c.EncodeFrame(3, DetectionResult{
				Raster:  r,
				Circles: []Circle{{X: 2, Y: 0, R: 1}},
			})
			require.NoError(t, err)
			require.False(t, stats.Truncated)
			require.Equal(t, 4, stats.RawBytes)
			require.Equal(t, 1, stats.Detections)

			dec, err := c.DecodePacket(&p)
			require.NoError(t, err)
			require.Equal(t, uint8(3), dec.Seq)
			require.False(t, dec.Truncated)
			require.Equal(t, []packet.Detection{{X: 2, Y: 0, R: 1}}, dec.Detections)
			require.Equal(t, r.Cells, dec.Raster.Cells)
		})
	}

	t.Run("Pair payload bytes", func(t *testing.T) {
		c, err := NewCodec(WithTargetSize(4, 1))
		require.NoError(t, err)

		p, stats, err := c.EncodeFrame(0, DetectionResult{Raster: r})
		require.NoError(t, err)
		require.Equal(t, 4, stats.Used)
		require.Equal(t, []byte{3, 0, 1, 1}, p[packet.PayloadOffset:packet.PayloadOffset+4])
	})
}

func TestEncodeFrame_RoundTrip(t *testing.T) {
	for _, s := range []format.Strategy{format.StrategyPairRLE, format.StrategyPackedRLE, format.StrategyPackedRLEHuffman} {
		t.Run(s.String(), func(t *testing.T) {
			c, err := NewCodec(WithStrategy(s))
			require.NoError(t, err)

			r := blobRaster(t, DefaultWidth, DefaultHeight, s.Levels())
			p, stats, err := c.EncodeFrame(300, DetectionResult{
				Raster:       r,
				Circles:      []Circle{{X: 48, Y: 160, R: 12}},
				SourceWidth:  480,
				SourceHeight: 320,
			})
			require.NoError(t, err)
			require.False(t, stats.Truncated)
			require.LessOrEqual(t, stats.Used, packet.PayloadSize)
			require.Len(t, p.Bytes(), packet.TotalSize)

			dec, err := c.DecodePacket(&p)
			require.NoError(t, err)
			require.Equal(t, uint8(300%256), dec.Seq)
			require.Equal(t, []packet.Detection{{X: 12, Y: 40, R: 3}}, dec.Detections)
			if diff := cmp.Diff(r.Cells, dec.Raster.Cells); diff != "" {
				t.Fatalf("raster mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeFrame_TruncatesPair(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)

	r := cyclicRaster(t, DefaultWidth, DefaultHeight, 2)
	p, stats, err := c.EncodeFrame(1, DetectionResult{Raster: r})
	require.NoError(t, err)
	require.True(t, stats.Truncated)
	require.Equal(t, 274, stats.Used)
	require.True(t, p.Flags().IsTruncated())

	dec, err := c.DecodePacket(&p)
	require.NoError(t, err)
	require.True(t, dec.Truncated)

	covered := 137
	require.Equal(t, r.Cells[:covered], dec.Raster.Cells[:covered])
	require.Equal(t, make([]uint8, r.Size()-covered), dec.Raster.Cells[covered:])
}

func TestEncodeFrame_TruncatesHuffman(t *testing.T) {
	c, err := NewCodec(WithStrategy(format.StrategyPackedRLEHuffman))
	require.NoError(t, err)

	// Four equally frequent symbols code at two bits each, so a prefix of n
	// records costs 33 header bytes plus n/4 bytes; 968 records fill 275.
	r := cyclicRaster(t, DefaultWidth, DefaultHeight, 4)
	payload, err := c.EncodeRaster(r)
	require.NoError(t, err)
	require.True(t, payload.Truncated)
	require.Equal(t, 968, payload.RLEBytes)
	require.Len(t, payload.Data, packet.PayloadSize)

	p, _, err := c.EncodeFrame(2, DetectionResult{Raster: r})
	require.NoError(t, err)

	dec, err := c.DecodePacket(&p)
	require.NoError(t, err)
	require.True(t, dec.Truncated)
	require.Equal(t, r.Cells[:968], dec.Raster.Cells[:968])
	require.Equal(t, make([]uint8, r.Size()-968), dec.Raster.Cells[968:])
}

func TestEncodeFrame_Errors(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)

	t.Run("Nil raster", func(t *testing.T) {
		_, _, err := c.EncodeFrame(0, DetectionResult{})
		require.ErrorIs(t, err, errs.ErrNilRaster)
	})

	t.Run("Wrong resolution", func(t *testing.T) {
		r, err := raster.New(10, 10, 2)
		require.NoError(t, err)
		_, _, err = c.EncodeFrame(0, DetectionResult{Raster: r})
		require.ErrorIs(t, err, errs.ErrInvalidRaster)
	})

	t.Run("Level out of range", func(t *testing.T) {
		r, err := raster.New(DefaultWidth, DefaultHeight, 4)
		require.NoError(t, err)
		r.Cells[5] = 3
		_, _, err = c.EncodeFrame(0, DetectionResult{Raster: r})
		require.ErrorIs(t, err, errs.ErrLevelOutOfRange)
	})
}

func TestDecodePacket_NotValid(t *testing.T) {
	c, err := NewCodec()
	require.NoError(t, err)

	var p packet.Packet
	_, err = c.DecodePacket(&p)
	require.ErrorIs(t, err, errs.ErrPayloadUnavailable)
}

func TestEncodeStats_Ratio(t *testing.T) {
	require.Zero(t, EncodeStats{}.Ratio())
	require.InDelta(t, 0.25, EncodeStats{Used: 25, RawBytes: 100}.Ratio(), 1e-9)
}
