package raster

import (
	"testing"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New(4, 3, 2)
	require.NoError(t, err)
	require.Equal(t, 12, r.Size())
	require.Len(t, r.Cells, 12)

	_, err = New(4, 3, 3)
	require.ErrorIs(t, err, errs.ErrInvalidLevels)

	_, err = New(-1, 3, 2)
	require.ErrorIs(t, err, errs.ErrInvalidRaster)
}

func TestFromRows(t *testing.T) {
	r, err := FromRows(4,
		[]uint8{0, 1, 2},
		[]uint8{3, 2, 1},
	)
	require.NoError(t, err)
	require.Equal(t, 3, r.Width)
	require.Equal(t, 2, r.Height)
	require.Equal(t, uint8(3), r.At(0, 1))

	r.Set(2, 1, 0)
	require.Equal(t, uint8(0), r.At(2, 1))

	_, err = FromRows(2, []uint8{0, 1}, []uint8{1})
	require.ErrorIs(t, err, errs.ErrInvalidRaster)

	_, err = FromRows(2, []uint8{0, 2})
	require.ErrorIs(t, err, errs.ErrLevelOutOfRange)
}

func TestRaster_EqualClone(t *testing.T) {
	r, err := FromRows(2, []uint8{0, 1, 1, 0})
	require.NoError(t, err)

	c := r.Clone()
	require.True(t, r.Equal(c))

	c.Cells[0] = 1
	require.False(t, r.Equal(c))
	require.Equal(t, uint8(0), r.Cells[0])

	var nilRaster *Raster
	require.True(t, nilRaster.Equal(nil))
	require.False(t, r.Equal(nil))
}

func TestRaster_Render(t *testing.T) {
	two, _ := FromRows(2, []uint8{0, 1})
	require.Equal(t, []uint8{0, 255}, two.Render())

	four, _ := FromRows(4, []uint8{0, 1, 2, 3})
	require.Equal(t, []uint8{0, 85, 170, 255}, four.Render())
}

func TestThreshold(t *testing.T) {
	r, err := Threshold([]uint8{0, 128, 129, 255}, 2, 2, DefaultThreshold)
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 0, 1, 1}, r.Cells)
	require.Equal(t, 2, r.Levels)

	_, err = Threshold([]uint8{1, 2, 3}, 2, 2, DefaultThreshold)
	require.ErrorIs(t, err, errs.ErrInvalidRaster)
}

func TestQuantize(t *testing.T) {
	r, err := Quantize([]uint8{0, 63, 64, 127, 128, 191, 192, 255}, 8, 1, 4)
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 0, 1, 1, 2, 2, 3, 3}, r.Cells)

	_, err = Quantize([]uint8{0}, 1, 1, 8)
	require.ErrorIs(t, err, errs.ErrInvalidLevels)
}
