package replay

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/raster"
	"github.com/cjy7811/rm-vision/telemetry"
)

func testResult(t *testing.T, phase int) telemetry.DetectionResult {
	t.Helper()

	cells := make([]uint8, 12*8)
	for i := range cells {
		if (i+phase)%5 == 0 {
			cells[i] = 1
		}
	}
	ras, err := raster.FromCells(12, 8, 2, cells)
	require.NoError(t, err)

	return telemetry.DetectionResult{
		Raster:       ras,
		Circles:      []telemetry.Circle{{X: 100.5, Y: 40, R: 12}},
		SourceWidth:  640,
		SourceHeight: 480,
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	want := []telemetry.DetectionResult{testResult(t, 0), testResult(t, 1), testResult(t, 2)}
	for _, res := range want {
		require.NoError(t, w.Write(res))
	}
	require.NoError(t, w.Close())

	r := NewReader(&buf)
	ctx := context.Background()
	det := PassThrough()
	for i, res := range want {
		rec, err := r.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(i), rec.Seq)

		got, err := det.Detect(rec)
		require.NoError(t, err)
		require.True(t, got.Raster.Equal(res.Raster))
		require.Empty(t, cmp.Diff(res.Circles, got.Circles))
		require.Equal(t, 640, got.SourceWidth)
		require.Equal(t, 480, got.SourceHeight)
	}

	_, err := r.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestEmptyStream(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	_, err := r.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestReaderHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReader(bytes.NewReader(nil))
	_, err := r.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCorruptStream(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xbf, 0x01}))
	_, err := r.Next(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
}

func TestGrayRecords(t *testing.T) {
	gray := []byte{0, 100, 128, 129, 200, 255}

	t.Run("threshold", func(t *testing.T) {
		res, err := Detector{Cut: 128}.Detect(Record{Width: 3, Height: 2, Levels: 2, Gray: gray})
		require.NoError(t, err)
		require.Equal(t, []uint8{0, 0, 0, 1, 1, 1}, res.Raster.Cells)
	})

	t.Run("quantize", func(t *testing.T) {
		res, err := PassThrough().Detect(Record{Width: 3, Height: 2, Levels: 4, Gray: gray})
		require.NoError(t, err)
		require.Equal(t, []uint8{0, 1, 2, 2, 3, 3}, res.Raster.Cells)
	})

	t.Run("size mismatch", func(t *testing.T) {
		_, err := PassThrough().Detect(Record{Width: 4, Height: 2, Levels: 2, Gray: gray})
		require.ErrorIs(t, err, errs.ErrInvalidRaster)
	})
}

func TestEmptyRecordIsBlankRaster(t *testing.T) {
	res, err := PassThrough().Detect(Record{Width: 4, Height: 3, Levels: 2})
	require.NoError(t, err)
	require.Len(t, res.Raster.Cells, 12)
	require.Empty(t, res.Circles)
}

func TestFromResultNilRaster(t *testing.T) {
	_, err := FromResult(0, telemetry.DetectionResult{})
	require.ErrorIs(t, err, errs.ErrNilRaster)
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.cbor")
	w, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRecord(Record{Seq: 7, Width: 2, Height: 1, Levels: 4, Cells: []byte{3, 1}}))
	require.NoError(t, w.Write(testResult(t, 0)))
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	first, err := r.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(7), first.Seq)
	require.Equal(t, []byte{3, 1}, first.Cells)

	second, err := r.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(8), second.Seq)
}
