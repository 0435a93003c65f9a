package compress

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/format"
	"github.com/stretchr/testify/require"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
	format.CompressionHuffman,
}

// packetLikeBlock mimics a recorder segment: short headers and RLE payloads
// followed by long zero runs.
func packetLikeBlock(rng *rand.Rand, packets int) []byte {
	out := make([]byte, 0, packets*300)
	for i := 0; i < packets; i++ {
		p := make([]byte, 300)
		p[0] = byte(i)
		p[1] = 0x01
		p[2], p[3] = 120, 80
		for j := 16; j < 16+40+rng.Intn(60); j += 2 {
			p[j] = byte(1 + rng.Intn(200))
			p[j+1] = byte(rng.Intn(2))
		}
		out = append(out, p...)
	}

	return out
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range allTypes {
		c, err := CreateCodec(ct)
		require.NoError(t, err, ct.String())
		require.NotNil(t, c)

		shared, err := GetCodec(ct)
		require.NoError(t, err)
		require.NotNil(t, shared)
	}

	_, err := CreateCodec(format.CompressionType(0x7E))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	_, err = GetCodec(format.CompressionType(0))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestCodec_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	inputs := map[string][]byte{
		"small":      []byte("rm-vision"),
		"segment":    packetLikeBlock(rng, 64),
		"one packet": packetLikeBlock(rng, 1),
		"zeros":      make([]byte, 4096),
	}

	for _, ct := range allTypes {
		codec, err := CreateCodec(ct)
		require.NoError(t, err)

		for name, data := range inputs {
			t.Run(ct.String()+"/"+name, func(t *testing.T) {
				compressed, err := codec.Compress(data)
				require.NoError(t, err)

				got, err := codec.Decompress(compressed)
				require.NoError(t, err)
				require.True(t, bytes.Equal(data, got))
			})
		}
	}
}

func TestCodec_ShrinksSegments(t *testing.T) {
	data := packetLikeBlock(rand.New(rand.NewSource(3)), 64)

	for _, ct := range allTypes[1:] {
		codec, err := CreateCodec(ct)
		require.NoError(t, err)

		_, stats, err := Measure(codec, ct, data)
		require.NoError(t, err)
		require.Equal(t, ct, stats.Algorithm)
		require.Equal(t, int64(len(data)), stats.OriginalSize)
		require.Less(t, stats.Ratio(), 0.5, ct.String())
		require.Greater(t, stats.SpaceSavings(), 50.0)
	}
}

func TestCodec_Empty(t *testing.T) {
	for _, ct := range []format.CompressionType{format.CompressionS2, format.CompressionLZ4} {
		codec, err := CreateCodec(ct)
		require.NoError(t, err)

		out, err := codec.Compress(nil)
		require.NoError(t, err)
		require.Nil(t, out)

		out, err = codec.Decompress(nil)
		require.NoError(t, err)
		require.Nil(t, out)
	}
}

func TestCodec_CorruptInput(t *testing.T) {
	garbage := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07}

	for _, ct := range []format.CompressionType{format.CompressionZstd, format.CompressionS2, format.CompressionHuffman} {
		codec, err := CreateCodec(ct)
		require.NoError(t, err)

		_, err = codec.Decompress(garbage)
		require.Error(t, err, ct.String())
	}
}

func TestHuffmanCompressor_TruncatedBlock(t *testing.T) {
	data := packetLikeBlock(rand.New(rand.NewSource(5)), 8)
	c := NewHuffmanCompressor()

	compressed, err := c.Compress(data)
	require.NoError(t, err)

	_, err = c.Decompress(compressed[:len(compressed)/2])
	require.Error(t, err)
}

func TestStats_Ratio(t *testing.T) {
	require.Zero(t, Stats{}.Ratio())
	s := Stats{OriginalSize: 200, CompressedSize: 50}
	require.InDelta(t, 0.25, s.Ratio(), 1e-9)
	require.InDelta(t, 75.0, s.SpaceSavings(), 1e-9)
}

func BenchmarkCompressSegment(b *testing.B) {
	data := packetLikeBlock(rand.New(rand.NewSource(1)), 64)

	for _, ct := range allTypes {
		codec, _ := CreateCodec(ct)
		b.Run(ct.String(), func(b *testing.B) {
			b.SetBytes(int64(len(data)))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = codec.Compress(data)
			}
		})
	}
}
