package entropy

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/stretchr/testify/require"
)

// skewedStream mimics a packed RLE stream: a few run bytes dominate.
func skewedStream(rng *rand.Rand, n int) []byte {
	common := []byte{0xFC, 0xFD, 0x04, 0x05, 0x08}
	out := make([]byte, n)
	for i := range out {
		if rng.Intn(10) < 8 {
			out[i] = common[rng.Intn(len(common))]
		} else {
			out[i] = byte(rng.Intn(8) << 2)
		}
	}

	return out
}

func TestNew(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	require.Equal(t, DefaultBypassThreshold, c.BypassThreshold())

	c, err = New(WithBypassThreshold(16))
	require.NoError(t, err)
	require.Equal(t, 16, c.BypassThreshold())

	_, err = New(WithBypassThreshold(-1))
	require.ErrorIs(t, err, errs.ErrInvalidBypassMin)
}

func TestCompress_RawBypass(t *testing.T) {
	data := []byte{0x0C, 0x05}
	out := Compress(data)

	require.Equal(t, []byte{RawMarker, 0, 0, 0, 2, 0x0C, 0x05}, out)
	require.Equal(t, data, Decompress(out))

	boundary := bytes.Repeat([]byte{7}, DefaultBypassThreshold)
	out = Compress(boundary)
	require.Equal(t, byte(RawMarker), out[0])
	require.Equal(t, boundary, Decompress(out))
}

func TestCompress_TreeBranch(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{201, 256, 1000, 4096} {
		data := skewedStream(rng, n)
		out := Compress(data)

		require.NotEqual(t, byte(RawMarker), out[0], "len %d should use the tree", n)
		require.Less(t, len(out), len(data))
		require.Equal(t, data, Decompress(out))

		info, ok := Inspect(out)
		require.True(t, ok)
		require.False(t, info.Raw)
		require.Equal(t, n, info.RawLen)
		require.Equal(t, len(out), info.Size)
		require.Equal(t, (info.BitLen+7)/8, info.PackedLen)
	}
}

func TestCompress_SingleSymbol(t *testing.T) {
	data := bytes.Repeat([]byte{0xFC}, 300)
	out := Compress(data)

	require.Equal(t, byte(1), out[0])
	info, ok := Inspect(out)
	require.True(t, ok)
	require.Equal(t, 300, info.BitLen, "one-bit code per symbol")
	require.Equal(t, data, Decompress(out))

	// Every code is 0, so the packed region is all zero bits.
	packed := out[info.Size-info.PackedLen:]
	require.Equal(t, make([]byte, info.PackedLen), packed)
}

func TestCompress_Layout(t *testing.T) {
	data := append(bytes.Repeat([]byte{'a'}, 150), bytes.Repeat([]byte{'b'}, 60)...)
	out := Compress(data)

	require.Equal(t, byte(2), out[0])
	require.Equal(t, byte('a'), out[1])
	require.Equal(t, uint32(150), binary.BigEndian.Uint32(out[2:6]))
	require.Equal(t, byte('b'), out[6])
	require.Equal(t, uint32(60), binary.BigEndian.Uint32(out[7:11]))
	require.Equal(t, uint32(210), binary.BigEndian.Uint32(out[11:15]))
	require.Equal(t, uint32(27), binary.BigEndian.Uint32(out[15:19]))
	require.Equal(t, uint32(210), binary.BigEndian.Uint32(out[19:23]))
	require.Len(t, out, 23+27)

	// 'b' is lighter, taken first, and so owns the 0 branch: 150 ones then 60 zeros.
	require.Equal(t, byte(0xFF), out[23])
	require.Equal(t, byte(0x00), out[len(out)-1]&0x03, "unused low bits are zero")
	require.Equal(t, data, Decompress(out))
}

func TestCompress_FallsBackToRawWhenTreeDoesNotShrink(t *testing.T) {
	data := make([]byte, 254)
	for i := range data {
		data[i] = byte(i)
	}
	out := Compress(data)
	require.Equal(t, byte(RawMarker), out[0])
	require.Equal(t, data, Decompress(out))

	every := make([]byte, 512)
	for i := range every {
		every[i] = byte(i)
	}
	out = Compress(every)
	require.Equal(t, byte(RawMarker), out[0])
	require.Equal(t, every, Decompress(out))
}

func TestBuildTree_Deterministic(t *testing.T) {
	// Equal frequencies everywhere: the shape depends only on the tie-break rule.
	table := []symbolFreq{{1, 5}, {2, 5}, {3, 5}, {4, 5}, {9, 10}}
	a := buildTree(table).codes()
	b := buildTree(append([]symbolFreq(nil), table...)).codes()
	require.Equal(t, a, b)

	// Lower symbols merge first: (1,2) then (3,4), then those two pairs beat the
	// lone 9 on the symbol tie-break, leaving 9 alone on the 0 branch of the root.
	require.Equal(t, uint8(1), a[9].length)
	for _, sym := range []uint8{1, 2, 3, 4} {
		require.Equal(t, uint8(3), a[sym].length)
	}
	require.Less(t, a[1].bits, a[2].bits, "first popped node takes the 0 branch")
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		n := 1 + rng.Intn(1200)
		data := make([]byte, n)
		alphabet := 1 + rng.Intn(40)
		for j := range data {
			data[j] = byte(rng.Intn(alphabet) * 3)
		}
		require.Equal(t, data, Decompress(Compress(data)))
	}
}

func TestDecompress_TrailingPadding(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := skewedStream(rng, 400)
	padded := append(Compress(data), make([]byte, 40)...)
	require.Equal(t, data, Decompress(padded))

	raw := append(Compress([]byte{1, 2, 3}), make([]byte, 10)...)
	require.Equal(t, []byte{1, 2, 3}, Decompress(raw))
}

func TestDecompress_Malformed(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	valid := Compress(skewedStream(rng, 500))

	require.NotEqual(t, byte(RawMarker), valid[0])

	cases := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short raw header", []byte{RawMarker, 0, 0}},
		{"raw length too big", []byte{RawMarker, 0, 0, 0, 9, 1, 2}},
		{"zero table", make([]byte, 13)},
		{"short table", []byte{3, 1, 0, 0, 0, 1}},
		{"table without lengths", valid[:1+int(valid[0])*tableEntrySize+4]},
		{"packed past buffer", valid[:len(valid)-1]},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := Decompress(tc.data)
			require.NotNil(t, out)
			require.Empty(t, out)
		})
	}

	t.Run("bit length longer than packed bytes", func(t *testing.T) {
		bad := append([]byte(nil), valid...)
		off := 1 + int(bad[0])*tableEntrySize + 8
		binary.BigEndian.PutUint32(bad[off:off+4], binary.BigEndian.Uint32(bad[off-4:off])*8+1)
		require.Empty(t, Decompress(bad))
	})

	t.Run("duplicate table symbol", func(t *testing.T) {
		bad := append([]byte(nil), valid...)
		bad[1+tableEntrySize] = bad[1]
		require.Empty(t, Decompress(bad))
	})

	t.Run("invalid path through single symbol tree", func(t *testing.T) {
		block := Compress(bytes.Repeat([]byte{4}, 250))
		info, _ := Inspect(block)
		block[info.Size-info.PackedLen] = 0x80
		require.Empty(t, Decompress(block))
	})
}

func TestDecompress_StopsAtBitLen(t *testing.T) {
	block := Compress(bytes.Repeat([]byte{4}, 250))
	off := 1 + tableEntrySize + 8
	binary.BigEndian.PutUint32(block[off:off+4], 10)

	require.Equal(t, bytes.Repeat([]byte{4}, 10), Decompress(block))
}

func TestInspect(t *testing.T) {
	info, ok := Inspect(Compress([]byte{1, 2}))
	require.True(t, ok)
	require.True(t, info.Raw)
	require.Equal(t, 2, info.RawLen)
	require.Equal(t, 7, info.Size)

	_, ok = Inspect(nil)
	require.False(t, ok)
}
