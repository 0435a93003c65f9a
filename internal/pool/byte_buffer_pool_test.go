package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer(t *testing.T) {
	bb := NewByteBuffer(4)
	require.Equal(t, 0, bb.Len())

	require.NoError(t, bb.WriteByte(0x0C))
	n, err := bb.Write([]byte{0x05, 0x09})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []byte{0x0C, 0x05, 0x09}, bb.Bytes())

	clone := bb.Clone()
	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.Equal(t, []byte{0x0C, 0x05, 0x09}, clone)
	require.Equal(t, []byte{}, bb.Clone())
}

func TestByteBufferPool(t *testing.T) {
	t.Run("returned buffers are empty", func(t *testing.T) {
		p := NewByteBufferPool(8, 0)
		bb := p.Get()
		_, _ = bb.Write([]byte("abc"))
		p.Put(bb)

		again := p.Get()
		require.Equal(t, 0, again.Len())
	})

	t.Run("oversized buffers are discarded", func(t *testing.T) {
		p := NewByteBufferPool(8, 16)
		bb := p.Get()
		_, _ = bb.Write(make([]byte, 64))
		p.Put(bb)

		again := p.Get()
		require.LessOrEqual(t, cap(again.B), 16)
	})

	t.Run("nil put is ignored", func(t *testing.T) {
		p := NewByteBufferPool(8, 0)
		require.NotPanics(t, func() { p.Put(nil) })
	})

	t.Run("shared stream pool", func(t *testing.T) {
		bb := GetStreamBuffer()
		require.NotNil(t, bb)
		require.GreaterOrEqual(t, cap(bb.B), StreamBufferDefaultSize)
		PutStreamBuffer(bb)
	})
}
