package packet

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlag(t *testing.T) {
	var f Flag
	require.False(t, f.IsValid())
	require.False(t, f.IsTruncated())

	f = f.WithValid()
	require.True(t, f.IsValid())
	require.False(t, f.IsTruncated())
	require.Equal(t, Flag(0x01), f)

	f = f.WithTruncated(true)
	require.True(t, f.IsTruncated())
	require.Equal(t, Flag(0x03), f)

	f = f.WithTruncated(false)
	require.False(t, f.IsTruncated())
	require.True(t, f.IsValid())
}
