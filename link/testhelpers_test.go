package link

import (
	"bytes"
	"testing"

	"github.com/cjy7811/rm-vision/packet"
	"github.com/stretchr/testify/require"
)

func testPacket(t *testing.T, seq int) packet.Packet {
	t.Helper()

	payload := bytes.Repeat([]byte{byte(seq), 1}, 1+seq%40)
	p, err := packet.Frame(uint32(seq), []packet.Detection{{X: uint8(seq), Y: 40, R: 3}}, payload, 120, 80, seq%7 == 0)
	require.NoError(t, err)

	return p
}

// bufferCloser records writes and whether Close was called.
type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}
