package link

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/packet"
	"go.bug.st/serial"
)

// SerialSink writes packets to a byte stream, one whole packet per write.
type SerialSink struct {
	mu     sync.Mutex
	port   io.WriteCloser
	closed bool
	sent   uint64
}

// OpenSerial opens the serial device at path.
//
// Parameters:
//   - path: Device path, e.g. /dev/ttyUSB0
//   - opts: Line settings; zero fields default to 115200 8N1
//
// Returns:
//   - *SerialSink: Sink writing to the opened port
//   - error: Option validation or port open error
func OpenSerial(path string, opts PortOptions) (*SerialSink, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", path, err)
	}

	return NewPortSink(port), nil
}

// NewPortSink wraps an already open stream.
func NewPortSink(port io.WriteCloser) *SerialSink {
	return &SerialSink{port: port}
}

// Send writes p. A partial write is reported as ErrShortWrite; the receiver
// resynchronizes on packet boundaries, so the remainder is not retried.
func (s *SerialSink) Send(_ context.Context, p packet.Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errs.ErrSinkClosed
	}

	n, err := s.port.Write(p[:])
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != packet.TotalSize {
		return fmt.Errorf("%w: %d of %d bytes", errs.ErrShortWrite, n, packet.TotalSize)
	}
	s.sent++

	return nil
}

// Sent returns the number of packets written.
func (s *SerialSink) Sent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sent
}

// Close closes the port. Later sends fail with ErrSinkClosed.
func (s *SerialSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.port.Close()
}
