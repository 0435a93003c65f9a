package link

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cjy7811/rm-vision/compress"
	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/internal/hash"
	"github.com/cjy7811/rm-vision/internal/options"
	"github.com/cjy7811/rm-vision/internal/pool"
	"github.com/cjy7811/rm-vision/packet"
	"github.com/google/uuid"
)

// Packet log layout.
//
//	file header:    magic "RMPKLOG1" (8) | session id (16) | compression type (1)
//	segment header: packet count (2 BE) | raw length (4 BE) | compressed length (4 BE) | xxHash64 of raw (8 BE)
//	segment body:   compressed concatenation of count packets
const (
	LogMagic              = "RMPKLOG1"
	FileHeaderSize        = len(LogMagic) + 16 + 1
	SegmentHeaderSize     = 2 + 4 + 4 + 8
	DefaultSegmentPackets = 64
	MaxSegmentPackets     = 0xFFFF
)

type recorderConfig struct {
	compression format.CompressionType
	segment     int
	session     uuid.UUID
}

// RecorderOption configures a Recorder.
type RecorderOption = options.Option[*recorderConfig]

// WithCompression selects the segment codec. The default is Zstd.
func WithCompression(ct format.CompressionType) RecorderOption {
	return options.New(func(c *recorderConfig) error {
		if _, err := compress.GetCodec(ct); err != nil {
			return err
		}
		c.compression = ct

		return nil
	})
}

// WithSegmentPackets sets how many packets are compressed together.
func WithSegmentPackets(n int) RecorderOption {
	return options.New(func(c *recorderConfig) error {
		if n <= 0 || n > MaxSegmentPackets {
			return fmt.Errorf("%w: segment of %d packets", errs.ErrInvalidSegmentHeader, n)
		}
		c.segment = n

		return nil
	})
}

// WithSessionID overrides the random session id written to the file header.
func WithSessionID(id uuid.UUID) RecorderOption {
	return options.NoError(func(c *recorderConfig) {
		c.session = id
	})
}

// Recorder appends packets to a packet log. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer

	codec       compress.Codec
	compression format.CompressionType
	session     uuid.UUID
	segment     int

	buf     *pool.ByteBuffer
	pending int
	closed  bool

	packets  uint64
	segments uint64
}

var _ io.Closer = (*Recorder)(nil)

// NewRecorder writes a log header to w and returns a recorder appending to it.
// If w is an io.Closer, Close closes it.
//
// Returns:
//   - *Recorder: Recorder ready to accept packets
//   - error: Option validation or header write error
func NewRecorder(w io.Writer, opts ...RecorderOption) (*Recorder, error) {
	cfg := &recorderConfig{
		compression: format.CompressionZstd,
		segment:     DefaultSegmentPackets,
		session:     uuid.New(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.CreateCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	r := &Recorder{
		w:           bufio.NewWriterSize(w, 64*1024),
		codec:       codec,
		compression: cfg.compression,
		session:     cfg.session,
		segment:     cfg.segment,
		buf:         pool.NewByteBuffer(cfg.segment * packet.TotalSize),
	}
	if c, ok := w.(io.Closer); ok {
		r.closer = c
	}

	var header [FileHeaderSize]byte
	copy(header[:], LogMagic)
	copy(header[len(LogMagic):], r.session[:])
	header[FileHeaderSize-1] = uint8(r.compression)
	if _, err := r.w.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write packet log header: %w", err)
	}

	return r, nil
}

// CreateRecorder creates (or truncates) the file at path and records into it.
func CreateRecorder(path string, opts ...RecorderOption) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	r, err := NewRecorder(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	return r, nil
}

// SessionID returns the id written to the log header.
func (r *Recorder) SessionID() uuid.UUID { return r.session }

// Compression returns the segment codec type.
func (r *Recorder) Compression() format.CompressionType { return r.compression }

// Send buffers p and writes a segment once it is full.
func (r *Recorder) Send(_ context.Context, p packet.Packet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errs.ErrSinkClosed
	}

	_, _ = r.buf.Write(p[:])
	r.pending++
	r.packets++

	if r.pending < r.segment {
		return nil
	}

	return r.writeSegmentLocked()
}

// Flush writes any partial segment and flushes buffered output.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.flushLocked()
}

// Close flushes and closes the underlying writer when it is closable.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	err := r.flushLocked()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// Counts returns the number of packets accepted and segments written.
func (r *Recorder) Counts() (packets, segments uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.packets, r.segments
}

func (r *Recorder) flushLocked() error {
	if r.pending > 0 {
		if err := r.writeSegmentLocked(); err != nil {
			return err
		}
	}

	return r.w.Flush()
}

func (r *Recorder) writeSegmentLocked() error {
	raw := r.buf.Bytes()

	compressed, err := r.codec.Compress(raw)
	if err != nil {
		return fmt.Errorf("compress segment: %w", err)
	}

	var header [SegmentHeaderSize]byte
	binary.BigEndian.PutUint16(header[0:2], uint16(r.pending))
	binary.BigEndian.PutUint32(header[2:6], uint32(len(raw)))
	binary.BigEndian.PutUint32(header[6:10], uint32(len(compressed)))
	binary.BigEndian.PutUint64(header[10:18], hash.Checksum(raw))

	if _, err := r.w.Write(header[:]); err != nil {
		return fmt.Errorf("write segment header: %w", err)
	}
	if _, err := r.w.Write(compressed); err != nil {
		return fmt.Errorf("write segment: %w", err)
	}

	r.buf.Reset()
	r.pending = 0
	r.segments++

	return nil
}
