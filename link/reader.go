package link

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/cjy7811/rm-vision/compress"
	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/internal/hash"
	"github.com/cjy7811/rm-vision/packet"
	"github.com/google/uuid"
)

// maxCompressedSegment bounds compressed segment reads from untrusted files.
const maxCompressedSegment = 2 * MaxSegmentPackets * packet.TotalSize

// LogReader reads a packet log written by Recorder.
type LogReader struct {
	r           *bufio.Reader
	closer      io.Closer
	session     uuid.UUID
	compression format.CompressionType
	codec       compress.Codec
}

// NewLogReader reads and validates the log header.
//
// Returns:
//   - *LogReader: Reader positioned at the first segment
//   - error: ErrInvalidMagicNumber, ErrUnsupportedCompression or a read error
func NewLogReader(r io.Reader) (*LogReader, error) {
	br := bufio.NewReader(r)

	var header [FileHeaderSize]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("read packet log header: %w", err)
	}
	if !bytes.Equal(header[:len(LogMagic)], []byte(LogMagic)) {
		return nil, errs.ErrInvalidMagicNumber
	}

	session, err := uuid.FromBytes(header[len(LogMagic) : len(LogMagic)+16])
	if err != nil {
		return nil, fmt.Errorf("read session id: %w", err)
	}

	ct := format.CompressionType(header[FileHeaderSize-1])
	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, err
	}

	return &LogReader{r: br, session: session, compression: ct, codec: codec}, nil
}

// OpenLog opens a packet log file. Close releases the file.
func OpenLog(path string) (*LogReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	lr, err := NewLogReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	lr.closer = f

	return lr, nil
}

// SessionID returns the recorder session id.
func (l *LogReader) SessionID() uuid.UUID { return l.session }

// Compression returns the segment codec type.
func (l *LogReader) Compression() format.CompressionType { return l.compression }

// Close releases the file opened by OpenLog.
func (l *LogReader) Close() error {
	if l.closer == nil {
		return nil
	}

	return l.closer.Close()
}

// NextSegment reads, verifies and splits the next segment.
//
// Returns:
//   - []packet.Packet: Packets of the segment in recording order
//   - error: io.EOF at a clean end of log, io.ErrUnexpectedEOF for a torn
//     segment, ErrInvalidSegmentHeader or ErrChecksumMismatch for corruption
func (l *LogReader) NextSegment() ([]packet.Packet, error) {
	var header [SegmentHeaderSize]byte
	if _, err := io.ReadFull(l.r, header[:]); err != nil {
		return nil, err
	}

	count := int(binary.BigEndian.Uint16(header[0:2]))
	rawLen := int(binary.BigEndian.Uint32(header[2:6]))
	compLen := int(binary.BigEndian.Uint32(header[6:10]))
	sum := binary.BigEndian.Uint64(header[10:18])

	if count == 0 || rawLen != count*packet.TotalSize || compLen > maxCompressedSegment {
		return nil, fmt.Errorf("%w: count=%d raw=%d compressed=%d", errs.ErrInvalidSegmentHeader, count, rawLen, compLen)
	}

	body := make([]byte, compLen)
	if _, err := io.ReadFull(l.r, body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}

		return nil, err
	}

	raw, err := l.codec.Decompress(body)
	if err != nil {
		return nil, fmt.Errorf("decompress segment: %w", err)
	}
	if len(raw) != rawLen {
		return nil, fmt.Errorf("%w: decompressed %d bytes, header says %d", errs.ErrInvalidSegmentHeader, len(raw), rawLen)
	}
	if !hash.Verify(raw, sum) {
		return nil, errs.ErrChecksumMismatch
	}

	out := make([]packet.Packet, count)
	for i := range out {
		copy(out[i][:], raw[i*packet.TotalSize:])
	}

	return out, nil
}

// All iterates every packet in the log. A read or verification failure is
// yielded once with a zero packet and ends the iteration.
func (l *LogReader) All() iter.Seq2[packet.Packet, error] {
	return func(yield func(packet.Packet, error) bool) {
		for {
			segment, err := l.NextSegment()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(packet.Packet{}, err)
				return
			}

			for _, p := range segment {
				if !yield(p, nil) {
					return
				}
			}
		}
	}
}
