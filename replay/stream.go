package replay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cjy7811/rm-vision/pipeline"
	"github.com/cjy7811/rm-vision/raster"
	"github.com/cjy7811/rm-vision/telemetry"
	"github.com/fxamacker/cbor/v2"
)

// Writer appends records to a CBOR sequence.
type Writer struct {
	mu     sync.Mutex
	bw     *bufio.Writer
	enc    *cbor.Encoder
	closer io.Closer
	seq    uint64
}

// NewWriter writes records to w. If w is an io.Closer, Close closes it.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	out := &Writer{bw: bw, enc: cbor.NewEncoder(bw)}
	if c, ok := w.(io.Closer); ok {
		out.closer = c
	}

	return out
}

// Create creates the file at path and writes records into it.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return NewWriter(f), nil
}

// Write appends res with the next sequence number.
func (w *Writer) Write(res telemetry.DetectionResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, err := FromResult(w.seq, res)
	if err != nil {
		return err
	}

	return w.writeLocked(rec)
}

// WriteRecord appends rec as-is.
func (w *Writer) WriteRecord(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writeLocked(rec)
}

func (w *Writer) writeLocked(rec Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode replay record %d: %w", rec.Seq, err)
	}
	w.seq = rec.Seq + 1

	return nil
}

// Close flushes buffered records and closes the underlying writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.bw.Flush()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}

	return err
}

// Reader plays records back in file order.
type Reader struct {
	dec    *cbor.Decoder
	closer io.Closer
}

var _ pipeline.Source[Record] = (*Reader)(nil)

// NewReader reads records from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(bufio.NewReader(r))}
}

// Open opens a replay file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	rd := NewReader(f)
	rd.closer = f

	return rd, nil
}

// Next returns the next record, or io.EOF at the end of the stream.
func (r *Reader) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}

		return Record{}, fmt.Errorf("decode replay record: %w", err)
	}

	return rec, nil
}

// Close releases the file opened by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

// Detector turns replay records into detection results. The detection step
// itself ran upstream; grayscale records are quantized here.
type Detector struct {
	// Cut is the binarization threshold for 2-level grayscale records.
	Cut uint8
}

var _ pipeline.Detector[Record] = Detector{}

// PassThrough returns a Detector using the default threshold.
func PassThrough() Detector {
	return Detector{Cut: raster.DefaultThreshold}
}

// Detect rebuilds the detection result stored in rec.
func (d Detector) Detect(rec Record) (telemetry.DetectionResult, error) {
	return rec.Result(d.Cut)
}
