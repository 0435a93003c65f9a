package entropy

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/internal/options"
)

const (
	// RawMarker is the first byte of a raw-bypass block.
	RawMarker = 0xFF
	// DefaultBypassThreshold is the input length at or below which tree coding is skipped.
	DefaultBypassThreshold = 200

	rawHeaderSize   = 5
	tableEntrySize  = 5
	lengthsSize     = 12
	maxTableSymbols = RawMarker - 1
)

// Codec compresses RLE streams with adaptive Huffman coding.
//
// A Codec is immutable after construction and safe for concurrent use; every
// Compress and Decompress call builds its own tree.
type Codec struct {
	bypassThreshold int
}

// Option configures a Codec.
type Option = options.Option[*Codec]

// WithBypassThreshold sets the input length at or below which data is stored raw.
func WithBypassThreshold(n int) Option {
	return options.New(func(c *Codec) error {
		if n < 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidBypassMin, n)
		}
		c.bypassThreshold = n

		return nil
	})
}

// New creates a Codec.
//
// Returns:
//   - *Codec: Codec with the default 200-byte bypass unless overridden
//   - error: ErrInvalidBypassMin for a negative threshold
func New(opts ...Option) (*Codec, error) {
	c := &Codec{bypassThreshold: DefaultBypassThreshold}
	if err := options.Apply(c, opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// NewDefault creates a Codec with the default bypass threshold.
func NewDefault() *Codec {
	return &Codec{bypassThreshold: DefaultBypassThreshold}
}

// BypassThreshold returns the configured raw-bypass threshold.
func (c *Codec) BypassThreshold() int {
	return c.bypassThreshold
}

// Compress encodes data. The result always decompresses back to data.
func (c *Codec) Compress(data []byte) []byte {
	if len(data) <= c.bypassThreshold || uint64(len(data)) > math.MaxUint32 {
		return encodeRaw(data)
	}

	var counts [256]uint32
	for _, b := range data {
		counts[b]++
	}

	table := make([]symbolFreq, 0, 16)
	for sym, n := range counts {
		if n > 0 {
			table = append(table, symbolFreq{symbol: uint8(sym), freq: n})
		}
	}
	if len(table) > maxTableSymbols {
		return encodeRaw(data)
	}

	codes := buildTree(table).codes()

	var bitLen uint64
	for _, e := range table {
		bitLen += uint64(e.freq) * uint64(codes[e.symbol].length)
	}
	packedLen := (bitLen + 7) / 8
	headerLen := 1 + tableEntrySize*len(table) + lengthsSize
	if uint64(headerLen)+packedLen >= uint64(rawHeaderSize+len(data)) || bitLen > math.MaxUint32 {
		return encodeRaw(data)
	}

	out := make([]byte, headerLen, uint64(headerLen)+packedLen)
	out[0] = uint8(len(table))
	off := 1
	for _, e := range table {
		out[off] = e.symbol
		binary.BigEndian.PutUint32(out[off+1:off+5], e.freq)
		off += tableEntrySize
	}
	binary.BigEndian.PutUint32(out[off:off+4], uint32(len(data)))
	binary.BigEndian.PutUint32(out[off+4:off+8], uint32(packedLen))
	binary.BigEndian.PutUint32(out[off+8:off+12], uint32(bitLen))

	w := bitWriter{out: out}
	for _, b := range data {
		cd := codes[b]
		w.writeBits(cd.bits, int(cd.length))
	}

	return w.finish()
}

// Decompress decodes a block produced by Compress. Malformed blocks yield an
// empty, non-nil slice.
func (c *Codec) Decompress(data []byte) []byte {
	return Decompress(data)
}

// Compress encodes data with the default bypass threshold.
func Compress(data []byte) []byte {
	return NewDefault().Compress(data)
}

// Decompress decodes a raw or Huffman block.
//
// Decoding stops after rawLen symbols or bitLen bits, whichever comes first.
func Decompress(data []byte) []byte {
	h, ok := parseHeader(data)
	if !ok {
		return []byte{}
	}

	if h.raw {
		out := make([]byte, h.rawLen)
		copy(out, data[rawHeaderSize:rawHeaderSize+int(h.rawLen)])

		return out
	}

	t := buildTree(h.table)
	packed := data[h.payloadOffset : h.payloadOffset+int(h.packedLen)]
	br := newBitReader(packed, uint64(h.bitLen))

	capHint := uint64(h.rawLen)
	if uint64(h.bitLen) < capHint {
		capHint = uint64(h.bitLen)
	}
	out := make([]byte, 0, capHint)

	cur := t.root
	for uint32(len(out)) < h.rawLen {
		bit, ok := br.readBit()
		if !ok {
			break
		}

		n := t.nodes[cur]
		if bit == 0 {
			cur = n.left
		} else {
			cur = n.right
		}
		if cur == noChild {
			return []byte{}
		}

		if t.nodes[cur].leaf {
			out = append(out, t.nodes[cur].symbol)
			cur = t.root
		}
	}

	return out
}

// Info describes a compressed block without decoding it.
type Info struct {
	Raw       bool
	RawLen    int
	TableSize int
	PackedLen int
	BitLen    int
	// Size is the number of bytes the block occupies, excluding trailing padding.
	Size int
}

// Inspect parses the block header.
//
// Returns:
//   - Info: Block description
//   - bool: False if the header is malformed
func Inspect(data []byte) (Info, bool) {
	h, ok := parseHeader(data)
	if !ok {
		return Info{}, false
	}
	if h.raw {
		return Info{Raw: true, RawLen: int(h.rawLen), Size: rawHeaderSize + int(h.rawLen)}, true
	}

	return Info{
		RawLen:    int(h.rawLen),
		TableSize: len(h.table),
		PackedLen: int(h.packedLen),
		BitLen:    int(h.bitLen),
		Size:      h.payloadOffset + int(h.packedLen),
	}, true
}

func encodeRaw(data []byte) []byte {
	out := make([]byte, rawHeaderSize+len(data))
	out[0] = RawMarker
	binary.BigEndian.PutUint32(out[1:5], uint32(len(data)))
	copy(out[rawHeaderSize:], data)

	return out
}

type header struct {
	raw           bool
	table         []symbolFreq
	rawLen        uint32
	packedLen     uint32
	bitLen        uint32
	payloadOffset int
}

// parseHeader validates every length against len(data) before any payload access.
func parseHeader(data []byte) (header, bool) {
	if len(data) == 0 {
		return header{}, false
	}

	if data[0] == RawMarker {
		if len(data) < rawHeaderSize {
			return header{}, false
		}
		n := binary.BigEndian.Uint32(data[1:5])
		if uint64(n) > uint64(len(data)-rawHeaderSize) {
			return header{}, false
		}

		return header{raw: true, rawLen: n}, true
	}

	size := int(data[0])
	if size == 0 {
		return header{}, false
	}
	lengthsOffset := 1 + size*tableEntrySize
	payloadOffset := lengthsOffset + lengthsSize
	if len(data) < payloadOffset {
		return header{}, false
	}

	table := make([]symbolFreq, size)
	for i := range table {
		off := 1 + i*tableEntrySize
		table[i] = symbolFreq{symbol: data[off], freq: binary.BigEndian.Uint32(data[off+1 : off+5])}
		if table[i].freq == 0 {
			return header{}, false
		}
		if i > 0 && table[i].symbol <= table[i-1].symbol {
			return header{}, false
		}
	}

	h := header{
		table:         table,
		rawLen:        binary.BigEndian.Uint32(data[lengthsOffset : lengthsOffset+4]),
		packedLen:     binary.BigEndian.Uint32(data[lengthsOffset+4 : lengthsOffset+8]),
		bitLen:        binary.BigEndian.Uint32(data[lengthsOffset+8 : lengthsOffset+12]),
		payloadOffset: payloadOffset,
	}
	if uint64(h.packedLen) > uint64(len(data)-payloadOffset) {
		return header{}, false
	}
	if uint64(h.bitLen) > uint64(h.packedLen)*8 {
		return header{}, false
	}

	return h, true
}
