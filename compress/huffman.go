package compress

import (
	"errors"

	"github.com/cjy7811/rm-vision/entropy"
)

var errCorruptHuffman = errors.New("huffman block is malformed")

// HuffmanCompressor applies the adaptive Huffman entropy coder to whole blocks.
type HuffmanCompressor struct {
	codec *entropy.Codec
}

var _ Codec = (*HuffmanCompressor)(nil)

// NewHuffmanCompressor creates a Huffman codec with the default raw-bypass threshold.
func NewHuffmanCompressor() HuffmanCompressor {
	return HuffmanCompressor{codec: entropy.NewDefault()}
}

// Compress encodes data. Blocks whose alphabet is too wide are stored raw.
func (c HuffmanCompressor) Compress(data []byte) ([]byte, error) {
	return c.codec.Compress(data), nil
}

// Decompress decodes a block. The entropy decoder never fails, so the header is
// validated first to tell a corrupt block from an empty one.
func (c HuffmanCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	info, ok := entropy.Inspect(data)
	if !ok {
		return nil, errCorruptHuffman
	}

	out := c.codec.Decompress(data)
	if len(out) != info.RawLen {
		return nil, errCorruptHuffman
	}

	return out, nil
}
