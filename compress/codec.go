package compress

import (
	"fmt"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/format"
)

// Compressor compresses one block.
//
// The returned slice is owned by the caller. The input is never modified.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a block produced by the matching Compressor.
// Corrupted input yields an error, never a partial block.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

// Stats describes one compressed block.
type Stats struct {
	Algorithm      format.CompressionType
	OriginalSize   int64
	CompressedSize int64
}

// Ratio returns compressed size over original size, 0 for an empty block.
func (s Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the saved fraction as a percentage.
func (s Stats) SpaceSavings() float64 {
	return (1.0 - s.Ratio()) * 100.0
}

// CreateCodec returns a codec for the given compression type.
//
// Parameters:
//   - compressionType: Block compression algorithm
//
// Returns:
//   - Codec: Codec instance
//   - error: ErrUnsupportedCompression for unknown types
func CreateCodec(compressionType format.CompressionType) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case format.CompressionHuffman:
		return NewHuffmanCompressor(), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:    NewNoOpCompressor(),
	format.CompressionZstd:    NewZstdCompressor(),
	format.CompressionS2:      NewS2Compressor(),
	format.CompressionLZ4:     NewLZ4Compressor(),
	format.CompressionHuffman: NewHuffmanCompressor(),
}

// GetCodec returns the shared built-in codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, compressionType)
}

// Measure compresses data with codec and reports the block sizes.
func Measure(codec Compressor, algorithm format.CompressionType, data []byte) ([]byte, Stats, error) {
	out, err := codec.Compress(data)
	if err != nil {
		return nil, Stats{}, err
	}

	return out, Stats{
		Algorithm:      algorithm,
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(len(out)),
	}, nil
}
