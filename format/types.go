package format

type (
	Strategy        uint8
	CompressionType uint8
)

const (
	StrategyPairRLE          Strategy = 0x1 // StrategyPairRLE represents [count][level] byte-pair runs over 2 levels.
	StrategyPackedRLE        Strategy = 0x2 // StrategyPackedRLE represents one (count<<2)|level byte per run over 4 levels.
	StrategyPackedRLEHuffman Strategy = 0x3 // StrategyPackedRLEHuffman represents packed runs followed by Huffman coding.

	CompressionNone    CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd    CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2      CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4     CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
	CompressionHuffman CompressionType = 0x5 // CompressionHuffman represents the adaptive Huffman codec.
)

func (s Strategy) String() string {
	switch s {
	case StrategyPairRLE:
		return "PairRLE"
	case StrategyPackedRLE:
		return "PackedRLE"
	case StrategyPackedRLEHuffman:
		return "PackedRLE+Huffman"
	default:
		return "Unknown"
	}
}

// Entropy reports whether the strategy applies the Huffman stage after RLE.
func (s Strategy) Entropy() bool {
	return s == StrategyPackedRLEHuffman
}

// Levels returns the number of quantization levels the strategy carries.
func (s Strategy) Levels() int {
	switch s {
	case StrategyPairRLE:
		return 2
	case StrategyPackedRLE, StrategyPackedRLEHuffman:
		return 4
	default:
		return 0
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionHuffman:
		return "Huffman"
	default:
		return "Unknown"
	}
}

// ParseStrategy maps a configuration name to a Strategy.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "pair", "PairRLE":
		return StrategyPairRLE, true
	case "packed", "PackedRLE":
		return StrategyPackedRLE, true
	case "packed+huffman", "PackedRLE+Huffman":
		return StrategyPackedRLEHuffman, true
	default:
		return 0, false
	}
}

// ParseCompression maps a configuration name to a CompressionType.
func ParseCompression(name string) (CompressionType, bool) {
	switch name {
	case "", "none", "None":
		return CompressionNone, true
	case "zstd", "Zstd":
		return CompressionZstd, true
	case "s2", "S2":
		return CompressionS2, true
	case "lz4", "LZ4":
		return CompressionLZ4, true
	case "huffman", "Huffman":
		return CompressionHuffman, true
	default:
		return 0, false
	}
}
