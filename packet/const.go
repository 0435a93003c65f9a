package packet

// Wire layout sizes and offsets.
const (
	TotalSize     = 300 // every packet on the wire is exactly this long
	HeaderSize    = 16  // seq, flags, width, height and the detection triples
	PayloadSize   = 275 // compressed raster region, zero-padded
	ReservedSize  = 9   // trailing zero bytes
	MaxDetections = 4   // detection slots per packet
	DetectionSize = 3   // x, y, r

	SeqOffset        = 0
	FlagsOffset      = 1
	WidthOffset      = 2
	HeightOffset     = 3
	DetectionsOffset = 4
	PayloadOffset    = HeaderSize
	ReservedOffset   = PayloadOffset + PayloadSize
)

// Flag bits.
const (
	FlagValid     Flag = 0x01 // payload holds a compressed raster
	FlagTruncated Flag = 0x02 // raster encoding was cut short to fit PayloadSize
)

// The layout must add up to TotalSize; a mismatch makes one of these array
// lengths negative and fails the build.
var (
	_ [TotalSize - (HeaderSize + PayloadSize + ReservedSize)]struct{}
	_ [(HeaderSize + PayloadSize + ReservedSize) - TotalSize]struct{}
	_ [HeaderSize - (DetectionsOffset + MaxDetections*DetectionSize)]struct{}
	_ [(DetectionsOffset + MaxDetections*DetectionSize) - HeaderSize]struct{}
)
