// Package errs defines the sentinel errors shared across the telemetry link packages.
//
// Callers compare with errors.Is; producers wrap with fmt.Errorf("...: %w", err)
// when additional context helps.
package errs

import "errors"

// Raster and RLE errors.
var (
	ErrInvalidRaster    = errors.New("invalid raster: dimensions do not match cell count")
	ErrInvalidLevels    = errors.New("invalid raster levels: must be 2 or 4")
	ErrLevelOutOfRange  = errors.New("raster level out of range for codec")
	ErrUnknownStrategy  = errors.New("unknown encoding strategy")
	ErrNilRaster        = errors.New("raster is nil")
	ErrInvalidBypassMin = errors.New("invalid raw bypass threshold")
)

// Packet errors.
var (
	ErrPayloadTooLarge    = errors.New("compressed payload exceeds packet payload capacity")
	ErrInvalidDimensions  = errors.New("raster dimensions do not fit in packet header")
	ErrInvalidPacketSize  = errors.New("invalid packet size")
	ErrPayloadUnavailable = errors.New("packet payload is not marked valid")
)

// Queue and pipeline errors.
var (
	ErrInvalidCapacity   = errors.New("queue capacity must be positive")
	ErrInvalidSkipStride = errors.New("frame skip stride must be positive")
	ErrPipelineCancelled = errors.New("pipeline cancelled")
	ErrNilCollaborator   = errors.New("pipeline source, detector and sink are required")
	ErrFrameSkipped      = errors.New("frame skipped by detector")
	ErrPipelineStarted   = errors.New("pipeline already started")
)

// Transport and recorder errors.
var (
	ErrShortWrite             = errors.New("short write to transport")
	ErrInvalidMagicNumber     = errors.New("invalid packet log magic number")
	ErrInvalidSegmentHeader   = errors.New("invalid packet log segment header")
	ErrChecksumMismatch       = errors.New("packet log segment checksum mismatch")
	ErrUnsupportedCompression = errors.New("unsupported compression type")
	ErrSinkClosed             = errors.New("sink is closed")
)
