// Package packet implements the fixed 300-byte telemetry packet.
//
// A packet carries a wrapping sequence number, a flags byte, the raster
// dimensions, up to four detections and a zero-padded compressed raster
// payload. The size is part of the Packet type so every value that reaches
// the wire is exactly TotalSize bytes.
package packet
