// Package link holds the transport collaborators that consume framed packets.
//
//   - SerialSink writes each packet whole to a serial port.
//   - Recorder appends packets to a compressed, checksummed packet log;
//     LogReader reads one back.
//   - PreviewHub broadcasts packets to websocket clients for local preview.
//   - MultiSink fans one packet out to several sinks.
//
// Every sink implements pipeline.Sink.
package link
