// Package pipeline wires a frame source, a detector and a packet sink around
// the bounded frame queue.
//
// In live mode a producer goroutine pulls frames from the Source, applies the
// frame-skip stride and pushes them into the queue; a consumer goroutine pops
// frames and runs detection, encoding, framing and sending outside the queue
// lock. In replay mode one synchronous loop runs the same processing step
// without the queue.
//
// Every per-frame failure becomes an Outcome. The loop logs it, counts it and
// moves on to the next frame.
package pipeline
