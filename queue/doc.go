// Package queue provides the bounded frame queue that hands frames from the
// capture goroutine to the processing goroutine.
//
// A Queue is a fixed-capacity ring guarded by one mutex and two condition
// variables (data available, space available). Push and Pop never block;
// PushWait and PopWait layer the waiting policy on top. Cancel sets a shared
// flag and wakes every waiter. Items already queued at cancellation can still
// be popped so the consumer can drain them.
//
// The queue is designed for exactly one producer and one consumer.
package queue
