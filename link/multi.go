package link

import (
	"context"
	"errors"
	"io"

	"github.com/cjy7811/rm-vision/packet"
	"github.com/cjy7811/rm-vision/pipeline"
)

// MultiSink sends every packet to each of its sinks in order.
type MultiSink struct {
	sinks []pipeline.Sink
}

var _ pipeline.Sink = (*MultiSink)(nil)

// NewMultiSink creates a fan-out sink. Nil sinks are skipped.
func NewMultiSink(sinks ...pipeline.Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}

	return m
}

// Len returns the number of sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

// Send delivers p to every sink, even after one fails, and joins the errors.
func (m *MultiSink) Send(ctx context.Context, p packet.Packet) error {
	var errList []error
	for _, s := range m.sinks {
		if err := s.Send(ctx, p); err != nil {
			errList = append(errList, err)
		}
	}

	return errors.Join(errList...)
}

// Close closes every sink that implements io.Closer.
func (m *MultiSink) Close() error {
	var errList []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errList = append(errList, err)
			}
		}
	}

	return errors.Join(errList...)
}
