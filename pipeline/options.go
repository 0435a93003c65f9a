package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/internal/options"
)

// DefaultPollInterval bounds how long the consumer waits for a frame before
// rechecking cancellation.
const DefaultPollInterval = 50 * time.Millisecond

type settings struct {
	capacity       int
	skipStride     int
	pollInterval   time.Duration
	frameInterval  time.Duration
	reportInterval time.Duration
	logger         *slog.Logger
	stats          *Stats
}

func defaultSettings() *settings {
	return &settings{
		capacity:       100,
		skipStride:     1,
		pollInterval:   DefaultPollInterval,
		reportInterval: DefaultReportInterval,
	}
}

// Option configures a Pipeline.
type Option = options.Option[*settings]

// WithQueueCapacity sets the live-mode queue capacity (default 100).
func WithQueueCapacity(n int) Option {
	return options.New(func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidCapacity, n)
		}
		s.capacity = n

		return nil
	})
}

// WithSkipStride keeps every n-th source frame; 1 keeps all of them.
func WithSkipStride(n int) Option {
	return options.New(func(s *settings) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidSkipStride, n)
		}
		s.skipStride = n

		return nil
	})
}

// WithPollInterval sets the consumer wait timeout.
func WithPollInterval(d time.Duration) Option {
	return options.NoError(func(s *settings) {
		if d > 0 {
			s.pollInterval = d
		}
	})
}

// WithFrameInterval paces replay mode so each frame takes at least d.
func WithFrameInterval(d time.Duration) Option {
	return options.NoError(func(s *settings) {
		s.frameInterval = d
	})
}

// WithReportInterval sets how often statistics are logged; zero disables reports.
func WithReportInterval(d time.Duration) Option {
	return options.NoError(func(s *settings) {
		s.reportInterval = d
	})
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return options.NoError(func(s *settings) {
		s.logger = l
	})
}

// WithStats shares an existing statistics reporter, e.g. with a preview server.
func WithStats(st *Stats) Option {
	return options.NoError(func(s *settings) {
		s.stats = st
	})
}
