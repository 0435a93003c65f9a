package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cjy7811/rm-vision/packet"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultReportInterval is how often the statistics reporter logs a summary.
const DefaultReportInterval = 5 * time.Second

// Snapshot is a point-in-time view of pipeline counters plus the figures of
// the current reporting window.
type Snapshot struct {
	Frames        uint64  `json:"frames"`
	Sent          uint64  `json:"sent"`
	Skipped       uint64  `json:"skipped"`
	StrideSkipped uint64  `json:"stride_skipped"`
	Failed        uint64  `json:"failed"`
	Truncated     uint64  `json:"truncated"`
	AvgProcessMs  float64 `json:"avg_process_ms"`
	MaxUsed       float64 `json:"max_used"`
	MeanUsed      float64 `json:"mean_used"`
	StdDevUsed    float64 `json:"stddev_used"`
	// Ratio is mean payload bytes over mean raster cells in the window.
	Ratio float64 `json:"ratio"`
}

// Stats accumulates per-frame outcomes and periodically logs a summary.
// It is safe for concurrent use.
type Stats struct {
	mu       sync.Mutex
	logger   *slog.Logger
	interval time.Duration
	last     time.Time
	now      func() time.Time

	kinds         [numOutcomeKinds]uint64
	strideSkipped uint64
	truncated     uint64

	// window samples, reset after each report
	elapsedMs []float64
	used      []float64
	raw       []float64
	winTrunc  int
}

// NewStats creates a reporter logging through logger every interval.
// A non-positive interval disables periodic reports.
func NewStats(logger *slog.Logger, interval time.Duration) *Stats {
	if logger == nil {
		logger = slog.Default()
	}

	return &Stats{
		logger:   logger,
		interval: interval,
		now:      time.Now,
		last:     time.Now(),
	}
}

// Record adds one outcome.
func (s *Stats) Record(out Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.kinds[out.Kind]++
	s.elapsedMs = append(s.elapsedMs, float64(out.Elapsed)/float64(time.Millisecond))

	if out.Kind == OutcomeSent || out.Kind == OutcomeSendFailed {
		s.used = append(s.used, float64(out.Stats.Used))
		s.raw = append(s.raw, float64(out.Stats.RawBytes))
		if out.Stats.Truncated {
			s.truncated++
			s.winTrunc++
		}
	}
}

// RecordStrideSkip counts a frame dropped by the frame-skip stride.
func (s *Stats) RecordStrideSkip() {
	s.mu.Lock()
	s.strideSkipped++
	s.mu.Unlock()
}

// Snapshot returns the current counters and window figures.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// MaybeReport logs and resets the window when the interval has elapsed.
// It reports whether a summary was logged.
func (s *Stats) MaybeReport() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval <= 0 || s.now().Sub(s.last) < s.interval {
		return false
	}
	s.reportLocked()

	return true
}

// Report logs a summary of the current window unconditionally and resets it.
func (s *Stats) Report() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reportLocked()
}

func (s *Stats) reportLocked() {
	snap := s.snapshotLocked()

	s.logger.Info("pipeline: statistics",
		"frames", snap.Frames,
		"sent", snap.Sent,
		"skipped", snap.Skipped+snap.StrideSkipped,
		"failed", snap.Failed,
		"avg_process_ms", snap.AvgProcessMs,
		"mean_used", snap.MeanUsed,
		"max_used", snap.MaxUsed,
		"ratio", snap.Ratio,
	)
	if s.winTrunc > 0 || snap.MaxUsed >= packet.PayloadSize {
		s.logger.Warn("pipeline: raster payload at capacity",
			"max_used", snap.MaxUsed,
			"capacity", packet.PayloadSize,
			"truncated", s.winTrunc,
		)
	}

	s.elapsedMs = s.elapsedMs[:0]
	s.used = s.used[:0]
	s.raw = s.raw[:0]
	s.winTrunc = 0
	s.last = s.now()
}

func (s *Stats) snapshotLocked() Snapshot {
	snap := Snapshot{
		Sent:          s.kinds[OutcomeSent],
		Skipped:       s.kinds[OutcomeSkipped],
		StrideSkipped: s.strideSkipped,
		Truncated:     s.truncated,
	}
	for k, n := range s.kinds {
		snap.Frames += n
		if OutcomeKind(k).Failed() {
			snap.Failed += n
		}
	}

	if len(s.elapsedMs) > 0 {
		snap.AvgProcessMs = stat.Mean(s.elapsedMs, nil)
	}
	if len(s.used) > 0 {
		snap.MaxUsed = floats.Max(s.used)
		snap.MeanUsed = stat.Mean(s.used, nil)
		if len(s.used) > 1 {
			snap.StdDevUsed = stat.StdDev(s.used, nil)
		}
		if raw := floats.Sum(s.raw); raw > 0 {
			snap.Ratio = floats.Sum(s.used) / raw
		}
	}

	return snap
}
