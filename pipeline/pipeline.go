package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cjy7811/rm-vision/errs"
	"github.com/cjy7811/rm-vision/internal/options"
	"github.com/cjy7811/rm-vision/queue"
	"github.com/cjy7811/rm-vision/telemetry"
)

// Pipeline owns the queue, the cancellation flag, the codec and the
// collaborators of one capture session. A Pipeline runs once.
type Pipeline[F any] struct {
	source   Source[F]
	detector Detector[F]
	sink     Sink
	codec    *telemetry.Codec

	queue   *queue.Queue[F]
	stride  uint64
	poll    time.Duration
	pace    time.Duration
	logger  *slog.Logger
	stats   *Stats
	started atomic.Bool

	done       chan struct{}
	cancelOnce sync.Once

	// seq is only touched by the goroutine running process.
	seq uint32
}

// New creates a pipeline.
//
// Parameters:
//   - codec: Frame codec shared by live and replay modes
//   - source: Frame producer
//   - detector: Per-frame detection step
//   - sink: Packet consumer; the pipeline never closes it
//   - opts: Queue, stride, pacing and logging options
//
// Returns:
//   - *Pipeline[F]: Ready-to-run pipeline
//   - error: ErrNilCollaborator or an option validation error
func New[F any](codec *telemetry.Codec, source Source[F], detector Detector[F], sink Sink, opts ...Option) (*Pipeline[F], error) {
	if codec == nil || source == nil || detector == nil || sink == nil {
		return nil, errs.ErrNilCollaborator
	}

	s := defaultSettings()
	if err := options.Apply(s, opts...); err != nil {
		return nil, err
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.stats == nil {
		s.stats = NewStats(s.logger, s.reportInterval)
	}

	q, err := queue.New[F](s.capacity)
	if err != nil {
		return nil, err
	}

	return &Pipeline[F]{
		source:   source,
		detector: detector,
		sink:     sink,
		codec:    codec,
		queue:    q,
		stride:   uint64(s.skipStride),
		poll:     s.pollInterval,
		pace:     s.frameInterval,
		logger:   s.logger,
		stats:    s.stats,
		done:     make(chan struct{}),
	}, nil
}

// Stats returns the pipeline's statistics reporter.
func (p *Pipeline[F]) Stats() *Stats { return p.stats }

// Cancel stops the pipeline. Blocked producer and consumer waits return
// immediately; frames already queued are still processed.
func (p *Pipeline[F]) Cancel() {
	p.cancelOnce.Do(func() { close(p.done) })
	p.queue.Cancel()
}

// runContext derives a context that is also cancelled by Cancel, so a source
// blocked in Next observes it.
func (p *Pipeline[F]) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-p.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Run processes frames in live mode until the source ends, ctx is done or
// Cancel is called. It returns after both goroutines have exited.
//
// Returns:
//   - error: A non-EOF source error, or ErrPipelineStarted on a second call
func (p *Pipeline[F]) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return errs.ErrPipelineStarted
	}

	ctx, cancel := p.runContext(ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, p.queue.Cancel)
	defer stop()

	p.logger.Info("pipeline: starting live mode",
		"capacity", p.queue.Cap(),
		"skip_stride", p.stride,
		"strategy", p.codec.Strategy().String(),
	)

	var (
		wg      sync.WaitGroup
		prodErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		prodErr = p.produce(ctx)
	}()
	go func() {
		defer wg.Done()
		// Drained frames are still sent after ctx is cancelled.
		p.consume(context.WithoutCancel(ctx))
	}()
	wg.Wait()

	p.stats.Report()
	p.logger.Info("pipeline: live mode stopped")

	return prodErr
}

func (p *Pipeline[F]) produce(ctx context.Context) error {
	// The consumer exits once the queue is cancelled and drained.
	defer p.queue.Cancel()

	for index := uint64(0); ; index++ {
		if p.queue.Cancelled() {
			return nil
		}

		frame, err := p.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				p.logger.Debug("pipeline: source finished", "frames", index)
				return nil
			}

			return fmt.Errorf("pipeline source: %w", err)
		}

		if index%p.stride != 0 {
			p.stats.RecordStrideSkip()
			continue
		}

		if !p.queue.PushWait(ctx, frame) {
			return nil
		}
	}
}

func (p *Pipeline[F]) consume(ctx context.Context) {
	for {
		frame, res := p.queue.PopWait(p.poll)
		switch res {
		case queue.Closed:
			return
		case queue.TimedOut:
			p.stats.MaybeReport()
			continue
		}

		p.record(p.process(ctx, frame))
	}
}

// RunReplay processes frames synchronously without the queue until the source
// ends, ctx is done or Cancel is called.
func (p *Pipeline[F]) RunReplay(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return errs.ErrPipelineStarted
	}

	p.logger.Info("pipeline: starting replay mode",
		"skip_stride", p.stride,
		"frame_interval", p.pace,
		"strategy", p.codec.Strategy().String(),
	)
	defer p.stats.Report()

	ctx, cancel := p.runContext(ctx)
	defer cancel()

	for index := uint64(0); ; index++ {
		if ctx.Err() != nil || p.queue.Cancelled() {
			return nil
		}

		start := time.Now()
		frame, err := p.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("pipeline source: %w", err)
		}

		if index%p.stride != 0 {
			p.stats.RecordStrideSkip()
			continue
		}

		p.record(p.process(ctx, frame))

		if wait := p.pace - time.Since(start); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
		}
	}
}

// process runs detect, encode, frame and send for one frame. Collaborator
// panics are converted into OutcomePanic.
func (p *Pipeline[F]) process(ctx context.Context, frame F) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Kind: OutcomePanic, Err: fmt.Errorf("pipeline: recovered panic: %v", r)}
		}
		out.Elapsed = time.Since(start)
	}()

	res, err := p.detector.Detect(frame)
	if errors.Is(err, errs.ErrFrameSkipped) {
		return Outcome{Kind: OutcomeSkipped}
	}
	if err != nil {
		return Outcome{Kind: OutcomeDetectFailed, Err: err}
	}

	seq := p.seq
	pkt, st, err := p.codec.EncodeFrame(seq, res)
	if err != nil {
		return Outcome{Kind: OutcomeEncodeFailed, Err: err, Seq: seq}
	}
	p.seq++

	if err := p.sink.Send(ctx, pkt); err != nil {
		return Outcome{Kind: OutcomeSendFailed, Err: err, Seq: seq, Stats: st}
	}

	return Outcome{Kind: OutcomeSent, Seq: seq, Stats: st}
}

func (p *Pipeline[F]) record(out Outcome) {
	p.stats.Record(out)

	if out.Kind.Failed() {
		p.logger.Error("pipeline: frame failed",
			"kind", out.Kind.String(),
			"seq", out.Seq,
			"err", out.Err,
		)
	} else if out.Kind == OutcomeSent {
		p.logger.Debug("pipeline: packet sent",
			"seq", out.Seq,
			"used", out.Stats.Used,
			"truncated", out.Stats.Truncated,
		)
	}

	p.stats.MaybeReport()
}
