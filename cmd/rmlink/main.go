// Command rmlink runs the telemetry link: it replays detection records through
// the encode pipeline into serial, packet log and preview sinks, and inspects
// recorded packet logs.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/cjy7811/rm-vision/entropy"
	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/internal/config"
	"github.com/cjy7811/rm-vision/link"
	"github.com/cjy7811/rm-vision/pipeline"
	"github.com/cjy7811/rm-vision/replay"
	"github.com/cjy7811/rm-vision/telemetry"
)

const usage = `usage: rmlink <command> [flags]

commands:
  run      encode a replay stream and send packets to the configured sinks
  inspect  decode a packet log and print one line per packet
  gen      write a synthetic replay stream
`

func main() {
	os.Exit(runMain(os.Args[1:], os.Stdout, os.Stderr))
}

func runMain(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "run":
		err = cmdRun(args[1:], stdout, stderr)
	case "inspect":
		err = cmdInspect(args[1:], stdout, stderr)
	case "gen":
		err = cmdGen(args[1:], stderr)
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "rmlink %s: %v\n", args[0], err)
		return 1
	}

	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	return config.Load(path)
}

func cmdRun(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "Path to JSON configuration (defaults when empty)")
		input      = fs.String("input", "", "Replay stream of detection records")
		live       = fs.Bool("live", false, "Run producer and consumer concurrently through the frame queue")
		serialPort = fs.String("serial", "", "Serial device, overrides serial_port")
		recordPath = fs.String("record", "", "Write sent packets to this packet log")
		preview    = fs.String("preview", "", "Preview listen address, overrides preview_addr")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *input == "" {
		return errors.New("-input is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *serialPort != "" {
		cfg.SerialPort = *serialPort
	}
	if *preview != "" {
		cfg.PreviewAddr = *preview
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.GetLogLevel()}))

	codec, err := telemetry.NewCodec(cfg.CodecOptions()...)
	if err != nil {
		return fmt.Errorf("codec: %w", err)
	}

	src, err := replay.Open(*input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := pipeline.NewStats(logger, cfg.GetReportInterval())

	var sinks []pipeline.Sink
	if cfg.SerialPort != "" {
		port, err := link.OpenSerial(cfg.SerialPort, cfg.Serial)
		if err != nil {
			return err
		}
		sinks = append(sinks, port)
		logger.Info("rmlink: serial sink opened", "port", cfg.SerialPort, "baud", cfg.Serial.BaudRate)
	}

	if *recordPath != "" {
		rec, err := link.CreateRecorder(*recordPath,
			link.WithCompression(cfg.GetCompression()),
			link.WithSegmentPackets(cfg.RecordSegmentPackets),
		)
		if err != nil {
			closeSinks(sinks, logger)
			return err
		}
		sinks = append(sinks, rec)
		logger.Info("rmlink: recording packets", "path", *recordPath,
			"session", rec.SessionID(), "compression", rec.Compression())
	}

	if cfg.PreviewAddr != "" {
		hub, err := link.NewPreviewHub(
			link.WithHubLogger(logger),
			link.WithStatus(func() any { return stats.Snapshot() }),
		)
		if err != nil {
			closeSinks(sinks, logger)
			return err
		}
		sinks = append(sinks, hub)
		go func() {
			if err := hub.Serve(ctx, cfg.PreviewAddr); err != nil {
				logger.Error("rmlink: preview server failed", "addr", cfg.PreviewAddr, "err", err)
			}
		}()
	}

	if len(sinks) == 0 {
		logger.Warn("rmlink: no sinks configured, packets are encoded and dropped")
	}
	sink := link.NewMultiSink(sinks...)
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("rmlink: closing sinks", "err", err)
		}
	}()

	opts := append(cfg.PipelineOptions(logger), pipeline.WithStats(stats))
	p, err := pipeline.New[replay.Record](codec, src, replay.PassThrough(), sink, opts...)
	if err != nil {
		return err
	}

	logger.Info("rmlink: starting",
		"input", *input,
		"live", *live,
		"strategy", codec.Strategy(),
		"width", cfg.Width,
		"height", cfg.Height,
		"sinks", sink.Len(),
	)

	if *live {
		err = p.Run(ctx)
	} else {
		err = p.RunReplay(ctx)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(stats.Snapshot())
}

func closeSinks(sinks []pipeline.Sink, logger *slog.Logger) {
	for _, s := range sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				logger.Warn("rmlink: closing sink", "err", err)
			}
		}
	}
}

func cmdInspect(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		logPath  = fs.String("log", "", "Packet log to read")
		strategy = fs.String("strategy", "pair", "Encoding strategy the packets were written with")
		limit    = fs.Int("limit", 0, "Stop after this many packets (0 reads all)")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *logPath == "" {
		return errors.New("-log is required")
	}

	st, ok := format.ParseStrategy(*strategy)
	if !ok {
		return fmt.Errorf("unknown strategy %q", *strategy)
	}
	codec, err := telemetry.NewCodec(telemetry.WithStrategy(st))
	if err != nil {
		return err
	}

	lr, err := link.OpenLog(*logPath)
	if err != nil {
		return err
	}
	defer lr.Close()

	fmt.Fprintf(stdout, "session=%s compression=%s strategy=%s\n", lr.SessionID(), lr.Compression(), st)

	count := 0
	for p, err := range lr.All() {
		if err != nil {
			return err
		}
		if *limit > 0 && count >= *limit {
			break
		}
		count++

		fields := p.Unframe()
		line := fmt.Sprintf("packet %d seq=%d flags=%#02x size=%dx%d", count-1, fields.Seq, uint8(fields.Flags), fields.Width, fields.Height)

		dec, err := codec.DecodePacket(&p)
		if err != nil {
			fmt.Fprintf(stdout, "%s invalid: %v\n", line, err)
			continue
		}

		lit := 0
		for _, c := range dec.Raster.Cells {
			if c != 0 {
				lit++
			}
		}
		line += fmt.Sprintf(" truncated=%t detections=%v lit=%d", dec.Truncated, dec.Detections, lit)

		if st.Entropy() {
			if info, ok := entropy.Inspect(fields.Payload); ok {
				line += fmt.Sprintf(" entropy_raw=%t rle_len=%d table=%d bits=%d block=%d",
					info.Raw, info.RawLen, info.TableSize, info.BitLen, info.Size)
			}
		}
		fmt.Fprintln(stdout, line)
	}

	fmt.Fprintf(stdout, "%d packets\n", count)

	return nil
}

const (
	genSourceWidth  = 640
	genSourceHeight = 480
)

func cmdGen(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath = fs.String("config", "", "Path to JSON configuration (defaults when empty)")
		out        = fs.String("out", "", "Replay stream to write")
		frames     = fs.Int("frames", 100, "Number of frames")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("-out is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	w, err := replay.Create(*out)
	if err != nil {
		return err
	}

	for i := range *frames {
		if err := w.WriteRecord(syntheticRecord(uint64(i), cfg.Width, cfg.Height, cfg.Levels)); err != nil {
			_ = w.Close()
			return err
		}
	}

	return w.Close()
}

// syntheticRecord renders a bright disc orbiting the frame centre on a dark
// background. Four-level frames get a mid-intensity halo around the disc.
func syntheticRecord(seq uint64, width, height, levels int) replay.Record {
	angle := float64(seq) * 2 * math.Pi / 60
	cx := float64(width)/2 + float64(width)/4*math.Cos(angle)
	cy := float64(height)/2 + float64(height)/4*math.Sin(angle)
	r := float64(min(width, height)) / 8

	gray := make([]byte, width*height)
	for y := range height {
		for x := range width {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			switch {
			case d <= r:
				gray[y*width+x] = 230
			case levels == 4 && d <= 1.5*r:
				gray[y*width+x] = 150
			default:
				gray[y*width+x] = 20
			}
		}
	}

	sx := float64(genSourceWidth) / float64(width)
	sy := float64(genSourceHeight) / float64(height)

	return replay.Record{
		Seq:          seq,
		Width:        width,
		Height:       height,
		Levels:       levels,
		Gray:         gray,
		Circles:      []telemetry.Circle{{X: cx * sx, Y: cy * sy, R: r * sx}},
		SourceWidth:  genSourceWidth,
		SourceHeight: genSourceHeight,
	}
}
