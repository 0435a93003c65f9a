package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cjy7811/rm-vision/format"
	"github.com/cjy7811/rm-vision/link"
	"github.com/cjy7811/rm-vision/pipeline"
	"github.com/cjy7811/rm-vision/telemetry"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the runtime configuration of the telemetry link.
// Fields omitted from a JSON file keep the values from Default.
type Config struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Levels          int    `json:"levels"`
	Strategy        string `json:"strategy"`
	BypassThreshold int    `json:"bypass_threshold"`

	QueueCapacity  int    `json:"queue_capacity"`
	SkipStride     int    `json:"skip_stride"`
	FrameInterval  string `json:"frame_interval,omitempty"` // duration string like "33ms"
	ReportInterval string `json:"report_interval"`          // duration string like "5s"

	SerialPort string           `json:"serial_port,omitempty"`
	Serial     link.PortOptions `json:"serial"`

	RecordCompression    string `json:"record_compression"`
	RecordSegmentPackets int    `json:"record_segment_packets"`
	PreviewAddr          string `json:"preview_addr,omitempty"`
	LogLevel             string `json:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Width:                telemetry.DefaultWidth,
		Height:               telemetry.DefaultHeight,
		Levels:               2,
		Strategy:             "pair",
		BypassThreshold:      200,
		QueueCapacity:        100,
		SkipStride:           1,
		ReportInterval:       "5s",
		Serial:               link.PortOptions{BaudRate: link.DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"},
		RecordCompression:    "zstd",
		RecordSegmentPackets: link.DefaultSegmentPackets,
		LogLevel:             "info",
	}
}

// Load reads a configuration from a JSON file.
// The file must have a .json extension and be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Width < 1 || c.Width > 255 || c.Height < 1 || c.Height > 255 {
		return fmt.Errorf("width and height must be between 1 and 255, got %dx%d", c.Width, c.Height)
	}

	strategy, ok := format.ParseStrategy(c.Strategy)
	if !ok {
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	if c.Levels != strategy.Levels() {
		return fmt.Errorf("strategy %s carries %d levels, got levels %d", strategy, strategy.Levels(), c.Levels)
	}

	if c.BypassThreshold < 0 {
		return fmt.Errorf("bypass_threshold must be non-negative, got %d", c.BypassThreshold)
	}
	if c.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.SkipStride < 1 {
		return fmt.Errorf("skip_stride must be positive, got %d", c.SkipStride)
	}

	if c.FrameInterval != "" {
		if _, err := time.ParseDuration(c.FrameInterval); err != nil {
			return fmt.Errorf("invalid frame_interval '%s': %w", c.FrameInterval, err)
		}
	}
	if c.ReportInterval != "" {
		if _, err := time.ParseDuration(c.ReportInterval); err != nil {
			return fmt.Errorf("invalid report_interval '%s': %w", c.ReportInterval, err)
		}
	}

	if _, err := c.Serial.Normalize(); err != nil {
		return fmt.Errorf("serial: %w", err)
	}

	if _, ok := format.ParseCompression(c.RecordCompression); !ok {
		return fmt.Errorf("unknown record_compression %q", c.RecordCompression)
	}
	if c.RecordSegmentPackets < 1 || c.RecordSegmentPackets > link.MaxSegmentPackets {
		return fmt.Errorf("record_segment_packets must be between 1 and %d, got %d", link.MaxSegmentPackets, c.RecordSegmentPackets)
	}

	if _, ok := parseLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	return nil
}

// GetStrategy returns the parsed strategy, or PairRLE when unset or invalid.
func (c *Config) GetStrategy() format.Strategy {
	if s, ok := format.ParseStrategy(c.Strategy); ok {
		return s
	}

	return format.StrategyPairRLE
}

// GetCompression returns the packet log compression, or Zstd when invalid.
func (c *Config) GetCompression() format.CompressionType {
	if ct, ok := format.ParseCompression(c.RecordCompression); ok {
		return ct
	}

	return format.CompressionZstd
}

// GetFrameInterval returns the replay pacing interval. Zero means unpaced.
func (c *Config) GetFrameInterval() time.Duration {
	if c.FrameInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.FrameInterval)
	if err != nil {
		return 0
	}

	return d
}

// GetReportInterval returns the statistics reporting interval.
func (c *Config) GetReportInterval() time.Duration {
	if c.ReportInterval == "" {
		return pipeline.DefaultReportInterval
	}
	d, err := time.ParseDuration(c.ReportInterval)
	if err != nil || d <= 0 {
		return pipeline.DefaultReportInterval
	}

	return d
}

// GetLogLevel returns the slog level, or Info when invalid.
func (c *Config) GetLogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)

	return level
}

// CodecOptions returns the telemetry codec options for this configuration.
func (c *Config) CodecOptions() []telemetry.Option {
	return []telemetry.Option{
		telemetry.WithStrategy(c.GetStrategy()),
		telemetry.WithTargetSize(c.Width, c.Height),
		telemetry.WithBypassThreshold(c.BypassThreshold),
	}
}

// PipelineOptions returns the pipeline options for this configuration.
func (c *Config) PipelineOptions(logger *slog.Logger) []pipeline.Option {
	opts := []pipeline.Option{
		pipeline.WithQueueCapacity(c.QueueCapacity),
		pipeline.WithSkipStride(c.SkipStride),
		pipeline.WithReportInterval(c.GetReportInterval()),
	}
	if d := c.GetFrameInterval(); d > 0 {
		opts = append(opts, pipeline.WithFrameInterval(d))
	}
	if logger != nil {
		opts = append(opts, pipeline.WithLogger(logger))
	}

	return opts
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
