package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/kernel"
	"github.com/sarchlab/imgaccel/offload"
	"github.com/sarchlab/imgaccel/verify"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of the environment variables read by ApplyEnv.
const EnvPrefix = "FILTERBENCH_"

// Settings configures a benchmark run.
type Settings struct {
	Width           uint16        `yaml:"width"`
	Height          uint16        `yaml:"height"`
	Kernel          string        `yaml:"kernel"`
	KernelFile      string        `yaml:"kernel_file"`
	Border          string        `yaml:"border"`
	BorderValue     uint8         `yaml:"border_value"`
	Mode            string        `yaml:"mode"`
	Bypass          bool          `yaml:"bypass"`
	Iterations      int           `yaml:"iterations"`
	TransferTimeout time.Duration `yaml:"transfer_timeout"`
	MismatchLimit   int           `yaml:"mismatch_limit"`
	Input           string        `yaml:"input"`
	Output          string        `yaml:"output"`
	Pattern         string        `yaml:"pattern"`
	Seed            int64         `yaml:"seed"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
	Board           BoardSettings `yaml:"board"`
}

// BoardSettings configures the simulated board.
type BoardSettings struct {
	FreqMHz      float64 `yaml:"freq_mhz"`
	TimerFreqMHz float64 `yaml:"timer_freq_mhz"`
	BeatBytes    int     `yaml:"beat_bytes"`
	Latency      int     `yaml:"latency"`
	MemoryBytes  int     `yaml:"memory_bytes"`
	Fault        string  `yaml:"fault"`
	Monitor      bool    `yaml:"monitor"`
}

// DefaultSettings returns the settings of the original benchmark: a 128x128
// image through the 3x3 box filter with nearest padding.
func DefaultSettings() Settings {
	return Settings{
		Width:           128,
		Height:          128,
		Kernel:          "box3",
		Border:          "nearest",
		Mode:            "bit8",
		Iterations:      1,
		TransferTimeout: offload.DefaultTimeout,
		MismatchLimit:   verify.DefaultMismatchLimit,
		Pattern:         "increasing",
		Seed:            1,
		LogLevel:        "info",
		Board: BoardSettings{
			FreqMHz:      100,
			TimerFreqMHz: 100,
			BeatBytes:    8,
			Latency:      1,
			MemoryBytes:  64 << 20,
		},
	}
}

// LoadSettings reads a YAML settings file on top of the defaults.
func LoadSettings(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Settings{}, fmt.Errorf("open settings: %w", err)
	}
	defer f.Close()

	s, err := DecodeSettings(f)
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}

	return s, nil
}

// DecodeSettings reads YAML settings on top of the defaults. Unknown keys are
// rejected.
func DecodeSettings(r io.Reader) (Settings, error) {
	s := DefaultSettings()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}

	return s, nil
}

// ApplyEnv overrides settings with FILTERBENCH_* environment variables.
// Values that do not parse are ignored.
func (s *Settings) ApplyEnv() {
	s.Width = uint16(parseUintOrDefault("WIDTH", uint64(s.Width), 16))
	s.Height = uint16(parseUintOrDefault("HEIGHT", uint64(s.Height), 16))
	s.Kernel = getEnvOrDefault("KERNEL", s.Kernel)
	s.KernelFile = getEnvOrDefault("KERNEL_FILE", s.KernelFile)
	s.Border = getEnvOrDefault("BORDER", s.Border)
	s.BorderValue = uint8(parseUintOrDefault("BORDER_VALUE", uint64(s.BorderValue), 8))
	s.Mode = getEnvOrDefault("MODE", s.Mode)
	s.Bypass = parseBoolOrDefault("BYPASS", s.Bypass)
	s.Iterations = int(parseIntOrDefault("ITERATIONS", int64(s.Iterations), 32))
	s.TransferTimeout = parseDurationOrDefault("TRANSFER_TIMEOUT", s.TransferTimeout)
	s.Input = getEnvOrDefault("INPUT", s.Input)
	s.Output = getEnvOrDefault("OUTPUT", s.Output)
	s.Pattern = getEnvOrDefault("PATTERN", s.Pattern)
	s.LogLevel = getEnvOrDefault("LOG_LEVEL", s.LogLevel)
	s.LogFile = getEnvOrDefault("LOG_FILE", s.LogFile)
	s.Board.Fault = getEnvOrDefault("FAULT", s.Board.Fault)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64, bits int) int64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, bits); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func parseUintOrDefault(key string, defaultValue uint64, bits int) uint64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if uintValue, err := strconv.ParseUint(strings.TrimSpace(value), 10, bits); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// Validate checks the settings that do not depend on the kernel catalog.
func (s Settings) Validate() error {
	if err := (accel.ImageShape{Width: s.Width, Height: s.Height}).Validate(); err != nil {
		return err
	}

	if s.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative (got %d)", s.Iterations)
	}

	if s.TransferTimeout <= 0 {
		return fmt.Errorf("transfer_timeout must be > 0 (got %s)", s.TransferTimeout)
	}

	if s.MismatchLimit < 0 {
		return fmt.Errorf("mismatch_limit must not be negative (got %d)", s.MismatchLimit)
	}

	if _, err := s.ParseLogLevel(); err != nil {
		return err
	}

	return s.Board.Validate()
}

// Validate checks the board settings.
func (b BoardSettings) Validate() error {
	if b.FreqMHz <= 0 || b.TimerFreqMHz <= 0 {
		return fmt.Errorf("board frequencies must be > 0 (got freq=%g, timer=%g)",
			b.FreqMHz, b.TimerFreqMHz)
	}

	if b.BeatBytes <= 0 {
		return fmt.Errorf("beat_bytes must be > 0 (got %d)", b.BeatBytes)
	}

	if b.Latency < 0 {
		return fmt.Errorf("latency must not be negative (got %d)", b.Latency)
	}

	if b.MemoryBytes <= 0 {
		return fmt.Errorf("memory_bytes must be > 0 (got %d)", b.MemoryBytes)
	}

	_, err := ParseFault(b.Fault)

	return err
}

// Builder returns a board builder configured by the settings.
func (b BoardSettings) Builder() (BoardBuilder, error) {
	if err := b.Validate(); err != nil {
		return BoardBuilder{}, err
	}

	fault, _ := ParseFault(b.Fault)

	return MakeBoardBuilder().
		WithFreq(sim.Freq(b.FreqMHz) * sim.MHz).
		WithTimerFreq(sim.Freq(b.TimerFreqMHz) * sim.MHz).
		WithBeatBytes(b.BeatBytes).
		WithLatency(b.Latency).
		WithMemoryBytes(b.MemoryBytes).
		WithFault(fault), nil
}

// Shape returns the configured image shape.
func (s Settings) Shape() accel.ImageShape {
	return accel.ImageShape{Width: s.Width, Height: s.Height}
}

// Params resolves the kernel in catalog and returns the processing
// parameters. The kernel file, if any, is loaded into catalog first.
func (s Settings) Params(catalog *kernel.Catalog) (accel.ProcessingParams, error) {
	if s.KernelFile != "" {
		if err := catalog.LoadFile(s.KernelFile); err != nil {
			return accel.ProcessingParams{}, err
		}
	}

	k, err := catalog.Lookup(s.Kernel)
	if err != nil {
		return accel.ProcessingParams{}, err
	}

	border, err := accel.ParseBorder(s.Border, s.BorderValue)
	if err != nil {
		return accel.ProcessingParams{}, err
	}

	mode, err := accel.ParseSampleMode(s.Mode)
	if err != nil {
		return accel.ProcessingParams{}, err
	}

	p := accel.ProcessingParams{
		Shape:  s.Shape(),
		Kernel: k,
		Mode:   mode,
		Border: border,
		Bypass: s.Bypass,
	}

	if err := p.Validate(); err != nil {
		return accel.ProcessingParams{}, err
	}

	return p, nil
}

// ParseLogLevel maps the log level name to a slog level. "trace" enables the
// per-beat hardware traces.
func (s Settings) ParseLogLevel() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s.LogLevel)) {
	case "trace":
		return accel.LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s.LogLevel)
	}
}
