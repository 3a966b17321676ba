// Command filterbench checks the image filter accelerator against the
// software filter on a simulated board.
//
//	filterbench -config bench.yaml -iterations 10 -kernel gaus5 -border const:0
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/sarchlab/akita/v4/monitoring"
	"github.com/sarchlab/imgaccel/config"
	"github.com/sarchlab/imgaccel/driver"
	"github.com/sarchlab/imgaccel/kernel"
	"github.com/sarchlab/imgaccel/offload"
	"github.com/tebeka/atexit"
)

func main() {
	configPath := flag.String("config", "", "YAML settings file")
	iterations := flag.Int("iterations", -1, "number of iterations (overrides the settings)")
	kernelName := flag.String("kernel", "", "kernel name (overrides the settings)")
	border := flag.String("border", "", "border policy: nopad, nearest or const:<value>")
	input := flag.String("input", "", "raw 8-bit input image (default: generated)")
	output := flag.String("output", "", "file receiving the raw accelerator output")
	fault := flag.String("fault", "", "fault injected into the simulated board")
	monitor := flag.Bool("monitor", false, "start the simulation monitor web server")
	logLevel := flag.String("log-level", "", "trace, debug, info, warn or error")
	logFile := flag.String("log-file", "", "write JSON logs to this file instead of stderr")
	listKernels := flag.Bool("list-kernels", false, "print the built-in kernels and exit")
	flag.Parse()

	if *listKernels {
		for _, name := range kernel.DefaultCatalog().Names() {
			fmt.Println(name)
		}

		atexit.Exit(0)
	}

	s, err := loadSettings(*configPath)
	if err != nil {
		fail(err)
	}

	if *iterations >= 0 {
		s.Iterations = *iterations
	}

	if *kernelName != "" {
		s.Kernel = *kernelName
	}

	if *border != "" {
		if err := applyBorder(&s, *border); err != nil {
			fail(err)
		}
	}

	if *input != "" {
		s.Input = *input
	}

	if *output != "" {
		s.Output = *output
	}

	if *fault != "" {
		s.Board.Fault = *fault
	}

	if *logLevel != "" {
		s.LogLevel = *logLevel
	}

	if *logFile != "" {
		s.LogFile = *logFile
	}

	if *monitor {
		s.Board.Monitor = true
	}

	if err := s.Validate(); err != nil {
		fail(err)
	}

	if err := setupLogging(s); err != nil {
		fail(err)
	}

	atexit.Exit(run(s))
}

func run(s config.Settings) int {
	params, err := s.Params(kernel.DefaultCatalog())
	if err != nil {
		slog.Error("Invalid processing parameters", "error", err)
		return 2
	}

	builder, err := s.Board.Builder()
	if err != nil {
		slog.Error("Invalid board settings", "error", err)
		return 2
	}

	var m *monitoring.Monitor
	if s.Board.Monitor {
		m = monitoring.NewMonitor()
		builder = builder.WithMonitor(m)
	}

	board := builder.Build("Board")
	atexit.Register(board.Close)

	if m != nil {
		m.StartServer()
	}

	orchestrator := offload.MakeBuilder().
		WithPlatform(board).
		WithTimeout(s.TransferTimeout).
		Build()

	var source driver.Source = driver.PatternSource{Pattern: s.Pattern, Seed: s.Seed}
	if s.Input != "" {
		source = driver.RawFileSource{Path: s.Input}
	}

	d := driver.MakeBuilder().
		WithPlatform(board).
		WithOrchestrator(orchestrator).
		WithParams(params).
		WithSource(source).
		WithMismatchLimit(s.MismatchLimit).
		WithOutput(s.Output).
		WithReportWriter(os.Stdout).
		Build()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("Entering benchmark",
		"shape", params.Shape.String(),
		"kernel", params.Kernel.Name(),
		"border", params.Border.String(),
		"iterations", s.Iterations,
	)

	summary, err := d.Run(ctx, s.Iterations)
	summary.WriteSummary(os.Stdout)

	slog.Info("Exiting benchmark",
		"passed", summary.Passed(),
		"failed", summary.Failed(),
		"simulatedCycles", board.SimulatedCycles(),
	)

	if err != nil {
		slog.Error("Benchmark aborted", "error", err)
		return 1
	}

	if summary.Failed() > 0 {
		return 1
	}

	return 0
}

func loadSettings(path string) (config.Settings, error) {
	s := config.DefaultSettings()

	if path != "" {
		var err error

		s, err = config.LoadSettings(path)
		if err != nil {
			return config.Settings{}, err
		}
	}

	s.ApplyEnv()

	return s, nil
}

// applyBorder parses "nopad", "nearest" or "const:<value>".
func applyBorder(s *config.Settings, spec string) error {
	name, value, found := strings.Cut(spec, ":")
	s.Border = name

	if !found {
		return nil
	}

	v, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return fmt.Errorf("invalid border value %q", value)
	}

	s.BorderValue = uint8(v)

	return nil
}

func setupLogging(s config.Settings) error {
	level, err := s.ParseLogLevel()
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr

	if s.LogFile != "" {
		f, err := os.Create(s.LogFile)
		if err != nil {
			return err
		}

		atexit.Register(func() { f.Close() })
		w = f
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))

	return nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "filterbench:", err)
	atexit.Exit(2)
}
