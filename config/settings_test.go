package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/config"
	"github.com/sarchlab/imgaccel/kernel"
)

func setEnv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

var _ = Describe("Settings", func() {
	It("should have valid defaults", func() {
		s := config.DefaultSettings()

		Expect(s.Validate()).To(Succeed())
		Expect(s.TransferTimeout).To(Equal(100 * time.Millisecond))

		p, err := s.Params(kernel.DefaultCatalog())
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Shape).To(Equal(accel.ImageShape{Width: 128, Height: 128}))
		Expect(p.Kernel.Name()).To(Equal("box3"))
		Expect(p.Border).To(Equal(accel.NearestPad()))
	})

	It("should decode YAML on top of the defaults", func() {
		s, err := config.DecodeSettings(strings.NewReader(`
width: 64
height: 48
kernel: gaus5
border: const
border_value: 12
transfer_timeout: 250ms
board:
  fault: stall
  latency: 4
`))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Width).To(Equal(uint16(64)))
		Expect(s.TransferTimeout).To(Equal(250 * time.Millisecond))
		Expect(s.Board.Latency).To(Equal(4))
		Expect(s.Board.BeatBytes).To(Equal(8))
		Expect(s.Iterations).To(Equal(1))

		p, err := s.Params(kernel.DefaultCatalog())
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Border).To(Equal(accel.ConstPad(12)))
		Expect(p.Kernel.Name()).To(Equal("gaus5"))
	})

	It("should reject unknown keys", func() {
		_, err := config.DecodeSettings(strings.NewReader("widht: 3\n"))
		Expect(err).To(HaveOccurred())
	})

	It("should load a settings file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "bench.yaml")
		Expect(os.WriteFile(path, []byte("iterations: 7\n"), 0o644)).To(Succeed())

		s, err := config.LoadSettings(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Iterations).To(Equal(7))

		_, err = config.LoadSettings(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Expect(err).To(HaveOccurred())
	})

	It("should load extra kernels from the kernel file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "kernels.yaml")
		Expect(os.WriteFile(path, []byte(
			"kernels:\n  - {name: sharpen, radius: 1, scale: 1, taps: [0, -1, 0, -1, 5, -1, 0, -1, 0]}\n"),
			0o644)).To(Succeed())

		s := config.DefaultSettings()
		s.Kernel = "sharpen"
		s.KernelFile = path

		p, err := s.Params(kernel.DefaultCatalog())
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Kernel.Name()).To(Equal("sharpen"))
	})

	It("should override settings from the environment", func() {
		setEnv("FILTERBENCH_WIDTH", "33")
		setEnv("FILTERBENCH_KERNEL", "log7")
		setEnv("FILTERBENCH_BYPASS", "true")
		setEnv("FILTERBENCH_TRANSFER_TIMEOUT", "2s")
		setEnv("FILTERBENCH_ITERATIONS", "not-a-number")
		setEnv("FILTERBENCH_FAULT", "corrupt")

		s := config.DefaultSettings()
		s.ApplyEnv()

		Expect(s.Width).To(Equal(uint16(33)))
		Expect(s.Kernel).To(Equal("log7"))
		Expect(s.Bypass).To(BeTrue())
		Expect(s.TransferTimeout).To(Equal(2 * time.Second))
		Expect(s.Iterations).To(Equal(1))
		Expect(s.Board.Fault).To(Equal("corrupt"))
	})

	It("should accept the full unsigned range from the environment", func() {
		setEnv("FILTERBENCH_WIDTH", "40000")
		setEnv("FILTERBENCH_HEIGHT", "65535")
		setEnv("FILTERBENCH_BORDER_VALUE", "200")

		s := config.DefaultSettings()
		s.ApplyEnv()

		Expect(s.Width).To(Equal(uint16(40000)))
		Expect(s.Height).To(Equal(uint16(65535)))
		Expect(s.BorderValue).To(Equal(uint8(200)))
	})

	It("should ignore unsigned values out of range", func() {
		setEnv("FILTERBENCH_WIDTH", "70000")
		setEnv("FILTERBENCH_BORDER_VALUE", "-1")

		s := config.DefaultSettings()
		s.ApplyEnv()

		Expect(s.Width).To(Equal(config.DefaultSettings().Width))
		Expect(s.BorderValue).To(Equal(uint8(0)))
	})

	DescribeTable("validation",
		func(mutate func(*config.Settings)) {
			s := config.DefaultSettings()
			mutate(&s)
			Expect(s.Validate()).NotTo(Succeed())
		},
		Entry("zero width", func(s *config.Settings) { s.Width = 0 }),
		Entry("negative iterations", func(s *config.Settings) { s.Iterations = -1 }),
		Entry("zero timeout", func(s *config.Settings) { s.TransferTimeout = 0 }),
		Entry("bad log level", func(s *config.Settings) { s.LogLevel = "loud" }),
		Entry("zero beat", func(s *config.Settings) { s.Board.BeatBytes = 0 }),
		Entry("no memory", func(s *config.Settings) { s.Board.MemoryBytes = 0 }),
		Entry("bad fault", func(s *config.Settings) { s.Board.Fault = "fire" }),
	)

	It("should reject unknown kernels and borders", func() {
		s := config.DefaultSettings()
		s.Kernel = "sobel"
		_, err := s.Params(kernel.DefaultCatalog())
		Expect(err).To(HaveOccurred())

		s = config.DefaultSettings()
		s.Border = "wrap"
		_, err = s.Params(kernel.DefaultCatalog())
		Expect(err).To(HaveOccurred())
	})

	It("should map log levels", func() {
		s := config.DefaultSettings()

		s.LogLevel = "trace"
		Expect(s.ParseLogLevel()).To(Equal(accel.LevelTrace))

		s.LogLevel = "WARN"
		Expect(s.ParseLogLevel()).To(Equal(slog.LevelWarn))
	})

	It("should build a working board from the board settings", func() {
		s := config.DefaultSettings()
		s.Board.MemoryBytes = 10

		b, err := s.Board.Builder()
		Expect(err).NotTo(HaveOccurred())

		board := b.Build("Board")
		defer board.Close()

		_, err = board.Allocate(11)
		Expect(err).To(MatchError(config.ErrOutOfMemory))
	})
})

var _ = Describe("Sample settings", func() {
	It("should load the bundled sample files", func() {
		s, err := config.LoadSettings("../samples/bench.yaml")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Validate()).To(Succeed())

		s.Kernel = "motion5"
		s.KernelFile = "../samples/kernels.yaml"

		p, err := s.Params(kernel.DefaultCatalog())
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Kernel.Radius()).To(Equal(2))
	})
})
