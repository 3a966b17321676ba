package kernel_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/imgaccel/kernel"
)

var _ = Describe("Kernel", func() {
	It("should reject radii beyond the supported window", func() {
		_, err := kernel.New("big", 5, make([]int16, 121), 1)
		Expect(err).To(HaveOccurred())

		_, err = kernel.New("neg", -1, nil, 1)
		Expect(err).To(HaveOccurred())
	})

	It("should reject a wrong number of taps", func() {
		_, err := kernel.New("short", 1, []int16{1, 1, 1}, 3)
		Expect(err).To(MatchError(ContainSubstring("need 9 taps")))
	})

	It("should reject a zero scale", func() {
		_, err := kernel.New("zero", 0, []int16{1}, 0)
		Expect(err).To(HaveOccurred())
	})

	It("should require scale 1 for zero-sum kernels", func() {
		taps := []int16{0, -1, 0, -1, 4, -1, 0, -1, 0}

		_, err := kernel.New("lap", 1, taps, 4)
		Expect(err).To(MatchError(ContainSubstring("zero-sum")))

		k, err := kernel.New("lap", 1, taps, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(k.ZeroSum()).To(BeTrue())
	})

	It("should copy the taps", func() {
		taps := []int16{1, 2, 1, 2, 4, 2, 1, 2, 1}
		k := kernel.MustNew("g", 1, taps, 16)

		taps[4] = 100
		Expect(k.Tap(0, 0)).To(Equal(int16(4)))

		out := k.Taps()
		out[0] = 100
		Expect(k.Tap(-1, -1)).To(Equal(int16(1)))
	})

	It("should index taps by window offset", func() {
		k := kernel.MustNew("ramp", 1, []int16{1, 2, 3, 4, 5, 6, 7, 8, 9}, 45)

		Expect(k.Tap(-1, -1)).To(Equal(int16(1)))
		Expect(k.Tap(1, -1)).To(Equal(int16(3)))
		Expect(k.Tap(-1, 1)).To(Equal(int16(7)))
		Expect(k.Tap(1, 1)).To(Equal(int16(9)))
		Expect(k.Size()).To(Equal(3))
	})

	It("should report the zero value", func() {
		Expect(kernel.Kernel{}.IsZero()).To(BeTrue())
		Expect(kernel.Identity().IsZero()).To(BeFalse())
	})
})

var _ = Describe("Factories", func() {
	DescribeTable("built-in kernels",
		func(k kernel.Kernel, name string, radius int, scale uint16, zeroSum bool) {
			Expect(k.Name()).To(Equal(name))
			Expect(k.Radius()).To(Equal(radius))
			Expect(k.Scale()).To(Equal(scale))
			Expect(k.ZeroSum()).To(Equal(zeroSum))
		},
		Entry("identity", kernel.Identity(), "identity", 0, uint16(1), false),
		Entry("box3", kernel.Box3(), "box3", 1, uint16(9), false),
		Entry("box9", kernel.Box9(), "box9", 4, uint16(81), false),
		Entry("gaus3", kernel.Gaussian3(), "gaus3", 1, uint16(16), false),
		Entry("gaus5", kernel.Gaussian5(), "gaus5", 2, uint16(273), false),
		Entry("log7", kernel.LoG7(), "log7", 3, uint16(1), true),
	)

	It("should make normalized kernels sum to their scale", func() {
		for _, k := range []kernel.Kernel{
			kernel.Box3(), kernel.Box9(), kernel.Gaussian3(), kernel.Gaussian5(),
		} {
			Expect(k.Sum()).To(Equal(int(k.Scale())), k.Name())
		}
	})
})

var _ = Describe("Catalog", func() {
	var catalog *kernel.Catalog

	BeforeEach(func() {
		catalog = kernel.DefaultCatalog()
	})

	It("should hold the built-in kernels", func() {
		Expect(catalog.Names()).To(Equal([]string{
			"box3", "box5", "box7", "box9", "gaus3", "gaus5", "identity", "log7",
		}))
	})

	It("should fail to look up unknown kernels", func() {
		_, err := catalog.Lookup("sobel")
		Expect(err).To(MatchError(ContainSubstring("unknown kernel")))
	})

	It("should load kernels from YAML", func() {
		err := catalog.Load(strings.NewReader(`
kernels:
  - name: sharpen
    radius: 1
    scale: 1
    taps: [0, -1, 0, -1, 5, -1, 0, -1, 0]
`))
		Expect(err).NotTo(HaveOccurred())

		k, err := catalog.Lookup("sharpen")
		Expect(err).NotTo(HaveOccurred())
		Expect(k.Tap(0, 0)).To(Equal(int16(5)))
		Expect(k.ZeroSum()).To(BeFalse())
	})

	It("should accept an empty file", func() {
		Expect(catalog.Load(strings.NewReader(""))).To(Succeed())
	})

	It("should reject unknown fields", func() {
		err := catalog.Load(strings.NewReader("kernels:\n  - name: x\n    size: 3\n"))
		Expect(err).To(HaveOccurred())
	})

	It("should reject invalid definitions", func() {
		err := catalog.Load(strings.NewReader(`
kernels:
  - name: bad
    radius: 1
    scale: 1
    taps: [1, 2]
`))
		Expect(err).To(HaveOccurred())
	})

	It("should load kernels from a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "kernels.yaml")
		Expect(os.WriteFile(path, []byte(
			"kernels:\n  - {name: one, radius: 0, scale: 1, taps: [1]}\n"), 0o644)).
			To(Succeed())

		Expect(catalog.LoadFile(path)).To(Succeed())
		_, err := catalog.Lookup("one")
		Expect(err).NotTo(HaveOccurred())
	})
})
