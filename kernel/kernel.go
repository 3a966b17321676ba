// Package kernel defines the convolution kernels that the filter accelerator
// and its software reference support.
package kernel

import "fmt"

// MaxRadius is the largest radius the accelerator supports (a 9x9 window).
const MaxRadius = 4

// A Kernel is a square, odd-sized convolution kernel with integer taps. The
// weighted sum of a window is divided by Scale, unless the taps sum to zero,
// in which case no normalization happens.
type Kernel struct {
	name   string
	radius int
	taps   []int16
	scale  uint16
}

// New creates a kernel. The taps are stored row-major and must contain
// exactly (2*radius+1)^2 entries.
func New(name string, radius int, taps []int16, scale uint16) (Kernel, error) {
	if radius < 0 || radius > MaxRadius {
		return Kernel{}, fmt.Errorf("kernel %q: radius %d out of range [0, %d]",
			name, radius, MaxRadius)
	}

	size := 2*radius + 1
	if len(taps) != size*size {
		return Kernel{}, fmt.Errorf("kernel %q: need %d taps for radius %d, got %d",
			name, size*size, radius, len(taps))
	}

	if scale == 0 {
		return Kernel{}, fmt.Errorf("kernel %q: scale must be nonzero", name)
	}

	k := Kernel{
		name:   name,
		radius: radius,
		taps:   append([]int16(nil), taps...),
		scale:  scale,
	}

	if k.ZeroSum() && scale != 1 {
		return Kernel{}, fmt.Errorf("kernel %q: zero-sum kernel must use scale 1, got %d",
			name, scale)
	}

	return k, nil
}

// MustNew is like New but panics on an invalid definition.
func MustNew(name string, radius int, taps []int16, scale uint16) Kernel {
	k, err := New(name, radius, taps, scale)
	if err != nil {
		panic(err)
	}

	return k
}

// Name returns the catalog name of the kernel.
func (k Kernel) Name() string {
	return k.name
}

// Radius returns the kernel radius.
func (k Kernel) Radius() int {
	return k.radius
}

// Size returns the side length of the kernel window.
func (k Kernel) Size() int {
	return 2*k.radius + 1
}

// Scale returns the normalization divisor.
func (k Kernel) Scale() uint16 {
	return k.scale
}

// Tap returns the weight at window offset (dx, dy), both in
// [-radius, radius].
func (k Kernel) Tap(dx, dy int) int16 {
	return k.taps[(dy+k.radius)*k.Size()+(dx+k.radius)]
}

// Taps returns a copy of the row-major taps.
func (k Kernel) Taps() []int16 {
	return append([]int16(nil), k.taps...)
}

// Sum returns the sum of all taps.
func (k Kernel) Sum() int {
	sum := 0
	for _, t := range k.taps {
		sum += int(t)
	}

	return sum
}

// ZeroSum reports whether the taps sum to zero. Zero-sum kernels skip the
// division by scale.
func (k Kernel) ZeroSum() bool {
	return k.Sum() == 0
}

// IsZero reports whether k is the zero Kernel value.
func (k Kernel) IsZero() bool {
	return k.taps == nil
}

func (k Kernel) String() string {
	return fmt.Sprintf("%s(%dx%d, scale=%d)", k.name, k.Size(), k.Size(), k.scale)
}
