// Some helpers using closures to generate pixel values
package valgen

import (
	"fmt"
	"math/rand"
	"strings"
)

func MakeConstGen(constant int) func() int {
	return func() int {
		return constant
	}
}

// MakeIncreasingGen counts up from start. Values wrap when stored as bytes.
func MakeIncreasingGen(start int) func() int {
	current := start - 1
	return func() int {
		current++
		return current
	}
}

// MakeRandomGen returns a reproducible sequence of values in [0, 255].
func MakeRandomGen(seed int64) func() int {
	r := rand.New(rand.NewSource(seed))
	return func() int {
		return r.Intn(256)
	}
}

// MakeGradientGen walks a width-wide image in row-major order and returns x+y
// for each pixel.
func MakeGradientGen(width int) func() int {
	if width <= 0 {
		panic("gradient width must be positive")
	}

	i := -1
	return func() int {
		i++
		return i%width + i/width
	}
}

// MakeCheckerGen returns 0 and 255 alternating in cells of size by size
// pixels.
func MakeCheckerGen(width, size int) func() int {
	if width <= 0 || size <= 0 {
		panic("checker width and size must be positive")
	}

	i := -1
	return func() int {
		i++
		x, y := i%width, i/width
		if (x/size+y/size)%2 == 0 {
			return 0
		}
		return 255
	}
}

// Patterns lists the names accepted by MakePatternGen.
var Patterns = []string{"const", "increasing", "random", "gradient", "checker"}

// MakePatternGen returns the generator called name for images that are width
// pixels wide.
func MakePatternGen(name string, width int, seed int64) (func() int, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "const":
		return MakeConstGen(128), nil
	case "increasing", "":
		return MakeIncreasingGen(0), nil
	case "random":
		return MakeRandomGen(seed), nil
	case "gradient":
		return MakeGradientGen(width), nil
	case "checker":
		return MakeCheckerGen(width, 8), nil
	default:
		return nil, fmt.Errorf("unknown pattern %q, want one of %s",
			name, strings.Join(Patterns, ", "))
	}
}

// Fill stores successive values of gen into buf, keeping the low 8 bits.
func Fill(buf []byte, gen func() int) {
	for i := range buf {
		buf[i] = byte(gen())
	}
}
