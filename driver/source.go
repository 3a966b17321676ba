package driver

import (
	"fmt"
	"os"

	"github.com/sarchlab/imgaccel/accel"
	"github.com/sarchlab/imgaccel/util/valgen"
)

// A Source fills the input image of an iteration.
type Source interface {
	Fill(img accel.Image, iteration int) error
}

// PatternSource generates a synthetic image. Random patterns use
// Seed+iteration so that every iteration sees different data.
type PatternSource struct {
	Pattern string
	Seed    int64
}

// Fill implements Source.
func (s PatternSource) Fill(img accel.Image, iteration int) error {
	gen, err := valgen.MakePatternGen(s.Pattern, int(img.Shape.Width), s.Seed+int64(iteration))
	if err != nil {
		return err
	}

	valgen.Fill(img.Pix, gen)

	return nil
}

// RawFileSource loads a headerless 8-bit image from a file.
type RawFileSource struct {
	Path string
}

// Fill implements Source.
func (s RawFileSource) Fill(img accel.Image, _ int) error {
	f, err := os.Open(s.Path)
	if err != nil {
		return fmt.Errorf("open input image: %w", err)
	}
	defer f.Close()

	raw, err := accel.ReadRaw(f, img.Shape)
	if err != nil {
		return fmt.Errorf("%s: %w", s.Path, err)
	}

	copy(img.Pix, raw.Pix)

	return nil
}
