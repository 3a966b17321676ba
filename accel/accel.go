// Package accel defines the commonly used data structures shared by the
// reference filter, the offload path and the simulated accelerator.
package accel

import (
	"fmt"
	"strings"

	"github.com/sarchlab/imgaccel/kernel"
)

// Direction identifies one half of a DMA round trip.
type Direction int

const (
	// Outbound moves data from memory to the accelerator.
	Outbound Direction = iota
	// Inbound moves data from the accelerator to memory.
	Inbound
)

// Name returns the name of the direction.
func (d Direction) Name() string {
	switch d {
	case Outbound:
		return "Outbound"
	case Inbound:
		return "Inbound"
	default:
		panic("invalid direction")
	}
}

func (d Direction) String() string {
	return d.Name()
}

// SampleMode is the storage width of one pixel.
type SampleMode int

const (
	Bit8 SampleMode = iota
	// Bit16 is reserved. The reference path only handles Bit8.
	Bit16
)

// SampleSize returns the number of bytes per pixel.
func (m SampleMode) SampleSize() int {
	switch m {
	case Bit8:
		return 1
	case Bit16:
		return 2
	default:
		panic("invalid sample mode")
	}
}

func (m SampleMode) String() string {
	switch m {
	case Bit8:
		return "bit8"
	case Bit16:
		return "bit16"
	default:
		return fmt.Sprintf("SampleMode(%d)", int(m))
	}
}

// ParseSampleMode parses "bit8" or "bit16".
func ParseSampleMode(s string) (SampleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bit8", "8":
		return Bit8, nil
	case "bit16", "16":
		return Bit16, nil
	default:
		return Bit8, fmt.Errorf("invalid sample mode %q", s)
	}
}

// BorderKind tells how out-of-bounds taps are resolved.
type BorderKind int

const (
	// BorderNoPad marks every pixel whose window leaves the image as invalid.
	BorderNoPad BorderKind = iota
	// BorderConstPad substitutes a constant for out-of-bounds taps.
	BorderConstPad
	// BorderNearestPad clamps out-of-bounds coordinates to the edge.
	BorderNearestPad
)

// BorderPolicy governs out-of-bounds kernel taps. The zero value is NoPad.
// Build values with NoPad, ConstPad and NearestPad.
type BorderPolicy struct {
	kind  BorderKind
	value byte
}

// NoPad returns the policy that zeroes pixels near the edge.
func NoPad() BorderPolicy {
	return BorderPolicy{kind: BorderNoPad}
}

// ConstPad returns the policy that pads with v.
func ConstPad(v byte) BorderPolicy {
	return BorderPolicy{kind: BorderConstPad, value: v}
}

// NearestPad returns the policy that replicates the edge pixels.
func NearestPad() BorderPolicy {
	return BorderPolicy{kind: BorderNearestPad}
}

// Kind returns the border kind.
func (b BorderPolicy) Kind() BorderKind {
	return b.kind
}

// Value returns the pad value. ok is false unless the policy is ConstPad.
func (b BorderPolicy) Value() (v byte, ok bool) {
	return b.value, b.kind == BorderConstPad
}

func (b BorderPolicy) String() string {
	switch b.kind {
	case BorderNoPad:
		return "nopad"
	case BorderConstPad:
		return fmt.Sprintf("const(%d)", b.value)
	case BorderNearestPad:
		return "nearest"
	default:
		return fmt.Sprintf("BorderPolicy(%d)", int(b.kind))
	}
}

// ParseBorder builds a policy from its configuration name. The value is only
// used by "const".
func ParseBorder(name string, value byte) (BorderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nopad", "no_pad", "none":
		return NoPad(), nil
	case "const", "const_pad", "constant":
		return ConstPad(value), nil
	case "nearest", "nearest_pad", "replicate":
		return NearestPad(), nil
	default:
		return BorderPolicy{}, fmt.Errorf("invalid border policy %q", name)
	}
}

// ImageShape is the size of an image in pixels.
type ImageShape struct {
	Width  uint16
	Height uint16
}

// Pixels returns Width*Height.
func (s ImageShape) Pixels() int {
	return int(s.Width) * int(s.Height)
}

// Validate checks that both dimensions are positive.
func (s ImageShape) Validate() error {
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("invalid image shape %s", s)
	}

	return nil
}

func (s ImageShape) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ProcessingParams describes one filtering job.
type ProcessingParams struct {
	Shape  ImageShape
	Kernel kernel.Kernel
	Mode   SampleMode
	Border BorderPolicy
	// Bypass makes the accelerator pass pixels through unfiltered.
	Bypass bool
}

// Validate rejects parameters the filter cannot run with.
func (p ProcessingParams) Validate() error {
	if err := p.Shape.Validate(); err != nil {
		return err
	}

	if p.Kernel.IsZero() {
		return fmt.Errorf("no kernel given")
	}

	if p.Mode != Bit8 {
		return fmt.Errorf("sample mode %s is not supported", p.Mode)
	}

	switch p.Border.Kind() {
	case BorderNoPad, BorderConstPad, BorderNearestPad:
	default:
		return fmt.Errorf("invalid border policy %s", p.Border)
	}

	return nil
}

// BufferSize returns the number of bytes of one image.
func (p ProcessingParams) BufferSize() int {
	return p.Shape.Pixels() * p.Mode.SampleSize()
}
