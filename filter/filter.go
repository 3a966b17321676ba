// Package filter is the software reference of the convolution accelerator.
//
// For every output pixel the kernel window is laid over the input and the
// taps are resolved according to the border policy:
//
//   - NoPad: if any tap falls outside the image the output pixel is 0.
//   - ConstPad(v): out-of-bounds taps read v.
//   - NearestPad: out-of-bounds coordinates are clamped to the edge.
//
// The weighted sum is accumulated in an int32, divided by the kernel scale
// (truncating toward zero) unless the kernel is zero-sum, and saturated to
// [0, 255].
package filter

import (
	"unsafe"

	"github.com/sarchlab/imgaccel/accel"
)

// Filter returns a new image holding the filtered input.
func Filter(in accel.Image, params accel.ProcessingParams) accel.Image {
	out := accel.NewImage(in.Shape)
	Apply(out, in, params)

	return out
}

// Apply filters src into dst. dst must have the shape of src and must not
// share storage with it.
func Apply(dst, src accel.Image, params accel.ProcessingParams) {
	mustBeFilterable(dst, src, params)

	width := int(src.Shape.Width)
	height := int(src.Shape.Height)
	w := newWindow(params)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v, valid := w.convolveAt(src, x, y)
			if !valid {
				dst.Pix[y*width+x] = 0
				continue
			}

			dst.Pix[y*width+x] = v
		}
	}
}

// window holds the per-job constants of the inner loop.
type window struct {
	params   accel.ProcessingParams
	radius   int
	border   accel.BorderKind
	padValue byte
	divide   bool
	scale    int32
}

func newWindow(params accel.ProcessingParams) window {
	padValue, _ := params.Border.Value()

	return window{
		params:   params,
		radius:   params.Kernel.Radius(),
		border:   params.Border.Kind(),
		padValue: padValue,
		divide:   !params.Kernel.ZeroSum(),
		scale:    int32(params.Kernel.Scale()),
	}
}

func (w window) convolveAt(src accel.Image, x, y int) (byte, bool) {
	k := w.params.Kernel
	radius := w.radius
	width := int(src.Shape.Width)
	height := int(src.Shape.Height)
	border := w.border
	padValue := w.padValue

	if border == accel.BorderNoPad &&
		(x < radius || y < radius || x+radius >= width || y+radius >= height) {
		return 0, false
	}

	var sum int32

	for j := -radius; j <= radius; j++ {
		for i := -radius; i <= radius; i++ {
			xx := x + i
			yy := y + j

			var pixel byte

			switch {
			case xx >= 0 && xx < width && yy >= 0 && yy < height:
				pixel = src.Pix[yy*width+xx]
			case border == accel.BorderConstPad:
				pixel = padValue
			default:
				pixel = src.Pix[clamp(yy, height)*width+clamp(xx, width)]
			}

			sum += int32(pixel) * int32(k.Tap(i, j))
		}
	}

	if w.divide {
		sum /= w.scale
	}

	return saturate(sum), true
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}

	if v >= n {
		return n - 1
	}

	return v
}

func saturate(v int32) byte {
	if v < 0 {
		return 0
	}

	if v > 255 {
		return 255
	}

	return byte(v)
}

func mustBeFilterable(dst, src accel.Image, params accel.ProcessingParams) {
	if err := params.Validate(); err != nil {
		panic(err)
	}

	if src.Shape != params.Shape {
		panic("input image does not match the processing parameters")
	}

	if !accel.SameShape(dst, src) || len(dst.Pix) != len(src.Pix) {
		panic("output image shape differs from input")
	}

	if len(src.Pix) != src.Shape.Pixels() {
		panic("input buffer does not match the image shape")
	}

	if unsafe.SliceData(dst.Pix) == unsafe.SliceData(src.Pix) {
		panic("output image aliases the input")
	}
}
