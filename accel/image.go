package accel

import (
	"fmt"
	"io"
)

// Image is a row-major 8-bit grayscale image.
type Image struct {
	Shape ImageShape
	Pix   []byte
}

// NewImage allocates a zeroed image.
func NewImage(shape ImageShape) Image {
	return Image{Shape: shape, Pix: make([]byte, shape.Pixels())}
}

// WrapImage uses buf as the pixel storage of an image of the given shape.
func WrapImage(shape ImageShape, buf []byte) (Image, error) {
	if len(buf) < shape.Pixels() {
		return Image{}, fmt.Errorf("buffer of %d bytes cannot hold a %s image",
			len(buf), shape)
	}

	return Image{Shape: shape, Pix: buf[:shape.Pixels()]}, nil
}

// At returns the pixel at column x, row y.
func (img Image) At(x, y int) byte {
	return img.Pix[y*int(img.Shape.Width)+x]
}

// Set writes the pixel at column x, row y.
func (img Image) Set(x, y int, v byte) {
	img.Pix[y*int(img.Shape.Width)+x] = v
}

// Fill sets every pixel to v.
func (img Image) Fill(v byte) {
	for i := range img.Pix {
		img.Pix[i] = v
	}
}

// Clone returns a deep copy.
func (img Image) Clone() Image {
	return Image{Shape: img.Shape, Pix: append([]byte(nil), img.Pix...)}
}

// SameShape reports whether both images have the same dimensions.
func SameShape(a, b Image) bool {
	return a.Shape == b.Shape
}

// ReadRaw reads a headerless raw image of width*height bytes.
func ReadRaw(r io.Reader, shape ImageShape) (Image, error) {
	img := NewImage(shape)

	if _, err := io.ReadFull(r, img.Pix); err != nil {
		return Image{}, fmt.Errorf("raw image is not %s: %w", shape, err)
	}

	var extra [1]byte
	if n, _ := r.Read(extra[:]); n != 0 {
		return Image{}, fmt.Errorf("raw image is larger than %s", shape)
	}

	return img, nil
}

// WriteRaw writes the pixels without any header.
func WriteRaw(w io.Writer, img Image) error {
	_, err := w.Write(img.Pix)
	return err
}
