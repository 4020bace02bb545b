// Package texture holds the 2D image sampler the rasterizer reads from.
// It is deliberately independent of pkg/render so that pkg/models can
// reference a Texture on a Mesh without creating an import cycle.
package texture

import (
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"math"
	"os"

	"github.com/taigrr/rasteriso/pkg/math3d"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // tile the texture
	WrapClamp                  // clamp to edge
)

// Texture holds a 2D image sampled with nearest-neighbor filtering only;
// the core rasterizer never mip-maps or filters (see Non-goals).
type Texture struct {
	Width  int
	Height int
	Pixels []uint8 // row-major, 4 bytes (R,G,B,A) per texel
	WrapU  WrapMode
	WrapV  WrapMode
}

// New creates an empty, fully-transparent-black texture with the given
// dimensions.
func New(width, height int) *Texture {
	return &Texture{
		Width:  width,
		Height: height,
		Pixels: make([]uint8, width*height*4),
		WrapU:  WrapRepeat,
		WrapV:  WrapRepeat,
	}
}

// Load decodes an image file (any format registered via the blank image/*
// imports) into a Texture. Image decoding internals are outside the core's
// scope; this is the ambient boundary that produces the opaque buffer the
// core samples.
func Load(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: open %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %q: %w", path, err)
	}
	return FromImage(img), nil
}

// FromImage copies an already-decoded image.Image into a Texture.
func FromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	tex := New(width, height)

	for y := range height {
		for x := range width {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			tex.SetPixel(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8))
		}
	}
	return tex
}

// NewChecker creates a procedural checkerboard texture, useful as a
// default/missing-texture placeholder.
func NewChecker(width, height, checkSize int, c1, c2 math3d.Color) *Texture {
	tex := New(width, height)
	for y := range height {
		for x := range width {
			c := c1
			if ((x/checkSize)+(y/checkSize))%2 != 0 {
				c = c2
			}
			tex.SetPixel(x, y, byteOf(c.R), byteOf(c.G), byteOf(c.B), byteOf(c.A))
		}
	}
	return tex
}

func byteOf(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v * 255)
}

// SetPixel writes a texel. Out-of-bounds writes are silently dropped.
func (t *Texture) SetPixel(x, y int, r, g, b, a uint8) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	i := (y*t.Width + x) * 4
	t.Pixels[i+0] = r
	t.Pixels[i+1] = g
	t.Pixels[i+2] = b
	t.Pixels[i+3] = a
}

// GetPixel reads a texel as a linear-space Color. Out-of-bounds reads
// return transparent black.
func (t *Texture) GetPixel(x, y int) math3d.Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return math3d.Color{}
	}
	i := (y*t.Width + x) * 4
	const inv255 = 1.0 / 255.0
	return math3d.Color{
		R: float64(t.Pixels[i+0]) * inv255,
		G: float64(t.Pixels[i+1]) * inv255,
		B: float64(t.Pixels[i+2]) * inv255,
		A: float64(t.Pixels[i+3]) * inv255,
	}
}

// Sample performs nearest-neighbor sampling at UV coordinates (0-1 range).
// V is not flipped here: the OBJ loader already stores V as 1-v, and a
// second flip here would cancel that out and mirror the image.
func (t *Texture) Sample(u, v float64) math3d.Color {
	u = t.wrap(u, t.WrapU)
	v = t.wrap(v, t.WrapV)

	x := int(u * float64(t.Width))
	y := int(v * float64(t.Height))
	if x >= t.Width {
		x = t.Width - 1
	}
	if y >= t.Height {
		y = t.Height - 1
	}
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return t.GetPixel(x, y)
}

func (t *Texture) wrap(coord float64, mode WrapMode) float64 {
	switch mode {
	case WrapClamp:
		return math.Max(0, math.Min(1, coord))
	default: // WrapRepeat
		return coord - math.Floor(coord)
	}
}
