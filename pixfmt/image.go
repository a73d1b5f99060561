package pixfmt

import (
	"errors"
	"image"
	"image/color"
)

// Errors returned by Image constructors.
var (
	// ErrInvalidDimensions is returned when width or height is negative.
	ErrInvalidDimensions = errors.New("pixfmt: invalid dimensions")

	// ErrInvalidStride is returned when stride is less than a packed row.
	ErrInvalidStride = errors.New("pixfmt: stride too small for width")

	// ErrDataTooSmall is returned when pixel data is shorter than required.
	ErrDataTooSmall = errors.New("pixfmt: data buffer too small")
)

// Image is a strided pixel buffer in an arbitrary PixelFormat.
//
// Image implements image.Image and draw.Image so generic resamplers can read
// and write native framebuffer memory without an intermediate RGBA copy.
// Pix may alias memory owned by someone else, such as a shared-memory
// segment; Image never frees it.
type Image struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
	Format PixelFormat

	// Palette resolves colour map indices when Format is not true colour.
	Palette color.Palette
}

// NewImage allocates a packed image of the given size.
func NewImage(r image.Rectangle, f PixelFormat) *Image {
	stride := f.RowBytes(r.Dx())
	return &Image{
		Pix:    make([]byte, stride*r.Dy()),
		Stride: stride,
		Rect:   r,
		Format: f,
	}
}

// FromRaw wraps existing pixel data without copying.
func FromRaw(pix []byte, width, height, stride int, f PixelFormat) (*Image, error) {
	if width < 0 || height < 0 {
		return nil, ErrInvalidDimensions
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if stride < f.RowBytes(width) {
		return nil, ErrInvalidStride
	}
	if height > 0 && len(pix) < stride*(height-1)+f.RowBytes(width) {
		return nil, ErrDataTooSmall
	}
	return &Image{
		Pix:    pix,
		Stride: stride,
		Rect:   image.Rect(0, 0, width, height),
		Format: f,
	}, nil
}

// ColorModel implements image.Image.
func (p *Image) ColorModel() color.Model {
	if !p.Format.TrueColour && p.Palette != nil {
		return p.Palette
	}
	return color.RGBA64Model
}

// Bounds implements image.Image.
func (p *Image) Bounds() image.Rectangle { return p.Rect }

// PixOffset returns the index of the first byte of pixel (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*p.Format.BytesPerPixel()
}

// PixelAt returns the packed pixel value at (x, y), or zero outside bounds.
func (p *Image) PixelAt(x, y int) uint32 {
	if !(image.Point{x, y}.In(p.Rect)) {
		return 0
	}
	return p.Format.Pixel(p.Pix[p.PixOffset(x, y):])
}

// SetPixel stores a packed pixel value at (x, y). Out of bounds writes are ignored.
func (p *Image) SetPixel(x, y int, v uint32) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	p.Format.PutPixel(p.Pix[p.PixOffset(x, y):], v)
}

// At implements image.Image.
func (p *Image) At(x, y int) color.Color {
	return p.RGBA64At(x, y)
}

// RGBA64At implements image.RGBA64Image.
func (p *Image) RGBA64At(x, y int) color.RGBA64 {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA64{}
	}
	v := p.Format.Pixel(p.Pix[p.PixOffset(x, y):])
	if !p.Format.TrueColour {
		if int(v) < len(p.Palette) {
			r, g, b, _ := p.Palette[v].RGBA()
			return color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 0xffff}
		}
		return color.RGBA64{A: 0xffff}
	}
	r, g, b := p.Format.RGB(v)
	return color.RGBA64{R: r, G: g, B: b, A: 0xffff}
}

// Set implements draw.Image.
func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	if !p.Format.TrueColour {
		if len(p.Palette) > 0 {
			p.SetPixel(x, y, uint32(p.Palette.Index(c))) //nolint:gosec // index < 256
		}
		return
	}
	r, g, b, _ := c.RGBA()
	p.SetPixel(x, y, p.Format.Encode(uint16(r), uint16(g), uint16(b)))
}

// SetRGBA64 implements draw.RGBA64Image.
func (p *Image) SetRGBA64(x, y int, c color.RGBA64) {
	if !p.Format.TrueColour {
		p.Set(x, y, c)
		return
	}
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	p.SetPixel(x, y, p.Format.Encode(c.R, c.G, c.B))
}

// Opaque implements the optional opaque check used by image/draw.
func (p *Image) Opaque() bool { return true }

// SubImage returns a view of p restricted to r. The view shares pixels with p.
func (p *Image) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &Image{Format: p.Format, Palette: p.Palette}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &Image{
		Pix:     p.Pix[i:],
		Stride:  p.Stride,
		Rect:    r,
		Format:  p.Format,
		Palette: p.Palette,
	}
}

// RowBytes returns the packed bytes of row y inside the image bounds.
func (p *Image) RowBytes(y int) []byte {
	if y < p.Rect.Min.Y || y >= p.Rect.Max.Y {
		return nil
	}
	i := p.PixOffset(p.Rect.Min.X, y)
	return p.Pix[i : i+p.Format.RowBytes(p.Rect.Dx())]
}

// CopyRect copies the pixels of r from src into dst at the same coordinates.
// Both images must share a pixel format; r is clipped to both bounds.
func CopyRect(dst, src *Image, r image.Rectangle) {
	r = r.Intersect(dst.Rect).Intersect(src.Rect)
	if r.Empty() {
		return
	}
	n := dst.Format.RowBytes(r.Dx())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		d := dst.PixOffset(r.Min.X, y)
		s := src.PixOffset(r.Min.X, y)
		copy(dst.Pix[d:d+n], src.Pix[s:s+n])
	}
}

// Clear zeroes every pixel inside the image bounds.
func (p *Image) Clear() {
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		clear(p.RowBytes(y))
	}
}
