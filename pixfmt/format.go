// Package pixfmt describes framebuffer pixel layouts.
//
// A PixelFormat is the RFB-style description of how a pixel is packed into
// 8, 16 or 32 bits: byte order, whether the value is a true-colour triple or
// a colour map index, and the shift and maximum of each channel. Two formats
// are interchangeable only when every field is equal.
package pixfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Common errors for pixel format operations.
var (
	// ErrUnsupportedBPP is returned when bits-per-pixel is not 8, 16 or 32.
	ErrUnsupportedBPP = errors.New("pixfmt: unsupported bits per pixel")

	// ErrNoLayout is returned when the display lists no pixmap layout for a depth.
	ErrNoLayout = errors.New("pixfmt: no pixmap layout for depth")

	// ErrZeroChannel is returned when a true-colour format has a zero channel max.
	ErrZeroChannel = errors.New("pixfmt: true-colour channel with zero max")
)

// PixelFormat is an immutable pixel layout description.
type PixelFormat struct {
	BitsPerPixel int
	Depth        int
	BigEndian    bool
	TrueColour   bool

	RedMax   uint16
	GreenMax uint16
	BlueMax  uint16

	RedShift   uint8
	GreenShift uint8
	BlueShift  uint8
}

// Common native layouts.
var (
	// BGRX32 is 32bpp little-endian with blue in the lowest byte, the usual
	// layout of a depth-24 TrueColor visual.
	BGRX32 = PixelFormat{
		BitsPerPixel: 32, Depth: 24, TrueColour: true,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 16, GreenShift: 8, BlueShift: 0,
	}

	// RGBX32 is 32bpp little-endian with red in the lowest byte, matching
	// image.RGBA byte order.
	RGBX32 = PixelFormat{
		BitsPerPixel: 32, Depth: 24, TrueColour: true,
		RedMax: 255, GreenMax: 255, BlueMax: 255,
		RedShift: 0, GreenShift: 8, BlueShift: 16,
	}

	// RGB565 is 16bpp little-endian 5-6-5.
	RGB565 = PixelFormat{
		BitsPerPixel: 16, Depth: 16, TrueColour: true,
		RedMax: 31, GreenMax: 63, BlueMax: 31,
		RedShift: 11, GreenShift: 5, BlueShift: 0,
	}

	// BGR233 is 8bpp true colour, the classic low-bandwidth RFB format.
	BGR233 = PixelFormat{
		BitsPerPixel: 8, Depth: 8, TrueColour: true,
		RedMax: 7, GreenMax: 7, BlueMax: 3,
		RedShift: 0, GreenShift: 3, BlueShift: 6,
	}

	// Indexed8 is an 8bpp colour map format.
	Indexed8 = PixelFormat{BitsPerPixel: 8, Depth: 8}
)

// SupportedBPP reports whether bpp is a width this package can address.
func SupportedBPP(bpp int) bool {
	return bpp == 8 || bpp == 16 || bpp == 32
}

// Validate checks that the format is usable.
func (f PixelFormat) Validate() error {
	if !SupportedBPP(f.BitsPerPixel) {
		return fmt.Errorf("%w: %d", ErrUnsupportedBPP, f.BitsPerPixel)
	}
	if f.TrueColour && (f.RedMax == 0 || f.GreenMax == 0 || f.BlueMax == 0) {
		return ErrZeroChannel
	}
	return nil
}

// Equal reports whether f and g describe the same layout.
func (f PixelFormat) Equal(g PixelFormat) bool {
	return f == g
}

// BytesPerPixel returns the number of bytes occupied by one pixel.
func (f PixelFormat) BytesPerPixel() int {
	return f.BitsPerPixel / 8
}

// RowBytes returns the unpadded byte length of a row of width pixels.
func (f PixelFormat) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ByteOrder returns the byte order pixels are stored in.
func (f PixelFormat) ByteOrder() binary.ByteOrder {
	if f.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Pixel reads one packed pixel value from b.
func (f PixelFormat) Pixel(b []byte) uint32 {
	switch f.BitsPerPixel {
	case 8:
		return uint32(b[0])
	case 16:
		return uint32(f.ByteOrder().Uint16(b))
	case 32:
		return f.ByteOrder().Uint32(b)
	}
	return 0
}

// PutPixel writes one packed pixel value into b.
func (f PixelFormat) PutPixel(b []byte, v uint32) {
	switch f.BitsPerPixel {
	case 8:
		b[0] = uint8(v)
	case 16:
		f.ByteOrder().PutUint16(b, uint16(v))
	case 32:
		f.ByteOrder().PutUint32(b, v)
	}
}

// RGB unpacks a true-colour pixel into 16-bit channels.
// For colour map formats it returns zero; use a palette lookup instead.
func (f PixelFormat) RGB(v uint32) (r, g, b uint16) {
	if !f.TrueColour {
		return 0, 0, 0
	}
	r = expand(v>>f.RedShift&uint32(f.RedMax), f.RedMax)
	g = expand(v>>f.GreenShift&uint32(f.GreenMax), f.GreenMax)
	b = expand(v>>f.BlueShift&uint32(f.BlueMax), f.BlueMax)
	return r, g, b
}

// Encode packs 16-bit channels into a true-colour pixel.
func (f PixelFormat) Encode(r, g, b uint16) uint32 {
	return compress(r, f.RedMax)<<f.RedShift |
		compress(g, f.GreenMax)<<f.GreenShift |
		compress(b, f.BlueMax)<<f.BlueShift
}

// expand scales v in [0,max] to [0,65535].
func expand(v uint32, max uint16) uint16 {
	if max == 0 {
		return 0
	}
	return uint16((v*65535 + uint32(max)/2) / uint32(max))
}

// compress scales c in [0,65535] to [0,max].
func compress(c uint16, max uint16) uint32 {
	return (uint32(c)*uint32(max) + 32767) / 65535
}

// String returns a short description of the layout.
func (f PixelFormat) String() string {
	order := "LE"
	if f.BigEndian {
		order = "BE"
	}
	if !f.TrueColour {
		return fmt.Sprintf("%dbpp depth %d colour map %s", f.BitsPerPixel, f.Depth, order)
	}
	return fmt.Sprintf("%dbpp depth %d TrueColour max %d/%d/%d shift %d/%d/%d %s",
		f.BitsPerPixel, f.Depth,
		f.RedMax, f.GreenMax, f.BlueMax,
		f.RedShift, f.GreenShift, f.BlueShift, order)
}
