package pixfmt

import (
	"fmt"
	"math"
	"math/bits"
)

// VisualClass mirrors the X11 visual classes a display may advertise.
type VisualClass uint8

const (
	StaticGray VisualClass = iota
	GrayScale
	StaticColour
	PseudoColour
	TrueColour
	DirectColour
)

// String returns the class name.
func (c VisualClass) String() string {
	switch c {
	case StaticGray:
		return "StaticGray"
	case GrayScale:
		return "GrayScale"
	case StaticColour:
		return "StaticColour"
	case PseudoColour:
		return "PseudoColour"
	case TrueColour:
		return "TrueColour"
	case DirectColour:
		return "DirectColour"
	default:
		return "Unknown"
	}
}

// Layout is one pixmap format supported by the display.
type Layout struct {
	Depth        int
	BitsPerPixel int

	// ScanlinePad is the row alignment in bits (8, 16 or 32).
	ScanlinePad int
}

// Visual describes what the display can consume directly.
type Visual struct {
	Depth     int
	Class     VisualClass
	RedMask   uint32
	GreenMask uint32
	BlueMask  uint32
	BigEndian bool

	// ColourMapSize is the number of colour map entries for palette visuals.
	ColourMapSize int

	Layouts []Layout
}

// FormatError reports that no usable pixel layout exists for a display depth.
type FormatError struct {
	Depth int
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("pixfmt: depth %d: %v", e.Depth, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// LayoutFor returns the layout listed for depth.
func (v Visual) LayoutFor(depth int) (Layout, bool) {
	for _, l := range v.Layouts {
		if l.Depth == depth {
			return l, true
		}
	}
	return Layout{}, false
}

// DeriveNative computes the native pixel format of a visual.
//
// The bits-per-pixel comes from the pixmap layout listed for the visual's
// depth. For true-colour visuals each channel shift is the index of the
// lowest set mask bit and the channel max is the mask shifted down.
func DeriveNative(v Visual) (PixelFormat, error) {
	l, ok := v.LayoutFor(v.Depth)
	if !ok {
		return PixelFormat{}, &FormatError{Depth: v.Depth, Err: ErrNoLayout}
	}
	if !SupportedBPP(l.BitsPerPixel) {
		return PixelFormat{}, &FormatError{
			Depth: v.Depth,
			Err:   fmt.Errorf("%w: %d", ErrUnsupportedBPP, l.BitsPerPixel),
		}
	}

	f := PixelFormat{
		BitsPerPixel: l.BitsPerPixel,
		Depth:        v.Depth,
		BigEndian:    v.BigEndian,
		TrueColour:   v.Class == TrueColour,
	}
	if f.TrueColour {
		f.RedShift, f.RedMax = maskChannel(v.RedMask)
		f.GreenShift, f.GreenMax = maskChannel(v.GreenMask)
		f.BlueShift, f.BlueMax = maskChannel(v.BlueMask)
		if err := f.Validate(); err != nil {
			return PixelFormat{}, &FormatError{Depth: v.Depth, Err: err}
		}
	}
	return f, nil
}

// maskChannel splits a channel mask into shift and max.
func maskChannel(mask uint32) (shift uint8, max uint16) {
	if mask == 0 {
		return 0, 0
	}
	s := bits.TrailingZeros32(mask)
	return uint8(s), uint16(mask >> s) //nolint:gosec // channel masks fit in 16 bits
}

// Stride returns the padded row length in bytes for width pixels.
func (l Layout) Stride(width int) int {
	stride, _ := l.CheckedStride(width)
	return stride
}

// CheckedStride is Stride that reports false instead of overflowing when
// width is too large to address.
func (l Layout) CheckedStride(width int) (int, bool) {
	pad := l.ScanlinePad
	if pad <= 0 {
		pad = 8
	}
	if width < 0 || l.BitsPerPixel <= 0 {
		return 0, false
	}
	if width > (math.MaxInt-pad)/l.BitsPerPixel {
		return 0, false
	}
	rowBits := width * l.BitsPerPixel
	return (rowBits + pad - 1) / pad * pad / 8, true
}
