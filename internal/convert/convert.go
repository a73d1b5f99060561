// Package convert translates pixels between framebuffer pixel formats.
//
// A Translator is built once per (source, destination) format pair and holds
// precomputed lookup tables, so the per-pixel work is a few table reads and
// ORs. Supported pairs:
//
//   - true colour to true colour: per-channel rescale tables
//   - true colour to colour map: per-channel lattice tables into a colour cube
//   - colour map to true colour: a 256-entry colour cache built from the
//     colour map table
//   - identical formats: a plain row copy
//
// Colour map to a different colour map format is not supported.
package convert

import (
	"errors"
	"image"

	"github.com/gogpu/fbimage/palette"
	"github.com/gogpu/fbimage/pixfmt"
)

// Errors returned by New.
var (
	// ErrUnsupported is returned for colour map to colour map conversion.
	ErrUnsupported = errors.New("convert: unsupported conversion")

	// ErrNoCube is returned when the destination is a colour map format and
	// no colour cube was supplied.
	ErrNoCube = errors.New("convert: colour map destination needs a colour cube")
)

type kind uint8

const (
	kindCopy kind = iota
	kindTrueToTrue
	kindTrueToCube
	kindMapToTrue
)

// Translator converts rectangles from one pixel format to another.
//
// Translate may run concurrently on disjoint rectangles. SetColourMap must
// not overlap any Translate call.
type Translator struct {
	src  pixfmt.PixelFormat
	dst  pixfmt.PixelFormat
	kind kind

	// Per source channel value: shifted destination bits (kindTrueToTrue)
	// or cube lattice level (kindTrueToCube).
	red, green, blue []uint32

	cube    *palette.Cube
	colours [palette.Size]uint32
}

// New builds a translator from src to dst. table supplies colour map
// entries for colour map sources; cube is required for colour map
// destinations.
func New(src, dst pixfmt.PixelFormat, table *palette.Table, cube *palette.Cube) (*Translator, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := dst.Validate(); err != nil {
		return nil, err
	}

	t := &Translator{src: src, dst: dst, cube: cube}
	switch {
	case src == dst:
		t.kind = kindCopy
	case src.TrueColour && dst.TrueColour:
		t.kind = kindTrueToTrue
		t.red = rescaleTable(src.RedMax, dst.RedMax, dst.RedShift)
		t.green = rescaleTable(src.GreenMax, dst.GreenMax, dst.GreenShift)
		t.blue = rescaleTable(src.BlueMax, dst.BlueMax, dst.BlueShift)
	case src.TrueColour:
		if cube == nil {
			return nil, ErrNoCube
		}
		t.kind = kindTrueToCube
		t.red = levelTable(src.RedMax, cube.NRed)
		t.green = levelTable(src.GreenMax, cube.NGreen)
		t.blue = levelTable(src.BlueMax, cube.NBlue)
	case dst.TrueColour:
		t.kind = kindMapToTrue
		t.SetColourMap(table)
	default:
		return nil, ErrUnsupported
	}
	return t, nil
}

// Source returns the source format.
func (t *Translator) Source() pixfmt.PixelFormat { return t.src }

// Destination returns the destination format.
func (t *Translator) Destination() pixfmt.PixelFormat { return t.dst }

// SetColourMap refreshes the colour cache from table. It only affects
// translators whose source is a colour map format.
func (t *Translator) SetColourMap(table *palette.Table) {
	if t.kind != kindMapToTrue {
		return
	}
	for i := range t.colours {
		var c palette.RGB
		if table != nil {
			c = table.Lookup(i)
		}
		t.colours[i] = t.dst.Encode(c.R, c.G, c.B)
	}
}

// Pixel converts a single packed pixel.
func (t *Translator) Pixel(v uint32) uint32 {
	switch t.kind {
	case kindTrueToTrue:
		s := t.src
		return t.red[v>>s.RedShift&uint32(s.RedMax)] |
			t.green[v>>s.GreenShift&uint32(s.GreenMax)] |
			t.blue[v>>s.BlueShift&uint32(s.BlueMax)]
	case kindTrueToCube:
		s := t.src
		return t.cube.At(
			int(t.red[v>>s.RedShift&uint32(s.RedMax)]),
			int(t.green[v>>s.GreenShift&uint32(s.GreenMax)]),
			int(t.blue[v>>s.BlueShift&uint32(s.BlueMax)]))
	case kindMapToTrue:
		return t.colours[v&0xff]
	default:
		return v
	}
}

// Translate converts the pixels of r from src into dst at the same
// coordinates. r is clipped to both images.
func (t *Translator) Translate(dst, src *pixfmt.Image, r image.Rectangle) {
	r = r.Intersect(dst.Rect).Intersect(src.Rect)
	if r.Empty() {
		return
	}
	if t.kind == kindCopy {
		pixfmt.CopyRect(dst, src, r)
		return
	}

	sbpp := t.src.BytesPerPixel()
	dbpp := t.dst.BytesPerPixel()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		si := src.PixOffset(r.Min.X, y)
		di := dst.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			t.dst.PutPixel(dst.Pix[di:], t.Pixel(t.src.Pixel(src.Pix[si:])))
			si += sbpp
			di += dbpp
		}
	}
}
