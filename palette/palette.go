// Package palette holds the colour map of a framebuffer and the colour cube
// used to approximate arbitrary RGB values on colour map displays.
package palette

import (
	"errors"
	"fmt"
	"image/color"
)

// Size is the number of colour map entries.
const Size = 256

// ErrCubeSize is returned when a cube dimension is below two or the cube has
// more cells than the colour map can hold.
var ErrCubeSize = errors.New("palette: invalid colour cube size")

// RGB is a colour with 16-bit channels, as carried by RFB colour map updates.
type RGB struct {
	R, G, B uint16
}

// RGBA64 converts c to an opaque color.RGBA64.
func (c RGB) RGBA64() color.RGBA64 {
	return color.RGBA64{R: c.R, G: c.G, B: c.B, A: 0xffff}
}

// Table is a 256-entry colour map.
type Table struct {
	entries [Size]RGB
}

// Set replaces count entries starting at first with triples from rgb
// (r0,g0,b0,r1,...). Entries beyond the table or beyond rgb are dropped.
// It reports the number of entries written.
func (t *Table) Set(first, count int, rgb []uint16) int {
	if count <= 0 || first < 0 || first >= Size {
		return 0
	}
	if first+count > Size {
		count = Size - first
	}
	if n := len(rgb) / 3; count > n {
		count = n
	}
	for i := range count {
		t.entries[first+i] = RGB{R: rgb[i*3], G: rgb[i*3+1], B: rgb[i*3+2]}
	}
	return count
}

// Lookup returns the colour for index. Out of range indices return black.
func (t *Table) Lookup(index int) RGB {
	if index < 0 || index >= Size {
		return RGB{}
	}
	return t.entries[index]
}

// Palette returns the table as a color.Palette.
func (t *Table) Palette() color.Palette {
	p := make(color.Palette, Size)
	for i, e := range t.entries {
		p[i] = e.RGBA64()
	}
	return p
}

// Mapper allocates display colours. It is the palette mapper service of the
// windowing system: given the requested colours it returns the native pixel
// value closest to each one.
type Mapper interface {
	AllocColours(want []RGB) ([]uint32, error)
}

// Cube is a colour lattice that maps quantized RGB coordinates to native
// pixel values.
type Cube struct {
	NRed, NGreen, NBlue int

	pixels []uint32
}

// NewCube creates an empty cube of the given dimensions.
func NewCube(nr, ng, nb int) (*Cube, error) {
	if nr < 2 || ng < 2 || nb < 2 || nr*ng*nb > Size {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrCubeSize, nr, ng, nb)
	}
	return &Cube{
		NRed:   nr,
		NGreen: ng,
		NBlue:  nb,
		pixels: make([]uint32, nr*ng*nb),
	}, nil
}

// Len returns the number of lattice cells.
func (c *Cube) Len() int { return len(c.pixels) }

func (c *Cube) index(r, g, b int) int {
	return (r*c.NGreen+g)*c.NBlue + b
}

// Set stores the native pixel for lattice cell (r, g, b).
func (c *Cube) Set(r, g, b int, pixel uint32) {
	c.pixels[c.index(r, g, b)] = pixel
}

// At returns the native pixel for lattice cell (r, g, b).
func (c *Cube) At(r, g, b int) uint32 {
	return c.pixels[c.index(r, g, b)]
}

// Colour returns the lattice colour of cell (r, g, b).
func (c *Cube) Colour(r, g, b int) RGB {
	return RGB{
		R: uint16(r * 65535 / (c.NRed - 1)),   //nolint:gosec // r < NRed
		G: uint16(g * 65535 / (c.NGreen - 1)), //nolint:gosec // g < NGreen
		B: uint16(b * 65535 / (c.NBlue - 1)),  //nolint:gosec // b < NBlue
	}
}

// Lookup returns the native pixel of the lattice point nearest to (r, g, b).
func (c *Cube) Lookup(r, g, b uint16) uint32 {
	return c.At(quantize(r, c.NRed), quantize(g, c.NGreen), quantize(b, c.NBlue))
}

// quantize maps a 16-bit channel to the nearest of n lattice levels.
func quantize(v uint16, n int) int {
	return (int(v)*(n-1) + 32767) / 65535
}

// BuildCube asks m for every lattice colour of an nr x ng x nb cube and
// records the returned native pixels.
func BuildCube(m Mapper, nr, ng, nb int) (*Cube, error) {
	c, err := NewCube(nr, ng, nb)
	if err != nil {
		return nil, err
	}
	want := make([]RGB, 0, c.Len())
	for r := range nr {
		for g := range ng {
			for b := range nb {
				want = append(want, c.Colour(r, g, b))
			}
		}
	}
	got, err := m.AllocColours(want)
	if err != nil {
		return nil, fmt.Errorf("palette: allocating cube colours: %w", err)
	}
	if len(got) != len(want) {
		return nil, fmt.Errorf("palette: mapper returned %d pixels for %d colours", len(got), len(want))
	}
	copy(c.pixels, got)
	return c, nil
}

// Palette returns a colour map that resolves the cube's native pixels back
// to their lattice colours. Pixel values of 256 or more are skipped.
func (c *Cube) Palette() color.Palette {
	p := make(color.Palette, Size)
	for i := range p {
		p[i] = color.RGBA64{A: 0xffff}
	}
	for r := range c.NRed {
		for g := range c.NGreen {
			for b := range c.NBlue {
				if px := c.At(r, g, b); px < Size {
					p[px] = c.Colour(r, g, b).RGBA64()
				}
			}
		}
	}
	return p
}
