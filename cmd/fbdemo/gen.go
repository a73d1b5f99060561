package main

import (
	"image"
	"math/rand/v2"

	"github.com/gogpu/fbimage"
	"github.com/gogpu/fbimage/pixfmt"
)

// generator produces server-style updates: a moving bar plus a few small
// random rectangles per frame, encoded in the negotiated format.
type generator struct {
	buf    *fbimage.Buffer
	format pixfmt.PixelFormat
	rng    *rand.Rand
	frame  int
	hues   []uint16
	pix    []byte
}

func newGenerator(buf *fbimage.Buffer, seed uint64) *generator {
	g := &generator{
		buf:    buf,
		format: buf.Format(),
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		hues:   rainbow(),
	}
	if !g.format.TrueColour {
		buf.SetColourMapEntries(0, 256, g.hues)
		buf.UpdateColourMap()
	}
	return g
}

// rainbow returns 256 colour map triples sweeping through the hues.
func rainbow() []uint16 {
	rgb := make([]uint16, 0, 256*3)
	for i := range 256 {
		h := i * 6
		seg, f := h/256, uint16(h%256)*257
		var r, g, b uint16
		switch seg {
		case 0:
			r, g = 0xffff, f
		case 1:
			r, g = 0xffff-f, 0xffff
		case 2:
			g, b = 0xffff, f
		case 3:
			g, b = 0xffff-f, 0xffff
		case 4:
			r, b = f, 0xffff
		default:
			r, b = 0xffff, 0xffff-f
		}
		rgb = append(rgb, r, g, b)
	}
	return rgb
}

// colour returns a pixel value in the negotiated format for hue step i.
func (g *generator) colour(i int) uint32 {
	i &= 0xff
	if !g.format.TrueColour {
		return uint32(i)
	}
	c := g.hues[i*3 : i*3+3]
	return g.format.Encode(c[0], c[1], c[2])
}

// fill writes a solid rectangle through WriteRegion.
func (g *generator) fill(r image.Rectangle, v uint32) error {
	bpp := g.format.BytesPerPixel()
	stride := r.Dx() * bpp
	n := stride * r.Dy()
	if cap(g.pix) < n {
		g.pix = make([]byte, n)
	}
	pix := g.pix[:n]
	for i := 0; i < n; i += bpp {
		g.format.PutPixel(pix[i:], v)
	}
	return g.buf.WriteRegion(r, pix, stride)
}

// Step writes one frame of updates.
func (g *generator) Step() error {
	w, h := g.buf.Width(), g.buf.Height()
	if w == 0 || h == 0 {
		return nil
	}
	g.frame++

	bar := max(1, w/32)
	x := (g.frame * 2) % w
	if err := g.fill(image.Rect(x, 0, x+bar, h), g.colour(g.frame)); err != nil {
		return err
	}
	for range 3 {
		rw, rh := 1+g.rng.IntN(max(1, w/10)), 1+g.rng.IntN(max(1, h/10))
		rx, ry := g.rng.IntN(w), g.rng.IntN(h)
		if err := g.fill(image.Rect(rx, ry, rx+rw, ry+rh), g.colour(g.rng.IntN(256))); err != nil {
			return err
		}
	}
	return nil
}
