// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11

import (
	"fmt"
	"image"
	"math"

	"github.com/jezek/xgb/render"
	"github.com/jezek/xgb/xproto"

	"github.com/gogpu/fbimage/pixfmt"
)

// renderFilter is the RENDER filter alias for the highest quality the
// server offers.
const renderFilter = "best"

// RenderScaler scales images on the X server with the RENDER extension.
//
// Each Scale uploads the source into a temporary pixmap, composites it
// through a scaling picture transform into a second pixmap and reads the
// result back. Both pixmaps and pictures are freed before Scale returns.
type RenderScaler struct {
	c       *Conn
	root    xproto.Drawable
	gc      xproto.Gcontext
	format  render.Pictformat
	scratch []byte
}

// NewRenderScaler creates a scaler for images in the root visual's format.
func (c *Conn) NewRenderScaler() (*RenderScaler, error) {
	if !c.hasRender {
		return nil, ErrNoRender
	}
	reply, err := render.QueryPictFormats(c.x).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: querying picture formats: %w", err)
	}
	f, ok := visualFormat(reply, c.visualID)
	if !ok {
		return nil, fmt.Errorf("x11: no picture format for visual %d", c.visualID)
	}

	root := xproto.Drawable(c.screen.Root)
	gc, err := xproto.NewGcontextId(c.x)
	if err != nil {
		return nil, fmt.Errorf("x11: gc id: %w", err)
	}
	if err := xproto.CreateGCChecked(c.x, gc, root, xproto.GcGraphicsExposures, []uint32{0}).Check(); err != nil {
		return nil, fmt.Errorf("x11: creating gc: %w", err)
	}
	return &RenderScaler{c: c, root: root, gc: gc, format: f}, nil
}

// Close frees the scaler's graphics context.
func (s *RenderScaler) Close() {
	xproto.FreeGC(s.c.x, s.gc)
}

// Scale implements compose.Scaler.
func (s *RenderScaler) Scale(dst, src *pixfmt.Image) error {
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()
	if sw == 0 || sh == 0 || dw == 0 || dh == 0 {
		return nil
	}
	x := s.c.x
	depth := byte(src.Format.Depth)

	srcPix, err := s.pixmap(depth, sw, sh)
	if err != nil {
		return err
	}
	defer xproto.FreePixmap(x, srcPix)
	dstPix, err := s.pixmap(depth, dw, dh)
	if err != nil {
		return err
	}
	defer xproto.FreePixmap(x, dstPix)

	s.c.putImage(xproto.Drawable(srcPix), s.gc, src, src.Rect, image.Point{}, &s.scratch)

	srcPic, err := s.picture(srcPix)
	if err != nil {
		return err
	}
	defer render.FreePicture(x, srcPic)
	dstPic, err := s.picture(dstPix)
	if err != nil {
		return err
	}
	defer render.FreePicture(x, dstPic)

	render.SetPictureTransform(x, srcPic, scaleTransform(sw, sh, dw, dh))
	render.SetPictureFilter(x, srcPic, uint16(len(renderFilter)), renderFilter, nil)
	err = render.CompositeChecked(x, render.PictOpSrc, srcPic, 0, dstPic,
		0, 0, 0, 0, 0, 0, uint16(dw), uint16(dh)).Check() //nolint:gosec // X11 geometry is 16-bit
	if err != nil {
		return fmt.Errorf("x11: composite: %w", err)
	}

	reply, err := xproto.GetImage(x, xproto.ImageFormatZPixmap, xproto.Drawable(dstPix),
		0, 0, uint16(dw), uint16(dh), math.MaxUint32).Reply() //nolint:gosec // X11 geometry is 16-bit
	if err != nil {
		return fmt.Errorf("x11: reading scaled image: %w", err)
	}
	return unpackRows(dst, reply.Data, s.c.layout(dst.Format).Stride(dw))
}

func (s *RenderScaler) pixmap(depth byte, w, h int) (xproto.Pixmap, error) {
	p, err := xproto.NewPixmapId(s.c.x)
	if err != nil {
		return 0, fmt.Errorf("x11: pixmap id: %w", err)
	}
	if err := xproto.CreatePixmapChecked(s.c.x, depth, p, s.root, uint16(w), uint16(h)).Check(); err != nil { //nolint:gosec // X11 geometry is 16-bit
		return 0, fmt.Errorf("x11: creating %dx%d pixmap: %w", w, h, err)
	}
	return p, nil
}

func (s *RenderScaler) picture(p xproto.Pixmap) (render.Picture, error) {
	pic, err := render.NewPictureId(s.c.x)
	if err != nil {
		return 0, fmt.Errorf("x11: picture id: %w", err)
	}
	if err := render.CreatePictureChecked(s.c.x, pic, xproto.Drawable(p), s.format, 0, nil).Check(); err != nil {
		return 0, fmt.Errorf("x11: creating picture: %w", err)
	}
	return pic, nil
}

// toFixed converts v to 16.16 fixed point.
func toFixed(v float64) render.Fixed {
	return render.Fixed(math.Round(v * 65536))
}

// scaleTransform returns the picture transform that maps destination
// coordinates of a dw x dh image back to a sw x sh source.
func scaleTransform(sw, sh, dw, dh int) render.Transform {
	return render.Transform{
		Matrix11: toFixed(float64(sw) / float64(dw)),
		Matrix22: toFixed(float64(sh) / float64(dh)),
		Matrix33: toFixed(1),
	}
}

// visualFormat finds the picture format RENDER associates with visual.
func visualFormat(reply *render.QueryPictFormatsReply, visual xproto.Visualid) (render.Pictformat, bool) {
	for _, screen := range reply.Screens {
		for _, d := range screen.Depths {
			for _, v := range d.Visuals {
				if v.Visual == visual {
					return v.Format, true
				}
			}
		}
	}
	return 0, false
}
