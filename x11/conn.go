// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/render"
	"github.com/jezek/xgb/shm"
	"github.com/jezek/xgb/xproto"

	"github.com/gogpu/fbimage/internal/logging"
	"github.com/gogpu/fbimage/pixfmt"
)

// Errors returned by Conn operations.
var (
	// ErrNoShm is returned by Attach when the server lacks MIT-SHM.
	ErrNoShm = errors.New("x11: MIT-SHM extension not available")

	// ErrNoRender is returned by NewRenderScaler when the server lacks RENDER.
	ErrNoRender = errors.New("x11: RENDER extension not available")

	// ErrNoVisual is returned when the root visual is not listed by the
	// server setup.
	ErrNoVisual = errors.New("x11: root visual not found")
)

// Conn is a connection to an X server bound to its default screen.
//
// The request methods may be called from any goroutine; xgb serializes
// them. Window and RenderScaler values are NOT safe for concurrent use.
type Conn struct {
	x      *xgb.Conn
	setup  *xproto.SetupInfo
	screen *xproto.ScreenInfo

	visual   pixfmt.Visual
	visualID xproto.Visualid

	hasShm    bool
	hasRender bool
}

// Dial connects to display, or to $DISPLAY when display is empty, and
// probes the MIT-SHM and RENDER extensions.
func Dial(display string) (*Conn, error) {
	x, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("x11: connecting to %q: %w", display, err)
	}
	c, err := newConn(x)
	if err != nil {
		x.Close()
		return nil, err
	}
	return c, nil
}

func newConn(x *xgb.Conn) (*Conn, error) {
	setup := xproto.Setup(x)
	screen := setup.DefaultScreen(x)

	v, vi, err := visualFromSetup(setup, screen)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		x:        x,
		setup:    setup,
		screen:   screen,
		visual:   v,
		visualID: vi.VisualId,
	}

	log := logging.Logger()
	if err := shm.Init(x); err != nil {
		log.Info("x11: MIT-SHM unavailable", "err", err)
	} else {
		c.hasShm = true
	}
	if err := render.Init(x); err != nil {
		log.Info("x11: RENDER unavailable", "err", err)
	} else {
		c.hasRender = true
	}

	log.Info("x11: connected",
		"vendor", setup.Vendor,
		"depth", v.Depth,
		"class", v.Class.String(),
		"shm", c.hasShm,
		"render", c.hasRender)
	return c, nil
}

// Close closes the connection.
func (c *Conn) Close() {
	c.x.Close()
}

// X returns the underlying xgb connection.
func (c *Conn) X() *xgb.Conn { return c.x }

// Screen returns the default screen.
func (c *Conn) Screen() *xproto.ScreenInfo { return c.screen }

// Visual describes the root visual of the default screen.
func (c *Conn) Visual() pixfmt.Visual { return c.visual }

// HasShm reports whether MIT-SHM is available.
func (c *Conn) HasShm() bool { return c.hasShm }

// HasRender reports whether RENDER is available.
func (c *Conn) HasRender() bool { return c.hasRender }

// WaitForEvent blocks until the next event or error arrives.
func (c *Conn) WaitForEvent() (xgb.Event, error) {
	ev, xerr := c.x.WaitForEvent()
	if xerr != nil {
		return ev, xerr
	}
	return ev, nil
}

// Sync waits until the server has processed every request sent so far.
func (c *Conn) Sync() error {
	_, err := xproto.GetInputFocus(c.x).Reply()
	return err
}

// maxRequestBytes is the largest request the server accepts without
// BIG-REQUESTS.
func (c *Conn) maxRequestBytes() int {
	return int(c.setup.MaximumRequestLength) * 4
}

// visualFromSetup finds the screen's root visual and converts it, together
// with the server's pixmap formats and image byte order, to a pixfmt.Visual.
func visualFromSetup(setup *xproto.SetupInfo, screen *xproto.ScreenInfo) (pixfmt.Visual, xproto.VisualInfo, error) {
	var (
		vi    xproto.VisualInfo
		depth byte
		found bool
	)
	for _, d := range screen.AllowedDepths {
		for _, v := range d.Visuals {
			if v.VisualId == screen.RootVisual {
				vi, depth, found = v, d.Depth, true
			}
		}
	}
	if !found {
		return pixfmt.Visual{}, xproto.VisualInfo{}, fmt.Errorf("%w: id %d", ErrNoVisual, screen.RootVisual)
	}

	layouts := make([]pixfmt.Layout, 0, len(setup.PixmapFormats))
	for _, f := range setup.PixmapFormats {
		layouts = append(layouts, pixfmt.Layout{
			Depth:        int(f.Depth),
			BitsPerPixel: int(f.BitsPerPixel),
			ScanlinePad:  int(f.ScanlinePad),
		})
	}

	return pixfmt.Visual{
		Depth:         int(depth),
		Class:         visualClass(vi.Class),
		RedMask:       vi.RedMask,
		GreenMask:     vi.GreenMask,
		BlueMask:      vi.BlueMask,
		BigEndian:     setup.ImageByteOrder == xproto.ImageOrderMSBFirst,
		ColourMapSize: int(vi.ColormapEntries),
		Layouts:       layouts,
	}, vi, nil
}

func visualClass(c byte) pixfmt.VisualClass {
	switch c {
	case xproto.VisualClassStaticGray:
		return pixfmt.StaticGray
	case xproto.VisualClassGrayScale:
		return pixfmt.GrayScale
	case xproto.VisualClassStaticColor:
		return pixfmt.StaticColour
	case xproto.VisualClassPseudoColor:
		return pixfmt.PseudoColour
	case xproto.VisualClassTrueColor:
		return pixfmt.TrueColour
	default:
		return pixfmt.DirectColour
	}
}
