// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11

import (
	"fmt"
	"image"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/shm"
	"github.com/jezek/xgb/xproto"

	"github.com/gogpu/fbimage/internal/logging"
	"github.com/gogpu/fbimage/pixfmt"
	"github.com/gogpu/fbimage/store"
)

// Window is a top-level X window used as a presentation target.
type Window struct {
	c  *Conn
	id xproto.Window
	gc xproto.Gcontext

	width, height int

	src     *store.Store
	scratch []byte
}

// CreateWindow creates and maps a top-level window on the root visual.
func (c *Conn) CreateWindow(title string, width, height int) (*Window, error) {
	wid, err := xproto.NewWindowId(c.x)
	if err != nil {
		return nil, fmt.Errorf("x11: window id: %w", err)
	}
	s := c.screen
	err = xproto.CreateWindowChecked(c.x, s.RootDepth, wid, s.Root,
		0, 0, uint16(width), uint16(height), 0, //nolint:gosec // X11 geometry is 16-bit
		xproto.WindowClassInputOutput, s.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{s.BlackPixel, xproto.EventMaskExposure | xproto.EventMaskStructureNotify},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("x11: creating window: %w", err)
	}

	gc, err := xproto.NewGcontextId(c.x)
	if err != nil {
		xproto.DestroyWindow(c.x, wid)
		return nil, fmt.Errorf("x11: gc id: %w", err)
	}
	err = xproto.CreateGCChecked(c.x, gc, xproto.Drawable(wid),
		xproto.GcGraphicsExposures, []uint32{0}).Check()
	if err != nil {
		xproto.DestroyWindow(c.x, wid)
		return nil, fmt.Errorf("x11: creating gc: %w", err)
	}

	xproto.ChangeProperty(c.x, xproto.PropModeReplace, wid, xproto.AtomWmName, xproto.AtomString,
		8, uint32(len(title)), []byte(title)) //nolint:gosec // short title
	if err := xproto.MapWindowChecked(c.x, wid).Check(); err != nil {
		xproto.FreeGC(c.x, gc)
		xproto.DestroyWindow(c.x, wid)
		return nil, fmt.Errorf("x11: mapping window: %w", err)
	}

	logging.Logger().Debug("x11: window created", "id", wid, "width", width, "height", height)
	return &Window{c: c, id: wid, gc: gc, width: width, height: height}, nil
}

// ID returns the X window id.
func (w *Window) ID() xproto.Window { return w.id }

// Drawable returns the window as a drawable.
func (w *Window) Drawable() xproto.Drawable { return xproto.Drawable(w.id) }

// Size implements compose.Target.
func (w *Window) Size() (int, int) { return w.width, w.height }

// SetSource tells the window which backing store full-buffer images come
// from. When that store is shared with the server, unscaled puts are sent
// with shm.PutImage instead of copying pixels through the socket.
func (w *Window) SetSource(s *store.Store) { w.src = s }

// HandleEvent tracks the window geometry. It reports whether ev resized the
// window and whether it exposed a part of it that must be redrawn.
func (w *Window) HandleEvent(ev xgb.Event) (resized, exposed bool) {
	switch e := ev.(type) {
	case xproto.ConfigureNotifyEvent:
		if e.Window != w.id {
			return false, false
		}
		nw, nh := int(e.Width), int(e.Height)
		if nw == w.width && nh == w.height {
			return false, false
		}
		w.width, w.height = nw, nh
		return true, false
	case xproto.ExposeEvent:
		return false, e.Window == w.id && e.Count == 0
	}
	return false, false
}

// Put implements compose.Target.
func (w *Window) Put(src *pixfmt.Image, sr image.Rectangle, dp image.Point) error {
	sr = sr.Intersect(src.Rect)
	if sr.Empty() {
		return nil
	}
	if seg, ok := w.sharedSegment(src); ok {
		return w.putShared(seg, src, sr, dp)
	}
	w.c.putImage(w.Drawable(), w.gc, src, sr, dp, &w.scratch)
	return nil
}

// sharedSegment reports whether src is the full view of the shared source
// store.
func (w *Window) sharedSegment(src *pixfmt.Image) (*segment, bool) {
	seg, ok := segmentOf(w.src)
	if !ok || src.Rect.Min != (image.Point{}) || len(src.Pix) == 0 {
		return nil, false
	}
	pix := w.src.Pix()
	if len(pix) == 0 || &pix[0] != &src.Pix[0] {
		return nil, false
	}
	return seg, true
}

func (w *Window) putShared(seg *segment, src *pixfmt.Image, sr image.Rectangle, dp image.Point) error {
	shm.PutImage(w.c.x, w.Drawable(), w.gc,
		uint16(w.src.Width()), uint16(w.src.Height()), //nolint:gosec // X11 geometry is 16-bit
		uint16(sr.Min.X), uint16(sr.Min.Y), //nolint:gosec // X11 geometry is 16-bit
		uint16(sr.Dx()), uint16(sr.Dy()), //nolint:gosec // X11 geometry is 16-bit
		int16(dp.X), int16(dp.Y), //nolint:gosec // X11 geometry is 16-bit
		byte(src.Format.Depth), xproto.ImageFormatZPixmap, 0, seg.seg, 0)
	// The server reads the segment asynchronously; wait before the caller
	// writes the next update into it.
	if err := w.c.Sync(); err != nil {
		return fmt.Errorf("x11: shm put: %w", err)
	}
	return nil
}

// Close frees the graphics context and destroys the window.
func (w *Window) Close() {
	xproto.FreeGC(w.c.x, w.gc)
	xproto.DestroyWindow(w.c.x, w.id)
}
