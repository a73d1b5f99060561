// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compose

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/fbimage/internal/logging"
	"github.com/gogpu/fbimage/internal/staging"
	"github.com/gogpu/fbimage/pixfmt"
)

// ErrNoTarget is returned by Present when no target is set.
var ErrNoTarget = errors.New("compose: no target")

// Target is the presentation surface.
type Target interface {
	// Size returns the current size of the surface in pixels.
	Size() (width, height int)

	// Put presents the pixels of src inside sr with sr.Min placed at dp.
	// Pixels falling outside the surface are clipped.
	Put(src *pixfmt.Image, sr image.Rectangle, dp image.Point) error
}

// Compositor maps framebuffer damage onto a Target.
//
// Compositor is NOT safe for concurrent use.
type Compositor struct {
	target Target
	scaler Scaler
	pool   *staging.Pool

	bufW, bufH int
	xf         Transform
}

// New creates a compositor. A nil scaler selects Software with the
// Catmull-Rom filter.
func New(target Target, scaler Scaler) *Compositor {
	if scaler == nil {
		scaler = Software{Filter: FilterCatmullRom}
	}
	return &Compositor{
		target: target,
		scaler: scaler,
		pool:   staging.NewPool(4),
		xf:     Identity(),
	}
}

// Target returns the presentation surface.
func (c *Compositor) Target() Target { return c.target }

// SetTarget replaces the presentation surface and recomputes the transform.
func (c *Compositor) SetTarget(t Target) {
	c.target = t
	c.OnResize(c.bufW, c.bufH)
}

// Transform returns the current framebuffer-to-target transform.
func (c *Compositor) Transform() Transform { return c.xf }

// OnResize records the framebuffer size, recomputes the scale factors from
// the target's current size and drops staging surfaces sized for the old
// geometry. Call it after either the framebuffer or the target changes size.
func (c *Compositor) OnResize(bufW, bufH int) {
	c.bufW, c.bufH = bufW, bufH
	c.pool.Drain()
	if c.target == nil {
		c.xf = Identity()
		return
	}
	tw, th := c.target.Size()
	c.xf = NewTransform(bufW, bufH, tw, th)
	logging.Logger().Debug("compose: transform updated",
		"buffer", image.Pt(bufW, bufH), "target", image.Pt(tw, th), "sx", c.xf.SX, "sy", c.xf.SY)
}

// Present draws framebuffer region r of src onto the target.
func (c *Compositor) Present(src *pixfmt.Image, r image.Rectangle) error {
	if c.target == nil {
		return ErrNoTarget
	}
	r = r.Intersect(src.Rect)
	if r.Empty() {
		return nil
	}
	if c.xf.IsIdentity() {
		return c.target.Put(src, r, r.Min)
	}

	d := c.xf.Map(r)

	in, releaseIn := c.pool.Acquire(r.Dx(), r.Dy(), src.Format)
	defer releaseIn()
	in.Palette = src.Palette
	copyToOrigin(in, src, r)

	out, releaseOut := c.pool.Acquire(d.Dx(), d.Dy(), src.Format)
	defer releaseOut()
	out.Palette = src.Palette

	if err := c.scaler.Scale(out, in); err != nil {
		return fmt.Errorf("compose: scaling %v to %v: %w", r, d, err)
	}
	return c.target.Put(out, out.Rect, d.Min)
}

// copyToOrigin copies region r of src into dst at (0,0).
func copyToOrigin(dst, src *pixfmt.Image, r image.Rectangle) {
	n := src.Format.RowBytes(r.Dx())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		s := src.PixOffset(r.Min.X, y)
		d := dst.PixOffset(0, y-r.Min.Y)
		copy(dst.Pix[d:d+n], src.Pix[s:s+n])
	}
}
