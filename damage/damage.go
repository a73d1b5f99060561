// Package damage accumulates updated framebuffer rectangles into a single
// bounding region between presentations.
//
// Updates from a remote display arrive in bursts of small rectangles.
// Presenting each one separately would run the scaling compositor once per
// rectangle; instead the rectangles are unioned into one bound and flushed
// when the coalescing window has elapsed. A flush always returns the union of
// everything added since the previous flush.
package damage

import (
	"image"
	"time"
)

// Default policy values.
const (
	// DefaultWindow is the coalescing window between flushes.
	DefaultWindow = 40 * time.Millisecond

	// DefaultMargin is the number of pixels added around the bound so that
	// resampling filters see the neighbours of damaged pixels.
	DefaultMargin = 4
)

// Policy configures when and how much to flush.
type Policy struct {
	// Window is the minimum time between flushes.
	Window time.Duration

	// Margin expands the flushed region on each side.
	Margin int
}

// DefaultPolicy returns the default coalescing policy.
func DefaultPolicy() Policy {
	return Policy{Window: DefaultWindow, Margin: DefaultMargin}
}

// Accumulator tracks the bounding rectangle of damage since the last flush.
//
// The zero value is ready to use. Accumulator is NOT safe for concurrent use.
type Accumulator struct {
	bound  image.Rectangle
	active bool
}

// Add grows the bound to include r. Empty rectangles are ignored.
func (a *Accumulator) Add(r image.Rectangle) {
	r = r.Canon()
	if r.Empty() {
		return
	}
	if !a.active {
		a.bound = r
		a.active = true
		return
	}
	a.bound = a.bound.Union(r)
}

// AddRect grows the bound to include the rectangle at (x, y) of size w x h.
func (a *Accumulator) AddRect(x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Add(image.Rect(x, y, x+w, y+h))
}

// Pending reports whether any damage has been added since the last flush.
func (a *Accumulator) Pending() bool { return a.active }

// Bound returns the current bound, or the empty rectangle.
func (a *Accumulator) Bound() image.Rectangle {
	if !a.active {
		return image.Rectangle{}
	}
	return a.bound
}

// ShouldFlush reports whether elapsed has reached the coalescing window.
func (p Policy) ShouldFlush(elapsed time.Duration) bool {
	return elapsed >= p.Window
}

// Reset discards the accumulated damage.
func (a *Accumulator) Reset() {
	a.bound = image.Rectangle{}
	a.active = false
}

// TakeExtended returns the bound expanded by margin on every side and
// clamped to [0,width) x [0,height), then resets the accumulator. It returns
// the empty rectangle when nothing is pending or the clamped region is empty.
func (a *Accumulator) TakeExtended(margin, width, height int) image.Rectangle {
	if !a.active {
		return image.Rectangle{}
	}
	r := a.bound.Inset(-margin)
	a.Reset()
	return r.Intersect(image.Rect(0, 0, width, height))
}
