// Package staging provides the intermediate surfaces used while compositing.
package staging

import (
	"image"
	"sync"

	"github.com/gogpu/fbimage/pixfmt"
)

// Pool is a thread-safe pool for reusing staging surfaces.
//
// Pool groups surfaces by their dimensions and format. Damage regions in a
// stream of updates tend to repeat sizes (a blinking cursor, a ticking
// clock), so most presents reuse a surface instead of allocating two new
// ones.
type Pool struct {
	mu      sync.Mutex
	buckets map[poolKey][]*pixfmt.Image
	maxSize int // max surfaces per bucket
}

// poolKey identifies a bucket of interchangeable surfaces.
type poolKey struct {
	width  int
	height int
	format pixfmt.PixelFormat
}

// NewPool creates a pool that keeps at most maxPerBucket surfaces of each
// size and format. Zero means unlimited.
func NewPool(maxPerBucket int) *Pool {
	return &Pool{
		buckets: make(map[poolKey][]*pixfmt.Image),
		maxSize: maxPerBucket,
	}
}

// Get returns a cleared surface with bounds (0,0)-(width,height).
func (p *Pool) Get(width, height int, format pixfmt.PixelFormat) *pixfmt.Image {
	key := poolKey{width: width, height: height, format: format}

	p.mu.Lock()
	bucket := p.buckets[key]
	if len(bucket) > 0 {
		img := bucket[len(bucket)-1]
		p.buckets[key] = bucket[:len(bucket)-1]
		p.mu.Unlock()

		img.Clear()
		return img
	}
	p.mu.Unlock()

	return pixfmt.NewImage(image.Rect(0, 0, width, height), format)
}

// Put returns a surface to the pool. Nil surfaces and surfaces not created
// by Get (non-zero origin) are discarded.
func (p *Pool) Put(img *pixfmt.Image) {
	if img == nil || img.Rect.Min != (image.Point{}) {
		return
	}
	img.Palette = nil
	key := poolKey{
		width:  img.Rect.Dx(),
		height: img.Rect.Dy(),
		format: img.Format,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	bucket := p.buckets[key]
	if p.maxSize > 0 && len(bucket) >= p.maxSize {
		return
	}
	p.buckets[key] = append(bucket, img)
}

// Acquire returns a surface and the function that gives it back. The usual
// pattern is:
//
//	img, release := pool.Acquire(w, h, f)
//	defer release()
func (p *Pool) Acquire(width, height int, format pixfmt.PixelFormat) (*pixfmt.Image, func()) {
	img := p.Get(width, height, format)
	return img, func() { p.Put(img) }
}

// Drain discards every pooled surface.
func (p *Pool) Drain() {
	p.mu.Lock()
	defer p.mu.Unlock()

	clear(p.buckets)
}

// Len returns the number of pooled surfaces.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for _, b := range p.buckets {
		n += len(b)
	}
	return n
}
