// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fbcanvas

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/fbimage/internal/logging"
	"github.com/gogpu/fbimage/pixfmt"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("fbcanvas: canvas is closed")

	// ErrInvalidDimensions is returned when width or height is invalid.
	ErrInvalidDimensions = errors.New("fbcanvas: invalid dimensions")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("fbcanvas: nil DeviceProvider")
)

// textureDestroyer matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// Canvas is a presentation target backed by a GPU texture.
//
// Canvas is NOT safe for concurrent use.
type Canvas struct {
	provider gpucontext.DeviceProvider
	rgba     *image.RGBA

	texture    gpucontext.Texture
	oldTexture gpucontext.Texture

	// dirty is the region written since the last upload.
	dirty       image.Rectangle
	sizeChanged bool
	closed      bool

	scratch []byte
}

// New creates a canvas of the given size.
// The provider should come from gogpu.App.GPUContextProvider().
func New(provider gpucontext.DeviceProvider, width, height int) (*Canvas, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	logging.Logger().Debug("fbcanvas: created",
		"width", width, "height", height,
		"surface", provider.SurfaceFormat(), "adapter", provider.AdapterInfo().Name)
	r := image.Rect(0, 0, width, height)
	return &Canvas{
		provider: provider,
		rgba:     opaque(r),
		dirty:    r,
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(provider gpucontext.DeviceProvider, width, height int) *Canvas {
	c, err := New(provider, width, height)
	if err != nil {
		panic(err)
	}
	return c
}

// opaque returns a black RGBA image with full alpha.
func opaque(r image.Rectangle) *image.RGBA {
	img := image.NewRGBA(r)
	draw.Draw(img, r, image.Black, image.Point{}, draw.Src)
	return img
}

// Format returns the texture format uploads are encoded in.
func (c *Canvas) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatRGBA8Unorm
}

// Size implements compose.Target.
func (c *Canvas) Size() (width, height int) {
	b := c.rgba.Rect
	return b.Dx(), b.Dy()
}

// Image returns the CPU staging image.
func (c *Canvas) Image() *image.RGBA { return c.rgba }

// Put implements compose.Target. The pixels are converted to RGBA and
// uploaded on the next Flush.
func (c *Canvas) Put(src *pixfmt.Image, sr image.Rectangle, dp image.Point) error {
	if c.closed {
		return ErrCanvasClosed
	}
	sr = sr.Intersect(src.Rect)
	dr := sr.Sub(sr.Min).Add(dp).Intersect(c.rgba.Rect)
	if dr.Empty() {
		return nil
	}
	xdraw.Copy(c.rgba, dr.Min, src, dr.Sub(dp).Add(sr.Min), xdraw.Src, nil)
	c.dirty = c.dirty.Union(dr)
	return nil
}

// IsDirty reports whether the canvas has pending changes to upload.
func (c *Canvas) IsDirty() bool {
	return !c.dirty.Empty()
}

// MarkDirty flags the whole canvas for upload on the next Flush.
func (c *Canvas) MarkDirty() {
	c.dirty = c.rgba.Rect
}

// Resize changes the canvas dimensions and clears it to black.
func (c *Canvas) Resize(width, height int) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if w, h := c.Size(); w == width && h == height {
		return nil
	}
	c.rgba = opaque(image.Rect(0, 0, width, height))
	c.sizeChanged = true
	c.dirty = c.rgba.Rect
	return nil
}

// Flush uploads pending changes to the GPU texture and returns it. Before
// the first RenderTo, and after a resize, the returned texture is a
// placeholder that RenderTo replaces with a real one.
func (c *Canvas) Flush() (gpucontext.Texture, error) {
	if c.closed {
		return nil, ErrCanvasClosed
	}

	// The old texture may still be referenced by in-flight command buffers;
	// it is destroyed by RenderTo once the replacement has been written.
	if c.sizeChanged {
		if c.texture != nil {
			destroy(c.oldTexture)
			c.oldTexture = c.texture
			c.texture = nil
		}
		c.sizeChanged = false
	}

	if c.texture == nil {
		w, h := c.Size()
		c.texture = &pendingTexture{width: w, height: h, data: c.rgba.Pix}
		c.dirty = image.Rectangle{}
		return c.texture, nil
	}
	if c.dirty.Empty() {
		return c.texture, nil
	}
	if _, pending := c.texture.(*pendingTexture); pending {
		c.dirty = image.Rectangle{}
		return c.texture, nil
	}

	if err := c.upload(c.dirty); err != nil {
		return nil, err
	}
	c.dirty = image.Rectangle{}
	return c.texture, nil
}

// upload sends region r of the staging image to the texture.
func (c *Canvas) upload(r image.Rectangle) error {
	if ru, ok := c.texture.(gpucontext.TextureRegionUpdater); ok && r != c.rgba.Rect {
		c.scratch = packRGBA(c.scratch, c.rgba, r)
		if err := ru.UpdateRegion(r.Min.X, r.Min.Y, r.Dx(), r.Dy(), c.scratch); err != nil {
			return fmt.Errorf("fbcanvas: texture region update failed: %w", err)
		}
		return nil
	}
	if u, ok := c.texture.(gpucontext.TextureUpdater); ok {
		if err := u.UpdateData(c.rgba.Pix); err != nil {
			return fmt.Errorf("fbcanvas: texture update failed: %w", err)
		}
	}
	return nil
}

// packRGBA copies region r of img into buf as densely packed rows.
func packRGBA(buf []byte, img *image.RGBA, r image.Rectangle) []byte {
	n := r.Dx() * 4
	size := n * r.Dy()
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		copy(buf[(y-r.Min.Y)*n:], img.Pix[i:i+n])
	}
	return buf
}

// Texture returns the current texture without flushing.
func (c *Canvas) Texture() gpucontext.Texture {
	return c.texture
}

// Provider returns the DeviceProvider, or nil after Close.
func (c *Canvas) Provider() gpucontext.DeviceProvider {
	if c.closed {
		return nil
	}
	return c.provider
}

// Close destroys the textures. Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	destroy(c.oldTexture)
	destroy(c.texture)
	c.oldTexture, c.texture = nil, nil
	c.provider = nil
	return nil
}

func destroy(tex gpucontext.Texture) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}

// pendingTexture holds the data for a texture that RenderTo creates once a
// TextureCreator is available.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}

func (p *pendingTexture) Width() int  { return p.width }
func (p *pendingTexture) Height() int { return p.height }
