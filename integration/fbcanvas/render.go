// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fbcanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
)

// ErrInvalidRenderer is returned when the draw context has no TextureCreator.
var ErrInvalidRenderer = errors.New("fbcanvas: draw context has no texture creator")

// RenderTo flushes the canvas and draws it at (0, 0).
//
//	app.OnDraw(func(dc *gogpu.Context) {
//	    canvas.RenderTo(dc.AsTextureDrawer())
//	})
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.RenderToPosition(dc, 0, 0)
}

// RenderToPosition flushes the canvas and draws it with its top-left
// corner at (x, y).
func (c *Canvas) RenderToPosition(dc gpucontext.TextureDrawer, x, y float32) error {
	if c.closed {
		return ErrCanvasClosed
	}
	tex, err := c.Flush()
	if err != nil {
		return err
	}

	if pending, ok := tex.(*pendingTexture); ok {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		// NewTextureFromRGBA waits for the GPU, so the old texture is no
		// longer in use when it returns.
		created, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("fbcanvas: NewTextureFromRGBA failed: %w", err)
		}
		c.texture = created
		tex = created
		destroy(c.oldTexture)
		c.oldTexture = nil
	}

	return dc.DrawTexture(tex, x, y)
}
