// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package fbcanvas presents a framebuffer in gogpu GPU-accelerated windows.
//
// Canvas is a compose.Target. Presented regions are converted to RGBA in a
// CPU staging image and uploaded to a GPU texture on the next Flush:
//
//	Buffer (native) -> Compositor -> Canvas (RGBA) -> GPU Texture -> Window
//
// # Usage
//
//	canvas, err := fbcanvas.New(app.GPUContextProvider(), 800, 600)
//	if err != nil {
//	    return err
//	}
//	defer canvas.Close()
//
//	buf, err := fbimage.New(display, fbimage.WithTarget(canvas))
//	...
//	app.OnDraw(func(dc *gogpu.Context) {
//	    _ = buf.PresentPendingDamage()
//	    _ = canvas.RenderTo(dc.AsTextureDrawer())
//	})
//
// # Uploads
//
// The texture is created lazily by RenderTo. Later uploads send only the
// rectangle touched since the previous upload when the texture implements
// gpucontext.TextureRegionUpdater, and the whole image otherwise.
//
// # Thread Safety
//
// Canvas is NOT safe for concurrent use.
package fbcanvas
