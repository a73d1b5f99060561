// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11

import (
	"fmt"
	"image"

	"github.com/jezek/xgb/xproto"

	"github.com/gogpu/fbimage/pixfmt"
)

// putImageHeader is the fixed size of a PutImage request.
const putImageHeader = 24

// rowsPerRequest returns how many rows of stride bytes fit in one request
// of at most maxBytes. At least one row is always sent.
func rowsPerRequest(stride, maxBytes int) int {
	if stride <= 0 {
		return 1
	}
	return max(1, (maxBytes-putImageHeader)/stride)
}

// packRows copies region r of src into buf with rows stride bytes apart, as
// a ZPixmap request expects. buf is grown as needed and returned.
func packRows(buf []byte, src *pixfmt.Image, r image.Rectangle, stride int) []byte {
	size := stride * r.Dy()
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]
	n := src.Format.RowBytes(r.Dx())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := buf[(y-r.Min.Y)*stride:]
		i := src.PixOffset(r.Min.X, y)
		copy(row[:n], src.Pix[i:i+n])
		clear(row[n:stride])
	}
	return buf
}

// unpackRows copies ZPixmap data with rows stride bytes apart into dst.
func unpackRows(dst *pixfmt.Image, data []byte, stride int) error {
	h := dst.Rect.Dy()
	n := dst.Format.RowBytes(dst.Rect.Dx())
	if h > 0 && len(data) < stride*(h-1)+n {
		return fmt.Errorf("x11: image data has %d bytes, want %d", len(data), stride*(h-1)+n)
	}
	for y := range h {
		copy(dst.RowBytes(dst.Rect.Min.Y+y), data[y*stride:y*stride+n])
	}
	return nil
}

// layout returns the server's pixmap layout for format f.
func (c *Conn) layout(f pixfmt.PixelFormat) pixfmt.Layout {
	if l, ok := c.visual.LayoutFor(f.Depth); ok && l.BitsPerPixel == f.BitsPerPixel {
		return l
	}
	return pixfmt.Layout{Depth: f.Depth, BitsPerPixel: f.BitsPerPixel, ScanlinePad: 32}
}

// putImage sends region sr of src to drawable d at dp, split into as many
// PutImage requests as the server's request size limit demands. scratch is
// reused between calls.
func (c *Conn) putImage(d xproto.Drawable, gc xproto.Gcontext, src *pixfmt.Image, sr image.Rectangle, dp image.Point, scratch *[]byte) {
	l := c.layout(src.Format)
	stride := l.Stride(sr.Dx())
	rows := rowsPerRequest(stride, c.maxRequestBytes())
	for y := sr.Min.Y; y < sr.Max.Y; y += rows {
		chunk := image.Rect(sr.Min.X, y, sr.Max.X, min(y+rows, sr.Max.Y))
		*scratch = packRows(*scratch, src, chunk, stride)
		xproto.PutImage(c.x, xproto.ImageFormatZPixmap, d, gc,
			uint16(chunk.Dx()), uint16(chunk.Dy()), //nolint:gosec // X11 geometry is 16-bit
			int16(dp.X), int16(dp.Y+y-sr.Min.Y), //nolint:gosec // X11 geometry is 16-bit
			0, byte(src.Format.Depth), *scratch)
	}
}
