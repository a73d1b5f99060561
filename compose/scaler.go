// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compose

import (
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/fbimage/pixfmt"
)

// Scaler resamples src so that it exactly covers dst.
type Scaler interface {
	Scale(dst, src *pixfmt.Image) error
}

// Filter selects the resampling kernel of the Software scaler.
type Filter uint8

const (
	// FilterCatmullRom is the Catmull-Rom cubic kernel. It gives the
	// sharpest result and is the default.
	FilterCatmullRom Filter = iota

	// FilterBilinear is the tent kernel.
	FilterBilinear

	// FilterApproxBilinear is a fast bilinear approximation.
	FilterApproxBilinear

	// FilterNearest picks the closest source pixel.
	FilterNearest
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterCatmullRom:
		return "CatmullRom"
	case FilterBilinear:
		return "Bilinear"
	case FilterApproxBilinear:
		return "ApproxBilinear"
	case FilterNearest:
		return "Nearest"
	default:
		return "Unknown"
	}
}

// ParseFilter returns the filter with the given name, case-sensitive as
// printed by String.
func ParseFilter(name string) (Filter, bool) {
	for f := FilterCatmullRom; f <= FilterNearest; f++ {
		if f.String() == name {
			return f, true
		}
	}
	return FilterCatmullRom, false
}

func (f Filter) interpolator() xdraw.Interpolator {
	switch f {
	case FilterBilinear:
		return xdraw.BiLinear
	case FilterApproxBilinear:
		return xdraw.ApproxBiLinear
	case FilterNearest:
		return xdraw.NearestNeighbor
	default:
		return xdraw.CatmullRom
	}
}

// Software scales on the CPU with golang.org/x/image/draw kernels.
//
// Colour map formats cannot be interpolated without the display's colour
// values, so they are always scaled by nearest-neighbour pixel copy.
type Software struct {
	Filter Filter
}

// Scale implements Scaler.
func (s Software) Scale(dst, src *pixfmt.Image) error {
	if dst.Rect.Empty() || src.Rect.Empty() {
		return nil
	}
	if !dst.Format.TrueColour || !src.Format.TrueColour {
		scaleNearestRaw(dst, src)
		return nil
	}
	s.Filter.interpolator().Scale(dst, dst.Rect, src, src.Rect, xdraw.Src, nil)
	return nil
}

// scaleNearestRaw copies packed pixel values without colour conversion.
func scaleNearestRaw(dst, src *pixfmt.Image) {
	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	for y := range dh {
		sy := src.Rect.Min.Y + (2*y+1)*sh/(2*dh)
		for x := range dw {
			sx := src.Rect.Min.X + (2*x+1)*sw/(2*dw)
			dst.SetPixel(dst.Rect.Min.X+x, dst.Rect.Min.Y+y, src.PixelAt(sx, sy))
		}
	}
}
