// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package compose

import (
	"image"
	"math"
)

// Transform maps framebuffer coordinates to target coordinates.
type Transform struct {
	// SX and SY are target size / framebuffer size on each axis.
	SX, SY float64
}

// Identity returns the transform that leaves coordinates unchanged.
func Identity() Transform {
	return Transform{SX: 1, SY: 1}
}

// NewTransform returns the transform from a bufW x bufH framebuffer to a
// tgtW x tgtH target. Non-positive sizes yield the identity.
func NewTransform(bufW, bufH, tgtW, tgtH int) Transform {
	if bufW <= 0 || bufH <= 0 || tgtW <= 0 || tgtH <= 0 {
		return Identity()
	}
	return Transform{
		SX: float64(tgtW) / float64(bufW),
		SY: float64(tgtH) / float64(bufH),
	}
}

// IsIdentity reports whether both factors are exactly one.
func (t Transform) IsIdentity() bool {
	return t.SX == 1 && t.SY == 1
}

// Map returns the target rectangle for framebuffer rectangle r.
//
// The origin is rounded to the nearest target pixel and each extent is
// rounded but never below one pixel, so a small damage rectangle never maps
// to a zero-sized operation that the target would skip.
func (t Transform) Map(r image.Rectangle) image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	x := int(math.Round(t.SX * float64(r.Min.X)))
	y := int(math.Round(t.SY * float64(r.Min.Y)))
	w := max(1, int(math.Round(t.SX*float64(r.Dx()))))
	h := max(1, int(math.Round(t.SY*float64(r.Dy()))))
	return image.Rect(x, y, x+w, y+h)
}
