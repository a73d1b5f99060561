// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11

import (
	"errors"
	"fmt"

	"github.com/jezek/xgb/xproto"

	"github.com/gogpu/fbimage/internal/logging"
	"github.com/gogpu/fbimage/palette"
)

// AllocColours allocates read-only cells in the default colour map and
// returns the pixel the server chose for each requested colour. All
// requests are sent before the first reply is read.
//
// A colour the server cannot allocate, typically because the map is full,
// is approximated by the nearest cell already in the map.
func (c *Conn) AllocColours(want []palette.RGB) ([]uint32, error) {
	cmap := c.screen.DefaultColormap
	cookies := make([]xproto.AllocColorCookie, len(want))
	for i, rgb := range want {
		cookies[i] = xproto.AllocColor(c.x, cmap, rgb.R, rgb.G, rgb.B)
	}

	pixels := make([]uint32, len(want))
	var missed []int
	var lastErr error
	for i, ck := range cookies {
		reply, err := ck.Reply()
		if err != nil {
			missed = append(missed, i)
			lastErr = err
			continue
		}
		pixels[i] = reply.Pixel
	}
	if len(missed) == 0 {
		return pixels, nil
	}

	logging.Logger().Warn("x11: colour map full, using nearest cells",
		"unallocated", len(missed), "err", lastErr)
	cells, err := c.queryColourMap(cmap)
	if err != nil {
		return nil, fmt.Errorf("x11: %d colours unallocated: %w", len(missed), err)
	}
	for _, i := range missed {
		pixels[i] = nearestCell(cells, want[i])
	}
	return pixels, nil
}

// maxQueryCells bounds one QueryColors request below the core request
// length limit.
const maxQueryCells = 65535 - 3

// queryColourMap reads every cell of cmap.
func (c *Conn) queryColourMap(cmap xproto.Colormap) ([]xproto.Rgb, error) {
	n := min(c.visual.ColourMapSize, maxQueryCells)
	if n <= 0 {
		return nil, errors.New("x11: visual has no colour map cells")
	}
	ids := make([]uint32, n)
	for i := range ids {
		ids[i] = uint32(i) //nolint:gosec // bounded by maxQueryCells
	}
	reply, err := xproto.QueryColors(c.x, cmap, ids).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: querying colour map: %w", err)
	}
	return reply.Colors, nil
}

// nearestCell returns the index of the cell closest to rgb by squared RGB
// distance. Ties keep the lowest index.
func nearestCell(cells []xproto.Rgb, rgb palette.RGB) uint32 {
	best, bestDist := 0, int64(-1)
	for i, cell := range cells {
		dr := int64(cell.Red) - int64(rgb.R)
		dg := int64(cell.Green) - int64(rgb.G)
		db := int64(cell.Blue) - int64(rgb.B)
		d := dr*dr + dg*dg + db*db
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	return uint32(best) //nolint:gosec // bounded by maxQueryCells
}
