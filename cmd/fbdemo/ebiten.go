package main

import (
	"context"
	"image"
	"time"

	"github.com/gogpu/fbimage"
	"github.com/gogpu/fbimage/compose"
	"github.com/gogpu/fbimage/integration/ebitenview"
	"github.com/gogpu/fbimage/pixfmt"
	"github.com/gogpu/fbimage/store"
)

// rgbaDisplay is a true-colour display whose native layout matches the
// byte order ebiten uploads, so presented pixels need no swizzle.
type rgbaDisplay struct{}

func (rgbaDisplay) Visual() pixfmt.Visual {
	return pixfmt.Visual{
		Depth:     24,
		Class:     pixfmt.TrueColour,
		RedMask:   0x0000ff,
		GreenMask: 0x00ff00,
		BlueMask:  0xff0000,
		Layouts:   []pixfmt.Layout{{Depth: 24, BitsPerPixel: 32, ScanlinePad: 32}},
	}
}

func runEbiten(ctx context.Context, cfg config, tracker *store.Tracker) error {
	view := ebitenview.New(cfg.windowSize())

	opts := append(cfg.options(tracker),
		fbimage.WithTarget(view), fbimage.WithScaler(compose.Software{Filter: cfg.filter}))
	buf, err := fbimage.New(rgbaDisplay{}, opts...)
	if err != nil {
		return err
	}
	defer buf.Close()
	if err := buf.Allocate(cfg.width, cfg.height); err != nil {
		return err
	}
	if cfg.format.BitsPerPixel != 0 {
		if err := buf.SetFormat(cfg.format); err != nil {
			return err
		}
	}

	gen := newGenerator(buf, uint64(time.Now().UnixNano())) //nolint:gosec // seed only
	interval := time.Second / time.Duration(cfg.fps)
	var last time.Time
	view.OnResize(func(int, int) {
		buf.TargetResized()
		buf.AddDamage(image.Rect(0, 0, buf.Width(), buf.Height()))
	})
	view.OnStep(func() error {
		if ctx.Err() != nil {
			view.Close()
			return nil
		}
		if now := time.Now(); now.Sub(last) >= interval {
			last = now
			if err := gen.Step(); err != nil {
				return err
			}
		}
		return buf.PresentPendingDamage()
	})
	return view.Run("fbdemo")
}
