package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jezek/xgb"

	"github.com/gogpu/fbimage"
	"github.com/gogpu/fbimage/compose"
	"github.com/gogpu/fbimage/store"
	"github.com/gogpu/fbimage/x11"
)

func runX11(ctx context.Context, cfg config, tracker *store.Tracker) error {
	conn, err := x11.Dial("")
	if err != nil {
		return err
	}
	defer conn.Close()

	ww, wh := cfg.windowSize()
	win, err := conn.CreateWindow("fbdemo", ww, wh)
	if err != nil {
		return err
	}
	defer win.Close()

	var scaler compose.Scaler = compose.Software{Filter: cfg.filter}
	if cfg.render {
		rs, err := conn.NewRenderScaler()
		if err != nil {
			slog.Warn("RENDER scaling unavailable, scaling in software", "err", err)
		} else {
			defer rs.Close()
			scaler = rs
		}
	}

	opts := append(cfg.options(tracker), fbimage.WithTarget(win), fbimage.WithScaler(scaler))
	buf, err := fbimage.New(conn, opts...)
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
	win.SetSource(buf.Store())
	slog.Info("framebuffer ready",
		"mode", buf.Store().Mode(), "native", buf.NativeFormat(), "format", buf.Format(), "aliased", buf.Aliased())

	events := make(chan xgb.Event)
	errs := make(chan error, 1)
	go func() {
		for {
			ev, xerr := conn.WaitForEvent()
			if ev == nil && xerr == nil {
				errs <- fmt.Errorf("x11: connection closed")
				return
			}
			if xerr != nil {
				slog.Debug("x11 error event", "err", xerr)
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	gen := newGenerator(buf, uint64(time.Now().UnixNano())) //nolint:gosec // seed only
	tick := time.NewTicker(time.Second / time.Duration(cfg.fps))
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case ev := <-events:
			resized, exposed := win.HandleEvent(ev)
			if resized {
				buf.TargetResized()
			}
			if resized || exposed {
				if err := buf.Refresh(); err != nil {
					return err
				}
			}
		case <-tick.C:
			if err := gen.Step(); err != nil {
				return err
			}
			if err := buf.PresentPendingDamage(); err != nil {
				return err
			}
		}
	}
}
