// Command fbdemo feeds synthetic framebuffer updates through fbimage and
// shows them in an X11 or ebiten window.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gogpu/fbimage"
	"github.com/gogpu/fbimage/compose"
	"github.com/gogpu/fbimage/pixfmt"
	"github.com/gogpu/fbimage/store"
)

type config struct {
	backend string
	width   int
	height  int
	scale   float64
	format  pixfmt.PixelFormat
	filter  compose.Filter
	render  bool
	window  time.Duration
	margin  int
	workers int
	fps     int
}

func main() {
	var (
		backend = flag.String("backend", "x11", "window backend: x11 or ebiten")
		width   = flag.Int("width", 640, "framebuffer width")
		height  = flag.Int("height", 480, "framebuffer height")
		scale   = flag.Float64("scale", 1, "initial window scale")
		format  = flag.String("format", "native", "negotiated pixel format: native, bgrx32, rgbx32, rgb565, bgr233, indexed8")
		filter  = flag.String("filter", "CatmullRom", "software scaling filter: Nearest, ApproxBilinear, Bilinear, CatmullRom")
		render  = flag.Bool("render", false, "scale on the X server with RENDER")
		window  = flag.Duration("window", 40*time.Millisecond, "damage coalescing window")
		margin  = flag.Int("margin", 4, "damage margin in pixels")
		workers = flag.Int("workers", 0, "goroutines translating large updates")
		fps     = flag.Int("fps", 30, "synthetic updates per second")
		verbose = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	fbimage.SetLogger(logger)

	cfg := config{
		backend: *backend,
		width:   *width,
		height:  *height,
		scale:   *scale,
		render:  *render,
		window:  *window,
		margin:  *margin,
		workers: *workers,
		fps:     max(1, *fps),
	}
	var err error
	if cfg.format, err = parseFormat(*format); err != nil {
		fatal(err)
	}
	f, ok := compose.ParseFilter(*filter)
	if !ok {
		fatal(fmt.Errorf("unknown filter %q", *filter))
	}
	cfg.filter = f

	// Shared segments outlive the process unless released, so interrupts
	// go through the same cleanup as a normal exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	tracker := store.NewTracker()
	err = run(ctx, cfg, tracker)
	stop()
	if rerr := tracker.ReleaseAll(); rerr != nil {
		slog.Warn("releasing shared memory", "err", rerr)
	}
	if err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, cfg config, tracker *store.Tracker) error {
	switch cfg.backend {
	case "x11":
		return runX11(ctx, cfg, tracker)
	case "ebiten":
		return runEbiten(ctx, cfg, tracker)
	default:
		return fmt.Errorf("unknown backend %q", cfg.backend)
	}
}

func (c config) options(tracker *store.Tracker) []fbimage.Option {
	return []fbimage.Option{
		fbimage.WithTracker(tracker),
		fbimage.WithCoalesceWindow(c.window),
		fbimage.WithDamageMargin(c.margin),
		fbimage.WithWorkers(c.workers),
	}
}

func (c config) windowSize() (int, int) {
	return max(1, int(float64(c.width)*c.scale)), max(1, int(float64(c.height)*c.scale))
}

// parseFormat maps a format name to a pixel format. The zero format stands
// for the display's native format.
func parseFormat(name string) (pixfmt.PixelFormat, error) {
	switch name {
	case "native":
		return pixfmt.PixelFormat{}, nil
	case "bgrx32":
		return pixfmt.BGRX32, nil
	case "rgbx32":
		return pixfmt.RGBX32, nil
	case "rgb565":
		return pixfmt.RGB565, nil
	case "bgr233":
		return pixfmt.BGR233, nil
	case "indexed8":
		return pixfmt.Indexed8, nil
	}
	return pixfmt.PixelFormat{}, fmt.Errorf("unknown pixel format %q", name)
}

// fatal reports err and exits. Allocation and format failures leave the
// client with nothing to draw into.
func fatal(err error) {
	var fe *pixfmt.FormatError
	switch {
	case errors.As(err, &fe):
		slog.Error("display has no usable pixel format", "depth", fe.Depth, "err", err)
	case errors.Is(err, store.ErrAllocation):
		slog.Error("out of memory for the framebuffer", "err", err)
	default:
		slog.Error("fbdemo", "err", err)
	}
	os.Exit(1)
}
