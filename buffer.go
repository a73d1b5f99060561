package fbimage

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/gogpu/fbimage/compose"
	"github.com/gogpu/fbimage/damage"
	"github.com/gogpu/fbimage/internal/cache"
	"github.com/gogpu/fbimage/internal/convert"
	"github.com/gogpu/fbimage/internal/parallel"
	"github.com/gogpu/fbimage/palette"
	"github.com/gogpu/fbimage/pixfmt"
	"github.com/gogpu/fbimage/store"
)

// Errors returned by Buffer operations.
var (
	// ErrUnsupportedConversion is returned by SetFormat when pixels in the
	// requested format cannot be translated to the native format.
	ErrUnsupportedConversion = errors.New("fbimage: unsupported pixel format conversion")

	// ErrNoMapper is returned by New for a colour map display that does not
	// implement palette.Mapper.
	ErrNoMapper = errors.New("fbimage: colour map display without a palette mapper")

	// ErrClosed is returned by operations on a closed Buffer.
	ErrClosed = errors.New("fbimage: buffer closed")
)

// Display is the windowing system seen by a Buffer.
//
// A Display may additionally implement palette.Mapper, which is required
// when its visual is not true colour, and store.Attacher, which enables
// shared-memory backing stores.
type Display interface {
	Visual() pixfmt.Visual
}

// Buffer is the off-screen framebuffer of a remote-display client.
//
// Pixels arrive in the negotiated format through WriteRegion and are kept in
// a backing store in the display's native format. When the two formats are
// the same true-colour layout the negotiated pixels are written straight
// into the store; otherwise a separate negotiated buffer is kept and every
// written rectangle is translated into the store.
//
// Buffer is NOT safe for concurrent use.
type Buffer struct {
	native pixfmt.PixelFormat
	format pixfmt.PixelFormat

	store *store.Store

	// wire holds negotiated pixels in translating mode; nil when the
	// negotiated format aliases the store.
	wire  *pixfmt.Image
	xlate *convert.Translator

	// xlates keeps translators of recently negotiated formats.
	xlates *cache.Cache[pixfmt.PixelFormat, *convert.Translator]

	// workers translates large rectangles in row bands; nil translates on
	// the calling goroutine.
	workers *parallel.WorkerPool

	table palette.Table
	cube  *palette.Cube

	damage    damage.Accumulator
	policy    damage.Policy
	comp      *compose.Compositor
	clock     func() time.Time
	lastFlush time.Time

	closed bool
}

// New creates a Buffer for display d. The native format is derived from the
// display's visual; a colour cube is allocated through the display when the
// visual is a colour map. Call Allocate before writing pixels.
//
// A *pixfmt.FormatError means the display cannot be used at all.
func New(d Display, opts ...Option) (*Buffer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	v := d.Visual()
	native, err := pixfmt.DeriveNative(v)
	if err != nil {
		return nil, err
	}
	layout, _ := v.LayoutFor(v.Depth)

	b := &Buffer{
		native: native,
		format: native,
		policy: o.policy,
		clock:  o.clock,
		comp:   compose.New(o.target, o.scaler),
		xlates: cache.New[pixfmt.PixelFormat, *convert.Translator](translatorCacheSize),
	}
	if o.workers > 1 {
		b.workers = parallel.NewWorkerPool(o.workers)
	}

	if !native.TrueColour {
		m, ok := d.(palette.Mapper)
		if !ok {
			b.closeWorkers()
			return nil, ErrNoMapper
		}
		cube, err := palette.BuildCube(m, o.cubeSize, o.cubeSize, o.cubeSize)
		if err != nil {
			b.closeWorkers()
			return nil, fmt.Errorf("fbimage: colour cube: %w", err)
		}
		b.cube = cube
	}

	cfg := store.Config{
		Segments:     o.segments,
		Tracker:      o.tracker,
		ScanlinePad:  layout.ScanlinePad,
		MaxHeapBytes: o.maxHeap,
	}
	if a, ok := d.(store.Attacher); ok {
		cfg.Attacher = a
	}
	b.store = store.New(cfg)

	if err := b.configure(native); err != nil {
		b.closeWorkers()
		return nil, err
	}

	Logger().Info("fbimage: native format selected",
		"format", native.String(), "visual", v.Class.String(), "shm", cfg.Attacher != nil)
	return b, nil
}

// Width returns the buffer width in pixels.
func (b *Buffer) Width() int { return b.store.Width() }

// Height returns the buffer height in pixels.
func (b *Buffer) Height() int { return b.store.Height() }

// Format returns the negotiated pixel format.
func (b *Buffer) Format() pixfmt.PixelFormat { return b.format }

// NativeFormat returns the display's pixel format.
func (b *Buffer) NativeFormat() pixfmt.PixelFormat { return b.native }

// Store returns the backing store.
func (b *Buffer) Store() *store.Store { return b.store }

// Cube returns the colour cube of a colour map display, or nil.
func (b *Buffer) Cube() *palette.Cube { return b.cube }

// Image returns a view of the native pixels. For colour map displays the
// view carries a palette that resolves native pixels to colours.
func (b *Buffer) Image() *pixfmt.Image {
	img := b.store.Image()
	img.Palette = b.nativePalette()
	return img
}

// Aliased reports whether negotiated pixels are written straight into the
// backing store.
func (b *Buffer) Aliased() bool { return b.xlate == nil }

func (b *Buffer) bounds() image.Rectangle {
	return image.Rect(0, 0, b.store.Width(), b.store.Height())
}

func (b *Buffer) nativePalette() color.Palette {
	switch {
	case b.native.TrueColour:
		return nil
	case b.format.TrueColour && b.cube != nil:
		return b.cube.Palette()
	default:
		return b.table.Palette()
	}
}

// Allocate (re)creates the backing store at width x height. Existing pixels
// and pending damage are discarded. On error the previous store is kept.
//
// A store.ErrAllocation error means no framebuffer memory could be
// obtained; the caller cannot continue.
func (b *Buffer) Allocate(width, height int) error {
	if b.closed {
		return ErrClosed
	}
	if err := b.store.Allocate(width, height, b.native); err != nil {
		return err
	}
	if b.xlate != nil {
		b.wire = pixfmt.NewImage(image.Rect(0, 0, width, height), b.format)
	}
	b.damage.Reset()
	b.comp.OnResize(width, height)
	return nil
}

// Resize changes the buffer dimensions, keeping the overlapping top-left
// pixels. It is a no-op when the dimensions are unchanged.
func (b *Buffer) Resize(width, height int) error {
	if b.closed {
		return ErrClosed
	}
	if width == b.Width() && height == b.Height() {
		return nil
	}
	if err := b.store.Resize(width, height); err != nil {
		return err
	}
	if b.wire != nil {
		old := b.wire
		b.wire = pixfmt.NewImage(image.Rect(0, 0, width, height), b.format)
		pixfmt.CopyRect(b.wire, old, old.Rect)
	}
	b.comp.OnResize(width, height)
	return nil
}

// SetFormat switches the negotiated pixel format. It is a no-op when f is
// the current format. A format identical to the native true-colour format
// aliases the backing store; anything else allocates a separate negotiated
// buffer and translates on every write.
//
// Colour map to colour map conversion is not supported: SetFormat then
// returns ErrUnsupportedConversion and the previous format stays active.
func (b *Buffer) SetFormat(f pixfmt.PixelFormat) error {
	if b.closed {
		return ErrClosed
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if f == b.format {
		return nil
	}
	if err := b.configure(f); err != nil {
		return err
	}
	Logger().Debug("fbimage: negotiated format changed", "format", f.String(), "aliased", b.Aliased())
	return nil
}

// configure installs f as the negotiated format. Nothing changes on error.
func (b *Buffer) configure(f pixfmt.PixelFormat) error {
	if f == b.native && f.TrueColour {
		b.format, b.wire, b.xlate = f, nil, nil
		return nil
	}

	x, ok := b.xlates.Get(f)
	if ok {
		x.SetColourMap(&b.table)
	} else {
		var err error
		x, err = convert.New(f, b.native, &b.table, b.cube)
		if err != nil {
			return fmt.Errorf("%w: %v to %v: %w", ErrUnsupportedConversion, f, b.native, err)
		}
		b.xlates.Set(f, x)
	}
	var wire *pixfmt.Image
	if w, h := b.Width(), b.Height(); w > 0 && h > 0 {
		wire = pixfmt.NewImage(image.Rect(0, 0, w, h), f)
	}
	b.format, b.wire, b.xlate = f, wire, x
	return nil
}

// WriteRegion stores an update rectangle. pix holds r.Dx() x r.Dy() pixels
// in the negotiated format with rows stride bytes apart. The rectangle is
// clipped to the buffer, translated into the native store when needed and
// added to the pending damage.
func (b *Buffer) WriteRegion(r image.Rectangle, pix []byte, stride int) error {
	if b.closed {
		return ErrClosed
	}
	if b.store.Mode() == store.ModeNone {
		return store.ErrNotAllocated
	}
	r = r.Canon()
	src, err := pixfmt.FromRaw(pix, r.Dx(), r.Dy(), stride, b.format)
	if err != nil {
		return fmt.Errorf("fbimage: writing %v: %w", r, err)
	}
	src.Rect = src.Rect.Add(r.Min)

	clip := r.Intersect(b.bounds())
	if clip.Empty() {
		return nil
	}

	if b.xlate == nil {
		pixfmt.CopyRect(b.store.Image(), src, clip)
	} else {
		pixfmt.CopyRect(b.wire, src, clip)
		b.translate(clip)
	}
	b.damage.Add(clip)
	return nil
}

const (
	// minBandRows is the smallest row band handed to a worker.
	minBandRows = 32

	// translatorCacheSize is how many negotiated formats keep their
	// translator after the server switches away from them.
	translatorCacheSize = 4
)

// translate converts r from the negotiated buffer into the store.
func (b *Buffer) translate(r image.Rectangle) {
	dst := b.store.Image()
	if b.workers == nil {
		b.xlate.Translate(dst, b.wire, r)
		return
	}
	b.workers.ForEachBand(r, minBandRows, func(band image.Rectangle) {
		b.xlate.Translate(dst, b.wire, band)
	})
}

func (b *Buffer) closeWorkers() {
	if b.workers != nil {
		b.workers.Close()
		b.workers = nil
	}
}

// SetColourMapEntries replaces count colour map entries starting at first.
// rgb holds 16-bit r, g, b triples. Entries past index 255 are dropped and
// a zero count does nothing. Call UpdateColourMap afterwards to apply the
// new colours to the framebuffer.
func (b *Buffer) SetColourMapEntries(first, count int, rgb []uint16) {
	b.table.Set(first, count, rgb)
}

// UpdateColourMap applies the colour map set by SetColourMapEntries. When
// the negotiated format is a colour map the whole buffer is re-translated
// and damaged; otherwise the colour map is unused and nothing happens.
func (b *Buffer) UpdateColourMap() {
	if b.format.TrueColour {
		return
	}
	if b.xlate != nil {
		b.xlate.SetColourMap(&b.table)
		if b.wire != nil {
			b.translate(b.bounds())
		}
	}
	b.damage.Add(b.bounds())
}

// Colour returns the 16-bit channels of colour map entry index.
func (b *Buffer) Colour(index int) (uint16, uint16, uint16) {
	c := b.table.Lookup(index)
	return c.R, c.G, c.B
}

// AddDamage marks r as changed without writing pixels, for example after the
// caller drew into Image directly.
func (b *Buffer) AddDamage(r image.Rectangle) {
	b.damage.Add(r.Intersect(b.bounds()))
}

// PendingDamage returns the bound of the damage added since the last
// presentation.
func (b *Buffer) PendingDamage() image.Rectangle {
	return b.damage.Bound()
}

// PresentPendingDamage presents the accumulated damage once the coalescing
// window has elapsed since the previous presentation. It does nothing when
// no damage is pending or no target is set.
func (b *Buffer) PresentPendingDamage() error {
	if !b.damage.Pending() {
		return nil
	}
	now := b.clock()
	if !b.policy.ShouldFlush(now.Sub(b.lastFlush)) {
		return nil
	}
	return b.present(now)
}

// Flush presents the accumulated damage regardless of the coalescing window.
func (b *Buffer) Flush() error {
	if !b.damage.Pending() {
		return nil
	}
	return b.present(b.clock())
}

func (b *Buffer) present(now time.Time) error {
	if b.closed {
		return ErrClosed
	}
	if b.store.Mode() == store.ModeNone {
		b.damage.Reset()
		return store.ErrNotAllocated
	}
	if b.comp.Target() == nil {
		return nil
	}
	r := b.damage.TakeExtended(b.policy.Margin, b.Width(), b.Height())
	b.lastFlush = now
	if r.Empty() {
		return nil
	}
	if err := b.comp.Present(b.Image(), r); err != nil {
		return fmt.Errorf("fbimage: presenting %v: %w", r, err)
	}
	return nil
}

// Refresh damages the whole buffer and presents it.
func (b *Buffer) Refresh() error {
	b.damage.Add(b.bounds())
	return b.Flush()
}

// SetTarget replaces the presentation target.
func (b *Buffer) SetTarget(t compose.Target) {
	b.comp.SetTarget(t)
}

// Target returns the presentation target.
func (b *Buffer) Target() compose.Target {
	return b.comp.Target()
}

// Transform returns the current buffer-to-target scaling transform.
func (b *Buffer) Transform() compose.Transform {
	return b.comp.Transform()
}

// TargetResized recomputes the scaling transform after the target changed
// size.
func (b *Buffer) TargetResized() {
	b.comp.OnResize(b.Width(), b.Height())
}

// Close releases the backing store. Further operations return ErrClosed.
// Close is idempotent.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.closeWorkers()
	b.wire, b.xlate = nil, nil
	b.xlates.Clear()
	b.damage.Reset()
	return b.store.Release()
}
