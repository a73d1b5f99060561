package fbimage

import (
	"time"

	"github.com/gogpu/fbimage/compose"
	"github.com/gogpu/fbimage/damage"
	"github.com/gogpu/fbimage/store"
)

// DefaultCubeSize is the number of lattice levels per channel of the colour
// cube built for colour map displays.
const DefaultCubeSize = 6

// Option configures a Buffer during creation.
//
// Example:
//
//	// Defaults: 40ms coalescing window, 4 pixel margin, Catmull-Rom scaling
//	buf, err := fbimage.New(display)
//
//	// Present every update immediately and scale with the X server
//	rs, err := conn.NewRenderScaler()
//	...
//	buf, err := fbimage.New(conn,
//	    fbimage.WithCoalesceWindow(0),
//	    fbimage.WithScaler(rs))
type Option func(*options)

// options holds optional configuration for Buffer creation.
type options struct {
	policy   damage.Policy
	tracker  *store.Tracker
	segments store.Segments
	scaler   compose.Scaler
	target   compose.Target
	maxHeap  int
	cubeSize int
	workers  int
	clock    func() time.Time
}

// defaultOptions returns the default buffer options.
func defaultOptions() options {
	return options{
		policy:   damage.DefaultPolicy(),
		cubeSize: DefaultCubeSize,
		clock:    time.Now,
	}
}

// WithCoalesceWindow sets how long damage is accumulated before
// PresentPendingDamage presents it. Zero presents on every call.
func WithCoalesceWindow(d time.Duration) Option {
	return func(o *options) {
		o.policy.Window = max(0, d)
	}
}

// WithDamageMargin sets how many pixels the damaged bound is widened on each
// side before presenting, so that scaling filters see the neighbours of
// changed pixels.
func WithDamageMargin(px int) Option {
	return func(o *options) {
		o.policy.Margin = max(0, px)
	}
}

// WithTracker registers shared-memory stores with t so that the application
// can force-release them on teardown with t.ReleaseAll.
//
// Example:
//
//	tracker := store.NewTracker()
//	defer tracker.ReleaseAll()
//	buf, err := fbimage.New(display, fbimage.WithTracker(tracker))
func WithTracker(t *store.Tracker) Option {
	return func(o *options) {
		o.tracker = t
	}
}

// WithSegments replaces the kernel shared-memory primitives. It is mostly
// useful in tests; the default is System V IPC where the platform has it.
func WithSegments(s store.Segments) Option {
	return func(o *options) {
		o.segments = s
	}
}

// WithScaler sets the scaling engine used when the target size differs from
// the buffer size. The default is compose.Software with Catmull-Rom.
func WithScaler(s compose.Scaler) Option {
	return func(o *options) {
		o.scaler = s
	}
}

// WithTarget sets the initial presentation target.
func WithTarget(t compose.Target) Option {
	return func(o *options) {
		o.target = t
	}
}

// WithMaxHeapBytes caps the size of heap-backed pixel allocations. Larger
// requests fail with store.ErrAllocation. Zero means no cap.
func WithMaxHeapBytes(n int) Option {
	return func(o *options) {
		o.maxHeap = max(0, n)
	}
}

// WithCubeSize sets the lattice levels per channel of the colour cube
// allocated on colour map displays. n*n*n must not exceed 256.
func WithCubeSize(n int) Option {
	return func(o *options) {
		o.cubeSize = n
	}
}

// WithClock replaces the time source used for the coalescing window.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithWorkers translates large update rectangles on n goroutines. Values
// below 2 translate on the calling goroutine, which is the default.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = max(0, n)
	}
}
