// Package fbimage provides the off-screen framebuffer of a remote-display
// client.
//
// # Overview
//
// A Buffer receives screen-update rectangles in a negotiated ("wire") pixel
// format, stores them in a backing store laid out in the display's native
// pixel format, tracks the damaged area and presents it, scaled, onto a
// presentation target whose size may differ from the buffer.
//
// # Quick Start
//
//	import "github.com/gogpu/fbimage"
//
//	buf, err := fbimage.New(display, fbimage.WithTarget(window))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer buf.Close()
//
//	if err := buf.Allocate(1024, 768); err != nil {
//	    log.Fatal(err) // no memory for the framebuffer
//	}
//	_ = buf.SetFormat(serverFormat)
//
//	// For every rectangle received from the server:
//	_ = buf.WriteRegion(rect, pixels, stride)
//	_ = buf.PresentPendingDamage()
//
// # Architecture
//
// The library is organized into:
//   - pixfmt: pixel formats, display visuals, format-aware image views
//   - palette: the 256-entry colour map and the colour cube
//   - store: shared-memory or heap pixel storage
//   - damage: bounding-rectangle damage accumulation
//   - compose: the scaling transform and the compositor
//   - x11, integration/ebitenview, integration/fbcanvas: display and
//     presentation collaborators
//
// # Threading
//
// A Buffer is driven from the single goroutine that processes updates and
// does no locking of its own.
package fbimage

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 1

	// VersionPatch is the patch version
	VersionPatch = 0
)
