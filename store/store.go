// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package store

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/fbimage/internal/logging"
	"github.com/gogpu/fbimage/pixfmt"
)

// Errors returned by Store operations.
var (
	// ErrAllocation is returned when heap memory for the pixels cannot be
	// obtained. No buffer exists afterwards; callers treat it as fatal.
	ErrAllocation = errors.New("store: pixel allocation failed")

	// ErrInvalidDimensions is returned for non-positive width or height.
	ErrInvalidDimensions = errors.New("store: invalid dimensions")

	// ErrNotAllocated is returned by Resize before the first Allocate.
	ErrNotAllocated = errors.New("store: not allocated")
)

// Mode reports which strategy owns the pixel memory.
type Mode uint8

const (
	// ModeNone means nothing is allocated.
	ModeNone Mode = iota

	// ModeHeap is ordinary Go memory.
	ModeHeap

	// ModeShared is a shared-memory segment attached to the display.
	ModeShared
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeHeap:
		return "heap"
	case ModeShared:
		return "shared"
	default:
		return "none"
	}
}

// Config configures a Store.
type Config struct {
	// Attacher makes segments visible to the display. Nil disables the
	// shared-memory strategy.
	Attacher Attacher

	// Segments creates and maps kernel segments. Nil selects the platform
	// default (System V IPC where available).
	Segments Segments

	// Tracker, when set, records live shared stores.
	Tracker *Tracker

	// ScanlinePad is the row alignment in bits required by the display.
	// Zero means rows are packed.
	ScanlinePad int

	// MaxHeapBytes caps heap allocations. Zero means no cap.
	MaxHeapBytes int
}

// storage is the allocation strategy currently holding the pixels.
type storage interface {
	bytes() []byte
	mode() Mode
	release() error
}

// heapStorage is pixel memory owned by the Go heap.
type heapStorage struct {
	pix []byte
}

func (h *heapStorage) bytes() []byte  { return h.pix }
func (h *heapStorage) mode() Mode     { return ModeHeap }
func (h *heapStorage) release() error { h.pix = nil; return nil }

// Store is the backing pixel memory of a framebuffer.
//
// Store is NOT safe for concurrent use.
type Store struct {
	cfg Config

	width  int
	height int
	stride int
	format pixfmt.PixelFormat

	mem storage
}

// New creates an empty store. Call Allocate before use.
func New(cfg Config) *Store {
	if cfg.Segments == nil {
		cfg.Segments = DefaultSegments()
	}
	return &Store{cfg: cfg}
}

// Width returns the width in pixels.
func (s *Store) Width() int { return s.width }

// Height returns the height in pixels.
func (s *Store) Height() int { return s.height }

// Stride returns the row length in bytes, including padding.
func (s *Store) Stride() int { return s.stride }

// Format returns the pixel format.
func (s *Store) Format() pixfmt.PixelFormat { return s.format }

// Mode returns the ownership mode of the current allocation.
func (s *Store) Mode() Mode {
	if s.mem == nil {
		return ModeNone
	}
	return s.mem.mode()
}

// Pix returns the raw pixel memory. It is invalidated by Resize and Release.
func (s *Store) Pix() []byte {
	if s.mem == nil {
		return nil
	}
	return s.mem.bytes()
}

// Attachment returns the display attachment of a shared store, or nil.
func (s *Store) Attachment() Attachment {
	if sh, ok := s.mem.(*sharedStorage); ok {
		return sh.att
	}
	return nil
}

// Image returns a view of the pixel memory.
func (s *Store) Image() *pixfmt.Image {
	return &pixfmt.Image{
		Pix:    s.Pix(),
		Stride: s.stride,
		Rect:   image.Rect(0, 0, s.width, s.height),
		Format: s.format,
	}
}

// Allocate replaces any current allocation with a new one of the given size
// and format. The shared-memory strategy is tried first when an Attacher is
// configured. On error the previous allocation is left untouched.
func (s *Store) Allocate(width, height int, format pixfmt.PixelFormat) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, width, height)
	}
	if err := format.Validate(); err != nil {
		return err
	}

	layout := pixfmt.Layout{BitsPerPixel: format.BitsPerPixel, ScanlinePad: s.cfg.ScanlinePad}
	stride, ok := layout.CheckedStride(width)
	if !ok || stride > math.MaxInt/height {
		return fmt.Errorf("%w: %dx%d overflows", ErrAllocation, width, height)
	}
	size := stride * height

	mem := s.allocShared(size)
	if mem == nil {
		heap, err := s.allocHeap(size)
		if err != nil {
			return err
		}
		mem = heap
	}

	if err := s.Release(); err != nil {
		logging.Logger().Warn("store: releasing previous allocation", "err", err)
	}
	s.width, s.height, s.stride, s.format = width, height, stride, format
	s.mem = mem
	if mem.mode() == ModeShared && s.cfg.Tracker != nil {
		s.cfg.Tracker.Track(s)
	}
	logging.Logger().Debug("store: allocated",
		"width", width, "height", height, "stride", stride, "mode", mem.mode())
	return nil
}

func (s *Store) allocHeap(size int) (*heapStorage, error) {
	if s.cfg.MaxHeapBytes > 0 && size > s.cfg.MaxHeapBytes {
		logging.Logger().Error("store: heap allocation refused", "bytes", size, "limit", s.cfg.MaxHeapBytes)
		return nil, fmt.Errorf("%w: %d bytes exceeds limit %d", ErrAllocation, size, s.cfg.MaxHeapBytes)
	}
	return &heapStorage{pix: make([]byte, size)}, nil
}

// Resize changes the dimensions, keeping the overlapping top-left pixels.
// It is a no-op when the dimensions are unchanged.
func (s *Store) Resize(width, height int) error {
	if s.mem == nil {
		return ErrNotAllocated
	}
	if width == s.width && height == s.height {
		return nil
	}

	oldStride, oldHeight, oldWidth := s.stride, s.height, s.width
	snapshot := make([]byte, len(s.Pix()))
	copy(snapshot, s.Pix())

	if err := s.Allocate(width, height, s.format); err != nil {
		return err
	}

	rows := min(oldHeight, height)
	n := s.format.RowBytes(min(oldWidth, width))
	pix := s.Pix()
	for y := range rows {
		copy(pix[y*s.stride:y*s.stride+n], snapshot[y*oldStride:y*oldStride+n])
	}
	return nil
}

// Release frees the current allocation and leaves the store empty (0x0).
// It is safe to call repeatedly and on a store whose allocation never
// succeeded.
func (s *Store) Release() error {
	if s.mem == nil {
		return nil
	}
	mem := s.mem
	s.mem = nil
	s.width, s.height, s.stride = 0, 0, 0
	if mem.mode() == ModeShared {
		logging.Logger().Debug("store: freeing shared memory")
		if s.cfg.Tracker != nil {
			s.cfg.Tracker.Untrack(s)
		}
	}
	return mem.release()
}
