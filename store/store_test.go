// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package store

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/fbimage/pixfmt"
)

// fakeSegments is an in-memory Segments with injectable failures.
type fakeSegments struct {
	next       int
	mapped     map[int][]byte
	removed    []int
	unmapped   int
	failCreate bool
	failMap    bool
	shortMap   bool
}

func newFakeSegments() *fakeSegments {
	return &fakeSegments{next: 1, mapped: make(map[int][]byte)}
}

func (f *fakeSegments) Create(size int) (int, error) {
	if f.failCreate {
		return -1, errors.New("shmget: no space")
	}
	id := f.next
	f.next++
	n := size
	if f.shortMap {
		n = size / 2
	}
	f.mapped[id] = make([]byte, n)
	return id, nil
}

func (f *fakeSegments) Map(id int) ([]byte, error) {
	if f.failMap {
		return nil, errors.New("shmat: permission denied")
	}
	return f.mapped[id], nil
}

func (f *fakeSegments) Unmap([]byte) error {
	f.unmapped++
	return nil
}

func (f *fakeSegments) Remove(id int) error {
	f.removed = append(f.removed, id)
	delete(f.mapped, id)
	return nil
}

// fakeAttacher records attaches and can reject them.
type fakeAttacher struct {
	reject   bool
	attached map[int]bool
}

type fakeAttachment struct {
	a  *fakeAttacher
	id int
}

func (a *fakeAttachment) SegmentID() int { return a.id }

func (a *fakeAttachment) Detach() error {
	delete(a.a.attached, a.id)
	return nil
}

func (f *fakeAttacher) Attach(id int) (Attachment, error) {
	if f.reject {
		return nil, errors.New("BadAccess")
	}
	if f.attached == nil {
		f.attached = make(map[int]bool)
	}
	f.attached[id] = true
	return &fakeAttachment{a: f, id: id}, nil
}

func fill(s *Store) {
	pix := s.Pix()
	for i := range pix {
		pix[i] = byte(i*7 + 3)
	}
}

func TestAllocate_Heap(t *testing.T) {
	s := New(Config{})
	if err := s.Allocate(10, 5, pixfmt.BGRX32); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if s.Mode() != ModeHeap {
		t.Errorf("Mode() = %v, want heap", s.Mode())
	}
	if s.Stride() != 40 || len(s.Pix()) != 200 {
		t.Errorf("stride = %d, len = %d", s.Stride(), len(s.Pix()))
	}
	if s.Attachment() != nil {
		t.Error("heap store should have no attachment")
	}
}

func TestAllocate_ScanlinePad(t *testing.T) {
	s := New(Config{ScanlinePad: 32})
	if err := s.Allocate(3, 2, pixfmt.RGB565); err != nil {
		t.Fatal(err)
	}
	if s.Stride() != 8 {
		t.Errorf("Stride() = %d, want 8", s.Stride())
	}
}

func TestAllocate_Shared(t *testing.T) {
	segs := newFakeSegments()
	att := &fakeAttacher{}
	tr := NewTracker()
	s := New(Config{Segments: segs, Attacher: att, Tracker: tr})

	if err := s.Allocate(4, 4, pixfmt.BGRX32); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if s.Mode() != ModeShared {
		t.Fatalf("Mode() = %v, want shared", s.Mode())
	}
	if s.Attachment() == nil || s.Attachment().SegmentID() != 1 {
		t.Fatal("shared store should expose its attachment")
	}
	if tr.Len() != 1 {
		t.Errorf("tracker len = %d, want 1", tr.Len())
	}

	if err := s.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if len(att.attached) != 0 || segs.unmapped != 1 || len(segs.removed) != 1 {
		t.Errorf("release left attached=%v unmapped=%d removed=%v", att.attached, segs.unmapped, segs.removed)
	}
	if tr.Len() != 0 {
		t.Errorf("tracker len after release = %d, want 0", tr.Len())
	}

	// Idempotent.
	if err := s.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
	if s.Mode() != ModeNone || s.Pix() != nil {
		t.Error("released store still reports memory")
	}
}

func TestAllocate_SharedFallback(t *testing.T) {
	tests := []struct {
		name        string
		segs        *fakeSegments
		att         *fakeAttacher
		wantRemoved int
		wantUnmap   int
	}{
		{"create fails", &fakeSegments{next: 1, mapped: map[int][]byte{}, failCreate: true}, &fakeAttacher{}, 0, 0},
		{"map fails", &fakeSegments{next: 1, mapped: map[int][]byte{}, failMap: true}, &fakeAttacher{}, 1, 0},
		{"short map", &fakeSegments{next: 1, mapped: map[int][]byte{}, shortMap: true}, &fakeAttacher{}, 1, 1},
		{"attach rejected", newFakeSegments(), &fakeAttacher{reject: true}, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			s := New(Config{Segments: tt.segs, Attacher: tt.att, Tracker: tr})
			if err := s.Allocate(8, 8, pixfmt.BGRX32); err != nil {
				t.Fatalf("Allocate() error = %v, want heap fallback", err)
			}
			if s.Mode() != ModeHeap {
				t.Errorf("Mode() = %v, want heap", s.Mode())
			}
			if len(tt.segs.removed) != tt.wantRemoved {
				t.Errorf("removed = %v, want %d segments", tt.segs.removed, tt.wantRemoved)
			}
			if tt.segs.unmapped != tt.wantUnmap {
				t.Errorf("unmapped = %d, want %d", tt.segs.unmapped, tt.wantUnmap)
			}
			if tr.Len() != 0 {
				t.Error("heap fallback must not be tracked")
			}
		})
	}
}

func TestAllocate_HeapLimit(t *testing.T) {
	s := New(Config{MaxHeapBytes: 100})
	err := s.Allocate(10, 10, pixfmt.BGRX32)
	if !errors.Is(err, ErrAllocation) {
		t.Fatalf("Allocate() error = %v, want ErrAllocation", err)
	}
	if s.Mode() != ModeNone {
		t.Errorf("Mode() = %v after failed allocation", s.Mode())
	}
	if err := s.Release(); err != nil {
		t.Errorf("Release() after failed allocation = %v", err)
	}
}

func TestAllocate_RefusedKeepsOld(t *testing.T) {
	s := New(Config{MaxHeapBytes: 400})
	if err := s.Allocate(10, 10, pixfmt.BGRX32); err != nil {
		t.Fatal(err)
	}
	fill(s)
	want := append([]byte(nil), s.Pix()...)

	if err := s.Allocate(20, 20, pixfmt.BGRX32); !errors.Is(err, ErrAllocation) {
		t.Fatalf("Allocate() over the limit = %v, want ErrAllocation", err)
	}
	if err := s.Resize(11, 10); !errors.Is(err, ErrAllocation) {
		t.Fatalf("Resize() over the limit = %v, want ErrAllocation", err)
	}
	if s.Mode() != ModeHeap || s.Width() != 10 || s.Height() != 10 || s.Stride() != 40 {
		t.Fatalf("after refusal: mode=%v %dx%d stride=%d", s.Mode(), s.Width(), s.Height(), s.Stride())
	}
	if !bytes.Equal(s.Pix(), want) {
		t.Error("refused allocation changed the existing pixels")
	}
}

func TestAllocate_StrideOverflow(t *testing.T) {
	s := New(Config{ScanlinePad: 32})
	if err := s.Allocate(math.MaxInt/16, 1, pixfmt.BGRX32); !errors.Is(err, ErrAllocation) {
		t.Fatalf("Allocate(MaxInt/16, 1) = %v, want ErrAllocation", err)
	}
	if s.Mode() != ModeNone || s.Width() != 0 {
		t.Errorf("overflowing Allocate left mode=%v width=%d", s.Mode(), s.Width())
	}
}

func TestRelease_EmptiesStore(t *testing.T) {
	s := New(Config{})
	if err := s.Allocate(10, 5, pixfmt.BGRX32); err != nil {
		t.Fatal(err)
	}
	if err := s.Release(); err != nil {
		t.Fatal(err)
	}
	img := s.Image()
	if s.Width() != 0 || s.Height() != 0 || s.Stride() != 0 || !img.Rect.Empty() {
		t.Errorf("released store reports %dx%d stride=%d rect=%v", s.Width(), s.Height(), s.Stride(), img.Rect)
	}
}

func TestAllocate_Invalid(t *testing.T) {
	s := New(Config{})
	if err := s.Allocate(0, 10, pixfmt.BGRX32); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("zero width error = %v", err)
	}
	if err := s.Allocate(10, 10, pixfmt.PixelFormat{BitsPerPixel: 24}); !errors.Is(err, pixfmt.ErrUnsupportedBPP) {
		t.Errorf("24bpp error = %v", err)
	}
}

func TestResize_SameSizeIsNoop(t *testing.T) {
	for _, size := range [][2]int{{1, 1}, {7, 3}, {100, 100}} {
		s := New(Config{})
		if err := s.Allocate(size[0], size[1], pixfmt.BGRX32); err != nil {
			t.Fatal(err)
		}
		fill(s)
		before := s.Pix()
		want := append([]byte(nil), before...)

		if err := s.Resize(size[0], size[1]); err != nil {
			t.Fatalf("Resize() error = %v", err)
		}
		after := s.Pix()
		if &after[0] != &before[0] {
			t.Errorf("%v: Resize to same size reallocated", size)
		}
		if !bytes.Equal(after, want) {
			t.Errorf("%v: Resize to same size changed contents", size)
		}
	}
}

func TestResize_KeepsOverlap(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		newW, newH int
	}{
		{"shrink", 100, 100, 50, 50},
		{"grow", 10, 10, 20, 15},
		{"wider shorter", 10, 10, 20, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{ScanlinePad: 32})
			if err := s.Allocate(tt.w, tt.h, pixfmt.RGB565); err != nil {
				t.Fatal(err)
			}
			fill(s)
			old := s.Image()
			oldPix := append([]byte(nil), s.Pix()...)
			old.Pix = oldPix

			if err := s.Resize(tt.newW, tt.newH); err != nil {
				t.Fatalf("Resize() error = %v", err)
			}
			if s.Width() != tt.newW || s.Height() != tt.newH {
				t.Fatalf("size = %dx%d", s.Width(), s.Height())
			}
			img := s.Image()
			for y := range tt.newH {
				for x := range tt.newW {
					want := uint32(0)
					if x < tt.w && y < tt.h {
						want = old.PixelAt(x, y)
					}
					if got := img.PixelAt(x, y); got != want {
						t.Fatalf("pixel (%d,%d) = %#x, want %#x", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestResize_SharedReselectsStrategy(t *testing.T) {
	segs := newFakeSegments()
	att := &fakeAttacher{}
	tr := NewTracker()
	s := New(Config{Segments: segs, Attacher: att, Tracker: tr})
	if err := s.Allocate(4, 4, pixfmt.BGRX32); err != nil {
		t.Fatal(err)
	}
	att.reject = true
	if err := s.Resize(8, 8); err != nil {
		t.Fatal(err)
	}
	if s.Mode() != ModeHeap {
		t.Errorf("Mode() after rejected re-attach = %v, want heap", s.Mode())
	}
	if tr.Len() != 0 || len(att.attached) != 0 {
		t.Error("old shared segment was not released")
	}
}

func TestResize_NotAllocated(t *testing.T) {
	s := New(Config{})
	if err := s.Resize(10, 10); !errors.Is(err, ErrNotAllocated) {
		t.Errorf("Resize() error = %v, want ErrNotAllocated", err)
	}
}

func TestTracker_ReleaseAll(t *testing.T) {
	segs := newFakeSegments()
	att := &fakeAttacher{}
	tr := NewTracker()

	stores := make([]*Store, 3)
	for i := range stores {
		stores[i] = New(Config{Segments: segs, Attacher: att, Tracker: tr})
		if err := stores[i].Allocate(2, 2, pixfmt.BGRX32); err != nil {
			t.Fatal(err)
		}
	}
	if tr.Len() != 3 {
		t.Fatalf("tracker len = %d, want 3", tr.Len())
	}
	if err := tr.ReleaseAll(); err != nil {
		t.Fatalf("ReleaseAll() error = %v", err)
	}
	if tr.Len() != 0 || len(att.attached) != 0 || len(segs.mapped) != 0 {
		t.Errorf("ReleaseAll left tracked=%d attached=%d mapped=%d", tr.Len(), len(att.attached), len(segs.mapped))
	}
	for _, s := range stores {
		if s.Mode() != ModeNone || s.Width() != 0 || s.Height() != 0 {
			t.Error("store still allocated after ReleaseAll")
		}
	}
}

func TestMode_String(t *testing.T) {
	if ModeHeap.String() != "heap" || ModeShared.String() != "shared" || ModeNone.String() != "none" {
		t.Error("unexpected Mode strings")
	}
}
