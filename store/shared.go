// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package store

import (
	"errors"
	"fmt"

	"github.com/gogpu/fbimage/internal/logging"
)

// ErrSharedUnsupported is returned by Segments on platforms without
// shared-memory support.
var ErrSharedUnsupported = errors.New("store: shared memory not supported")

// Segments is the kernel side of shared memory.
type Segments interface {
	// Create makes a new private segment of size bytes and returns its id.
	Create(size int) (id int, err error)

	// Map maps segment id into the process.
	Map(id int) ([]byte, error)

	// Unmap undoes Map.
	Unmap(mem []byte) error

	// Remove marks segment id for destruction once every mapping is gone.
	Remove(id int) error
}

// Attacher makes a segment visible to the display.
//
// Attach reports display-side rejection through its error result; it must
// not terminate the process or install global error handlers.
type Attacher interface {
	Attach(segmentID int) (Attachment, error)
}

// Attachment is a segment attached to the display.
type Attachment interface {
	// SegmentID returns the kernel segment id.
	SegmentID() int

	// Detach removes the display's reference to the segment.
	Detach() error
}

// sharedStorage is pixel memory in a segment attached to the display.
type sharedStorage struct {
	segs Segments
	id   int
	pix  []byte
	att  Attachment
}

func (sh *sharedStorage) bytes() []byte { return sh.pix }
func (sh *sharedStorage) mode() Mode    { return ModeShared }

func (sh *sharedStorage) release() error {
	var errs []error
	if sh.att != nil {
		if err := sh.att.Detach(); err != nil {
			errs = append(errs, fmt.Errorf("display detach: %w", err))
		}
		sh.att = nil
	}
	if sh.pix != nil {
		if err := sh.segs.Unmap(sh.pix); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		sh.pix = nil
	}
	if err := sh.segs.Remove(sh.id); err != nil {
		errs = append(errs, fmt.Errorf("remove segment %d: %w", sh.id, err))
	}
	if err := errors.Join(errs...); err != nil {
		logging.Logger().Warn("store: releasing shared memory", "err", err)
		return err
	}
	return nil
}

// allocShared tries the shared-memory strategy. It returns nil, after
// releasing any partial state, when any step fails.
func (s *Store) allocShared(size int) storage {
	if s.cfg.Attacher == nil {
		return nil
	}
	log := logging.Logger()
	segs := s.cfg.Segments

	id, err := segs.Create(size)
	if err != nil {
		log.Warn("store: shared memory unavailable, using heap", "step", "create", "err", err)
		return nil
	}

	pix, err := segs.Map(id)
	if err != nil {
		log.Warn("store: shared memory unavailable, using heap", "step", "map", "err", err)
		removeSegment(segs, id)
		return nil
	}
	if len(pix) < size {
		log.Warn("store: shared memory unavailable, using heap", "step", "map",
			"err", fmt.Sprintf("mapped %d bytes, want %d", len(pix), size))
		unmapSegment(segs, pix)
		removeSegment(segs, id)
		return nil
	}

	att, err := s.cfg.Attacher.Attach(id)
	if err != nil {
		log.Warn("store: shared memory unavailable, using heap", "step", "attach", "err", err)
		unmapSegment(segs, pix)
		removeSegment(segs, id)
		return nil
	}

	log.Debug("store: using shared memory", "segment", id, "bytes", size)
	return &sharedStorage{segs: segs, id: id, pix: pix[:size], att: att}
}

func unmapSegment(segs Segments, pix []byte) {
	if err := segs.Unmap(pix); err != nil {
		logging.Logger().Warn("store: unmapping segment", "err", err)
	}
}

func removeSegment(segs Segments, id int) {
	if err := segs.Remove(id); err != nil {
		logging.Logger().Warn("store: removing segment", "segment", id, "err", err)
	}
}
