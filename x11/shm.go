// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package x11

import (
	"fmt"

	"github.com/jezek/xgb/shm"

	"github.com/gogpu/fbimage/store"
)

// Attach makes System V segment segmentID visible to the server. A
// rejected attach, for example from a remote server that cannot see the
// segment, is returned as an error.
func (c *Conn) Attach(segmentID int) (store.Attachment, error) {
	if !c.hasShm {
		return nil, ErrNoShm
	}
	seg, err := shm.NewSegId(c.x)
	if err != nil {
		return nil, fmt.Errorf("x11: allocating segment id: %w", err)
	}
	if err := shm.AttachChecked(c.x, seg, uint32(segmentID), false).Check(); err != nil { //nolint:gosec // kernel ids are non-negative
		return nil, fmt.Errorf("x11: attaching segment %d: %w", segmentID, err)
	}
	return &segment{c: c, seg: seg, id: segmentID}, nil
}

// segment is a shared-memory segment attached to the server.
type segment struct {
	c   *Conn
	seg shm.Seg
	id  int
}

func (s *segment) SegmentID() int { return s.id }

func (s *segment) Detach() error {
	if err := shm.DetachChecked(s.c.x, s.seg).Check(); err != nil {
		return fmt.Errorf("x11: detaching segment %d: %w", s.id, err)
	}
	return nil
}

// segmentOf returns the server-side segment of a shared store.
func segmentOf(s *store.Store) (*segment, bool) {
	if s == nil || s.Mode() != store.ModeShared {
		return nil, false
	}
	seg, ok := s.Attachment().(*segment)
	return seg, ok
}
