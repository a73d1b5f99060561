// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !linux

package store

// noSegments reports ErrSharedUnsupported for every operation.
type noSegments struct{}

// DefaultSegments returns the platform shared-memory primitives.
func DefaultSegments() Segments { return noSegments{} }

func (noSegments) Create(int) (int, error) { return -1, ErrSharedUnsupported }
func (noSegments) Map(int) ([]byte, error) { return nil, ErrSharedUnsupported }
func (noSegments) Unmap([]byte) error      { return ErrSharedUnsupported }
func (noSegments) Remove(int) error        { return ErrSharedUnsupported }
