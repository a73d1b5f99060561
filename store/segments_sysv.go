// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build linux

package store

import "golang.org/x/sys/unix"

// sysvSegments implements Segments with System V IPC.
type sysvSegments struct{}

// DefaultSegments returns the platform shared-memory primitives.
func DefaultSegments() Segments { return sysvSegments{} }

func (sysvSegments) Create(size int) (int, error) {
	return unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|0o600)
}

func (sysvSegments) Map(id int) ([]byte, error) {
	return unix.SysvShmAttach(id, 0, 0)
}

func (sysvSegments) Unmap(mem []byte) error {
	return unix.SysvShmDetach(mem)
}

func (sysvSegments) Remove(id int) error {
	_, err := unix.SysvShmCtl(id, unix.IPC_RMID, nil)
	return err
}
