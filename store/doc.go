// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package store provides the pixel memory behind a framebuffer.
//
// A Store owns exactly one allocation at a time. When a display Attacher is
// configured, Allocate first tries a shared-memory segment that the display
// can read directly; any failure along the way (segment creation, mapping,
// display attach) releases the partial state and falls back to ordinary heap
// memory. The fallback is logged, never returned: only a heap failure is an
// error.
//
// Shared-memory stores register themselves with an optional Tracker so that
// the application can force-release every segment on teardown:
//
//	tr := store.NewTracker()
//	defer tr.ReleaseAll()
//
//	s, err := store.New(store.Config{Attacher: conn, Tracker: tr})
//	if err != nil {
//	    log.Fatal(err) // heap memory exhausted
//	}
//	err = s.Allocate(1024, 768, native)
package store
