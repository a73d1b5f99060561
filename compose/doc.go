// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package compose presents framebuffer regions onto a target surface whose
// size may differ from the framebuffer.
//
// When the target and the framebuffer have the same size, Present copies the
// region straight to the target. Otherwise the region is copied into a
// source staging surface, resampled by a Scaler into a destination staging
// surface of the scaled size, and that surface is handed to the target at the
// scaled position. Staging surfaces come from a pool and are returned on
// every exit path.
//
//	c := compose.New(target, compose.Software{Filter: compose.FilterCatmullRom})
//	c.OnResize(fbWidth, fbHeight)
//	err := c.Present(fb, damaged)
package compose
