// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package x11 connects a framebuffer to an X server.
//
// A Conn is the display collaborator of fbimage.Buffer: it describes the
// root visual, allocates colour cube entries in the default colour map and
// attaches System V shared-memory segments through MIT-SHM. A Window is a
// presentation target, and RenderScaler scales with the RENDER extension.
//
// # Usage
//
//	conn, err := x11.Dial("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	win, err := conn.CreateWindow("viewer", 800, 600)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	buf, err := fbimage.New(conn, fbimage.WithTarget(win))
//	...
//	win.SetSource(buf.Store()) // put shared stores with shm.PutImage
//
// All requests are issued through github.com/jezek/xgb.
package x11
