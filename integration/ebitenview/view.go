// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package ebitenview presents a framebuffer in an ebiten window.
//
// View is both an ebiten.Game and a compose.Target. The window's logical
// size follows the outside size, so the compositor scales the framebuffer
// to whatever the user resizes the window to.
package ebitenview

import (
	"errors"
	"image"
	"image/draw"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/fbimage/internal/logging"
	"github.com/gogpu/fbimage/pixfmt"
)

// ErrClosed is returned by Update once Close has been called, which ends
// ebiten.RunGame.
var ErrClosed = errors.New("ebitenview: closed")

// View is an ebiten window showing the last presented pixels.
//
// Put may be called from any goroutine. The ebiten.Game methods run on
// ebiten's goroutine.
type View struct {
	mu     sync.Mutex
	rgba   *image.RGBA
	dirty  bool
	closed bool

	offscreen *ebiten.Image

	// step runs once per tick before drawing.
	step func() error
	// onResize is called from Update after the window size changed.
	onResize func(width, height int)
	resized  bool
}

// New creates a view with an initial size.
func New(width, height int) *View {
	return &View{rgba: blank(width, height), dirty: true}
}

func blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(1, w), max(1, h)))
	draw.Draw(img, img.Rect, image.Black, image.Point{}, draw.Src)
	return img
}

// OnStep sets a function called on every tick. An error ends the game.
func (v *View) OnStep(fn func() error) { v.step = fn }

// OnResize sets a function called after the window has been resized.
func (v *View) OnResize(fn func(width, height int)) { v.onResize = fn }

// Run opens the window and blocks until it closes.
func (v *View) Run(title string) error {
	w, h := v.Size()
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err := ebiten.RunGame(v)
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// Close makes the next Update end the game.
func (v *View) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
}

// Size implements compose.Target.
func (v *View) Size() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rgba.Rect.Dx(), v.rgba.Rect.Dy()
}

// Put implements compose.Target.
func (v *View) Put(src *pixfmt.Image, sr image.Rectangle, dp image.Point) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	sr = sr.Intersect(src.Rect)
	dr := sr.Sub(sr.Min).Add(dp).Intersect(v.rgba.Rect)
	if dr.Empty() {
		return nil
	}
	xdraw.Copy(v.rgba, dr.Min, src, dr.Sub(dp).Add(sr.Min), xdraw.Src, nil)
	v.dirty = true
	return nil
}

// Update implements ebiten.Game.
func (v *View) Update() error {
	v.mu.Lock()
	closed, resized := v.closed, v.resized
	v.resized = false
	w, h := v.rgba.Rect.Dx(), v.rgba.Rect.Dy()
	v.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if resized && v.onResize != nil {
		v.onResize(w, h)
	}
	if v.step != nil {
		return v.step()
	}
	return nil
}

// Draw implements ebiten.Game.
func (v *View) Draw(screen *ebiten.Image) {
	v.mu.Lock()
	b := v.rgba.Rect
	if v.offscreen == nil || v.offscreen.Bounds().Size() != b.Size() {
		if v.offscreen != nil {
			v.offscreen.Deallocate()
		}
		v.offscreen = ebiten.NewImage(b.Dx(), b.Dy())
		v.dirty = true
	}
	if v.dirty {
		v.offscreen.WritePixels(v.rgba.Pix)
		v.dirty = false
	}
	v.mu.Unlock()
	screen.DrawImage(v.offscreen, nil)
}

// Layout implements ebiten.Game. The staging image follows the outside
// size; the old content is kept where it overlaps until the next present.
func (v *View) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := max(1, outsideWidth), max(1, outsideHeight)
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rgba.Rect.Dx() != w || v.rgba.Rect.Dy() != h {
		old := v.rgba
		v.rgba = blank(w, h)
		draw.Draw(v.rgba, old.Rect, old, image.Point{}, draw.Src)
		v.dirty = true
		v.resized = true
		logging.Logger().Debug("ebitenview: resized", "width", w, "height", h)
	}
	return w, h
}
