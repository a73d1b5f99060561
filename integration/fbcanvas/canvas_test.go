// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package fbcanvas

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/fbimage/pixfmt"
)

// mockProvider implements gpucontext.DeviceProvider for testing.
type mockProvider struct{}

func (m *mockProvider) Device() gpucontext.Device             { return nil }
func (m *mockProvider) Queue() gpucontext.Queue               { return nil }
func (m *mockProvider) Adapter() gpucontext.Adapter           { return nil }
func (m *mockProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (m *mockProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "mock", Type: gpucontext.AdapterTypeSoftware}
}

// mockTexture implements the full-image texture interfaces.
type mockTexture struct {
	width, height int
	data          []byte
	destroyed     bool
	updated       int
}

func (m *mockTexture) Width() int  { return m.width }
func (m *mockTexture) Height() int { return m.height }

func (m *mockTexture) UpdateData(data []byte) error {
	m.data = append(m.data[:0], data...)
	m.updated++
	return nil
}

func (m *mockTexture) Destroy() { m.destroyed = true }

// regionTexture also accepts sub-rectangle uploads.
type regionTexture struct {
	mockTexture
	regions []image.Rectangle
	last    []byte
}

func (m *regionTexture) UpdateRegion(x, y, w, h int, data []byte) error {
	m.regions = append(m.regions, image.Rect(x, y, x+w, y+h))
	m.last = append(m.last[:0], data...)
	return nil
}

// mockCreator implements gpucontext.TextureCreator.
type mockCreator struct {
	textures []*mockTexture
	regions  bool
	failNext bool
	last     *regionTexture
}

func (m *mockCreator) NewTextureFromRGBA(width, height int, data []byte) (gpucontext.Texture, error) {
	if m.failNext {
		m.failNext = false
		return nil, errors.New("mock texture creation failed")
	}
	tex := mockTexture{width: width, height: height, data: append([]byte(nil), data...)}
	if m.regions {
		m.last = &regionTexture{mockTexture: tex}
		m.textures = append(m.textures, &m.last.mockTexture)
		return m.last, nil
	}
	m.textures = append(m.textures, &tex)
	return &tex, nil
}

// mockDrawer implements gpucontext.TextureDrawer.
type mockDrawer struct {
	creator *mockCreator
	drawn   gpucontext.Texture
	x, y    float32
	count   int
}

func (m *mockDrawer) DrawTexture(tex gpucontext.Texture, x, y float32) error {
	m.drawn, m.x, m.y = tex, x, y
	m.count++
	return nil
}

func (m *mockDrawer) TextureCreator() gpucontext.TextureCreator {
	if m.creator == nil {
		return nil
	}
	return m.creator
}

func solid(w, h int, v uint32) *pixfmt.Image {
	img := pixfmt.NewImage(image.Rect(0, 0, w, h), pixfmt.BGRX32)
	for y := range h {
		for x := range w {
			img.SetPixel(x, y, v)
		}
	}
	return img
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		provider gpucontext.DeviceProvider
		width    int
		height   int
		wantErr  error
	}{
		{"valid", &mockProvider{}, 800, 600, nil},
		{"nil provider", nil, 800, 600, ErrNilProvider},
		{"zero width", &mockProvider{}, 0, 600, ErrInvalidDimensions},
		{"negative height", &mockProvider{}, 800, -1, ErrInvalidDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.provider, tt.width, tt.height)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer c.Close()
			if w, h := c.Size(); w != tt.width || h != tt.height {
				t.Errorf("Size() = %dx%d", w, h)
			}
			if !c.IsDirty() {
				t.Error("new canvas should be dirty")
			}
			if c.Format() != gputypes.TextureFormatRGBA8Unorm {
				t.Errorf("Format() = %v", c.Format())
			}
			if a := c.Image().RGBAAt(0, 0).A; a != 0xff {
				t.Errorf("initial alpha = %d, want 255", a)
			}
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustNew(nil) did not panic")
		}
	}()
	MustNew(nil, 10, 10)
}

func TestPut(t *testing.T) {
	c := MustNew(&mockProvider{}, 10, 10)
	defer c.Close()
	if _, err := c.Flush(); err != nil {
		t.Fatal(err)
	}
	if c.IsDirty() {
		t.Fatal("canvas dirty after flush")
	}

	src := solid(4, 4, 0x00ff0000)
	if err := c.Put(src, image.Rect(1, 1, 4, 4), image.Pt(8, 8)); err != nil {
		t.Fatal(err)
	}
	if c.dirty != image.Rect(8, 8, 10, 10) {
		t.Errorf("dirty = %v, want (8,8)-(10,10)", c.dirty)
	}
	got := c.Image().RGBAAt(9, 9)
	if got.R != 0xff || got.G != 0 || got.B != 0 || got.A != 0xff {
		t.Errorf("pixel (9,9) = %+v, want opaque red", got)
	}
	if got := c.Image().RGBAAt(7, 7); got.R != 0 {
		t.Errorf("pixel (7,7) = %+v, want untouched", got)
	}

	if err := c.Put(src, src.Rect, image.Pt(20, 20)); err != nil {
		t.Fatal(err)
	}
	if c.dirty != image.Rect(8, 8, 10, 10) {
		t.Errorf("offscreen put changed dirty region to %v", c.dirty)
	}
}

func TestRenderTo(t *testing.T) {
	c := MustNew(&mockProvider{}, 100, 100)
	defer c.Close()

	creator := &mockCreator{}
	dc := &mockDrawer{creator: creator}
	if err := c.RenderTo(dc); err != nil {
		t.Fatalf("RenderTo() error = %v", err)
	}
	if len(creator.textures) != 1 {
		t.Fatalf("created %d textures, want 1", len(creator.textures))
	}
	if tex := creator.textures[0]; tex.width != 100 || len(tex.data) != 100*100*4 {
		t.Errorf("texture %dx? with %d bytes", tex.width, len(tex.data))
	}
	if dc.count != 1 || dc.x != 0 || dc.y != 0 {
		t.Errorf("draws = %d at (%v,%v)", dc.count, dc.x, dc.y)
	}

	// Nothing changed: no upload, same texture.
	if err := c.RenderToPosition(dc, 50, 75); err != nil {
		t.Fatal(err)
	}
	if creator.textures[0].updated != 0 || len(creator.textures) != 1 {
		t.Error("clean canvas was uploaded again")
	}
	if dc.x != 50 || dc.y != 75 {
		t.Errorf("drawn at (%v,%v), want (50,75)", dc.x, dc.y)
	}

	// A full-image texture is updated in full.
	if err := c.Put(solid(2, 2, 0xff), image.Rect(0, 0, 2, 2), image.Pt(0, 0)); err != nil {
		t.Fatal(err)
	}
	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if creator.textures[0].updated != 1 {
		t.Errorf("updated = %d, want 1", creator.textures[0].updated)
	}
}

func TestRenderTo_RegionUpload(t *testing.T) {
	c := MustNew(&mockProvider{}, 16, 16)
	defer c.Close()

	creator := &mockCreator{regions: true}
	dc := &mockDrawer{creator: creator}
	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}

	if err := c.Put(solid(3, 2, 0x0000ff00), image.Rect(0, 0, 3, 2), image.Pt(4, 5)); err != nil {
		t.Fatal(err)
	}
	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	tex := creator.last
	if len(tex.regions) != 1 || tex.regions[0] != image.Rect(4, 5, 7, 7) {
		t.Fatalf("regions = %v, want [(4,5)-(7,7)]", tex.regions)
	}
	if len(tex.last) != 3*2*4 {
		t.Fatalf("region data = %d bytes, want 24", len(tex.last))
	}
	if tex.last[1] != 0xff || tex.last[3] != 0xff {
		t.Errorf("region data starts %x, want opaque green", tex.last[:4])
	}

	c.MarkDirty()
	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if tex.updated != 1 || len(tex.regions) != 1 {
		t.Errorf("full-canvas flush: updated = %d, regions = %d", tex.updated, len(tex.regions))
	}
}

func TestRenderTo_Errors(t *testing.T) {
	c := MustNew(&mockProvider{}, 10, 10)

	if err := c.RenderTo(&mockDrawer{}); !errors.Is(err, ErrInvalidRenderer) {
		t.Errorf("no creator: error = %v, want ErrInvalidRenderer", err)
	}

	creator := &mockCreator{failNext: true}
	if err := c.RenderTo(&mockDrawer{creator: creator}); err == nil {
		t.Error("creation failure not reported")
	}

	_ = c.Close()
	if err := c.RenderTo(&mockDrawer{creator: creator}); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("closed: error = %v, want ErrCanvasClosed", err)
	}
	if err := c.Put(solid(1, 1, 0), image.Rect(0, 0, 1, 1), image.Point{}); !errors.Is(err, ErrCanvasClosed) {
		t.Errorf("Put after close: error = %v", err)
	}
}

func TestResize(t *testing.T) {
	c := MustNew(&mockProvider{}, 10, 10)
	creator := &mockCreator{}
	dc := &mockDrawer{creator: creator}
	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}

	if err := c.Resize(10, 10); err != nil {
		t.Fatal(err)
	}
	if c.sizeChanged {
		t.Error("same-size resize marked size change")
	}
	if err := c.Resize(0, 5); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Resize(0,5) error = %v", err)
	}

	if err := c.Resize(20, 15); err != nil {
		t.Fatal(err)
	}
	if w, h := c.Size(); w != 20 || h != 15 {
		t.Errorf("Size() = %dx%d", w, h)
	}
	if err := c.RenderTo(dc); err != nil {
		t.Fatal(err)
	}
	if len(creator.textures) != 2 {
		t.Fatalf("created %d textures, want 2", len(creator.textures))
	}
	if !creator.textures[0].destroyed {
		t.Error("old texture not destroyed after replacement")
	}
	if creator.textures[1].width != 20 || creator.textures[1].height != 15 {
		t.Errorf("new texture %dx%d", creator.textures[1].width, creator.textures[1].height)
	}

	_ = c.Close()
	if !creator.textures[1].destroyed {
		t.Error("Close did not destroy the texture")
	}
	if c.Provider() != nil {
		t.Error("Provider() after Close should be nil")
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestPackRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	got := packRGBA(nil, img, image.Rect(1, 2, 3, 4))
	want := []byte{
		36, 37, 38, 39, 40, 41, 42, 43,
		52, 53, 54, 55, 56, 57, 58, 59,
	}
	if string(got) != string(want) {
		t.Errorf("packRGBA = %v, want %v", got, want)
	}
}
