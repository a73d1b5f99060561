package convert

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/fbimage/palette"
	"github.com/gogpu/fbimage/pixfmt"
)

// indexMapper hands out pixel = lattice index + 16.
type indexMapper struct{}

func (indexMapper) AllocColours(want []palette.RGB) ([]uint32, error) {
	out := make([]uint32, len(want))
	for i := range out {
		out[i] = uint32(i + 16)
	}
	return out, nil
}

func TestNew_Kinds(t *testing.T) {
	cube, err := palette.BuildCube(indexMapper{}, 6, 6, 6)
	if err != nil {
		t.Fatal(err)
	}
	indexed16 := pixfmt.PixelFormat{BitsPerPixel: 16, Depth: 8}

	tests := []struct {
		name     string
		src, dst pixfmt.PixelFormat
		cube     *palette.Cube
		want     kind
		wantErr  error
	}{
		{"identical", pixfmt.BGRX32, pixfmt.BGRX32, nil, kindCopy, nil},
		{"identical colour map", pixfmt.Indexed8, pixfmt.Indexed8, nil, kindCopy, nil},
		{"true to true", pixfmt.RGB565, pixfmt.BGRX32, nil, kindTrueToTrue, nil},
		{"true to cube", pixfmt.BGRX32, pixfmt.Indexed8, cube, kindTrueToCube, nil},
		{"true to map without cube", pixfmt.BGRX32, pixfmt.Indexed8, nil, 0, ErrNoCube},
		{"map to true", pixfmt.Indexed8, pixfmt.BGRX32, nil, kindMapToTrue, nil},
		{"map to map", indexed16, pixfmt.Indexed8, cube, 0, ErrUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.src, tt.dst, nil, tt.cube)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if tr.kind != tt.want {
				t.Errorf("kind = %d, want %d", tr.kind, tt.want)
			}
			if tr.Source() != tt.src || tr.Destination() != tt.dst {
				t.Error("Source/Destination mismatch")
			}
		})
	}
}

func TestPixel_TrueToTrue(t *testing.T) {
	tr, err := New(pixfmt.RGB565, pixfmt.BGRX32, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		in, want uint32
	}{
		{0xffff, 0xffffff},
		{0x0000, 0x000000},
		{0xf800, 0xff0000},
		{0x07e0, 0x00ff00},
		{0x001f, 0x0000ff},
		// 16/31 of red rounds to 132, 32/63 of green to 130.
		{16<<11 | 32<<5, 132<<16 | 130<<8},
	}
	for _, tt := range tests {
		if got := tr.Pixel(tt.in); got != tt.want {
			t.Errorf("Pixel(%#x) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
}

func TestPixel_Downscale(t *testing.T) {
	tr, err := New(pixfmt.BGRX32, pixfmt.BGR233, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Pixel(0xffffff); got != 0xff {
		t.Errorf("white = %#x, want 0xff", got)
	}
	if got := tr.Pixel(0x0000ff); got != 3<<6 {
		t.Errorf("blue = %#x, want %#x", got, 3<<6)
	}
}

func TestPixel_TrueToCube(t *testing.T) {
	cube, err := palette.BuildCube(indexMapper{}, 6, 6, 6)
	if err != nil {
		t.Fatal(err)
	}
	tr, err := New(pixfmt.BGRX32, pixfmt.Indexed8, nil, cube)
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Pixel(0x000000); got != 16 {
		t.Errorf("black = %d, want 16", got)
	}
	if got := tr.Pixel(0xffffff); got != 16+215 {
		t.Errorf("white = %d, want %d", got, 16+215)
	}
	if got, want := tr.Pixel(0xff0000), cube.At(5, 0, 0); got != want {
		t.Errorf("red = %d, want %d", got, want)
	}
	// 0x80 is nearest to level 3 of 6 (255*3/5 = 153 vs 102).
	if got, want := tr.Pixel(0x008000), cube.At(0, 3, 0); got != want {
		t.Errorf("half green = %d, want %d", got, want)
	}
}

func TestPixel_MapToTrue(t *testing.T) {
	var tab palette.Table
	tab.Set(5, 1, []uint16{0xffff, 0x8080, 0})
	tr, err := New(pixfmt.Indexed8, pixfmt.BGRX32, &tab, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Pixel(5); got != 0xff8000 {
		t.Errorf("Pixel(5) = %#x, want 0xff8000", got)
	}

	tab.Set(5, 1, []uint16{0, 0, 0xffff})
	if got := tr.Pixel(5); got != 0xff8000 {
		t.Error("cache should not change before SetColourMap")
	}
	tr.SetColourMap(&tab)
	if got := tr.Pixel(5); got != 0x0000ff {
		t.Errorf("Pixel(5) after SetColourMap = %#x, want 0xff", got)
	}
}

func TestTranslate_Rect(t *testing.T) {
	tr, err := New(pixfmt.RGB565, pixfmt.BGRX32, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	src := pixfmt.NewImage(image.Rect(0, 0, 4, 4), pixfmt.RGB565)
	dst := pixfmt.NewImage(image.Rect(0, 0, 4, 4), pixfmt.BGRX32)
	for y := range 4 {
		for x := range 4 {
			src.SetPixel(x, y, 0xffff)
		}
	}

	tr.Translate(dst, src, image.Rect(1, 1, 3, 10))
	for y := range 4 {
		for x := range 4 {
			want := uint32(0)
			if x >= 1 && x < 3 && y >= 1 {
				want = 0xffffff
			}
			if got := dst.PixelAt(x, y); got != want {
				t.Errorf("dst(%d,%d) = %#x, want %#x", x, y, got, want)
			}
		}
	}
}

func TestTranslate_Copy(t *testing.T) {
	tr, err := New(pixfmt.BGRX32, pixfmt.BGRX32, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	src := pixfmt.NewImage(image.Rect(0, 0, 2, 2), pixfmt.BGRX32)
	dst := pixfmt.NewImage(image.Rect(0, 0, 2, 2), pixfmt.BGRX32)
	src.SetPixel(1, 1, 0xdeadbe)
	tr.Translate(dst, src, dst.Rect)
	if got := dst.PixelAt(1, 1); got != 0xdeadbe {
		t.Errorf("copy = %#x", got)
	}
}

func TestTranslate_Empty(t *testing.T) {
	tr, err := New(pixfmt.RGB565, pixfmt.BGRX32, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	src := pixfmt.NewImage(image.Rect(0, 0, 2, 2), pixfmt.RGB565)
	dst := pixfmt.NewImage(image.Rect(0, 0, 2, 2), pixfmt.BGRX32)
	tr.Translate(dst, src, image.Rect(5, 5, 6, 6))
	for _, b := range dst.Pix {
		if b != 0 {
			t.Fatal("translate outside bounds wrote pixels")
		}
	}
}
