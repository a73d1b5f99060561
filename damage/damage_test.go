package damage

import (
	"image"
	"testing"
	"time"
)

func TestAccumulator_FirstRectSetsBound(t *testing.T) {
	var a Accumulator
	if a.Pending() {
		t.Fatal("zero Accumulator should not be pending")
	}
	a.AddRect(3, 4, 5, 6)
	if !a.Pending() {
		t.Fatal("Pending() = false after AddRect")
	}
	if got, want := a.Bound(), image.Rect(3, 4, 8, 10); got != want {
		t.Errorf("Bound() = %v, want %v", got, want)
	}
}

func TestAccumulator_Union(t *testing.T) {
	var a Accumulator
	a.AddRect(0, 0, 10, 10)
	a.AddRect(5, 5, 10, 10)
	if got, want := a.Bound(), image.Rect(0, 0, 15, 15); got != want {
		t.Errorf("Bound() = %v, want %v", got, want)
	}
}

func TestAccumulator_Commutative(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 1, 1),
		image.Rect(50, 2, 60, 80),
		image.Rect(-5, 30, 2, 31),
		image.Rect(10, 10, 20, 20),
	}
	for i := range rects {
		for j := range rects {
			if i == j {
				continue
			}
			var ab, ba Accumulator
			ab.Add(rects[i])
			ab.Add(rects[j])
			ba.Add(rects[j])
			ba.Add(rects[i])

			want := rects[i].Union(rects[j])
			if ab.Bound() != want || ba.Bound() != want {
				t.Errorf("union of %v and %v: got %v / %v, want %v",
					rects[i], rects[j], ab.Bound(), ba.Bound(), want)
			}
		}
	}
}

func TestAccumulator_IgnoresDegenerate(t *testing.T) {
	var a Accumulator
	a.AddRect(5, 5, 0, 10)
	a.AddRect(5, 5, 10, 0)
	a.AddRect(5, 5, -3, 4)
	a.Add(image.Rectangle{})
	if a.Pending() {
		t.Fatal("degenerate rectangles made the accumulator pending")
	}

	a.AddRect(1, 1, 2, 2)
	a.AddRect(100, 100, 0, 0)
	if got, want := a.Bound(), image.Rect(1, 1, 3, 3); got != want {
		t.Errorf("Bound() = %v, want %v", got, want)
	}
}

func TestAccumulator_NeverShrinks(t *testing.T) {
	var a Accumulator
	a.AddRect(0, 0, 100, 100)
	a.AddRect(10, 10, 5, 5)
	if got, want := a.Bound(), image.Rect(0, 0, 100, 100); got != want {
		t.Errorf("Bound() = %v, want %v", got, want)
	}
}

func TestTakeExtended(t *testing.T) {
	tests := []struct {
		name   string
		rects  []image.Rectangle
		margin int
		w, h   int
		want   image.Rectangle
	}{
		{"interior", []image.Rectangle{image.Rect(10, 10, 20, 20)}, 4, 100, 100, image.Rect(6, 6, 24, 24)},
		{"top-left clamp", []image.Rectangle{image.Rect(0, 0, 1, 1)}, 4, 100, 100, image.Rect(0, 0, 5, 5)},
		{"bottom-right clamp", []image.Rectangle{image.Rect(95, 97, 100, 100)}, 4, 100, 100, image.Rect(91, 93, 100, 100)},
		{"whole buffer", []image.Rectangle{image.Rect(0, 0, 50, 40)}, 8, 50, 40, image.Rect(0, 0, 50, 40)},
		{"zero margin", []image.Rectangle{image.Rect(1, 2, 3, 4)}, 0, 10, 10, image.Rect(1, 2, 3, 4)},
		{"outside buffer", []image.Rectangle{image.Rect(200, 200, 210, 210)}, 2, 100, 100, image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Accumulator
			for _, r := range tt.rects {
				a.Add(r)
			}
			got := a.TakeExtended(tt.margin, tt.w, tt.h)
			if got != tt.want && !(got.Empty() && tt.want.Empty()) {
				t.Errorf("TakeExtended() = %v, want %v", got, tt.want)
			}
			if !got.Empty() && (got.Min.X < 0 || got.Min.Y < 0 || got.Max.X > tt.w || got.Max.Y > tt.h) {
				t.Errorf("TakeExtended() = %v escapes %dx%d", got, tt.w, tt.h)
			}
			if a.Pending() {
				t.Error("TakeExtended did not reset the accumulator")
			}
		})
	}
}

func TestTakeExtended_Empty(t *testing.T) {
	var a Accumulator
	if got := a.TakeExtended(4, 10, 10); !got.Empty() {
		t.Errorf("TakeExtended() on empty accumulator = %v", got)
	}
}

func TestTakeExtended_ResetsBetweenFlushes(t *testing.T) {
	var a Accumulator
	a.AddRect(0, 0, 50, 50)
	_ = a.TakeExtended(0, 100, 100)
	a.AddRect(60, 60, 5, 5)
	if got, want := a.TakeExtended(0, 100, 100), image.Rect(60, 60, 65, 65); got != want {
		t.Errorf("second flush = %v, want %v", got, want)
	}
}

func TestPolicy_ShouldFlush(t *testing.T) {
	p := DefaultPolicy()
	if p.ShouldFlush(0) {
		t.Error("ShouldFlush(0) = true")
	}
	if p.ShouldFlush(DefaultWindow - time.Millisecond) {
		t.Error("ShouldFlush just below window = true")
	}
	if !p.ShouldFlush(DefaultWindow) {
		t.Error("ShouldFlush at window = false")
	}
	if !(Policy{}).ShouldFlush(0) {
		t.Error("zero window should always flush")
	}
	if p.Margin != DefaultMargin {
		t.Errorf("DefaultPolicy().Margin = %d", p.Margin)
	}
}
