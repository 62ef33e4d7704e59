package geometry

import "testing"

func TestFromCorners(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		want           Rect
	}{
		{"top-left to bottom-right", 50, 50, 150, 120, Rect{50, 50, 100, 70}},
		{"bottom-right to top-left", 150, 120, 50, 50, Rect{50, 50, 100, 70}},
		{"bottom-left to top-right", 50, 120, 150, 50, Rect{50, 50, 100, 70}},
		{"degenerate point", 80, 80, 80, 80, Rect{80, 80, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromCorners(tt.x0, tt.y0, tt.x1, tt.y1)
			if got != tt.want {
				t.Errorf("FromCorners() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	b := Bounds{Width: 640, Height: 480}

	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"already inside", Rect{10, 10, 100, 100}, Rect{10, 10, 100, 100}},
		{"negative origin", Rect{-20, -30, 100, 100}, Rect{0, 0, 100, 100}},
		{"overflows right and bottom", Rect{600, 450, 100, 100}, Rect{540, 380, 100, 100}},
		{"wider than bounds", Rect{0, 0, 1000, 100}, Rect{0, 0, 640, 100}},
		{"taller than bounds", Rect{0, 0, 100, 1000}, Rect{0, 0, 100, 480}},
		{"negative size", Rect{10, 10, -5, -5}, Rect{10, 10, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.in, b)
			if got != tt.want {
				t.Errorf("Clamp() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestClampContainmentAndIdempotence(t *testing.T) {
	b := Bounds{Width: 320, Height: 240}
	coords := []float64{-400, -31, 0, 17, 120, 239, 320, 900}
	sizes := []float64{-10, 0, 1, 64, 240, 500}

	for _, x := range coords {
		for _, y := range coords {
			for _, w := range sizes {
				for _, h := range sizes {
					r := Clamp(Rect{X: x, Y: y, Width: w, Height: h}, b)
					if r.X < 0 || r.Y < 0 || r.X+r.Width > b.Width || r.Y+r.Height > b.Height {
						t.Fatalf("Clamp(%v) = %+v escapes bounds %+v", Rect{x, y, w, h}, r, b)
					}
					if r.Width < 0 || r.Height < 0 {
						t.Fatalf("Clamp(%v) = %+v has negative size", Rect{x, y, w, h}, r)
					}
					if again := Clamp(r, b); again != r {
						t.Fatalf("Clamp not idempotent: %+v then %+v", r, again)
					}
				}
			}
		}
	}
}

func TestTranslate(t *testing.T) {
	b := Bounds{Width: 640, Height: 480}
	r := Rect{X: 100, Y: 100, Width: 50, Height: 50}

	t.Run("moves freely inside bounds", func(t *testing.T) {
		got := Translate(r, 20, -30, b)
		want := Rect{120, 70, 50, 50}
		if got != want {
			t.Errorf("Translate() = %+v, want %+v", got, want)
		}
	})

	t.Run("stops at the edges without resizing", func(t *testing.T) {
		got := Translate(r, 10000, 10000, b)
		want := Rect{590, 430, 50, 50}
		if got != want {
			t.Errorf("Translate() = %+v, want %+v", got, want)
		}
	})
}

func TestResize(t *testing.T) {
	b := Bounds{Width: 640, Height: 480}
	r := Rect{X: 100, Y: 100, Width: 80, Height: 60}

	t.Run("grows from the bottom-right anchor", func(t *testing.T) {
		got := Resize(r, 20, 10, b, 30)
		want := Rect{100, 100, 100, 70}
		if got != want {
			t.Errorf("Resize() = %+v, want %+v", got, want)
		}
	})

	t.Run("never shrinks below the minimum edge", func(t *testing.T) {
		got := Resize(r, -10000, -10000, b, 30)
		want := Rect{100, 100, 30, 30}
		if got != want {
			t.Errorf("Resize() = %+v, want %+v", got, want)
		}
	})

	t.Run("never grows past the bounds", func(t *testing.T) {
		got := Resize(r, 10000, 10000, b, 30)
		want := Rect{100, 100, 540, 380}
		if got != want {
			t.Errorf("Resize() = %+v, want %+v", got, want)
		}
	})
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 20}
	if !r.Contains(10, 10) || !r.Contains(30, 30) || !r.Contains(15, 25) {
		t.Error("expected edge and interior points to be contained")
	}
	if r.Contains(9, 15) || r.Contains(15, 31) {
		t.Error("expected outside points not to be contained")
	}
}
