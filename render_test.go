package facade

import (
	"image"
	"image/color"
	"testing"
)

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

// --- DrawList ---

func TestDrawListOrder(t *testing.T) {
	s := newTestScene(t)
	a := addTo(t, s, "a.png", 10, 10)
	b := addTo(t, s, "b.png", 10, 10)
	s.Reorder(b, Backward)

	cmds := s.DrawList()
	if len(cmds) != 3 {
		t.Fatalf("commands = %d, want 3", len(cmds))
	}
	if cmds[0].ID != BackgroundID || cmds[1].ID != b || cmds[2].ID != a {
		t.Errorf("order = %s %s %s", cmds[0].ID, cmds[1].ID, cmds[2].ID)
	}
	assertMatrix(t, "background", cmds[0].Matrix, identityTransform)
	assertMatrix(t, "overlay", cmds[2].Matrix, [6]float64{1, 0, 0, 1, 445, 295})
}

func TestDrawListEmptyWithoutBackground(t *testing.T) {
	if cmds := NewScene().DrawList(); len(cmds) != 0 {
		t.Errorf("commands = %d, want 0", len(cmds))
	}
}

// --- Render ---

func TestRenderWithoutBackground(t *testing.T) {
	img := NewScene().Render()
	if b := img.Bounds(); b.Dx() != 0 || b.Dy() != 0 {
		t.Errorf("bounds = %v, want empty", b)
	}
}

func TestRenderComposesLayers(t *testing.T) {
	s := NewScene()
	if err := s.LoadBackground(solidImage("bg.png", 12, 12, red)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddOverlay(solidImage("o.png", 4, 4, blue), ""); err != nil {
		t.Fatal(err)
	}

	img := s.Render()
	if b := img.Bounds(); b.Dx() != 12 || b.Dy() != 12 {
		t.Fatalf("bounds = %v, want 12x12", b)
	}
	// Overlay is centered at (6, 6) and covers [4, 8).
	for _, p := range []image.Point{{5, 5}, {6, 6}} {
		if got := rgbaAt(img, p.X, p.Y); got != blue {
			t.Errorf("pixel %v = %v, want blue", p, got)
		}
	}
	for _, p := range []image.Point{{0, 0}, {11, 11}, {2, 6}} {
		if got := rgbaAt(img, p.X, p.Y); got != red {
			t.Errorf("pixel %v = %v, want red", p, got)
		}
	}
}

func TestRenderHonoursStacking(t *testing.T) {
	s := NewScene()
	s.LoadBackground(solidImage("bg.png", 12, 12, red))
	green := color.RGBA{G: 255, A: 255}
	bottom, _ := s.AddOverlay(solidImage("blue.png", 4, 4, blue), "")
	s.AddOverlay(solidImage("green.png", 4, 4, green), "")

	if got := rgbaAt(s.Render(), 6, 6); got != green {
		t.Errorf("center = %v, want green on top", got)
	}
	s.Reorder(bottom, Forward)
	if got := rgbaAt(s.Render(), 6, 6); got != blue {
		t.Errorf("center = %v, want blue after reorder", got)
	}
}

func TestRenderOffsetSourceBounds(t *testing.T) {
	s := NewScene()
	s.LoadBackground(solidImage("bg.png", 12, 12, red))
	full := solidImage("sheet.png", 8, 8, blue).Pixels.(*image.RGBA)
	sub := full.SubImage(image.Rect(4, 4, 8, 8))
	if _, err := s.AddOverlay(Image{Ref: "sheet.png#sub", Pixels: sub}, ""); err != nil {
		t.Fatal(err)
	}
	img := s.Render()
	if got := rgbaAt(img, 5, 5); got != blue {
		t.Errorf("pixel (5,5) = %v, want blue", got)
	}
	if got := rgbaAt(img, 9, 9); got != red {
		t.Errorf("pixel (9,9) = %v, want red", got)
	}
}

func TestRenderDoesNotMutate(t *testing.T) {
	e := newTestEditor(t)
	mustAdd(t, e, "gate.png", 100, 100)
	e.Controller().RotateRight()
	before := mustState(t, e)
	depth := e.History().Depth()

	e.Render()
	if mustState(t, e) != before || e.History().Depth() != depth {
		t.Error("Render changed the scene")
	}
}
