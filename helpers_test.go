package facade

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want [6]float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

// solidImage returns a w x h image filled with c.
func solidImage(ref string, w, h int, c color.Color) Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return Image{Ref: ref, Pixels: img}
}

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// sequentialIDs returns a generator producing o1, o2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("o%d", n)
	}
}

// mapLoader serves images from an in-memory table.
func mapLoader(images ...Image) Loader {
	m := make(map[string]Image, len(images))
	for _, img := range images {
		m[img.Ref] = img
	}
	return LoaderFunc(func(ctx context.Context, ref string) (Image, error) {
		if err := ctx.Err(); err != nil {
			return Image{}, err
		}
		img, ok := m[ref]
		if !ok {
			return Image{}, fmt.Errorf("%w: %s not found", ErrInvalidImage, ref)
		}
		return img, nil
	})
}

// newTestEditor returns an editor with a 900x600 background loaded and
// deterministic overlay ids.
func newTestEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	opts = append([]Option{WithIDGenerator(sequentialIDs()), WithDebug(true)}, opts...)
	e := NewEditor(opts...)
	if err := e.LoadBackground(solidImage("house.jpg", 900, 600, red)); err != nil {
		t.Fatalf("LoadBackground: %v", err)
	}
	return e
}

func mustAdd(t *testing.T, e *Editor, ref string, w, h int) string {
	t.Helper()
	id, err := e.AddOverlay(solidImage(ref, w, h, blue), "")
	if err != nil {
		t.Fatalf("AddOverlay(%s): %v", ref, err)
	}
	return id
}

func mustState(t *testing.T, e *Editor) Snapshot {
	t.Helper()
	snap, err := e.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return snap
}

func ptr[T any](v T) *T { return &v }
