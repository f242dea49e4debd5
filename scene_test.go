package facade

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"
)

func newTestScene(t *testing.T) *Scene {
	t.Helper()
	s := NewScene()
	s.SetIDGenerator(sequentialIDs())
	s.SetDebugMode(true)
	if err := s.LoadBackground(solidImage("house.jpg", 900, 600, red)); err != nil {
		t.Fatalf("LoadBackground: %v", err)
	}
	return s
}

func addTo(t *testing.T, s *Scene, ref string, w, h int) string {
	t.Helper()
	id, err := s.AddOverlay(solidImage(ref, w, h, blue), "")
	if err != nil {
		t.Fatalf("AddOverlay(%s): %v", ref, err)
	}
	return id
}

func assertDenseZ(t *testing.T, s *Scene) {
	t.Helper()
	for i, o := range s.Overlays() {
		if o.Z != i {
			t.Fatalf("overlay %s at index %d has Z %d", o.ID, i, o.Z)
		}
	}
}

// --- LoadBackground ---

func TestLoadBackgroundRejectsDegenerateImages(t *testing.T) {
	tests := []struct {
		name string
		img  Image
	}{
		{"no pixels", Image{Ref: "a.png"}},
		{"zero width", solidImage("a.png", 0, 10, red)},
		{"zero height", solidImage("a.png", 10, 0, red)},
		{"empty ref", solidImage("", 10, 10, red)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScene(t)
			addTo(t, s, "gate.png", 100, 100)
			before := s.State()

			err := s.LoadBackground(tt.img)
			if !errors.Is(err, ErrInvalidImage) {
				t.Fatalf("err = %v, want ErrInvalidImage", err)
			}
			if s.Len() != 1 {
				t.Errorf("Len = %d, want 1 (scene must be unchanged)", s.Len())
			}
			if bg, _ := s.Background(); bg.Ref != before.Background.Ref {
				t.Errorf("background = %q, want %q", bg.Ref, before.Background.Ref)
			}
		})
	}
}

func TestLoadBackgroundClearsOverlaysAndSelection(t *testing.T) {
	s := newTestScene(t)
	addTo(t, s, "gate.png", 100, 100)
	addTo(t, s, "shutter.png", 100, 100)

	if err := s.LoadBackground(solidImage("villa.jpg", 400, 300, red)); err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
	if _, ok := s.Selection(); ok {
		t.Error("selection should be cleared")
	}
	if w, h := s.Size(); w != 400 || h != 300 {
		t.Errorf("Size = %vx%v, want 400x300", w, h)
	}
	if _, ok := s.Image("gate.png"); ok {
		t.Error("overlay images of the previous scene should be dropped")
	}
	id := addTo(t, s, "gate.png", 10, 10)
	if o, _ := s.Overlay(id); o.Z != 0 {
		t.Errorf("first overlay after reload has Z %d, want 0", o.Z)
	}
}

// --- AddOverlay ---

func TestAddOverlayWithoutBackground(t *testing.T) {
	s := NewScene()
	_, err := s.AddOverlay(solidImage("gate.png", 10, 10, blue), "")
	if !errors.Is(err, ErrNoBackground) {
		t.Fatalf("err = %v, want ErrNoBackground", err)
	}
}

func TestAddOverlayPlacement(t *testing.T) {
	tests := []struct {
		name      string
		w, h      int
		wantScale float64
	}{
		{"small keeps natural size", 200, 100, 1},
		{"just under one third", 299, 100, 1},
		{"wide is shrunk to one third", 600, 300, 0.5},
		{"tall but narrow", 100, 900, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScene(t)
			id := addTo(t, s, "gate.png", tt.w, tt.h)
			o, ok := s.Overlay(id)
			if !ok {
				t.Fatal("overlay not found")
			}
			assertNear(t, "ScaleX", o.ScaleX, tt.wantScale)
			assertNear(t, "ScaleY", o.ScaleY, tt.wantScale)
			assertNear(t, "X", o.X, 450)
			assertNear(t, "Y", o.Y, 300)
			if sel, _ := s.Selection(); sel != id {
				t.Errorf("selection = %q, want %q", sel, id)
			}
			if o.Name != "gate" {
				t.Errorf("Name = %q, want derived %q", o.Name, "gate")
			}
		})
	}
}

func TestAddOverlayAssignsNextZ(t *testing.T) {
	s := newTestScene(t)
	for i := 0; i < 5; i++ {
		id := addTo(t, s, "gate.png", 10, 10)
		if o, _ := s.Overlay(id); o.Z != i {
			t.Errorf("overlay %d Z = %d", i, o.Z)
		}
	}
}

func TestAddOverlaySkipsCollidingIDs(t *testing.T) {
	s := newTestScene(t)
	s.SetIDGenerator(func() func() string {
		ids := []string{"a", "a", BackgroundID, "", "b"}
		return func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		}
	}())
	first := addTo(t, s, "gate.png", 10, 10)
	second := addTo(t, s, "gate.png", 10, 10)
	if first != "a" || second != "b" {
		t.Errorf("ids = %q, %q; want a, b", first, second)
	}
}

// --- RemoveOverlay ---

func TestRemoveOverlayCompactsZ(t *testing.T) {
	s := newTestScene(t)
	a := addTo(t, s, "a.png", 10, 10)
	b := addTo(t, s, "b.png", 10, 10)
	c := addTo(t, s, "c.png", 10, 10)

	if !s.RemoveOverlay(b) {
		t.Fatal("RemoveOverlay returned false")
	}
	assertDenseZ(t, s)
	got := s.Overlays()
	if len(got) != 2 || got[0].ID != a || got[1].ID != c {
		t.Errorf("overlays = %v, want [%s %s]", got, a, c)
	}
}

func TestRemoveOverlaySelection(t *testing.T) {
	s := newTestScene(t)
	a := addTo(t, s, "a.png", 10, 10)
	b := addTo(t, s, "b.png", 10, 10)

	// b is selected after add; removing a leaves it alone.
	s.RemoveOverlay(a)
	if sel, _ := s.Selection(); sel != b {
		t.Errorf("selection = %q, want %q", sel, b)
	}
	s.RemoveOverlay(b)
	if _, ok := s.Selection(); ok {
		t.Error("removing the selected overlay should clear the selection")
	}
}

func TestRemoveOverlayUnknownIsNoop(t *testing.T) {
	s := newTestScene(t)
	addTo(t, s, "a.png", 10, 10)
	fired := 0
	s.OnMutation(func(MutationEvent) { fired++ })

	for _, id := range []string{"missing", "", BackgroundID} {
		if s.RemoveOverlay(id) {
			t.Errorf("RemoveOverlay(%q) = true", id)
		}
	}
	if fired != 0 {
		t.Errorf("fired %d events for no-op removes", fired)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

// --- Selection ---

func TestSetSelectionDoesNotFire(t *testing.T) {
	s := newTestScene(t)
	a := addTo(t, s, "a.png", 10, 10)
	addTo(t, s, "b.png", 10, 10)
	fired := 0
	s.OnMutation(func(MutationEvent) { fired++ })

	s.SetSelection(a)
	if sel, _ := s.Selection(); sel != a {
		t.Errorf("selection = %q, want %q", sel, a)
	}
	s.SetSelection(BackgroundID)
	if _, ok := s.Selection(); ok {
		t.Error("selecting the background should clear the selection")
	}
	s.SetSelection(a)
	s.SetSelection("missing")
	if _, ok := s.Selection(); ok {
		t.Error("selecting an unknown id should clear the selection")
	}
	s.ClearSelection()
	if fired != 0 {
		t.Errorf("selection changes fired %d mutation events", fired)
	}
}

// --- TransformOverlay ---

func TestTransformOverlayRotationWraps(t *testing.T) {
	s := newTestScene(t)
	id := addTo(t, s, "a.png", 10, 10)

	s.TransformOverlay(id, Transform{RotationDelta: ptr(350.0)})
	s.TransformOverlay(id, Transform{RotationDelta: ptr(15.0)})
	o, _ := s.Overlay(id)
	assertNear(t, "Rotation", o.Rotation, 5)

	s.TransformOverlay(id, Transform{RotationDelta: ptr(-20.0)})
	o, _ = s.Overlay(id)
	assertNear(t, "Rotation", o.Rotation, 345)
}

func TestTransformOverlayRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		id   string
		tr   Transform
	}{
		{"empty", "o1", Transform{}},
		{"unknown id", "missing", Transform{Position: &Vec2{1, 1}}},
		{"background", BackgroundID, Transform{Position: &Vec2{1, 1}}},
		{"NaN position", "o1", Transform{Position: &Vec2{math.NaN(), 1}}},
		{"Inf rotation", "o1", Transform{RotationDelta: ptr(math.Inf(1))}},
		{"zero scale", "o1", Transform{Scale: &Vec2{0, 1}}},
		{"negative scale", "o1", Transform{Scale: &Vec2{1, -1}}},
		{"valid position, bad scale", "o1", Transform{Position: &Vec2{5, 5}, Scale: &Vec2{1, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScene(t)
			addTo(t, s, "a.png", 10, 10)
			before := s.State()
			fired := 0
			s.OnMutation(func(MutationEvent) { fired++ })

			if s.TransformOverlay(tt.id, tt.tr) {
				t.Error("TransformOverlay returned true")
			}
			after := s.State()
			if after.Overlays[0] != before.Overlays[0] {
				t.Errorf("overlay changed: %+v -> %+v", before.Overlays[0], after.Overlays[0])
			}
			if fired != 0 {
				t.Errorf("fired %d events", fired)
			}
		})
	}
}

func TestTransformOverlayInterimFlag(t *testing.T) {
	s := newTestScene(t)
	id := addTo(t, s, "a.png", 10, 10)
	var got []MutationEvent
	s.OnMutation(func(ev MutationEvent) { got = append(got, ev) })

	s.TransformOverlay(id, Transform{Position: &Vec2{1, 2}, Interim: true})
	s.TransformOverlay(id, Transform{Scale: &Vec2{2, 2}})
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if !got[0].Interim || got[1].Interim {
		t.Errorf("Interim flags = %v, %v; want true, false", got[0].Interim, got[1].Interim)
	}
	if got[1].Kind != MutationTransform || got[1].ID != id {
		t.Errorf("event = %+v", got[1])
	}
}

// --- Reorder ---

func TestReorder(t *testing.T) {
	s := newTestScene(t)
	a := addTo(t, s, "a.png", 10, 10)
	b := addTo(t, s, "b.png", 10, 10)
	c := addTo(t, s, "c.png", 10, 10)

	if s.Reorder(c, Forward) {
		t.Error("top overlay moved forward")
	}
	if s.Reorder(a, Backward) {
		t.Error("bottom overlay moved backward")
	}
	if !s.Reorder(a, Forward) {
		t.Fatal("Reorder(a, Forward) = false")
	}
	assertDenseZ(t, s)
	order := func() []string {
		var ids []string
		for _, o := range s.Overlays() {
			ids = append(ids, o.ID)
		}
		return ids
	}
	if got := order(); got[0] != b || got[1] != a || got[2] != c {
		t.Errorf("order = %v, want [%s %s %s]", got, b, a, c)
	}
	if !s.Reorder(c, Backward) {
		t.Fatal("Reorder(c, Backward) = false")
	}
	if got := order(); got[0] != b || got[1] != c || got[2] != a {
		t.Errorf("order = %v, want [%s %s %s]", got, b, c, a)
	}
	if s.Reorder(BackgroundID, Forward) {
		t.Error("background reordered")
	}
}

// --- HitTest ---

func TestHitTestTopmost(t *testing.T) {
	s := newTestScene(t)
	a := addTo(t, s, "a.png", 100, 100)
	b := addTo(t, s, "b.png", 50, 50)

	if id, _ := s.HitTest(450, 300); id != b {
		t.Errorf("HitTest center = %q, want top overlay %q", id, b)
	}
	if id, _ := s.HitTest(405, 300); id != a {
		t.Errorf("HitTest edge = %q, want %q", id, a)
	}
	if _, ok := s.HitTest(10, 10); ok {
		t.Error("background should never be hit")
	}
}

func TestHitTestRotated(t *testing.T) {
	s := newTestScene(t)
	id := addTo(t, s, "bar.png", 200, 20)
	s.TransformOverlay(id, Transform{RotationDelta: ptr(90.0)})

	if _, ok := s.HitTest(540, 300); ok {
		t.Error("point on the unrotated extent should miss")
	}
	if got, ok := s.HitTest(450, 380); !ok || got != id {
		t.Errorf("HitTest(450, 380) = %q, %v; want %q", got, ok, id)
	}
}

// --- Restore ---

func TestRestoreRejectsForeignState(t *testing.T) {
	s := newTestScene(t)
	addTo(t, s, "a.png", 10, 10)
	good := s.State()

	tests := []struct {
		name   string
		mutate func(st *SceneState)
	}{
		{"other background", func(st *SceneState) { st.Background.Ref = "villa.jpg" }},
		{"other size", func(st *SceneState) { st.Background.Width = 1 }},
		{"unknown image", func(st *SceneState) { st.Overlays[0].Ref = "nope.png" }},
		{"sparse z", func(st *SceneState) { st.Overlays[0].Z = 3 }},
		{"bad scale", func(st *SceneState) { st.Overlays[0].ScaleX = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := good
			st.Overlays = append([]OverlayState(nil), good.Overlays...)
			tt.mutate(&st)
			if err := s.Restore(st); !errors.Is(err, ErrCorruptSnapshot) {
				t.Fatalf("err = %v, want ErrCorruptSnapshot", err)
			}
			if got := s.State(); got.Overlays[0] != good.Overlays[0] {
				t.Errorf("scene changed after failed restore")
			}
		})
	}
}

func TestRestoreKeepsLiveSelection(t *testing.T) {
	s := newTestScene(t)
	a := addTo(t, s, "a.png", 10, 10)
	withA := s.State()
	b := addTo(t, s, "b.png", 10, 10)

	s.SetSelection(a)
	if err := s.Restore(withA); err != nil {
		t.Fatal(err)
	}
	if sel, _ := s.Selection(); sel != a {
		t.Errorf("selection = %q, want %q", sel, a)
	}

	s.Restore(SceneState{Background: withA.Background, Overlays: []OverlayState{}})
	if _, ok := s.Selection(); ok {
		t.Error("selection should be cleared when its overlay is gone")
	}
	if _, ok := s.Overlay(b); ok {
		t.Error("b should be gone")
	}
}

// --- Callbacks ---

func TestCallbackHandleRemove(t *testing.T) {
	s := newTestScene(t)
	var first, second int
	h := s.OnMutation(func(MutationEvent) { first++ })
	s.OnMutation(func(MutationEvent) { second++ })

	addTo(t, s, "a.png", 10, 10)
	h.Remove()
	addTo(t, s, "b.png", 10, 10)

	if first != 1 || second != 2 {
		t.Errorf("calls = %d, %d; want 1, 2", first, second)
	}
	CallbackHandle{}.Remove() // zero handle is harmless
}

// --- Properties ---

func TestZStaysDenseUnderRandomEdits(t *testing.T) {
	s := newTestScene(t)
	rng := rand.New(rand.NewSource(12))
	for i := 0; i < 500; i++ {
		ids := s.Overlays()
		switch op := rng.Intn(4); {
		case op == 0 || len(ids) == 0:
			addTo(t, s, "a.png", 10+rng.Intn(400), 10+rng.Intn(400))
		case op == 1:
			s.RemoveOverlay(ids[rng.Intn(len(ids))].ID)
		case op == 2:
			s.Reorder(ids[rng.Intn(len(ids))].ID, Direction(rng.Intn(2)))
		default:
			s.TransformOverlay(ids[rng.Intn(len(ids))].ID, Transform{RotationDelta: ptr(rng.Float64()*720 - 360)})
		}
		assertDenseZ(t, s)
	}
}

func TestAddOverlayExhaustedIDGeneratorPanics(t *testing.T) {
	s := newTestScene(t)
	s.SetIDGenerator(func() string { return "x" })
	addTo(t, s, "a.png", 10, 10)

	defer func() {
		r := recover()
		msg, ok := r.(string)
		if !ok || !strings.HasPrefix(msg, "facade: id generator") {
			t.Errorf("recover() = %v, want facade: id generator panic", r)
		}
	}()
	s.AddOverlay(solidImage("b.png", 10, 10, blue), "")
	t.Error("AddOverlay returned with only used ids available")
}
