package facade

import (
	"fmt"
	"image"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultMaxOverlayFraction is the widest an overlay may be when added,
// relative to the scene width.
const DefaultMaxOverlayFraction = 1.0 / 3.0

// Background describes the locked background image.
type Background struct {
	Ref           string
	Width, Height int
}

// BackgroundState is the serializable form of the background.
type BackgroundState struct {
	Ref           string
	Width, Height int
}

// OverlayState is the serializable form of an overlay.
type OverlayState struct {
	ID       string
	Ref      string
	Name     string
	Width    float64
	Height   float64
	X, Y     float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64
	Z        int
}

// SceneState is a complete, self-describing description of a scene:
// the background reference plus every overlay ordered by Z.
type SceneState struct {
	Background BackgroundState
	Overlays   []OverlayState
}

// Transform describes a change to an overlay. Nil fields are left alone.
type Transform struct {
	// Position sets the overlay's center.
	Position *Vec2
	// RotationDelta is added to the current rotation (degrees).
	RotationDelta *float64
	// Scale sets the scale factors; both must be positive.
	Scale *Vec2
	// Interim marks gesture frames that history must not record.
	Interim bool
}

type mutationHandler struct {
	id uint32
	fn func(MutationEvent)
}

// CallbackHandle allows removing a registered mutation callback.
type CallbackHandle struct {
	id    uint32
	scene *Scene
}

// Remove unregisters this callback so it no longer fires.
func (h CallbackHandle) Remove() {
	if h.scene == nil {
		return
	}
	hs := h.scene.handlers
	for i := range hs {
		if hs[i].id == h.id {
			copy(hs[i:], hs[i+1:])
			hs[len(hs)-1] = mutationHandler{}
			h.scene.handlers = hs[:len(hs)-1]
			return
		}
	}
}

// Scene is the scene graph: one locked background plus an ordered stack of
// overlays and an optional selection. All methods must be called from a
// single goroutine.
type Scene struct {
	background *Background
	images     map[string]image.Image

	// overlays is ordered by Z; overlays[i].Z == i at all times.
	overlays  []*Overlay
	selection string

	maxOverlayFraction float64
	newID              func() string

	handlers      []mutationHandler
	nextHandlerID uint32

	debug bool
	log   logrus.FieldLogger
}

// NewScene creates an empty scene with no background.
func NewScene() *Scene {
	return &Scene{
		images:             make(map[string]image.Image),
		maxOverlayFraction: DefaultMaxOverlayFraction,
		newID:              uuid.NewString,
		log:                logrus.StandardLogger().WithField("component", "facade"),
	}
}

// SetIDGenerator replaces the overlay id source. Generated ids that collide
// with an existing overlay are skipped.
func (s *Scene) SetIDGenerator(fn func() string) {
	if fn == nil {
		panic("facade: nil id generator")
	}
	s.newID = fn
}

// SetMaxOverlayFraction sets the widest an added overlay may be relative to
// the scene width. Values outside (0, 1] are ignored.
func (s *Scene) SetMaxOverlayFraction(f float64) {
	if f > 0 && f <= 1 {
		s.maxOverlayFraction = f
	}
}

// SetLogger sets the logger used for debug output.
func (s *Scene) SetLogger(l logrus.FieldLogger) {
	if l != nil {
		s.log = l
	}
}

// OnMutation registers a callback that fires after every scene mutation.
// Selection changes are not mutations.
func (s *Scene) OnMutation(fn func(MutationEvent)) CallbackHandle {
	if fn == nil {
		panic("facade: nil mutation callback")
	}
	s.nextHandlerID++
	id := s.nextHandlerID
	s.handlers = append(s.handlers, mutationHandler{id: id, fn: fn})
	return CallbackHandle{id: id, scene: s}
}

func (s *Scene) fire(ev MutationEvent) {
	if s.debug {
		debugCheckScene(s, ev)
	}
	for _, h := range s.handlers {
		h.fn(ev)
	}
}

// --- Queries ---

// Background returns the loaded background, if any.
func (s *Scene) Background() (Background, bool) {
	if s.background == nil {
		return Background{}, false
	}
	return *s.background, true
}

// Size returns the scene dimensions, which are the background's pixel size.
func (s *Scene) Size() (w, h float64) {
	if s.background == nil {
		return 0, 0
	}
	return float64(s.background.Width), float64(s.background.Height)
}

// Bounds returns the visible scene rectangle.
func (s *Scene) Bounds() Rect {
	w, h := s.Size()
	return Rect{Width: w, Height: h}
}

// Image returns the decoded pixels registered for ref.
func (s *Scene) Image(ref string) (image.Image, bool) {
	img, ok := s.images[ref]
	return img, ok
}

// RegisterImage makes img's pixels available to overlays and snapshots that
// reference img.Ref. It does not change the scene.
func (s *Scene) RegisterImage(img Image) error {
	if err := img.validate(); err != nil {
		return err
	}
	s.images[img.Ref] = img.Pixels
	return nil
}

// Len returns the number of overlays.
func (s *Scene) Len() int {
	return len(s.overlays)
}

// Overlays returns copies of all overlays ordered bottom to top.
func (s *Scene) Overlays() []Overlay {
	out := make([]Overlay, len(s.overlays))
	for i, o := range s.overlays {
		out[i] = *o
	}
	return out
}

// Overlay returns a copy of the overlay with the given id.
func (s *Scene) Overlay(id string) (Overlay, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Overlay{}, false
	}
	return *s.overlays[i], true
}

// Selection returns the selected overlay id, if any.
func (s *Scene) Selection() (string, bool) {
	return s.selection, s.selection != ""
}

// HitTest returns the topmost overlay containing the scene point (x, y).
// The background is never hit.
func (s *Scene) HitTest(x, y float64) (string, bool) {
	for i := len(s.overlays) - 1; i >= 0; i-- {
		if s.overlays[i].Contains(x, y) {
			return s.overlays[i].ID, true
		}
	}
	return "", false
}

// State returns a deep copy of the scene suitable for encoding.
func (s *Scene) State() SceneState {
	var st SceneState
	if s.background != nil {
		st.Background = BackgroundState{
			Ref:    s.background.Ref,
			Width:  s.background.Width,
			Height: s.background.Height,
		}
	}
	st.Overlays = make([]OverlayState, len(s.overlays))
	for i, o := range s.overlays {
		st.Overlays[i] = o.state()
	}
	return st
}

// --- Selection ---

// SetSelection selects the overlay with the given id. Unknown ids and the
// background id clear the selection. Never fires a mutation.
func (s *Scene) SetSelection(id string) {
	if s.indexOf(id) < 0 {
		s.selection = ""
		return
	}
	s.selection = id
}

// ClearSelection deselects everything. Never fires a mutation.
func (s *Scene) ClearSelection() {
	s.selection = ""
}

// --- Mutations ---

// LoadBackground replaces the background, clearing all overlays and the
// selection. Returns an error wrapping ErrInvalidImage for unusable images,
// in which case the scene is unchanged.
func (s *Scene) LoadBackground(img Image) error {
	if err := img.validate(); err != nil {
		return err
	}
	w, h := img.Size()

	// Overlay pixels belong to the previous composition.
	s.images = map[string]image.Image{img.Ref: img.Pixels}
	s.background = &Background{Ref: img.Ref, Width: w, Height: h}
	for i := range s.overlays {
		s.overlays[i] = nil
	}
	s.overlays = s.overlays[:0]
	s.selection = ""

	s.fire(MutationEvent{Kind: MutationBackground, ID: BackgroundID})
	return nil
}

// AddOverlay places img above all existing overlays, shrinks it to at most
// the configured fraction of the scene width, centers it and selects it.
// Returns the new overlay's id.
func (s *Scene) AddOverlay(img Image, name string) (string, error) {
	if s.background == nil {
		return "", ErrNoBackground
	}
	if err := img.validate(); err != nil {
		return "", err
	}

	id := s.nextID()
	o := newOverlay(id, img, name)

	sceneW, sceneH := s.Size()
	if maxW := sceneW * s.maxOverlayFraction; o.Width > maxW {
		scale := maxW / o.Width
		o.ScaleX, o.ScaleY = scale, scale
	}
	o.X, o.Y = sceneW/2, sceneH/2
	o.Z = len(s.overlays)

	s.images[img.Ref] = img.Pixels
	s.overlays = append(s.overlays, o)
	s.selection = id
	if s.debug {
		debugCheckOverlayCount(s)
	}

	s.fire(MutationEvent{Kind: MutationAdd, ID: id})
	return id, nil
}

// RemoveOverlay deletes the overlay with the given id and compacts the
// stacking order. Reports false (and does nothing) if id is unknown.
func (s *Scene) RemoveOverlay(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	copy(s.overlays[i:], s.overlays[i+1:])
	s.overlays[len(s.overlays)-1] = nil
	s.overlays = s.overlays[:len(s.overlays)-1]
	s.renumber(i)
	if s.selection == id {
		s.selection = ""
	}

	s.fire(MutationEvent{Kind: MutationRemove, ID: id})
	return true
}

// TransformOverlay applies t to the overlay with the given id. Reports false
// and leaves the scene untouched if the id is unknown, refers to the
// background, t is empty, or any value is non-finite or a scale is not
// positive.
func (s *Scene) TransformOverlay(id string, t Transform) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	if t.Position == nil && t.RotationDelta == nil && t.Scale == nil {
		return false
	}
	if t.Position != nil && (!isFinite(t.Position.X) || !isFinite(t.Position.Y)) {
		return false
	}
	if t.RotationDelta != nil && !isFinite(*t.RotationDelta) {
		return false
	}
	if t.Scale != nil && !validScale(t.Scale.X, t.Scale.Y) {
		return false
	}

	o := s.overlays[i]
	if t.Position != nil {
		o.X, o.Y = t.Position.X, t.Position.Y
	}
	if t.RotationDelta != nil {
		o.Rotation = normalizeDegrees(o.Rotation + *t.RotationDelta)
	}
	if t.Scale != nil {
		o.ScaleX, o.ScaleY = t.Scale.X, t.Scale.Y
	}

	s.fire(MutationEvent{Kind: MutationTransform, ID: id, Interim: t.Interim})
	return true
}

// Reorder swaps the overlay with its immediate neighbour in the given
// direction. Reports false at the boundary or for an unknown id.
func (s *Scene) Reorder(id string, dir Direction) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	j := i + 1
	if dir == Backward {
		j = i - 1
	}
	if j < 0 || j >= len(s.overlays) {
		return false
	}
	s.overlays[i], s.overlays[j] = s.overlays[j], s.overlays[i]
	s.overlays[i].Z = i
	s.overlays[j].Z = j

	s.fire(MutationEvent{Kind: MutationReorder, ID: id})
	return true
}

// Restore replaces every overlay with the ones described by st. The state
// must reference the loaded background and only registered images; anything
// else returns an error wrapping ErrCorruptSnapshot and leaves the scene as
// it was. The selection survives if its overlay still exists.
func (s *Scene) Restore(st SceneState) error {
	if s.background == nil {
		return fmt.Errorf("%w: no background loaded", ErrCorruptSnapshot)
	}
	bg := st.Background
	if bg.Ref != s.background.Ref || bg.Width != s.background.Width || bg.Height != s.background.Height {
		return fmt.Errorf("%w: background %q does not match loaded %q", ErrCorruptSnapshot, bg.Ref, s.background.Ref)
	}
	if err := validateState(st); err != nil {
		return err
	}
	for _, o := range st.Overlays {
		if _, ok := s.images[o.Ref]; !ok {
			return fmt.Errorf("%w: overlay %s references unknown image %q", ErrCorruptSnapshot, o.ID, o.Ref)
		}
	}

	overlays := make([]*Overlay, len(st.Overlays))
	for i, o := range st.Overlays {
		overlays[i] = overlayFromState(o)
	}
	s.overlays = overlays
	if s.indexOf(s.selection) < 0 {
		s.selection = ""
	}

	s.fire(MutationEvent{Kind: MutationRestore})
	return nil
}

// --- Helpers ---

// indexOf returns the stacking index of id, or -1.
func (s *Scene) indexOf(id string) int {
	if id == "" || id == BackgroundID {
		return -1
	}
	for i, o := range s.overlays {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// maxIDAttempts bounds how many used ids the generator may return in a row.
const maxIDAttempts = 100

// nextID draws ids until one is free.
func (s *Scene) nextID() string {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if id != "" && id != BackgroundID && s.indexOf(id) < 0 {
			return id
		}
	}
	panic(fmt.Sprintf("facade: id generator returned no free id in %d attempts", maxIDAttempts))
}

// renumber rewrites Z from index from upward so that Z matches position.
func (s *Scene) renumber(from int) {
	for i := from; i < len(s.overlays); i++ {
		s.overlays[i].Z = i
	}
}

func validScale(sx, sy float64) bool {
	return isFinite(sx) && isFinite(sy) && sx > 0 && sy > 0
}
