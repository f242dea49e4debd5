package facade

import (
	"encoding/json"
	"fmt"
)

// snapshotVersion is bumped whenever the encoded layout changes.
const snapshotVersion = 1

// Snapshot is the immutable textual form of a SceneState.
type Snapshot string

// Wire types use pointers so that missing fields can be told apart from
// zero values.
type snapshotWire struct {
	Version    int             `json:"version"`
	Background *backgroundWire `json:"background"`
	Overlays   []overlayWire   `json:"overlays"`
}

type backgroundWire struct {
	Ref    *string `json:"ref"`
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
}

type overlayWire struct {
	ID       *string  `json:"id"`
	Ref      *string  `json:"ref"`
	Name     string   `json:"name,omitempty"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Rotation *float64 `json:"rotation"`
	ScaleX   *float64 `json:"scaleX"`
	ScaleY   *float64 `json:"scaleY"`
	Z        *int     `json:"z"`
}

// EncodeSnapshot serializes st. The output is deterministic: equal states
// always produce byte-identical snapshots.
func EncodeSnapshot(st SceneState) (Snapshot, error) {
	bg := st.Background
	w := snapshotWire{
		Version: snapshotVersion,
		Background: &backgroundWire{
			Ref:    &bg.Ref,
			Width:  &bg.Width,
			Height: &bg.Height,
		},
		Overlays: make([]overlayWire, len(st.Overlays)),
	}
	for i := range st.Overlays {
		o := st.Overlays[i]
		w.Overlays[i] = overlayWire{
			ID:       &o.ID,
			Ref:      &o.Ref,
			Name:     o.Name,
			Width:    &o.Width,
			Height:   &o.Height,
			X:        &o.X,
			Y:        &o.Y,
			Rotation: &o.Rotation,
			ScaleX:   &o.ScaleX,
			ScaleY:   &o.ScaleY,
			Z:        &o.Z,
		}
	}
	data, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return Snapshot(data), nil
}

// DecodeSnapshot parses a snapshot produced by EncodeSnapshot. Any missing
// field, non-finite number, non-positive scale, empty or duplicate id, or gap
// in the stacking order yields an error wrapping ErrCorruptSnapshot; a
// partially valid snapshot never produces a state.
func DecodeSnapshot(snap Snapshot) (SceneState, error) {
	var w snapshotWire
	if err := json.Unmarshal([]byte(snap), &w); err != nil {
		return SceneState{}, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if w.Version != snapshotVersion {
		return SceneState{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, w.Version)
	}
	if w.Background == nil {
		return SceneState{}, fmt.Errorf("%w: missing background", ErrCorruptSnapshot)
	}
	bg := w.Background
	if bg.Ref == nil || bg.Width == nil || bg.Height == nil {
		return SceneState{}, fmt.Errorf("%w: incomplete background", ErrCorruptSnapshot)
	}
	if *bg.Ref == "" || *bg.Width <= 0 || *bg.Height <= 0 {
		return SceneState{}, fmt.Errorf("%w: degenerate background", ErrCorruptSnapshot)
	}
	if w.Overlays == nil {
		return SceneState{}, fmt.Errorf("%w: missing overlays", ErrCorruptSnapshot)
	}

	st := SceneState{
		Background: BackgroundState{Ref: *bg.Ref, Width: *bg.Width, Height: *bg.Height},
		Overlays:   make([]OverlayState, len(w.Overlays)),
	}
	for i, o := range w.Overlays {
		if o.ID == nil || o.Ref == nil || o.Width == nil || o.Height == nil ||
			o.X == nil || o.Y == nil || o.Rotation == nil ||
			o.ScaleX == nil || o.ScaleY == nil || o.Z == nil {
			return SceneState{}, fmt.Errorf("%w: overlay %d is missing fields", ErrCorruptSnapshot, i)
		}
		st.Overlays[i] = OverlayState{
			ID:       *o.ID,
			Ref:      *o.Ref,
			Name:     o.Name,
			Width:    *o.Width,
			Height:   *o.Height,
			X:        *o.X,
			Y:        *o.Y,
			Rotation: *o.Rotation,
			ScaleX:   *o.ScaleX,
			ScaleY:   *o.ScaleY,
			Z:        *o.Z,
		}
	}
	if err := validateState(st); err != nil {
		return SceneState{}, err
	}
	return st, nil
}

// validateState checks the invariants every scene state must satisfy:
// overlays listed in stacking order with dense Z, unique non-empty ids,
// finite geometry, positive sizes and scales, rotation in [0, 360).
func validateState(st SceneState) error {
	seen := make(map[string]struct{}, len(st.Overlays))
	for i, o := range st.Overlays {
		if o.ID == "" || o.ID == BackgroundID {
			return fmt.Errorf("%w: overlay %d has invalid id %q", ErrCorruptSnapshot, i, o.ID)
		}
		if _, dup := seen[o.ID]; dup {
			return fmt.Errorf("%w: duplicate overlay id %s", ErrCorruptSnapshot, o.ID)
		}
		seen[o.ID] = struct{}{}
		if o.Ref == "" {
			return fmt.Errorf("%w: overlay %s has no image reference", ErrCorruptSnapshot, o.ID)
		}
		if o.Z != i {
			return fmt.Errorf("%w: overlay %s has z %d at position %d", ErrCorruptSnapshot, o.ID, o.Z, i)
		}
		for _, v := range [...]float64{o.Width, o.Height, o.X, o.Y, o.Rotation, o.ScaleX, o.ScaleY} {
			if !isFinite(v) {
				return fmt.Errorf("%w: overlay %s has non-finite geometry", ErrCorruptSnapshot, o.ID)
			}
		}
		if o.Width <= 0 || o.Height <= 0 {
			return fmt.Errorf("%w: overlay %s has degenerate size", ErrCorruptSnapshot, o.ID)
		}
		if !validScale(o.ScaleX, o.ScaleY) {
			return fmt.Errorf("%w: overlay %s has non-positive scale", ErrCorruptSnapshot, o.ID)
		}
		if o.Rotation < 0 || o.Rotation >= 360 {
			return fmt.Errorf("%w: overlay %s rotation %v outside [0, 360)", ErrCorruptSnapshot, o.ID, o.Rotation)
		}
	}
	return nil
}
