package facade

// Overlay is a product image placed above the background. Overlays are
// always selectable; the scene owns them and hands out copies.
type Overlay struct {
	// Identity
	ID   string
	Ref  string
	Name string

	// Natural size of the source image in pixels.
	Width, Height float64

	// Transform. (X, Y) is the overlay's center in scene coordinates and
	// Rotation is in degrees, normalized to [0, 360).
	X, Y     float64
	Rotation float64
	ScaleX   float64
	ScaleY   float64

	// Z is the stacking index: 0 is directly above the background.
	Z int
}

// newOverlay creates an overlay for img with unit scale and no rotation.
func newOverlay(id string, img Image, name string) *Overlay {
	w, h := img.Size()
	if name == "" {
		name = baseName(img.Ref)
	}
	return &Overlay{
		ID:     id,
		Ref:    img.Ref,
		Name:   name,
		Width:  float64(w),
		Height: float64(h),
		ScaleX: 1,
		ScaleY: 1,
	}
}

// Size returns the displayed width and height (natural size times scale).
func (o Overlay) Size() (w, h float64) {
	return o.Width * o.ScaleX, o.Height * o.ScaleY
}

// Bounds returns the axis-aligned bounding box of the transformed overlay in
// scene coordinates.
func (o Overlay) Bounds() Rect {
	return worldAABB(overlayTransform(&o), o.Width, o.Height)
}

// Corners returns the four transformed corners in scene coordinates, starting
// top-left and going clockwise in source space.
func (o Overlay) Corners() [4]Vec2 {
	m := overlayTransform(&o)
	var out [4]Vec2
	for i, p := range [4]Vec2{{0, 0}, {o.Width, 0}, {o.Width, o.Height}, {0, o.Height}} {
		out[i].X, out[i].Y = transformPoint(m, p.X, p.Y)
	}
	return out
}

// Contains reports whether the scene point (x, y) falls on the overlay,
// honouring rotation and scale. Edges count as inside.
func (o Overlay) Contains(x, y float64) bool {
	if o.Width == 0 || o.Height == 0 {
		return false
	}
	lx, ly := transformPoint(invertAffine(overlayTransform(&o)), x, y)
	return lx >= 0 && lx <= o.Width && ly >= 0 && ly <= o.Height
}

// state converts the overlay to its serializable form.
func (o *Overlay) state() OverlayState {
	return OverlayState{
		ID:       o.ID,
		Ref:      o.Ref,
		Name:     o.Name,
		Width:    o.Width,
		Height:   o.Height,
		X:        o.X,
		Y:        o.Y,
		Rotation: o.Rotation,
		ScaleX:   o.ScaleX,
		ScaleY:   o.ScaleY,
		Z:        o.Z,
	}
}

// overlayFromState is the inverse of state.
func overlayFromState(st OverlayState) *Overlay {
	return &Overlay{
		ID:       st.ID,
		Ref:      st.Ref,
		Name:     st.Name,
		Width:    st.Width,
		Height:   st.Height,
		X:        st.X,
		Y:        st.Y,
		Rotation: st.Rotation,
		ScaleX:   st.ScaleX,
		ScaleY:   st.ScaleY,
		Z:        st.Z,
	}
}
