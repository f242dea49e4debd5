package surface

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/phanxgames/facade"
)

const (
	// fitMargin leaves a border around the background when fitted.
	fitMargin = 0.95
	// minZoomFactor and maxZoomFactor bound zoom relative to the fitted zoom.
	minZoomFactor = 0.25
	maxZoomFactor = 8.0
	// zoomDuration is the length of a zoom animation in seconds.
	zoomDuration = 0.2
)

// Camera maps scene coordinates (background pixels) to screen pixels.
type Camera struct {
	// X and Y are the scene point shown at the viewport center.
	X, Y float64
	// Zoom is screen pixels per scene unit.
	Zoom float64
	// Viewport is the screen rectangle the scene is drawn into.
	Viewport facade.Rect

	fitZoom   float64
	zoomTween *gween.Tween

	view    ebiten.GeoM
	invView ebiten.GeoM
	dirty   bool
}

// NewCamera creates a camera with unit zoom for the given viewport.
func NewCamera(viewport facade.Rect) *Camera {
	return &Camera{
		Zoom:     1,
		Viewport: viewport,
		fitZoom:  1,
		dirty:    true,
	}
}

// SetViewport changes the screen rectangle, for example after a window
// resize.
func (c *Camera) SetViewport(r facade.Rect) {
	if r != c.Viewport {
		c.Viewport = r
		c.dirty = true
	}
}

// Fit centers the scene and picks the zoom at which a w x h scene fills the
// viewport with a small margin. Cancels any running zoom animation.
func (c *Camera) Fit(w, h float64) {
	c.zoomTween = nil
	c.X, c.Y = w/2, h/2
	if w <= 0 || h <= 0 || c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		c.fitZoom, c.Zoom = 1, 1
	} else {
		c.fitZoom = math.Min(c.Viewport.Width/w, c.Viewport.Height/h) * fitMargin
		c.Zoom = c.fitZoom
	}
	c.dirty = true
}

// FitZoom returns the zoom chosen by the last Fit.
func (c *Camera) FitZoom() float64 {
	return c.fitZoom
}

// ZoomTo animates the zoom to z over duration seconds. A duration <= 0
// applies it immediately. z is clamped to a range around the fitted zoom.
func (c *Camera) ZoomTo(z float64, duration float32) {
	z = c.clampZoom(z)
	if duration <= 0 {
		c.zoomTween = nil
		c.Zoom = z
		c.dirty = true
		return
	}
	c.zoomTween = gween.New(float32(c.Zoom), float32(z), duration, ease.OutQuad)
}

// ZoomBy animates the zoom by factor relative to the current zoom.
func (c *Camera) ZoomBy(factor float64) {
	c.ZoomTo(c.Zoom*factor, zoomDuration)
}

// Zooming reports whether a zoom animation is running.
func (c *Camera) Zooming() bool {
	return c.zoomTween != nil
}

// Update advances the zoom animation by dt seconds.
func (c *Camera) Update(dt float32) {
	if c.zoomTween == nil {
		return
	}
	val, done := c.zoomTween.Update(dt)
	c.Zoom = float64(val)
	if done {
		c.zoomTween = nil
	}
	c.dirty = true
}

func (c *Camera) clampZoom(z float64) float64 {
	lo, hi := c.fitZoom*minZoomFactor, c.fitZoom*maxZoomFactor
	return math.Max(lo, math.Min(z, hi))
}

// GeoM returns the scene-to-screen transform:
//
//	Translate(-X, -Y) -> Scale(Zoom) -> Translate(viewport center)
func (c *Camera) GeoM() ebiten.GeoM {
	c.compute()
	return c.view
}

func (c *Camera) compute() {
	if !c.dirty {
		return
	}
	c.dirty = false
	var g ebiten.GeoM
	g.Translate(-c.X, -c.Y)
	g.Scale(c.Zoom, c.Zoom)
	center := c.Viewport.Center()
	g.Translate(center.X, center.Y)
	c.view = g
	c.invView = g
	if c.invView.IsInvertible() {
		c.invView.Invert()
	}
}

// SceneToScreen converts scene coordinates to screen coordinates.
func (c *Camera) SceneToScreen(x, y float64) (sx, sy float64) {
	c.compute()
	return c.view.Apply(x, y)
}

// ScreenToScene converts screen coordinates to scene coordinates.
func (c *Camera) ScreenToScene(sx, sy float64) (x, y float64) {
	c.compute()
	return c.invView.Apply(sx, sy)
}
