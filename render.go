package facade

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// DrawCommand is a single draw instruction for one layer of the scene.
// Matrix maps the layer's source pixels (origin at the source image's
// top-left) into scene coordinates: [a, b, c, d, tx, ty].
type DrawCommand struct {
	ID     string
	Ref    string
	Matrix [6]float64
	Width  float64
	Height float64
}

// DrawList returns the background followed by every overlay in stacking
// order. Surfaces that render the scene themselves use it so that they
// place layers exactly where Render and HitTest do. Empty without a
// background.
func (s *Scene) DrawList() []DrawCommand {
	if s.background == nil {
		return nil
	}
	cmds := make([]DrawCommand, 0, len(s.overlays)+1)
	cmds = append(cmds, DrawCommand{
		ID:     BackgroundID,
		Ref:    s.background.Ref,
		Matrix: identityTransform,
		Width:  float64(s.background.Width),
		Height: float64(s.background.Height),
	})
	for _, o := range s.overlays {
		cmds = append(cmds, DrawCommand{
			ID:     o.ID,
			Ref:    o.Ref,
			Matrix: overlayTransform(o),
			Width:  o.Width,
			Height: o.Height,
		})
	}
	return cmds
}

// Render rasterizes the composed scene at the background's full resolution:
// the background first, then each overlay in stacking order with its
// transform applied using bilinear filtering. The scene is not modified.
// Returns an empty image when no background is loaded.
func (s *Scene) Render() *image.RGBA {
	w, h := s.Size()
	dst := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for _, cmd := range s.DrawList() {
		src, ok := s.images[cmd.Ref]
		if !ok {
			continue
		}
		sb := src.Bounds()
		if cmd.ID == BackgroundID {
			draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
			continue
		}
		// Transform addresses source pixels in src's own coordinate space,
		// which need not start at the origin.
		m := cmd.Matrix
		if sb.Min != (image.Point{}) {
			m = multiplyAffine(m, [6]float64{1, 0, 0, 1, -float64(sb.Min.X), -float64(sb.Min.Y)})
		}
		draw.BiLinear.Transform(dst, toAff3(m), src, sb, draw.Over, nil)
	}
	return dst
}

// Render rasterizes the editor's scene. See Scene.Render.
func (e *Editor) Render() *image.RGBA {
	return e.scene.Render()
}

// toAff3 converts [a, b, c, d, tx, ty] into x/image's row-major layout.
func toAff3(m [6]float64) f64.Aff3 {
	return f64.Aff3{
		m[0], m[2], m[4],
		m[1], m[3], m[5],
	}
}
