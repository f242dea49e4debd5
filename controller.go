package facade

import "math"

const (
	// DefaultDragDeadZone is the pointer travel in scene units before a press
	// on an overlay turns into a drag.
	DefaultDragDeadZone = 4.0
	// DefaultRotateStep is the angle applied by RotateLeft and RotateRight.
	DefaultRotateStep = 15.0
	// DefaultScaleStep is the factor applied by Grow; Shrink uses its inverse.
	DefaultScaleStep = 1.1
)

// DragState is the controller's gesture state.
type DragState uint8

const (
	Idle     DragState = iota // no gesture in progress
	Dragging                  // pointer pressed on an overlay
)

func (d DragState) String() string {
	switch d {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// drag holds the in-progress gesture.
type drag struct {
	id       string
	startX   float64 // pointer position at press
	startY   float64
	originX  float64 // overlay position at press
	originY  float64
	lastX    float64
	lastY    float64
	dragging bool // moved past the dead zone
}

// Controller turns pointer and keyboard intents into scene mutations.
//
// It runs an explicit state machine:
//
//	Idle --PointerDown on overlay--> Dragging
//	Dragging --PointerUp--> Idle      (one history entry if the overlay moved)
//	Dragging --PointerCancel--> Idle  (pre-drag position restored, no history)
//
// Intermediate drag frames are applied as interim transforms, so undo
// reverses a whole gesture rather than individual frames.
type Controller struct {
	editor *Editor

	state DragState
	drag  drag

	deadZone   float64
	rotateStep float64
	scaleStep  float64
}

func newController(e *Editor, deadZone, rotateStep, scaleStep float64) *Controller {
	if deadZone < 0 {
		deadZone = DefaultDragDeadZone
	}
	if rotateStep <= 0 {
		rotateStep = DefaultRotateStep
	}
	if scaleStep <= 1 {
		scaleStep = DefaultScaleStep
	}
	return &Controller{
		editor:     e,
		deadZone:   deadZone,
		rotateStep: rotateStep,
		scaleStep:  scaleStep,
	}
}

// State returns the current gesture state.
func (c *Controller) State() DragState {
	return c.state
}

// SetDragDeadZone sets the minimum movement before a drag starts.
func (c *Controller) SetDragDeadZone(units float64) {
	if units >= 0 {
		c.deadZone = units
	}
}

// --- Pointer gestures ---

// PointerDown selects the topmost overlay under (x, y) and starts a gesture
// on it. A press on empty space or on the background clears the selection.
// A press while a gesture is still open commits that gesture first.
func (c *Controller) PointerDown(x, y float64) {
	c.commitDrag()

	scene := c.editor.scene
	id, ok := scene.HitTest(x, y)
	if !ok {
		scene.ClearSelection()
		return
	}
	scene.SetSelection(id)
	o, _ := scene.Overlay(id)
	c.state = Dragging
	c.drag = drag{
		id:      id,
		startX:  x,
		startY:  y,
		originX: o.X,
		originY: o.Y,
		lastX:   x,
		lastY:   y,
	}
}

// PointerMove moves the dragged overlay with the pointer once the movement
// exceeds the dead zone. No history is recorded.
func (c *Controller) PointerMove(x, y float64) {
	if c.state != Dragging {
		return
	}
	c.drag.lastX, c.drag.lastY = x, y
	if !c.drag.dragging {
		if math.Hypot(x-c.drag.startX, y-c.drag.startY) <= c.deadZone {
			return
		}
		c.drag.dragging = true
	}
	pos := c.dragTarget(x, y)
	if !c.editor.scene.TransformOverlay(c.drag.id, Transform{Position: &pos, Interim: true}) {
		// The overlay disappeared under the gesture.
		c.reset()
	}
}

// PointerUp ends the gesture. If the overlay moved, its final position is
// committed as a single history entry.
func (c *Controller) PointerUp(x, y float64) {
	if c.state != Dragging {
		return
	}
	c.PointerMove(x, y)
	c.commitDrag()
}

// PointerCancel aborts the gesture and puts the overlay back where it was
// before the press, without recording history.
func (c *Controller) PointerCancel() {
	if c.state != Dragging {
		return
	}
	if c.drag.dragging {
		origin := Vec2{X: c.drag.originX, Y: c.drag.originY}
		c.editor.scene.TransformOverlay(c.drag.id, Transform{Position: &origin, Interim: true})
	}
	c.reset()
}

// --- Discrete intents ---

// RotateSelected rotates the selection by deg degrees (positive is
// clockwise on screen). One history entry.
func (c *Controller) RotateSelected(deg float64) bool {
	c.commitDrag()
	id, ok := c.editor.scene.Selection()
	if !ok {
		return false
	}
	return c.editor.scene.TransformOverlay(id, Transform{RotationDelta: &deg})
}

// RotateLeft rotates the selection counter-clockwise by the rotate step.
func (c *Controller) RotateLeft() bool {
	return c.RotateSelected(-c.rotateStep)
}

// RotateRight rotates the selection clockwise by the rotate step.
func (c *Controller) RotateRight() bool {
	return c.RotateSelected(c.rotateStep)
}

// ScaleSelected multiplies the selection's scale by factor. One history
// entry.
func (c *Controller) ScaleSelected(factor float64) bool {
	c.commitDrag()
	id, ok := c.editor.scene.Selection()
	if !ok {
		return false
	}
	o, _ := c.editor.scene.Overlay(id)
	scale := Vec2{X: o.ScaleX * factor, Y: o.ScaleY * factor}
	return c.editor.scene.TransformOverlay(id, Transform{Scale: &scale})
}

// Grow enlarges the selection by the scale step.
func (c *Controller) Grow() bool {
	return c.ScaleSelected(c.scaleStep)
}

// Shrink reduces the selection by the scale step.
func (c *Controller) Shrink() bool {
	return c.ScaleSelected(1 / c.scaleStep)
}

// ReorderSelected moves the selection one step forward or backward in the
// stack. One history entry, none at the boundary.
func (c *Controller) ReorderSelected(dir Direction) bool {
	c.commitDrag()
	id, ok := c.editor.scene.Selection()
	if !ok {
		return false
	}
	return c.editor.scene.Reorder(id, dir)
}

// DeleteSelected removes the selection. One history entry.
func (c *Controller) DeleteSelected() bool {
	c.commitDrag()
	id, ok := c.editor.scene.Selection()
	if !ok {
		return false
	}
	return c.editor.scene.RemoveOverlay(id)
}

// Undo commits any open gesture and steps back in history.
func (c *Controller) Undo() (bool, error) {
	c.commitDrag()
	return c.editor.Undo()
}

// Redo commits any open gesture and steps forward in history.
func (c *Controller) Redo() (bool, error) {
	c.commitDrag()
	return c.editor.Redo()
}

// --- Helpers ---

func (c *Controller) dragTarget(x, y float64) Vec2 {
	return Vec2{
		X: c.drag.originX + (x - c.drag.startX),
		Y: c.drag.originY + (y - c.drag.startY),
	}
}

// commitDrag records the open gesture, if it moved anything, and returns to
// Idle.
func (c *Controller) commitDrag() {
	if c.state != Dragging {
		return
	}
	if c.drag.dragging {
		pos := c.dragTarget(c.drag.lastX, c.drag.lastY)
		c.editor.scene.TransformOverlay(c.drag.id, Transform{Position: &pos})
	}
	c.reset()
}

func (c *Controller) reset() {
	c.state = Idle
	c.drag = drag{}
}
