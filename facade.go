package facade

import "math"

// BackgroundID is the reserved id of the locked background image. Operations
// that take an overlay id treat it as "not an overlay" and do nothing.
const BackgroundID = "background"

// Vec2 is a 2D vector used for positions and scale factors throughout the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Direction selects which neighbour Reorder swaps with.
type Direction uint8

const (
	Forward  Direction = iota // toward the top of the stack (drawn later)
	Backward                  // toward the background (drawn earlier)
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

// MutationKind identifies the scene operation that produced a MutationEvent.
type MutationKind uint8

const (
	MutationBackground MutationKind = iota // background replaced, overlays cleared
	MutationAdd                            // overlay added
	MutationRemove                         // overlay removed
	MutationTransform                      // overlay moved, rotated or scaled
	MutationReorder                        // overlay swapped with a neighbour
	MutationRestore                        // whole scene replaced from a snapshot
)

func (k MutationKind) String() string {
	switch k {
	case MutationBackground:
		return "background"
	case MutationAdd:
		return "add"
	case MutationRemove:
		return "remove"
	case MutationTransform:
		return "transform"
	case MutationReorder:
		return "reorder"
	case MutationRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// MutationEvent is delivered to OnMutation handlers after a scene change has
// been fully applied. Interim events come from gesture frames and cancelled
// gestures; they are not history-worthy.
type MutationEvent struct {
	Kind    MutationKind
	ID      string
	Interim bool
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
