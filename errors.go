package facade

import "errors"

var (
	// ErrInvalidImage reports an image that could not be loaded or decoded, or
	// that has a zero dimension. The scene is left unchanged.
	ErrInvalidImage = errors.New("facade: invalid image")

	// ErrCorruptSnapshot reports a snapshot that is malformed, incomplete, or
	// inconsistent with the loaded scene. The restore attempt is aborted and the
	// scene keeps its pre-restore state.
	ErrCorruptSnapshot = errors.New("facade: corrupt snapshot")

	// ErrNoBackground is returned when an overlay is added before any
	// background has been loaded.
	ErrNoBackground = errors.New("facade: no background loaded")
)
