package facade

import (
	"fmt"
	"time"
)

// debugMaxOverlayCount is the overlay count above which debug mode warns.
const debugMaxOverlayCount = 200

// SetDebugMode enables or disables debug mode. When enabled, every mutation
// verifies the stacking and selection invariants and panics on violation,
// and mutation handling times are logged at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// debugCheckScene panics with a descriptive message when a mutation left the
// scene inconsistent.
func debugCheckScene(s *Scene, ev MutationEvent) {
	t0 := time.Now()
	seen := make(map[string]struct{}, len(s.overlays))
	for i, o := range s.overlays {
		if o.Z != i {
			panic(fmt.Sprintf("facade debug: after %s, overlay %s has z %d at index %d", ev.Kind, o.ID, o.Z, i))
		}
		if _, dup := seen[o.ID]; dup {
			panic(fmt.Sprintf("facade debug: after %s, duplicate overlay id %s", ev.Kind, o.ID))
		}
		seen[o.ID] = struct{}{}
		if o.Rotation < 0 || o.Rotation >= 360 {
			panic(fmt.Sprintf("facade debug: after %s, overlay %s rotation %v outside [0, 360)", ev.Kind, o.ID, o.Rotation))
		}
	}
	if s.selection != "" {
		if _, ok := seen[s.selection]; !ok {
			panic(fmt.Sprintf("facade debug: after %s, selection %s points at no overlay", ev.Kind, s.selection))
		}
	}
	s.log.WithField("kind", ev.Kind.String()).
		WithField("overlays", len(s.overlays)).
		WithField("check", time.Since(t0)).
		Debug("scene mutation")
}

// debugCheckOverlayCount warns if the scene holds an unusually large number
// of overlays.
func debugCheckOverlayCount(s *Scene) {
	if len(s.overlays) > debugMaxOverlayCount {
		s.log.Warnf("scene has %d overlays (threshold %d)", len(s.overlays), debugMaxOverlayCount)
	}
}
