package surface

import "github.com/hajimehoshi/ebiten/v2"

// Action is an editor command bound to a key.
type Action uint8

const (
	ActionNone Action = iota
	ActionDelete
	ActionUndo
	ActionRedo
	ActionRotateLeft
	ActionRotateRight
	ActionForward
	ActionBackward
	ActionGrow
	ActionShrink
	ActionCancel
	ActionSave
	ActionExport
	ActionZoomIn
	ActionZoomOut
	ActionFit
)

var actionNames = [...]string{
	ActionNone:        "none",
	ActionDelete:      "delete",
	ActionUndo:        "undo",
	ActionRedo:        "redo",
	ActionRotateLeft:  "rotate-left",
	ActionRotateRight: "rotate-right",
	ActionForward:     "forward",
	ActionBackward:    "backward",
	ActionGrow:        "grow",
	ActionShrink:      "shrink",
	ActionCancel:      "cancel",
	ActionSave:        "save",
	ActionExport:      "export",
	ActionZoomIn:      "zoom-in",
	ActionZoomOut:     "zoom-out",
	ActionFit:         "fit",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Modifiers is a bitmask of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
)

// readModifiers reads the current keyboard modifier state. Meta counts as
// Ctrl so that the usual shortcuts work on macOS.
func readModifiers() Modifiers {
	var mods Modifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta) {
		mods |= ModCtrl
	}
	return mods
}

// actionForKey maps a key press to an action.
func actionForKey(key ebiten.Key, mods Modifiers) Action {
	ctrl := mods&ModCtrl != 0
	shift := mods&ModShift != 0
	if ctrl {
		switch key {
		case ebiten.KeyZ:
			if shift {
				return ActionRedo
			}
			return ActionUndo
		case ebiten.KeyY:
			return ActionRedo
		case ebiten.KeyS:
			return ActionSave
		case ebiten.KeyE:
			return ActionExport
		case ebiten.KeyEqual, ebiten.KeyNumpadAdd:
			return ActionZoomIn
		case ebiten.KeyMinus, ebiten.KeyNumpadSubtract:
			return ActionZoomOut
		case ebiten.KeyDigit0, ebiten.KeyNumpad0:
			return ActionFit
		}
		return ActionNone
	}
	switch key {
	case ebiten.KeyDelete, ebiten.KeyBackspace:
		return ActionDelete
	case ebiten.KeyQ:
		return ActionRotateLeft
	case ebiten.KeyE:
		return ActionRotateRight
	case ebiten.KeyPageUp:
		return ActionForward
	case ebiten.KeyPageDown:
		return ActionBackward
	case ebiten.KeyEqual, ebiten.KeyNumpadAdd:
		return ActionGrow
	case ebiten.KeyMinus, ebiten.KeyNumpadSubtract:
		return ActionShrink
	case ebiten.KeyEscape:
		return ActionCancel
	}
	return ActionNone
}

// paletteSlot maps the digit keys 1-9 to palette indexes 0-8.
func paletteSlot(key ebiten.Key, mods Modifiers) (int, bool) {
	if mods != 0 || key < ebiten.KeyDigit1 || key > ebiten.KeyDigit9 {
		return 0, false
	}
	return int(key - ebiten.KeyDigit1), true
}
