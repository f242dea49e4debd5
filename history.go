package facade

// DefaultHistoryCapacity is the number of undo steps kept by default.
const DefaultHistoryCapacity = 50

// History is a linear undo/redo log of scene snapshots.
//
// The past stack's top is always the current scene state, so it holds up to
// capacity+1 entries: the current state plus capacity undoable steps. When
// full, the oldest entry is evicted. Recording clears the future stack; there
// is no branching.
type History struct {
	past     []Snapshot
	future   []Snapshot
	capacity int

	// applying is set while a restored snapshot is being applied so that the
	// mutation it causes is not recorded again.
	applying bool
}

// NewHistory creates an empty history. A capacity <= 0 selects
// DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity}
}

// Capacity returns the maximum number of undo steps.
func (h *History) Capacity() int {
	return h.capacity
}

// Reset discards both stacks and makes initial the only past entry.
func (h *History) Reset(initial Snapshot) {
	clearSnapshots(h.past)
	clearSnapshots(h.future)
	h.past = append(h.past[:0], initial)
	h.future = h.future[:0]
}

// Record pushes s as the new current state and clears the redo stack.
// Ignored while an undo or redo is being applied.
func (h *History) Record(s Snapshot) {
	if h.applying {
		return
	}
	h.push(s)
	clearSnapshots(h.future)
	h.future = h.future[:0]
}

// Undo applies the state before the current one. It is a no-op returning
// false when there is nothing to undo (the initial state is never undone).
// If apply fails, the stacks are left unchanged and the error is returned.
func (h *History) Undo(apply func(Snapshot) error) (bool, error) {
	n := len(h.past)
	if n <= 1 {
		return false, nil
	}
	if err := h.apply(apply, h.past[n-2]); err != nil {
		return false, err
	}
	top := h.past[n-1]
	h.past[n-1] = ""
	h.past = h.past[:n-1]
	h.future = append(h.future, top)
	return true, nil
}

// Redo re-applies the most recently undone state. It is a no-op returning
// false when the redo stack is empty. If apply fails, the stacks are left
// unchanged and the error is returned.
func (h *History) Redo(apply func(Snapshot) error) (bool, error) {
	n := len(h.future)
	if n == 0 {
		return false, nil
	}
	s := h.future[n-1]
	if err := h.apply(apply, s); err != nil {
		return false, err
	}
	h.future[n-1] = ""
	h.future = h.future[:n-1]
	h.push(s)
	return true, nil
}

// Current returns the snapshot of the current state.
func (h *History) Current() (Snapshot, bool) {
	if len(h.past) == 0 {
		return "", false
	}
	return h.past[len(h.past)-1], true
}

// Depth returns the number of entries on the past stack, including the
// current state.
func (h *History) Depth() int {
	return len(h.past)
}

// RedoDepth returns the number of entries on the future stack.
func (h *History) RedoDepth() int {
	return len(h.future)
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool {
	return len(h.past) > 1
}

// CanRedo reports whether Redo would do anything.
func (h *History) CanRedo() bool {
	return len(h.future) > 0
}

// Applying reports whether a restored snapshot is currently being applied.
func (h *History) Applying() bool {
	return h.applying
}

func (h *History) apply(fn func(Snapshot) error, s Snapshot) error {
	if fn == nil {
		panic("facade: nil apply func")
	}
	h.applying = true
	defer func() { h.applying = false }()
	return fn(s)
}

// push appends s to the past stack, evicting the oldest entry when full.
func (h *History) push(s Snapshot) {
	h.past = append(h.past, s)
	if len(h.past) > h.capacity+1 {
		copy(h.past, h.past[1:])
		h.past[len(h.past)-1] = ""
		h.past = h.past[:len(h.past)-1]
	}
}

func clearSnapshots(s []Snapshot) {
	for i := range s {
		s[i] = ""
	}
}
