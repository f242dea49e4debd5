package facade

import (
	"context"
	"encoding/json"
	"fmt"
)

// scriptStep is a single action in a session script.
type scriptStep struct {
	Action  string  `json:"action"`
	Ref     string  `json:"ref,omitempty"`
	Name    string  `json:"name,omitempty"`
	As      string  `json:"as,omitempty"`
	ID      string  `json:"id,omitempty"`
	Label   string  `json:"label,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	FromX   float64 `json:"fromX,omitempty"`
	FromY   float64 `json:"fromY,omitempty"`
	ToX     float64 `json:"toX,omitempty"`
	ToY     float64 `json:"toY,omitempty"`
	Frames  int     `json:"frames,omitempty"`
	Degrees float64 `json:"degrees,omitempty"`
	Factor  float64 `json:"factor,omitempty"`
}

type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

var scriptActions = map[string]bool{
	"background": true,
	"add":        true,
	"select":     true,
	"press":      true,
	"move":       true,
	"release":    true,
	"cancel":     true,
	"click":      true,
	"drag":       true,
	"rotate":     true,
	"scale":      true,
	"forward":    true,
	"backward":   true,
	"delete":     true,
	"undo":       true,
	"redo":       true,
	"export":     true,
}

// Script replays a recorded editing session against an Editor without a
// window. Pointer steps are in scene coordinates.
//
// Example:
//
//	{"steps": [
//	  {"action": "background", "ref": "house.jpg"},
//	  {"action": "add", "ref": "gate.png", "name": "Gate", "as": "gate"},
//	  {"action": "drag", "fromX": 400, "fromY": 300, "toX": 420, "toY": 500, "frames": 10},
//	  {"action": "rotate", "degrees": 15},
//	  {"action": "export", "label": "house"}
//	]}
type Script struct {
	// ExportDir receives files written by export steps. Defaults to the
	// working directory.
	ExportDir string

	steps    []scriptStep
	aliases  map[string]string
	exported []string
}

// LoadScript parses a JSON session script.
func LoadScript(data []byte) (*Script, error) {
	var f scriptFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(f.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range f.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i+1, st.Action)
		}
		if (st.Action == "background" || st.Action == "add") && st.Ref == "" {
			return nil, fmt.Errorf("parse script: step %d: %s needs a ref", i+1, st.Action)
		}
	}
	return &Script{steps: f.Steps, ExportDir: "."}, nil
}

// Len returns the number of steps.
func (s *Script) Len() int {
	return len(s.steps)
}

// Exported returns the paths written by export steps of the last Run.
func (s *Script) Exported() []string {
	return s.exported
}

// Run executes every step in order. Image steps load synchronously through
// the editor's loader. The first failing step aborts the run.
func (s *Script) Run(ctx context.Context, e *Editor) error {
	s.aliases = make(map[string]string)
	s.exported = s.exported[:0]
	for i, st := range s.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.step(ctx, e, st); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
	}
	return nil
}

func (s *Script) step(ctx context.Context, e *Editor, st scriptStep) error {
	c := e.Controller()
	switch st.Action {
	case "background":
		seq := e.BeginBackgroundLoad()
		img, err := e.Loader().Load(ctx, st.Ref)
		return e.CompleteBackgroundLoad(seq, img, err)
	case "add":
		gen := e.BeginOverlayLoad()
		img, err := e.Loader().Load(ctx, st.Ref)
		id, err := e.CompleteOverlayLoad(gen, img, st.Name, err)
		if err != nil {
			return err
		}
		if st.As != "" {
			s.aliases[st.As] = id
		}
	case "select":
		if st.ID == "" {
			e.Scene().ClearSelection()
			return nil
		}
		id := st.ID
		if alias, ok := s.aliases[id]; ok {
			id = alias
		}
		if _, ok := e.Scene().Overlay(id); !ok {
			return fmt.Errorf("no overlay %q", st.ID)
		}
		e.Scene().SetSelection(id)
	case "press":
		c.PointerDown(st.X, st.Y)
	case "move":
		c.PointerMove(st.X, st.Y)
	case "release":
		c.PointerUp(st.X, st.Y)
	case "cancel":
		c.PointerCancel()
	case "click":
		c.PointerDown(st.X, st.Y)
		c.PointerUp(st.X, st.Y)
	case "drag":
		frames := st.Frames
		if frames < 2 {
			frames = 2
		}
		c.PointerDown(st.FromX, st.FromY)
		steps := frames - 2
		for i := 1; i <= steps; i++ {
			t := float64(i) / float64(steps+1)
			c.PointerMove(st.FromX+(st.ToX-st.FromX)*t, st.FromY+(st.ToY-st.FromY)*t)
		}
		c.PointerUp(st.ToX, st.ToY)
	case "rotate":
		if st.Degrees == 0 {
			c.RotateRight()
		} else {
			c.RotateSelected(st.Degrees)
		}
	case "scale":
		if st.Factor <= 0 {
			return fmt.Errorf("scale factor %v must be positive", st.Factor)
		}
		c.ScaleSelected(st.Factor)
	case "forward":
		c.ReorderSelected(Forward)
	case "backward":
		c.ReorderSelected(Backward)
	case "delete":
		c.DeleteSelected()
	case "undo":
		_, err := c.Undo()
		return err
	case "redo":
		_, err := c.Redo()
		return err
	case "export":
		label := st.Label
		if label == "" {
			label = e.ProjectName()
		}
		path, err := e.ExportFile(s.ExportDir, label)
		if err != nil {
			return err
		}
		s.exported = append(s.exported, path)
	}
	return nil
}
