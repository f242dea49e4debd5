// Package surface displays a facade editor in an Ebitengine window and feeds
// mouse, touch and keyboard input back into it.
package surface

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sirupsen/logrus"

	"github.com/phanxgames/facade"
)

const (
	defaultZoomStep = 1.25
	// noticeTicks is how long a status message stays on screen.
	noticeTicks = 180
	helpText    = "1-9: add product  drag: move  Q/E: rotate  +/-: size  PgUp/PgDn: layer  Del: delete  Ctrl+Z/Y: undo/redo  Ctrl+S: save  Ctrl+E: export"
)

var (
	backdrop       = color.RGBA{R: 0x22, G: 0x22, B: 0x26, A: 0xff}
	selectionColor = color.RGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}
)

// Config configures a Surface.
type Config struct {
	Title         string
	Width, Height int
	// ZoomStep is the factor applied per zoom-in step.
	ZoomStep float64
	// OnSave receives the project name and the rendered PNG on Ctrl+S.
	OnSave func(name string, png []byte) error
	// OnExport receives the rendered PNG on Ctrl+E and returns where it went.
	OnExport func(name string, png []byte) (string, error)
	// Palette lists the products placed by the digit keys 1-9.
	Palette []PaletteEntry
	Logger  logrus.FieldLogger
}

// PaletteEntry is a product that can be dropped onto the scene.
type PaletteEntry struct {
	Name string
	Ref  string
}

// Surface is an ebiten.Game that shows an editor's scene.
type Surface struct {
	editor *facade.Editor
	cfg    Config
	camera *Camera
	log    logrus.FieldLogger

	textures map[string]*ebiten.Image
	bg       facade.Background

	mouseDown bool
	touching  bool
	touchID   ebiten.TouchID
	touchX    float64
	touchY    float64
	touchIDs  []ebiten.TouchID
	keys      []ebiten.Key

	notice      string
	noticeTicks int
}

// New creates a surface for editor.
func New(editor *facade.Editor, cfg Config) *Surface {
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 800
	}
	if cfg.ZoomStep <= 1 {
		cfg.ZoomStep = defaultZoomStep
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger().WithField("component", "surface")
	}
	return &Surface{
		editor:   editor,
		cfg:      cfg,
		camera:   NewCamera(facade.Rect{Width: float64(cfg.Width), Height: float64(cfg.Height)}),
		log:      cfg.Logger,
		textures: make(map[string]*ebiten.Image),
	}
}

// Run opens a window and blocks until it is closed.
func Run(editor *facade.Editor, cfg Config) error {
	s := New(editor, cfg)
	ebiten.SetWindowTitle(s.cfg.Title)
	ebiten.SetWindowSize(s.cfg.Width, s.cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(s); err != nil {
		return fmt.Errorf("run surface: %w", err)
	}
	return nil
}

// Camera returns the surface camera.
func (s *Surface) Camera() *Camera {
	return s.camera
}

// Update implements ebiten.Game.
func (s *Surface) Update() error {
	if err := s.editor.Poll(); err != nil {
		s.log.WithError(err).Warn("image load failed")
		s.notify(loadNotice(err))
	}
	s.syncBackground()
	s.camera.Update(1 / float32(ebiten.TPS()))

	mods := readModifiers()
	s.keys = inpututil.AppendJustPressedKeys(s.keys[:0])
	for _, k := range s.keys {
		if slot, ok := paletteSlot(k, mods); ok {
			s.place(slot)
			continue
		}
		if err := s.apply(actionForKey(k, mods)); err != nil {
			s.log.WithError(err).Warn("action failed")
			s.notify(err.Error())
		}
	}
	if _, wy := ebiten.Wheel(); wy > 0 {
		s.camera.ZoomBy(s.cfg.ZoomStep)
	} else if wy < 0 {
		s.camera.ZoomBy(1 / s.cfg.ZoomStep)
	}

	s.processTouch()
	if !s.touching {
		s.processMouse()
	}

	if s.noticeTicks > 0 {
		s.noticeTicks--
	}
	return nil
}

// Draw implements ebiten.Game.
func (s *Surface) Draw(screen *ebiten.Image) {
	screen.Fill(backdrop)
	view := s.camera.GeoM()
	scene := s.editor.Scene()

	for _, cmd := range scene.DrawList() {
		img := s.texture(cmd.Ref)
		if img == nil {
			continue
		}
		op := &ebiten.DrawImageOptions{}
		op.GeoM = layerGeoM(cmd.Matrix)
		op.GeoM.Concat(view)
		op.Filter = ebiten.FilterLinear
		screen.DrawImage(img, op)
	}

	if id, ok := scene.Selection(); ok {
		if o, ok := scene.Overlay(id); ok {
			s.drawOutline(screen, o.Corners())
		}
	}
	s.drawHUD(screen)
}

// Layout implements ebiten.Game.
func (s *Surface) Layout(outsideWidth, outsideHeight int) (int, int) {
	s.camera.SetViewport(facade.Rect{Width: float64(outsideWidth), Height: float64(outsideHeight)})
	return outsideWidth, outsideHeight
}

// --- Input ---

func (s *Surface) processMouse() {
	mx, my := ebiten.CursorPosition()
	x, y := s.camera.ScreenToScene(float64(mx), float64(my))
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	c := s.editor.Controller()
	switch {
	case pressed && !s.mouseDown:
		c.PointerDown(x, y)
	case pressed && s.mouseDown:
		c.PointerMove(x, y)
	case !pressed && s.mouseDown:
		c.PointerUp(x, y)
	}
	s.mouseDown = pressed
}

// processTouch follows the first finger down; further fingers are ignored.
func (s *Surface) processTouch() {
	s.touchIDs = ebiten.AppendTouchIDs(s.touchIDs[:0])
	c := s.editor.Controller()
	if !s.touching {
		if len(s.touchIDs) == 0 {
			return
		}
		s.touching = true
		s.touchID = s.touchIDs[0]
		tx, ty := ebiten.TouchPosition(s.touchID)
		s.touchX, s.touchY = s.camera.ScreenToScene(float64(tx), float64(ty))
		c.PointerDown(s.touchX, s.touchY)
		return
	}
	for _, id := range s.touchIDs {
		if id == s.touchID {
			tx, ty := ebiten.TouchPosition(id)
			s.touchX, s.touchY = s.camera.ScreenToScene(float64(tx), float64(ty))
			c.PointerMove(s.touchX, s.touchY)
			return
		}
	}
	c.PointerUp(s.touchX, s.touchY)
	s.touching = false
}

// apply runs a keyboard action against the editor.
func (s *Surface) apply(a Action) error {
	c := s.editor.Controller()
	switch a {
	case ActionDelete:
		c.DeleteSelected()
	case ActionUndo:
		_, err := c.Undo()
		return err
	case ActionRedo:
		_, err := c.Redo()
		return err
	case ActionRotateLeft:
		c.RotateLeft()
	case ActionRotateRight:
		c.RotateRight()
	case ActionForward:
		c.ReorderSelected(facade.Forward)
	case ActionBackward:
		c.ReorderSelected(facade.Backward)
	case ActionGrow:
		c.Grow()
	case ActionShrink:
		c.Shrink()
	case ActionCancel:
		c.PointerCancel()
		s.mouseDown = false
	case ActionSave:
		return s.save()
	case ActionExport:
		return s.export()
	case ActionZoomIn:
		s.camera.ZoomBy(s.cfg.ZoomStep)
	case ActionZoomOut:
		s.camera.ZoomBy(1 / s.cfg.ZoomStep)
	case ActionFit:
		w, h := s.editor.Scene().Size()
		s.camera.Fit(w, h)
	}
	return nil
}

// place requests the palette entry at slot as a new overlay. The image is
// added by a later Poll once it has loaded.
func (s *Surface) place(slot int) bool {
	if slot >= len(s.cfg.Palette) {
		return false
	}
	if _, ok := s.editor.Scene().Background(); !ok {
		s.notify("load a background first")
		return false
	}
	p := s.cfg.Palette[slot]
	s.editor.RequestOverlay(context.Background(), p.Ref, p.Name)
	s.notify("adding " + p.Name)
	return true
}

func (s *Surface) save() error {
	if s.cfg.OnSave == nil {
		return nil
	}
	data, err := s.editor.ExportPNG()
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	name := s.editor.ProjectName()
	if err := s.cfg.OnSave(name, data); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	s.notify("saved " + name)
	return nil
}

func (s *Surface) export() error {
	if s.cfg.OnExport == nil {
		return nil
	}
	data, err := s.editor.ExportPNG()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	where, err := s.cfg.OnExport(s.editor.ProjectName(), data)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	s.notify("exported " + where)
	return nil
}

// --- Drawing ---

// syncBackground refits the camera and drops cached textures when the
// background changes.
func (s *Surface) syncBackground() {
	bg, _ := s.editor.Scene().Background()
	if bg == s.bg {
		return
	}
	s.bg = bg
	for ref, img := range s.textures {
		img.Deallocate()
		delete(s.textures, ref)
	}
	s.camera.Fit(float64(bg.Width), float64(bg.Height))
}

func (s *Surface) texture(ref string) *ebiten.Image {
	if img, ok := s.textures[ref]; ok {
		return img
	}
	src, ok := s.editor.Scene().Image(ref)
	if !ok {
		return nil
	}
	img := ebiten.NewImageFromImage(src)
	s.textures[ref] = img
	return img
}

func (s *Surface) drawOutline(screen *ebiten.Image, corners [4]facade.Vec2) {
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		x0, y0 := s.camera.SceneToScreen(a.X, a.Y)
		x1, y1 := s.camera.SceneToScreen(b.X, b.Y)
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 2, selectionColor, true)
	}
}

func (s *Surface) drawHUD(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, helpText, 4, 4)
	h := screen.Bounds().Dy()
	status := fmt.Sprintf("undo %d  redo %d  zoom %.0f%%",
		s.editor.History().Depth()-1, s.editor.History().RedoDepth(), s.camera.Zoom*100)
	if s.editor.Loading() {
		status = "loading...  " + status
	}
	ebitenutil.DebugPrintAt(screen, status, 4, h-16)
	if s.noticeTicks > 0 {
		ebitenutil.DebugPrintAt(screen, s.notice, 4, h-32)
	}
}

func (s *Surface) notify(msg string) {
	s.notice = msg
	s.noticeTicks = noticeTicks
}

// layerGeoM converts a scene layer matrix [a, b, c, d, tx, ty] to GeoM.
func layerGeoM(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

func loadNotice(err error) string {
	if errors.Is(err, facade.ErrInvalidImage) {
		return "could not load image"
	}
	return err.Error()
}
