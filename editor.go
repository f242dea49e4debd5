package facade

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// loadQueueSize is the capacity of the channel that carries finished image
// loads back to the UI thread.
const loadQueueSize = 32

// Option configures an Editor.
type Option func(*editorOptions)

type editorOptions struct {
	log         logrus.FieldLogger
	capacity    int
	rotateStep  float64
	scaleStep   float64
	deadZone    float64
	maxFraction float64
	newID       func() string
	loader      Loader
	debug       bool
}

// WithLogger sets the logger for the editor and its scene.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *editorOptions) { o.log = l }
}

// WithHistoryCapacity sets the number of undo steps kept.
func WithHistoryCapacity(n int) Option {
	return func(o *editorOptions) { o.capacity = n }
}

// WithRotateStep sets the angle in degrees used by RotateLeft and RotateRight.
func WithRotateStep(deg float64) Option {
	return func(o *editorOptions) { o.rotateStep = deg }
}

// WithScaleStep sets the factor used by Grow and Shrink. Must be above 1.
func WithScaleStep(f float64) Option {
	return func(o *editorOptions) { o.scaleStep = f }
}

// WithDragDeadZone sets the pointer travel required before a press becomes a
// drag.
func WithDragDeadZone(units float64) Option {
	return func(o *editorOptions) { o.deadZone = units }
}

// WithMaxOverlayFraction sets the widest an added overlay may be relative to
// the scene width.
func WithMaxOverlayFraction(f float64) Option {
	return func(o *editorOptions) { o.maxFraction = f }
}

// WithIDGenerator replaces the uuid-based overlay id source.
func WithIDGenerator(fn func() string) Option {
	return func(o *editorOptions) { o.newID = fn }
}

// WithLoader sets the image loader used by asynchronous requests, scripts and
// OpenSnapshot. The default is a RefLoader rooted at the working directory.
func WithLoader(l Loader) Option {
	return func(o *editorOptions) { o.loader = l }
}

// WithDebug enables scene invariant checks after every mutation.
func WithDebug(enabled bool) Option {
	return func(o *editorOptions) { o.debug = enabled }
}

// loadResult is a finished image load travelling back to the UI thread.
type loadResult struct {
	background bool
	seq        uint64 // background request sequence, or generation for overlays
	ref        string
	name       string
	img        Image
	err        error
}

// Editor ties the scene graph, its undo history and the manipulation
// controller together and owns the asynchronous image loading boundary.
//
// Every method except the internal load goroutines must be called from the
// same goroutine, normally the UI thread.
type Editor struct {
	scene      *Scene
	history    *History
	controller *Controller
	loader     Loader
	log        logrus.FieldLogger

	// bgSeq is the sequence number of the most recent background request.
	// Overlay loads carry the bgSeq that was current when they were
	// requested, so a newer background invalidates them.
	bgSeq           uint64
	bgPending       bool
	overlaysPending int
	results         chan loadResult
}

// NewEditor creates an editor with an empty scene.
func NewEditor(opts ...Option) *Editor {
	o := editorOptions{
		capacity:    DefaultHistoryCapacity,
		rotateStep:  DefaultRotateStep,
		scaleStep:   DefaultScaleStep,
		deadZone:    DefaultDragDeadZone,
		maxFraction: DefaultMaxOverlayFraction,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logrus.StandardLogger().WithField("component", "facade")
	}
	if o.loader == nil {
		o.loader = RefLoader{}
	}

	e := &Editor{
		scene:   NewScene(),
		history: NewHistory(o.capacity),
		loader:  o.loader,
		log:     o.log,
		results: make(chan loadResult, loadQueueSize),
	}
	e.scene.SetLogger(o.log)
	e.scene.SetMaxOverlayFraction(o.maxFraction)
	e.scene.SetDebugMode(o.debug)
	if o.newID != nil {
		e.scene.SetIDGenerator(o.newID)
	}
	e.controller = newController(e, o.deadZone, o.rotateStep, o.scaleStep)
	e.scene.OnMutation(e.onMutation)

	if snap, err := EncodeSnapshot(e.scene.State()); err == nil {
		e.history.Reset(snap)
	}
	return e
}

// Scene returns the editor's scene graph.
func (e *Editor) Scene() *Scene { return e.scene }

// History returns the editor's undo history.
func (e *Editor) History() *History { return e.history }

// Controller returns the pointer and keyboard controller.
func (e *Editor) Controller() *Controller { return e.controller }

// Loader returns the image loader.
func (e *Editor) Loader() Loader { return e.loader }

// onMutation records every committed scene change. A new background starts a
// fresh history.
func (e *Editor) onMutation(ev MutationEvent) {
	if ev.Interim || e.history.Applying() {
		return
	}
	snap, err := EncodeSnapshot(e.scene.State())
	if err != nil {
		e.log.WithError(err).Error("cannot record scene state")
		return
	}
	if ev.Kind == MutationBackground {
		e.history.Reset(snap)
		e.log.Debug("history reset for new background")
		return
	}
	e.history.Record(snap)
	e.log.WithFields(logrus.Fields{
		"kind":  ev.Kind.String(),
		"id":    ev.ID,
		"depth": e.history.Depth(),
	}).Debug("recorded")
}

// --- Scene operations ---

// LoadBackground replaces the background immediately. It supersedes any
// background load still in flight.
func (e *Editor) LoadBackground(img Image) error {
	return e.CompleteBackgroundLoad(e.BeginBackgroundLoad(), img, nil)
}

// AddOverlay adds img above all existing overlays and selects it. A drag in
// progress is committed first so the add never records an interim position.
func (e *Editor) AddOverlay(img Image, name string) (string, error) {
	e.controller.commitDrag()
	return e.scene.AddOverlay(img, name)
}

// Undo restores the state before the last recorded mutation. It reports
// false when there is nothing to undo.
func (e *Editor) Undo() (bool, error) {
	ok, err := e.history.Undo(e.applySnapshot)
	if err != nil {
		e.log.WithError(err).Warn("undo failed")
	} else if ok {
		e.log.WithField("depth", e.history.Depth()).Debug("undo")
	}
	return ok, err
}

// Redo re-applies the most recently undone state. It reports false when
// there is nothing to redo.
func (e *Editor) Redo() (bool, error) {
	ok, err := e.history.Redo(e.applySnapshot)
	if err != nil {
		e.log.WithError(err).Warn("redo failed")
	} else if ok {
		e.log.WithField("depth", e.history.Depth()).Debug("redo")
	}
	return ok, err
}

func (e *Editor) applySnapshot(snap Snapshot) error {
	st, err := DecodeSnapshot(snap)
	if err != nil {
		return err
	}
	return e.scene.Restore(st)
}

// Snapshot encodes the current scene.
func (e *Editor) Snapshot() (Snapshot, error) {
	return EncodeSnapshot(e.scene.State())
}

// OpenSnapshot loads every image snap references through the editor's loader
// and then replaces the scene with it. The opened state becomes the start of
// a fresh history. It blocks until all images are loaded; on any error the
// scene is left as it was.
func (e *Editor) OpenSnapshot(ctx context.Context, snap Snapshot) error {
	st, err := DecodeSnapshot(snap)
	if err != nil {
		return err
	}
	bg, err := e.loader.Load(ctx, st.Background.Ref)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	if err := checkLoaded(bg, st.Background.Ref); err != nil {
		return err
	}
	if w, h := bg.Size(); w != st.Background.Width || h != st.Background.Height {
		return fmt.Errorf("%w: background %s is %dx%d, snapshot expects %dx%d",
			ErrCorruptSnapshot, bg.Ref, w, h, st.Background.Width, st.Background.Height)
	}
	images := make(map[string]Image)
	for _, o := range st.Overlays {
		if _, ok := images[o.Ref]; ok {
			continue
		}
		img, err := e.loader.Load(ctx, o.Ref)
		if err != nil {
			return fmt.Errorf("open snapshot: %w", err)
		}
		if err := checkLoaded(img, o.Ref); err != nil {
			return err
		}
		images[o.Ref] = img
	}

	if err := e.LoadBackground(bg); err != nil {
		return err
	}
	for _, img := range images {
		if err := e.scene.RegisterImage(img); err != nil {
			return err
		}
	}
	e.history.applying = true
	err = e.scene.Restore(st)
	e.history.applying = false
	if err != nil {
		return err
	}
	snap, err = e.Snapshot()
	if err != nil {
		return err
	}
	e.history.Reset(snap)
	e.log.WithFields(logrus.Fields{
		"background": st.Background.Ref,
		"overlays":   len(st.Overlays),
	}).Info("opened snapshot")
	return nil
}

// checkLoaded verifies that a loader returned a usable image under the
// reference it was asked for. Restore matches images by reference.
func checkLoaded(img Image, ref string) error {
	if err := img.validate(); err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	if img.Ref != ref {
		return fmt.Errorf("%w: loader returned %q for %q", ErrCorruptSnapshot, img.Ref, ref)
	}
	return nil
}

// ProjectName returns the name an edited composition is saved under: the
// background's base name with an "-edited" suffix.
func (e *Editor) ProjectName() string {
	ref := ""
	if bg, ok := e.scene.Background(); ok {
		ref = bg.Ref
	}
	return baseName(ref) + "-edited"
}

// --- Image loading ---

// BeginBackgroundLoad starts a background load and returns its sequence
// number. Any earlier background request, and any overlay load requested
// before this call, becomes stale.
func (e *Editor) BeginBackgroundLoad() uint64 {
	e.bgSeq++
	e.bgPending = true
	return e.bgSeq
}

// CompleteBackgroundLoad applies the result of the background load seq. A
// stale completion is discarded without touching the scene and returns nil.
// A load error is returned and leaves the scene unchanged.
func (e *Editor) CompleteBackgroundLoad(seq uint64, img Image, loadErr error) error {
	if seq != e.bgSeq {
		e.log.WithFields(logrus.Fields{"seq": seq, "latest": e.bgSeq}).
			Debug("discarding stale background load")
		return nil
	}
	e.bgPending = false
	if loadErr != nil {
		return fmt.Errorf("load background: %w", loadErr)
	}
	if err := e.scene.LoadBackground(img); err != nil {
		return err
	}
	w, h := img.Size()
	e.log.WithFields(logrus.Fields{"ref": img.Ref, "width": w, "height": h}).Info("background loaded")
	return nil
}

// BeginOverlayLoad starts an overlay load and returns the generation it
// belongs to; pass it to CompleteOverlayLoad.
func (e *Editor) BeginOverlayLoad() uint64 {
	e.overlaysPending++
	return e.bgSeq
}

// CompleteOverlayLoad adds the loaded overlay if the background it was
// requested for is still current. Stale completions are discarded and
// return an empty id with no error.
func (e *Editor) CompleteOverlayLoad(gen uint64, img Image, name string, loadErr error) (string, error) {
	if e.overlaysPending > 0 {
		e.overlaysPending--
	}
	if gen != e.bgSeq {
		e.log.WithFields(logrus.Fields{"ref": img.Ref, "generation": gen}).
			Debug("discarding overlay load for replaced background")
		return "", nil
	}
	if loadErr != nil {
		return "", fmt.Errorf("load overlay: %w", loadErr)
	}
	return e.AddOverlay(img, name)
}

// Loading reports whether any background or overlay load is pending.
func (e *Editor) Loading() bool {
	return e.bgPending || e.overlaysPending > 0
}

// RequestBackground loads ref on a separate goroutine. The result is applied
// by a later Poll. Returns the request's sequence number.
func (e *Editor) RequestBackground(ctx context.Context, ref string) uint64 {
	seq := e.BeginBackgroundLoad()
	go e.load(ctx, loadResult{background: true, seq: seq, ref: ref})
	return seq
}

// RequestOverlay loads ref on a separate goroutine and adds it as an overlay
// named name when a later Poll sees the result. Returns the background
// generation the request belongs to.
func (e *Editor) RequestOverlay(ctx context.Context, ref, name string) uint64 {
	gen := e.BeginOverlayLoad()
	go e.load(ctx, loadResult{seq: gen, ref: ref, name: name})
	return gen
}

// load runs off the UI thread. It only touches the loader and the results
// channel. Results are always delivered so that pending counts stay
// accurate; a cancelled context surfaces as the load error.
func (e *Editor) load(ctx context.Context, r loadResult) {
	r.img, r.err = e.loader.Load(ctx, r.ref)
	e.results <- r
}

// Poll applies every finished load without blocking. Call it once per frame
// from the UI thread. Errors from individual loads are joined.
func (e *Editor) Poll() error {
	var errs []error
	for {
		select {
		case r := <-e.results:
			if err := e.complete(r); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}

// WaitIdle blocks until no load is pending, applying results as they
// arrive. Used by headless sessions that have no frame loop.
func (e *Editor) WaitIdle(ctx context.Context) error {
	var errs []error
	for e.Loading() {
		select {
		case r := <-e.results:
			if err := e.complete(r); err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
			return errors.Join(errs...)
		}
	}
	return errors.Join(errs...)
}

func (e *Editor) complete(r loadResult) error {
	if errors.Is(r.err, context.Canceled) {
		e.log.WithField("ref", r.ref).Debug("load cancelled")
	}
	if r.background {
		err := e.CompleteBackgroundLoad(r.seq, r.img, r.err)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	_, err := e.CompleteOverlayLoad(r.seq, r.img, r.name, r.err)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
