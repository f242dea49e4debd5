// Package facade is the core of an interactive facade editor: a background
// photo of a building with product images (gates, shutters) layered on top,
// manipulated with the pointer and backed by a linear undo/redo history.
//
// # Quick start
//
//	ed := facade.NewEditor()
//	bg, _ := ed.Loader().Load(ctx, "house.jpg")
//	ed.LoadBackground(bg)
//
//	gate, _ := ed.Loader().Load(ctx, "gates/wrought-iron.png")
//	ed.AddOverlay(gate, "Wrought iron gate")
//
//	ed.Controller().PointerDown(400, 300)
//	ed.Controller().PointerMove(420, 340)
//	ed.Controller().PointerUp(420, 340) // one history entry for the whole drag
//	ed.Undo()
//
//	png, _ := ed.ExportPNG()
//
// # Scene graph
//
// A [Scene] holds one locked [Background] and an ordered stack of
// [Overlay] values. Overlay positions are centers in scene coordinates,
// which are the background's pixel coordinates. Stacking indices are
// always dense: after any add, remove or reorder the overlays' Z values are
// exactly 0..N-1. Selection is transient and never recorded.
//
// Every committed mutation fires a [MutationEvent]. The [Editor] encodes
// the scene into a [Snapshot] after each one and records it in its
// [History]; gesture frames are flagged Interim and skipped, so a whole
// drag undoes in one step.
//
// # Image loading
//
// Loading images is the only asynchronous operation.
// [Editor.RequestBackground] and [Editor.RequestOverlay] decode on a
// goroutine; [Editor.Poll], called once per frame, applies the results on
// the UI thread. A background request supersedes every earlier background
// and overlay request still in flight.
//
// The interactive window lives in facade/surface, built on [Ebitengine].
//
// [Ebitengine]: https://ebitengine.org
package facade
