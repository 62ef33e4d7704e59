// Package gesture interprets raw pointer primitives (press, move, release,
// leave) into annotation store mutations. It is a small state machine: Idle,
// Drawing, Dragging, Resizing. Gestures are only live in frame-annotation
// mode; in continuous mode every pointer event is inert.
package gesture

import (
	"fmt"

	"github.com/lewtec/polypmark/internal/domain"
	"github.com/lewtec/polypmark/internal/geometry"
	"github.com/lewtec/polypmark/internal/store"
)

// State is the interpreter's current interaction state.
type State int

const (
	StateIdle State = iota
	StateDrawing
	StateDragging
	StateResizing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	default:
		return "unknown"
	}
}

// HandleExtent is the half-width of the square hit target around an
// annotation's bottom-right corner that starts a resize.
const HandleExtent = 8.0

// DefaultMinSize is the smallest edge a resize can produce, in pixels.
const DefaultMinSize = 30.0

// Config wires an interpreter to the session that owns it.
type Config struct {
	Store   *store.Store
	IDs     *domain.IDSource
	VideoID int64

	// MinSize is the resize floor; DefaultMinSize when zero.
	MinSize float64

	// Commit is called after every store mutation that must reach the
	// persistence collaborator. Every intermediate drag and resize step is
	// committed; there is no debouncing.
	Commit func(domain.Annotation)

	// Discard is called when an annotation is deleted so the persisted
	// copy can be removed as well.
	Discard func(domain.Annotation)
}

// Interpreter consumes pointer events and mutates the annotation store.
// Like the store it is owned by a single session and is not safe for
// concurrent use.
type Interpreter struct {
	cfg    Config
	bounds geometry.Bounds

	mode       domain.ViewMode
	frameIndex int

	state    State
	anchorX  float64
	anchorY  float64
	draft    geometry.Rect
	hasDraft bool
	active   int64
	grabDX   float64
	grabDY   float64
	lastX    float64
	lastY    float64
}

// New returns an interpreter in the Idle state.
func New(cfg Config) *Interpreter {
	if cfg.MinSize <= 0 {
		cfg.MinSize = DefaultMinSize
	}
	if cfg.Commit == nil {
		cfg.Commit = func(domain.Annotation) {}
	}
	if cfg.Discard == nil {
		cfg.Discard = func(domain.Annotation) {}
	}
	return &Interpreter{cfg: cfg}
}

// SetBounds updates the pixel size of the rendered surface. Every mutation
// is clamped against these bounds.
func (in *Interpreter) SetBounds(b geometry.Bounds) { in.bounds = b }

// SetView tells the interpreter which mode and 0-based frame index the
// session is on. Changing view aborts any gesture in progress.
func (in *Interpreter) SetView(mode domain.ViewMode, frameIndex int) {
	in.mode = mode
	in.frameIndex = frameIndex
	in.reset()
}

// State returns the current interaction state.
func (in *Interpreter) State() State { return in.state }

// Draft returns the live preview rectangle while a new box is being drawn.
func (in *Interpreter) Draft() (geometry.Rect, bool) {
	return in.draft, in.hasDraft
}

// currentFrame is the 1-based frame number edits are anchored to.
func (in *Interpreter) currentFrame() int { return in.frameIndex + 1 }

// Press starts a gesture: drawing on empty surface, dragging on an open
// annotation's body, resizing on its bottom-right handle. Pressing a closed
// annotation only selects it.
func (in *Interpreter) Press(x, y float64) {
	if in.mode != domain.ModeFrameAnnotation || in.state != StateIdle {
		return
	}
	anns := in.cfg.Store.FilterByFrame(in.currentFrame())

	// Topmost first: the most recently drawn annotation wins the hit.
	for i := len(anns) - 1; i >= 0; i-- {
		a := anns[i]
		if a.Open() && onHandle(a, x, y) {
			in.cfg.Store.Select(a.ID)
			in.state = StateResizing
			in.active = a.ID
			in.lastX, in.lastY = x, y
			return
		}
	}
	for i := len(anns) - 1; i >= 0; i-- {
		a := anns[i]
		if rectOf(a).Contains(x, y) {
			in.cfg.Store.Select(a.ID)
			if !a.Open() {
				return
			}
			in.state = StateDragging
			in.active = a.ID
			in.grabDX, in.grabDY = x-a.X, y-a.Y
			return
		}
	}

	in.state = StateDrawing
	in.anchorX, in.anchorY = x, y
	in.draft = geometry.Clamp(geometry.FromCorners(x, y, x, y), in.bounds)
	in.hasDraft = true
}

// Move advances the gesture in progress. Dragging and resizing commit every
// intermediate step to the store and to the persistence collaborator.
func (in *Interpreter) Move(x, y float64) {
	switch in.state {
	case StateDrawing:
		in.draft = geometry.Clamp(geometry.FromCorners(in.anchorX, in.anchorY, x, y), in.bounds)

	case StateDragging:
		a, ok := in.cfg.Store.Get(in.active)
		if !ok || !a.Open() {
			in.reset()
			return
		}
		moved := geometry.Translate(rectOf(a), (x-in.grabDX)-a.X, (y-in.grabDY)-a.Y, in.bounds)
		in.apply(&a, moved)

	case StateResizing:
		a, ok := in.cfg.Store.Get(in.active)
		if !ok || !a.Open() {
			in.reset()
			return
		}
		resized := geometry.Resize(rectOf(a), x-in.lastX, y-in.lastY, in.bounds, in.cfg.MinSize)
		in.lastX, in.lastY = x, y
		in.apply(&a, resized)
	}
}

// Release ends the gesture. Releasing a drawing creates a new open
// annotation with the final clamped rectangle; a press-release with no
// movement still creates a minimal one.
func (in *Interpreter) Release() {
	if in.state == StateDrawing {
		a := domain.Annotation{
			ID:         in.cfg.IDs.Next(),
			VideoID:    in.cfg.VideoID,
			Frame:      in.currentFrame(),
			StartFrame: in.currentFrame(),
			X:          in.draft.X,
			Y:          in.draft.Y,
			Width:      in.draft.Width,
			Height:     in.draft.Height,
		}
		in.cfg.Store.Upsert(a)
		in.cfg.Store.Select(a.ID)
		in.cfg.Commit(a)
	}
	in.reset()
}

// Leave handles the pointer leaving the rendering surface: an implicit
// release.
func (in *Interpreter) Leave() {
	if in.state == StateIdle {
		return
	}
	in.Release()
}

// End closes an open annotation at the current frame. Ending an unknown
// identity is a no-op; ending a closed one is a validation error.
func (in *Interpreter) End(id int64) error {
	if in.mode != domain.ModeFrameAnnotation {
		return &domain.ValidationError{Reason: "end is only valid in frame-annotation mode"}
	}
	a, ok := in.cfg.Store.Get(id)
	if !ok {
		return nil
	}
	if !a.Open() {
		return &domain.ValidationError{Reason: fmt.Sprintf("annotation %d is already closed", id)}
	}
	a.EndFrame = in.currentFrame()
	in.cfg.Store.Upsert(a)
	in.cfg.Commit(a)
	return nil
}

// Delete removes an annotation in any state, clears the selection if it was
// selected and asks the collaborator to drop the persisted copy. Deleting
// an unknown identity is a no-op.
func (in *Interpreter) Delete(id int64) {
	a, ok := in.cfg.Store.Get(id)
	if !ok {
		return
	}
	if in.active == id {
		in.reset()
	}
	in.cfg.Store.Remove(id)
	in.cfg.Discard(a)
}

// DeleteSelected is the keyboard shortcut: delete whatever is selected.
func (in *Interpreter) DeleteSelected() {
	if id, ok := in.cfg.Store.Selected(); ok {
		in.Delete(id)
	}
}

// SetNotes replaces the free-text label of an annotation, open or closed.
func (in *Interpreter) SetNotes(id int64, text string) error {
	a, ok := in.cfg.Store.Get(id)
	if !ok {
		return &domain.ValidationError{Reason: fmt.Sprintf("unknown annotation %d", id)}
	}
	a.Notes = text
	in.cfg.Store.Upsert(a)
	in.cfg.Commit(a)
	return nil
}

func (in *Interpreter) apply(a *domain.Annotation, r geometry.Rect) {
	a.X, a.Y, a.Width, a.Height = r.X, r.Y, r.Width, r.Height
	in.cfg.Store.Upsert(*a)
	in.cfg.Commit(*a)
}

func (in *Interpreter) reset() {
	in.state = StateIdle
	in.active = 0
	in.hasDraft = false
}

func rectOf(a domain.Annotation) geometry.Rect {
	return geometry.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
}

func onHandle(a domain.Annotation, x, y float64) bool {
	cx, cy := a.X+a.Width, a.Y+a.Height
	return x >= cx-HandleExtent && x <= cx+HandleExtent &&
		y >= cy-HandleExtent && y <= cy+HandleExtent
}
