// Package editor implements the interactive edit lifecycle of a shift on the
// day timeline: per-box drag and resize state, and the per-shift buffer of
// uncommitted edits that is saved as one unit.
package editor

import (
	"errors"
	"math"

	"github.com/dukerupert/shiftline/internal/geometry"
)

type State int

const (
	Idle State = iota
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return "unknown"
}

var (
	ErrBusy           = errors.New("box is already being dragged or resized")
	ErrNotDragging    = errors.New("box is not being dragged")
	ErrNotResizing    = errors.New("box is not being resized")
	ErrUnknownSegment = errors.New("unknown segment")
	ErrInvalidSpan    = errors.New("segment end must be after start")
)

// Box is the pixel geometry of one shift or segment plus its interaction
// state. X and Width only change when a drag or resize is released.
//
// While Dragging, Pointer follows the raw left edge and Pending holds the
// snapped position that will be kept on release. While Resizing the same
// pair tracks the width.
type Box struct {
	X       float64 `json:"x"`
	Width   float64 `json:"width"`
	State   State   `json:"state"`
	Pointer float64 `json:"pointer"`
	Pending float64 `json:"pending"`

	// MinWidth and MaxWidth bound resizing; MaxWidth 0 is unbounded.
	MinWidth float64 `json:"min_width"`
	MaxWidth float64 `json:"max_width"`
	// Bound is the width of the containing box. When positive, dragging
	// keeps the box inside [0, Bound].
	Bound float64 `json:"bound"`

	mapper geometry.Mapper
}

func NewBox(m geometry.Mapper, x, width float64) Box {
	return Box{X: x, Width: width, mapper: m}
}

func (b *Box) BeginDrag() error {
	if b.State != Idle {
		return ErrBusy
	}
	b.State = Dragging
	b.Pointer = b.X
	b.Pending = b.X
	return nil
}

// DragTo moves the pointer to x. The raw value is kept for display and the
// snapped value becomes Pending.
func (b *Box) DragTo(x float64) error {
	if b.State != Dragging {
		return ErrNotDragging
	}
	b.Pointer = b.clampX(x)
	b.Pending = b.clampX(b.mapper.Quantize(b.Pointer))
	return nil
}

// EndDrag snaps the final pointer position and freezes it as X.
func (b *Box) EndDrag(x float64) error {
	if err := b.DragTo(x); err != nil {
		return err
	}
	b.X = b.Pending
	b.reset()
	return nil
}

func (b *Box) BeginResize() error {
	if b.State != Idle {
		return ErrBusy
	}
	b.State = Resizing
	b.Pointer = b.Width
	b.Pending = b.Width
	return nil
}

// ResizeTo sets the raw width. Only the right edge moves.
func (b *Box) ResizeTo(width float64) error {
	if b.State != Resizing {
		return ErrNotResizing
	}
	b.Pointer = b.clampWidth(width)
	b.Pending = b.clampWidth(b.mapper.Quantize(b.Pointer))
	return nil
}

func (b *Box) EndResize(width float64) error {
	if err := b.ResizeTo(width); err != nil {
		return err
	}
	b.Width = b.Pending
	b.reset()
	return nil
}

// Cancel abandons an in-progress drag or resize, leaving X and Width as
// they were before it began.
func (b *Box) Cancel() {
	b.reset()
}

// Fit sets the containing width and pulls the box back inside it, shrinking
// first and then moving left. It reports whether X or Width changed.
func (b *Box) Fit(bound float64) bool {
	b.Bound = bound
	if bound <= 0 {
		return false
	}
	x, w := b.X, b.Width
	if w > bound {
		w = bound
	}
	x = math.Max(0, math.Min(x, bound-w))
	changed := x != b.X || w != b.Width
	b.X, b.Width = x, w
	return changed
}

func (b *Box) reset() {
	b.State = Idle
	b.Pointer = 0
	b.Pending = 0
}

func (b *Box) clampX(x float64) float64 {
	if b.Bound <= 0 {
		return x
	}
	return math.Max(0, math.Min(x, b.Bound-b.Width))
}

func (b *Box) clampWidth(w float64) float64 {
	if b.MaxWidth > 0 && w > b.MaxWidth {
		w = b.MaxWidth
	}
	if b.Bound > 0 && b.X+w > b.Bound {
		w = b.Bound - b.X
	}
	if w < b.MinWidth {
		w = b.MinWidth
	}
	return w
}
