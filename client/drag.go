package client

import (
	"context"
	"math"

	"github.com/lolo262652/tasknot/internal/models"
)

// DefaultActivationDistance is how far the pointer must travel from its
// origin before a press becomes a drag, so clicks on a card's edit and
// delete affordances do not start one.
const DefaultActivationDistance = 8

// Point is a pointer position in board coordinates.
type Point struct {
	X, Y float64
}

func (p Point) distanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned region of the board.
type Rect struct {
	Min, Max Point
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// DropTarget is one status column's droppable region.
type DropTarget struct {
	Status models.TaskStatus
	Bounds Rect
}

// CardHitTest resolves a pointer position to the task card under it.
type CardHitTest func(Point) (taskID string, ok bool)

type dragPhase int

const (
	dragIdle dragPhase = iota
	dragPressed
	dragActive
)

// DragController maps a pointer gesture over the board to at most one
// status transition: press on a card, move past the activation distance,
// release over a column other than the task's current one.
type DragController struct {
	store    *TaskStore
	hitTest  CardHitTest
	targets  []DropTarget
	distance float64

	phase  dragPhase
	origin Point
	taskID string
}

// NewDragController creates a controller over the task store. The
// controller is driven from the single input-event goroutine and holds no
// lock of its own.
func NewDragController(store *TaskStore, hitTest CardHitTest) *DragController {
	return &DragController{
		store:    store,
		hitTest:  hitTest,
		distance: DefaultActivationDistance,
	}
}

// SetDropTargets replaces the column drop regions, typically after a layout
// pass.
func (d *DragController) SetDropTargets(targets []DropTarget) {
	d.targets = targets
}

// ActiveTask returns the task being dragged, once the gesture has passed
// the activation distance.
func (d *DragController) ActiveTask() (string, bool) {
	if d.phase != dragActive {
		return "", false
	}
	return d.taskID, true
}

// Press starts a gesture. If no card is under the pointer the controller
// stays idle.
func (d *DragController) Press(p Point) {
	id, ok := d.hitTest(p)
	if !ok {
		d.reset()
		return
	}
	d.phase = dragPressed
	d.origin = p
	d.taskID = id
}

// Move updates the gesture; a press becomes a drag once the pointer has
// travelled the activation distance from its origin.
func (d *DragController) Move(p Point) {
	if d.phase == dragPressed && d.origin.distanceTo(p) >= d.distance {
		d.phase = dragActive
	}
}

// Release ends the gesture. A drag released over a column that differs from
// the task's current status issues exactly one status transition; a release
// anywhere else, or of a press that never became a drag, mutates nothing.
func (d *DragController) Release(ctx context.Context, p Point) error {
	defer d.reset()

	if d.phase != dragActive {
		return nil
	}

	target, ok := d.targetAt(p)
	if !ok {
		return nil
	}

	task, ok := d.store.Get(d.taskID)
	if !ok || task.Status == target.Status {
		return nil
	}

	return d.store.UpdateStatus(ctx, d.taskID, target.Status)
}

func (d *DragController) targetAt(p Point) (DropTarget, bool) {
	for _, t := range d.targets {
		if t.Bounds.Contains(p) {
			return t, true
		}
	}
	return DropTarget{}, false
}

func (d *DragController) reset() {
	d.phase = dragIdle
	d.taskID = ""
}
