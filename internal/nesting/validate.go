package nesting

import (
	"fmt"

	"github.com/piwi3910/nestforge/internal/collision"
	"github.com/piwi3910/nestforge/internal/geometry"
	"github.com/piwi3910/nestforge/internal/model"
)

// PlacedDesign pairs a placement with the Design it places, so validation
// can re-render the polygon without the driver's book-keeping.
type PlacedDesign struct {
	Design    model.Design
	Placement model.Placement
}

// rendered returns the world-frame polygon for a placed design, rotating
// its main polygon about its own bbox centre then translating by the
// placement's X,Y.
func (pd PlacedDesign) rendered() model.Polygon {
	unshifted := geometry.RotateAboutBBoxCentre(pd.Design.MainPolygon(), float64(pd.Placement.Rotation))
	return geometry.TranslatePolygon(unshifted, pd.Placement.X, pd.Placement.Y)
}

// Validate checks a user-supplied placement list against a sheet and
// margin: every placement must be contained in the sheet
// shrunk by margin (0 for hard bounds, or the configured margin for
// the drag-time "still valid" test), and the set must be pairwise
// collision-free at margin. It collects one human-readable message per
// violation instead of stopping at the first.
func Validate(placed []PlacedDesign, sheet model.BoundingBox, margin float64) []string {
	var errs []string
	rendered := make([]model.Polygon, len(placed))
	for i, pd := range placed {
		rendered[i] = pd.rendered()
		if !collision.PolygonInsideBounds(rendered[i], sheet, margin) {
			errs = append(errs, fmt.Sprintf("placement %d (design %s) is outside the sheet bounds at margin %.2f", i, pd.Design.ID, margin))
		}
	}

	for i := 0; i < len(rendered); i++ {
		for j := i + 1; j < len(rendered); j++ {
			if collision.Collides(rendered[i], rendered[j], margin) {
				errs = append(errs, fmt.Sprintf("placement %d (design %s) collides with placement %d (design %s)", i, placed[i].Design.ID, j, placed[j].Design.ID))
			}
		}
	}
	return errs
}

// DragState models the interactive-drag state machine:
// Idle -> DraggingPending on press, -> Dragging on a validated move (the
// position updates only if Validate reports no errors), -> Idle on
// release. Invalid moves leave the position unchanged.
type DragState int

const (
	DragIdle DragState = iota
	DragPending
	DragDragging
)

// Dragger drives one placement's interactive drag state. It is not safe
// for concurrent use.
type Dragger struct {
	state       DragState
	placed      []PlacedDesign
	activeIndex int
	sheet       model.BoundingBox
	margin      float64
}

// NewDragger returns a Dragger over the given placement set.
func NewDragger(placed []PlacedDesign, sheet model.BoundingBox, margin float64) *Dragger {
	return &Dragger{state: DragIdle, placed: placed, sheet: sheet, margin: margin}
}

// Press begins a drag on placed[index] (Idle -> DraggingPending).
func (dr *Dragger) Press(index int) {
	if dr.state != DragIdle || index < 0 || index >= len(dr.placed) {
		return
	}
	dr.state = DragPending
	dr.activeIndex = index
}

// Move attempts to relocate the active placement to (x, y). The position
// updates only if the resulting set validates against Validate's rules;
// otherwise the placement keeps its prior position (DraggingPending or
// Dragging -> Dragging, conceptually, with position update conditional).
func (dr *Dragger) Move(x, y float64) bool {
	if dr.state == DragIdle {
		return false
	}
	prev := dr.placed[dr.activeIndex].Placement
	dr.placed[dr.activeIndex].Placement.X = x
	dr.placed[dr.activeIndex].Placement.Y = y

	if errs := Validate(dr.placed, dr.sheet, dr.margin); len(errs) > 0 {
		dr.placed[dr.activeIndex].Placement = prev
		dr.state = DragDragging
		return false
	}
	dr.state = DragDragging
	return true
}

// Release ends the drag (Dragging/DraggingPending -> Idle).
func (dr *Dragger) Release() {
	dr.state = DragIdle
}
