// Package blf implements the deterministic Bottom-Left-Fill placer: per
// candidate placement it computes the valid area from the Inner-Fit
// Polygon minus the union of placed-part No-Fit-Polygons, grid-samples it,
// applies the bottom-left tie-break, and re-validates the candidate in the
// rendered (rotate-about-bbox-centre) frame before commit.
package blf

import (
	"math"

	"github.com/piwi3910/nestforge/internal/boolean"
	"github.com/piwi3910/nestforge/internal/collision"
	"github.com/piwi3910/nestforge/internal/geometry"
	"github.com/piwi3910/nestforge/internal/model"
	"github.com/piwi3910/nestforge/internal/nfp"
)

// targetGridCandidates is the §4.5 "target of 10^5 candidates" used to pick
// the adaptive grid step.
const targetGridCandidates = 100000.0

// placedPart is one already-committed part, kept in both reasoning frames:
// Polygon is the origin-normalised, rotated pattern used for NFP lookups;
// Rendered is the rotate-about-bbox-centre-then-translate polygon used for
// the final collision oracle check.
type placedPart struct {
	Polygon  model.Polygon // origin-normalised at rotation time, unshifted
	Position model.Point   // world anchor position (NFP frame)
	Rendered model.Polygon // world rendered polygon
	Rotation float64
}

// Result is the outcome of one Placer.Pack/PackWithRotations call.
type Result struct {
	Placements []model.Placement
	Rendered   []model.Polygon // rendered polygons, parallel to Placements
}

// Placer runs the single-shape deterministic BLF packer.
type Placer struct {
	engine *boolean.Engine
	nfpGen *nfp.Generator
	config model.Config
}

// NewPlacer returns a Placer bound to one boolean engine and NFP generator
// instance — both are not safe for concurrent reuse across jobs.
func NewPlacer(engine *boolean.Engine, gen *nfp.Generator, cfg model.Config) *Placer {
	return &Placer{engine: engine, nfpGen: gen, config: cfg}
}

// candidate is a bottom-left position found for one rotation attempt.
type candidate struct {
	point       model.Point
	rotatedPart model.Polygon
	rotation    float64
}

// packState holds the per-run working data threaded through the shared
// main loop used by both Pack (tries every rotation each iteration) and
// PackWithRotations (tries one gene-specified rotation each iteration).
type packState struct {
	mainPolygon   model.Polygon
	mainCentre    model.Point
	sheet         model.BoundingBox
	baseStep      float64
	maxPlacements int
	attemptBudget int
	designID      string
	placed        []placedPart
	result        Result
}

// EstimateMaxPlacements returns the chromosome length N used by the genetic
// search: the same upper bound on placement count that
// Pack/PackWithRotations use internally to cap their main loop.
func EstimateMaxPlacements(design model.Design, sheet model.BoundingBox) int {
	if design.TotalArea <= 0 {
		return 0
	}
	sheetArea := sheet.Width * sheet.Height
	if sheetArea <= 0 {
		return 0
	}
	return int(math.Ceil(sheetArea/design.TotalArea)) + 10
}

func (pl *Placer) newPackState(design model.Design, sheet model.BoundingBox) (*packState, bool) {
	mainPolygon := design.MainPolygon()
	if len(mainPolygon) < 3 || design.TotalArea <= 0 {
		return nil, false
	}
	maxPlacements := EstimateMaxPlacements(design, sheet)
	if maxPlacements <= 0 {
		return nil, false
	}

	baseStep := pl.config.GridStep
	if baseStep <= 0 {
		baseStep = pl.config.Margin
	}
	if baseStep <= 0 {
		baseStep = 1
	}

	mainBBox := geometry.BBox(mainPolygon)
	mainCentre := model.Point{X: mainBBox.X + mainBBox.Width/2, Y: mainBBox.Y + mainBBox.Height/2}

	return &packState{
		mainPolygon:   mainPolygon,
		mainCentre:    mainCentre,
		sheet:         sheet,
		baseStep:      baseStep,
		maxPlacements: maxPlacements,
		attemptBudget: 2 * maxPlacements,
		designID:      design.ID,
	}, true
}

// commit reconciles the NFP-frame candidate with the rendered frame
// and, if the rendered-frame re-check passes, appends the
// placement. Returns true on commit.
func (st *packState) commit(pl *Placer, c candidate) bool {
	refShift := geometry.Rotate(st.mainPolygon[0], c.rotation, model.Point{})
	rotatedCentre := geometry.Rotate(st.mainCentre, c.rotation, model.Point{})
	centreShift := model.Point{X: st.mainCentre.X - rotatedCentre.X, Y: st.mainCentre.Y - rotatedCentre.Y}

	placementX := c.point.X - refShift.X - centreShift.X
	placementY := c.point.Y - refShift.Y - centreShift.Y

	renderedUnshifted := geometry.RotateAboutBBoxCentre(st.mainPolygon, c.rotation)
	rendered := geometry.TranslatePolygon(renderedUnshifted, placementX, placementY)

	if !pl.validateCandidate(rendered, st.sheet, st.placed) {
		return false
	}

	st.placed = append(st.placed, placedPart{
		Polygon:  c.rotatedPart,
		Position: c.point,
		Rendered: rendered,
		Rotation: c.rotation,
	})
	st.result.Placements = append(st.result.Placements, model.Placement{
		DesignID: st.designID,
		X:        placementX,
		Y:        placementY,
		Rotation: model.Rotation(c.rotation),
	})
	st.result.Rendered = append(st.result.Rendered, rendered)
	return true
}

// Pack greedily places as many copies of design's main polygon onto sheet
// as the BLF loop in spec.md §4.5 allows: every allowed rotation is tried
// at each outer iteration and the bottom-left-most candidate across all of
// them wins. progress, if non-nil, is called once per outer loop iteration
// (a suspension point, spec.md §5); returning false stops the pack.
func (pl *Placer) Pack(design model.Design, sheet model.BoundingBox, progress func() bool) Result {
	st, ok := pl.newPackState(design, sheet)
	if !ok {
		return Result{}
	}
	rotations := pl.config.AllowedRotations()
	if len(rotations) == 0 {
		rotations = []float64{0}
	}

	attempts := 0
	for len(st.placed) < st.maxPlacements && attempts < st.attemptBudget {
		if progress != nil && !progress() {
			break
		}
		best, found := pl.bestAcrossRotations(st, rotations)
		if !found {
			break // no rotation produced any candidate: sheet is full
		}
		st.commit(pl, best)
		attempts++
	}
	return st.result
}

// PackWithRotations is the "simplified BLF" fitness evaluator used by the
// genetic search: on iteration i it tries only
// rotations[i % len(rotations)], not every allowed rotation, otherwise
// following §4.5 exactly (IFP + NFP union + offset by margin + difference +
// adaptive-grid bottom-left). It stops when that rotation produces no
// valid position or maxPlacements is reached.
func (pl *Placer) PackWithRotations(design model.Design, sheet model.BoundingBox, rotations []float64, progress func() bool) Result {
	st, ok := pl.newPackState(design, sheet)
	if !ok {
		return Result{}
	}
	if len(rotations) == 0 {
		rotations = []float64{0}
	}

	i := 0
	attempts := 0
	for len(st.placed) < st.maxPlacements && attempts < st.attemptBudget {
		if progress != nil && !progress() {
			break
		}
		rot := rotations[i%len(rotations)]
		i++

		c, found := pl.candidateForRotation(st, rot)
		if !found {
			break
		}
		if !st.commit(pl, c) {
			break // a rejected rendered-frame check ends this run, matching the GA's "stops on first failed rotation" contract
		}
		attempts++
	}
	return st.result
}

// validateCandidate re-checks a candidate in the rendered frame before
// commit: contained in the sheet shrunk by margin, and collision-free
// (margin 0) against every previously rendered polygon.
func (pl *Placer) validateCandidate(rendered model.Polygon, sheet model.BoundingBox, placed []placedPart) bool {
	if !collision.PolygonInsideBounds(rendered, sheet, pl.config.Margin) {
		return false
	}
	for _, p := range placed {
		if collision.Collides(rendered, p.Rendered, 0) {
			return false
		}
	}
	return true
}

// bestAcrossRotations tries every allowed rotation and returns the
// bottom-left-most candidate across all of them.
func (pl *Placer) bestAcrossRotations(st *packState, rotations []float64) (candidate, bool) {
	var best candidate
	found := false

	for _, rot := range rotations {
		c, ok := pl.candidateForRotation(st, rot)
		if !ok {
			continue
		}
		if !found || isBottomLeft(c.point, best.point) {
			best = c
			found = true
		}
	}
	return best, found
}

// candidateForRotation computes the valid area for one rotation and
// returns its bottom-left-most grid/vertex candidate, if any.
func (pl *Placer) candidateForRotation(st *packState, rot float64) (candidate, bool) {
	rotatedPart := geometry.NormaliseToFirstVertex(geometry.RotatePolygon(st.mainPolygon, rot, model.Point{}))

	// The IFP is taken over the sheet shrunk by margin, the same bounds the
	// rendered-frame check enforces.
	binIFP := nfp.IFPRect(st.sheet.Shrink(pl.config.Margin), rotatedPart)
	if binIFP == nil {
		return candidate{}, false
	}

	var allNFPs []model.Polygon
	for _, p := range st.placed {
		nfpPolys := pl.nfpGen.NFPCached(p.Polygon, rotatedPart, p.Rotation, rot, false)
		allNFPs = append(allNFPs, geometry.TranslatePolygons(nfpPolys, p.Position.X, p.Position.Y)...)
	}

	var validArea []model.Polygon
	if len(allNFPs) == 0 {
		validArea = []model.Polygon{binIFP}
	} else {
		unioned := pl.engine.Union(allNFPs)
		expanded := pl.engine.Offset(unioned, pl.config.Margin)
		validArea = pl.engine.Difference([]model.Polygon{binIFP}, expanded)
	}
	if len(validArea) == 0 {
		return candidate{}, false
	}

	point, ok := bottomLeftCandidate(validArea, st.baseStep)
	if !ok {
		return candidate{}, false
	}
	return candidate{point: point, rotatedPart: rotatedPart, rotation: rot}, true
}

// isBottomLeft reports whether a sorts before b under the bottom-left tie
// break: minimum y, then minimum x.
func isBottomLeft(a, b model.Point) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

// bottomLeftCandidate grid-samples every ring of validArea at an adaptive
// step, keeping the grid points inside the ring, also treats every ring
// vertex as a candidate, and returns the bottom-left-most candidate found.
func bottomLeftCandidate(validArea []model.Polygon, baseStep float64) (model.Point, bool) {
	var best model.Point
	found := false

	for _, ring := range validArea {
		if len(ring) < 3 {
			continue
		}
		b := geometry.BBox(ring)
		area := b.Width * b.Height
		step := baseStep
		if area > 0 {
			adaptive := math.Sqrt(area / targetGridCandidates)
			if adaptive > step {
				step = adaptive
			}
		}
		if step <= 0 {
			step = 1
		}

		consider := func(pt model.Point) {
			if !found || isBottomLeft(pt, best) {
				best = pt
				found = true
			}
		}

		for y := b.Y; y <= b.Y+b.Height; y += step {
			for x := b.X; x <= b.X+b.Width; x += step {
				pt := model.Point{X: x, Y: y}
				if geometry.PointInPolygon(pt, ring) {
					consider(pt)
				}
			}
		}
		for _, v := range ring {
			consider(v)
		}
	}

	return best, found
}
