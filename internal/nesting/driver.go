// Package nesting ties the geometry engine together: per sheet it tries
// several placement strategies and keeps the best, then
// exposes manual-edit validation for interactively-moved
// placements.
package nesting

import (
	"math"
	"sort"

	"github.com/piwi3910/nestforge/internal/blf"
	"github.com/piwi3910/nestforge/internal/boolean"
	"github.com/piwi3910/nestforge/internal/collision"
	"github.com/piwi3910/nestforge/internal/genetic"
	"github.com/piwi3910/nestforge/internal/geometry"
	"github.com/piwi3910/nestforge/internal/model"
	"github.com/piwi3910/nestforge/internal/nfp"
)

// variant is one strategy's candidate outcome, kept until the driver picks
// a winner by placement count.
type variant struct {
	name       string
	placements []model.Placement
	rendered   []model.Polygon
}

// Driver runs the per-sheet strategy selection.
type Driver struct {
	config  model.Config
	lastErr error
}

// LastError returns the classified reason the most recent RunSheet call
// produced no result — ErrDegenerateInput, ErrKernelUnavailable, or
// ErrNumericEdge from the nfp-blf strategy — or nil when the last call
// produced a result. An nfp-blf run that places nothing without a kernel
// error is reported as ErrNumericEdge, including when the design simply
// does not fit the sheet. It is a
// diagnostic signal, not part of RunSheet's return contract: a "no result"
// outcome is never itself an error (spec.md §7).
func (d *Driver) LastError() error {
	return d.lastErr
}

// NewDriver returns a Driver bound to the given nesting configuration.
func NewDriver(cfg model.Config) *Driver {
	return &Driver{config: cfg}
}

// RunSheet tries every applicable strategy for one design/sheet pair and
// keeps whichever placed the most copies; ties go to the first-discovered
// variant, in the fixed order grid-sweep, mixed-rotation-grid, nfp-blf,
// genetic-search. ok is false when no variant placed a single part — a
// "no result for this sheet" outcome, not an error.
// progress is forwarded to the BLF/GA suspension points, not used between
// strategies (the driver itself only yields between sheets, via RunAll).
func (d *Driver) RunSheet(design model.Design, sheet model.SheetPreset, progress func() bool) (model.NestingResult, bool) {
	bbox := model.BoundingBox{X: 0, Y: 0, Width: sheet.Width, Height: sheet.Height}
	d.lastErr = nil
	if err := ClassifyDegenerate(design, bbox); err != nil {
		d.lastErr = err
		return model.NestingResult{}, false
	}

	var variants []variant
	if v, ok := d.rotationSweep(design, bbox); ok {
		variants = append(variants, v)
	}
	if v, ok := d.mixedRotationGrid(design, bbox); ok {
		variants = append(variants, v)
	}
	if v, ok := d.nfpBLF(design, bbox, progress); ok {
		variants = append(variants, v)
	}
	if d.config.Algorithm == model.AlgorithmNFPGA {
		if v, ok := d.geneticSearch(design, bbox, progress); ok {
			variants = append(variants, v)
		}
	}

	result, ok := finalizeBest(variants, design, sheet, bbox)
	if ok {
		d.lastErr = nil
	}
	return result, ok
}

// RunAll runs RunSheet for every preset and returns the results ranked by
// descending efficiency, skipping presets that yielded no
// result. It yields between sheets so a cancellation observed by progress
// can stop the remaining work.
func (d *Driver) RunAll(design model.Design, sheets []model.SheetPreset, progress func() bool) []model.NestingResult {
	var results []model.NestingResult
	for _, sheet := range sheets {
		if progress != nil && !progress() {
			break
		}
		if r, ok := d.RunSheet(design, sheet, progress); ok {
			results = append(results, r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Efficiency > results[j].Efficiency
	})
	return results
}

func finalizeBest(variants []variant, design model.Design, sheet model.SheetPreset, bbox model.BoundingBox) (model.NestingResult, bool) {
	best := -1
	for i, v := range variants {
		if best == -1 || len(v.placements) > len(variants[best].placements) {
			best = i
		}
	}
	if best == -1 || len(variants[best].placements) == 0 {
		return model.NestingResult{}, false
	}
	v := variants[best]

	idx := 0
	result := model.ComputeResult(sheet, v.placements, design.TotalArea, func(model.Placement) float64 {
		dist := collision.MinDistanceToBounds(v.rendered[idx], bbox)
		idx++
		return dist
	})
	result.Strategy = v.name
	return result, true
}

// rotationSweep is strategy (a): for each allowed rotation, the rectilinear
// grid count floor((available+margin)/(rotatedSide+margin)) in each axis,
// where available is the sheet extent less margin on both sides; the
// rotation with the largest count wins and is laid out row-major from the
// margin-inset corner.
func (d *Driver) rotationSweep(design model.Design, bbox model.BoundingBox) (variant, bool) {
	mainPolygon := design.MainPolygon()
	margin := d.config.Margin
	avail := bbox.Shrink(margin)
	rotations := d.config.AllowedRotations()
	if len(rotations) == 0 {
		rotations = []float64{0}
	}

	bestCount := -1
	var bestRot float64
	for _, rot := range rotations {
		rb := geometry.BBox(geometry.RotateAboutBBoxCentre(mainPolygon, rot))
		cols := gridCount(avail.Width, rb.Width, margin)
		rows := gridCount(avail.Height, rb.Height, margin)
		if count := cols * rows; count > bestCount {
			bestCount = count
			bestRot = rot
		}
	}
	if bestCount <= 0 {
		return variant{}, false
	}

	unshifted := geometry.RotateAboutBBoxCentre(mainPolygon, bestRot)
	rb := geometry.BBox(unshifted)
	cols := gridCount(avail.Width, rb.Width, margin)
	rows := gridCount(avail.Height, rb.Height, margin)

	var placements []model.Placement
	var rendered []model.Polygon
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			px := avail.X + float64(col)*(rb.Width+margin) - rb.X
			py := avail.Y + float64(row)*(rb.Height+margin) - rb.Y
			placements = append(placements, model.Placement{DesignID: design.ID, X: px, Y: py, Rotation: model.Rotation(bestRot)})
			rendered = append(rendered, geometry.TranslatePolygon(unshifted, px, py))
		}
	}
	return variant{name: "grid-sweep", placements: placements, rendered: rendered}, true
}

func gridCount(sheetDim, partDim, margin float64) int {
	if partDim+margin <= 0 {
		return 0
	}
	n := int(math.Floor((sheetDim + margin) / (partDim + margin)))
	if n < 0 {
		return 0
	}
	return n
}

// mixedRotationGrid is strategy (b): a two-pass greedy lattice sweep trying
// 0° and 90° at every point, first at a coarse adaptive step
// (max(margin, minDesignDim/4)) and then at half that; the pass that
// placed more parts wins.
func (d *Driver) mixedRotationGrid(design model.Design, bbox model.BoundingBox) (variant, bool) {
	mainPolygon := design.MainPolygon()
	margin := d.config.Margin
	mbbox := geometry.BBox(mainPolygon)
	minDim := math.Min(mbbox.Width, mbbox.Height)
	step := math.Max(margin, minDim/4)
	if step <= 0 {
		step = 1
	}

	pass1 := d.mixedRotationPass(mainPolygon, design.ID, bbox, margin, step)
	pass2 := d.mixedRotationPass(mainPolygon, design.ID, bbox, margin, step/2)

	best := pass1
	if len(pass2.placements) > len(pass1.placements) {
		best = pass2
	}
	if len(best.placements) == 0 {
		return variant{}, false
	}
	best.name = "mixed-rotation-grid"
	return best, true
}

func (d *Driver) mixedRotationPass(mainPolygon model.Polygon, designID string, bbox model.BoundingBox, margin, step float64) variant {
	var placements []model.Placement
	var rendered []model.Polygon

	for y := bbox.Y; y < bbox.Y+bbox.Height; y += step {
		for x := bbox.X; x < bbox.X+bbox.Width; x += step {
			for _, rot := range [2]float64{0, 90} {
				unshifted := geometry.RotateAboutBBoxCentre(mainPolygon, rot)
				rb := geometry.BBox(unshifted)
				px, py := x-rb.X, y-rb.Y
				candidate := geometry.TranslatePolygon(unshifted, px, py)

				if !collision.PolygonInsideBounds(candidate, bbox, margin) {
					continue
				}
				if anyCollides(candidate, rendered, margin) {
					continue
				}
				placements = append(placements, model.Placement{DesignID: designID, X: px, Y: py, Rotation: model.Rotation(rot)})
				rendered = append(rendered, candidate)
				break
			}
		}
	}
	return variant{placements: placements, rendered: rendered}
}

func anyCollides(candidate model.Polygon, placed []model.Polygon, margin float64) bool {
	for _, p := range placed {
		if collision.Collides(candidate, p, margin) {
			return true
		}
	}
	return false
}

// nfpBLF is strategy (c): the deterministic NFP-driven Bottom-Left-Fill
// packer, run with its own fresh boolean engine and NFP
// cache — both are single-job-lifetime, not shared across strategies.
func (d *Driver) nfpBLF(design model.Design, bbox model.BoundingBox, progress func() bool) (variant, bool) {
	engine := boolean.New()
	gen := nfp.NewGenerator(engine)
	placer := blf.NewPlacer(engine, gen, d.config)
	result := placer.Pack(design, bbox, progress)
	if len(result.Placements) == 0 {
		if err := ClassifyEmptyResult(engine.LastErr(), design.TotalArea > 0); err != nil {
			d.lastErr = err
		}
		return variant{}, false
	}
	return variant{name: "nfp-blf", placements: result.Placements, rendered: result.Rendered}, true
}

// geneticSearch is strategy (d), enabled only when the configured algorithm
// is model.AlgorithmNFPGA.
func (d *Driver) geneticSearch(design model.Design, bbox model.BoundingBox, progress func() bool) (variant, bool) {
	opt := genetic.NewOptimizer(design, bbox, d.config.GA, d.config.Seed)
	result := opt.Run(progress)
	if len(result.Placements) == 0 {
		return variant{}, false
	}
	return variant{name: "genetic-search", placements: result.Placements, rendered: result.Rendered}, true
}
