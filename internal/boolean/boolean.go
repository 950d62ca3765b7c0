// Package boolean wraps a fixed-point polygon clipping/offsetting kernel
// and mediates the scale factor between floating-point world coordinates
// (millimetres) and the kernel's integer coordinate space.
//
// The kernel is github.com/ctessum/go.clipper, a Go port of the Clipper
// polygon-clipping library: it natively exposes non-zero-fill
// union/difference, mitered offsetting, and Minkowski-sum-of-paths behind
// one API.
package boolean

import (
	"fmt"
	"math"
	"sync"

	clipper "github.com/ctessum/go.clipper"

	"github.com/piwi3910/nestforge/internal/model"
)

// Scale is the fixed-point factor between world millimetres and the
// kernel's integer coordinates: sub-millimetre precision at 1000 units/mm.
const Scale = 1000.0

// ArcTolerance is the offset arc tolerance at integer scale.
const ArcTolerance = 0.25

// Engine mediates between float64 polygons and the integer kernel. It is
// not safe for concurrent use by multiple goroutines; callers
// that parallelise per-sheet jobs must use one Engine per job.
type Engine struct {
	mu      sync.Mutex
	ready   bool
	lastErr error
}

// New returns an Engine. Construction is cheap; Ready becomes true on first
// successful use, so the kernel initialises lazily rather than up front.
func New() *Engine {
	return &Engine{}
}

// Ready reports whether the kernel has completed its lazy initialisation.
// The collision oracle (internal/collision) does not consult it:
// collision.Collides never uses the engine, and
// collision.CollidesViaBoolean calls the engine without checking Ready.
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *Engine) markReady() {
	e.mu.Lock()
	e.ready = true
	e.mu.Unlock()
}

// LastErr returns the most recent kernel-level error observed by Union or
// Difference (AddPaths/Execute1 failing outright), or nil if the last call
// that could report one succeeded. Offset and MinkowskiSumPath don't carry
// an error channel in the underlying kernel API, so they never set this;
// callers distinguish their "empty result for a nonempty input" case as a
// numeric-precision artifact rather than a kernel failure.
func (e *Engine) LastErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *Engine) setErr(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}

func (e *Engine) clearErr() {
	e.mu.Lock()
	e.lastErr = nil
	e.mu.Unlock()
}

// toIntPoint converts a world-space millimetre coordinate to the kernel's
// fixed-point integer space, rounding half away from zero at the boundary
// rather than truncating.
func toIntPoint(p model.Point) *clipper.IntPoint {
	return &clipper.IntPoint{
		X: clipper.CInt(int64(math.Round(p.X * Scale))),
		Y: clipper.CInt(int64(math.Round(p.Y * Scale))),
	}
}

func toPath(poly model.Polygon) clipper.Path {
	path := make(clipper.Path, len(poly))
	for i, p := range poly {
		path[i] = toIntPoint(p)
	}
	return path
}

func toPaths(polys []model.Polygon) clipper.Paths {
	paths := make(clipper.Paths, len(polys))
	for i, p := range polys {
		paths[i] = toPath(p)
	}
	return paths
}

func fromPath(path clipper.Path) model.Polygon {
	poly := make(model.Polygon, len(path))
	for i, ip := range path {
		poly[i] = model.Point{X: float64(ip.X) / Scale, Y: float64(ip.Y) / Scale}
	}
	return poly
}

func fromPaths(paths clipper.Paths) []model.Polygon {
	polys := make([]model.Polygon, len(paths))
	for i, p := range paths {
		polys[i] = fromPath(p)
	}
	return polys
}

// Union merges touching/overlapping rings under the non-zero fill rule. On
// kernel error it returns the subject unchanged.
func (e *Engine) Union(polys []model.Polygon) []model.Polygon {
	if len(polys) == 0 {
		return nil
	}
	c := clipper.NewClipper(clipper.IoNone)
	if ok := c.AddPaths(toPaths(polys), clipper.PtSubject, true); !ok {
		e.setErr(fmt.Errorf("union: add subject paths: failed"))
		return polys
	}
	solution, ok := c.Execute1(clipper.CtUnion, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		e.setErr(fmt.Errorf("union: execute: failed"))
		return polys
	}
	e.markReady()
	e.clearErr()
	return fromPaths(solution)
}

// Difference subtracts clip from subject under the non-zero fill rule. On
// kernel error it returns the empty sequence.
func (e *Engine) Difference(subject, clip []model.Polygon) []model.Polygon {
	if len(subject) == 0 {
		return nil
	}
	c := clipper.NewClipper(clipper.IoNone)
	if ok := c.AddPaths(toPaths(subject), clipper.PtSubject, true); !ok {
		e.setErr(fmt.Errorf("difference: add subject paths: failed"))
		return nil
	}
	if len(clip) > 0 {
		if ok := c.AddPaths(toPaths(clip), clipper.PtClip, true); !ok {
			e.setErr(fmt.Errorf("difference: add clip paths: failed"))
			return nil
		}
	}
	solution, ok := c.Execute1(clipper.CtDifference, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		e.setErr(fmt.Errorf("difference: execute: failed"))
		return nil
	}
	e.markReady()
	e.clearErr()
	return fromPaths(solution)
}

// Offset expands (delta > 0) or contracts (delta < 0) polys with a mitered
// join (limit 2), closed-polygon end type, and ArcTolerance at integer
// scale. delta == 0 is identity. On kernel error it returns polys unchanged.
func (e *Engine) Offset(polys []model.Polygon, delta float64) []model.Polygon {
	if delta == 0 || len(polys) == 0 {
		return polys
	}
	co := clipper.NewClipperOffset()
	co.MiterLimit = 2
	co.ArcTolerance = ArcTolerance
	co.AddPaths(toPaths(polys), clipper.JtMiter, clipper.EtClosedPolygon)
	solution := co.Execute(delta * Scale)
	if solution == nil {
		return polys
	}
	e.markReady()
	return fromPaths(solution)
}

// MinkowskiSumPath returns the Minkowski sum of pattern and subject, both
// treated as closed rings when closed is true. On
// kernel error it returns the empty sequence.
func (e *Engine) MinkowskiSumPath(pattern, subject model.Polygon, closed bool) []model.Polygon {
	if len(pattern) == 0 || len(subject) == 0 {
		return nil
	}
	c := clipper.NewClipper(clipper.IoNone)
	solution := c.MinkowskiSum(toPath(pattern), toPath(subject), closed)
	if solution == nil {
		return nil
	}
	e.markReady()
	return fromPaths(solution)
}
