// Package nfp computes the No-Fit Polygon and Inner-Fit Polygon and maintains the keyed NFP cache described in spec.md §3.
package nfp

import (
	"github.com/piwi3910/nestforge/internal/boolean"
	"github.com/piwi3910/nestforge/internal/geometry"
	"github.com/piwi3910/nestforge/internal/model"
)

// CacheKey matches spec.md §3: (shapeA-id, shapeB-id, rotationA, rotationB,
// inside-flag). ShapeA/ShapeB are cheap structural fingerprints
// (model.Fingerprint), which are collision-prone for same-shaped designs of
// similar area — see SPEC_FULL.md §9 for the documented trade-off.
type CacheKey struct {
	ShapeA, ShapeB       string
	RotationA, RotationB float64
	Inside               bool
}

// Generator computes NFP/IFP values and caches NFP results for the
// lifetime of one nesting job. The cache is a single-writer map: it is not
// safe for concurrent use, matching spec.md §5 ("partition by placer
// instance" if the search is parallelised).
type Generator struct {
	engine *boolean.Engine
	cache  map[CacheKey][]model.Polygon
}

// NewGenerator returns a Generator bound to a boolean engine instance.
func NewGenerator(engine *boolean.Engine) *Generator {
	return &Generator{engine: engine, cache: make(map[CacheKey][]model.Polygon)}
}

// Reset clears the cache. Call this between nesting jobs.
func (g *Generator) Reset() {
	g.cache = make(map[CacheKey][]model.Polygon)
}

// NFP computes NFP(fixed, moving) = fixed ⊕ (−moving), after translating
// moving so moving[0] is the origin. Placing moving so that
// moving[0] coincides with an interior point of the result makes fixed and
// moving overlap; on the boundary they touch; strictly outside they are
// disjoint.
func (g *Generator) NFP(fixed, moving model.Polygon) []model.Polygon {
	if len(fixed) < 3 || len(moving) == 0 {
		return nil
	}
	anchored := geometry.NormaliseToFirstVertex(moving)
	negated := negate(anchored)
	result := g.engine.MinkowskiSumPath(negated, fixed, true)
	if len(result) == 0 {
		return nil
	}
	return result
}

func negate(poly model.Polygon) model.Polygon {
	out := make(model.Polygon, len(poly))
	for i, p := range poly {
		out[i] = model.Point{X: -p.X, Y: -p.Y}
	}
	return out
}

// NFPCached returns NFP(fixed, moving), keyed by the fingerprints of fixed
// and moving plus the rotation/inside components of the cache key.
func (g *Generator) NFPCached(fixed, moving model.Polygon, rotationA, rotationB float64, inside bool) []model.Polygon {
	key := CacheKey{
		ShapeA:    model.Fingerprint(fixed),
		ShapeB:    model.Fingerprint(moving),
		RotationA: rotationA,
		RotationB: rotationB,
		Inside:    inside,
	}
	if v, ok := g.cache[key]; ok {
		return v
	}
	result := g.NFP(fixed, moving)
	g.cache[key] = result
	return result
}

// IFPRect computes the Inner-Fit Polygon of an axis-aligned rectangular bin
// for a moving polygon, via the closed-form construction in spec.md §4.4:
// letting ref = moving[0] and bboxB its bounding box, the IFP is the
// rectangle of anchor positions at which moving fits entirely inside bin.
// Returns nil if the result would be degenerate (moving doesn't fit).
func IFPRect(bin model.BoundingBox, moving model.Polygon) model.Polygon {
	if len(moving) == 0 {
		return nil
	}
	bboxB := geometry.BBox(moving)
	ref := moving[0]

	oL := ref.X - bboxB.X
	oR := (bboxB.X + bboxB.Width) - ref.X
	oT := ref.Y - bboxB.Y
	oB := (bboxB.Y + bboxB.Height) - ref.Y

	x0 := bin.X + oL
	x1 := bin.X + bin.Width - oR
	y0 := bin.Y + oT
	y1 := bin.Y + bin.Height - oB

	if x1 < x0 || y1 < y0 {
		return nil
	}
	return model.Polygon{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
	}
}

// IFPGeneral computes the Inner-Fit Polygon of a general (possibly
// non-rectangular) bin polygon via the Minkowski-sum construction: −moving,
// anchored at moving[0], is swept along the bin's boundary, and the holes
// of that swept region (negative signed area) are the anchor positions at
// which moving lies inside bin. Returns nil when there is no hole. This is
// the legacy path, exercised only for cross-checking IFPRect on rectangular
// bins; IFPRect is authoritative for the rectangular case.
func (g *Generator) IFPGeneral(bin model.Polygon, moving model.Polygon) []model.Polygon {
	if len(bin) < 3 || len(moving) == 0 {
		return nil
	}
	anchored := geometry.NormaliseToFirstVertex(moving)
	negated := negate(anchored)
	swept := g.engine.MinkowskiSumPath(negated, bin, true)
	var holes []model.Polygon
	for _, ring := range swept {
		if geometry.SignedArea(ring) < 0 {
			holes = append(holes, ring)
		}
	}
	if len(holes) == 0 {
		return nil
	}
	return holes
}
