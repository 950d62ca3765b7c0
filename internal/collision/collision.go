// Package collision implements the exact polygon-polygon overlap oracle:
// a bbox prefilter, segment-intersection + containment for margin = 0, and
// minimum polygon-to-polygon distance for margin > 0. A second path
// delegates to the boolean engine so both paths can be checked against
// each other.
package collision

import (
	"math"

	"github.com/piwi3910/nestforge/internal/boolean"
	"github.com/piwi3910/nestforge/internal/geometry"
	"github.com/piwi3910/nestforge/internal/model"
)

// Collides reports whether A and B overlap within margin, per the §4.3
// contract: bbox prefilter first, then exact segment/containment tests.
func Collides(a, b model.Polygon, margin float64) bool {
	if !geometry.BBoxOverlap(geometry.BBox(a), geometry.BBox(b), margin) {
		return false
	}
	if margin <= 0 {
		return edgesIntersectOrContain(a, b)
	}
	return minPolygonDistance(a, b) < margin
}

// edgesIntersectOrContain implements the margin == 0 branch of §4.3: any
// edge pair intersects, or either polygon's reference vertex lies inside
// the other.
func edgesIntersectOrContain(a, b model.Polygon) bool {
	if anyEdgeIntersects(a, b) {
		return true
	}
	if len(a) > 0 && geometry.PointInPolygon(a[0], b) {
		return true
	}
	if len(b) > 0 && geometry.PointInPolygon(b[0], a) {
		return true
	}
	return false
}

func anyEdgeIntersects(a, b model.Polygon) bool {
	na, nb := len(a), len(b)
	if na < 2 || nb < 2 {
		return false
	}
	for i := 0; i < na; i++ {
		a1, a2 := a[i], a[(i+1)%na]
		for j := 0; j < nb; j++ {
			b1, b2 := b[j], b[(j+1)%nb]
			if segmentsIntersect(a1, a2, b1, b2) {
				return true
			}
		}
	}
	return false
}

// minPolygonDistance computes the minimum over "each vertex of one, each
// edge of the other" segment distances, returning 0 if any edge pair
// intersects or either polygon contains the other's reference vertex.
func minPolygonDistance(a, b model.Polygon) float64 {
	if edgesIntersectOrContain(a, b) {
		return 0
	}
	best := math.Inf(1)
	na, nb := len(a), len(b)
	for i := 0; i < na; i++ {
		for j := 0; j < nb; j++ {
			d := geometry.PointToSegmentDistance(a[i], b[j], b[(j+1)%nb])
			if d < best {
				best = d
			}
		}
	}
	for j := 0; j < nb; j++ {
		for i := 0; i < na; i++ {
			d := geometry.PointToSegmentDistance(b[j], a[i], a[(i+1)%na])
			if d < best {
				best = d
			}
		}
	}
	return best
}

// orientation returns the sign of the cross product (b-a) x (c-a): >0 left
// turn, <0 right turn, 0 collinear.
func orientation(a, b, c model.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p model.Point) bool {
	return math.Min(a.X, b.X)-1e-9 <= p.X && p.X <= math.Max(a.X, b.X)+1e-9 &&
		math.Min(a.Y, b.Y)-1e-9 <= p.Y && p.Y <= math.Max(a.Y, b.Y)+1e-9
}

// segmentsIntersect is the classic orientation-based segment intersection
// test, including the collinear-overlap special cases.
func segmentsIntersect(p1, p2, p3, p4 model.Point) bool {
	d1 := orientation(p3, p4, p1)
	d2 := orientation(p3, p4, p2)
	d3 := orientation(p1, p2, p3)
	d4 := orientation(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}
	return false
}

// PolygonInsideBounds reports whether every vertex of poly lies inside
// sheet shrunk by margin; a vertex on the shrunk boundary counts as inside.
func PolygonInsideBounds(poly model.Polygon, sheet model.BoundingBox, margin float64) bool {
	shrunk := sheet.Shrink(margin)
	if !shrunk.Valid() {
		return false
	}
	for _, p := range poly {
		if !shrunk.Contains(p, 0) {
			return false
		}
	}
	return true
}

// MinDistanceToBounds returns the minimum, over all vertices, of the
// minimum of the four axis distances to the sheet edges.
func MinDistanceToBounds(poly model.Polygon, sheet model.BoundingBox) float64 {
	best := math.Inf(1)
	for _, p := range poly {
		left := p.X - sheet.X
		right := sheet.X + sheet.Width - p.X
		top := p.Y - sheet.Y
		bottom := sheet.Y + sheet.Height - p.Y
		d := math.Min(math.Min(left, right), math.Min(top, bottom))
		if d < best {
			best = d
		}
	}
	return best
}

// ConvexityTest reports whether poly is convex via sign-stable cross
// products of consecutive edges.
func ConvexityTest(poly model.Polygon) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	var sign float64
	for i := 0; i < n; i++ {
		a, b, c := poly[i], poly[(i+1)%n], poly[(i+2)%n]
		cross := orientation(a, b, c)
		if cross == 0 {
			continue
		}
		if sign == 0 {
			sign = cross
		} else if (cross > 0) != (sign > 0) {
			return false
		}
	}
	return true
}

// MultiPlacementCollisionCheck tests every pair of a set of polygons and
// returns the indices of colliding pairs.
func MultiPlacementCollisionCheck(polys []model.Polygon, margin float64) [][2]int {
	var collisions [][2]int
	for i := 0; i < len(polys); i++ {
		for j := i + 1; j < len(polys); j++ {
			if Collides(polys[i], polys[j], margin) {
				collisions = append(collisions, [2]int{i, j})
			}
		}
	}
	return collisions
}

// CollidesViaBoolean delegates exact overlap to the boolean engine: it
// tests whether intersection(expand(A, margin/2), expand(B, margin/2)) is
// non-empty. Both paths must agree on decision boundaries to within the
// kernel's scale granularity — use this path only when the
// engine is Ready (the segment/containment path above is the cold-start
// fallback, spec.md §5).
func CollidesViaBoolean(e *boolean.Engine, a, b model.Polygon, margin float64) bool {
	if !geometry.BBoxOverlap(geometry.BBox(a), geometry.BBox(b), margin) {
		return false
	}
	half := margin / 2
	expandedA := e.Offset([]model.Polygon{a}, half)
	expandedB := e.Offset([]model.Polygon{b}, half)
	inter := intersection(e, expandedA, expandedB)
	return len(inter) > 0
}

// intersection computes subject ∩ clip via union + difference composition,
// since the boolean.Engine exposes Union/Difference/Offset/MinkowskiSumPath
// as its narrow surface: A ∩ B = A − (A − B).
func intersection(e *boolean.Engine, subject, clip []model.Polygon) []model.Polygon {
	aMinusB := e.Difference(subject, clip)
	return e.Difference(subject, aMinusB)
}
