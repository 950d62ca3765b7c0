// Package geometry provides the polygon primitives the rest of the nesting
// engine is built on: rotation, translation, bounding boxes, area, point
// containment, and the two origin-normalisation variants the NFP generator
// and the ingestion path each need.
package geometry

import (
	"math"
	"sort"

	"github.com/piwi3910/nestforge/internal/model"
)

// Rotate rotates p by angleDeg degrees (counter-clockwise, standard math
// convention) about centre.
func Rotate(p model.Point, angleDeg float64, centre model.Point) model.Point {
	if angleDeg == 0 {
		return p
	}
	rad := angleDeg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	dx, dy := p.X-centre.X, p.Y-centre.Y
	return model.Point{
		X: centre.X + dx*cos - dy*sin,
		Y: centre.Y + dx*sin + dy*cos,
	}
}

// RotatePolygon rotates every vertex of poly about centre, returning a fresh slice.
func RotatePolygon(poly model.Polygon, angleDeg float64, centre model.Point) model.Polygon {
	out := make(model.Polygon, len(poly))
	for i, p := range poly {
		out[i] = Rotate(p, angleDeg, centre)
	}
	return out
}

// TranslatePolygon shifts every vertex of poly by (dx, dy), returning a fresh slice.
func TranslatePolygon(poly model.Polygon, dx, dy float64) model.Polygon {
	out := make(model.Polygon, len(poly))
	for i, p := range poly {
		out[i] = model.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// TranslatePolygons shifts every polygon in polys by (dx, dy).
func TranslatePolygons(polys []model.Polygon, dx, dy float64) []model.Polygon {
	out := make([]model.Polygon, len(polys))
	for i, p := range polys {
		out[i] = TranslatePolygon(p, dx, dy)
	}
	return out
}

// Centroid returns the arithmetic mean of the polygon's vertices. This is a
// simple vertex centroid, not the area-weighted centroid — sufficient for
// "rotate about bbox centre" use, which callers compute from BBox instead.
func Centroid(poly model.Polygon) model.Point {
	if len(poly) == 0 {
		return model.Point{}
	}
	var sx, sy float64
	for _, p := range poly {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(poly))
	return model.Point{X: sx / n, Y: sy / n}
}

// BBox returns the axis-aligned bounding box of poly.
func BBox(poly model.Polygon) model.BoundingBox {
	if len(poly) == 0 {
		return model.BoundingBox{}
	}
	minX, maxX := poly[0].X, poly[0].X
	minY, maxY := poly[0].Y, poly[0].Y
	for _, p := range poly[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return model.BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// UnionBBox returns the bounding box enclosing every polygon in polys.
func UnionBBox(polys []model.Polygon) model.BoundingBox {
	first := true
	var acc model.BoundingBox
	for _, p := range polys {
		b := BBox(p)
		if len(p) == 0 {
			continue
		}
		if first {
			acc = b
			first = false
			continue
		}
		minX := math.Min(acc.X, b.X)
		minY := math.Min(acc.Y, b.Y)
		maxX := math.Max(acc.X+acc.Width, b.X+b.Width)
		maxY := math.Max(acc.Y+acc.Height, b.Y+b.Height)
		acc = model.BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	}
	return acc
}

// ShoelaceArea returns the absolute area of poly via the shoelace formula.
func ShoelaceArea(poly model.Polygon) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return math.Abs(sum) / 2
}

// SignedArea returns the signed shoelace area; sign indicates winding
// (positive = counter-clockwise under the standard math y-up convention).
func SignedArea(poly model.Polygon) float64 {
	n := len(poly)
	if n < 3 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += poly[i].X*poly[j].Y - poly[j].X*poly[i].Y
	}
	return sum / 2
}

// PointInPolygon is a standard ray-cast test using the half-open convention
// (yi > py) != (yj > py) to avoid double-counting horizontal edges.
func PointInPolygon(pt model.Point, poly model.Polygon) bool {
	n := len(poly)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) {
			xIntersect := (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if pt.X < xIntersect {
				inside = !inside
			}
		}
	}
	return inside
}

// PointToSegmentDistance returns the minimum Euclidean distance from pt to
// the segment [a,b].
func PointToSegmentDistance(pt, a, b model.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return dist(pt, a)
	}
	t := ((pt.X-a.X)*dx + (pt.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	proj := model.Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return dist(pt, proj)
}

func dist(a, b model.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// BBoxOverlap reports whether two boxes, each expanded by margin, overlap.
func BBoxOverlap(a, b model.BoundingBox, margin float64) bool {
	ax0, ay0 := a.X-margin, a.Y-margin
	ax1, ay1 := a.X+a.Width+margin, a.Y+a.Height+margin
	bx0, by0 := b.X-margin, b.Y-margin
	bx1, by1 := b.X+b.Width+margin, b.Y+b.Height+margin
	return ax0 < bx1 && ax1 > bx0 && ay0 < by1 && ay1 > by0
}

// NormaliseToFirstVertex translates poly so that poly[0] lands on the
// origin. This is the NFP-anchor frame.
func NormaliseToFirstVertex(poly model.Polygon) model.Polygon {
	if len(poly) == 0 {
		return poly
	}
	ref := poly[0]
	return TranslatePolygon(poly, -ref.X, -ref.Y)
}

// NormaliseToBBoxOrigin translates poly so its bounding-box minimum corner
// lands on the origin. This is the ingestion frame and is not
// interchangeable with NormaliseToFirstVertex.
func NormaliseToBBoxOrigin(poly model.Polygon) model.Polygon {
	b := BBox(poly)
	return TranslatePolygon(poly, -b.X, -b.Y)
}

// ConvexHull returns the convex hull of pts via Andrew's monotone chain
// (no third-party geometry kernel in the retrieval pack offers point-set
// convex hull; this is the ingestion fallback for stray open-path points,
// spec.md §6.1). Returns nil if fewer than 3 distinct points are given.
func ConvexHull(pts []model.Point) model.Polygon {
	if len(pts) < 3 {
		return nil
	}
	sorted := make([]model.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	cross := func(o, a, b model.Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	lower := make([]model.Point, 0, len(sorted))
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make([]model.Point, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		return nil
	}
	return model.Polygon(hull)
}

// RotateAboutBBoxCentre rotates poly about the centre of its own bounding
// box — the "rendered" frame used for committed placements.
func RotateAboutBBoxCentre(poly model.Polygon, angleDeg float64) model.Polygon {
	b := BBox(poly)
	centre := model.Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
	return RotatePolygon(poly, angleDeg, centre)
}
