// Package ingest provides the narrow-interface collaborators spec.md §1
// treats as external: a DXF-based Design loader and the static sheet
// preset catalogue, kept outside the core geometry/packing packages so
// neither depends on a parsing or spreadsheet library.
package ingest

import (
	"fmt"
	"math"
	"sort"

	"github.com/piwi3910/nestforge/internal/geometry"
	"github.com/piwi3910/nestforge/internal/model"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"
)

// closureThreshold and chainTolerance match spec.md §6.1 exactly: a closed
// polygon is any whose first-to-last distance is below 0.1 unit, or whose
// loose segments connect with tolerance 3.0 units into a cycle. The two are
// deliberately distinct — chaining tolerates the looser gaps real DXF
// exports leave between LINE/ARC endpoints, while closure only accepts a
// ring that's genuinely shut — so chainSegments takes both as separate
// parameters rather than a single shared tolerance.
const (
	closureThreshold = 0.1
	chainTolerance   = 3.0
)

// arcEpsilon bounds the bulge magnitude and chord length below which a
// LWPOLYLINE vertex or bulge-arc can't be resolved into a stable,
// finite-radius arc (the sagitta/radius computation in bulgeArcPoints
// divides by chord length): below it, the segment is treated as straight.
const arcEpsilon = 1e-9

// Result holds what LoadDXF produced plus any non-fatal diagnostics,
// mirroring the teacher's ImportResult shape (internal/importer/dxf.go).
type Result struct {
	Design   model.Design
	Warnings []string
	Errors   []string
}

// segment is a line segment between two points, used to chain loose LINE
// and flattened ARC entities into closed rings.
type segment struct {
	start, end model.Point
}

// LoadDXF reads path and assembles a single model.Design from every closed
// ring it finds: LWPOLYLINE and CIRCLE entities contribute rings directly;
// LINE and ARC entities are flattened to segments and chained. If no
// closed ring results, the convex hull of every stray point is used as a
// last resort.
func LoadDXF(path string) Result {
	res := Result{}

	drawing, err := dxf.Open(path)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("cannot open DXF file: %v", err))
		return res
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		res.Errors = append(res.Errors, "DXF file contains no entities")
		return res
	}

	var polygons []model.Polygon
	var segments []segment
	var strayPoints []model.Point

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			poly := lwPolylineToPolygon(e)
			if len(poly) >= 3 {
				polygons = append(polygons, poly)
			} else {
				res.Warnings = append(res.Warnings, "skipped LWPOLYLINE with fewer than 3 vertices")
			}
			strayPoints = append(strayPoints, poly...)

		case *entity.Circle:
			poly := circleToPolygon(e, 64)
			polygons = append(polygons, poly)
			strayPoints = append(strayPoints, poly...)

		case *entity.Arc:
			pts := arcToPoints(e, 32)
			if len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
				strayPoints = append(strayPoints, pts...)
			}

		case *entity.Line:
			start := model.Point{X: e.Start[0], Y: e.Start[1]}
			end := model.Point{X: e.End[0], Y: e.End[1]}
			segments = append(segments, segment{start: start, end: end})
			strayPoints = append(strayPoints, start, end)

		default:
			// unsupported entity types are silently skipped, matching the
			// teacher's DXF importer
		}
	}

	for _, ring := range chainSegments(segments, chainTolerance, closureThreshold) {
		if len(ring) >= 3 {
			polygons = append(polygons, ring)
		}
	}

	if len(polygons) == 0 {
		if hull := geometry.ConvexHull(strayPoints); hull != nil {
			res.Warnings = append(res.Warnings, "no closed ring found, falling back to convex hull of stray points")
			polygons = append(polygons, hull)
		}
	}

	if len(polygons) == 0 {
		res.Errors = append(res.Errors, "no closed shapes found in DXF file")
		return res
	}

	design := model.NewDesign(baseName(path), polygons)
	design.SourcePath = path
	res.Design = design
	return res
}

func lwPolylineToPolygon(lw *entity.LwPolyline) model.Polygon {
	var poly model.Polygon
	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := model.Point{X: v[0], Y: v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) > arcEpsilon {
			nextIdx := (i + 1) % len(lw.Vertices)
			next := model.Point{X: lw.Vertices[nextIdx][0], Y: lw.Vertices[nextIdx][1]}
			arcPts := bulgeArcPoints(current, next, bulge, 32)
			poly = append(poly, arcPts[:len(arcPts)-1]...)
		} else {
			poly = append(poly, current)
		}
	}
	return poly
}

// bulgeArcPoints flattens a DXF bulge (tangent of 1/4 the included angle
// between two polyline vertices) into an arc of line segments.
func bulgeArcPoints(p1, p2 model.Point, bulge float64, numSegments int) model.Polygon {
	mx, my := (p1.X+p2.X)/2, (p1.Y+p2.Y)/2
	dx, dy := p2.X-p1.X, p2.Y-p1.Y
	chordLen := math.Hypot(dx, dy)
	if chordLen < arcEpsilon {
		return model.Polygon{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	perpX, perpY := -dy/chordLen, dx/chordLen
	dist := radius - sagitta
	if bulge > 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx, cy := mx+perpX*dist, my+perpY*dist

	startAngle := math.Atan2(p1.Y-cy, p1.X-cx)
	endAngle := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else if endAngle < startAngle {
		endAngle += 2 * math.Pi
	}

	pts := make(model.Polygon, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts[i] = model.Point{X: cx + radius*math.Cos(angle), Y: cy + radius*math.Sin(angle)}
	}
	return pts
}

func circleToPolygon(c *entity.Circle, numSegments int) model.Polygon {
	poly := make(model.Polygon, numSegments)
	cx, cy, r := c.Center[0], c.Center[1], c.Radius
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		poly[i] = model.Point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return poly
}

func arcToPoints(a *entity.Arc, numSegments int) []model.Point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius
	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad <= startRad {
		endRad += 2 * math.Pi
	}

	pts := make([]model.Point, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts[i] = model.Point{X: cx + r*math.Cos(angle), Y: cy + r*math.Sin(angle)}
	}
	return pts
}

func pointsToSegments(pts []model.Point) []segment {
	segs := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segs = append(segs, segment{start: pts[i], end: pts[i+1]})
	}
	return segs
}

// chainSegments connects loose segments into closed rings, per spec.md
// §6.1: two distinct tolerances govern the process rather than one shared
// value — connectTol decides whether one segment's endpoint reaches
// another's, and closeTol (normally tighter) decides whether the resulting
// chain has actually closed on itself into a ring.
func chainSegments(segs []segment, connectTol, closeTol float64) []model.Polygon {
	if len(segs) == 0 {
		return nil
	}

	used := make([]bool, len(segs))
	var rings []model.Polygon

	for {
		startIdx := -1
		for i, u := range used {
			if !u {
				startIdx = i
				break
			}
		}
		if startIdx == -1 {
			break
		}

		chain := []model.Point{segs[startIdx].start, segs[startIdx].end}
		used[startIdx] = true

		changed := true
		for changed {
			changed = false
			tail := chain[len(chain)-1]
			for i, seg := range segs {
				if used[i] {
					continue
				}
				if pointsClose(tail, seg.start, connectTol) {
					chain = append(chain, seg.end)
					used[i] = true
					changed = true
					break
				}
				if pointsClose(tail, seg.end, connectTol) {
					chain = append(chain, seg.start)
					used[i] = true
					changed = true
					break
				}
			}
		}

		if len(chain) >= 3 && pointsClose(chain[0], chain[len(chain)-1], closeTol) {
			chain = chain[:len(chain)-1]
		}
		if len(chain) >= 3 {
			rings = append(rings, model.Polygon(chain))
		}
	}

	sort.Slice(rings, func(i, j int) bool {
		return geometry.ShoelaceArea(rings[i]) > geometry.ShoelaceArea(rings[j])
	})
	return rings
}

func pointsClose(a, b model.Point, tolerance float64) bool {
	return math.Hypot(a.X-b.X, a.Y-b.Y) <= tolerance
}

func baseName(path string) string {
	start := 0
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			start = i + 1
			break
		}
	}
	name := path[start:]
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
