package geometry

import (
	"math"
	"testing"

	"github.com/piwi3910/nestforge/internal/model"
	"github.com/stretchr/testify/assert"
)

func square(side float64) model.Polygon {
	return model.Polygon{
		{X: 0, Y: 0},
		{X: side, Y: 0},
		{X: side, Y: side},
		{X: 0, Y: side},
	}
}

func TestRotateRoundTrip(t *testing.T) {
	// spec.md §8 property 7: rotate(rotate(poly, θ), −θ) ≈ poly
	poly := model.Polygon{{X: 12.3, Y: -4.5}, {X: 7, Y: 9}, {X: -3, Y: 2}}
	centre := model.Point{X: 1, Y: 1}
	for _, theta := range []float64{15, 33, 90, 127.5, 270} {
		rotated := RotatePolygon(poly, theta, centre)
		back := RotatePolygon(rotated, -theta, centre)
		for i := range poly {
			assert.InDelta(t, poly[i].X, back[i].X, 1e-9)
			assert.InDelta(t, poly[i].Y, back[i].Y, 1e-9)
		}
	}
}

func TestBBoxAndArea(t *testing.T) {
	sq := square(10)
	b := BBox(sq)
	assert.Equal(t, model.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, b)
	assert.InDelta(t, 100.0, ShoelaceArea(sq), 1e-9)
}

func TestSignedAreaWindingSign(t *testing.T) {
	ccw := square(5)
	cw := model.Polygon{ccw[0], ccw[3], ccw[2], ccw[1]}
	assert.Greater(t, SignedArea(ccw), 0.0)
	assert.Less(t, SignedArea(cw), 0.0)
}

func TestPointInPolygon(t *testing.T) {
	sq := square(10)
	assert.True(t, PointInPolygon(model.Point{X: 5, Y: 5}, sq))
	assert.False(t, PointInPolygon(model.Point{X: 15, Y: 5}, sq))
	// On the line of the bottom edge but outside the square: the ray along
	// y=0 must not count the horizontal edge.
	assert.False(t, PointInPolygon(model.Point{X: 20, Y: 0}, sq))
}

func TestPointToSegmentDistance(t *testing.T) {
	a := model.Point{X: 0, Y: 0}
	b := model.Point{X: 10, Y: 0}
	assert.InDelta(t, 5.0, PointToSegmentDistance(model.Point{X: 5, Y: 5}, a, b), 1e-9)
	assert.InDelta(t, 0.0, PointToSegmentDistance(model.Point{X: 5, Y: 0}, a, b), 1e-9)
	// Closest point clamps to the endpoint, not the infinite line.
	assert.InDelta(t, math.Hypot(5, 5), PointToSegmentDistance(model.Point{X: 15, Y: 5}, a, b), 1e-9)
}

func TestBBoxOverlapMargin(t *testing.T) {
	a := model.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}
	b := model.BoundingBox{X: 10.5, Y: 0, Width: 10, Height: 10}
	assert.False(t, BBoxOverlap(a, b, 0))
	assert.True(t, BBoxOverlap(a, b, 1))
}

func TestNormaliseVariants(t *testing.T) {
	poly := model.Polygon{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 10}, {X: 5, Y: 10}}

	toFirst := NormaliseToFirstVertex(poly)
	assert.Equal(t, model.Point{X: 0, Y: 0}, toFirst[0])

	toBBox := NormaliseToBBoxOrigin(poly)
	b := BBox(toBBox)
	assert.InDelta(t, 0, b.X, 1e-9)
	assert.InDelta(t, 0, b.Y, 1e-9)

	// The two variants are not interchangeable in general: here the
	// bbox-min corner is not the first vertex of a non-square polygon
	// rooted elsewhere.
	skewed := model.Polygon{{X: 10, Y: 10}, {X: 5, Y: 0}, {X: 15, Y: 0}}
	assert.NotEqual(t, NormaliseToFirstVertex(skewed), NormaliseToBBoxOrigin(skewed))
}

func TestRotateAboutBBoxCentre(t *testing.T) {
	sq := square(10)
	rotated := RotateAboutBBoxCentre(sq, 180)
	b := BBox(rotated)
	// 180 degree rotation about bbox centre of a square keeps the same bbox.
	assert.InDelta(t, 0, b.X, 1e-9)
	assert.InDelta(t, 0, b.Y, 1e-9)
	assert.InDelta(t, 10, b.Width, 1e-9)
	assert.InDelta(t, 10, b.Height, 1e-9)
}
