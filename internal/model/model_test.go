package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(side float64) Polygon {
	return Polygon{{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side}}
}

func TestBoundingBox_Contains(t *testing.T) {
	b := BoundingBox{X: 0, Y: 0, Width: 100, Height: 100}
	assert.True(t, b.Contains(Point{X: 50, Y: 50}, 5))
	assert.False(t, b.Contains(Point{X: 2, Y: 50}, 5))
}

func TestBoundingBox_ShrinkAndValid(t *testing.T) {
	b := BoundingBox{X: 0, Y: 0, Width: 100, Height: 100}
	shrunk := b.Shrink(10)
	assert.Equal(t, BoundingBox{X: 10, Y: 10, Width: 80, Height: 80}, shrunk)
	assert.True(t, shrunk.Valid())

	tooMuch := b.Shrink(60)
	assert.False(t, tooMuch.Valid())
}

func TestMainPolygon_PicksLargestVertexCount(t *testing.T) {
	triangle := Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}}
	hexagon := Polygon{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1.5, Y: 1}, {X: 1, Y: 2}, {X: 0, Y: 2}, {X: -0.5, Y: 1},
	}
	d := NewDesign("test", []Polygon{triangle, hexagon})
	assert.Equal(t, hexagon, d.MainPolygon())
}

func TestMainPolygonByArea_PicksLargestArea(t *testing.T) {
	small := square(2)
	big := square(50)
	d := NewDesign("test", []Polygon{small, big})
	assert.Equal(t, big, d.MainPolygonByArea(func(p Polygon) float64 { return shoelaceAreaAbs(p) }))
}

func TestNewDesign_ComputesBoundsAndArea(t *testing.T) {
	d := NewDesign("part", []Polygon{square(10)})
	require.NotEmpty(t, d.ID)
	assert.Equal(t, BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}, d.BoundingBox)
	assert.InDelta(t, 100, d.TotalArea, 1e-9)
}

func TestFingerprint_DistinguishesShapesAndStable(t *testing.T) {
	a := Fingerprint(square(10))
	b := Fingerprint(square(10))
	c := Fingerprint(square(20))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestAllowedRotations_StepDivides360(t *testing.T) {
	c := Config{RotationStep: 90}
	assert.Equal(t, []float64{0, 90, 180, 270}, c.AllowedRotations())
}

func TestAllowedRotations_InvalidStepFallsBackToZero(t *testing.T) {
	c := Config{RotationStep: 0}
	assert.Equal(t, []float64{0}, c.AllowedRotations())
	c2 := Config{RotationStep: 400}
	assert.Equal(t, []float64{0}, c2.AllowedRotations())
}

func TestComputeResult_FormulasMatchSpec(t *testing.T) {
	sheet := SheetPreset{Width: 100, Height: 100}
	placements := []Placement{{X: 0, Y: 0}, {X: 10, Y: 10}}
	designArea := 400.0

	r := ComputeResult(sheet, placements, designArea, nil)
	assert.Equal(t, 2, r.Count)
	assert.InDelta(t, 800, r.UsedArea, 1e-9)
	assert.InDelta(t, 8, r.Efficiency, 1e-9)
	assert.InDelta(t, 9200, r.WastedArea, 1e-9)
	assert.False(t, r.Warning)
}

func TestComputeResult_WarningWhenNearEdge(t *testing.T) {
	sheet := SheetPreset{Width: 100, Height: 100}
	placements := []Placement{{X: 0, Y: 0}}
	r := ComputeResult(sheet, placements, 10, func(p Placement) float64 { return 1.0 })
	assert.True(t, r.Warning)
}

func TestDefaultConfig_MatchesSpecDefaults(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 3.0, c.Margin)
	assert.Equal(t, 90.0, c.RotationStep)
	assert.Equal(t, AlgorithmNFP, c.Algorithm)
	assert.Equal(t, 30, c.GA.PopulationSize)
	assert.Equal(t, 50, c.GA.Generations)
}
