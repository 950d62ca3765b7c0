package nesting

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/piwi3910/nestforge/internal/collision"
	"github.com/piwi3910/nestforge/internal/geometry"
	"github.com/piwi3910/nestforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareDesign(side float64) model.Design {
	poly := model.Polygon{
		{X: 0, Y: 0},
		{X: side, Y: 0},
		{X: side, Y: side},
		{X: 0, Y: side},
	}
	return model.NewDesign("square", []model.Polygon{poly})
}

func TestRunSheet_NoResultWhenDesignLargerThanSheet(t *testing.T) {
	d := NewDriver(model.DefaultConfig())
	design := squareDesign(500)
	sheet := model.SheetPreset{Width: 100, Height: 100}

	_, ok := d.RunSheet(design, sheet, nil)
	assert.False(t, ok)
}

func TestRunSheet_PlacesAndSatisfiesInvariants(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Margin = 2
	d := NewDriver(cfg)
	design := squareDesign(20)
	sheet := model.SheetPreset{Name: "test", Width: 100, Height: 100}

	result, ok := d.RunSheet(design, sheet, nil)
	require.True(t, ok)
	require.NotEmpty(t, result.Placements)
	assert.Equal(t, len(result.Placements), result.Count)
	assert.NotEmpty(t, result.Strategy)
}

func TestRunSheet_DegenerateSheetReturnsNoResult(t *testing.T) {
	d := NewDriver(model.DefaultConfig())
	design := squareDesign(10)
	sheet := model.SheetPreset{Width: 0, Height: 0}

	_, ok := d.RunSheet(design, sheet, nil)
	assert.False(t, ok)
	assert.True(t, errors.Is(d.LastError(), ErrDegenerateInput))
}

func TestRunAll_RanksByDescendingEfficiency(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Margin = 2
	d := NewDriver(cfg)
	design := squareDesign(20)
	sheets := []model.SheetPreset{
		{Name: "big", Width: 300, Height: 300},
		{Name: "tight", Width: 45, Height: 45},
	}

	results := d.RunAll(design, sheets, nil)
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Efficiency, results[i].Efficiency)
	}
}

func TestRunAll_SkipsSheetsWithNoResult(t *testing.T) {
	d := NewDriver(model.DefaultConfig())
	design := squareDesign(500)
	sheets := []model.SheetPreset{{Width: 100, Height: 100}}

	results := d.RunAll(design, sheets, nil)
	assert.Empty(t, results)
}

func TestRotationSweep_GridLayoutIsCollisionFree(t *testing.T) {
	d := NewDriver(model.Config{Margin: 1, RotationStep: 90})
	design := squareDesign(25)
	bbox := model.BoundingBox{X: 0, Y: 0, Width: 100, Height: 100}

	v, ok := d.rotationSweep(design, bbox)
	require.True(t, ok)
	assert.Empty(t, collision.MultiPlacementCollisionCheck(v.rendered, 0))
}

// TestRotationSweep_ScenarioB_Rectangle100x50On297x420 is spec.md §8
// Scenario B: a 100x50 rectangle on a 297x420 sheet, 3mm margin, laid out
// by the grid-sweep strategy at a regular lattice spacing.
func TestRotationSweep_ScenarioB_Rectangle100x50On297x420(t *testing.T) {
	cfg := model.Config{Margin: 3, RotationStep: 90}
	d := NewDriver(cfg)
	rect := model.Polygon{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50}, {X: 0, Y: 50}}
	design := model.NewDesign("rect-100x50", []model.Polygon{rect})
	bbox := model.BoundingBox{X: 0, Y: 0, Width: 297, Height: 420}

	v, ok := d.rotationSweep(design, bbox)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(v.placements), 15)
	assert.Empty(t, collision.MultiPlacementCollisionCheck(v.rendered, 0))
	for _, r := range v.rendered {
		assert.True(t, collision.PolygonInsideBounds(r, bbox, cfg.Margin))
	}

	xs := map[float64]bool{}
	ys := map[float64]bool{}
	for _, r := range v.rendered {
		b := geometry.BBox(r)
		xs[math.Round(b.X*1e6)/1e6] = true
		ys[math.Round(b.Y*1e6)/1e6] = true
	}
	var xList, yList []float64
	for x := range xs {
		xList = append(xList, x)
	}
	for y := range ys {
		yList = append(yList, y)
	}
	sort.Float64s(xList)
	sort.Float64s(yList)

	require.GreaterOrEqual(t, len(xList), 2)
	colStep := xList[1] - xList[0]
	for i := 2; i < len(xList); i++ {
		assert.InDelta(t, colStep, xList[i]-xList[i-1], 1e-6)
	}
	if len(yList) >= 2 {
		rowStep := yList[1] - yList[0]
		for i := 2; i < len(yList); i++ {
			assert.InDelta(t, rowStep, yList[i]-yList[i-1], 1e-6)
		}
	}
}
