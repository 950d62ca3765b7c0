package ingest

import (
	"path/filepath"
	"testing"

	"github.com/piwi3910/nestforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDXF_MissingFileReturnsError(t *testing.T) {
	res := LoadDXF("/nonexistent/path/does-not-exist.dxf")
	assert.NotEmpty(t, res.Errors)
}

func TestChainSegments_ClosesASquareFromFourLines(t *testing.T) {
	segs := []segment{
		{start: model.Point{X: 0, Y: 0}, end: model.Point{X: 10, Y: 0}},
		{start: model.Point{X: 10, Y: 0}, end: model.Point{X: 10, Y: 10}},
		{start: model.Point{X: 10, Y: 10}, end: model.Point{X: 0, Y: 10}},
		{start: model.Point{X: 0, Y: 10}, end: model.Point{X: 0.05, Y: 0.05}}, // within closureThreshold
	}
	rings := chainSegments(segs, chainTolerance, closureThreshold)
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 4)
}

func TestChainSegments_NoSegmentsReturnsNil(t *testing.T) {
	assert.Nil(t, chainSegments(nil, chainTolerance, closureThreshold))
}

// TestChainSegments_ConnectTolGatesWhetherSegmentsJoin shows connectTol
// controls whether two segments' endpoints are treated as touching at all:
// the same ~0.08-0.11mm gaps between every pair of segments chain into one
// run when connectTol is wide enough to bridge them, and leave every
// segment isolated (no 3+ point chain survives) when it isn't.
func TestChainSegments_ConnectTolGatesWhetherSegmentsJoin(t *testing.T) {
	segs := []segment{
		{start: model.Point{X: 0, Y: 0}, end: model.Point{X: 10, Y: 0}},
		{start: model.Point{X: 10.08, Y: 0}, end: model.Point{X: 10.08, Y: 10}},
		{start: model.Point{X: 10, Y: 10.08}, end: model.Point{X: 0, Y: 10.08}},
		{start: model.Point{X: 0, Y: 10}, end: model.Point{X: 0.08, Y: 0.08}},
	}

	rings := chainSegments(segs, 0.2, 0.1)
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 5)

	assert.Empty(t, chainSegments(segs, 0.05, 0.1))
}

// TestChainSegments_CloseTolGatesRingTrim shows closeTol, independent of
// connectTol, decides only whether a chain that's nearly back at its start
// gets its duplicate closing point trimmed.
func TestChainSegments_CloseTolGatesRingTrim(t *testing.T) {
	segs := []segment{
		{start: model.Point{X: 0, Y: 0}, end: model.Point{X: 10, Y: 0}},
		{start: model.Point{X: 10, Y: 0}, end: model.Point{X: 10, Y: 10}},
		{start: model.Point{X: 10, Y: 10}, end: model.Point{X: 0, Y: 10}},
		{start: model.Point{X: 0, Y: 10}, end: model.Point{X: 0.3, Y: 0.3}}, // 0.42mm from (0,0)
	}

	notTrimmed := chainSegments(segs, 1.0, 0.1)
	require.Len(t, notTrimmed, 1)
	assert.Len(t, notTrimmed[0], 5)

	trimmed := chainSegments(segs, 1.0, 1.0)
	require.Len(t, trimmed, 1)
	assert.Len(t, trimmed[0], 4)
}

func TestBulgeArcPoints_DegenerateChordReturnsEndpoints(t *testing.T) {
	p := model.Point{X: 1, Y: 1}
	pts := bulgeArcPoints(p, p, 0.5, 8)
	assert.Equal(t, model.Polygon{p, p}, pts)
}

func TestDefaultPresets_NonEmptyAndValid(t *testing.T) {
	presets := DefaultPresets()
	require.NotEmpty(t, presets)
	for _, p := range presets {
		assert.Positive(t, p.Width)
		assert.Positive(t, p.Height)
		assert.NotEmpty(t, p.Name)
	}
}

func TestSaveAndLoadPresetsXLSX_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.xlsx")

	original := []model.SheetPreset{
		{ID: "a", Name: "Sheet A", Width: 1000, Height: 500, Category: "mdf"},
		{ID: "b", Name: "Sheet B", Width: 2000, Height: 1000, Category: "ply"},
	}
	require.NoError(t, SavePresetsXLSX(path, original))

	loaded, err := LoadPresetsXLSX(path)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, original[0].Name, loaded[0].Name)
	assert.InDelta(t, original[0].Width, loaded[0].Width, 1e-9)
	assert.InDelta(t, original[1].Height, loaded[1].Height, 1e-9)
}

func TestLoadPresetsXLSX_MissingFileReturnsError(t *testing.T) {
	_, err := LoadPresetsXLSX("/nonexistent/presets.xlsx")
	assert.Error(t, err)
}

func TestDetectPresetColumns_FindsHeaderByAlias(t *testing.T) {
	mapping, found := detectPresetColumns([]string{"SKU", "Description", "W", "H", "Material"})
	assert.True(t, found)
	assert.Equal(t, 0, mapping.ID)
	assert.Equal(t, 1, mapping.Name)
	assert.Equal(t, 2, mapping.Width)
	assert.Equal(t, 3, mapping.Height)
	assert.Equal(t, 4, mapping.Category)
}

