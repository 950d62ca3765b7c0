package boolean

import (
	"testing"

	clipper "github.com/ctessum/go.clipper"

	"github.com/piwi3910/nestforge/internal/geometry"
	"github.com/piwi3910/nestforge/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, side float64) model.Polygon {
	return model.Polygon{
		{X: x, Y: y},
		{X: x + side, Y: y},
		{X: x + side, Y: y + side},
		{X: x, Y: y + side},
	}
}

func TestOffsetZeroIsIdentity(t *testing.T) {
	e := New()
	sq := []model.Polygon{square(0, 0, 10)}
	out := e.Offset(sq, 0)
	assert.Equal(t, sq, out)
}

func TestDifferenceEmptySubject(t *testing.T) {
	e := New()
	out := e.Difference(nil, []model.Polygon{square(0, 0, 10)})
	assert.Nil(t, out)
}

func TestMinkowskiSumEmptyInputs(t *testing.T) {
	e := New()
	assert.Nil(t, e.MinkowskiSumPath(nil, square(0, 0, 5), true))
	assert.Nil(t, e.MinkowskiSumPath(square(0, 0, 5), nil, true))
}

func TestUnionSingleSquarePreservesArea(t *testing.T) {
	e := New()
	sq := []model.Polygon{square(0, 0, 10)}
	out := e.Union(sq)
	require.NotEmpty(t, out)
	var area float64
	for _, p := range out {
		area += geometry.ShoelaceArea(p)
	}
	assert.InDelta(t, 100.0, area, 1.0/Scale*100)
	assert.True(t, e.Ready())
}

func TestToIntPointRoundsHalfAwayFromZero(t *testing.T) {
	p := toIntPoint(model.Point{X: 1.0005, Y: -1.0005})
	assert.Equal(t, clipper.CInt(1001), p.X)
	assert.Equal(t, clipper.CInt(-1001), p.Y)
}

func TestEngineLastErrNilOnSuccess(t *testing.T) {
	e := New()
	sq := []model.Polygon{square(0, 0, 10)}
	_ = e.Union(sq)
	assert.NoError(t, e.LastErr())
}

func TestOffsetExpandsArea(t *testing.T) {
	e := New()
	sq := []model.Polygon{square(0, 0, 10)}
	expanded := e.Offset(sq, 2)
	require.NotEmpty(t, expanded)
	var area float64
	for _, p := range expanded {
		area += geometry.ShoelaceArea(p)
	}
	assert.Greater(t, area, 100.0)
}
