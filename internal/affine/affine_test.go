package affine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInverseRoundTrip(t *testing.T) {
	g := GeoTransform{A: 2, B: 0.1, C: 10, D: 0.05, E: -3, F: 20}
	inv, err := g.Inverse()
	require.NoError(t, err)

	x, y := g.Apply(5, 7)
	col, row := inv.Apply(x, y)
	require.InDelta(t, 5, col, 1e-9)
	require.InDelta(t, 7, row, 1e-9)
}

func TestComposeAssociativity(t *testing.T) {
	a := Translation(3, 4)
	b := Scale(2, 0.5)
	c := Shear(10, -5)

	p1 := a.Compose(b).Compose(c)
	p2 := a.Compose(b.Compose(c))

	x1, y1 := p1.Apply(12, -8)
	x2, y2 := p2.Apply(12, -8)
	require.InDelta(t, x1, x2, 1e-9)
	require.InDelta(t, y1, y2, 1e-9)
}

func TestInverseSingular(t *testing.T) {
	g := GeoTransform{A: 1, B: 1, C: 0, D: 1, E: 1, F: 0}
	_, err := g.Inverse()
	require.Error(t, err)
	var ae *AffineError
	require.ErrorAs(t, err, &ae)
}

func TestE1RowCol(t *testing.T) {
	g := FromGDAL([6]float64{-75.7180969831, 0.000898315284, 0, -17.50457163, 0, -0.000898315284})
	row, col, err := g.RowCol(-37.858599333933114, -8.753184128460619)
	require.NoError(t, err)
	require.Equal(t, 0, row)
	require.Equal(t, 0, col)
}

func TestE2RowCol(t *testing.T) {
	g := FromGDAL([6]float64{-75.7180969831, 0.000898315284, 0, -17.50457163, 0, -0.000898315284})
	row, col, err := g.RowCol(-78.0, -23.0)
	require.NoError(t, err)
	require.Equal(t, 23917, row)
	require.Equal(t, 1, col)
}

func TestXYCenterOfPixel(t *testing.T) {
	g := Translation(0, 0)
	x, y := g.XY(0, 0)
	require.InDelta(t, 0.5, x, 1e-12)
	require.InDelta(t, 0.5, y, 1e-12)
}

func TestGDALRoundTrip(t *testing.T) {
	g := [6]float64{10, 1, 0.1, 20, 0.2, -1}
	got := FromGDAL(g).ToGDAL()
	for i := range g {
		require.True(t, math.Abs(g[i]-got[i]) < 1e-12)
	}
}
