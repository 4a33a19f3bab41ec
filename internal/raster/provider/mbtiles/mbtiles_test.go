package mbtiles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloorDiv(t *testing.T) {
	require.Equal(t, 2, floorDiv(512, 256))
	require.Equal(t, -1, floorDiv(-1, 256))
	require.Equal(t, -1, floorDiv(-256, 256))
	require.Equal(t, 0, floorDiv(0, 256))
}

func TestLonLatToMercatorOrigin(t *testing.T) {
	x, y := lonLatToMercator(0, 0)
	require.InDelta(t, 0, x, 1e-6)
	require.InDelta(t, 0, y, 1e-6)
}

func TestLonLatToMercatorClampsLatitude(t *testing.T) {
	_, y1 := lonLatToMercator(0, 85.05112878)
	_, y2 := lonLatToMercator(0, 89.9)
	require.InDelta(t, y1, y2, 1e-3)
}
