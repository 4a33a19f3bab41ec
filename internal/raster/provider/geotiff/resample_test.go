package geotiff

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maprender/maprender/internal/raster/provider"
)

func TestResampleGridNearestIdentity(t *testing.T) {
	src := []float64{1, 2, 3, 4}
	out := resampleGrid(src, 2, 2, 2, 2, provider.ResampleNearest)
	require.Equal(t, src, out)
}

func TestResampleGridUpsampleBilinearMonotone(t *testing.T) {
	src := []float64{0, 10}
	out := resampleGrid(src, 2, 1, 4, 1, provider.ResampleBilinear)
	require.Len(t, out, 4)
	for i := 1; i < len(out); i++ {
		require.GreaterOrEqual(t, out[i], out[i-1])
	}
}

func TestResampleGridDownsampleShrinksDimensions(t *testing.T) {
	src := make([]float64, 16)
	for i := range src {
		src[i] = float64(i)
	}
	out := resampleGrid(src, 4, 4, 2, 2, provider.ResampleCubic)
	require.Len(t, out, 4)
}

func TestResampleGridEmptySource(t *testing.T) {
	out := resampleGrid(nil, 0, 0, 3, 3, provider.ResampleNearest)
	require.Equal(t, make([]float64, 9), out)
}

func TestCatmullRomPassesThroughControlPoints(t *testing.T) {
	require.InDelta(t, 1.0, catmullRom(0, 1, 2, 3, 0), 1e-9)
	require.InDelta(t, 2.0, catmullRom(0, 1, 2, 3, 1), 1e-9)
}
