package raster

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maprender/maprender/internal/affine"
	"github.com/maprender/maprender/internal/geom"
	"github.com/maprender/maprender/internal/raster/provider"
	"github.com/maprender/maprender/internal/xyz"
)

// fakeDataset/fakeBand back a tiny in-memory raster for exercising
// tryBoundless/tryOverview without a real file.
type fakeDataset struct {
	width, height int
	grid          []float64
	noData        *float64
	driverName    string
}

func (d *fakeDataset) GeoTransform() affine.GeoTransform      { return affine.GeoTransform{A: 1, E: 1} }
func (d *fakeDataset) SpatialRef() (int, string)              { return 4326, "degree" }
func (d *fakeDataset) RasterCount() int                       { return 1 }
func (d *fakeDataset) RasterSize() (int, int)                 { return d.width, d.height }
func (d *fakeDataset) DriverShortName() string                { return d.driverName }
func (d *fakeDataset) HasOverviews() bool                     { return false }
func (d *fakeDataset) Close() error                           { return nil }
func (d *fakeDataset) RasterBand(i int) (provider.Band, error) {
	return &fakeBand{ds: d}, nil
}

type fakeBand struct{ ds *fakeDataset }

func (b *fakeBand) NoDataValue() (float64, bool) {
	if b.ds.noData == nil {
		return 0, false
	}
	return *b.ds.noData, true
}

func (b *fakeBand) ComputeMinMax(approx bool) (float64, float64, error) { return 0, 1, nil }

// ReadAs nearest-neighbour-resamples the requested (possibly clipped)
// window of the backing grid to (outWidth, outHeight).
func (b *fakeBand) ReadAs(colOff, rowOff, width, height, outWidth, outHeight int, resample provider.Resample) ([]float64, error) {
	out := make([]float64, outWidth*outHeight)
	for i := 0; i < outHeight; i++ {
		srcY := rowOff + i*height/outHeight
		for j := 0; j < outWidth; j++ {
			srcX := colOff + j*width/outWidth
			if srcX < 0 || srcX >= b.ds.width || srcY < 0 || srcY >= b.ds.height {
				out[i*outWidth+j] = 0
				continue
			}
			out[i*outWidth+j] = b.ds.grid[srcY*b.ds.width+srcX]
		}
	}
	return out, nil
}

func TestTryBoundlessFallsThroughWhenRasterCoversWindow(t *testing.T) {
	ds := &fakeDataset{width: 1000, height: 1000, grid: make([]float64, 1000*1000)}
	band, _ := ds.RasterBand(1)
	win := geom.Window{ColOff: 10, RowOff: 10, Width: 256, Height: 256}

	_, ok := tryBoundless(ds, band, win, affine.GeoTransform{A: 1, E: 1}, 4326, [4]float64{}, false, 0, provider.ResampleNearest)
	require.False(t, ok, "a window comfortably inside the raster should fall through to tryOverview")
}

func TestTryBoundlessFillsNoDataOutsideRaster(t *testing.T) {
	nodata := -9999.0
	ds := &fakeDataset{width: 100, height: 100, grid: make([]float64, 100*100), noData: &nodata}
	for i := range ds.grid {
		ds.grid[i] = 5
	}
	band, _ := ds.RasterBand(1)

	// Window straddles the raster's right/bottom edge.
	win := geom.Window{ColOff: 50, RowOff: 50, Width: 256, Height: 256}
	data, ok := tryBoundless(ds, band, win, affine.GeoTransform{A: 1, E: 1}, 4326, [4]float64{}, false, nodata, provider.ResampleNearest)
	require.True(t, ok)
	require.Len(t, data, 256*256)

	// Somewhere far into the tile, past the raster's edge, must be no-data.
	require.Equal(t, nodata, data[255*256+255])
	// Near the top-left, inside both the window and the raster, must not be.
	require.NotEqual(t, nodata, data[0])
}

func TestTryBoundlessReturnsFilledContainerWhenDisjoint(t *testing.T) {
	ds := &fakeDataset{width: 10, height: 10, grid: make([]float64, 100)}
	band, _ := ds.RasterBand(1)
	win := geom.Window{ColOff: 1000, RowOff: 1000, Width: 256, Height: 256}

	data, ok := tryBoundless(ds, band, win, affine.GeoTransform{A: 1, E: 1}, 4326, [4]float64{}, false, 7, provider.ResampleNearest)
	require.True(t, ok)
	for _, v := range data {
		require.Equal(t, 7.0, v)
	}
}

func TestSampleBilinearMidpointAverages(t *testing.T) {
	grid := []float64{0, 10, 20, 30} // 2x2
	v := sampleBilinear(grid, 2, 2, 1.0, 1.0, -1)
	require.InDelta(t, 15.0, v, 1e-9)
}

func TestSampleBilinearOutOfBoundsReturnsFallback(t *testing.T) {
	grid := []float64{1, 2, 3, 4}
	v := sampleBilinear(grid, 2, 2, 100, 100, -42)
	require.Equal(t, -42.0, v)
}

func TestPasteIntoClipsToContainer(t *testing.T) {
	container := make([]float64, 4*4)
	data := []float64{1, 2, 3, 4} // 2x2
	pasteInto(container, 4, data, 2, 2, 3, 3, 5, 5)
	require.Equal(t, 1.0, container[3*4+3])
	for i, v := range container {
		if i != 3*4+3 {
			require.Equal(t, 0.0, v)
		}
	}
}

func TestIntersectsUsesRasterExtent(t *testing.T) {
	// A small WGS84 raster covering lon [-10,-5], lat [40,45] at
	// 0.01 deg/pixel: pixel (0,0) is (-10, 45).
	const size = 500
	ds := &fakeDataset{width: size, height: size, driverName: "Fake"}
	r := &Raster{
		opener:     fakeOpener{ds: ds},
		path:       "fake",
		geo:        affine.GeoTransform{A: 0.01, E: -0.01, C: -10, F: 45},
		epsg:       4326,
		unit:       "degree",
		driverName: "Fake",
		bandCount:  1,
		width:      size,
		height:     size,
		minMax:     [][2]float64{{0, 1}},
	}

	inside := xyz.FromLatLng(-7, 42, 6)
	ok, err := r.Intersects(inside)
	require.NoError(t, err)
	require.True(t, ok, "a tile centred inside the raster's footprint should intersect")

	outside := xyz.FromLatLng(150, -30, 6) // Australia, nowhere near the raster
	ok, err = r.Intersects(outside)
	require.NoError(t, err)
	require.False(t, ok, "a tile far outside the raster's footprint should not intersect")
}

type fakeOpener struct{ ds provider.Dataset }

func (o fakeOpener) Open(path string) (provider.Dataset, error) { return o.ds, nil }
