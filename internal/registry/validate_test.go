package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maprender/maprender/internal/affine"
	"github.com/maprender/maprender/internal/colour"
	"github.com/maprender/maprender/internal/raster/provider"
)

type fakeDataset struct {
	bandCount int
	noData    map[int]float64
}

func (d *fakeDataset) GeoTransform() affine.GeoTransform { return affine.GeoTransform{A: 1, E: 1} }
func (d *fakeDataset) SpatialRef() (int, string)         { return 4326, "degree" }
func (d *fakeDataset) RasterCount() int                  { return d.bandCount }
func (d *fakeDataset) RasterSize() (int, int)            { return 10, 10 }
func (d *fakeDataset) DriverShortName() string           { return "Fake" }
func (d *fakeDataset) HasOverviews() bool                { return false }
func (d *fakeDataset) Close() error                      { return nil }
func (d *fakeDataset) RasterBand(i int) (provider.Band, error) {
	return &fakeBand{nd: d.noData[i]}, nil
}

type fakeBand struct{ nd float64 }

func (b *fakeBand) NoDataValue() (float64, bool) {
	if b.nd == 0 {
		return 0, false
	}
	return b.nd, true
}
func (b *fakeBand) ComputeMinMax(approx bool) (float64, float64, error) { return 0, 1, nil }
func (b *fakeBand) ReadAs(colOff, rowOff, width, height, outWidth, outHeight int, resample provider.Resample) ([]float64, error) {
	return make([]float64, outWidth*outHeight), nil
}

func TestValidateNoDataValuesAutoFillsFromBands(t *testing.T) {
	ds := &fakeDataset{bandCount: 2, noData: map[int]float64{1: -9999}}
	m := MapSettings{Name: "test"}
	err := validateNoDataValues(ds, &m)
	require.NoError(t, err)
	require.Equal(t, []float64{-9999, 0}, m.NoDataValue)
}

func TestValidateNoDataValuesRejectsWrongLength(t *testing.T) {
	ds := &fakeDataset{bandCount: 2}
	m := MapSettings{Name: "test", NoDataValue: []float64{0.0}}
	err := validateNoDataValues(ds, &m)
	require.Error(t, err)
	require.EqualError(t, err, "The raster has 2 bands. Expected the same number of no_data values")
}

func TestValidateBandsRGBWrongCount(t *testing.T) {
	rgbMin, rgbMax := [3]float64{0, 0, 0}, [3]float64{1, 1, 1}
	m := MapSettings{
		Name:  "test",
		Style: &Style{Colours: &ColourDefinition{RGBMin: &rgbMin, RGBMax: &rgbMax}, Bands: []int{1}},
	}
	err := validateBands(m)
	require.Error(t, err)
	require.EqualError(t, err, "To use a RGB style you need to provide 3 bands for map `test`")
}

func TestValidateBandsGradientWrongCount(t *testing.T) {
	m := MapSettings{
		Name: "test",
		Style: &Style{
			Colours: &ColourDefinition{Colours: []colour.Colour{{}, {}}},
			Bands:   []int{1, 2, 3},
		},
	}
	err := validateBands(m)
	require.Error(t, err)
	require.EqualError(t, err, "To use a Gradient style you need to provide 1 band for map `test`")
}

func TestValidateBandsMissingBandsRejected(t *testing.T) {
	rgbMin, rgbMax := [3]float64{0, 0, 0}, [3]float64{1, 1, 1}
	m := MapSettings{
		Name:  "test",
		Style: &Style{Colours: &ColourDefinition{RGBMin: &rgbMin, RGBMax: &rgbMax}},
	}
	err := validateBands(m)
	require.Error(t, err)
	require.EqualError(t, err, "You need to provide selected bands for map `test`")
}

func TestValidateBandsOkWhenConsistent(t *testing.T) {
	m := MapSettings{
		Name: "test",
		Style: &Style{
			Colours: &ColourDefinition{Colours: []colour.Colour{{}, {}}},
			Bands:   []int{1},
		},
	}
	require.NoError(t, validateBands(m))
}

func TestValidateBandsSkipsNamedStyleWithoutColours(t *testing.T) {
	name := "viridis"
	m := MapSettings{Name: "test", Style: &Style{Name: &name}}
	require.NoError(t, validateBands(m))
}

func TestFillStyleDefaultsMissingFields(t *testing.T) {
	m := MapSettings{Name: "test"}
	fillStyle(&m)
	require.NotNil(t, m.Style)
	require.Equal(t, []int{1}, m.Style.Bands)
	require.Equal(t, 0.0, *m.Style.Vmin)
	require.Equal(t, 1.0, *m.Style.Vmax)
}

func TestFillStylePreservesSuppliedFields(t *testing.T) {
	vmin := 5.0
	m := MapSettings{Name: "test", Style: &Style{Vmin: &vmin, Bands: []int{2}}}
	fillStyle(&m)
	require.Equal(t, []int{2}, m.Style.Bands)
	require.Equal(t, 5.0, *m.Style.Vmin)
	require.Equal(t, 1.0, *m.Style.Vmax)
}

func TestToCompositeRGBVariant(t *testing.T) {
	rgbMin, rgbMax := [3]float64{0, 0, 0}, [3]float64{100, 100, 100}
	s := Style{Colours: &ColourDefinition{RGBMin: &rgbMin, RGBMax: &rgbMax}}
	c, err := s.toComposite()
	require.NoError(t, err)
	require.Equal(t, [4]uint8{0, 127, 255, 255}, c.Get([]float64{-10, 50, 150}, nil))
}

func TestToCompositeDiscreteVariant(t *testing.T) {
	s := Style{Colours: &ColourDefinition{Discrete: []DiscreteEntry{
		{Key: 0, Colour: colour.Colour{R: 1, G: 0, B: 0, A: 1}},
	}}}
	c, err := s.toComposite()
	require.NoError(t, err)
	require.Equal(t, [4]uint8{0, 0, 0, 0}, c.Get([]float64{3}, nil))
}
