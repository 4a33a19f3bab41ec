package registry

import (
	"github.com/maprender/maprender/internal/mapengine"
	"github.com/maprender/maprender/internal/raster/provider"
)

// validateNoDataValues fills m.NoDataValue from the dataset's per-band
// no-data values (defaulting each to 0 when the band declares none) if the
// caller did not supply any, or rejects a supplied list whose length
// disagrees with the raster's band count — verbatim error text from
// state.rs's validate_no_data_values (spec.md §8 scenario-adjacent E8).
func validateNoDataValues(ds provider.Dataset, m *MapSettings) error {
	bandCount := ds.RasterCount()
	if m.NoDataValue == nil {
		values := make([]float64, bandCount)
		for i := 0; i < bandCount; i++ {
			band, err := ds.RasterBand(i + 1)
			if err != nil {
				return err
			}
			if nd, ok := band.NoDataValue(); ok {
				values[i] = nd
			}
		}
		m.NoDataValue = values
		return nil
	}
	if len(m.NoDataValue) != bandCount {
		return mapengine.NewMsg("The raster has %d bands. Expected the same number of no_data values", bandCount)
	}
	return nil
}

// validateBands checks band/colour consistency against the style the
// caller supplied (before defaults are filled in): an RGB colour
// definition needs exactly 3 bands, any other colour definition needs
// exactly 1, and colours without a band selection is rejected outright.
// A map with no style at all (or a style with no colour definition) is
// not validated here — it gets a default at fillStyle. Error text is
// verbatim from state.rs's validate_bands (spec.md §8 scenario E8).
func validateBands(m MapSettings) error {
	if m.Style == nil || !m.Style.hasColours() {
		return nil
	}
	if len(m.Style.Bands) == 0 {
		return mapengine.NewMsg("You need to provide selected bands for map `%s`", m.Name)
	}
	if m.Style.isRGB() {
		if len(m.Style.Bands) != 3 {
			return mapengine.NewMsg("To use a RGB style you need to provide 3 bands for map `%s`", m.Name)
		}
		return nil
	}
	if len(m.Style.Bands) != 1 {
		return mapengine.NewMsg("To use a Gradient style you need to provide 1 band for map `%s`", m.Name)
	}
	return nil
}

// fillStyle assigns a style to maps that did not have one, and fills in
// any missing vmin/vmax/bands on a supplied style, matching state.rs's
// fill_style. Unlike the original it does not also pick the RGB-vs-viridis
// default here — that happens earlier, in Registry.AddMap, since the
// choice depends on the raster's band count which fillStyle does not see.
func fillStyle(m *MapSettings) {
	style := defaultStyle()
	if m.Style != nil {
		style = *m.Style
	}
	if style.Bands == nil {
		d := defaultStyle()
		style.Bands = d.Bands
	}
	if style.Vmin == nil {
		d := defaultStyle()
		style.Vmin = d.Vmin
	}
	if style.Vmax == nil {
		d := defaultStyle()
		style.Vmax = d.Vmax
	}
	m.Style = &style
}
