// Package registry implements the map registry and registration pipeline:
// MapSettings storage, style materialisation, and the validation rules that
// turn a caller-supplied POST /map body into a fully-derived, renderable
// map, grounded on the reference server's state.rs/mapsettings.rs/style.rs.
package registry

import (
	"github.com/maprender/maprender/internal/affine"
	"github.com/maprender/maprender/internal/geom"
)

// GeoKind discriminates the two source kinds a MapSettings can register,
// spec.md §3's "geo kind raster|vector".
type GeoKind string

const (
	KindRaster GeoKind = "raster"
	KindVector GeoKind = "vector"
)

// MapSettings is the registration record stored in the registry, mirroring
// mapsettings.rs's MapSettings. Path and Name (GeoKind defaults to raster)
// are the only fields a caller must supply; registration derives the rest
// (spec.md §4.9).
type MapSettings struct {
	Name    string  `json:"name"`
	Path    string  `json:"path"`
	GeoKind GeoKind `json:"geo_type,omitempty"`

	Extent       *geom.Window         `json:"extent,omitempty"`
	GeoTransform *affine.GeoTransform `json:"geotransform,omitempty"`
	NoDataValue  []float64            `json:"no_data_value,omitempty"`
	Style        *Style               `json:"style,omitempty"`
	VectorXML    string               `json:"xml,omitempty"`
	DriverName   string               `json:"driver_name,omitempty"`
	EPSG         int                  `json:"epsg,omitempty"`
	SpatialUnit  string               `json:"spatial_units,omitempty"`
	Bounds       *[4]float64          `json:"bounds,omitempty"`
	HasOverview  bool                 `json:"has_overview,omitempty"`
}

// Bands returns the style's selected bands (1-indexed), or band 1 if the
// style has not been filled in yet.
func (m *MapSettings) Bands() []int {
	if m.Style == nil || len(m.Style.Bands) == 0 {
		return []int{1}
	}
	return m.Style.Bands
}

// StyleNoData projects the per-band no-data values onto the style's
// selected bands, matching get_tile.rs's style_no_data_value computation.
func (m *MapSettings) StyleNoData(bands []int) []float64 {
	out := make([]float64, len(bands))
	for i, b := range bands {
		if b-1 >= 0 && b-1 < len(m.NoDataValue) {
			out[i] = m.NoDataValue[b-1]
		}
	}
	return out
}
