// Package provider defines the raster-access-provider interface consumed by
// the core tile pipeline: open a dataset, expose georeferencing, read pixel
// windows with resampling, and reproject raster arrays. Concrete
// implementations live in the geotiff and mbtiles subpackages.
package provider

import "github.com/maprender/maprender/internal/affine"

// Resample names a resampling kernel hint passed through to ReadAs.
type Resample int

const (
	ResampleNearest Resample = iota
	ResampleBilinear
	ResampleCubic
)

// Band is one raster band of an open Dataset.
type Band interface {
	// NoDataValue returns the band's no-data sentinel, if declared.
	NoDataValue() (float64, bool)

	// ComputeMinMax returns the band's (min, max), optionally using a fast
	// approximate statistics pass.
	ComputeMinMax(approx bool) (min, max float64, err error)

	// ReadAs reads the pixel window (colOff, rowOff, width, height) —
	// which may be boundless — resampled to (outWidth, outHeight), as
	// float64 in row-major order.
	ReadAs(colOff, rowOff, width, height, outWidth, outHeight int, resample Resample) ([]float64, error)
}

// Dataset is an open geospatial raster dataset.
type Dataset interface {
	// GeoTransform returns the dataset's affine georeferencing.
	GeoTransform() affine.GeoTransform

	// SpatialRef returns an opaque descriptor of the dataset's CRS along
	// with its linear unit ("metre" or "degree").
	SpatialRef() (epsg int, unit string)

	// RasterCount returns the number of bands.
	RasterCount() int

	// RasterSize returns (width, height) in pixels.
	RasterSize() (width, height int)

	// DriverShortName identifies the underlying format driver, e.g.
	// "GTiff" or "MBTiles".
	DriverShortName() string

	// RasterBand returns the i'th band, 1-indexed.
	RasterBand(i int) (Band, error)

	// HasOverviews reports whether the dataset carries precomputed
	// lower-resolution copies.
	HasOverviews() bool

	// Close releases the dataset's handle (e.g. unmaps the backing file).
	Close() error
}

// Opener opens a dataset at path. Each call must yield an independent
// handle: the core opens a fresh Dataset per tile read rather than sharing
// one across concurrent requests.
type Opener interface {
	Open(path string) (Dataset, error)
}
