// Package projection converts between WGS84 longitude/latitude and the
// handful of coordinate reference systems the registered rasters carry
// (Web Mercator, Swiss LV95, and WGS84 itself). The corpus has no PROJ/GDAL
// spatial-reference binding, so these are the closed-form formulas for the
// specific CRSes the reference implementation's fixture data and swisstopo
// coverage use.
package projection

import "math"

// CRS converts between a specific coordinate reference system and WGS84.
type CRS interface {
	// ToWGS84 converts source CRS coordinates to (lon, lat) degrees.
	ToWGS84(x, y float64) (lon, lat float64)
	// FromWGS84 converts (lon, lat) degrees to source CRS coordinates.
	FromWGS84(lon, lat float64) (x, y float64)
	// EPSG returns the EPSG code.
	EPSG() int
	// Unit returns the CRS's linear unit, "metre" or "degree".
	Unit() string
}

// ForEPSG returns the CRS for the given EPSG code, or nil if unsupported.
func ForEPSG(epsg int) CRS {
	switch epsg {
	case 4326:
		return identity{}
	case 3857:
		return webMercator{}
	case 2056:
		return swissLV95{}
	default:
		return nil
	}
}

type identity struct{}

func (identity) ToWGS84(x, y float64) (lon, lat float64)   { return x, y }
func (identity) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (identity) EPSG() int                                 { return 4326 }
func (identity) Unit() string                               { return "degree" }

const earthRadius = 6378137.0

type webMercator struct{}

func (webMercator) ToWGS84(x, y float64) (lon, lat float64) {
	lon = x / earthRadius * 180.0 / math.Pi
	lat = (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180.0 / math.Pi
	return
}

func (webMercator) FromWGS84(lon, lat float64) (x, y float64) {
	x = lon * math.Pi / 180.0 * earthRadius
	latRad := lat * math.Pi / 180.0
	y = math.Log(math.Tan(math.Pi/4.0+latRad/2.0)) * earthRadius
	return
}

func (webMercator) EPSG() int    { return 3857 }
func (webMercator) Unit() string { return "metre" }

// swissLV95 implements EPSG:2056 (CH1903+ / LV95) via swisstopo's published
// polynomial approximation, accurate to about 1 metre.
type swissLV95 struct{}

func (swissLV95) ToWGS84(easting, northing float64) (lon, lat float64) {
	y := (easting - 2_600_000) / 1_000_000
	x := (northing - 1_200_000) / 1_000_000

	lonSec := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y

	latSec := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x

	lon = lonSec * 100.0 / 36.0
	lat = latSec * 100.0 / 36.0
	return
}

func (swissLV95) FromWGS84(lon, lat float64) (easting, northing float64) {
	phiSec := lat * 3600
	lambdaSec := lon * 3600

	phiAux := (phiSec - 169028.66) / 10000
	lambdaAux := (lambdaSec - 26782.5) / 10000

	easting = 2_600_072.37 +
		211_455.93*lambdaAux -
		10_938.51*lambdaAux*phiAux -
		0.36*lambdaAux*phiAux*phiAux -
		44.54*lambdaAux*lambdaAux*lambdaAux

	northing = 1_200_147.07 +
		308_807.95*phiAux +
		3_745.25*lambdaAux*lambdaAux +
		76.63*phiAux*phiAux -
		194.56*lambdaAux*lambdaAux*phiAux +
		119.79*phiAux*phiAux*phiAux

	return
}

func (swissLV95) EPSG() int    { return 2056 }
func (swissLV95) Unit() string { return "metre" }

// BoundsToWGS84 converts an axis-aligned bounding box in the CRS's own
// coordinates to a WGS84 bounding box, accounting for the fact that a
// CRS-aligned rectangle's corners are not guaranteed to map to a
// WGS84-aligned rectangle: all four corners are projected and the result
// is their envelope.
func BoundsToWGS84(c CRS, minX, minY, maxX, maxY float64) (minLon, minLat, maxLon, maxLat float64) {
	corners := [4][2]float64{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}
	minLon, minLat = math.Inf(1), math.Inf(1)
	maxLon, maxLat = math.Inf(-1), math.Inf(-1)
	for _, c2 := range corners {
		lon, lat := c.ToWGS84(c2[0], c2[1])
		minLon = math.Min(minLon, lon)
		minLat = math.Min(minLat, lat)
		maxLon = math.Max(maxLon, lon)
		maxLat = math.Max(maxLat, lat)
	}
	return
}
