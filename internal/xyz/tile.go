// Package xyz implements slippy-map XYZ tile addressing, its geographic and
// Web Mercator extents, and the conversion of a tile into a pixel Window over
// an arbitrary-CRS raster.
package xyz

import (
	"math"

	"github.com/maprender/maprender/internal/affine"
	"github.com/maprender/maprender/internal/geom"
)

// TileSize is the ground size of a rendered tile, in pixels.
const TileSize = 256

// MaxZoomLevel bounds the zoom axis.
const MaxZoomLevel = 32

// EarthRadius is the sphere radius (metres) used for Web Mercator math.
const EarthRadius = 6378137.0

const fromLatLngEpsilon = 1e-14

// Tile identifies a 256x256 slippy-map tile.
type Tile struct {
	X, Y, Z int
}

// New constructs a Tile. Arguments mirror the conventional (x, y, z) order.
func New(x, y, z int) Tile { return Tile{X: x, Y: y, Z: z} }

// FromLatLng returns the tile containing (lng, lat) at zoom z, clamping to
// the valid tile index range and nudging on-boundary points into the cell.
func FromLatLng(lng, lat float64, z int) Tile {
	n := math.Exp2(float64(z))
	x := int((lng+180.0)/360.0*n + fromLatLngEpsilon)
	latRad := lat * math.Pi / 180.0
	y := int((1.0-math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi)/2.0*n + fromLatLngEpsilon)
	x = clampInt(x, 0, int(n)-1)
	y = clampInt(y, 0, int(n)-1)
	return Tile{X: x, Y: y, Z: z}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Ul returns the upper-left geographic corner (lon, lat) in degrees.
func (t Tile) Ul() (lon, lat float64) {
	n := math.Exp2(float64(t.Z))
	lon = float64(t.X)/n*360.0 - 180.0
	latRad := math.Atan(math.Sinh(math.Pi * (1.0 - 2.0*float64(t.Y)/n)))
	lat = latRad * 180.0 / math.Pi
	return
}

// Bounds returns the geographic extent (minLon, minLat, maxLon, maxLat).
func (t Tile) Bounds() (minLon, minLat, maxLon, maxLat float64) {
	minLon, maxLat = t.Ul()
	maxLon, minLat = (Tile{X: t.X + 1, Y: t.Y + 1, Z: t.Z}).Ul()
	return
}

// lonLatToMercator projects (lon, lat) degrees to Web Mercator metres.
func lonLatToMercator(lon, lat float64) (x, y float64) {
	x = lon * math.Pi / 180.0 * EarthRadius
	latRad := lat * math.Pi / 180.0
	y = math.Log(math.Tan(math.Pi/4.0+latRad/2.0)) * EarthRadius
	return
}

// UlXY returns the upper-left corner in Web Mercator metres.
func (t Tile) UlXY() (x, y float64) {
	lon, lat := t.Ul()
	return lonLatToMercator(lon, lat)
}

// BoundsXY returns the Web Mercator extent (minX, minY, maxX, maxY).
func (t Tile) BoundsXY() (minX, minY, maxX, maxY float64) {
	minLon, minLat, maxLon, maxLat := t.Bounds()
	minX, maxY = lonLatToMercator(minLon, maxLat)
	maxX, minY = lonLatToMercator(maxLon, minLat)
	return
}

// Vertices returns the four geographic corners in order: upper-left,
// upper-right, lower-right, lower-left.
func (t Tile) Vertices() (ul, ur, lr, ll [2]float64) {
	minLon, minLat, maxLon, maxLat := t.Bounds()
	ul = [2]float64{minLon, maxLat}
	ur = [2]float64{maxLon, maxLat}
	lr = [2]float64{maxLon, minLat}
	ll = [2]float64{minLon, minLat}
	return
}

// ZoomIn returns the four children at z+1, or false at MaxZoomLevel.
func (t Tile) ZoomIn() ([4]Tile, bool) {
	if t.Z >= MaxZoomLevel {
		return [4]Tile{}, false
	}
	z := t.Z + 1
	x, y := t.X*2, t.Y*2
	return [4]Tile{
		{x, y, z}, {x + 1, y, z}, {x, y + 1, z}, {x + 1, y + 1, z},
	}, true
}

// ZoomOut returns the parent tile at z-1, or false at z=0.
func (t Tile) ZoomOut() (Tile, bool) {
	if t.Z <= 0 {
		return Tile{}, false
	}
	return Tile{X: t.X / 2, Y: t.Y / 2, Z: t.Z - 1}, true
}

// resolutionAt returns the tile's ground resolution in metres/pixel.
func resolutionAt(z int) float64 {
	return (2 * math.Pi * EarthRadius / TileSize) / math.Exp2(float64(z))
}

// RasterGeometry is the subset of raster metadata ToWindow needs: its
// geotransform, spatial unit, and an inverse world-to-lonlat projector.
type RasterGeometry struct {
	GeoTransform affine.GeoTransform
	SpatialUnit  string // "metre" or "degree"
	// FromWGS84 projects (lon, lat) degrees into the raster's CRS.
	FromWGS84 func(lon, lat float64) (x, y float64)
}

// ToWindow converts the tile into a pixel Window over the given raster,
// returning whether the tile's footprint is skewed (non-axis-aligned) in the
// raster's pixel space, which callers use to decide whether a reprojected
// read is required.
func (t Tile) ToWindow(rg RasterGeometry) (geom.Window, bool) {
	ulLL, urLL, lrLL, llLL := t.Vertices()

	ulX, ulY := rg.FromWGS84(ulLL[0], ulLL[1])
	urX, urY := rg.FromWGS84(urLL[0], urLL[1])
	lrX, lrY := rg.FromWGS84(lrLL[0], lrLL[1])
	llX, llY := rg.FromWGS84(llLL[0], llLL[1])

	res := resolutionAt(t.Z)
	offset := 0.01 * res
	if rg.SpatialUnit != "metre" {
		// Convert the metre-space nudge to degrees via the Mercator->WGS84
		// small-angle approximation used at the equator.
		_, latRes := mercatorDeltaToWGS84(res, res)
		offset = 0.01 * latRes
	}

	// Nudge each corner toward the tile interior to avoid on-boundary
	// sampling ambiguity.
	ulX, ulY = ulX+offset, ulY-offset
	urX, urY = urX-offset, urY-offset
	lrX, lrY = lrX-offset, lrY+offset
	llX, llY = llX+offset, llY+offset

	rowcol := func(x, y float64) (row, col int, err error) {
		if rg.SpatialUnit == "metre" {
			// Documented quirk: compensates for an axis-mapping effect in
			// the raster-access provider. Replicated literally.
			return rg.GeoTransform.RowCol(y, x)
		}
		return rg.GeoTransform.RowCol(x, y)
	}

	ulRow, ulCol, err := rowcol(ulX, ulY)
	if err != nil {
		return geom.Window{}, false
	}
	urRow, urCol, err := rowcol(urX, urY)
	if err != nil {
		return geom.Window{}, false
	}
	lrRow, lrCol, err := rowcol(lrX, lrY)
	if err != nil {
		return geom.Window{}, false
	}
	llRow, llCol, err := rowcol(llX, llY)
	if err != nil {
		return geom.Window{}, false
	}

	// Skew detection: axis-aligned iff opposite corners share rows/cols.
	isSkewed := !(ulRow == urRow && lrRow == llRow && ulCol == llCol && urCol == lrCol)

	minRow := minInt4(ulRow, urRow, lrRow, llRow)
	maxRow := maxInt4(ulRow, urRow, lrRow, llRow)
	minCol := minInt4(ulCol, urCol, lrCol, llCol)
	maxCol := maxInt4(ulCol, urCol, lrCol, llCol)

	// Inflate by one pixel on each axis to avoid truncation.
	w := geom.Window{
		ColOff: minCol,
		RowOff: minRow,
		Width:  maxCol - minCol + 1,
		Height: maxRow - minRow + 1,
	}
	return w, isSkewed
}

// mercatorDeltaToWGS84 approximates the degree-space size of a metre-space
// (dx, dy) delta at the equator, used only to convert the 0.01*tile_resolution
// vertex nudge into degrees when the raster CRS is angular.
func mercatorDeltaToWGS84(dx, dy float64) (dLon, dLat float64) {
	dLon = dx / EarthRadius * 180.0 / math.Pi
	dLat = dy / EarthRadius * 180.0 / math.Pi
	return
}

func minInt4(a, b, c, d int) int {
	m := a
	for _, v := range []int{b, c, d} {
		if v < m {
			m = v
		}
	}
	return m
}

func maxInt4(a, b, c, d int) int {
	m := a
	for _, v := range []int{b, c, d} {
		if v > m {
			m = v
		}
	}
	return m
}
