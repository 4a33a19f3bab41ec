// Package geotiff implements the raster-access provider for Cloud-Optimized
// GeoTIFF and plain GeoTIFF files, backed by internal/cog's pure-Go TIFF
// decoder.
package geotiff

import (
	"fmt"
	"math"

	"github.com/maprender/maprender/internal/affine"
	"github.com/maprender/maprender/internal/cog"
	"github.com/maprender/maprender/internal/raster/provider"
)

// Opener opens GeoTIFF datasets.
type Opener struct{}

func (Opener) Open(path string) (provider.Dataset, error) {
	r, err := cog.Open(path)
	if err != nil {
		return nil, err
	}
	return &Dataset{r: r}, nil
}

// Dataset wraps a *cog.Reader to satisfy provider.Dataset.
type Dataset struct {
	r *cog.Reader
}

func (d *Dataset) GeoTransform() affine.GeoTransform {
	geo := d.r.GeoInfo()
	// GDAL-order: [originX, pixelWidth, 0, originY, 0, -pixelHeight]
	return affine.FromGDAL([6]float64{
		geo.OriginX, geo.PixelSizeX, 0,
		geo.OriginY, 0, -geo.PixelSizeY,
	})
}

func (d *Dataset) SpatialRef() (epsg int, unit string) {
	epsg = d.r.EPSG()
	geo := d.r.GeoInfo()
	// GTModelTypeGeoKey is authoritative when present; a TFW-derived
	// GeoInfo carries no GeoKeys, so fall back to the EPSG:4326 heuristic.
	if geo.Geographic || epsg == 4326 {
		return epsg, "degree"
	}
	return epsg, "metre"
}

func (d *Dataset) RasterCount() int { return d.r.BandCount() }

func (d *Dataset) RasterSize() (width, height int) { return d.r.Width(), d.r.Height() }

func (d *Dataset) DriverShortName() string { return "GTiff" }

func (d *Dataset) RasterBand(i int) (provider.Band, error) {
	if i < 1 || i > d.r.BandCount() {
		return nil, fmt.Errorf("band %d out of range (dataset has %d bands)", i, d.r.BandCount())
	}
	return &Band{r: d.r, index: i - 1}, nil
}

func (d *Dataset) HasOverviews() bool { return d.r.NumOverviews() > 0 }

func (d *Dataset) Close() error { return d.r.Close() }

// Band wraps one 0-indexed sample plane of the dataset.
type Band struct {
	r     *cog.Reader
	index int
}

func (b *Band) NoDataValue() (float64, bool) {
	s := b.r.NoData()
	if s == "" {
		return 0, false
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return 0, false
	}
	return v, true
}

// ComputeMinMax scans the band and returns the observed range. With approx
// set it scans the coarsest available overview (or full resolution when none
// exists); otherwise it always scans full resolution.
func (b *Band) ComputeMinMax(approx bool) (min, max float64, err error) {
	level := 0
	if approx && b.r.NumOverviews() > 0 {
		level = b.r.NumOverviews()
	}
	w := b.r.IFDWidth(level)
	h := b.r.IFDHeight(level)

	values, outW, outH, err := b.r.ReadBandWindowF64(level, b.index, 0, 0, w, h)
	if err != nil {
		return 0, 0, fmt.Errorf("computing min/max: %w", err)
	}
	if outW == 0 || outH == 0 || len(values) == 0 {
		return 0, 0, fmt.Errorf("computing min/max: empty band")
	}

	noData, hasNoData := b.NoDataValue()
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if hasNoData && v == noData {
			continue
		}
		if math.IsNaN(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if math.IsInf(min, 1) {
		return 0, 0, fmt.Errorf("computing min/max: band is entirely no-data")
	}
	return min, max, nil
}

// ReadAs reads the window (colOff, rowOff, width, height) — which may
// extend past the raster's bounds — at the overview level whose native
// resolution best matches the requested output size, zero-fills the
// out-of-bounds margin, and resamples to (outWidth, outHeight).
//
// Resampling is done with a small hand-rolled kernel rather than an image
// library: the samples are arbitrary scalar measurements (elevation,
// reflectance, classification codes, ...), not colour channels, so the
// 16-bit alpha-premultiplied colour model golang.org/x/image/draw resamples
// would quantize and blend them incorrectly. RGBA image resampling (the
// rendered tile's presentation path) uses golang.org/x/image/draw instead;
// see internal/raster/provider/mbtiles.
func (b *Band) ReadAs(colOff, rowOff, width, height, outWidth, outHeight int, resample provider.Resample) ([]float64, error) {
	if width <= 0 || height <= 0 || outWidth <= 0 || outHeight <= 0 {
		return nil, fmt.Errorf("read_as: non-positive dimensions")
	}

	nativePixelSize := b.r.PixelSize() * float64(width) / float64(outWidth)
	level := b.r.OverviewForZoom(nativePixelSize)

	scale := float64(b.r.IFDWidth(level)) / float64(b.r.Width())
	lCol := int(math.Floor(float64(colOff) * scale))
	lRow := int(math.Floor(float64(rowOff) * scale))
	lWidth := int(math.Ceil(float64(width) * scale))
	lHeight := int(math.Ceil(float64(height) * scale))
	if lWidth < 1 {
		lWidth = 1
	}
	if lHeight < 1 {
		lHeight = 1
	}

	clamped, gotW, gotH, err := b.r.ReadBandWindowF64(level, b.index, lCol, lRow, lWidth, lHeight)
	if err != nil {
		return nil, fmt.Errorf("read_as: %w", err)
	}

	// Place the (possibly edge-clamped, smaller) read into a full
	// lWidth x lHeight buffer, zero-filling the boundless margin, so the
	// resampler always works against the requested window's full extent.
	window := make([]float64, lWidth*lHeight)
	if gotW > 0 && gotH > 0 {
		dstColOff := 0
		if lCol < 0 {
			dstColOff = -lCol
		}
		dstRowOff := 0
		if lRow < 0 {
			dstRowOff = -lRow
		}
		for y := 0; y < gotH && dstRowOff+y < lHeight; y++ {
			srcRow := clamped[y*gotW : (y+1)*gotW]
			dstRow := window[(dstRowOff+y)*lWidth+dstColOff:]
			n := gotW
			if dstColOff+n > lWidth {
				n = lWidth - dstColOff
			}
			copy(dstRow[:n], srcRow[:n])
		}
	}

	return resampleGrid(window, lWidth, lHeight, outWidth, outHeight, resample), nil
}

// resampleGrid resamples a row-major float64 grid from (sw, sh) to (dw, dh).
func resampleGrid(src []float64, sw, sh, dw, dh int, resample provider.Resample) []float64 {
	out := make([]float64, dw*dh)
	if sw == 0 || sh == 0 {
		return out
	}

	sampleAt := func(fx, fy float64) float64 {
		switch resample {
		case provider.ResampleNearest:
			x := clampInt(int(math.Round(fx)), 0, sw-1)
			y := clampInt(int(math.Round(fy)), 0, sh-1)
			return src[y*sw+x]
		case provider.ResampleCubic:
			return cubicSample(src, sw, sh, fx, fy)
		default:
			return bilinearSample(src, sw, sh, fx, fy)
		}
	}

	scaleX := float64(sw) / float64(dw)
	scaleY := float64(sh) / float64(dh)
	for y := 0; y < dh; y++ {
		fy := (float64(y) + 0.5) * scaleY - 0.5
		for x := 0; x < dw; x++ {
			fx := (float64(x) + 0.5) * scaleX - 0.5
			out[y*dw+x] = sampleAt(fx, fy)
		}
	}
	return out
}

func bilinearSample(src []float64, sw, sh int, fx, fy float64) float64 {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	v00 := gridAt(src, sw, sh, x0, y0)
	v10 := gridAt(src, sw, sh, x0+1, y0)
	v01 := gridAt(src, sw, sh, x0, y0+1)
	v11 := gridAt(src, sw, sh, x0+1, y0+1)

	top := v00 + (v10-v00)*tx
	bot := v01 + (v11-v01)*tx
	return top + (bot-top)*ty
}

func cubicSample(src []float64, sw, sh int, fx, fy float64) float64 {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	var cols [4]float64
	for j := -1; j <= 2; j++ {
		var p [4]float64
		for i := -1; i <= 2; i++ {
			p[i+1] = gridAt(src, sw, sh, x0+i, y0+j)
		}
		cols[j+1] = catmullRom(p[0], p[1], p[2], p[3], tx)
	}
	return catmullRom(cols[0], cols[1], cols[2], cols[3], ty)
}

func catmullRom(p0, p1, p2, p3, t float64) float64 {
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t*t +
		(-p0+3*p1-3*p2+p3)*t*t*t)
}

func gridAt(src []float64, sw, sh, x, y int) float64 {
	x = clampInt(x, 0, sw-1)
	y = clampInt(y, 0, sh-1)
	return src[y*sw+x]
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
