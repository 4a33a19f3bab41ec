package raster

import (
	"fmt"
	"image"

	"github.com/maprender/maprender/internal/colour"
	"github.com/maprender/maprender/internal/encode"
)

// RawPixels holds one tile's worth of unstyled numeric samples read by
// Raster.ReadTile: one float64 per band per pixel, band-major
// (data[band*height*width + row*width + col]).
//
// The reference implementation parametrizes this container over the GDAL
// scalar type the band was declared with (u8/u16/f32/...). Every provider in
// this corpus already converts samples to float64 before they reach here
// (see internal/cog.sampleValue and the MBTiles channel extraction), so
// there is no GDAL-side saturating cast left to preserve with a type
// parameter — RawPixels is float64 throughout, and the one saturating cast
// the reference implementation relies on (packing a value back into a byte)
// happens explicitly in Style below and in colour.Composite.Get.
type RawPixels struct {
	bands, width, height int
	data                 []float64
	driverName           string
}

func newRawPixels(bands, width, height int, data []float64, driverName string) *RawPixels {
	return &RawPixels{bands: bands, width: width, height: height, data: data, driverName: driverName}
}

func (p *RawPixels) Bands() int  { return p.bands }
func (p *RawPixels) Width() int  { return p.width }
func (p *RawPixels) Height() int { return p.height }

// Lane returns the per-band values at (row, col), gathered across the
// band-major layout into a single contiguous slice for colour.Composite.Get.
func (p *RawPixels) Lane(row, col int) []float64 {
	lane := make([]float64, p.bands)
	stride := p.width * p.height
	base := row*p.width + col
	for b := 0; b < p.bands; b++ {
		lane[b] = p.data[b*stride+base]
	}
	return lane
}

// Style applies a colour map, producing one RGBA quadruple per pixel.
//
// MBTiles rasters bypass the colour map entirely: their bands are already
// the R, G, B, A channels of a pre-rendered tile (see
// internal/raster/provider/mbtiles), so each channel is saturating-cast
// straight to its output byte instead of looked up in cmap — this mirrors
// the reference implementation's Mbtile driver, which maps v.to_u8 over the
// raw array rather than invoking the colour map at all.
func (p *RawPixels) Style(cmap colour.Composite, noData []float64) (*StyledPixels, error) {
	out := make([]byte, p.width*p.height*4)

	if p.driverName == mbtilesDriverName {
		if p.bands != 4 {
			return nil, fmt.Errorf("raster: mbtiles style expects 4 bands, got %d", p.bands)
		}
		for row := 0; row < p.height; row++ {
			for col := 0; col < p.width; col++ {
				lane := p.Lane(row, col)
				idx := (row*p.width + col) * 4
				for c := 0; c < 4; c++ {
					out[idx+c] = saturateByte(lane[c])
				}
			}
		}
		return &StyledPixels{width: p.width, height: p.height, data: out}, nil
	}

	for row := 0; row < p.height; row++ {
		for col := 0; col < p.width; col++ {
			rgba := cmap.Get(p.Lane(row, col), noData)
			idx := (row*p.width + col) * 4
			out[idx], out[idx+1], out[idx+2], out[idx+3] = rgba[0], rgba[1], rgba[2], rgba[3]
		}
	}
	return &StyledPixels{width: p.width, height: p.height, data: out}, nil
}

func saturateByte(v float64) byte {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return byte(v)
}

// StyledPixels is a fully-styled, ready-to-encode RGBA tile.
type StyledPixels struct {
	width, height int
	data          []byte
}

// EncodePNG serialises the tile as an 8-bit non-premultiplied RGBA PNG.
func (p *StyledPixels) EncodePNG() ([]byte, error) {
	img := &image.NRGBA{
		Pix:    p.data,
		Stride: p.width * 4,
		Rect:   image.Rect(0, 0, p.width, p.height),
	}
	enc := &encode.PNGEncoder{}
	b, err := enc.Encode(img)
	if err != nil {
		return nil, fmt.Errorf("raster: encoding tile png: %w", err)
	}
	return b, nil
}
