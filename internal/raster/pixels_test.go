package raster

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maprender/maprender/internal/colour"
)

func TestLaneGathersAcrossBandMajorLayout(t *testing.T) {
	// 2 bands, 2x2 pixels: band 0 is all 1s, band 1 is all 2s.
	data := []float64{1, 1, 1, 1, 2, 2, 2, 2}
	p := newRawPixels(2, 2, 2, data, "Generic")
	require.Equal(t, []float64{1, 2}, p.Lane(0, 0))
	require.Equal(t, []float64{1, 2}, p.Lane(1, 1))
}

func TestStyleGenericAppliesColourMap(t *testing.T) {
	cmap := colour.NewGradient([]colour.Colour{{R: 0, G: 0, B: 0, A: 1}, {R: 1, G: 1, B: 1, A: 1}}, 0, 10)
	data := []float64{0, 10} // 1 band, 1x2 pixels
	p := newRawPixels(1, 2, 1, data, "Generic")

	styled, err := p.Style(cmap, nil)
	require.NoError(t, err)
	require.Equal(t, byte(0), styled.data[0])   // first pixel R: black
	require.Equal(t, byte(255), styled.data[4]) // second pixel R: white
}

func TestStyleMbtilesBypassesColourMap(t *testing.T) {
	// 4 bands (R,G,B,A), 1 pixel: values already 0-255 scale.
	data := []float64{10, 20, 30, 255}
	p := newRawPixels(4, 1, 1, data, mbtilesDriverName)

	styled, err := p.Style(colour.Composite{}, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{10, 20, 30, 255}, styled.data)
}

func TestStyleMbtilesRejectsWrongBandCount(t *testing.T) {
	p := newRawPixels(1, 1, 1, []float64{1}, mbtilesDriverName)
	_, err := p.Style(colour.Composite{}, nil)
	require.Error(t, err)
}

func TestSaturateByteClampsRange(t *testing.T) {
	require.Equal(t, byte(0), saturateByte(-5))
	require.Equal(t, byte(255), saturateByte(999))
	require.Equal(t, byte(128), saturateByte(128.9))
}

func TestEncodePNGRoundTrips(t *testing.T) {
	p := newRawPixels(1, 2, 2, []float64{0, 255, 255, 0}, "Generic")
	cmap := colour.NewGradient([]colour.Colour{{R: 0, G: 0, B: 0, A: 1}, {R: 1, G: 1, B: 1, A: 1}}, 0, 255)
	styled, err := p.Style(cmap, nil)
	require.NoError(t, err)

	pngBytes, err := styled.EncodePNG()
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(pngBytes))
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Bounds().Dx())
	require.Equal(t, 2, decoded.Bounds().Dy())
}
