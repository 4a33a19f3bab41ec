package colour

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestE4RGBClamping(t *testing.T) {
	c := NewRGB([3]float64{0, 0, 0}, [3]float64{100, 100, 100})
	got := c.Get([]float64{0.0, 50.0, 100.0}, nil)
	require.Equal(t, [4]uint8{0, 127, 255, 255}, got)
}

func TestE5DiscreteUnknownKey(t *testing.T) {
	c := NewDiscretePalette([]DiscreteEntry{
		{0, FromInts(255, 0, 0, 255)},
		{1, FromInts(0, 255, 0, 255)},
		{2, FromInts(0, 0, 255, 255)},
	})
	got := c.Get([]float64{3.0}, nil)
	require.Equal(t, [4]uint8{0, 0, 0, 0}, got)
}

func TestRGBClampingOutOfRange(t *testing.T) {
	c := NewRGB([3]float64{0, 0, 0}, [3]float64{100, 100, 100})
	got := c.Get([]float64{-10, 50, 150}, nil)
	require.Equal(t, [4]uint8{0, 127, 255, 255}, got)
}

func TestGradientMonotonicity(t *testing.T) {
	c := NewGradient([]Colour{FromInts(0, 0, 0, 255), FromInts(255, 255, 255, 255)}, 0, 10)
	v1, v2 := 2.0, 8.0
	b1 := c.Get([]float64{v1}, nil)
	b2 := c.Get([]float64{v2}, nil)
	require.Equal(t, uint8(255), b1[3])
	require.Equal(t, uint8(255), b2[3])
	require.True(t, b1[0] <= b2[0])
}

func TestGradientNoDataAlpha(t *testing.T) {
	c := NewGradient([]Colour{FromInts(10, 20, 30, 255), FromInts(40, 50, 60, 255)}, 0, 10)
	b := c.Get([]float64{5}, []float64{5})
	require.Equal(t, uint8(0), b[3])
}

func TestGradientPanicOnNoDataLengthMismatch(t *testing.T) {
	c := NewGradient([]Colour{FromInts(0, 0, 0, 255)}, 0, 10)
	require.Panics(t, func() { c.Get([]float64{5}, []float64{1, 2}) })
}

func TestRGBPanicOnNoDataLengthMismatch(t *testing.T) {
	c := NewRGB([3]float64{0, 0, 0}, [3]float64{100, 100, 100})
	require.Panics(t, func() { c.Get([]float64{1, 2, 3}, []float64{1}) })
}

func TestColourFromHex(t *testing.T) {
	c, err := FromHex("#ff8000")
	require.NoError(t, err)
	require.Equal(t, [4]uint8{255, 128, 0, 255}, c.Bytes())

	c2, err := FromHex("00ff0080")
	require.NoError(t, err)
	b := c2.Bytes()
	require.Equal(t, uint8(0), b[0])
	require.Equal(t, uint8(255), b[1])
	require.Equal(t, uint8(0), b[2])
}
