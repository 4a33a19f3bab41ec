package cog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUndoHorizontalDifferencing(t *testing.T) {
	// Row of 4 single-sample pixels encoded as successive deltas: 10, +5, -2, +1
	data := []byte{10, 5, 254, 1}
	undoHorizontalDifferencing(data, 4, 1)
	require.Equal(t, []byte{10, 15, 13, 14}, data)
}

func TestUndoHorizontalDifferencingMultiSample(t *testing.T) {
	// 2 pixels, 2 samples/pixel: [R0,G0, dR1,dG1]
	data := []byte{100, 50, 10, 200}
	undoHorizontalDifferencing(data, 2, 2)
	require.Equal(t, []byte{100, 50, 110, 250 % 256}, data)
}

func TestTilesAcrossDown(t *testing.T) {
	ifd := &IFD{Width: 500, Height: 300, TileWidth: 256, TileHeight: 256}
	require.Equal(t, 2, ifd.TilesAcross())
	require.Equal(t, 2, ifd.TilesDown())
}

func TestPromoteStripsToTiles(t *testing.T) {
	ifd := &IFD{
		Width:           512,
		Height:          300,
		SamplesPerPixel: 1,
		RowsPerStrip:    100,
		StripOffsets:    []uint64{0, 1000, 2000},
		StripByteCounts: []uint64{1000, 1000, 500},
	}
	sl := promoteStripsToTiles(ifd)
	require.NotNil(t, sl)
	require.Equal(t, uint32(100), sl.rowsPerStrip)
	require.GreaterOrEqual(t, int(ifd.TileHeight), 256)
	require.Equal(t, ifd.Width, ifd.TileWidth)
	require.NotEmpty(t, ifd.TileOffsets)
	require.Equal(t, len(ifd.TileOffsets), len(ifd.TileByteCounts))
}

func TestOverviewForZoomPicksClosestLevel(t *testing.T) {
	r := &Reader{
		geo: GeoInfo{PixelSizeX: 1.0},
		ifds: []IFD{
			{Width: 1000},
			{Width: 500},
			{Width: 250},
		},
	}
	require.Equal(t, 0, r.OverviewForZoom(1.0))
	require.Equal(t, 1, r.OverviewForZoom(2.0))
	require.Equal(t, 2, r.OverviewForZoom(4.0))
}

func TestSampleValueInterpretsFormats(t *testing.T) {
	r := &Reader{bo: littleEndianForTest{}}
	require.Equal(t, float64(200), r.sampleValue([]byte{200}, 0, 8, 1))
	require.Equal(t, float64(-56), r.sampleValue([]byte{200}, 0, 8, 2))
}

// littleEndianForTest avoids importing encoding/binary in the test to keep
// the import list minimal; it decodes little-endian bytes by hand and its
// Put methods do nothing.
type littleEndianForTest struct{}

func (littleEndianForTest) Uint16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func (littleEndianForTest) Uint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
func (littleEndianForTest) Uint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}
func (littleEndianForTest) PutUint16(b []byte, v uint16) {}
func (littleEndianForTest) PutUint32(b []byte, v uint32) {}
func (littleEndianForTest) PutUint64(b []byte, v uint64) {}
func (littleEndianForTest) String() string               { return "LittleEndianForTest" }
