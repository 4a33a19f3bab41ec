package xyz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestE3Ul(t *testing.T) {
	lon, lat := New(1, 2, 3).Ul()
	require.InDelta(t, -135.0, lon, 1e-9)
	require.InDelta(t, 66.51326044311186, lat, 1e-9)
}

func TestReversibility(t *testing.T) {
	for z := 0; z <= 20; z += 4 {
		tile := New(3, 5, z)
		if tile.X >= 1<<uint(z) || tile.Y >= 1<<uint(z) {
			continue
		}
		lon, lat := tile.Ul()
		got := FromLatLng(lon, lat, z)
		require.Equal(t, tile, got)
	}
}

func TestZoomInOutInverse(t *testing.T) {
	tile := New(3, 5, 4)
	children, ok := tile.ZoomIn()
	require.True(t, ok)
	for _, c := range children {
		parent, ok := c.ZoomOut()
		require.True(t, ok)
		require.Equal(t, tile, parent)
	}
}

func TestZoomInAtMax(t *testing.T) {
	tile := New(0, 0, MaxZoomLevel)
	_, ok := tile.ZoomIn()
	require.False(t, ok)
}

func TestZoomOutAtZero(t *testing.T) {
	tile := New(0, 0, 0)
	_, ok := tile.ZoomOut()
	require.False(t, ok)
}
