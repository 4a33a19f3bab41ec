package projection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityRoundTrip(t *testing.T) {
	c := ForEPSG(4326)
	require.NotNil(t, c)
	lon, lat := c.ToWGS84(8.5, 47.3)
	require.Equal(t, 8.5, lon)
	require.Equal(t, 47.3, lat)
}

func TestWebMercatorRoundTrip(t *testing.T) {
	c := ForEPSG(3857)
	x, y := c.FromWGS84(8.5, 47.3)
	lon, lat := c.ToWGS84(x, y)
	require.InDelta(t, 8.5, lon, 1e-9)
	require.InDelta(t, 47.3, lat, 1e-9)
}

func TestSwissLV95RoundTrip(t *testing.T) {
	c := ForEPSG(2056)
	// Bern, approximately.
	lon, lat := c.ToWGS84(2_600_000, 1_200_000)
	require.InDelta(t, 7.4374, lon, 0.01)
	require.InDelta(t, 46.9524, lat, 0.01)

	x, y := c.FromWGS84(lon, lat)
	require.InDelta(t, 2_600_000, x, 1.0)
	require.InDelta(t, 1_200_000, y, 1.0)
}

func TestForEPSGUnsupportedReturnsNil(t *testing.T) {
	require.Nil(t, ForEPSG(9999))
}

func TestBoundsToWGS84Envelope(t *testing.T) {
	c := ForEPSG(3857)
	minLon, minLat, maxLon, maxLat := BoundsToWGS84(c, -100, -100, 100, 100)
	require.Less(t, minLon, 0.0)
	require.Less(t, minLat, 0.0)
	require.Greater(t, maxLon, 0.0)
	require.Greater(t, maxLat, 0.0)
}
