package cog

// GeoTIFF GeoKey IDs this reader understands.
const (
	gkModelTypeGeoKey       = 1024 // 1 = projected, 2 = geographic, 3 = geocentric
	gkGeographicTypeGeoKey  = 2048
	gkProjectedCSTypeGeoKey = 3072
)

// GeoTIFF GTModelTypeGeoKey values.
const (
	modelTypeProjected  = 1
	modelTypeGeographic = 2
)

// GeoInfo holds parsed GeoTIFF metadata.
type GeoInfo struct {
	EPSG       int     // EPSG code (e.g. 2056)
	Geographic bool    // true when GTModelTypeGeoKey says geographic (lon/lat degrees)
	OriginX    float64 // easting of upper-left corner
	OriginY    float64 // northing of upper-left corner
	PixelSizeX float64 // pixel width in CRS units (positive)
	PixelSizeY float64 // pixel height in CRS units (positive)
}

// parseGeoInfo extracts geographic metadata from an IFD.
func parseGeoInfo(ifd *IFD) GeoInfo {
	info := GeoInfo{}

	// ModelPixelScale: [ScaleX, ScaleY, ScaleZ]
	if len(ifd.ModelPixelScale) >= 2 {
		info.PixelSizeX = ifd.ModelPixelScale[0]
		info.PixelSizeY = ifd.ModelPixelScale[1]
	}

	// ModelTiepoint: [I, J, K, X, Y, Z] - maps pixel (I,J) to (X,Y)
	if len(ifd.ModelTiepoint) >= 6 {
		// The tiepoint maps pixel (I,J) to world coordinate (X,Y).
		// Origin is at (0,0) pixel, so:
		info.OriginX = ifd.ModelTiepoint[3] - ifd.ModelTiepoint[0]*info.PixelSizeX
		info.OriginY = ifd.ModelTiepoint[4] + ifd.ModelTiepoint[1]*info.PixelSizeY
	}

	info.EPSG, info.Geographic = parseGeoKeys(ifd.GeoKeys)

	return info
}

// parseGeoKeys extracts the EPSG code and the geographic-vs-projected model
// type from GeoKey directory entries. GTModelTypeGeoKey (1024) always sorts
// before the CS-type keys in a conformant GeoKey directory, so a single
// forward pass sees it before returning on the first CS-type match.
func parseGeoKeys(geoKeys []uint16) (epsg int, geographic bool) {
	if len(geoKeys) < 4 {
		return 0, false
	}

	// GeoKey directory header: [KeyDirectoryVersion, KeyRevision, MinorRevision, NumberOfKeys]
	numKeys := int(geoKeys[3])

	for i := 0; i < numKeys; i++ {
		base := 4 + i*4
		if base+3 >= len(geoKeys) {
			break
		}
		keyID := geoKeys[base]
		// tiffTagLocation := geoKeys[base+1]
		// count := geoKeys[base+2]
		valueOffset := geoKeys[base+3]

		switch keyID {
		case gkModelTypeGeoKey:
			geographic = valueOffset == modelTypeGeographic
		case gkProjectedCSTypeGeoKey:
			if valueOffset > 0 {
				return int(valueOffset), geographic
			}
		case gkGeographicTypeGeoKey:
			if valueOffset > 0 {
				return int(valueOffset), geographic
			}
		}
	}

	return 0, geographic
}
