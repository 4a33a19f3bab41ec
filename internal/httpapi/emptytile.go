package httpapi

import (
	"bytes"
	"image"
	"image/png"
	"sync"

	"github.com/maprender/maprender/internal/xyz"
)

// emptyTilePNG lazily encodes a fully transparent tile, returned for any
// coordinate that does not intersect a registered raster's extent. Encoded
// once and reused, matching get_tile.rs's lazily-initialised EMPTY_PNG
// static.
var emptyTileOnce sync.Once
var emptyTileBytes []byte

func emptyTilePNG() []byte {
	emptyTileOnce.Do(func() {
		img := image.NewNRGBA(image.Rect(0, 0, xyz.TileSize, xyz.TileSize))
		var buf bytes.Buffer
		enc := &png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(&buf, img); err != nil {
			panic(err)
		}
		emptyTileBytes = buf.Bytes()
	})
	return emptyTileBytes
}
