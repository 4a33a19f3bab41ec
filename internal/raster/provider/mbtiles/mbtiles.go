// Package mbtiles implements the raster-access provider for MBTiles
// databases: an SQLite file of pre-rendered, already-styled XYZ tiles. The
// four RGBA channels are exposed as bands so the core can composite them
// directly (see internal/raster's MBTiles direct-cast bypass of the colour
// map) without re-deriving the underlying measurement.
package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	_ "modernc.org/sqlite"

	"github.com/maprender/maprender/internal/affine"
	"github.com/maprender/maprender/internal/raster/provider"
)

const tileSize = 256

// Opener opens MBTiles datasets.
type Opener struct{}

func (Opener) Open(path string) (provider.Dataset, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("opening mbtiles %s: %w", path, err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tiles'").Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("verifying mbtiles schema %s: %w", path, err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("%s: does not contain a tiles table", path)
	}

	meta, err := readMetadata(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if meta.MaxZoom == 0 && meta.MinZoom == 0 {
		if z, ok := detectMaxZoom(db); ok {
			meta.MaxZoom = z
		}
	}

	minX, minY, maxX, maxY := meta.Bounds[0], meta.Bounds[1], meta.Bounds[2], meta.Bounds[3]
	if minX == 0 && minY == 0 && maxX == 0 && maxY == 0 {
		minX, minY, maxX, maxY = -180, -85.05112878, 180, 85.05112878
	}

	originX, originY := lonLatToMercator(minX, maxY)
	farX, farY := lonLatToMercator(maxX, minY)

	size := tileSize << uint(meta.MaxZoom)
	pixelSizeX := (farX - originX) / float64(size)
	pixelSizeY := (originY - farY) / float64(size)

	return &Dataset{
		db:         db,
		path:       path,
		meta:       meta,
		originX:    originX,
		originY:    originY,
		pixelSizeX: pixelSizeX,
		pixelSizeY: pixelSizeY,
		size:       size,
	}, nil
}

// Dataset exposes an MBTiles database's maximum-zoom level as the native
// raster resolution. HasOverviews reports whether coarser zoom levels exist,
// but reads always come from the maximum zoom level.
type Dataset struct {
	db   *sql.DB
	path string
	meta Metadata

	originX, originY       float64
	pixelSizeX, pixelSizeY float64
	size                   int
}

func (d *Dataset) GeoTransform() affine.GeoTransform {
	return affine.FromGDAL([6]float64{
		d.originX, d.pixelSizeX, 0,
		d.originY, 0, -d.pixelSizeY,
	})
}

func (d *Dataset) SpatialRef() (epsg int, unit string) { return 3857, "metre" }

func (d *Dataset) RasterCount() int { return 4 } // R, G, B, A

func (d *Dataset) RasterSize() (width, height int) { return d.size, d.size }

func (d *Dataset) DriverShortName() string { return "MBTiles" }

func (d *Dataset) RasterBand(i int) (provider.Band, error) {
	if i < 1 || i > 4 {
		return nil, fmt.Errorf("band %d out of range (MBTiles datasets have 4 bands: R,G,B,A)", i)
	}
	return &Band{ds: d, channel: i - 1}, nil
}

func (d *Dataset) HasOverviews() bool { return d.meta.MaxZoom > d.meta.MinZoom }

func (d *Dataset) Close() error { return d.db.Close() }

// Band is one of the 4 RGBA channels of the composited tile pyramid.
type Band struct {
	ds      *Dataset
	channel int
}

func (b *Band) NoDataValue() (float64, bool) { return 0, false }

func (b *Band) ComputeMinMax(approx bool) (min, max float64, err error) { return 0, 255, nil }

// ReadAs decodes the tiles covering the requested native-resolution window
// at the dataset's max zoom, extracts this band's channel into an 8-bit
// gray image, and resamples it to (outWidth, outHeight) with
// golang.org/x/image/draw — a legitimate use of an image resampler, since
// the data really is an 8-bit colour channel rather than a scalar field.
func (b *Band) ReadAs(colOff, rowOff, width, height, outWidth, outHeight int, resample provider.Resample) ([]float64, error) {
	if width <= 0 || height <= 0 || outWidth <= 0 || outHeight <= 0 {
		return nil, fmt.Errorf("read_as: non-positive dimensions")
	}

	gray := image.NewGray(image.Rect(0, 0, width, height))

	tileColStart, tileColEnd := floorDiv(colOff, tileSize), floorDiv(colOff+width-1, tileSize)
	tileRowStart, tileRowEnd := floorDiv(rowOff, tileSize), floorDiv(rowOff+height-1, tileSize)
	z := b.ds.meta.MaxZoom
	maxTileIdx := (1 << uint(z)) - 1

	for ty := tileRowStart; ty <= tileRowEnd; ty++ {
		if ty < 0 || ty > maxTileIdx {
			continue
		}
		for tx := tileColStart; tx <= tileColEnd; tx++ {
			if tx < 0 || tx > maxTileIdx {
				continue
			}
			img, err := b.ds.readTileImage(z, tx, ty)
			if err != nil || img == nil {
				continue
			}
			tileMinX, tileMinY := tx*tileSize, ty*tileSize
			for y := 0; y < tileSize; y++ {
				srcY := tileMinY + y - rowOff
				if srcY < 0 || srcY >= height {
					continue
				}
				for x := 0; x < tileSize; x++ {
					srcX := tileMinX + x - colOff
					if srcX < 0 || srcX >= width {
						continue
					}
					r, g, bl, a := img.At(x, y).RGBA()
					var v uint8
					switch b.channel {
					case 0:
						v = uint8(r >> 8)
					case 1:
						v = uint8(g >> 8)
					case 2:
						v = uint8(bl >> 8)
					default:
						v = uint8(a >> 8)
					}
					gray.SetGray(srcX, srcY, color.Gray{Y: v})
				}
			}
		}
	}

	dst := image.NewGray(image.Rect(0, 0, outWidth, outHeight))
	scaler := resampleScaler(resample)
	scaler.Scale(dst, dst.Bounds(), gray, gray.Bounds(), draw.Src, nil)

	out := make([]float64, outWidth*outHeight)
	for i, p := range dst.Pix {
		out[i] = float64(p)
	}
	return out, nil
}

func resampleScaler(r provider.Resample) draw.Scaler {
	switch r {
	case provider.ResampleBilinear:
		return draw.ApproxBiLinear
	case provider.ResampleCubic:
		return draw.CatmullRom
	default:
		return draw.NearestNeighbor
	}
}

func (d *Dataset) readTileImage(z, x, y int) (image.Image, error) {
	tmsY := (1 << uint(z)) - 1 - y

	var data []byte
	err := d.db.QueryRow(
		"SELECT tile_data FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=?",
		z, x, tmsY,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying tile %d/%d/%d: %w", z, x, y, err)
	}

	if gr, gzErr := gzip.NewReader(bytes.NewReader(data)); gzErr == nil {
		defer gr.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(gr); err == nil {
			data = buf.Bytes()
		}
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding tile %d/%d/%d: %w", z, x, y, err)
	}
	return img, nil
}

// Metadata mirrors the MBTiles spec's metadata table.
type Metadata struct {
	Name, Format, Attribution, Description, Type, Version string
	MinZoom, MaxZoom                                       int
	Bounds                                                  [4]float64
	Center                                                  [3]float64
}

func readMetadata(db *sql.DB) (Metadata, error) {
	rows, err := db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("querying metadata: %w", err)
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Metadata{}, fmt.Errorf("scanning metadata row: %w", err)
		}
		m[k] = v
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("iterating metadata: %w", err)
	}

	meta := Metadata{
		Name:        m["name"],
		Format:      m["format"],
		Attribution: m["attribution"],
		Description: m["description"],
		Type:        m["type"],
		Version:     m["version"],
	}
	if v, ok := m["minzoom"]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			meta.MinZoom = i
		}
	}
	if v, ok := m["maxzoom"]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			meta.MaxZoom = i
		}
	}
	if v, ok := m["bounds"]; ok {
		parts := strings.Split(v, ",")
		if len(parts) == 4 {
			for i, p := range parts {
				if f, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err == nil {
					meta.Bounds[i] = f
				}
			}
		}
	}
	if v, ok := m["center"]; ok {
		parts := strings.Split(v, ",")
		if len(parts) == 3 {
			for i, p := range parts {
				if f, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err == nil {
					meta.Center[i] = f
				}
			}
		}
	}
	return meta, nil
}

func detectMaxZoom(db *sql.DB) (int, bool) {
	var z sql.NullInt64
	if err := db.QueryRow("SELECT MAX(zoom_level) FROM tiles").Scan(&z); err != nil || !z.Valid {
		return 0, false
	}
	return int(z.Int64), true
}

const earthRadius = 6378137.0

func lonLatToMercator(lon, lat float64) (x, y float64) {
	const maxLat = 85.05112878
	if lat > maxLat {
		lat = maxLat
	}
	if lat < -maxLat {
		lat = -maxLat
	}
	x = lon * (earthRadius * math.Pi / 180)
	latRad := lat * math.Pi / 180
	y = earthRadius * math.Log(math.Tan(math.Pi/4+latRad/2))
	return
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
