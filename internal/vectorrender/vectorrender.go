// Package vectorrender wraps Mapnik for rendering a single vector-source
// map's tile bounding box to a PNG image. The vector rendering provider is
// treated as opaque by the rest of the pipeline: bounding box in Web
// Mercator metres goes in, PNG bytes come out.
package vectorrender

// #cgo LDFLAGS: -lmapnik
// #cgo CXXFLAGS: -std=c++14
import "C"

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"

	mapnik "github.com/omniscale/go-mapnik/v2"
)

var registerDatasourcesOnce sync.Once

// Renderer renders tiles for one registered vector map's Mapnik style.
// A *mapnik.Map is not safe for concurrent use, so each Renderer guards its
// map object with a mutex rather than trying to share one across requests.
type Renderer struct {
	mu  sync.Mutex
	m   *mapnik.Map
	tileSize int
}

// New loads styleXML (a Mapnik XML stylesheet, written to a temp file since
// go-mapnik only loads styles by path) into a tileSize x tileSize map.
func New(styleXML string, tileSize int, datasourcePluginDir string) (*Renderer, error) {
	var regErr error
	registerDatasourcesOnce.Do(func() {
		if datasourcePluginDir != "" {
			regErr = mapnik.RegisterDatasources(datasourcePluginDir)
		}
	})
	if regErr != nil {
		return nil, fmt.Errorf("vectorrender: registering mapnik datasources: %w", regErr)
	}

	m := mapnik.NewSized(tileSize, tileSize)

	tmp, err := os.CreateTemp("", "maprender-style-*.xml")
	if err != nil {
		return nil, fmt.Errorf("vectorrender: creating style temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(styleXML); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("vectorrender: writing style temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("vectorrender: closing style temp file: %w", err)
	}

	if err := m.Load(tmpPath); err != nil {
		return nil, fmt.Errorf("vectorrender: loading mapnik style: %w", err)
	}

	return &Renderer{m: m, tileSize: tileSize}, nil
}

// RenderTile renders the Web Mercator bounding box (minX, minY, maxX, maxY)
// to a PNG, with background fully transparent unless bg is set.
func (r *Renderer) RenderTile(minX, minY, maxX, maxY float64, bg *color.NRGBA) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.m.SetSRS("+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs +over")
	if bg != nil {
		r.m.SetBackgroundColor(*bg)
	}
	r.m.ZoomTo(minX, minY, maxX, maxY)

	img, err := r.m.RenderImage(mapnik.RenderOpts{Format: "png32"})
	if err != nil {
		return nil, fmt.Errorf("vectorrender: rendering tile: %w", err)
	}

	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("vectorrender: encoding tile png: %w", err)
	}
	return buf.Bytes(), nil
}

// Close releases the underlying Mapnik map object.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m != nil {
		r.m.Free()
		r.m = nil
	}
	return nil
}
