package httpapi

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/maprender/maprender/internal/mapengine"
	"github.com/maprender/maprender/internal/raster/provider"
	"github.com/maprender/maprender/internal/registry"
	"github.com/maprender/maprender/internal/xyz"
)

// parseTileParams extracts (mapName, tile, ext) from the :z/:x/:y route,
// splitting the extension off the trailing :y segment the way
// get_tile.rs's get_params does ("3.png" -> y=3, ext="png").
func parseTileParams(ps httprouter.Params) (mapName string, tile xyz.Tile, ext string, err error) {
	mapName = ps.ByName("map_name")

	z, err := strconv.Atoi(ps.ByName("z"))
	if err != nil {
		return "", xyz.Tile{}, "", mapengine.NewTileError("invalid zoom %q", ps.ByName("z"))
	}
	x, err := strconv.Atoi(ps.ByName("x"))
	if err != nil {
		return "", xyz.Tile{}, "", mapengine.NewTileError("invalid x %q", ps.ByName("x"))
	}

	yRaw := ps.ByName("y")
	yPart, extPart, found := strings.Cut(yRaw, ".")
	ext = "png"
	if found {
		ext = extPart
	}
	y, err := strconv.Atoi(yPart)
	if err != nil {
		return "", xyz.Tile{}, "", mapengine.NewTileError("invalid y %q", yRaw)
	}

	return mapName, xyz.New(x, y, z), ext, nil
}

// handleTile renders a single XYZ tile, spec.md §4.5/§4.6/§4.7: validate the
// requested extension, look up the map, short-circuit with the empty tile
// sentinel when the tile falls outside the raster's extent, else read,
// style, and PNG-encode it. Vector maps delegate to the Mapnik renderer
// instead of the raster pipeline. Grounded on get_tile.rs.
func (s *Server) handleTile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	recordTileMetrics(w, func(w http.ResponseWriter) {
		s.renderTile(w, ps)
	})
}

func (s *Server) renderTile(w http.ResponseWriter, ps httprouter.Params) {
	mapName, tile, ext, err := parseTileParams(ps)
	if err != nil {
		writeError(w, err)
		return
	}
	if ext != "png" {
		writeError(w, mapengine.NewTileError("unsupported tile extension %q", ext))
		return
	}

	m, err := s.registry.GetMap(mapName)
	if err != nil {
		writeError(w, err)
		return
	}

	if m.GeoKind == registry.KindVector {
		s.handleVectorTile(w, mapName, tile)
		return
	}

	rs, err := s.registry.GetRaster(mapName)
	if err != nil {
		writeError(w, err)
		return
	}
	style, err := s.registry.GetStyle(mapName)
	if err != nil {
		writeError(w, err)
		return
	}

	intersects, err := rs.Intersects(tile)
	if err != nil {
		writeError(w, err)
		return
	}
	if !intersects {
		log.Printf("%+v does not intersect %s, returning empty tile", tile, mapName)
		writePNG(w, emptyTilePNG())
		return
	}

	log.Printf("rendering %+v for %s", tile, mapName)

	bands := m.Bands()
	styleNoData := m.StyleNoData(bands)

	pixels, err := rs.ReadTile(tile, bands, provider.ResampleNearest)
	if err != nil {
		writeError(w, fmt.Errorf("rendering tile: %w", err))
		return
	}
	styled, err := pixels.Style(style, styleNoData)
	if err != nil {
		writeError(w, err)
		return
	}
	png, err := styled.EncodePNG()
	if err != nil {
		writeError(w, err)
		return
	}
	writePNG(w, png)
}

// handleVectorTile renders a vector map's tile by handing the tile's
// Mercator bounding box straight to the Mapnik renderer, grounded on
// vector/mod.rs's Vector::tile.
func (s *Server) handleVectorTile(w http.ResponseWriter, mapName string, tile xyz.Tile) {
	renderer, err := s.registry.GetVectorRenderer(mapName)
	if err != nil {
		writeError(w, err)
		return
	}
	minX, minY, maxX, maxY := tile.BoundsXY()
	png, err := renderer.RenderTile(minX, minY, maxX, maxY, nil)
	if err != nil {
		writeError(w, fmt.Errorf("rendering vector tile: %w", err))
		return
	}
	writePNG(w, png)
}

func writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
