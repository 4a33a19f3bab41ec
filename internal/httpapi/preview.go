package httpapi

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

//go:embed preview.html
var previewHTML string

var previewTemplate = template.Must(template.New("preview").Parse(previewHTML))

// previewData fills preview.html's placeholders, matching preview.rs's
// gen_template substitution of "m" (map name), "bo" (Leaflet bounds array),
// and "ba" (whether bounds are available).
type previewData struct {
	MapName         string
	Bounds          template.JS
	BoundsAvailable bool
}

// handlePreview serves a minimal Leaflet page that tiles the registered map,
// grounded on preview.rs's endpoint. The preview.html template itself is
// authored fresh, since original_source carried no template asset.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	mapName := ps.ByName("map_name")
	m, err := s.registry.GetMap(mapName)
	if err != nil {
		writeError(w, err)
		return
	}

	data := previewData{MapName: mapName, Bounds: template.JS("[[-90,-180],[90,180]]"), BoundsAvailable: false}
	if m.Bounds != nil {
		b := m.Bounds
		data.Bounds = template.JS(fmt.Sprintf("[[%g,%g],[%g,%g]]", b[0], b[1], b[2], b[3]))
		data.BoundsAvailable = true
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	previewTemplate.Execute(w, data)
}
