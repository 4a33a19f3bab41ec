// Package httpapi wires the tile server's HTTP surface: the XYZ tile
// endpoint, map registration, the Leaflet preview page, and the ambient
// /metrics and /healthz routes, grounded on the reference server's
// app.rs/endpoints/*.rs using github.com/julienschmidt/httprouter in place
// of the Rust original's tide framework — the only HTTP path router carried
// by any example repo (dolthub-dolt).
package httpapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maprender/maprender/internal/registry"
)

// Server holds the dependencies every handler needs.
type Server struct {
	registry *registry.Registry
}

// NewRouter builds the complete route table, wrapped in CORS middleware,
// mirroring app.rs's create_app plus its CorsMiddleware::new() policy
// (GET/POST/OPTIONS, any origin, no credentials).
func NewRouter(reg *registry.Registry) http.Handler {
	s := &Server{registry: reg}
	registerMetrics(reg)

	router := httprouter.New()
	metrics := promhttp.Handler()
	// httprouter rejects a static segment beside a parameter at the same
	// level, so the fixed one-segment routes are dispatched by name here.
	router.GET("/:map_name", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch ps.ByName("map_name") {
		case "favicon.ico":
			s.handleFavicon(w, r, ps)
		case "healthz":
			s.handleHealthz(w, r, ps)
		case "metrics":
			metrics.ServeHTTP(w, r)
		default:
			s.handlePreview(w, r, ps)
		}
	})
	router.GET("/:map_name/", s.handlePreview)
	router.GET("/:map_name/:z/:x/:y", s.handleTile)
	router.POST("/map", s.handleAddMap)

	return withCORS(router)
}

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusNotFound)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// withCORS allows GET/POST/OPTIONS from any origin without credentials,
// matching app.rs's CorsMiddleware policy.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
