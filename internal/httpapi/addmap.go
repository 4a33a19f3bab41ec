package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/maprender/maprender/internal/mapengine"
	"github.com/maprender/maprender/internal/registry"
)

// handleAddMap registers a new map from a JSON MapSettings body, dispatching
// on geo_type the way add_map.rs does, and echoes back the fully-derived
// MapSettings on success.
func (s *Server) handleAddMap(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in registry.MapSettings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, mapengine.NewMsg("invalid map settings body: %v", err))
		return
	}
	log.Printf("registering map: %+v", in)

	var (
		out registry.MapSettings
		err error
	)
	switch in.GeoKind {
	case registry.KindVector:
		out, err = s.registry.AddVectorMap(in)
	case registry.KindRaster, "":
		out, err = s.registry.AddMap(in)
	default:
		writeError(w, mapengine.NewMsg("invalid geo type %q", in.GeoKind))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(out)
}
