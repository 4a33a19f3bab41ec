package httpapi

import (
	"errors"
	"net/http"

	"github.com/maprender/maprender/internal/mapengine"
)

// statusFor maps a mapengine error to the HTTP status get_tile.rs/add_map.rs
// report for it: a TileError (malformed coordinate or extension) is 501 Not
// Implemented, a MsgError is 404 when it reports a missing map and 400
// otherwise, and anything else (I/O, decode failures) is 500.
func statusFor(err error) int {
	var tileErr *mapengine.TileError
	if errors.As(err, &tileErr) {
		return http.StatusNotImplemented
	}
	var msgErr *mapengine.MsgError
	if errors.As(err, &msgErr) {
		if msgErr.NotFound {
			return http.StatusNotFound
		}
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusFor(err))
	w.Write([]byte(err.Error()))
}
