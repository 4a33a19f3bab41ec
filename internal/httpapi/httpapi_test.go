package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maprender/maprender/internal/mapengine"
	"github.com/maprender/maprender/internal/registry"
)

func TestStatusForMapsErrorKinds(t *testing.T) {
	require.Equal(t, http.StatusNotImplemented, statusFor(mapengine.NewTileError("bad ext")))
	require.Equal(t, http.StatusNotFound, statusFor(mapengine.NewNotFound("The map %q does not exist", "x")))
	require.Equal(t, http.StatusBadRequest, statusFor(mapengine.NewMsg("bad request")))
	require.Equal(t, http.StatusInternalServerError, statusFor(errNotMapped))
}

var errNotMapped = &plainError{"boom"}

type plainError struct{ s string }

func (e *plainError) Error() string { return e.s }

func TestFaviconReturnsNotFound(t *testing.T) {
	reg := registry.New(256, "")
	router := NewRouter(reg)

	req := httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthzReturnsOK(t *testing.T) {
	reg := registry.New(256, "")
	router := NewRouter(reg)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflightIsHandled(t *testing.T) {
	reg := registry.New(256, "")
	router := NewRouter(reg)

	req := httptest.NewRequest(http.MethodOptions, "/map", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTileMissingMapReturnsNotFound(t *testing.T) {
	reg := registry.New(256, "")
	router := NewRouter(reg)

	req := httptest.NewRequest(http.MethodGet, "/nosuchmap/3/1/2.png", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "does not exist")
}

func TestTileUnsupportedExtensionReturnsNotImplemented(t *testing.T) {
	reg := registry.New(256, "")
	router := NewRouter(reg)

	req := httptest.NewRequest(http.MethodGet, "/nosuchmap/3/1/2.jpg", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestAddMapRejectsUnknownGeoType(t *testing.T) {
	reg := registry.New(256, "")
	router := NewRouter(reg)

	body := `{"name":"x","path":"/tmp/x.tif","geo_type":"bogus"}`
	req := httptest.NewRequest(http.MethodPost, "/map", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid geo type")
}

func TestPreviewMissingMapReturnsNotFound(t *testing.T) {
	reg := registry.New(256, "")
	router := NewRouter(reg)

	req := httptest.NewRequest(http.MethodGet, "/nosuchmap", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}
