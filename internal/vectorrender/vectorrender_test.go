package vectorrender

import (
	"testing"
)

// A *mapnik.Map requires the libmapnik shared library and a working plugin
// registry at process startup, neither of which is available in a plain unit
// test run. These are exercised as integration tests only, mirroring how the
// reference renderer gates its own Mapnik tests behind testing.Short().

const blankStyleXML = `<?xml version="1.0" encoding="utf-8"?>
<Map background-color="transparent" srs="+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs +over">
</Map>`

func TestNewAndRenderTile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mapnik integration test in short mode")
	}

	r, err := New(blankStyleXML, 256, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer r.Close()

	png, err := r.RenderTile(-20037508.34, -20037508.34, 20037508.34, 20037508.34, nil)
	if err != nil {
		t.Fatalf("RenderTile: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("RenderTile returned no bytes")
	}
}
