// Command maprender serves styled map tiles from registered raster and
// vector sources over HTTP, grounded on the reference server's app.rs/run.
package main

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"

	"github.com/maprender/maprender/internal/config"
	"github.com/maprender/maprender/internal/httpapi"
	"github.com/maprender/maprender/internal/registry"
)

func main() {
	root := config.RootCommand(runServe)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cfg config.Config) error {
	if cfg.GDALData != "" {
		os.Setenv("GDAL_DATA", cfg.GDALData)
	}
	if cfg.ProjLib != "" {
		os.Setenv("PROJ_LIB", cfg.ProjLib)
	}

	reg := registry.New(256, cfg.PluginDir)
	if err := reg.LoadFile(cfg.ConfigFile); err != nil {
		return fmt.Errorf("maprender: loading startup config: %w", err)
	}

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	log.Printf("maprender listening on %s (%d maps registered)", addr, reg.Len())

	srv := &http.Server{
		Addr:    addr,
		Handler: httpapi.NewRouter(reg),
	}
	return srv.ListenAndServe()
}
