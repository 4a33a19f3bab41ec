// Package config binds the tile server's environment variables and startup
// flags with github.com/spf13/viper, grounded on
// MeKo-Christian-WaterColorMap/internal/cmd's cobra+viper stack — the only
// example repo with a structured CLI/config-binding combination (the
// teacher itself only parses flags with the standard library).
package config

import (
	"github.com/spf13/viper"
)

// Config holds the bound values spec.md §6 names: host/port the server
// listens on, the startup map-registration file, GDAL's data directory
// (PROJ_LIB is derived from it, matching the reference's app bootstrap),
// and the Mapnik datasource plugin/font directories passed to
// Vector::mapnik_register.
type Config struct {
	Host       string
	Port       string
	ConfigFile string
	GDALData   string
	ProjLib    string
	PluginDir  string
	FontDir    string
}

// Load reads defaults, environment variables (MAP_ENGINE_-prefixed, plus the
// unprefixed GDAL_DATA/PROJ_LIB spec.md §6 names verbatim), and bound CLI
// flags into a Config.
func Load(v *viper.Viper) Config {
	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", "8080")
	v.SetDefault("config", "")
	v.SetDefault("plugin-dir", "")
	v.SetDefault("font-dir", "")

	v.SetEnvPrefix("MAP_ENGINE")
	v.AutomaticEnv()
	v.BindEnv("gdal-data", "GDAL_DATA")
	v.BindEnv("proj-lib", "PROJ_LIB")

	gdalData := v.GetString("gdal-data")
	projLib := v.GetString("proj-lib")
	if projLib == "" && gdalData != "" {
		projLib = gdalData + "/proj/data"
	}

	return Config{
		Host:       v.GetString("host"),
		Port:       v.GetString("port"),
		ConfigFile: v.GetString("config"),
		GDALData:   gdalData,
		ProjLib:    projLib,
		PluginDir:  v.GetString("plugin-dir"),
		FontDir:    v.GetString("font-dir"),
	}
}
