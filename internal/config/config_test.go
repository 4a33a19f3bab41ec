package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("GDAL_DATA", "")
	t.Setenv("PROJ_LIB", "")
	cfg := Load(viper.New())
	require.Equal(t, "127.0.0.1", cfg.Host)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "", cfg.GDALData)
	require.Equal(t, "", cfg.ProjLib)
}

func TestLoadDerivesProjLibFromGDALData(t *testing.T) {
	t.Setenv("GDAL_DATA", "/usr/share/gdal")
	t.Setenv("PROJ_LIB", "")
	cfg := Load(viper.New())
	require.Equal(t, "/usr/share/gdal", cfg.GDALData)
	require.Equal(t, "/usr/share/gdal/proj/data", cfg.ProjLib)
}

func TestLoadHonoursExplicitProjLib(t *testing.T) {
	t.Setenv("GDAL_DATA", "/usr/share/gdal")
	t.Setenv("PROJ_LIB", "/custom/proj")
	cfg := Load(viper.New())
	require.Equal(t, "/custom/proj", cfg.ProjLib)
}

func TestLoadHonoursPrefixedHostPort(t *testing.T) {
	t.Setenv("MAP_ENGINE_HOST", "0.0.0.0")
	t.Setenv("MAP_ENGINE_PORT", "9090")
	cfg := Load(viper.New())
	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, "9090", cfg.Port)
}
