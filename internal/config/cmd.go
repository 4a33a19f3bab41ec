package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootCommand builds the `maprender` cobra command tree: a single `serve`
// subcommand whose flags are bound into viper before run is invoked,
// mirroring root.go/serve.go's PersistentFlags-then-BindPFlag pattern in
// MeKo-Christian-WaterColorMap/internal/cmd.
func RootCommand(run func(Config) error) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "maprender",
		Short: "Serve styled map tiles from raster and vector sources",
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the tile server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(Load(v))
		},
	}

	serve.Flags().String("host", "127.0.0.1", "Listen host (MAP_ENGINE_HOST)")
	serve.Flags().String("port", "8080", "Listen port (MAP_ENGINE_PORT)")
	serve.Flags().String("config", "", "Path to a startup MapSettings JSON array")
	serve.Flags().String("plugin-dir", "", "Mapnik datasource plugin directory")
	serve.Flags().String("font-dir", "", "Mapnik font directory")

	for _, name := range []string{"host", "port", "config", "plugin-dir", "font-dir"} {
		if err := v.BindPFlag(name, serve.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("config: failed to bind flag %s: %v", name, err))
		}
	}

	root.AddCommand(serve)
	return root
}
