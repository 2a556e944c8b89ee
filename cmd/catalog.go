package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/proppant-cli/internal/catalog"
)

var catalogPath string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Validate and print the basin, entity and product catalogs",
	Long:  "Loads the catalogs (built-in defaults merged with an optional YAML file), validates them, and prints the result as YAML. The output can be edited and passed back with --path or engine.catalog_path.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := catalogPath
		if path == "" {
			path = cfg.Engine.CatalogPath
		}

		cats, err := catalog.Load(path)
		if err != nil {
			return err
		}
		zap.L().Info("catalog valid",
			zap.String("path", path),
			zap.Int("basins", len(cats.Basins)),
			zap.Int("entity_patterns", len(cats.Entity.Patterns)),
			zap.Int("approved_products", len(cats.Products.Approved)),
		)
		return cats.WriteYAML(os.Stdout)
	},
}

func init() {
	catalogCmd.Flags().StringVar(&catalogPath, "path", "", "catalog YAML file (default from config, else built-in)")
	rootCmd.AddCommand(catalogCmd)
}
