// Package cli implements the schemaflow command-line interface.
//
// This package provides commands for building migration diagrams from schema
// definitions, validating lineage coverage, scaffolding projects, serving
// artifacts to the interactive viewer, and managing the build cache. The CLI
// is built using cobra and supports verbose logging via the charmbracelet/log
// library.
//
// # Commands
//
// The main commands are:
//   - build: Parse schemas, resolve lineage, and write diagram artifacts
//   - validate: Report coverage and consistency issues without rendering
//   - init: Scaffold a new migration project
//   - serve: Serve the diagram model and artifacts over HTTP
//   - cache: Manage the build cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --quiet
// for warnings only. Loggers are passed through context.Context so every
// command shares one configured instance.
//
// # Example
//
//	import "github.com/matzehuels/schemaflow/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(context.Background()); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemaflow/internal/config"
	"github.com/matzehuels/schemaflow/pkg/cache"
	"github.com/matzehuels/schemaflow/pkg/errors"
	"github.com/matzehuels/schemaflow/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "schemaflow"

// =============================================================================
// Project Loading
// =============================================================================

// loadProject locates and loads the project configuration. With an explicit
// dir the config must live there; with an empty dir the search walks up from
// the working directory, so commands work from anywhere inside a project.
func loadProject(dir string) (*config.Config, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root := config.FindProjectRoot(wd)
		if root == "" {
			return nil, errors.New(errors.ErrCodeFileNotFound,
				"no %s found in %s or any parent (run 'schemaflow init' to scaffold a project)",
				config.ConfigFileName, wd)
		}
		dir = root
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeFileNotFound, "no %s in %s", config.ConfigFileName, dir)
	}
	return cfg, nil
}

// optionsFromConfig maps a project configuration onto pipeline options.
// Zero-valued render settings are left for the pipeline defaults.
func optionsFromConfig(cfg *config.Config) pipeline.Options {
	opts := pipeline.Options{
		Source: pipeline.SchemaInput{
			ID:      cfg.Source.ID,
			Path:    cfg.Source.Path,
			Dialect: cfg.Source.Dialect,
		},
		ManifestPath:  cfg.Manifest,
		OverridesPath: cfg.Overrides,
		Formats:       cfg.Formats,
		Style:         cfg.Style,
		Scale:         cfg.Scale,
		Legend:        cfg.Legend,
		Issues:        cfg.Issues,
		Columns:       cfg.Columns,
	}
	for _, t := range cfg.Targets {
		opts.Targets = append(opts.Targets, pipeline.SchemaInput{
			ID:      t.ID,
			Path:    t.Path,
			Dialect: t.Dialect,
		})
	}
	return opts
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func newRunner(logger *log.Logger, noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, logger), nil
}

// newCache returns the file cache under the XDG cache dir, or the null cache
// when caching is disabled or no cache directory can be determined.
func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/schemaflow/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Flag Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
