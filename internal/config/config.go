// Package config loads schemaflow project configuration.
//
// A project is a directory holding schemaflow.yaml (or .yml) next to the
// schema definition files, the field-mapping manifest, and optional position
// overrides. Load reads the file with koanf, layers SCHEMAFLOW_* environment
// variables on top, fills defaults, and resolves relative paths against the
// project root so commands work from anywhere inside the project.
package config

import (
	"path/filepath"

	"github.com/matzehuels/schemaflow/pkg/errors"
)

// Default project file locations, relative to the project root.
const (
	DefaultManifest = "field-mappings.json"
	DefaultOutput   = "diagrams"
)

// SchemaConfig identifies one schema definition file.
type SchemaConfig struct {
	// ID is the schema identifier used in stable table and column IDs.
	ID string `koanf:"id"`

	// Path is the schema definition file.
	Path string `koanf:"path"`

	// Dialect forces a parser dialect ("mysql", "postgres"). Empty means
	// detect from the file content.
	Dialect string `koanf:"dialect"`
}

// Config is a parsed schemaflow.yaml.
type Config struct {
	// Source is the schema being migrated away from.
	Source SchemaConfig `koanf:"source"`

	// Targets are the schemas being migrated into.
	Targets []SchemaConfig `koanf:"targets"`

	// Manifest is the field-mapping manifest path.
	Manifest string `koanf:"manifest"`

	// Overrides is the TOML position-override file. Empty disables
	// overrides.
	Overrides string `koanf:"overrides"`

	// Output is the directory build artifacts are written to.
	Output string `koanf:"output"`

	// Render settings. Zero values defer to the pipeline defaults, so a
	// minimal config file stays minimal.
	Formats []string `koanf:"formats"`
	Style   string   `koanf:"style"`
	Scale   float64  `koanf:"scale"`
	Legend  bool     `koanf:"legend"`
	Issues  bool     `koanf:"issues"`
	Columns bool     `koanf:"columns"`

	// ProjectRoot is the directory the config was loaded from. Set by Load,
	// never read from the file.
	ProjectRoot string `koanf:"-"`
}

// ApplyDefaults fills in defaults for unset fields. Manifest and Overrides
// stay empty when unconfigured: a project can run on annotations alone, and
// a configured-but-missing file should fail loudly rather than be guessed.
// Render defaults live in the pipeline, so flags, config, and server
// requests share one source of truth.
func (c *Config) ApplyDefaults() {
	if c.Output == "" {
		c.Output = DefaultOutput
	}
}

// ResolvePaths makes every configured path absolute against the project
// root. Absolute paths are kept as-is.
func (c *Config) ResolvePaths() {
	c.Source.Path = resolvePath(c.Source.Path, c.ProjectRoot)
	for i := range c.Targets {
		c.Targets[i].Path = resolvePath(c.Targets[i].Path, c.ProjectRoot)
	}
	c.Manifest = resolvePath(c.Manifest, c.ProjectRoot)
	c.Overrides = resolvePath(c.Overrides, c.ProjectRoot)
	c.Output = resolvePath(c.Output, c.ProjectRoot)
}

// Validate checks that the config names a usable schema set.
func (c *Config) Validate() error {
	if c.Source.ID == "" || c.Source.Path == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "source schema needs an id and a path")
	}
	for i, t := range c.Targets {
		if t.ID == "" || t.Path == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "target schema %d needs an id and a path", i)
		}
	}
	return nil
}

// resolvePath resolves a path relative to baseDir unless it is empty or
// already absolute.
func resolvePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
