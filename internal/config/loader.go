package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/matzehuels/schemaflow/pkg/errors"
)

// ConfigFileName is the name of the project config file.
const ConfigFileName = "schemaflow.yaml"

// ConfigFileNameAlt is the alternate name of the project config file.
const ConfigFileNameAlt = "schemaflow.yml"

// envPrefix namespaces the environment overrides: SCHEMAFLOW_STYLE=dark
// overrides the top-level "style" key.
const envPrefix = "SCHEMAFLOW_"

// Load loads the project config from the given directory. It looks for
// schemaflow.yaml or schemaflow.yml, layers SCHEMAFLOW_* environment
// variables over the file, applies defaults, and resolves relative paths.
// Returns nil, nil when the directory has no config file (not an error
// condition; the caller decides whether a project is required).
func Load(dir string) (*Config, error) {
	configPath := findConfigFile(dir)
	if configPath == "" {
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", configPath)
	}

	// Environment overrides win over the file: SCHEMAFLOW_OUTPUT -> output.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", configPath)
	}

	cfg.ProjectRoot = dir
	cfg.ApplyDefaults()
	cfg.ResolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}

// FindProjectRoot walks up from the given directory to find a directory
// containing schemaflow.yaml or schemaflow.yml.
// Returns empty string if not found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for {
		if findConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
}
