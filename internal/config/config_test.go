package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/schemaflow/pkg/errors"
)

const sampleConfig = `
source:
  id: legacy
  path: schemas/legacy.sql
  dialect: mysql
targets:
  - id: tenant
    path: schemas/tenant.sql
  - id: central
    path: schemas/central.sql
manifest: mappings/field-mappings.json
style: dark
formats: [json, svg]
`

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, sampleConfig)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil config for existing file")
	}

	if cfg.Source.ID != "legacy" {
		t.Errorf("Source.ID = %q, want %q", cfg.Source.ID, "legacy")
	}
	if cfg.Source.Dialect != "mysql" {
		t.Errorf("Source.Dialect = %q, want %q", cfg.Source.Dialect, "mysql")
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("len(Targets) = %d, want 2", len(cfg.Targets))
	}
	if cfg.Targets[1].ID != "central" {
		t.Errorf("Targets[1].ID = %q, want %q", cfg.Targets[1].ID, "central")
	}
	if cfg.Style != "dark" {
		t.Errorf("Style = %q, want %q", cfg.Style, "dark")
	}
	if len(cfg.Formats) != 2 || cfg.Formats[0] != "json" {
		t.Errorf("Formats = %v, want [json svg]", cfg.Formats)
	}

	// Relative paths resolve against the project root
	if want := filepath.Join(dir, "schemas", "legacy.sql"); cfg.Source.Path != want {
		t.Errorf("Source.Path = %q, want %q", cfg.Source.Path, want)
	}
	if want := filepath.Join(dir, "mappings", "field-mappings.json"); cfg.Manifest != want {
		t.Errorf("Manifest = %q, want %q", cfg.Manifest, want)
	}

	// Unset fields get defaults, also resolved
	if want := filepath.Join(dir, DefaultOutput); cfg.Output != want {
		t.Errorf("Output = %q, want %q", cfg.Output, want)
	}
	if cfg.Overrides != "" {
		t.Errorf("Overrides = %q, want empty (no default)", cfg.Overrides)
	}
	if cfg.ProjectRoot != dir {
		t.Errorf("ProjectRoot = %q, want %q", cfg.ProjectRoot, dir)
	}
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg != nil {
		t.Errorf("Load() = %+v, want nil for missing config", cfg)
	}
}

func TestLoadAltExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileNameAlt), []byte(sampleConfig), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil || cfg.Source.ID != "legacy" {
		t.Error("schemaflow.yml should be accepted")
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, sampleConfig)
	t.Setenv("SCHEMAFLOW_STYLE", "light")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Style != "light" {
		t.Errorf("Style = %q, want env override %q", cfg.Style, "light")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing source", "targets:\n  - id: tenant\n    path: x.sql\n"},
		{"source without path", "source:\n  id: legacy\n"},
		{"target without id", "source:\n  id: legacy\n  path: x.sql\ntargets:\n  - path: y.sql\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := Load(dir)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if code := errors.GetCode(err); code != errors.ErrCodeInvalidConfig {
				t.Errorf("error code = %v, want %v", code, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, sampleConfig)
	nested := filepath.Join(root, "schemas", "sub")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if got := FindProjectRoot(nested); got != root {
		t.Errorf("FindProjectRoot(%q) = %q, want %q", nested, got, root)
	}

	// No config anywhere above an isolated temp dir
	if got := FindProjectRoot(t.TempDir()); got != "" {
		t.Errorf("FindProjectRoot() = %q, want empty", got)
	}
}
