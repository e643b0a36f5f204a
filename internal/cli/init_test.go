package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemaflow/internal/config"
	"github.com/matzehuels/schemaflow/pkg/cache"
	"github.com/matzehuels/schemaflow/pkg/errors"
	"github.com/matzehuels/schemaflow/pkg/manifest"
	"github.com/matzehuels/schemaflow/pkg/pipeline"
)

func TestRunInit(t *testing.T) {
	dir := t.TempDir()

	written, err := runInit(dir, false)
	if err != nil {
		t.Fatalf("runInit() error: %v", err)
	}

	wantFiles := []string{
		config.ConfigFileName,
		"field-mappings.json",
		"overrides.toml",
		filepath.Join("schemas", "legacy.sql"),
		filepath.Join("schemas", "tenant.sql"),
		filepath.Join("schemas", "central.sql"),
	}
	if len(written) != len(wantFiles) {
		t.Fatalf("runInit() wrote %d files, want %d", len(written), len(wantFiles))
	}
	for _, f := range wantFiles {
		path := filepath.Join(dir, f)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("scaffold file %s missing: %v", f, err)
		}
	}

	// Scaffolded manifest is valid and stamped with a project ID
	m, err := manifest.ReadFile(filepath.Join(dir, "field-mappings.json"))
	if err != nil {
		t.Fatalf("ReadFile(manifest) error: %v", err)
	}
	if m.Meta.Source != "legacy" {
		t.Errorf("manifest source = %q, want %q", m.Meta.Source, "legacy")
	}
	if m.Meta.ProjectID == "" {
		t.Error("manifest should be stamped with a project ID")
	}
	if len(m.Tables["users"]) != 4 {
		t.Errorf("users has %d mappings, want 4", len(m.Tables["users"]))
	}
}

func TestRunInitExisting(t *testing.T) {
	dir := t.TempDir()

	if _, err := runInit(dir, false); err != nil {
		t.Fatalf("first runInit() error: %v", err)
	}

	// A second init must not clobber the project
	_, err := runInit(dir, false)
	if err == nil {
		t.Fatal("runInit() on an existing project should fail without force")
	}
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
	}

	// Unless forced
	if _, err := runInit(dir, true); err != nil {
		t.Errorf("runInit(force) error: %v", err)
	}
}

// TestInitProjectEndToEnd runs the full pipeline over a fresh scaffold. The
// scaffold intentionally leaves two audit columns uncovered, so the build
// must succeed with exactly those two issues.
func TestInitProjectEndToEnd(t *testing.T) {
	dir := t.TempDir()
	if _, err := runInit(dir, false); err != nil {
		t.Fatalf("runInit() error: %v", err)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("config.Load() error: %v", err)
	}
	if cfg == nil {
		t.Fatal("config.Load() found no config in scaffolded project")
	}

	opts := optionsFromConfig(cfg)
	opts.Formats = []string{pipeline.FormatJSON, pipeline.FormatSVG}

	logger := newLogger(io.Discard, log.WarnLevel)
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if result.Stats.TableCount != 7 {
		t.Errorf("TableCount = %d, want 7", result.Stats.TableCount)
	}
	if result.Stats.EdgeCount == 0 {
		t.Error("scaffold should produce lineage edges")
	}

	// The two audit_trail columns without mappings or deprecations
	if len(result.Model.Issues) != 2 {
		t.Fatalf("Issues = %+v, want exactly 2", result.Model.Issues)
	}
	for _, issue := range result.Model.Issues {
		if issue.Kind != "unmapped" {
			t.Errorf("issue kind = %q, want %q", issue.Kind, "unmapped")
		}
		if !strings.Contains(issue.Subject, "audit_trail") {
			t.Errorf("issue subject = %q, want an audit_trail column", issue.Subject)
		}
	}

	if !json.Valid(result.Artifacts[pipeline.FormatJSON]) {
		t.Error("json artifact should be valid JSON")
	}
	if !strings.HasPrefix(string(result.Artifacts[pipeline.FormatSVG]), "<svg") {
		t.Error("svg artifact should start with <svg")
	}
}
