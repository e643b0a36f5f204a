package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/schemaflow/internal/config"
	"github.com/matzehuels/schemaflow/pkg/errors"
	"github.com/matzehuels/schemaflow/pkg/manifest"
)

// newInitCmd creates the init command for scaffolding a migration project.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a new schemaflow project",
		Long: `Scaffold a new schemaflow project.

The scaffold is a small but complete migration: a legacy source schema, two
target schemas (one with in-schema lineage annotations), a field-mapping
manifest stamped with a fresh project ID, a schemaflow.yaml tying them
together, and an overrides.toml stub for pinning table positions.

Two audit columns are left deliberately unmapped so the first
'schemaflow validate' has something to show.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			written, err := runInit(dir, force)
			if err != nil {
				return err
			}

			printSuccess("Initialized %s project in %s", appName, dir)
			for _, p := range written {
				printFile(p)
			}
			printNewline()
			printNextStep("Build diagrams", "schemaflow build")
			printNextStep("Check coverage", "schemaflow validate")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing project")

	return cmd
}

// scaffoldFile is one file of the init scaffold, relative to the project dir.
type scaffoldFile struct {
	path string
	data []byte
}

// runInit writes the project scaffold into dir and returns the written
// paths. An existing schemaflow.yaml aborts the run unless force is set.
func runInit(dir string, force bool) ([]string, error) {
	cfgPath := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"%s already exists in %s (use --force to overwrite)", config.ConfigFileName, dir)
	}

	manifestData, err := manifest.Marshal(initManifest())
	if err != nil {
		return nil, fmt.Errorf("build manifest: %w", err)
	}

	files := []scaffoldFile{
		{config.ConfigFileName, []byte(initConfigYAML)},
		{"field-mappings.json", manifestData},
		{"overrides.toml", []byte(initOverridesTOML)},
		{filepath.Join("schemas", "legacy.sql"), []byte(initLegacySQL)},
		{filepath.Join("schemas", "tenant.sql"), []byte(initTenantSQL)},
		{filepath.Join("schemas", "central.sql"), []byte(initCentralSQL)},
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// initManifest builds the scaffold's field-mapping manifest. The audit trail
// is intentionally absent: its mapped columns come from annotations in
// central.sql, and its remaining columns surface as unmapped issues.
func initManifest() *manifest.Manifest {
	m := manifest.New()
	m.Meta.Description = "Field mappings for the legacy storefront migration"
	m.Meta.Source = "legacy"
	m.Meta.Targets = []string{"tenant", "central"}
	m.Meta.ProjectID = uuid.NewString()

	m.DeprecatedTables["sessions"] = "sessions are issued by the new auth gateway"
	m.DeprecatedColumns["users"] = []string{"password_hash"}

	m.Tables["users"] = map[string]manifest.Mapping{
		"id": {Targets: []manifest.Target{
			{Schema: "tenant", Table: "accounts", Column: "id"},
		}},
		"email": {Targets: []manifest.Target{
			{Schema: "tenant", Table: "accounts", Column: "email", Transform: "LOWER(TRIM(email))"},
		}},
		"full_name": {Targets: []manifest.Target{
			{Schema: "tenant", Table: "accounts", Column: "display_name"},
		}},
		"created_at": {Targets: []manifest.Target{
			{Schema: "tenant", Table: "accounts", Column: "created_at"},
		}},
	}
	m.Tables["orders"] = map[string]manifest.Mapping{
		"id": {Targets: []manifest.Target{
			{Schema: "tenant", Table: "purchases", Column: "id"},
		}},
		"user_id": {Targets: []manifest.Target{
			{Schema: "tenant", Table: "purchases", Column: "account_id"},
		}},
		"total_cents": {Targets: []manifest.Target{
			{Schema: "tenant", Table: "purchases", Column: "amount_cents"},
		}},
		"placed_at": {Targets: []manifest.Target{
			{Schema: "tenant", Table: "purchases", Column: "purchased_at"},
		}},
	}
	return m
}

const initConfigYAML = `# schemaflow project configuration.
source:
  id: legacy
  path: schemas/legacy.sql
  dialect: mysql

targets:
  - id: tenant
    path: schemas/tenant.sql
  - id: central
    path: schemas/central.sql

manifest: field-mappings.json
overrides: overrides.toml
output: diagrams
`

const initOverridesTOML = `# Pinned table positions, keyed by stable table ID. Tables listed here keep
# their coordinates across rebuilds; everything else is placed automatically.
#
# [tables."tenant.accounts"]
# x = 520.0
# y = 180.0
`

const initLegacySQL = `-- Legacy storefront schema (source of the migration).

CREATE TABLE ` + "`users`" + ` (
  ` + "`id`" + ` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  ` + "`email`" + ` VARCHAR(255) NOT NULL UNIQUE,
  ` + "`full_name`" + ` VARCHAR(120),
  ` + "`password_hash`" + ` CHAR(60) NOT NULL,
  ` + "`created_at`" + ` DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='Account holders';

CREATE TABLE ` + "`orders`" + ` (
  ` + "`id`" + ` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  ` + "`user_id`" + ` INT UNSIGNED NOT NULL,
  ` + "`total_cents`" + ` INT NOT NULL DEFAULT 0,
  ` + "`placed_at`" + ` DATETIME NOT NULL,
  CONSTRAINT ` + "`fk_orders_user`" + ` FOREIGN KEY (` + "`user_id`" + `) REFERENCES ` + "`users`" + ` (` + "`id`" + `)
) ENGINE=InnoDB;

CREATE TABLE ` + "`sessions`" + ` (
  ` + "`token`" + ` CHAR(64) NOT NULL PRIMARY KEY,
  ` + "`user_id`" + ` INT UNSIGNED NOT NULL,
  ` + "`expires_at`" + ` DATETIME NOT NULL
) ENGINE=InnoDB COMMENT='Category: auth';

CREATE TABLE ` + "`audit_trail`" + ` (
  ` + "`id`" + ` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  ` + "`user_id`" + ` INT UNSIGNED,
  ` + "`action`" + ` VARCHAR(64) NOT NULL,
  ` + "`logged_at`" + ` DATETIME NOT NULL
) ENGINE=InnoDB;
`

const initTenantSQL = `-- Tenant-facing schema (migration target).
-- Column comments of the form 'Source: table.column' declare lineage inline.

CREATE TABLE ` + "`accounts`" + ` (
  ` + "`id`" + ` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  ` + "`email`" + ` VARCHAR(255) NOT NULL UNIQUE COMMENT 'Source: users.email',
  ` + "`display_name`" + ` VARCHAR(120) COMMENT 'Source: users.full_name',
  ` + "`created_at`" + ` DATETIME NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COMMENT='One row per tenant user';

CREATE TABLE ` + "`purchases`" + ` (
  ` + "`id`" + ` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  ` + "`account_id`" + ` INT UNSIGNED NOT NULL,
  ` + "`amount_cents`" + ` INT NOT NULL,
  ` + "`purchased_at`" + ` DATETIME NOT NULL,
  CONSTRAINT ` + "`fk_purchases_account`" + ` FOREIGN KEY (` + "`account_id`" + `) REFERENCES ` + "`accounts`" + ` (` + "`id`" + `)
) ENGINE=InnoDB;
`

const initCentralSQL = `-- Central reporting schema (migration target).

CREATE TABLE ` + "`audit_events`" + ` (
  ` + "`id`" + ` INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
  ` + "`source_ref`" + ` VARCHAR(64) NOT NULL,
  ` + "`action`" + ` VARCHAR(64) NOT NULL COMMENT 'Source: audit_trail.action',
  ` + "`occurred_at`" + ` DATETIME NOT NULL COMMENT 'Source: audit_trail.logged_at'
) ENGINE=InnoDB COMMENT='Category: logging';
`
