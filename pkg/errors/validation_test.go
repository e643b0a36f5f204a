package errors

import (
	"testing"
)

func TestValidateSchemaID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "legacy", false},
		{"valid with dash", "tenant-eu", false},
		{"valid with underscore", "tenant_eu", false},
		{"valid with digits", "shard7", false},
		{"valid uppercase", "Analytics", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 80)), true},
		{"with dot", "tenant.eu", true},
		{"with slash", "tenant/eu", true},
		{"with space", "tenant eu", true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchemaID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchemaID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSchema) {
				t.Errorf("ValidateSchemaID(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateIdent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "users", false},
		{"with underscore", "user_accounts", false},
		{"leading underscore", "_meta", false},
		{"with digits", "orders2024", false},
		{"uppercase", "Users", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"starts with digit", "2users", true},
		{"with dash", "user-accounts", true},
		{"with dot", "users.email", true},
		{"with space", "user accounts", true},
		{"with quote", `"users"`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdent(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdent(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTableRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "users.email", false},
		{"with underscores", "user_accounts.primary_email", false},

		{"empty", "", true},
		{"no dot", "users", true},
		{"too many parts", "db.users.email", true},
		{"empty table", ".email", true},
		{"empty column", "users.", true},
		{"bad table ident", "user-accounts.email", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTableRef(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTableRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "schemas/legacy.sql", false},
		{"valid nested", "project/schemas/target/tenant.sql", false},
		{"valid filename only", "mapping.json", false},
		{"valid with dots", "v1.2.3/mapping.json", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"path traversal", "../../../etc/passwd", true},
		{"path traversal middle", "foo/../bar", true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidSchema,
		ErrCodeInvalidDialect,
		ErrCodeInvalidFormat,
		ErrCodeInvalidStyle,
		ErrCodeInvalidManifest,
		ErrCodeInvalidOverrides,
		ErrCodeInvalidConfig,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeSchemaNotFound,
		ErrCodeSourceParse,
		ErrCodeRender,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
