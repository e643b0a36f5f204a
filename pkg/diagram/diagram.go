// Package diagram defines the assembled diagram model and its
// serialization.
//
// A model is what the pipeline hands to the rendering boundary: positioned
// tables per schema, routed edges, and the full issue list. The JSON form
// is the contract with external viewers; it is normalized before writing,
// so identical pipelines produce byte-identical files.
package diagram

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/matzehuels/schemaflow/pkg/errors"
)

// =============================================================================
// Model Serialization API
// =============================================================================

// MarshalModel serializes a model to indented JSON bytes. The model is
// normalized first, so output order is deterministic.
func MarshalModel(m *Model) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeModelTo(m, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalModel deserializes JSON bytes into a model.
func UnmarshalModel(data []byte) (*Model, error) {
	return readModelFrom(bytes.NewReader(data))
}

// WriteModelFile writes a model to a JSON file.
// The file is created with 0644 permissions.
func WriteModelFile(m *Model, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer f.Close()
	return writeModelTo(m, f)
}

// WriteModel writes a model as JSON to an io.Writer. Use MarshalModel for
// in-memory serialization or WriteModelFile for files.
func WriteModel(m *Model, w io.Writer) error {
	return writeModelTo(m, w)
}

// ReadModelFile reads a JSON file and returns the decoded model.
func ReadModelFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open model %s", path)
	}
	defer f.Close()
	return readModelFrom(f)
}

// ReadModel decodes model JSON from an io.Reader.
func ReadModel(r io.Reader) (*Model, error) {
	return readModelFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeModelTo(m *Model, w io.Writer) error {
	m.Normalize()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode model")
	}
	return nil
}

func readModelFrom(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode model")
	}
	seen := make(map[string]bool, len(m.Schemas))
	for _, s := range m.Schemas {
		if s.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "model schema without id")
		}
		if seen[s.ID] {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate schema id %q", s.ID)
		}
		seen[s.ID] = true
	}
	return &m, nil
}
