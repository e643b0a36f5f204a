// Package cache provides content-addressed caching for pipeline outputs.
//
// Two kinds of entries are cached: assembled diagram models, keyed by every
// input that influences the model, and rendered artifacts, keyed by the model
// plus render options. Keys are derived through a Keyer so callers can swap
// in scoped variants without touching the storage backend.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface for pipeline outputs.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// TTLs for cached entries. Keys are content-addressed, so entries never go
// stale; expiry only bounds disk growth.
const (
	TTLModel    = 30 * 24 * time.Hour
	TTLArtifact = 30 * 24 * time.Hour
)

// ModelKeyOpts captures the options that change an assembled model.
type ModelKeyOpts struct {
	Dialect string `json:"dialect"`
	Layout  string `json:"layout"` // hash of the layout configuration
}

// ArtifactKeyOpts captures the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	Style   string  `json:"style"`
	Scale   float64 `json:"scale,omitempty"`
	Legend  bool    `json:"legend,omitempty"`
	Issues  bool    `json:"issues,omitempty"`
	Columns bool    `json:"columns,omitempty"`
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// ModelKey generates a key for an assembled diagram model.
	// inputsHash covers the schema sources, manifest, and overrides.
	ModelKey(inputsHash string, opts ModelKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	// modelHash identifies the model the artifact was rendered from.
	ArtifactKey(modelHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key generation strategy.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ModelKey generates a key for an assembled diagram model.
func (k *DefaultKeyer) ModelKey(inputsHash string, opts ModelKeyOpts) string {
	return hashKey("model", inputsHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(modelHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", modelHash, opts)
}
