package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemaflow/pkg/cache"
	"github.com/matzehuels/schemaflow/pkg/diagram"
	"github.com/matzehuels/schemaflow/pkg/errors"
	"github.com/matzehuels/schemaflow/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// The CLI and the local server both use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → resolve → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Model (parse → resolve → layout → route → assemble)
	modelStart := time.Now()
	m, modelHit, err := r.ModelWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	result.Model = m
	result.Stats.ModelTime = time.Since(modelStart)
	result.Stats.TableCount = countTables(m)
	result.Stats.EdgeCount = len(m.Edges)
	result.Stats.IssueCount = len(m.Issues)
	result.CacheInfo.ModelHit = modelHit

	// Compute the model hash for cache keys and server ETags
	if modelData, err := diagram.MarshalModel(m); err == nil {
		result.ModelHash = cache.Hash(modelData)
	}

	r.Logger.Info("assembled model",
		"tables", result.Stats.TableCount,
		"edges", result.Stats.EdgeCount,
		"issues", result.Stats.IssueCount,
		"duration", result.Stats.ModelTime)

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, m, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered artifacts",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ModelWithCacheInfo builds the diagram model with caching and returns cache hit info.
func (r *Runner) ModelWithCacheInfo(ctx context.Context, opts Options) (*diagram.Model, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	hooks := observability.Cache()

	// Compute cache key from the raw inputs
	inputsHash, err := r.inputsHash(opts)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.ModelKey(inputsHash, opts.ModelKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			m, err := diagram.UnmarshalModel(data)
			if err == nil {
				hooks.OnCacheHit(ctx, "model")
				return m, true, nil // Cache hit
			}
			// If deserialization fails, fall through to rebuild
		}
		hooks.OnCacheMiss(ctx, "model")
	}

	m, err := r.buildModel(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := diagram.MarshalModel(m); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLModel)
		hooks.OnCacheSet(ctx, "model", len(data))
	}

	return m, false, nil // Cache miss
}

// Model is a convenience wrapper that calls ModelWithCacheInfo and discards the cache hit info.
func (r *Runner) Model(ctx context.Context, opts Options) (*diagram.Model, error) {
	m, _, err := r.ModelWithCacheInfo(ctx, opts)
	return m, err
}

// buildModel runs the uncached parse → resolve → build stages.
func (r *Runner) buildModel(ctx context.Context, opts Options) (*diagram.Model, error) {
	parseStart := time.Now()
	parsed, err := ParseSchemas(ctx, opts)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("parsed schemas",
		"schemas", len(parsed.Order),
		"tables", parsed.TableCount(),
		"issues", len(parsed.Issues),
		"duration", time.Since(parseStart))

	resolveStart := time.Now()
	g, resolveIssues, err := ResolveLineage(ctx, parsed, opts)
	if err != nil {
		return nil, err
	}
	r.Logger.Info("resolved lineage",
		"mappings", len(g.Mappings),
		"issues", len(resolveIssues),
		"duration", time.Since(resolveStart))

	issues := append(parsed.Issues, resolveIssues...)
	return BuildModel(ctx, parsed, g, issues, opts)
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *diagram.Model, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	hooks := observability.Cache()

	// Compute cache key from model data
	modelData, err := diagram.MarshalModel(m)
	if err != nil {
		return nil, false, fmt.Errorf("serialize model for cache key: %w", err)
	}
	modelHash := cache.Hash(modelData)

	// Try to get all formats from cache (unless refresh requested)
	if !opts.Refresh {
		allCached := true
		artifacts := make(map[string][]byte)

		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(modelHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				hooks.OnCacheHit(ctx, "artifact")
				artifacts[format] = data
			} else {
				hooks.OnCacheMiss(ctx, "artifact")
				allCached = false
				break
			}
		}

		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	rendered, err := Render(ctx, m, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(modelHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		hooks.OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, m *diagram.Model, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, m, opts)
	return artifacts, err
}

// inputsHash digests everything that feeds the model: schema texts, the
// manifest, and the overrides. Two runs with the same digest and the same
// key options produce the same model.
func (r *Runner) inputsHash(opts Options) (string, error) {
	type schemaDigest struct {
		ID      string `json:"id"`
		Dialect string `json:"dialect"`
		Text    string `json:"text"`
	}
	digest := struct {
		Schemas   []schemaDigest `json:"schemas"`
		Manifest  string         `json:"manifest"`
		Overrides string         `json:"overrides"`
	}{}

	for _, in := range opts.Inputs() {
		text, err := readSchemaInput(in)
		if err != nil {
			return "", err
		}
		digest.Schemas = append(digest.Schemas, schemaDigest{ID: in.ID, Dialect: in.Dialect, Text: text})
	}

	switch {
	case opts.Manifest != "":
		digest.Manifest = opts.Manifest
	case opts.ManifestPath != "":
		data, err := os.ReadFile(opts.ManifestPath)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read manifest %s", opts.ManifestPath)
		}
		digest.Manifest = string(data)
	}

	if opts.OverridesPath != "" {
		data, err := os.ReadFile(opts.OverridesPath)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeFileNotFound, err, "read overrides %s", opts.OverridesPath)
		}
		digest.Overrides = string(data)
	}

	return cache.HashJSON(digest), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func countTables(m *diagram.Model) int {
	n := 0
	for _, s := range m.Schemas {
		n += len(s.Tables)
	}
	return n
}
