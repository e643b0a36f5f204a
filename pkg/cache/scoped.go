package cache

// ScopedKeyer wraps a Keyer with a prefix for per-project isolation.
// Useful when several projects share one cache directory, for example a
// team cache on CI.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "project:"+projectID+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ModelKey generates a prefixed key for an assembled diagram model.
func (k *ScopedKeyer) ModelKey(inputsHash string, opts ModelKeyOpts) string {
	return k.prefix + k.inner.ModelKey(inputsHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(modelHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(modelHash, opts)
}
