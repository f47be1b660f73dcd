package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. The
// preview server uses this to keep per-user share caches separate from
// the global render cache.
//
// Example usage:
//
//	// User-specific keys for private diagrams
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
//
//	// Global keys for shared renders
//	globalKeyer := NewDefaultKeyer()
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

// HTTPKey generates a prefixed key for HTTP response caching.
func (k *ScopedKeyer) HTTPKey(namespace, key string) string {
	return k.prefix + k.inner.HTTPKey(namespace, key)
}

// DiagramKey generates a prefixed key for parsed diagram caching.
func (k *ScopedKeyer) DiagramKey(sourceHash string) string {
	return k.prefix + k.inner.DiagramKey(sourceHash)
}

// ArtifactKey generates a prefixed key for rendered output caching.
func (k *ScopedKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(diagramHash, opts)
}
