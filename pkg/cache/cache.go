// Package cache provides pluggable byte caches for the render pipeline.
//
// Three backends are included: a file cache for CLI usage, a Redis cache
// for the preview server, and a null cache that disables caching. Keys
// are derived from content hashes by a [Keyer], so identical sources and
// render options always map to the same entry regardless of backend.
package cache

import (
	"context"
	"time"
)

// TTLs per entry kind. Parsed diagrams and artifacts are pure functions
// of their inputs, so the TTLs only bound disk usage, not staleness.
const (
	// TTLDiagram is how long parsed diagram JSON stays cached.
	TTLDiagram = 7 * 24 * time.Hour

	// TTLArtifact is how long rendered outputs stay cached.
	TTLArtifact = 30 * 24 * time.Hour

	// TTLHTTP is how long cached HTTP responses stay valid.
	TTLHTTP = time.Hour
)

// Cache stores opaque byte values with optional expiration.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts carries every option that changes rendered output.
// Two renders with equal diagram hash and equal opts are byte-identical.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Theme    string  `json:"theme,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Backend  string  `json:"backend,omitempty"`
	Detailed bool    `json:"detailed,omitempty"`
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// HTTPKey generates a key for HTTP response caching.
	HTTPKey(namespace, key string) string

	// DiagramKey generates a key for parsed diagram caching from the
	// hash of the source text.
	DiagramKey(sourceHash string) string

	// ArtifactKey generates a key for rendered output caching from the
	// diagram hash and the options that affect rendering.
	ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme. Keys are namespaced by stage
// and carry a full content hash, so they are safe to share globally.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// HTTPKey generates a key for HTTP response caching.
func (k *DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// DiagramKey generates a key for parsed diagram caching.
func (k *DefaultKeyer) DiagramKey(sourceHash string) string {
	return "diagram:" + sourceHash
}

// ArtifactKey generates a key for rendered output caching.
func (k *DefaultKeyer) ArtifactKey(diagramHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", diagramHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
