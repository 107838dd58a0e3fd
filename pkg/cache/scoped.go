package cache

import "github.com/matzehuels/conceptmap/pkg/conceptmap"

// ScopedKeyer wraps a Keyer with a prefix for isolation between glossaries
// or deployments sharing one backend.
//
// Example usage:
//
//	// Per-glossary keys
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "glossary:ml:")
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

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(nodeIDs []string, relations []conceptmap.Relation, cfg conceptmap.Config) string {
	return k.prefix + k.inner.LayoutKey(nodeIDs, relations, cfg)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
