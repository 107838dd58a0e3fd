package cache

import (
	"github.com/matzehuels/conceptmap/pkg/conceptmap"
)

// Keyer derives cache keys. Keys are namespaced by kind so that backends
// shared between tools do not collide.
type Keyer interface {
	// LayoutKey identifies the layout of a node set and relation set under
	// cfg. Node order is part of the key because it drives row order.
	LayoutKey(nodeIDs []string, relations []conceptmap.Relation, cfg conceptmap.Config) string

	// ArtifactKey identifies a rendered artifact of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change artifact bytes.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	ShowLabels bool    `json:"show_labels,omitempty"`
	LabelsHash string  `json:"labels_hash,omitempty"` // Hash of term display names
	Scale      float64 `json:"scale,omitempty"`       // PNG only
}

// DefaultKeyer produces "layout:<sha256>" and "artifact:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey hashes the normalized config together with the inputs, so a
// zero Config and its normalized form share entries.
func (DefaultKeyer) LayoutKey(nodeIDs []string, relations []conceptmap.Relation, cfg conceptmap.Config) string {
	if nodeIDs == nil {
		nodeIDs = []string{}
	}
	if relations == nil {
		relations = []conceptmap.Relation{}
	}
	return hashKey("layout", nodeIDs, relations, cfg.Normalized())
}

// ArtifactKey hashes the layout hash and render options.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
