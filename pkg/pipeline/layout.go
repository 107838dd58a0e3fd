package pipeline

import (
	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/glossary"
)

// GenerateLayout computes the layout of a view. It checks the view first,
// so the engine only ever sees unique node IDs.
func GenerateLayout(v glossary.View, cfg conceptmap.Config) (conceptmap.Layout, error) {
	if err := CheckView(v); err != nil {
		return conceptmap.Layout{}, err
	}
	return conceptmap.ComputeLayout(v.NodeIDs, v.Relations, conceptmap.WithConfig(cfg)), nil
}
