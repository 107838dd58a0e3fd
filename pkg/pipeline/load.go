package pipeline

import (
	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/errors"
	"github.com/matzehuels/conceptmap/pkg/glossary"
)

// Load reads and validates the glossary named by opts.GlossaryPath.
func Load(opts Options) (*glossary.Document, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	return glossary.ReadFile(opts.GlossaryPath)
}

// SelectView picks the section to lay out and asserts the engine's input
// contract: node IDs must be non-empty and unique.
func SelectView(doc *glossary.Document, section string) (glossary.View, error) {
	v, err := doc.View(section)
	if err != nil {
		return glossary.View{}, err
	}
	if err := CheckView(v); err != nil {
		return glossary.View{}, err
	}
	return v, nil
}

// CheckView validates the node IDs of a view. Ad-hoc views built outside a
// glossary (API requests) go through here too.
func CheckView(v glossary.View) error {
	if err := conceptmap.ValidateNodeIDs(v.NodeIDs); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidTerm, err, "invalid node list")
	}
	for i, r := range v.Relations {
		if !r.Kind.Valid() {
			return errors.New(errors.ErrCodeInvalidInput, "relation %d (%s -> %s): invalid type", i, r.From, r.To)
		}
	}
	return nil
}
