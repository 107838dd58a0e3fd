package glossary

import (
	"slices"

	"github.com/matzehuels/conceptmap/pkg/conceptmap"
	"github.com/matzehuels/conceptmap/pkg/errors"
)

// Term is a glossary entry. ID is the node identifier used by the layout.
type Term struct {
	ID         string   `json:"id" toml:"id"`
	Name       string   `json:"name,omitempty" toml:"name,omitempty"`             // Display name (defaults to ID)
	Definition string   `json:"definition,omitempty" toml:"definition,omitempty"` // Short definition
	Section    string   `json:"section,omitempty" toml:"section,omitempty"`       // Subsection the term belongs to
	Tags       []string `json:"tags,omitempty" toml:"tags,omitempty"`
}

// DisplayName returns the name if set, otherwise the ID.
func (t Term) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// Document is a complete glossary: terms in declaration order plus the
// relations between them.
type Document struct {
	Title     string                `json:"title,omitempty" toml:"title,omitempty"`
	Terms     []Term                `json:"terms" toml:"terms"`
	Relations []conceptmap.Relation `json:"relations" toml:"relations"`
}

// View is the input of one concept map: the ordered term IDs of a section
// and every relation with at least one endpoint in it.
type View struct {
	Section   string                `json:"section"`
	NodeIDs   []string              `json:"nodes"`
	Relations []conceptmap.Relation `json:"relations"`
}

// Validate checks that every term ID is well-formed and unique.
//
// Relations with unknown endpoints are not errors: they may reference terms
// kept in other documents.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Terms))
	for i, t := range d.Terms {
		if err := errors.ValidateTermID(t.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidTerm, err, "term %d", i)
		}
		if seen[t.ID] {
			return errors.New(errors.ErrCodeInvalidTerm, "duplicate term id %q", t.ID)
		}
		seen[t.ID] = true
	}
	for i, r := range d.Relations {
		if !r.Kind.Valid() {
			return errors.New(errors.ErrCodeInvalidInput, "relation %d (%s -> %s): invalid type %d", i, r.From, r.To, int(r.Kind))
		}
	}
	return nil
}

// Term returns the term with the given ID.
func (d *Document) Term(id string) (Term, bool) {
	for _, t := range d.Terms {
		if t.ID == id {
			return t, true
		}
	}
	return Term{}, false
}

// Labels maps term IDs to display names, for renderers.
func (d *Document) Labels() map[string]string {
	labels := make(map[string]string, len(d.Terms))
	for _, t := range d.Terms {
		labels[t.ID] = t.DisplayName()
	}
	return labels
}

// Sections returns the distinct non-empty section names, sorted.
func (d *Document) Sections() []string {
	var sections []string
	for _, t := range d.Terms {
		if t.Section != "" && !slices.Contains(sections, t.Section) {
			sections = append(sections, t.Section)
		}
	}
	slices.Sort(sections)
	return sections
}

// SectionSize returns the number of terms in section. The empty section
// counts every term.
func (d *Document) SectionSize(section string) int {
	if section == "" {
		return len(d.Terms)
	}
	n := 0
	for _, t := range d.Terms {
		if t.Section == section {
			n++
		}
	}
	return n
}

// View selects the terms of section, in document order, and the relations
// touching them. The empty section selects the whole document.
//
// View returns an ErrCodeSectionNotFound error when a named section has no
// terms.
func (d *Document) View(section string) (View, error) {
	if err := errors.ValidateSectionName(section); err != nil {
		return View{}, err
	}

	v := View{Section: section, NodeIDs: []string{}, Relations: []conceptmap.Relation{}}
	members := make(map[string]bool)
	for _, t := range d.Terms {
		if section == "" || t.Section == section {
			v.NodeIDs = append(v.NodeIDs, t.ID)
			members[t.ID] = true
		}
	}
	if section != "" && len(v.NodeIDs) == 0 {
		return View{}, errors.New(errors.ErrCodeSectionNotFound, "section %q has no terms", section)
	}

	for _, r := range d.Relations {
		if members[r.From] || members[r.To] {
			v.Relations = append(v.Relations, r)
		}
	}
	return v, nil
}
