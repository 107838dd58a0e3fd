package conceptmap

import (
	"errors"
	"fmt"
)

// ErrUnknownRelationKind is returned by [ParseRelationKind] and
// [RelationKind.UnmarshalText] for text that names none of the four kinds.
var ErrUnknownRelationKind = errors.New("unknown relation kind")

// RelationKind classifies a relation between two terms. The engine never
// branches on it; it is carried through to renderers for styling.
type RelationKind int

const (
	// Prerequisite means From must be understood before To.
	Prerequisite RelationKind = iota
	// Variant means To is a variation of From.
	Variant
	// Component means To is a part of From.
	Component
	// Applies means From is applied in To.
	Applies
)

var relationKindNames = [...]string{
	Prerequisite: "prerequisite",
	Variant:      "variant",
	Component:    "component",
	Applies:      "applies",
}

// RelationKinds lists every kind in declaration order.
var RelationKinds = []RelationKind{Prerequisite, Variant, Component, Applies}

// String returns the wire name of the kind ("prerequisite", "variant", ...).
func (k RelationKind) String() string {
	if k < 0 || int(k) >= len(relationKindNames) {
		return fmt.Sprintf("RelationKind(%d)", int(k))
	}
	return relationKindNames[k]
}

// Valid reports whether k is one of the four declared kinds.
func (k RelationKind) Valid() bool {
	return k >= 0 && int(k) < len(relationKindNames)
}

// ParseRelationKind converts a wire name into a RelationKind.
// Matching is exact; "Prerequisite" is rejected.
func ParseRelationKind(s string) (RelationKind, error) {
	for i, name := range relationKindNames {
		if name == s {
			return RelationKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRelationKind, s)
}

// MarshalText implements encoding.TextMarshaler, so kinds serialize as their
// wire names in JSON and TOML.
func (k RelationKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRelationKind, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *RelationKind) UnmarshalText(text []byte) error {
	parsed, err := ParseRelationKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Relation is a directed edge between two terms.
//
// Relations may reference identifiers outside the node set passed to the
// engine; such relations are dropped rather than reported.
type Relation struct {
	From  string       `json:"from" toml:"from" bson:"from"`
	To    string       `json:"to" toml:"to" bson:"to"`
	Kind  RelationKind `json:"type" toml:"type" bson:"type"`
	Label string       `json:"label,omitempty" toml:"label,omitempty" bson:"label,omitempty"` // Optional; empty means none
}
