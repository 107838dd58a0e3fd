package conceptmap

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyNodeID is returned by [ValidateNodeIDs] for an empty identifier.
	ErrEmptyNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [ValidateNodeIDs] when an identifier
	// appears more than once.
	ErrDuplicateNodeID = errors.New("duplicate node ID")
)

// Point is a 2-D coordinate in layout units.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Node is a positioned term. X and Y are the top-left corner of its box.
type Node struct {
	ID    string  `json:"id" bson:"id"`
	X     float64 `json:"x" bson:"x"`
	Y     float64 `json:"y" bson:"y"`
	Level int     `json:"level" bson:"level"`
}

// Edge is a routed relation. Points always holds at least two entries,
// from the bottom-center of From to the top-center of To.
type Edge struct {
	From   string       `json:"from" bson:"from"`
	To     string       `json:"to" bson:"to"`
	Kind   RelationKind `json:"type" bson:"type"`
	Label  string       `json:"label,omitempty" bson:"label,omitempty"`
	Points []Point      `json:"points" bson:"points"`
}

// Layout is the result of [ComputeLayout]. Width and Height form the tight
// bounding box of all node boxes; both are 0 for an empty layout.
type Layout struct {
	Nodes  []Node  `json:"nodes" bson:"nodes"`
	Edges  []Edge  `json:"edges" bson:"edges"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// ComputeLayout runs the full pipeline: [AssignLevels], then
// [AssignCoordinates], then [RouteEdges], and computes the bounding box.
//
// An empty nodeIDs returns an empty Layout immediately. ComputeLayout never
// panics, whatever the relations contain: cycles, self-loops, repeated
// relations and dangling endpoints are all handled by the stages.
//
// Options adjust node dimensions and gaps; see [DefaultConfig].
func ComputeLayout(nodeIDs []string, relations []Relation, opts ...Option) Layout {
	if len(nodeIDs) == 0 {
		return Layout{Nodes: []Node{}, Edges: []Edge{}}
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.Normalized()

	levels := AssignLevels(nodeIDs, relations)
	nodes := AssignCoordinates(nodeIDs, levels, cfg)
	edges := RouteEdges(nodes, relations, cfg)

	l := Layout{Nodes: nodes, Edges: edges}
	for _, n := range nodes {
		l.Width = max(l.Width, n.X+cfg.NodeWidth)
		l.Height = max(l.Height, n.Y+cfg.NodeHeight)
	}
	return l
}

// Node returns the positioned node with the given ID.
func (l Layout) Node(id string) (Node, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Rows groups node IDs by level, in row order (left to right).
func (l Layout) Rows() map[int][]string {
	rows := make(map[int][]string)
	for _, n := range l.Nodes {
		rows[n.Level] = append(rows[n.Level], n.ID)
	}
	return rows
}

// LevelCount returns the number of levels, i.e. the deepest level plus one.
// It returns 0 for an empty layout.
func (l Layout) LevelCount() int {
	if len(l.Nodes) == 0 {
		return 0
	}
	deepest := 0
	for _, n := range l.Nodes {
		deepest = max(deepest, n.Level)
	}
	return deepest + 1
}

// ValidateNodeIDs checks the caller contract of the engine: identifiers must
// be non-empty and unique. The engine itself does not call it.
func ValidateNodeIDs(nodeIDs []string) error {
	seen := make(map[string]bool, len(nodeIDs))
	for i, id := range nodeIDs {
		if id == "" {
			return fmt.Errorf("%w: index %d", ErrEmptyNodeID, i)
		}
		if seen[id] {
			return fmt.Errorf("%w: %q", ErrDuplicateNodeID, id)
		}
		seen[id] = true
	}
	return nil
}
