package conceptmap

// RouteEdges computes a curved route for every relation between two
// positioned nodes.
//
// Each route has exactly four control points, usable as a cubic Bézier or
// as a polyline:
//
//	source bottom-center → (source.x, midY) → (target.x, midY) → target top-center
//
// where midY is halfway between the two anchors. Horizontally displaced
// edges therefore bend at mid height instead of cutting diagonally through
// sibling boxes.
//
// Relations whose From or To is not among nodes are dropped. The check is
// independent of [AssignLevels] because callers may route against a
// different node subset. Kind and Label are copied verbatim.
func RouteEdges(nodes []Node, relations []Relation, cfg Config) []Edge {
	cfg = cfg.Normalized()

	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		if _, ok := byID[n.ID]; !ok {
			byID[n.ID] = n
		}
	}

	edges := make([]Edge, 0, len(relations))
	for _, r := range relations {
		from, ok := byID[r.From]
		if !ok {
			continue
		}
		to, ok := byID[r.To]
		if !ok {
			continue
		}
		edges = append(edges, Edge{
			From:   r.From,
			To:     r.To,
			Kind:   r.Kind,
			Label:  r.Label,
			Points: route(from, to, cfg),
		})
	}
	return edges
}

func route(from, to Node, cfg Config) []Point {
	src := Point{X: from.X + cfg.NodeWidth/2, Y: from.Y + cfg.NodeHeight}
	dst := Point{X: to.X + cfg.NodeWidth/2, Y: to.Y}
	midY := (src.Y + dst.Y) / 2
	return []Point{
		src,
		{X: src.X, Y: midY},
		{X: dst.X, Y: midY},
		dst,
	}
}
