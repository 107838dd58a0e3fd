package conceptmap

import (
	"maps"
	"slices"
)

// AssignCoordinates places nodes on horizontal rows, one row per level.
//
// Nodes of a level keep their relative order from nodeIDs. Every row is
// centered under the widest row: a row of k boxes starts at
// (rowWidth(maxCount) - rowWidth(k)) / 2 and advances by NodeWidth+NodeGap
// per box. The row for level L sits at y = L * (NodeHeight + LevelGap).
//
// Nodes absent from levels are placed at level 0. Repeated identifiers are
// placed once, at their first occurrence. The result is ordered by level,
// then by position within the row.
func AssignCoordinates(nodeIDs []string, levels map[string]int, cfg Config) []Node {
	cfg = cfg.Normalized()
	rows := groupByLevel(nodeIDs, levels)
	if len(rows) == 0 {
		return []Node{}
	}

	maxCount := 1
	for _, ids := range rows {
		maxCount = max(maxCount, len(ids))
	}
	refWidth := cfg.rowWidth(maxCount)

	nodes := make([]Node, 0, len(nodeIDs))
	for _, level := range slices.Sorted(maps.Keys(rows)) {
		ids := rows[level]
		start := (refWidth - cfg.rowWidth(len(ids))) / 2
		y := float64(level) * cfg.levelPitch()
		for i, id := range ids {
			nodes = append(nodes, Node{
				ID:    id,
				X:     start + float64(i)*cfg.rowPitch(),
				Y:     y,
				Level: level,
			})
		}
	}
	return nodes
}

// groupByLevel is a stable grouping of nodeIDs by level that skips repeats.
func groupByLevel(nodeIDs []string, levels map[string]int) map[int][]string {
	rows := make(map[int][]string)
	seen := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		level := max(levels[id], 0)
		rows[level] = append(rows[level], id)
	}
	return rows
}
