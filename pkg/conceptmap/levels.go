package conceptmap

// AssignLevels ranks every node by longest-path leveling over relations.
//
// Each node lands one level below the deepest of its resolved predecessors,
// so a node with several parents sits below all of them, not just the first
// one visited:
//   - Nodes with no incoming relation are at level 0
//   - For every relation a→b outside a cycle, level(b) ≥ level(a)+1
//   - Every entry of nodeIDs receives exactly one level
//
// # Algorithm
//
// AssignLevels performs a relaxed Kahn traversal:
//  1. Keep only relations whose endpoints are both in nodeIDs
//  2. Seed the queue with every in-degree 0 node, in input order, at level 0
//  3. For a dequeued node at level L, raise each child to at least L+1 and
//     decrement its remaining in-degree; enqueue it when that reaches 0
//  4. Nodes that never received a level get 0
//
// # Cycles
//
// Nodes inside a cycle never reach in-degree 0. They keep whatever level
// their resolved predecessors pushed them to, or 0 if none did. Self-loops
// and repeated relations are not special-cased: each counts toward
// in-degree like any other relation.
//
// # Performance
//
// Time complexity is O(N + E); each node is enqueued at most once.
func AssignLevels(nodeIDs []string, relations []Relation) map[string]int {
	levels := make(map[string]int, len(nodeIDs))
	if len(nodeIDs) == 0 {
		return levels
	}

	known := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		known[id] = true
	}

	children := make(map[string][]string, len(nodeIDs))
	inDegree := make(map[string]int, len(nodeIDs))
	for _, r := range relations {
		if !known[r.From] || !known[r.To] {
			continue
		}
		children[r.From] = append(children[r.From], r.To)
		inDegree[r.To]++
	}

	queue := make([]string, 0, len(nodeIDs))
	queued := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		if inDegree[id] == 0 && !queued[id] {
			levels[id] = 0
			queued[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range children[curr] {
			if level, ok := levels[child]; !ok || level < levels[curr]+1 {
				levels[child] = levels[curr] + 1
			}
			inDegree[child]--
			if inDegree[child] == 0 && !queued[child] {
				queued[child] = true
				queue = append(queue, child)
			}
		}
	}

	for _, id := range nodeIDs {
		if _, ok := levels[id]; !ok {
			levels[id] = 0
		}
	}
	return levels
}
