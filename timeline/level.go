package timeline

// AssignLevels computes the nesting depth of every comment from its parent
// pointer chain. A root comment (no parent, or a parent that is not in the
// list) gets level 0, a resolvable child gets its parent's level plus one.
//
// Levels are not memoized across comments; each walk carries its own visited
// set so a parent cycle in corrupted data truncates the walk instead of
// looping forever. Trees are shallow in practice, so the O(n*d) cost is fine.
func AssignLevels(comments []CommentView) {
	byID := make(map[string]*CommentView, len(comments))
	for i := range comments {
		byID[comments[i].ID] = &comments[i]
	}

	for i := range comments {
		comments[i].Level = walkLevel(&comments[i], byID)
	}
}

func walkLevel(c *CommentView, byID map[string]*CommentView) int {
	level := 0
	visited := make(map[string]bool)

	cur := c
	for cur.ParentID != "" {
		if visited[cur.ID] {
			// Cycle: keep whatever depth was accumulated so far.
			return level
		}
		visited[cur.ID] = true

		parent, ok := byID[cur.ParentID]
		if !ok {
			break
		}
		level++
		cur = parent
	}

	return level
}
