package timeline

import "testing"

func levels(comments []CommentView) []int {
	got := make([]int, len(comments))
	for i, c := range comments {
		got[i] = c.Level
	}
	return got
}

func TestAssignLevels_Roots(t *testing.T) {
	comments := []CommentView{
		{ID: "a"},
		{ID: "b"},
		{ID: "c"},
	}

	AssignLevels(comments)

	for _, c := range comments {
		if c.Level != 0 {
			t.Errorf("comment %s: want level 0 for root, got %d", c.ID, c.Level)
		}
	}
}

func TestAssignLevels_Nested(t *testing.T) {
	// a
	// └─ b
	//    └─ c
	// d
	comments := []CommentView{
		{ID: "a"},
		{ID: "b", ParentID: "a"},
		{ID: "c", ParentID: "b"},
		{ID: "d"},
	}

	AssignLevels(comments)

	want := []int{0, 1, 2, 0}
	got := levels(comments)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("comment %s: want level %d, got %d", comments[i].ID, want[i], got[i])
		}
	}

	// Every resolvable child sits exactly one level below its parent.
	byID := make(map[string]CommentView)
	for _, c := range comments {
		byID[c.ID] = c
	}
	for _, c := range comments {
		if parent, ok := byID[c.ParentID]; ok {
			if c.Level != parent.Level+1 {
				t.Errorf("comment %s: want level %d (parent+1), got %d", c.ID, parent.Level+1, c.Level)
			}
		}
	}
}

func TestAssignLevels_UnresolvableParent(t *testing.T) {
	comments := []CommentView{
		{ID: "a", ParentID: "missing"},
	}

	AssignLevels(comments)

	if comments[0].Level != 0 {
		t.Errorf("want level 0 for unresolvable parent, got %d", comments[0].Level)
	}
}

func TestAssignLevels_CycleTerminates(t *testing.T) {
	// Corrupted data: a → b → c → a, cycle of length 3.
	comments := []CommentView{
		{ID: "a", ParentID: "c"},
		{ID: "b", ParentID: "a"},
		{ID: "c", ParentID: "b"},
	}

	AssignLevels(comments)

	for _, c := range comments {
		if c.Level > 3 {
			t.Errorf("comment %s: want level <= cycle length 3, got %d", c.ID, c.Level)
		}
	}
}

func TestAssignLevels_SelfParent(t *testing.T) {
	comments := []CommentView{
		{ID: "a", ParentID: "a"},
	}

	AssignLevels(comments)

	if comments[0].Level > 1 {
		t.Errorf("want level <= 1 for self-parented comment, got %d", comments[0].Level)
	}
}
