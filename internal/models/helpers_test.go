package models

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 6, "hello…"},
		{"cjk", "推荐人简历材料", 4, "推荐人…"},
		{"zero limit", "hello", 0, "hello"},
		{"one", "hello", 1, "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestOneLine(t *testing.T) {
	if got := OneLine("a\n  b\tc  "); got != "a b c" {
		t.Errorf("OneLine = %q", got)
	}
}

func TestLatestID(t *testing.T) {
	entries := []LogEntry{{ID: 3}, {ID: 9}, {ID: 5}}
	if got := LatestID(entries); got != 9 {
		t.Errorf("LatestID = %d, want 9", got)
	}
	if got := LatestID(nil); got != 0 {
		t.Errorf("LatestID(nil) = %d, want 0", got)
	}
}

func TestNormalizeDerivesItemStatus(t *testing.T) {
	c := MaterialCollection{
		Categories: []MaterialCategory{{
			ID: "folder_1",
			Items: []MaterialItem{
				{ID: "passport", Status: ItemPending, Files: []MaterialFile{{ID: 1}}},
				{ID: "resume", Status: ItemCollected},
			},
		}},
	}
	c.Normalize()

	if got := c.Categories[0].Items[0].Status; got != ItemCollected {
		t.Errorf("item with files: status = %s, want collected", got)
	}
	if got := c.Categories[0].Items[1].Status; got != ItemPending {
		t.Errorf("item without files: status = %s, want pending", got)
	}
}

func TestProjectStatusValid(t *testing.T) {
	if !ProjectFrameworkBuilding.Valid() {
		t.Error("framework_building should be valid")
	}
	if ProjectStatus("archived").Valid() {
		t.Error("archived should not be valid")
	}
	if len(ProjectStatuses) != 8 {
		t.Errorf("expected 8 project statuses, got %d", len(ProjectStatuses))
	}
}
