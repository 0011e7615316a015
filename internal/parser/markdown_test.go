package parser

import (
	"strings"
	"testing"
)

const sampleExport = `---
title: EB-1A Petition Letter
project_id: p42
---

# EB-1A Petition Letter

Intro paragraph.

## Criteria

### Awards

Won the national prize.

` + "```md\n# not a heading\n```" + `

### Judging

Reviewed 40 papers.

## Conclusion

Done.
`

func TestParseMarkdown(t *testing.T) {
	doc, err := ParseMarkdown(sampleExport)
	if err != nil {
		t.Fatalf("ParseMarkdown: %v", err)
	}

	if doc.Title != "EB-1A Petition Letter" {
		t.Errorf("Title = %q", doc.Title)
	}
	if got := doc.GetFrontmatterString("project_id"); got != "p42" {
		t.Errorf("project_id = %q", got)
	}
	if strings.HasPrefix(doc.Content, "---") {
		t.Error("content should not include frontmatter")
	}

	wantPaths := []string{
		"EB-1A Petition Letter",
		"EB-1A Petition Letter > Criteria",
		"EB-1A Petition Letter > Criteria > Awards",
		"EB-1A Petition Letter > Criteria > Judging",
		"EB-1A Petition Letter > Conclusion",
	}
	if len(doc.Sections) != len(wantPaths) {
		t.Fatalf("got %d sections, want %d", len(doc.Sections), len(wantPaths))
	}
	for i, want := range wantPaths {
		if doc.Sections[i].Path != want {
			t.Errorf("section %d path = %q, want %q", i, doc.Sections[i].Path, want)
		}
	}

	awards, ok := doc.Section("awards")
	if !ok {
		t.Fatal("awards section not found")
	}
	if !strings.Contains(awards.Content, "# not a heading") {
		t.Errorf("fenced code should stay in section content, got %q", awards.Content)
	}
}

func TestParseMarkdownTitleFromHeading(t *testing.T) {
	doc, err := ParseMarkdown("# Personal Statement\n\nBody\n")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Personal Statement" {
		t.Errorf("Title = %q", doc.Title)
	}
}

func TestParseMarkdownBadFrontmatter(t *testing.T) {
	if _, err := ParseMarkdown("---\ntitle: [oops\n---\nbody"); err == nil {
		t.Error("expected frontmatter error")
	}
}

func TestOutline(t *testing.T) {
	doc, err := ParseMarkdown(sampleExport)
	if err != nil {
		t.Fatal(err)
	}
	want := "- EB-1A Petition Letter\n" +
		"  - Criteria\n" +
		"    - Awards\n" +
		"    - Judging\n" +
		"  - Conclusion\n"
	if got := doc.Outline(); got != want {
		t.Errorf("Outline =\n%s\nwant\n%s", got, want)
	}

	empty, _ := ParseMarkdown("no headings")
	if empty.Outline() != "" {
		t.Error("expected empty outline")
	}
}

func TestWithFrontmatter(t *testing.T) {
	out, err := WithFrontmatter(map[string]any{"project_id": "p1", "format": "markdown"}, "# Doc\n")
	if err != nil {
		t.Fatal(err)
	}
	want := "---\nformat: markdown\nproject_id: p1\n---\n\n# Doc\n"
	if out != want {
		t.Errorf("got\n%q\nwant\n%q", out, want)
	}

	// Re-applying merges into the existing block instead of stacking a second one.
	again, err := WithFrontmatter(map[string]any{"project_id": "p2"}, out)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := ParseMarkdown(again)
	if err != nil {
		t.Fatal(err)
	}
	if doc.GetFrontmatterString("project_id") != "p2" || doc.GetFrontmatterString("format") != "markdown" {
		t.Errorf("merged frontmatter = %v", doc.Frontmatter)
	}
	if strings.Count(again, "---\n") != 2 {
		t.Errorf("expected a single frontmatter block:\n%s", again)
	}
}
