// Package parser reads the Markdown documents the backend exports and
// writes them back out with a YAML metadata header.
package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MarkdownDoc is a parsed export.
type MarkdownDoc struct {
	// Frontmatter metadata (from YAML)
	Frontmatter map[string]any

	// Title from frontmatter or the first h1
	Title string

	// Body after the frontmatter
	Content string

	Sections []Section
}

// Section is a heading and the text under it.
type Section struct {
	Level   int    // 1-6 for h1-h6
	Heading string // The heading text
	Path    string // e.g. "Criteria > Awards"
	Content string
	Start   int // first line, 1-based
	End     int // last line
}

var (
	headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*#*\s*$`)
	fenceRegex   = regexp.MustCompile("^\\s*(```|~~~)")
)

// ParseMarkdown parses a Markdown document into structured form.
func ParseMarkdown(content string) (*MarkdownDoc, error) {
	doc := &MarkdownDoc{
		Frontmatter: make(map[string]any),
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	remaining := content
	if strings.HasPrefix(content, "---\n") {
		endIdx := strings.Index(content[4:], "\n---")
		if endIdx >= 0 {
			frontmatterYAML := content[4 : 4+endIdx]
			remaining = strings.TrimPrefix(content[4+endIdx+4:], "\n")

			if err := yaml.Unmarshal([]byte(frontmatterYAML), &doc.Frontmatter); err != nil {
				return nil, fmt.Errorf("parse frontmatter: %w", err)
			}
			if doc.Frontmatter == nil {
				doc.Frontmatter = make(map[string]any)
			}
		}
	}

	doc.Content = remaining
	doc.Sections = parseSections(remaining)
	doc.Title = extractTitle(doc.Frontmatter, doc.Sections)

	return doc, nil
}

func extractTitle(fm map[string]any, sections []Section) string {
	if title, ok := fm["title"].(string); ok && title != "" {
		return title
	}
	for _, s := range sections {
		if s.Level == 1 {
			return s.Heading
		}
	}
	return ""
}

// parseSections splits content at headings. Lines inside fenced code blocks
// are never treated as headings.
func parseSections(content string) []Section {
	var sections []Section

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	inFence := false
	var currentPath []string
	var currentLevels []int

	var currentSection *Section
	var contentBuilder strings.Builder

	flushSection := func(endLine int) {
		if currentSection != nil {
			currentSection.Content = strings.TrimSpace(contentBuilder.String())
			currentSection.End = endLine
			sections = append(sections, *currentSection)
			contentBuilder.Reset()
		}
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if fenceRegex.MatchString(line) {
			inFence = !inFence
		}

		if match := headingRegex.FindStringSubmatch(line); !inFence && len(match) > 0 {
			flushSection(lineNum - 1)

			level := len(match[1])
			heading := strings.TrimSpace(match[2])

			for len(currentLevels) > 0 && currentLevels[len(currentLevels)-1] >= level {
				currentPath = currentPath[:len(currentPath)-1]
				currentLevels = currentLevels[:len(currentLevels)-1]
			}
			currentPath = append(currentPath, heading)
			currentLevels = append(currentLevels, level)

			currentSection = &Section{
				Level:   level,
				Heading: heading,
				Path:    strings.Join(currentPath, " > "),
				Start:   lineNum,
			}
		} else if currentSection != nil {
			contentBuilder.WriteString(line)
			contentBuilder.WriteString("\n")
		}
	}

	flushSection(lineNum)

	return sections
}

// Outline renders the heading tree, two spaces of indent per level below the
// shallowest heading.
func (d *MarkdownDoc) Outline() string {
	if len(d.Sections) == 0 {
		return ""
	}
	minLevel := 6
	for _, s := range d.Sections {
		minLevel = min(minLevel, s.Level)
	}

	var b strings.Builder
	for _, s := range d.Sections {
		b.WriteString(strings.Repeat("  ", s.Level-minLevel))
		b.WriteString("- ")
		b.WriteString(s.Heading)
		b.WriteString("\n")
	}
	return b.String()
}

// Section returns the first section whose heading equals heading, ignoring case.
func (d *MarkdownDoc) Section(heading string) (Section, bool) {
	for _, s := range d.Sections {
		if strings.EqualFold(s.Heading, heading) {
			return s, true
		}
	}
	return Section{}, false
}

// GetFrontmatterString extracts a string from frontmatter.
func (d *MarkdownDoc) GetFrontmatterString(key string) string {
	if v, ok := d.Frontmatter[key].(string); ok {
		return v
	}
	return ""
}

// WithFrontmatter prefixes body with meta as a YAML frontmatter block. An
// existing frontmatter block in body is replaced, keeping its keys unless
// meta overrides them.
func WithFrontmatter(meta map[string]any, body string) (string, error) {
	merged := make(map[string]any)
	if doc, err := ParseMarkdown(body); err == nil && len(doc.Frontmatter) > 0 {
		for k, v := range doc.Frontmatter {
			merged[k] = v
		}
		body = doc.Content
	}
	for k, v := range meta {
		merged[k] = v
	}
	if len(merged) == 0 {
		return body, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(merged); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}

	return "---\n" + buf.String() + "---\n\n" + strings.TrimLeft(body, "\n"), nil
}
