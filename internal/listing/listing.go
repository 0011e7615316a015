// Package listing filters entity lists the way the list screens do: a
// case-insensitive substring search over a few text fields plus an exact match
// on one categorical field.
package listing

import (
	"strings"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// Query is the search box and the category filter. Empty values match all.
type Query struct {
	Search   string
	Category string
}

// Spec tells Filter which fields of T are searched and which one is the
// category.
type Spec[T any] struct {
	Fields   func(T) []string
	Category func(T) string
}

// Filter returns the items matching q, in their original order.
func Filter[T any](items []T, spec Spec[T], q Query) []T {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if q.Category != "" && spec.Category != nil && spec.Category(item) != q.Category {
			continue
		}
		if needle != "" && !matchesAny(spec.Fields(item), needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesAny(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Projects searches client name, visa type and id; the category is the status.
var Projects = Spec[models.Project]{
	Fields:   func(p models.Project) []string { return []string{p.ClientName, p.VisaType, p.ID} },
	Category: func(p models.Project) string { return string(p.Status) },
}

// Users searches name and email; the category is the role.
var Users = Spec[models.User]{
	Fields:   func(u models.User) []string { return []string{u.Name, u.Email} },
	Category: func(u models.User) string { return string(u.Role) },
}

// Bullets searches title, content and tags; the category is the section.
var Bullets = Spec[models.Bullet]{
	Fields: func(b models.Bullet) []string {
		return []string{b.Title, b.Content, strings.Join(b.Tags, " ")}
	},
	Category: func(b models.Bullet) string { return b.Section },
}
