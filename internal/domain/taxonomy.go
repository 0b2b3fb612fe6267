package domain

import (
	"regexp"
	"strings"
)

// Category is a reference row identifying a market category. Categories are
// identified by slug; the display name, color, and icon are presentation
// hints for the rendering layer.
type Category struct {
	ID    int64
	Name  string
	Slug  string
	Color string
	Icon  string
}

// Tag is a free-form label attached to markets, identified by slug.
type Tag struct {
	ID   int64
	Name string
	Slug string
}

var slugSpaces = regexp.MustCompile(`\s+`)

// Slugify derives the canonical slug for a category or tag display name:
// lowercased with whitespace runs collapsed to hyphens.
func Slugify(name string) string {
	return slugSpaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
