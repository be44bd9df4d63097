package pipeline

import (
	"strings"
	"unicode"
)

const (
	defaultTitle       = "Untitled"
	defaultReadingTime = 5
)

// normalizeMetadata applies the fallbacks for fields the producer left empty.
func normalizeMetadata(m Metadata, theme string) Metadata {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		m.Title = strings.TrimSpace(theme)
	}
	if m.Title == "" {
		m.Title = defaultTitle
	}
	m.Summary = strings.TrimSpace(m.Summary)
	m.Tags = uniqueTags(m.Tags)
	m.Slug = Slugify(m.Slug)
	if m.Slug == "" {
		m.Slug = Slugify(m.Title)
	}
	if m.ReadingTime <= 0 {
		m.ReadingTime = defaultReadingTime
	}
	return m
}

// uniqueTags trims tags and drops blanks and case-insensitive duplicates, keeping first-seen order.
func uniqueTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// Slugify lowercases s and joins its letter and digit runs with single hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
