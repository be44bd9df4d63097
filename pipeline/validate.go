package pipeline

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const (
	msgMissingTitle    = "Markdown should start with a Heading H1 (For example: # Blog Title)"
	msgMissingSections = "Markdown should contain at least two sections (For example: ## Section 1, ## Section 2)"
)

// DocumentValidator checks the structure of a drafted blog post.
type DocumentValidator struct {
	RequireTitle    bool
	RequireSections bool
}

// Validate reports whether markdown satisfies the enabled rules, with one diagnostic line per violation.
func (v DocumentValidator) Validate(markdown string) (bool, string) {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var problems []string
	if v.RequireTitle && !startsWithTitle(doc, src) {
		problems = append(problems, msgMissingTitle)
	}
	if v.RequireSections && countHeadings(doc, src, 2) < 2 {
		problems = append(problems, msgMissingSections)
	}
	return len(problems) == 0, strings.Join(problems, "\n")
}

func startsWithTitle(doc ast.Node, src []byte) bool {
	h, ok := doc.FirstChild().(*ast.Heading)
	if !ok || h.Level != 1 {
		return false
	}
	return strings.TrimSpace(string(h.Text(src))) != ""
}

func countHeadings(doc ast.Node, src []byte, level int) int {
	n := 0
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := node.(*ast.Heading); ok && h.Level == level && strings.TrimSpace(string(h.Text(src))) != "" {
			n++
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return n
}

// ComponentValidator checks generated component source against a pluggable rule set.
// With no rules every component passes.
type ComponentValidator struct {
	Rules []ComponentRule
}

// Validate runs every rule and collects the messages of the ones that fail.
func (v ComponentValidator) Validate(code string) (bool, string) {
	var problems []string
	for _, r := range v.Rules {
		if msg, ok := r.Check(code); !ok {
			problems = append(problems, msg)
		}
	}
	return len(problems) == 0, strings.Join(problems, "\n")
}
