package generator

import (
	"fmt"
	"strings"
)

// Kind identifies which producer a prompt belongs to.
type Kind string

const (
	KindOutline   Kind = "outline"
	KindDraft     Kind = "draft"
	KindMetadata  Kind = "metadata"
	KindComponent Kind = "component"
	KindRevision  Kind = "revision"
)

const (
	accentRed  = "#dc2626"
	bgOffWhite = "#fffcf8"
)

// Prompt is the set of messages sent to the LLM.
type Prompt struct {
	Kind    Kind
	System  string
	User    string
	History []Message
}

// Message carries optional prior turns.
type Message struct {
	Role    string
	Content string
}

// BuildOutlinePrompt asks for the theme and the points of a transcript as JSON.
func BuildOutlinePrompt(rawText string) Prompt {
	var sb strings.Builder
	sb.WriteString("You find the theme and outline of a transcript of handwritten notes.\n")
	sb.WriteString("- The theme is the main heading or topic of the notes.\n")
	sb.WriteString("- The outline lists the key points exactly as they appear in the text. Do not deviate from the text.\n")
	sb.WriteString(`- Reply with JSON only: {"theme": "...", "outline": ["...", "..."]}` + "\n")

	example := "Input:\nMachine Learning Basics\n- Supervised learning uses labeled data\n- Training is the learning process\n\n" +
		`Output: {"theme": "Machine Learning Basics", "outline": ["Supervised learning uses labeled data", "Training is the learning process"]}`

	return Prompt{
		Kind:    KindOutline,
		System:  sb.String(),
		User:    fmt.Sprintf("Transcript:\n%s", rawText),
		History: []Message{{Role: "user", Content: example}},
	}
}

// BuildDraftPrompt asks for a markdown blog post grounded in the transcript.
func BuildDraftPrompt(rawText, theme string, outline []string) Prompt {
	var sb strings.Builder
	sb.WriteString("You turn notes into a single blog post in Markdown. Output Markdown only, no commentary.\n")
	sb.WriteString("- Start with a level one heading as the title.\n")
	sb.WriteString("- Use a level two heading for each section; write at least two sections.\n")
	sb.WriteString("- Only write what is in the notes. Do not invent content.\n")

	var user strings.Builder
	user.WriteString(fmt.Sprintf("Theme: %s\n", theme))
	if len(outline) > 0 {
		user.WriteString("Outline:\n")
		for i, item := range outline {
			user.WriteString(fmt.Sprintf("  %d. %s\n", i+1, item))
		}
	}
	user.WriteString(fmt.Sprintf("\nNotes:\n%s\n", rawText))

	return Prompt{Kind: KindDraft, System: sb.String(), User: user.String()}
}

// BuildMetadataPrompt asks for SEO metadata as JSON.
func BuildMetadataPrompt(markdown, theme string) Prompt {
	var sb strings.Builder
	sb.WriteString("You write metadata for a blog post.\n")
	sb.WriteString("- title: SEO friendly title.\n")
	sb.WriteString("- summary: 150 to 200 characters for previews.\n")
	sb.WriteString("- tags: relevant tags for categorization.\n")
	sb.WriteString("- slug: URL friendly slug.\n")
	sb.WriteString("- reading_time: estimated reading time in whole minutes.\n")
	sb.WriteString(`Reply with JSON only: {"title": "", "summary": "", "tags": [], "slug": "", "reading_time": 0}` + "\n")

	user := fmt.Sprintf("Theme: %s\n\nPost:\n%s", theme, markdown)
	return Prompt{Kind: KindMetadata, System: sb.String(), User: user}
}

// BuildComponentPrompt asks for a styled React component that renders the post.
func BuildComponentPrompt(markdown string) Prompt {
	var sb strings.Builder
	sb.WriteString("You generate one React component that renders a blog post.\n")
	sb.WriteString(fmt.Sprintf("- Use these exact colors: ACCENT_RED = %q, BG_OFFWHITE = %q.\n", accentRed, bgOffWhite))
	sb.WriteString("- Include layout components SiteLayout, TopNav and ArticleTitle.\n")
	sb.WriteString("- Style with Tailwind classes and animate with framer-motion.\n")
	sb.WriteString("- Lowercase navigation and headings; warm, paper-like look.\n")
	sb.WriteString("- Navigation items: memo, tech, contact, home, books, non-technical?.\n")
	sb.WriteString("- Export the component as default.\n")
	sb.WriteString("- Output source code only. Do not wrap it in markdown code fences.\n")

	return Prompt{
		Kind:   KindComponent,
		System: sb.String(),
		User:   fmt.Sprintf("Post:\n%s", markdown),
	}
}

// BuildRevisionPrompt asks for a corrected component given validator feedback.
func BuildRevisionPrompt(feedback, component string) Prompt {
	var sb strings.Builder
	sb.WriteString("You fix a React component so it passes review. Make the smallest change that addresses the feedback.\n")
	sb.WriteString(fmt.Sprintf("- Keep the colors %s and %s and the existing layout.\n", accentRed, bgOffWhite))
	sb.WriteString("- Output the full corrected source only, without code fences.\n")

	user := fmt.Sprintf("Current component:\n%s\n\nFeedback:\n%s", component, feedback)
	return Prompt{Kind: KindRevision, System: sb.String(), User: user}
}
