package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockLLM is a placeholder for local runs that never calls a model.
// Each prompt kind gets a deterministic reply in the format its parser expects.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	switch prompt.Kind {
	case KindOutline:
		return mockOutline(strings.TrimPrefix(prompt.User, "Transcript:\n")), nil
	case KindDraft:
		return mockDraft(prompt.User), nil
	case KindMetadata:
		return mockMetadata(prompt.User), nil
	case KindComponent:
		return mockComponent(extractTitle(prompt.User)), nil
	case KindRevision:
		return mockRevision(prompt.User), nil
	}
	return "", fmt.Errorf("mock llm: unknown prompt kind %q", prompt.Kind)
}

func mockOutline(transcript string) string {
	o := parseOutline(transcript)
	if o.Theme == "" {
		o.Theme = "Untitled notes"
	}
	data, _ := json.Marshal(outlineReply{Theme: o.Theme, Outline: o.Points})
	return string(data)
}

func mockDraft(user string) string {
	theme := "Untitled notes"
	var points []string
	for _, line := range strings.Split(user, "\n") {
		switch {
		case strings.HasPrefix(line, "Theme: "):
			if t := strings.TrimSpace(strings.TrimPrefix(line, "Theme: ")); t != "" {
				theme = t
			}
		default:
			if m := bulletRe.FindStringSubmatch(line); len(m) == 2 && strings.HasPrefix(line, "  ") {
				points = append(points, strings.TrimSpace(m[1]))
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", theme))
	sb.WriteString("These notes were turned into a post without calling a model.\n\n")
	sb.WriteString("## Key points\n\n")
	if len(points) == 0 {
		sb.WriteString("No points were found in the notes.\n")
	}
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("- %s\n", p))
	}
	sb.WriteString("\n## Source\n\n```\n")
	sb.WriteString(user)
	sb.WriteString("\n```\n")
	return sb.String()
}

func mockMetadata(user string) string {
	post := user
	if i := strings.Index(user, "Post:\n"); i >= 0 {
		post = user[i+len("Post:\n"):]
	}
	title := extractTitle(post)
	summary := truncateRunes(extractDigest(post), 200)
	data, _ := json.Marshal(map[string]interface{}{
		"title":        title,
		"summary":      summary,
		"tags":         []string{"notes"},
		"slug":         "",
		"reading_time": estimateReadingTime(post),
	})
	return string(data)
}

func mockComponent(title string) string {
	if title == "" {
		title = "untitled"
	}
	return fmt.Sprintf(`import React from "react";
import { motion } from "framer-motion";

const ACCENT_RED = %q;
const BG_OFFWHITE = %q;

export default function BlogPost() {
  return (
    <div className="min-h-screen" style={{ backgroundColor: BG_OFFWHITE }}>
      <motion.h1 className="lowercase" style={{ color: ACCENT_RED }}>%s</motion.h1>
    </div>
  );
}
`, accentRed, bgOffWhite, strings.ToLower(title))
}

func mockRevision(user string) string {
	body := strings.TrimPrefix(user, "Current component:\n")
	if i := strings.Index(body, "\n\nFeedback:\n"); i >= 0 {
		body = body[:i]
	}
	return body
}
