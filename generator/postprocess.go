package generator

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"notes2blog/pipeline"
)

var (
	titleRe  = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	bulletRe = regexp.MustCompile(`^\s*(?:[-*•+]|\d+[.)])\s+(.+)$`)
	fenceRe  = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)(?:```|$)")
)

const wordsPerMinute = 200

// stripCodeFence returns the body of the first fenced block, or the trimmed
// input when it contains no fence.
func stripCodeFence(raw string) string {
	if !strings.Contains(raw, "```") {
		return strings.TrimSpace(raw)
	}
	m := fenceRe.FindStringSubmatch(raw)
	if len(m) < 2 {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(m[1])
}

// cleanMarkdown unwraps a reply that fenced the whole document.
func cleanMarkdown(raw string) string {
	md := strings.TrimSpace(raw)
	if strings.HasPrefix(md, "```") {
		return stripCodeFence(md)
	}
	return md
}

// extractJSON cuts the outermost object out of a reply that may carry prose or fences.
func extractJSON(raw string) (string, bool) {
	s := stripCodeFence(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

type outlineReply struct {
	Theme   string   `json:"theme"`
	Outline []string `json:"outline"`
}

// parseOutline reads the JSON reply, falling back to "first line is the theme,
// bullet lines are the points" when the model ignored the format.
func parseOutline(raw string) pipeline.Outline {
	if js, ok := extractJSON(raw); ok {
		var r outlineReply
		if err := json.Unmarshal([]byte(js), &r); err == nil {
			return pipeline.Outline{Theme: strings.TrimSpace(r.Theme), Points: cleanPoints(r.Outline)}
		}
	}

	var out pipeline.Outline
	for _, line := range strings.Split(raw, "\n") {
		if m := bulletRe.FindStringSubmatch(line); len(m) == 2 {
			out.Points = append(out.Points, strings.TrimSpace(m[1]))
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
		if out.Theme == "" && line != "" {
			out.Theme = line
		}
	}
	out.Points = cleanPoints(out.Points)
	return out
}

func cleanPoints(points []string) []string {
	out := make([]string, 0, len(points))
	for _, p := range points {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type metadataReply struct {
	Title       string          `json:"title"`
	Summary     string          `json:"summary"`
	Tags        []string        `json:"tags"`
	Slug        string          `json:"slug"`
	ReadingTime json.RawMessage `json:"reading_time"`
}

// parseMetadata reads the JSON reply. Without usable JSON the fields are
// derived from the document itself.
func parseMetadata(raw, markdown string) pipeline.Metadata {
	if js, ok := extractJSON(raw); ok {
		var r metadataReply
		if err := json.Unmarshal([]byte(js), &r); err == nil {
			return pipeline.Metadata{
				Title:       strings.TrimSpace(r.Title),
				Summary:     strings.TrimSpace(r.Summary),
				Tags:        r.Tags,
				Slug:        strings.TrimSpace(r.Slug),
				ReadingTime: parseMinutes(r.ReadingTime),
			}
		}
	}

	summary := extractDigest(markdown)
	if summary == "" {
		summary = defaultDigest(markdown, 200)
	}
	return pipeline.Metadata{
		Title:       extractTitle(markdown),
		Summary:     summary,
		ReadingTime: estimateReadingTime(markdown),
	}
}

// parseMinutes accepts 4, 4.5, "4" and "4 min"; anything else is zero.
func parseMinutes(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return int(math.Round(f))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return int(math.Round(f))
}

func estimateReadingTime(markdown string) int {
	words := len(strings.Fields(markdown))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) / wordsPerMinute))
}

func extractTitle(md string) string {
	m := titleRe.FindStringSubmatch(md)
	if len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractDigest returns the first paragraph, skipping heading lines.
func extractDigest(md string) string {
	lines := strings.Split(md, "\n")
	var b strings.Builder
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			if b.Len() > 0 {
				break
			}
			continue
		}
		b.WriteString(strings.TrimSpace(line))
		break
	}
	return b.String()
}

func defaultDigest(md string, limit int) string {
	compact := strings.Fields(md)
	return truncateRunes(strings.Join(compact, " "), limit)
}

// truncateRunes keeps at most limit runes of s.
func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
