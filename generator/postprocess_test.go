package generator

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", "  export default A  ", "export default A"},
		{"jsx fence", "```jsx\nconst a = 1\n```", "const a = 1"},
		{"tsx fence with prose", "Here:\n```tsx\nconst a = 1\n```\nDone", "const a = 1"},
		{"unterminated fence", "```\nconst a = 1\n", "const a = 1"},
		{"bare fence", "```\nx\n```", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}

func TestCleanMarkdown_KeepsInnerFences(t *testing.T) {
	md := "# T\n\n```go\nfmt.Println()\n```\n"
	assert.Equal(t, "# T\n\n```go\nfmt.Println()\n```", cleanMarkdown(md))
}

func TestParseOutline_Fallback(t *testing.T) {
	out := parseOutline("# Reading List\n\n1. Dune\n2) Hyperion\n* Foundation\nnot a bullet")
	assert.Equal(t, "Reading List", out.Theme)
	assert.Equal(t, []string{"Dune", "Hyperion", "Foundation"}, out.Points)
}

func TestParseOutline_Empty(t *testing.T) {
	out := parseOutline("")
	assert.Equal(t, "", out.Theme)
	assert.Empty(t, out.Points)
}

func TestParseMetadata_Fallback(t *testing.T) {
	md := "# Paper vs Digital\n\nI enjoy writing on paper.\n\n## Why\nbecause"
	meta := parseMetadata("I could not produce JSON", md)

	assert.Equal(t, "Paper vs Digital", meta.Title)
	assert.Equal(t, "I enjoy writing on paper.", meta.Summary)
	assert.Equal(t, 1, meta.ReadingTime)
	assert.Empty(t, meta.Slug)
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`4`, 4},
		{`4.6`, 5},
		{`"7"`, 7},
		{`"3 minutes"`, 3},
		{`"soon"`, 0},
		{`null`, 0},
		{``, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseMinutes(json.RawMessage(tt.raw)), "raw %s", tt.raw)
	}
}

func TestEstimateReadingTime(t *testing.T) {
	assert.Equal(t, 0, estimateReadingTime(""))
	assert.Equal(t, 1, estimateReadingTime("one two three"))

	words := make([]byte, 0, 401*2)
	for i := 0; i < 401; i++ {
		words = append(words, 'w', ' ')
	}
	assert.Equal(t, 3, estimateReadingTime(string(words)))
}

func TestDefaultDigest(t *testing.T) {
	assert.Equal(t, "a b c", defaultDigest("a\n b   c", 120))
	assert.Equal(t, "abc", defaultDigest("abcdef", 3))
}

func TestTruncateRunes_KeepsWholeRunes(t *testing.T) {
	assert.Equal(t, "深度", truncateRunes("深度工作", 2))
	assert.Equal(t, "héllo", truncateRunes("héllo", 5))
	assert.Equal(t, "", truncateRunes("", 3))

	digest := defaultDigest(strings.Repeat("笔记", 150), 200)
	assert.True(t, utf8.ValidString(digest))
	assert.Equal(t, 200, utf8.RuneCountInString(digest))
}

func TestMockMetadata_SummaryIsValidUTF8(t *testing.T) {
	post := "# 深度工作\n\n" + strings.Repeat("专注时间块让人更高效。", 40)
	var meta struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(mockMetadata("Post:\n"+post)), &meta))
	assert.Equal(t, "深度工作", meta.Title)
	assert.True(t, utf8.ValidString(meta.Summary))
	assert.Equal(t, 200, utf8.RuneCountInString(meta.Summary))
}
