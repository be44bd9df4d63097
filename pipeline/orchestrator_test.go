package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = "# Notes\n\n## First\nx\n\n## Second\ny"

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func requireExport() ComponentValidator {
	return ComponentValidator{Rules: []ComponentRule{{
		Name:     "default-export",
		Contains: "export default",
		Message:  "Export a default React component.",
	}}}
}

type fixture struct {
	loader      *mockLoader
	transcriber *mockTranscriber
	producers   *mockProducers
	store       *mockStore
}

func newFixture() *fixture {
	return &fixture{
		loader:      &mockLoader{images: map[string]string{"notes.jpg": "aW1hZ2U="}},
		transcriber: &mockTranscriber{Text: "Machine Learning Basics\n- labeled data"},
		producers: &mockProducers{
			Outline:  Outline{Theme: "Machine Learning Basics", Points: []string{"labeled data"}},
			Markdown: validDoc,
			Meta: Metadata{
				Title:       "ML Basics",
				Summary:     "A primer.",
				Tags:        []string{"ml", "ML", " basics "},
				Slug:        "ml-basics",
				ReadingTime: 3,
			},
			Code: "export default function BlogPost() { return null }",
		},
		store: &mockStore{},
	}
}

func (f *fixture) orchestrator(t *testing.T, component ComponentValidator) *Orchestrator {
	t.Helper()
	o, err := New(Deps{
		Loader:      f.loader,
		Transcriber: f.transcriber,
		Producers:   f.producers,
		Store:       f.store,
		Document:    DocumentValidator{RequireTitle: true, RequireSections: true},
		Component:   component,
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return o
}

func countComponentOutcomes(logs []string) int {
	n := 0
	for _, l := range logs {
		if strings.HasPrefix(l, "React code is ") || strings.HasPrefix(l, "React revalidation ") {
			n++
		}
	}
	return n
}

func TestNew_RequiresCollaborators(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name string
		deps Deps
	}{
		{"no loader", Deps{Transcriber: f.transcriber, Producers: f.producers, Store: f.store}},
		{"no transcriber", Deps{Loader: f.loader, Producers: f.producers, Store: f.store}},
		{"no producers", Deps{Loader: f.loader, Transcriber: f.transcriber, Store: f.store}},
		{"no store", Deps{Loader: f.loader, Transcriber: f.transcriber, Producers: f.producers}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.deps)
			assert.Error(t, err)
		})
	}
}

func TestRun_SuccessPath(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(t, requireExport())

	s, err := o.Run(context.Background(), NewState("notes.jpg"))
	require.NoError(t, err)

	assert.True(t, s.Validated)
	assert.Equal(t, 0, s.RetryCount)
	assert.Equal(t, "Machine Learning Basics\n- labeled data", s.RawText)
	assert.Equal(t, "Machine Learning Basics", s.Theme)
	assert.Equal(t, []string{"labeled data"}, s.Outline)
	assert.Equal(t, validDoc, s.BlogMarkdown)
	assert.Equal(t, "ML Basics", s.Title)
	assert.Equal(t, []string{"ml", "basics"}, s.Tags)
	assert.Equal(t, 3, s.ReadingTime)

	assert.Equal(t, []string{"notes.jpg"}, f.loader.calls)
	assert.Equal(t, []string{"aW1hZ2U="}, f.transcriber.Images)
	assert.Equal(t, []string{"outline", "draft", "metadata", "component"}, f.producers.Calls)

	assert.Equal(t, 1, f.store.count(ArticleMarkdownFile))
	assert.Equal(t, 1, f.store.count(ArticleComponentFile))
	assert.Equal(t, 1, f.store.count(ArticleMetadataFile))
	for _, saved := range f.store.Saved {
		assert.Equal(t, ArticleDir, saved.Subdir)
	}

	assert.Equal(t, []string{
		"Converting image to raw text with OCR",
		"OCR completed: 38 characters",
		"Reasoning and figuring out the theme and outline",
		`Reasoning completed, theme: Machine Learning Basics, outline: ["labeled data"]`,
		"Generating blog post in markdown format",
		"Blog markdown is valid",
		"Generating blog metadata",
		"Metadata generated: ML Basics",
		"Generating react code from blog markdown",
		"React code is valid",
	}, s.Logs)
}

func TestRun_PersistsMetadataRecord(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(t, ComponentValidator{})

	_, err := o.Run(context.Background(), NewState("notes.jpg"))
	require.NoError(t, err)

	saved, ok := f.store.last(ArticleMetadataFile)
	require.True(t, ok)
	var record ArticleRecord
	require.NoError(t, json.Unmarshal([]byte(saved.Content), &record))
	assert.Equal(t, "ML Basics", record.Title)
	assert.Equal(t, "A primer.", record.Summary)
	assert.Equal(t, "ml-basics", record.Slug)
	assert.Equal(t, 3, record.ReadingTime)
	assert.True(t, fixedNow.Equal(record.CreatedAt))
	assert.Contains(t, saved.Content, `"created_at"`)
}

func TestRun_RetryExhaustion(t *testing.T) {
	f := newFixture()
	f.producers.Code = "const Broken = 1"
	f.producers.Revisions = []string{"still broken"}
	o := f.orchestrator(t, requireExport())

	s, err := o.Run(context.Background(), NewState("notes.jpg"))
	require.NoError(t, err)

	assert.False(t, s.Validated)
	assert.Equal(t, 3, s.RetryCount)
	assert.Equal(t, "still broken", s.ReactCode)
	assert.Equal(t, "Export a default React component.", s.Feedback)
	assert.Equal(t, 4, countComponentOutcomes(s.Logs))
	assert.Equal(t, 1, countOf(f.producers.Calls, "component"))
	assert.Equal(t, 3, countOf(f.producers.Calls, "revise"))
	assert.Equal(t, 0, f.store.count(ArticleComponentFile))
	assert.Equal(t, 0, f.store.count(ArticleMarkdownFile))

	assert.Contains(t, s.Logs, "React code is invalid: Export a default React component.")
	assert.Contains(t, s.Logs, "React revalidation failed (attempt 3): Export a default React component.")
	for _, fb := range f.producers.ReviseFeedback {
		assert.Equal(t, "Export a default React component.", fb)
	}
	assert.Equal(t, []string{"const Broken = 1", "still broken", "still broken"}, f.producers.ReviseInputs)
}

func TestRun_RevisionRecovers(t *testing.T) {
	f := newFixture()
	f.producers.Code = "const Broken = 1"
	f.producers.Revisions = []string{"still broken", "export default function Fixed() {}"}
	o := f.orchestrator(t, requireExport())

	s, err := o.Run(context.Background(), NewState("notes.jpg"))
	require.NoError(t, err)

	assert.True(t, s.Validated)
	assert.Equal(t, 2, s.RetryCount)
	assert.Empty(t, s.Feedback)
	assert.Equal(t, 3, countComponentOutcomes(s.Logs))
	assert.Equal(t, "React revalidation completed", s.Logs[len(s.Logs)-1])

	// The revision path persists the component only.
	assert.Equal(t, 1, f.store.count(ArticleComponentFile))
	assert.Equal(t, 0, f.store.count(ArticleMarkdownFile))
	assert.Equal(t, 0, f.store.count(ArticleMetadataFile))
	saved, _ := f.store.last(ArticleComponentFile)
	assert.Equal(t, "export default function Fixed() {}", saved.Content)
}

func TestRun_InvalidDocumentDoesNotGate(t *testing.T) {
	f := newFixture()
	f.producers.Markdown = "Body text with no heading"
	o := f.orchestrator(t, ComponentValidator{})

	s, err := o.Run(context.Background(), NewState("notes.jpg"))
	require.NoError(t, err)

	assert.Contains(t, s.Logs, "Blog markdown is invalid: "+msgMissingTitle+"\n"+msgMissingSections)
	// Metadata and UI code still run on the invalid draft.
	assert.Equal(t, []string{"outline", "draft", "metadata", "component"}, f.producers.Calls)
	assert.True(t, s.Validated)
	assert.Equal(t, 1, f.store.count(ArticleMarkdownFile))
	// The document diagnostic stays as the last failed validation's feedback.
	assert.Equal(t, msgMissingTitle+"\n"+msgMissingSections, s.Feedback)
}

func TestRun_MetadataDefaults(t *testing.T) {
	tests := []struct {
		name      string
		theme     string
		meta      Metadata
		wantTitle string
		wantSlug  string
		wantTime  int
	}{
		{"title falls back to theme", "Deep Work", Metadata{}, "Deep Work", "deep-work", 5},
		{"title falls back to untitled", "", Metadata{}, "Untitled", "untitled", 5},
		{"producer values kept", "Theme", Metadata{Title: "Own", Slug: "own-slug", ReadingTime: 9}, "Own", "own-slug", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.producers.Outline = Outline{Theme: tt.theme}
			f.producers.Meta = tt.meta
			o := f.orchestrator(t, ComponentValidator{})

			s, err := o.Run(context.Background(), NewState("notes.jpg"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, s.Title)
			assert.Equal(t, tt.wantSlug, s.Slug)
			assert.Equal(t, tt.wantTime, s.ReadingTime)
			assert.NotNil(t, s.Tags)
			assert.NotNil(t, s.Outline)
		})
	}
}

func TestRun_UsesInlineImage(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(t, ComponentValidator{})
	s := NewState("")
	s.ImageB64 = "aW5saW5l"

	_, err := o.Run(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, f.loader.calls)
	assert.Equal(t, []string{"aW5saW5l"}, f.transcriber.Images)
}

func TestRun_NoImage(t *testing.T) {
	f := newFixture()
	o := f.orchestrator(t, ComponentValidator{})

	s, err := o.Run(context.Background(), NewState(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr stage")
	assert.Empty(t, f.producers.Calls)
	assert.Equal(t, []string{"Converting image to raw text with OCR"}, s.Logs)
}

func TestRun_EmptyTranscriptionContinues(t *testing.T) {
	f := newFixture()
	f.transcriber.Text = ""
	o := f.orchestrator(t, ComponentValidator{})

	s, err := o.Run(context.Background(), NewState("notes.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "", s.RawText)
	assert.Contains(t, s.Logs, "OCR completed: 0 characters")
}

func TestRun_ProducerErrorAborts(t *testing.T) {
	boom := errors.New("backend unavailable")
	tests := []struct {
		failOn    string
		wantStage string
		wantCalls []string
	}{
		{"outline", "reason stage", []string{"outline"}},
		{"draft", "draft stage", []string{"outline", "draft"}},
		{"metadata", "metadata stage", []string{"outline", "draft", "metadata"}},
		{"component", "uicode stage", []string{"outline", "draft", "metadata", "component"}},
	}
	for _, tt := range tests {
		t.Run(tt.failOn, func(t *testing.T) {
			f := newFixture()
			f.producers.FailOn = tt.failOn
			f.producers.Err = boom
			o := f.orchestrator(t, ComponentValidator{})

			s, err := o.Run(context.Background(), NewState("notes.jpg"))
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), tt.wantStage)
			assert.Equal(t, tt.wantCalls, f.producers.Calls)
			assert.NotNil(t, s)
			assert.Empty(t, f.store.Saved)
		})
	}
}

func TestRun_RevisionErrorAborts(t *testing.T) {
	f := newFixture()
	f.producers.Code = "broken"
	f.producers.FailOn = "revise"
	f.producers.Err = errors.New("rate limited")
	o := f.orchestrator(t, requireExport())

	s, err := o.Run(context.Background(), NewState("notes.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revise stage")
	assert.Equal(t, 1, s.RetryCount)
}

func TestRun_StoreErrorAborts(t *testing.T) {
	f := newFixture()
	f.store.Err = errors.New("disk full")
	o := f.orchestrator(t, ComponentValidator{})

	_, err := o.Run(context.Background(), NewState("notes.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save markdown")
}

func TestRun_LogsOnlyGrow(t *testing.T) {
	f := newFixture()
	f.producers.Code = "broken"
	f.producers.Revisions = []string{"broken"}
	s := NewState("notes.jpg")
	var snapshots [][]string
	f.producers.OnCall = func(string) {
		snapshots = append(snapshots, append([]string(nil), s.Logs...))
	}
	o := f.orchestrator(t, requireExport())

	_, err := o.Run(context.Background(), s)
	require.NoError(t, err)

	prev := 0
	for _, snap := range snapshots {
		assert.GreaterOrEqual(t, len(snap), prev)
		prev = len(snap)
		assert.Equal(t, snap, s.Logs[:len(snap)])
	}
	assert.GreaterOrEqual(t, len(s.Logs), prev)
}

func TestRun_RetryCountBounded(t *testing.T) {
	for _, max := range []int{1, 2, 3, 5} {
		f := newFixture()
		f.producers.Code = "broken"
		o, err := New(Deps{
			Loader:      f.loader,
			Transcriber: f.transcriber,
			Producers:   f.producers,
			Store:       f.store,
			Component:   requireExport(),
			MaxRetries:  max,
		})
		require.NoError(t, err)

		s, err := o.Run(context.Background(), NewState("notes.jpg"))
		require.NoError(t, err)
		assert.Equal(t, max, s.RetryCount)
		assert.Equal(t, max+1, countComponentOutcomes(s.Logs))
	}
}

func TestShouldRevise(t *testing.T) {
	tests := []struct {
		validated bool
		retries   int
		want      bool
	}{
		{true, 0, false},
		{true, 2, false},
		{false, 0, true},
		{false, 2, true},
		{false, 3, false},
		{false, 4, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldRevise(tt.validated, tt.retries, DefaultMaxRetries),
			"validated=%v retries=%d", tt.validated, tt.retries)
	}
}

func TestAddLog_Appends(t *testing.T) {
	s := NewState("x")
	got := s.AddLog("one").AddLog("two")
	assert.Same(t, s, got)
	assert.Equal(t, []string{"one", "two"}, s.Logs)
}

func TestState_ResultNeverNull(t *testing.T) {
	s := &State{Theme: "t", Tags: []string{"go"}}
	r := s.Result()
	assert.Equal(t, []string{}, r.Outline)
	assert.Equal(t, []string{}, r.Logs)
	assert.Equal(t, []string{"go"}, r.Metadata.Tags)

	r.Metadata.Tags[0] = "changed"
	assert.Equal(t, "go", s.Tags[0])
}

func countOf(values []string, want string) int {
	n := 0
	for _, v := range values {
		if v == want {
			n++
		}
	}
	return n
}
