package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

// Stage names one state of the run state machine.
type Stage string

const (
	StageOCR      Stage = "ocr"
	StageReason   Stage = "reason"
	StageDraft    Stage = "draft"
	StageMetadata Stage = "metadata"
	StageUICode   Stage = "uicode"
	StageRevise   Stage = "revise"
	StageDone     Stage = "done"
)

const (
	// DefaultMaxRetries is the revision budget of one run.
	DefaultMaxRetries = 3
	// ArticleDir is the output subdirectory that receives published artifacts.
	ArticleDir = "article"

	ArticleMarkdownFile  = "Article.md"
	ArticleComponentFile = "Article.tsx"
	ArticleMetadataFile  = "metadata.json"
)

// ImageLoader resolves a stored image reference to base64 encoded bytes.
type ImageLoader interface {
	Base64(ref string) (string, error)
}

// Transcriber turns a base64 encoded image into text.
type Transcriber interface {
	Transcribe(ctx context.Context, imageB64 string) (string, error)
}

// Producers are the generative steps that follow transcription.
type Producers interface {
	ThemeOutline(ctx context.Context, rawText string) (Outline, error)
	Draft(ctx context.Context, rawText, theme string, outline []string) (string, error)
	Metadata(ctx context.Context, markdown, theme string) (Metadata, error)
	Component(ctx context.Context, markdown string) (string, error)
	Revise(ctx context.Context, feedback, component string) (string, error)
}

// Store persists output artifacts and returns where they were written.
type Store interface {
	SaveOutput(filename, content, subdir string) (string, error)
}

// Deps wires the collaborators of an Orchestrator.
type Deps struct {
	Loader      ImageLoader
	Transcriber Transcriber
	Producers   Producers
	Store       Store

	Document  DocumentValidator
	Component ComponentValidator

	// MaxRetries caps revision attempts; zero means DefaultMaxRetries.
	MaxRetries int
	Logger     *log.Logger
	Verbose    bool
	// Now stamps the persisted metadata; defaults to time.Now.
	Now func() time.Time
}

// Orchestrator drives a run through its stages. It keeps no per-run state,
// so a single Orchestrator may serve concurrent runs.
type Orchestrator struct {
	d Deps
}

// New validates deps and fills in defaults.
func New(d Deps) (*Orchestrator, error) {
	switch {
	case d.Loader == nil:
		return nil, errors.New("image loader is required")
	case d.Transcriber == nil:
		return nil, errors.New("transcriber is required")
	case d.Producers == nil:
		return nil, errors.New("producers are required")
	case d.Store == nil:
		return nil, errors.New("store is required")
	}
	if d.MaxRetries <= 0 {
		d.MaxRetries = DefaultMaxRetries
	}
	if d.Logger == nil {
		d.Logger = log.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Orchestrator{d: d}, nil
}

// Run executes every stage against s and returns it. On error the partially
// filled state is returned along with an error naming the failed stage.
func (o *Orchestrator) Run(ctx context.Context, s *State) (*State, error) {
	if s == nil {
		return nil, errors.New("state is required")
	}
	stage := StageOCR
	for stage != StageDone {
		next, err := o.step(ctx, stage, s)
		if err != nil {
			return s, fmt.Errorf("%s stage: %w", stage, err)
		}
		stage = next
	}
	return s, nil
}

func (o *Orchestrator) step(ctx context.Context, stage Stage, s *State) (Stage, error) {
	switch stage {
	case StageOCR:
		return StageReason, o.transcribe(ctx, s)
	case StageReason:
		return StageDraft, o.outline(ctx, s)
	case StageDraft:
		return StageMetadata, o.draft(ctx, s)
	case StageMetadata:
		return StageUICode, o.metadata(ctx, s)
	case StageUICode:
		if err := o.component(ctx, s); err != nil {
			return StageDone, err
		}
		return o.route(s), nil
	case StageRevise:
		if err := o.revise(ctx, s); err != nil {
			return StageDone, err
		}
		return o.route(s), nil
	}
	return StageDone, fmt.Errorf("unknown stage %q", stage)
}

// route is the conditional edge leaving uicode and revise.
func (o *Orchestrator) route(s *State) Stage {
	if shouldRevise(s.Validated, s.RetryCount, o.d.MaxRetries) {
		return StageRevise
	}
	return StageDone
}

func shouldRevise(validated bool, retryCount, maxRetries int) bool {
	return !validated && retryCount < maxRetries
}

func (o *Orchestrator) note(s *State, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.AddLog(msg)
	if o.d.Verbose {
		o.d.Logger.Printf("[pipeline] %s", msg)
	}
}

func (o *Orchestrator) transcribe(ctx context.Context, s *State) error {
	o.note(s, "Converting image to raw text with OCR")
	if s.ImageB64 == "" {
		if s.ImagePath == "" {
			return errors.New("no image path or inline image data")
		}
		b64, err := o.d.Loader.Base64(s.ImagePath)
		if err != nil {
			return fmt.Errorf("load image %s: %w", s.ImagePath, err)
		}
		s.ImageB64 = b64
	}
	text, err := o.d.Transcriber.Transcribe(ctx, s.ImageB64)
	if err != nil {
		return err
	}
	s.RawText = text
	o.note(s, "OCR completed: %d characters", len([]rune(s.RawText)))
	return nil
}

func (o *Orchestrator) outline(ctx context.Context, s *State) error {
	o.note(s, "Reasoning and figuring out the theme and outline")
	out, err := o.d.Producers.ThemeOutline(ctx, s.RawText)
	if err != nil {
		return err
	}
	s.Theme = out.Theme
	s.Outline = out.Points
	if s.Outline == nil {
		s.Outline = []string{}
	}
	o.note(s, "Reasoning completed, theme: %s, outline: %q", s.Theme, s.Outline)
	return nil
}

// draft records document validation but never gates later stages on it.
func (o *Orchestrator) draft(ctx context.Context, s *State) error {
	o.note(s, "Generating blog post in markdown format")
	md, err := o.d.Producers.Draft(ctx, s.RawText, s.Theme, s.Outline)
	if err != nil {
		return err
	}
	s.BlogMarkdown = md
	ok, feedback := o.d.Document.Validate(s.BlogMarkdown)
	s.Validated = ok
	if !ok {
		s.Feedback = feedback
		o.note(s, "Blog markdown is invalid: %s", feedback)
		return nil
	}
	o.note(s, "Blog markdown is valid")
	return nil
}

func (o *Orchestrator) metadata(ctx context.Context, s *State) error {
	o.note(s, "Generating blog metadata")
	meta, err := o.d.Producers.Metadata(ctx, s.BlogMarkdown, s.Theme)
	if err != nil {
		return err
	}
	meta = normalizeMetadata(meta, s.Theme)
	s.Title = meta.Title
	s.Summary = meta.Summary
	s.Tags = meta.Tags
	s.Slug = meta.Slug
	s.ReadingTime = meta.ReadingTime
	o.note(s, "Metadata generated: %s", s.Title)
	return nil
}

func (o *Orchestrator) component(ctx context.Context, s *State) error {
	o.note(s, "Generating react code from blog markdown")
	code, err := o.d.Producers.Component(ctx, s.BlogMarkdown)
	if err != nil {
		return err
	}
	s.ReactCode = code
	ok, feedback := o.d.Component.Validate(s.ReactCode)
	s.Validated = ok
	if !ok {
		s.Feedback = feedback
		o.note(s, "React code is invalid: %s", feedback)
		return nil
	}
	if err := o.publish(s); err != nil {
		return err
	}
	o.note(s, "React code is valid")
	return nil
}

func (o *Orchestrator) revise(ctx context.Context, s *State) error {
	o.note(s, "Improving from feedback")
	s.RetryCount++
	feedback := s.Feedback
	s.Feedback = ""
	code, err := o.d.Producers.Revise(ctx, feedback, s.ReactCode)
	if err != nil {
		return err
	}
	s.ReactCode = code
	ok, diag := o.d.Component.Validate(s.ReactCode)
	s.Validated = ok
	if !ok {
		s.Feedback = diag
		o.note(s, "React revalidation failed (attempt %d): %s", s.RetryCount, diag)
		return nil
	}
	if _, err := o.d.Store.SaveOutput(ArticleComponentFile, s.ReactCode, ArticleDir); err != nil {
		return fmt.Errorf("save component: %w", err)
	}
	o.note(s, "React revalidation completed")
	return nil
}

func (o *Orchestrator) publish(s *State) error {
	if _, err := o.d.Store.SaveOutput(ArticleMarkdownFile, s.BlogMarkdown, ArticleDir); err != nil {
		return fmt.Errorf("save markdown: %w", err)
	}
	if _, err := o.d.Store.SaveOutput(ArticleComponentFile, s.ReactCode, ArticleDir); err != nil {
		return fmt.Errorf("save component: %w", err)
	}
	record := ArticleRecord{Metadata: s.Metadata(), CreatedAt: o.d.Now()}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if _, err := o.d.Store.SaveOutput(ArticleMetadataFile, string(data), ArticleDir); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}
