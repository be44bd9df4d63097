package generator

import (
	"context"
	"errors"
	"fmt"

	"notes2blog/pipeline"
)

// Agent turns each generation step into one LLM call and tidies the reply.
// It satisfies pipeline.Producers.
type Agent struct {
	llm LLMClient
}

func NewAgent(llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm}, nil
}

func (a *Agent) complete(ctx context.Context, prompt Prompt) (string, error) {
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", prompt.Kind, err)
	}
	return raw, nil
}

// ThemeOutline extracts the topic and key points of a transcript.
func (a *Agent) ThemeOutline(ctx context.Context, rawText string) (pipeline.Outline, error) {
	raw, err := a.complete(ctx, BuildOutlinePrompt(rawText))
	if err != nil {
		return pipeline.Outline{}, err
	}
	return parseOutline(raw), nil
}

// Draft writes the blog post.
func (a *Agent) Draft(ctx context.Context, rawText, theme string, outline []string) (string, error) {
	raw, err := a.complete(ctx, BuildDraftPrompt(rawText, theme, outline))
	if err != nil {
		return "", err
	}
	return cleanMarkdown(raw), nil
}

// Metadata derives title, summary, tags, slug and reading time from the post.
func (a *Agent) Metadata(ctx context.Context, markdown, theme string) (pipeline.Metadata, error) {
	raw, err := a.complete(ctx, BuildMetadataPrompt(markdown, theme))
	if err != nil {
		return pipeline.Metadata{}, err
	}
	return parseMetadata(raw, markdown), nil
}

// Component generates the React component for the post.
func (a *Agent) Component(ctx context.Context, markdown string) (string, error) {
	raw, err := a.complete(ctx, BuildComponentPrompt(markdown))
	if err != nil {
		return "", err
	}
	return stripCodeFence(raw), nil
}

// Revise rewrites a component to address validator feedback.
func (a *Agent) Revise(ctx context.Context, feedback, component string) (string, error) {
	raw, err := a.complete(ctx, BuildRevisionPrompt(feedback, component))
	if err != nil {
		return "", err
	}
	return stripCodeFence(raw), nil
}
