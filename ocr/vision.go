package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	visionSystemPrompt = "You are an OCR engine. Extract text faithfully."
	visionUserPrompt   = "Extract all readable text from this photo."
)

// VisionSettings configures the hosted transcriber.
type VisionSettings struct {
	Model   string
	APIKey  string
	BaseURL string
	// Options are appended after the key and base URL.
	Options []option.RequestOption
}

// Vision transcribes images with an OpenAI compatible multimodal chat model.
type Vision struct {
	model string
	opts  []option.RequestOption
}

func NewVision(s VisionSettings) (*Vision, error) {
	if s.APIKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY")
	}
	if s.Model == "" {
		return nil, errors.New("vision model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	opts = append(opts, s.Options...)
	return &Vision{model: s.Model, opts: opts}, nil
}

func (v *Vision) Transcribe(ctx context.Context, imageB64 string) (string, error) {
	data, err := decodeImage(imageB64)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("data:%s;base64,%s", sniffMime(data), imageB64)

	client := openai.NewClient(v.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(v.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(visionSystemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(visionUserPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}),
			}),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("vision: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("vision: empty choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// sniffMime recognises the formats vision models accept and defaults to JPEG.
func sniffMime(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("GIF")):
		return "image/gif"
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && string(data[8:12]) == "WEBP":
		return "image/webp"
	}
	return "image/jpeg"
}
