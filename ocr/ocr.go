// Package ocr turns photographed notes into text.
//
// Two engines are available: Vision calls an OpenAI compatible chat model with
// the image attached, Tesseract runs locally through gosseract. New picks one
// from the configuration and wraps it in Retrying.
package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"

	"github.com/cenkalti/backoff/v4"

	"notes2blog/config"
)

// Transcriber turns a base64 encoded image into text.
type Transcriber interface {
	Transcribe(ctx context.Context, imageB64 string) (string, error)
}

// New builds the transcriber selected by cfg. The hosted engine is used when
// vision is enabled and an API key is present; otherwise tesseract runs locally.
func New(cfg config.Config, logger *log.Logger) (*Retrying, error) {
	var engine Transcriber
	if cfg.UseVision && cfg.LLM.APIKey != "" {
		v, err := NewVision(VisionSettings{
			Model:   cfg.LLM.VisionModel,
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		engine = v
	} else {
		engine = NewTesseract(cfg.Languages()...)
	}
	return NewRetrying(engine, logger), nil
}

// Name reports which engine a transcriber runs, for status output.
func Name(t Transcriber) string {
	switch e := t.(type) {
	case *Retrying:
		return Name(e.next)
	case *Vision:
		return "vision"
	case *Tesseract:
		return "tesseract"
	}
	return "custom"
}

// decodeImage errors are permanent; retrying the same payload cannot help.
func decodeImage(imageB64 string) ([]byte, error) {
	if imageB64 == "" {
		return nil, backoff.Permanent(errors.New("empty image"))
	}
	data, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode image: %w", err))
	}
	return data, nil
}
