package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/otiai10/gosseract/v2"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Tesseract transcribes images locally with libtesseract.
type Tesseract struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

// NewTesseract constructs a Tesseract engine. No languages means tesseract's default.
func NewTesseract(languages ...string) *Tesseract {
	return &Tesseract{
		languages:     append([]string(nil), languages...),
		clientFactory: gosseract.NewClient,
	}
}

func (t *Tesseract) Transcribe(ctx context.Context, imageB64 string) (string, error) {
	data, err := decodeImage(imageB64)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	gray, err := grayscale(data)
	if err != nil {
		return "", err
	}

	c := t.clientFactory()
	defer c.Close()
	if len(t.languages) > 0 {
		if err := c.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(gray); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// grayscale re-encodes the image as 8-bit gray PNG, which tesseract reads best.
func grayscale(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode image: %w", err))
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode gray image: %w", err)
	}
	return buf.Bytes(), nil
}
