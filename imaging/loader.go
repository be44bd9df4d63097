// Package imaging prepares uploaded photos for transcription.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxSize = 1024
	DefaultQuality = 85
)

// Loader reads stored images and shrinks them before they are sent to a
// transcriber. Smaller images mean fewer vision tokens.
type Loader struct {
	UploadDir string
	// MaxSize bounds both width and height; aspect ratio is kept.
	MaxSize int
	Quality int
	Logger  *log.Logger
	// AllowAny lets Resolve accept absolute paths and paths starting with
	// "./". Set it only for references typed by a local user.
	AllowAny bool
}

// Base64 returns the compressed image behind ref, base64 encoded. If the
// image cannot be decoded or re-encoded, the original bytes are returned.
func (l Loader) Base64(ref string) (string, error) {
	path, err := l.Resolve(ref)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	out, err := l.compress(data)
	if err != nil {
		l.logf("[imaging] compression failed, using original: %v", err)
		return base64.StdEncoding.EncodeToString(data), nil
	}
	l.logf("[imaging] image compressed: %d bytes -> %d bytes", len(data), len(out))
	return base64.StdEncoding.EncodeToString(out), nil
}

// Resolve maps ref to a file path. References name a file in the upload
// directory and may not escape it. With AllowAny, absolute paths and paths
// starting with "./" are used as given.
func (l Loader) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", errors.New("empty image reference")
	}
	if l.AllowAny && (filepath.IsAbs(ref) || strings.HasPrefix(ref, "./")) {
		return ref, nil
	}
	if !filepath.IsLocal(ref) {
		return "", fmt.Errorf("image reference %q escapes the upload directory", ref)
	}
	return filepath.Join(l.UploadDir, filepath.Clean(ref)), nil
}

func (l Loader) compress(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), l.maxSize())
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha; transparent areas become white.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: l.quality()}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// fit scales w x h down so neither side exceeds limit. Images already within
// bounds are left alone.
func fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}

func (l Loader) maxSize() int {
	if l.MaxSize <= 0 {
		return DefaultMaxSize
	}
	return l.MaxSize
}

func (l Loader) quality() int {
	if l.Quality < 1 || l.Quality > 100 {
		return DefaultQuality
	}
	return l.Quality
}

func (l Loader) logf(format string, args ...interface{}) {
	if l.Logger != nil {
		l.Logger.Printf(format, args...)
	}
}
