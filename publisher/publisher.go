package publisher

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Store keeps uploaded photos and generated artifacts on local disk.
type Store struct {
	uploadDir string
	outputDir string
	verbose   bool
	logger    *log.Logger
}

// New creates a Store and makes sure both directories exist.
func New(uploadDir, outputDir string, verbose bool, logger *log.Logger) (*Store, error) {
	if uploadDir == "" || outputDir == "" {
		return nil, errors.New("upload and output directories are required")
	}
	if logger == nil {
		logger = log.Default()
	}
	for _, dir := range []string{uploadDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return &Store{
		uploadDir: uploadDir,
		outputDir: outputDir,
		verbose:   verbose,
		logger:    logger,
	}, nil
}

func (s *Store) infof(format string, args ...interface{}) {
	if !s.verbose {
		return
	}
	s.logger.Printf("[INFO] "+format, args...)
}

func (s *Store) UploadDir() string { return s.uploadDir }

func (s *Store) OutputDir() string { return s.outputDir }

// SaveUpload stores r under a fresh random name that keeps the extension of
// filename (".bin" when it has none) and returns the stored name.
func (s *Store) SaveUpload(filename string, r io.Reader) (string, error) {
	ext := filepath.Ext(filepath.Base(filename))
	if ext == "" || ext == "." {
		ext = ".bin"
	}
	name := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	path := filepath.Join(s.uploadDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload: %w", err)
	}
	s.infof("Saved upload %s (%d bytes)", name, n)
	return name, nil
}

// SaveOutput writes content to OUTPUT_DIR/subdir/filename, creating subdir
// as needed, and returns the written path.
func (s *Store) SaveOutput(filename, content, subdir string) (string, error) {
	path, err := s.outputPath(filename, subdir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	s.infof("Wrote %s", path)
	return path, nil
}

// ReadOutput reads back an artifact written by SaveOutput.
func (s *Store) ReadOutput(filename, subdir string) ([]byte, error) {
	path, err := s.outputPath(filename, subdir)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (s *Store) outputPath(filename, subdir string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || filename == ".." {
		return "", fmt.Errorf("invalid output file name %q", filename)
	}
	sub := filepath.Clean(subdir)
	if sub == "." {
		sub = ""
	}
	if filepath.IsAbs(sub) || sub == ".." || strings.HasPrefix(sub, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid output subdirectory %q", subdir)
	}
	return filepath.Join(s.outputDir, sub, filename), nil
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderHTML converts a markdown document to HTML.
func RenderHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
