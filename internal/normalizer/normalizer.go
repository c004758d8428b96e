// Package normalizer extracts plain text from uploaded files.
package normalizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

var (
	// ErrUnsupportedFormat is returned for file extensions without a loader.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnreadable is returned when a supported file cannot be parsed.
	ErrUnreadable = errors.New("unreadable file")
)

// Normalizer converts a stored file into plain text
type Normalizer interface {
	Normalize(ctx context.Context, path string) (string, error)
}

type loaderFunc func(f *os.File, size int64) documentloaders.Loader

// FileNormalizer picks a langchaingo document loader by file extension
type FileNormalizer struct {
	loaders map[string]loaderFunc
}

// New creates a FileNormalizer for .txt, .md, .html, .htm, .pdf, .docx and
// .csv files.
func New() *FileNormalizer {
	text := func(f *os.File, _ int64) documentloaders.Loader { return documentloaders.NewText(f) }
	html := func(f *os.File, _ int64) documentloaders.Loader { return documentloaders.NewHTML(f) }
	return &FileNormalizer{
		loaders: map[string]loaderFunc{
			".txt":  text,
			".md":   text,
			".html": html,
			".htm":  html,
			".pdf": func(f *os.File, size int64) documentloaders.Loader {
				return documentloaders.NewPDF(f, size)
			},
			".docx": func(f *os.File, size int64) documentloaders.Loader {
				return NewDOCX(f, size)
			},
			".csv": func(f *os.File, _ int64) documentloaders.Loader { return documentloaders.NewCSV(f) },
		},
	}
}

// Supported reports whether path has an extension with a loader.
func (n *FileNormalizer) Supported(path string) bool {
	_, ok := n.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Normalize reads path and returns its text. A missing file yields an error
// matching os.ErrNotExist.
func (n *FileNormalizer) Normalize(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	newLoader, ok := n.loaders[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	docs, err := newLoader(f, info.Size()).Load(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("%w: %s: truncated", ErrUnreadable, path)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	return joinPages(docs), nil
}

func joinPages(docs []schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if text := strings.TrimSpace(d.PageContent); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
