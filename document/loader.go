package document

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/docchat/core"
)

// Page is one page of extracted text. Plain-text formats without page
// structure are split on form feeds; a file without any yields one page.
type Page struct {
	Number int
	Text   string
}

// Loader extracts page-level text from a document on disk.
// Implementations must be thread-safe for concurrent use.
type Loader interface {
	// Load reads and parses the document at path.
	// Returns core.ErrLoad on corrupt or unsupported input.
	Load(ctx context.Context, path string) ([]Page, error)
}

// FileLoader loads PDF, plain-text and markdown documents from the local
// filesystem. Layout fidelity is not preserved; only the text matters.
type FileLoader struct {
	logger *slog.Logger
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader creates a loader for local files.
func NewFileLoader() *FileLoader {
	return &FileLoader{
		logger: slog.Default().With("component", "loader"),
	}
}

// Load extracts per-page text from the document at path.
func (l *FileLoader) Load(ctx context.Context, path string) ([]Page, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return l.loadPDF(path)
	case ".txt", ".md", ".text", ".markdown":
		return l.loadText(path)
	default:
		return nil, fmt.Errorf("%w: unsupported document type %q", core.ErrLoad, filepath.Ext(path))
	}
}

func (l *FileLoader) loadPDF(path string) ([]Page, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrLoad, path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", core.ErrLoad, path, i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s contains no extractable text", core.ErrLoad, path)
	}

	l.logger.Debug("loaded pdf", "path", path, "pages", len(pages))
	return pages, nil
}

func (l *FileLoader) loadText(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrLoad, path, err)
	}

	var pages []Page
	for i, part := range strings.Split(string(data), "\f") {
		text := strings.TrimSpace(part)
		if text == "" {
			continue
		}
		pages = append(pages, Page{Number: i + 1, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", core.ErrLoad, path)
	}

	l.logger.Debug("loaded text file", "path", path, "pages", len(pages))
	return pages, nil
}
