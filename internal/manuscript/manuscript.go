// Package manuscript imports manuscript files (plain text, Markdown, HTML,
// DOCX and PDF) into a section tree and flattens them into prose.
package manuscript

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/oogwaaay/novel-ai-platform-sub002/internal/compress"
)

// Manuscript is the root of an imported file.
type Manuscript struct {
	Title    string     // from document metadata or the filename
	Sections []*Section // top-level sections
}

// Section is a chapter, scene or page. Sections nest by heading level.
type Section struct {
	Title    string // heading, empty for untitled prose
	Text     string // paragraphs separated by blank lines
	Page     int    // source page, 0 if not applicable
	Children []*Section
}

// Body flattens the manuscript into plain prose. Each heading becomes its own
// paragraph and paragraphs are separated by a blank line.
func (m *Manuscript) Body() string {
	var paras []string
	var walk func([]*Section)
	walk = func(sections []*Section) {
		for _, s := range sections {
			if t := strings.TrimSpace(s.Title); t != "" {
				paras = append(paras, t)
			}
			if t := strings.TrimSpace(s.Text); t != "" {
				paras = append(paras, t)
			}
			walk(s.Children)
		}
	}
	walk(m.Sections)
	return strings.Join(paras, "\n\n")
}

// WordCount counts the words in Body.
func (m *Manuscript) WordCount() int {
	return compress.CountWords(m.Body())
}

// Parser converts raw file bytes into a Manuscript.
type Parser interface {
	Parse(r io.Reader, filename string) (*Manuscript, error)
}

// Option tunes the parser returned by ForFile.
type Option func(*options)

type options struct {
	pdftotext bool
}

// WithPdftotext enables the pdftotext fallback for PDFs the Go reader
// cannot handle.
func WithPdftotext(enabled bool) Option {
	return func(o *options) { o.pdftotext = enabled }
}

var supported = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
	".pdf":      true,
}

// ForFile returns the parser for a filename's extension.
func ForFile(filename string, opts ...Option) (Parser, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: o.pdftotext}, nil
	default:
		return nil, fmt.Errorf("unsupported manuscript format: %q", ext)
	}
}

// IsSupported reports whether filename has an importable extension.
func IsSupported(filename string) bool {
	return supported[strings.ToLower(filepath.Ext(filename))]
}

// titleFromFilename strips directories and the extension.
func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
