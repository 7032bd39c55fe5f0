package parser

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dgallion1/docqa/internal/doctree"
)

// Parser converts structured document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// SupportedExtensions lists file extensions the text source can handle.
// Plain text is passed through; the rest are parsed and flattened.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
}

// ForFile returns the parser for a structured format. Plain text has no
// parser; see LoadBytes.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	default:
		return nil, eris.Errorf("parser: unsupported file extension %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
