// Package extract pulls plain paragraph text out of structured documents.
// It supports Word (.docx) archives and HTML files; both produce the same
// shape of output: non-blank paragraphs joined by single newlines.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Error represents a failure to open or parse a source document.
type Error struct {
	Path    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed for %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed for %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Extractor reads all paragraph-level text from a document.
type Extractor interface {
	Extract(path string) (string, error)
}

// DocumentExtractor dispatches extraction by file extension.
type DocumentExtractor struct{}

// NewExtractor returns an extractor covering the supported input formats.
func NewExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

// Extract reads every paragraph from the document at path, drops paragraphs
// that are empty after trimming, and joins the rest with single newlines.
// A document with no surviving paragraphs is an error: the pipeline has
// nothing to summarize, so it fails here rather than sending an empty
// prompt downstream.
func (x *DocumentExtractor) Extract(path string) (string, error) {
	var (
		paragraphs []string
		err        error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".docx":
		paragraphs, err = extractDocx(path)
	case ".html", ".htm":
		paragraphs, err = extractHTML(path)
	default:
		return "", &Error{Path: path, Message: fmt.Sprintf("unsupported document format %q", ext)}
	}
	if err != nil {
		return "", err
	}

	var kept []string
	for _, p := range paragraphs {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return "", &Error{Path: path, Message: "document contains no extractable text"}
	}

	return strings.Join(kept, "\n"), nil
}

// SupportedExtensions lists the file extensions Extract accepts.
func SupportedExtensions() []string {
	return []string{".docx", ".html", ".htm"}
}
