// Package models defines core data structures for documents, chunks, answers, and transcripts.
package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MediaType is the declared type of an uploaded document.
type MediaType string

const (
	// MediaTypeText is UTF-8 plain text.
	MediaTypeText MediaType = "txt"
	// MediaTypePDF is a PDF file.
	MediaTypePDF MediaType = "pdf"
)

// ParseMediaType normalizes a declared type string. Besides the canonical "txt" and "pdf"
// it accepts MIME types and file extensions; anything else fails with ErrUnsupportedFormat.
func ParseMediaType(s string) (MediaType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(v, ";"); i >= 0 {
		v = strings.TrimSpace(v[:i]) // "text/plain; charset=utf-8"
	}
	switch strings.TrimPrefix(v, ".") {
	case "txt", "text", "text/plain":
		return MediaTypeText, nil
	case "pdf", "application/pdf":
		return MediaTypePDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// MediaTypeFromFilename infers the media type from the file extension.
func MediaTypeFromFilename(name string) (MediaType, error) {
	ext := filepath.Ext(name)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnsupportedFormat, filepath.Base(name))
	}
	return ParseMediaType(ext)
}

// Document is an uploaded document. It only lives for the duration of one indexing call.
type Document struct {
	Name      string    `json:"name"`
	MediaType MediaType `json:"media_type"`
	Content   []byte    `json:"-"`
}

// Chunk is a contiguous window of a document's extracted text.
// Start and End are rune offsets into the extracted text, End exclusive.
type Chunk struct {
	ID     string `json:"id"`
	Seq    int    `json:"seq"`
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
}
