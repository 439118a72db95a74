// Package extract turns uploaded document bytes into plain text.
package extract

import (
	"fmt"
	"os"

	"github.com/hyperjump/bunsho/internal/models"
	"go.uber.org/zap"
)

// Extractor extracts plain text from plain-text and PDF documents.
type Extractor struct {
	logger *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithLogger sets the logger used to report skipped PDF pages.
func WithLogger(l *zap.Logger) ExtractorOption {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its text, inferring the media type from the
// file extension.
func (e *Extractor) Extract(path string) (string, error) {
	mt, err := models.MediaTypeFromFilename(path)
	if err != nil {
		return "", err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read file: %w", models.ErrExtractionFailed, err)
	}
	return e.ExtractBytes(content, mt)
}

// ExtractDocument extracts the text of an uploaded document.
func (e *Extractor) ExtractDocument(doc *models.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("%w: nil document", models.ErrExtractionFailed)
	}
	return e.ExtractBytes(doc.Content, doc.MediaType)
}

// ExtractBytes extracts text from content of the given media type.
// Unknown media types fail with models.ErrUnsupportedFormat; unreadable content fails with
// models.ErrExtractionFailed wrapping the cause.
func (e *Extractor) ExtractBytes(content []byte, mediaType models.MediaType) (string, error) {
	switch mediaType {
	case models.MediaTypeText:
		return extractPlain(content), nil
	case models.MediaTypePDF:
		return e.extractPDF(content)
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, mediaType)
	}
}
