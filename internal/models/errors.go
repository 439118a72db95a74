package models

import "errors"

// Failure taxonomy. Every error returned by the pipeline wraps exactly one of these,
// usually together with the underlying cause ("%w: %w").
var (
	ErrUnsupportedFormat           = errors.New("unsupported format")
	ErrExtractionFailed            = errors.New("extraction failed")
	ErrInvalidChunkConfig          = errors.New("invalid chunk config")
	ErrEmptyDocument               = errors.New("document has no content")
	ErrDimensionMismatch           = errors.New("dimension mismatch")
	ErrEmbeddingBackendUnavailable = errors.New("embedding backend unavailable")
	ErrGenerationFailed            = errors.New("generation failed")
	ErrNoBackendAvailable          = errors.New("no backend available")

	// ErrNotAnalyzed is returned when a question is asked before any document was analyzed.
	ErrNotAnalyzed = errors.New("no document has been analyzed")
	// ErrEmptyQuestion is returned for blank questions.
	ErrEmptyQuestion = errors.New("question cannot be empty")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrUnsupportedFormat, "unsupported_format"},
	{ErrExtractionFailed, "extraction_failed"},
	{ErrInvalidChunkConfig, "invalid_chunk_config"},
	{ErrEmptyDocument, "empty_document"},
	{ErrDimensionMismatch, "dimension_mismatch"},
	{ErrEmbeddingBackendUnavailable, "embedding_backend_unavailable"},
	{ErrGenerationFailed, "generation_failed"},
	{ErrNoBackendAvailable, "no_backend_available"},
	{ErrNotAnalyzed, "not_analyzed"},
	{ErrEmptyQuestion, "empty_question"},
}

// ErrorCode returns a stable snake_case code for err, or "internal" when err is not part
// of the taxonomy. The first matching sentinel wins.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
