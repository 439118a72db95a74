package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/hyperjump/bunsho/internal/models"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

func (e *Extractor) extractPDF(content []byte) (string, error) {
	r, err := openPDF(content)
	if err != nil {
		return "", fmt.Errorf("%w: open PDF: %w", models.ErrExtractionFailed, err)
	}
	text := joinPages(r.NumPage(), func(n int) (string, error) {
		return pageText(r, n)
	}, func(n int, err error) {
		e.logger.Warn("pdf page skipped", zap.Int("page", n), zap.Error(err))
	})
	return text, nil
}

// openPDF wraps pdf.NewReader, which panics on some malformed cross-reference tables.
func openPDF(content []byte) (r *pdf.Reader, err error) {
	defer func() {
		if p := recover(); p != nil {
			r, err = nil, fmt.Errorf("malformed PDF: %v", p)
		}
	}()
	return pdf.NewReader(bytes.NewReader(content), int64(len(content)))
}

// pageText extracts the text of 1-based page n.
func pageText(r *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("page %d: %v", n, p)
		}
	}()
	page := r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// joinPages concatenates pages 1..numPages in order, separated by newlines. A page whose
// extraction fails contributes an empty string and is reported through onErr. Pages
// without text add no separator, so a PDF with no text at all yields "".
func joinPages(numPages int, extract func(n int) (string, error), onErr func(n int, err error)) string {
	var b strings.Builder
	for n := 1; n <= numPages; n++ {
		text, err := extract(n)
		if err != nil {
			if onErr != nil {
				onErr(n, err)
			}
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(text)
	}
	return b.String()
}
