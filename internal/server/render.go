package server

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/hyperjump/bunsho/internal/models"
)

// markdown renders assistant turns. Raw HTML in answers is not passed through.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(goldhtml.WithHardWraps()),
)

// renderTranscript returns a standalone HTML page. User turns are escaped verbatim and
// assistant turns are rendered from Markdown.
func renderTranscript(sessionID string, turns []models.Turn) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>Transcript %s</title></head><body>\n",
		html.EscapeString(sessionID))
	for _, t := range turns {
		fmt.Fprintf(&buf, "<div class=\"turn %s\">\n", t.Role)
		if t.Role == models.RoleAssistant {
			if err := markdown.Convert([]byte(t.Content), &buf); err != nil {
				return nil, fmt.Errorf("render turn: %w", err)
			}
		} else {
			fmt.Fprintf(&buf, "<p>%s</p>\n", html.EscapeString(t.Content))
		}
		buf.WriteString("</div>\n")
	}
	buf.WriteString("</body></html>\n")
	return buf.Bytes(), nil
}
