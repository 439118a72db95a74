// Package cli provides output helpers for the bunsho command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/bunsho/internal/models"
)

// OutputFormat is the format for answer output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
}

// WriteAnswer writes answer to w in the given format.
func WriteAnswer(w io.Writer, answer *models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}
	writeAnswerText(w, answer)
	return nil
}

func writeAnswerText(w io.Writer, answer *models.Answer) {
	fmt.Fprintf(w, "\n%s\n\n", answer.Text)
	if len(answer.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "Sources (%s, %dms):\n", answer.Backend, answer.Duration.Milliseconds())
	for _, src := range answer.Sources {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%d] Score: %.4f", src.Rank, src.Score)
		if src.Chunk.Source != "" {
			fmt.Fprintf(w, " | %s", src.Chunk.Source)
		}
		fmt.Fprintf(w, " | chars %d-%d\n", src.Chunk.Start, src.Chunk.End)
		fmt.Fprintf(w, "%s\n", TruncateWords(strings.Join(strings.Fields(src.Chunk.Text), " "), 40))
	}
	fmt.Fprintln(w)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
