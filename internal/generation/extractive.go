package generation

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/hyperjump/bunsho/pkg/utils"
)

// NotAvailable is the extractive backend's answer when the context does not help.
const NotAvailable = "The information is not available in the document."

var entryLabel = regexp.MustCompile(`^\[\d+\]( .*)?$`)

// ExtractiveBackend answers offline by quoting the context sentence that shares the most
// distinct terms with the question.
type ExtractiveBackend struct{}

// NewExtractiveBackend returns the offline backend.
func NewExtractiveBackend() *ExtractiveBackend {
	return &ExtractiveBackend{}
}

// Name returns "extractive".
func (*ExtractiveBackend) Name() string { return "extractive" }

// Generate returns the best sentence, the earliest on ties, or NotAvailable when no
// sentence contains a question term.
func (*ExtractiveBackend) Generate(ctx context.Context, _, passages, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	want := utils.TermSet(question)
	best, bestScore := "", 0
	for _, s := range sentences(passages) {
		score := 0
		for term := range utils.TermSet(s) {
			if _, ok := want[term]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = s, score
		}
	}
	if bestScore == 0 {
		return NotAvailable, nil
	}
	return best, nil
}

// sentences splits assembled context into sentences, dropping entry labels. A sentence
// ends at a line break or at . ! ? followed by whitespace or the end of the text.
func sentences(passages string) []string {
	var out []string
	for _, line := range strings.Split(passages, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || entryLabel.MatchString(line) {
			continue
		}
		runes := []rune(line)
		start := 0
		for i, r := range runes {
			if r != '.' && r != '!' && r != '?' {
				continue
			}
			if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
				continue
			}
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}
