package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxQuestionLength caps a question in characters.
const MaxQuestionLength = 4000

// NormalizeQuestion trims surrounding whitespace and rejects blank or oversized questions.
func NormalizeQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrEmptyQuestion
	}
	if n := utf8.RuneCountInString(q); n > MaxQuestionLength {
		return "", fmt.Errorf("question too long: %d characters (max %d)", n, MaxQuestionLength)
	}
	return q, nil
}
