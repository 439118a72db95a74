// Package generation produces answers from a question and its retrieved context.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/bunsho/internal/models"
)

// SystemInstruction is sent with every question. It is fixed so that every backend is
// held to the same grounding contract.
const SystemInstruction = "You are an assistant that answers questions about a document. " +
	"Answer using only the information in the context below. " +
	"If the context does not contain the answer, say plainly that the information is not available in the document. " +
	"Keep the answer concise."

// NoContext replaces the context block when retrieval returned nothing.
const NoContext = "(no relevant passages were found in the document)"

// Backend is a text generation service.
type Backend interface {
	Name() string
	Generate(ctx context.Context, system, passages, question string) (string, error)
}

// SystemMessage renders the system message: instruction followed by the context block.
func SystemMessage(system, passages string) string {
	if strings.TrimSpace(passages) == "" {
		passages = NoContext
	}
	return system + "\n\nContext:\n" + passages
}

// UserMessage renders the user message for question.
func UserMessage(question string) string {
	return "Question: " + question
}

// Generator asks a Backend for grounded answers.
type Generator struct {
	backend Backend
	logger  *zap.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithLogger sets a logger for generation timing.
func WithLogger(l *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator wraps backend.
func NewGenerator(backend Backend, opts ...GeneratorOption) *Generator {
	g := &Generator{backend: backend, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Backend returns the name of the wrapped backend.
func (g *Generator) Backend() string {
	return g.backend.Name()
}

// Generate answers question from the assembled passages with the fixed system instruction. Any backend
// failure is returned as models.ErrGenerationFailed wrapping the cause; nothing is retried.
func (g *Generator) Generate(ctx context.Context, passages, question string) (string, error) {
	start := time.Now()
	answer, err := g.backend.Generate(ctx, SystemInstruction, passages, question)
	if err != nil {
		g.logger.Debug("generation failed", zap.String("backend", g.backend.Name()), zap.Error(err))
		return "", fmt.Errorf("%w: %s: %w", models.ErrGenerationFailed, g.backend.Name(), err)
	}
	g.logger.Debug("generation done",
		zap.String("backend", g.backend.Name()),
		zap.Duration("took", time.Since(start)),
		zap.Int("answer_chars", len(answer)))
	return strings.TrimSpace(answer), nil
}
