package generation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/bunsho/internal/models"
)

type recordingBackend struct {
	system, passages, question string
	answer                     string
	err                        error
	calls                      int
}

func (r *recordingBackend) Name() string { return "recording" }

func (r *recordingBackend) Generate(_ context.Context, system, passages, question string) (string, error) {
	r.calls++
	r.system, r.passages, r.question = system, passages, question
	return r.answer, r.err
}

func TestGenerator_Generate(t *testing.T) {
	b := &recordingBackend{answer: "  The sky is blue.\n"}
	g := NewGenerator(b)

	answer, err := g.Generate(context.Background(), "[1]\nThe sky is blue.", "What color is the sky?")
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.", answer)
	assert.Equal(t, SystemInstruction, b.system)
	assert.Equal(t, "[1]\nThe sky is blue.", b.passages)
	assert.Equal(t, "What color is the sky?", b.question)
	assert.Equal(t, "recording", g.Backend())
}

func TestGenerator_FailureIsWrappedAndNotRetried(t *testing.T) {
	cause := errors.New("503 service unavailable")
	b := &recordingBackend{err: cause}
	_, err := NewGenerator(b).Generate(context.Background(), "ctx", "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrGenerationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, b.calls)
}

func TestSystemInstruction(t *testing.T) {
	lower := strings.ToLower(SystemInstruction)
	assert.Contains(t, lower, "only")
	assert.Contains(t, lower, "not available")
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "sys\n\nContext:\n[1]\nabc", SystemMessage("sys", "[1]\nabc"))
	assert.Equal(t, "sys\n\nContext:\n"+NoContext, SystemMessage("sys", ""))
	assert.Equal(t, "sys\n\nContext:\n"+NoContext, SystemMessage("sys", "  \n"))
	assert.Equal(t, "Question: why?", UserMessage("why?"))
}
