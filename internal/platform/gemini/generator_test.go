package gemini

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/pkaminski/vocadrill/internal/config"
	"github.com/pkaminski/vocadrill/internal/generation"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNewGeminiGenerator_ConfigValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing API key", func(t *testing.T) {
		t.Parallel()
		_, err := NewGeminiGenerator(ctx, testLogger(), config.LLMConfig{
			ModelName: "gemini-2.0-flash",
		})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("missing model name", func(t *testing.T) {
		t.Parallel()
		_, err := NewGeminiGenerator(ctx, testLogger(), config.LLMConfig{
			GeminiAPIKey: "test-key",
		})
		assert.ErrorIs(t, err, generation.ErrInvalidConfig)
	})

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()
		_, err := NewGeminiGenerator(ctx, nil, config.LLMConfig{
			GeminiAPIKey: "test-key",
			ModelName:    "gemini-2.0-flash",
		})
		assert.Error(t, err)
	})
}

func TestGenerateExamples_RejectsEmptyTexts(t *testing.T) {
	t.Parallel()

	g := &GeminiGenerator{
		logger: testLogger(),
		config: config.LLMConfig{ModelName: "gemini-2.0-flash"},
		model:  "gemini-2.0-flash",
	}

	_, err := g.GenerateExamples(context.Background(), "", "dog")
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)

	_, err = g.GenerateExamples(context.Background(), "perro", "   ")
	assert.ErrorIs(t, err, generation.ErrGenerationFailed)
}
