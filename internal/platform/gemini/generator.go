// Package gemini implements the generation.Generator interface using
// Google's Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/pkaminski/vocadrill/internal/config"
	"github.com/pkaminski/vocadrill/internal/generation"
	"google.golang.org/genai"
)

// promptTemplate asks for a strict JSON object so the response can be parsed
// without scraping prose.
const promptTemplate = `You are helping build a vocabulary learning app.
Write one short, natural example sentence using the word %q, and its
translation where the word means %q. Respond with a JSON object only:
{"front": "<sentence using the word>", "back": "<translated sentence>"}`

// retryBaseDelaySeconds is the base for exponential backoff between attempts.
const retryBaseDelaySeconds = 2

// responseSchema mirrors the JSON object the prompt requests.
type responseSchema struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to generate example sentences for vocabulary words.
type GeminiGenerator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

// Ensure GeminiGenerator implements generation.Generator interface
var _ generation.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator creates a new instance of GeminiGenerator.
// Returns generation.ErrInvalidConfig if the API key or model name is missing.
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// GenerateExamples implements generation.Generator.
func (g *GeminiGenerator) GenerateExamples(
	ctx context.Context,
	front, back string,
) (*generation.ExampleSentences, error) {
	if strings.TrimSpace(front) == "" || strings.TrimSpace(back) == "" {
		return nil, fmt.Errorf("%w: word texts cannot be empty", generation.ErrGenerationFailed)
	}

	prompt := fmt.Sprintf(promptTemplate, front, back)

	response, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if response.Front == "" || response.Back == "" {
		return nil, fmt.Errorf("%w: missing sentence in response", generation.ErrInvalidResponse)
	}

	return &generation.ExampleSentences{
		Front: response.Front,
		Back:  response.Back,
	}, nil
}

// callWithRetry calls the Gemini API with exponential backoff and jitter.
// Transient API errors are retried up to config.MaxRetries times; blocked
// content and malformed responses are returned immediately.
func (g *GeminiGenerator) callWithRetry(
	ctx context.Context,
	prompt string,
) (*responseSchema, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		g.logger.DebugContext(ctx, "calling Gemini API",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		response, err, transient := g.callOnce(ctx, prompt)
		if err == nil {
			return response, nil
		}

		g.logger.WarnContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"error", err,
			"transient", transient)

		if !transient {
			return nil, err
		}
		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		// Exponential backoff with jitter in [0.5, 1.0).
		backoff := float64(retryBaseDelaySeconds) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5) * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// callOnce performs a single API call. The third return value reports whether
// a failure is worth retrying.
func (g *GeminiGenerator) callOnce(
	ctx context.Context,
	prompt string,
) (*responseSchema, error, bool) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, err), true
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse), false
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w: safety filter triggered", generation.ErrContentBlocked), false
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text.WriteString(part.Text)
		}
	}

	// Models sometimes wrap JSON in a code fence despite instructions.
	raw := strings.TrimSpace(text.String())
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var parsed responseSchema
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err), false
	}

	return &parsed, nil, false
}
