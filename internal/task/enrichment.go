package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkaminski/vocadrill/internal/generation"
	"github.com/pkaminski/vocadrill/internal/store"
)

const (
	// enrichInterval is how often the enrichment job looks for words that
	// still have no example sentences.
	enrichInterval = 15 * time.Minute

	// enrichBatchSize caps how many words one pass will send to the LLM.
	enrichBatchSize = 20
)

// Enricher periodically fills in example sentences for words that were
// created without them, using the configured generator.
type Enricher struct {
	scheduler *gocron.Scheduler
	words     store.WordStore
	generator generation.Generator
	logger    *slog.Logger
}

// NewEnricher creates a new Enricher.
// If logger is nil, a default logger will be used.
func NewEnricher(
	words store.WordStore,
	generator generation.Generator,
	logger *slog.Logger,
) *Enricher {
	if words == nil {
		panic("words cannot be nil")
	}
	if generator == nil {
		panic("generator cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Enricher{
		scheduler: gocron.NewScheduler(time.UTC),
		words:     words,
		generator: generator,
		logger:    logger.With(slog.String("component", "enricher")),
	}
}

// Start registers the enrichment job and begins running it asynchronously.
func (e *Enricher) Start() error {
	if _, err := e.scheduler.Every(enrichInterval).Do(e.runScheduled); err != nil {
		return fmt.Errorf("failed to schedule example enrichment: %w", err)
	}

	e.scheduler.StartAsync()
	e.logger.Info("example enricher started",
		slog.Duration("interval", enrichInterval),
		slog.Int("batch_size", enrichBatchSize))
	return nil
}

// Stop terminates the scheduled job. Safe to call multiple times.
func (e *Enricher) Stop() {
	e.scheduler.Stop()
	e.logger.Info("example enricher stopped")
}

// EnrichBatch runs one enrichment pass and returns how many words were
// updated. Failures on individual words are logged and skipped so one bad
// word cannot stall the whole batch.
func (e *Enricher) EnrichBatch(ctx context.Context) (int, error) {
	words, err := e.words.ListMissingExamples(ctx, enrichBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list words missing examples: %w", err)
	}
	if len(words) == 0 {
		return 0, nil
	}

	updated := 0
	for _, word := range words {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}

		examples, err := e.generator.GenerateExamples(ctx, word.Front, word.Back)
		if err != nil {
			e.logger.WarnContext(ctx, "example generation failed",
				slog.String("word_id", word.ID.String()),
				slog.String("error", err.Error()))
			continue
		}

		if err := e.words.UpdateExamples(ctx, word.ID, examples.Front, examples.Back); err != nil {
			e.logger.ErrorContext(ctx, "failed to store generated examples",
				slog.String("word_id", word.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		updated++
	}

	return updated, nil
}

// runScheduled is the gocron job body.
func (e *Enricher) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	updated, err := e.EnrichBatch(ctx)
	if err != nil {
		e.logger.Error("example enrichment pass failed",
			slog.String("error", err.Error()))
		return
	}
	if updated > 0 {
		e.logger.Info("example sentences generated",
			slog.Int("updated", updated))
	}
}
