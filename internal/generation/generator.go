package generation

import (
	"context"
)

// ExampleSentences is one generated example pair for a vocabulary word:
// a sentence using the front-side text and its translation on the back side.
type ExampleSentences struct {
	Front string
	Back  string
}

// Generator defines the interface for generating example sentences for
// vocabulary words. It is the boundary between the application core and
// external LLM services; the core never talks to an LLM SDK directly.
type Generator interface {
	// GenerateExamples creates an example sentence pair for the given word.
	// front and back are the two sides of the word card.
	GenerateExamples(ctx context.Context, front, back string) (*ExampleSentences, error)
}
