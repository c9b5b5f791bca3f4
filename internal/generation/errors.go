package generation

import "errors"

// Sentinel errors for generator implementations. The enrichment job matches
// on these to decide whether a word is worth retrying on a later pass.
var (
	// ErrGenerationFailed covers failures with no more specific cause.
	ErrGenerationFailed = errors.New("failed to generate example sentences")

	// ErrInvalidResponse means the model replied but the reply could not be
	// parsed into sentences.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked means the model's safety filters refused the word.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure marks errors that may resolve on retry.
	ErrTransientFailure = errors.New("transient error during example generation")

	// ErrInvalidConfig reports unusable generator configuration.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
