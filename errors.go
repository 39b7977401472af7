package triviagen

import "errors"

// Failure kinds produced by the generation pipeline and the stores.
// GenerationFailed, ParseFailed and DuplicateFound are consumed inside the
// retry loop; the rest reach the caller.
var (
	ErrGenerationFailed = errors.New("generation failed")
	ErrParseFailed      = errors.New("malformed question")
	ErrDuplicateFound   = errors.New("duplicate question")
	ErrExhaustedRetries = errors.New("could not generate a unique question after multiple attempts")
	ErrPersistence      = errors.New("persistence failure")
)
