package triviagen

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// prompter is implemented by generators that can report their prompt.
type prompter interface {
	Prompt() string
}

// DefaultMaxAttempts bounds the generation attempts spent on one question.
const DefaultMaxAttempts = 5

// QuizGenerator produces questions that are not already in the question log.
// Every call reloads the duplicate index, so it sees questions accepted by
// any call that finished before it started.
type QuizGenerator struct {
	generator   Generator
	questions   QuestionLogStore
	maxAttempts int
	log         zerolog.Logger
	transcript  *Transcript
	metrics     *Metrics
}

// NewQuizGenerator creates a generator that draws candidates from gen and
// records accepted questions in questions.
func NewQuizGenerator(gen Generator, questions QuestionLogStore, log zerolog.Logger) *QuizGenerator {
	return &QuizGenerator{
		generator:   gen,
		questions:   questions,
		maxAttempts: DefaultMaxAttempts,
		log:         log,
	}
}

// SetMaxAttempts overrides the attempt budget. Values below 1 are ignored.
func (qg *QuizGenerator) SetMaxAttempts(n int) {
	if n >= 1 {
		qg.maxAttempts = n
	}
}

// MaxAttempts returns the attempt budget.
func (qg *QuizGenerator) MaxAttempts() int {
	return qg.maxAttempts
}

// SetTranscript sets the transcript used to record generator exchanges.
func (qg *QuizGenerator) SetTranscript(t *Transcript) {
	qg.transcript = t
}

// SetMetrics sets the collectors updated by each call.
func (qg *QuizGenerator) SetMetrics(m *Metrics) {
	qg.metrics = m
}

// GenerateUniqueQuestion runs up to MaxAttempts generate, parse and
// duplicate-check cycles. Generation failures, parse failures and duplicates
// all consume one attempt. The first unique question is appended to the log
// and returned. When the budget runs out the error wraps ErrExhaustedRetries
// together with the cause of every attempt, and nothing is appended.
func (qg *QuizGenerator) GenerateUniqueQuestion(ctx context.Context) (*Question, error) {
	generationID := uuid.NewString()
	log := qg.log.With().Str("generation_id", generationID).Logger()

	index, err := LoadDuplicateIndex(ctx, qg.questions)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read existing questions, continuing with an empty index")
		index = NewDuplicateIndex()
	}
	log.Debug().Int("existing", index.Len()).Msg("Loaded existing questions")

	causes := make([]error, 0, qg.maxAttempts)
	for attempt := 1; attempt <= qg.maxAttempts; attempt++ {
		q, err := qg.attempt(ctx, generationID, attempt, index)
		if err != nil {
			causes = append(causes, fmt.Errorf("attempt %d: %w", attempt, err))
			continue
		}

		if err := qg.questions.Append(ctx, *q); err != nil {
			err = fmt.Errorf("failed to record question: %w", err)
			qg.metrics.observeGeneration(attempt, err)
			log.Error().Err(err).Int("attempt", attempt).Msg("Failed to record accepted question")
			return nil, err
		}

		qg.metrics.observeGeneration(attempt, nil)
		log.Info().Int("attempt", attempt).Str("question", q.Text).Msg("Generated unique question")
		return q, nil
	}

	err = fmt.Errorf("%w: %w", ErrExhaustedRetries, errors.Join(causes...))
	qg.metrics.observeGeneration(qg.maxAttempts, err)
	log.Warn().Err(err).Int("attempts", qg.maxAttempts).Msg("Attempt budget exhausted")
	return nil, err
}

// attempt runs one generate, parse and duplicate-check cycle.
func (qg *QuizGenerator) attempt(ctx context.Context, generationID string, attempt int, index *DuplicateIndex) (*Question, error) {
	log := qg.log.With().Str("generation_id", generationID).Int("attempt", attempt).Logger()

	if p, ok := qg.generator.(prompter); ok {
		qg.transcript.LogLLMRequest(generationID, attempt, p.Prompt())
	}
	raw, err := qg.generator.Generate(ctx)
	if err != nil {
		if !errors.Is(err, ErrGenerationFailed) {
			err = fmt.Errorf("%w: %v", ErrGenerationFailed, err)
		}
		qg.reject(log, generationID, attempt, OutcomeGenerationError, err)
		return nil, err
	}
	qg.transcript.LogLLMResponse(generationID, attempt, raw)

	q, err := ParseQuestion(raw)
	if err != nil {
		qg.reject(log, generationID, attempt, OutcomeParseError, err)
		return nil, err
	}

	if index.Contains(q.Text) {
		err := fmt.Errorf("%w: %q", ErrDuplicateFound, q.Text)
		qg.reject(log, generationID, attempt, OutcomeDuplicate, err)
		return nil, err
	}

	qg.metrics.observeAttempt(OutcomeAccepted)
	qg.transcript.LogAttemptResult(generationID, attempt, OutcomeAccepted, q.Text)
	return q, nil
}

func (qg *QuizGenerator) reject(log zerolog.Logger, generationID string, attempt int, outcome string, err error) {
	qg.metrics.observeAttempt(outcome)
	qg.transcript.LogAttemptResult(generationID, attempt, outcome, err.Error())
	log.Info().Err(err).Str("outcome", outcome).Msg("Attempt failed")
}
