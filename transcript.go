package triviagen

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TranscriptFile is the name of the generation transcript inside its directory.
const TranscriptFile = "generation.log"

// Transcript records every generator exchange and attempt outcome.
// Entries are written regardless of the process log level. A nil *Transcript
// discards everything.
type Transcript struct {
	log    zerolog.Logger
	closer io.Closer
}

// NewTranscript opens a size-rotated transcript file inside dir.
func NewTranscript(dir string) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, TranscriptFile),
		MaxSize:    20,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	return NewTranscriptWriter(file), nil
}

// NewTranscriptWriter writes transcript entries as JSON lines to w. If w is
// an io.Closer it is closed by Close.
func NewTranscriptWriter(w io.Writer) *Transcript {
	t := &Transcript{
		log: zerolog.New(w).With().Timestamp().Logger(),
	}
	if c, ok := w.(io.Closer); ok {
		t.closer = c
	}
	return t
}

// LogLLMRequest logs the prompt sent for one attempt.
func (t *Transcript) LogLLMRequest(generationID string, attempt int, prompt string) {
	if t == nil {
		return
	}
	t.log.Log().
		Str("generation_id", generationID).
		Int("attempt", attempt).
		Str("kind", "request").
		Str("prompt", prompt).
		Send()
}

// LogLLMResponse logs the raw text the generator returned.
func (t *Transcript) LogLLMResponse(generationID string, attempt int, response string) {
	if t == nil {
		return
	}
	t.log.Log().
		Str("generation_id", generationID).
		Int("attempt", attempt).
		Str("kind", "response").
		Str("response", response).
		Send()
}

// LogAttemptResult logs how an attempt ended.
func (t *Transcript) LogAttemptResult(generationID string, attempt int, outcome, reason string) {
	if t == nil {
		return
	}
	t.log.Log().
		Str("generation_id", generationID).
		Int("attempt", attempt).
		Str("kind", "result").
		Str("outcome", outcome).
		Str("reason", reason).
		Send()
}

// Close closes the underlying file.
func (t *Transcript) Close() error {
	if t == nil || t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
