package triviagen

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	fenceOpenJSON = "```json"
	fence         = "```"
)

// rawQuestion is the generator's JSON shape. Pointer fields let missing keys
// be told apart from empty values.
type rawQuestion struct {
	Question      *string  `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *string  `json:"correct_answer"`
}

// ParseQuestion extracts a Question from raw generator output. A single
// surrounding markdown code fence is tolerated but not required. Any decode
// failure, missing field, wrong option count or correct answer outside the
// options yields an error wrapping ErrParseFailed.
func ParseQuestion(raw string) (*Question, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrParseFailed)
	}

	var rq rawQuestion
	if err := json.Unmarshal([]byte(body), &rq); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	switch {
	case rq.Question == nil:
		return nil, fmt.Errorf("%w: missing question", ErrParseFailed)
	case rq.Options == nil:
		return nil, fmt.Errorf("%w: missing options", ErrParseFailed)
	case rq.CorrectAnswer == nil:
		return nil, fmt.Errorf("%w: missing correct_answer", ErrParseFailed)
	}

	q := &Question{
		Text:          *rq.Question,
		Options:       rq.Options,
		CorrectAnswer: *rq.CorrectAnswer,
	}
	if err := ValidateQuestion(q); err != nil {
		return nil, err
	}
	return q, nil
}

// stripCodeFence trims whitespace and at most one leading and one trailing
// fence marker.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(s, fenceOpenJSON):
		s = s[len(fenceOpenJSON):]
	case strings.HasPrefix(s, fence):
		s = s[len(fence):]
	}
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}
