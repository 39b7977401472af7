package triviagen

import "time"

// NumOptions is the number of answer choices every question carries.
const NumOptions = 4

// Question represents a single trivia question with multiple choice answers.
// CorrectAnswer holds the text of the correct option, not its index.
type Question struct {
	Text          string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"len=4,unique,dive,required"`
	CorrectAnswer string   `json:"correct_answer" validate:"required"`
}

// Stats holds the aggregate answer counters.
type Stats struct {
	CorrectAnswers int `json:"correct_answers"`
	WrongAnswers   int `json:"wrong_answers"`
	TotalQuestions int `json:"total_questions"`
}

// GenerationParams configures a single call to the text generator.
type GenerationParams struct {
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// DefaultGenerationParams mirrors the settings the service has always used.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Model:       "gpt-4o-mini",
		Temperature: 0.9,
		MaxTokens:   300,
		Timeout:     10 * time.Second,
	}
}
