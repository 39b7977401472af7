package triviagen

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// systemPrompt is the fixed instruction sent with every generation request.
const systemPrompt = "You are a trivia question generator. Generate a completely unique, random multiple-choice trivia question " +
	"with 4 distinct options (A, B, C, D) and indicate the correct answer. Ensure this question is different from any " +
	"standard trivia questions and covers diverse topics. Format the response as JSON with keys: 'question', " +
	"'options' (list of 4 strings), 'correct_answer' (string). Make sure all options are unique, plausible, and the " +
	"correct answer is one of the options. Keep it simple but varied."

// Generator produces one raw candidate question per call. Each call is
// independent; retrying is the caller's job.
type Generator interface {
	Generate(ctx context.Context) (string, error)
}

// QuestionMaker generates raw trivia questions with an OpenAI-compatible
// chat completion endpoint.
type QuestionMaker struct {
	client *openai.Client
	params GenerationParams
}

// NewQuestionMaker creates a question maker. An empty baseURL uses the
// SDK's default endpoint.
func NewQuestionMaker(apiKey, baseURL string, params GenerationParams) *QuestionMaker {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	return &QuestionMaker{
		client: openai.NewClientWithConfig(cfg),
		params: params,
	}
}

// Prompt returns the system instruction sent to the model.
func (qm *QuestionMaker) Prompt() string {
	return systemPrompt
}

// Generate asks the model for one question and returns its raw text. Network
// errors, timeouts and service errors all wrap ErrGenerationFailed.
func (qm *QuestionMaker) Generate(ctx context.Context) (string, error) {
	if qm.params.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, qm.params.Timeout)
		defer cancel()
	}

	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qm.params.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
			},
			Temperature: qm.params.Temperature,
			MaxTokens:   qm.params.MaxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrGenerationFailed)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
