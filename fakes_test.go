package triviagen

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
)

// generatorStep is one scripted response of a scriptedGenerator.
type generatorStep struct {
	raw string
	err error
}

// scriptedGenerator replays steps in order and repeats the last one.
type scriptedGenerator struct {
	mu    sync.Mutex
	steps []generatorStep
	calls int
}

func (g *scriptedGenerator) Generate(_ context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	if len(g.steps) == 0 {
		return "", errors.New("no scripted response")
	}
	idx := g.calls - 1
	if idx >= len(g.steps) {
		idx = len(g.steps) - 1
	}
	return g.steps[idx].raw, g.steps[idx].err
}

func (g *scriptedGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type memoryQuestionLog struct {
	mu        sync.Mutex
	questions []Question
	appendErr error
	readErr   error
	appends   int
}

func (m *memoryQuestionLog) Append(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.appends++
	m.questions = append(m.questions, q)
	return nil
}

func (m *memoryQuestionLog) ReadAll(_ context.Context) ([]Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	return append([]Question(nil), m.questions...), nil
}

func (m *memoryQuestionLog) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.questions)
}

type memoryStats struct {
	stats    Stats
	writeErr error
	writes   int
}

func (m *memoryStats) Read(_ context.Context) (Stats, error) {
	return m.stats, nil
}

func (m *memoryStats) Write(_ context.Context, stats Stats) error {
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.stats = stats
	return nil
}

func questionJSON(t *testing.T, text string, options []string, correct string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"question":       text,
		"options":        options,
		"correct_answer": correct,
	})
	if err != nil {
		t.Fatalf("marshal question: %v", err)
	}
	return string(data)
}

func sampleOptions() []string {
	return []string{"3", "4", "5", "22"}
}
