package triviagen

import (
	"context"
	"fmt"
	"strings"
)

// NormalizeText folds question text for duplicate comparison.
func NormalizeText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// DuplicateIndex is the set of normalized texts of previously accepted
// questions. It is a snapshot: questions appended after the load are not seen.
type DuplicateIndex struct {
	seen map[string]struct{}
}

// NewDuplicateIndex builds an index over the given question texts.
func NewDuplicateIndex(texts ...string) *DuplicateIndex {
	di := &DuplicateIndex{seen: make(map[string]struct{}, len(texts))}
	for _, t := range texts {
		di.Add(t)
	}
	return di
}

// LoadDuplicateIndex reads every question in the log into a fresh index.
func LoadDuplicateIndex(ctx context.Context, store QuestionLogStore) (*DuplicateIndex, error) {
	questions, err := store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load duplicate index: %w", err)
	}
	di := &DuplicateIndex{seen: make(map[string]struct{}, len(questions))}
	for _, q := range questions {
		di.Add(q.Text)
	}
	return di, nil
}

// Add records text as seen.
func (di *DuplicateIndex) Add(text string) {
	di.seen[NormalizeText(text)] = struct{}{}
}

// Contains reports whether text, once normalized, is already in the index.
func (di *DuplicateIndex) Contains(text string) bool {
	_, ok := di.seen[NormalizeText(text)]
	return ok
}

// Len returns the number of distinct normalized texts.
func (di *DuplicateIndex) Len() int {
	return len(di.seen)
}
