package triviagen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

const headerLine = "Question,Option A,Option B,Option C,Option D,Correct Answer\n"

func TestNewCSVQuestionLogCreatesHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "trivia_questions.csv")

	ql, err := NewCSVQuestionLog(path)
	if err != nil {
		t.Fatalf("NewCSVQuestionLog() error = %v", err)
	}
	if ql.Path() != path {
		t.Fatalf("Path() = %q, want %q", ql.Path(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != headerLine {
		t.Fatalf("log content = %q, want header only", data)
	}

	questions, err := ql.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("ReadAll() returned %d questions, want 0", len(questions))
	}
}

func TestNewCSVQuestionLogKeepsExistingRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trivia_questions.csv")
	existing := headerLine + "What is 2+2?,3,4,5,22,4\n"
	if err := os.WriteFile(path, []byte(existing), 0644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	if _, err := NewCSVQuestionLog(path); err != nil {
		t.Fatalf("NewCSVQuestionLog() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(data) != existing {
		t.Fatalf("existing log was modified: %q", data)
	}
}

func TestCSVQuestionLogAppendAndReadAll(t *testing.T) {
	ctx := context.Background()
	ql, err := NewCSVQuestionLog(filepath.Join(t.TempDir(), "log.csv"))
	if err != nil {
		t.Fatalf("NewCSVQuestionLog() error = %v", err)
	}

	want := []Question{
		{Text: "What is 2+2?", Options: sampleOptions(), CorrectAnswer: "4"},
		{
			Text:          `Which quote says "To be, or not to be"?`,
			Options:       []string{"Hamlet, Act 3", "Macbeth, Act 1", "Othello,\nAct 2", "King Lear"},
			CorrectAnswer: "Hamlet, Act 3",
		},
	}
	for _, q := range want {
		if err := ql.Append(ctx, q); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := ql.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadAll() = %+v, want %+v", got, want)
	}
}

func TestCSVQuestionLogReadAllSkipsIncompleteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	content := headerLine +
		"\n" +
		"Short row,a,b\n" +
		"Largest planet?,Mars,Jupiter,Venus,Earth,Jupiter\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	ql, err := NewCSVQuestionLog(path)
	if err != nil {
		t.Fatalf("NewCSVQuestionLog() error = %v", err)
	}
	got, err := ql.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "Largest planet?" || got[0].CorrectAnswer != "Jupiter" {
		t.Fatalf("ReadAll() = %+v, want only the complete row", got)
	}
}

func TestCSVQuestionLogAppendRecreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	ql, err := NewCSVQuestionLog(path)
	if err != nil {
		t.Fatalf("NewCSVQuestionLog() error = %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove log: %v", err)
	}

	if err := ql.Append(context.Background(), Question{Text: "Q?", Options: sampleOptions(), CorrectAnswer: "4"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if want := headerLine + "Q?,3,4,5,22,4\n"; string(data) != want {
		t.Fatalf("log content = %q, want %q", data, want)
	}
}

func TestCSVQuestionLogAppendRejectsWrongOptionCount(t *testing.T) {
	ql, err := NewCSVQuestionLog(filepath.Join(t.TempDir(), "log.csv"))
	if err != nil {
		t.Fatalf("NewCSVQuestionLog() error = %v", err)
	}
	err = ql.Append(context.Background(), Question{Text: "Q?", Options: []string{"a", "b"}, CorrectAnswer: "a"})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("Append() error = %v, want ErrPersistence", err)
	}
}

func TestCSVQuestionLogConcurrentAppendsDoNotInterleave(t *testing.T) {
	ctx := context.Background()
	ql, err := NewCSVQuestionLog(filepath.Join(t.TempDir(), "log.csv"))
	if err != nil {
		t.Fatalf("NewCSVQuestionLog() error = %v", err)
	}

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q := Question{
				Text:          fmt.Sprintf("Question number %d, with a comma?", i),
				Options:       []string{"a", "b", "c", fmt.Sprintf("d%d", i)},
				CorrectAnswer: "a",
			}
			if err := ql.Append(ctx, q); err != nil {
				t.Errorf("Append(%d) error = %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	got, err := ql.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != n {
		t.Fatalf("ReadAll() returned %d rows, want %d", len(got), n)
	}
	seen := make(map[string]bool, n)
	for _, q := range got {
		if len(q.Options) != NumOptions || q.CorrectAnswer != "a" {
			t.Fatalf("corrupted row: %+v", q)
		}
		seen[q.Text] = true
	}
	if len(seen) != n {
		t.Fatalf("found %d distinct questions, want %d", len(seen), n)
	}
}

func TestCSVQuestionLogReadAllToleratesDamagedRows(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "torn quoted row at the end",
			content: headerLine + "What is 2+2?,3,4,5,22,4\n" + `"Name, please`,
			want:    []string{"What is 2+2?"},
		},
		{
			name:    "bare quote in hand-edited row",
			content: headerLine + `Who wrote "Hamlet"?,Shakespeare,Marlowe,Jonson,Kyd,Shakespeare` + "\nWhat is 2+2?,3,4,5,22,4\n",
			want:    []string{`Who wrote "Hamlet"?`, "What is 2+2?"},
		},
		{
			name:    "stray quote inside quoted field",
			content: headerLine + `"Odd "quote" row",a,b,c,d,a` + "\nWhat is 2+2?,3,4,5,22,4\n",
			want:    []string{`Odd "quote" row`, "What is 2+2?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "log.csv")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("seed log: %v", err)
			}
			ql, err := NewCSVQuestionLog(path)
			if err != nil {
				t.Fatalf("NewCSVQuestionLog() error = %v", err)
			}

			got, err := ql.ReadAll(context.Background())
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			texts := make([]string, 0, len(got))
			for _, q := range got {
				texts = append(texts, q.Text)
			}
			if !reflect.DeepEqual(texts, tt.want) {
				t.Fatalf("ReadAll() texts = %q, want %q", texts, tt.want)
			}
		})
	}
}

func TestCSVQuestionLogAppendRepairsTornTail(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "log.csv")
	seed := headerLine + "What is 2+2?,3,4,5,22,4\n" + `"Name, please`
	if err := os.WriteFile(path, []byte(seed), 0644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	ql, err := NewCSVQuestionLog(path)
	if err != nil {
		t.Fatalf("NewCSVQuestionLog() error = %v", err)
	}

	for _, text := range []string{"Largest planet?", "Capital of France?"} {
		if err := ql.Append(ctx, Question{Text: text, Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a"}); err != nil {
			t.Fatalf("Append(%q) error = %v", text, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := headerLine + "What is 2+2?,3,4,5,22,4\nLargest planet?,a,b,c,d,a\nCapital of France?,a,b,c,d,a\n"
	if string(data) != want {
		t.Fatalf("log content = %q, want %q", data, want)
	}
}

func TestCSVQuestionLogAppendKeepsCompleteUnterminatedRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	seed := headerLine + "What is 2+2?,3,4,5,22,4"
	if err := os.WriteFile(path, []byte(seed), 0644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	ql, err := NewCSVQuestionLog(path)
	if err != nil {
		t.Fatalf("NewCSVQuestionLog() error = %v", err)
	}

	if err := ql.Append(context.Background(), Question{Text: "Q?", Options: sampleOptions(), CorrectAnswer: "4"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if want := seed + "\nQ?,3,4,5,22,4\n"; string(data) != want {
		t.Fatalf("log content = %q, want %q", data, want)
	}
}
