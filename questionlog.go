package triviagen

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// questionLogHeader is the first row of every question log file.
var questionLogHeader = []string{"Question", "Option A", "Option B", "Option C", "Option D", "Correct Answer"}

// QuestionLogStore is the append-only record of accepted questions.
type QuestionLogStore interface {
	Append(ctx context.Context, q Question) error
	ReadAll(ctx context.Context) ([]Question, error)
}

// CSVQuestionLog stores accepted questions as rows of a CSV file.
// Appends from one process are serialized so rows never interleave; nothing
// coordinates readers with writers.
type CSVQuestionLog struct {
	path string
	mu   sync.Mutex
}

// NewCSVQuestionLog opens the log at path, creating it with only the header
// row if it does not exist.
func NewCSVQuestionLog(path string) (*CSVQuestionLog, error) {
	ql := &CSVQuestionLog{path: path}
	if err := ql.ensureHeader(); err != nil {
		return nil, err
	}
	return ql, nil
}

// Path returns the file backing the log.
func (ql *CSVQuestionLog) Path() string {
	return ql.path
}

func (ql *CSVQuestionLog) ensureHeader() error {
	ql.mu.Lock()
	defer ql.mu.Unlock()

	if dir := filepath.Dir(ql.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: failed to create log directory: %v", ErrPersistence, err)
		}
	}

	f, err := os.OpenFile(ql.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("%w: failed to open question log: %v", ErrPersistence, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: failed to stat question log: %v", ErrPersistence, err)
	}
	if info.Size() > 0 {
		return nil
	}
	return writeRows(f, questionLogHeader)
}

// Append writes one row for q at the end of the log. A file left without a
// trailing newline by an interrupted write is repaired first, so a partial
// row cannot swallow the new one.
func (ql *CSVQuestionLog) Append(ctx context.Context, q Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(q.Options) != NumOptions {
		return fmt.Errorf("%w: question has %d options", ErrPersistence, len(q.Options))
	}

	ql.mu.Lock()
	defer ql.mu.Unlock()

	f, err := os.OpenFile(ql.path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("%w: failed to open question log: %v", ErrPersistence, err)
	}
	defer f.Close()

	size, err := trimTornRow(f)
	if err != nil {
		return fmt.Errorf("%w: failed to repair question log: %v", ErrPersistence, err)
	}
	if _, err := f.Seek(size, io.SeekStart); err != nil {
		return fmt.Errorf("%w: failed to seek question log: %v", ErrPersistence, err)
	}

	rows := make([][]string, 0, 2)
	if size == 0 {
		rows = append(rows, questionLogHeader)
	}
	row := make([]string, 0, len(questionLogHeader))
	row = append(row, q.Text)
	row = append(row, q.Options...)
	row = append(row, q.CorrectAnswer)
	rows = append(rows, row)

	if err := writeRows(f, rows...); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync question log: %v", ErrPersistence, err)
	}
	return nil
}

// ReadAll returns every question in the log in append order. Quoting is read
// leniently; blank rows, rows with too few columns and rows that still fail
// to parse are skipped so one damaged row never hides the rest.
func (ql *CSVQuestionLog) ReadAll(ctx context.Context) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(ql.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to open question log: %v", ErrPersistence, err)
	}
	defer f.Close()

	r := newLogReader(f)

	var questions []Question
	first := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			first = false
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read question log: %v", ErrPersistence, err)
		}
		if first {
			first = false
			if isHeader(record) {
				continue
			}
		}
		if len(record) < len(questionLogHeader) {
			continue
		}
		questions = append(questions, Question{
			Text:          record[0],
			Options:       append([]string(nil), record[1:1+NumOptions]...),
			CorrectAnswer: record[1+NumOptions],
		})
	}
	return questions, nil
}

func newLogReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	return cr
}

// trimTornRow repairs a file that does not end in a newline and returns the
// resulting size. A final row that parses cleanly with all columns is kept
// and terminated; anything else is a partial write and is truncated.
func trimTornRow(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := info.Size()
	if size == 0 {
		return 0, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, size-1); err != nil {
		return 0, err
	}
	if last[0] == '\n' {
		return size, nil
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	r := newLogReader(f)
	var start int64
	for {
		offset := r.InputOffset()
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		var perr *csv.ParseError
		if err != nil && !errors.As(err, &perr) {
			return 0, err
		}
		start = offset
	}

	tail := make([]byte, size-start)
	if _, err := f.ReadAt(tail, start); err != nil {
		return 0, err
	}
	if isCompleteRow(tail) {
		if _, err := f.WriteAt([]byte{'\n'}, size); err != nil {
			return 0, err
		}
		return size + 1, nil
	}
	if err := f.Truncate(start); err != nil {
		return 0, err
	}
	return start, nil
}

func isCompleteRow(b []byte) bool {
	records, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	return err == nil && len(records) == 1 && len(records[0]) >= len(questionLogHeader)
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), questionLogHeader[0])
}

func writeRows(w io.Writer, rows ...[]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("%w: failed to write question log: %v", ErrPersistence, err)
	}
	return nil
}
