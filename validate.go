package triviagen

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func questionValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterStructValidation(correctAnswerInOptions, Question{})
	})
	return validate
}

// correctAnswerInOptions requires an exact, case-sensitive match between the
// correct answer and one of the options.
func correctAnswerInOptions(sl validator.StructLevel) {
	q := sl.Current().Interface().(Question)
	if q.CorrectAnswer == "" {
		return
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return
		}
	}
	sl.ReportError(q.CorrectAnswer, "correct_answer", "CorrectAnswer", "oneofoptions", "")
}

// ValidateQuestion checks the structural invariants of a question. The
// returned error wraps ErrParseFailed.
func ValidateQuestion(q *Question) error {
	if q == nil {
		return fmt.Errorf("%w: no question", ErrParseFailed)
	}
	err := questionValidator().Struct(q)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrParseFailed, strings.Join(fields, "; "))
}
