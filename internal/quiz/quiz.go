// Package quiz validates and scores multiple-choice quizzes.
package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/conorfennell/mindzap/internal/domain"
)

var (
	// ErrInvalidQuiz is returned for quizzes that cannot be taken.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrAnswerCount is returned when an attempt does not answer every question exactly once.
	ErrAnswerCount = errors.New("answer count does not match question count")
)

// Validate checks that q has a title and that every question has a prompt,
// at least two distinct options and an answer index pointing at one of them.
func Validate(q *domain.Quiz) error {
	if strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidQuiz)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: at least one question is required", ErrInvalidQuiz)
	}
	for i, question := range q.Questions {
		if strings.TrimSpace(question.Prompt) == "" {
			return fmt.Errorf("%w: question %d has no prompt", ErrInvalidQuiz, i+1)
		}
		if len(question.Options) < 2 {
			return fmt.Errorf("%w: question %d needs at least two options", ErrInvalidQuiz, i+1)
		}
		seen := make(map[string]bool, len(question.Options))
		for _, opt := range question.Options {
			key := strings.TrimSpace(opt)
			if key == "" {
				return fmt.Errorf("%w: question %d has an empty option", ErrInvalidQuiz, i+1)
			}
			if seen[key] {
				return fmt.Errorf("%w: question %d repeats option %q", ErrInvalidQuiz, i+1, key)
			}
			seen[key] = true
		}
		if question.Answer < 0 || question.Answer >= len(question.Options) {
			return fmt.Errorf("%w: question %d answer index %d out of range", ErrInvalidQuiz, i+1, question.Answer)
		}
	}
	return nil
}

// Result is the outcome of one attempt. Marks[i] reports whether question i was answered correctly.
type Result struct {
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
	Marks   []bool `json:"marks"`
}

// Score marks answers against the quiz. answers[i] is the chosen option index for question i.
func Score(q *domain.Quiz, answers []int) (Result, error) {
	if len(answers) != len(q.Questions) {
		return Result{}, fmt.Errorf("%w: got %d, want %d", ErrAnswerCount, len(answers), len(q.Questions))
	}
	res := Result{Total: len(q.Questions), Marks: make([]bool, len(q.Questions))}
	for i, question := range q.Questions {
		if answers[i] == question.Answer {
			res.Correct++
			res.Marks[i] = true
		}
	}
	return res, nil
}
