package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/mindzap/internal/domain"
)

func validQuiz() *domain.Quiz {
	return &domain.Quiz{
		Title: "Go basics",
		Questions: []domain.QuizQuestion{
			{Prompt: "Zero value of int?", Options: []string{"0", "nil", "undefined"}, Answer: 0},
			{Prompt: "Keyword for goroutines?", Options: []string{"async", "go"}, Answer: 1},
		},
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(q *domain.Quiz)
	}{
		{"blank title", func(q *domain.Quiz) { q.Title = "  " }},
		{"no questions", func(q *domain.Quiz) { q.Questions = nil }},
		{"blank prompt", func(q *domain.Quiz) { q.Questions[0].Prompt = "" }},
		{"single option", func(q *domain.Quiz) { q.Questions[1].Options = []string{"go"}; q.Questions[1].Answer = 0 }},
		{"duplicate options", func(q *domain.Quiz) { q.Questions[1].Options = []string{"go", " go"} }},
		{"empty option", func(q *domain.Quiz) { q.Questions[0].Options[2] = "" }},
		{"negative answer", func(q *domain.Quiz) { q.Questions[0].Answer = -1 }},
		{"answer out of range", func(q *domain.Quiz) { q.Questions[1].Answer = 2 }},
	}

	require.NoError(t, Validate(validQuiz()))
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := validQuiz()
			tc.mutate(q)
			assert.ErrorIs(t, Validate(q), ErrInvalidQuiz)
		})
	}
}

func TestScore(t *testing.T) {
	q := validQuiz()

	res, err := Score(q, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, Result{Correct: 2, Total: 2, Marks: []bool{true, true}}, res)

	res, err = Score(q, []int{2, 1})
	require.NoError(t, err)
	assert.Equal(t, Result{Correct: 1, Total: 2, Marks: []bool{false, true}}, res)

	_, err = Score(q, []int{0})
	require.ErrorIs(t, err, ErrAnswerCount)
	_, err = Score(q, []int{0, 1, 1})
	require.ErrorIs(t, err, ErrAnswerCount)
}
