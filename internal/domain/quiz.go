package domain

import "time"

// Quiz is a user-authored multiple-choice quiz.
type Quiz struct {
	ID          int64          `json:"id" db:"id"`
	UserID      int64          `json:"user_id" db:"user_id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Questions   []QuizQuestion `json:"questions" db:"-"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// QuizQuestion is one question of a quiz. Answer indexes into Options.
type QuizQuestion struct {
	ID       int64    `json:"id" db:"id"`
	QuizID   int64    `json:"-" db:"quiz_id"`
	Position int      `json:"position" db:"position"`
	Prompt   string   `json:"prompt" db:"prompt"`
	Options  []string `json:"options" db:"-"`
	Answer   int      `json:"answer" db:"answer_index"`
}

// QuizAttempt is a scored submission of answers to a quiz.
type QuizAttempt struct {
	ID      int64     `json:"id" db:"id"`
	QuizID  int64     `json:"quiz_id" db:"quiz_id"`
	UserID  int64     `json:"user_id" db:"user_id"`
	Correct int       `json:"correct" db:"correct"`
	Total   int       `json:"total" db:"total"`
	TakenAt time.Time `json:"taken_at" db:"taken_at"`
}

// QuizStats aggregates all attempts of one user.
type QuizStats struct {
	Attempts int `json:"attempts" db:"attempts"`
	Answered int `json:"answered" db:"answered"`
	Correct  int `json:"correct" db:"correct"`
	Wrong    int `json:"wrong" db:"-"`
}
