package domain

import "time"

// Spaced-repetition defaults for a freshly created card.
const (
	DefaultInterval   = 1
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// ReviewState is the SM-2 scheduling state of one flashcard.
type ReviewState struct {
	Interval    int       `json:"interval" db:"interval_days"` // days until the next review
	Repetitions int       `json:"repetitions" db:"repetitions"`
	EaseFactor  float64   `json:"ease_factor" db:"ease_factor"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
}

// NewReviewState returns the state a card starts with: due immediately.
func NewReviewState(now time.Time) ReviewState {
	return ReviewState{
		Interval:    DefaultInterval,
		Repetitions: 0,
		EaseFactor:  DefaultEaseFactor,
		DueDate:     now.UTC(),
	}
}

// Flashcard is a single question-answer entry owned by one user.
type Flashcard struct {
	ID       int64  `json:"id" db:"id"`
	UserID   int64  `json:"user_id" db:"user_id"`
	Question string `json:"question" db:"question"`
	Answer   string `json:"answer" db:"answer"`
	Context  string `json:"context,omitempty" db:"context"`
	Hash     string `json:"-" db:"content_hash"`
	SourceID *int64 `json:"source_id,omitempty" db:"source_id"`

	ReviewState
	LastReview *time.Time `json:"last_review,omitempty" db:"last_review"`

	// Version increments on every review state write.
	Version   int64     `json:"-" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ReviewLog records a single grading event for a card.
// Grade follows the SM-2 convention: 0-2 failed, 3-5 recalled.
type ReviewLog struct {
	ID         int64     `json:"id" db:"id"`
	CardID     int64     `json:"card_id" db:"card_id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	Grade      int       `json:"grade" db:"grade"`
	Interval   int       `json:"interval" db:"interval_days"`
	EaseFactor float64   `json:"ease_factor" db:"ease_factor"`
	ReviewedAt time.Time `json:"reviewed_at" db:"reviewed_at"`
}
