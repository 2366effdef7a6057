// Package review runs study sessions: it serves the due queue, grades cards
// and reports progress.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/mindzap/internal/domain"
	"github.com/conorfennell/mindzap/internal/srs"
	"github.com/conorfennell/mindzap/internal/storage"
)

// Store is the persistence the service needs. *storage.DB implements it.
type Store interface {
	GetFlashcard(ctx context.Context, userID, id int64) (*domain.Flashcard, error)
	ListFlashcards(ctx context.Context, userID int64) ([]domain.Flashcard, error)
	RecordReview(ctx context.Context, card *domain.Flashcard, next domain.ReviewState, entry *domain.ReviewLog) error
	ListReviewLogs(ctx context.Context, userID int64) ([]domain.ReviewLog, error)
}

// ErrTooManyConflicts is returned when a grade could not be saved after all retries.
var ErrTooManyConflicts = errors.New("review: too many concurrent updates")

// Config tunes the service. Zero values fall back to defaults.
type Config struct {
	MaxInterval int // days, 0 = uncapped
	QueueLimit  int
	MaxRetries  int
}

const (
	defaultQueueLimit = 20
	defaultMaxRetries = 3
	masteredInterval  = 30
)

// Service grades flashcards and serves the due queue.
type Service struct {
	store      Store
	params     *srs.Params
	queueLimit int
	maxRetries int
	logger     *slog.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewService returns a Service backed by store.
func NewService(store Store, cfg Config, logger *slog.Logger) *Service {
	if cfg.QueueLimit <= 0 {
		cfg.QueueLimit = defaultQueueLimit
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		params:     &srs.Params{MaxInterval: cfg.MaxInterval},
		queueLimit: cfg.QueueLimit,
		maxRetries: cfg.MaxRetries,
		logger:     logger,
		Now:        time.Now,
	}
}

// Queue returns up to limit due cards in review order and the total number of
// due cards. A limit of zero or less uses the configured queue limit.
func (s *Service) Queue(ctx context.Context, userID int64, limit int) ([]domain.Flashcard, int, error) {
	if limit <= 0 {
		limit = s.queueLimit
	}
	cards, err := s.store.ListFlashcards(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("list flashcards: %w", err)
	}

	now := s.Now()
	queue := make([]domain.Flashcard, 0, min(limit, len(cards)))
	for c := range srs.Due(cards, now) {
		if len(queue) == limit {
			break
		}
		queue = append(queue, c)
	}
	return queue, srs.CountDue(cards, now), nil
}

// Grade applies grade to the card and persists the result with a review log
// entry. Invalid grades are rejected before anything is read. If another
// writer updates the card concurrently the grade is recomputed from the fresh
// state, up to the configured number of retries.
func (s *Service) Grade(ctx context.Context, userID, cardID int64, grade srs.Grade) (*domain.Flashcard, error) {
	if err := grade.Validate(); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		card, err := s.store.GetFlashcard(ctx, userID, cardID)
		if err != nil {
			return nil, err
		}

		now := s.Now()
		next, err := s.params.Next(card.ReviewState, grade, now)
		if err != nil {
			return nil, err
		}

		entry := &domain.ReviewLog{Grade: int(grade), ReviewedAt: now}
		err = s.store.RecordReview(ctx, card, next, entry)
		switch {
		case err == nil:
			s.logger.Debug("card graded",
				"user_id", userID,
				"card_id", cardID,
				"grade", int(grade),
				"interval", next.Interval,
				"ease_factor", next.EaseFactor,
			)
			return card, nil
		case errors.Is(err, storage.ErrConflict) && attempt < s.maxRetries:
			s.logger.Debug("review conflict, retrying", "card_id", cardID, "attempt", attempt)
			continue
		case errors.Is(err, storage.ErrConflict):
			return nil, fmt.Errorf("%w: card %d", ErrTooManyConflicts, cardID)
		default:
			return nil, err
		}
	}
}

// Stats summarises a user's progress.
type Stats struct {
	TotalCards    int `json:"total_cards"`
	DueNow        int `json:"due_now"`
	NewCards      int `json:"new_cards"`
	MasteredCards int `json:"mastered_cards"` // interval > 30 days
	ReviewedToday int `json:"reviewed_today"`
	TotalReviews  int `json:"total_reviews"`
	Accuracy      int `json:"accuracy"` // percentage of passing grades
	StreakDays    int `json:"streak_days"`
}

// Stats computes progress statistics. Days are UTC calendar days.
func (s *Service) Stats(ctx context.Context, userID int64) (*Stats, error) {
	cards, err := s.store.ListFlashcards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list flashcards: %w", err)
	}
	logs, err := s.store.ListReviewLogs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list review logs: %w", err)
	}

	now := s.Now().UTC()
	today := now.Truncate(24 * time.Hour)

	stats := &Stats{
		TotalCards:   len(cards),
		DueNow:       srs.CountDue(cards, now),
		TotalReviews: len(logs),
	}
	for _, c := range cards {
		if c.LastReview == nil {
			stats.NewCards++
		}
		if c.Interval > masteredInterval {
			stats.MasteredCards++
		}
	}

	passed := 0
	reviewedToday := make(map[int64]bool)
	reviewDates := make(map[string]bool)
	for _, l := range logs {
		if srs.Grade(l.Grade).Passed() {
			passed++
		}
		at := l.ReviewedAt.UTC()
		if !at.Before(today) {
			reviewedToday[l.CardID] = true
		}
		reviewDates[at.Format(time.DateOnly)] = true
	}
	stats.ReviewedToday = len(reviewedToday)
	if len(logs) > 0 {
		stats.Accuracy = passed * 100 / len(logs)
	}
	stats.StreakDays = calculateStreak(reviewDates, today)

	return stats, nil
}

// calculateStreak counts consecutive days with reviews ending today or yesterday.
func calculateStreak(reviewDates map[string]bool, today time.Time) int {
	day := today
	if !reviewDates[day.Format(time.DateOnly)] {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for reviewDates[day.Format(time.DateOnly)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
