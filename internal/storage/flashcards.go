package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/mindzap/internal/domain"
)

const flashcardColumns = `id, user_id, question, answer, context, content_hash, source_id,
	interval_days, repetitions, ease_factor, due_date, last_review, version, created_at`

// normalize converts driver-returned times to UTC.
func normalize(c *domain.Flashcard) {
	c.DueDate = c.DueDate.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	if c.LastReview != nil {
		t := c.LastReview.UTC()
		c.LastReview = &t
	}
}

// CreateFlashcard inserts c and sets its ID and Version. A zero review state
// is replaced with the defaults for a new card.
func (db *DB) CreateFlashcard(ctx context.Context, c *domain.Flashcard) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.ReviewState == (domain.ReviewState{}) {
		c.ReviewState = domain.NewReviewState(c.CreatedAt)
	}
	c.Version = 1

	err := db.conn.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO flashcards (user_id, question, answer, context, content_hash, source_id,
			interval_days, repetitions, ease_factor, due_date, last_review, version, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		c.UserID, c.Question, c.Answer, c.Context, c.Hash, c.SourceID,
		c.Interval, c.Repetitions, c.EaseFactor, c.DueDate.UTC(), c.LastReview, c.Version, c.CreatedAt.UTC(),
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert flashcard for user %d: %w", c.UserID, err)
	}
	return nil
}

// GetFlashcard returns ErrCardNotFound when the card does not exist or belongs to another user.
func (db *DB) GetFlashcard(ctx context.Context, userID, id int64) (*domain.Flashcard, error) {
	return db.getFlashcard(ctx, db.conn, userID, id)
}

func (db *DB) getFlashcard(ctx context.Context, q queryer, userID, id int64) (*domain.Flashcard, error) {
	var c domain.Flashcard
	err := q.GetContext(ctx, &c, db.rebind(`
		SELECT `+flashcardColumns+` FROM flashcards WHERE id = ? AND user_id = ?
	`), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get flashcard %d: %w", id, err)
	}
	normalize(&c)
	return &c, nil
}

// ListFlashcards returns every card of the user ordered by ID.
func (db *DB) ListFlashcards(ctx context.Context, userID int64) ([]domain.Flashcard, error) {
	var cards []domain.Flashcard
	err := db.conn.SelectContext(ctx, &cards, db.rebind(`
		SELECT `+flashcardColumns+` FROM flashcards WHERE user_id = ? ORDER BY id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcards for user %d: %w", userID, err)
	}
	for i := range cards {
		normalize(&cards[i])
	}
	return cards, nil
}

// ListFlashcardsBySource returns the cards imported from a source.
func (db *DB) ListFlashcardsBySource(ctx context.Context, sourceID int64) ([]domain.Flashcard, error) {
	var cards []domain.Flashcard
	err := db.conn.SelectContext(ctx, &cards, db.rebind(`
		SELECT `+flashcardColumns+` FROM flashcards WHERE source_id = ? ORDER BY id
	`), sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	for i := range cards {
		normalize(&cards[i])
	}
	return cards, nil
}

// FindFlashcardByHash looks a card up by its content hash within one user's deck.
func (db *DB) FindFlashcardByHash(ctx context.Context, userID int64, hash string) (*domain.Flashcard, error) {
	var c domain.Flashcard
	err := db.conn.GetContext(ctx, &c, db.rebind(`
		SELECT `+flashcardColumns+` FROM flashcards WHERE user_id = ? AND content_hash = ?
		ORDER BY id LIMIT 1
	`), userID, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to find flashcard by hash %s: %w", hash, err)
	}
	normalize(&c)
	return &c, nil
}

// UpdateFlashcardContent replaces question, answer, context and hash. The review state is kept.
func (db *DB) UpdateFlashcardContent(ctx context.Context, c *domain.Flashcard) error {
	res, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE flashcards SET question = ?, answer = ?, context = ?, content_hash = ?
		WHERE id = ? AND user_id = ?
	`), c.Question, c.Answer, c.Context, c.Hash, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("failed to update flashcard %d: %w", c.ID, err)
	}
	return expectOne(res, ErrCardNotFound)
}

// DeleteFlashcard removes the card together with its review log.
func (db *DB) DeleteFlashcard(ctx context.Context, userID, id int64) error {
	res, err := db.conn.ExecContext(ctx, db.rebind(`
		DELETE FROM flashcards WHERE id = ? AND user_id = ?
	`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard %d: %w", id, err)
	}
	return expectOne(res, ErrCardNotFound)
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
