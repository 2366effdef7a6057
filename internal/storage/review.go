package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/conorfennell/mindzap/internal/domain"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

var (
	_ queryer = (*sqlx.DB)(nil)
	_ queryer = (*sqlx.Tx)(nil)
)

// GetReviewState returns the scheduling state of a card.
func (db *DB) GetReviewState(ctx context.Context, userID, cardID int64) (domain.ReviewState, error) {
	c, err := db.GetFlashcard(ctx, userID, cardID)
	if err != nil {
		return domain.ReviewState{}, err
	}
	return c.ReviewState, nil
}

// PutReviewState overwrites the scheduling state of a card regardless of its
// version. Repeating the call with the same state is harmless.
func (db *DB) PutReviewState(ctx context.Context, userID, cardID int64, state domain.ReviewState) error {
	res, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE flashcards
		SET interval_days = ?, repetitions = ?, ease_factor = ?, due_date = ?, version = version + 1
		WHERE id = ? AND user_id = ?
	`), state.Interval, state.Repetitions, state.EaseFactor, state.DueDate.UTC(), cardID, userID)
	if err != nil {
		return fmt.Errorf("failed to save review state for flashcard %d: %w", cardID, err)
	}
	return expectOne(res, ErrCardNotFound)
}

// RecordReview stores the graded state of card and appends entry to the review
// log in one transaction. The write only applies if the card is still at
// card.Version; otherwise ErrConflict is returned and nothing changes.
// On success card carries the new state and version.
func (db *DB) RecordReview(ctx context.Context, card *domain.Flashcard, next domain.ReviewState, entry *domain.ReviewLog) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	reviewedAt := entry.ReviewedAt.UTC()
	res, err := tx.ExecContext(ctx, db.rebind(`
		UPDATE flashcards
		SET interval_days = ?, repetitions = ?, ease_factor = ?, due_date = ?, last_review = ?,
			version = version + 1
		WHERE id = ? AND user_id = ? AND version = ?
	`), next.Interval, next.Repetitions, next.EaseFactor, next.DueDate.UTC(), reviewedAt,
		card.ID, card.UserID, card.Version)
	if err != nil {
		return fmt.Errorf("failed to update review state for flashcard %d: %w", card.ID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	} else if n == 0 {
		if _, err := db.getFlashcard(ctx, tx, card.UserID, card.ID); err != nil {
			return err
		}
		return ErrConflict
	}

	entry.CardID = card.ID
	entry.UserID = card.UserID
	entry.Interval = next.Interval
	entry.EaseFactor = next.EaseFactor
	entry.ReviewedAt = reviewedAt
	err = tx.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO review_logs (card_id, user_id, grade, interval_days, ease_factor, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), entry.CardID, entry.UserID, entry.Grade, entry.Interval, entry.EaseFactor, entry.ReviewedAt).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert review log for flashcard %d: %w", card.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review of flashcard %d: %w", card.ID, err)
	}

	card.ReviewState = next
	card.LastReview = &reviewedAt
	card.Version++
	return nil
}

// ListReviewLogs returns the user's review history, oldest first.
func (db *DB) ListReviewLogs(ctx context.Context, userID int64) ([]domain.ReviewLog, error) {
	var logs []domain.ReviewLog
	err := db.conn.SelectContext(ctx, &logs, db.rebind(`
		SELECT id, card_id, user_id, grade, interval_days, ease_factor, reviewed_at
		FROM review_logs WHERE user_id = ? ORDER BY reviewed_at, id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list review logs for user %d: %w", userID, err)
	}
	for i := range logs {
		logs[i].ReviewedAt = logs[i].ReviewedAt.UTC()
	}
	return logs, nil
}
