package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/mindzap/internal/domain"
)

// questionRow is a quiz question as stored, options still JSON-encoded.
type questionRow struct {
	domain.QuizQuestion
	Options string `db:"options"`
}

func (r questionRow) decode() (domain.QuizQuestion, error) {
	q := r.QuizQuestion
	if err := json.Unmarshal([]byte(r.Options), &q.Options); err != nil {
		return q, fmt.Errorf("failed to decode options of question %d: %w", q.ID, err)
	}
	return q, nil
}

// CreateQuiz inserts the quiz and its questions in one transaction and sets their IDs.
func (db *DB) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO quizzes (user_id, title, description, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), quiz.UserID, quiz.Title, quiz.Description, quiz.CreatedAt.UTC()).Scan(&quiz.ID)
	if err != nil {
		return fmt.Errorf("failed to insert quiz for user %d: %w", quiz.UserID, err)
	}

	insertQuestion := db.rebind(`
		INSERT INTO quiz_questions (quiz_id, position, prompt, options, answer_index)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`)
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		q.QuizID = quiz.ID
		q.Position = i
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("failed to encode options of question %d: %w", i, err)
		}
		err = tx.QueryRowxContext(ctx, insertQuestion, q.QuizID, q.Position, q.Prompt, string(options), q.Answer).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("failed to insert question %d of quiz %d: %w", i, quiz.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quiz: %w", err)
	}
	return nil
}

// GetQuiz returns ErrQuizNotFound when the quiz does not exist or belongs to another user.
func (db *DB) GetQuiz(ctx context.Context, userID, id int64) (*domain.Quiz, error) {
	var quiz domain.Quiz
	err := db.conn.GetContext(ctx, &quiz, db.rebind(`
		SELECT id, user_id, title, description, created_at FROM quizzes WHERE id = ? AND user_id = ?
	`), id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz %d: %w", id, err)
	}
	quiz.CreatedAt = quiz.CreatedAt.UTC()

	var rows []questionRow
	err = db.conn.SelectContext(ctx, &rows, db.rebind(`
		SELECT id, quiz_id, position, prompt, options, answer_index
		FROM quiz_questions WHERE quiz_id = ? ORDER BY position
	`), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions of quiz %d: %w", id, err)
	}
	quiz.Questions = make([]domain.QuizQuestion, 0, len(rows))
	for _, r := range rows {
		q, err := r.decode()
		if err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return &quiz, nil
}

// ListQuizzes returns the user's quizzes with their questions, oldest first.
func (db *DB) ListQuizzes(ctx context.Context, userID int64) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	err := db.conn.SelectContext(ctx, &quizzes, db.rebind(`
		SELECT id, user_id, title, description, created_at FROM quizzes WHERE user_id = ? ORDER BY id
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes for user %d: %w", userID, err)
	}

	var rows []questionRow
	err = db.conn.SelectContext(ctx, &rows, db.rebind(`
		SELECT qq.id, qq.quiz_id, qq.position, qq.prompt, qq.options, qq.answer_index
		FROM quiz_questions qq JOIN quizzes q ON q.id = qq.quiz_id
		WHERE q.user_id = ? ORDER BY qq.quiz_id, qq.position
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz questions for user %d: %w", userID, err)
	}

	byQuiz := make(map[int64][]domain.QuizQuestion, len(quizzes))
	for _, r := range rows {
		q, err := r.decode()
		if err != nil {
			return nil, err
		}
		byQuiz[q.QuizID] = append(byQuiz[q.QuizID], q)
	}
	for i := range quizzes {
		quizzes[i].CreatedAt = quizzes[i].CreatedAt.UTC()
		quizzes[i].Questions = byQuiz[quizzes[i].ID]
		if quizzes[i].Questions == nil {
			quizzes[i].Questions = []domain.QuizQuestion{}
		}
	}
	return quizzes, nil
}

// DeleteQuiz removes the quiz with its questions and attempts.
func (db *DB) DeleteQuiz(ctx context.Context, userID, id int64) error {
	res, err := db.conn.ExecContext(ctx, db.rebind(`DELETE FROM quizzes WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete quiz %d: %w", id, err)
	}
	return expectOne(res, ErrQuizNotFound)
}

// CreateQuizAttempt records a scored attempt and sets its ID.
func (db *DB) CreateQuizAttempt(ctx context.Context, a *domain.QuizAttempt) error {
	if a.TakenAt.IsZero() {
		a.TakenAt = time.Now().UTC()
	}
	err := db.conn.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO quiz_attempts (quiz_id, user_id, correct, total, taken_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`), a.QuizID, a.UserID, a.Correct, a.Total, a.TakenAt.UTC()).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to insert attempt of quiz %d: %w", a.QuizID, err)
	}
	return nil
}

// QuizStats sums up every attempt of the user.
func (db *DB) QuizStats(ctx context.Context, userID int64) (*domain.QuizStats, error) {
	var stats domain.QuizStats
	err := db.conn.GetContext(ctx, &stats, db.rebind(`
		SELECT COUNT(*) AS attempts,
			COALESCE(SUM(total), 0) AS answered,
			COALESCE(SUM(correct), 0) AS correct
		FROM quiz_attempts WHERE user_id = ?
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute quiz stats for user %d: %w", userID, err)
	}
	stats.Wrong = stats.Answered - stats.Correct
	return &stats, nil
}
