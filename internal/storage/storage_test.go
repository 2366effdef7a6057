package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/mindzap/internal/domain"
)

var now = time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "mindzap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, db *DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username, PasswordHash: "hash", FullName: "Test User", Country: "IE"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	return u
}

func newTestCard(t *testing.T, db *DB, userID int64, question string) *domain.Flashcard {
	t.Helper()
	c := &domain.Flashcard{UserID: userID, Question: question, Answer: "answer to " + question, CreatedAt: now}
	require.NoError(t, db.CreateFlashcard(context.Background(), c))
	return c
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	require.Error(t, err)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:a.db?mode=rwc"))
	assert.Equal(t, "a.db?_pragma=journal_mode(wal)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		sqliteDSN("a.db?_pragma=journal_mode(wal)"))
	assert.Equal(t, "a.db?_pragma=busy_timeout(100)&_pragma=foreign_keys(1)",
		sqliteDSN("a.db?_pragma=busy_timeout(100)"))
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		sqliteDSN("a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"))
}

func TestOpen_ExtraPragmaKeepsCascades(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "wal.db")+"?_pragma=journal_mode(wal)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	u := newTestUser(t, db, "ada@example.com")
	c := newTestCard(t, db, u.ID, "q")
	next := domain.ReviewState{Interval: 1, Repetitions: 1, EaseFactor: 2.5, DueDate: now.Add(24 * time.Hour)}
	require.NoError(t, db.RecordReview(ctx, c, next, &domain.ReviewLog{Grade: 4, ReviewedAt: now}))

	require.NoError(t, db.DeleteFlashcard(ctx, u.ID, c.ID))
	logs, err := db.ListReviewLogs(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	u := newTestUser(t, db, "ada@example.com")
	assert.NotZero(t, u.ID)

	dup := &domain.User{Username: "ada@example.com", PasswordHash: "x"}
	require.ErrorIs(t, db.CreateUser(ctx, dup), ErrUsernameTaken)

	got, err := db.FindUserByUsername(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Test User", got.FullName)

	_, err = db.FindUserByUsername(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)
	_, err = db.FindUserByID(ctx, 999)
	require.ErrorIs(t, err, ErrUserNotFound)

	country := "FR"
	updated, err := db.UpdateProfile(ctx, u.ID, domain.ProfileUpdate{Country: &country})
	require.NoError(t, err)
	assert.Equal(t, "FR", updated.Country)
	assert.Equal(t, "Test User", updated.FullName)

	newTestUser(t, db, "bob@example.com")
	taken := "bob@example.com"
	_, err = db.UpdateCredentials(ctx, u.ID, &taken, nil)
	require.ErrorIs(t, err, ErrUsernameTaken)

	name, hash := "ada@lovelace.org", "new-hash"
	updated, err = db.UpdateCredentials(ctx, u.ID, &name, &hash)
	require.NoError(t, err)
	assert.Equal(t, name, updated.Username)

	got, err = db.FindUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, name, got.Username)
	assert.Equal(t, "new-hash", got.PasswordHash)
}

func TestFlashcards(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	ada := newTestUser(t, db, "ada@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	c := newTestCard(t, db, ada.ID, "2+2?")
	assert.Equal(t, int64(1), c.Version)
	assert.Equal(t, domain.NewReviewState(now), c.ReviewState)

	got, err := db.GetFlashcard(ctx, ada.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "2+2?", got.Question)
	assert.Equal(t, 1, got.Interval)
	assert.Equal(t, 2.5, got.EaseFactor)
	assert.True(t, got.DueDate.Equal(now))
	assert.Nil(t, got.LastReview)

	_, err = db.GetFlashcard(ctx, bob.ID, c.ID)
	require.ErrorIs(t, err, ErrCardNotFound, "cards are scoped to their owner")

	newTestCard(t, db, ada.ID, "capital of France?")
	newTestCard(t, db, bob.ID, "bob's card")
	cards, err := db.ListFlashcards(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, c.ID, cards[0].ID)

	got.Question, got.Hash = "2+3?", "abc"
	require.NoError(t, db.UpdateFlashcardContent(ctx, got))
	byHash, err := db.FindFlashcardByHash(ctx, ada.ID, "abc")
	require.NoError(t, err)
	assert.Equal(t, "2+3?", byHash.Question)
	_, err = db.FindFlashcardByHash(ctx, bob.ID, "abc")
	require.ErrorIs(t, err, ErrCardNotFound)

	require.ErrorIs(t, db.DeleteFlashcard(ctx, bob.ID, c.ID), ErrCardNotFound)
	require.NoError(t, db.DeleteFlashcard(ctx, ada.ID, c.ID))
	_, err = db.GetFlashcard(ctx, ada.ID, c.ID)
	require.ErrorIs(t, err, ErrCardNotFound)
}

func TestReviewState(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := newTestUser(t, db, "ada@example.com")
	c := newTestCard(t, db, u.ID, "q")

	state := domain.ReviewState{Interval: 6, Repetitions: 2, EaseFactor: 2.6, DueDate: now.Add(6 * 24 * time.Hour)}
	require.NoError(t, db.PutReviewState(ctx, u.ID, c.ID, state))
	require.NoError(t, db.PutReviewState(ctx, u.ID, c.ID, state))

	got, err := db.GetReviewState(ctx, u.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, state.Interval, got.Interval)
	assert.Equal(t, state.Repetitions, got.Repetitions)
	assert.InDelta(t, state.EaseFactor, got.EaseFactor, 1e-9)
	assert.True(t, state.DueDate.Equal(got.DueDate))

	_, err = db.GetReviewState(ctx, u.ID, 4242)
	require.ErrorIs(t, err, ErrCardNotFound)
	require.ErrorIs(t, db.PutReviewState(ctx, u.ID, 4242, state), ErrCardNotFound)
}

func TestRecordReview(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := newTestUser(t, db, "ada@example.com")
	c := newTestCard(t, db, u.ID, "q")

	stale := *c
	next := domain.ReviewState{Interval: 1, Repetitions: 1, EaseFactor: 2.5, DueDate: now.Add(24 * time.Hour)}
	entry := &domain.ReviewLog{Grade: 4, ReviewedAt: now}
	require.NoError(t, db.RecordReview(ctx, c, next, entry))
	assert.Equal(t, int64(2), c.Version)
	assert.Equal(t, next, c.ReviewState)
	assert.NotZero(t, entry.ID)

	err := db.RecordReview(ctx, &stale, next, &domain.ReviewLog{Grade: 4, ReviewedAt: now})
	require.ErrorIs(t, err, ErrConflict)

	missing := domain.Flashcard{ID: 999, UserID: u.ID, Version: 1}
	err = db.RecordReview(ctx, &missing, next, &domain.ReviewLog{Grade: 4, ReviewedAt: now})
	require.ErrorIs(t, err, ErrCardNotFound)

	logs, err := db.ListReviewLogs(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1, "the conflicting review must not be logged")
	assert.Equal(t, 4, logs[0].Grade)
	assert.Equal(t, c.ID, logs[0].CardID)
	assert.True(t, logs[0].ReviewedAt.Equal(now))

	got, err := db.GetFlashcard(ctx, u.ID, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastReview)
	assert.True(t, got.LastReview.Equal(now))

	require.NoError(t, db.DeleteFlashcard(ctx, u.ID, c.ID))
	logs, err = db.ListReviewLogs(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, logs, "deleting a card deletes its review log")
}

func TestRecordReview_ConcurrentWritersConflict(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := newTestUser(t, db, "ada@example.com")
	c := newTestCard(t, db, u.ID, "q")

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			card := *c
			next := domain.ReviewState{Interval: 1, Repetitions: 1, EaseFactor: 2.5, DueDate: now}
			err := db.RecordReview(ctx, &card, next, &domain.ReviewLog{Grade: 5, ReviewedAt: now})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrConflict)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	logs, err := db.ListReviewLogs(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestQuizzes(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := newTestUser(t, db, "ada@example.com")
	other := newTestUser(t, db, "bob@example.com")

	quiz := &domain.Quiz{
		UserID: u.ID,
		Title:  "Capitals",
		Questions: []domain.QuizQuestion{
			{Prompt: "France?", Options: []string{"Paris", "Lyon"}, Answer: 0},
			{Prompt: "Italy?", Options: []string{"Milan", "Rome", "Turin"}, Answer: 1},
		},
	}
	require.NoError(t, db.CreateQuiz(ctx, quiz))
	assert.NotZero(t, quiz.ID)
	assert.NotZero(t, quiz.Questions[1].ID)

	got, err := db.GetQuiz(ctx, u.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Capitals", got.Title)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, []string{"Milan", "Rome", "Turin"}, got.Questions[1].Options)
	assert.Equal(t, 1, got.Questions[1].Answer)

	_, err = db.GetQuiz(ctx, other.ID, quiz.ID)
	require.ErrorIs(t, err, ErrQuizNotFound)

	empty := &domain.Quiz{UserID: u.ID, Title: "Empty"}
	require.NoError(t, db.CreateQuiz(ctx, empty))
	list, err := db.ListQuizzes(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Len(t, list[0].Questions, 2)
	assert.Empty(t, list[1].Questions)

	require.NoError(t, db.CreateQuizAttempt(ctx, &domain.QuizAttempt{QuizID: quiz.ID, UserID: u.ID, Correct: 1, Total: 2}))
	require.NoError(t, db.CreateQuizAttempt(ctx, &domain.QuizAttempt{QuizID: quiz.ID, UserID: u.ID, Correct: 2, Total: 2}))
	stats, err := db.QuizStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizStats{Attempts: 2, Answered: 4, Correct: 3, Wrong: 1}, *stats)

	stats, err = db.QuizStats(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizStats{}, *stats)

	require.ErrorIs(t, db.DeleteQuiz(ctx, other.ID, quiz.ID), ErrQuizNotFound)
	require.NoError(t, db.DeleteQuiz(ctx, u.ID, quiz.ID))
	stats, err = db.QuizStats(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.Attempts)
}

func TestSources(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	u := newTestUser(t, db, "ada@example.com")

	_, err := db.FindSource(ctx, u.ID, "/decks")
	require.ErrorIs(t, err, ErrSourceNotFound)

	id, err := db.InsertSource(ctx, u.ID, "/decks", SourceLocal)
	require.NoError(t, err)

	s, err := db.FindSource(ctx, u.ID, "/decks")
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Nil(t, s.LastScanned)

	require.NoError(t, db.TouchSource(ctx, id, now))
	sources, err := db.ListSources(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	require.NotNil(t, sources[0].LastScanned)
	assert.True(t, sources[0].LastScanned.Equal(now))

	sourceID := id
	c := &domain.Flashcard{UserID: u.ID, Question: "q", Answer: "a", SourceID: &sourceID}
	require.NoError(t, db.CreateFlashcard(ctx, c))
	cards, err := db.ListFlashcardsBySource(ctx, id)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	require.NotNil(t, cards[0].SourceID)
	assert.Equal(t, id, *cards[0].SourceID)
}
