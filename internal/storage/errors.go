package storage

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrCardNotFound   = errors.New("flashcard not found")
	ErrQuizNotFound   = errors.New("quiz not found")
	ErrSourceNotFound = errors.New("source not found")
	ErrUsernameTaken  = errors.New("username already taken")
	// ErrConflict means a versioned write lost a race with another writer.
	ErrConflict = errors.New("concurrent modification")
)
