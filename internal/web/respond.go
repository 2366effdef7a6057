package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/conorfennell/mindzap/internal/auth"
	"github.com/conorfennell/mindzap/internal/quiz"
	"github.com/conorfennell/mindzap/internal/review"
	"github.com/conorfennell/mindzap/internal/srs"
	"github.com/conorfennell/mindzap/internal/storage"
	"github.com/conorfennell/mindzap/internal/validate"
)

const maxBodyBytes = 1 << 20

// httpError is an error with a status code and a message safe to show clients.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps err to a status code and writes it as {"message": ...}.
// Unexpected errors are logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var he *httpError
	switch {
	case errors.As(err, &he):
		writeMessage(w, he.status, he.msg)
	case errors.Is(err, storage.ErrCardNotFound):
		writeMessage(w, http.StatusNotFound, "Flashcard not found.")
	case errors.Is(err, storage.ErrQuizNotFound):
		writeMessage(w, http.StatusNotFound, "Quiz not found.")
	case errors.Is(err, storage.ErrUserNotFound):
		writeMessage(w, http.StatusNotFound, "User not found.")
	case errors.Is(err, storage.ErrUsernameTaken):
		writeMessage(w, http.StatusConflict, "Username (email) already taken.")
	case errors.Is(err, review.ErrTooManyConflicts):
		writeMessage(w, http.StatusConflict, "The flashcard is being reviewed elsewhere, try again.")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid username or password.")
	case errors.Is(err, auth.ErrInvalidToken):
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token.")
	case errors.Is(err, srs.ErrInvalidGrade),
		errors.Is(err, quiz.ErrInvalidQuiz),
		errors.Is(err, quiz.ErrAnswerCount):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID(r.Context()),
			"error", err,
		)
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("Request body is required.")
		}
		return badRequest("Invalid JSON: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return badRequest("%v", err)
	}
	return nil
}

// pathID parses the {id} path value.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("Invalid ID %q.", r.PathValue("id"))
	}
	return id, nil
}
