package web

import (
	"net/http"

	"github.com/conorfennell/mindzap/internal/domain"
	"github.com/conorfennell/mindzap/internal/quiz"
)

type quizRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Questions   []quizQuestionRequest `json:"questions"`
}

type quizQuestionRequest struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

func (s *Server) handleCreateQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quizRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		q := &domain.Quiz{
			UserID:      session(r).UserID,
			Title:       req.Title,
			Description: req.Description,
			Questions:   make([]domain.QuizQuestion, 0, len(req.Questions)),
		}
		for _, qq := range req.Questions {
			q.Questions = append(q.Questions, domain.QuizQuestion{
				Prompt:  qq.Prompt,
				Options: qq.Options,
				Answer:  qq.Answer,
			})
		}
		if err := quiz.Validate(q); err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.db.CreateQuiz(r.Context(), q); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Quiz created successfully!",
			"id":      q.ID,
		})
	}
}

func (s *Server) handleListQuizzes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quizzes, err := s.db.ListQuizzes(r.Context(), session(r).UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if quizzes == nil {
			quizzes = []domain.Quiz{}
		}
		writeJSON(w, http.StatusOK, quizzes)
	}
}

func (s *Server) handleGetQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		q, err := s.db.GetQuiz(r.Context(), session(r).UserID, id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func (s *Server) handleDeleteQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.db.DeleteQuiz(r.Context(), session(r).UserID, id); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Quiz deleted.")
	}
}

type attemptRequest struct {
	Answers []int `json:"answers" validate:"required"`
}

type attemptResponse struct {
	ID int64 `json:"id"`
	quiz.Result
}

func (s *Server) handleQuizAttempt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req attemptRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		userID := session(r).UserID
		q, err := s.db.GetQuiz(r.Context(), userID, id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		res, err := quiz.Score(q, req.Answers)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		attempt := &domain.QuizAttempt{QuizID: q.ID, UserID: userID, Correct: res.Correct, Total: res.Total}
		if err := s.db.CreateQuizAttempt(r.Context(), attempt); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, attemptResponse{ID: attempt.ID, Result: res})
	}
}

func (s *Server) handleQuizStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.db.QuizStats(r.Context(), session(r).UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
