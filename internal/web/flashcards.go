package web

import (
	"net/http"
	"strconv"

	"github.com/conorfennell/mindzap/internal/domain"
	"github.com/conorfennell/mindzap/internal/knol"
	"github.com/conorfennell/mindzap/internal/srs"
)

func (s *Server) handleListFlashcards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cards, err := s.db.ListFlashcards(r.Context(), session(r).UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if cards == nil {
			cards = []domain.Flashcard{}
		}
		writeJSON(w, http.StatusOK, cards)
	}
}

type flashcardRequest struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Context  string `json:"context"`
}

func (s *Server) handleCreateFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flashcardRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		card := &domain.Flashcard{
			UserID:   session(r).UserID,
			Question: req.Question,
			Answer:   req.Answer,
			Context:  req.Context,
		}
		knol.Stamp(card)
		if err := s.db.CreateFlashcard(r.Context(), card); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Flashcard added successfully!",
			"id":      card.ID,
		})
	}
}

func (s *Server) handleGetFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.db.GetFlashcard(r.Context(), session(r).UserID, id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleUpdateFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req flashcardRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.db.GetFlashcard(r.Context(), session(r).UserID, id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		card.Question, card.Answer, card.Context = req.Question, req.Answer, req.Context
		knol.Stamp(card)
		if err := s.db.UpdateFlashcardContent(r.Context(), card); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := s.db.DeleteFlashcard(r.Context(), session(r).UserID, id); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Flashcard deleted.")
	}
}

type reviewRequest struct {
	// Pointer so a missing grade is distinguished from grade 0.
	Grade *int `json:"grade" validate:"required"`
}

func (s *Server) handleReviewFlashcard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var req reviewRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		card, err := s.review.Grade(r.Context(), session(r).UserID, id, srs.Grade(*req.Grade))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

type dueResponse struct {
	Total int                `json:"total"`
	Cards []domain.Flashcard `json:"cards"`
}

func (s *Server) handleDueQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				s.writeError(w, r, badRequest("limit must be a non-negative integer."))
				return
			}
			limit = n
		}
		cards, total, err := s.review.Queue(r.Context(), session(r).UserID, limit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, dueResponse{Total: total, Cards: cards})
	}
}

func (s *Server) handleReviewStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.review.Stats(r.Context(), session(r).UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
