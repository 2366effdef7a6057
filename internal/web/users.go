package web

import (
	"errors"
	"net/http"

	"github.com/conorfennell/mindzap/internal/auth"
	"github.com/conorfennell/mindzap/internal/domain"
	"github.com/conorfennell/mindzap/internal/storage"
)

type registerRequest struct {
	Username    string `json:"username" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	FullName    string `json:"full_name" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Country     string `json:"country" validate:"required"`
}

func (s *Server) handleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		hash, err := auth.HashPassword(req.Password, s.bcryptCost)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		u := &domain.User{
			Username:     req.Username,
			PasswordHash: hash,
			FullName:     req.FullName,
			PhoneNumber:  req.PhoneNumber,
			Country:      req.Country,
		}
		if err := s.db.CreateUser(r.Context(), u); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.logger.Info("user registered", "user_id", u.ID)
		writeMessage(w, http.StatusCreated, "User registered successfully!")
	}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
	Token    string `json:"token"`
}

func (s *Server) handleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		u, err := s.db.FindUserByUsername(r.Context(), req.Username)
		if errors.Is(err, storage.ErrUserNotFound) {
			s.writeError(w, r, auth.ErrInvalidCredentials)
			return
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
			s.writeError(w, r, err)
			return
		}

		token, err := s.tokens.Issue(auth.Session{UserID: u.ID, Username: u.Username})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{
			Message:  "Login successful! Welcome, " + u.Username,
			Username: u.Username,
			UserID:   u.ID,
			Token:    token,
		})
	}
}

func (s *Server) handleGetProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.db.FindUserByID(r.Context(), session(r).UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u.Profile())
	}
}

// handleGetProfileByName only serves the caller's own profile.
func (s *Server) handleGetProfileByName() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.db.FindUserByUsername(r.Context(), r.PathValue("username"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if u.ID != session(r).UserID {
			writeMessage(w, http.StatusForbidden, "You can only view your own profile.")
			return
		}
		writeJSON(w, http.StatusOK, u.Profile())
	}
}

type profileUpdateRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	Country     *string `json:"country"`
}

func (s *Server) handleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req profileUpdateRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		u, err := s.db.UpdateProfile(r.Context(), session(r).UserID, domain.ProfileUpdate{
			FullName:    req.FullName,
			PhoneNumber: req.PhoneNumber,
			Country:     req.Country,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Profile updated successfully!",
			"profile": u.Profile(),
		})
	}
}

type credentialsRequest struct {
	NewUsername *string `json:"new_username" validate:"omitempty,email"`
	NewPassword *string `json:"new_password" validate:"omitempty,min=8"`
}

// handleUpdateCredentials changes the caller's username and/or password. A
// changed username invalidates nothing; tokens identify users by ID.
func (s *Server) handleUpdateCredentials() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decode(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
		if req.NewUsername == nil && req.NewPassword == nil {
			s.writeError(w, r, badRequest("new_username or new_password is required."))
			return
		}

		var hash *string
		if req.NewPassword != nil {
			h, err := auth.HashPassword(*req.NewPassword, s.bcryptCost)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			hash = &h
		}

		userID := session(r).UserID
		if _, err := s.db.UpdateCredentials(r.Context(), userID, req.NewUsername, hash); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.logger.Info("credentials updated", "user_id", userID)
		writeMessage(w, http.StatusOK, "Credentials updated successfully!")
	}
}
