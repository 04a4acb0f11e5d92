package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/linkstash/linkstash/db"
	"github.com/linkstash/linkstash/models"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// handleRegister creates an account and returns an access token.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondValidationError(w, "email", "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		respondValidationError(w, "password", "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			respondValidationError(w, "email", "email already registered")
			return
		}
		slog.Error("failed to create user", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// handleLogin verifies credentials and returns an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}
