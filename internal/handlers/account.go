package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/chetan5734v/freelancer/internal/auth"
	"github.com/chetan5734v/freelancer/internal/models"
)

// SignupRequest represents the account registration request body.
type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// AuthResponse is returned by signup and signin.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles account registration. New accounts start with the
// welcome token grant already on their ledger.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !isValidUsername(req.Username) {
		h.Error(w, http.StatusBadRequest, "username must be 3-30 characters (letters, digits, _ . -)")
		return
	}
	if len(req.Password) < 8 {
		h.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.pg.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if existing != nil {
		h.Error(w, http.StatusConflict, "username already taken")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to process password")
		return
	}

	user, err := h.pg.CreateUser(r.Context(), sanitizeText(req.FirstName, 100), sanitizeText(req.LastName, 100), req.Username, hash)
	if err != nil {
		h.logger.Error().Err(err).Str("username", req.Username).Msg("failed to create user")
		h.Error(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	token, err := h.auth.Issue(user.Username)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.JSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// SigninRequest represents the login request body.
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signin handles login.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.pg.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		// Same response either way; existence of an account is not leaked.
		h.Error(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := h.auth.Issue(user.Username)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.JSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}
