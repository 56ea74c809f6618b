package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"learnhub-backend/internal/storage"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and returns a JWT token
// @Summary User login
// @Description Authenticates user with email and password, returns JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{} "Token and user data"
// @Failure 400 {object} map[string]string "Invalid request body or missing credentials"
// @Failure 401 {object} map[string]string "Invalid credentials or disabled account"
// @Failure 429 {object} map[string]string "Rate limit exceeded"
// @Router /v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		serviceError(w, err)
		return
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Inactive is unauthenticated, whatever the reason for the inactivity.
	if !user.IsActive {
		respondError(w, http.StatusUnauthorized, "account is disabled")
		return
	}

	token, err := h.tokens.GenerateToken(user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "logged in",
		"token":   token,
		"user":    user,
	})
}

// Logout acknowledges the logout; tokens are stateless and simply dropped
// by the client.
// @Summary User logout
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Security BearerAuth
// @Router /v1/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me returns the current authenticated user
// @Summary Get current user
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "User data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /v1/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := caller(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

type setupPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// SetupPassword consumes an invite or password-setup token and sets the
// account password. Every token failure reads the same to the client.
func (h *Handler) SetupPassword(w http.ResponseWriter, r *http.Request) {
	var req setupPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	tokenErrs := []error{
		storage.ErrInviteTokenNotFound,
		storage.ErrInviteTokenRevoked,
		storage.ErrInviteTokenExpired,
		storage.ErrInviteTokenUsed,
	}

	it, err := h.store.ConsumeInviteToken(r.Context(), req.Token)
	if err != nil {
		for _, tokenErr := range tokenErrs {
			if errors.Is(err, tokenErr) {
				respondError(w, http.StatusBadRequest, "invalid or expired token")
				return
			}
		}
		serviceError(w, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		serviceError(w, err)
		return
	}

	if err := h.store.SetUserPassword(r.Context(), it.UserID, string(hash)); err != nil {
		serviceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password set"})
}
