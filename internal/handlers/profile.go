package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type updateProfileRequest struct {
	Name string `json:"name"`
}

// UpdateProfile lets the caller change their own display name. Rate limited
// per user, so a stuck client cannot hammer the table.
// @Summary Update own profile
// @Tags profile
// @Accept json
// @Produce json
// @Param profile body updateProfileRequest true "Profile fields"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 429 {object} map[string]string "Rate limit exceeded"
// @Security BearerAuth
// @Router /v1/profile [patch]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 255 {
		respondError(w, http.StatusBadRequest, "name must be 1-255 characters")
		return
	}

	if err := h.store.UpdateUserName(r.Context(), actor.ID, name); err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "profile updated"})
}
