package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	target, err := h.store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	if target == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if !canViewUser(actor, target) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": target})
}

// DisableUser marks a user inactive by direct administrative action
// @Summary Disable a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /v1/users/{id}/disable [patch]
func (h *Handler) DisableUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.accounts.DisableUser(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user disabled"})
}

func (h *Handler) EnableUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.accounts.EnableUser(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "user enabled"})
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.accounts.ChangeRole(r.Context(), actor, chi.URLParam(r, "id"), req.Role); err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "role updated"})
}

func (h *Handler) AssignOrganization(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req struct {
		OrganizationID string `json:"organization_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.accounts.AssignOrganization(r.Context(), actor, chi.URLParam(r, "id"), req.OrganizationID); err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "organization updated"})
}

func (h *Handler) ResendInvite(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.accounts.ResendInvite(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "invite sent"})
}

func (h *Handler) SendPasswordSetup(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	if err := h.accounts.SendPasswordSetup(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password setup link sent"})
}

func (h *Handler) ListUserCertificates(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	target, err := h.store.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	if target == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if !canViewUser(actor, target) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	certs, err := h.store.ListUserCertificates(r.Context(), target.ID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"certificates": certs})
}

func (h *Handler) ListMyCertificates(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	certs, err := h.store.ListUserCertificates(r.Context(), actor.ID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"certificates": certs})
}
