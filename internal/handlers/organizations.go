package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"learnhub-backend/internal/models"
)

// CreateOrganization creates a new organization
// @Summary Create organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body models.CreateOrganizationInput true "Organization"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Validation error or slug taken"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /v1/organizations [post]
func (h *Handler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var input models.CreateOrganizationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	org, err := h.accounts.CreateOrganization(r.Context(), actor, input)
	if err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"organization": org})
}

func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	org, err := h.store.GetOrganizationByKey(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	if org == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if !canViewOrganization(actor, org.ID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"organization": org})
}

// DisableOrganization disables an organization and cascades to its users
// @Summary Disable organization
// @Tags organizations
// @Produce json
// @Param id path string true "Organization ID or slug"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /v1/organizations/{id}/disable [patch]
func (h *Handler) DisableOrganization(w http.ResponseWriter, r *http.Request) {
	h.setOrganizationActive(w, r, false)
}

func (h *Handler) EnableOrganization(w http.ResponseWriter, r *http.Request) {
	h.setOrganizationActive(w, r, true)
}

func (h *Handler) setOrganizationActive(w http.ResponseWriter, r *http.Request, active bool) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	org, err := h.accounts.SetOrganizationActive(r.Context(), actor, chi.URLParam(r, "id"), active)
	if err != nil {
		serviceError(w, err)
		return
	}

	message := "organization disabled"
	if active {
		message = "organization enabled"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message":      message,
		"organization": org,
	})
}

func (h *Handler) ListOrganizationUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	org, err := h.store.GetOrganizationByKey(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	if org == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if !canManageOrganizationUsers(actor, org.ID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	users, err := h.store.ListOrganizationUsers(r.Context(), org.ID)
	if err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// ExportOrganizationUsers streams the organization roster as CSV.
func (h *Handler) ExportOrganizationUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	org, err := h.store.GetOrganizationByKey(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		serviceError(w, err)
		return
	}
	if org == nil {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	if !canManageOrganizationUsers(actor, org.ID) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	users, err := h.store.ListOrganizationUsers(r.Context(), org.ID)
	if err != nil {
		serviceError(w, err)
		return
	}

	data, err := buildUserRosterCSV(users)
	if err != nil {
		serviceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", org.Slug+"-users.csv"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func buildUserRosterCSV(users []models.User) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write([]string{"id", "email", "name", "role", "is_active", "created_at"}); err != nil {
		return nil, err
	}
	for _, u := range users {
		record := []string{
			u.ID,
			u.Email,
			u.Name,
			u.Role,
			fmt.Sprintf("%t", u.IsActive),
			u.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		}
		if err := cw.Write(record); err != nil {
			return nil, err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
