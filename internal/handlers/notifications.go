package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"learnhub-backend/internal/authz"
	"learnhub-backend/internal/natscreds"
	"learnhub-backend/internal/notify"
)

const notificationPageSize = 50

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	notifications, err := h.store.ListUserNotifications(r.Context(), actor.ID, notificationPageSize)
	if err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

type announcementRequest struct {
	OrgID   string   `json:"org_id"`
	UserIDs []string `json:"user_ids"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
}

// CreateAnnouncement fans a notification out to an organization's users or
// an explicit recipient list. Addressing arbitrary user IDs is reserved for
// privileged roles; org admins may only address their own organization.
// @Summary Send an announcement
// @Tags notifications
// @Accept json
// @Produce json
// @Param announcement body announcementRequest true "Announcement"
// @Success 200 {object} notify.Result
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /v1/notifications [post]
func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	var req announcementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	var recipients []string
	switch {
	case req.OrgID != "":
		if !canManageOrganizationUsers(actor, req.OrgID) {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		users, err := h.store.ListOrganizationUsers(r.Context(), req.OrgID)
		if err != nil {
			serviceError(w, err)
			return
		}
		for _, u := range users {
			recipients = append(recipients, u.ID)
		}
	case len(req.UserIDs) > 0:
		if !authz.Privileged(actor.Role) {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		recipients = req.UserIDs
	default:
		respondError(w, http.StatusBadRequest, "org_id or user_ids required")
		return
	}

	result, err := h.notifier.Fanout(r.Context(), actor.ID, recipients, "announcement", req.Title, req.Body)
	if err != nil {
		serviceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	marked, err := h.store.MarkNotificationRead(r.Context(), chi.URLParam(r, "id"), actor.ID)
	if err != nil {
		serviceError(w, err)
		return
	}
	if !marked {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "marked read"})
}

// NotificationCredentials issues short-lived NATS credentials scoped to the
// caller's own live notification subject.
func (h *Handler) NotificationCredentials(w http.ResponseWriter, r *http.Request) {
	actor, ok := caller(w, r)
	if !ok {
		return
	}

	if h.creds == nil {
		respondError(w, http.StatusServiceUnavailable, "notification credentials not configured")
		return
	}

	seed, publicKey, err := natscreds.GenerateUserKeyPair()
	if err != nil {
		serviceError(w, err)
		return
	}

	token, expiresAt, err := h.creds.IssueNotificationJWT(actor.ID, publicKey, 24*time.Hour)
	if err != nil {
		serviceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"creds":      natscreds.BuildCredsFile(token, seed),
		"subject":    notify.SubjectFor(actor.ID),
		"expires_at": expiresAt,
	})
}
