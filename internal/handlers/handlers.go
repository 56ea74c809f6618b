package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"learnhub-backend/internal/accounts"
	"learnhub-backend/internal/auth"
	"learnhub-backend/internal/authz"
	mw "learnhub-backend/internal/middleware"
	"learnhub-backend/internal/models"
	"learnhub-backend/internal/natscreds"
	"learnhub-backend/internal/notify"
	"learnhub-backend/internal/storage"
)

type Handler struct {
	store    *storage.Storage
	tokens   *auth.TokenManager
	accounts *accounts.Service
	notifier *notify.Notifier
	creds    *natscreds.Issuer
	limiter  mw.Limiter
}

func New(store *storage.Storage, tokens *auth.TokenManager, accountsSvc *accounts.Service, notifier *notify.Notifier, creds *natscreds.Issuer, limiter mw.Limiter) *Handler {
	return &Handler{
		store:    store,
		tokens:   tokens,
		accounts: accountsSvc,
		notifier: notifier,
		creds:    creds,
		limiter:  limiter,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(mw.RateLimitLogin(h.limiter))
			r.Post("/auth/login", h.Login)
		})
		r.Post("/auth/setup-password", h.SetupPassword)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(h.tokens, h.store))

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/me", h.Me)

			r.Get("/users/{id}", h.GetUser)
			r.Patch("/users/{id}/disable", h.DisableUser)
			r.Patch("/users/{id}/enable", h.EnableUser)
			r.Patch("/users/{id}/role", h.ChangeRole)
			r.Patch("/users/{id}/organization", h.AssignOrganization)
			r.Post("/users/{id}/resend-invite", h.ResendInvite)
			r.Post("/users/{id}/password-setup", h.SendPasswordSetup)
			r.Get("/users/{id}/certificates", h.ListUserCertificates)

			r.Post("/organizations", h.CreateOrganization)
			r.Get("/organizations/{id}", h.GetOrganization)
			r.Patch("/organizations/{id}/disable", h.DisableOrganization)
			r.Patch("/organizations/{id}/enable", h.EnableOrganization)
			r.Get("/organizations/{id}/users", h.ListOrganizationUsers)
			r.Get("/organizations/{id}/users/export", h.ExportOrganizationUsers)

			r.Get("/notifications", h.ListNotifications)
			r.Post("/notifications", h.CreateAnnouncement)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)
			r.Get("/notifications/credentials", h.NotificationCredentials)

			r.Get("/certificates", h.ListMyCertificates)

			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimitProfileUpdate(h.limiter))
				r.Patch("/profile", h.UpdateProfile)
			})
		})
	})
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	if err := h.store.Ping(); err != nil {
		respondError(w, http.StatusInternalServerError, "database unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// serviceError maps lifecycle errors onto the wire. Anything unknown is an
// internal error; the cause goes to the log, not the client.
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accounts.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, accounts.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, accounts.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrSlugTaken):
		respondError(w, http.StatusBadRequest, "organization slug already taken")
	default:
		log.Printf("ERROR %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// caller pulls the authenticated user; routes behind auth.Middleware always
// have one.
func caller(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.CallerFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return user, true
}

func canViewUser(c *models.User, target *models.User) bool {
	if authz.Privileged(c.Role) || c.ID == target.ID {
		return true
	}
	return c.Role == models.RoleOrgAdmin && c.OrgID != nil && target.InOrganization(*c.OrgID)
}

func canViewOrganization(c *models.User, orgID string) bool {
	return authz.Privileged(c.Role) || c.InOrganization(orgID)
}

func canManageOrganizationUsers(c *models.User, orgID string) bool {
	if authz.Privileged(c.Role) {
		return true
	}
	return c.Role == models.RoleOrgAdmin && c.InOrganization(orgID)
}
