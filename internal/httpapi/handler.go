// Package httpapi exposes the digest service over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"SportDigest/internal/domain"
	"SportDigest/internal/infrastructure/storage"
	"SportDigest/internal/usecase"
)

// Handler holds the service dependencies behind the HTTP surface.
type Handler struct {
	service *usecase.DigestService
	archive *storage.Archive
	logger  *slog.Logger
}

// NewHandler creates the API handler. archive may be nil when no archive
// database is configured.
func NewHandler(service *usecase.DigestService, archive *storage.Archive, logger *slog.Logger) *Handler {
	return &Handler{service: service, archive: archive, logger: logger}
}

// Router builds the chi router with the standard middleware chain.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Post("/configure-interests", h.configureInterests)
	r.Post("/generate-digest", h.generateDigest)
	r.Get("/preferences/{userID}", h.getPreferences)
	r.Put("/preferences/{userID}", h.putPreferences)
	r.Delete("/preferences/{userID}", h.deletePreferences)
	r.Get("/digest-history/{userID}", h.digestHistory)
	r.Get("/scheduled-jobs", h.scheduledJobs)
	if h.archive != nil {
		r.Get("/digest-archive/{userID}", h.digestArchive)
	}

	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type preferencesRequest struct {
	UserID       string   `json:"user_id"`
	Teams        []string `json:"teams"`
	Players      []string `json:"players"`
	Leagues      []string `json:"leagues"`
	DeliveryTime string   `json:"delivery_time"`
	Timezone     string   `json:"timezone"`
}

func (req preferencesRequest) profile() domain.UserProfile {
	return domain.UserProfile{
		UserID:       req.UserID,
		Teams:        req.Teams,
		Players:      req.Players,
		Leagues:      req.Leagues,
		DeliveryTime: req.DeliveryTime,
		Timezone:     req.Timezone,
	}
}

func (h *Handler) configureInterests(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.service.SaveProfile(r.Context(), req.profile())
	if err != nil {
		h.serviceError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"user_id": saved.UserID,
		"message": "preferences saved and digest scheduled",
	})
}

type generateRequest struct {
	UserID string `json:"user_id"`
}

func (h *Handler) generateDigest(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	digest, err := h.service.GenerateDigest(r.Context(), req.UserID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"user_id":      req.UserID,
		"digest":       digest.Text,
		"generated_at": digest.GeneratedAt,
		"invocations":  digest.Invocations,
	})
}

func (h *Handler) getPreferences(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.Profile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.serviceError(w, err)
		return
	}

	profile.History = nil // history has its own endpoint
	JSON(w, http.StatusOK, profile)
}

func (h *Handler) putPreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = chi.URLParam(r, "userID")

	if _, err := h.service.Profile(r.Context(), req.UserID); err != nil {
		h.serviceError(w, err)
		return
	}

	saved, err := h.service.SaveProfile(r.Context(), req.profile())
	if err != nil {
		h.serviceError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"user_id": saved.UserID,
		"message": "preferences updated",
	})
}

func (h *Handler) deletePreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.service.DeleteProfile(r.Context(), userID); err != nil {
		h.serviceError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"user_id": userID,
		"message": "preferences deleted and digest unscheduled",
	})
}

func (h *Handler) digestHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := queryLimit(r, 10)

	history, err := h.service.History(r.Context(), userID, limit)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"history": history,
		"count":   len(history),
	})
}

func (h *Handler) scheduledJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.service.ListScheduledJobs()
	JSON(w, http.StatusOK, map[string]any{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

func (h *Handler) digestArchive(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := queryLimit(r, 10)

	entries, err := h.archive.Recent(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("archive read failed", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "archive unavailable")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"entries": entries,
		"count":   len(entries),
	})
}

// serviceError maps service failures onto HTTP status codes.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	var verr *usecase.ValidationError
	switch {
	case errors.Is(err, usecase.ErrUserNotFound):
		Error(w, http.StatusNotFound, "user not found")
	case errors.As(err, &verr):
		Error(w, http.StatusBadRequest, verr.Error())
	default:
		h.logger.Error("request failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}
