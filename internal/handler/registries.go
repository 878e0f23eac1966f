package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/apolzek/neosearch/internal/access"
	"github.com/apolzek/neosearch/internal/middleware"
	"github.com/apolzek/neosearch/internal/models"
)

// AddHandler creates a single registry (a one-element import).
func (h *Handler) AddHandler(rw http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(rw, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var item models.ImportItem
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&item); err != nil {
		h.logger.Error("Failed to decode add request", zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	reg, err := h.service.Add(r.Context(), userID, item)
	if err != nil {
		h.writeServiceError(rw, err)
		return
	}

	h.writeJSON(rw, http.StatusCreated, reg.View())
}

// SelectHandler resolves a single registry by id (the share-link path) and
// records the visit.
func (h *Handler) SelectHandler(rw http.ResponseWriter, r *http.Request) {
	requester := access.Anonymous()
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		requester = access.User(userID)
	}

	registryID := chi.URLParam(r, "registryID")

	reg, err := h.service.Select(r.Context(), requester, registryID)
	if err != nil {
		h.writeServiceError(rw, err)
		return
	}

	h.writeJSON(rw, http.StatusOK, reg.View())
}

// EditHandler updates the mutable fields of an owned registry.
func (h *Handler) EditHandler(rw http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(rw, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var item models.ImportItem
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&item); err != nil {
		h.logger.Error("Failed to decode edit request", zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	registryID := chi.URLParam(r, "registryID")

	reg, err := h.service.Edit(r.Context(), userID, registryID, item)
	if err != nil {
		h.writeServiceError(rw, err)
		return
	}

	h.writeJSON(rw, http.StatusOK, reg.View())
}

// DeleteHandler soft-deletes an owned registry.
func (h *Handler) DeleteHandler(rw http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	registryID := chi.URLParam(r, "registryID")

	if err := h.service.Delete(r.Context(), userID, registryID); err != nil {
		h.writeServiceError(rw, err)
		return
	}

	rw.WriteHeader(http.StatusNoContent)
}
