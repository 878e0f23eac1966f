package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/apolzek/neosearch/internal/middleware"
	"github.com/apolzek/neosearch/internal/models"
	"github.com/apolzek/neosearch/internal/service"
)

// ImportHandler accepts a direct-upload JSON array of registries.
func (h *Handler) ImportHandler(rw http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(rw, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Error("Failed to read import payload", zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	count, err := h.service.ImportBatch(r.Context(), userID, payload, service.SourceUpload)
	if err != nil {
		h.writeServiceError(rw, err)
		return
	}

	h.writeJSON(rw, http.StatusCreated, models.ImportResponse{ImportedCount: count})
}

// ImportFromURLHandler fetches a JSON batch from a remote URL and imports it.
func (h *Handler) ImportFromURLHandler(rw http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(rw, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.ImportURLRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("Failed to decode import-url request", zap.Error(err))
		http.Error(rw, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	count, err := h.service.ImportFromURL(r.Context(), userID, req.URL)
	if err != nil {
		h.writeServiceError(rw, err)
		return
	}

	h.writeJSON(rw, http.StatusCreated, models.ImportResponse{ImportedCount: count})
}
