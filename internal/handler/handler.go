package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/apolzek/neosearch/internal/middleware"
	"github.com/apolzek/neosearch/internal/models"
	"github.com/apolzek/neosearch/internal/service"
)

type Handler struct {
	service *service.RegistryService
	logger  *zap.Logger
	auth    *middleware.Auth
}

func NewHandler(service *service.RegistryService, logger *zap.Logger, auth *middleware.Auth) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		auth:    auth,
	}
}

func (h *Handler) writeJSON(rw http.ResponseWriter, status int, payload interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	if err := json.NewEncoder(rw).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Visibility failures arrive here as ErrNotFound already, so a private
// record is indistinguishable from an absent one.
func (h *Handler) writeServiceError(rw http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrMalformedPayload),
		errors.Is(err, service.ErrInvalidField):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateDetected):
		status = http.StatusConflict
	case errors.Is(err, service.ErrQuotaExceeded):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, service.ErrFetchFailed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Internal error", zap.Error(err))
		h.writeJSON(rw, status, models.ErrorResponse{Error: http.StatusText(status)})
		return
	}

	h.writeJSON(rw, status, models.ErrorResponse{
		Error:  http.StatusText(status),
		Detail: err.Error(),
	})
}
