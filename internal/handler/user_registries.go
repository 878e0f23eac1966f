package handler

import (
	"net/http"

	"github.com/apolzek/neosearch/internal/middleware"
)

// UserRegistriesHandler lists the requester's own active registries in
// alphabetical URL order.
func (h *Handler) UserRegistriesHandler(rw http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok || userID == "" {
		http.Error(rw, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	registries, err := h.service.ListOwn(r.Context(), userID)
	if err != nil {
		h.writeServiceError(rw, err)
		return
	}

	if len(registries) == 0 {
		rw.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(rw, http.StatusOK, registries)
}
