package handler

import (
	"net/http"

	"github.com/apolzek/neosearch/internal/access"
	"github.com/apolzek/neosearch/internal/middleware"
	"github.com/apolzek/neosearch/internal/models"
)

// SearchHandler serves GET /api/search?q=...&user=... for both anonymous
// and authenticated requesters. The optional user parameter scopes the
// search to one owner's registries.
func (h *Handler) SearchHandler(rw http.ResponseWriter, r *http.Request) {
	requester := access.Anonymous()
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		requester = access.User(userID)
	}

	rawQuery := r.URL.Query().Get("q")
	scopeOwner := r.URL.Query().Get("user")

	results, err := h.service.Search(r.Context(), requester, rawQuery, scopeOwner)
	if err != nil {
		h.writeServiceError(rw, err)
		return
	}

	h.writeJSON(rw, http.StatusOK, models.SearchResponse{Results: results})
}
