package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/apolzek/neosearch/internal/middleware"
)

func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.GzipMiddleware)
	r.Use(h.auth.Identity)

	r.Get("/ping", h.PingHandler)
	r.Get("/api/search", h.SearchHandler)
	r.Get("/api/user/registries", h.UserRegistriesHandler)

	r.Route("/api/registries", func(r chi.Router) {
		r.With(h.auth.EnsureIdentity).Post("/", h.AddHandler)
		r.With(h.auth.EnsureIdentity).Post("/import", h.ImportHandler)
		r.With(h.auth.EnsureIdentity).Post("/import/url", h.ImportFromURLHandler)

		r.Route("/{registryID}", func(r chi.Router) {
			r.Get("/", h.SelectHandler)
			r.With(h.auth.EnsureIdentity).Put("/", h.EditHandler)
			r.With(h.auth.EnsureIdentity).Delete("/", h.DeleteHandler)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})

	return r
}
