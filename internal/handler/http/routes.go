package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/api/version", h.getServerVersion)
	})

	// sync routes require a bearer token
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/sync/upload", h.upload)
		r.Get("/api/sync/download", h.download)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
