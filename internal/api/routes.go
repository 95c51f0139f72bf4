package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		r.Get("/decks", s.handleListDecks)
		r.Get("/decks/{id}", s.handleGetDeck)
		r.Delete("/decks/{id}", s.handleDeleteDeck)
		r.Get("/decks/{id}/cards", s.handleDeckCards)
		r.Get("/decks/{id}/due-cards", s.handleDueCards)

		r.Post("/cards/{id}/review", s.handleReviewCard)
		r.Get("/cards/{id}/reviews", s.handleCardReviews)

		r.With(s.uploadThrottle).Post("/upload", s.handleUpload)
	})

	if s.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.StaticDir)))
	}
	return r
}
