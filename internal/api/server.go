package api

import (
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/dmoreira/flashdeck/internal/services"
)

// Server wires the HTTP layer to the service layer.
type Server struct {
	Decks   services.DeckService
	Cards   services.CardService
	Imports services.ImportService
	Stats   services.StatsService

	// MaxUploadBytes caps the size of a multipart deck upload.
	MaxUploadBytes int64
	// StaticDir, when set, is served at the site root for the bundled
	// frontend.
	StaticDir string

	validate      *validator.Validate
	uploadLimiter *rate.Limiter
}

// NewServer creates a Server with upload throttling in place. Uploads
// beyond one per second (burst of three) are rejected with 429.
func NewServer(decks services.DeckService, cards services.CardService, imports services.ImportService, stats services.StatsService) *Server {
	return &Server{
		Decks:          decks,
		Cards:          cards,
		Imports:        imports,
		Stats:          stats,
		MaxUploadBytes: 100 << 20,
		validate:       validator.New(),
		uploadLimiter:  rate.NewLimiter(rate.Limit(1), 3),
	}
}
