package api

import (
	"net/http"

	"github.com/dmoreira/flashdeck/internal/errors"
	"github.com/dmoreira/flashdeck/internal/logger"
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.MaxUploadBytes); err != nil {
		log.Warn("failed to parse multipart form: %v", err)
		handleError(w, r, errors.NewBadRequestError("upload too large or malformed"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, errors.NewValidationError("file", "missing multipart field"))
		return
	}
	defer file.Close()

	deck, err := s.Imports.ImportArchive(r.Context(), header.Filename, file)
	if err != nil {
		handleError(w, r, err)
		return
	}

	// Cards are parsed in the background; report acceptance, not
	// completion.
	respondJSON(w, http.StatusAccepted, map[string]any{
		"deck":    deck,
		"message": "import queued",
	})
}
