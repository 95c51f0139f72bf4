package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmoreira/flashdeck/internal/db"
	"github.com/dmoreira/flashdeck/internal/errors"
	"github.com/dmoreira/flashdeck/internal/logger"
	"github.com/dmoreira/flashdeck/internal/models"
	"github.com/dmoreira/flashdeck/internal/worker"
)

// ImportService handles deck archive uploads. The upload is staged on
// disk and parsed in the background; the deck row exists as soon as the
// call returns.
type ImportService interface {
	ImportArchive(ctx context.Context, filename string, src io.Reader) (*models.Deck, error)
}

type importService struct {
	db        *db.DB
	pool      *worker.Pool
	uploadDir string
	clock     func() time.Time
}

// NewImportService creates a new ImportService.
func NewImportService(db *db.DB, pool *worker.Pool, uploadDir string, clock func() time.Time) ImportService {
	if clock == nil {
		clock = time.Now
	}
	return &importService{db: db, pool: pool, uploadDir: uploadDir, clock: clock}
}

func (s *importService) ImportArchive(ctx context.Context, filename string, src io.Reader) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithField("filename", filename)

	base := filepath.Base(filename)
	if !strings.EqualFold(filepath.Ext(base), ".apkg") {
		return nil, errors.NewValidationError("file", "must be a .apkg archive")
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		log.Error("failed to create upload dir: %v", err)
		return nil, errors.NewInternalError(err)
	}
	staged, err := os.CreateTemp(s.uploadDir, "upload-*.apkg")
	if err != nil {
		log.Error("failed to stage upload: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if _, err := io.Copy(staged, src); err != nil {
		staged.Close()
		os.Remove(staged.Name())
		log.Error("failed to write upload: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if err := staged.Close(); err != nil {
		os.Remove(staged.Name())
		return nil, errors.NewInternalError(err)
	}

	now := s.clock().UTC()
	deck := models.Deck{
		Name:        strings.TrimSuffix(base, filepath.Ext(base)),
		Description: fmt.Sprintf("Imported from %s", base),
		CreatedAt:   now,
	}
	deckID, err := s.db.InsertDeck(ctx, deck)
	if err != nil {
		os.Remove(staged.Name())
		log.Error("failed to create deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	deck.ID = deckID

	job := &worker.ImportDeckJob{
		DB:          s.db,
		DeckID:      deckID,
		ArchivePath: staged.Name(),
		Clock:       s.clock,
	}
	if !s.pool.TrySubmit(job) {
		if _, delErr := s.db.DeleteDeck(ctx, deckID); delErr != nil {
			log.Error("failed to roll back deck %d: %v", deckID, delErr)
		}
		os.Remove(staged.Name())
		return nil, errors.NewUnavailableError("import queue is full, try again later")
	}

	log.Info("queued import for deck %d (%s)", deckID, deck.Name)
	return &deck, nil
}
