package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmoreira/flashdeck/internal/apkg"
	"github.com/dmoreira/flashdeck/internal/db"
	"github.com/dmoreira/flashdeck/internal/fsrs"
	"github.com/dmoreira/flashdeck/internal/logger"
	"github.com/dmoreira/flashdeck/internal/models"
)

// ImportDeckJob parses an uploaded deck archive and fills the deck with
// its cards. The deck row is created up front by the upload handler so
// the archive can be processed in the background.
type ImportDeckJob struct {
	DB          *db.DB
	DeckID      int64
	ArchivePath string
	Clock       func() time.Time
}

func (j *ImportDeckJob) Name() string { return "import_deck" }

func (j *ImportDeckJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("deck_id", j.DeckID)
	defer func() {
		if err := os.Remove(j.ArchivePath); err != nil {
			log.Warn("failed to remove uploaded archive %s: %v", j.ArchivePath, err)
		}
	}()

	parsed, err := apkg.Parse(j.ArchivePath)
	if err != nil {
		// Leave no empty deck behind when the archive is unreadable.
		if _, delErr := j.DB.DeleteDeck(ctx, j.DeckID); delErr != nil {
			log.Error("failed to remove deck after parse failure: %v", delErr)
		}
		return fmt.Errorf("parse archive: %w", err)
	}
	if len(parsed.Cards) == 0 {
		log.Warn("archive contained no cards")
		return nil
	}

	now := j.now()
	cards := make([]models.Card, 0, len(parsed.Cards))
	for _, c := range parsed.Cards {
		card := models.Card{
			DeckID:    j.DeckID,
			Front:     c.Front,
			Back:      c.Back,
			CreatedAt: now,
		}
		card.ApplyMemoryState(fsrs.NewMemoryState(now))
		cards = append(cards, card)
	}

	if err := j.DB.InsertCardBatch(ctx, cards); err != nil {
		return fmt.Errorf("insert cards: %w", err)
	}
	log.Info("imported %d cards", len(cards))
	return nil
}

func (j *ImportDeckJob) now() time.Time {
	if j.Clock != nil {
		return j.Clock().UTC()
	}
	return time.Now().UTC()
}
