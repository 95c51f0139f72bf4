package services

import (
	"context"
	"time"

	"github.com/dmoreira/flashdeck/internal/db"
	"github.com/dmoreira/flashdeck/internal/errors"
	"github.com/dmoreira/flashdeck/internal/logger"
	"github.com/dmoreira/flashdeck/internal/models"
)

// DeckService handles deck-related business logic
type DeckService interface {
	ListDecks(ctx context.Context) ([]models.DeckWithStats, error)
	GetDeck(ctx context.Context, id int64) (*models.DeckWithStats, error)
	DeleteDeck(ctx context.Context, id int64) error
	DeckCards(ctx context.Context, deckID int64) ([]models.Card, error)
	DueCards(ctx context.Context, deckID int64, limit int) ([]models.Card, error)
}

type deckService struct {
	db    *db.DB
	clock func() time.Time
}

// NewDeckService creates a new DeckService. The clock is used to
// evaluate due counts; pass nil for wall-clock time.
func NewDeckService(db *db.DB, clock func() time.Time) DeckService {
	if clock == nil {
		clock = time.Now
	}
	return &deckService{db: db, clock: clock}
}

func (s *deckService) now() time.Time { return s.clock().UTC() }

func (s *deckService) ListDecks(ctx context.Context) ([]models.DeckWithStats, error) {
	log := logger.FromContext(ctx)

	decks, err := s.db.ListDecks(ctx, s.now())
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return decks, nil
}

func (s *deckService) GetDeck(ctx context.Context, id int64) (*models.DeckWithStats, error) {
	log := logger.FromContext(ctx)

	deck, err := s.db.GetDeck(ctx, id, s.now())
	if err != nil {
		log.Error("failed to get deck %d: %v", id, err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)
	log.Debug("deleting deck: deck_id=%d", id)

	deleted, err := s.db.DeleteDeck(ctx, id)
	if err != nil {
		log.Error("failed to delete deck %d: %v", id, err)
		return errors.NewInternalError(err)
	}
	if deleted == 0 {
		return errors.NewNotFoundError("deck", id)
	}
	log.Info("deleted deck %d", id)
	return nil
}

func (s *deckService) DeckCards(ctx context.Context, deckID int64) ([]models.Card, error) {
	log := logger.FromContext(ctx)

	if _, err := s.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}
	cards, err := s.db.CardsForDeck(ctx, deckID)
	if err != nil {
		log.Error("failed to list cards for deck %d: %v", deckID, err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}

func (s *deckService) DueCards(ctx context.Context, deckID int64, limit int) ([]models.Card, error) {
	log := logger.FromContext(ctx)

	if _, err := s.GetDeck(ctx, deckID); err != nil {
		return nil, err
	}
	cards, err := s.db.DueCards(ctx, deckID, s.now(), limit)
	if err != nil {
		log.Error("failed to list due cards for deck %d: %v", deckID, err)
		return nil, errors.NewInternalError(err)
	}
	return cards, nil
}
