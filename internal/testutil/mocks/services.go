package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/dmoreira/flashdeck/internal/fsrs"
	"github.com/dmoreira/flashdeck/internal/models"
)

// MockDeckService is a mock implementation of services.DeckService
type MockDeckService struct {
	mock.Mock
}

func (m *MockDeckService) ListDecks(ctx context.Context) ([]models.DeckWithStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DeckWithStats), args.Error(1)
}

func (m *MockDeckService) GetDeck(ctx context.Context, id int64) (*models.DeckWithStats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeckWithStats), args.Error(1)
}

func (m *MockDeckService) DeleteDeck(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDeckService) DeckCards(ctx context.Context, deckID int64) ([]models.Card, error) {
	args := m.Called(ctx, deckID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}

func (m *MockDeckService) DueCards(ctx context.Context, deckID int64, limit int) ([]models.Card, error) {
	args := m.Called(ctx, deckID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}

// MockCardService is a mock implementation of services.CardService
type MockCardService struct {
	mock.Mock
}

func (m *MockCardService) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

func (m *MockCardService) ReviewCard(ctx context.Context, cardID int64, grade fsrs.Grade) (*models.Card, *models.Review, error) {
	args := m.Called(ctx, cardID, grade)
	var card *models.Card
	if args.Get(0) != nil {
		card = args.Get(0).(*models.Card)
	}
	var review *models.Review
	if args.Get(1) != nil {
		review = args.Get(1).(*models.Review)
	}
	return card, review, args.Error(2)
}

func (m *MockCardService) CardReviews(ctx context.Context, cardID int64) ([]models.Review, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

// MockImportService is a mock implementation of services.ImportService
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) ImportArchive(ctx context.Context, filename string, src io.Reader) (*models.Deck, error) {
	args := m.Called(ctx, filename, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deck), args.Error(1)
}

// MockStatsService is a mock implementation of services.StatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) ReviewStats(ctx context.Context) (*models.ReviewStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewStats), args.Error(1)
}
