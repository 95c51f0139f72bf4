package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmoreira/flashdeck/internal/db"
	apperrors "github.com/dmoreira/flashdeck/internal/errors"
	"github.com/dmoreira/flashdeck/internal/fsrs"
	"github.com/dmoreira/flashdeck/internal/models"
	"github.com/dmoreira/flashdeck/internal/services"
	"github.com/dmoreira/flashdeck/internal/testutil"
	"github.com/dmoreira/flashdeck/internal/worker"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func newDeck(t *testing.T, database *db.DB, name string) int64 {
	t.Helper()
	id, err := database.InsertDeck(context.Background(), models.Deck{
		Name:      name,
		CreatedAt: testNow,
	})
	require.NoError(t, err)
	return id
}

func newCard(t *testing.T, database *db.DB, deckID int64, front string) int64 {
	t.Helper()
	card := models.Card{
		DeckID:    deckID,
		Front:     front,
		Back:      "back of " + front,
		CreatedAt: testNow,
	}
	card.ApplyMemoryState(fsrs.NewMemoryState(testNow))
	id, err := database.InsertCard(context.Background(), card)
	require.NoError(t, err)
	return id
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestDeckService_GetAndList(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := services.NewDeckService(database, fixedClock)
	ctx := context.Background()

	deckID := newDeck(t, database, "Spanish")
	newCard(t, database, deckID, "hola")
	newCard(t, database, deckID, "adios")

	deck, err := svc.GetDeck(ctx, deckID)
	require.NoError(t, err)
	assert.Equal(t, "Spanish", deck.Name)
	assert.Equal(t, 2, deck.Stats.Total)
	assert.Equal(t, 2, deck.Stats.New)
	assert.Equal(t, 2, deck.Stats.Due, "new cards are due immediately")

	decks, err := svc.ListDecks(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, deckID, decks[0].ID)
}

func TestDeckService_GetMissing(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := services.NewDeckService(database, fixedClock)

	_, err := svc.GetDeck(context.Background(), 999)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErrorCode(t, err))
}

func TestDeckService_Delete(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := services.NewDeckService(database, fixedClock)
	ctx := context.Background()

	deckID := newDeck(t, database, "doomed")
	require.NoError(t, svc.DeleteDeck(ctx, deckID))

	_, err := svc.GetDeck(ctx, deckID)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErrorCode(t, err))

	err = svc.DeleteDeck(ctx, deckID)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErrorCode(t, err))
}

func TestDeckService_DueCardsMissingDeck(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := services.NewDeckService(database, fixedClock)

	_, err := svc.DueCards(context.Background(), 42, 0)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErrorCode(t, err))
}

func TestCardService_Review(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := services.NewCardService(database, fsrs.New(), fixedClock)
	ctx := context.Background()

	deckID := newDeck(t, database, "Spanish")
	cardID := newCard(t, database, deckID, "hola")

	card, review, err := svc.ReviewCard(ctx, cardID, fsrs.Good)
	require.NoError(t, err)

	assert.Equal(t, fsrs.StageReview, card.Stage)
	assert.Equal(t, 1, card.Reps)
	assert.True(t, card.DueAt.After(testNow))
	require.NotNil(t, card.LastReviewAt)
	assert.True(t, card.LastReviewAt.Equal(testNow))

	assert.NotZero(t, review.ID)
	assert.Equal(t, fsrs.Good, review.Grade)
	assert.Equal(t, fsrs.StageNew, review.StageBefore)
	assert.Equal(t, card.Stability, review.StabilityAfter)

	// The update must be persisted, not just returned.
	stored, err := svc.GetCard(ctx, cardID)
	require.NoError(t, err)
	assert.Equal(t, card.Stage, stored.Stage)
	assert.InDelta(t, card.Stability, stored.Stability, 1e-9)

	reviews, err := svc.CardReviews(ctx, cardID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, review.ID, reviews[0].ID)
}

func TestCardService_ReviewInvalidGrade(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := services.NewCardService(database, fsrs.New(), fixedClock)
	ctx := context.Background()

	deckID := newDeck(t, database, "Spanish")
	cardID := newCard(t, database, deckID, "hola")

	_, _, err := svc.ReviewCard(ctx, cardID, fsrs.Grade(7))
	assert.Equal(t, apperrors.ErrCodeInvalidGrade, appErrorCode(t, err))

	// A rejected grade must not leave a review behind.
	reviews, err := svc.CardReviews(ctx, cardID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestCardService_ReviewMissingCard(t *testing.T) {
	database := testutil.NewTestDB(t)
	svc := services.NewCardService(database, fsrs.New(), fixedClock)

	_, _, err := svc.ReviewCard(context.Background(), 123, fsrs.Good)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErrorCode(t, err))
}

func TestStatsService(t *testing.T) {
	database := testutil.NewTestDB(t)
	cardSvc := services.NewCardService(database, fsrs.New(), fixedClock)
	statsSvc := services.NewStatsService(database, fixedClock)
	ctx := context.Background()

	deckID := newDeck(t, database, "Spanish")
	cardID := newCard(t, database, deckID, "hola")
	_, _, err := cardSvc.ReviewCard(ctx, cardID, fsrs.Good)
	require.NoError(t, err)

	stats, err := statsSvc.ReviewStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalReviews)
	assert.Equal(t, 1, stats.ReviewsToday)
	assert.Equal(t, 1, stats.ByGrade[fsrs.Good.String()])
}

func TestImportService_RejectsNonArchive(t *testing.T) {
	database := testutil.NewTestDB(t)
	pool := worker.NewPool(1, 4)
	svc := services.NewImportService(database, pool, t.TempDir(), fixedClock)

	_, err := svc.ImportArchive(context.Background(), "notes.txt", strings.NewReader("hi"))
	assert.Equal(t, apperrors.ErrCodeValidation, appErrorCode(t, err))
}

func TestImportService_CreatesDeckAndQueuesJob(t *testing.T) {
	database := testutil.NewTestDB(t)
	pool := worker.NewPool(1, 4) // not started, so the job stays queued
	svc := services.NewImportService(database, pool, t.TempDir(), fixedClock)
	ctx := context.Background()

	deck, err := svc.ImportArchive(ctx, "Spanish Vocab.apkg", strings.NewReader("zip bytes"))
	require.NoError(t, err)
	assert.Equal(t, "Spanish Vocab", deck.Name)
	assert.NotZero(t, deck.ID)
	assert.Equal(t, 1, pool.QueueSize())

	stored, err := database.GetDeck(ctx, deck.ID, testNow)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Spanish Vocab", stored.Name)
}

func TestImportService_QueueFull(t *testing.T) {
	database := testutil.NewTestDB(t)
	pool := worker.NewPool(1, 1)
	svc := services.NewImportService(database, pool, t.TempDir(), fixedClock)
	ctx := context.Background()

	_, err := svc.ImportArchive(ctx, "first.apkg", strings.NewReader("a"))
	require.NoError(t, err)

	_, err = svc.ImportArchive(ctx, "second.apkg", strings.NewReader("b"))
	assert.Equal(t, apperrors.ErrCodeUnavailable, appErrorCode(t, err))

	// The rejected upload's deck row is rolled back.
	decks, err := database.ListDecks(ctx, testNow)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, "first", decks[0].Name)
}
