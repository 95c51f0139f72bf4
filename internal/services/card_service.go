package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/dmoreira/flashdeck/internal/db"
	"github.com/dmoreira/flashdeck/internal/errors"
	"github.com/dmoreira/flashdeck/internal/fsrs"
	"github.com/dmoreira/flashdeck/internal/logger"
	"github.com/dmoreira/flashdeck/internal/models"
)

// CardService handles card review business logic
type CardService interface {
	GetCard(ctx context.Context, id int64) (*models.Card, error)
	ReviewCard(ctx context.Context, cardID int64, grade fsrs.Grade) (*models.Card, *models.Review, error)
	CardReviews(ctx context.Context, cardID int64) ([]models.Review, error)
}

type cardService struct {
	db        *db.DB
	scheduler *fsrs.Scheduler
	clock     func() time.Time
}

// NewCardService creates a new CardService. The clock supplies the
// review timestamp; pass nil for wall-clock time.
func NewCardService(db *db.DB, scheduler *fsrs.Scheduler, clock func() time.Time) CardService {
	if clock == nil {
		clock = time.Now
	}
	return &cardService{db: db, scheduler: scheduler, clock: clock}
}

func (s *cardService) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx)

	card, err := s.db.GetCard(ctx, id)
	if err != nil {
		log.Error("failed to get card %d: %v", id, err)
		return nil, errors.NewInternalError(err)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("card", id)
	}
	return card, nil
}

// ReviewCard applies a grade to a card and persists the outcome. It
// returns the updated card and the recorded review.
func (s *cardService) ReviewCard(ctx context.Context, cardID int64, grade fsrs.Grade) (*models.Card, *models.Review, error) {
	log := logger.FromContext(ctx)
	log.Debug("reviewing card: card_id=%d, grade=%s", cardID, grade)

	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock().UTC()
	prior := card.MemoryState()
	next, err := s.scheduler.ScheduleReview(grade, prior, now)
	if err != nil {
		if stderrors.Is(err, fsrs.ErrInvalidGrade) {
			return nil, nil, errors.NewInvalidGradeError(err)
		}
		log.Error("scheduling failed for card %d: %v", cardID, err)
		return nil, nil, errors.NewInternalError(err)
	}

	review := models.Review{
		CardID:               card.ID,
		Grade:                grade,
		StageBefore:          prior.Stage,
		DifficultyBefore:     prior.Difficulty,
		StabilityBefore:      prior.Stability,
		RetrievabilityBefore: next.Retrievability,
		DifficultyAfter:      next.Difficulty,
		StabilityAfter:       next.Stability,
		IntervalAfter:        next.IntervalDays,
		ReviewedAt:           now,
	}
	card.ApplyMemoryState(next)

	reviewID, err := s.db.SaveReview(ctx, *card, review)
	if err != nil {
		log.Error("failed to save review for card %d: %v", cardID, err)
		return nil, nil, errors.NewInternalError(err)
	}
	review.ID = reviewID

	log.Info("reviewed card %d: grade=%s, stage=%s, next due in %.1f days",
		card.ID, grade, card.Stage, card.IntervalDays)
	return card, &review, nil
}

func (s *cardService) CardReviews(ctx context.Context, cardID int64) ([]models.Review, error) {
	log := logger.FromContext(ctx)

	if _, err := s.GetCard(ctx, cardID); err != nil {
		return nil, err
	}
	reviews, err := s.db.ReviewsForCard(ctx, cardID)
	if err != nil {
		log.Error("failed to list reviews for card %d: %v", cardID, err)
		return nil, errors.NewInternalError(err)
	}
	return reviews, nil
}
