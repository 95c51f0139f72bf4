package services

import (
	"context"
	"time"

	"github.com/dmoreira/flashdeck/internal/db"
	"github.com/dmoreira/flashdeck/internal/errors"
	"github.com/dmoreira/flashdeck/internal/logger"
	"github.com/dmoreira/flashdeck/internal/models"
)

// StatsService exposes aggregate review statistics
type StatsService interface {
	ReviewStats(ctx context.Context) (*models.ReviewStats, error)
}

type statsService struct {
	db    *db.DB
	clock func() time.Time
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *db.DB, clock func() time.Time) StatsService {
	if clock == nil {
		clock = time.Now
	}
	return &statsService{db: db, clock: clock}
}

func (s *statsService) ReviewStats(ctx context.Context) (*models.ReviewStats, error) {
	log := logger.FromContext(ctx)

	stats, err := s.db.ReviewStats(ctx, s.clock().UTC())
	if err != nil {
		log.Error("failed to compute review stats: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return stats, nil
}
