package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dmoreira/flashdeck/internal/fsrs"
	"github.com/dmoreira/flashdeck/internal/logger"
	"github.com/dmoreira/flashdeck/internal/models"
)

func (db *DB) ReviewsForCard(ctx context.Context, cardID int64) ([]models.Review, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("fetching reviews: card_id=%d", cardID)

	rows, err := db.QueryContext(ctx, `
SELECT id, card_id, grade, stage_before, difficulty_before, stability_before, retrievability_before,
       difficulty_after, stability_after, interval_after, reviewed_at
FROM reviews
WHERE card_id = ?
ORDER BY reviewed_at, id
`, cardID)
	if err != nil {
		log.Error("failed to query reviews: %v", err)
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var rev models.Review
		var grade int
		var stageBefore string
		if err := rows.Scan(
			&rev.ID, &rev.CardID, &grade, &stageBefore,
			&rev.DifficultyBefore, &rev.StabilityBefore, &rev.RetrievabilityBefore,
			&rev.DifficultyAfter, &rev.StabilityAfter, &rev.IntervalAfter, &rev.ReviewedAt,
		); err != nil {
			log.Error("failed to scan review row: %v", err)
			return nil, err
		}
		rev.Grade = fsrs.Grade(grade)
		rev.StageBefore = fsrs.ParseStage(stageBefore)
		reviews = append(reviews, rev)
	}
	log.Debug("found %d reviews", len(reviews))
	return reviews, rows.Err()
}

// ReviewStats aggregates review activity across the whole collection.
// Today is measured from midnight UTC of the supplied clock.
func (db *DB) ReviewStats(ctx context.Context, now time.Time) (*models.ReviewStats, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("fetching review stats")

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	sqlStr, args, err := builder.
		Select("COUNT(*)").
		Column(sq.Expr("COALESCE(SUM(CASE WHEN reviewed_at >= ? THEN 1 ELSE 0 END), 0)", startOfDay)).
		From("reviews").
		ToSql()
	if err != nil {
		return nil, err
	}

	stats := &models.ReviewStats{ByGrade: make(map[string]int)}
	if err := db.QueryRowContext(ctx, sqlStr, args...).Scan(&stats.TotalReviews, &stats.ReviewsToday); err != nil {
		log.Error("failed to get review totals: %v", err)
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
SELECT grade, COUNT(*)
FROM reviews
GROUP BY grade
`)
	if err != nil {
		log.Error("failed to query grade counts: %v", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var grade, count int
		if err := rows.Scan(&grade, &count); err != nil {
			log.Error("failed to scan grade count: %v", err)
			return nil, err
		}
		stats.ByGrade[fsrs.Grade(grade).String()] = count
	}
	return stats, rows.Err()
}
