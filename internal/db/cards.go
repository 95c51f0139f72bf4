package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dmoreira/flashdeck/internal/fsrs"
	"github.com/dmoreira/flashdeck/internal/logger"
	"github.com/dmoreira/flashdeck/internal/models"
)

var cardColumns = []string{
	"id", "deck_id", "front", "back", "stage",
	"difficulty", "stability", "retrievability",
	"due_at", "last_review_at", "interval_days",
	"reps", "lapses", "created_at",
}

func scanCard(row sq.RowScanner) (*models.Card, error) {
	var c models.Card
	var stage string
	var lastReview sql.NullTime
	err := row.Scan(
		&c.ID, &c.DeckID, &c.Front, &c.Back, &stage,
		&c.Difficulty, &c.Stability, &c.Retrievability,
		&c.DueAt, &lastReview, &c.IntervalDays,
		&c.Reps, &c.Lapses, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Stage = fsrs.ParseStage(stage)
	if lastReview.Valid {
		t := lastReview.Time
		c.LastReviewAt = &t
	}
	return &c, nil
}

func (db *DB) InsertCard(ctx context.Context, c models.Card) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("inserting card: deck_id=%d", c.DeckID)

	res, err := db.ExecContext(ctx, `
INSERT INTO cards (deck_id, front, back, stage, difficulty, stability, retrievability, due_at, interval_days, reps, lapses)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, c.DeckID, c.Front, c.Back, c.Stage.String(), c.Difficulty, c.Stability, c.Retrievability, c.DueAt, c.IntervalDays, c.Reps, c.Lapses)
	if err != nil {
		log.Error("failed to insert card: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get card id: %v", err)
		return 0, err
	}
	log.Debug("card inserted: id=%d", id)
	return id, nil
}

// InsertCardBatch inserts all cards in one transaction. Used by deck
// import, where a partial deck is worse than no deck.
func (db *DB) InsertCardBatch(ctx context.Context, cards []models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("inserting card batch: count=%d", len(cards))

	return tx(ctx, db, func(t *sql.Tx) error {
		stmt, err := t.PrepareContext(ctx, `
INSERT INTO cards (deck_id, front, back, stage, difficulty, stability, retrievability, due_at, interval_days, reps, lapses)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, c := range cards {
			if _, err := stmt.ExecContext(ctx,
				c.DeckID, c.Front, c.Back, c.Stage.String(),
				c.Difficulty, c.Stability, c.Retrievability,
				c.DueAt, c.IntervalDays, c.Reps, c.Lapses,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("fetching card: id=%d", id)

	sqlStr, args, err := builder.
		Select(cardColumns...).
		From("cards").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	c, err := scanCard(db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return c, nil
}

func (db *DB) CardsForDeck(ctx context.Context, deckID int64) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("fetching cards: deck_id=%d", deckID)

	sqlStr, args, err := builder.
		Select(cardColumns...).
		From("cards").
		Where(sq.Eq{"deck_id": deckID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return db.queryCards(ctx, sqlStr, args...)
}

// DueCards returns a deck's cards due at the given time, new cards first,
// then oldest due date. limit <= 0 means no limit.
func (db *DB) DueCards(ctx context.Context, deckID int64, now time.Time, limit int) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("fetching due cards: deck_id=%d, limit=%d", deckID, limit)

	q := builder.
		Select(cardColumns...).
		From("cards").
		Where(sq.Eq{"deck_id": deckID}).
		Where(sq.LtOrEq{"due_at": now}).
		OrderBy("CASE WHEN stage = 'new' THEN 0 ELSE 1 END", "due_at", "id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return db.queryCards(ctx, sqlStr, args...)
}

func (db *DB) queryCards(ctx context.Context, sqlStr string, args ...any) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("db")

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query cards: %v", err)
		return nil, err
	}
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			log.Error("failed to scan card row: %v", err)
			return nil, err
		}
		cards = append(cards, *c)
	}
	log.Debug("found %d cards", len(cards))
	return cards, rows.Err()
}

// SaveReview persists the outcome of one graded review: the card's new
// memory state and the immutable review record, in one transaction.
// Returns the review id.
func (db *DB) SaveReview(ctx context.Context, card models.Card, review models.Review) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("saving review: card_id=%d, grade=%d", card.ID, int(review.Grade))

	var reviewID int64
	err := tx(ctx, db, func(t *sql.Tx) error {
		_, err := t.ExecContext(ctx, `
UPDATE cards
SET stage = ?, difficulty = ?, stability = ?, retrievability = ?,
    due_at = ?, last_review_at = ?, interval_days = ?, reps = ?, lapses = ?
WHERE id = ?
`, card.Stage.String(), card.Difficulty, card.Stability, card.Retrievability,
			card.DueAt, card.LastReviewAt, card.IntervalDays, card.Reps, card.Lapses, card.ID)
		if err != nil {
			return err
		}

		res, err := t.ExecContext(ctx, `
INSERT INTO reviews (card_id, grade, stage_before, difficulty_before, stability_before, retrievability_before,
                     difficulty_after, stability_after, interval_after, reviewed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, review.CardID, int(review.Grade), review.StageBefore.String(),
			review.DifficultyBefore, review.StabilityBefore, review.RetrievabilityBefore,
			review.DifficultyAfter, review.StabilityAfter, review.IntervalAfter, review.ReviewedAt)
		if err != nil {
			return err
		}
		reviewID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		log.Error("failed to save review: %v", err)
		return 0, err
	}
	log.Debug("review saved: id=%d", reviewID)
	return reviewID, nil
}
