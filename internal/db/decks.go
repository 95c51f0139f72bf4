package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dmoreira/flashdeck/internal/logger"
	"github.com/dmoreira/flashdeck/internal/models"
)

// deckStatsQuery builds the deck listing with per-deck card counters in a
// single aggregate pass. The due counter needs the caller's clock, so now
// is a query parameter rather than CURRENT_TIMESTAMP.
func deckStatsQuery(now time.Time) sq.SelectBuilder {
	return builder.
		Select(
			"d.id", "d.name", "d.description", "d.created_at",
			"COUNT(c.id) AS total",
			"COALESCE(SUM(CASE WHEN c.stage = 'new' THEN 1 ELSE 0 END), 0) AS new_count",
			"COALESCE(SUM(CASE WHEN c.stage = 'learning' THEN 1 ELSE 0 END), 0) AS learning_count",
			"COALESCE(SUM(CASE WHEN c.stage = 'review' THEN 1 ELSE 0 END), 0) AS review_count",
			"COALESCE(SUM(CASE WHEN c.stage = 'relearning' THEN 1 ELSE 0 END), 0) AS relearning_count",
		).
		Column(sq.Expr("COALESCE(SUM(CASE WHEN c.due_at <= ? THEN 1 ELSE 0 END), 0) AS due_count", now)).
		From("decks d").
		LeftJoin("cards c ON c.deck_id = d.id").
		GroupBy("d.id")
}

func scanDeckWithStats(row sq.RowScanner) (*models.DeckWithStats, error) {
	var d models.DeckWithStats
	err := row.Scan(
		&d.ID, &d.Name, &d.Description, &d.CreatedAt,
		&d.Stats.Total, &d.Stats.New, &d.Stats.Learning,
		&d.Stats.Review, &d.Stats.Relearning, &d.Stats.Due,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (db *DB) InsertDeck(ctx context.Context, deck models.Deck) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("inserting deck: name=%s", deck.Name)

	res, err := db.ExecContext(ctx, `
INSERT INTO decks (name, description)
VALUES (?, ?)
`, deck.Name, deck.Description)
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get deck id: %v", err)
		return 0, err
	}
	log.Debug("deck inserted: id=%d", id)
	return id, nil
}

func (db *DB) ListDecks(ctx context.Context, now time.Time) ([]models.DeckWithStats, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("listing decks")

	sqlStr, args, err := deckStatsQuery(now).
		OrderBy("d.created_at DESC", "d.id DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to query decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	var decks []models.DeckWithStats
	for rows.Next() {
		d, err := scanDeckWithStats(rows)
		if err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		decks = append(decks, *d)
	}
	log.Debug("found %d decks", len(decks))
	return decks, rows.Err()
}

func (db *DB) GetDeck(ctx context.Context, id int64, now time.Time) (*models.DeckWithStats, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("fetching deck: id=%d", id)

	sqlStr, args, err := deckStatsQuery(now).
		Where(sq.Eq{"d.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	d, err := scanDeckWithStats(db.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	return d, nil
}

// DeleteDeck removes a deck; its cards and their reviews go with it via
// cascading foreign keys. Returns the number of decks deleted.
func (db *DB) DeleteDeck(ctx context.Context, id int64) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("db")
	log.Debug("deleting deck: id=%d", id)

	res, err := db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete deck: %v", err)
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Debug("deck delete affected %d rows", affected)
	return affected, nil
}
