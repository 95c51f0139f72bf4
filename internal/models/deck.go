package models

import "time"

type Deck struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// DeckStats are the per-deck card counters shown alongside a deck.
type DeckStats struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Learning   int `json:"learning"`
	Review     int `json:"review"`
	Relearning int `json:"relearning"`
	Due        int `json:"due"`
}

type DeckWithStats struct {
	Deck
	Stats DeckStats `json:"stats"`
}
