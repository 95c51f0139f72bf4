package api

import (
	"encoding/json"
	"net/http"

	"github.com/dmoreira/flashdeck/internal/errors"
	"github.com/dmoreira/flashdeck/internal/fsrs"
	"github.com/dmoreira/flashdeck/internal/models"
)

type reviewRequest struct {
	Grade int `json:"grade" validate:"required,min=1,max=4"`
}

func (s *Server) handleReviewCard(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid JSON body"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		handleError(w, r, errors.NewInvalidGradeError(err))
		return
	}

	card, review, err := s.Cards.ReviewCard(r.Context(), id, fsrs.Grade(req.Grade))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"card":   card,
		"review": review,
	})
}

func (s *Server) handleCardReviews(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	reviews, err := s.Cards.CardReviews(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}
