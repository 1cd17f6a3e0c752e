package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clockchat/clockchat/internal/observability"
	"github.com/clockchat/clockchat/internal/rating"
)

type ratingRequest struct {
	MessageID string `json:"message_id"`
	Type      string `json:"type"`
	Value     string `json:"value"`
	Feedback  string `json:"feedback"`
}

type ratingResponse struct {
	Rating  rating.Rating `json:"rating"`
	Created bool          `json:"created"`
}

func handleSubmitRating(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Ratings == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RATINGS_NOT_CONFIGURED", "rating store is not configured", false, nil)
		return
	}
	identity, err := identityFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusUnauthorized, "IDENTITY_REQUIRED", err.Error(), false, nil)
		return
	}

	var request ratingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid rating request body", false, map[string]any{"details": err.Error()})
		return
	}

	stored, created, err := deps.Ratings.GetOrCreate(r.Context(), rating.Input{
		MessageID: request.MessageID,
		UserID:    identity.UserID,
		Type:      request.Type,
		Value:     request.Value,
		Feedback:  request.Feedback,
	})
	if err != nil {
		if errors.Is(err, rating.ErrInvalidValue) {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_RATING", err.Error(), false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "RATING_FAILED", "rating could not be stored", true, nil)
		return
	}
	observability.ObserveRating(stored.Type, stored.Value)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, ratingResponse{Rating: stored, Created: created})
}

func handleRatingStats(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Ratings == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "RATINGS_NOT_CONFIGURED", "rating store is not configured", false, nil)
		return
	}
	if _, err := identityFromRequest(r); err != nil {
		writeError(r.Context(), w, http.StatusUnauthorized, "IDENTITY_REQUIRED", err.Error(), false, nil)
		return
	}

	stats, err := deps.Ratings.Stats(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "STATS_FAILED", "rating stats could not be computed", true, nil)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
