package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/schoolsharks/quickk-webn-sub000/database"
	"github.com/schoolsharks/quickk-webn-sub000/domain/entities"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to write response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

// respondDomainError maps domain and infrastructure errors to HTTP statuses:
// business-rule rejections keep their meaning, transaction conflicts that
// exhausted their retries surface as 503 so clients know to try again.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entities.ErrDrawNotFound), errors.Is(err, entities.ErrUserNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, entities.ErrDrawNotOpen):
		respondError(w, http.StatusConflict, entities.ErrDrawNotOpen.Error())
	case errors.Is(err, entities.ErrInsufficientStars):
		respondError(w, http.StatusBadRequest, err.Error())
	case database.IsSerializationFailure(err):
		respondError(w, http.StatusServiceUnavailable, "purchase conflicted with concurrent requests, please retry")
	default:
		log.WithError(err).Error("Unhandled error")
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
