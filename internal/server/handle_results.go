package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/edudesk/gamehost/internal/bundle"
	"github.com/edudesk/gamehost/internal/submission"
)

// ResultLister reads locally recorded results.
type ResultLister interface {
	ListByGame(ctx context.Context, gameID string, limit int) ([]submission.Record, error)
}

func handleListResults(results ResultLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		if err := bundle.ValidateID(gameID); err != nil {
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 500 {
				writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
				return
			}
			limit = n
		}

		records, err := results.ListByGame(r.Context(), gameID, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}
