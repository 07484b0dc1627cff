package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edudesk/gamehost/internal/bundle"
	"github.com/edudesk/gamehost/internal/metrics"
	"github.com/edudesk/gamehost/internal/minigame"
)

type ViewResponse struct {
	ViewID  string               `json:"viewId"`
	GameID  string               `json:"gameId"`
	State   minigame.State       `json:"state"`
	Locator string               `json:"locator,omitempty"`
	Session minigame.PlaySession `json:"session"`
}

type CloseRequest struct {
	Confirmed bool `json:"confirmed"`
}

type CloseResponse struct {
	Closed bool           `json:"closed"`
	State  minigame.State `json:"state"`
}

func toViewResponse(s minigame.Snapshot) ViewResponse {
	return ViewResponse{
		ViewID:  s.ViewID,
		GameID:  s.GameID,
		State:   s.State,
		Locator: s.Locator,
		Session: s.Session,
	}
}

func handleOpenView(logger *slog.Logger, views *Views, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		snap, err := views.Open(r.Context(), gameID)
		if m != nil {
			m.BundleLoaded(err)
		}
		switch {
		case errors.Is(err, bundle.ErrInvalidID):
			writeError(w, http.StatusBadRequest, "invalid game id")
			return
		case errors.Is(err, bundle.ErrNotFound):
			writeError(w, http.StatusNotFound, "game not found")
			return
		case err != nil:
			logger.Error("opening game view failed", "game_id", gameID, "error", err)
			writeError(w, http.StatusBadGateway, "game could not be loaded")
			return
		}

		writeJSON(w, http.StatusCreated, toViewResponse(snap))
	}
}

func handleGetView(views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := views.Snapshot(viewIDFrom(r))
		if err != nil {
			writeError(w, http.StatusNotFound, "view not found")
			return
		}
		writeJSON(w, http.StatusOK, toViewResponse(snap))
	}
}

// handlePostMessage delivers a single message event. Invalid messages are
// dropped by the gateway and still answered with 202.
func handlePostMessage(views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev minigame.RawEvent
		if err := readJSON(w, r, &ev); err != nil {
			writeError(w, http.StatusBadRequest, "invalid message envelope")
			return
		}

		vw, err := views.get(viewIDFrom(r))
		if err != nil {
			writeError(w, http.StatusNotFound, "view not found")
			return
		}
		vw.sub.Deliver(r.Context(), ev)
		w.WriteHeader(http.StatusAccepted)
	}
}

func handleCloseView(views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CloseRequest
		if err := readJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		decision, snap, err := views.Close(viewIDFrom(r), req.Confirmed)
		if err != nil {
			writeError(w, http.StatusNotFound, "view not found")
			return
		}
		if decision == minigame.CloseNeedsConfirmation {
			writeError(w, http.StatusConflict, "confirmation required: progress will be lost")
			return
		}

		writeJSON(w, http.StatusOK, CloseResponse{Closed: true, State: snap.State})
	}
}
