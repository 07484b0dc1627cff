package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/edudesk/gamehost/internal/minigame"
)

const (
	channelReadLimit = 64 << 10
	channelLifetime  = 4 * time.Hour
)

// handleChannel carries the message events a bundle posts to its host. The
// shell forwards each event as a text frame {"origin": ..., "data": ...};
// nothing is written back, as with postMessage.
func handleChannel(logger *slog.Logger, views *Views) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewID := viewIDFrom(r)
		vw, err := views.get(viewID)
		if err != nil {
			writeError(w, http.StatusNotFound, "view not found")
			return
		}

		// The shell connects from its own webview origin; per-message
		// origins are checked by the gateway.
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()
		conn.SetReadLimit(channelReadLimit)

		ctx, cancel := context.WithTimeout(r.Context(), channelLifetime)
		defer cancel()

		for {
			typ, msg, err := conn.Read(ctx)
			if err != nil {
				logger.Debug("channel read ended", "view_id", viewID, "error", err)
				return
			}
			if typ != websocket.MessageText {
				logger.Warn("channel frame dropped", "view_id", viewID, "reason", "binary frame")
				continue
			}

			var ev minigame.RawEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				logger.Warn("channel frame dropped", "view_id", viewID, "reason", "invalid envelope", "error", err)
				continue
			}
			vw.sub.Deliver(ctx, ev)

			if !vw.sub.Active() {
				conn.Close(websocket.StatusNormalClosure, "view closed")
				return
			}
		}
	}
}
