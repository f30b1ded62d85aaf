package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// handleTeamWS pushes the caller's team updates over a WebSocket. Incoming
// messages are ignored; reading only detects the close.
func handleTeamWS(logger *slog.Logger, players PlayerStore, broker *Broker, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, players)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		topic := teamTopic(sess.TeamID)
		ch := broker.Subscribe(topic)
		defer broker.Unsubscribe(topic, ch)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Hour)
		defer cancel()
		ctx = conn.CloseRead(ctx)

		clients := metrics.StreamClients.WithLabelValues("websocket")
		clients.Inc()
		defer clients.Dec()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket closed", "team_id", sess.TeamID)
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case data := <-ch:
				if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case <-ping.C:
				if err := conn.Ping(ctx); err != nil {
					logger.Debug("websocket ping failed", "error", err)
					return
				}
			}
		}
	}
}
