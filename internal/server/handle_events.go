package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// streamSSE relays broker messages for topic until the client goes away.
func streamSSE(w http.ResponseWriter, r *http.Request, broker *Broker, metrics *Metrics, topic string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := broker.Subscribe(topic)
	defer broker.Unsubscribe(topic, ch)
	flusher.Flush()

	clients := metrics.StreamClients.WithLabelValues("sse")
	clients.Inc()
	defer clients.Dec()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-ch:
			fmt.Fprintf(w, "event: update\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ping.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// handleTeamEvents streams the caller's team updates. EventSource cannot set
// headers, so the session token may come from the query string.
func handleTeamEvents(players PlayerStore, broker *Broker, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := playerFromRequest(r, players)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		streamSSE(w, r, broker, metrics, teamTopic(sess.TeamID))
	}
}

func handleAdminFeed(broker *Broker, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		streamSSE(w, r, broker, metrics, eventTopic(chi.URLParam(r, "eventID")))
	}
}
