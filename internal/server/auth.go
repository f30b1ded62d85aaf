package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/playperu/qrhunt/internal/store"
)

var errNoSession = errors.New("no valid session")

// playerFromRequest reads the bearer token, falling back to the token query
// parameter used by EventSource and WebSocket clients.
func playerFromRequest(r *http.Request, players PlayerStore) (store.PlayerSession, error) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return store.PlayerSession{}, errNoSession
	}

	sess, err := players.PlayerFromToken(r.Context(), token)
	if err != nil {
		return store.PlayerSession{}, errNoSession
	}
	return sess, nil
}
