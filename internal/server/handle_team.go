package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/qrhunt/internal/hunt"
)

type TeamLookupResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EventID    string `json:"eventId"`
	EventName  string `json:"eventName"`
	MaxPlayers int    `json:"maxPlayers"`
}

func handleTeamLookup(players PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, ev, err := players.TeamByJoinCode(r.Context(), chi.URLParam(r, "joinCode"))
		if errors.Is(err, hunt.ErrNotFound) || (err == nil && !hunt.EventIsActive(ev)) {
			writeError(w, http.StatusNotFound, "team not found or event not active")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, TeamLookupResponse{
			ID:         team.ID,
			Name:       team.Name,
			EventID:    ev.ID,
			EventName:  ev.Name,
			MaxPlayers: team.MaxPlayers,
		})
	}
}
