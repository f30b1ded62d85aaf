package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/playperu/qrhunt/internal/hunt"
	"github.com/playperu/qrhunt/internal/store"
)

// updatePlayerJoined is published when a player joins a team. Label carries
// the player's name.
const updatePlayerJoined hunt.UpdateType = "player_joined"

type JoinRequest struct {
	JoinCode   string `json:"joinCode" validate:"required"`
	PlayerName string `json:"playerName" validate:"required,max=50"`
}

type JoinResponse struct {
	Token    string `json:"token"`
	PlayerID string `json:"playerId"`
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
}

func handleJoin(players PlayerStore, notify hunt.Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.PlayerName = strings.TrimSpace(req.PlayerName)
		req.JoinCode = strings.TrimSpace(req.JoinCode)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "joinCode and playerName are required")
			return
		}

		team, ev, err := players.TeamByJoinCode(r.Context(), req.JoinCode)
		if errors.Is(err, hunt.ErrNotFound) || (err == nil && !hunt.EventIsActive(ev)) {
			writeError(w, http.StatusNotFound, "team not found or event not active")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		now := time.Now()
		if !hunt.WithinRegistrationWindow(ev, now) {
			writeError(w, http.StatusForbidden, "registration is closed for this event")
			return
		}
		if team.IsDisqualified {
			writeError(w, http.StatusForbidden, "this team has been disqualified")
			return
		}

		player, err := players.JoinTeam(r.Context(), team.ID, req.PlayerName)
		if errors.Is(err, store.ErrTeamFull) {
			writeError(w, http.StatusConflict, "this team is full")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		notify.Publish(r.Context(), hunt.Update{
			Type:     updatePlayerJoined,
			EventID:  ev.ID,
			TeamID:   team.ID,
			PlayerID: player.ID,
			Label:    player.Name,
			At:       now.UTC(),
		})

		writeJSON(w, http.StatusOK, JoinResponse{
			Token:    player.Token,
			PlayerID: player.ID,
			TeamID:   team.ID,
			TeamName: team.Name,
		})
	}
}
