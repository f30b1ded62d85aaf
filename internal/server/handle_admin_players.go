package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/qrhunt/internal/store"
)

type AdminMovePlayerRequest struct {
	TeamID string `json:"teamId" validate:"required"`
}

type AdminPlayerResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	TeamID   string    `json:"teamId"`
	TeamName string    `json:"teamName"`
	JoinedAt time.Time `json:"joinedAt"`
}

func toPlayerResponse(p store.Player) AdminPlayerResponse {
	return AdminPlayerResponse{
		ID:       p.ID,
		Name:     p.Name,
		TeamID:   p.TeamID,
		TeamName: p.TeamName,
		JoinedAt: p.JoinedAt,
	}
}

// handleAdminListPlayers lists the event's players in join order, optionally
// only those of ?teamId=.
func handleAdminListPlayers(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		if _, err := admin.Event(r.Context(), eventID); err != nil {
			writeStoreError(w, err)
			return
		}

		players, err := admin.ListEventPlayers(r.Context(), eventID, r.URL.Query().Get("teamId"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]AdminPlayerResponse, len(players))
		for i, p := range players {
			items[i] = toPlayerResponse(p)
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// handleAdminMovePlayer moves a player to another team of the same event if
// it has room.
func handleAdminMovePlayer(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminMovePlayerRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		p, err := admin.MovePlayer(r.Context(), chi.URLParam(r, "playerID"), req.TeamID)
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "target team belongs to another event")
			return
		}
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPlayerResponse(p))
	}
}

func handleAdminDeletePlayer(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := admin.DeletePlayer(r.Context(), chi.URLParam(r, "playerID")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
