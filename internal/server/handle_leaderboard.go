package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type LeaderboardItem struct {
	Rank        int        `json:"rank"`
	TeamID      string     `json:"teamId"`
	TeamName    string     `json:"teamName"`
	Score       int        `json:"score"`
	CurrentStep int        `json:"currentStep"`
	FinishedAt  *time.Time `json:"finishedAt"`
}

func handleLeaderboard(players PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := players.Leaderboard(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]LeaderboardItem, len(entries))
		for i, e := range entries {
			items[i] = LeaderboardItem{
				Rank:        i + 1,
				TeamID:      e.TeamID,
				TeamName:    e.TeamName,
				Score:       e.Score,
				CurrentStep: e.CurrentStep,
				FinishedAt:  e.FinishedAt,
			}
		}
		writeJSON(w, http.StatusOK, items)
	}
}
