package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/qrhunt/internal/hunt"
)

type AdminTeamRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	JoinCode   string `json:"joinCode" validate:"omitempty,alphanum,min=4,max=20"`
	MaxPlayers int    `json:"maxPlayers" validate:"omitempty,min=1,max=20"`
}

// AdminGenerateTeamsRequest creates Count numbered teams. Join codes are
// Prefix followed by the team number; the prefix defaults to the event name.
type AdminGenerateTeamsRequest struct {
	Count      int    `json:"count" validate:"min=1,max=100"`
	Prefix     string `json:"prefix" validate:"omitempty,alphanum,max=12"`
	MaxPlayers int    `json:"maxPlayers" validate:"omitempty,min=1,max=20"`
}

type AdminScoreRequest struct {
	Delta int `json:"delta" validate:"score_step"`
}

type AdminDisqualifyRequest struct {
	Disqualified bool `json:"disqualified"`
}

type AdminTeamResponse struct {
	ID             string     `json:"id"`
	EventID        string     `json:"eventId"`
	Name           string     `json:"name"`
	JoinCode       string     `json:"joinCode"`
	Score          int        `json:"score"`
	CurrentStep    int        `json:"currentStep"`
	IsDisqualified bool       `json:"isDisqualified"`
	MaxPlayers     int        `json:"maxPlayers"`
	FinishedAt     *time.Time `json:"finishedAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toTeamResponse(t hunt.Team) AdminTeamResponse {
	return AdminTeamResponse{
		ID:             t.ID,
		EventID:        t.EventID,
		Name:           t.Name,
		JoinCode:       t.JoinCode,
		Score:          t.Score,
		CurrentStep:    t.CurrentStep,
		IsDisqualified: t.IsDisqualified,
		MaxPlayers:     t.MaxPlayers,
		FinishedAt:     t.HuntFinishedAt,
		CreatedAt:      t.CreatedAt,
	}
}

func handleAdminListTeams(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := admin.ListTeams(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]AdminTeamResponse, len(teams))
		for i, t := range teams {
			items[i] = toTeamResponse(t)
		}
		writeJSON(w, http.StatusOK, items)
	}
}

// handleAdminCreateTeam adds a team. A blank join code is generated. Once
// the hunt has started the team gets its clue order immediately.
func handleAdminCreateTeam(engine *hunt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminTeamRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		teams, err := engine.AddTeams(r.Context(), chi.URLParam(r, "eventID"), []hunt.NewTeam{{
			Name:       strings.TrimSpace(req.Name),
			JoinCode:   req.JoinCode,
			MaxPlayers: req.MaxPlayers,
		}})
		if err != nil {
			writeHuntError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTeamResponse(teams[0]))
	}
}

// handleAdminGenerateTeams bulk-creates "Team N" teams numbered after the
// event's existing teams.
func handleAdminGenerateTeams(admin AdminStore, engine *hunt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		ev, err := admin.Event(r.Context(), eventID)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		var req AdminGenerateTeamsRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		existing, err := admin.ListTeams(r.Context(), eventID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		prefix := strings.ToUpper(req.Prefix)
		if prefix == "" {
			prefix = joinCodePrefix(ev.Name)
		}

		newTeams := make([]hunt.NewTeam, req.Count)
		for i := range newTeams {
			n := len(existing) + i + 1
			newTeams[i] = hunt.NewTeam{
				Name:       fmt.Sprintf("Team %d", n),
				JoinCode:   fmt.Sprintf("%s%03d", prefix, n),
				MaxPlayers: req.MaxPlayers,
			}
		}

		teams, err := engine.AddTeams(r.Context(), eventID, newTeams)
		if err != nil {
			writeHuntError(w, err)
			return
		}

		items := make([]AdminTeamResponse, len(teams))
		for i, t := range teams {
			items[i] = toTeamResponse(t)
		}
		writeJSON(w, http.StatusCreated, items)
	}
}

// joinCodePrefix keeps the first eight letters and digits of the event name.
func joinCodePrefix(eventName string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(eventName) {
		if b.Len() == 8 {
			break
		}
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "TEAM"
	}
	return b.String()
}

func handleAdminUpdateTeam(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminTeamRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		t, err := admin.UpdateTeam(r.Context(), chi.URLParam(r, "teamID"), strings.TrimSpace(req.Name), req.MaxPlayers)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTeamResponse(t))
	}
}

func handleAdminDeleteTeam(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := admin.DeleteTeam(r.Context(), chi.URLParam(r, "teamID")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleAdminAdjustScore applies a manual score correction in steps of five.
func handleAdminAdjustScore(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminScoreRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		t, err := admin.AdjustScore(r.Context(), chi.URLParam(r, "teamID"), req.Delta)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTeamResponse(t))
	}
}

func handleAdminDisqualify(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminDisqualifyRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		t, err := admin.SetTeamDisqualified(r.Context(), chi.URLParam(r, "teamID"), req.Disqualified)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTeamResponse(t))
	}
}
