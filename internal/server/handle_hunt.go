package server

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/qrhunt/internal/hunt"
)

type CurrentClueResponse struct {
	OrderID                string     `json:"orderId"`
	ClueID                 string     `json:"clueId"`
	StepIndex              int        `json:"stepIndex"`
	Text                   string     `json:"text"`
	LocationHint           string     `json:"locationHint"`
	StartedAt              *time.Time `json:"startedAt"`
	HasHint                bool       `json:"hasHint"`
	HintViewed             bool       `json:"hintViewed"`
	HintText               string     `json:"hintText,omitempty"`
	HintAvailableInSeconds int        `json:"hintAvailableInSeconds"`
}

type ProgressResponse struct {
	TeamID               string               `json:"teamId"`
	TeamName             string               `json:"teamName"`
	EventID              string               `json:"eventId"`
	EventName            string               `json:"eventName"`
	Status               hunt.TeamStatus      `json:"status"`
	Score                int                  `json:"score"`
	CurrentStep          int                  `json:"currentStep"`
	TotalClues           int                  `json:"totalClues"`
	TimeRemainingSeconds int                  `json:"timeRemainingSeconds"`
	FinishedAt           *time.Time           `json:"finishedAt"`
	CurrentClue          *CurrentClueResponse `json:"currentClue"`
}

func seconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}

func handleProgress(engine *hunt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		p, err := engine.Progress(r.Context(), sess.TeamID)
		if err != nil {
			writeHuntError(w, err)
			return
		}

		resp := ProgressResponse{
			TeamID:               p.Team.ID,
			TeamName:             p.Team.Name,
			EventID:              p.Event.ID,
			EventName:            p.Event.Name,
			Status:               p.Status,
			Score:                p.Team.Score,
			CurrentStep:          p.Team.CurrentStep,
			TotalClues:           p.TotalClues,
			TimeRemainingSeconds: seconds(p.TimeRemaining),
			FinishedAt:           p.Team.HuntFinishedAt,
		}
		if c := p.Current; c != nil {
			cur := &CurrentClueResponse{
				OrderID:                c.Order.ID,
				ClueID:                 c.Clue.ID,
				StepIndex:              c.Order.StepIndex,
				Text:                   c.Clue.Text,
				LocationHint:           c.Clue.LocationHint,
				StartedAt:              c.Order.ClueStartedAt,
				HasHint:                c.Clue.TimedHintText != "",
				HintViewed:             c.Order.HintViewed,
				HintAvailableInSeconds: seconds(c.HintUnlockIn),
			}
			if c.Order.HintViewed {
				cur.HintText = c.Clue.TimedHintText
			}
			resp.CurrentClue = cur
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type ScanRequest struct {
	Token string `json:"token" validate:"required"`
}

type ScanResponse struct {
	Outcome      hunt.ScanOutcome `json:"outcome"`
	PointsEarned int              `json:"pointsEarned"`
	HintUsed     bool             `json:"hintUsed"`
	NewScore     int              `json:"newScore"`
	NewStep      int              `json:"newStep"`
	TotalClues   int              `json:"totalClues"`
	IsComplete   bool             `json:"isComplete"`
	RedirectURL  string           `json:"redirectUrl,omitempty"`
	Label        string           `json:"label,omitempty"`
}

func handleScan(engine *hunt.Engine, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		var req ScanRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		res, err := engine.SubmitScan(r.Context(), hunt.ScanRequest{
			Token:    strings.TrimSpace(req.Token),
			TeamID:   sess.TeamID,
			PlayerID: sess.PlayerID,
		})
		if err != nil {
			metrics.Scans.WithLabelValues(string(hunt.CodeOf(err))).Inc()
			writeHuntError(w, err)
			return
		}

		result := string(res.Outcome)
		if res.IsComplete {
			result = "completed"
		}
		metrics.Scans.WithLabelValues(result).Inc()

		resp := ScanResponse{
			Outcome:      res.Outcome,
			PointsEarned: res.PointsEarned,
			HintUsed:     res.HintUsed,
			NewScore:     res.NewScore,
			NewStep:      res.NewStep,
			TotalClues:   res.TotalClues,
			IsComplete:   res.IsComplete,
		}
		if res.Decoy != nil {
			resp.RedirectURL = res.Decoy.RedirectURL
			resp.Label = res.Decoy.Label
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type ClueStartResponse struct {
	OrderID   string     `json:"orderId"`
	StepIndex int        `json:"stepIndex"`
	StartedAt *time.Time `json:"startedAt"`
}

func handleStartClue(engine *hunt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		o, err := engine.StartClue(r.Context(), sess.TeamID, chi.URLParam(r, "orderID"))
		if err != nil {
			writeHuntError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ClueStartResponse{
			OrderID:   o.ID,
			StepIndex: o.StepIndex,
			StartedAt: o.ClueStartedAt,
		})
	}
}

type HintRequest struct {
	ClueID string `json:"clueId" validate:"required"`
}

type HintResponse struct {
	Text          string `json:"text"`
	AlreadyViewed bool   `json:"alreadyViewed"`
}

func handleHint(engine *hunt.Engine, metrics *Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := playerFrom(r)

		var req HintRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		hint, err := engine.ViewHint(r.Context(), sess.TeamID, req.ClueID, sess.PlayerID)
		if err != nil {
			writeHuntError(w, err)
			return
		}
		if !hint.AlreadyViewed {
			metrics.HintsRevealed.Inc()
		}

		writeJSON(w, http.StatusOK, HintResponse{
			Text:          hint.Text,
			AlreadyViewed: hint.AlreadyViewed,
		})
	}
}
