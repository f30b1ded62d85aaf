package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/qrhunt/internal/hunt"
	"github.com/playperu/qrhunt/internal/store"
)

type AdminClueRequest struct {
	StepNumber    int    `json:"stepNumber" validate:"min=1"`
	Text          string `json:"text" validate:"required,max=1000"`
	LocationHint  string `json:"locationHint" validate:"max=500"`
	TimedHintText string `json:"timedHintText" validate:"max=1000"`
	AnswerNotes   string `json:"answerNotes" validate:"max=1000"`
}

type AdminClueResponse struct {
	ID            string `json:"id"`
	EventID       string `json:"eventId"`
	StepNumber    int    `json:"stepNumber"`
	Text          string `json:"text"`
	LocationHint  string `json:"locationHint"`
	TimedHintText string `json:"timedHintText"`
	AnswerNotes   string `json:"answerNotes"`
	QRToken       string `json:"qrToken,omitempty"`
}

func toClueResponse(c hunt.Clue) AdminClueResponse {
	return AdminClueResponse{
		ID:            c.ID,
		EventID:       c.EventID,
		StepNumber:    c.StepNumber,
		Text:          c.Text,
		LocationHint:  c.LocationHint,
		TimedHintText: c.TimedHintText,
		AnswerNotes:   c.AnswerNotes,
	}
}

func readClueRequest(r *http.Request) (store.ClueInput, error) {
	var req AdminClueRequest
	if err := decodeValid(r, &req); err != nil {
		return store.ClueInput{}, err
	}
	return store.ClueInput{
		StepNumber:    req.StepNumber,
		Text:          strings.TrimSpace(req.Text),
		LocationHint:  strings.TrimSpace(req.LocationHint),
		TimedHintText: strings.TrimSpace(req.TimedHintText),
		AnswerNotes:   strings.TrimSpace(req.AnswerNotes),
	}, nil
}

// handleAdminListClues lists clues in authoring order with their QR tokens.
func handleAdminListClues(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		clues, err := admin.ListClues(r.Context(), eventID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		codes, err := admin.ListQRCodes(r.Context(), eventID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		tokens := make(map[string]string, len(codes))
		for _, q := range codes {
			if !q.IsFake {
				tokens[q.ClueID] = q.Token
			}
		}

		items := make([]AdminClueResponse, len(clues))
		for i, c := range clues {
			items[i] = toClueResponse(c)
			items[i].QRToken = tokens[c.ID]
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAdminCreateClue(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		if _, err := admin.Event(r.Context(), eventID); err != nil {
			writeStoreError(w, err)
			return
		}

		in, err := readClueRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		c, q, err := admin.CreateClue(r.Context(), eventID, in)
		if err != nil {
			writeStoreError(w, err)
			return
		}

		resp := toClueResponse(c)
		resp.QRToken = q.Token
		writeJSON(w, http.StatusCreated, resp)
	}
}

func handleAdminUpdateClue(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := readClueRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		c, err := admin.UpdateClue(r.Context(), chi.URLParam(r, "clueID"), in)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toClueResponse(c))
	}
}

func handleAdminDeleteClue(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := admin.DeleteClue(r.Context(), chi.URLParam(r, "clueID")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
