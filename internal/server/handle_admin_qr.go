package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/qrhunt/internal/hunt"
)

type AdminFakeQRRequest struct {
	Label       string `json:"label" validate:"required,max=100"`
	RedirectURL string `json:"redirectUrl" validate:"omitempty,url"`
}

type AdminQRCodeResponse struct {
	ID          string `json:"id"`
	ClueID      string `json:"clueId,omitempty"`
	Token       string `json:"token"`
	IsFake      bool   `json:"isFake"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	Label       string `json:"label"`
}

type ShameItem struct {
	ID         string    `json:"id"`
	TeamID     string    `json:"teamId"`
	TeamName   string    `json:"teamName"`
	PlayerName string    `json:"playerName"`
	Label      string    `json:"label"`
	ScannedAt  time.Time `json:"scannedAt"`
}

func toQRCodeResponse(q hunt.QRCode) AdminQRCodeResponse {
	return AdminQRCodeResponse{
		ID:          q.ID,
		ClueID:      q.ClueID,
		Token:       q.Token,
		IsFake:      q.IsFake,
		RedirectURL: q.RedirectURL,
		Label:       q.Label,
	}
}

func handleAdminListQRCodes(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codes, err := admin.ListQRCodes(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]AdminQRCodeResponse, len(codes))
		for i, q := range codes {
			items[i] = toQRCodeResponse(q)
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAdminCreateFakeQR(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		if _, err := admin.Event(r.Context(), eventID); err != nil {
			writeStoreError(w, err)
			return
		}

		var req AdminFakeQRRequest
		if err := decodeValid(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		q, err := admin.CreateFakeQRCode(r.Context(), eventID, strings.TrimSpace(req.Label), req.RedirectURL)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toQRCodeResponse(q))
	}
}

// handleAdminDeleteQR deletes a decoy code. Real codes are removed with
// their clue and report not found here.
func handleAdminDeleteQR(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := admin.DeleteFakeQRCode(r.Context(), chi.URLParam(r, "qrID")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAdminHallOfShame(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := admin.HallOfShame(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]ShameItem, len(entries))
		for i, e := range entries {
			items[i] = ShameItem(e)
		}
		writeJSON(w, http.StatusOK, items)
	}
}
