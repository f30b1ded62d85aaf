package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/qrhunt/internal/hunt"
	"github.com/playperu/qrhunt/internal/store"
)

// AdminEventRequest is the request body for creating/updating an event.
// Zero durations fall back to the defaults (60 and 5 minutes).
type AdminEventRequest struct {
	Name                string     `json:"name" validate:"required,max=100"`
	RegistrationStart   *time.Time `json:"registrationStart"`
	RegistrationEnd     *time.Time `json:"registrationEnd"`
	HuntDurationMinutes int        `json:"huntDurationMinutes" validate:"min=0,max=1440"`
	HintDelayMinutes    int        `json:"hintDelayMinutes" validate:"min=0,max=240"`
}

type AdminEventResponse struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	RegistrationStart   *time.Time `json:"registrationStart"`
	RegistrationEnd     *time.Time `json:"registrationEnd"`
	IsActive            bool       `json:"isActive"`
	HuntStartedAt       *time.Time `json:"huntStartedAt"`
	HuntEndsAt          *time.Time `json:"huntEndsAt"`
	HuntDurationMinutes int        `json:"huntDurationMinutes"`
	HintDelayMinutes    int        `json:"hintDelayMinutes"`
	CreatedAt           time.Time  `json:"createdAt"`
}

type StartHuntResponse struct {
	TeamsReady   int       `json:"teamsReady"`
	CluesPerTeam int       `json:"cluesPerTeam"`
	StartedAt    time.Time `json:"startedAt"`
}

func toEventResponse(e hunt.Event) AdminEventResponse {
	resp := AdminEventResponse{
		ID:                  e.ID,
		Name:                e.Name,
		RegistrationStart:   e.RegistrationStart,
		RegistrationEnd:     e.RegistrationEnd,
		IsActive:            e.IsActive,
		HuntStartedAt:       e.HuntStartedAt,
		HuntDurationMinutes: int(e.HuntDuration / time.Minute),
		HintDelayMinutes:    int(e.HintDelay / time.Minute),
		CreatedAt:           e.CreatedAt,
	}
	if end, ok := hunt.HuntEndsAt(e); ok {
		resp.HuntEndsAt = &end
	}
	return resp
}

// writeStoreError maps catalog errors from the store to HTTP.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hunt.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, hunt.ErrHuntInProgress):
		writeError(w, http.StatusConflict, "stop the hunt before changing its clues")
	case errors.Is(err, store.ErrTeamFull):
		writeError(w, http.StatusConflict, "team is full")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func readEventRequest(r *http.Request) (store.EventInput, error) {
	var req AdminEventRequest
	if err := decodeValid(r, &req); err != nil {
		return store.EventInput{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return store.EventInput{}, errors.New("name is required")
	}
	if req.RegistrationStart != nil && req.RegistrationEnd != nil &&
		req.RegistrationEnd.Before(*req.RegistrationStart) {
		return store.EventInput{}, errors.New("registrationEnd must not be before registrationStart")
	}
	return store.EventInput{
		Name:                req.Name,
		RegistrationStart:   req.RegistrationStart,
		RegistrationEnd:     req.RegistrationEnd,
		HuntDurationMinutes: req.HuntDurationMinutes,
		HintDelayMinutes:    req.HintDelayMinutes,
	}, nil
}

func handleAdminListEvents(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := admin.ListEvents(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		items := make([]AdminEventResponse, len(events))
		for i, e := range events {
			items[i] = toEventResponse(e)
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func handleAdminCreateEvent(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := readEventRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		e, err := admin.CreateEvent(r.Context(), in)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEventResponse(e))
	}
}

func handleAdminGetEvent(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := admin.Event(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

func handleAdminUpdateEvent(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := readEventRequest(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		e, err := admin.UpdateEvent(r.Context(), chi.URLParam(r, "eventID"), in)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

func handleAdminDeleteEvent(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := admin.DeleteEvent(r.Context(), chi.URLParam(r, "eventID")); err != nil {
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleAdminSetActive activates or deactivates an event. At most one event
// is active at a time.
func handleAdminSetActive(admin AdminStore, active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := admin.SetEventActive(r.Context(), chi.URLParam(r, "eventID"), active)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventResponse(e))
	}
}

func handleAdminStartHunt(engine *hunt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := engine.StartHunt(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeHuntError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, StartHuntResponse{
			TeamsReady:   sum.TeamsReady,
			CluesPerTeam: sum.CluesPerTeam,
			StartedAt:    sum.StartedAt,
		})
	}
}

func handleAdminStopHunt(engine *hunt.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.StopHunt(r.Context(), chi.URLParam(r, "eventID")); err != nil {
			writeHuntError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
	}
}
