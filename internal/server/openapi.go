package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

type StatusResponse struct {
	Status string `json:"status"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "QR Hunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the QR scavenger hunt.")

	add := func(method, path, summary, desc string, req, resp any, status int, errs ...int) {
		op, err := r.NewOperationContext(method, path)
		if err != nil {
			return
		}
		op.SetSummary(summary)
		op.SetDescription(desc)
		if req != nil {
			op.AddReqStructure(req)
		}
		op.AddRespStructure(resp, openapi.WithHTTPStatus(status))
		for _, code := range errs {
			op.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(code))
		}
		_ = r.AddOperation(op)
	}

	// GET /healthz
	add(http.MethodGet, "/healthz", "Health check",
		"Returns the health status of backend dependencies.",
		nil, map[string]StatusResponse{}, http.StatusOK, http.StatusServiceUnavailable)

	// Player
	add(http.MethodGet, "/api/teams/{joinCode}", "Look up team",
		"Look up a team of the active event by join code before joining.",
		nil, TeamLookupResponse{}, http.StatusOK, http.StatusNotFound)
	add(http.MethodPost, "/api/join", "Join a team",
		"Player joins a team during the registration window. Returns a session token.",
		JoinRequest{}, JoinResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict)
	add(http.MethodGet, "/api/hunt/progress", "Team progress",
		"Returns the team's score, status, time remaining and current clue. Requires Bearer token.",
		nil, ProgressResponse{}, http.StatusOK, http.StatusUnauthorized, http.StatusNotFound)
	add(http.MethodPost, "/api/hunt/scan", "Submit a scan",
		"Validates a scanned QR token against the team's expected clue. Requires Bearer token.",
		ScanRequest{}, ScanResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusConflict, http.StatusUnprocessableEntity)
	add(http.MethodPost, "/api/hunt/clues/{orderID}/start", "Start clue timer",
		"Records when the team first viewed the clue. Idempotent. Requires Bearer token.",
		nil, ClueStartResponse{}, http.StatusOK, http.StatusUnauthorized, http.StatusNotFound)
	add(http.MethodPost, "/api/hunt/hints", "Reveal timed hint",
		"Reveals the current clue's hint once the hint delay has elapsed. Requires Bearer token.",
		HintRequest{}, HintResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict, http.StatusUnprocessableEntity)
	add(http.MethodGet, "/api/events/{eventID}/leaderboard", "Leaderboard",
		"Teams ranked by score, then by finish time. Disqualified teams are omitted.",
		nil, []LeaderboardItem{}, http.StatusOK)

	streams := []struct{ path, summary, contentType string }{
		{"/api/hunt/events", "Team SSE stream", "text/event-stream"},
		{"/api/hunt/ws", "Team WebSocket stream", "text/plain"},
		{"/api/admin/events/{eventID}/feed", "Event SSE feed", "text/event-stream"},
	}
	for _, s := range streams {
		op, _ := r.NewOperationContext(http.MethodGet, s.path)
		op.SetSummary(s.summary)
		op.SetDescription("Live hunt updates. Player streams take the session token as a query parameter.")
		op.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK), openapi.WithContentType(s.contentType))
		_ = r.AddOperation(op)
	}

	// Admin auth
	add(http.MethodPost, "/api/admin/login", "Admin login",
		"Authenticate with email and password. Sets admin_session cookie.",
		AdminLoginRequest{}, AdminMeResponse{}, http.StatusOK, http.StatusBadRequest, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/logout", "Admin logout",
		"Clears admin session and cookie.",
		nil, StatusResponse{}, http.StatusOK)
	add(http.MethodGet, "/api/admin/me", "Current admin",
		"Returns the currently authenticated admin. Requires admin_session cookie.",
		nil, AdminMeResponse{}, http.StatusOK, http.StatusUnauthorized)

	// Admin events
	add(http.MethodGet, "/api/admin/events", "List events", "",
		nil, []AdminEventResponse{}, http.StatusOK, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/events", "Create event", "",
		AdminEventRequest{}, AdminEventResponse{}, http.StatusCreated, http.StatusBadRequest, http.StatusUnauthorized)
	add(http.MethodGet, "/api/admin/events/{eventID}", "Get event", "",
		nil, AdminEventResponse{}, http.StatusOK, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodPut, "/api/admin/events/{eventID}", "Update event", "",
		AdminEventRequest{}, AdminEventResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodDelete, "/api/admin/events/{eventID}", "Delete event",
		"Deletes the event with its clues, teams and scans.",
		nil, nil, http.StatusNoContent, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/events/{eventID}/activate", "Activate event",
		"Activates the event and deactivates every other event.",
		nil, AdminEventResponse{}, http.StatusOK, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/events/{eventID}/deactivate", "Deactivate event", "",
		nil, AdminEventResponse{}, http.StatusOK, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/events/{eventID}/hunt/start", "Start hunt",
		"Generates a clue order per team, resets progress and starts the clock.",
		nil, StartHuntResponse{}, http.StatusOK,
		http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/events/{eventID}/hunt/stop", "Stop hunt",
		"Clears the hunt start time. Progress is kept.",
		nil, StatusResponse{}, http.StatusOK, http.StatusNotFound, http.StatusUnauthorized)

	// Admin clues
	add(http.MethodGet, "/api/admin/events/{eventID}/clues", "List clues", "",
		nil, []AdminClueResponse{}, http.StatusOK, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/events/{eventID}/clues", "Create clue",
		"Creates a clue and its QR code.",
		AdminClueRequest{}, AdminClueResponse{}, http.StatusCreated,
		http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnauthorized)
	add(http.MethodPut, "/api/admin/clues/{clueID}", "Update clue", "",
		AdminClueRequest{}, AdminClueResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodDelete, "/api/admin/clues/{clueID}", "Delete clue",
		"Refused while the event's hunt is started.",
		nil, nil, http.StatusNoContent, http.StatusNotFound, http.StatusConflict, http.StatusUnauthorized)

	// Admin teams
	add(http.MethodGet, "/api/admin/events/{eventID}/teams", "List teams", "",
		nil, []AdminTeamResponse{}, http.StatusOK, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/events/{eventID}/teams", "Create team",
		"Creates a team. A blank join code is generated. During a hunt the team gets its clue order at once.",
		AdminTeamRequest{}, AdminTeamResponse{}, http.StatusCreated,
		http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/events/{eventID}/teams/generate", "Generate teams",
		"Creates numbered teams with join codes built from a prefix.",
		AdminGenerateTeamsRequest{}, []AdminTeamResponse{}, http.StatusCreated,
		http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnauthorized)
	add(http.MethodPut, "/api/admin/teams/{teamID}", "Update team",
		"Renames the team and optionally changes its capacity.",
		AdminTeamRequest{}, AdminTeamResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodDelete, "/api/admin/teams/{teamID}", "Delete team", "",
		nil, nil, http.StatusNoContent, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/teams/{teamID}/score", "Adjust score",
		"Adds a non-zero multiple of 5 to the score. The score never drops below zero.",
		AdminScoreRequest{}, AdminTeamResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/teams/{teamID}/disqualify", "Set disqualified", "",
		AdminDisqualifyRequest{}, AdminTeamResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized)

	// Admin players
	add(http.MethodGet, "/api/admin/events/{eventID}/players", "List players",
		"Players of the event in join order. Filter with ?teamId=.",
		nil, []AdminPlayerResponse{}, http.StatusOK, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodPut, "/api/admin/players/{playerID}/team", "Move player",
		"Moves a player to another team of the same event that has room.",
		AdminMovePlayerRequest{}, AdminPlayerResponse{}, http.StatusOK,
		http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnauthorized)
	add(http.MethodDelete, "/api/admin/players/{playerID}", "Remove player",
		"Deletes the player and ends their session.",
		nil, nil, http.StatusNoContent, http.StatusNotFound, http.StatusUnauthorized)

	// Admin QR codes
	add(http.MethodGet, "/api/admin/events/{eventID}/qr-codes", "List QR codes", "",
		nil, []AdminQRCodeResponse{}, http.StatusOK, http.StatusUnauthorized)
	add(http.MethodPost, "/api/admin/events/{eventID}/qr-codes/fake", "Create decoy QR code", "",
		AdminFakeQRRequest{}, AdminQRCodeResponse{}, http.StatusCreated,
		http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodDelete, "/api/admin/qr-codes/{qrID}", "Delete decoy QR code", "",
		nil, nil, http.StatusNoContent, http.StatusNotFound, http.StatusUnauthorized)
	add(http.MethodGet, "/api/admin/events/{eventID}/hall-of-shame", "Hall of shame",
		"Decoy scans for the event, newest first.",
		nil, []ShameItem{}, http.StatusOK, http.StatusUnauthorized)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
