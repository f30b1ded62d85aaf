package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/qrhunt/internal/hunt"
	"github.com/playperu/qrhunt/internal/store"
)

func TestTeamLookup(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/teams/owls2026", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[TeamLookupResponse](t, w)
	assert.Equal(t, "Night Owls", resp.Name)
	assert.Equal(t, env.eventID, resp.EventID)
	assert.Equal(t, "Old Town Demo Hunt", resp.EventName)
	assert.Equal(t, store.DefaultMaxPlayers, resp.MaxPlayers)
}

func TestTeamLookupNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/teams/NOPE1234", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTeamLookupInactiveEvent(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.store.SetEventActive(context.Background(), env.eventID, false)
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/teams/OWLS2026", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/join", JoinRequest{JoinCode: "OWLS2026", PlayerName: "Ana"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJoinValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body JoinRequest
	}{
		{"missing name", JoinRequest{JoinCode: "OWLS2026"}},
		{"blank name", JoinRequest{JoinCode: "OWLS2026", PlayerName: "   "}},
		{"missing code", JoinRequest{PlayerName: "Ana"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/join", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestJoinOutsideRegistrationWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	_, err := env.store.UpdateEvent(ctx, env.eventID, store.EventInput{
		Name:            "Old Town Demo Hunt",
		RegistrationEnd: &past,
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/join", JoinRequest{JoinCode: "OWLS2026", PlayerName: "Ana"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestJoinDisqualifiedTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	team, _, err := env.store.TeamByJoinCode(ctx, "FOXES2026")
	require.NoError(t, err)
	_, err = env.store.SetTeamDisqualified(ctx, team.ID, true)
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/join", JoinRequest{JoinCode: "FOXES2026", PlayerName: "Ana"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestJoinFullTeam(t *testing.T) {
	env := newTestEnv(t)

	env.join(t, "FOXES2026", "Ana")
	env.join(t, "FOXES2026", "Ben")

	w := env.do(t, http.MethodPost, "/api/join", JoinRequest{JoinCode: "FOXES2026", PlayerName: "Cy"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The Otters take four.
	for _, name := range []string{"Ana", "Ben", "Cy", "Dee"} {
		env.join(t, "OTTERS2026", name)
	}
	w = env.do(t, http.MethodPost, "/api/join", JoinRequest{JoinCode: "OTTERS2026", PlayerName: "Eve"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProgressBeforeStart(t *testing.T) {
	env := newTestEnv(t)
	player := env.join(t, "OWLS2026", "Ana")

	p := env.progress(t, player.Token)
	assert.Equal(t, hunt.StatusWaiting, p.Status)
	assert.Equal(t, player.TeamID, p.TeamID)
	assert.Equal(t, 4, p.TotalClues)
	assert.Nil(t, p.CurrentClue)

	w := env.do(t, http.MethodPost, "/api/hunt/scan", ScanRequest{Token: "QR_ANY"}, withBearer(player.Token))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(hunt.CodeHuntNotStarted), decode[ErrorResponse](t, w).Code)
}

func TestHuntRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/hunt/progress", nil},
		{http.MethodPost, "/api/hunt/scan", ScanRequest{Token: "QR_X"}},
		{http.MethodPost, "/api/hunt/hints", HintRequest{ClueID: "x"}},
		{http.MethodPost, "/api/hunt/clues/x/start", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = env.do(t, tt.method, tt.path, tt.body, withBearer("bogus"))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestScanFlow(t *testing.T) {
	env := newTestEnv(t)
	owl := env.join(t, "OWLS2026", "Ana")
	fox := env.join(t, "FOXES2026", "Ben")

	sum := env.startHunt(t)
	assert.Equal(t, 3, sum.TeamsReady)
	assert.Equal(t, 4, sum.CluesPerTeam)

	tokens, decoy := env.qrTokens(t)
	scan := func(token, qr string) *httptest.ResponseRecorder {
		return env.do(t, http.MethodPost, "/api/hunt/scan", ScanRequest{Token: qr}, withBearer(token))
	}

	p := env.progress(t, owl.Token)
	require.NotNil(t, p.CurrentClue)
	assert.Equal(t, hunt.StatusInProgress, p.Status)
	assert.Equal(t, 0, p.CurrentClue.StepIndex)
	assert.Positive(t, p.TimeRemainingSeconds)
	first := p.CurrentClue.ClueID

	w := scan(owl.Token, tokens[first])
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[ScanResponse](t, w)
	assert.Equal(t, hunt.OutcomeAdvanced, res.Outcome)
	assert.Equal(t, hunt.PointsFull, res.PointsEarned)
	assert.Equal(t, 10, res.NewScore)
	assert.Equal(t, 1, res.NewStep)
	assert.False(t, res.IsComplete)

	// Same code again.
	w = scan(owl.Token, tokens[first])
	assert.Equal(t, http.StatusConflict, w.Code)
	errResp := decode[ErrorResponse](t, w)
	assert.Equal(t, string(hunt.CodeAlreadyScanned), errResp.Code)

	// A clue out of order.
	p = env.progress(t, owl.Token)
	for clueID, qr := range tokens {
		if clueID == first || clueID == p.CurrentClue.ClueID {
			continue
		}
		w = scan(owl.Token, qr)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		errResp = decode[ErrorResponse](t, w)
		assert.Equal(t, string(hunt.CodeWrongClue), errResp.Code)
		require.NotNil(t, errResp.Retriable)
		assert.False(t, *errResp.Retriable)
		break
	}

	// Decoys never change score or step.
	w = scan(fox.Token, decoy)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decode[ScanResponse](t, w)
	assert.Equal(t, hunt.OutcomeDecoy, res.Outcome)
	assert.Equal(t, "https://example.com/nice-try", res.RedirectURL)
	assert.Equal(t, 0, res.NewScore)

	w = scan(owl.Token, "QR_DOESNOTEXIST")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(hunt.CodeInvalidToken), decode[ErrorResponse](t, w).Code)

	w = scan(owl.Token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/events/"+env.eventID+"/leaderboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[[]LeaderboardItem](t, w)
	require.Len(t, board, 3)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, owl.TeamID, board[0].TeamID)
	assert.Equal(t, 10, board[0].Score)
}

func TestCompleteHuntOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	player := env.join(t, "OTTERS2026", "Cleo")
	env.startHunt(t)
	tokens, _ := env.qrTokens(t)

	var last ScanResponse
	for i := 0; i < 4; i++ {
		p := env.progress(t, player.Token)
		require.NotNil(t, p.CurrentClue, "step %d", i)
		assert.Equal(t, i, p.CurrentClue.StepIndex)

		w := env.do(t, http.MethodPost, "/api/hunt/scan",
			ScanRequest{Token: tokens[p.CurrentClue.ClueID]}, withBearer(player.Token))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		last = decode[ScanResponse](t, w)
	}
	assert.True(t, last.IsComplete)
	assert.Equal(t, 40, last.NewScore)

	p := env.progress(t, player.Token)
	assert.Equal(t, hunt.StatusCompleted, p.Status)
	assert.Nil(t, p.CurrentClue)
	assert.NotNil(t, p.FinishedAt)

	var scanned string
	for _, qr := range tokens {
		scanned = qr
		break
	}
	w := env.do(t, http.MethodPost, "/api/hunt/scan", ScanRequest{Token: scanned}, withBearer(player.Token))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHintNotYetAvailable(t *testing.T) {
	env := newTestEnv(t)
	player := env.join(t, "OWLS2026", "Ana")
	env.startHunt(t)

	p := env.progress(t, player.Token)
	require.NotNil(t, p.CurrentClue)
	assert.True(t, p.CurrentClue.HasHint)
	assert.Empty(t, p.CurrentClue.HintText)

	w := env.do(t, http.MethodPost, "/api/hunt/clues/"+p.CurrentClue.OrderID+"/start", nil, withBearer(player.Token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	started := decode[ClueStartResponse](t, w)
	require.NotNil(t, started.StartedAt)

	// Starting again keeps the original timestamp.
	w = env.do(t, http.MethodPost, "/api/hunt/clues/"+p.CurrentClue.OrderID+"/start", nil, withBearer(player.Token))
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[ClueStartResponse](t, w)
	assert.True(t, started.StartedAt.Equal(*again.StartedAt))

	w = env.do(t, http.MethodPost, "/api/hunt/hints", HintRequest{ClueID: p.CurrentClue.ClueID}, withBearer(player.Token))
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	errResp := decode[ErrorResponse](t, w)
	assert.Equal(t, string(hunt.CodeHintNotYetAvailable), errResp.Code)
	require.NotNil(t, errResp.Retriable)
	assert.True(t, *errResp.Retriable)
	assert.Positive(t, errResp.RetryAfterSeconds)
	assert.LessOrEqual(t, errResp.RetryAfterSeconds, 300)

	w = env.do(t, http.MethodPost, "/api/hunt/hints", HintRequest{}, withBearer(player.Token))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "clueId is required", decode[ErrorResponse](t, w).Error)
}

func TestStartClueUnknownOrder(t *testing.T) {
	env := newTestEnv(t)
	player := env.join(t, "OWLS2026", "Ana")
	env.startHunt(t)

	w := env.do(t, http.MethodPost, "/api/hunt/clues/missing/start", nil, withBearer(player.Token))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
