package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/playperu/qrhunt/internal/database"
	"github.com/playperu/qrhunt/internal/hunt"
	"github.com/playperu/qrhunt/internal/migrations"
	"github.com/playperu/qrhunt/internal/seed"
	"github.com/playperu/qrhunt/internal/store"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "hunter2hunter2"
)

type testEnv struct {
	handler http.Handler
	store   *store.SQLiteStore
	engine  *hunt.Engine
	broker  *Broker
	metrics *Metrics
	eventID string
}

// newTestEnv builds the full router over a seeded demo event (4 clues,
// teams OWLS2026, FOXES2026, OTTERS2026, one decoy) with an admin account.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	db, err := database.Open(ctx, filepath.Join(t.TempDir(), "hunt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(ctx, db))

	st := store.NewSQLiteStore(db)
	eventID, err := seed.Demo(ctx, logger, st)
	require.NoError(t, err)
	require.NotEmpty(t, eventID)
	require.NoError(t, EnsureAdmin(ctx, logger, st, testAdminEmail, testAdminPassword))

	broker := NewBroker()
	metrics := NewMetrics()
	engine := hunt.NewEngine(st,
		hunt.WithNotifier(broker),
		hunt.WithLogger(logger),
		hunt.WithSeed(42),
	)

	return &testEnv{
		handler: NewHandler(logger, Deps{
			Store:   st,
			Engine:  engine,
			Broker:  broker,
			Metrics: metrics,
		}, nil),
		store:   st,
		engine:  engine,
		broker:  broker,
		metrics: metrics,
		eventID: eventID,
	}
}

type reqOption func(*http.Request)

func withBearer(token string) reqOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withCookies(cookies []*http.Cookie) reqOption {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...reqOption) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), "body: %s", w.Body.String())
	return v
}

func (e *testEnv) login(t *testing.T) []*http.Cookie {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/admin/login", AdminLoginRequest{
		Email:    testAdminEmail,
		Password: testAdminPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func (e *testEnv) join(t *testing.T, joinCode, name string) JoinResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/join", JoinRequest{JoinCode: joinCode, PlayerName: name})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[JoinResponse](t, w)
}

func (e *testEnv) startHunt(t *testing.T) StartHuntResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/admin/events/"+e.eventID+"/hunt/start", nil, withCookies(e.login(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[StartHuntResponse](t, w)
}

func (e *testEnv) progress(t *testing.T, token string) ProgressResponse {
	t.Helper()
	w := e.do(t, http.MethodGet, "/api/hunt/progress", nil, withBearer(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[ProgressResponse](t, w)
}

// qrTokens maps clue ID to the real QR token, and returns the decoy token.
func (e *testEnv) qrTokens(t *testing.T) (clues map[string]string, decoy string) {
	t.Helper()
	codes, err := e.store.ListQRCodes(context.Background(), e.eventID)
	require.NoError(t, err)

	clues = make(map[string]string)
	for _, q := range codes {
		if q.IsFake {
			decoy = q.Token
			continue
		}
		clues[q.ClueID] = q.Token
	}
	return clues, decoy
}
