package server

import (
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAdminKeepsExistingPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, EnsureAdmin(ctx, slog.New(slog.DiscardHandler), env.store, testAdminEmail, "a-different-password"))

	w := env.do(t, http.MethodPost, "/api/admin/login", AdminLoginRequest{
		Email:    testAdminEmail,
		Password: "a-different-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env.login(t)
}

func TestEnsureAdminSkipsBlankCredentials(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, EnsureAdmin(context.Background(), slog.New(slog.DiscardHandler), env.store, "", ""))
}
