package server

import (
	"context"
	"net/http"

	"github.com/playperu/qrhunt/internal/store"
)

type ctxKey int

const (
	ctxKeyPlayer ctxKey = iota
	ctxKeyAdmin
)

// playerAuthMiddleware resolves the bearer session token to a player.
func playerAuthMiddleware(players PlayerStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := playerFromRequest(r, players)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid or missing session token")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyPlayer, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func adminAuthMiddleware(admin AdminStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := adminFromRequest(r, admin)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyAdmin, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func playerFrom(r *http.Request) store.PlayerSession {
	return r.Context().Value(ctxKeyPlayer).(store.PlayerSession)
}

func adminFrom(r *http.Request) store.AdminSession {
	return r.Context().Value(ctxKeyAdmin).(store.AdminSession)
}
