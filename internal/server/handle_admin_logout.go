package server

import (
	"log/slog"
	"net/http"
)

func handleAdminLogout(logger *slog.Logger, admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(adminCookieName)
		if err == nil && cookie.Value != "" {
			if err := admin.DeleteAdminSession(r.Context(), cookie.Value); err != nil {
				logger.Warn("deleting admin session", "error", err)
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     adminCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
