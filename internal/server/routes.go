package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	st, engine, broker, metrics := d.Store, d.Engine, d.Broker, d.Metrics

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("QR Hunt API", "/openapi.json", "/docs"))
	r.Handle("/metrics", metrics.Handler())

	// Player routes.
	r.Get("/api/teams/{joinCode}", handleTeamLookup(st))
	r.Post("/api/join", handleJoin(st, d.Notifier))
	r.Get("/api/events/{eventID}/leaderboard", handleLeaderboard(st))

	// Stream routes authenticate from the query string themselves.
	r.Get("/api/hunt/events", handleTeamEvents(st, broker, metrics))
	r.Get("/api/hunt/ws", handleTeamWS(logger, st, broker, metrics))

	r.Route("/api/hunt", func(r chi.Router) {
		r.Use(playerAuthMiddleware(st))
		r.Get("/progress", handleProgress(engine))
		r.Post("/scan", handleScan(engine, metrics))
		r.Post("/clues/{orderID}/start", handleStartClue(engine))
		r.Post("/hints", handleHint(engine, metrics))
	})

	// Admin auth.
	r.Post("/api/admin/login", handleAdminLogin(st))
	r.Post("/api/admin/logout", handleAdminLogout(logger, st))
	r.Get("/api/admin/me", handleAdminMe(st))

	r.Group(func(r chi.Router) {
		r.Use(adminAuthMiddleware(st))

		r.Route("/api/admin/events", func(r chi.Router) {
			r.Get("/", handleAdminListEvents(st))
			r.Post("/", handleAdminCreateEvent(st))

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", handleAdminGetEvent(st))
				r.Put("/", handleAdminUpdateEvent(st))
				r.Delete("/", handleAdminDeleteEvent(st))
				r.Post("/activate", handleAdminSetActive(st, true))
				r.Post("/deactivate", handleAdminSetActive(st, false))
				r.Post("/hunt/start", handleAdminStartHunt(engine))
				r.Post("/hunt/stop", handleAdminStopHunt(engine))

				r.Get("/clues", handleAdminListClues(st))
				r.Post("/clues", handleAdminCreateClue(st))
				r.Get("/teams", handleAdminListTeams(st))
				r.Post("/teams", handleAdminCreateTeam(engine))
				r.Post("/teams/generate", handleAdminGenerateTeams(st, engine))
				r.Get("/players", handleAdminListPlayers(st))
				r.Get("/qr-codes", handleAdminListQRCodes(st))
				r.Post("/qr-codes/fake", handleAdminCreateFakeQR(st))
				r.Get("/hall-of-shame", handleAdminHallOfShame(st))
				r.Get("/feed", handleAdminFeed(broker, metrics))
			})
		})

		r.Put("/api/admin/clues/{clueID}", handleAdminUpdateClue(st))
		r.Delete("/api/admin/clues/{clueID}", handleAdminDeleteClue(st))

		r.Put("/api/admin/teams/{teamID}", handleAdminUpdateTeam(st))
		r.Delete("/api/admin/teams/{teamID}", handleAdminDeleteTeam(st))
		r.Post("/api/admin/teams/{teamID}/score", handleAdminAdjustScore(st))
		r.Post("/api/admin/teams/{teamID}/disqualify", handleAdminDisqualify(st))

		r.Put("/api/admin/players/{playerID}/team", handleAdminMovePlayer(st))
		r.Delete("/api/admin/players/{playerID}", handleAdminDeletePlayer(st))

		r.Delete("/api/admin/qr-codes/{qrID}", handleAdminDeleteQR(st))
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
