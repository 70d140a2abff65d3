package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/houseparty/houseparty/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("House Party API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, d.Checks).Routes())

	r.Get("/api/templates", handleTemplates(logger))
	r.Get("/api/livescore/{eventID}", handleLiveScore(logger, d.LiveScore))
	r.Post("/api/party", handleCreateParty(logger, d.Parties))

	r.Route("/api/party/{code}", func(r chi.Router) {
		r.Get("/", handleGetParty(logger, d.Parties))
		r.Get("/qr.png", handleJoinQR(logger, d.Parties, d.PublicURL))
		r.Post("/join", handleJoin(logger, d.Parties))
		r.Post("/rejoin", handleRejoin(logger, d.Parties))
		r.Get("/leaderboard", handleLeaderboard(logger, d.Parties))
		r.Get("/squares", handleGetGrid(logger, d.Squares))

		// Everything below acts on behalf of a guest.
		r.Group(func(r chi.Router) {
			r.Use(requireGuest)

			r.Patch("/", handleSetLocked(logger, d.Parties))
			r.Delete("/guests/{guestID}", handleRemoveGuest(logger, d.Parties))
			r.Patch("/guests/{guestID}", handleSquaresOptIn(logger, d.Parties))

			r.Post("/games", handleAddGame(logger, d.Parties))
			r.Put("/games/order", handleReorderGames(logger, d.Parties))
			r.Patch("/games/{gameID}", handleUpdateGame(logger, d.Parties))
			r.Delete("/games/{gameID}", handleDeleteGame(logger, d.Parties))
			r.Post("/template", handleLoadTemplate(logger, d.Parties))

			r.Post("/submit", handleSubmit(logger, d.Parties))
			r.Get("/predictions", handlePredictions(logger, d.Parties))
			r.Post("/score", handleScore(logger, d.Parties))

			r.Post("/squares", handleCreateGrid(logger, d.Squares))
			r.Post("/squares/claims", handleClaim(logger, d.Squares))
			r.Delete("/squares/claims", handleUnclaim(logger, d.Squares))
			r.Post("/squares/draw", handleDraw(logger, d.Squares))
			r.Post("/squares/auto-assign", handleAutoAssign(logger, d.Squares))
			r.Put("/squares/scores", handleRecordScore(logger, d.Squares))
			r.Put("/squares/teams", handleUpdateTeams(logger, d.Squares))
			r.Put("/squares/payouts", handleUpdatePayouts(logger, d.Squares))
			r.Post("/squares/sync", handleSyncScores(logger, d))
		})
	})
}
