package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/party"
)

func handleAddGame(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var spec houseparty.GameSpec
		if err := readJSON(r, &spec); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		g, err := parties.AddGame(r.Context(), chi.URLParam(r, "code"), guestID(r), spec)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)
	}
}

func handleUpdateGame(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch houseparty.GamePatch
		if err := readJSON(r, &patch); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		g, err := parties.UpdateGame(r.Context(), chi.URLParam(r, "code"), guestID(r), chi.URLParam(r, "gameID"), patch)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handleDeleteGame(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parties.DeleteGame(r.Context(), chi.URLParam(r, "code"), guestID(r), chi.URLParam(r, "gameID")); err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type ReorderRequest struct {
	GameIDs []string `json:"gameIds" validate:"required"`
}

func handleReorderGames(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReorderRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		games, err := parties.ReorderGames(r.Context(), chi.URLParam(r, "code"), guestID(r), req.GameIDs)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, games)
	}
}

type TemplateRequest struct {
	Template string `json:"template" validate:"required"`
}

type TemplateResponse struct {
	Added int               `json:"added"`
	Games []houseparty.Game `json:"games"`
}

func handleLoadTemplate(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TemplateRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		games, err := parties.LoadTemplate(r.Context(), chi.URLParam(r, "code"), guestID(r), req.Template)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, TemplateResponse{Added: len(games), Games: games})
	}
}

func handleTemplates(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos, err := houseparty.Templates()
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, infos)
	}
}
