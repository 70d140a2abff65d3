package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/houseparty/houseparty/internal/party"
)

type SubmitRequest struct {
	GameID string `json:"gameId" validate:"required"`
	Answer string `json:"answer" validate:"required,max=200"`
}

func handleSubmit(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SubmitRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		pred, err := parties.Submit(r.Context(), chi.URLParam(r, "code"), guestID(r), req.GameID, req.Answer)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, pred)
	}
}

func handlePredictions(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		preds, err := parties.Predictions(r.Context(), chi.URLParam(r, "code"), guestID(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, preds)
	}
}

type ScoreRequest struct {
	GameID        string `json:"gameId" validate:"required"`
	CorrectAnswer string `json:"correctAnswer" validate:"required"`
}

func handleScore(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScoreRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		res, err := parties.Score(r.Context(), chi.URLParam(r, "code"), guestID(r), req.GameID, req.CorrectAnswer)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func handleLeaderboard(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := parties.Leaderboard(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, board)
	}
}
