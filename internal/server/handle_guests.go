package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/houseparty/houseparty/internal/party"
)

type JoinRequest struct {
	Name string `json:"name" validate:"required,max=40"`
}

func handleJoin(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		g, err := parties.Join(r.Context(), chi.URLParam(r, "code"), req.Name)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, g)
	}
}

func handleRejoin(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		g, err := parties.Rejoin(r.Context(), chi.URLParam(r, "code"), req.Name)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func handleRemoveGuest(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := parties.RemoveGuest(r.Context(), chi.URLParam(r, "code"), guestID(r), chi.URLParam(r, "guestID"))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type SquaresOptInRequest struct {
	WantsSquares *bool `json:"wantsSquares" validate:"required"`
}

func handleSquaresOptIn(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SquaresOptInRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		g, err := parties.SetSquaresOptIn(r.Context(), chi.URLParam(r, "code"), guestID(r), chi.URLParam(r, "guestID"), *req.WantsSquares)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}
