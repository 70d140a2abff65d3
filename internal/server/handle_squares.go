package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/livescore"
	"github.com/houseparty/houseparty/internal/squares"
)

func handleGetGrid(logger *slog.Logger, sq *squares.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := sq.Grid(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type TeamsRequest struct {
	TeamHome string `json:"teamHome" validate:"max=40"`
	TeamAway string `json:"teamAway" validate:"max=40"`
}

func handleCreateGrid(logger *slog.Logger, sq *squares.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamsRequest
		if r.ContentLength != 0 {
			if err := readJSON(r, &req); err != nil {
				writeFailure(w, r, logger, err)
				return
			}
		}

		v, err := sq.CreateGrid(r.Context(), chi.URLParam(r, "code"), guestID(r), req.TeamHome, req.TeamAway)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, v)
	}
}

type CellRequest struct {
	Row *int `json:"row" validate:"required,gte=0,lte=9"`
	Col *int `json:"col" validate:"required,gte=0,lte=9"`
}

func handleClaim(logger *slog.Logger, sq *squares.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CellRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		c, err := sq.Claim(r.Context(), chi.URLParam(r, "code"), guestID(r), *req.Row, *req.Col)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

func handleUnclaim(logger *slog.Logger, sq *squares.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, rerr := strconv.Atoi(r.URL.Query().Get("row"))
		col, cerr := strconv.Atoi(r.URL.Query().Get("col"))
		if rerr != nil || cerr != nil {
			writeFailure(w, r, logger, houseparty.Invalid("row and col query parameters are required"))
			return
		}

		if err := sq.Unclaim(r.Context(), chi.URLParam(r, "code"), guestID(r), row, col); err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleDraw(logger *slog.Logger, sq *squares.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := sq.Draw(r.Context(), chi.URLParam(r, "code"), guestID(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func handleAutoAssign(logger *slog.Logger, sq *squares.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := sq.AutoAssign(r.Context(), chi.URLParam(r, "code"), guestID(r))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type RecordScoreRequest struct {
	Quarter   string `json:"quarter" validate:"required"`
	HomeScore *int   `json:"homeScore" validate:"required,gte=0"`
	AwayScore *int   `json:"awayScore" validate:"required,gte=0"`
}

func handleRecordScore(logger *slog.Logger, sq *squares.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RecordScoreRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		q, err := houseparty.ParseQuarter(req.Quarter)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		score := houseparty.ScorePair{Home: *req.HomeScore, Away: *req.AwayScore}
		v, err := sq.RecordScore(r.Context(), chi.URLParam(r, "code"), guestID(r), q, score)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func handleUpdateTeams(logger *slog.Logger, sq *squares.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamsRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		v, err := sq.UpdateTeams(r.Context(), chi.URLParam(r, "code"), guestID(r), req.TeamHome, req.TeamAway)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type PayoutsRequest struct {
	Payouts map[houseparty.Quarter]float64 `json:"payouts" validate:"required"`
}

func handleUpdatePayouts(logger *slog.Logger, sq *squares.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PayoutsRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		v, err := sq.UpdatePayouts(r.Context(), chi.URLParam(r, "code"), guestID(r), req.Payouts)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type SyncResponse struct {
	Score livescore.Score `json:"score"`
	Fed   []livescore.Fed `json:"fed"`
}

// handleSyncScores runs one auto-feed pass from the live score into the
// party's grid.
func handleSyncScores(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		p, err := d.Parties.Party(r.Context(), code)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		if p.HostID != guestID(r) {
			writeFailure(w, r, logger, houseparty.ErrNotHost)
			return
		}

		score, err := d.LiveScore.Get(r.Context(), d.EventID)
		if err != nil {
			writeError(w, http.StatusBadGateway, livescore.ErrNoData.Error())
			return
		}

		fed, err := d.Feeder.Feed(r.Context(), p.Code, score)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		if fed == nil {
			fed = []livescore.Fed{}
		}
		writeJSON(w, http.StatusOK, SyncResponse{Score: score, Fed: fed})
	}
}
