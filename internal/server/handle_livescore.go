package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/houseparty/houseparty/internal/livescore"
)

func handleLiveScore(logger *slog.Logger, scores *livescore.Adapter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := scores.Get(r.Context(), chi.URLParam(r, "eventID"))
		if errors.Is(err, livescore.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		if err != nil {
			logger.WarnContext(r.Context(), "live score unavailable", "error", err)
			writeError(w, http.StatusBadGateway, livescore.ErrNoData.Error())
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}
