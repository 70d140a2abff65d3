package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/party"
)

type CreatePartyRequest struct {
	Name     string `json:"name" validate:"required,max=80"`
	HostName string `json:"hostName" validate:"required,max=40"`
}

type CreatePartyResponse struct {
	Party houseparty.Party `json:"party"`
	Guest houseparty.Guest `json:"guest"`
}

func handleCreateParty(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreatePartyRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		p, host, err := parties.CreateParty(r.Context(), req.Name, req.HostName)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, CreatePartyResponse{Party: p, Guest: host})
	}
}

func handleGetParty(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parties.Party(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

type LockRequest struct {
	IsLocked *bool `json:"isLocked" validate:"required"`
}

func handleSetLocked(logger *slog.Logger, parties *party.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LockRequest
		if err := readJSON(r, &req); err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		p, err := parties.SetLocked(r.Context(), chi.URLParam(r, "code"), guestID(r), *req.IsLocked)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

const qrSize = 320

func handleJoinQR(logger *slog.Logger, parties *party.Service, publicURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := parties.Party(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		link := strings.TrimRight(publicURL, "/") + "/join?code=" + url.QueryEscape(p.Code)
		png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
		if err != nil {
			writeFailure(w, r, logger, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		_, _ = w.Write(png)
	}
}
