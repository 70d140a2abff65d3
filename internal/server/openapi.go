package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/houseparty/houseparty/internal/handler/health"
	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/livescore"
	"github.com/houseparty/houseparty/internal/party"
	"github.com/houseparty/houseparty/internal/squares"
)

// HealthResponse maps each dependency to its check outcome.
type HealthResponse map[string]health.Status

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               any
	ok                                 int
	errs                               []int
}

var operations = []operation{
	{http.MethodGet, "/healthz", "Health check", "Returns the health status of backend dependencies.",
		nil, HealthResponse{}, http.StatusOK, []int{http.StatusServiceUnavailable}},
	{http.MethodGet, "/api/templates", "List templates", "Returns the built-in game templates and their sizes.",
		nil, []houseparty.TemplateInfo{}, http.StatusOK, nil},
	{http.MethodGet, "/api/livescore/{eventID}", "Live score", "Returns the cached or freshly fetched score for an event.",
		nil, livescore.Score{}, http.StatusOK, []int{http.StatusNotFound, http.StatusBadGateway}},

	{http.MethodPost, "/api/party", "Create party", "Creates a party and its host guest.",
		CreatePartyRequest{}, CreatePartyResponse{}, http.StatusCreated, []int{http.StatusBadRequest}},
	{http.MethodGet, "/api/party/{code}", "Get party", "Returns the party with its games and guests.",
		nil, houseparty.Party{}, http.StatusOK, []int{http.StatusNotFound}},
	{http.MethodPatch, "/api/party/{code}", "Lock or unlock", "Host locks or unlocks predictions. Locking auto-assigns squares.",
		LockRequest{}, houseparty.Party{}, http.StatusOK, []int{http.StatusForbidden, http.StatusNotFound}},
	{http.MethodGet, "/api/party/{code}/qr.png", "Join QR code", "PNG QR code of the join link.",
		nil, nil, http.StatusOK, []int{http.StatusNotFound}},
	{http.MethodPost, "/api/party/{code}/join", "Join", "Adds a guest to the party.",
		JoinRequest{}, houseparty.Guest{}, http.StatusCreated, []int{http.StatusBadRequest, http.StatusNotFound}},
	{http.MethodPost, "/api/party/{code}/rejoin", "Rejoin", "Finds an existing guest by name, case-insensitively.",
		JoinRequest{}, houseparty.Guest{}, http.StatusOK, []int{http.StatusNotFound}},
	{http.MethodDelete, "/api/party/{code}/guests/{guestID}", "Remove guest", "Host removes a guest with their predictions and squares.",
		nil, nil, http.StatusNoContent, []int{http.StatusForbidden, http.StatusNotFound}},
	{http.MethodPatch, "/api/party/{code}/guests/{guestID}", "Squares opt-in", "Toggles whether a guest takes part in squares auto-assignment.",
		SquaresOptInRequest{}, houseparty.Guest{}, http.StatusOK, []int{http.StatusForbidden, http.StatusNotFound}},

	{http.MethodPost, "/api/party/{code}/games", "Add game", "Host appends a prediction game.",
		houseparty.GameSpec{}, houseparty.Game{}, http.StatusCreated, []int{http.StatusBadRequest, http.StatusForbidden}},
	{http.MethodPatch, "/api/party/{code}/games/{gameID}", "Update game", "Host edits an unscored game.",
		houseparty.GamePatch{}, houseparty.Game{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusForbidden, http.StatusLocked}},
	{http.MethodDelete, "/api/party/{code}/games/{gameID}", "Delete game", "Host deletes a game and its predictions.",
		nil, nil, http.StatusNoContent, []int{http.StatusForbidden, http.StatusNotFound}},
	{http.MethodPut, "/api/party/{code}/games/order", "Reorder games", "Host sets the order of all games.",
		ReorderRequest{}, []houseparty.Game{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusForbidden}},
	{http.MethodPost, "/api/party/{code}/template", "Load template", "Host appends a built-in template's games.",
		TemplateRequest{}, TemplateResponse{}, http.StatusCreated, []int{http.StatusForbidden, http.StatusNotFound}},

	{http.MethodPost, "/api/party/{code}/submit", "Submit prediction", "Records or replaces the caller's answer to a game.",
		SubmitRequest{}, houseparty.Prediction{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusNotFound, http.StatusLocked}},
	{http.MethodGet, "/api/party/{code}/predictions", "My predictions", "Returns gameId to answer for the caller.",
		nil, map[string]string{}, http.StatusOK, []int{http.StatusNotFound}},
	{http.MethodPost, "/api/party/{code}/score", "Score game", "Host sets the correct answer and awards points.",
		ScoreRequest{}, party.ScoreResult{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusForbidden}},
	{http.MethodGet, "/api/party/{code}/leaderboard", "Leaderboard", "Totals per guest and who got each scored game right.",
		nil, party.Board{}, http.StatusOK, []int{http.StatusNotFound}},

	{http.MethodGet, "/api/party/{code}/squares", "Get grid", "Returns the squares grid with claims and winners.",
		nil, squares.View{}, http.StatusOK, []int{http.StatusNotFound}},
	{http.MethodPost, "/api/party/{code}/squares", "Create grid", "Host creates the party's squares grid.",
		TeamsRequest{}, squares.View{}, http.StatusCreated, []int{http.StatusConflict, http.StatusForbidden}},
	{http.MethodPost, "/api/party/{code}/squares/claims", "Claim square", "Caller claims a free cell before the draw.",
		CellRequest{}, houseparty.Claim{}, http.StatusCreated, []int{http.StatusBadRequest, http.StatusConflict}},
	{http.MethodDelete, "/api/party/{code}/squares/claims", "Unclaim square", "Caller releases their own cell. Query: row, col.",
		nil, nil, http.StatusNoContent, []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict}},
	{http.MethodPost, "/api/party/{code}/squares/draw", "Draw numbers", "Host draws the row and column digits.",
		nil, squares.View{}, http.StatusOK, []int{http.StatusConflict, http.StatusForbidden}},
	{http.MethodPost, "/api/party/{code}/squares/auto-assign", "Auto-assign", "Host deals all cells to opted-in guests and draws numbers.",
		nil, squares.AssignResult{}, http.StatusOK, []int{http.StatusConflict, http.StatusForbidden}},
	{http.MethodPut, "/api/party/{code}/squares/scores", "Record score", "Host records a quarter score.",
		RecordScoreRequest{}, squares.View{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusForbidden}},
	{http.MethodPut, "/api/party/{code}/squares/teams", "Update teams", "Host renames the grid's teams.",
		TeamsRequest{}, squares.View{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusForbidden}},
	{http.MethodPut, "/api/party/{code}/squares/payouts", "Update payouts", "Host sets payout amounts per quarter.",
		PayoutsRequest{}, squares.View{}, http.StatusOK, []int{http.StatusBadRequest, http.StatusForbidden}},
	{http.MethodPost, "/api/party/{code}/squares/sync", "Sync live score", "Host feeds completed quarters from the live score into the grid.",
		nil, SyncResponse{}, http.StatusOK, []int{http.StatusForbidden, http.StatusBadGateway}},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "House Party API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for House Party prediction games and squares. " +
		"Guest-scoped calls identify the caller with the X-Guest-ID header or a Bearer token.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		switch {
		case op.path == "/api/party/{code}/qr.png":
			oc.AddRespStructure(nil, openapi.WithHTTPStatus(op.ok), openapi.WithContentType("image/png"))
		default:
			oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.ok))
		}
		for _, status := range op.errs {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
