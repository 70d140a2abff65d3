package party

import (
	"context"

	"github.com/houseparty/houseparty/internal/houseparty"
)

// Store persists parties and everything hanging off them. Not-found cases
// are reported with the houseparty sentinels.
type Store interface {
	// CreateParty inserts p and its host guest together. A code collision
	// yields houseparty.ErrCodeTaken.
	CreateParty(ctx context.Context, p houseparty.Party, host houseparty.Guest) error
	// PartyByCode loads a party with its guests in join order and its
	// games in display order.
	PartyByCode(ctx context.Context, code string) (houseparty.Party, error)
	SetLocked(ctx context.Context, partyID string, locked bool) error

	AddGuest(ctx context.Context, g houseparty.Guest) error
	// DeleteGuest removes the guest with its predictions and squares claims.
	DeleteGuest(ctx context.Context, partyID, guestID string) error
	SetWantsSquares(ctx context.Context, guestID string, wants bool) error

	// AddGames appends games after the party's current last game and
	// returns them with ids and order filled in.
	AddGames(ctx context.Context, partyID string, specs []houseparty.GameSpec) ([]houseparty.Game, error)
	// UpdateGame and DeleteGame fail with houseparty.ErrGameScored once
	// the game is scored.
	UpdateGame(ctx context.Context, partyID, gameID string, spec houseparty.GameSpec) (houseparty.Game, error)
	DeleteGame(ctx context.Context, partyID, gameID string) error
	// ReorderGames sets each game's order to its index in ids.
	ReorderGames(ctx context.Context, partyID string, ids []string) error

	// UpsertPrediction stores one answer per (guest, game), rejecting it
	// when the party is locked or the game scored at write time.
	UpsertPrediction(ctx context.Context, p houseparty.Prediction) (houseparty.Prediction, error)
	PredictionsByParty(ctx context.Context, partyID string) ([]houseparty.Prediction, error)
	PredictionsByGuest(ctx context.Context, guestID string) ([]houseparty.Prediction, error)

	// ScoreGame loads the game and its predictions, lets grade compute the
	// awards keyed by prediction id, then writes them and marks the game
	// scored, all in one transaction.
	ScoreGame(ctx context.Context, partyID, gameID, correctAnswer string, grade GradeFunc) (houseparty.Game, error)
}

// GradeFunc maps prediction ids to awarded points.
type GradeFunc func(g houseparty.Game, preds []houseparty.Prediction) (map[string]int, error)
