package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/houseparty/houseparty/internal/houseparty"
)

// addAttempts bounds retries when concurrent inserts race for the next
// display order.
const addAttempts = 3

const gameColumns = `id, party_id, type, question, hint, category, options,
	over_under_value, points, correct_answer, is_scored, sort_order`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(sc rowScanner) (houseparty.Game, error) {
	var (
		g       houseparty.Game
		options string
		ouv     sql.NullFloat64
		correct sql.NullString
	)
	err := sc.Scan(&g.ID, &g.PartyID, &g.Type, &g.Question, &g.Hint, &g.Category, &options,
		&ouv, &g.Points, &correct, &g.IsScored, &g.Order)
	if err != nil {
		return g, err
	}
	if err := json.Unmarshal([]byte(options), &g.Options); err != nil {
		return g, fmt.Errorf("decoding options: %w", err)
	}
	if len(g.Options) == 0 {
		g.Options = nil
	}
	if ouv.Valid {
		g.OverUnderValue = &ouv.Float64
	}
	if correct.Valid {
		g.CorrectAnswer = &correct.String
	}
	return g, nil
}

func listGames(ctx context.Context, r runner, partyID string) ([]houseparty.Game, error) {
	rows, err := r.query(ctx, `
		SELECT `+gameColumns+`
		FROM games WHERE party_id = ?
		ORDER BY sort_order
	`, partyID)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	games := []houseparty.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func loadGame(ctx context.Context, r runner, partyID, gameID string) (houseparty.Game, error) {
	g, err := scanGame(r.queryRow(ctx, `
		SELECT `+gameColumns+`
		FROM games WHERE id = ? AND party_id = ?
	`, gameID, partyID))
	if errors.Is(err, sql.ErrNoRows) {
		return g, houseparty.ErrGameNotFound
	}
	if err != nil {
		return g, fmt.Errorf("loading game: %w", err)
	}
	return g, nil
}

func optionsArg(opts []string) (string, error) {
	if opts == nil {
		opts = []string{}
	}
	return encodeJSON(opts)
}

func (s *Store) AddGames(ctx context.Context, partyID string, specs []houseparty.GameSpec) ([]houseparty.Game, error) {
	var (
		games []houseparty.Game
		err   error
	)
	for range addAttempts {
		games, err = s.addGames(ctx, partyID, specs)
		if !isUniqueViolation(err) {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("adding games: %w", err)
	}
	return games, nil
}

func (s *Store) addGames(ctx context.Context, partyID string, specs []houseparty.GameSpec) ([]houseparty.Game, error) {
	games := make([]houseparty.Game, 0, len(specs))
	err := s.inTx(ctx, func(r runner) error {
		var last int
		if err := r.queryRow(ctx, `
			SELECT COALESCE(MAX(sort_order), -1) FROM games WHERE party_id = ?
		`, partyID).Scan(&last); err != nil {
			return err
		}

		for i, spec := range specs {
			g := houseparty.Game{
				ID:             houseparty.NewID(),
				PartyID:        partyID,
				Type:           spec.Type,
				Question:       spec.Question,
				Hint:           spec.Hint,
				Category:       spec.Category,
				Options:        spec.Options,
				OverUnderValue: spec.OverUnderValue,
				Points:         spec.Points,
				Order:          last + 1 + i,
			}
			opts, err := optionsArg(g.Options)
			if err != nil {
				return err
			}
			if _, err := r.exec(ctx, `
				INSERT INTO games (id, party_id, type, question, hint, category, options,
					over_under_value, points, is_scored, sort_order)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?)
			`, g.ID, g.PartyID, string(g.Type), g.Question, g.Hint, g.Category, opts,
				g.OverUnderValue, g.Points, g.Order); err != nil {
				return err
			}
			games = append(games, g)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}

func (s *Store) UpdateGame(ctx context.Context, partyID, gameID string, spec houseparty.GameSpec) (houseparty.Game, error) {
	var g houseparty.Game
	err := s.inTx(ctx, func(r runner) error {
		opts, err := optionsArg(spec.Options)
		if err != nil {
			return err
		}
		res, err := r.exec(ctx, `
			UPDATE games
			SET type = ?, question = ?, hint = ?, category = ?, options = ?,
				over_under_value = ?, points = ?
			WHERE id = ? AND party_id = ? AND is_scored = FALSE
		`, string(spec.Type), spec.Question, spec.Hint, spec.Category, opts,
			spec.OverUnderValue, spec.Points, gameID, partyID)
		if err != nil {
			return fmt.Errorf("updating game: %w", err)
		}
		if g, err = loadGame(ctx, r, partyID, gameID); err != nil {
			return err
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 && g.IsScored {
			return houseparty.ErrGameScored
		}
		return nil
	})
	return g, err
}

// DeleteGame removes an unscored game and its predictions.
func (s *Store) DeleteGame(ctx context.Context, partyID, gameID string) error {
	return s.inTx(ctx, func(r runner) error {
		g, err := loadGame(ctx, r, partyID, gameID)
		if err != nil {
			return err
		}
		if g.IsScored {
			return houseparty.ErrGameScored
		}
		if _, err := r.exec(ctx, `DELETE FROM predictions WHERE game_id = ?`, gameID); err != nil {
			return fmt.Errorf("deleting predictions: %w", err)
		}
		if _, err := r.exec(ctx, `
			DELETE FROM games WHERE id = ? AND party_id = ? AND is_scored = FALSE
		`, gameID, partyID); err != nil {
			return fmt.Errorf("deleting game: %w", err)
		}
		return nil
	})
}

// ReorderGames moves every listed game to a negative slot first so the
// (party, order) uniqueness holds at each step of the rewrite.
func (s *Store) ReorderGames(ctx context.Context, partyID string, ids []string) error {
	return s.inTx(ctx, func(r runner) error {
		for pass, base := range []int{-len(ids) - 1, 0} {
			for i, id := range ids {
				res, err := r.exec(ctx, `
					UPDATE games SET sort_order = ? WHERE id = ? AND party_id = ?
				`, base+i, id, partyID)
				if err != nil {
					return fmt.Errorf("reordering games (pass %d): %w", pass, err)
				}
				n, err := rowsAffected(res)
				if err != nil {
					return err
				}
				if n == 0 {
					return houseparty.ErrGameNotFound
				}
			}
		}
		return nil
	})
}
