package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/party"
)

const predictionColumns = `id, guest_id, game_id, party_id, answer, submitted_at, points_awarded`

func scanPrediction(sc rowScanner) (houseparty.Prediction, error) {
	var (
		p         houseparty.Prediction
		submitted string
		points    sql.NullInt64
	)
	if err := sc.Scan(&p.ID, &p.GuestID, &p.GameID, &p.PartyID, &p.Answer, &submitted, &points); err != nil {
		return p, err
	}
	p.SubmittedAt = parseTime(submitted)
	if points.Valid {
		n := int(points.Int64)
		p.PointsAwarded = &n
	}
	return p, nil
}

func listPredictions(ctx context.Context, r runner, where string, arg string) ([]houseparty.Prediction, error) {
	rows, err := r.query(ctx, `
		SELECT `+predictionColumns+`
		FROM predictions WHERE `+where+` = ?
		ORDER BY submitted_at, id
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("listing predictions: %w", err)
	}
	defer rows.Close()

	preds := []houseparty.Prediction{}
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

func (s *Store) PredictionsByParty(ctx context.Context, partyID string) ([]houseparty.Prediction, error) {
	return listPredictions(ctx, s.run(), "party_id", partyID)
}

func (s *Store) PredictionsByGuest(ctx context.Context, guestID string) ([]houseparty.Prediction, error) {
	return listPredictions(ctx, s.run(), "guest_id", guestID)
}

// UpsertPrediction re-checks the lock and scored flags inside the write
// transaction, then inserts or overwrites the (guest, game) answer.
func (s *Store) UpsertPrediction(ctx context.Context, p houseparty.Prediction) (houseparty.Prediction, error) {
	var out houseparty.Prediction
	err := s.inTx(ctx, func(r runner) error {
		var locked, scored bool
		err := r.queryRow(ctx, `
			SELECT pa.is_locked, g.is_scored
			FROM games g
			JOIN parties pa ON pa.id = g.party_id
			WHERE g.id = ? AND g.party_id = ?
		`, p.GameID, p.PartyID).Scan(&locked, &scored)
		if errors.Is(err, sql.ErrNoRows) {
			return houseparty.ErrGameNotFound
		}
		if err != nil {
			return fmt.Errorf("checking game state: %w", err)
		}
		if locked {
			return houseparty.ErrPartyLocked
		}
		if scored {
			return houseparty.ErrGameScored
		}

		if _, err := r.exec(ctx, `
			INSERT INTO predictions (id, guest_id, game_id, party_id, answer, submitted_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (guest_id, game_id)
			DO UPDATE SET answer = excluded.answer, submitted_at = excluded.submitted_at
		`, p.ID, p.GuestID, p.GameID, p.PartyID, p.Answer, formatTime(p.SubmittedAt)); err != nil {
			return fmt.Errorf("upserting prediction: %w", err)
		}

		out, err = scanPrediction(r.queryRow(ctx, `
			SELECT `+predictionColumns+`
			FROM predictions WHERE guest_id = ? AND game_id = ?
		`, p.GuestID, p.GameID))
		return err
	})
	return out, err
}

// ScoreGame grades and stores every award for the game in one
// transaction, so a run either updates all predictions or none.
func (s *Store) ScoreGame(ctx context.Context, partyID, gameID, correctAnswer string, grade party.GradeFunc) (houseparty.Game, error) {
	var g houseparty.Game
	err := s.inTx(ctx, func(r runner) error {
		var err error
		if g, err = loadGame(ctx, r, partyID, gameID); err != nil {
			return err
		}
		preds, err := listPredictions(ctx, r, "game_id", gameID)
		if err != nil {
			return err
		}
		awards, err := grade(g, preds)
		if err != nil {
			return err
		}

		for _, p := range preds {
			if _, err := r.exec(ctx, `
				UPDATE predictions SET points_awarded = ? WHERE id = ?
			`, awards[p.ID], p.ID); err != nil {
				return fmt.Errorf("storing award: %w", err)
			}
		}
		if _, err := r.exec(ctx, `
			UPDATE games SET correct_answer = ?, is_scored = TRUE WHERE id = ?
		`, correctAnswer, gameID); err != nil {
			return fmt.Errorf("marking game scored: %w", err)
		}

		g.IsScored = true
		g.CorrectAnswer = &correctAnswer
		return nil
	})
	if err != nil {
		return houseparty.Game{}, err
	}
	return g, nil
}
