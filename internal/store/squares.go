package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/houseparty/houseparty/internal/houseparty"
)

// quarterColumns names the score and payout columns of each quarter.
var quarterColumns = map[houseparty.Quarter]struct{ home, away, payout string }{
	houseparty.Q1:    {"q1_home", "q1_away", "payout_q1"},
	houseparty.Q2:    {"q2_home", "q2_away", "payout_q2"},
	houseparty.Q3:    {"q3_home", "q3_away", "payout_q3"},
	houseparty.Final: {"final_home", "final_away", "payout_final"},
}

func (s *Store) CreateGrid(ctx context.Context, g houseparty.Grid) error {
	_, err := s.run().exec(ctx, `
		INSERT INTO squares_grids (id, party_id, team_home, team_away, numbers_drawn, created_at)
		VALUES (?, ?, ?, ?, FALSE, ?)
	`, g.ID, g.PartyID, g.TeamHome, g.TeamAway, formatTime(nowUTC()))
	if isUniqueViolation(err) {
		return houseparty.ErrGridExists
	}
	if err != nil {
		return fmt.Errorf("inserting grid: %w", err)
	}
	return nil
}

func (s *Store) GridByParty(ctx context.Context, partyID string) (houseparty.Grid, error) {
	r := s.run()
	var (
		g          houseparty.Grid
		home, away sql.NullString
		scores     [8]sql.NullInt64
		payouts    [4]float64
		created    string
	)
	err := r.queryRow(ctx, `
		SELECT id, party_id, team_home, team_away, numbers_drawn, home_numbers, away_numbers,
			q1_home, q1_away, q2_home, q2_away, q3_home, q3_away, final_home, final_away,
			payout_q1, payout_q2, payout_q3, payout_final, created_at
		FROM squares_grids WHERE party_id = ?
	`, partyID).Scan(&g.ID, &g.PartyID, &g.TeamHome, &g.TeamAway, &g.NumbersDrawn, &home, &away,
		&scores[0], &scores[1], &scores[2], &scores[3], &scores[4], &scores[5], &scores[6], &scores[7],
		&payouts[0], &payouts[1], &payouts[2], &payouts[3], &created)
	if errors.Is(err, sql.ErrNoRows) {
		return g, houseparty.ErrGridNotFound
	}
	if err != nil {
		return g, fmt.Errorf("loading grid: %w", err)
	}
	g.CreatedAt = parseTime(created)

	if home.Valid {
		if err := json.Unmarshal([]byte(home.String), &g.HomeNumbers); err != nil {
			return g, fmt.Errorf("decoding home numbers: %w", err)
		}
	}
	if away.Valid {
		if err := json.Unmarshal([]byte(away.String), &g.AwayNumbers); err != nil {
			return g, fmt.Errorf("decoding away numbers: %w", err)
		}
	}

	g.Scores = make(map[houseparty.Quarter]houseparty.ScorePair)
	g.Payouts = make(map[houseparty.Quarter]float64)
	for i, q := range houseparty.Quarters {
		h, a := scores[2*i], scores[2*i+1]
		if h.Valid && a.Valid {
			g.Scores[q] = houseparty.ScorePair{Home: int(h.Int64), Away: int(a.Int64)}
		}
		g.Payouts[q] = payouts[i]
	}

	if g.Claims, err = listClaims(ctx, r, g.ID); err != nil {
		return g, err
	}
	return g, nil
}

func listClaims(ctx context.Context, r runner, gridID string) ([]houseparty.Claim, error) {
	rows, err := r.query(ctx, `
		SELECT c.id, c.grid_id, c.guest_id, COALESCE(gu.name, 'Unknown'), c.row_index, c.col_index
		FROM square_claims c
		LEFT JOIN guests gu ON gu.id = c.guest_id
		WHERE c.grid_id = ?
		ORDER BY c.row_index, c.col_index
	`, gridID)
	if err != nil {
		return nil, fmt.Errorf("listing claims: %w", err)
	}
	defer rows.Close()

	claims := []houseparty.Claim{}
	for rows.Next() {
		var c houseparty.Claim
		if err := rows.Scan(&c.ID, &c.GridID, &c.GuestID, &c.GuestName, &c.Row, &c.Col); err != nil {
			return nil, fmt.Errorf("scanning claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

func (s *Store) SetTeams(ctx context.Context, gridID, home, away string) error {
	return s.updateGrid(ctx, gridID, `UPDATE squares_grids SET team_home = ?, team_away = ? WHERE id = ?`, home, away, gridID)
}

// SetScore overwrites the quarter's score pair.
func (s *Store) SetScore(ctx context.Context, gridID string, q houseparty.Quarter, score houseparty.ScorePair) error {
	cols, ok := quarterColumns[q]
	if !ok {
		return houseparty.Invalid("unknown quarter " + string(q))
	}
	query := fmt.Sprintf(`UPDATE squares_grids SET %s = ?, %s = ? WHERE id = ?`, cols.home, cols.away)
	return s.updateGrid(ctx, gridID, query, score.Home, score.Away, gridID)
}

func (s *Store) SetPayouts(ctx context.Context, gridID string, payouts map[houseparty.Quarter]float64) error {
	sets := make([]string, 0, len(payouts))
	args := make([]any, 0, len(payouts)+1)
	for _, q := range houseparty.Quarters {
		amount, ok := payouts[q]
		if !ok {
			continue
		}
		sets = append(sets, quarterColumns[q].payout+" = ?")
		args = append(args, amount)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, gridID)
	return s.updateGrid(ctx, gridID, `UPDATE squares_grids SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
}

func (s *Store) updateGrid(ctx context.Context, gridID, query string, args ...any) error {
	res, err := s.run().exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating grid %s: %w", gridID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return houseparty.ErrGridNotFound
	}
	return nil
}

// InsertClaim only lands while the grid is undrawn.
func (s *Store) InsertClaim(ctx context.Context, c houseparty.Claim) error {
	res, err := s.run().exec(ctx, `
		INSERT INTO square_claims (id, grid_id, guest_id, row_index, col_index)
		SELECT ?, ?, ?, CAST(? AS INTEGER), CAST(? AS INTEGER)
		WHERE EXISTS (SELECT 1 FROM squares_grids WHERE id = ? AND numbers_drawn = FALSE)
	`, c.ID, c.GridID, c.GuestID, c.Row, c.Col, c.GridID)
	if isUniqueViolation(err) {
		return houseparty.ErrCellTaken
	}
	if err != nil {
		return fmt.Errorf("inserting claim: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return houseparty.ErrNumbersDrawn
	}
	return nil
}

func (s *Store) DeleteClaim(ctx context.Context, gridID, guestID string, row, col int) error {
	res, err := s.run().exec(ctx, `
		DELETE FROM square_claims
		WHERE grid_id = ? AND guest_id = ? AND row_index = ? AND col_index = ?
			AND grid_id IN (SELECT id FROM squares_grids WHERE numbers_drawn = FALSE)
	`, gridID, guestID, row, col)
	if err != nil {
		return fmt.Errorf("deleting claim: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return houseparty.ErrClaimNotFound
	}
	return nil
}

func (s *Store) DrawNumbers(ctx context.Context, gridID string, home, away []int) error {
	return s.inTx(ctx, func(r runner) error {
		return drawNumbers(ctx, r, gridID, home, away)
	})
}

// drawNumbers flips numbers_drawn exactly once; a second call reports
// houseparty.ErrNumbersDrawn.
func drawNumbers(ctx context.Context, r runner, gridID string, home, away []int) error {
	h, err := encodeJSON(home)
	if err != nil {
		return err
	}
	a, err := encodeJSON(away)
	if err != nil {
		return err
	}
	res, err := r.exec(ctx, `
		UPDATE squares_grids
		SET numbers_drawn = TRUE, home_numbers = ?, away_numbers = ?
		WHERE id = ? AND numbers_drawn = FALSE
	`, h, a, gridID)
	if err != nil {
		return fmt.Errorf("drawing numbers: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = r.queryRow(ctx, `SELECT COUNT(*) FROM squares_grids WHERE id = ?`, gridID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking grid: %w", err)
	}
	if exists == 0 {
		return houseparty.ErrGridNotFound
	}
	return houseparty.ErrNumbersDrawn
}

// claimBatch keeps multi-row inserts well under driver parameter limits.
const claimBatch = 50

// ReplaceAssignment draws the numbers, clears the grid and inserts claims
// in one transaction. The draw goes first so a concurrent assignment
// loses on the numbers_drawn flag before touching any claim.
func (s *Store) ReplaceAssignment(ctx context.Context, gridID string, claims []houseparty.Claim, home, away []int) error {
	return s.inTx(ctx, func(r runner) error {
		if err := drawNumbers(ctx, r, gridID, home, away); err != nil {
			return err
		}
		if _, err := r.exec(ctx, `DELETE FROM square_claims WHERE grid_id = ?`, gridID); err != nil {
			return fmt.Errorf("clearing claims: %w", err)
		}

		for start := 0; start < len(claims); start += claimBatch {
			batch := claims[start:min(start+claimBatch, len(claims))]
			values := make([]string, len(batch))
			args := make([]any, 0, len(batch)*5)
			for i, c := range batch {
				values[i] = "(?, ?, ?, ?, ?)"
				args = append(args, c.ID, gridID, c.GuestID, c.Row, c.Col)
			}
			if _, err := r.exec(ctx, `
				INSERT INTO square_claims (id, grid_id, guest_id, row_index, col_index)
				VALUES `+strings.Join(values, ", "), args...); err != nil {
				return fmt.Errorf("inserting claims: %w", err)
			}
		}
		return nil
	})
}
