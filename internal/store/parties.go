package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/houseparty/houseparty/internal/houseparty"
)

func (s *Store) CreateParty(ctx context.Context, p houseparty.Party, host houseparty.Guest) error {
	err := s.inTx(ctx, func(r runner) error {
		if _, err := r.exec(ctx, `
			INSERT INTO parties (id, code, name, host_id, is_locked, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, p.ID, p.Code, p.Name, p.HostID, boolArg(p.IsLocked), formatTime(p.CreatedAt)); err != nil {
			return err
		}
		return insertGuest(ctx, r, host)
	})
	if isUniqueViolation(err) {
		return houseparty.ErrCodeTaken
	}
	if err != nil {
		return fmt.Errorf("inserting party: %w", err)
	}
	return nil
}

func (s *Store) PartyByCode(ctx context.Context, code string) (houseparty.Party, error) {
	return loadParty(ctx, s.run(), houseparty.NormalizeCode(code))
}

func loadParty(ctx context.Context, r runner, code string) (houseparty.Party, error) {
	var (
		p       houseparty.Party
		created string
	)
	err := r.queryRow(ctx, `
		SELECT id, code, name, host_id, is_locked, created_at
		FROM parties WHERE code = ?
	`, code).Scan(&p.ID, &p.Code, &p.Name, &p.HostID, &p.IsLocked, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return p, houseparty.ErrPartyNotFound
	}
	if err != nil {
		return p, fmt.Errorf("loading party: %w", err)
	}
	p.CreatedAt = parseTime(created)

	if p.Guests, err = listGuests(ctx, r, p.ID); err != nil {
		return p, err
	}
	if p.Games, err = listGames(ctx, r, p.ID); err != nil {
		return p, err
	}
	return p, nil
}

func (s *Store) SetLocked(ctx context.Context, partyID string, locked bool) error {
	res, err := s.run().exec(ctx, `UPDATE parties SET is_locked = ? WHERE id = ?`, boolArg(locked), partyID)
	if err != nil {
		return fmt.Errorf("updating party lock: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return houseparty.ErrPartyNotFound
	}
	return nil
}

func (s *Store) AddGuest(ctx context.Context, g houseparty.Guest) error {
	if err := insertGuest(ctx, s.run(), g); err != nil {
		return fmt.Errorf("inserting guest: %w", err)
	}
	return nil
}

func insertGuest(ctx context.Context, r runner, g houseparty.Guest) error {
	_, err := r.exec(ctx, `
		INSERT INTO guests (id, party_id, name, is_host, wants_squares, joined_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, g.ID, g.PartyID, g.Name, boolArg(g.IsHost), boolArg(g.WantsSquares), formatTime(g.JoinedAt))
	return err
}

func listGuests(ctx context.Context, r runner, partyID string) ([]houseparty.Guest, error) {
	rows, err := r.query(ctx, `
		SELECT id, party_id, name, is_host, wants_squares, joined_at
		FROM guests WHERE party_id = ?
		ORDER BY joined_at, id
	`, partyID)
	if err != nil {
		return nil, fmt.Errorf("listing guests: %w", err)
	}
	defer rows.Close()

	guests := []houseparty.Guest{}
	for rows.Next() {
		var (
			g      houseparty.Guest
			joined string
		)
		if err := rows.Scan(&g.ID, &g.PartyID, &g.Name, &g.IsHost, &g.WantsSquares, &joined); err != nil {
			return nil, fmt.Errorf("scanning guest: %w", err)
		}
		g.JoinedAt = parseTime(joined)
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

// DeleteGuest removes a non-host guest together with the guest's
// predictions and squares claims in the party.
func (s *Store) DeleteGuest(ctx context.Context, partyID, guestID string) error {
	return s.inTx(ctx, func(r runner) error {
		if _, err := r.exec(ctx, `
			DELETE FROM predictions WHERE guest_id = ? AND party_id = ?
		`, guestID, partyID); err != nil {
			return fmt.Errorf("deleting predictions: %w", err)
		}
		if _, err := r.exec(ctx, `
			DELETE FROM square_claims
			WHERE guest_id = ? AND grid_id IN (SELECT id FROM squares_grids WHERE party_id = ?)
		`, guestID, partyID); err != nil {
			return fmt.Errorf("deleting squares claims: %w", err)
		}
		res, err := r.exec(ctx, `
			DELETE FROM guests WHERE id = ? AND party_id = ? AND is_host = FALSE
		`, guestID, partyID)
		if err != nil {
			return fmt.Errorf("deleting guest: %w", err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return houseparty.ErrGuestNotFound
		}
		return nil
	})
}

func (s *Store) SetWantsSquares(ctx context.Context, guestID string, wants bool) error {
	res, err := s.run().exec(ctx, `UPDATE guests SET wants_squares = ? WHERE id = ?`, boolArg(wants), guestID)
	if err != nil {
		return fmt.Errorf("updating squares opt-in: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return houseparty.ErrGuestNotFound
	}
	return nil
}
