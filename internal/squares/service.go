package squares

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/houseparty/houseparty/internal/houseparty"
)

const (
	DefaultTeamHome = "Patriots"
	DefaultTeamAway = "Seahawks"
)

// Store persists grids and claims. Implementations must enforce one grid
// per party and one claim per cell, reporting violations as
// houseparty.ErrGridExists and houseparty.ErrCellTaken.
type Store interface {
	PartyByCode(ctx context.Context, code string) (houseparty.Party, error)

	GridByParty(ctx context.Context, partyID string) (houseparty.Grid, error)
	CreateGrid(ctx context.Context, g houseparty.Grid) error
	SetTeams(ctx context.Context, gridID, home, away string) error
	SetScore(ctx context.Context, gridID string, q houseparty.Quarter, score houseparty.ScorePair) error
	SetPayouts(ctx context.Context, gridID string, payouts map[houseparty.Quarter]float64) error

	// InsertClaim and DrawNumbers fail with houseparty.ErrNumbersDrawn
	// when the grid was drawn before the write landed.
	InsertClaim(ctx context.Context, c houseparty.Claim) error
	DeleteClaim(ctx context.Context, gridID, guestID string, row, col int) error
	DrawNumbers(ctx context.Context, gridID string, home, away []int) error

	// ReplaceAssignment clears the grid's claims, inserts claims and draws
	// home/away in a single transaction.
	ReplaceAssignment(ctx context.Context, gridID string, claims []houseparty.Claim, home, away []int) error
}

type Service struct {
	store     Store
	logger    *slog.Logger
	rand      Rand
	allGuests bool
}

type Option func(*Service)

// WithRand replaces the shuffle source.
func WithRand(r Rand) Option {
	return func(s *Service) { s.rand = r }
}

// WithAllGuests makes auto-assignment deal cells to every guest instead of
// only those who opted in.
func WithAllGuests(all bool) Option {
	return func(s *Service) { s.allGuests = all }
}

func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, logger: logger, rand: DefaultRand}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View is a grid plus its computed quarter winners.
type View struct {
	houseparty.Grid
	Winners []Win `json:"winners"`
}

func newView(g houseparty.Grid) View {
	return View{Grid: g, Winners: Winners(g)}
}

// AssignResult summarizes an auto-assignment.
type AssignResult struct {
	SquaresAssigned int `json:"squaresAssigned"`
	GuestCount      int `json:"guestCount"`
	SquaresPerGuest int `json:"squaresPerGuest"`
}

func (s *Service) Grid(ctx context.Context, code string) (View, error) {
	p, err := s.store.PartyByCode(ctx, code)
	if err != nil {
		return View{}, err
	}
	g, err := s.store.GridByParty(ctx, p.ID)
	if err != nil {
		return View{}, err
	}
	return newView(g), nil
}

func (s *Service) CreateGrid(ctx context.Context, code, requesterID, teamHome, teamAway string) (View, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return View{}, err
	}
	g, err := s.createGrid(ctx, p.ID, teamHome, teamAway)
	if err != nil {
		return View{}, err
	}
	return newView(g), nil
}

func (s *Service) createGrid(ctx context.Context, partyID, teamHome, teamAway string) (houseparty.Grid, error) {
	g := houseparty.Grid{
		ID:       houseparty.NewID(),
		PartyID:  partyID,
		TeamHome: orDefault(teamHome, DefaultTeamHome),
		TeamAway: orDefault(teamAway, DefaultTeamAway),
		Scores:   map[houseparty.Quarter]houseparty.ScorePair{},
		Payouts:  map[houseparty.Quarter]float64{},
	}
	if err := s.store.CreateGrid(ctx, g); err != nil {
		return houseparty.Grid{}, err
	}
	return s.store.GridByParty(ctx, partyID)
}

// ensureGrid returns the party's grid, creating one with default teams if
// it does not exist yet.
func (s *Service) ensureGrid(ctx context.Context, partyID string) (houseparty.Grid, error) {
	g, err := s.store.GridByParty(ctx, partyID)
	if !errors.Is(err, houseparty.ErrGridNotFound) {
		return g, err
	}
	g, err = s.createGrid(ctx, partyID, "", "")
	if errors.Is(err, houseparty.ErrGridExists) {
		return s.store.GridByParty(ctx, partyID)
	}
	return g, err
}

func (s *Service) Claim(ctx context.Context, code, guestID string, row, col int) (houseparty.Claim, error) {
	p, guest, err := s.guestParty(ctx, code, guestID)
	if err != nil {
		return houseparty.Claim{}, err
	}
	if !(Cell{Row: row, Col: col}).Valid() {
		return houseparty.Claim{}, houseparty.Invalid("row and col must be between 0 and 9")
	}
	g, err := s.store.GridByParty(ctx, p.ID)
	if err != nil {
		return houseparty.Claim{}, err
	}
	if g.NumbersDrawn {
		return houseparty.Claim{}, houseparty.ErrNumbersDrawn
	}
	if _, taken := g.ClaimAt(row, col); taken {
		return houseparty.Claim{}, houseparty.ErrCellTaken
	}

	c := houseparty.Claim{
		ID:        houseparty.NewID(),
		GridID:    g.ID,
		GuestID:   guest.ID,
		GuestName: guest.Name,
		Row:       row,
		Col:       col,
	}
	if err := s.store.InsertClaim(ctx, c); err != nil {
		return houseparty.Claim{}, err
	}
	return c, nil
}

func (s *Service) Unclaim(ctx context.Context, code, guestID string, row, col int) error {
	p, guest, err := s.guestParty(ctx, code, guestID)
	if err != nil {
		return err
	}
	if !(Cell{Row: row, Col: col}).Valid() {
		return houseparty.Invalid("row and col must be between 0 and 9")
	}
	g, err := s.store.GridByParty(ctx, p.ID)
	if err != nil {
		return err
	}
	if g.NumbersDrawn {
		return houseparty.ErrNumbersDrawn
	}
	c, ok := g.ClaimAt(row, col)
	if !ok {
		return houseparty.ErrClaimNotFound
	}
	if c.GuestID != guest.ID {
		return houseparty.ErrNotOwner
	}
	return s.store.DeleteClaim(ctx, g.ID, guest.ID, row, col)
}

func (s *Service) Draw(ctx context.Context, code, requesterID string) (View, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return View{}, err
	}
	g, err := s.store.GridByParty(ctx, p.ID)
	if err != nil {
		return View{}, err
	}
	if g.NumbersDrawn {
		return View{}, houseparty.ErrNumbersDrawn
	}
	if len(g.Claims) == 0 {
		return View{}, houseparty.ErrNoClaims
	}

	n := Draw(s.rand)
	if err := s.store.DrawNumbers(ctx, g.ID, n.Home, n.Away); err != nil {
		return View{}, err
	}
	return s.reload(ctx, p.ID)
}

// RecordScore stores the score for quarter q, replacing any earlier value.
func (s *Service) RecordScore(ctx context.Context, code, requesterID string, q houseparty.Quarter, score houseparty.ScorePair) (View, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return View{}, err
	}
	if err := s.recordScore(ctx, p.ID, q, score); err != nil {
		return View{}, err
	}
	return s.reload(ctx, p.ID)
}

// SyncScore records a quarter score on behalf of the live-score feed.
func (s *Service) SyncScore(ctx context.Context, code string, q houseparty.Quarter, score houseparty.ScorePair) error {
	p, err := s.store.PartyByCode(ctx, code)
	if err != nil {
		return err
	}
	return s.recordScore(ctx, p.ID, q, score)
}

// RecordedScores returns the quarter scores already stored for the party.
func (s *Service) RecordedScores(ctx context.Context, code string) (map[houseparty.Quarter]houseparty.ScorePair, error) {
	v, err := s.Grid(ctx, code)
	if err != nil {
		return nil, err
	}
	return v.Scores, nil
}

func (s *Service) recordScore(ctx context.Context, partyID string, q houseparty.Quarter, score houseparty.ScorePair) error {
	if _, err := houseparty.ParseQuarter(string(q)); err != nil {
		return err
	}
	if score.Home < 0 || score.Away < 0 {
		return houseparty.Invalid("scores must be non-negative")
	}
	g, err := s.store.GridByParty(ctx, partyID)
	if err != nil {
		return err
	}
	return s.store.SetScore(ctx, g.ID, q, score)
}

func (s *Service) UpdateTeams(ctx context.Context, code, requesterID, teamHome, teamAway string) (View, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return View{}, err
	}
	teamHome, teamAway = strings.TrimSpace(teamHome), strings.TrimSpace(teamAway)
	if teamHome == "" || teamAway == "" {
		return View{}, houseparty.Invalid("teamHome and teamAway are required")
	}
	g, err := s.store.GridByParty(ctx, p.ID)
	if err != nil {
		return View{}, err
	}
	if err := s.store.SetTeams(ctx, g.ID, teamHome, teamAway); err != nil {
		return View{}, err
	}
	return s.reload(ctx, p.ID)
}

// UpdatePayouts merges payouts into the grid's payout table.
func (s *Service) UpdatePayouts(ctx context.Context, code, requesterID string, payouts map[houseparty.Quarter]float64) (View, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return View{}, err
	}
	updates := make(map[houseparty.Quarter]float64, len(payouts))
	for q, amount := range payouts {
		pq, err := houseparty.ParseQuarter(string(q))
		if err != nil {
			return View{}, err
		}
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return View{}, houseparty.Invalid("all payout values must be non-negative numbers")
		}
		updates[pq] = amount
	}
	g, err := s.store.GridByParty(ctx, p.ID)
	if err != nil {
		return View{}, err
	}

	merged := make(map[houseparty.Quarter]float64, len(houseparty.Quarters))
	for q, amount := range g.Payouts {
		merged[q] = amount
	}
	for q, amount := range updates {
		merged[q] = amount
	}
	if err := s.store.SetPayouts(ctx, g.ID, merged); err != nil {
		return View{}, err
	}
	return s.reload(ctx, p.ID)
}

// AutoAssign deals the whole board to eligible guests and draws the
// numbers. Only the host may trigger it.
func (s *Service) AutoAssign(ctx context.Context, code, requesterID string) (AssignResult, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return AssignResult{}, err
	}
	return s.assign(ctx, p)
}

// AssignOnLock runs auto-assignment for a party that was just locked.
// Failures are logged and swallowed so they never affect the lock.
func (s *Service) AssignOnLock(ctx context.Context, p houseparty.Party) {
	res, err := s.assign(ctx, p)
	if err != nil {
		s.logger.Warn("squares auto-assign failed", "party", p.Code, "error", err)
		return
	}
	s.logger.Info("squares auto-assigned",
		"party", p.Code,
		"guests", res.GuestCount,
		"squares", res.SquaresAssigned,
	)
}

func (s *Service) assign(ctx context.Context, p houseparty.Party) (AssignResult, error) {
	var guestIDs []string
	for _, g := range p.Guests {
		if s.allGuests || g.WantsSquares {
			guestIDs = append(guestIDs, g.ID)
		}
	}
	if len(guestIDs) == 0 {
		return AssignResult{}, houseparty.ErrNoEligibleGuests
	}

	g, err := s.ensureGrid(ctx, p.ID)
	if err != nil {
		return AssignResult{}, err
	}
	if g.NumbersDrawn {
		return AssignResult{}, houseparty.ErrNumbersDrawn
	}

	claims := Assign(s.rand, g.ID, guestIDs)
	n := Draw(s.rand)
	if err := s.store.ReplaceAssignment(ctx, g.ID, claims, n.Home, n.Away); err != nil {
		return AssignResult{}, fmt.Errorf("assigning squares: %w", err)
	}

	return AssignResult{
		SquaresAssigned: len(claims),
		GuestCount:      len(guestIDs),
		SquaresPerGuest: len(claims) / len(guestIDs),
	}, nil
}

func (s *Service) reload(ctx context.Context, partyID string) (View, error) {
	g, err := s.store.GridByParty(ctx, partyID)
	if err != nil {
		return View{}, err
	}
	return newView(g), nil
}

func (s *Service) hostParty(ctx context.Context, code, requesterID string) (houseparty.Party, error) {
	p, err := s.store.PartyByCode(ctx, code)
	if err != nil {
		return houseparty.Party{}, err
	}
	if requesterID == "" || p.HostID != requesterID {
		return houseparty.Party{}, houseparty.ErrNotHost
	}
	return p, nil
}

func (s *Service) guestParty(ctx context.Context, code, guestID string) (houseparty.Party, houseparty.Guest, error) {
	p, err := s.store.PartyByCode(ctx, code)
	if err != nil {
		return houseparty.Party{}, houseparty.Guest{}, err
	}
	for _, g := range p.Guests {
		if g.ID == guestID {
			return p, g, nil
		}
	}
	return houseparty.Party{}, houseparty.Guest{}, houseparty.ErrGuestNotFound
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
