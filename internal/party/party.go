// Package party implements the session rules: creating and locking
// parties, guest membership, prediction games, answers and scoring.
package party

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/scoring"
)

// codeAttempts bounds how many fresh codes CreateParty tries.
const codeAttempts = 10

type Service struct {
	store  Store
	broker *Broker
	logger *slog.Logger
	now    func() time.Time
	code   func() (string, error)
}

func NewService(store Store, broker *Broker, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		broker: broker,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		code:   houseparty.NewCode,
	}
}

// CreateParty makes a party and its host guest.
func (s *Service) CreateParty(ctx context.Context, name, hostName string) (houseparty.Party, houseparty.Guest, error) {
	name, hostName = strings.TrimSpace(name), strings.TrimSpace(hostName)
	if name == "" || hostName == "" {
		return houseparty.Party{}, houseparty.Guest{}, houseparty.Invalid("party name and host name are required")
	}

	now := s.now()
	for range codeAttempts {
		code, err := s.code()
		if err != nil {
			return houseparty.Party{}, houseparty.Guest{}, fmt.Errorf("%w: %w", houseparty.ErrCreateParty, err)
		}

		host := houseparty.Guest{
			ID:       houseparty.NewID(),
			Name:     hostName,
			IsHost:   true,
			JoinedAt: now,
		}
		p := houseparty.Party{
			ID:        houseparty.NewID(),
			Code:      code,
			Name:      name,
			HostID:    host.ID,
			CreatedAt: now,
		}
		host.PartyID = p.ID

		err = s.store.CreateParty(ctx, p, host)
		if errors.Is(err, houseparty.ErrCodeTaken) {
			s.logger.Debug("party code collision", "code", code)
			continue
		}
		if err != nil {
			return houseparty.Party{}, houseparty.Guest{}, fmt.Errorf("%w: %w", houseparty.ErrCreateParty, err)
		}

		p.Guests = []houseparty.Guest{host}
		p.Games = []houseparty.Game{}
		return p, host, nil
	}
	return houseparty.Party{}, houseparty.Guest{}, fmt.Errorf("%w: no unique code after %d attempts", houseparty.ErrCreateParty, codeAttempts)
}

func (s *Service) Party(ctx context.Context, code string) (houseparty.Party, error) {
	return s.store.PartyByCode(ctx, houseparty.NormalizeCode(code))
}

// SetLocked locks or unlocks the party. Locking an unlocked party
// publishes EventLocked once the flag is stored.
func (s *Service) SetLocked(ctx context.Context, code, requesterID string, locked bool) (houseparty.Party, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return houseparty.Party{}, err
	}
	if p.IsLocked == locked {
		return p, nil
	}
	if err := s.store.SetLocked(ctx, p.ID, locked); err != nil {
		return houseparty.Party{}, err
	}
	p.IsLocked = locked

	ev := EventUnlocked
	if locked {
		ev = EventLocked
	}
	s.broker.Publish(ctx, Event{Type: ev, Party: p})

	return s.store.PartyByCode(ctx, p.Code)
}

func (s *Service) Join(ctx context.Context, code, name string) (houseparty.Guest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return houseparty.Guest{}, houseparty.Invalid("name is required")
	}
	p, err := s.Party(ctx, code)
	if err != nil {
		return houseparty.Guest{}, err
	}

	g := houseparty.Guest{
		ID:       houseparty.NewID(),
		PartyID:  p.ID,
		Name:     name,
		JoinedAt: s.now(),
	}
	if err := s.store.AddGuest(ctx, g); err != nil {
		return houseparty.Guest{}, err
	}
	return g, nil
}

// Rejoin returns the earliest guest whose name matches case-insensitively.
// Duplicate names resolve to whoever joined first.
func (s *Service) Rejoin(ctx context.Context, code, name string) (houseparty.Guest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return houseparty.Guest{}, houseparty.Invalid("name is required")
	}
	p, err := s.Party(ctx, code)
	if err != nil {
		return houseparty.Guest{}, err
	}
	for _, g := range p.Guests {
		if strings.EqualFold(g.Name, name) {
			return g, nil
		}
	}
	return houseparty.Guest{}, houseparty.ErrGuestNotFound
}

func (s *Service) RemoveGuest(ctx context.Context, code, requesterID, guestID string) error {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return err
	}
	g, err := findGuest(p, guestID)
	if err != nil {
		return err
	}
	if g.IsHost {
		return houseparty.ErrHostRemoval
	}
	return s.store.DeleteGuest(ctx, p.ID, g.ID)
}

// SetSquaresOptIn changes a guest's squares opt-in. The host may change
// anyone's; other guests only their own.
func (s *Service) SetSquaresOptIn(ctx context.Context, code, requesterID, guestID string, wants bool) (houseparty.Guest, error) {
	p, err := s.Party(ctx, code)
	if err != nil {
		return houseparty.Guest{}, err
	}
	requester, err := findGuest(p, requesterID)
	if err != nil {
		return houseparty.Guest{}, err
	}
	g, err := findGuest(p, guestID)
	if err != nil {
		return houseparty.Guest{}, err
	}
	if !requester.IsHost && requester.ID != g.ID {
		return houseparty.Guest{}, houseparty.ErrNotSelf
	}
	if err := s.store.SetWantsSquares(ctx, g.ID, wants); err != nil {
		return houseparty.Guest{}, err
	}
	g.WantsSquares = wants
	return g, nil
}

func (s *Service) AddGame(ctx context.Context, code, requesterID string, spec houseparty.GameSpec) (houseparty.Game, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return houseparty.Game{}, err
	}
	spec, err = spec.Normalize()
	if err != nil {
		return houseparty.Game{}, err
	}
	games, err := s.store.AddGames(ctx, p.ID, []houseparty.GameSpec{spec})
	if err != nil {
		return houseparty.Game{}, err
	}
	return games[0], nil
}

// LoadTemplate appends the named template's games after the existing ones.
func (s *Service) LoadTemplate(ctx context.Context, code, requesterID, name string) ([]houseparty.Game, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return nil, err
	}
	specs, err := houseparty.Template(name)
	if err != nil {
		return nil, err
	}
	for i := range specs {
		if specs[i], err = specs[i].Normalize(); err != nil {
			return nil, fmt.Errorf("template %s game %d: %w", name, i, err)
		}
	}
	return s.store.AddGames(ctx, p.ID, specs)
}

func (s *Service) UpdateGame(ctx context.Context, code, requesterID, gameID string, patch houseparty.GamePatch) (houseparty.Game, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return houseparty.Game{}, err
	}
	g, err := findGame(p, gameID)
	if err != nil {
		return houseparty.Game{}, err
	}
	if g.IsScored {
		return houseparty.Game{}, houseparty.ErrGameScored
	}
	spec, err := patch.Apply(g).Normalize()
	if err != nil {
		return houseparty.Game{}, err
	}
	return s.store.UpdateGame(ctx, p.ID, g.ID, spec)
}

func (s *Service) DeleteGame(ctx context.Context, code, requesterID, gameID string) error {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return err
	}
	g, err := findGame(p, gameID)
	if err != nil {
		return err
	}
	if g.IsScored {
		return houseparty.ErrGameScored
	}
	return s.store.DeleteGame(ctx, p.ID, g.ID)
}

// ReorderGames requires ids to be exactly the party's game ids.
func (s *Service) ReorderGames(ctx context.Context, code, requesterID string, ids []string) ([]houseparty.Game, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return nil, err
	}

	want := make([]string, 0, len(p.Games))
	for _, g := range p.Games {
		want = append(want, g.ID)
	}
	got := slices.Clone(ids)
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		return nil, houseparty.Invalid("order must list every game of the party exactly once")
	}

	if err := s.store.ReorderGames(ctx, p.ID, ids); err != nil {
		return nil, err
	}
	p, err = s.store.PartyByCode(ctx, p.Code)
	if err != nil {
		return nil, err
	}
	return p.Games, nil
}

// Submit records guestID's answer to gameID, replacing an earlier one.
func (s *Service) Submit(ctx context.Context, code, guestID, gameID, answer string) (houseparty.Prediction, error) {
	p, err := s.Party(ctx, code)
	if err != nil {
		return houseparty.Prediction{}, err
	}
	if _, err := findGuest(p, guestID); err != nil {
		return houseparty.Prediction{}, err
	}
	g, err := findGame(p, gameID)
	if err != nil {
		return houseparty.Prediction{}, err
	}
	if p.IsLocked {
		return houseparty.Prediction{}, houseparty.ErrPartyLocked
	}
	if g.IsScored {
		return houseparty.Prediction{}, houseparty.ErrGameScored
	}
	answer, err = checkAnswer(g, answer)
	if err != nil {
		return houseparty.Prediction{}, err
	}

	return s.store.UpsertPrediction(ctx, houseparty.Prediction{
		ID:          houseparty.NewID(),
		GuestID:     guestID,
		GameID:      g.ID,
		PartyID:     p.ID,
		Answer:      answer,
		SubmittedAt: s.now(),
	})
}

// checkAnswer trims answer and checks it fits the game's type, returning
// the canonical option text for pick-one games.
func checkAnswer(g houseparty.Game, answer string) (string, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", houseparty.Invalid("answer is required")
	}
	switch g.Type {
	case houseparty.PickOne:
		for _, o := range g.Options {
			if strings.EqualFold(o, answer) {
				return o, nil
			}
		}
		return "", houseparty.Invalid("answer must be one of the game's options")
	case houseparty.OverUnder:
		if !strings.EqualFold(answer, "over") && !strings.EqualFold(answer, "under") {
			return "", houseparty.Invalid("answer must be Over or Under")
		}
	case houseparty.ExactNumber:
		if _, err := scoring.ParseNumber(answer); err != nil {
			return "", houseparty.Invalid("answer must be a number")
		}
	}
	return answer, nil
}

// Predictions maps game ids to guestID's answers.
func (s *Service) Predictions(ctx context.Context, code, guestID string) (map[string]string, error) {
	p, err := s.Party(ctx, code)
	if err != nil {
		return nil, err
	}
	if _, err := findGuest(p, guestID); err != nil {
		return nil, err
	}
	preds, err := s.store.PredictionsByGuest(ctx, guestID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(preds))
	for _, pr := range preds {
		out[pr.GameID] = pr.Answer
	}
	return out, nil
}

// ScoreResult is returned after grading a game.
type ScoreResult struct {
	Game        houseparty.Game `json:"game"`
	Leaderboard []scoring.Entry `json:"leaderboard"`
}

// Score grades gameID against correctAnswer. Scoring an already scored
// game recomputes and overwrites every award.
func (s *Service) Score(ctx context.Context, code, requesterID, gameID, correctAnswer string) (ScoreResult, error) {
	p, err := s.hostParty(ctx, code, requesterID)
	if err != nil {
		return ScoreResult{}, err
	}
	if _, err := findGame(p, gameID); err != nil {
		return ScoreResult{}, err
	}

	correctAnswer = strings.TrimSpace(correctAnswer)
	g, err := s.store.ScoreGame(ctx, p.ID, gameID, correctAnswer, func(g houseparty.Game, preds []houseparty.Prediction) (map[string]int, error) {
		awards, err := scoring.Score(g, correctAnswer, preds)
		if err != nil {
			return nil, err
		}
		out := make(map[string]int, len(awards))
		for _, a := range awards {
			out[a.PredictionID] = a.Points
		}
		return out, nil
	})
	if err != nil {
		return ScoreResult{}, err
	}

	board, err := s.Leaderboard(ctx, p.Code)
	if err != nil {
		return ScoreResult{}, err
	}
	return ScoreResult{Game: g, Leaderboard: board.Entries}, nil
}

// Board is the leaderboard plus who got each scored game right.
type Board struct {
	Entries []scoring.Entry                   `json:"leaderboard"`
	Correct map[string][]scoring.CorrectGuess `json:"correctPredictions"`
}

func (s *Service) Leaderboard(ctx context.Context, code string) (Board, error) {
	p, err := s.Party(ctx, code)
	if err != nil {
		return Board{}, err
	}
	preds, err := s.store.PredictionsByParty(ctx, p.ID)
	if err != nil {
		return Board{}, err
	}
	return Board{
		Entries: scoring.Leaderboard(p.Guests, preds),
		Correct: scoring.CorrectGuesses(p.Games, p.Guests, preds),
	}, nil
}

func (s *Service) hostParty(ctx context.Context, code, requesterID string) (houseparty.Party, error) {
	p, err := s.Party(ctx, code)
	if err != nil {
		return houseparty.Party{}, err
	}
	if requesterID == "" || p.HostID != requesterID {
		return houseparty.Party{}, houseparty.ErrNotHost
	}
	return p, nil
}

func findGuest(p houseparty.Party, id string) (houseparty.Guest, error) {
	for _, g := range p.Guests {
		if g.ID == id {
			return g, nil
		}
	}
	return houseparty.Guest{}, houseparty.ErrGuestNotFound
}

func findGame(p houseparty.Party, id string) (houseparty.Game, error) {
	for _, g := range p.Games {
		if g.ID == id {
			return g, nil
		}
	}
	return houseparty.Game{}, houseparty.ErrGameNotFound
}
