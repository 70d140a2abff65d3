package party_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/houseparty/houseparty/internal/database"
	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/migrations"
	"github.com/houseparty/houseparty/internal/party"
	"github.com/houseparty/houseparty/internal/store"
)

type fixture struct {
	svc    *party.Service
	broker *party.Broker
	store  *store.Store
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db, database.SQLite.Dialect()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New(db, database.SQLite)
	broker := party.NewBroker(logger)
	return fixture{svc: party.NewService(st, broker, logger), broker: broker, store: st}
}

func wantErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}

func TestCreateAndJoin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, host, err := f.svc.CreateParty(ctx, "Super Bowl LX", "Hana")
	if err != nil {
		t.Fatalf("CreateParty: %v", err)
	}
	if len(p.Code) != houseparty.CodeLength || p.HostID != host.ID || !host.IsHost {
		t.Errorf("party = %+v host = %+v", p, host)
	}

	_, _, err = f.svc.CreateParty(ctx, " ", "Hana")
	wantErr(t, err, houseparty.ErrInvalidInput)

	ana, err := f.svc.Join(ctx, p.Code, "Ana")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if ana.IsHost {
		t.Error("joined guest should not be host")
	}
	if _, err := f.svc.Join(ctx, p.Code, "Ana"); err != nil {
		t.Fatalf("duplicate names are allowed: %v", err)
	}

	got, err := f.svc.Party(ctx, lower(p.Code))
	if err != nil {
		t.Fatalf("Party: %v", err)
	}
	hosts := 0
	for _, g := range got.Guests {
		if g.IsHost {
			hosts++
			if g.ID != got.HostID {
				t.Error("host flag on a guest other than hostId")
			}
		}
	}
	if hosts != 1 || len(got.Guests) != 3 {
		t.Errorf("hosts = %d guests = %d", hosts, len(got.Guests))
	}

	_, err = f.svc.Join(ctx, "QQQQQ", "Ben")
	wantErr(t, err, houseparty.ErrPartyNotFound)
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func TestRejoinReturnsFirstMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, _, _ := f.svc.CreateParty(ctx, "Party", "Hana")

	first, _ := f.svc.Join(ctx, p.Code, "Sam")
	if _, err := f.svc.Join(ctx, p.Code, "sam"); err != nil {
		t.Fatalf("Join: %v", err)
	}

	got, err := f.svc.Rejoin(ctx, p.Code, "SAM")
	if err != nil {
		t.Fatalf("Rejoin: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("rejoined %s, want first Sam %s", got.ID, first.ID)
	}

	_, err = f.svc.Rejoin(ctx, p.Code, "Nobody")
	wantErr(t, err, houseparty.ErrGuestNotFound)
}

func TestRemoveGuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, host, _ := f.svc.CreateParty(ctx, "Party", "Hana")
	ana, _ := f.svc.Join(ctx, p.Code, "Ana")
	ben, _ := f.svc.Join(ctx, p.Code, "Ben")

	wantErr(t, f.svc.RemoveGuest(ctx, p.Code, ana.ID, ben.ID), houseparty.ErrNotHost)
	wantErr(t, f.svc.RemoveGuest(ctx, p.Code, host.ID, host.ID), houseparty.ErrHostRemoval)
	wantErr(t, f.svc.RemoveGuest(ctx, p.Code, host.ID, "missing"), houseparty.ErrGuestNotFound)

	if err := f.svc.RemoveGuest(ctx, p.Code, host.ID, ben.ID); err != nil {
		t.Fatalf("RemoveGuest: %v", err)
	}
	got, _ := f.svc.Party(ctx, p.Code)
	if len(got.Guests) != 2 {
		t.Errorf("guests = %d, want 2", len(got.Guests))
	}
}

func TestSquaresOptIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, host, _ := f.svc.CreateParty(ctx, "Party", "Hana")
	ana, _ := f.svc.Join(ctx, p.Code, "Ana")
	ben, _ := f.svc.Join(ctx, p.Code, "Ben")

	g, err := f.svc.SetSquaresOptIn(ctx, p.Code, ana.ID, ana.ID, true)
	if err != nil || !g.WantsSquares {
		t.Fatalf("self opt-in: %+v %v", g, err)
	}
	_, err = f.svc.SetSquaresOptIn(ctx, p.Code, ana.ID, ben.ID, true)
	wantErr(t, err, houseparty.ErrNotSelf)
	if _, err := f.svc.SetSquaresOptIn(ctx, p.Code, host.ID, ben.ID, true); err != nil {
		t.Fatalf("host opt-in: %v", err)
	}

	got, _ := f.svc.Party(ctx, p.Code)
	for _, g := range got.Guests {
		if want := g.ID != host.ID; g.WantsSquares != want {
			t.Errorf("%s wantsSquares = %v", g.Name, g.WantsSquares)
		}
	}
}

func TestLockPublishesEventOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, host, _ := f.svc.CreateParty(ctx, "Party", "Hana")

	var mu sync.Mutex
	var events []party.Event
	f.broker.Subscribe(party.EventLocked, func(_ context.Context, e party.Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})
	f.broker.Subscribe(party.EventLocked, func(context.Context, party.Event) {
		panic("hook failure must not break locking")
	})

	_, err := f.svc.SetLocked(ctx, p.Code, "someone", true)
	wantErr(t, err, houseparty.ErrNotHost)

	got, err := f.svc.SetLocked(ctx, p.Code, host.ID, true)
	if err != nil {
		t.Fatalf("SetLocked: %v", err)
	}
	if !got.IsLocked {
		t.Error("party not locked")
	}
	if _, err := f.svc.SetLocked(ctx, p.Code, host.ID, true); err != nil {
		t.Fatalf("relock: %v", err)
	}
	if len(events) != 1 || !events[0].Party.IsLocked || events[0].Party.Code != p.Code {
		t.Errorf("events = %+v", events)
	}

	got, err = f.svc.SetLocked(ctx, p.Code, host.ID, false)
	if err != nil || got.IsLocked {
		t.Fatalf("unlock: %+v %v", got, err)
	}
}

func TestGameCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, host, _ := f.svc.CreateParty(ctx, "Party", "Hana")
	ana, _ := f.svc.Join(ctx, p.Code, "Ana")

	spec := houseparty.GameSpec{Type: houseparty.PickOne, Question: "Coin Toss", Options: []string{"Heads", "Tails"}}
	_, err := f.svc.AddGame(ctx, p.Code, ana.ID, spec)
	wantErr(t, err, houseparty.ErrNotHost)

	g1, err := f.svc.AddGame(ctx, p.Code, host.ID, spec)
	if err != nil {
		t.Fatalf("AddGame: %v", err)
	}
	if g1.Points != 1 || g1.Order != 0 {
		t.Errorf("game = %+v", g1)
	}
	_, err = f.svc.AddGame(ctx, p.Code, host.ID, houseparty.GameSpec{Type: houseparty.OverUnder, Question: "Total"})
	wantErr(t, err, houseparty.ErrInvalidInput)

	g2, err := f.svc.AddGame(ctx, p.Code, host.ID, houseparty.GameSpec{Type: houseparty.ExactNumber, Question: "Total points", Points: 5})
	if err != nil {
		t.Fatalf("AddGame: %v", err)
	}

	q := "Opening coin toss"
	hint := "Called by the visiting captain"
	updated, err := f.svc.UpdateGame(ctx, p.Code, host.ID, g1.ID, houseparty.GamePatch{Question: &q, Hint: &hint})
	if err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	if updated.Question != q || updated.Hint != hint || len(updated.Options) != 2 {
		t.Errorf("updated = %+v", updated)
	}

	games, err := f.svc.ReorderGames(ctx, p.Code, host.ID, []string{g2.ID, g1.ID})
	if err != nil {
		t.Fatalf("ReorderGames: %v", err)
	}
	if games[0].ID != g2.ID || games[1].ID != g1.ID {
		t.Errorf("order = %s, %s", games[0].ID, games[1].ID)
	}
	_, err = f.svc.ReorderGames(ctx, p.Code, host.ID, []string{g2.ID, "foreign"})
	wantErr(t, err, houseparty.ErrInvalidInput)

	if _, err := f.svc.Score(ctx, p.Code, host.ID, g2.ID, "45"); err != nil {
		t.Fatalf("Score: %v", err)
	}
	_, err = f.svc.UpdateGame(ctx, p.Code, host.ID, g2.ID, houseparty.GamePatch{Question: &q})
	wantErr(t, err, houseparty.ErrGameScored)
	wantErr(t, f.svc.DeleteGame(ctx, p.Code, host.ID, g2.ID), houseparty.ErrGameScored)

	if err := f.svc.DeleteGame(ctx, p.Code, host.ID, g1.ID); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	wantErr(t, f.svc.DeleteGame(ctx, p.Code, host.ID, g1.ID), houseparty.ErrGameNotFound)
}

func TestLoadTemplateAppends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, host, _ := f.svc.CreateParty(ctx, "Party", "Hana")

	if _, err := f.svc.AddGame(ctx, p.Code, host.ID, houseparty.GameSpec{Type: houseparty.ExactNumber, Question: "First"}); err != nil {
		t.Fatalf("AddGame: %v", err)
	}
	games, err := f.svc.LoadTemplate(ctx, p.Code, host.ID, "super-bowl-quick")
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	if len(games) != 7 || games[0].Order != 1 || games[6].Order != 7 {
		t.Errorf("loaded %d games, orders %d..%d", len(games), games[0].Order, games[len(games)-1].Order)
	}

	_, err = f.svc.LoadTemplate(ctx, p.Code, host.ID, "nope")
	wantErr(t, err, houseparty.ErrTemplateNotFound)
}

func TestSubmitRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, host, _ := f.svc.CreateParty(ctx, "Party", "Hana")
	ana, _ := f.svc.Join(ctx, p.Code, "Ana")
	coin, _ := f.svc.AddGame(ctx, p.Code, host.ID, houseparty.GameSpec{Type: houseparty.PickOne, Question: "Coin", Options: []string{"Heads", "Tails"}})
	total, _ := f.svc.AddGame(ctx, p.Code, host.ID, houseparty.GameSpec{Type: houseparty.ExactNumber, Question: "Total"})

	if _, err := f.svc.Submit(ctx, p.Code, ana.ID, coin.ID, "heads"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	pr, err := f.svc.Submit(ctx, p.Code, ana.ID, coin.ID, "Tails")
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if pr.Answer != "Tails" {
		t.Errorf("answer = %q", pr.Answer)
	}

	_, err = f.svc.Submit(ctx, p.Code, ana.ID, coin.ID, "Edge")
	wantErr(t, err, houseparty.ErrInvalidInput)
	for _, bad := range []string{"forty", "NaN", "Inf", "-infinity"} {
		_, err = f.svc.Submit(ctx, p.Code, ana.ID, total.ID, bad)
		wantErr(t, err, houseparty.ErrInvalidInput)
	}
	_, err = f.svc.Submit(ctx, p.Code, "ghost", coin.ID, "Heads")
	wantErr(t, err, houseparty.ErrGuestNotFound)
	_, err = f.svc.Submit(ctx, p.Code, ana.ID, "missing", "Heads")
	wantErr(t, err, houseparty.ErrGameNotFound)

	if _, err := f.svc.Submit(ctx, p.Code, ana.ID, total.ID, "44"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	answers, err := f.svc.Predictions(ctx, p.Code, ana.ID)
	if err != nil {
		t.Fatalf("Predictions: %v", err)
	}
	if len(answers) != 2 || answers[coin.ID] != "Tails" || answers[total.ID] != "44" {
		t.Errorf("answers = %v", answers)
	}

	if _, err := f.svc.SetLocked(ctx, p.Code, host.ID, true); err != nil {
		t.Fatalf("SetLocked: %v", err)
	}
	_, err = f.svc.Submit(ctx, p.Code, ana.ID, coin.ID, "Heads")
	wantErr(t, err, houseparty.ErrPartyLocked)

	answers, _ = f.svc.Predictions(ctx, p.Code, ana.ID)
	if answers[coin.ID] != "Tails" {
		t.Errorf("locked submit changed answer to %q", answers[coin.ID])
	}

	if _, err := f.svc.SetLocked(ctx, p.Code, host.ID, false); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if _, err := f.svc.Score(ctx, p.Code, host.ID, coin.ID, "Heads"); err != nil {
		t.Fatalf("Score: %v", err)
	}
	_, err = f.svc.Submit(ctx, p.Code, ana.ID, coin.ID, "Heads")
	wantErr(t, err, houseparty.ErrGameScored)
}

func TestScoringScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, host, _ := f.svc.CreateParty(ctx, "Party", "Hana")
	a, _ := f.svc.Join(ctx, p.Code, "A")
	b, _ := f.svc.Join(ctx, p.Code, "B")
	c, _ := f.svc.Join(ctx, p.Code, "C")

	coin, _ := f.svc.AddGame(ctx, p.Code, host.ID, houseparty.GameSpec{
		Type: houseparty.PickOne, Question: "Coin Toss", Options: []string{"Heads", "Tails"}, Points: 1,
	})
	total, _ := f.svc.AddGame(ctx, p.Code, host.ID, houseparty.GameSpec{
		Type: houseparty.ExactNumber, Question: "Total points", Points: 5,
	})

	submit := func(guest houseparty.Guest, game houseparty.Game, answer string) {
		t.Helper()
		if _, err := f.svc.Submit(ctx, p.Code, guest.ID, game.ID, answer); err != nil {
			t.Fatalf("Submit %s: %v", guest.Name, err)
		}
	}
	submit(a, coin, "Heads")
	submit(b, coin, "tails")
	submit(a, total, "40")
	submit(b, total, "44")
	submit(c, total, "50")

	_, err := f.svc.Score(ctx, p.Code, a.ID, coin.ID, "Heads")
	wantErr(t, err, houseparty.ErrNotHost)
	_, err = f.svc.Score(ctx, p.Code, host.ID, "missing", "Heads")
	wantErr(t, err, houseparty.ErrGameNotFound)

	res, err := f.svc.Score(ctx, p.Code, host.ID, coin.ID, "Heads")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !res.Game.IsScored || res.Game.CorrectAnswer == nil || *res.Game.CorrectAnswer != "Heads" {
		t.Errorf("game = %+v", res.Game)
	}
	totals := map[string]int{}
	for _, e := range res.Leaderboard {
		totals[e.Name] = e.TotalPoints
	}
	if totals["A"] != 1 || totals["B"] != 0 {
		t.Errorf("after coin toss: %v", totals)
	}

	for range 2 {
		if _, err := f.svc.Score(ctx, p.Code, host.ID, total.ID, "45"); err != nil {
			t.Fatalf("Score: %v", err)
		}
	}

	board, err := f.svc.Leaderboard(ctx, p.Code)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	want := []struct {
		name        string
		points      int
		gamesPlayed int
	}{
		{"B", 5, 2},
		{"A", 1, 2},
		{"Hana", 0, 0},
		{"C", 0, 1},
	}
	if len(board.Entries) != len(want) {
		t.Fatalf("entries = %+v", board.Entries)
	}
	for i, w := range want {
		e := board.Entries[i]
		if e.Name != w.name || e.TotalPoints != w.points || e.GamesPlayed != w.gamesPlayed {
			t.Errorf("entry %d = %+v, want %+v", i, e, w)
		}
	}

	if got := board.Correct[total.ID]; len(got) != 1 || got[0].Name != "B" {
		t.Errorf("correct for total = %+v", got)
	}
	if got := board.Correct[coin.ID]; len(got) != 1 || got[0].Name != "A" {
		t.Errorf("correct for coin = %+v", got)
	}

	res, err = f.svc.Score(ctx, p.Code, host.ID, coin.ID, "Tails")
	if err != nil {
		t.Fatalf("rescore: %v", err)
	}
	totals = map[string]int{}
	for _, e := range res.Leaderboard {
		totals[e.Name] = e.TotalPoints
	}
	if totals["A"] != 0 || totals["B"] != 6 {
		t.Errorf("after rescoring: %v", totals)
	}
}
