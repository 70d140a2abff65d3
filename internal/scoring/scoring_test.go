package scoring_test

import (
	"errors"
	"testing"
	"time"

	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/scoring"
)

func pred(id, guest, answer string) houseparty.Prediction {
	return houseparty.Prediction{ID: id, GuestID: guest, GameID: "g1", Answer: answer}
}

func awardsByGuest(awards []scoring.Award) map[string]int {
	out := make(map[string]int, len(awards))
	for _, a := range awards {
		out[a.GuestID] = a.Points
	}
	return out
}

func TestScorePickOneIsCaseInsensitive(t *testing.T) {
	game := houseparty.Game{ID: "g1", Type: houseparty.PickOne, Question: "Coin Toss", Options: []string{"Heads", "Tails"}, Points: 1}
	preds := []houseparty.Prediction{pred("p1", "A", "Heads"), pred("p2", "B", "tails")}

	awards, err := scoring.Score(game, "Heads", preds)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	got := awardsByGuest(awards)
	if got["A"] != 1 || got["B"] != 0 {
		t.Errorf("awards = %v, want A=1 B=0", got)
	}

	awards, _ = scoring.Score(game, "TAILS", preds)
	got = awardsByGuest(awards)
	if got["A"] != 0 || got["B"] != 1 {
		t.Errorf("awards = %v, want A=0 B=1", got)
	}
}

func TestScoreOverUnderComparesText(t *testing.T) {
	v := 45.5
	game := houseparty.Game{ID: "g1", Type: houseparty.OverUnder, OverUnderValue: &v, Points: 2}
	preds := []houseparty.Prediction{pred("p1", "A", "over"), pred("p2", "B", "Under"), pred("p3", "C", "50")}

	awards, err := scoring.Score(game, "Over", preds)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	got := awardsByGuest(awards)
	if got["A"] != 2 || got["B"] != 0 || got["C"] != 0 {
		t.Errorf("awards = %v, want A=2 B=0 C=0", got)
	}
}

func TestScoreExactNumberClosestWins(t *testing.T) {
	game := houseparty.Game{ID: "g1", Type: houseparty.ExactNumber, Question: "Total points", Points: 5}

	tests := []struct {
		name    string
		correct string
		guesses map[string]string
		want    map[string]int
	}{
		{
			name:    "single closest",
			correct: "45",
			guesses: map[string]string{"A": "40", "B": "44", "C": "50"},
			want:    map[string]int{"A": 0, "B": 5, "C": 0},
		},
		{
			name:    "ties all win",
			correct: "45",
			guesses: map[string]string{"A": "40", "B": "50", "C": "60"},
			want:    map[string]int{"A": 5, "B": 5, "C": 0},
		},
		{
			name:    "exact hit",
			correct: "31",
			guesses: map[string]string{"A": "31", "B": "30"},
			want:    map[string]int{"A": 5, "B": 0},
		},
		{
			name:    "non-numeric guesses never win",
			correct: "10",
			guesses: map[string]string{"A": "lots", "B": "100"},
			want:    map[string]int{"A": 0, "B": 5},
		},
		{
			name:    "decimal answers",
			correct: "45.5",
			guesses: map[string]string{"A": "45", "B": "46"},
			want:    map[string]int{"A": 5, "B": 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var preds []houseparty.Prediction
			for guest, answer := range tt.guesses {
				preds = append(preds, pred("p-"+guest, guest, answer))
			}
			awards, err := scoring.Score(game, tt.correct, preds)
			if err != nil {
				t.Fatalf("Score: %v", err)
			}
			got := awardsByGuest(awards)
			for guest, want := range tt.want {
				if got[guest] != want {
					t.Errorf("%s = %d, want %d", guest, got[guest], want)
				}
			}
		})
	}
}

func TestScoreNoPredictions(t *testing.T) {
	game := houseparty.Game{ID: "g1", Type: houseparty.ExactNumber, Points: 5}
	awards, err := scoring.Score(game, "12", nil)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(awards) != 0 {
		t.Errorf("got %d awards, want 0", len(awards))
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	game := houseparty.Game{ID: "g1", Type: houseparty.ExactNumber, Points: 3}
	preds := []houseparty.Prediction{pred("p1", "A", "20"), pred("p2", "B", "24"), pred("p3", "C", "24")}

	first, _ := scoring.Score(game, "23", preds)
	second, _ := scoring.Score(game, "23", preds)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("award %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestScoreRejectsBadAnswers(t *testing.T) {
	exact := houseparty.Game{ID: "g1", Type: houseparty.ExactNumber, Points: 1}
	if _, err := scoring.Score(exact, "forty", nil); !errors.Is(err, houseparty.ErrInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
	pick := houseparty.Game{ID: "g1", Type: houseparty.PickOne, Points: 1}
	if _, err := scoring.Score(pick, "  ", nil); !errors.Is(err, houseparty.ErrInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func ptr(n int) *int { return &n }

func TestLeaderboard(t *testing.T) {
	base := time.Date(2026, 2, 8, 18, 0, 0, 0, time.UTC)
	guests := []houseparty.Guest{
		{ID: "c", Name: "Cleo", JoinedAt: base.Add(2 * time.Minute)},
		{ID: "a", Name: "Ana", JoinedAt: base},
		{ID: "b", Name: "Ben", JoinedAt: base.Add(time.Minute)},
		{ID: "d", Name: "Dev", JoinedAt: base.Add(3 * time.Minute)},
	}
	preds := []houseparty.Prediction{
		{GuestID: "a", GameID: "g1", PointsAwarded: ptr(1)},
		{GuestID: "b", GameID: "g1", PointsAwarded: ptr(0)},
		{GuestID: "c", GameID: "g1", PointsAwarded: ptr(1)},
		{GuestID: "b", GameID: "g2", PointsAwarded: ptr(3)},
		{GuestID: "a", GameID: "g3"},
		{GuestID: "ghost", GameID: "g1", PointsAwarded: ptr(9)},
	}

	got := scoring.Leaderboard(guests, preds)
	want := []scoring.Entry{
		{GuestID: "b", Name: "Ben", TotalPoints: 3, GamesPlayed: 2},
		{GuestID: "a", Name: "Ana", TotalPoints: 1, GamesPlayed: 1},
		{GuestID: "c", Name: "Cleo", TotalPoints: 1, GamesPlayed: 1},
		{GuestID: "d", Name: "Dev", TotalPoints: 0, GamesPlayed: 0},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCorrectGuesses(t *testing.T) {
	guests := []houseparty.Guest{{ID: "a", Name: "Ana"}, {ID: "b", Name: "Ben"}}
	games := []houseparty.Game{{ID: "g1", IsScored: true}, {ID: "g2", IsScored: true}, {ID: "g3"}}
	preds := []houseparty.Prediction{
		{GuestID: "a", GameID: "g1", Answer: "Heads", PointsAwarded: ptr(1)},
		{GuestID: "b", GameID: "g1", Answer: "tails", PointsAwarded: ptr(0)},
		{GuestID: "b", GameID: "g2", Answer: "Over", PointsAwarded: ptr(0)},
		{GuestID: "a", GameID: "g3", Answer: "40"},
	}

	got := scoring.CorrectGuesses(games, guests, preds)
	if len(got["g1"]) != 1 || got["g1"][0].Name != "Ana" {
		t.Errorf("g1 = %+v, want [Ana]", got["g1"])
	}
	if list, ok := got["g2"]; !ok || len(list) != 0 {
		t.Errorf("g2 = %+v, want empty list", list)
	}
	if _, ok := got["g3"]; ok {
		t.Error("unscored game g3 should be absent")
	}
}
