package squares_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/houseparty/houseparty/internal/houseparty"
	"github.com/houseparty/houseparty/internal/squares"
)

// funcRand returns f(n) for IntN(n).
type funcRand func(n int) int

func (f funcRand) IntN(n int) int { return f(n) }

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestShuffleExactPermutations(t *testing.T) {
	tests := []struct {
		name string
		r    squares.Rand
		want []int
	}{
		{"always first", funcRand(func(int) int { return 0 }), []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 0}},
		{"always self", funcRand(func(n int) int { return n - 1 }), []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
		{"halfway", funcRand(func(n int) int { return (n - 1) / 2 }), []int{8, 0, 6, 1, 5, 2, 7, 3, 9, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := squares.Digits(tt.r); !slices.Equal(got, tt.want) {
				t.Errorf("Digits = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShuffleSeededIsReproducible(t *testing.T) {
	a := squares.Digits(seeded(42))
	b := squares.Digits(seeded(42))
	if !slices.Equal(a, b) {
		t.Errorf("same seed gave %v and %v", a, b)
	}
}

func TestShuffleRequestsShrinkingBounds(t *testing.T) {
	var bounds []int
	r := funcRand(func(n int) int {
		bounds = append(bounds, n)
		return 0
	})
	squares.Shuffle(r, []string{"a", "b", "c", "d"})
	if want := []int{4, 3, 2}; !slices.Equal(bounds, want) {
		t.Errorf("IntN bounds = %v, want %v", bounds, want)
	}
}

func TestShuffleIsRoughlyUniform(t *testing.T) {
	r := seeded(7)
	counts := make(map[[3]string]int)
	const rounds = 60000
	for range rounds {
		s := []string{"a", "b", "c"}
		squares.Shuffle(r, s)
		counts[[3]string{s[0], s[1], s[2]}]++
	}
	if len(counts) != 6 {
		t.Fatalf("saw %d permutations, want 6", len(counts))
	}
	for perm, n := range counts {
		if n < rounds/6*9/10 || n > rounds/6*11/10 {
			t.Errorf("permutation %v appeared %d times", perm, n)
		}
	}
}

func isDigitPermutation(d []int) bool {
	if len(d) != 10 {
		return false
	}
	sorted := slices.Clone(d)
	slices.Sort(sorted)
	for i, v := range sorted {
		if v != i {
			return false
		}
	}
	return true
}

func TestAssignCoversBoardEvenly(t *testing.T) {
	for _, guests := range [][]string{
		{"solo"},
		{"a", "b", "c"},
		{"a", "b", "c", "d", "e", "f", "g"},
		make([]string, 0),
	} {
		claims := squares.Assign(seeded(uint64(len(guests))), "grid", guests)
		if len(guests) == 0 {
			if claims != nil {
				t.Errorf("no guests should yield no claims, got %d", len(claims))
			}
			continue
		}
		if len(claims) != 100 {
			t.Fatalf("%d guests: got %d claims, want 100", len(guests), len(claims))
		}

		cells := make(map[squares.Cell]bool)
		perGuest := make(map[string]int)
		for _, c := range claims {
			cell := squares.Cell{Row: c.Row, Col: c.Col}
			if !cell.Valid() || cells[cell] {
				t.Fatalf("bad or duplicate cell %+v", cell)
			}
			cells[cell] = true
			perGuest[c.GuestID]++
		}

		lo, hi := 100, 0
		for _, g := range guests {
			lo = min(lo, perGuest[g])
			hi = max(hi, perGuest[g])
		}
		if hi-lo > 1 {
			t.Errorf("%d guests: claim counts range %d..%d", len(guests), lo, hi)
		}
	}
}

func TestAssignWithThreeGuestsSplits34_33_33(t *testing.T) {
	claims := squares.Assign(seeded(3), "grid", []string{"a", "b", "c"})
	per := make(map[string]int)
	for _, c := range claims {
		per[c.GuestID]++
	}
	got := []int{per["a"], per["b"], per["c"]}
	slices.Sort(got)
	if !slices.Equal(got, []int{33, 33, 34}) {
		t.Errorf("counts = %v", got)
	}
}

func TestDrawProducesDigitPermutations(t *testing.T) {
	for seed := range uint64(20) {
		n := squares.Draw(seeded(seed))
		if !isDigitPermutation(n.Home) || !isDigitPermutation(n.Away) {
			t.Fatalf("seed %d: draw %v / %v", seed, n.Home, n.Away)
		}
	}
}

func TestWinningCell(t *testing.T) {
	n := squares.Numbers{
		Home: []int{3, 8, 1, 4, 0, 9, 2, 7, 5, 6},
		Away: []int{5, 1, 7, 0, 2, 9, 6, 3, 8, 4},
	}

	cell, ok := squares.WinningCell(n, houseparty.ScorePair{Home: 24, Away: 17})
	if !ok {
		t.Fatal("expected a winning cell")
	}
	if cell != (squares.Cell{Row: 2, Col: 3}) {
		t.Errorf("cell = %+v, want row 2 col 3", cell)
	}

	cell, _ = squares.WinningCell(n, houseparty.ScorePair{Home: 0, Away: 0})
	if cell != (squares.Cell{Row: 3, Col: 4}) {
		t.Errorf("0-0 cell = %+v, want row 3 col 4", cell)
	}

	if _, ok := squares.WinningCell(squares.Numbers{}, houseparty.ScorePair{}); ok {
		t.Error("undrawn numbers should not resolve")
	}
}

func TestWinners(t *testing.T) {
	g := houseparty.Grid{
		NumbersDrawn: true,
		HomeNumbers:  []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		AwayNumbers:  []int{9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		Scores: map[houseparty.Quarter]houseparty.ScorePair{
			houseparty.Q1:    {Home: 7, Away: 3},
			houseparty.Q2:    {Home: 17, Away: 13},
			houseparty.Final: {Home: 31, Away: 20},
		},
		Payouts: map[houseparty.Quarter]float64{houseparty.Q1: 25, houseparty.Final: 50},
		Claims: []houseparty.Claim{
			{GuestID: "ana", GuestName: "Ana", Row: 6, Col: 7},
		},
	}

	wins := squares.Winners(g)
	if len(wins) != 3 {
		t.Fatalf("got %d wins, want 3", len(wins))
	}
	if wins[0].Quarter != houseparty.Q1 || wins[0].GuestName != "Ana" || wins[0].Payout != 25 {
		t.Errorf("q1 = %+v", wins[0])
	}
	if wins[1].Quarter != houseparty.Q2 || wins[1].GuestID != "ana" {
		t.Errorf("q2 = %+v, same cell should win again", wins[1])
	}
	if wins[2].Cell != (squares.Cell{Row: 9, Col: 1}) || wins[2].GuestID != "" {
		t.Errorf("final = %+v, want unclaimed row 9 col 1", wins[2])
	}

	g.NumbersDrawn = false
	if wins := squares.Winners(g); wins != nil {
		t.Errorf("undrawn grid produced %v", wins)
	}
}
