// Package squares runs the 10x10 squares side game: allocating cells to
// guests, drawing the row and column digits and judging quarter winners.
package squares

import (
	"math/rand/v2"

	"github.com/houseparty/houseparty/internal/houseparty"
)

// Size is the number of rows and of columns on the board.
const Size = 10

// Rand is the randomness the engine needs. *rand.Rand from math/rand/v2
// satisfies it, so tests can pass a seeded generator.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the runtime's uniformly seeded generator and is
// safe for concurrent use.
var DefaultRand Rand = globalRand{}

// Shuffle permutes s in place with Fisher-Yates: walking from the last
// index down to 1, each element swaps with a uniform pick at or before it.
func Shuffle[T any](r Rand, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Digits returns a random permutation of 0 through 9.
func Digits(r Rand) []int {
	d := make([]int, Size)
	for i := range d {
		d[i] = i
	}
	Shuffle(r, d)
	return d
}

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) Valid() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// Cells lists every position on the board in row-major order.
func Cells() []Cell {
	cells := make([]Cell, 0, Size*Size)
	for row := range Size {
		for col := range Size {
			cells = append(cells, Cell{Row: row, Col: col})
		}
	}
	return cells
}

// Assign deals every cell to guestIDs round-robin after shuffling both the
// cells and the guests, so claim counts differ by at most one.
func Assign(r Rand, gridID string, guestIDs []string) []houseparty.Claim {
	if len(guestIDs) == 0 {
		return nil
	}
	cells := Cells()
	Shuffle(r, cells)
	guests := append([]string(nil), guestIDs...)
	Shuffle(r, guests)

	claims := make([]houseparty.Claim, len(cells))
	for i, c := range cells {
		claims[i] = houseparty.Claim{
			ID:      houseparty.NewID(),
			GridID:  gridID,
			GuestID: guests[i%len(guests)],
			Row:     c.Row,
			Col:     c.Col,
		}
	}
	return claims
}

// Numbers is one draw: Home indexes columns and Away indexes rows.
type Numbers struct {
	Home []int
	Away []int
}

func Draw(r Rand) Numbers {
	return Numbers{Home: Digits(r), Away: Digits(r)}
}

// WinningCell locates the cell whose row and column digits match the last
// digits of the score. It fails only when the numbers are not a full draw.
func WinningCell(n Numbers, score houseparty.ScorePair) (Cell, bool) {
	col := indexOf(n.Home, lastDigit(score.Home))
	row := indexOf(n.Away, lastDigit(score.Away))
	if col < 0 || row < 0 {
		return Cell{}, false
	}
	return Cell{Row: row, Col: col}, true
}

func lastDigit(n int) int {
	d := n % 10
	if d < 0 {
		d = -d
	}
	return d
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// Win is the outcome of one recorded quarter.
type Win struct {
	Quarter   houseparty.Quarter   `json:"quarter"`
	Score     houseparty.ScorePair `json:"score"`
	Cell      Cell                 `json:"cell"`
	GuestID   string               `json:"guestId,omitempty"`
	GuestName string               `json:"guestName,omitempty"`
	Payout    float64              `json:"payout"`
}

// Winners judges every quarter with a recorded score. A cell nobody
// claimed yields a Win with an empty GuestID.
func Winners(g houseparty.Grid) []Win {
	if !g.NumbersDrawn {
		return nil
	}
	n := Numbers{Home: g.HomeNumbers, Away: g.AwayNumbers}

	var wins []Win
	for _, q := range houseparty.Quarters {
		score, ok := g.Scores[q]
		if !ok {
			continue
		}
		cell, ok := WinningCell(n, score)
		if !ok {
			continue
		}
		w := Win{Quarter: q, Score: score, Cell: cell, Payout: g.Payouts[q]}
		if c, ok := g.ClaimAt(cell.Row, cell.Col); ok {
			w.GuestID = c.GuestID
			w.GuestName = c.GuestName
		}
		wins = append(wins, w)
	}
	return wins
}
