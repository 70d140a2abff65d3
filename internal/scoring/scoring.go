// Package scoring grades prediction games and derives the leaderboard.
// Everything here is a pure function of its arguments.
package scoring

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/houseparty/houseparty/internal/houseparty"
)

// Award is the point value assigned to one prediction by a scoring run.
type Award struct {
	PredictionID string `json:"predictionId"`
	GuestID      string `json:"guestId"`
	Points       int    `json:"points"`
}

// Score grades every prediction for game against correctAnswer. Running it
// again with the same inputs yields the same awards.
func Score(game houseparty.Game, correctAnswer string, preds []houseparty.Prediction) ([]Award, error) {
	correctAnswer = strings.TrimSpace(correctAnswer)
	if correctAnswer == "" {
		return nil, houseparty.Invalid("correctAnswer is required")
	}

	switch game.Type {
	case houseparty.PickOne, houseparty.OverUnder:
		return scoreMatch(game.Points, correctAnswer, preds), nil
	case houseparty.ExactNumber:
		target, err := ParseNumber(correctAnswer)
		if err != nil {
			return nil, houseparty.Invalid("correctAnswer must be a number for exact-number games")
		}
		return scoreClosest(game.Points, target, preds), nil
	default:
		return nil, houseparty.Invalid("unknown game type " + string(game.Type))
	}
}

func scoreMatch(points int, correct string, preds []houseparty.Prediction) []Award {
	awards := make([]Award, len(preds))
	for i, p := range preds {
		awards[i] = Award{PredictionID: p.ID, GuestID: p.GuestID}
		if strings.EqualFold(strings.TrimSpace(p.Answer), correct) {
			awards[i].Points = points
		}
	}
	return awards
}

// scoreClosest awards points to every guess at the minimum distance from
// target. Answers that are not numbers never win.
func scoreClosest(points int, target float64, preds []houseparty.Prediction) []Award {
	dist := make([]float64, len(preds))
	best := math.Inf(1)
	for i, p := range preds {
		dist[i] = math.Inf(1)
		if guess, err := ParseNumber(p.Answer); err == nil {
			dist[i] = math.Abs(guess - target)
		}
		best = min(best, dist[i])
	}

	awards := make([]Award, len(preds))
	for i, p := range preds {
		awards[i] = Award{PredictionID: p.ID, GuestID: p.GuestID}
		if !math.IsInf(best, 1) && dist[i] == best {
			awards[i].Points = points
		}
	}
	return awards
}

// ParseNumber reads a finite number; NaN and infinities are rejected.
func ParseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrRange
	}
	return f, nil
}

// Entry is one leaderboard row.
type Entry struct {
	GuestID     string `json:"guestId"`
	Name        string `json:"name"`
	TotalPoints int    `json:"totalPoints"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// Leaderboard sums scored awards per guest. Rows are ordered by total
// points descending; equal totals keep guest join order.
func Leaderboard(guests []houseparty.Guest, preds []houseparty.Prediction) []Entry {
	ordered := append([]houseparty.Guest(nil), guests...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].JoinedAt.Equal(ordered[j].JoinedAt) {
			return ordered[i].JoinedAt.Before(ordered[j].JoinedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	idx := make(map[string]int, len(ordered))
	entries := make([]Entry, len(ordered))
	for i, g := range ordered {
		idx[g.ID] = i
		entries[i] = Entry{GuestID: g.ID, Name: g.Name}
	}

	for _, p := range preds {
		i, ok := idx[p.GuestID]
		if !ok || p.PointsAwarded == nil {
			continue
		}
		entries[i].TotalPoints += *p.PointsAwarded
		entries[i].GamesPlayed++
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	return entries
}

// CorrectGuess names a guest whose prediction earned points.
type CorrectGuess struct {
	GuestID string `json:"guestId"`
	Name    string `json:"name"`
	Answer  string `json:"answer"`
	Points  int    `json:"points"`
}

// CorrectGuesses maps each scored game id to the guests whose stored award
// is positive. It reads the awards of the last scoring run rather than
// re-grading raw answers.
func CorrectGuesses(games []houseparty.Game, guests []houseparty.Guest, preds []houseparty.Prediction) map[string][]CorrectGuess {
	names := make(map[string]string, len(guests))
	for _, g := range guests {
		names[g.ID] = g.Name
	}

	out := make(map[string][]CorrectGuess)
	for _, g := range games {
		if g.IsScored {
			out[g.ID] = []CorrectGuess{}
		}
	}
	for _, p := range preds {
		list, scored := out[p.GameID]
		if !scored || p.PointsAwarded == nil || *p.PointsAwarded <= 0 {
			continue
		}
		name, ok := names[p.GuestID]
		if !ok {
			continue
		}
		out[p.GameID] = append(list, CorrectGuess{
			GuestID: p.GuestID,
			Name:    name,
			Answer:  p.Answer,
			Points:  *p.PointsAwarded,
		})
	}
	return out
}
