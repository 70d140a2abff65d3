// Package livescore polls an upstream scoreboard for one event, caches the
// result by game state and feeds finished quarters into squares grids.
package livescore

import (
	"errors"
	"time"
)

type State string

const (
	StatePre  State = "pre"
	StateIn   State = "in"
	StatePost State = "post"
)

type Team struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Score        int    `json:"score"`
}

// QuarterScore is the cumulative score at the end of a quarter.
type QuarterScore struct {
	Quarter   string `json:"quarter"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
}

type Score struct {
	EventID       string         `json:"eventId"`
	State         State          `json:"state"`
	Period        int            `json:"period"`
	Clock         string         `json:"clock"`
	Detail        string         `json:"detail"`
	HomeTeam      Team           `json:"homeTeam"`
	AwayTeam      Team           `json:"awayTeam"`
	QuarterScores []QuarterScore `json:"quarterScores"`
	IsComplete    bool           `json:"isComplete"`
	Stale         bool           `json:"stale"`
	FetchedAt     time.Time      `json:"fetchedAt"`
}

var (
	// ErrNoData is returned when the upstream fails and nothing is cached.
	ErrNoData = errors.New("failed to fetch scores")
	// ErrEventNotFound means the scoreboard does not list the event.
	ErrEventNotFound = errors.New("event not found on scoreboard")
)

// TTLs are the freshness windows for each game state.
type TTLs struct {
	Pre  time.Duration
	Live time.Duration
	Post time.Duration
}

var DefaultTTLs = TTLs{
	Pre:  5 * time.Minute,
	Live: 30 * time.Second,
	Post: time.Hour,
}

func (t TTLs) For(s State) time.Duration {
	switch s {
	case StateIn:
		return t.Live
	case StatePost:
		return t.Post
	default:
		return t.Pre
	}
}

// Cumulative turns per-quarter points into running totals after each of
// the first four quarters.
func Cumulative(home, away []float64) []QuarterScore {
	names := []string{"q1", "q2", "q3", "q4"}
	n := min(len(home), len(names))

	out := make([]QuarterScore, 0, n)
	var h, a float64
	for i := range n {
		h += home[i]
		if i < len(away) {
			a += away[i]
		}
		out = append(out, QuarterScore{Quarter: names[i], HomeScore: int(h), AwayScore: int(a)})
	}
	return out
}
