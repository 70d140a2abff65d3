package livescore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// DefaultScoreboardURL is the NFL scoreboard for Super Bowl LX.
const DefaultScoreboardURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard?dates=20260208"

// DefaultEventID identifies Super Bowl LX on the scoreboard.
const DefaultEventID = "401772988"

// Source fetches the current score of one event.
type Source interface {
	Fetch(ctx context.Context, eventID string) (Score, error)
}

// ESPN reads ESPN's public scoreboard JSON.
type ESPN struct {
	client *http.Client
	url    string
	now    func() time.Time
}

func NewESPN(url string, timeout time.Duration) *ESPN {
	return &ESPN{
		client: &http.Client{Timeout: timeout},
		url:    url,
		now:    time.Now,
	}
}

// number accepts both JSON numbers and numeric strings.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("parsing number %q: %w", b, err)
	}
	*n = number(f)
	return nil
}

type espnStatus struct {
	Period       int    `json:"period"`
	DisplayClock string `json:"displayClock"`
	Type         struct {
		State       string `json:"state"`
		ShortDetail string `json:"shortDetail"`
	} `json:"type"`
}

type espnCompetitor struct {
	HomeAway string `json:"homeAway"`
	Score    number `json:"score"`
	Team     struct {
		DisplayName  string `json:"displayName"`
		Abbreviation string `json:"abbreviation"`
	} `json:"team"`
	Linescores []struct {
		Value number `json:"value"`
	} `json:"linescores"`
}

type espnScoreboard struct {
	Events []struct {
		ID           string      `json:"id"`
		Status       *espnStatus `json:"status"`
		Competitions []struct {
			Status      *espnStatus      `json:"status"`
			Competitors []espnCompetitor `json:"competitors"`
		} `json:"competitions"`
	} `json:"events"`
}

func (e *ESPN) Fetch(ctx context.Context, eventID string) (Score, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.url, nil)
	if err != nil {
		return Score{}, fmt.Errorf("building request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return Score{}, fmt.Errorf("fetching scoreboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return Score{}, fmt.Errorf("fetching scoreboard: unexpected status %d", resp.StatusCode)
	}

	var board espnScoreboard
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return Score{}, fmt.Errorf("decoding scoreboard: %w", err)
	}
	return parseEvent(board, eventID, e.now())
}

func parseEvent(board espnScoreboard, eventID string, now time.Time) (Score, error) {
	for _, ev := range board.Events {
		if ev.ID != eventID {
			continue
		}

		status := ev.Status
		var competitors []espnCompetitor
		if len(ev.Competitions) > 0 {
			if c := ev.Competitions[0]; c.Status != nil {
				status = c.Status
			}
			competitors = ev.Competitions[0].Competitors
		}

		s := Score{EventID: eventID, State: StatePre, FetchedAt: now.UTC()}
		if status != nil {
			if status.Type.State != "" {
				s.State = State(status.Type.State)
			}
			s.Period = status.Period
			s.Clock = status.DisplayClock
			s.Detail = status.Type.ShortDetail
		}

		home, homeLines := team(competitors, "home", Team{Name: "Home", Abbreviation: "HOM"})
		away, awayLines := team(competitors, "away", Team{Name: "Away", Abbreviation: "AWY"})
		s.HomeTeam, s.AwayTeam = home, away
		s.QuarterScores = Cumulative(homeLines, awayLines)
		s.IsComplete = s.State == StatePost
		return s, nil
	}
	return Score{}, ErrEventNotFound
}

func team(competitors []espnCompetitor, side string, def Team) (Team, []float64) {
	for _, c := range competitors {
		if c.HomeAway != side {
			continue
		}
		t := def
		if c.Team.DisplayName != "" {
			t.Name = c.Team.DisplayName
		}
		if c.Team.Abbreviation != "" {
			t.Abbreviation = c.Team.Abbreviation
		}
		t.Score = int(c.Score)
		lines := make([]float64, len(c.Linescores))
		for i, l := range c.Linescores {
			lines[i] = float64(l.Value)
		}
		return t, lines
	}
	return def, nil
}
