package livescore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/houseparty/houseparty/internal/houseparty"
)

// Recorder is the squares side of the auto-feed.
type Recorder interface {
	RecordedScores(ctx context.Context, code string) (map[houseparty.Quarter]houseparty.ScorePair, error)
	SyncScore(ctx context.Context, code string, q houseparty.Quarter, score houseparty.ScorePair) error
}

// Fed is one quarter score written to a grid.
type Fed struct {
	Quarter houseparty.Quarter   `json:"quarter"`
	Score   houseparty.ScorePair `json:"score"`
}

type feedKey struct {
	code    string
	quarter houseparty.Quarter
	score   houseparty.ScorePair
}

// Feeder writes completed quarter scores into squares grids. A given
// (party, quarter, score) is submitted at most once per Feeder.
type Feeder struct {
	recorder Recorder
	logger   *slog.Logger

	mu   sync.Mutex
	sent map[feedKey]struct{}
}

func NewFeeder(recorder Recorder, logger *slog.Logger) *Feeder {
	return &Feeder{
		recorder: recorder,
		logger:   logger,
		sent:     make(map[feedKey]struct{}),
	}
}

// Completed returns the quarter scores that can no longer change.
// Quarter N is complete once the period counter passes N or the game is
// over. The final score uses the team totals so overtime is included.
func Completed(s Score) []Fed {
	var out []Fed
	for i, q := range []houseparty.Quarter{houseparty.Q1, houseparty.Q2, houseparty.Q3} {
		if i >= len(s.QuarterScores) {
			break
		}
		if s.Period > i+1 || s.IsComplete {
			qs := s.QuarterScores[i]
			out = append(out, Fed{Quarter: q, Score: houseparty.ScorePair{Home: qs.HomeScore, Away: qs.AwayScore}})
		}
	}
	if s.IsComplete {
		out = append(out, Fed{
			Quarter: houseparty.Final,
			Score:   houseparty.ScorePair{Home: s.HomeTeam.Score, Away: s.AwayTeam.Score},
		})
	}
	return out
}

// Feed records every completed quarter of s that the party's grid does not
// have yet and returns what was written.
func (f *Feeder) Feed(ctx context.Context, code string, s Score) ([]Fed, error) {
	done := Completed(s)
	if len(done) == 0 {
		return nil, nil
	}

	recorded, err := f.recorder.RecordedScores(ctx, code)
	if err != nil {
		return nil, err
	}

	var fed []Fed
	for _, d := range done {
		if _, ok := recorded[d.Quarter]; ok {
			continue
		}
		key := feedKey{code: houseparty.NormalizeCode(code), quarter: d.Quarter, score: d.Score}
		if !f.claim(key) {
			continue
		}
		if err := f.recorder.SyncScore(ctx, code, d.Quarter, d.Score); err != nil {
			f.release(key)
			return fed, err
		}
		f.logger.InfoContext(ctx, "squares score synced",
			"party", code, "quarter", d.Quarter, "home", d.Score.Home, "away", d.Score.Away)
		fed = append(fed, d)
	}
	return fed, nil
}

func (f *Feeder) claim(k feedKey) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sent[k]; ok {
		return false
	}
	f.sent[k] = struct{}{}
	return true
}

func (f *Feeder) release(k feedKey) {
	f.mu.Lock()
	delete(f.sent, k)
	f.mu.Unlock()
}
