// Package houseparty defines the core domain types shared by the session,
// scoring and squares packages. It has no storage or transport concerns.
package houseparty

import (
	"strings"
	"time"
)

type Party struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	HostID    string    `json:"hostId"`
	IsLocked  bool      `json:"isLocked"`
	CreatedAt time.Time `json:"createdAt"`
	Games     []Game    `json:"games"`
	Guests    []Guest   `json:"guests"`
}

type Guest struct {
	ID           string    `json:"id"`
	PartyID      string    `json:"partyId"`
	Name         string    `json:"name"`
	IsHost       bool      `json:"isHost"`
	WantsSquares bool      `json:"wantsSquares"`
	JoinedAt     time.Time `json:"joinedAt"`
}

type GameType string

const (
	PickOne     GameType = "pick-one"
	OverUnder   GameType = "over-under"
	ExactNumber GameType = "exact-number"
)

func (t GameType) Valid() bool {
	switch t {
	case PickOne, OverUnder, ExactNumber:
		return true
	}
	return false
}

// Game is a single prediction question.
type Game struct {
	ID             string   `json:"id"`
	PartyID        string   `json:"partyId"`
	Type           GameType `json:"type"`
	Question       string   `json:"question"`
	Hint           string   `json:"hint,omitempty"`
	Category       string   `json:"category,omitempty"`
	Options        []string `json:"options,omitempty"`
	OverUnderValue *float64 `json:"overUnderValue,omitempty"`
	Points         int      `json:"points"`
	CorrectAnswer  *string  `json:"correctAnswer,omitempty"`
	IsScored       bool     `json:"isScored"`
	Order          int      `json:"order"`
}

// GameSpec carries the author-controlled fields of a Game.
type GameSpec struct {
	Type           GameType `json:"type"`
	Question       string   `json:"question"`
	Hint           string   `json:"hint,omitempty"`
	Category       string   `json:"category,omitempty"`
	Options        []string `json:"options,omitempty"`
	OverUnderValue *float64 `json:"overUnderValue,omitempty"`
	Points         int      `json:"points"`
}

// Normalize trims text fields, drops blank options and applies the default
// point weight, then checks the type-specific requirements.
func (s GameSpec) Normalize() (GameSpec, error) {
	s.Question = strings.TrimSpace(s.Question)
	s.Hint = strings.TrimSpace(s.Hint)
	s.Category = strings.TrimSpace(s.Category)

	var opts []string
	for _, o := range s.Options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, o)
		}
	}
	s.Options = opts

	if s.Points == 0 {
		s.Points = 1
	}

	if !s.Type.Valid() {
		return s, Invalid("type must be one of pick-one, over-under, exact-number")
	}
	if s.Question == "" {
		return s, Invalid("question is required")
	}
	if s.Points < 0 {
		return s, Invalid("points must be a positive integer")
	}

	switch s.Type {
	case PickOne:
		if len(s.Options) < 2 {
			return s, Invalid("pick-one games need at least two options")
		}
		s.OverUnderValue = nil
	case OverUnder:
		if s.OverUnderValue == nil {
			return s, Invalid("over-under games need an overUnderValue")
		}
		s.Options = nil
	case ExactNumber:
		s.Options = nil
		s.OverUnderValue = nil
	}
	return s, nil
}

// GamePatch holds the fields of an update; nil fields are left unchanged.
type GamePatch struct {
	Type           *GameType `json:"type,omitempty"`
	Question       *string   `json:"question,omitempty"`
	Hint           *string   `json:"hint,omitempty"`
	Category       *string   `json:"category,omitempty"`
	Options        []string  `json:"options,omitempty"`
	OverUnderValue *float64  `json:"overUnderValue,omitempty"`
	Points         *int      `json:"points,omitempty"`
}

// Apply returns the spec of g with the patch applied.
func (p GamePatch) Apply(g Game) GameSpec {
	s := g.Spec()
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.Question != nil {
		s.Question = *p.Question
	}
	if p.Hint != nil {
		s.Hint = *p.Hint
	}
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Options != nil {
		s.Options = p.Options
	}
	if p.OverUnderValue != nil {
		s.OverUnderValue = p.OverUnderValue
	}
	if p.Points != nil {
		s.Points = *p.Points
	}
	return s
}

func (g Game) Spec() GameSpec {
	return GameSpec{
		Type:           g.Type,
		Question:       g.Question,
		Hint:           g.Hint,
		Category:       g.Category,
		Options:        append([]string(nil), g.Options...),
		OverUnderValue: g.OverUnderValue,
		Points:         g.Points,
	}
}

type Prediction struct {
	ID            string    `json:"id"`
	GuestID       string    `json:"guestId"`
	GameID        string    `json:"gameId"`
	PartyID       string    `json:"partyId"`
	Answer        string    `json:"answer"`
	SubmittedAt   time.Time `json:"submittedAt"`
	PointsAwarded *int      `json:"pointsAwarded"`
}

// Quarter tags the four squares scoring checkpoints.
type Quarter string

const (
	Q1    Quarter = "q1"
	Q2    Quarter = "q2"
	Q3    Quarter = "q3"
	Final Quarter = "final"
)

// Quarters lists the checkpoints in game order.
var Quarters = []Quarter{Q1, Q2, Q3, Final}

func ParseQuarter(s string) (Quarter, error) {
	q := Quarter(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Quarters {
		if q == v {
			return q, nil
		}
	}
	return "", Invalid("quarter must be one of q1, q2, q3, final")
}

type ScorePair struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Grid is a party's squares board. HomeNumbers indexes columns and
// AwayNumbers indexes rows once the numbers are drawn.
type Grid struct {
	ID           string                `json:"id"`
	PartyID      string                `json:"partyId"`
	TeamHome     string                `json:"teamHome"`
	TeamAway     string                `json:"teamAway"`
	NumbersDrawn bool                  `json:"numbersDrawn"`
	HomeNumbers  []int                 `json:"homeNumbers"`
	AwayNumbers  []int                 `json:"awayNumbers"`
	Scores       map[Quarter]ScorePair `json:"scores"`
	Payouts      map[Quarter]float64   `json:"payouts"`
	Claims       []Claim               `json:"claims"`
	CreatedAt    time.Time             `json:"createdAt"`
}

// ClaimAt returns the claim on (row, col), if any.
func (g Grid) ClaimAt(row, col int) (Claim, bool) {
	for _, c := range g.Claims {
		if c.Row == row && c.Col == col {
			return c, true
		}
	}
	return Claim{}, false
}

type Claim struct {
	ID        string `json:"id"`
	GridID    string `json:"gridId"`
	GuestID   string `json:"guestId"`
	GuestName string `json:"guestName,omitempty"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
}
