// internal/challenge/types.go
//
// Type definitions for challenge mode.
// Defines:
//   - Challenge: a fixed grid, time limit and authoritative solution list.
//   - Score: one leaderboard entry (first attempt only, see game.Session).
//   - Filter / Entry: leaderboard query and row shapes.

package challenge

import (
	"errors"
	"time"

	"github.com/robalobadob/boggle/internal/grid"
)

// DefaultTimeLimit applies when a challenge does not declare one.
const DefaultTimeLimit = 180

var ErrNotFound = errors.New("challenge not found")

// Challenge holds one playable challenge as listed to players.
type Challenge struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Difficulty string    `json:"difficulty"`
	TimeLimit  int       `json:"timeLimit"` // seconds
	Grid       grid.Grid `json:"grid"`
	Solutions  []string  `json:"solutions,omitempty"`

	// Filled by List only.
	HighScore  int    `json:"highScore"`
	HighScorer string `json:"highScorer,omitempty"`
}

// Seconds returns the time limit, falling back to DefaultTimeLimit.
func (c Challenge) Seconds() int {
	if c.TimeLimit <= 0 {
		return DefaultTimeLimit
	}
	return c.TimeLimit
}

// Score is a submitted result for a challenge.
type Score struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challengeId"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	UserPhoto   string    `json:"userPhoto,omitempty"`
	Score       int       `json:"score"`
	WordsFound  []string  `json:"wordsFound"`
	Timestamp   time.Time `json:"timestamp"`
}

// FilterKind selects which leaderboard to read.
type FilterKind string

const (
	FilterAll       FilterKind = "all"       // top scores across every challenge
	FilterChallenge FilterKind = "challenge" // one challenge
	FilterMine      FilterKind = "mine"      // one user, optionally one challenge
)

// Filter narrows a leaderboard query.
type Filter struct {
	Kind        FilterKind
	ChallengeID string
	UserID      string
	Limit       int
}

// Entry is one leaderboard row.
type Entry struct {
	Score
	ChallengeName string `json:"challengeName,omitempty"`
}
