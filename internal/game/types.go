// internal/game/types.go
//
// Core type definitions for the game session.
// Defines:
//   - Phase / Mode: lifecycle state and play mode.
//   - Verdict / GuessResult: outcome of a single guess.
//   - Player / ScoreSink: who submits and where first-attempt scores go.
//   - Options: construction-time knobs.
//   - Snapshot: read model handed to transports.

package game

import (
	"context"
	"errors"
	"time"

	"github.com/robalobadob/boggle/internal/challenge"
	"github.com/robalobadob/boggle/internal/grid"
)

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseIdle    Phase = "idle"    // no countdown; grid hidden
	PhaseRunning Phase = "running" // countdown active; guesses accepted
	PhaseStopped Phase = "stopped" // attempt over; answers revealed
)

// Mode selects where the grid comes from.
type Mode string

const (
	ModeRandom    Mode = "random"
	ModeChallenge Mode = "challenge"
)

// Verdict classifies a guess.
type Verdict string

const (
	VerdictAccepted   Verdict = "accepted"
	VerdictDuplicate  Verdict = "duplicate"
	VerdictNotOnBoard Verdict = "not_on_board"
	VerdictEmpty      Verdict = "empty"
	VerdictNotRunning Verdict = "not_running"
)

// DefaultSeconds is the free-play time limit.
const DefaultSeconds = 180

var (
	ErrAlreadyRunning = errors.New("game already running")
	ErrNoGrid         = errors.New("no grid loaded")
)

// GuessResult is returned for every guess; invalid guesses are verdicts,
// never errors.
type GuessResult struct {
	Word      string  `json:"word"`
	Verdict   Verdict `json:"verdict"`
	Label     string  `json:"label"`
	Submitted bool    `json:"submitted"` // this guess sent the attempt's score
}

// Player identifies the user a session submits scores for.
type Player struct {
	ID    string
	Name  string
	Photo string
}

// ScoreSink receives first-attempt challenge scores. Errors are logged by
// the session and never change its state.
type ScoreSink interface {
	SubmitScore(ctx context.Context, s challenge.Score) error
}

// Options configures a new Session. Zero values pick defaults.
type Options struct {
	ID      string
	Size    int // free-play grid size (default grid.DefaultSize)
	Seconds int // free-play time limit (default DefaultSeconds)

	// Generate is the free-play grid source (default grid.Generate).
	Generate func(size int) grid.Grid

	// TickEvery arms a countdown goroutine on Start. Zero leaves ticking
	// to the caller (Tick).
	TickEvery time.Duration

	Sink   ScoreSink
	Player *Player

	// Notify runs after every tick and phase change, outside the lock.
	Notify func(Snapshot)
}

// ChallengeInfo is the public part of the loaded challenge.
type ChallengeInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Difficulty string `json:"difficulty"`
	TimeLimit  int    `json:"timeLimit"`
}

// Summary is revealed once an attempt has stopped.
type Summary struct {
	FoundCount     int      `json:"foundCount"`
	TotalWords     int      `json:"totalWords"`
	ElapsedSeconds int      `json:"elapsedSeconds"`
	AllWords       []string `json:"allWords"`
	Remaining      []string `json:"remaining"` // answer key minus found, sorted
}

// Snapshot is a copy of session state safe to hand to other goroutines.
type Snapshot struct {
	ID               string         `json:"id"`
	Seq              uint64         `json:"seq"` // increases with every notified change
	Phase            Phase          `json:"phase"`
	Mode             Mode           `json:"mode"`
	Size             int            `json:"size"`
	Grid             grid.Grid      `json:"grid,omitempty"` // nil while idle
	SecondsRemaining int            `json:"secondsRemaining"`
	TotalSeconds     int            `json:"totalSeconds"`
	Found            []string       `json:"found"`
	ScoreSubmitted   bool           `json:"scoreSubmitted"`
	Attempt          int            `json:"attempt"`
	Challenge        *ChallengeInfo `json:"challenge,omitempty"`
	Summary          *Summary       `json:"summary,omitempty"` // stopped only
}
