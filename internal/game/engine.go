// internal/game/engine.go
//
// Game session state machine for one player.
// Responsibilities:
//   - Lifecycle: idle → running → stopped, with Start/Stop/Reset/Tick.
//   - Own the active grid, countdown, found words and play mode.
//   - Validate guesses against the precomputed answer key.
//   - Submit a challenge score once, on the first correct guess of the
//     first attempt after the challenge was loaded.
//
// Notes:
//   - All state is guarded by mu; the countdown goroutine and transport
//     handlers both call in.
//   - Ticks from a countdown armed by an earlier attempt are ignored.
//   - Score submission is advisory: a failed sink call is logged, and the
//     attempt still counts as submitted.

package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/internal/challenge"
	"github.com/robalobadob/boggle/internal/grid"
	"github.com/robalobadob/boggle/internal/solver"
	"github.com/robalobadob/boggle/internal/trie"
	"github.com/robalobadob/boggle/internal/words"
)

// maxGenerateTries bounds retries when the generator returns no tiles.
const maxGenerateTries = 8

// Session is one player's game.
type Session struct {
	ID string

	mu   sync.Mutex
	dict *trie.Node
	opts Options

	phase     Phase
	mode      Mode
	size      int
	grid      grid.Grid
	total     int
	remaining int

	challenge *challenge.Challenge
	answers   solver.WordSet
	found     []string
	foundSet  map[string]struct{}

	scoreSubmitted bool
	attempts       int // starts since the current mode/challenge was loaded

	cancel   context.CancelFunc // countdown; nil when not ticking
	timerGen int                // bumped whenever a countdown is armed or cancelled

	seq uint64 // bumped on every notified change
}

// NewSession returns an idle free-play session.
func NewSession(dict *trie.Node, opts Options) *Session {
	if opts.ID == "" {
		opts.ID = randomID()
	}
	if opts.Size == 0 {
		opts.Size = grid.DefaultSize
	}
	opts.Size = grid.Clamp(opts.Size)
	if opts.Seconds <= 0 {
		opts.Seconds = DefaultSeconds
	}
	if opts.Generate == nil {
		opts.Generate = grid.Generate
	}
	s := &Session{
		ID:        opts.ID,
		dict:      dict,
		opts:      opts,
		phase:     PhaseIdle,
		mode:      ModeRandom,
		size:      opts.Size,
		total:     opts.Seconds,
		remaining: opts.Seconds,
		foundSet:  map[string]struct{}{},
	}
	s.grid = s.freshGridLocked()
	return s
}

// LoadChallenge switches the session to ch. The challenge's solutions become
// the answer key; a challenge without solutions is solved on its grid.
// Any attempt in progress is abandoned. An empty grid is rejected with
// ErrNoGrid and leaves the session unchanged.
func (s *Session) LoadChallenge(ctx context.Context, ch challenge.Challenge) error {
	g := grid.Normalize(ch.Grid)
	if g.Empty() {
		return ErrNoGrid
	}
	answers := solver.NewWordSet(ch.Solutions...)
	if answers.Len() == 0 {
		var err error
		if answers, err = solver.Solve(ctx, g, s.dict); err != nil {
			return err
		}
	}
	ch.Grid = g

	s.mu.Lock()
	s.stopTimerLocked()
	s.mode = ModeChallenge
	s.challenge = &ch
	s.grid = g
	s.answers = answers
	s.total = ch.Seconds()
	s.remaining = s.total
	s.phase = PhaseIdle
	s.clearFoundLocked()
	s.scoreSubmitted = false
	s.attempts = 0
	snap := s.changedLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Start begins an attempt from idle or stopped.
//
// Challenge mode replays the same grid and time limit and keeps the
// challenge loaded. Free play draws a fresh grid at the current size on
// every start and recomputes the answer key.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseRunning {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	switch s.mode {
	case ModeChallenge:
		if s.challenge == nil || s.grid.Empty() {
			s.mu.Unlock()
			return ErrNoGrid
		}
		s.total = s.challenge.Seconds()
	default:
		g := s.freshGridLocked()
		answers, err := solver.Solve(ctx, g, s.dict)
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.grid = g
		s.answers = answers
		s.total = s.opts.Seconds
	}

	s.clearFoundLocked()
	s.remaining = s.total
	s.phase = PhaseRunning
	s.attempts++
	s.armTimerLocked()
	snap := s.changedLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Stop ends a running attempt. Found words are kept.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.phase != PhaseRunning {
		s.mu.Unlock()
		return
	}
	s.stopLocked()
	snap := s.changedLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Tick advances the countdown by one second. Reaching zero stops the attempt.
func (s *Session) Tick() { s.tick(0) }

// tick applies one countdown step. A non-zero gen must match the armed
// countdown, so a countdown left over from an earlier attempt has no effect.
// It reports whether the countdown should keep going.
func (s *Session) tick(gen int) bool {
	s.mu.Lock()
	if s.phase != PhaseRunning || (gen != 0 && gen != s.timerGen) {
		s.mu.Unlock()
		return false
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining == 0 {
		s.stopLocked()
	}
	running := s.phase == PhaseRunning
	snap := s.changedLocked()
	s.mu.Unlock()

	s.notify(snap)
	return running
}

// Reset returns to idle. In challenge mode the challenge and its grid are
// dropped and the session falls back to free play with nothing selected.
// In free play a fresh grid is drawn.
func (s *Session) Reset() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.phase = PhaseIdle
	s.clearFoundLocked()
	if s.mode == ModeChallenge {
		s.mode = ModeRandom
		s.challenge = nil
		s.grid = nil
		s.scoreSubmitted = false
		s.attempts = 0
	} else {
		s.grid = s.freshGridLocked()
	}
	s.answers = nil
	s.total = s.opts.Seconds
	s.remaining = s.total
	snap := s.changedLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// LeaveChallenge drops the loaded challenge. It is a no-op in free play.
func (s *Session) LeaveChallenge() {
	s.mu.Lock()
	inChallenge := s.mode == ModeChallenge
	s.mu.Unlock()
	if inChallenge {
		s.Reset()
	}
}

// SetSize changes the free-play grid size. An idle free-play grid is
// redrawn; after a stopped attempt the board and its answers stay revealed
// and the new size applies from the next Start.
func (s *Session) SetSize(n int) error {
	s.mu.Lock()
	if s.phase == PhaseRunning {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	s.size = grid.Clamp(n)
	if s.mode == ModeRandom && s.phase == PhaseIdle {
		s.grid = s.freshGridLocked()
		s.answers = nil
	}
	snap := s.changedLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// SubmitGuess checks raw against the answer key.
func (s *Session) SubmitGuess(ctx context.Context, raw string) GuessResult {
	s.mu.Lock()
	if s.phase != PhaseRunning {
		s.mu.Unlock()
		return GuessResult{Word: words.Normalize(raw), Verdict: VerdictNotRunning, Label: "game not running"}
	}

	w := words.Normalize(raw)
	switch {
	case w == "":
		s.mu.Unlock()
		return GuessResult{Verdict: VerdictEmpty, Label: "empty guess"}
	case s.hasFoundLocked(w):
		s.mu.Unlock()
		return GuessResult{Word: w, Verdict: VerdictDuplicate, Label: "duplicate"}
	case !s.answers.Has(w):
		s.mu.Unlock()
		return GuessResult{Word: w, Verdict: VerdictNotOnBoard, Label: "not on board"}
	}

	s.found = append(s.found, w)
	s.foundSet[w] = struct{}{}

	var pending *challenge.Score
	if s.firstAttemptLocked() {
		s.scoreSubmitted = true
		pending = &challenge.Score{
			ChallengeID: s.challenge.ID,
			UserID:      s.opts.Player.ID,
			UserName:    s.opts.Player.Name,
			UserPhoto:   s.opts.Player.Photo,
			Score:       len(s.found),
			WordsFound:  append([]string(nil), s.found...),
			Timestamp:   time.Now().UTC(),
		}
	}
	snap := s.changedLocked()
	s.mu.Unlock()

	res := GuessResult{Word: w, Verdict: VerdictAccepted, Label: "correct"}
	if pending != nil {
		res.Submitted = true
		if err := s.opts.Sink.SubmitScore(ctx, *pending); err != nil {
			log.Warn().Err(err).
				Str("session", s.ID).
				Str("challenge", pending.ChallengeID).
				Str("user", pending.UserID).
				Msg("submit score")
		}
	}
	s.notify(snap)
	return res
}

// firstAttemptLocked reports whether a correct guess right now should
// submit: challenge mode, first start since loading, nothing sent yet, and
// someone to submit for.
func (s *Session) firstAttemptLocked() bool {
	return s.mode == ModeChallenge &&
		s.challenge != nil &&
		!s.scoreSubmitted &&
		s.attempts == 1 &&
		s.opts.Sink != nil &&
		s.opts.Player != nil
}

// Close stops any countdown. The session must not be used afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()
}

// ----------------------------- accessors -----------------------------------

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) SecondsRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

func (s *Session) ScoreSubmitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scoreSubmitted
}

// Found returns the found words in the order they were found.
func (s *Session) Found() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.found...)
}

// Challenge returns the loaded challenge, or nil in free play.
func (s *Session) Challenge() *challenge.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.challenge == nil {
		return nil
	}
	ch := *s.challenge
	return &ch
}

// Grid returns a copy of the current grid, regardless of phase.
func (s *Session) Grid() grid.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone()
}

// AnswerKey returns the current answer key, sorted.
func (s *Session) AnswerKey() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answers.Sorted()
}

// Snapshot returns the player-visible state. The grid is withheld while
// idle and the answer key only appears once the attempt has stopped.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ------------------------------ internals ----------------------------------

// changedLocked records a state change and returns the snapshot to notify.
func (s *Session) changedLocked() Snapshot {
	s.seq++
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:               s.ID,
		Seq:              s.seq,
		Phase:            s.phase,
		Mode:             s.mode,
		Size:             s.size,
		SecondsRemaining: s.remaining,
		TotalSeconds:     s.total,
		Found:            append([]string{}, s.found...),
		ScoreSubmitted:   s.scoreSubmitted,
		Attempt:          s.attempts,
	}
	if s.phase != PhaseIdle {
		snap.Grid = s.grid.Clone()
	}
	if s.challenge != nil {
		snap.Challenge = &ChallengeInfo{
			ID:         s.challenge.ID,
			Name:       s.challenge.Name,
			Difficulty: s.challenge.Difficulty,
			TimeLimit:  s.challenge.Seconds(),
		}
	}
	if s.phase == PhaseStopped {
		all := s.answers.Sorted()
		remaining := make([]string, 0, len(all))
		for _, w := range all {
			if !s.hasFoundLocked(w) {
				remaining = append(remaining, w)
			}
		}
		sort.Strings(remaining)
		snap.Summary = &Summary{
			FoundCount:     len(s.found),
			TotalWords:     len(all),
			ElapsedSeconds: s.total - s.remaining,
			AllWords:       all,
			Remaining:      remaining,
		}
	}
	return snap
}

// freshGridLocked draws a free-play grid, retrying a degenerate result.
func (s *Session) freshGridLocked() grid.Grid {
	for i := 0; i < maxGenerateTries; i++ {
		if g := s.opts.Generate(s.size); g.Valid() {
			return g
		}
	}
	return grid.Generate(s.size)
}

func (s *Session) clearFoundLocked() {
	s.found = nil
	s.foundSet = map[string]struct{}{}
}

func (s *Session) hasFoundLocked(w string) bool {
	_, ok := s.foundSet[w]
	return ok
}

func (s *Session) stopLocked() {
	s.stopTimerLocked()
	s.phase = PhaseStopped
}

func (s *Session) armTimerLocked() {
	s.stopTimerLocked()
	if s.opts.TickEvery <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.countdown(ctx, s.timerGen, s.opts.TickEvery)
}

func (s *Session) stopTimerLocked() {
	s.timerGen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) countdown(ctx context.Context, gen int, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if !s.tick(gen) {
				return
			}
		}
	}
}

func (s *Session) notify(snap Snapshot) {
	if s.opts.Notify != nil {
		s.opts.Notify(snap)
	}
}

// randomID returns a compact 16‑hex‑char identifier.
func randomID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
