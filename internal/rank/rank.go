// internal/rank/rank.go
//
// Leaderboard rank-change detection for one (challenge, user) pair.
// Responsibilities:
//   - Classify the move between a previous and a current rank.
//   - Track the previous rank in an explicit keyed store, overwritten on
//     every check.

package rank

import (
	"context"
	"fmt"
	"sync"
)

// Kind is the classification of a rank change.
type Kind string

const (
	KindNone         Kind = "none"          // nothing worth telling the player
	KindRankUp       Kind = "rank_up"       // moved up, not to first
	KindFirstPlace   Kind = "first_place"   // moved up to #1
	KindSurpassed    Kind = "surpassed"     // someone moved ahead
	KindFirstRanking Kind = "first_ranking" // first time on this leaderboard
)

// Change is the result of one check.
type Change struct {
	ChallengeID  string `json:"challengeId,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Kind         Kind   `json:"kind"`
	Previous     *int   `json:"previousRank,omitempty"`
	Current      *int   `json:"currentRank,omitempty"`
	TotalPlayers int    `json:"totalPlayers"`
	Message      string `json:"message,omitempty"`
}

// Notify reports whether the change should be shown to the player.
func (c Change) Notify() bool { return c.Kind != KindNone }

// Classify compares two ranks (lower is better). Rules apply in order:
// equal ranks are silent; a better rank is a rank-up (or first place); a
// worse rank means someone surpassed the player; a rank with no previous
// rank is the player's first ranking.
func Classify(previous, current *int, totalPlayers int) Change {
	c := Change{Kind: KindNone, Previous: previous, Current: current, TotalPlayers: totalPlayers}
	switch {
	case current == nil:
	case previous != nil && *previous == *current:
	case previous != nil && *current < *previous:
		if *current == 1 {
			c.Kind = KindFirstPlace
			c.Message = "You reached first place!"
		} else {
			c.Kind = KindRankUp
			c.Message = fmt.Sprintf("You moved up to #%d of %d", *current, totalPlayers)
		}
	case previous != nil && *current > *previous:
		c.Kind = KindSurpassed
		c.Message = fmt.Sprintf("Someone surpassed you, you are now #%d of %d", *current, totalPlayers)
	case previous == nil:
		c.Kind = KindFirstRanking
		c.Message = fmt.Sprintf("First ranking: %d of %d", *current, totalPlayers)
	}
	return c
}

// Standing is a user's position on one challenge leaderboard.
type Standing struct {
	Rank         int `json:"rank"` // 0 when the user has no score
	TotalPlayers int `json:"totalPlayers"`
}

// Query computes live standings.
type Query interface {
	RankOf(ctx context.Context, challengeID, userID string) (Standing, error)
}

// Store holds the last seen rank per (challenge, user).
type Store interface {
	PreviousRank(ctx context.Context, challengeID, userID string) (rank int, ok bool, err error)
	SetRank(ctx context.Context, challengeID, userID string, rank int) error
}

// Tracker ties a Query to a Store.
type Tracker struct {
	query Query
	store Store
}

func NewTracker(q Query, s Store) *Tracker { return &Tracker{query: q, store: s} }

// Check reads the live standing and the stored previous rank, classifies
// the move, and stores the current rank for next time.
func (t *Tracker) Check(ctx context.Context, challengeID, userID string) (Change, error) {
	st, err := t.query.RankOf(ctx, challengeID, userID)
	if err != nil {
		return Change{}, fmt.Errorf("rank of %s/%s: %w", challengeID, userID, err)
	}
	prevRank, ok, err := t.store.PreviousRank(ctx, challengeID, userID)
	if err != nil {
		return Change{}, fmt.Errorf("previous rank: %w", err)
	}

	var prev, cur *int
	if ok {
		prev = &prevRank
	}
	if st.Rank > 0 {
		r := st.Rank
		cur = &r
	}
	c := Classify(prev, cur, st.TotalPlayers)
	c.ChallengeID, c.UserID = challengeID, userID

	if cur != nil {
		if err := t.store.SetRank(ctx, challengeID, userID, *cur); err != nil {
			return c, fmt.Errorf("store rank: %w", err)
		}
	}
	return c, nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu    sync.RWMutex
	ranks map[[2]string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ranks: make(map[[2]string]int)}
}

func (m *MemoryStore) PreviousRank(_ context.Context, challengeID, userID string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.ranks[[2]string{challengeID, userID}]
	return r, ok, nil
}

func (m *MemoryStore) SetRank(_ context.Context, challengeID, userID string, rank int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranks[[2]string{challengeID, userID}] = rank
	return nil
}
