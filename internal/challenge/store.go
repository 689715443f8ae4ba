package challenge

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/boggle/internal/grid"
	"github.com/robalobadob/boggle/internal/rank"
)

// Store is the SQLite-backed challenge catalogue, score log and rank slots.
// It serves as the challenge source, the score sink, the leaderboard query
// and the previous-rank store.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Put inserts or replaces a challenge. The grid is stored as per-row JSON.
func (s *Store) Put(ctx context.Context, c Challenge) error {
	rows, err := json.Marshal(c.Grid.Encode())
	if err != nil {
		return err
	}
	sols := c.Solutions
	if sols == nil {
		sols = []string{}
	}
	solJSON, err := json.Marshal(sols)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO challenges(id, name, difficulty, time_limit, grid, solutions)
VALUES(?,?,?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
	name=excluded.name, difficulty=excluded.difficulty, time_limit=excluded.time_limit,
	grid=excluded.grid, solutions=excluded.solutions`,
		c.ID, c.Name, c.Difficulty, c.Seconds(), string(rows), string(solJSON),
	)
	return err
}

// Get loads one challenge by id.
func (s *Store) Get(ctx context.Context, id string) (*Challenge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, difficulty, time_limit, grid, solutions FROM challenges WHERE id=?`, id)
	var c Challenge
	var rows, sols string
	if err := row.Scan(&c.ID, &c.Name, &c.Difficulty, &c.TimeLimit, &rows, &sols); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	decodeChallenge(&c, rows, sols)
	return &c, nil
}

// List returns every challenge with its current high score and scorer.
func (s *Store) List(ctx context.Context) ([]Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.name, c.difficulty, c.time_limit, c.grid, c.solutions,
       COALESCE((SELECT score FROM scores s WHERE s.challenge_id=c.id ORDER BY score DESC, seq ASC LIMIT 1), 0),
       COALESCE((SELECT user_name FROM scores s WHERE s.challenge_id=c.id ORDER BY score DESC, seq ASC LIMIT 1), '')
FROM challenges c
ORDER BY c.created_at ASC, c.id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Challenge
	for rows.Next() {
		var c Challenge
		var g, sols string
		if err := rows.Scan(&c.ID, &c.Name, &c.Difficulty, &c.TimeLimit, &g, &sols, &c.HighScore, &c.HighScorer); err != nil {
			return nil, err
		}
		decodeChallenge(&c, g, sols)
		if c.HighScorer == "" {
			c.HighScorer = "None"
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// decodeChallenge fills grid and solutions from their stored JSON. A row that
// fails to decode degrades through grid.Normalize instead of failing the load.
func decodeChallenge(c *Challenge, rows, sols string) {
	var raw []json.RawMessage
	_ = json.Unmarshal([]byte(rows), &raw)
	c.Grid = grid.Normalize(raw)
	_ = json.Unmarshal([]byte(sols), &c.Solutions)
}

// SubmitScore appends a score. Scores are never updated in place.
func (s *Store) SubmitScore(ctx context.Context, sc Score) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.Timestamp.IsZero() {
		sc.Timestamp = time.Now().UTC()
	}
	found := sc.WordsFound
	if found == nil {
		found = []string{}
	}
	w, err := json.Marshal(found)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores(id, challenge_id, user_id, user_name, user_photo, score, words, created_at)
VALUES(?,?,?,?,?,?,?,?)`,
		sc.ID, sc.ChallengeID, sc.UserID, sc.UserName, sc.UserPhoto, sc.Score, string(w),
		sc.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// RankOf ranks a user by their best score on a challenge: 1 + the number of
// players whose best score is higher, with ties going to whoever scored
// first. Rank is 0 when the user has no score.
func (s *Store) RankOf(ctx context.Context, challengeID, userID string) (rank.Standing, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, score FROM scores WHERE challenge_id=? ORDER BY score DESC, seq ASC`, challengeID)
	if err != nil {
		return rank.Standing{}, err
	}
	defer rows.Close()

	var ordered []scored
	for rows.Next() {
		var r scored
		if err := rows.Scan(&r.userID, &r.score); err != nil {
			return rank.Standing{}, err
		}
		ordered = append(ordered, r)
	}
	if err := rows.Err(); err != nil {
		return rank.Standing{}, err
	}
	return standingOf(ordered, userID), nil
}

// Leaderboard reads scores for the given filter, best first.
//
//   - FilterAll: top scores across all challenges (default limit 20).
//   - FilterChallenge: one challenge (default limit 10).
//   - FilterMine: one user, narrowed to a challenge when ChallengeID is set (default limit 20).
func (s *Store) Leaderboard(ctx context.Context, f Filter) ([]Entry, error) {
	q := `SELECT s.id, s.challenge_id, s.user_id, s.user_name, s.user_photo, s.score, s.words, s.created_at,
       COALESCE(c.name, '')
FROM scores s LEFT JOIN challenges c ON c.id = s.challenge_id`
	var args []any
	limit := f.Limit

	switch f.Kind {
	case FilterChallenge:
		q += ` WHERE s.challenge_id=?`
		args = append(args, f.ChallengeID)
		if limit <= 0 {
			limit = 10
		}
	case FilterMine:
		q += ` WHERE s.user_id=?`
		args = append(args, f.UserID)
		if f.ChallengeID != "" {
			q += ` AND s.challenge_id=?`
			args = append(args, f.ChallengeID)
		}
	}
	if limit <= 0 {
		limit = 20
	}
	q += ` ORDER BY s.score DESC, s.seq ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		var w, ts string
		if err := rows.Scan(&e.ID, &e.ChallengeID, &e.UserID, &e.UserName, &e.UserPhoto, &e.Score, &w, &ts, &e.ChallengeName); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(w), &e.WordsFound)
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PreviousRank reads the rank stored by the last check.
func (s *Store) PreviousRank(ctx context.Context, challengeID, userID string) (int, bool, error) {
	var r int
	err := s.db.QueryRowContext(ctx,
		`SELECT rank FROM rank_slots WHERE challenge_id=? AND user_id=?`, challengeID, userID,
	).Scan(&r)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return r, true, nil
}

// SetRank overwrites the stored rank.
func (s *Store) SetRank(ctx context.Context, challengeID, userID string, r int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rank_slots(challenge_id, user_id, rank, updated_at) VALUES(?,?,?,?)
ON CONFLICT(challenge_id, user_id) DO UPDATE SET rank=excluded.rank, updated_at=excluded.updated_at`,
		challengeID, userID, r, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
