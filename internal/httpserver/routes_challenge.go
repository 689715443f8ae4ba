// internal/httpserver/routes_challenge.go
//
// HTTP routes for challenge mode and leaderboards:
//   - GET /challenges                  → catalogue with high score and scorer
//   - GET /challenges/{id}             → one challenge (solutions withheld)
//   - GET /challenges/{id}/leaderboard → top 10 for one challenge
//   - GET /leaderboard?filter=all|mine|challenge&challengeId=
//   - GET /daily                       → today's challenge, created on first use
//
// The challenge of the day is derived from the UTC date and DAILY_SALT, so
// every instance sharing a salt serves the same grid.

package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/internal/auth"
	"github.com/robalobadob/boggle/internal/challenge"
)

func (s *Server) mountChallenges(r chi.Router) {
	r.Get("/challenges", s.handleListChallenges)
	r.Get("/challenges/{id}", s.handleGetChallenge)
	r.Get("/challenges/{id}/leaderboard", s.handleChallengeLeaderboard)
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Get("/daily", s.handleDaily)
}

// public strips the answer key before a challenge leaves the server.
func public(c challenge.Challenge) challenge.Challenge {
	c.Solutions = nil
	return c
}

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	list, err := s.challenges.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list challenges")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	out := make([]challenge.Challenge, 0, len(list))
	for _, c := range list {
		out = append(out, public(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetChallenge(w http.ResponseWriter, r *http.Request) {
	c, err := s.findChallenge(r, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, challenge.ErrNotFound):
		writeError(w, http.StatusNotFound, "challenge not found")
	case err != nil:
		log.Error().Err(err).Msg("get challenge")
		writeError(w, http.StatusInternalServerError, "db_error")
	default:
		writeJSON(w, http.StatusOK, public(*c))
	}
}

func (s *Server) handleChallengeLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.leaderboard(w, r, challenge.Filter{
		Kind:        challenge.FilterChallenge,
		ChallengeID: chi.URLParam(r, "id"),
		Limit:       queryInt(r, "limit"),
	})
}

// handleLeaderboard serves the three leaderboard views. "mine" requires a
// signed-in user.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := challenge.Filter{
		Kind:        challenge.FilterKind(q.Get("filter")),
		ChallengeID: q.Get("challengeId"),
		Limit:       queryInt(r, "limit"),
	}
	switch f.Kind {
	case "", challenge.FilterAll:
		f.Kind = challenge.FilterAll
	case challenge.FilterChallenge:
		if f.ChallengeID == "" {
			writeError(w, http.StatusBadRequest, "challengeId required")
			return
		}
	case challenge.FilterMine:
		me := auth.FromContext(r.Context())
		if me == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		f.UserID = me.ID
	default:
		writeError(w, http.StatusBadRequest, "unknown filter")
		return
	}
	s.leaderboard(w, r, f)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request, f challenge.Filter) {
	rows, err := s.challenges.Leaderboard(r.Context(), f)
	if err != nil {
		log.Error().Err(err).Str("filter", string(f.Kind)).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleDaily returns today's challenge, storing it on first request.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	c, err := s.ensureDaily(r, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("daily challenge")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, public(*c))
}

// findChallenge loads a challenge by id. Today's daily id is created on
// demand; past daily challenges must already exist.
func (s *Server) findChallenge(r *http.Request, id string) (*challenge.Challenge, error) {
	c, err := s.challenges.Get(r.Context(), id)
	if errors.Is(err, challenge.ErrNotFound) && id == challenge.DailyID(time.Now()) {
		return s.ensureDaily(r, time.Now())
	}
	return c, err
}

func (s *Server) ensureDaily(r *http.Request, now time.Time) (*challenge.Challenge, error) {
	id := challenge.DailyID(now)
	c, err := s.challenges.Get(r.Context(), id)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, challenge.ErrNotFound) {
		return nil, err
	}
	d := challenge.Daily(now, s.cfg.DailySalt, s.dict)
	if err := s.challenges.Put(r.Context(), d); err != nil {
		return nil, err
	}
	log.Info().Str("challenge", d.ID).Int("solutions", len(d.Solutions)).Msg("daily challenge created")
	return &d, nil
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	if n < 0 {
		return 0
	}
	return n
}
