// internal/httpserver/routes_game.go
//
// HTTP routes for one player's game session:
//   - POST   /game/new           → create a session (free play or a challenge)
//   - GET    /game/{id}          → current snapshot
//   - POST   /game/{id}/start    → begin an attempt
//   - POST   /game/{id}/stop     → end the attempt early
//   - POST   /game/{id}/reset    → back to idle
//   - POST   /game/{id}/leave    → leave the loaded challenge
//   - POST   /game/{id}/size     → change the free-play grid size
//   - POST   /game/{id}/guess    → submit a word
//   - DELETE /game/{id}          → drop the session
//   - GET    /game/{id}/ws       → countdown stream (mounted in server.go)
//
// Only signed-in players submit challenge scores. When a guess sends the
// first-attempt score, the rank tracker runs and any rank change is attached
// to the response.

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/internal/auth"
	"github.com/robalobadob/boggle/internal/challenge"
	"github.com/robalobadob/boggle/internal/game"
	"github.com/robalobadob/boggle/internal/rank"
	"github.com/robalobadob/boggle/internal/store"
)

func (s *Server) mountGame(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/game/{id}", s.handleSnapshot)
	r.Delete("/game/{id}", s.handleDeleteGame)
	r.Post("/game/{id}/start", s.handleStart)
	r.Post("/game/{id}/stop", s.sessionAction(func(g *game.Session) error { g.Stop(); return nil }))
	r.Post("/game/{id}/reset", s.sessionAction(func(g *game.Session) error { g.Reset(); return nil }))
	r.Post("/game/{id}/leave", s.sessionAction(func(g *game.Session) error { g.LeaveChallenge(); return nil }))
	r.Post("/game/{id}/size", s.handleSize)
	r.Post("/game/{id}/guess", s.handleGuess)
}

// newGameReq is the payload for POST /game/new.
type newGameReq struct {
	Mode        string `json:"mode"` // "random" (default) | "challenge"
	Size        int    `json:"size"`
	ChallengeID string `json:"challengeId"`
}

// handleNewGame creates a session owned by the caller and optionally loads a
// challenge into it.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if req.Mode == string(game.ModeChallenge) && req.ChallengeID == "" {
		writeError(w, http.StatusBadRequest, "challengeId required")
		return
	}

	var ch *challenge.Challenge
	if req.ChallengeID != "" {
		var err error
		if ch, err = s.findChallenge(r, req.ChallengeID); err != nil {
			if errors.Is(err, challenge.ErrNotFound) {
				writeError(w, http.StatusNotFound, "challenge not found")
				return
			}
			log.Error().Err(err).Str("challenge", req.ChallengeID).Msg("load challenge")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	opts := game.Options{
		ID:        uuid.NewString(),
		Size:      req.Size,
		TickEvery: s.cfg.TickEvery,
		Notify:    s.hub.Publish,
	}
	if me := auth.FromContext(r.Context()); me != nil {
		opts.Player = &game.Player{ID: me.ID, Name: me.Username, Photo: me.Photo}
		opts.Sink = s.challenges
	}
	g := game.NewSession(s.dict, opts)
	if ch != nil {
		if err := g.LoadChallenge(r.Context(), *ch); err != nil {
			g.Close()
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	if err := s.sessions.Save(r.Context(), g); err != nil {
		g.Close()
		log.Error().Err(err).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	owner := s.owner(w, r)
	s.mu.Lock()
	s.owners[g.ID] = owner
	s.mu.Unlock()

	log.Info().Str("session", g.ID).Str("mode", string(g.Mode())).Bool("guest", opts.Player == nil).Msg("session created")
	writeJSON(w, http.StatusCreated, g.Snapshot())
}

// session resolves {id} to a session the caller owns. It writes the error
// response and returns nil otherwise.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *game.Session {
	id := chi.URLParam(r, "id")
	g, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("session", id).Msg("get session")
		}
		writeError(w, http.StatusNotFound, "not_found")
		return nil
	}
	s.mu.Lock()
	owner := s.owners[id]
	s.mu.Unlock()
	if owner != s.owner(w, r) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil
	}
	return g
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if g := s.session(w, r); g != nil {
		writeJSON(w, http.StatusOK, g.Snapshot())
	}
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	g := s.session(w, r)
	if g == nil {
		return
	}
	_ = s.sessions.Delete(r.Context(), g.ID)
	s.mu.Lock()
	delete(s.owners, g.ID)
	s.mu.Unlock()
	log.Info().Str("session", g.ID).Int("watchers", s.hub.Watchers(g.ID)).Msg("session deleted")
	s.hub.CloseSession(g.ID)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	g := s.session(w, r)
	if g == nil {
		return
	}
	switch err := g.Start(r.Context()); {
	case err == nil:
		writeJSON(w, http.StatusOK, g.Snapshot())
	case errors.Is(err, game.ErrAlreadyRunning), errors.Is(err, game.ErrNoGrid):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Str("session", g.ID).Msg("start")
		writeError(w, http.StatusInternalServerError, "start_failed")
	}
}

// sessionAction wraps a simple state transition that always answers with the
// resulting snapshot.
func (s *Server) sessionAction(fn func(*game.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g := s.session(w, r)
		if g == nil {
			return
		}
		if err := fn(g); err != nil {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, g.Snapshot())
	}
}

type sizeReq struct {
	Size int `json:"size"`
}

func (s *Server) handleSize(w http.ResponseWriter, r *http.Request) {
	var req sizeReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	s.sessionAction(func(g *game.Session) error { return g.SetSize(req.Size) })(w, r)
}

// guessReq/Res payloads for POST /game/{id}/guess.
type guessReq struct {
	Guess string `json:"guess"`
}
type guessRes struct {
	Result   game.GuessResult `json:"result"`
	Snapshot game.Snapshot    `json:"snapshot"`
	Rank     *rank.Change     `json:"rank,omitempty"`
}

// handleGuess applies a guess. Invalid guesses are verdicts with status 200.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	g := s.session(w, r)
	if g == nil {
		return
	}
	res := guessRes{Result: g.SubmitGuess(r.Context(), req.Guess)}
	if res.Result.Submitted {
		res.Rank = s.checkRank(r, g)
	}
	res.Snapshot = g.Snapshot()
	writeJSON(w, http.StatusOK, res)
}

// checkRank runs the rank tracker after a score submission. Failures are
// logged and yield no notification.
func (s *Server) checkRank(r *http.Request, g *game.Session) *rank.Change {
	me := auth.FromContext(r.Context())
	ch := g.Challenge()
	if me == nil || ch == nil {
		return nil
	}
	c, err := s.ranks.Check(r.Context(), ch.ID, me.ID)
	if err != nil {
		log.Warn().Err(err).Str("challenge", ch.ID).Str("user", me.ID).Msg("rank check")
		return nil
	}
	if !c.Notify() {
		return nil
	}
	return &c
}

// handleWatch streams snapshots of a session over a WebSocket.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	g := s.session(w, r)
	if g == nil {
		return
	}
	snap := g.Snapshot()
	s.hub.ServeWS(w, r, g.ID, &snap)
}
