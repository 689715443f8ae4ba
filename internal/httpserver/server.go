// internal/httpserver/server.go
//
// HTTP server wiring for the Boggle backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Game endpoints (optional auth): /game/*, including the WebSocket
//     countdown stream.
//   - Challenge + leaderboard endpoints (optional auth): /challenges/*,
//     /leaderboard, /daily.
//   - Auth endpoints: /auth/*.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Sessions belong to whoever created them: the signed-in user, or the
//     anonymous cookie id for guests.
//   - The WebSocket route sits outside the handler timeout.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/internal/auth"
	"github.com/robalobadob/boggle/internal/challenge"
	"github.com/robalobadob/boggle/internal/rank"
	"github.com/robalobadob/boggle/internal/store"
	"github.com/robalobadob/boggle/internal/trie"
	"github.com/robalobadob/boggle/internal/words"
)

// Config carries runtime settings for the server.
type Config struct {
	Auth         auth.Config
	ClientOrigin string        // default http://localhost:5173
	DailySalt    string        // default "local_dev_salt"
	TickEvery    time.Duration // countdown period; default one second
	Timeout      time.Duration // handler timeout; default 10s
}

// Server bundles router, session registry and persistence.
type Server struct {
	r   *chi.Mux
	cfg Config

	dict       *trie.Node
	sessions   store.Store
	challenges *challenge.Store
	users      *auth.Users
	ranks      *rank.Tracker
	hub        *Hub

	mu     sync.Mutex
	owners map[string]string // session id → user or anonymous id
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config, dict *trie.Node, sessions store.Store, db *sql.DB) *Server {
	if cfg.ClientOrigin == "" {
		cfg.ClientOrigin = "http://localhost:5173"
	}
	if cfg.DailySalt == "" {
		cfg.DailySalt = "local_dev_salt"
	}
	if cfg.TickEvery <= 0 {
		cfg.TickEvery = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cs := challenge.NewStore(db)
	s := &Server{
		r:          chi.NewRouter(),
		cfg:        cfg,
		dict:       dict,
		sessions:   sessions,
		challenges: cs,
		users:      auth.NewUsers(db),
		ranks:      rank.NewTracker(cs, cs),
		owners:     make(map[string]string),
	}
	s.hub = NewHub(func(origin string) bool { return origin == cfg.ClientOrigin })

	// --- middleware ---
	s.r.Use(chimw.RequestID)        // add X-Request-ID
	s.r.Use(chimw.RealIP)           // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)        // recover from panics
	s.r.Use(jsonContentType)        // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin)) // credentials-friendly CORS
	optional := auth.Optional(cfg.Auth, s.users)

	// Countdown stream: long-lived, so no handler timeout.
	s.r.With(optional).Get("/game/{id}/ws", s.handleWatch)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.Timeout)) // bound handler time

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"boggle-go","endpoints":["/health","POST /game/new","POST /game/{id}/guess","/challenges","/leaderboard","/daily","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", s.handleDebugWords)

		// Game + challenges: OPTIONAL AUTH (guests can play, only users submit)
		r.Group(func(r chi.Router) {
			r.Use(optional)
			s.mountGame(r)
			s.mountChallenges(r)
		})

		s.mountAuth(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	log.Info().Str("addr", addr).Msg("http listening")
	return http.ListenAndServe(addr, s.r)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Challenges exposes the challenge store (seeding, tests).
func (s *Server) Challenges() *challenge.Store { return s.challenges }

// Close tears down every live session.
func (s *Server) Close() { s.sessions.Close() }

// handleDebugWords reports dictionary and registry sizes. With ?q= it also
// says whether the word is listed, indexed, and a live prefix of the index.
func (s *Server) handleDebugWords(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"words":    words.Stats(),
		"indexed":  s.dict.Len(),
		"sessions": s.sessions.Len(),
	}
	if q := words.Normalize(r.URL.Query().Get("q")); q != "" {
		out["query"] = q
		out["known"] = words.IsKnown(q)
		out["inIndex"] = s.dict.Contains(q)
		out["prefix"] = s.dict.HasPrefix(q)
	}
	writeJSON(w, http.StatusOK, out)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ------------------------------ helpers ------------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// owner returns the identity that sessions created by r belong to.
func (s *Server) owner(w http.ResponseWriter, r *http.Request) string {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID
	}
	return auth.AnonID(s.cfg.Auth, w, r)
}
