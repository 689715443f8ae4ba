package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/internal/auth"
)

// signupReq/loginReq payloads for /auth/*.
type signupReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	PhotoURL string `json:"photoUrl"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authRes is returned by signup and login. The token is also set as a cookie.
type authRes struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

// mountAuth registers /auth/*.
func (s *Server) mountAuth(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.With(auth.Require(s.cfg.Auth, s.users)).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, auth.FromContext(r.Context()))
	})
}

// handleSignup creates a new user, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password, body.PhotoURL)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "Username taken")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.issue(w, u, http.StatusCreated)
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	s.issue(w, u, http.StatusOK)
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.cfg.Auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) issue(w http.ResponseWriter, u *auth.User, code int) {
	tok, exp, err := s.cfg.Auth.Sign(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Str("user", u.ID).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.cfg.Auth.SetCookie(w, tok, exp)
	writeJSON(w, code, authRes{Token: tok, User: u})
}
