package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Identity is placed into the request context by the middlewares.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Photo    string `json:"photoUrl,omitempty"`
}

type ctxKey struct{}

// FromContext returns the authenticated identity, or nil for guests.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}

// WithIdentity returns ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// identify resolves the request's token to a user that still exists.
func identify(cfg Config, users *Users, r *http.Request) (*Identity, error) {
	tok := cfg.TokenFrom(r)
	if tok == "" {
		return nil, ErrInvalidToken
	}
	id, _, err := cfg.Parse(tok)
	if err != nil {
		return nil, err
	}
	u, err := users.FindByID(r.Context(), id)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: u.ID, Username: u.Username, Photo: u.PhotoURL}, nil
}

// Optional decorates requests with an Identity when a valid token is present.
// It never rejects; guests pass through.
func Optional(cfg Config, users *Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if me, err := identify(cfg, users, r); err == nil {
				r = r.WithContext(WithIdentity(r.Context(), me))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a valid token for a user that still exists.
func Require(cfg Config, users *Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.TokenFrom(r) == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			me, err := identify(cfg, users, r)
			if err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), me)))
		})
	}
}

const anonCookieName = "boggle_anon"

// AnonID returns an existing anonymous cookie id or sets a new one.
func AnonID(cfg Config, w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}
