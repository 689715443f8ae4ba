// internal/auth/auth.go
//
// Player identity for score submission.
// Responsibilities:
//   - User accounts in SQLite with bcrypt password hashes.
//   - HS256 JWTs carried as a bearer token or an HttpOnly cookie.
//
// Identity is an outer collaborator: the game core only ever sees the
// resulting player id, display name and photo.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Config holds token and cookie settings.
type Config struct {
	Secret      string
	ExpiresDays int    // default 14
	CookieName  string // default "boggle_token"
	Secure      bool   // production cookies: Secure + SameSite=None
}

func (c Config) cookieName() string {
	if c.CookieName == "" {
		return "boggle_token"
	}
	return c.CookieName
}

func (c Config) secret() []byte {
	if c.Secret == "" {
		return []byte("dev_secret_change_me")
	}
	return []byte(c.Secret)
}

// Sign creates an HS256 JWT with id/username and the configured expiry.
func (c Config) Sign(id, username string) (string, time.Time, error) {
	days := c.ExpiresDays
	if days <= 0 {
		days = 14
	}
	exp := time.Now().Add(time.Duration(days) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().Unix(),
	})
	ss, err := t.SignedString(c.secret())
	return ss, exp, err
}

// Parse validates a token and returns its id and username claims.
func (c Config) Parse(token string) (id, username string, err error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", "", ErrInvalidToken
	}
	id, _ = claims["id"].(string)
	username, _ = claims["username"].(string)
	if id == "" || username == "" {
		return "", "", ErrInvalidToken
	}
	return id, username, nil
}

func (c Config) sameSite() http.SameSite {
	if c.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetCookie writes the auth token cookie.
func (c Config) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		Expires:  exp,
	})
}

// ClearCookie deletes the auth token cookie.
func (c Config) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: c.sameSite(),
		MaxAge:   -1,
	})
}

// TokenFrom extracts a bearer token from the Authorization header or the auth cookie.
func (c Config) TokenFrom(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if ck, err := r.Cookie(c.cookieName()); err == nil {
		return ck.Value
	}
	return ""
}

// ------------------------------- users -------------------------------------

// Users is the account table.
type Users struct{ db *sql.DB }

func NewUsers(db *sql.DB) *Users { return &Users{db: db} }

// NormalizeUsername trims whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3–24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8–100 chars")
	}
	return nil
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Create validates input, checks uniqueness, hashes the password and inserts the user.
func (u *Users) Create(ctx context.Context, username, pw, photo string) (*User, error) {
	username = NormalizeUsername(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	_ = u.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if exists == 1 {
		return nil, ErrUsernameTaken
	}
	h, err := HashPassword(pw)
	if err != nil {
		return nil, err
	}
	usr := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: h,
		PhotoURL:     photo,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = u.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, photo_url, created_at) VALUES (?,?,?,?,?)`,
		usr.ID, usr.Username, usr.PasswordHash, usr.PhotoURL, usr.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return usr, nil
}

// Authenticate returns the user when the password matches.
func (u *Users) Authenticate(ctx context.Context, username, pw string) (*User, error) {
	usr, err := u.FindByUsername(ctx, NormalizeUsername(username))
	if err != nil || !CheckPassword(usr.PasswordHash, pw) {
		return nil, ErrInvalidCredentials
	}
	return usr, nil
}

func (u *Users) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT id, username, password_hash, photo_url, created_at
	                    FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

func (u *Users) FindByID(ctx context.Context, id string) (*User, error) {
	row := u.db.QueryRowContext(ctx, `SELECT id, username, password_hash, photo_url, created_at
	                    FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.PhotoURL, &created); err != nil {
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}
