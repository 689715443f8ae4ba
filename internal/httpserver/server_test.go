package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/robalobadob/boggle/assets"
	"github.com/robalobadob/boggle/internal/challenge"
	"github.com/robalobadob/boggle/internal/db"
	"github.com/robalobadob/boggle/internal/game"
	"github.com/robalobadob/boggle/internal/grid"
	"github.com/robalobadob/boggle/internal/rank"
	"github.com/robalobadob/boggle/internal/store"
	"github.com/robalobadob/boggle/internal/trie"
)

var board = grid.Grid{
	{"C", "A", "T"},
	{"O", "X", "X"},
	{"D", "O", "G"},
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn, assets.Migrations()); err != nil {
		t.Fatal(err)
	}

	dict := trie.Build([]string{"cat", "dog", "god"})
	srv := New(Config{TickEvery: time.Hour}, dict, store.NewMemoryStore(), conn)
	t.Cleanup(srv.Close)

	err = srv.Challenges().Put(context.Background(), challenge.Challenge{
		ID: "c1", Name: "Corners", Difficulty: "easy", TimeLimit: 60,
		Grid: board, Solutions: []string{"cat", "dog", "god"},
	})
	if err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

// player is an HTTP client with its own cookie jar.
type player struct {
	t    *testing.T
	base string
	c    *http.Client
}

func newPlayer(t *testing.T, ts *httptest.Server) *player {
	jar, _ := cookiejar.New(nil)
	return &player{t: t, base: ts.URL, c: &http.Client{Jar: jar}}
}

func (p *player) do(method, path string, body any, out any) int {
	p.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, p.base+path, &buf)
	if err != nil {
		p.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := p.c.Do(req)
	if err != nil {
		p.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			p.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return res.StatusCode
}

func (p *player) signup(name string) {
	p.t.Helper()
	var res authRes
	if code := p.do(http.MethodPost, "/auth/signup", signupReq{Username: name, Password: "password1"}, &res); code != http.StatusCreated {
		p.t.Fatalf("signup %s: %d", name, code)
	}
}

func (p *player) newChallengeGame(id string) game.Snapshot {
	p.t.Helper()
	var snap game.Snapshot
	code := p.do(http.MethodPost, "/game/new", newGameReq{Mode: "challenge", ChallengeID: id}, &snap)
	if code != http.StatusCreated {
		p.t.Fatalf("new game: %d", code)
	}
	return snap
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	p := newPlayer(t, ts)
	var body map[string]bool
	if code := p.do(http.MethodGet, "/health", nil, &body); code != http.StatusOK || !body["ok"] {
		t.Fatalf("health = %d %v", code, body)
	}
	var nf map[string]string
	if code := p.do(http.MethodGet, "/nope", nil, &nf); code != http.StatusNotFound || nf["error"] != "not_found" {
		t.Errorf("404 = %d %v", code, nf)
	}
}

func TestDebugWords(t *testing.T) {
	ts := newTestServer(t)
	p := newPlayer(t, ts)

	var body map[string]any
	if code := p.do(http.MethodGet, "/debug/words", nil, &body); code != http.StatusOK {
		t.Fatalf("debug = %d", code)
	}
	if body["indexed"] != float64(3) || body["words"].(float64) == 0 {
		t.Errorf("debug = %v", body)
	}

	tests := []struct {
		q                        string
		known, inIndex, isPrefix bool
	}{
		{"DOG", true, true, true},
		{"do", false, false, true},
		{"zzz", false, false, false},
	}
	for _, tt := range tests {
		body = nil
		p.do(http.MethodGet, "/debug/words?q="+tt.q, nil, &body)
		if body["known"] != tt.known || body["inIndex"] != tt.inIndex || body["prefix"] != tt.isPrefix {
			t.Errorf("q=%s: %v", tt.q, body)
		}
	}
}

func TestFreePlayFlow(t *testing.T) {
	ts := newTestServer(t)
	p := newPlayer(t, ts)

	var snap game.Snapshot
	if code := p.do(http.MethodPost, "/game/new", newGameReq{Size: 5}, &snap); code != http.StatusCreated {
		t.Fatalf("new = %d", code)
	}
	if snap.Phase != game.PhaseIdle || snap.Mode != game.ModeRandom || snap.Size != 5 || snap.Grid != nil {
		t.Fatalf("new snapshot = %+v", snap)
	}
	id := snap.ID

	if code := p.do(http.MethodPost, "/game/"+id+"/size", sizeReq{Size: 1}, &snap); code != http.StatusOK || snap.Size != grid.MinSize {
		t.Errorf("size = %d %+v", code, snap)
	}
	if code := p.do(http.MethodPost, "/game/"+id+"/start", nil, &snap); code != http.StatusOK || snap.Phase != game.PhaseRunning {
		t.Fatalf("start = %d %+v", code, snap)
	}
	if len(snap.Grid) != grid.MinSize {
		t.Errorf("grid = %v", snap.Grid)
	}
	var errBody map[string]string
	if code := p.do(http.MethodPost, "/game/"+id+"/start", nil, &errBody); code != http.StatusConflict {
		t.Errorf("double start = %d", code)
	}

	var res guessRes
	p.do(http.MethodPost, "/game/"+id+"/guess", guessReq{Guess: "!!"}, &res)
	if res.Result.Verdict != game.VerdictEmpty {
		t.Errorf("empty guess = %+v", res.Result)
	}

	if code := p.do(http.MethodPost, "/game/"+id+"/stop", nil, &snap); code != http.StatusOK || snap.Phase != game.PhaseStopped || snap.Summary == nil {
		t.Errorf("stop = %d %+v", code, snap)
	}
	if code := p.do(http.MethodPost, "/game/"+id+"/reset", nil, &snap); code != http.StatusOK || snap.Phase != game.PhaseIdle {
		t.Errorf("reset = %d %+v", code, snap)
	}

	var ok map[string]bool
	if code := p.do(http.MethodDelete, "/game/"+id, nil, &ok); code != http.StatusOK {
		t.Errorf("delete = %d", code)
	}
	if code := p.do(http.MethodGet, "/game/"+id, nil, &errBody); code != http.StatusNotFound {
		t.Errorf("get after delete = %d", code)
	}
}

func TestSessionsArePrivate(t *testing.T) {
	ts := newTestServer(t)
	owner := newPlayer(t, ts)
	stranger := newPlayer(t, ts)

	snap := owner.newChallengeGame("c1")
	var body map[string]string
	if code := stranger.do(http.MethodGet, "/game/"+snap.ID, nil, &body); code != http.StatusNotFound {
		t.Errorf("stranger read = %d", code)
	}
	var mine game.Snapshot
	if code := owner.do(http.MethodGet, "/game/"+snap.ID, nil, &mine); code != http.StatusOK || mine.ID != snap.ID {
		t.Errorf("owner read = %d", code)
	}
}

func TestChallengeSubmissionAndRank(t *testing.T) {
	ts := newTestServer(t)
	ann := newPlayer(t, ts)
	ann.signup("ann")

	snap := ann.newChallengeGame("c1")
	if snap.Mode != game.ModeChallenge || snap.Challenge == nil || snap.TotalSeconds != 60 {
		t.Fatalf("challenge snapshot = %+v", snap)
	}
	id := snap.ID
	ann.do(http.MethodPost, "/game/"+id+"/start", nil, &snap)

	var res guessRes
	ann.do(http.MethodPost, "/game/"+id+"/guess", guessReq{Guess: "CAT"}, &res)
	if res.Result.Verdict != game.VerdictAccepted || !res.Result.Submitted {
		t.Fatalf("first guess = %+v", res.Result)
	}
	if res.Rank == nil || res.Rank.Kind != rank.KindFirstRanking || res.Rank.Message != "First ranking: 1 of 1" {
		t.Errorf("rank = %+v", res.Rank)
	}
	if !res.Snapshot.ScoreSubmitted {
		t.Error("snapshot does not show the submission")
	}

	res = guessRes{}
	ann.do(http.MethodPost, "/game/"+id+"/guess", guessReq{Guess: "dog"}, &res)
	if res.Result.Submitted || res.Rank != nil {
		t.Errorf("second guess = %+v rank %+v", res.Result, res.Rank)
	}
	ann.do(http.MethodPost, "/game/"+id+"/guess", guessReq{Guess: "act"}, &res)
	if res.Result.Verdict != game.VerdictNotOnBoard {
		t.Errorf("act = %+v", res.Result)
	}

	var rows []challenge.Entry
	if code := ann.do(http.MethodGet, "/challenges/c1/leaderboard", nil, &rows); code != http.StatusOK {
		t.Fatalf("leaderboard = %d", code)
	}
	if len(rows) != 1 || rows[0].UserName != "ann" || rows[0].Score.Score != 1 {
		t.Errorf("leaderboard = %+v", rows)
	}

	// A replay never reaches the leaderboard.
	ann.do(http.MethodPost, "/game/"+id+"/stop", nil, &snap)
	ann.do(http.MethodPost, "/game/"+id+"/start", nil, &snap)
	ann.do(http.MethodPost, "/game/"+id+"/guess", guessReq{Guess: "god"}, &res)
	if res.Result.Submitted {
		t.Error("replay submitted")
	}

	// A second player overtakes ann.
	bob := newPlayer(t, ts)
	bob.signup("bob")
	bs := bob.newChallengeGame("c1")
	bob.do(http.MethodPost, "/game/"+bs.ID+"/start", nil, &bs)
	bob.do(http.MethodPost, "/game/"+bs.ID+"/guess", guessReq{Guess: "god"}, &res)
	if res.Rank == nil || res.Rank.Kind != rank.KindFirstRanking {
		t.Errorf("bob rank = %+v", res.Rank)
	}

	var mine []challenge.Entry
	if code := ann.do(http.MethodGet, "/leaderboard?filter=mine", nil, &mine); code != http.StatusOK || len(mine) != 1 {
		t.Errorf("mine = %d %+v", code, mine)
	}
	var all []challenge.Entry
	if code := ann.do(http.MethodGet, "/leaderboard", nil, &all); code != http.StatusOK || len(all) != 2 {
		t.Errorf("all = %d %+v", code, all)
	}
}

func TestGuestNeverSubmits(t *testing.T) {
	ts := newTestServer(t)
	guest := newPlayer(t, ts)

	snap := guest.newChallengeGame("c1")
	guest.do(http.MethodPost, "/game/"+snap.ID+"/start", nil, &snap)
	var res guessRes
	guest.do(http.MethodPost, "/game/"+snap.ID+"/guess", guessReq{Guess: "cat"}, &res)
	if res.Result.Verdict != game.VerdictAccepted || res.Result.Submitted || res.Rank != nil {
		t.Errorf("guest guess = %+v", res)
	}

	var rows []challenge.Entry
	guest.do(http.MethodGet, "/challenges/c1/leaderboard", nil, &rows)
	if len(rows) != 0 {
		t.Errorf("guest score stored: %+v", rows)
	}
	var body map[string]string
	if code := guest.do(http.MethodGet, "/leaderboard?filter=mine", nil, &body); code != http.StatusUnauthorized {
		t.Errorf("guest mine = %d", code)
	}
}

func TestChallengeRoutes(t *testing.T) {
	ts := newTestServer(t)
	p := newPlayer(t, ts)

	var list []challenge.Challenge
	if code := p.do(http.MethodGet, "/challenges", nil, &list); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list = %d %+v", code, list)
	}
	if list[0].Solutions != nil || list[0].HighScorer != "None" {
		t.Errorf("listed challenge = %+v", list[0])
	}

	var one challenge.Challenge
	if code := p.do(http.MethodGet, "/challenges/c1", nil, &one); code != http.StatusOK || one.Grid.String() != board.String() {
		t.Errorf("get = %d %+v", code, one)
	}
	var body map[string]string
	if code := p.do(http.MethodGet, "/challenges/zzz", nil, &body); code != http.StatusNotFound {
		t.Errorf("missing = %d", code)
	}
	if code := p.do(http.MethodPost, "/game/new", newGameReq{ChallengeID: "zzz"}, &body); code != http.StatusNotFound {
		t.Errorf("new game on missing challenge = %d", code)
	}
	if code := p.do(http.MethodGet, "/leaderboard?filter=bogus", nil, &body); code != http.StatusBadRequest {
		t.Errorf("bogus filter = %d", code)
	}

	var daily challenge.Challenge
	if code := p.do(http.MethodGet, "/daily", nil, &daily); code != http.StatusOK {
		t.Fatalf("daily = %d", code)
	}
	if daily.ID != challenge.DailyID(time.Now()) || daily.Grid.Size() != challenge.DailySize {
		t.Errorf("daily = %+v", daily)
	}
	snap := p.newChallengeGame(daily.ID)
	if snap.Challenge == nil || snap.Challenge.ID != daily.ID {
		t.Errorf("daily game = %+v", snap)
	}
}

func TestAuthRoutes(t *testing.T) {
	ts := newTestServer(t)
	p := newPlayer(t, ts)

	var body map[string]string
	if code := p.do(http.MethodGet, "/auth/me", nil, &body); code != http.StatusUnauthorized {
		t.Errorf("me as guest = %d", code)
	}
	p.signup("carol")

	var me struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	}
	if code := p.do(http.MethodGet, "/auth/me", nil, &me); code != http.StatusOK || me.Username != "carol" {
		t.Errorf("me = %d %+v", code, me)
	}
	if code := p.do(http.MethodPost, "/auth/signup", signupReq{Username: "carol", Password: "password1"}, &body); code != http.StatusConflict {
		t.Errorf("duplicate signup = %d", code)
	}

	var ok map[string]bool
	p.do(http.MethodPost, "/auth/logout", nil, &ok)
	if code := p.do(http.MethodGet, "/auth/me", nil, &body); code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d", code)
	}

	var res authRes
	if code := p.do(http.MethodPost, "/auth/login", loginReq{Username: "carol", Password: "password1"}, &res); code != http.StatusOK || res.Token == "" {
		t.Errorf("login = %d %+v", code, res)
	}
	if code := p.do(http.MethodPost, "/auth/login", loginReq{Username: "carol", Password: "nope-nope"}, &body); code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", code)
	}
}

func TestWatchStreamsSnapshots(t *testing.T) {
	ts := newTestServer(t)
	p := newPlayer(t, ts)
	snap := p.newChallengeGame("c1")

	u, _ := url.Parse(ts.URL)
	header := http.Header{}
	for _, c := range p.c.Jar.Cookies(u) {
		header.Add("Cookie", c.Name+"="+c.Value)
	}
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/game/" + snap.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() message {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		return m
	}

	first := read()
	if first.Event != "snapshot" || first.Snapshot == nil || first.Snapshot.Phase != game.PhaseIdle {
		t.Fatalf("first message = %+v", first)
	}

	var started game.Snapshot
	p.do(http.MethodPost, "/game/"+snap.ID+"/start", nil, &started)
	next := read()
	if next.Snapshot == nil || next.Snapshot.Phase != game.PhaseRunning || next.SessionID != snap.ID {
		t.Errorf("after start = %+v", next)
	}
}
