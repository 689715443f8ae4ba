package challenge

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/robalobadob/boggle/assets"
	"github.com/robalobadob/boggle/internal/db"
	"github.com/robalobadob/boggle/internal/grid"
	"github.com/robalobadob/boggle/internal/rank"
	"github.com/robalobadob/boggle/internal/trie"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.Migrate(conn, assets.Migrations()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func sample(id string) Challenge {
	return Challenge{
		ID:         id,
		Name:       "Sample " + id,
		Difficulty: "easy",
		TimeLimit:  90,
		Grid:       grid.Grid{{"C", "A"}, {"Q", "T"}},
		Solutions:  []string{"cat", "act"},
	}
}

func TestStorePutGet(t *testing.T) {
	ctx := context.Background()
	st := NewStore(openTestDB(t))

	if _, err := st.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}

	c := sample("c1")
	if err := st.Put(ctx, c); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := st.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != c.Name || got.TimeLimit != 90 || got.Grid.String() != c.Grid.String() {
		t.Errorf("Get = %+v", got)
	}
	if !reflect.DeepEqual(got.Solutions, c.Solutions) {
		t.Errorf("solutions = %v", got.Solutions)
	}

	c.Name = "Renamed"
	c.TimeLimit = 0
	if err := st.Put(ctx, c); err != nil {
		t.Fatalf("Put update: %v", err)
	}
	got, _ = st.Get(ctx, "c1")
	if got.Name != "Renamed" || got.TimeLimit != DefaultTimeLimit {
		t.Errorf("upsert = %+v", got)
	}
}

func TestStoreListHighScore(t *testing.T) {
	ctx := context.Background()
	st := NewStore(openTestDB(t))
	_ = st.Put(ctx, sample("a"))
	_ = st.Put(ctx, sample("b"))

	for _, sc := range []Score{
		{ChallengeID: "a", UserID: "u1", UserName: "ann", Score: 3},
		{ChallengeID: "a", UserID: "u2", UserName: "bob", Score: 5},
		{ChallengeID: "a", UserID: "u3", UserName: "cyd", Score: 5},
	} {
		if err := st.SubmitScore(ctx, sc); err != nil {
			t.Fatalf("SubmitScore: %v", err)
		}
	}

	list, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List len = %d", len(list))
	}
	byID := map[string]Challenge{}
	for _, c := range list {
		byID[c.ID] = c
	}
	if a := byID["a"]; a.HighScore != 5 || a.HighScorer != "bob" {
		t.Errorf("a high score = %d by %q, want 5 by bob", a.HighScore, a.HighScorer)
	}
	if b := byID["b"]; b.HighScore != 0 || b.HighScorer != "None" {
		t.Errorf("b high score = %d by %q", b.HighScore, b.HighScorer)
	}
}

func TestStoreRankOf(t *testing.T) {
	ctx := context.Background()
	st := NewStore(openTestDB(t))
	_ = st.Put(ctx, sample("c"))

	submit := func(user string, score int) {
		t.Helper()
		if err := st.SubmitScore(ctx, Score{ChallengeID: "c", UserID: user, UserName: user, Score: score}); err != nil {
			t.Fatal(err)
		}
	}
	submit("u1", 4)
	submit("u2", 7)
	submit("u3", 4) // ties with u1, scored later
	submit("u1", 2) // a worse second row does not count

	tests := []struct {
		user string
		want rank.Standing
	}{
		{"u2", rank.Standing{Rank: 1, TotalPlayers: 3}},
		{"u1", rank.Standing{Rank: 2, TotalPlayers: 3}},
		{"u3", rank.Standing{Rank: 3, TotalPlayers: 3}},
		{"nobody", rank.Standing{Rank: 0, TotalPlayers: 3}},
	}
	for _, tt := range tests {
		got, err := st.RankOf(ctx, "c", tt.user)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("RankOf(%s) = %+v, want %+v", tt.user, got, tt.want)
		}
	}
}

func TestStoreLeaderboard(t *testing.T) {
	ctx := context.Background()
	st := NewStore(openTestDB(t))
	_ = st.Put(ctx, sample("a"))
	_ = st.Put(ctx, sample("b"))

	for i := 0; i < 12; i++ {
		_ = st.SubmitScore(ctx, Score{ChallengeID: "a", UserID: "u", UserName: "u", Score: i, WordsFound: []string{"cat"}})
	}
	_ = st.SubmitScore(ctx, Score{ChallengeID: "b", UserID: "me", UserName: "me", Score: 50})
	_ = st.SubmitScore(ctx, Score{ChallengeID: "a", UserID: "me", UserName: "me", Score: 1})

	t.Run("challenge", func(t *testing.T) {
		rows, err := st.Leaderboard(ctx, Filter{Kind: FilterChallenge, ChallengeID: "a"})
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 10 || rows[0].Score.Score != 11 || rows[0].ChallengeName != "Sample a" {
			t.Fatalf("rows = %d first %+v", len(rows), rows[0])
		}
		if !reflect.DeepEqual(rows[0].WordsFound, []string{"cat"}) {
			t.Errorf("words = %v", rows[0].WordsFound)
		}
	})

	t.Run("all", func(t *testing.T) {
		rows, err := st.Leaderboard(ctx, Filter{Kind: FilterAll})
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 14 || rows[0].Score.Score != 50 || rows[0].ChallengeID != "b" {
			t.Fatalf("rows = %d first %+v", len(rows), rows[0])
		}
	})

	t.Run("mine", func(t *testing.T) {
		rows, err := st.Leaderboard(ctx, Filter{Kind: FilterMine, UserID: "me"})
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 2 || rows[0].Score.Score != 50 {
			t.Fatalf("rows = %+v", rows)
		}
		rows, _ = st.Leaderboard(ctx, Filter{Kind: FilterMine, UserID: "me", ChallengeID: "a"})
		if len(rows) != 1 || rows[0].Score.Score != 1 {
			t.Fatalf("rows for a = %+v", rows)
		}
	})
}

func TestStoreScoreNeedsChallenge(t *testing.T) {
	st := NewStore(openTestDB(t))
	err := st.SubmitScore(context.Background(), Score{ChallengeID: "ghost", UserID: "u", UserName: "u", Score: 1})
	if err == nil {
		t.Error("score for an unknown challenge should be rejected")
	}
}

func TestStoreRankSlots(t *testing.T) {
	ctx := context.Background()
	st := NewStore(openTestDB(t))

	if _, ok, err := st.PreviousRank(ctx, "c", "u"); ok || err != nil {
		t.Fatalf("empty slot = %v %v", ok, err)
	}
	_ = st.SetRank(ctx, "c", "u", 4)
	_ = st.SetRank(ctx, "c", "u", 2)
	if r, ok, err := st.PreviousRank(ctx, "c", "u"); !ok || r != 2 || err != nil {
		t.Errorf("slot = %d %v %v", r, ok, err)
	}
}

func TestTrackerOnStore(t *testing.T) {
	ctx := context.Background()
	st := NewStore(openTestDB(t))
	_ = st.Put(ctx, sample("c"))
	tr := rank.NewTracker(st, st)

	_ = st.SubmitScore(ctx, Score{ChallengeID: "c", UserID: "a", UserName: "a", Score: 3})
	c, err := tr.Check(ctx, "c", "a")
	if err != nil || c.Kind != rank.KindFirstRanking || c.Message != "First ranking: 1 of 1" {
		t.Fatalf("first check = %+v %v", c, err)
	}

	_ = st.SubmitScore(ctx, Score{ChallengeID: "c", UserID: "b", UserName: "b", Score: 9})
	c, _ = tr.Check(ctx, "c", "a")
	if c.Kind != rank.KindSurpassed || *c.Current != 2 || c.TotalPlayers != 2 {
		t.Errorf("after being passed = %+v", c)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	st := NewStore(openTestDB(t))
	dict := trie.Build([]string{"cat", "dog"})

	list := []Challenge{
		{ID: "solved", Name: "Solved", Grid: grid.Grid{{"C", "A"}, {"X", "T"}}, Solutions: []string{"cat"}},
		{ID: "unsolved", Name: "Unsolved", Grid: grid.Grid{{"D", "O"}, {"X", "G"}}},
		{ID: "blank", Name: "Blank"},
	}
	n, err := Seed(ctx, st, list, dict, 2)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if n != 2 {
		t.Errorf("seeded %d, want 2", n)
	}
	got, err := st.Get(ctx, "unsolved")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Solutions, []string{"dog"}) {
		t.Errorf("computed solutions = %v", got.Solutions)
	}
	if _, err := st.Get(ctx, "blank"); !errors.Is(err, ErrNotFound) {
		t.Errorf("blank challenge stored: %v", err)
	}

	// A second run leaves existing challenges alone.
	if n, err := Seed(ctx, st, list, dict, 2); err != nil || n != 0 {
		t.Errorf("reseed = %d %v", n, err)
	}
}

func TestEmbeddedSeeds(t *testing.T) {
	list, err := EmbeddedSeeds()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) == 0 {
		t.Fatal("no embedded challenges")
	}
	for _, c := range list {
		if c.ID == "" || !c.Grid.Valid() {
			t.Errorf("challenge %q has grid %v", c.ID, c.Grid)
		}
	}
}

func TestDaily(t *testing.T) {
	dict := trie.Shared()
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	later := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)

	a := Daily(day, "salt", dict)
	b := Daily(later, "salt", dict)
	if a.ID != "daily-2026-03-14" || a.ID != b.ID {
		t.Fatalf("ids %q %q", a.ID, b.ID)
	}
	if a.Grid.String() != b.Grid.String() {
		t.Error("same day and salt produced different grids")
	}
	if a.Grid.Size() != DailySize || a.Seconds() != DefaultTimeLimit {
		t.Errorf("daily = %+v", a)
	}
	if other := Daily(day, "pepper", dict); other.Grid.String() == a.Grid.String() {
		t.Error("salt did not change the grid")
	}
	if next := Daily(day.AddDate(0, 0, 1), "salt", dict); next.Grid.String() == a.Grid.String() {
		t.Error("next day reused the grid")
	}
}
