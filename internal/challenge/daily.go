package challenge

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"time"

	"github.com/robalobadob/boggle/internal/grid"
	"github.com/robalobadob/boggle/internal/solver"
	"github.com/robalobadob/boggle/internal/trie"
)

// DailySize is the grid size of the challenge of the day.
const DailySize = 4

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DailyID is the challenge id used for the given day.
func DailyID(t time.Time) string { return "daily-" + DateKey(t) }

// dailySeed derives two PCG seeds from HMAC(salt, YYYY-MM-DD).
func dailySeed(t time.Time, salt string) (uint64, uint64) {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	sum := h.Sum(nil)
	return binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])
}

// Daily builds the deterministic challenge of the day. Everyone sharing a
// salt gets the same grid on the same UTC date.
func Daily(t time.Time, salt string, dict *trie.Node) Challenge {
	s1, s2 := dailySeed(t, salt)
	g := grid.GenerateWith(rand.New(rand.NewPCG(s1, s2)), DailySize)
	return Challenge{
		ID:         DailyID(t),
		Name:       "daily " + DateKey(t),
		Difficulty: "daily",
		TimeLimit:  DefaultTimeLimit,
		Grid:       g,
		Solutions:  solver.FindAllWords(g, dict).Sorted(),
	}
}
