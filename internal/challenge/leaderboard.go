package challenge

import "github.com/robalobadob/boggle/internal/rank"

// scored is one score row as read for ranking.
type scored struct {
	userID string
	score  int
}

// standingOf ranks userID within rows, which must be ordered best first
// (score descending, then insertion order). Each player counts once, at
// their first (best, earliest) row.
func standingOf(rows []scored, userID string) rank.Standing {
	var st rank.Standing
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, ok := seen[r.userID]; ok {
			continue
		}
		seen[r.userID] = struct{}{}
		if r.userID == userID {
			st.Rank = len(seen)
		}
	}
	st.TotalPlayers = len(seen)
	return st
}
