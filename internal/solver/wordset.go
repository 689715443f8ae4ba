package solver

import (
	"context"
	"encoding/json"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/boggle/internal/grid"
	"github.com/robalobadob/boggle/internal/trie"
	"github.com/robalobadob/boggle/internal/words"
)

// WordSet is a set of normalized words.
type WordSet map[string]struct{}

// NewWordSet normalizes each word and keeps those of scorable length.
func NewWordSet(list ...string) WordSet {
	ws := make(WordSet, len(list))
	for _, w := range list {
		ws.Add(w)
	}
	return ws
}

// Add inserts w after normalization. It reports whether w was new.
func (ws WordSet) Add(w string) bool {
	w = words.Normalize(w)
	if len(w) < words.MinLen {
		return false
	}
	if _, ok := ws[w]; ok {
		return false
	}
	ws[w] = struct{}{}
	return true
}

// Has reports membership of an already normalized word.
func (ws WordSet) Has(w string) bool {
	_, ok := ws[w]
	return ok
}

func (ws WordSet) Len() int { return len(ws) }

// Sorted returns the words in lexical order.
func (ws WordSet) Sorted() []string {
	out := make([]string, 0, len(ws))
	for w := range ws {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same words.
func (ws WordSet) Equal(other WordSet) bool {
	if len(ws) != len(other) {
		return false
	}
	for w := range ws {
		if !other.Has(w) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the set as a sorted array.
func (ws WordSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(ws.Sorted())
}

// SolveAll solves every grid with at most workers concurrent searches
// sharing one dictionary. Results are in input order.
func SolveAll(ctx context.Context, grids []grid.Grid, dict *trie.Node, workers int) ([]WordSet, error) {
	if workers <= 0 {
		workers = 4
	}
	out := make([]WordSet, len(grids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range grids {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = FindAllWords(grids[i], dict)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
