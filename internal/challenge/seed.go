package challenge

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/boggle/assets"
	"github.com/robalobadob/boggle/internal/grid"
	"github.com/robalobadob/boggle/internal/solver"
	"github.com/robalobadob/boggle/internal/trie"
)

// EmbeddedSeeds decodes the challenge catalogue shipped in assets. Grids are
// normalized, so rows given as literal arrays and rows given as JSON text
// both load.
func EmbeddedSeeds() ([]Challenge, error) {
	raw, err := assets.SeedChallenges()
	if err != nil {
		return nil, fmt.Errorf("decode seed challenges: %w", err)
	}
	out := make([]Challenge, 0, len(raw))
	for _, r := range raw {
		out = append(out, Challenge{
			ID:         r.ID,
			Name:       r.Name,
			Difficulty: r.Difficulty,
			TimeLimit:  r.TimeLimit,
			Grid:       grid.Normalize(r.Grid),
			Solutions:  r.Solutions,
		})
	}
	return out, nil
}

// Seed stores every challenge not already present. Challenges without a
// solution list are solved against dict first, at most workers at a time.
// Challenges whose grid is empty are skipped with a warning.
// It returns the number of challenges inserted.
func Seed(ctx context.Context, st *Store, list []Challenge, dict *trie.Node, workers int) (int, error) {
	var missing []Challenge
	for _, c := range list {
		if c.Grid.Empty() {
			log.Warn().Str("challenge", c.ID).Msg("seed: empty grid, skipped")
			continue
		}
		_, err := st.Get(ctx, c.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return 0, err
		}
		missing = append(missing, c)
	}

	var unsolved []int
	var grids []grid.Grid
	for i, c := range missing {
		if len(c.Solutions) == 0 {
			unsolved = append(unsolved, i)
			grids = append(grids, c.Grid)
		}
	}
	if len(grids) > 0 {
		sets, err := solver.SolveAll(ctx, grids, dict, workers)
		if err != nil {
			return 0, fmt.Errorf("solve seed challenges: %w", err)
		}
		for k, i := range unsolved {
			missing[i].Solutions = sets[k].Sorted()
		}
	}

	for _, c := range missing {
		if err := st.Put(ctx, c); err != nil {
			return 0, fmt.Errorf("put %s: %w", c.ID, err)
		}
		log.Info().Str("challenge", c.ID).Int("solutions", len(c.Solutions)).Msg("seeded challenge")
	}
	return len(missing), nil
}
