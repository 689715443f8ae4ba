// internal/grid/grid.go
//
// N×N letter grid used by both play modes.
// Responsibilities:
//   - Generate random, vowel-weighted grids for free play (size clamped to [2,12]).
//   - Normalize externally supplied challenge grids into canonical form.
//
// Canonical form:
//   - Every row has exactly N tiles.
//   - A tile is one uppercase letter A–Z; "QU" is folded into a single "Q".
//   - Unusable cells become Placeholder, which no dictionary word can match.

package grid

import (
	"encoding/json"
	"math/rand/v2"
	"strings"
)

const (
	MinSize     = 2
	MaxSize     = 12
	DefaultSize = 4

	// Placeholder fills padded or unreadable cells.
	Placeholder = "?"
)

// distribution is the tile bag: every letter once, vowels repeated so a
// drawn tile is a vowel a little over twice as often as a uniform draw.
const distribution = "AAABCDEEEEFGHIIIJKLMNOOOPQRSTUUVWXYZ"

// Grid is a square grid of tiles, rows first.
type Grid [][]string

// Clamp bounds a requested size to [MinSize, MaxSize].
func Clamp(size int) int {
	if size < MinSize {
		return MinSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Generate returns a random grid of the clamped size.
func Generate(size int) Grid {
	return GenerateWith(nil, size)
}

// GenerateWith draws tiles from r, or from the global source when r is nil.
// A seeded r always produces the same grid.
func GenerateWith(r *rand.Rand, size int) Grid {
	n := Clamp(size)
	g := make(Grid, n)
	for i := range g {
		row := make([]string, n)
		for j := range row {
			var k int
			if r != nil {
				k = r.IntN(len(distribution))
			} else {
				k = rand.IntN(len(distribution))
			}
			row[j] = distribution[k : k+1]
		}
		g[i] = row
	}
	return g
}

// Size returns N (the row count).
func (g Grid) Size() int { return len(g) }

// Empty reports whether the grid has no tiles (not yet loaded).
func (g Grid) Empty() bool { return len(g) == 0 }

// Valid reports whether g is a non-empty N×N grid.
func (g Grid) Valid() bool {
	if len(g) == 0 {
		return false
	}
	for _, row := range g {
		if len(row) != len(g) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Encode renders each row as JSON text, the storage form for challenge grids.
func (g Grid) Encode() []string {
	out := make([]string, len(g))
	for i, row := range g {
		b, _ := json.Marshal(row)
		out[i] = string(b)
	}
	return out
}

// String renders the grid one row per line, for logs and the CLI.
func (g Grid) String() string {
	var b strings.Builder
	for i, row := range g {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, t := range row {
			if j > 0 {
				b.WriteByte(' ')
			}
			if t == "Q" {
				t = "Qu"
			}
			b.WriteString(t)
		}
	}
	return b.String()
}
