// internal/solver/solver.go
//
// Enumerates every dictionary word that can be traced on a grid.
// Responsibilities:
//   - Walk adjacent-tile paths (8-neighbour) from every tile, advancing a
//     trie pointer in lockstep and abandoning a path as soon as its letters
//     stop being a dictionary prefix.
//   - Collect complete words of at least 3 letters into a WordSet.
//
// Notes:
//   - The walk uses an explicit stack, so stack depth is bounded by the
//     heap, not the goroutine stack, even on large grids.
//   - Visited and path state live in one call; the trie is only read.
//     Concurrent calls on the same grid and trie are safe.

package solver

import (
	"context"

	"github.com/robalobadob/boggle/internal/grid"
	"github.com/robalobadob/boggle/internal/trie"
)

// neighbours is the Moore neighbourhood as (row, col) offsets.
var neighbours = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// frame is one tile on the current path.
type frame struct {
	pos  int        // row*n + col
	node *trie.Node // trie node after consuming this tile
	next int        // next neighbour index to try
}

// FindAllWords returns the set of dictionary words traceable on g.
// An empty or nil grid, or a nil dictionary, yields an empty set.
func FindAllWords(g grid.Grid, dict *trie.Node) WordSet {
	found := WordSet{}
	if dict == nil || g.Empty() {
		return found
	}

	rows := len(g)
	cols := 0
	for _, r := range g {
		if len(r) > cols {
			cols = len(r)
		}
	}

	// Flatten tiles to lowercase bytes; 0 marks an unusable cell.
	tiles := make([]byte, rows*cols)
	for r, row := range g {
		for c, t := range row {
			if len(t) == 1 {
				if ch := t[0] | 0x20; ch >= 'a' && ch <= 'z' {
					tiles[r*cols+c] = ch
				}
			}
		}
	}

	visited := make([]bool, len(tiles))
	path := make([]byte, 0, len(tiles))
	stack := make([]frame, 0, len(tiles))

	push := func(pos int, n *trie.Node) {
		visited[pos] = true
		path = append(path, tiles[pos])
		if n.IsWord() && len(path) >= trie.MinWordLen {
			found[string(path)] = struct{}{}
		}
		stack = append(stack, frame{pos: pos, node: n})
	}

	for start := range tiles {
		n := dict.Child(tiles[start])
		if n == nil {
			continue
		}
		push(start, n)

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(neighbours) {
				visited[top.pos] = false
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
				continue
			}
			d := neighbours[top.next]
			top.next++

			r, c := top.pos/cols+d[0], top.pos%cols+d[1]
			if r < 0 || r >= rows || c < 0 || c >= cols {
				continue
			}
			p := r*cols + c
			if visited[p] {
				continue
			}
			child := top.node.Child(tiles[p])
			if child == nil {
				continue
			}
			push(p, child)
		}
	}
	return found
}

// Solve runs FindAllWords on a background goroutine so callers driving a
// countdown are never blocked past ctx. The search itself is not
// interruptible; a cancelled search finishes and its result is dropped.
func Solve(ctx context.Context, g grid.Grid, dict *trie.Node) (WordSet, error) {
	done := make(chan WordSet, 1)
	go func() { done <- FindAllWords(g, dict) }()
	select {
	case ws := <-done:
		return ws, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
