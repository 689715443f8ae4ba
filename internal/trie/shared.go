package trie

import (
	"sync"

	"github.com/robalobadob/boggle/internal/words"
)

var (
	sharedOnce sync.Once
	shared     *Node
)

// Shared returns the index over the process-wide dictionary (words.List),
// built once on first use. Callers must treat it as read-only.
func Shared() *Node {
	sharedOnce.Do(func() {
		shared = Build(words.List())
	})
	return shared
}
