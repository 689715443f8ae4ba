// internal/trie/trie.go
//
// Prefix tree over the 26-letter alphabet.
// Responsibilities:
//   - Build a dictionary index from a raw word list (normalized, ≥3 letters).
//   - O(1) child lookup per letter, used by the solver to prune dead prefixes.
//
// Notes:
//   - A built tree is never mutated; one instance is shared by every search.
//   - Child slots are a fixed [26] array indexed by letter.

package trie

import "github.com/robalobadob/boggle/internal/words"

// MinWordLen is the shortest word that can ever be scored.
const MinWordLen = words.MinLen

// Node is one prefix in the tree. The root represents the empty prefix.
type Node struct {
	children [26]*Node
	word     bool
}

// Build inserts every word (after normalization) of at least MinWordLen
// letters. Duplicate words are harmless. An empty list yields a bare root.
func Build(list []string) *Node {
	root := &Node{}
	for _, raw := range list {
		w := words.Normalize(raw)
		if len(w) < MinWordLen {
			continue
		}
		n := root
		for i := 0; i < len(w); i++ {
			j := w[i] - 'a'
			if n.children[j] == nil {
				n.children[j] = &Node{}
			}
			n = n.children[j]
		}
		n.word = true
	}
	return root
}

// Child returns the node reached by appending letter, or nil.
// Both 'a'..'z' and 'A'..'Z' are accepted; anything else has no child.
func (n *Node) Child(letter byte) *Node {
	if n == nil {
		return nil
	}
	switch {
	case letter >= 'a' && letter <= 'z':
		return n.children[letter-'a']
	case letter >= 'A' && letter <= 'Z':
		return n.children[letter-'A']
	}
	return nil
}

// IsWord reports whether the path to n spells a complete word.
func (n *Node) IsWord() bool { return n != nil && n.word }

// Walk follows s letter by letter and returns the final node, or nil.
func (n *Node) Walk(s string) *Node {
	cur := n
	for i := 0; i < len(s) && cur != nil; i++ {
		cur = cur.Child(s[i])
	}
	return cur
}

// Contains reports whether s is a complete word in the tree.
func (n *Node) Contains(s string) bool { return n.Walk(s).IsWord() }

// HasPrefix reports whether some word in the tree starts with s.
func (n *Node) HasPrefix(s string) bool { return n.Walk(s) != nil }

// Len counts the complete words below n.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	c := 0
	if n.word {
		c++
	}
	for _, ch := range n.children {
		c += ch.Len()
	}
	return c
}
