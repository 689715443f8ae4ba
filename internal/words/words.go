// internal/words/words.go
//
// Provides dictionary word list management for the solver.
//
// Responsibilities:
//   - Load the dictionary from an environment-provided file or fall back to the embedded default.
//   - Normalize raw words and guesses to lowercase a–z.
//   - Supply utility functions like List, IsKnown and Stats.
//
// Initialization behavior (Init):
//   1. If DICTIONARY_FILE is set, load one word per line from it.
//   2. Otherwise fall back to the embedded starter list (assets/dictionary.txt).
//
// Environment variables:
//   DICTIONARY_FILE=/path/to/words.txt
//
// Constraints:
//   • Words shorter than MinLen letters are dropped (they can never score).
//   • Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/robalobadob/boggle/assets"
)

// MinLen is the shortest scorable word.
const MinLen = 3

var (
	initOnce   sync.Once
	list       []string            // normalized, deduplicated, load order
	known      map[string]struct{} // set view of list
	initialErr error
)

// Init loads the dictionary exactly once.
// Returns an error if the list ends up empty.
func Init() error {
	initOnce.Do(func() {
		var raw []string
		if path := os.Getenv("DICTIONARY_FILE"); path != "" {
			raw, initialErr = readWordFile(path)
			if initialErr != nil {
				return
			}
		} else {
			raw, initialErr = assets.DictionaryList()
			if initialErr != nil {
				return
			}
		}

		known = make(map[string]struct{}, len(raw))
		for _, w := range raw {
			w = Normalize(w)
			if len(w) < MinLen {
				continue
			}
			if _, dup := known[w]; dup {
				continue
			}
			known[w] = struct{}{}
			list = append(list, w)
		}

		if len(list) == 0 {
			initialErr = errors.New("words: dictionary is empty")
		}
	})
	return initialErr
}

// readWordFile loads one word per line from a file, skipping blanks and # comments.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadList(f)
}

// ReadList reads one word per line from r. Lines are returned trimmed but
// otherwise unnormalized; blank lines and # comments are skipped.
func ReadList(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// Normalize trims, lowercases and drops every rune outside a–z.
// It is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(w string) string {
	w = strings.ToLower(strings.TrimSpace(w))
	var b strings.Builder
	b.Grow(len(w))
	for i := 0; i < len(w); i++ {
		if c := w[i]; c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// List returns the loaded dictionary, initializing it on first use.
// The returned slice must not be modified.
func List() []string {
	_ = Init()
	return list
}

// IsKnown reports whether w (after normalization) is in the dictionary.
func IsKnown(w string) bool {
	_ = Init()
	_, ok := known[Normalize(w)]
	return ok
}

// Stats returns the number of loaded dictionary words.
func Stats() int {
	_ = Init()
	return len(list)
}
