package assets

import (
	"bufio"
	"embed"
	"encoding/json"
	"io/fs"
	"strings"
)

//go:embed dictionary.txt challenges.json sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToLower(s))
	}
	return out, sc.Err()
}

// DictionaryList returns the embedded starter dictionary.
func DictionaryList() ([]string, error) {
	return readLines("dictionary.txt")
}

// SeedChallenge mirrors one entry of challenges.json. Rows are kept as raw
// JSON so both literal rows and per-row JSON strings survive decoding.
type SeedChallenge struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Difficulty string            `json:"difficulty"`
	TimeLimit  int               `json:"timeLimit"`
	Grid       []json.RawMessage `json:"grid"`
	Solutions  []string          `json:"solutions"`
}

// SeedChallenges decodes the embedded challenge catalogue.
func SeedChallenges() ([]SeedChallenge, error) {
	b, err := FS.ReadFile("challenges.json")
	if err != nil {
		return nil, err
	}
	var out []SeedChallenge
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Migrations exposes sql/*.sql rooted at the sql directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}
