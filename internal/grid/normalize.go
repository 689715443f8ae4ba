package grid

import (
	"encoding/json"
	"strings"
)

// Normalize converts externally supplied grid data into a canonical Grid.
//
// Accepted shapes: Grid, [][]string, []string of per-row JSON text, and
// []any whose rows are literal arrays or per-row JSON strings (what
// encoding/json produces). Malformed input never fails: unreadable cells
// become Placeholder and short or missing rows are padded up to
// N = max(row count, longest row). Input with no letter tiles at all yields
// a zero-length Grid, which callers treat as "not loaded".
func Normalize(raw any) Grid {
	rows := toRows(raw)
	n := len(rows)
	for _, r := range rows {
		if len(r) > n {
			n = len(r)
		}
	}
	if n == 0 {
		return Grid{}
	}

	g := make(Grid, n)
	letters := 0
	for i := range g {
		row := make([]string, n)
		for j := range row {
			row[j] = Placeholder
			if i < len(rows) && j < len(rows[i]) {
				row[j] = normalizeCell(rows[i][j])
			}
			if row[j] != Placeholder {
				letters++
			}
		}
		g[i] = row
	}
	if letters == 0 {
		return Grid{}
	}
	return g
}

// ParseRows normalizes a grid stored as per-row JSON text.
func ParseRows(rows []string) Grid { return Normalize(rows) }

func toRows(raw any) [][]any {
	switch v := raw.(type) {
	case Grid:
		return toRows([][]string(v))
	case [][]string:
		out := make([][]any, len(v))
		for i, r := range v {
			out[i] = stringsToAny(r)
		}
		return out
	case []string:
		out := make([][]any, len(v))
		for i, r := range v {
			out[i] = parseRow(r)
		}
		return out
	case []json.RawMessage:
		out := make([][]any, len(v))
		for i, r := range v {
			var x any
			if err := json.Unmarshal(r, &x); err == nil {
				out[i] = toRow(x)
			}
		}
		return out
	case []any:
		out := make([][]any, len(v))
		for i, r := range v {
			out[i] = toRow(r)
		}
		return out
	case json.RawMessage:
		var x any
		if err := json.Unmarshal(v, &x); err != nil {
			return nil
		}
		return toRows(x)
	}
	return nil
}

func toRow(r any) []any {
	switch v := r.(type) {
	case []any:
		return v
	case []string:
		return stringsToAny(v)
	case string:
		return parseRow(v)
	}
	return nil
}

// parseRow decodes one per-row JSON string. Text that is not a JSON array
// is read as a run of letters, with "QU" kept together as one tile.
func parseRow(s string) []any {
	var cells []any
	if err := json.Unmarshal([]byte(s), &cells); err == nil {
		return cells
	}
	up := strings.ToUpper(strings.TrimSpace(s))
	for i := 0; i < len(up); i++ {
		c := up[i]
		if c < 'A' || c > 'Z' {
			continue
		}
		if c == 'Q' && i+1 < len(up) && up[i+1] == 'U' {
			i++
		}
		cells = append(cells, string(c))
	}
	return cells
}

func stringsToAny(r []string) []any {
	out := make([]any, len(r))
	for i, s := range r {
		out[i] = s
	}
	return out
}

// normalizeCell uppercases a cell and folds "QU" to "Q". Anything that is
// not then a single letter A–Z becomes Placeholder.
func normalizeCell(v any) string {
	s, ok := v.(string)
	if !ok {
		return Placeholder
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "QU", "Q")
	if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		return Placeholder
	}
	return s
}
