package paper

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Normalize turns a submitted list field into its canonical form: trimmed,
// non-empty strings in submission order, duplicates kept.
//
// A raw string whose trimmed form starts with '[' must be a JSON array of
// strings; anything else is split on commas. An absent or blank field yields
// an empty list. Create and update both go through here.
func Normalize(f ListField) ([]string, error) {
	switch f.kind {
	case listAbsent:
		return []string{}, nil
	case listSequence:
		return compact(f.seq), nil
	}

	s := strings.TrimSpace(f.raw)
	if s == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(s, "[") {
		var items []string
		if err := json.Unmarshal([]byte(s), &items); err != nil {
			return nil, fmt.Errorf("%w: malformed JSON list %q", ErrInvalidFieldFormat, s)
		}
		return compact(items), nil
	}
	return compact(strings.Split(s, ",")), nil
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
