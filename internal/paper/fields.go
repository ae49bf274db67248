package paper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type listKind uint8

const (
	listAbsent listKind = iota
	listString
	listSequence
)

// ListField is a list-valued input (authors, tags) as a client submitted it:
// one raw string (comma-delimited, or a JSON array literal) or a sequence of strings.
// The zero value means "not submitted". Normalize resolves it.
type ListField struct {
	kind listKind
	raw  string
	seq  []string
}

func RawString(s string) ListField { return ListField{kind: listString, raw: s} }

func RawSequence(items []string) ListField {
	return ListField{kind: listSequence, seq: append([]string{}, items...)}
}

// Present reports whether the field was submitted at all.
func (f ListField) Present() bool { return f.kind != listAbsent }

// Truthy reports whether the field replaces the stored list on update:
// a submitted empty string counts as not submitted, a submitted sequence always counts.
func (f ListField) Truthy() bool {
	switch f.kind {
	case listString:
		return f.raw != ""
	case listSequence:
		return true
	}
	return false
}

// UnmarshalJSON accepts a JSON string, a JSON array of strings, or null.
func (f *ListField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ListField{}
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFieldFormat, err)
		}
		*f = RawString(s)
	case '[':
		var items []string
		if err := json.Unmarshal(b, &items); err != nil {
			return fmt.Errorf("%w: list must contain only strings", ErrInvalidFieldFormat)
		}
		*f = RawSequence(items)
	default:
		return fmt.Errorf("%w: expected a string or an array of strings", ErrInvalidFieldFormat)
	}
	return nil
}

// Fields carries a create or update submission. A nil pointer or an absent
// ListField marks a field that was not submitted.
type Fields struct {
	Title    *string
	Authors  ListField
	Abstract *string
	Journal  *string
	Year     *int
	Tags     ListField
}

// ParseYear converts a submitted year. Blank input means not submitted.
func ParseYear(raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	y, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: year %q is not an integer", ErrInvalidFieldFormat, raw)
	}
	return &y, nil
}

func StringPtr(s string) *string { return &s }
func IntPtr(i int) *int          { return &i }
